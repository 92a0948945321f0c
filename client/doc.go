// Package client provides a unified multi-provider invocation layer.
//
// The Client implements [lazygen.Invoker] by routing each request to a
// provider backend based on the model identifier, with:
//
//   - Model-centric routing: the model prefix determines the provider
//   - Multi-provider support: configure all providers at once, use any model
//   - Automatic retries: built-in exponential backoff for transient errors
//   - Event emission: observable operations via channel
//
// # Basic Usage
//
// Create a client with API keys and a default model, then install it as
// the invoker for deferred generations:
//
//	c := client.New(client.Config{
//	    APIKeys: client.APIKeys{
//	        Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
//	        OpenAI:    os.Getenv("OPENAI_API_KEY"),
//	    },
//	    DefaultModel: models.ClaudeSonnet45,
//	})
//	lazygen.SetDefaultInvoker(c)
//
//	answer := lazygen.Text("Explain quantum computing briefly.")
//	text, err := answer.Resolve(ctx)
//
// # Model-Centric Routing
//
//	// Uses the default model (routes to Anthropic)
//	lazygen.Text("Hello!")
//
//	// Override with GPT-5.2 (routes to OpenAI)
//	lazygen.Text("Hello!", lazygen.WithModel(models.GPT52.String()))
//
//	// Override with Gemini (routes to Google)
//	lazygen.Text("Hello!", lazygen.WithModel(models.Gemini25Flash.String()))
//
// # Retry Configuration
//
// Transient errors (rate limits, server errors, network failures) are
// retried with exponential backoff. Configure via Config.RetryConfig or
// disable with [DisabledRetryConfig].
package client
