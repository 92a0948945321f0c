package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/spetersoncode/lazygen"
	"github.com/spetersoncode/lazygen/client"
	"github.com/spetersoncode/lazygen/models"
)

var reader = bufio.NewReader(os.Stdin)

func main() {
	godotenv.Load()
	ctx := context.Background()

	fmt.Println("╔════════════════════════════════════════╗")
	fmt.Println("║      lazygen - Deferred Gen Demo       ║")
	fmt.Println("╚════════════════════════════════════════╝")
	fmt.Println()

	keys := client.APIKeys{
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Google:    os.Getenv("GOOGLE_API_KEY"),
	}

	defaultModel := pickModel(keys)
	if defaultModel == "" {
		fmt.Println("  ✗ No API keys found. Set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GOOGLE_API_KEY.")
		return
	}
	fmt.Printf("Using %s\n\n", defaultModel)

	c := client.New(client.Config{
		APIKeys:      keys,
		DefaultModel: defaultModel,
	})
	lazygen.SetDefaultInvoker(c)

	if askYesNo("Demo deferred text generation?") {
		demoText(ctx)
	}
	if askYesNo("Demo field navigation and schema inference?") {
		demoFields(ctx)
	}
	if askYesNo("Demo dependent generations?") {
		demoDependencies(ctx)
	}
	if askYesNo("Demo streaming?") {
		demoStreaming(ctx)
	}
	if askYesNo("Demo parallel resolution?") {
		demoParallel(ctx)
	}

	fmt.Println("\n✨ Demo complete!")
}

func pickModel(keys client.APIKeys) models.Model {
	switch {
	case keys.Anthropic != "":
		return models.DefaultClaudeModel
	case keys.OpenAI != "":
		return models.DefaultGPTModel
	case keys.Google != "":
		return models.DefaultGeminiModel
	default:
		return ""
	}
}

func askYesNo(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func banner(title string) {
	fmt.Println("\n┌─────────────────────────────────────────┐")
	fmt.Printf("│  %-39s│\n", title)
	fmt.Println("└─────────────────────────────────────────┘")
}

// demoText shows that nothing happens until Resolve is called.
func demoText(ctx context.Context) {
	banner("Deferred Text")

	haiku := lazygen.Text("Write a haiku about lazy evaluation.")
	fmt.Println("Generation created; no API call has happened yet.")
	fmt.Printf("Pending generations: %d\n", len(lazygen.Pending()))

	text, err := haiku.Resolve(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Printf("\n%v\n", text)

	// Second resolve returns the memoized value without another call.
	again, _ := haiku.Resolve(ctx)
	fmt.Printf("\nMemoized identical result: %v\n", text == again)
}

// demoFields shows schema inference from field accesses on an object
// generation.
func demoFields(ctx context.Context) {
	banner("Field Navigation")

	review := lazygen.Object("Review this product: wireless noise-canceling headphones, $250.")
	summary := review.Field("summary")
	isRecommended := review.Field("isRecommended")
	keyPoints := review.Field("keyPoints")

	fmt.Printf("Accessed fields drive the schema: %v\n", review.AccessedFields())

	for name, field := range map[string]*lazygen.Generation{
		"summary":       summary,
		"isRecommended": isRecommended,
		"keyPoints":     keyPoints,
	} {
		value, err := field.Resolve(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving %s: %v\n", name, err)
			return
		}
		fmt.Printf("  %s: %v\n", name, value)
	}
}

// demoDependencies chains two generations through prompt substitution.
func demoDependencies(ctx context.Context) {
	banner("Dependent Generations")

	topic := lazygen.Text("Name one surprising fact about octopuses, in one sentence.")
	question := lazygen.Text("Turn this fact into a quiz question: ", topic)

	fmt.Println("Resolving the question pulls in the fact automatically...")
	value, err := question.Resolve(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	fact, _ := topic.Resolve(ctx)
	fmt.Printf("\nFact:     %v\n", fact)
	fmt.Printf("Question: %v\n", value)
}

// demoStreaming prints deltas as they arrive, then the final value.
func demoStreaming(ctx context.Context) {
	banner("Streaming")

	story := lazygen.Text("Tell a two-sentence story about a robot learning to cook.")
	stream := story.Stream(ctx)

	fmt.Println()
	for event := range stream.Text() {
		if event.Err != nil {
			fmt.Fprintf(os.Stderr, "\nStream error: %v\n", event.Err)
			return
		}
		fmt.Print(event.Delta)
	}

	if _, err := stream.Result(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Println("\n\n(stream finished)")
}

// demoParallel resolves several generations concurrently with All.
func demoParallel(ctx context.Context) {
	banner("Parallel Resolution")

	colors := lazygen.List("List 3 colors that evoke calm.")
	animals := lazygen.List("List 3 animals known for patience.")
	foods := lazygen.List("List 3 foods eaten at breakfast.")

	results, err := lazygen.All(ctx, colors, animals, foods)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	for i, label := range []string{"colors", "animals", "foods"} {
		fmt.Printf("  %s: %v\n", label, results[i])
	}
}
