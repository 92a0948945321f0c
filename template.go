package lazygen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// parseSegments turns a factory invocation into a flat prompt plus the
// ordered dependency list. Strings and other plain values are inlined in
// order; *Generation values are not inlined (their values do not exist
// yet) but registered as dependencies behind a ${dep_<index>} placeholder;
// Option values configure the generation and contribute no prompt text.
func parseSegments(segments []any) (string, []dependency, *Options) {
	var sb strings.Builder
	var deps []dependency
	opts := &Options{}

	for _, seg := range segments {
		switch v := seg.(type) {
		case Option:
			v(opts)
		case *Generation:
			sb.WriteString("${dep_" + strconv.Itoa(len(deps)) + "}")
			deps = append(deps, dependency{gen: v})
		default:
			sb.WriteString(stringify(v))
		}
	}
	return sb.String(), deps, opts
}

// stringify converts a resolved value to its prompt text form.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// substitute replaces each ${key} token in prompt with its substitution
// value. Unmatched placeholders are left as-is.
func substitute(prompt string, subs map[string]string) string {
	for key, value := range subs {
		prompt = strings.ReplaceAll(prompt, "${"+key+"}", value)
	}
	return prompt
}

var placeholderRe = regexp.MustCompile(`\$\{[^}]+\}`)

// leftoverPlaceholders returns any ${...} tokens remaining in a prompt
// after substitution.
func leftoverPlaceholders(prompt string) []string {
	return placeholderRe.FindAllString(prompt, -1)
}
