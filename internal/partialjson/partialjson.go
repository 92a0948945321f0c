// Package partialjson repairs truncated JSON documents so that a prefix
// of a streamed response can be decoded before the stream finishes.
package partialjson

import (
	"bytes"
	"encoding/json"
	"strings"
)

type frame struct {
	opener    byte
	elemStart int  // index where the current member or element began, -1 if none
	hasColon  bool // object frame: between ':' and the end of the value
}

// Complete returns a syntactically valid JSON document derived from data,
// closing unterminated strings, discarding dangling keys, finishing partial
// literals, and appending missing closers. Returns nil if data cannot be
// repaired into valid JSON.
func Complete(data []byte) []byte {
	var stack []frame
	inString := false
	escaped := false
	pendingHex := 0
	escStart := -1

	top := func() *frame {
		if len(stack) == 0 {
			return nil
		}
		return &stack[len(stack)-1]
	}

	markElem := func(i int) {
		if f := top(); f != nil && f.elemStart < 0 {
			f.elemStart = i
		}
	}

	for i := 0; i < len(data); i++ {
		b := data[i]

		if inString {
			if pendingHex > 0 {
				pendingHex--
				continue
			}
			if escaped {
				escaped = false
				if b == 'u' {
					pendingHex = 4
				}
				continue
			}
			switch b {
			case '\\':
				escaped = true
				escStart = i
			case '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
			escStart = -1
			markElem(i)
		case '{', '[':
			markElem(i)
			stack = append(stack, frame{opener: b, elemStart: -1})
		case '}', ']':
			if len(stack) == 0 {
				return nil
			}
			stack = stack[:len(stack)-1]
		case ':':
			if f := top(); f != nil {
				f.hasColon = true
			}
		case ',':
			if f := top(); f != nil {
				f.elemStart = -1
				f.hasColon = false
			}
		case ' ', '\t', '\n', '\r':
		default:
			markElem(i)
		}
	}

	out := append([]byte(nil), data...)

	if inString {
		// A string cut mid-escape cannot keep the escape prefix.
		if (escaped || pendingHex > 0) && escStart >= 0 {
			out = out[:escStart]
		}
		f := top()
		if f != nil && f.opener == '{' && !f.hasColon {
			// Partial key, drop the whole member.
			out = trimDanglingMember(out, f.elemStart)
		} else {
			out = append(out, '"')
		}
	} else {
		out = completeLiteral(out)
		out = bytes.TrimRight(out, " \t\n\r")
		if len(out) > 0 && out[len(out)-1] == ':' {
			if f := top(); f != nil && f.elemStart >= 0 {
				out = trimDanglingMember(out, f.elemStart)
			}
		}
		out = bytes.TrimRight(out, " \t\n\r")
		if len(out) > 0 && out[len(out)-1] == ',' {
			out = out[:len(out)-1]
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].opener == '{' {
			out = append(out, '}')
		} else {
			out = append(out, ']')
		}
	}

	if !json.Valid(out) {
		return nil
	}
	return out
}

// Parse repairs data with Complete and decodes the result into a map.
// The boolean reports whether a usable object was recovered.
func Parse(data []byte) (map[string]any, bool) {
	fixed := Complete(data)
	if fixed == nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(fixed, &m); err != nil {
		return nil, false
	}
	return m, true
}

func trimDanglingMember(out []byte, elemStart int) []byte {
	if elemStart < 0 || elemStart > len(out) {
		return out
	}
	out = out[:elemStart]
	out = bytes.TrimRight(out, " \t\n\r")
	if len(out) > 0 && out[len(out)-1] == ',' {
		out = out[:len(out)-1]
	}
	return out
}

// completeLiteral finishes a trailing true/false/null prefix and strips
// characters that cannot end a number, such as a bare minus or exponent.
func completeLiteral(out []byte) []byte {
	end := len(out)
	start := end
	for start > 0 && isLiteralChar(out[start-1]) {
		start--
	}
	tok := string(out[start:end])
	if tok == "" {
		return out
	}

	for _, lit := range []string{"true", "false", "null"} {
		if tok != lit && strings.HasPrefix(lit, tok) {
			return append(out[:start], lit...)
		}
	}

	for len(out) > start && isWeakNumberTail(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func isLiteralChar(b byte) bool {
	return b >= '0' && b <= '9' ||
		b >= 'a' && b <= 'z' ||
		b >= 'A' && b <= 'Z' ||
		b == '+' || b == '-' || b == '.'
}

func isWeakNumberTail(b byte) bool {
	return b == '-' || b == '+' || b == '.' || b == 'e' || b == 'E'
}
