package llm

import "strings"

// extractJSON returns the first balanced JSON object found in content. Models
// occasionally wrap their JSON in prose or code fences even when a structured
// response format is requested; the balanced-brace scan recovers the payload.
// Content without an object is returned unchanged so decoding fails loudly.
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start == -1 {
		return content
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(content); i++ {
		c := content[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}

	return content[start:]
}
