package config

import (
	"fmt"
	"strings"
)

// normalizeJSONC blanks out comments and drops trailing commas so the result
// decodes as plain JSON. Byte offsets are preserved for error positions,
// except where a trailing comma was removed.
func normalizeJSONC(content string) (string, error) {
	var (
		out          strings.Builder
		inString     bool
		escape       bool
		lineComment  bool
		blockComment bool
	)
	out.Grow(len(content))

	for i := 0; i < len(content); i++ {
		ch := content[i]
		var next byte
		if i+1 < len(content) {
			next = content[i+1]
		}

		switch {
		case lineComment:
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
		case blockComment:
			if ch == '*' && next == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
			} else if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
		case inString:
			out.WriteByte(ch)
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
		case ch == '"':
			inString = true
			out.WriteByte(ch)
		case ch == '/' && next == '/':
			lineComment = true
			out.WriteString("  ")
			i++
		case ch == '/' && next == '*':
			blockComment = true
			out.WriteString("  ")
			i++
		case ch == ',' && closesAfterComma(content[i+1:]):
			// trailing comma
		default:
			out.WriteByte(ch)
		}
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}
	return out.String(), nil
}

// closesAfterComma reports whether rest, skipping whitespace and comments,
// starts with a closing bracket.
func closesAfterComma(rest string) bool {
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case ' ', '\n', '\r', '\t':
			continue
		case '}', ']':
			return true
		case '/':
			if i+1 >= len(rest) {
				return false
			}
			switch rest[i+1] {
			case '/':
				end := strings.IndexAny(rest[i:], "\r\n")
				if end < 0 {
					return false
				}
				i += end
			case '*':
				end := strings.Index(rest[i+2:], "*/")
				if end < 0 {
					return false
				}
				i += end + 3
			default:
				return false
			}
		default:
			return false
		}
	}
	return false
}
