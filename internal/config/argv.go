package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// parseArgv splits a shell-like command string. Quotes group words, a
// backslash escapes the next rune, a leading # disables the command, and a
// leading ~/ on any word expands to the home directory.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv   []string
		word   strings.Builder
		inWord bool
		quote  rune
		escape bool
	)

	for _, r := range input {
		if escape {
			word.WriteRune(r)
			escape = false
			continue
		}
		switch {
		case r == '\\':
			escape, inWord = true, true
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			word.WriteRune(r)
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, expandHome(word.String()))
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	switch {
	case escape:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case quote != 0:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	if inWord {
		argv = append(argv, expandHome(word.String()))
	}
	return argv, nil
}

func expandHome(word string) string {
	if !strings.HasPrefix(word, "~/") {
		return word
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return word
	}
	return filepath.Join(home, word[2:])
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
