// Package jsonextract recovers a JSON value from model output that may be
// wrapped in markdown fences or surrounded by prose.
package jsonextract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no parsable JSON value is present in the input
var ErrNoJSON = errors.New("no JSON found")

// fencePattern matches ```json ... ``` and bare ``` ... ``` blocks
var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?[ \\t]*\\r?\\n?(.*?)```")

// Extract returns the first syntactically valid JSON substring of text.
// Fenced code blocks are tried first; after that every '{' or '[' is
// treated as a candidate start, leftmost first.
func Extract(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	for _, match := range fencePattern.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(match[1])
		if body != "" && json.Valid([]byte(body)) {
			return body, true
		}
	}

	for start := 0; start < len(text); start++ {
		if text[start] != '{' && text[start] != '[' {
			continue
		}

		end := matchingClose(text, start)
		if end < 0 {
			continue
		}

		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}

	return "", false
}

// Decode extracts the first JSON value from text and unmarshals it into v
func Decode(text string, v interface{}) error {
	raw, ok := Extract(text)
	if !ok {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode extracted JSON: %w", err)
	}
	return nil
}

// matchingClose returns the index at which the bracket depth opened at start
// returns to zero, or -1. Quoted strings are skipped, including escaped quotes.
func matchingClose(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case char == '\\':
				escaped = true
			case char == '"':
				inString = false
			}
			continue
		}

		switch char {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
