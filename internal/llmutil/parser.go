// internal/llmutil/parser.go
package llmutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// Regex definitions use \x60 (hex representation) for backticks because Go raw strings cannot contain backticks.

	// jsonObjectRegex extracts a JSON object if the response is wrapped in markdown.
	jsonObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
)

const thinkCloseTag = "</think>"

// StripReasoning drops everything up to and including the final closing
// reasoning tag some models emit before their actual answer.
func StripReasoning(response string) string {
	if idx := strings.LastIndex(response, thinkCloseTag); idx != -1 {
		return response[idx+len(thinkCloseTag):]
	}
	return response
}

// ParseJSONResponse parses a model response into a target Go type. It
// tolerates the common failure shapes: reasoning preambles, markdown code
// fences, and conversational text surrounding the object. The payload is
// taken as the span from the first '{' to the last '}'.
func ParseJSONResponse[T any](response string) (*T, error) {
	response = strings.TrimSpace(StripReasoning(response))
	jsonStringToParse := response

	// 1. Handle markdown wrapping (most common case).
	if strings.HasPrefix(response, "```") {
		matches := jsonObjectRegex.FindStringSubmatch(response)
		if len(matches) > 1 {
			jsonStringToParse = matches[1]
		}
	} else if !strings.HasPrefix(response, "{") {
		// 2. Attempt to find the object within conversational text.
		fb := strings.Index(response, "{")
		lb := strings.LastIndex(response, "}")
		if fb == -1 || lb == -1 || lb <= fb {
			return nil, fmt.Errorf("no JSON object found in response (truncated): %s", truncateString(response, 500))
		}
		jsonStringToParse = response[fb : lb+1]
	}

	// 3. Unmarshal
	var result T
	if err := json.Unmarshal([]byte(jsonStringToParse), &result); err != nil {
		// Provide a detailed error message including the extracted JSON snippet.
		return nil, fmt.Errorf("failed to unmarshal LLM JSON response: %w. Extracted JSON (truncated): %s", err, truncateString(jsonStringToParse, 500))
	}

	return &result, nil
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	// Simple truncation; does not account for rune boundaries but sufficient for error logging.
	return s[:maxLen] + "..."
}
