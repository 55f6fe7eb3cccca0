package moderation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	errNoJSONObject  = errors.New("no json object in classifier output")
	errMissingFields = errors.New("classifier output misses required fields")
	fenceRe          = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
)

type classifierVerdict struct {
	Allowed    *bool    `json:"allowed"`
	Category   string   `json:"category"`
	Reason     string   `json:"reason"`
	Confidence *float64 `json:"confidence"`
}

// parseVerdict accepts JSON embedded in free text, optionally fenced. Only allowed is mandatory.
func parseVerdict(raw string) (classifierVerdict, error) {
	text := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	object, ok := firstObject(text)
	if !ok {
		return classifierVerdict{}, errNoJSONObject
	}

	var v classifierVerdict
	if err := json.Unmarshal([]byte(object), &v); err != nil {
		return classifierVerdict{}, fmt.Errorf("decoding classifier output: %w", err)
	}

	if v.Allowed == nil {
		return classifierVerdict{}, errMissingFields
	}

	return v, nil
}

// firstObject returns the first balanced {...} substring, ignoring braces inside strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
