package contract

import (
	"encoding/json"
	"errors"
	"strings"
)

// #region extract-json

// ExtractJSON pulls a single JSON object out of arbitrary role text.
// Reasoning roles occasionally wrap their payload in prose or markdown
// fences; the object itself must still validate untouched.
//
// Strategy: direct parse, then the slice between the first '{' and the
// last '}', then a balanced-brace scan.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	if json.Valid([]byte(text)) && strings.HasPrefix(text, "{") {
		return text, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	depth := 0
	startIdx := -1
	inString := false
	escaped := false
	for i, ch := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				startIdx = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && startIdx != -1 {
					candidate := text[startIdx : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, nil
					}
					startIdx = -1
				}
			}
		}
	}

	return "", errors.New("no JSON object found in role output")
}

// #endregion

// #region field-check

// checkFields rejects payloads with missing required keys or keys outside
// the declared schema. Role outputs must be pure structured data.
func checkFields(role string, obj map[string]json.RawMessage, required []string, optional ...string) error {
	for _, key := range required {
		if _, ok := obj[key]; !ok {
			return violation(role, key, "missing required field")
		}
	}
	allowed := make(map[string]bool, len(required)+len(optional))
	for _, key := range required {
		allowed[key] = true
	}
	for _, key := range optional {
		allowed[key] = true
	}
	for key := range obj {
		if !allowed[key] {
			return violation(role, key, "field not in schema")
		}
	}
	return nil
}

// decodeObject parses raw JSON into a key map, rejecting non-objects.
func decodeObject(role string, raw []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, violation(role, "", "payload is not a JSON object")
	}
	return obj, nil
}

// #endregion
