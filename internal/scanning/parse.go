package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseReply reads a model reply as an Extraction.
//
// The reply is tried as strict JSON first. Models often wrap the object in
// prose or markdown fences, so the span from the first '{' to the last '}'
// is tried next, and finally each brace-balanced object in order of
// appearance that carries at least one receipt field. The parsed object is
// returned as is.
func ParseReply(text string) (*Extraction, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "{") {
		if data, err := decodeExtraction(text); err == nil {
			return data, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil, &ParseError{Err: errNoJSONObject}
	}

	data, greedyErr := decodeExtraction(text[start : end+1])
	if greedyErr == nil {
		return data, nil
	}

	for _, candidate := range balancedObjects(text) {
		if !hasReceiptField(candidate) {
			continue
		}
		if data, err := decodeExtraction(candidate); err == nil {
			return data, nil
		}
	}

	return nil, &ParseError{Err: fmt.Errorf("unmarshaling json: %w", greedyErr)}
}

func decodeExtraction(text string) (*Extraction, error) {
	var data Extraction
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// hasReceiptField reports whether text is an object with a storeName, date
// or items key
func hasReceiptField(text string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return false
	}
	for _, key := range []string{"storeName", "date", "items"} {
		if _, ok := fields[key]; ok {
			return true
		}
	}
	return false
}

// balancedObjects returns every top-level {...} span whose braces balance,
// ignoring braces inside JSON strings.
func balancedObjects(text string) []string {
	var (
		objects  []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

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
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				objects = append(objects, text[start:i+1])
			}
		}
	}

	return objects
}
