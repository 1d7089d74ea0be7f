package plantinfo

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Extract recovers the JSON object embedded in a model response. It takes the
// text between the first '{' and the last '}' and discards the rest; anything
// that does not parse becomes an Unparsed document.
func Extract(text string) Document {
	raw := strings.TrimSpace(text)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return Unparsed{Reason: ParseFailureMessage, RawText: raw}
	}

	candidate := []byte(raw[start : end+1])
	if !json.Valid(candidate) {
		return Unparsed{Reason: ParseFailureMessage, RawText: raw}
	}

	// numbers stay as written instead of round-tripping through float64
	decoder := json.NewDecoder(bytes.NewReader(candidate))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return Unparsed{Reason: ParseFailureMessage, RawText: raw}
	}

	return Parsed{Fields: fields}
}
