package plantinfo

import (
	"encoding/json"
)

const ParseFailureMessage = "Failed to parse JSON response from AI"

// Document is what the retriever hands back: either Parsed or Unparsed.
// Both encode to a JSON object suitable as a response body.
type Document interface {
	json.Marshaler
	isDocument()
}

// Parsed holds the object the model produced, unvalidated beyond being JSON
type Parsed struct {
	Fields map[string]any
}

func (Parsed) isDocument() {}

func (p Parsed) MarshalJSON() ([]byte, error) {
	if p.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Fields)
}

// Unparsed is the error-document variant. RawText keeps the model output for
// diagnosis.
type Unparsed struct {
	Reason  string
	RawText string
}

func (Unparsed) isDocument() {}

func (u Unparsed) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error       string `json:"error"`
		RawResponse string `json:"raw_response"`
	}{
		Error:       u.Reason,
		RawResponse: u.RawText,
	})
}
