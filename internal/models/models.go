package models

// PredictRequest is the body of POST /predict. ImageURL is a pointer so a
// missing field can be told apart from an empty string.
type PredictRequest struct {
	ImageURL *string `json:"image_url"`
}

// ErrorResponse is the body of every non-200 response
type ErrorResponse struct {
	Error string `json:"error"`
}
