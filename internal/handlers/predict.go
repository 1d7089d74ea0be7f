package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/plantid/internal/classifier"
	"github.com/lehigh-university-libraries/plantid/internal/identification"
	"github.com/lehigh-university-libraries/plantid/internal/images"
	"github.com/lehigh-university-libraries/plantid/internal/models"
	"github.com/lehigh-university-libraries/plantid/internal/preprocess"
)

const (
	msgNoImageURL        = "No image URL provided"
	msgUnreadableImage   = "Could not identify image file. It may be corrupt or not a supported format."
	msgMissingClassNames = "Model is missing the 'class_names' attribute."
	msgUnexpected        = "An unexpected error occurred on the server: "
)

// HandlePredict identifies the plant at image_url and responds with its
// plant info document. Enrichment failures still answer 200 with an
// error-document body.
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body := io.Reader(r.Body)
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var request models.PredictRequest
	if err := json.NewDecoder(body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.ImageURL == nil || *request.ImageURL == "" {
		h.writeError(w, msgNoImageURL, http.StatusBadRequest)
		return
	}

	result, err := h.identifier.Identify(r.Context(), *request.ImageURL)
	if err != nil {
		message, code := errorResponse(err)
		h.writeError(w, message, code)
		return
	}

	h.writeJSON(w, http.StatusOK, result.Document)
}

// errorResponse maps a pipeline failure to the message and status the
// caller sees. Input problems are 400, artifact problems and anything
// unexpected are 500.
func errorResponse(err error) (string, int) {
	var stageErr *identification.StageError
	if errors.As(err, &stageErr) {
		err = stageErr.Err
	}

	var ctErr *images.ContentTypeError
	switch {
	case errors.As(err, &ctErr):
		return ctErr.Error(), http.StatusBadRequest
	case errors.Is(err, images.ErrDownload):
		return "Failed to download image: " + cause(err, images.ErrDownload), http.StatusBadRequest
	case errors.Is(err, preprocess.ErrUnreadableImage):
		return msgUnreadableImage, http.StatusBadRequest
	case errors.Is(err, classifier.ErrMissingClassNames):
		return msgMissingClassNames, http.StatusInternalServerError
	case errors.Is(err, classifier.ErrModelContract):
		return "Model contract violated: " + cause(err, classifier.ErrModelContract), http.StatusInternalServerError
	default:
		return msgUnexpected + err.Error(), http.StatusInternalServerError
	}
}

// cause strips the sentinel's own text from err's message
func cause(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
