package identification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/plantid/internal/classifier"
	"github.com/lehigh-university-libraries/plantid/internal/images"
	"github.com/lehigh-university-libraries/plantid/internal/plantinfo"
	"github.com/lehigh-university-libraries/plantid/internal/preprocess"
	"github.com/lehigh-university-libraries/plantid/internal/utils"
)

type Stage string

const (
	StageFetch      Stage = "fetch"
	StagePreprocess Stage = "preprocess"
	StageClassify   Stage = "classify"
)

// StageError records which pipeline stage stopped the request
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*images.Payload, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, plantName string) plantinfo.Document
}

// Result is everything one identification produced
type Result struct {
	Prediction classifier.Prediction
	Document   plantinfo.Document
}

// Service runs fetch, preprocess, classify and enrich for one image URL.
// It holds no per-request state and is shared by all requests.
type Service struct {
	fetcher    Fetcher
	classifier classifier.Classifier
	retriever  Retriever
}

func NewService(fetcher Fetcher, c classifier.Classifier, retriever Retriever) *Service {
	return &Service{
		fetcher:    fetcher,
		classifier: c,
		retriever:  retriever,
	}
}

// Identify fails fast on the first stage error. Enrichment cannot fail, so a
// nil error always comes with a Document.
func (s *Service) Identify(ctx context.Context, imageURL string) (*Result, error) {
	start := time.Now()

	payload, err := s.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return nil, &StageError{Stage: StageFetch, Err: err}
	}

	tensor, err := preprocess.Preprocess(payload.Data)
	if err != nil {
		return nil, &StageError{Stage: StagePreprocess, Err: err}
	}

	prediction, err := classifier.Predict(ctx, s.classifier, tensor)
	if err != nil {
		return nil, &StageError{Stage: StageClassify, Err: err}
	}

	slog.Info("Classified image",
		"url", imageURL,
		"image_md5", utils.CalculateDataMD5(payload.Data),
		"content_type", payload.ContentType,
		"index", prediction.Index,
		"label", prediction.Label,
		"score", prediction.Score)

	doc := s.retriever.Retrieve(ctx, prediction.Label)

	slog.Debug("Identification finished", "url", imageURL, "label", prediction.Label, "duration", time.Since(start))

	return &Result{
		Prediction: prediction,
		Document:   doc,
	}, nil
}
