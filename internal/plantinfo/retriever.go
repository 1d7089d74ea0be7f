// Package plantinfo asks a language model for structured botanical and
// agronomic details about a plant species.
package plantinfo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/plantid/internal/providers"
)

const DefaultTemperature = 0.3

const promptTemplate = `
*STRICTLY GIVE BACK JSON NOTHING EXTRA ,NO HEADING TO THE TEXT, NO JSON WRITTEN IN FRONT OF THE JSON*
Provide the following details about the plant '%s' in STRICT JSON format.
{
    "name": "...", "description": "...", "uses": "...", "natural_medicinal_benefits": "...",
    "pharmaceutical_uses": "...", "chemical_composition": "...", "plant_height": "...",
    "locations_in_india": [...], "climate": {"temperature": "...", "rainfall": "..."},
    "pharmaceutical_usage": {"product1": "...", "product2": "..."},
    "soil_conditions": {"type": "...", "pH": "...", "best_conditions": "..."},
    "varieties": [...], "fertilizer_requirement": "...",
    "irrigation": {"summer": "...", "rainy": "...", "winter": "..."},
    "harvesting": {"method": "...", "frequency": "..."}, "coordinates": [...]
}
`

// BuildPrompt renders the fixed schema prompt for a species label
func BuildPrompt(plantName string) string {
	return fmt.Sprintf(promptTemplate, plantName)
}

// Retriever turns a species label into a Document
type Retriever struct {
	provider    providers.Provider
	model       string
	temperature float64
}

// NewRetriever returns a retriever calling provider with a fixed model and temperature
func NewRetriever(provider providers.Provider, model string, temperature float64) *Retriever {
	return &Retriever{
		provider:    provider,
		model:       model,
		temperature: temperature,
	}
}

// Retrieve never fails: completion errors and unparseable output both come
// back as Unparsed documents.
func (r *Retriever) Retrieve(ctx context.Context, plantName string) Document {
	text, err := r.provider.Complete(ctx, providers.Config{
		Model:       r.model,
		Temperature: r.temperature,
		Prompt:      BuildPrompt(plantName),
	})
	if err != nil {
		slog.Error("Plant info completion failed", "plant", plantName, "model", r.model, "err", err)
		return Unparsed{Reason: "Failed to get response from AI: " + err.Error()}
	}

	doc := Extract(text)
	if u, ok := doc.(Unparsed); ok {
		slog.Warn("Failed to parse JSON response", "plant", plantName, "model", r.model, "raw_length", len(u.RawText))
		slog.Debug("Unparsed plant info response", "raw", truncate(u.RawText, 500))
		return doc
	}

	slog.Info("Retrieved plant info", "plant", plantName, "model", r.model, "length", len(text))
	return doc
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}
