/*
Package detector extracts hour-bank facts from proof screenshots.

PURPOSE:
  The hour-bank workflow needs three facts from an uploaded screenshot:
  the account holder's name, the credited hours, and how confident the
  extraction is. This package implements tracker.Detector on top of the
  Gemini API, behind a circuit breaker so a degraded upstream never
  stalls claim submission - the tracker treats a failed analysis as
  "no automated approval" and routes the claim to cold review.

OUTPUT CONTRACT:
  The model is instructed to answer with a single JSON object:
    {"name": "...", "hours": 2.5, "confidence": 87}
  Anything else fails the analysis. Confidence is the model's own 0-100
  self-assessment; the heuristic gate in the tracker decides what to do
  with it.
*/
package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/warp/overtime-engine/engine"
	"github.com/warp/overtime-engine/tracker"
)

const detectionPrompt = `You are reading a screenshot of an hour-bank balance statement.
Extract exactly three facts:
- the full name of the account holder as printed
- the credited hours shown (a decimal number)
- your confidence in this extraction as an integer from 0 to 100

Answer with a single JSON object and nothing else:
{"name": "<account holder name>", "hours": <number>, "confidence": <0-100>}

If the image is not an hour-bank statement, answer with confidence 0.`

// Genai implements tracker.Detector against the Gemini API.
type Genai struct {
	client *genai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
}

var _ tracker.Detector = (*Genai)(nil)

// NewGenai creates a Gemini-backed detector. The circuit breaker protects
// the upstream: after sustained failures, analysis fails fast until the
// cooldown expires.
func NewGenai(ctx context.Context, apiKey, model string) (*Genai, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	settings := gobreaker.Settings{
		Name:        "proof-detector",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger than 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &Genai{
		client: client,
		model:  model,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}, nil
}

// Analyze sends the proof image to the model and parses the JSON answer.
func (g *Genai) Analyze(ctx context.Context, image []byte) (tracker.DetectionResult, error) {
	raw, err := g.cb.Execute(func() (any, error) {
		contents := []*genai.Content{
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromText(detectionPrompt),
				genai.NewPartFromBytes(image, sniffMIME(image)),
			}, genai.RoleUser),
		}
		return g.client.Models.GenerateContent(ctx, g.model, contents,
			&genai.GenerateContentConfig{
				MaxOutputTokens:  256,
				Temperature:      genai.Ptr[float32](0),
				ResponseMIMEType: "application/json",
				ThinkingConfig: &genai.ThinkingConfig{
					ThinkingBudget: genai.Ptr[int32](0),
				},
			})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Warn().Str("breaker", "proof-detector").Msg("circuit open, skipping proof analysis")
		}
		return tracker.DetectionResult{}, fmt.Errorf("proof analysis failed: %w", err)
	}

	result := raw.(*genai.GenerateContentResponse)
	return parseDetection(result.Text())
}

// parseDetection decodes the model's JSON answer into a DetectionResult.
func parseDetection(text string) (tracker.DetectionResult, error) {
	var payload struct {
		Name       string  `json:"name"`
		Hours      float64 `json:"hours"`
		Confidence int     `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return tracker.DetectionResult{}, fmt.Errorf("unparseable detection answer: %w", err)
	}
	if payload.Confidence < 0 || payload.Confidence > 100 {
		return tracker.DetectionResult{}, fmt.Errorf("detection confidence %d out of range", payload.Confidence)
	}
	return tracker.DetectionResult{
		Name:       payload.Name,
		Hours:      engine.NewHours(payload.Hours),
		Confidence: payload.Confidence,
	}, nil
}

// sniffMIME picks the image MIME type from magic bytes. Defaults to PNG,
// the format every screenshot tool produces.
func sniffMIME(image []byte) string {
	switch {
	case len(image) >= 3 && image[0] == 0xFF && image[1] == 0xD8 && image[2] == 0xFF:
		return "image/jpeg"
	case len(image) >= 6 && string(image[:6]) == "GIF87a",
		len(image) >= 6 && string(image[:6]) == "GIF89a":
		return "image/gif"
	case len(image) >= 12 && string(image[8:12]) == "WEBP":
		return "image/webp"
	default:
		return "image/png"
	}
}

// Disabled is the detector used when no API key is configured. Every
// analysis fails, which the tracker maps to "cold review".
type Disabled struct{}

var _ tracker.Detector = Disabled{}

func (Disabled) Analyze(context.Context, []byte) (tracker.DetectionResult, error) {
	return tracker.DetectionResult{}, errors.New("proof detection is not configured")
}
