// Copyright (c) 2026 Exvault. All rights reserved.

package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/exvault/exvault/internal/imaging"
	"github.com/exvault/exvault/internal/platform/apperr"
	"github.com/exvault/exvault/internal/platform/ctxutil"
)

// # Interface

// Extractor analyzes rendered document pages and returns exercise metadata.
type Extractor interface {
	Extract(ctx context.Context, pages []imaging.Frame) (Result, error)
}

// KeyProvider supplies the current AI credential. The key lives in the
// settings store and can change at runtime, so it is resolved per call
// rather than captured at startup.
type KeyProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// # Gemini

// Gemini is the production [Extractor] backed by the Generative Language API.
type Gemini struct {
	keys  KeyProvider
	model string
}

// NewGemini creates a Gemini extractor for the given model name.
func NewGemini(keys KeyProvider, model string) *Gemini {
	return &Gemini{keys: keys, model: model}
}

const extractionPrompt = `Analyze the provided document pages. Identify the overall course or document name.
Then, locate every distinct exercise, problem, or question.
For each exercise, do the following:
1. Extract its name/identifier.
2. Classify the exercise type. It must be one of: 'regular exercise', 'homework', 'programming', or 'exam'. This classification MUST be the first tag.
3. Generate 2-4 additional relevant tags based on the subject matter.
Return all this information in the specified JSON format.`

// resultSchema constrains the model to the [Result] shape.
var resultSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"courseName": {
			Type:        genai.TypeString,
			Description: "The name of the course or document title from the provided pages.",
		},
		"exercises": {
			Type:        genai.TypeArray,
			Description: "A list of all exercises found in the document.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name": {
						Type:        genai.TypeString,
						Description: "The title or identifier of the exercise (e.g., 'Exercise 1.1', 'Problem 3', 'Question 5a').",
					},
					"tags": {
						Type:        genai.TypeArray,
						Description: "A list of relevant tags. The VERY FIRST tag MUST be a classification of the exercise type from this list: 'regular exercise', 'homework', 'programming', or 'exam'. Follow this with 2-4 other relevant keywords based on the exercise content (e.g., 'calculus', 'derivatives').",
						Items:       &genai.Schema{Type: genai.TypeString},
					},
				},
				Required: []string{"name", "tags"},
			},
		},
	},
	Required: []string{"courseName", "exercises"},
}

// Extract sends the page images and extraction prompt to the model.
//
// The credential is checked before any network activity: a missing key is an
// AUTH_ERROR the client can resolve by opening settings, not a failed call.
func (gemini *Gemini) Extract(ctx context.Context, pages []imaging.Frame) (Result, error) {
	logger := ctxutil.GetLogger(ctx)

	apiKey, err := gemini.keys.APIKey(ctx)
	if err != nil {
		return Result{}, err
	}
	if apiKey == "" {
		return Result{}, apperr.AuthError("Gemini API key is not configured")
	}

	if len(pages) == 0 {
		return Result{}, apperr.SourceNotReady("No pages are available for analysis")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return Result{}, apperr.ExtractionError("AI client could not be created", err)
	}

	parts := make([]*genai.Part, 0, len(pages)+1)
	for _, page := range pages {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: "image/png", Data: page.PNG},
		})
	}
	parts = append(parts, &genai.Part{Text: extractionPrompt})

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   resultSchema,
	}

	response, err := client.Models.GenerateContent(ctx, gemini.model, contents, config)
	if err != nil {
		return Result{}, classifyCallError(err)
	}

	text := response.Text()
	if text == "" {
		return Result{}, apperr.ParseError("AI response contained no text", nil)
	}

	result, err := ParseResult(text)
	if err != nil {
		logger.Error("failed to parse AI response",
			slog.String("model", gemini.model),
			slog.Int("response_length", len(text)),
		)
		return Result{}, err
	}

	logger.Info("extraction completed",
		slog.String("model", gemini.model),
		slog.String("course_name", result.CourseName),
		slog.Int("exercise_count", len(result.Exercises)),
	)
	return result, nil
}

// classifyCallError maps a failed model call onto the error taxonomy. A
// rejected credential is user-actionable and gets its own code; everything
// else is a generic extraction failure.
func classifyCallError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return apperr.AuthError("Gemini API key was rejected")
		case 400:
			// The Generative Language API reports a bad key as
			// INVALID_ARGUMENT rather than an auth status.
			if strings.Contains(apiErr.Message, "API key") {
				return apperr.AuthError("Gemini API key is invalid")
			}
		}
	}
	return apperr.ExtractionError("AI extraction call failed", err)
}
