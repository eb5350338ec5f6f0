// Copyright (c) 2026 Exvault. All rights reserved.

/*
Package extract sends document pages to an AI model and turns the response
into structured exercise metadata.

Architecture:

  - Extractor: The interface the document workflow depends on.
  - Gemini: The production implementation backed by Google's Generative
    Language API.
  - Cache: A Redis decorator keyed on a fingerprint of the page images, so
    re-analyzing an unchanged document never repeats the model call.

The model is asked for strict JSON via a response schema; parsing failures
surface as PARSE_ERROR and everything else about the call as
EXTRACTION_ERROR, so the client can distinguish "the model misbehaved" from
"the call never worked".
*/
package extract

import (
	"encoding/json"
	"strings"

	"github.com/exvault/exvault/internal/platform/apperr"
)

// ExerciseTypes are the allowed classifications for the first tag of every
// extracted exercise.
var ExerciseTypes = []string{"regular exercise", "homework", "programming", "exam"}

// DefaultExerciseType is assigned when the model fails to classify.
const DefaultExerciseType = "regular exercise"

// Exercise is one exercise identified on the analyzed pages.
type Exercise struct {
	// Name is the exercise title or identifier, e.g. "Exercise 1.1".
	Name string `json:"name"`
	// Tags carries the exercise type first, then subject keywords.
	Tags []string `json:"tags"`
}

// Result is the structured outcome of one extraction call.
type Result struct {
	CourseName string     `json:"courseName"`
	Exercises  []Exercise `json:"exercises"`
}

// ParseResult decodes the model's text output into a [Result].
//
// Models occasionally wrap JSON in markdown code fences or surround it with
// prose despite the response schema, so decoding falls back to the first
// balanced JSON object in the text before giving up with a PARSE_ERROR.
func ParseResult(text string) (Result, error) {
	var result Result

	cleaned := stripCodeFences(text)
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		embedded := findFirstJSON(cleaned)
		if embedded == "" {
			return Result{}, apperr.ParseError("AI response is not valid JSON", err)
		}
		if err := json.Unmarshal([]byte(embedded), &result); err != nil {
			return Result{}, apperr.ParseError("AI response is not valid JSON", err)
		}
	}

	if strings.TrimSpace(result.CourseName) == "" {
		return Result{}, apperr.ParseError("AI response is missing the course name", nil)
	}

	for index := range result.Exercises {
		result.Exercises[index] = normalizeExercise(result.Exercises[index])
	}
	return result, nil
}

// normalizeExercise enforces the tag contract: no blanks, no
// case-insensitive duplicates, and an exercise type in the first position.
func normalizeExercise(exercise Exercise) Exercise {
	seen := make(map[string]struct{}, len(exercise.Tags))
	tags := make([]string, 0, len(exercise.Tags))
	for _, tag := range exercise.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		lowered := strings.ToLower(tag)
		if _, duplicate := seen[lowered]; duplicate {
			continue
		}
		seen[lowered] = struct{}{}
		tags = append(tags, tag)
	}

	typeIndex := -1
	for index, tag := range tags {
		if isExerciseType(tag) {
			typeIndex = index
			break
		}
	}

	switch {
	case typeIndex > 0:
		// A type tag exists but is misplaced; move it to the front.
		typeTag := tags[typeIndex]
		tags = append(tags[:typeIndex], tags[typeIndex+1:]...)
		tags = append([]string{typeTag}, tags...)
	case typeIndex == -1:
		tags = append([]string{DefaultExerciseType}, tags...)
	}

	exercise.Name = strings.TrimSpace(exercise.Name)
	exercise.Tags = tags
	return exercise
}

func isExerciseType(tag string) bool {
	lowered := strings.ToLower(tag)
	for _, exerciseType := range ExerciseTypes {
		if lowered == exerciseType {
			return true
		}
	}
	return false
}

// stripCodeFences removes a surrounding markdown code fence, if any.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if newline := strings.Index(text, "\n"); newline != -1 {
			text = text[newline+1:]
		}
	}
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSpace(strings.TrimSuffix(text, "```"))
	}
	return text
}

// findFirstJSON returns the first balanced top-level JSON object in text.
func findFirstJSON(text string) string {
	start := -1
	depth := 0
	for index, char := range text {
		switch char {
		case '{':
			if start == -1 {
				start = index
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return text[start : index+1]
				}
			}
		}
	}
	return ""
}
