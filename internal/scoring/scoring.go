// Package scoring turns one (question, answer) pair into a bounded score with
// feedback, either by parsing a model's rubric reply or from answer length.
package scoring

import (
	"math"
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

const (
	MinScore = 1.0
	MaxScore = 10.0

	// NoResponse replaces an empty answer before scoring.
	NoResponse = "[No response provided]"
)

// Score provenance.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

type Evaluation struct {
	Score               float64
	Feedback            string
	Strengths           string
	AreasForImprovement string
	Source              string
}

// PrepareAnswer substitutes a neutral placeholder for empty or skipped answers.
func PrepareAnswer(answer string) string {
	a := strings.TrimSpace(answer)
	switch {
	case a == "":
		return NoResponse
	case a == "SKIPPED", a == models.SkippedAnswer:
		return models.SkippedAnswer
	default:
		return a
	}
}

// Clamp bounds s to [MinScore, MaxScore]; NaN becomes the rubric default.
func Clamp(s float64) float64 {
	if math.IsNaN(s) {
		return defaultScore
	}
	return math.Max(MinScore, math.Min(MaxScore, s))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Average is the mean of scores rounded to one decimal, or 0 for no scores.
func Average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return Round1(sum / float64(len(scores)))
}
