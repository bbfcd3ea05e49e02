package questions

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

// Parsed is one question recovered from generated text.
type Parsed struct {
	Text string
	Type string
}

var (
	fenceRe      = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	leadStarsRe  = regexp.MustCompile(`^\*+\s*`)
	numberingRe  = regexp.MustCompile(`^\d+[).\-]\s*`)
	bulletRe     = regexp.MustCompile(`^[\-*•]\s*`)
	boldPrefixRe = regexp.MustCompile(`^\*\*.*?\*\*:?\s*`)
	questionEnd  = regexp.MustCompile(`\?\s*`)

	// lines produced by models that annotate their questions
	annotationPrefixes = []string{"**", "why it", "what you", "ideal answer", "good answer", "red flags", "difficulty:"}

	behavioralMarkers = []string{
		"tell me about a time", "describe a situation", "give an example",
		"how did you handle", "experience with", "worked with a team",
	}
)

// ParseGenerated extracts up to max questions from a model completion. A JSON
// array of {"text","type"} objects is preferred; anything else is parsed line
// by line, stripping numbering, bullets and markdown.
func ParseGenerated(content string, max int) []Parsed {
	if max <= 0 {
		return nil
	}
	if out := parseJSON(content, max); len(out) > 0 {
		return out
	}

	texts := parseLines(content, max)
	out := make([]Parsed, 0, len(texts))
	for _, t := range texts {
		out = append(out, Parsed{Text: t, Type: ClassifyType(t)})
	}
	return out
}

// ClassifyType tags a question behavioral when it asks about past conduct.
func ClassifyType(q string) string {
	lq := strings.ToLower(q)
	for _, m := range behavioralMarkers {
		if strings.Contains(lq, m) {
			return models.QuestionTypeBehavioral
		}
	}
	return models.QuestionTypeTechnical
}

func normalizeType(t, text string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case models.QuestionTypeTechnical:
		return models.QuestionTypeTechnical
	case models.QuestionTypeBehavioral:
		return models.QuestionTypeBehavioral
	default:
		return ClassifyType(text)
	}
}

type generatedItem struct {
	Text     string `json:"text"`
	Question string `json:"question"`
	Type     string `json:"type"`
}

func parseJSON(content string, max int) []Parsed {
	candidate := strings.TrimSpace(content)
	if m := fenceRe.FindStringSubmatch(candidate); m != nil {
		candidate = strings.TrimSpace(m[1])
	}
	start, end := strings.Index(candidate, "["), strings.LastIndex(candidate, "]")
	if start < 0 || end <= start {
		return nil
	}

	var items []generatedItem
	if err := json.Unmarshal([]byte(candidate[start:end+1]), &items); err != nil {
		return nil
	}

	out := make([]Parsed, 0, len(items))
	for _, it := range items {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			text = strings.TrimSpace(it.Question)
		}
		if text == "" {
			continue
		}
		text = ensureQuestionMark(text)
		out = append(out, Parsed{Text: text, Type: normalizeType(it.Type, text)})
		if len(out) >= max {
			break
		}
	}
	return out
}

func parseLines(content string, max int) []string {
	var out []string
	seen := map[string]struct{}{}
	push := func(q string) {
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}

	for _, line := range strings.Split(content, "\n") {
		clean := strings.TrimSpace(line)
		if clean == "" || hasAnnotationPrefix(clean) {
			continue
		}
		clean = stripDecorations(clean)
		if len(clean) < 10 {
			continue
		}
		clean = ensureQuestionMark(clean)
		if len(strings.Fields(clean)) >= 5 {
			push(clean)
		}
	}

	// prose answers: split on question marks
	if len(out) < max {
		for _, chunk := range questionEnd.Split(content, -1) {
			chunk = stripDecorations(strings.TrimSpace(chunk))
			if len(chunk) <= 10 || len(strings.Fields(chunk)) < 5 || strings.Contains(chunk, "\n") {
				continue
			}
			push(chunk + "?")
			if len(out) >= max {
				break
			}
		}
	}

	if len(out) > max {
		out = out[:max]
	}
	return out
}

func hasAnnotationPrefix(line string) bool {
	l := strings.ToLower(line)
	for _, p := range annotationPrefixes {
		if strings.HasPrefix(l, p) {
			return true
		}
	}
	return false
}

func stripDecorations(s string) string {
	s = leadStarsRe.ReplaceAllString(s, "")
	s = numberingRe.ReplaceAllString(s, "")
	s = bulletRe.ReplaceAllString(s, "")
	s = boldPrefixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func ensureQuestionMark(s string) string {
	if strings.HasSuffix(s, "?") {
		return s
	}
	return strings.TrimRight(s, ". ") + "?"
}
