package questions

import (
	"encoding/json"
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

// Supplied is a caller-provided question: either a bare JSON string or an
// object carrying the text under "question", "text" or "content".
type Supplied struct {
	Text string
	Type string
}

func (s *Supplied) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		s.Text = str
		return nil
	}

	var obj struct {
		Question string `json:"question"`
		Text     string `json:"text"`
		Content  string `json:"content"`
		Type     string `json:"type"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	switch {
	case strings.TrimSpace(obj.Question) != "":
		s.Text = obj.Question
	case strings.TrimSpace(obj.Text) != "":
		s.Text = obj.Text
	default:
		s.Text = obj.Content
	}
	s.Type = obj.Type
	return nil
}

// CleanSupplied trims the supplied questions, drops blanks and tags the rest
// as caller-supplied. It returns nil when nothing usable remains.
func CleanSupplied(in []Supplied) []models.Question {
	var out []models.Question
	for _, s := range in {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		out = append(out, models.Question{
			Index:           len(out),
			Text:            text,
			Type:            normalizeType(s.Type, text),
			Source:          models.SourceCaller,
			ScoringCriteria: defaultScoringCriteria,
		})
	}
	return out
}
