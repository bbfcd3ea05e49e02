package questions

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
	"gopkg.in/yaml.v3"
)

const defaultScoringCriteria = "Evaluate based on clarity, depth, and relevance"

// TemplateSet drives fallback generation. Keyword templates use {keyword} and
// {role}; general templates use {role}.
type TemplateSet struct {
	Keyword         []string `yaml:"keyword"`
	General         []string `yaml:"general"`
	Filler          string   `yaml:"filler"`
	GenericKeywords []string `yaml:"generic_keywords"`
}

func DefaultTemplates() TemplateSet {
	return TemplateSet{
		Keyword: []string{
			"Can you walk me through a recent project where you applied {keyword}?",
			"How do you stay current with best practices around {keyword}?",
			"Describe a complex challenge involving {keyword} and how you solved it.",
			"How would you leverage {keyword} to deliver value as a {role}?",
			"Tell me about a time you led a team while focusing on {keyword}.",
			"What metrics do you track to measure success when working with {keyword}?",
			"How do you mentor teammates who are newer to {keyword}?",
		},
		General: []string{
			"What excites you most about contributing as a {role}?",
			"How do you prioritize competing deadlines in a fast-paced environment?",
			"Describe how you ensure communication stays clear across cross-functional partners.",
			"Walk me through your approach to planning the first 90 days in this {role} role.",
			"How do you evaluate whether a solution truly solved the original problem?",
		},
		Filler:          "What best practices have you developed around {keyword}?",
		GenericKeywords: []string{"problem solving", "stakeholder communication", "continuous improvement"},
	}
}

// LoadTemplateSet reads a YAML template file. Sections missing from the file
// keep their defaults.
func LoadTemplateSet(path string) (TemplateSet, error) {
	set := DefaultTemplates()
	b, err := os.ReadFile(path)
	if err != nil {
		return set, err
	}

	var file TemplateSet
	if err := yaml.Unmarshal(b, &file); err != nil {
		return set, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Keyword) > 0 {
		set.Keyword = file.Keyword
	}
	if len(file.General) > 0 {
		set.General = file.General
	}
	if strings.TrimSpace(file.Filler) != "" {
		set.Filler = file.Filler
	}
	if len(file.GenericKeywords) > 0 {
		set.GenericKeywords = file.GenericKeywords
	}
	return set, set.Validate()
}

func (t TemplateSet) Validate() error {
	if !strings.Contains(t.Filler, "{keyword}") {
		return errors.New("filler template must contain {keyword}")
	}
	if len(t.GenericKeywords) == 0 {
		return errors.New("generic_keywords must not be empty")
	}
	for _, k := range t.Keyword {
		if !strings.Contains(k, "{keyword}") {
			return fmt.Errorf("keyword template %q has no {keyword}", k)
		}
	}
	return nil
}

// Fallback deterministically produces exactly n questions from the templates:
// keyword templates first (technical), then general templates (behavioral),
// then the filler, cycling through the keywords.
func (t TemplateSet) Fallback(n int, role, description string) []models.Question {
	if n <= 0 {
		return nil
	}
	rolePhrase := strings.TrimSpace(role)
	if rolePhrase == "" {
		rolePhrase = "this role"
	}

	keywords := ExtractKeywords(description, DefaultMaxKeywords)
	if len(keywords) == 0 && strings.TrimSpace(role) != "" {
		keywords = ExtractKeywords(role, DefaultMaxKeywords)
	}
	if len(keywords) == 0 {
		keywords = t.GenericKeywords
	}

	out := make([]models.Question, 0, n)
	add := func(tmpl, typ string) {
		kw := keywords[len(out)%len(keywords)]
		text := strings.NewReplacer("{keyword}", kw, "{role}", rolePhrase).Replace(tmpl)
		out = append(out, models.Question{
			Index:           len(out),
			Text:            text,
			Type:            typ,
			Source:          models.SourceFallback,
			ScoringCriteria: defaultScoringCriteria,
		})
	}

	for _, tmpl := range t.Keyword {
		if len(out) >= n {
			break
		}
		add(tmpl, models.QuestionTypeTechnical)
	}
	for _, tmpl := range t.General {
		if len(out) >= n {
			break
		}
		add(tmpl, models.QuestionTypeBehavioral)
	}
	for len(out) < n {
		add(t.Filler, models.QuestionTypeTechnical)
	}
	return out
}
