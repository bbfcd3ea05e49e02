package scoring

import (
	"regexp"
	"strconv"
	"strings"
	"text/template"
)

const (
	defaultScore        = 5.0
	defaultFeedback     = "Standard response evaluated."
	defaultStrengths    = "Response provided."
	defaultImprovements = "Could provide more specific examples."
)

var rubricPrompt = template.Must(template.New("rubric").Parse(
	`You are an expert HR interviewer. Evaluate this interview response on a scale of 1-10.

Question: {{.Question}}

Candidate's Response: {{.Answer}}

Evaluate based on these HR criteria:
1. Relevance and completeness of the answer
2. Technical knowledge demonstrated
3. Communication clarity and professionalism
4. Problem-solving approach
5. Specific examples and details provided

Provide:
- Score (1-10): Where 1 is very poor, 5 is average, and 10 is exceptional
- Brief feedback (2-3 sentences) explaining the score
- Key strengths and areas for improvement

Format your response as:
Score: [number]
Feedback: [your feedback]
Strengths: [key strengths]
Areas for improvement: [areas to improve]`))

// RubricPrompt renders the scoring prompt for one answer.
func RubricPrompt(question, answer string) string {
	var sb strings.Builder
	_ = rubricPrompt.Execute(&sb, struct{ Question, Answer string }{question, answer})
	return sb.String()
}

var (
	numberRe    = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	labelTrimRe = regexp.MustCompile(`^[\s*#\-]+`)
)

// ParseRubric reads a reply laid out as "Label: value" lines. Unknown lines are
// ignored; missing or malformed fields keep their defaults.
func ParseRubric(text string) Evaluation {
	ev := Evaluation{
		Score:               defaultScore,
		Feedback:            defaultFeedback,
		Strengths:           defaultStrengths,
		AreasForImprovement: defaultImprovements,
		Source:              SourceAI,
	}

	for _, raw := range strings.Split(text, "\n") {
		label, value, ok := splitLabel(raw)
		if !ok {
			continue
		}
		switch label {
		case "score":
			ev.Score = parseScore(value)
		case "feedback":
			ev.Feedback = value
		case "strengths":
			ev.Strengths = value
		case "areas for improvement", "improvements":
			ev.AreasForImprovement = value
		}
	}
	ev.Score = Round1(Clamp(ev.Score))
	return ev
}

func splitLabel(line string) (label, value string, ok bool) {
	line = labelTrimRe.ReplaceAllString(strings.TrimSpace(line), "")
	i := strings.Index(line, ":")
	if i <= 0 {
		return "", "", false
	}
	label = strings.ToLower(strings.Trim(line[:i], " *"))
	value = strings.TrimSpace(strings.Trim(line[i+1:], " *"))
	if value == "" {
		return "", "", false
	}
	return label, value, true
}

func parseScore(v string) float64 {
	m := numberRe.FindString(v)
	if m == "" {
		return defaultScore
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return defaultScore
	}
	return f
}
