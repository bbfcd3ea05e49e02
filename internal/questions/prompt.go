package questions

import (
	"strings"
	"text/template"
)

const (
	DifficultyEasy        = "easy"
	DifficultyModerate    = "moderate"
	DifficultyCompetitive = "highly_competitive"
)

var difficultyGuides = map[string]string{
	DifficultyEasy:        "Entry-level questions suitable for junior candidates. Focus on foundational knowledge and basic concepts.",
	DifficultyModerate:    "Standard professional-level questions suitable for mid-level candidates. Balance between theory and practical application.",
	DifficultyCompetitive: "Expert-level questions for senior/lead positions. Focus on advanced concepts, architecture, and complex problem-solving.",
}

// NormalizeDifficulty maps unknown or empty levels to moderate.
func NormalizeDifficulty(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if _, ok := difficultyGuides[d]; ok {
		return d
	}
	return DifficultyModerate
}

var generationPrompt = template.Must(template.New("questions").Parse(
	`Generate exactly {{.Count}} professional interview questions for this job.

Job Role: {{.Role}}
Job Description: {{.Description}}
Difficulty Level: {{.Difficulty}} - {{.Guide}}

Requirements:
- Return a JSON array of question objects
- Each question must have: "text" (the question, ending with "?") and "type" (either "technical" or "behavioral")
- Mix technical and behavioral questions (roughly 60% technical, 40% behavioral)
- Technical questions assess skills, knowledge and problem-solving related to the job
- Behavioral questions assess past experiences, teamwork, communication and leadership
- Every question must be relevant to the role and match the difficulty level

Return ONLY valid JSON in this exact format:
[
  {"text": "Question text here?", "type": "technical"},
  {"text": "Another question?", "type": "behavioral"}
]

JSON:`))

// GenerationPrompt renders the prompt asking a model for count questions.
func GenerationPrompt(count int, role, description, difficulty string) string {
	difficulty = NormalizeDifficulty(difficulty)
	if strings.TrimSpace(role) == "" {
		role = "Not specified"
	}
	if strings.TrimSpace(description) == "" {
		description = "General position"
	}

	var sb strings.Builder
	// the template and its data are fixed; Execute cannot fail here
	_ = generationPrompt.Execute(&sb, struct {
		Count       int
		Role        string
		Description string
		Difficulty  string
		Guide       string
	}{count, role, description, difficulty, difficultyGuides[difficulty]})
	return sb.String()
}
