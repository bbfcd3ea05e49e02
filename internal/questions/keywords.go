// Package questions holds the provider-independent parts of question
// generation: keyword extraction, fallback templates, parsing of generated
// text and normalisation of caller-supplied lists.
package questions

import (
	"regexp"
	"strings"
)

// DefaultMaxKeywords caps ExtractKeywords when max <= 0.
const DefaultMaxKeywords = 8

var tokenRe = regexp.MustCompile(`[a-z][a-z0-9+\-#]*`)

var stopWords = toSet(
	// generic job-posting vocabulary
	"the", "and", "with", "from", "this", "that", "have", "will", "your",
	"about", "using", "experience", "skills", "team", "work", "role",
	"responsibilities", "ability", "strong", "knowledge", "prior", "must",
	"should", "high", "level", "for", "collaborate", "understanding", "tools",
	"software", "across", "years", "such", "including", "support", "business",
	"drive", "create", "range", "excellent", "communication", "solve",
	"build", "focus", "design", "deliver", "manage", "ensure",
	// hiring boilerplate
	"are", "is", "am", "be", "being", "been", "a", "an", "in", "on", "at", "by", "to",
	"of", "we", "you", "they", "job", "position", "looking", "seeking", "candidate",
	"hire", "hiring", "apply", "applicant", "our", "we're", "we've",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// ExtractKeywords returns up to max distinct salient tokens of text in order of
// first appearance. Tokens shorter than three characters and stop words are dropped.
func ExtractKeywords(text string, max int) []string {
	if max <= 0 {
		max = DefaultMaxKeywords
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	seen := map[string]struct{}{}
	var out []string
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if len(tok) < 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) >= max {
			break
		}
	}
	return out
}
