package scoring

import "strings"

type lengthBucket struct {
	below    int // exclusive upper bound on word count; 0 means unbounded
	score    float64
	feedback string
}

var lengthBuckets = []lengthBucket{
	{5, 2, "Very brief response - needs more detail and examples."},
	{20, 4, "Brief response - could benefit from more specific examples and details."},
	{50, 6, "Adequate response length - good baseline answer."},
	{100, 8, "Comprehensive response with good detail."},
	{0, 9, "Very detailed and thorough response."},
}

// ByLength scores an answer from its word count alone.
func ByLength(answer string) Evaluation {
	words := len(strings.Fields(answer))

	b := lengthBuckets[len(lengthBuckets)-1]
	for _, lb := range lengthBuckets {
		if lb.below > 0 && words < lb.below {
			b = lb
			break
		}
	}
	return Evaluation{
		Score:               b.score,
		Feedback:            b.feedback,
		Strengths:           "Response provided with reasonable effort.",
		AreasForImprovement: "Consider providing more specific examples and technical details.",
		Source:              SourceFallback,
	}
}
