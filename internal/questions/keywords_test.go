package questions

import (
	"reflect"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{"empty", "   ", 5, nil},
		{"drops stop words and short tokens", "We are looking for a Go engineer with Kubernetes experience", 5, []string{"engineer", "kubernetes"}},
		{"keeps order and dedupes", "Kafka, Spark and Kafka streaming with Spark", 5, []string{"kafka", "spark", "streaming"}},
		{"keeps symbols", "C++ and C# developer, node.js", 5, []string{"c++", "developer", "node"}},
		{"caps at max", "alpha bravo charlie delta echo", 2, []string{"alpha", "bravo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractKeywords(tt.text, tt.max); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
