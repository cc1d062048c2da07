package router

import (
	"sort"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"github.com/Maynkbisht/AI-Router/internal/llm/provider"
)

// Scoring weights
const (
	StrengthWeight = 0.6
	OverlapWeight  = 0.2
	QualityWeight  = 0.2
)

// Scored pairs a provider with its affinity for a classified prompt.
type Scored struct {
	Provider provider.Provider
	Score    float64
}

// Score computes the affinity in [0,1] between a classified prompt and a
// provider: a fixed bonus when the category is a declared strength, the
// fraction of keywords that name a strength, and the static quality.
func Score(category classifier.Category, keywords []string, d provider.Descriptor) float64 {
	score := 0.0

	if d.HasStrength(string(category)) {
		score += StrengthWeight
	}

	if len(keywords) > 0 {
		overlap := 0
		for _, k := range keywords {
			if d.HasStrength(k) {
				overlap++
			}
		}
		score += OverlapWeight * float64(overlap) / float64(len(keywords))
	}

	score += QualityWeight * d.Quality

	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

// Rank scores every provider and orders them best first. Equal scores keep
// registry order.
func Rank(category classifier.Category, keywords []string, providers []provider.Provider) []Scored {
	ranked := make([]Scored, 0, len(providers))
	for _, p := range providers {
		ranked = append(ranked, Scored{
			Provider: p,
			Score:    Score(category, keywords, p.Descriptor()),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
