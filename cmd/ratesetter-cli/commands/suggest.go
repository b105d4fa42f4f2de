package commands

import (
	"ratesetter-client/internal/scrapers/ratesetter"
	"strings"

	"github.com/antzucaro/matchr"
)

const minSuggestionSimilarity = 0.75

// suggestMarket returns the key of the market that input most likely meant,
// or "" when nothing is close enough.
func suggestMarket(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}

	best := ""
	bestSimilarity := 0.0
	for _, market := range ratesetter.AllMarkets() {
		for _, candidate := range []string{market.Key(), strings.ToLower(market.Label())} {
			similarity := matchr.JaroWinkler(input, candidate, false)
			if similarity > bestSimilarity {
				best = market.Key()
				bestSimilarity = similarity
			}
		}
	}
	if bestSimilarity < minSuggestionSimilarity {
		return ""
	}
	return best
}
