package pipeline

import "strings"

// highGenerationKeywords push an object's generation-necessity score up:
// an object described with any of these is unusual enough that a cache
// hit is unlikely to match its visual intent, grounded on
// asset_retrieval/decision_engine.py's HIGH_SCORE_KEYWORDS.
var highGenerationKeywords = []string{
	"custom", "unique", "special", "cyberpunk", "steampunk",
	"futuristic", "sci-fi", "artistic", "handmade", "vintage", "antique",
}

// lowGenerationKeywords push the score down: common, generic objects are
// good retrieval candidates, grounded on LOW_SCORE_KEYWORDS.
var lowGenerationKeywords = []string{
	"ordinary", "standard", "common", "simple", "basic", "generic",
}

// GenerationScore rates how much a card's visual description calls for
// fresh generation over a cache lookup, in [0, 1]; grounded on
// AssetDecisionEngine.evaluate's rule-based scoring (the CLIP-embedding
// retrieval path itself is out of scope — see clients.AssetCache).
func GenerationScore(description string) float64 {
	desc := strings.ToLower(description)
	score := 0.5
	for _, kw := range highGenerationKeywords {
		if strings.Contains(desc, kw) {
			score += 0.15
		}
	}
	for _, kw := range lowGenerationKeywords {
		if strings.Contains(desc, kw) {
			score -= 0.15
		}
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
