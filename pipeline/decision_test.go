package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationScoreNeutralForPlainDescription(t *testing.T) {
	assert.Equal(t, 0.5, GenerationScore("a wooden chair"))
}

func TestGenerationScoreRisesForDistinctiveKeywords(t *testing.T) {
	assert.Greater(t, GenerationScore("a custom cyberpunk lamp"), 0.5)
}

func TestGenerationScoreFallsForGenericKeywords(t *testing.T) {
	assert.Less(t, GenerationScore("a standard generic table"), 0.5)
}

func TestGenerationScoreClampsToUnitRange(t *testing.T) {
	assert.LessOrEqual(t, GenerationScore("custom unique special cyberpunk steampunk futuristic sci-fi artistic handmade vintage antique"), 1.0)
	assert.GreaterOrEqual(t, GenerationScore("ordinary standard common simple basic generic"), 0.0)
}
