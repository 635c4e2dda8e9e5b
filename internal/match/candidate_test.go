package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankCandidates(t *testing.T) {
	candidates := RankCandidates("Colour", []string{"Text", "Color", "Info", "colour"})

	assert.Len(t, candidates, 4)
	assert.Equal(t, "colour", candidates[0].Name)
	assert.InDelta(t, 1.0, candidates[0].Score, 0.001)
	assert.Equal(t, "Color", candidates[1].Name)

	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Score, candidates[i].Score)
	}
}

func TestRankCandidates_TieBreaksByName(t *testing.T) {
	candidates := RankCandidates("zz", []string{"b", "a"})

	assert.Equal(t, []string{"a", "b"}, []string{candidates[0].Name, candidates[1].Name})
}

func TestSuggest(t *testing.T) {
	names := []string{"Text", "Text2", "Color", "Info"}

	assert.Equal(t, []string{"Color"}, Suggest("Colr", names, DefaultSuggestions))
	assert.Equal(t, []string{"Text", "Text2"}, Suggest("Txt", names, DefaultSuggestions))
	assert.Equal(t, []string{"Text"}, Suggest("Txt", names, 1))
	assert.Empty(t, Suggest("Extra", names, DefaultSuggestions))
	assert.Empty(t, Suggest("Color", nil, DefaultSuggestions))
}

func TestCandidateList_AboveThreshold(t *testing.T) {
	list := CandidateList{{Name: "a", Score: 0.9}, {Name: "b", Score: 0.5}, {Name: "c", Score: 0.2}}

	assert.Len(t, list.AboveThreshold(0.5), 2)
	assert.Len(t, list.Top(10), 3)
	assert.Len(t, list.Top(1), 1)
}
