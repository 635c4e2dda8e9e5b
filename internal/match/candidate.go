package match

import (
	"sort"
)

// Candidate is a member name ranked against an unknown name.
type Candidate struct {
	Name  string
	Score float64 // normalized Levenshtein similarity (0-1)
}

// CandidateList is a list of candidates with ranking functionality.
type CandidateList []Candidate

// DefaultMinScore is the lowest similarity that still yields a suggestion.
const DefaultMinScore = 0.5

// DefaultSuggestions is the number of suggestions attached to a diagnostic.
const DefaultSuggestions = 3

// RankCandidates scores every name against target and returns them sorted by
// score (descending), then by name.
func RankCandidates(target string, names []string) CandidateList {
	norm := NormalizeIdent(target)

	candidates := make(CandidateList, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, Candidate{
			Name:  name,
			Score: LevenshteinNormalized(norm, NormalizeIdent(name)),
		})
	}

	sort.Sort(candidates)

	return candidates
}

// Suggest returns up to n names closest to target with a score of at least
// DefaultMinScore.
func Suggest(target string, names []string, n int) []string {
	var out []string

	for _, c := range RankCandidates(target, names).AboveThreshold(DefaultMinScore).Top(n) {
		out = append(out, c.Name)
	}

	return out
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
func (c CandidateList) Less(i, j int) bool {
	if c[i].Score != c[j].Score {
		return c[i].Score > c[j].Score
	}

	return c[i].Name < c[j].Name
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}

	return c[:n]
}

// AboveThreshold returns candidates with a score of at least threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var result CandidateList

	for _, cand := range c {
		if cand.Score >= threshold {
			result = append(result, cand)
		}
	}

	return result
}
