package service

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Composite score weights.
const (
	nameWeight    = 50.0
	cityWeight    = 30.0
	addressWeight = 20.0
)

// Score thresholds.
const (
	duplicateReportThreshold = 70.0
	mergeThreshold           = 90.0
	reviewThreshold          = 80.0
)

type DuplicateAction string

const (
	ActionMerge  DuplicateAction = "MERGE"
	ActionReview DuplicateAction = "REVIEW"
	ActionIgnore DuplicateAction = "IGNORE"
)

// LocationCandidate is the comparable shape of a location record.
type LocationCandidate struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
}

// DuplicateMatch describes one existing record that resembles the candidate.
type DuplicateMatch struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	MatchScore      float64         `json:"matchScore"`
	MatchReasons    []string        `json:"matchReasons"`
	SuggestedAction DuplicateAction `json:"suggestedAction"`
}

// FindDuplicates scores candidate against every existing record and returns
// those scoring above 70, best first. MatchScore is rounded to one decimal. Weights are renormalized over the
// dimensions the candidate supplies: name always, city and address when set.
func FindDuplicates(candidate LocationCandidate, existing []LocationCandidate) []DuplicateMatch {
	name := normalizeForMatch(candidate.Name)
	city := normalizeForMatch(candidate.City)
	address := normalizeForMatch(candidate.Address)

	matches := []DuplicateMatch{}
	for _, other := range existing {
		var (
			weighted float64
			total    = nameWeight
			reasons  []string
		)

		nameSim := Similarity(name, normalizeForMatch(other.Name))
		weighted += nameSim * nameWeight
		switch {
		case nameSim > 0.9:
			reasons = append(reasons, "very similar names")
		case nameSim > 0.7:
			reasons = append(reasons, "similar names")
		}

		if city != "" {
			total += cityWeight
			if city == normalizeForMatch(other.City) {
				weighted += cityWeight
				reasons = append(reasons, "same city")
			}
		}

		if address != "" {
			total += addressWeight
			addrSim := Similarity(address, normalizeForMatch(other.Address))
			weighted += addrSim * addressWeight
			if addrSim > 0.8 {
				reasons = append(reasons, "very similar addresses")
			}
		}

		// Threshold and bands apply to the unrounded score.
		score := weighted / total * 100
		if score <= duplicateReportThreshold {
			continue
		}
		matches = append(matches, DuplicateMatch{
			ID:              other.ID,
			Name:            other.Name,
			MatchScore:      math.Round(score*10) / 10,
			MatchReasons:    reasons,
			SuggestedAction: actionForScore(score),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches
}

// Similarity is 1 - editDistance/maxLen over runes. Two empty strings are
// identical.
func Similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

func actionForScore(score float64) DuplicateAction {
	switch {
	case score >= mergeThreshold:
		return ActionMerge
	case score >= reviewThreshold:
		return ActionReview
	default:
		return ActionIgnore
	}
}

func normalizeForMatch(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
