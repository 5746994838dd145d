package assessment

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// tolerance divisor: a candidate allows one edit per five characters
const toleranceDivisor = 5

// Result is the outcome of grading one submission
type Result struct {
	Accepted  bool
	BestMatch string
	Index     int // index of BestMatch in the accepted answers, -1 if none
	Distance  int
}

// MaxDistance returns the largest edit distance tolerated for candidate
func MaxDistance(candidate string) int {
	return utf8.RuneCountInString(candidate) / toleranceDivisor
}

// Grade compares submitted against every accepted answer. Inputs are
// expected to be normalized by the caller.
func Grade(submitted string, accepted []string) Result {
	res := Result{Index: -1, Distance: -1}

	if strings.TrimSpace(submitted) == "" {
		if len(accepted) > 0 {
			res.BestMatch = accepted[0]
		}
		return res
	}

	for i, candidate := range accepted {
		distance := levenshtein.ComputeDistance(submitted, candidate)
		if distance > MaxDistance(candidate) {
			continue
		}
		// strictly smaller wins, ties keep the first
		if !res.Accepted || distance < res.Distance {
			res.Accepted = true
			res.BestMatch = candidate
			res.Index = i
			res.Distance = distance
		}
	}

	return res
}

// Normalize prepares free text for comparison
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// GradeText normalizes both sides before grading and reports the best match
// in its original spelling
func GradeText(submitted string, accepted []string) Result {
	normalized := make([]string, len(accepted))
	for i, a := range accepted {
		normalized[i] = Normalize(a)
	}

	res := Grade(Normalize(submitted), normalized)
	switch {
	case res.Index >= 0:
		res.BestMatch = accepted[res.Index]
	case res.BestMatch != "":
		res.BestMatch = accepted[0]
	}
	return res
}
