package services

import (
	"weblog-stats/models"
)

// DefaultSniffSampleSize is how many characters DetectDelimiter inspects.
const DefaultSniffSampleSize = 4096

// minConsistency is the share of sampled rows that must agree on a
// delimiter count before the delimiter is accepted.
const minConsistency = 0.9

// DetectDelimiter guesses the field separator from the first sampleSize
// characters of text. For every candidate it counts occurrences outside
// quotes on each sampled row, takes the most common count and measures how
// many rows share it. The most consistent candidate with a non-zero count
// wins; ties go to the earlier entry in models.Delimiters. When nothing is
// consistent enough the result is a comma.
func DetectDelimiter(text string, sampleSize int) models.Delimiter {
	if sampleSize <= 0 {
		sampleSize = DefaultSniffSampleSize
	}
	sample, truncated := leadingRunes(text, sampleSize)

	best := models.Comma
	bestScore := 0.0
	for _, d := range models.Delimiters {
		counts := delimiterCounts(sample, d, truncated)
		mode, score := consistency(counts)
		if mode == 0 || score < minConsistency {
			continue
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

// leadingRunes returns at most n characters of s and whether s was cut.
func leadingRunes(s string, n int) (string, bool) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}

// delimiterCounts returns, for each non-blank row in sample, how many times
// d occurs outside double quotes. A trailing row cut off by truncation is
// ignored unless it is the only row.
func delimiterCounts(sample string, d models.Delimiter, truncated bool) []int {
	var counts []int
	n, inQuotes, blank := 0, false, true

	for _, r := range sample {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			blank = false
		case inQuotes:
		case r == '\n' || r == '\r':
			if !blank {
				counts = append(counts, n)
			}
			n, blank = 0, true
		case r == rune(d):
			n++
			blank = false
		case r != ' ' && r != '\t':
			blank = false
		}
	}
	if !blank && (!truncated || len(counts) == 0) {
		counts = append(counts, n)
	}
	return counts
}

// consistency returns the most frequent value in counts (larger value on a
// tie) and the fraction of counts equal to it.
func consistency(counts []int) (mode int, score float64) {
	if len(counts) == 0 {
		return 0, 0
	}
	freq := make(map[int]int, len(counts))
	for _, c := range counts {
		freq[c]++
	}
	bestFreq := 0
	for value, f := range freq {
		if f > bestFreq || (f == bestFreq && value > mode) {
			mode, bestFreq = value, f
		}
	}
	return mode, float64(bestFreq) / float64(len(counts))
}
