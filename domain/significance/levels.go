// Package significance derives Bonferroni-corrected thresholds and the
// star annotations drawn on correlation heatmaps.
package significance

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"psychoplot/internal/errors"
)

// NumLevels is the exact number of thresholds a caller supplies.
const NumLevels = 3

// DefaultLevels returns a fresh copy of [0.05, 0.01, 0.001].
func DefaultLevels() []float64 {
	return []float64{0.05, 0.01, 0.001}
}

// ValidateLevels requires exactly three finite thresholds.
func ValidateLevels(levels []float64) error {
	if len(levels) != NumLevels {
		return errors.InvalidInputf("significance levels of %d floating-point thresholds are required, got %d", NumLevels, len(levels))
	}
	for i, l := range levels {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return errors.InvalidInputf("significance level %d is not a finite number", i)
		}
	}
	return nil
}

// ParseLevels parses "0.05,0.01,0.001". Integer literals such as "1" are
// rejected: every threshold must be written as a floating-point number.
func ParseLevels(s string) ([]float64, error) {
	tokens := strings.Split(s, ",")
	levels := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if !strings.ContainsAny(tok, ".eE") {
			return nil, errors.InvalidInputf("significance level %q is not a floating-point number", tok)
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, errors.InvalidInputf("significance level %q is not a floating-point number", tok)
		}
		levels = append(levels, v)
	}
	if err := ValidateLevels(levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// Correction is the outcome of a Bonferroni correction over a p-value matrix.
type Correction struct {
	NumCompared int     `json:"num_compared"`
	Alpha       float64 `json:"alpha"`
	Corrected   float64 `json:"corrected"`
	// Retained thresholds, loosest first. Retained[0] is always Corrected.
	Retained []float64 `json:"retained"`
}

// Correct divides levels[0] by numCompared, merges the result into a copy of
// levels sorted descending and discards every entry before the first
// occurrence of the corrected value. levels is not modified.
func Correct(levels []float64, numCompared int) (Correction, error) {
	if err := ValidateLevels(levels); err != nil {
		return Correction{}, err
	}
	if numCompared <= 0 {
		return Correction{}, errors.InvalidInputf("number of comparisons must be positive, got %d", numCompared)
	}

	alpha := levels[0]
	corrected := alpha / float64(numCompared)

	merged := make([]float64, 0, len(levels)+1)
	merged = append(merged, levels...)
	merged = append(merged, corrected)
	sort.Sort(sort.Reverse(sort.Float64Slice(merged)))

	cut := 0
	for i, v := range merged {
		if v == corrected {
			cut = i
			break
		}
	}

	return Correction{
		NumCompared: numCompared,
		Alpha:       alpha,
		Corrected:   corrected,
		Retained:    append([]float64(nil), merged[cut:]...),
	}, nil
}

// Report writes the human readable diagnostics of the correction.
func (c Correction) Report(w io.Writer) error {
	_, err := io.WriteString(w, c.String()+"\n")
	return err
}

func (c Correction) String() string {
	return fmt.Sprintf("The total number of comparisons is %d\n"+
		"Bonferroni method: alpha before and after correction are %g and %g\n"+
		"The final determined floating-point threshold is: %s",
		c.NumCompared, c.Alpha, c.Corrected, formatLevels(c.Retained))
}

func formatLevels(levels []float64) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = strconv.FormatFloat(l, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
