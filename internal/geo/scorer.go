// Package geo scores how likely a case location and a footage location refer
// to the same place.
package geo

import (
	"strings"

	"github.com/golang/geo/s2"
	"golang.org/x/text/cases"
)

// EarthRadiusKM is the mean Earth radius used for great-circle distances.
const EarthRadiusKM = 6371.0088

// DefaultMinScore is the score a pairing has to exceed to be persisted.
const DefaultMinScore = 0.3

const (
	exactScore    = 1.0
	containsScore = 0.8
)

// distance bands, checked in order; the first band the distance falls under wins.
var proximityBands = []struct {
	maxKM float64
	score float64
}{
	{1, 0.9},
	{5, 0.7},
	{10, 0.5},
}

// Place is a named location with optional coordinates.
type Place struct {
	Name      string
	Latitude  *float64
	Longitude *float64
}

func (p Place) hasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type Result struct {
	Score      float64
	TextScore  float64
	DistanceKM *float64
}

// Proximity reports whether the coordinates raised the score above the text score.
func (r Result) Proximity() bool {
	return r.Score > r.TextScore
}

// Viable reports whether the result clears the persistence threshold.
func (r Result) Viable(minScore float64) bool {
	return r.Score > minScore
}

// Score compares two places. Text rules pick the base score; when both places
// carry coordinates the distance may raise it but never lowers it.
func Score(a, b Place) Result {
	text := TextScore(a.Name, b.Name)
	res := Result{Score: text, TextScore: text}

	if a.hasCoordinates() && b.hasCoordinates() {
		d := DistanceKM(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
		res.DistanceKM = &d
		for _, band := range proximityBands {
			if d < band.maxKM {
				res.Score = max(res.Score, band.score)
				break
			}
		}
	}
	return res
}

// TextScore applies exact, containment and word-overlap rules to two names.
func TextScore(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return exactScore
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return containsScore
	}

	wa, wb := wordSet(a), wordSet(b)
	common := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			common++
		}
	}
	if common == 0 {
		return 0
	}
	return float64(common) / float64(max(len(wa), len(wb)))
}

// Nearby is the loose lookup used before any match exists: the names contain
// one another or share at least one word.
func Nearby(query, location string) bool {
	q, l := normalize(query), normalize(location)
	if q == "" || l == "" {
		return false
	}
	if strings.Contains(l, q) || strings.Contains(q, l) {
		return true
	}
	words := wordSet(l)
	for w := range wordSet(q) {
		if _, ok := words[w]; ok {
			return true
		}
	}
	return false
}

// DistanceKM returns the great-circle distance between two coordinates.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKM
}

func normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
