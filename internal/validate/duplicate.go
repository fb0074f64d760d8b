package validate

import (
	"fmt"

	"github.com/ppiankov/verifier/internal/model"
)

// Fingerprint is the normalized identity of a record for duplicate checks
type Fingerprint struct {
	RecordID string
	URL      string // empty when the record has no usable URL
	Title    string
}

// DuplicateDetector finds near-identical records within one group
type DuplicateDetector struct {
	threshold float64
}

// NewDuplicateDetector creates a detector; titles at or above threshold similarity match
func NewDuplicateDetector(threshold float64) *DuplicateDetector {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.95
	}
	return &DuplicateDetector{threshold: threshold}
}

// Fingerprint normalizes rec for comparison
func (d *DuplicateDetector) Fingerprint(rec model.Record) Fingerprint {
	fp := Fingerprint{
		RecordID: rec.ID,
		Title:    NormalizeTitle(rec.Title),
	}
	if u := rec.URL(); u != "" {
		fp.URL = NormalizeURL(u)
	}
	return fp
}

// Match scans earlier in order and stops at the first duplicate
func (d *DuplicateDetector) Match(fp Fingerprint, earlier []Fingerprint) (Fingerprint, string, bool) {
	for _, other := range earlier {
		if fp.URL != "" && fp.URL == other.URL {
			return other, "same url as " + other.RecordID, true
		}
		if sim := TitleSimilarity(fp.Title, other.Title); sim >= d.threshold {
			return other, fmt.Sprintf("title %.2f similar to %s", sim, other.RecordID), true
		}
	}
	return Fingerprint{}, "", false
}

// DuplicateSet holds the accepted records of one group in insertion order
type DuplicateSet struct {
	detector *DuplicateDetector
	accepted []Fingerprint
}

// NewSet starts an empty group
func (d *DuplicateDetector) NewSet() *DuplicateSet {
	return &DuplicateSet{detector: d}
}

// Len returns the number of accepted records
func (s *DuplicateSet) Len() int {
	return len(s.accepted)
}

// Admit accepts rec unless it duplicates an accepted record
func (s *DuplicateSet) Admit(rec model.Record) (string, bool) {
	fp := s.detector.Fingerprint(rec)
	if _, detail, ok := s.detector.Match(fp, s.accepted); ok {
		return detail, true
	}
	s.accepted = append(s.accepted, fp)
	return "", false
}
