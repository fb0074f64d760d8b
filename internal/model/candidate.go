package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidCandidate is returned when a collector payload fails boundary checks
var ErrInvalidCandidate = errors.New("invalid candidate")

// ProducerKind tags the shape of a candidate payload
type ProducerKind string

const (
	ProducerLLM    ProducerKind = "llm"    // Generated by a language model
	ProducerFeed   ProducerKind = "feed"   // Pulled from a syndication feed
	ProducerManual ProducerKind = "manual" // Imported by an operator
)

// Valid reports whether k is a known producer kind
func (k ProducerKind) Valid() bool {
	switch k {
	case ProducerLLM, ProducerFeed, ProducerManual:
		return true
	}
	return false
}

// ProducerTag identifies which producer made a candidate and how its payload is shaped
type ProducerTag struct {
	ID   string       `json:"id" yaml:"id"`
	Kind ProducerKind `json:"kind" yaml:"kind"`
}

// CandidateRecord is a replacement record proposed by a collector.
// The field set is fixed for every producer kind; Validate enforces the
// per-kind rules before anything reaches the datastore.
type CandidateRecord struct {
	Producer       ProducerTag    `json:"producer"`
	Category       string         `json:"category"`
	Classification Classification `json:"classification"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	SourceURL      *string        `json:"source_url,omitempty"`
	PublishedDate  *time.Time     `json:"published_date,omitempty"`
}

// Validate checks the candidate shape at the collector boundary
func (c CandidateRecord) Validate() error {
	if strings.TrimSpace(c.Producer.ID) == "" {
		return fmt.Errorf("%w: missing producer id", ErrInvalidCandidate)
	}
	if !c.Producer.Kind.Valid() {
		return fmt.Errorf("%w: unknown producer kind %q", ErrInvalidCandidate, c.Producer.Kind)
	}
	if !c.Classification.Valid() {
		return fmt.Errorf("%w: unknown classification %q", ErrInvalidCandidate, c.Classification)
	}
	if strings.TrimSpace(c.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidCandidate)
	}

	switch c.Producer.Kind {
	case ProducerFeed:
		// Feed items are only meaningful with a link back to the item
		if c.SourceURL == nil || strings.TrimSpace(*c.SourceURL) == "" {
			return fmt.Errorf("%w: feed candidate without link", ErrInvalidCandidate)
		}
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("%w: feed candidate without title", ErrInvalidCandidate)
		}
	case ProducerLLM, ProducerManual:
		if strings.TrimSpace(c.Content) == "" {
			return fmt.Errorf("%w: %s candidate without content", ErrInvalidCandidate, c.Producer.Kind)
		}
	}

	return nil
}

// Matches reports whether the candidate answers a request for the given bucket
func (c CandidateRecord) Matches(key RecollectKey) bool {
	return c.Producer.ID == key.ProducerID &&
		c.Category == key.Category &&
		c.Classification == key.Classification
}

// ToRecord converts an accepted candidate into an unsaved record.
// The ID and CreatedAt are assigned by the store on insertion.
func (c CandidateRecord) ToRecord(subjectID string) Record {
	rec := Record{
		SubjectID:      subjectID,
		ProducerID:     c.Producer.ID,
		Category:       c.Category,
		Classification: c.Classification,
		Title:          strings.TrimSpace(c.Title),
		Content:        strings.TrimSpace(c.Content),
	}
	if c.SourceURL != nil {
		u := strings.TrimSpace(*c.SourceURL)
		rec.SourceURL = &u
	}
	if c.PublishedDate != nil {
		t := c.PublishedDate.UTC()
		rec.PublishedDate = &t
	}
	return rec
}
