package model

import (
	"strings"
	"time"
)

// Classification determines which recency window applies to a record
type Classification string

const (
	ClassificationOfficial Classification = "official" // Statements, filings, official records
	ClassificationPublic   Classification = "public"   // Press, commentary, public sentiment
)

// Valid reports whether c is a known classification
func (c Classification) Valid() bool {
	return c == ClassificationOfficial || c == ClassificationPublic
}

// ParseClassification normalizes user or producer input into a Classification
func ParseClassification(s string) (Classification, bool) {
	c := Classification(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Record is a single collected evaluation item under verification
type Record struct {
	ID             string         `json:"id" db:"id"`                   // Opaque, assigned at insertion
	SubjectID      string         `json:"subject_id" db:"subject_id"`   // Entity the record describes
	ProducerID     string         `json:"producer_id" db:"producer_id"` // Agent that generated the record
	Category       string         `json:"category" db:"category"`
	Classification Classification `json:"classification" db:"classification"`
	Title          string         `json:"title" db:"title"`
	Content        string         `json:"content" db:"content"`

	// SourceURL is nil when the producer explicitly supplied no link
	SourceURL *string `json:"source_url,omitempty" db:"source_url"`

	// PublishedDate is nil when unknown; recency is then not judged
	PublishedDate *time.Time `json:"published_date,omitempty" db:"published_date"`

	Verified  bool      `json:"verified" db:"verified"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// GroupKey identifies the duplicate-detection scope of a record
type GroupKey struct {
	SubjectID  string
	ProducerID string
}

// String renders the key for lock names and log fields
func (k GroupKey) String() string {
	return k.SubjectID + "/" + k.ProducerID
}

// Group returns the (subject, producer) scope of the record
func (r Record) Group() GroupKey {
	return GroupKey{SubjectID: r.SubjectID, ProducerID: r.ProducerID}
}

// HasURL reports whether the record carries a source URL field at all.
// A present-but-blank URL still counts as present.
func (r Record) HasURL() bool {
	return r.SourceURL != nil
}

// URL returns the source URL or "" when absent
func (r Record) URL() string {
	if r.SourceURL == nil {
		return ""
	}
	return *r.SourceURL
}

// RecollectKey groups deleted records for replacement requests
type RecollectKey struct {
	ProducerID     string         `json:"producer_id"`
	Category       string         `json:"category"`
	Classification Classification `json:"classification"`
}

// Recollect returns the (producer, category, classification) bucket of the record
func (r Record) Recollect() RecollectKey {
	return RecollectKey{
		ProducerID:     r.ProducerID,
		Category:       r.Category,
		Classification: r.Classification,
	}
}

// StringPtr is a small helper for optional string fields
func StringPtr(s string) *string {
	return &s
}

// TimePtr is a small helper for optional time fields
func TimePtr(t time.Time) *time.Time {
	return &t
}
