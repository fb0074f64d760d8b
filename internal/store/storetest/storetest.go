// Package storetest holds behaviour tests every store.Store must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/store"
)

// Factory opens an empty store for one subtest
type Factory func(t *testing.T) store.Store

// Run executes the shared suite against stores built by newStore
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertAssignsIDsAndKeepsOrder", func(t *testing.T) { testInsertOrder(t, newStore(t)) })
	t.Run("InsertIsIdempotent", func(t *testing.T) { testInsertIdempotent(t, newStore(t)) })
	t.Run("Filter", func(t *testing.T) { testFilter(t, newStore(t)) })
	t.Run("OptionalFieldsRoundTrip", func(t *testing.T) { testOptionalFields(t, newStore(t)) })
	t.Run("DeleteIsIdempotent", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("MarkVerified", func(t *testing.T) { testMarkVerified(t, newStore(t)) })
}

func sample(subject, producer, category, title string) model.Record {
	return model.Record{
		SubjectID:      subject,
		ProducerID:     producer,
		Category:       category,
		Classification: model.ClassificationPublic,
		Title:          title,
		Content:        "content of " + title,
	}
}

func testInsertOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	defer s.Close()

	var recs []model.Record
	for _, title := range []string{"first", "second", "third", "fourth"} {
		recs = append(recs, sample("subj", "p1", "news", title))
	}

	inserted, err := s.InsertRecords(ctx, recs)
	require.NoError(t, err)
	require.Len(t, inserted, 4)

	for _, rec := range inserted {
		assert.NotEmpty(t, rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
	}

	// a later batch lands after the earlier one
	more, err := s.InsertRecords(ctx, []model.Record{sample("subj", "p1", "news", "fifth")})
	require.NoError(t, err)
	require.Len(t, more, 1)

	got, err := s.ListRecords(ctx, store.Filter{SubjectID: "subj"})
	require.NoError(t, err)

	titles := make([]string, len(got))
	for i, rec := range got {
		titles[i] = rec.Title
	}
	assert.Equal(t, []string{"first", "second", "third", "fourth", "fifth"}, titles)
}

func testInsertIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	defer s.Close()

	rec := sample("subj", "p1", "news", "only")
	rec.ID = store.NewID()

	first, err := s.InsertRecords(ctx, []model.Record{rec})
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := s.InsertRecords(ctx, []model.Record{rec})
	require.NoError(t, err)
	assert.Empty(t, second)

	got, err := s.ListRecords(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func testFilter(t *testing.T, s store.Store) {
	ctx := context.Background()
	defer s.Close()

	_, err := s.InsertRecords(ctx, []model.Record{
		sample("subj-a", "p1", "news", "a1"),
		sample("subj-a", "p2", "news", "a2"),
		sample("subj-a", "p1", "policy", "a3"),
		sample("subj-b", "p1", "news", "b1"),
	})
	require.NoError(t, err)

	tests := []struct {
		filter store.Filter
		want   int
	}{
		{store.Filter{}, 4},
		{store.Filter{SubjectID: "subj-a"}, 3},
		{store.Filter{SubjectID: "subj-a", ProducerID: "p1"}, 2},
		{store.Filter{SubjectID: "subj-a", ProducerID: "p1", Category: "policy"}, 1},
		{store.Filter{SubjectID: "missing"}, 0},
	}
	for _, tt := range tests {
		got, err := s.ListRecords(ctx, tt.filter)
		require.NoError(t, err)
		assert.Len(t, got, tt.want, "filter %+v", tt.filter)
	}
}

func testOptionalFields(t *testing.T, s store.Store) {
	ctx := context.Background()
	defer s.Close()

	published := time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC)

	withURL := sample("subj", "p1", "news", "with url")
	withURL.SourceURL = model.StringPtr("https://news.site/a")
	withURL.PublishedDate = &published

	blankURL := sample("subj", "p1", "news", "blank url")
	blankURL.SourceURL = model.StringPtr("")

	absent := sample("subj", "p1", "news", "absent")

	_, err := s.InsertRecords(ctx, []model.Record{withURL, blankURL, absent})
	require.NoError(t, err)

	got, err := s.ListRecords(ctx, store.Filter{SubjectID: "subj"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.NotNil(t, got[0].SourceURL)
	assert.Equal(t, "https://news.site/a", *got[0].SourceURL)
	require.NotNil(t, got[0].PublishedDate)
	assert.True(t, published.Equal(*got[0].PublishedDate))
	assert.Equal(t, model.ClassificationPublic, got[0].Classification)

	require.NotNil(t, got[1].SourceURL, "blank URL must stay distinguishable from an absent one")
	assert.Equal(t, "", *got[1].SourceURL)

	assert.Nil(t, got[2].SourceURL)
	assert.Nil(t, got[2].PublishedDate)
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	defer s.Close()

	inserted, err := s.InsertRecords(ctx, []model.Record{
		sample("subj", "p1", "news", "keep"),
		sample("subj", "p1", "news", "drop"),
		sample("subj", "p1", "news", "keep too"),
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRecord(ctx, inserted[1].ID))
	require.NoError(t, s.DeleteRecord(ctx, inserted[1].ID), "second delete must succeed")
	require.NoError(t, s.DeleteRecord(ctx, "never-existed"))

	got, err := s.ListRecords(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "keep", got[0].Title)
	assert.Equal(t, "keep too", got[1].Title)
}

func testMarkVerified(t *testing.T, s store.Store) {
	ctx := context.Background()
	defer s.Close()

	inserted, err := s.InsertRecords(ctx, []model.Record{sample("subj", "p1", "news", "one")})
	require.NoError(t, err)
	require.False(t, inserted[0].Verified)

	require.NoError(t, s.MarkVerified(ctx, inserted[0].ID))
	require.NoError(t, s.MarkVerified(ctx, inserted[0].ID))

	got, err := s.ListRecords(ctx, store.Filter{})
	require.NoError(t, err)
	assert.True(t, got[0].Verified)

	err = s.MarkVerified(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
