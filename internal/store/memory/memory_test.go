package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/store"
	"github.com/ppiankov/verifier/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec := model.Record{SubjectID: "s", Title: "t", Content: "c", SourceURL: model.StringPtr("https://a.site")}
	_, err := s.InsertRecords(ctx, []model.Record{rec})
	require.NoError(t, err)

	got, err := s.ListRecords(ctx, store.Filter{})
	require.NoError(t, err)
	*got[0].SourceURL = "https://mutated.site"

	again, err := s.ListRecords(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "https://a.site", *again[0].SourceURL)
}

func TestStore_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().ListRecords(ctx, store.Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}
