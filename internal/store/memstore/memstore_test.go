package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/priotodo/internal/store"
	"github.com/Makepad-fr/priotodo/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s := New()
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestClosedStore(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())
	ctx := context.Background()

	_, err := s.Add(ctx, "late", 1)
	assert.ErrorIs(t, err, store.ErrClosed)
	_, err = s.List(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
	_, err = s.Delete(ctx, 1)
	assert.ErrorIs(t, err, store.ErrClosed)
	_, err = s.MissingPriorities(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
}
