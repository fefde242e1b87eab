package repository

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mrops-br/cart-api/internal/domain"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type failingSlot struct{ err error }

func (f failingSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, f.err
}

func (f failingSlot) Set(ctx context.Context, key string, value []byte) error {
	return f.err
}

func (f failingSlot) Ping(ctx context.Context) error {
	return f.err
}

func newRepo(slot Slot, key string) *CartRepository {
	return NewCartRepository(slot, key, tracenoop.NewTracerProvider().Tracer("test"), slog.New(slog.DiscardHandler))
}

func newMemorySlot() *memory.Slot {
	return memory.NewSlot(tracenoop.NewTracerProvider().Tracer("test"), slog.New(slog.DiscardHandler))
}

func TestCartRepository_LoadEmptySlot(t *testing.T) {
	repo := newRepo(newMemorySlot(), "")

	cart, found, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, cart)
}

func TestCartRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(newMemorySlot(), "")
	cart := domain.Cart{
		{ID: 3, Title: "Tênis Adidas Duramo", Price: 219.9, Image: "https://example.com/3.jpg", Amount: 2},
		{ID: 1, Title: "Tênis de Caminhada", Price: 179.9, Image: "https://example.com/1.jpg", Amount: 1},
	}

	require.NoError(t, repo.Save(ctx, cart))
	got, found, err := repo.Load(ctx)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cart, got)
}

func TestCartRepository_EmptyCartIsStoredAsArray(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	repo := newRepo(slot, DefaultCartKey)

	require.NoError(t, repo.Save(ctx, nil))

	raw, found, err := slot.Get(ctx, DefaultCartKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[]`, string(raw))

	cart, found, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, cart)
	assert.Empty(t, cart)
}

func TestCartRepository_SnapshotFormat(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	repo := newRepo(slot, "custom:cart")

	require.NoError(t, repo.Save(ctx, domain.Cart{{ID: 1, Title: "Tênis", Price: 10, Image: "i.jpg", Amount: 2}}))

	_, found, err := slot.Get(ctx, DefaultCartKey)
	require.NoError(t, err)
	assert.False(t, found, "custom key must not write the default key")

	raw, _, err := slot.Get(ctx, "custom:cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"Tênis","price":10,"image":"i.jpg","amount":2}]`, string(raw))
}

func TestCartRepository_MalformedSnapshot(t *testing.T) {
	ctx := context.Background()
	slot := newMemorySlot()
	require.NoError(t, slot.Set(ctx, DefaultCartKey, []byte(`{"not":"a cart"`)))

	_, found, err := newRepo(slot, "").Load(ctx)

	assert.Error(t, err)
	assert.False(t, found)
}

func TestCartRepository_SlotErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	errDown := errors.New("slot down")
	repo := newRepo(failingSlot{err: errDown}, "")

	_, _, err := repo.Load(ctx)
	assert.ErrorIs(t, err, errDown)

	err = repo.Save(ctx, domain.Cart{{ID: 1, Amount: 1}})
	assert.ErrorIs(t, err, errDown)

	assert.ErrorIs(t, repo.Ping(ctx), errDown)
}
