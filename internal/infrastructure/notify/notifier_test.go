package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messages(ns []Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Message
	}
	return out
}

func TestNew(t *testing.T) {
	n := New(LevelWarning, "Requested quantity out of stock", 3)

	_, err := uuid.Parse(n.ID)
	require.NoError(t, err)
	assert.Equal(t, LevelWarning, n.Level)
	assert.Equal(t, 3, n.ProductID)
	assert.False(t, n.CreatedAt.IsZero())
	assert.NotEqual(t, n.ID, New(LevelWarning, "again", 3).ID)
}

func TestFeed_KeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed(3)

	assert.NotNil(t, feed.Recent())
	assert.Empty(t, feed.Recent())

	for _, msg := range []string{"a", "b"} {
		feed.Notify(ctx, New(LevelError, msg, 0))
	}
	assert.Equal(t, []string{"a", "b"}, messages(feed.Recent()))

	for _, msg := range []string{"c", "d", "e"} {
		feed.Notify(ctx, New(LevelError, msg, 0))
	}
	assert.Equal(t, []string{"c", "d", "e"}, messages(feed.Recent()))
}

func TestFeed_ZeroSizeHoldsOne(t *testing.T) {
	feed := NewFeed(0)
	feed.Notify(context.Background(), New(LevelError, "x", 0))
	feed.Notify(context.Background(), New(LevelError, "y", 0))

	assert.Equal(t, []string{"y"}, messages(feed.Recent()))
}

func TestMulti_FansOut(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	feed := NewFeed(5)

	Multi{NewLogNotifier(logger), feed}.Notify(context.Background(), New(LevelError, "Error removing product", 8))

	assert.Equal(t, []string{"Error removing product"}, messages(feed.Recent()))
	assert.Contains(t, buf.String(), `"message":"Error removing product"`)
	assert.Contains(t, buf.String(), `"product_id":8`)
}
