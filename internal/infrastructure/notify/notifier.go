package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity shown to the user
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notification is a message meant for the person using the cart
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	ProductID int       `json:"product_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New builds a notification with a fresh ID
func New(level Level, message string, productID int) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		ProductID: productID,
		CreatedAt: time.Now().UTC(),
	}
}

// Notifier delivers notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at warn level
func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	l.logger.WarnContext(ctx, "User notification",
		slog.String("notification_id", n.ID),
		slog.String("level", string(n.Level)),
		slog.String("message", n.Message),
		slog.Int("product_id", n.ProductID),
	)
}

// Feed keeps the most recent notifications in memory so a UI can poll them
type Feed struct {
	mu    sync.RWMutex
	items []Notification
	next  int
	full  bool
}

// NewFeed creates a feed holding up to size notifications
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 1
	}
	return &Feed{items: make([]Notification, size)}
}

// Notify appends n, evicting the oldest entry when the feed is full
func (f *Feed) Notify(_ context.Context, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items[f.next] = n
	f.next = (f.next + 1) % len(f.items)
	if f.next == 0 {
		f.full = true
	}
}

// Recent returns the held notifications, oldest first
func (f *Feed) Recent() []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.full {
		out := make([]Notification, f.next)
		copy(out, f.items[:f.next])
		return out
	}
	out := make([]Notification, 0, len(f.items))
	out = append(out, f.items[f.next:]...)
	return append(out, f.items[:f.next]...)
}

// Multi fans a notification out to several notifiers
type Multi []Notifier

// Notify delivers n to every notifier in order
func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
