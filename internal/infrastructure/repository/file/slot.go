package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Slot keeps every key in one JSON document on disk. Writes replace the
// document atomically through a temp file and rename.
type Slot struct {
	mu     sync.Mutex
	path   string
	tracer trace.Tracer
	logger *slog.Logger
}

// NewSlot creates a file slot at path, creating its directory if needed
func NewSlot(path string, tracer trace.Tracer, logger *slog.Logger) (*Slot, error) {
	if path == "" {
		return nil, errors.New("file slot path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create slot directory: %w", err)
	}
	return &Slot{
		path:   path,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Get returns the value stored under key
func (s *Slot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := s.tracer.Start(ctx, "FileSlot.Get")
	defer span.End()

	span.SetAttributes(
		attribute.String("slot.key", key),
		attribute.String("slot.path", s.path),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read slot file")
		return nil, false, err
	}

	value, exists := doc[key]
	if !exists {
		span.SetStatus(codes.Ok, "Key not set")
		return nil, false, nil
	}

	s.logger.DebugContext(ctx, "Slot value read from file",
		slog.String("key", key),
		slog.String("path", s.path),
	)

	span.SetStatus(codes.Ok, "Value found")
	return []byte(value), true, nil
}

// Set stores value under key, keeping the other keys in the document
func (s *Slot) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := s.tracer.Start(ctx, "FileSlot.Set")
	defer span.End()

	span.SetAttributes(
		attribute.String("slot.key", key),
		attribute.String("slot.path", s.path),
		attribute.Int("slot.bytes", len(value)),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read slot file")
		return err
	}
	doc[key] = string(value)

	if err := s.write(doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to write slot file")
		return err
	}

	s.logger.DebugContext(ctx, "Slot value written to file",
		slog.String("key", key),
		slog.String("path", s.path),
	)

	span.SetStatus(codes.Ok, "Value stored")
	return nil
}

// Ping checks that the slot directory is still there
func (s *Slot) Ping(ctx context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("stat slot directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("slot directory %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *Slot) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot file: %w", err)
	}

	doc := make(map[string]string)
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode slot file: %w", err)
	}
	return doc, nil
}

func (s *Slot) write(doc map[string]string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode slot file: %w", err)
	}

	// Write to a sibling temp file, then rename over the document
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp slot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp slot file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp slot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp slot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace slot file: %w", err)
	}
	return nil
}
