package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithCorrelationID(ctx, "corr-123")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"correlation_id\"")) {
		t.Fatalf("expected correlation_id to be preserved; entry=%s", buf.String())
	}
}

func TestLoggerWithFieldsAccumulate(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	ctx := log.WithFields(context.Background(), map[string]any{"event_type": "wallet_created"})
	ctx = log.WithWalletID(ctx, "w-1")
	log.Info(ctx, "hello")

	if !bytes.Contains(buf.Bytes(), []byte("\"event_type\"")) {
		t.Fatalf("expected event_type field; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"wallet_id\"")) {
		t.Fatalf("expected wallet_id field; entry=%s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fall back to info, got %v", lvl)
	}
	if lvl := ParseLevel("warn"); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}
