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
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithReceiptID(ctx, "rcpt-9")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"request_id\"")) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"receipt_id\"")) {
		t.Fatalf("expected receipt_id to be preserved; entry=%s", buf.String())
	}
}

func TestLoggerInfoCarriesServiceName(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "split-api", Output: buf})

	log.Info(context.Background(), "hello")

	if !bytes.Contains(buf.Bytes(), []byte("\"service\":\"split-api\"")) {
		t.Fatalf("expected service field; entry=%s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fall back to info, got %v", lvl)
	}
	if lvl := ParseLevel("DEBUG"); lvl != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", lvl)
	}
}
