package sink

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogOnErrorWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := NewSlog(logger)

	s.OnError(errors.New("boom"), Context{Scope: "s1", Phase: "digest", Watcher: "watchFn"})

	out := buf.String()
	for _, want := range []string{"boom", "scope=s1", "phase=digest", "watcher=watchFn"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestSlogWarnTTL(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := NewSlog(logger)

	s.WarnTTL("root", 9, 10)

	out := buf.String()
	if !strings.Contains(out, "approaching TTL") || !strings.Contains(out, "round=9") {
		t.Errorf("log output %q missing TTL warning fields", out)
	}
}

func TestNopDiscardsErrors(t *testing.T) {
	var n Nop
	n.OnError(errors.New("ignored"), Context{}) // must not panic
}

func TestNewSlogDefaultsNilLogger(t *testing.T) {
	s := NewSlog(nil)
	if s == nil {
		t.Fatal("expected non-nil Slog")
	}
}
