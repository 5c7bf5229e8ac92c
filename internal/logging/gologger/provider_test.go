package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

func TestNewProviderBuildsModuleLoggers(t *testing.T) {
	p, err := NewProvider(Config{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}

	logger := p.GetLogger("showcase.preview")
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}

	child := logger.(interfaces.FieldsLogger).WithFields(map[string]any{"demo": "shop1"})
	if child == nil {
		t.Fatal("expected WithFields to return logger")
	}
	child.Debug("preview.test.adapter_ready")
}

func TestNewProviderRejectsUnknownFormat(t *testing.T) {
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNilProviderFallsBackToNoOp(t *testing.T) {
	var p *Provider
	logger := p.GetLogger("showcase")
	if logger == nil {
		t.Fatal("expected noop logger")
	}
	logger.Info("dropped")
}

func TestLevelMapping(t *testing.T) {
	cases := map[string]string{
		"TRACE":   glog.Trace,
		" debug ": glog.Debug,
		"warning": glog.Warn,
		"fatal":   glog.Fatal,
		"verbose": "",
	}
	for in, want := range cases {
		if got := Level(in); got != want {
			t.Fatalf("Level(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAdapterDelegatesAndClonesFields(t *testing.T) {
	stub := &stubLogger{}
	adapted := wrap(stub)

	adapted.Trace("trace")
	adapted.Debug("debug")
	adapted.Info("info")
	adapted.Warn("warn")
	adapted.Error("error")

	fields := map[string]any{"demo": "shop1"}
	adapted.(interfaces.FieldsLogger).WithFields(fields)
	fields["demo"] = "shop2"
	if len(stub.fields) != 1 || stub.fields[0]["demo"] != "shop1" {
		t.Fatalf("expected cloned fields, got %#v", stub.fields)
	}

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	adapted.WithContext(ctx)
	if len(stub.contexts) != 1 || stub.contexts[0] != ctx {
		t.Fatalf("expected context propagation, got %#v", stub.contexts)
	}

	want := []string{"trace", "debug", "info", "warn", "error"}
	if len(stub.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), stub.calls)
	}
	for i := range want {
		if stub.calls[i] != want[i] {
			t.Fatalf("call %d: expected %q, got %q", i, want[i], stub.calls[i])
		}
	}
}

type stubLogger struct {
	calls    []string
	fields   []map[string]any
	contexts []context.Context
}

var _ glog.Logger = (*stubLogger)(nil)
var _ glog.FieldsLogger = (*stubLogger)(nil)

func (s *stubLogger) Trace(string, ...any) { s.calls = append(s.calls, "trace") }
func (s *stubLogger) Debug(string, ...any) { s.calls = append(s.calls, "debug") }
func (s *stubLogger) Info(string, ...any)  { s.calls = append(s.calls, "info") }
func (s *stubLogger) Warn(string, ...any)  { s.calls = append(s.calls, "warn") }
func (s *stubLogger) Error(string, ...any) { s.calls = append(s.calls, "error") }
func (s *stubLogger) Fatal(string, ...any) { s.calls = append(s.calls, "fatal") }

func (s *stubLogger) WithContext(ctx context.Context) glog.Logger {
	s.contexts = append(s.contexts, ctx)
	return s
}

func (s *stubLogger) WithFields(fields map[string]any) glog.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.fields = append(s.fields, copied)
	return s
}
