package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/oggyb/elite-matchmaking/internal/config"
)

// captureOutput points the global logger at a buffer while f runs.
func captureOutput(t *testing.T, c Config, f func()) string {
	t.Helper()

	var buf bytes.Buffer
	c.Output = &buf
	Init(&c)
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })

	f()
	return buf.String()
}

func TestLogger_TextFormat(t *testing.T) {
	out := captureOutput(t, Config{Level: "debug", Format: FormatText, Component: "test"}, func() {
		Info("hello elite", "key", "value")
	})

	if !strings.Contains(out, "hello elite") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected structured field, got: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	out := captureOutput(t, Config{Level: "info", Format: FormatJSON, Component: "json_test"}, func() {
		Info("json log", "foo", "bar")
	})

	if !strings.Contains(out, `"msg":"json log"`) {
		t.Errorf("expected JSON message, got: %s", out)
	}
	if !strings.Contains(out, `"component":"json_test"`) {
		t.Errorf("expected component in JSON, got: %s", out)
	}
	if !strings.Contains(out, `"foo":"bar"`) {
		t.Errorf("expected structured field in JSON, got: %s", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	out := captureOutput(t, Config{Level: "error", Format: FormatText}, func() {
		Info("should not appear")
		Error("should appear")
	})

	if strings.Contains(out, "should not appear") {
		t.Errorf("info log should not appear, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("error log should appear, got: %s", out)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	out := captureOutput(t, Config{Level: "debug", Format: FormatText}, func() {
		With("req_id", "123").Info("processing request")
	})

	if !strings.Contains(out, "req_id=123") {
		t.Errorf("expected req_id field, got: %s", out)
	}
}

func TestLogger_InitFromConfig(t *testing.T) {
	c := &config.Config{}
	c.Log.Level = "debug"
	c.Log.Format = "json"
	c.Log.Component = "cfg_test"

	InitFromConfig(c)
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })

	if !L().Enabled(context.Background(), -4) {
		t.Errorf("expected debug level to be enabled")
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	reqLog := New(Config{Level: "info", Format: FormatText, Output: &buf}).With("request_id", "abc")

	ctx := WithContext(context.Background(), reqLog)
	FromContext(ctx, nil).Info("scoped")

	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("expected request scoped field, got: %s", buf.String())
	}

	fallback := New(Config{Output: &buf})
	if FromContext(context.Background(), fallback) != fallback {
		t.Errorf("expected fallback logger when context is empty")
	}
}

func TestLogger_MasksEmails(t *testing.T) {
	out := captureOutput(t, Config{Level: "info", Format: FormatJSON}, func() {
		Info("link requested", "email", "asha@example.com")
	})

	if strings.Contains(out, "asha@example.com") {
		t.Errorf("email leaked: %s", out)
	}
	if !strings.Contains(out, `"email":"a***@example.com"`) {
		t.Errorf("expected masked email, got: %s", out)
	}
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"asha@example.com":  "a***@example.com",
		"x@y.z":             "x***@y.z",
		"not-an-email":      "***",
		"@example.com":      "***",
		"élodie@example.fr": "é***@example.fr",
		"日本@example.jp":     "日***@example.jp",
	}
	for in, want := range cases {
		got := MaskEmail(in)
		if got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("MaskEmail(%q) produced invalid UTF-8", in)
		}
	}
}
