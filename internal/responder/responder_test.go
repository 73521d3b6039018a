package responder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/quillchat/chat-platform/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func writeMockFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mock.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write mock file: %v", err)
	}
	return path
}

type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

func TestRespondGPTEchoesPrompt(t *testing.T) {
	d := NewDispatcher(LoadMockTable("", testLogger()), nil, testLogger())

	got := d.Respond(context.Background(), "gpt", "hello")
	if got != "[GPT] Echo: hello" {
		t.Fatalf("unexpected echo response: %q", got)
	}
}

func TestRespondModelNameCaseInsensitive(t *testing.T) {
	d := NewDispatcher(LoadMockTable("", testLogger()), nil, testLogger())

	got := d.Respond(context.Background(), "GPT", "hi there")
	if got != "[GPT] Echo: hi there" {
		t.Fatalf("unexpected response for upper-case model name: %q", got)
	}
}

func TestRespondClaudeMatchesCaseInsensitively(t *testing.T) {
	path := writeMockFile(t, `[{"prompt":"Hello","response":"[Claude] Hi!"}]`)
	d := NewDispatcher(LoadMockTable(path, testLogger()), nil, testLogger())

	got := d.Respond(context.Background(), "claude", "HELLO")
	if got != "[Claude] Hi!" {
		t.Fatalf("expected stored response, got %q", got)
	}
}

func TestRespondClaudeFallbackOnMiss(t *testing.T) {
	path := writeMockFile(t, `[{"prompt":"hello","response":"[Claude] Hi!"}]`)
	d := NewDispatcher(LoadMockTable(path, testLogger()), nil, testLogger())

	got := d.Respond(context.Background(), "claude", "unmatched prompt")
	if got != "[Claude] Sorry, I don't have a mock response for that prompt." {
		t.Fatalf("expected fallback response, got %q", got)
	}
}

func TestRespondGeminiNotConfigured(t *testing.T) {
	d := NewDispatcher(LoadMockTable("", testLogger()), nil, testLogger())

	got := d.Respond(context.Background(), "gemini", "anything")
	if got != "[Gemini] API key not configured." {
		t.Fatalf("expected not-configured message, got %q", got)
	}
}

func TestRespondGeminiSuccess(t *testing.T) {
	gen := &stubGenerator{text: "generated text"}
	d := NewDispatcher(LoadMockTable("", testLogger()), gen, testLogger())

	got := d.Respond(context.Background(), "gemini", "anything")
	if got != "generated text" {
		t.Fatalf("expected generated text, got %q", got)
	}
}

func TestRespondGeminiFailureBecomesText(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream exploded")}
	d := NewDispatcher(LoadMockTable("", testLogger()), gen, testLogger())

	got := d.Respond(context.Background(), "gemini", "anything")
	if got != "[Gemini] API error: upstream exploded" {
		t.Fatalf("expected error downgraded to text, got %q", got)
	}
}

func TestRespondUnknownModel(t *testing.T) {
	d := NewDispatcher(LoadMockTable("", testLogger()), nil, testLogger())

	got := d.Respond(context.Background(), "llama", "anything")
	if got != "Unknown model" {
		t.Fatalf("expected unknown-model message, got %q", got)
	}
}

func TestLoadMockTableMissingFileYieldsEmptyTable(t *testing.T) {
	table := LoadMockTable(filepath.Join(t.TempDir(), "does-not-exist.json"), testLogger())
	if table.Len() != 0 {
		t.Fatalf("expected empty table, got %d entries", table.Len())
	}
}

func TestLoadMockTableMalformedJSONYieldsEmptyTable(t *testing.T) {
	path := writeMockFile(t, `{"not":"an array"`)
	table := LoadMockTable(path, testLogger())
	if table.Len() != 0 {
		t.Fatalf("expected empty table, got %d entries", table.Len())
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hello", 1},
		{"hello world", 2},
		{"  spaced   out    words  ", 3},
		{"line\nbreaks\tand tabs", 4},
	}
	for _, c := range cases {
		if got := EstimateTokens(c.text); got != c.want {
			t.Fatalf("EstimateTokens(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}
