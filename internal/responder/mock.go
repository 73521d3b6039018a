package responder

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/quillchat/chat-platform/pkg/logger"
)

// MockTable is a static prompt-to-response lookup loaded once at startup.
// Read-only after load, safe for concurrent reads.
type MockTable struct {
	responses map[string]string
}

type mockEntry struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// LoadMockTable reads prompt/response pairs from a JSON file. Any load
// failure yields an empty table rather than an error.
func LoadMockTable(path string, log *logger.Logger) *MockTable {
	table := &MockTable{responses: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("mock response table unavailable, using empty table")
		return table
	}

	var entries []mockEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn("mock response table unreadable, using empty table")
		return table
	}

	for _, e := range entries {
		table.responses[strings.ToLower(e.Prompt)] = e.Response
	}
	return table
}

// Lookup finds the response for a prompt, matching case-insensitively.
func (t *MockTable) Lookup(prompt string) (string, bool) {
	resp, ok := t.responses[strings.ToLower(prompt)]
	return resp, ok
}

// Len returns the number of loaded entries.
func (t *MockTable) Len() int {
	return len(t.responses)
}
