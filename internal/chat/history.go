// ABOUTME: Recent conversations list shown in the chat sidebar
// ABOUTME: Stores titles of recent chats in the config directory

package chat

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// MaxRecentChats is the maximum number of conversations to keep
const MaxRecentChats = 10

// Entry is one remembered conversation
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	SessionID *int      `json:"session_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// History manages the list of recent conversations
type History struct {
	configDir string
	entries   []Entry
}

type historyData struct {
	Chats []Entry `json:"chats"`
}

// NewHistory creates a History with the given config directory
func NewHistory(configDir string) *History {
	return &History{configDir: configDir}
}

// configFile returns the path to the history JSON
func (h *History) configFile() string {
	return filepath.Join(h.configDir, "recent_chats.json")
}

// Load reads the history from disk
func (h *History) Load() ([]Entry, error) {
	data, err := os.ReadFile(h.configFile())
	if os.IsNotExist(err) {
		h.entries = []Entry{}
		return h.entries, nil
	}
	if err != nil {
		return nil, err
	}

	var hd historyData
	if err := json.Unmarshal(data, &hd); err != nil {
		// Invalid JSON, start fresh
		h.entries = []Entry{}
		return h.entries, nil
	}

	h.entries = hd.Chats
	if h.entries == nil {
		h.entries = []Entry{}
	}
	return h.entries, nil
}

// Save writes the history to disk
func (h *History) Save(entries []Entry) error {
	if err := os.MkdirAll(h.configDir, 0700); err != nil {
		return err
	}

	if len(entries) > MaxRecentChats {
		entries = entries[:MaxRecentChats]
	}
	h.entries = entries

	data, err := json.MarshalIndent(historyData{Chats: entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.configFile(), data, 0600)
}

// Add records a conversation (moves to front if it exists)
func (h *History) Add(e Entry) error {
	if h.entries == nil {
		if _, err := h.Load(); err != nil {
			h.entries = []Entry{}
		}
	}

	next := make([]Entry, 0, len(h.entries)+1)
	next = append(next, e)
	for _, old := range h.entries {
		if old.ID != e.ID {
			next = append(next, old)
		}
	}
	return h.Save(next)
}

// Record adds conv to the history once it has a user message
func (h *History) Record(conv *Conversation) error {
	title := conv.Title()
	if title == "" {
		return nil
	}
	return h.Add(Entry{
		ID:        conv.ID().String(),
		Title:     title,
		SessionID: conv.SessionID(),
		UpdatedAt: time.Now(),
	})
}

// List returns the current history
func (h *History) List() []Entry {
	if h.entries == nil {
		h.Load()
	}
	return h.entries
}
