// ABOUTME: Chat transcript with the Pet Travel assistant
// ABOUTME: Failures become bot messages in the transcript instead of errors

package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
)

const (
	// Greeting opens every new conversation.
	Greeting = "Hi! I'm the Pet Travel assistant. Ask me about pet-friendly places, stays, and trips with your companion."

	// FallbackConnection replaces the answer when the backend cannot be reached.
	FallbackConnection = "Sorry, there was a problem connecting to the server."

	// FallbackEmpty replaces an empty answer.
	FallbackEmpty = "Sorry, I couldn't get a response."

	titleLength = 40
)

// ErrEmptyQuery is returned for blank input; nothing is added or sent.
var ErrEmptyQuery = errors.New("empty query")

// Message is one transcript entry.
type Message struct {
	ID      int
	Text    string
	FromBot bool
	At      time.Time
}

// Sender is the chat endpoint.
type Sender interface {
	Chat(ctx context.Context, input client.ChatRequest) (*client.ChatResponse, error)
}

// Conversation is an ordered transcript. It is safe for concurrent use so
// that Ask can run off the UI goroutine.
type Conversation struct {
	api    Sender
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	id        uuid.UUID
	messages  []Message
	nextID    int
	sessionID *int
}

// NewConversation starts a conversation with the greeting.
func NewConversation(api Sender, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Conversation{
		api:    api,
		logger: logger.With("component", "chat"),
		now:    time.Now,
	}
	c.Reset()
	return c
}

// Reset clears the transcript and starts a new chat.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.id = uuid.New()
	c.sessionID = nil
	c.messages = []Message{{ID: 1, Text: Greeting, FromBot: true, At: c.now()}}
	c.nextID = 2
}

// ID identifies the conversation locally.
func (c *Conversation) ID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// SessionID is the backend chat session, once the backend assigned one.
func (c *Conversation) SessionID() *int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == nil {
		return nil
	}
	id := *c.sessionID
	return &id
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Title is the first user message, shortened.
func (c *Conversation) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.messages {
		if !m.FromBot {
			return shorten(m.Text, titleLength)
		}
	}
	return ""
}

// AddUser appends a user message.
func (c *Conversation) AddUser(text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyQuery
	}
	return c.append(text, false), nil
}

// AddBot appends a bot message produced by Ask.
func (c *Conversation) AddBot(m Message) Message {
	return c.append(m.Text, true)
}

func (c *Conversation) append(text string, fromBot bool) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := Message{ID: c.nextID, Text: text, FromBot: fromBot, At: c.now()}
	c.nextID++
	c.messages = append(c.messages, m)
	return m
}

// Ask sends query to the backend and returns the bot reply without adding
// it to the transcript. It never fails; failures become fallback text.
func (c *Conversation) Ask(ctx context.Context, query string) Message {
	c.mu.Lock()
	convID := c.id
	var sessionID *int
	if c.sessionID != nil {
		id := *c.sessionID
		sessionID = &id
	}
	c.mu.Unlock()

	resp, err := c.api.Chat(ctx, client.ChatRequest{Query: query, SessionID: sessionID})
	if err != nil {
		c.logger.Warn("chat request failed", "error", err)
		return Message{Text: FallbackConnection, FromBot: true, At: c.now()}
	}

	if resp.SessionID != nil {
		c.mu.Lock()
		if c.id == convID {
			id := *resp.SessionID
			c.sessionID = &id
		}
		c.mu.Unlock()
	}

	text := strings.TrimSpace(resp.Response)
	if text == "" {
		return Message{Text: FallbackEmpty, FromBot: true, At: c.now()}
	}
	return Message{Text: resp.Response, FromBot: true, At: c.now()}
}

// Send adds the user message, asks the backend and adds the reply.
func (c *Conversation) Send(ctx context.Context, text string) (Message, error) {
	user, err := c.AddUser(text)
	if err != nil {
		return Message{}, err
	}
	return c.AddBot(c.Ask(ctx, user.Text)), nil
}

func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
