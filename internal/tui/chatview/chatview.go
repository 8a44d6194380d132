// ABOUTME: Chat screen with transcript viewport, input line, and recent chats
// ABOUTME: One question in flight at a time; replies for a reset chat are dropped

package chatview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/chat"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/icons"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/styles"
)

const (
	sidebarWidth    = 30
	sidebarMinWidth = 100
	inputHeight     = 3
)

// BackMsg is sent when the user leaves the chat
type BackMsg struct{}

type replyMsg struct {
	convID uuid.UUID
	msg    chat.Message
}

// Chat is the chat screen
type Chat struct {
	ctx      context.Context
	conv     *chat.Conversation
	history  *chat.History
	renderer *chat.Renderer
	style    string
	logger   *slog.Logger

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	waiting  bool

	width  int
	height int
}

// New creates the chat screen. history may be nil; style is a glamour style
// name or empty for auto-detection.
func New(ctx context.Context, api chat.Sender, history *chat.History, style string, logger *slog.Logger) *Chat {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about pet-friendly places..."
	ti.CharLimit = 1000
	ti.Prompt = "› "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	c := &Chat{
		ctx:      ctx,
		conv:     chat.NewConversation(api, logger),
		history:  history,
		style:    style,
		logger:   logger,
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
	}
	c.SetSize(80, 24)
	return c
}

// Init implements tea.Model
func (c *Chat) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize lays out the screen for the given content area
func (c *Chat) SetSize(width, height int) {
	c.width, c.height = width, height

	vpWidth := c.transcriptWidth()
	vpHeight := max(height-inputHeight, 5)
	c.viewport.Width = vpWidth
	c.viewport.Height = vpHeight
	c.input.Width = max(vpWidth-4, 10)

	if c.renderer == nil || c.renderer.Width() != vpWidth-2 {
		r, err := chat.NewRenderer(vpWidth-2, c.style)
		if err != nil {
			c.logger.Warn("markdown renderer unavailable", "error", err)
		}
		c.renderer = r
	}
	c.refresh()
}

func (c *Chat) showSidebar() bool {
	return c.history != nil && c.width >= sidebarMinWidth
}

func (c *Chat) transcriptWidth() int {
	w := c.width
	if c.showSidebar() {
		w -= sidebarWidth + 1
	}
	return max(w, 20)
}

// Handles reports whether msg is chat work that must reach the chat screen
// even while another screen is shown.
func Handles(msg tea.Msg) bool {
	switch msg.(type) {
	case replyMsg, spinner.TickMsg:
		return true
	}
	return false
}

// Waiting reports whether a question is in flight
func (c *Chat) Waiting() bool {
	return c.waiting
}

// Conversation exposes the transcript
func (c *Chat) Conversation() *chat.Conversation {
	return c.conv
}

// Update implements tea.Model
func (c *Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.SetSize(msg.Width, msg.Height)
		return c, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return c, func() tea.Msg { return BackMsg{} }
		case "ctrl+n":
			c.NewChat()
			return c, nil
		case "enter":
			return c, c.send()
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			c.viewport, cmd = c.viewport.Update(msg)
			return c, cmd
		}

	case replyMsg:
		return c, c.receive(msg)

	case spinner.TickMsg:
		if !c.waiting {
			return c, nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		c.refresh()
		return c, cmd
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// NewChat clears the transcript. A reply still in flight is discarded.
func (c *Chat) NewChat() {
	c.conv.Reset()
	c.waiting = false
	c.input.Reset()
	c.refresh()
}

func (c *Chat) send() tea.Cmd {
	if c.waiting {
		return nil
	}
	user, err := c.conv.AddUser(c.input.Value())
	if err != nil {
		return nil
	}
	c.input.Reset()
	c.waiting = true
	c.refresh()

	convID := c.conv.ID()
	conv := c.conv
	ctx := c.ctx
	ask := func() tea.Msg {
		return replyMsg{convID: convID, msg: conv.Ask(ctx, user.Text)}
	}
	return tea.Batch(ask, c.spinner.Tick)
}

func (c *Chat) receive(msg replyMsg) tea.Cmd {
	if msg.convID != c.conv.ID() {
		c.logger.Debug("dropping reply for a previous chat")
		return nil
	}
	c.conv.AddBot(msg.msg)
	c.waiting = false

	if c.history != nil {
		if err := c.history.Record(c.conv); err != nil {
			c.logger.Warn("could not save chat history", "error", err)
		}
	}
	c.refresh()
	return nil
}

func (c *Chat) refresh() {
	c.viewport.SetContent(c.renderTranscript())
	c.viewport.GotoBottom()
}

func (c *Chat) renderTranscript() string {
	var sb strings.Builder
	width := c.viewport.Width - 2

	for i, m := range c.conv.Messages() {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		stamp := styles.Timestamp.Render(m.At.Format("15:04"))
		if m.FromBot {
			sb.WriteString(styles.BotLabel.Render(icons.Bot.String()+" Assistant") + " " + stamp + "\n")
			if c.renderer != nil {
				sb.WriteString(c.renderer.Message(m))
			} else {
				sb.WriteString(lipgloss.NewStyle().Width(width).Render(m.Text))
			}
			continue
		}
		sb.WriteString(styles.UserLabel.Render(icons.User.String()+" You") + " " + stamp + "\n")
		sb.WriteString(styles.UserBubble.Width(width).Render(m.Text))
	}

	if c.waiting {
		sb.WriteString("\n\n")
		sb.WriteString(c.spinner.View() + " " + styles.Subtitle.UnsetMarginBottom().Render("Thinking..."))
	}
	return sb.String()
}

func (c *Chat) renderSidebar() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.History.String() + " Recent chats"))
	sb.WriteString("\n")

	entries := c.history.List()
	if len(entries) == 0 {
		sb.WriteString(styles.Subtitle.Render("No chats yet"))
	}
	current := c.conv.ID().String()
	for _, e := range entries {
		line := truncate(e.Title, sidebarWidth-4)
		if e.ID == current {
			line = styles.KeyStyle.Render("● " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}

	return lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(c.viewport.Height + inputHeight - 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(styles.Muted).
		PaddingLeft(1).
		Render(sb.String())
}

// View implements tea.Model
func (c *Chat) View() string {
	inputLine := c.input.View()
	if c.waiting {
		inputLine = styles.Subtitle.UnsetMarginBottom().Render("Waiting for the assistant...")
	}

	help := fmt.Sprintf("%s send  %s %s new chat  %s scroll  %s %s back",
		styles.KeyStyle.Render("enter"),
		styles.KeyStyle.Render("ctrl+n"), icons.NewChat,
		styles.KeyStyle.Render("pgup/pgdn"),
		styles.KeyStyle.Render("esc"), icons.Back)

	main := lipgloss.JoinVertical(lipgloss.Left,
		c.viewport.View(),
		"",
		inputLine,
		styles.Help.UnsetMarginTop().Render(help),
	)

	if !c.showSidebar() {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, main, " ", c.renderSidebar())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
