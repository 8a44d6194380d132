// ABOUTME: Signup wizard as a bubbletea model
// ABOUTME: Username and nickname availability steps, then account details

package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/account"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/icons"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/styles"
)

// CompleteMsg is sent when the account was created
type CompleteMsg struct {
	Username string
}

// CancelledMsg is sent when the wizard is cancelled
type CancelledMsg struct{}

type checkedMsg struct {
	step      int
	available bool
	err       error
}

type submittedMsg struct {
	err error
}

const (
	stepUsername = 1
	stepNickname = 2
	stepAccount  = 3
)

// Step names for progress indicator
var stepNames = []string{"Username", "Nickname", "Account"}

// Wizard walks through registration
type Wizard struct {
	ctx   context.Context
	reg   *account.Registration
	form  *huh.Form
	step  int
	width int

	busy string
	err  error

	// Form field values
	username string
	nickname string
	email    string
	password string
	confirm  string
}

// New creates the signup wizard
func New(ctx context.Context, api account.SignupAPI) *Wizard {
	w := &Wizard{
		ctx:  ctx,
		reg:  account.NewRegistration(api),
		step: stepUsername,
	}
	w.form = w.createForm()
	return w
}

func (w *Wizard) createForm() *huh.Form {
	switch w.step {
	case stepNickname:
		return w.createNicknameForm()
	case stepAccount:
		return w.createAccountForm()
	default:
		return w.createUsernameForm()
	}
}

func (w *Wizard) createUsernameForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Description("At least 4 letters and digits, with one of each").
				Value(&w.username).
				Validate(account.ValidateUsername),
		).Title("Step 1: Username").
			Description("We'll check that nobody has it yet"),
	).WithTheme(styles.FormTheme())
}

func (w *Wizard) createNicknameForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Nickname").
				Description("Shown to the assistant and in your profile").
				Value(&w.nickname).
				Validate(account.ValidateNickname),
		).Title("Step 2: Nickname").
			Description("Pick the name you want to be called"),
	).WithTheme(styles.FormTheme())
}

func (w *Wizard) createAccountForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&w.email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&w.password),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&w.confirm),
		).Title("Step 3: Account").
			Description("How you'll sign in"),
	).WithTheme(styles.FormTheme())
}

// Init implements tea.Model
func (w *Wizard) Init() tea.Cmd {
	return w.form.Init()
}

// Update implements tea.Model
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return w, func() tea.Msg { return CancelledMsg{} }
		}

	case checkedMsg:
		return w.handleChecked(msg)

	case submittedMsg:
		return w.handleSubmitted(msg)
	}

	if w.busy != "" {
		return w, nil
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		return w.advanceStep()
	}
	return w, cmd
}

func (w *Wizard) advanceStep() (tea.Model, tea.Cmd) {
	w.err = nil
	switch w.step {
	case stepUsername:
		w.reg.SetUsername(strings.TrimSpace(w.username))
		w.busy = "Checking username..."
		return w, w.checkCmd(stepUsername)

	case stepNickname:
		w.reg.SetNickname(strings.TrimSpace(w.nickname))
		w.busy = "Checking nickname..."
		return w, w.checkCmd(stepNickname)

	case stepAccount:
		w.busy = "Creating your account..."
		email, password, confirm := strings.TrimSpace(w.email), w.password, w.confirm
		return w, func() tea.Msg {
			return submittedMsg{err: w.reg.Submit(w.ctx, email, password, confirm)}
		}
	}
	return w, nil
}

func (w *Wizard) checkCmd(step int) tea.Cmd {
	return func() tea.Msg {
		var available bool
		var err error
		if step == stepUsername {
			available, err = w.reg.CheckUsername(w.ctx)
		} else {
			available, err = w.reg.CheckNickname(w.ctx)
		}
		return checkedMsg{step: step, available: available, err: err}
	}
}

func (w *Wizard) handleChecked(msg checkedMsg) (tea.Model, tea.Cmd) {
	w.busy = ""
	if msg.step != w.step {
		return w, nil
	}

	switch {
	case msg.err != nil:
		w.err = msg.err
	case !msg.available && msg.step == stepUsername:
		w.err = account.ErrUsernameTaken
	case !msg.available:
		w.err = account.ErrNicknameTaken
	default:
		w.step++
	}

	w.form = w.createForm()
	return w, w.form.Init()
}

func (w *Wizard) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	w.busy = ""
	if msg.err != nil {
		w.err = msg.err
		// A stale availability check sends the user back to that step.
		switch {
		case errors.Is(msg.err, account.ErrUsernameNotVerified), errors.Is(msg.err, account.ErrUsernameTaken):
			w.step = stepUsername
		case errors.Is(msg.err, account.ErrNicknameNotVerified), errors.Is(msg.err, account.ErrNicknameTaken):
			w.step = stepNickname
		}
		w.password, w.confirm = "", ""
		w.form = w.createForm()
		return w, w.form.Init()
	}

	username := w.reg.Username()
	return w, func() tea.Msg { return CompleteMsg{Username: username} }
}

// SetWidth sets the wizard width for proper rendering
func (w *Wizard) SetWidth(width int) {
	w.width = width
}

// Step returns the current step, starting at 1
func (w *Wizard) Step() int {
	return w.step
}

// View implements tea.Model
func (w *Wizard) View() string {
	var sb strings.Builder

	sb.WriteString(w.renderProgress())
	sb.WriteString("\n\n")

	if w.err != nil {
		sb.WriteString(styles.ErrorText.Render(icons.Critical.String() + " " + w.err.Error()))
		sb.WriteString("\n\n")
	}

	if w.busy != "" {
		sb.WriteString(styles.Subtitle.Render(w.busy))
		return sb.String()
	}

	sb.WriteString(w.form.View())
	return sb.String()
}

// renderProgress renders the step progress indicator
func (w *Wizard) renderProgress() string {
	width := w.width - 1
	if width < 60 {
		width = 60
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	var steps []string
	for i, name := range stepNames {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		if stepNum < w.step {
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		} else if stepNum == w.step {
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		} else {
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}

	stepsLine := strings.Join(steps, "    ")

	// "│  " + bar + " │" = 5 chars overhead
	barWidth := width - 5
	filledWidth := (w.step * barWidth) / len(stepNames)
	emptyWidth := barWidth - filledWidth

	filledBar := lipgloss.NewStyle().Foreground(styles.Primary).Render(strings.Repeat("━", filledWidth))
	emptyBar := lipgloss.NewStyle().Foreground(styles.Surface).Render(strings.Repeat("─", emptyWidth))

	title := "Sign up"
	topFillWidth := max(0, width-5-lipgloss.Width(title))
	topBorder := "┌─ " + titleStyle.Render(title) + " " + strings.Repeat("─", topFillWidth) + "┐"

	stepsPadding := max(0, width-4-lipgloss.Width(stepsLine))
	stepsLinePadded := "│ " + stepsLine + strings.Repeat(" ", stepsPadding) + " │"

	progressLinePadded := "│  " + filledBar + emptyBar + " │"

	bottomBorder := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{
		topBorder,
		stepsLinePadded,
		progressLinePadded,
		bottomBorder,
	}, "\n"))
}
