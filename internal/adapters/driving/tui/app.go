package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// App is the root bubbletea model for the chat interface.
type App struct {
	ports     *Ports
	styles    *Styles
	sessionID string
	ctx       context.Context

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	transcript []domain.ChatMessage
	waiting    bool
	err        error
	width      int
	height     int
	ready      bool
}

// NewApp creates the chat application model.
func NewApp(ports *Ports, sessionID string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question about your documents..."
	ti.Focus()
	ti.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		ports:     ports,
		styles:    DefaultStyles(),
		sessionID: sessionID,
		ctx:       context.Background(),
		input:     ti,
		spinner:   sp,
		width:     80,
		height:    24,
	}, nil
}

// WithContext sets the context used for driving port calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init loads the stored conversation and starts the input blink.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.loadHistory())
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case HistoryLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.transcript = msg.Messages
		a.refreshViewport()
		return a, nil

	case AnswerReceived:
		a.waiting = false
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.err = nil
		return a, a.loadHistory()

	case spinner.TickMsg:
		if !a.waiting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return a, tea.Quit

	case tea.KeyEnter:
		question := strings.TrimSpace(a.input.Value())
		if question == "" || a.waiting {
			return a, nil
		}
		a.input.SetValue("")
		a.waiting = true
		a.err = nil
		// Show the question immediately; the store catches up on success.
		a.transcript = append(a.transcript, domain.ChatMessage{
			Role:    domain.RoleUser,
			Content: question,
		})
		a.refreshViewport()
		return a, tea.Batch(a.spinner.Tick, a.ask(question))

	case tea.KeyCtrlR:
		if a.waiting || len(a.transcript) == 0 {
			return a, nil
		}
		a.waiting = true
		a.err = nil
		return a, tea.Batch(a.spinner.Tick, a.regenerate())
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// View renders the chat screen.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	title := a.styles.Title.Render(fmt.Sprintf("DocChat · session %s", a.sessionID))

	status := a.styles.Muted.Render("enter: ask · ctrl+r: regenerate · esc: quit")
	if a.waiting {
		status = a.spinner.View() + a.styles.Muted.Render(" thinking...")
	}
	if a.err != nil {
		status = a.styles.Error.Render("Error: " + a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		a.viewport.View(),
		a.styles.InputField.Width(a.width-4).Render(a.input.View()),
		status,
	)
}

// resize fits the viewport and input to the window.
func (a *App) resize() {
	inputHeight := 3
	statusHeight := 1
	titleHeight := 1
	a.viewport = viewport.New(a.width, a.height-inputHeight-statusHeight-titleHeight)
	a.input.Width = a.width - 8
	a.refreshViewport()
}

// refreshViewport re-renders the transcript and scrolls to the bottom.
func (a *App) refreshViewport() {
	var sb strings.Builder
	for _, msg := range a.transcript {
		switch msg.Role {
		case domain.RoleUser:
			sb.WriteString(a.styles.User.Render("You: "))
			sb.WriteString(msg.Content)
		default:
			sb.WriteString(a.styles.Assistant.Render(msg.Content))
			for _, src := range msg.Sources {
				sb.WriteString("\n")
				sb.WriteString(a.styles.Source.Render("  └ " + formatSource(src)))
			}
		}
		sb.WriteString("\n\n")
	}
	a.viewport.SetContent(lipgloss.NewStyle().Width(a.viewport.Width).Render(sb.String()))
	a.viewport.GotoBottom()
}

func formatSource(src domain.Source) string {
	if src.Kind == domain.SourceWeb {
		return fmt.Sprintf("%s (%s)", src.Title, src.URL)
	}
	return fmt.Sprintf("%s (%.2f)", src.Title, src.Score)
}

// --- Commands ---

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		messages, err := a.ports.Chat.History(a.ctx, a.sessionID, 0)
		return HistoryLoaded{Messages: messages, Err: err}
	}
}

func (a *App) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := a.ports.Chat.Ask(a.ctx, a.sessionID, question)
		return AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (a *App) regenerate() tea.Cmd {
	return func() tea.Msg {
		answer, err := a.ports.Chat.Regenerate(a.ctx, a.sessionID)
		return AnswerReceived{Answer: answer, Err: err}
	}
}
