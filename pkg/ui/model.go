package ui

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chatwidget/pkg/session"
	"github.com/go-go-golems/chatwidget/pkg/widget"
)

type focusTarget int

const (
	focusInput focusTarget = iota
	focusEndpoint
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	inputHeight   = 3
)

// Model is the terminal host of a widget session. It renders the session and
// forwards key presses as intents; it never touches the conversation itself.
type Model struct {
	session *widget.Session
	backend *DispatchBackend
	ctx     context.Context

	keys     keyMap
	help     help.Model
	input    textarea.Model
	endpoint textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	renderer    Renderer
	newRenderer func(width int) Renderer
	copyFn      func(string) error

	title  string
	focus  focusTarget
	status string
	width  int
	height int
}

type ModelOption func(*Model)

// WithRenderer fixes the renderer used for assistant turns. Without it a
// glamour markdown renderer is rebuilt for every terminal width.
func WithRenderer(r Renderer) ModelOption {
	return func(m *Model) {
		m.renderer = r
		m.newRenderer = nil
	}
}

// WithClipboard replaces the function used to copy the last reply.
func WithClipboard(fn func(string) error) ModelOption {
	return func(m *Model) {
		m.copyFn = fn
	}
}

func WithTitle(title string) ModelOption {
	return func(m *Model) {
		m.title = title
	}
}

// WithContext sets the parent context of every exchange.
func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) {
		m.ctx = ctx
	}
}

func NewModel(s *widget.Session, opts ...ModelOption) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask me anything..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	ti := textinput.New()
	ti.Placeholder = session.DefaultEndpoint
	ti.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = thinkingStyle

	var style string
	m := Model{
		session:  s,
		ctx:      context.Background(),
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    ta,
		endpoint: ti,
		spinner:  sp,
		viewport: viewport.New(defaultWidth, defaultHeight),
		renderer: PlainRenderer{},
		newRenderer: func(width int) Renderer {
			if style == "" {
				style = DetectStyle()
			}
			r, err := NewMarkdownRenderer(style, width)
			if err != nil {
				log.Debug().Err(err).Str("component", "ui").Msg("falling back to plain rendering")
				return PlainRenderer{}
			}
			return r
		},
		copyFn: clipboard.WriteAll,
		title:  "AI Assistant",
		width:  defaultWidth,
		height: defaultHeight,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.backend = NewDispatchBackend(m.ctx, s)
	m.layout()
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case ExchangeSettledMsg:
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.session.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.backend.Kill()
		return m, tea.Quit
	}

	if m.session.View().IsMinimized() {
		if key.Matches(msg, m.keys.Restore) {
			m.session.Restore()
			m.layout()
			m.refresh()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Minimize):
		m.session.Minimize()
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		m.session.NewChat()
		m.status = ""
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		return m.toggleSettings()

	case key.Matches(msg, m.keys.Copy):
		m.copyLastReply()
		return m, nil
	}

	if m.focus == focusEndpoint {
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc {
			m.focus = focusInput
			m.endpoint.Blur()
			return m, m.input.Focus()
		}
		var cmd tea.Cmd
		m.endpoint, cmd = m.endpoint.Update(msg)
		m.session.SetEndpoint(m.endpoint.Value())
		return m, cmd
	}

	if key.Matches(msg, m.keys.Send) {
		return m.submit()
	}

	// the input is disabled while an exchange is in flight
	if m.session.Loading() {
		return m, nil
	}

	if key.Matches(msg, m.keys.Newline) {
		m.input.InsertString("\n")
		m.session.SetInput(m.input.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.SetInput(m.input.Value())
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.session.SetInput(m.input.Value())
	cmd, ok := m.backend.Start()
	if !ok {
		return m, nil
	}
	m.input.Reset()
	m.status = ""
	m.refresh()
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) toggleSettings() (tea.Model, tea.Cmd) {
	open := m.session.ToggleSettings()
	m.layout()
	if open {
		m.endpoint.SetValue(m.session.Endpoint())
		m.endpoint.CursorEnd()
		m.focus = focusEndpoint
		m.input.Blur()
		return m, m.endpoint.Focus()
	}
	m.focus = focusInput
	m.endpoint.Blur()
	return m, m.input.Focus()
}

func (m *Model) copyLastReply() {
	reply, ok := m.session.LastReply()
	if !ok {
		return
	}
	if err := m.copyFn(reply.Content); err != nil {
		log.Debug().Err(err).Str("component", "ui").Msg("clipboard write failed")
		m.status = "could not copy to clipboard"
		return
	}
	m.status = "copied last reply"
}

func (m *Model) layout() {
	w := m.width
	if w <= 0 {
		w = defaultWidth
	}
	m.input.SetWidth(w - 2)
	m.endpoint.Width = w - 4
	m.help.Width = w

	// header, input box, help and the status/thinking line
	reserved := 2 + inputHeight + 2 + 1 + 1
	if m.session.View().SettingsOpen() {
		reserved += 3
	}
	h := m.height - reserved
	if h < 1 {
		h = 1
	}
	m.viewport.Width = w
	m.viewport.Height = h

	if m.newRenderer != nil {
		m.renderer = m.newRenderer(w)
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(RenderTranscript(m.session.Messages(), m.renderer))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if m.session.View().IsMinimized() {
		return launcherStyle.Render("💬 "+m.title) + "\n" +
			labelStyle.Render(m.keys.Restore.Help().Key+" "+m.keys.Restore.Help().Desc)
	}

	header := pulseStyle.Render("●") + " " + titleStyle.Render(m.title)
	parts := []string{headerStyle.Width(m.width).Render(header)}

	if m.session.View().SettingsOpen() {
		parts = append(parts, settingsStyle.Width(m.width).Render(
			labelStyle.Render("API Endpoint")+"\n"+m.endpoint.View(),
		))
	}

	parts = append(parts, m.viewport.View())

	switch {
	case m.session.Loading():
		parts = append(parts, thinkingStyle.Render(m.spinner.View()+" Thinking..."))
	case m.status != "":
		parts = append(parts, statusStyle.Render(m.status))
	default:
		parts = append(parts, "")
	}

	parts = append(parts, inputStyle.Render(m.input.View()))

	keys := m.keys
	keys.Send.SetEnabled(m.session.CanSubmit())
	parts = append(parts, m.help.View(keys))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Run starts a full-screen program hosting s and blocks until it quits.
func Run(ctx context.Context, s *widget.Session, opts ...ModelOption) error {
	opts = append([]ModelOption{WithContext(ctx)}, opts...)
	p := tea.NewProgram(
		NewModel(s, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
