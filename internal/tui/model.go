// Package tui is the full-screen terminal front end of the chat widget.
package tui

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"samarth-chat/internal/chat"
	"samarth-chat/internal/models"
	"samarth-chat/internal/transcript"
)

const defaultWidth = 80

// changedMsg tells the model the transcript has new entries.
type changedMsg struct{}

// completedMsg is returned when a background cycle has finished.
type completedMsg struct{ seq int64 }

// inputBox lets the handler read the text input owned by the model copy
// currently running Update.
type inputBox struct {
	ti *textinput.Model
}

func (b *inputBox) ReadAndClear() string {
	if b.ti == nil {
		return ""
	}
	v := b.ti.Value()
	b.ti.SetValue("")
	return v
}

type Options struct {
	Ordering    chat.Ordering
	Suggestions []string
	Logger      *zap.Logger
	Plain       bool // skip Markdown rendering of answers
}

type Model struct {
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   styles

	ctx        context.Context
	handler    *chat.Handler
	box        *inputBox
	log        *transcript.Transcript
	notify     chan struct{}
	scroll     *atomic.Bool
	plain      bool
	logger     *zap.Logger
	suggest    []string
	suggestIdx int
	width      int
}

// New builds the model. ctx bounds every background request.
func New(ctx context.Context, asker chat.Asker, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	st := defaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Ask about rainfall or crops... (Enter to send, Tab for examples, Esc to quit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 1024
	ti.Width = defaultWidth - 4
	ti.PromptStyle = st.Prompt

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.Spinner

	vp := viewport.New(defaultWidth, 20)

	m := Model{
		input:    ti,
		viewport: vp,
		spinner:  sp,
		renderer: newRenderer(defaultWidth),
		styles:   st,
		ctx:      ctx,
		box:      &inputBox{},
		log:      transcript.New(),
		notify:   make(chan struct{}, 1),
		scroll:   &atomic.Bool{},
		plain:    opts.Plain,
		logger:   opts.Logger,
		suggest:  opts.Suggestions,
		width:    defaultWidth,
	}

	m.log.Subscribe(func(ev transcript.Event) {
		if ev.Scroll {
			m.scroll.Store(true)
		}
		// Coalesce: one pending wake-up is enough, Update re-reads everything.
		select {
		case m.notify <- struct{}{}:
		default:
		}
	})

	m.handler = chat.NewHandler(m.box, m.log, asker,
		chat.WithOrdering(opts.Ordering),
		chat.WithLogger(opts.Logger),
	)
	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil
	}
	return r
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange())
}

func (m Model) waitForChange() tea.Cmd {
	notify := m.notify
	return func() tea.Msg {
		<-notify
		return changedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-5, 3)
		m.input.Width = msg.Width - 4
		m.renderer = newRenderer(msg.Width)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyTab:
			if len(m.suggest) > 0 {
				m.input.SetValue(m.suggest[m.suggestIdx%len(m.suggest)])
				m.input.CursorEnd()
				m.suggestIdx++
			}
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case changedMsg:
		m.refresh()
		if m.scroll.Swap(false) {
			m.viewport.GotoBottom()
		}
		return m, m.waitForChange()

	case completedMsg:
		m.logger.Debug("cycle completed", zap.Int64("seq", msg.seq))
		return m, nil

	case spinner.TickMsg:
		if m.handler.InFlight() == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs the accept half of a cycle inside Update, so the input is
// read and cleared on the model copy being returned.
func (m Model) submit() (tea.Model, tea.Cmd) {
	m.box.ti = &m.input
	p, ok := m.handler.Accept()
	m.box.ti = nil
	if !ok {
		return m, nil
	}

	handler, ctx := m.handler, m.ctx
	complete := func() tea.Msg {
		handler.Complete(ctx, p)
		return completedMsg{seq: p.Seq}
	}
	return m, tea.Batch(complete, m.spinner.Tick)
}

func (m *Model) refresh() {
	entries := m.log.Entries()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, m.renderEntry(e))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

func (m *Model) renderEntry(e models.Entry) string {
	text := transcript.PlainText(e.Text)
	switch e.Role {
	case models.RoleUser:
		return m.styles.User.Render("You: ") + text
	case models.RoleError:
		return m.styles.Error.Render(text)
	}

	if !m.plain && m.renderer != nil {
		if out, err := m.renderer.Render(text); err == nil {
			return m.styles.Bot.Render("Bot:") + "\n" + strings.TrimRight(out, "\n")
		}
	}
	return m.styles.Bot.Render("Bot: ") + text
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Samarth Q&A"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if n := m.handler.InFlight(); n > 0 {
		b.WriteString(m.spinner.View() + " Thinking...")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("Enter send · Tab example · PgUp/PgDn scroll · Esc quit"))
	return b.String()
}

// Entries returns the transcript shown so far.
func (m Model) Entries() []models.Entry {
	return m.log.Entries()
}

func (m Model) InFlight() int {
	return m.handler.InFlight()
}
