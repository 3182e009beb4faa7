package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/mob/internal/log"
	"github.com/zjrosen/mob/internal/mob/application"
)

type progressMsg float64

type resultMsg struct {
	success  bool
	title    string
	messages []string
}

// workDoneMsg arrives when the work function returns.
type workDoneMsg struct{}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
	cancelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FECA57"))
)

// Model shows a spinner and progress bar while a session start runs, then
// the rendered result.
type Model struct {
	title      string
	spinner    spinner.Model
	progress   progress.Model
	percent    float64
	width      int
	work       tea.Cmd
	cancel     context.CancelFunc
	cancelling bool
	result     *resultMsg
	summary    string
}

// NewModel creates the view. work runs off the UI goroutine; cancel is
// called on the first ctrl+c.
func NewModel(title string, work tea.Cmd, cancel context.CancelFunc) Model {
	return Model{
		title:    title,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(DefaultWidth-4)),
		work:     work,
		cancel:   cancel,
	}
}

// Init starts the spinner and the work.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(msg.Width-4, 10)
		return m, nil

	case tea.KeyMsg:
		if msg.String() != "ctrl+c" {
			return m, nil
		}
		if m.result != nil || m.cancelling {
			return m, tea.Quit
		}
		m.cancelling = true
		log.Info(log.CatUI, "cancel requested")
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil

	case progressMsg:
		m.percent = float64(msg)
		return m, nil

	case resultMsg:
		m.result = &msg
		m.percent = 1
		m.summary = renderSummary(msg, m.width)
		return m, tea.Quit

	case workDoneMsg:
		if m.result == nil {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	if m.result != nil {
		return m.summary
	}
	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.progress.ViewAs(m.percent))
	b.WriteString("\n\n")
	if m.cancelling {
		b.WriteString(cancelStyle.Render("Cancelling after the current step…"))
	} else {
		b.WriteString(hintStyle.Render("ctrl+c to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// Succeeded reports the final outcome, false until a result arrived.
func (m Model) Succeeded() bool {
	return m.result != nil && m.result.success
}

// renderSummary renders the result as markdown. Plain text is used when
// glamour cannot render.
func renderSummary(r resultMsg, width int) string {
	md := summaryMarkdown(r)
	if width <= 0 {
		width = DefaultWidth
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width-2))
	if err != nil {
		log.Warn(log.CatUI, "markdown renderer unavailable", "error", err)
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		log.Warn(log.CatUI, "rendering summary failed", "error", err)
		return md
	}
	return out
}

func summaryMarkdown(r resultMsg) string {
	mark := "✓"
	if !r.success {
		mark = "✗"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s %s\n\n", mark, escapeMarkdown(r.title))
	for _, msg := range r.messages {
		fmt.Fprintf(&b, "- %s\n", escapeMarkdown(msg))
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`,
	`[`, `\[`, `]`, `\]`, `#`, `\#`, `<`, `\<`, `>`, `\>`,
)

// escapeMarkdown keeps branch names such as feature_x literal.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// tuiSink forwards orchestrator callbacks into the running program.
type tuiSink struct {
	program *tea.Program
}

var _ application.ProgressSink = (*tuiSink)(nil)

func (s *tuiSink) ReportProgress(fraction float64) {
	s.program.Send(progressMsg(fraction))
}

func (s *tuiSink) ReportResult(success bool, title string, messages []string) {
	s.program.Send(resultMsg{success: success, title: title, messages: append([]string(nil), messages...)})
}

// RunTUI shows the progress view while work runs with a sink bound to it.
// The context handed to work is cancelled by ctrl+c. RunTUI returns once
// work has returned, reporting whether the shown result was a success.
func RunTUI(ctx context.Context, title string, work func(ctx context.Context, sink application.ProgressSink), opts ...tea.ProgramOption) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := &tuiSink{}
	done := make(chan struct{})
	var (
		mu      sync.Mutex
		started bool
		stopped bool
	)
	cmd := func() tea.Msg {
		mu.Lock()
		if stopped || ctx.Err() != nil {
			mu.Unlock()
			return workDoneMsg{}
		}
		started = true
		mu.Unlock()
		defer close(done)
		work(ctx, sink)
		return workDoneMsg{}
	}
	program := tea.NewProgram(NewModel(title, cmd, cancel), opts...)
	sink.program = program

	final, err := program.Run()
	// The view may quit on the result before work returns; a second
	// ctrl+c quits while work is still stopping.
	cancel()
	mu.Lock()
	stopped = true
	wait := started
	mu.Unlock()
	if wait {
		<-done
	}
	if err != nil {
		return false, fmt.Errorf("running progress view: %w", err)
	}
	m, ok := final.(Model)
	return ok && m.Succeeded(), nil
}
