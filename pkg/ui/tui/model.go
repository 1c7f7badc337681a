package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"crossposter/pkg/models"
)

const maxRecent = 8

// QueuedMsg announces how many posts are waiting to be published
type QueuedMsg struct {
	Total int
}

// PublishedMsg is sent after a post was published and recorded
type PublishedMsg struct {
	Post models.Post
}

// FailedMsg is sent when a post could not be published
type FailedMsg struct {
	Post models.Post
	Err  error
}

// FinishedMsg ends the program once the run is over
type FinishedMsg struct {
	Discovered int
	Skipped    int
	Err        error
}

// Model is the sync dashboard state
type Model struct {
	account   string
	spinner   spinner.Model
	bar       progress.Model
	startTime time.Time
	width     int

	queued     bool
	total      int
	published  int
	discovered int
	skipped    int
	recent     []string
	failure    string

	finished  bool
	cancelled bool
	onCancel  func()
}

// NewModel creates the dashboard for account. onCancel runs when the user
// quits before the run is over.
func NewModel(account string, onCancel func()) Model {
	return Model{
		account:   account,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(labelStyle)),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		startTime: time.Now(),
		onCancel:  onCancel,
	}
}

// Init starts the spinner
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update applies a message to the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.finished {
				m.cancelled = true
				if m.onCancel != nil {
					m.onCancel()
				}
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case QueuedMsg:
		m.queued = true
		m.total = msg.Total
		return m, nil

	case PublishedMsg:
		m.published++
		m.pushRecent(postedStyle.Render("✓ ") + describe(msg.Post))
		return m, nil

	case FailedMsg:
		m.failure = fmt.Sprintf("%s: %v", describe(msg.Post), msg.Err)
		m.pushRecent(failedStyle.Render("✗ ") + describe(msg.Post))
		return m, nil

	case FinishedMsg:
		m.finished = true
		m.discovered = msg.Discovered
		m.skipped = msg.Skipped
		if msg.Err != nil && m.failure == "" {
			m.failure = msg.Err.Error()
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) pushRecent(line string) {
	m.recent = append(m.recent, line)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[len(m.recent)-maxRecent:]
	}
}

// Percent returns the share of queued posts already published
func (m Model) Percent() float64 {
	if m.total == 0 {
		if m.finished {
			return 1
		}
		return 0
	}
	return float64(m.published) / float64(m.total)
}

// View renders the dashboard
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render("crossposter · @"+m.account))

	status := m.spinner.View() + " collecting listing pages"
	if m.queued {
		status = m.spinner.View() + " publishing"
	}
	if m.finished {
		status = postedStyle.Render("done")
		if m.failure != "" {
			status = failedStyle.Render("stopped")
		}
	}

	stats := []string{
		stat("Status", status),
		stat("Published", fmt.Sprintf("%d/%d", m.published, m.total)),
		stat("Elapsed", time.Since(m.startTime).Round(time.Second).String()),
	}
	if m.finished {
		stats = append(stats,
			stat("Discovered", fmt.Sprint(m.discovered)),
			stat("Skipped", fmt.Sprint(m.skipped)),
		)
	}
	sections = append(sections, panelStyle.Render(strings.Join(stats, "\n")))
	sections = append(sections, m.bar.ViewAs(m.Percent()))

	if len(m.recent) > 0 {
		sections = append(sections, strings.Join(m.recent, "\n"))
	}
	if m.failure != "" {
		sections = append(sections, failedStyle.Render(m.failure))
	}
	if !m.finished {
		sections = append(sections, helpStyle.Render("q to stop after the current post"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func stat(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + valueStyle.Render(value)
}

func describe(post models.Post) string {
	caption := strings.Join(strings.Fields(post.CaptionText), " ")
	if runes := []rune(caption); len(runes) > 48 {
		caption = string(runes[:47]) + "…"
	}
	return fmt.Sprintf("[%s] %s", post.Kind(), caption)
}
