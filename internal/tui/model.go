// Package tui provides the Bubble Tea review interface.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuicards/internal/model"
	"github.com/verte-zerg/tuicards/internal/session"
)

// feedbackDelay is how long the rating feedback stays on screen before the
// session advances to the next card.
const feedbackDelay = 600 * time.Millisecond

type advanceMsg struct{ seq int }

var (
	frontStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	backStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	dividerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	knownStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#73D673"))
	forgotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#6E6E6E")).Padding(1, 3)
	summaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	feedbackStyle = lipgloss.NewStyle().Italic(true)
)

// Model implements the Bubble Tea review UI over a session façade.
type Model struct {
	session *session.Session
	view    session.ViewState

	width  int
	height int

	feedback string
	rated    bool
	seq      int // invalidates stale advance timers

	mu      sync.Mutex
	lastErr string
}

// NewModel constructs a review TUI model over an already started session.
func NewModel(sess *session.Session) *Model {
	m := &Model{session: sess}
	m.view = sess.View()
	return m
}

// PersistenceError records an async persistence failure for the footer. Safe
// to call from the session's background goroutines.
func (m *Model) PersistenceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err.Error()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case advanceMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.advance()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		m.restart()
		return m, nil
	}
	if m.view.Status == session.StatusCompleted {
		return m, nil
	}
	switch msg.String() {
	case " ":
		if !m.rated {
			m.view = m.session.Flip()
		}
		return m, nil
	case "s":
		if m.rated {
			return m, nil
		}
		if view, err := m.session.Skip(); err == nil {
			m.view = view
		}
		return m, nil
	case "1":
		return m, m.rate(model.QualityForgot)
	case "2":
		return m, m.rate(model.QualityKnown)
	default:
		return m, nil
	}
}

// rate records the rating, shows scheduling feedback and arms a timer that
// advances to the next card.
func (m *Model) rate(quality model.Quality) tea.Cmd {
	if m.rated || m.view.Status != session.StatusShowingBack {
		return nil
	}
	view, err := m.session.Rate(quality)
	if err != nil {
		return nil
	}
	m.view = view
	m.rated = true
	m.feedback = ratingFeedback(quality, view.CurrentItem)
	m.seq++
	seq := m.seq
	return tea.Tick(feedbackDelay, func(time.Time) tea.Msg {
		return advanceMsg{seq: seq}
	})
}

func (m *Model) advance() {
	m.view = m.session.Next()
	m.rated = false
	m.feedback = ""
}

func (m *Model) restart() {
	m.view = m.session.Restart()
	m.rated = false
	m.feedback = ""
	m.seq++
}

func ratingFeedback(quality model.Quality, item *model.ReviewItem) string {
	if item == nil {
		return ""
	}
	days := "day"
	if item.Interval != 1 {
		days = "days"
	}
	if quality.Success() {
		return knownStyle.Render(fmt.Sprintf("Known · next in %d %s", item.Interval, days))
	}
	return forgotStyle.Render(fmt.Sprintf("Again · next in %d %s", item.Interval, days))
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	if m.view.Status == session.StatusCompleted {
		content = m.renderSummary()
	} else {
		content = m.renderCard()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderCard() string {
	card := m.view.CurrentCard
	if card == nil {
		return hintStyle.Render("Nothing due. Press q to quit.")
	}
	textWidth := m.contentWidth()

	var lines []string
	lines = append(lines, frontStyle.Render(Wrap(card.Front, textWidth)))
	if m.view.Flipped {
		lines = append(lines, dividerStyle.Render(strings.Repeat("─", minInt(textWidth, 24))))
		lines = append(lines, backStyle.Render(Wrap(card.Back, textWidth)))
	}
	if m.feedback != "" {
		lines = append(lines, "", feedbackStyle.Render(m.feedback))
	} else if m.view.Flipped {
		lines = append(lines, "", hintStyle.Render("1 again · 2 known"))
	} else {
		lines = append(lines, "", hintStyle.Render("space to flip"))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderSummary() string {
	t := m.view.Tally
	lines := []string{
		summaryStyle.Render("Session complete"),
		"",
		fmt.Sprintf("Reviewed  %d", m.view.Progress.Reviewed),
		fmt.Sprintf("Known     %d", t.Correct),
		fmt.Sprintf("Again     %d", t.Incorrect),
		"",
		hintStyle.Render("r restart · q quit"),
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	p := m.view.Progress
	segments := []string{
		fmt.Sprintf("Card %d/%d", minInt(p.Current+1, p.Total), p.Total),
		fmt.Sprintf("Known %d · Again %d", m.view.Tally.Correct, m.view.Tally.Incorrect),
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	m.mu.Lock()
	lastErr := m.lastErr
	m.mu.Unlock()
	if lastErr != "" {
		footer += "  " + warningStyle.Render("save failed: "+lastErr)
	}
	return footer
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 60
	}
	w := int(float64(m.width) * 0.60)
	if w < 20 {
		w = 20
	}
	return w
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
