// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuicards/internal/model"
	"github.com/verte-zerg/tuicards/internal/stats"
	"github.com/verte-zerg/tuicards/internal/store"
)

const detailHeight = 6

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	sparkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store  *store.Store
	setIDs []string
	clock  func() time.Time

	report stats.Report
	errMsg string

	setTable table.Model
	detail   viewport.Model

	width  int
	height int
}

// NewModel constructs a stats UI model. setIDs lists the sets known from the
// sets directory; sets with stored history are merged in.
func NewModel(st *store.Store, setIDs []string) *Model {
	m := &Model{
		store:  st,
		setIDs: setIDs,
		clock:  time.Now,
	}
	m.setTable = buildSetTable(nil, 0, 1)
	m.detail = viewport.New(0, detailHeight)
	m.refreshReport()
	return m
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
		m.updateLayout()
		m.renderDetail()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "r":
			m.refreshReport()
			return m, nil
		case "g", "home":
			m.setTable.GotoTop()
			m.renderDetail()
			return m, nil
		case "G", "end":
			m.setTable.GotoBottom()
			m.renderDetail()
			return m, nil
		default:
			var cmd tea.Cmd
			m.setTable, cmd = m.setTable.Update(msg)
			m.renderDetail()
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := titleStyle.Render("Review statistics")
	var body string
	switch {
	case m.errMsg != "":
		body = errorStyle.Render(m.errMsg)
	case len(m.report.Sets) == 0:
		body = "No sets with review history."
	default:
		body = m.setTable.View() + "\n" + m.detail.View()
	}
	footer := headerStyle.Render("Scroll: up/down  Refresh: r  Quit: q")
	return fitLines(strings.Join([]string{header, body, footer}, "\n"), m.width, m.height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.setIDs, m.clock())
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.report = report
	m.setTable.SetRows(buildSetRows(report.Sets))
	m.setTable.Focus()
	m.updateLayout()
	m.renderDetail()
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	tableHeight := m.height - detailHeight - 3 // header, footer, table header
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.setTable.SetWidth(m.width)
	m.setTable.SetHeight(tableHeight)
	m.detail.Width = m.width
	m.detail.Height = detailHeight
}

// renderDetail fills the lower pane with the selected set's due forecast.
func (m *Model) renderDetail() {
	row := m.setTable.SelectedRow()
	if len(row) == 0 {
		m.detail.SetContent("")
		return
	}
	setID := row[0]
	forecast := m.report.Forecasts[setID]
	due := 0
	for _, v := range forecast {
		due += v
	}
	lines := []string{
		"",
		labelStyle.Render(fmt.Sprintf("%s · due next %dd: %d", setID, stats.ForecastDays, due)),
		sparkStyle.Render("[" + stats.Sparkline(forecast) + "]"),
		labelStyle.Render(forecastScale(forecast)),
	}
	m.detail.SetContent(strings.Join(lines, "\n"))
}

func forecastScale(forecast []int) string {
	maxVal := 0
	for _, v := range forecast {
		if v > maxVal {
			maxVal = v
		}
	}
	return fmt.Sprintf(" today .. +%dd  peak %d", len(forecast)-1, maxVal)
}

func buildSetTable(sets []model.SetStats, width, height int) table.Model {
	t := table.New(
		table.WithColumns(setColumns()),
		table.WithRows(buildSetRows(sets)),
		table.WithHeight(maxInt(1, height)),
		table.WithFocused(true),
	)
	t.SetWidth(width)
	t.SetStyles(setTableStyles())
	return t
}

func setColumns() []table.Column {
	return []table.Column{
		{Title: "Set", Width: 20},
		{Title: "Total", Width: 6},
		{Title: "New", Width: 5},
		{Title: "Learning", Width: 9},
		{Title: "Due", Width: 5},
		{Title: "Reviews", Width: 8},
	}
}

func buildSetRows(sets []model.SetStats) []table.Row {
	rows := make([]table.Row, 0, len(sets))
	for _, s := range sets {
		rows = append(rows, table.Row{
			s.SetID,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.New),
			strconv.Itoa(s.Learning),
			strconv.Itoa(s.ReviewDue),
			strconv.Itoa(s.Logged),
		})
	}
	return rows
}

func setTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
