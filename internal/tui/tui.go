// Package tui provides a Bubble Tea TUI for browsing a recorded chat session.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/ctxchat/internal/contextfiles"
	"github.com/fakeyudi/ctxchat/internal/session"
)

// ── Styles ───────────────────────────────────────────────────────────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	userBadgeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantBadgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// ── Tab definitions ──────────────────────────────────────────────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabContext
	tabHistory
	tabCount
)

var tabNames = [tabCount]string{"Summary", "Context Files", "Chat History"}

// File is a context file as it reads now.
type File struct {
	Path    string
	Content string
	Err     error
}

// LoadFiles reads each path, keeping read errors alongside the path.
func LoadFiles(paths []string) []File {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		content, err := contextfiles.Read(p)
		files = append(files, File{Path: p, Content: content, Err: err})
	}
	return files
}

// ── Model ────────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	transcript string
	files      []File
	exchanges  []session.Exchange
	activeTab  tabID
	viewports  [tabCount]viewport.Model
	width      int
	height     int
	ready      bool
	// Context Files tab: cursor position and expanded set
	fileCursor    int
	expandedFiles map[int]bool
}

// New creates a model for a transcript, its exchanges, and its context files.
func New(transcriptPath string, exchanges []session.Exchange, files []File) Model {
	return Model{
		transcript:    transcriptPath,
		files:         files,
		exchanges:     exchanges,
		expandedFiles: make(map[int]bool),
	}
}

// ── Bubble Tea interface ─────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "up", "k":
			if m.activeTab == tabContext && m.fileCursor > 0 {
				m.fileCursor--
				m.rebuildContextViewport()
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabContext && m.fileCursor < len(m.files)-1 {
				m.fileCursor++
				m.rebuildContextViewport()
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabContext && len(m.files) > 0 {
				if m.expandedFiles[m.fileCursor] {
					delete(m.expandedFiles, m.fileCursor)
				} else {
					m.expandedFiles[m.fileCursor] = true
				}
				m.rebuildContextViewport()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  ctxchat  " + filepath.Base(m.transcript))

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-3 jump  q quit"
	if m.activeTab == tabContext {
		hint += "  ↑/↓ select  enter expand/collapse"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + pct)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ──────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuildContextViewport() {
	m.viewports[tabContext].SetContent(m.renderTab(tabContext))
}

// ── Tab renderers ────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabContext:
		return m.renderContext()
	case tabHistory:
		return m.renderHistory()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func (m *Model) renderSummary() string {
	var sb strings.Builder
	sb.WriteString(heading("Session"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}
	row("Transcript:", m.transcript)
	row("Exchanges:", fmt.Sprintf("%d", len(m.exchanges)))
	row("Context files:", fmt.Sprintf("%d", len(m.files)))

	missing := 0
	for _, f := range m.files {
		if f.Err != nil {
			missing++
		}
	}
	if missing > 0 {
		row("Unreadable:", errStyle.Render(fmt.Sprintf("%d", missing)))
	}
	return sb.String()
}

func (m *Model) renderContext() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Context Files (%d)", len(m.files))))
	if len(m.files) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for i, f := range m.files {
		toggle := dimStyle.Render("  ▶ ")
		if m.expandedFiles[i] {
			toggle = dimStyle.Render("  ▼ ")
		}
		row := toggle + f.Path
		if f.Err != nil {
			row += "  " + errStyle.Render("(unreadable)")
		}
		if i == m.fileCursor {
			row = selectedRowStyle.Width(max(m.width-2, 1)).Render(row)
		}
		sb.WriteString(row + "\n")

		if m.expandedFiles[i] {
			sb.WriteString(renderFile(f, m.width))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderFile draws a file's content, or its read error, between rules.
func renderFile(f File, width int) string {
	var sb strings.Builder
	border := dimStyle.Render("  " + strings.Repeat("─", max(width-4, 1)))
	sb.WriteString(border + "\n")
	if f.Err != nil {
		sb.WriteString(errStyle.Render("  Error reading file: "+f.Err.Error()) + "\n")
	} else {
		sb.WriteString(indent(f.Content, "  ") + "\n")
	}
	sb.WriteString(border + "\n")
	return sb.String()
}

func (m *Model) renderHistory() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Chat History (%d)", len(m.exchanges))))
	if len(m.exchanges) == 0 {
		sb.WriteString(dimStyle.Render("  (no exchanges recorded)") + "\n")
		return sb.String()
	}
	for i, ex := range m.exchanges {
		num := dimStyle.Render(fmt.Sprintf("  %3d.", i+1))
		sb.WriteString(num + " " + userBadgeStyle.Render("USER") + "\n")
		sb.WriteString(indent(ex.Prompt, "       ") + "\n")
		sb.WriteString("      " + assistantBadgeStyle.Render("ASSISTANT") + "\n")
		sb.WriteString(indent(ex.Response, "       ") + "\n\n")
	}
	return sb.String()
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// Run starts the TUI for a transcript.
func Run(transcriptPath string, exchanges []session.Exchange, files []File) error {
	p := tea.NewProgram(New(transcriptPath, exchanges, files), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
