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

	"notebook/internal/domain"
	"notebook/internal/service"
)

// NotebookPort is the TUI-facing subset of the notebook service.
type NotebookPort interface {
	Templates() []domain.Template
	Sources() []domain.SourceDocument
	Generate(ctx context.Context, templateID, query string) (*service.Result, error)
}

type generatedMsg struct {
	result *service.Result
	err    error
}

type pane int

const (
	paneOutput pane = iota
	paneChunks
)

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx       context.Context
	service   NotebookPort
	templates []domain.Template
	render    func(md string, width int) (string, error)

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	cursor     int
	generating bool
	result     *service.Result
	pane       pane
	chunk      int
	status     string
	ready      bool
}

type Option func(*Model)

// WithRenderer replaces glamour markdown rendering.
func WithRenderer(f func(md string, width int) (string, error)) Option {
	return func(m *Model) { m.render = f }
}

// WithContext sets the context generation runs under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// New creates a new TUI model instance.
func New(svc NotebookPort, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "focus> "
	ti.Placeholder = "optional: what should the document focus on?"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       context.Background(),
		service:   svc,
		templates: svc.Templates(),
		render:    RenderMarkdown,
		input:     ti,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
		status:    fmt.Sprintf("%d sources loaded. Pick a template with ↑/↓ and press Enter.", len(svc.Sources())),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := boxStyle.GetFrameSize()
		// header, template list, input box, status
		reserved := 2 + len(m.templates) + 1 + bh + 1
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case generatedMsg:
		m.generating = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.result = msg.result
		m.pane = paneOutput
		m.chunk = 0
		m.status = fmt.Sprintf("%s generated in %s from %d chunks", msg.result.Template.Name, FormatDuration(msg.result.Elapsed), len(msg.result.Prompt.Included))
		if msg.result.Prompt.Truncated() {
			m.status += fmt.Sprintf(" (%d dropped to fit the prompt)", msg.result.Prompt.Dropped)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.generating || len(m.templates) == 0 {
				return m, nil
			}
			m.generating = true
			tpl := m.templates[m.cursor]
			m.status = fmt.Sprintf("Generating %s...", tpl.Name)
			return m, tea.Batch(m.spinner.Tick, m.generate(tpl.ID, m.input.Value()))
		case "up":
			if m.pane == paneChunks && m.result != nil {
				m.chunk = (m.chunk - 1 + len(m.result.Prompt.Included)) % max(1, len(m.result.Prompt.Included))
				m.refresh()
			} else if len(m.templates) > 0 {
				m.cursor = (m.cursor - 1 + len(m.templates)) % len(m.templates)
			}
			return m, nil
		case "down":
			if m.pane == paneChunks && m.result != nil {
				m.chunk = (m.chunk + 1) % max(1, len(m.result.Prompt.Included))
				m.refresh()
			} else if len(m.templates) > 0 {
				m.cursor = (m.cursor + 1) % len(m.templates)
			}
			return m, nil
		case "tab":
			if m.result != nil {
				if m.pane == paneOutput {
					m.pane = paneChunks
				} else {
					m.pane = paneOutput
				}
				m.refresh()
			}
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) generate(templateID, query string) tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		res, err := svc.Generate(ctx, templateID, strings.TrimSpace(query))
		return generatedMsg{result: res, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.content())
	m.viewport.GotoTop()
}

func (m Model) content() string {
	if m.result == nil {
		return "Nothing generated yet."
	}
	if m.pane == paneChunks {
		included := m.result.Prompt.Included
		if len(included) == 0 {
			return "No chunks were retrieved."
		}
		r := included[m.chunk]
		title := fmt.Sprintf("Chunk %d/%d  source=%s #%d  score=%.3f", m.chunk+1, len(included), r.Chunk.SourceID, r.Chunk.Index, r.Score)
		return title + "\n\n" + HighlightBestSentence(r.Chunk.Text, m.result.SearchText)
	}
	out, err := m.render(m.result.Text, m.viewport.Width)
	if err != nil {
		return m.result.Text
	}
	return out
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Notebook"))
	sb.WriteString("\n")
	for i, tpl := range m.templates {
		line := fmt.Sprintf("  %s  %s", tpl.Name, dimStyle.Render(tpl.Description))
		if i == m.cursor {
			line = selectedStyle.Render("> "+tpl.Name) + "  " + dimStyle.Render(tpl.Description)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(boxStyle.Render(m.viewport.View()))
	sb.WriteString("\n")
	sb.WriteString(boxStyle.Render(m.input.View()))
	sb.WriteString("\n")
	status := m.status
	if m.generating {
		status = m.spinner.View() + " " + status
	}
	sb.WriteString(statusStyle.Render(status))
	return sb.String()
}

var (
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
