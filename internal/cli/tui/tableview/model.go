package tableview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/koinsera/botadmin/internal/cli/client"
	"github.com/koinsera/botadmin/internal/cli/tui/messages"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")).Bold(true).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Padding(0, 1)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Padding(0, 1)
)

var refreshKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
var openKey = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open"))

// Record is one table row plus what the view needs to act on it
type Record struct {
	ID    int
	Cells table.Row
	Flags map[string]bool
}

// Page is the result of loading a source
type Page struct {
	Title   string
	Records []Record
}

// Toggle flips one boolean field of the selected record
type Toggle struct {
	Key   key.Binding
	Flag  string
	Apply func(ctx context.Context, api *client.Client, r Record, value bool) error
}

// Source describes one entity table
type Source struct {
	Name    string
	Title   string
	Columns []table.Column
	Load    func(ctx context.Context, api *client.Client) (Page, error)
	Toggles []Toggle
	Open    func(r Record) tea.Msg
}

// LoadedMsg carries a finished load back to the view named Source
type LoadedMsg struct {
	Source string
	Page   Page
	Err    error
}

// ToggledMsg reports the outcome of a toggle PUT
type ToggledMsg struct {
	Source string
	Flag   string
	ID     int
	Err    error
}

// Model is a table view over one Source. It tracks its own loading state.
type Model struct {
	ctx     context.Context
	api     *client.Client
	source  Source
	table   table.Model
	records []Record
	title   string
	loaded  bool
	loading bool
	busy    bool
	err     string
	width   int
	height  int
}

// New creates a table view
func New(ctx context.Context, api *client.Client, source Source) Model {
	t := table.New(
		table.WithColumns(source.Columns),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#005F87")).
		Bold(false)
	t.SetStyles(styles)

	return Model{
		ctx:    ctx,
		api:    api,
		source: source,
		table:  t,
		title:  source.Title,
	}
}

// Name identifies the view's source
func (m Model) Name() string { return m.source.Name }

// Title is the source title, or the one reported by the last load
func (m Model) Title() string { return m.title }

// Loaded reports whether at least one load has completed
func (m Model) Loaded() bool { return m.loaded }

// Loading reports whether a load is in flight
func (m Model) Loading() bool { return m.loading }

// Err returns the last load or toggle error
func (m Model) Err() string { return m.err }

// Records returns the rows currently shown
func (m Model) Records() []Record { return m.records }

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	// title, blank line, footer
	tableHeight := h - 3
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetWidth(w)
	m.table.SetHeight(tableHeight)
}

// Selected returns the record under the cursor
func (m Model) Selected() (Record, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return Record{}, false
	}
	return m.records[i], true
}

// Refresh marks the view loading and returns the command fetching it
func (m *Model) Refresh() tea.Cmd {
	m.loading = true
	ctx, api, source := m.ctx, m.api, m.source
	return func() tea.Msg {
		page, err := source.Load(ctx, api)
		return LoadedMsg{Source: source.Name, Page: page, Err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Source != m.source.Name {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = describe(msg.Err)
			return m, nil
		}
		m.err = ""
		m.loaded = true
		m.setRecords(msg.Page)
		return m, nil

	case ToggledMsg:
		if msg.Source != m.source.Name {
			return m, nil
		}
		m.busy = false
		if msg.Err != nil {
			m.err = describe(msg.Err)
			return m, nil
		}
		m.err = ""
		status := func() tea.Msg {
			return messages.StatusMsg{Text: fmt.Sprintf("Updated %s of #%d", msg.Flag, msg.ID)}
		}
		refresh := m.Refresh()
		return m, tea.Batch(status, refresh)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, refreshKey):
			if m.loading {
				return m, nil
			}
			cmd := m.Refresh()
			return m, cmd
		case key.Matches(msg, openKey):
			if m.source.Open == nil {
				return m, nil
			}
			r, ok := m.Selected()
			if !ok {
				return m, nil
			}
			open := m.source.Open
			return m, func() tea.Msg { return open(r) }
		}
		for _, t := range m.source.Toggles {
			if key.Matches(msg, t.Key) {
				cmd := m.toggle(t)
				return m, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// toggle sends one PUT flipping the selected record's flag; the view
// re-fetches when it completes.
func (m *Model) toggle(t Toggle) tea.Cmd {
	if m.busy || m.loading {
		return nil
	}
	r, ok := m.Selected()
	if !ok {
		return nil
	}
	m.busy = true
	value := !r.Flags[t.Flag]
	ctx, api, name := m.ctx, m.api, m.source.Name
	return func() tea.Msg {
		err := t.Apply(ctx, api, r, value)
		return ToggledMsg{Source: name, Flag: t.Flag, ID: r.ID, Err: err}
	}
}

func (m *Model) setRecords(page Page) {
	if page.Title != "" {
		m.title = page.Title
	}
	m.records = page.Records
	rows := make([]table.Row, len(page.Records))
	for i, r := range page.Records {
		rows[i] = r.Cells
	}
	cursor := m.table.Cursor()
	m.table.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	m.table.SetCursor(cursor)
}

// View renders the table.
func (m Model) View() string {
	var sb strings.Builder

	title := m.title
	if m.loading {
		title += " (loading...)"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")

	switch {
	case m.err != "":
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n")
	case m.loaded && len(m.records) == 0:
		sb.WriteString(dimStyle.Render("Nothing here yet"))
		sb.WriteString("\n")
	default:
		sb.WriteString("\n")
	}

	sb.WriteString(m.table.View())
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(m.help()))
	return sb.String()
}

func (m Model) help() string {
	parts := []string{refreshKey.Help().Key + ":" + refreshKey.Help().Desc}
	if m.source.Open != nil {
		parts = append(parts, openKey.Help().Key+":"+openKey.Help().Desc)
	}
	for _, t := range m.source.Toggles {
		h := t.Key.Help()
		parts = append(parts, h.Key+":"+h.Desc)
	}
	return strings.Join(parts, "  ")
}

func describe(err error) string {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return "Session expired"
	case errors.Is(err, client.ErrForbidden):
		return "Administrator rights required"
	case errors.Is(err, client.ErrTransport):
		return "Backend unreachable: " + err.Error()
	}
	return err.Error()
}
