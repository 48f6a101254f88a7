package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jmalten/recgraph/pkg/record"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// exploreCommand creates the explore command for walking a graph in a TUI.
func (c *CLI) exploreCommand() *cobra.Command {
	var srcOpts sourceOpts

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Walk a record graph interactively",
		Long: `Walk a record graph interactively: pick a record, inspect its
fields, and follow relationships in both directions. Useful for checking
how a schema's rules relate to the actual shape of the data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := srcOpts.loadSchema()
			if err != nil {
				return err
			}
			src, _, cleanup, err := srcOpts.build(cmd.Context(), sch)
			if err != nil {
				return err
			}
			if cleanup != nil {
				defer cleanup()
			}

			g, err := src.Load(cmd.Context())
			if err != nil {
				return err
			}
			if g.Len() == 0 {
				printWarning("Graph is empty")
				return nil
			}

			model := newExploreModel(g)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}

	srcOpts.register(cmd)
	return cmd
}

// =============================================================================
// ExploreModel - Interactive record walker
// =============================================================================

// exploreMode distinguishes the record list from the record detail view.
type exploreMode int

const (
	modeList exploreMode = iota
	modeDetail
)

// crumb is one step of the navigation trail.
type crumb struct {
	mode    exploreMode
	records []*record.Record
	current *record.Record
	cursor  int
	label   string
}

// ExploreModel is the bubbletea model for walking a record graph.
type ExploreModel struct {
	Graph  *record.Graph
	Height int

	mode    exploreMode
	records []*record.Record // list mode: records under the cursor
	current *record.Record   // detail mode: the inspected record
	cursor  int
	offset  int
	trail   []crumb
	label   string
}

// newExploreModel creates an explore model listing every record.
func newExploreModel(g *record.Graph) ExploreModel {
	return ExploreModel{
		Graph:   g,
		Height:  15,
		records: g.Records(),
		label:   "all records",
	}
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < m.itemCount()-1 {
				m.cursor++
				if m.cursor >= m.offset+m.Height {
					m.offset = m.cursor - m.Height + 1
				}
			}
		case "enter", "right", "l":
			return m.descend(), nil
		case "esc", "backspace", "left", "h":
			return m.ascend(), nil
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// itemCount returns how many rows the cursor can address in the current
// view.
func (m ExploreModel) itemCount() int {
	if m.mode == modeList {
		return len(m.records)
	}
	return len(relationNames(m.current))
}

// descend follows the selection: a record opens its detail view, a
// relation opens its target record or member list.
func (m ExploreModel) descend() ExploreModel {
	if m.mode == modeList {
		if m.cursor >= len(m.records) {
			return m
		}
		m.push()
		m.mode = modeDetail
		m.current = m.records[m.cursor]
		m.label = m.current.Key()
		m.cursor, m.offset = 0, 0
		return m
	}

	names := relationNames(m.current)
	if m.cursor >= len(names) {
		return m
	}
	rel := m.current.Relations()[names[m.cursor]]

	if rel.ToMany {
		members := make([]*record.Record, 0, len(rel.Records))
		for _, s := range rel.Records {
			if r, ok := s.(*record.Record); ok {
				members = append(members, r)
			}
		}
		if len(members) == 0 {
			return m
		}
		label := m.current.Key() + "." + names[m.cursor]
		m.push()
		m.mode = modeList
		m.records = members
		m.label = label
		m.cursor, m.offset = 0, 0
		return m
	}

	target, ok := rel.Target().(*record.Record)
	if !ok || target == nil {
		return m
	}
	m.push()
	m.mode = modeDetail
	m.current = target
	m.label = target.Key()
	m.cursor, m.offset = 0, 0
	return m
}

// ascend pops one navigation step.
func (m ExploreModel) ascend() ExploreModel {
	if len(m.trail) == 0 {
		return m
	}
	top := m.trail[len(m.trail)-1]
	m.trail = m.trail[:len(m.trail)-1]
	m.mode = top.mode
	m.records = top.records
	m.current = top.current
	m.cursor = top.cursor
	m.offset = 0
	m.label = top.label
	return m
}

func (m *ExploreModel) push() {
	m.trail = append(m.trail, crumb{
		mode:    m.mode,
		records: m.records,
		current: m.current,
		cursor:  m.cursor,
		label:   m.label,
	})
}

func (m ExploreModel) View() string {
	if m.mode == modeDetail {
		return m.detailView()
	}
	return m.listView()
}

func (m ExploreModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Records"))
	b.WriteString(listDimStyle.Render("  " + m.label))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  esc back  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.Height
	if end > len(m.records) {
		end = len(m.records)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		r := m.records[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			r.Schema().Name,
			fmt.Sprintf("%v", r.Field("id")),
			summaryField(r),
			fmt.Sprintf("%d", len(r.Relations())),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Type", "ID", "Name", "Rels").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.records))))

	return b.String()
}

func (m ExploreModel) detailView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.current.Key()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate relations  ⏎ follow  esc back  q quit"))
	b.WriteString("\n\n")

	fields := m.current.Fields()
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			listDimStyle.Render(fmt.Sprintf("%-16s", name)),
			StyleValue.Render(fmt.Sprintf("%v", fields[name]))))
	}

	names := relationNames(m.current)
	if len(names) > 0 {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("  relations"))
		b.WriteString("\n")
	}
	for i, name := range names {
		rel := m.current.Relations()[name]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		var desc string
		if rel.ToMany {
			desc = fmt.Sprintf("[%d]", len(rel.Records))
		} else if t := rel.Target(); t != nil {
			if r, ok := t.(*record.Record); ok {
				desc = iconArrow + " " + r.Key()
			}
		} else {
			desc = "null"
		}

		line := fmt.Sprintf("%s%-16s %s", cursor, name, desc)
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// relationNames returns a record's relation names in sorted order.
func relationNames(r *record.Record) []string {
	return slices.Sorted(maps.Keys(r.Relations()))
}

// summaryField picks a human-facing field for list rows.
func summaryField(r *record.Record) string {
	for _, name := range []string{"name", "environment", "species"} {
		if v := r.Field(name); v != nil {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return "—"
}
