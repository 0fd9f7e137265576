package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/margin-tracker/internal/ui/style"
)

// TableColumn represents a column configuration
type TableColumn struct {
	Header string
	Width  int
	Align  lipgloss.Position
}

// TableRow represents a row of data
type TableRow struct {
	Data  []string
	Style *lipgloss.Style
}

// Table renders rows under fixed-width columns with a movable selection and
// scrolls to keep the selection visible.
type Table struct {
	columns     []TableColumn
	rows        []TableRow
	width       int
	height      int
	selectedRow int
	offset      int

	headerStyle      lipgloss.Style
	rowStyle         lipgloss.Style
	selectedRowStyle lipgloss.Style
	borderStyle      lipgloss.Style

	showBorder bool
	selectable bool
}

// NewTable creates a new table component
func NewTable() *Table {
	palette := style.DefaultPalette()

	return &Table{
		headerStyle: lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true).
			Padding(0, 1),

		rowStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Padding(0, 1),

		selectedRowStyle: lipgloss.NewStyle().
			Foreground(palette.Background).
			Background(palette.Primary).
			Padding(0, 1),

		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted),

		showBorder: true,
		selectable: true,
	}
}

// AddColumn adds a column to the table
func (t *Table) AddColumn(header string, width int, align lipgloss.Position) *Table {
	t.columns = append(t.columns, TableColumn{Header: header, Width: width, Align: align})
	return t
}

// SetRows replaces all rows, clamping the selection into range
func (t *Table) SetRows(rows [][]string) *Table {
	t.rows = make([]TableRow, len(rows))
	for i, data := range rows {
		t.rows[i] = TableRow{Data: data}
	}
	t.SetSelectedRow(t.selectedRow)
	return t
}

// SetRowStyle sets a custom foreground style for a specific row
func (t *Table) SetRowStyle(rowIndex int, s lipgloss.Style) *Table {
	if rowIndex >= 0 && rowIndex < len(t.rows) {
		s = s.Padding(0, 1)
		t.rows[rowIndex].Style = &s
	}
	return t
}

// SetSize sets the table dimensions
func (t *Table) SetSize(width, height int) *Table {
	t.width = width
	t.height = height
	return t
}

// SetSelectedRow sets the currently selected row
func (t *Table) SetSelectedRow(index int) *Table {
	switch {
	case len(t.rows) == 0:
		t.selectedRow = 0
	case index >= len(t.rows):
		t.selectedRow = len(t.rows) - 1
	case index < 0:
		t.selectedRow = 0
	default:
		t.selectedRow = index
	}
	return t
}

// SelectedRow returns the currently selected row index
func (t *Table) SelectedRow() int {
	return t.selectedRow
}

// MoveUp moves selection up
func (t *Table) MoveUp() *Table {
	if t.selectable && t.selectedRow > 0 {
		t.selectedRow--
	}
	return t
}

// MoveDown moves selection down
func (t *Table) MoveDown() *Table {
	if t.selectable && t.selectedRow < len(t.rows)-1 {
		t.selectedRow++
	}
	return t
}

// SetSelectable enables/disables row selection
func (t *Table) SetSelectable(selectable bool) *Table {
	t.selectable = selectable
	return t
}

// SetShowBorder enables/disables table border
func (t *Table) SetShowBorder(show bool) *Table {
	t.showBorder = show
	return t
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.rows)
}

// visibleRows is the number of data rows that fit the configured height.
func (t *Table) visibleRows() int {
	n := t.height - 2 // header and separator
	if t.showBorder {
		n -= 2
	}
	if t.height <= 0 || n < 1 {
		return len(t.rows)
	}
	return n
}

func (t *Table) scroll() {
	visible := t.visibleRows()
	if t.selectedRow < t.offset {
		t.offset = t.selectedRow
	}
	if t.selectedRow >= t.offset+visible {
		t.offset = t.selectedRow - visible + 1
	}
	if last := len(t.rows) - visible; t.offset > last {
		t.offset = last
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// View renders the table
func (t *Table) View() string {
	if len(t.columns) == 0 {
		return "No columns defined"
	}

	var content strings.Builder

	headers := make([]string, len(t.columns))
	separators := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = renderCell(col.Header, col.Width, col.Align, t.headerStyle)
		separators[i] = strings.Repeat("─", lipgloss.Width(headers[i]))
	}
	content.WriteString(strings.Join(headers, "│"))
	content.WriteString("\n")
	content.WriteString(strings.Join(separators, "┼"))

	t.scroll()
	end := t.offset + t.visibleRows()
	if end > len(t.rows) {
		end = len(t.rows)
	}

	for rowIndex := t.offset; rowIndex < end; rowIndex++ {
		row := t.rows[rowIndex]
		rowStyle := t.rowStyle
		if row.Style != nil {
			rowStyle = *row.Style
		}
		if t.selectable && rowIndex == t.selectedRow {
			rowStyle = t.selectedRowStyle
		}

		cells := make([]string, len(t.columns))
		for i, col := range t.columns {
			data := ""
			if i < len(row.Data) {
				data = row.Data[i]
			}
			cells[i] = renderCell(data, col.Width, col.Align, rowStyle)
		}
		content.WriteString("\n")
		content.WriteString(strings.Join(cells, "│"))
	}

	if t.showBorder {
		return t.borderStyle.Render(content.String())
	}
	return content.String()
}

// renderCell truncates content to width and pads it per align.
func renderCell(content string, width int, align lipgloss.Position, s lipgloss.Style) string {
	runes := []rune(content)
	if len(runes) > width {
		if width > 1 {
			content = string(runes[:width-1]) + "…"
		} else {
			content = string(runes[:width])
		}
	}
	return s.Width(width + 2).Align(align).Render(content)
}
