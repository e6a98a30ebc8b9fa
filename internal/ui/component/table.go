package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/perpshield/internal/ui/style"
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
	Style lipgloss.Style
}

// Table represents a data table component
type Table struct {
	columns     []TableColumn
	rows        []TableRow
	width       int
	selectedRow int
	emptyText   string

	// Styling
	headerStyle      lipgloss.Style
	rowStyle         lipgloss.Style
	selectedRowStyle lipgloss.Style
	blurredRowStyle  lipgloss.Style
	borderStyle      lipgloss.Style
	focusBorderStyle lipgloss.Style

	// Configuration
	showBorder bool
	selectable bool
	focused    bool
}

// NewTable creates a new table component
func NewTable() *Table {
	palette := style.DefaultPalette()

	return &Table{
		columns:   make([]TableColumn, 0),
		rows:      make([]TableRow, 0),
		emptyText: "Nothing here yet",

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

		blurredRowStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Background(palette.BackgroundAlt).
			Padding(0, 1),

		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted),

		focusBorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Primary),

		showBorder: true,
		selectable: true,
		focused:    true,
	}
}

// SetColumns sets the table columns
func (t *Table) SetColumns(columns []TableColumn) *Table {
	t.columns = columns
	return t
}

// SetRows replaces all rows and keeps the selection inside the new range
func (t *Table) SetRows(rows [][]string) *Table {
	t.rows = make([]TableRow, len(rows))
	for i, rowData := range rows {
		t.rows[i] = TableRow{
			Data:  rowData,
			Style: t.rowStyle,
		}
	}
	t.clampSelection()
	return t
}

// SetRowStyle sets a custom style for a specific row
func (t *Table) SetRowStyle(rowIndex int, style lipgloss.Style) *Table {
	if rowIndex >= 0 && rowIndex < len(t.rows) {
		t.rows[rowIndex].Style = style.Padding(0, 1)
	}
	return t
}

// SetWidth sets the table width used for auto-sized columns
func (t *Table) SetWidth(width int) *Table {
	t.width = width
	return t
}

// SetEmptyText sets the placeholder shown when there are no rows
func (t *Table) SetEmptyText(text string) *Table {
	t.emptyText = text
	return t
}

// SetFocused toggles the active highlight
func (t *Table) SetFocused(focused bool) *Table {
	t.focused = focused
	return t
}

// Focused reports whether the table has the active highlight
func (t *Table) Focused() bool {
	return t.focused
}

// SetSelectedRow sets the currently selected row
func (t *Table) SetSelectedRow(index int) *Table {
	if index >= 0 && index < len(t.rows) {
		t.selectedRow = index
	}
	return t
}

// GetSelectedRow returns the currently selected row index
func (t *Table) GetSelectedRow() int {
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

// View renders the table
func (t *Table) View() string {
	if len(t.columns) == 0 {
		return "No columns defined"
	}

	var content strings.Builder

	t.calculateColumnWidths()

	var headerRow strings.Builder
	for i, col := range t.columns {
		headerRow.WriteString(t.renderCell(col.Header, col.Width, col.Align, t.headerStyle))
		if i < len(t.columns)-1 {
			headerRow.WriteString("│")
		}
	}
	content.WriteString(headerRow.String())
	content.WriteString("\n")

	var separator strings.Builder
	for i, col := range t.columns {
		separator.WriteString(strings.Repeat("─", col.Width))
		if i < len(t.columns)-1 {
			separator.WriteString("┼")
		}
	}
	content.WriteString(separator.String())

	if len(t.rows) == 0 {
		content.WriteString("\n")
		content.WriteString(t.rowStyle.Foreground(style.DefaultPalette().TextMuted).Italic(true).Render(t.emptyText))
	}

	for rowIndex, row := range t.rows {
		content.WriteString("\n")

		rowStyle := row.Style
		if t.selectable && rowIndex == t.selectedRow {
			if t.focused {
				rowStyle = t.selectedRowStyle
			} else {
				rowStyle = t.blurredRowStyle
			}
		}

		for i, col := range t.columns {
			cellData := ""
			if i < len(row.Data) {
				cellData = row.Data[i]
			}

			content.WriteString(t.renderCell(cellData, col.Width, col.Align, rowStyle))
			if i < len(t.columns)-1 {
				content.WriteString("│")
			}
		}
	}

	result := content.String()

	if t.showBorder {
		if t.focused && t.selectable {
			result = t.focusBorderStyle.Render(result)
		} else {
			result = t.borderStyle.Render(result)
		}
	}

	return result
}

// renderCell renders a single table cell
func (t *Table) renderCell(content string, width int, align lipgloss.Position, style lipgloss.Style) string {
	// Padding takes two columns of the cell.
	content = truncate(content, width-2)
	return style.Width(width).Align(align).Render(content)
}

// truncate shortens s to at most width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width > 1 {
		return string(runes[:width-1]) + "…"
	}
	return string(runes[:width])
}

// calculateColumnWidths calculates column widths if not explicitly set
func (t *Table) calculateColumnWidths() {
	if t.width <= 0 {
		return
	}

	totalExplicitWidth := 0
	autoWidthColumns := 0

	for _, col := range t.columns {
		if col.Width > 0 {
			totalExplicitWidth += col.Width
		} else {
			autoWidthColumns++
		}
	}

	separatorWidth := len(t.columns) - 1
	availableWidth := t.width - totalExplicitWidth - separatorWidth

	if autoWidthColumns > 0 && availableWidth > 0 {
		autoWidth := availableWidth / autoWidthColumns

		for i := range t.columns {
			if t.columns[i].Width <= 0 {
				t.columns[i].Width = autoWidth
			}
		}
	}
}

func (t *Table) clampSelection() {
	if t.selectedRow >= len(t.rows) {
		t.selectedRow = len(t.rows) - 1
	}
	if t.selectedRow < 0 {
		t.selectedRow = 0
	}
}

// GetRowCount returns the number of rows
func (t *Table) GetRowCount() int {
	return len(t.rows)
}

// GetSelectedRowData returns the data of the currently selected row
func (t *Table) GetSelectedRowData() []string {
	if t.selectedRow >= 0 && t.selectedRow < len(t.rows) {
		return t.rows[t.selectedRow].Data
	}
	return nil
}
