package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/kyleking/gh-metahistory/internal/metadata"
)

const (
	nameWidth    = 24
	kindWidth    = 14
	summaryWidth = 48
)

// RenderEntry renders one commit's entry as a title block followed by a
// table of its items.
func RenderEntry(entry metadata.HistoryEntry) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Commit " + ShortSHA(entry.SHA)))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("tree   ") + LinkStyle.Render(entry.URL))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("action ") + LinkStyle.Render(entry.Action))
	b.WriteString("\n\n")
	b.WriteString(ItemsTable(entry.Items))
	return b.String()
}

// ItemsTable renders items as a static table.
func ItemsTable(items metadata.InputArray) string {
	if len(items) == 0 {
		return SubtitleStyle.Render("No items recorded")
	}

	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, table.Row{item.Name, KindOf(item.Data), Summary(item.Data)})
	}
	return renderTable([]table.Column{
		{Title: "Name", Width: nameWidth},
		{Title: "Type", Width: kindWidth},
		{Title: "Summary", Width: summaryWidth},
	}, rows)
}

// RenderHistory renders a pull request's history, newest first, with the
// base commit's entry when known.
func RenderHistory(number int, entries []metadata.HistoryEntry, base *metadata.HistoryEntry) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Pull request #%d", number)))
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("  %d run(s)", len(entries))))
	b.WriteString("\n\n")

	if len(entries) == 0 {
		b.WriteString(SubtitleStyle.Render("No recorded runs"))
		return b.String()
	}

	rows := make([]table.Row, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, table.Row{
			strconv.Itoa(i),
			ShortSHA(entry.SHA),
			strconv.Itoa(len(entry.Items)),
			TruncateWithEllipsis(itemNames(entry.Items), summaryWidth),
		})
	}
	b.WriteString(renderTable([]table.Column{
		{Title: "#", Width: 3},
		{Title: "Commit", Width: 9},
		{Title: "Items", Width: 5},
		{Title: "Names", Width: summaryWidth},
	}, rows))

	if base != nil {
		b.WriteString("\n\n")
		b.WriteString(HighlightStyle.Render("Base ") + RenderEntry(*base))
	}
	return b.String()
}

// Compare renders the item summaries of two entries side by side.
func Compare(before, after metadata.HistoryEntry) string {
	left := BorderStyle.Render(RenderEntry(before))
	right := BorderStyle.Render(RenderEntry(after))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func itemNames(items metadata.InputArray) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return strings.Join(names, ", ")
}

func renderTable(columns []table.Column, rows []table.Row) string {
	styles := table.DefaultStyles()
	styles.Header = TableHeaderStyle
	styles.Cell = TableCellStyle
	styles.Selected = lipgloss.NewStyle()

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
		table.WithFocused(false),
		table.WithStyles(styles),
	)
	return t.View()
}
