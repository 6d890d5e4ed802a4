package facade

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hazyhaar/automata/internal/store"
)

const (
	infoWidth = 60
	barWidth  = 30
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// renderTable draws rows under headers, followed by the row count.
func renderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return mutedStyle.Render("No results.") + "\n"
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	noun := "rows"
	if len(rows) == 1 {
		noun = "row"
	}
	return t.String() + "\n" + mutedStyle.Render(fmt.Sprintf("%d %s", len(rows), noun)) + "\n"
}

func characterTable(rows []store.CharacterRow) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Name, clip(r.Info, infoWidth), string(r.Gender)})
	}
	return renderTable([]string{"Name", "Info", "Gender"}, cells)
}

func locationTable(rows []store.LocationRow) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Name, clip(r.Info, infoWidth), r.Previous, r.Next})
	}
	return renderTable([]string{"Name", "Info", "Previous", "Next"}, cells)
}

func questTable(rows []store.QuestRow) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		loc := r.Location
		if r.Unresolved {
			loc += " (?)"
		}
		cells = append(cells, []string{r.Name, r.Giver, loc, clip(r.Reward, infoWidth), string(r.Category)})
	}
	return renderTable([]string{"Name", "Giver", "Location", "Reward", "Category"}, cells)
}

func catchableTable(rows []store.CatchableRow) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Name, r.Location, strconv.Itoa(r.Price)})
	}
	return renderTable([]string{"Name", "Location", "Price"}, cells)
}

// statTable renders a stat with a bar scaled to the largest value.
func statTable(kind store.StatKind, rows []store.StatRow) string {
	top := 0.0
	for _, r := range rows {
		top = math.Max(top, r.Value)
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		n := 0
		if top > 0 {
			n = int(math.Round(r.Value / top * barWidth))
		}
		cells = append(cells, []string{r.Label, formatValue(r.Value), strings.Repeat("█", n)})
	}
	name, value, _ := strings.Cut(kind.Label(), " - ")
	return renderTable([]string{name, value, ""}, cells)
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// clip flattens s to one line of at most n runes.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
