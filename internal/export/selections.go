// Package export flattens meal selections into the CSV layout consumed by
// spreadsheet tools. Column order and header names are fixed.
package export

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"alcyxob/challenge-admin/internal/domain"
)

// Record is a selection joined with the participant it belongs to.
type Record struct {
	Email     string
	Name      string
	Selection domain.MealSelection
}

// Header returns the fixed column names.
func Header() []string {
	h := []string{"Email", "Name", "Week", "Delivery", "Locked"}
	for day := 1; day <= domain.DaysPerProgramWeek; day++ {
		for _, meal := range domain.MealTypes {
			h = append(h, domain.SlotLabel(day, meal))
		}
	}
	return h
}

// Sort orders records by week ascending (nil weeks last), then by creation
// time descending, then by id for a stable result.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Selection, records[j].Selection
		switch {
		case a.ChallengeWeek == nil && b.ChallengeWeek != nil:
			return false
		case a.ChallengeWeek != nil && b.ChallengeWeek == nil:
			return true
		case a.ChallengeWeek != nil && *a.ChallengeWeek != *b.ChallengeWeek:
			return *a.ChallengeWeek < *b.ChallengeWeek
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
}

// Rows sorts records and renders one row per selection, resolving each
// pick to its dish name through catalog.
func Rows(records []Record, catalog *domain.MealCatalog) [][]string {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	Sort(sorted)

	rows := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, row(r, catalog))
	}
	return rows
}

func row(r Record, catalog *domain.MealCatalog) []string {
	s := r.Selection
	week := ""
	if s.ChallengeWeek != nil {
		week = strconv.Itoa(*s.ChallengeWeek)
	}
	locked := "No"
	if s.Locked {
		locked = "Yes"
	}

	out := []string{r.Email, r.Name, week, s.DeliveryPreference, locked}
	for day := 1; day <= domain.DaysPerProgramWeek; day++ {
		for _, meal := range domain.MealTypes {
			cell := ""
			if c, ok := s.Choice(day, meal); ok {
				cell = catalog.Resolve(s.ChallengeWeek, day, meal, c)
			}
			out = append(out, cell)
		}
	}
	return out
}

// WriteCSV writes the header and rows. Every field is double-quoted with
// inner quotes doubled; lines are joined by "\n" with no trailing newline.
func WriteCSV(w io.Writer, rows [][]string) error {
	var b strings.Builder
	writeLine(&b, Header())
	for _, r := range rows {
		b.WriteByte('\n')
		writeLine(&b, r)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}

// Filename is the attachment name for an export, scoped to a week when given.
func Filename(week *int) string {
	if week == nil {
		return "meal-selections.csv"
	}
	return "meal-selections-week-" + strconv.Itoa(*week) + ".csv"
}
