package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/scoring"
	"github.com/spf13/cobra"
)

// scoreRow is the result of scoring one inspection document.
type scoreRow struct {
	File      string  `json:"file"`
	ID        string  `json:"id"`
	Items     int     `json:"items"`
	Completed int     `json:"completed"`
	Earned    float64 `json:"earned"`
	Max       float64 `json:"max"`
	Score     float64 `json:"score"`
}

func newScoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "score <glob>...",
		Short: "Score every inspection document matching the patterns",
		Long: `Score reads each inspection document matching the given patterns and reports
the number of completed items and the percentage score. Patterns support **
to match any number of directories.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScore(args)
		},
	}
}

func (a *app) runScore(patterns []string) error {
	format := a.v.GetString("format")
	if err := validFormat(format); err != nil {
		return err
	}

	elig, err := a.eligibility()
	if err != nil {
		return err
	}

	files, err := expandPatterns(patterns)
	if err != nil {
		return err
	}

	rows := make([]scoreRow, 0, len(files))
	for _, file := range files {
		var insp propinspect.Inspection
		if err := readDocument(file, &insp); err != nil {
			return err
		}
		rows = append(rows, scoreInspection(file, &insp, elig))
	}

	if format == formatTable {
		_, err := fmt.Fprintln(a.stdout, renderScores(rows))
		return err
	}
	return a.write(rows)
}

// expandPatterns returns the sorted, de-duplicated files matching any of
// the patterns. A pattern matching nothing is an error.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, m := range matches {
			seen[m] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

func scoreInspection(file string, insp *propinspect.Inspection, elig propinspect.EligibilityTable) scoreRow {
	items := make([]*propinspect.Item, 0, len(insp.Template.Items))
	for _, id := range slices.Sorted(maps.Keys(insp.Template.Items)) {
		item := insp.Template.Items[id]
		items = append(items, &item)
	}

	completed := scoring.CompletedItems(items, scoring.Options{
		RequireDeficientItemNoteAndPhoto: insp.Template.RequireDeficientItemNoteAndPhoto,
		Eligibility:                      elig,
	})
	tally := scoring.Sum(items)

	return scoreRow{
		File:      file,
		ID:        insp.ID,
		Items:     len(items),
		Completed: len(completed),
		Earned:    tally.Earned,
		Max:       tally.Max,
		Score:     tally.Percent(),
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	lowStyle    = cellStyle.Foreground(lipgloss.Color("9"))
	highStyle   = cellStyle.Foreground(lipgloss.Color("10"))
)

// renderScores draws the rows as a table. Scores below 70 are red and
// perfect scores green.
func renderScores(rows []scoreRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("FILE", "ID", "COMPLETED", "SCORE")

	for _, r := range rows {
		t.Row(r.File, r.ID, fmt.Sprintf("%d/%d", r.Completed, r.Items), strconv.FormatFloat(r.Score, 'f', 2, 64))
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 3 && row >= 0 && row < len(rows) {
			switch s := rows[row].Score; {
			case s < 70:
				return lowStyle
			case s == 100:
				return highStyle
			}
		}
		return cellStyle
	})

	return t.Render()
}
