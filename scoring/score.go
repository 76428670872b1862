// Package scoring reduces inspection items to a percentage score and
// decides which items count as completed.
package scoring

import (
	"math"

	"github.com/dukerupert/propinspect"
)

// Tally is the summed earned and maximum points of a set of items.
type Tally struct {
	Earned float64 `json:"earned"`
	Max    float64 `json:"max"`
}

// Percent returns earned as a percentage of max. A tally with nothing to
// earn scores 100.
func (t Tally) Percent() float64 {
	if t.Max == 0 {
		return 100
	}
	p := t.Earned / t.Max * 100
	if math.IsNaN(p) {
		return 0
	}
	return p
}

// Sum adds up the points of every scored item. N/A items are skipped.
// Text input and signature items carry no weight.
func Sum(items []*propinspect.Item) Tally {
	var t Tally
	for _, item := range items {
		if item == nil || item.IsItemNA || !item.IsMain() {
			continue
		}
		t.Earned += item.SelectedScore()
		t.Max += item.MaxScore()
	}
	return t
}

// Score returns the percentage score of items.
func Score(items []*propinspect.Item) float64 {
	return Sum(items).Percent()
}
