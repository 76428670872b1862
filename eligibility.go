package propinspect

import (
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// EligibilityTable maps a main input type to one flag per selection index
// telling whether choosing that option makes the item deficient.
// Keys are stored lower case and looked up case-insensitively.
type EligibilityTable map[string][]bool

// DefaultEligibilityTable returns the table used in production.
func DefaultEligibilityTable() EligibilityTable {
	return EligibilityTable{
		"twoactions_checkmarkx":             {false, true},
		"twoactions_thumbs":                 {false, true},
		"threeactions_checkmarkexclamationx": {false, true, true},
		"threeactions_abc":                  {false, true, true},
		"fiveactions_onetofive":             {true, true, true, true, false},
		"oneaction_notes":                   {false},
	}
}

// LoadEligibilityTable parses a YAML mapping of main input type to a list
// of booleans.
func LoadEligibilityTable(r io.Reader) (EligibilityTable, error) {
	var raw map[string][]bool
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Invalid("eligibility table is empty")
		}
		return nil, WrapError(EINVALID, "eligibility table is not valid YAML", err)
	}
	if len(raw) == 0 {
		return nil, Invalid("eligibility table is empty")
	}

	t := make(EligibilityTable, len(raw))
	for name, flags := range raw {
		if len(flags) == 0 {
			return nil, Invalid("eligibility table entry %q has no selections", name)
		}
		t[strings.ToLower(name)] = flags
	}
	return t, nil
}

// Lookup returns the flags for a main input type.
func (t EligibilityTable) Lookup(mainInputType string) ([]bool, bool) {
	flags, ok := t[strings.ToLower(mainInputType)]
	return flags, ok
}

// IsDeficient reports whether selecting the option at index selection of
// mainInputType is deficient. Unknown types and out of range selections
// are never deficient.
func (t EligibilityTable) IsDeficient(mainInputType string, selection int) bool {
	flags, ok := t.Lookup(mainInputType)
	if !ok || selection < 0 || selection >= len(flags) {
		return false
	}
	return flags[selection]
}

// ItemIsDeficient reports whether an item's current answer qualifies it
// as a deficiency.
func (t EligibilityTable) ItemIsDeficient(item Item) bool {
	return item.IsMain() && !item.IsItemNA && item.HasSelection() &&
		t.IsDeficient(item.MainInputType, item.MainInputSelection)
}
