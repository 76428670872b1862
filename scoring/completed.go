package scoring

import (
	"strings"

	"github.com/dukerupert/propinspect"
)

// Options configures which items count as completed.
type Options struct {
	// RequireDeficientItemNoteAndPhoto makes a deficient answer incomplete
	// until the notes and photos the item asks for are present.
	RequireDeficientItemNoteAndPhoto bool

	// Eligibility decides which answers are deficient. A nil table treats
	// no answer as deficient.
	Eligibility propinspect.EligibilityTable
}

// rule reports whether a single item is completed under one criterion.
type rule func(item *propinspect.Item, opts Options) bool

// rules are combined with OR. An item completed by any rule is completed.
var rules = []rule{
	answeredMainItem,
	notApplicableItem,
	filledTextItem,
	signedSignatureItem,
	notedNotesItem,
	optionalFollowUpItem,
}

// CompletedItems returns the items that count as completed, in input order.
// An item pointer passed more than once is returned once.
func CompletedItems(items []*propinspect.Item, opts Options) []*propinspect.Item {
	seen := make(map[*propinspect.Item]struct{}, len(items))
	var completed []*propinspect.Item

	for _, item := range items {
		if item == nil {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		for _, r := range rules {
			if r(item, opts) {
				seen[item] = struct{}{}
				completed = append(completed, item)
				break
			}
		}
	}
	return completed
}

// answeredMainItem requires a selection and, for a deficient answer when
// configured, the notes and photos the item asks for. A selection of
// NoSelection is unanswered even when mainInputSelected is set.
func answeredMainItem(item *propinspect.Item, opts Options) bool {
	if !item.IsMain() || item.IsNotes() {
		return false
	}
	if !item.MainInputSelected || !item.HasSelection() {
		return false
	}
	if !opts.RequireDeficientItemNoteAndPhoto ||
		!opts.Eligibility.IsDeficient(item.MainInputType, item.MainInputSelection) {
		return true
	}
	if item.Notes && item.InspectorNotes == "" {
		return false
	}
	if item.Photos && len(item.PhotosData) == 0 {
		return false
	}
	return true
}

func notApplicableItem(item *propinspect.Item, _ Options) bool {
	return item.IsItemNA
}

func filledTextItem(item *propinspect.Item, _ Options) bool {
	return item.ItemType == propinspect.ItemTypeTextInput && item.TextInputValue != ""
}

func signedSignatureItem(item *propinspect.Item, _ Options) bool {
	return item.ItemType == propinspect.ItemTypeSignature && item.SignatureDownloadURL != ""
}

func notedNotesItem(item *propinspect.Item, _ Options) bool {
	return item.IsNotes() && item.MainInputNotes != ""
}

// optionalFollowUpItem matches "if yes" and "if no" text questions, which
// only apply to some answers and never block completion.
func optionalFollowUpItem(item *propinspect.Item, _ Options) bool {
	if item.ItemType != propinspect.ItemTypeTextInput {
		return false
	}
	title := strings.ToLower(strings.TrimSpace(item.Title))
	return strings.HasPrefix(title, "if yes") || strings.HasPrefix(title, "if no")
}
