package scoring

import (
	"testing"

	"github.com/dukerupert/propinspect"
	"github.com/stretchr/testify/assert"
)

func TestCompletedItems_NotApplicable(t *testing.T) {
	na := propinspect.NewItem()
	na.IsItemNA = true
	open := propinspect.NewItem()

	got := CompletedItems([]*propinspect.Item{&na, &open}, Options{})

	assert.Len(t, got, 1)
	assert.Same(t, &na, got[0])
}

func TestCompletedItems_Dedup(t *testing.T) {
	item := mainItem(1, 0, 1)

	got := CompletedItems([]*propinspect.Item{item, item}, Options{})

	assert.Len(t, got, 1)
}

func TestCompletedItems_Rules(t *testing.T) {
	tests := []struct {
		name string
		item propinspect.Item
		want bool
	}{
		{
			name: "main answered",
			item: propinspect.Item{ItemType: propinspect.ItemTypeMain, MainInputType: "twoactions_checkmarkx", MainInputSelected: true, MainInputSelection: 0},
			want: true,
		},
		{
			name: "main selected flag without selection",
			item: propinspect.Item{ItemType: propinspect.ItemTypeMain, MainInputType: "twoactions_checkmarkx", MainInputSelected: true, MainInputSelection: propinspect.NoSelection},
			want: false,
		},
		{
			name: "main selection without flag",
			item: propinspect.Item{ItemType: propinspect.ItemTypeMain, MainInputType: "twoactions_checkmarkx", MainInputSelection: 1},
			want: false,
		},
		{
			name: "text with value",
			item: propinspect.Item{ItemType: propinspect.ItemTypeTextInput, TextInputValue: "42"},
			want: true,
		},
		{
			name: "text without value",
			item: propinspect.Item{ItemType: propinspect.ItemTypeTextInput},
			want: false,
		},
		{
			name: "if yes follow up",
			item: propinspect.Item{ItemType: propinspect.ItemTypeTextInput, Title: "  If Yes, explain"},
			want: true,
		},
		{
			name: "if no follow up",
			item: propinspect.Item{ItemType: propinspect.ItemTypeTextInput, Title: "IF NO why not"},
			want: true,
		},
		{
			name: "follow up title on main item",
			item: propinspect.Item{ItemType: propinspect.ItemTypeMain, Title: "If yes", MainInputSelection: propinspect.NoSelection},
			want: false,
		},
		{
			name: "signed",
			item: propinspect.Item{ItemType: propinspect.ItemTypeSignature, SignatureDownloadURL: "https://sig"},
			want: true,
		},
		{
			name: "unsigned",
			item: propinspect.Item{ItemType: propinspect.ItemTypeSignature},
			want: false,
		},
		{
			name: "notes item with notes",
			item: propinspect.Item{ItemType: propinspect.ItemTypeMain, MainInputType: "oneaction_notes", MainInputNotes: "ok", MainInputSelection: propinspect.NoSelection},
			want: true,
		},
		{
			name: "notes item selected but empty",
			item: propinspect.Item{ItemType: propinspect.ItemTypeMain, MainInputType: "oneaction_notes", MainInputSelected: true, MainInputSelection: 0},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := tt.item
			got := CompletedItems([]*propinspect.Item{&item}, Options{})
			assert.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestCompletedItems_RequireDeficientNoteAndPhoto(t *testing.T) {
	opts := Options{
		RequireDeficientItemNoteAndPhoto: true,
		Eligibility:                      propinspect.DefaultEligibilityTable(),
	}

	deficient := func() *propinspect.Item {
		return &propinspect.Item{
			ItemType:           propinspect.ItemTypeMain,
			MainInputType:      "twoactions_checkmarkx",
			MainInputSelected:  true,
			MainInputSelection: 1,
			Notes:              true,
			Photos:             true,
		}
	}

	t.Run("missing notes and photos", func(t *testing.T) {
		assert.Empty(t, CompletedItems([]*propinspect.Item{deficient()}, opts))
	})

	t.Run("notes without photos", func(t *testing.T) {
		item := deficient()
		item.InspectorNotes = "broken"
		assert.Empty(t, CompletedItems([]*propinspect.Item{item}, opts))
	})

	t.Run("notes and photos", func(t *testing.T) {
		item := deficient()
		item.InspectorNotes = "broken"
		item.PhotosData = propinspect.PhotoData{"p1": {DownloadURL: "u"}}
		assert.Len(t, CompletedItems([]*propinspect.Item{item}, opts), 1)
	})

	t.Run("item does not ask for notes or photos", func(t *testing.T) {
		item := deficient()
		item.Notes = false
		item.Photos = false
		assert.Len(t, CompletedItems([]*propinspect.Item{item}, opts), 1)
	})

	t.Run("setting disabled", func(t *testing.T) {
		assert.Len(t, CompletedItems([]*propinspect.Item{deficient()}, Options{Eligibility: opts.Eligibility}), 1)
	})

	t.Run("non deficient selection", func(t *testing.T) {
		item := deficient()
		item.MainInputType = "fiveactions_onetofive"
		item.MainInputSelection = 4
		assert.Len(t, CompletedItems([]*propinspect.Item{item}, opts), 1)
	})

	t.Run("not applicable overrides", func(t *testing.T) {
		item := deficient()
		item.IsItemNA = true
		assert.Len(t, CompletedItems([]*propinspect.Item{item}, opts), 1)
	})
}
