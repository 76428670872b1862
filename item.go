package propinspect

import (
	"encoding/json"
	"maps"
	"strings"
)

// ItemType is the canonical kind of an inspection or template item.
type ItemType string

const (
	ItemTypeMain      ItemType = "main"
	ItemTypeTextInput ItemType = "text_input"
	ItemTypeSignature ItemType = "signature"
)

// IsValid returns true if the type is a recognized value.
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeMain, ItemTypeTextInput, ItemTypeSignature:
		return true
	}
	return false
}

// NoSelection is the mainInputSelection of a main item nothing was chosen on.
const NoSelection = -1

// NotesMainInputType is the main input type of note-only items.
const NotesMainInputType = "oneaction_notes"

// LegacyMainInputType is assigned to main items created before
// mainInputType existed. Those items always used a two action checkmark.
const LegacyMainInputType = "TwoActions_checkmarkX"

// Photo is one uploaded item photo.
type Photo struct {
	Caption     string `json:"caption,omitempty" firestore:"caption,omitempty"`
	DownloadURL string `json:"downloadURL" firestore:"downloadURL"`
}

// PhotoData maps photo ids to photos.
type PhotoData map[string]Photo

// Valid returns the photos that have a download URL, or nil when none do.
func (p PhotoData) Valid() PhotoData {
	var out PhotoData
	for id, photo := range p {
		if photo.DownloadURL == "" {
			continue
		}
		if out == nil {
			out = PhotoData{}
		}
		out[id] = photo
	}
	return out
}

// AdminEdit records an administrator changing a completed item.
type AdminEdit struct {
	EditDate  int64  `json:"edit_date" firestore:"edit_date"`
	Action    string `json:"action" firestore:"action"`
	AdminName string `json:"admin_name" firestore:"admin_name"`
	AdminUID  string `json:"admin_uid" firestore:"admin_uid"`
}

// AdminEditLog maps edit ids to admin edits.
type AdminEditLog map[string]AdminEdit

// LatestEditDate returns the most recent edit date, or zero.
func (l AdminEditLog) LatestEditDate() int64 {
	var latest int64
	for _, edit := range l {
		latest = max(latest, edit.EditDate)
	}
	return latest
}

// Item is one checklist entry of an inspection or template. Exactly one
// group of input fields is meaningful, chosen by ItemType.
type Item struct {
	SectionID             string       `json:"sectionId"`
	Title                 string       `json:"title"`
	Index                 int          `json:"index"`
	ItemType              ItemType     `json:"itemType"`
	IsTextInputItem       bool         `json:"isTextInputItem"`
	IsItemNA              bool         `json:"isItemNA"`
	MainInputType         string       `json:"mainInputType,omitempty"`
	MainInputSelected     bool         `json:"mainInputSelected"`
	MainInputSelection    int          `json:"mainInputSelection"`
	MainInputZeroValue    float64      `json:"mainInputZeroValue"`
	MainInputOneValue     float64      `json:"mainInputOneValue"`
	MainInputTwoValue     float64      `json:"mainInputTwoValue"`
	MainInputThreeValue   float64      `json:"mainInputThreeValue"`
	MainInputFourValue    float64      `json:"mainInputFourValue"`
	MainInputNotes        string       `json:"mainInputNotes,omitempty"`
	TextInputValue        string       `json:"textInputValue"`
	SignatureDownloadURL  string       `json:"signatureDownloadURL"`
	SignatureTimestampKey string       `json:"signatureTimestampKey"`
	InspectorNotes        string       `json:"inspectorNotes,omitempty"`
	Notes                 bool         `json:"notes"`
	Photos                bool         `json:"photos"`
	PhotosData            PhotoData    `json:"photosData,omitempty"`
	AdminEdits            AdminEditLog `json:"adminEdits,omitempty"`
	Deficient             bool         `json:"deficient"`
	Version               int          `json:"version"`
}

// NewItem returns an empty main item with nothing selected.
func NewItem() Item {
	return Item{ItemType: ItemTypeMain, MainInputSelection: NoSelection}
}

// UnmarshalJSON decodes an item and normalizes legacy shapes. A missing
// mainInputSelection decodes as NoSelection rather than index zero.
func (i *Item) UnmarshalJSON(b []byte) error {
	type plain Item
	p := plain{MainInputSelection: NoSelection}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*i = Item(p)
	i.Normalize()
	return nil
}

// Normalize maps legacy item shapes onto the canonical ItemType so the
// rest of the system never looks at isTextInputItem or a missing type.
func (i *Item) Normalize() {
	switch {
	case i.ItemType == ItemTypeSignature:
	case i.ItemType == ItemTypeTextInput || i.IsTextInputItem:
		i.ItemType = ItemTypeTextInput
	default:
		i.ItemType = ItemTypeMain
	}
	i.IsTextInputItem = i.ItemType == ItemTypeTextInput

	if i.ItemType != ItemTypeMain {
		i.MainInputSelected = false
		return
	}
	if i.MainInputType == "" {
		i.MainInputType = LegacyMainInputType
	}
	if i.MainInputSelection < NoSelection {
		i.MainInputSelection = NoSelection
	}
}

// IsMain reports whether the item is scored through its main input.
func (i Item) IsMain() bool { return i.ItemType == ItemTypeMain }

// IsNotes reports whether the item is a note-only main item.
func (i Item) IsNotes() bool {
	return i.IsMain() && strings.EqualFold(i.MainInputType, NotesMainInputType)
}

// HasSelection reports whether a main input option is chosen.
func (i Item) HasSelection() bool {
	return i.MainInputSelection >= 0
}

// ScoreValue returns the score configured for a main input option.
func (i Item) ScoreValue(selection int) (float64, bool) {
	switch selection {
	case 0:
		return i.MainInputZeroValue, true
	case 1:
		return i.MainInputOneValue, true
	case 2:
		return i.MainInputTwoValue, true
	case 3:
		return i.MainInputThreeValue, true
	case 4:
		return i.MainInputFourValue, true
	}
	return 0, false
}

// SelectedScore returns the score of the chosen option, or zero.
func (i Item) SelectedScore() float64 {
	v, _ := i.ScoreValue(i.MainInputSelection)
	return v
}

// MaxScore returns the highest score any option can earn.
func (i Item) MaxScore() float64 {
	return max(i.MainInputZeroValue, i.MainInputOneValue, i.MainInputTwoValue,
		i.MainInputThreeValue, i.MainInputFourValue)
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	out := i
	out.PhotosData = maps.Clone(i.PhotosData)
	out.AdminEdits = maps.Clone(i.AdminEdits)
	return out
}

// Apply returns the item with every set field of p written over it.
func (i Item) Apply(p ItemPatch) Item {
	out := i.Clone()
	assign(&out.SectionID, p.SectionID)
	assign(&out.Title, p.Title)
	assign(&out.Index, p.Index)
	assign(&out.ItemType, p.ItemType)
	assign(&out.IsTextInputItem, p.IsTextInputItem)
	assign(&out.IsItemNA, p.IsItemNA)
	assign(&out.MainInputType, p.MainInputType)
	assign(&out.MainInputSelected, p.MainInputSelected)
	assign(&out.MainInputSelection, p.MainInputSelection)
	assign(&out.MainInputZeroValue, p.MainInputZeroValue)
	assign(&out.MainInputOneValue, p.MainInputOneValue)
	assign(&out.MainInputTwoValue, p.MainInputTwoValue)
	assign(&out.MainInputThreeValue, p.MainInputThreeValue)
	assign(&out.MainInputFourValue, p.MainInputFourValue)
	assign(&out.MainInputNotes, p.MainInputNotes)
	assign(&out.TextInputValue, p.TextInputValue)
	assign(&out.SignatureDownloadURL, p.SignatureDownloadURL)
	assign(&out.SignatureTimestampKey, p.SignatureTimestampKey)
	assign(&out.InspectorNotes, p.InspectorNotes)
	assign(&out.Notes, p.Notes)
	assign(&out.Photos, p.Photos)
	assign(&out.Deficient, p.Deficient)
	assign(&out.Version, p.Version)
	if p.PhotosData != nil {
		out.PhotosData = maps.Clone(*p.PhotosData)
	}
	if p.AdminEdits != nil {
		out.AdminEdits = maps.Clone(*p.AdminEdits)
	}
	out.Normalize()
	return out
}

// ItemPatch is a partial item. Nil fields are left unchanged.
type ItemPatch struct {
	SectionID             *string       `json:"sectionId,omitempty"`
	Title                 *string       `json:"title,omitempty" validate:"omitempty,max=500"`
	Index                 *int          `json:"index,omitempty" validate:"omitempty,min=0"`
	ItemType              *ItemType     `json:"itemType,omitempty" validate:"omitempty,oneof=main text_input signature"`
	IsTextInputItem       *bool         `json:"isTextInputItem,omitempty"`
	IsItemNA              *bool         `json:"isItemNA,omitempty"`
	MainInputType         *string       `json:"mainInputType,omitempty" validate:"omitempty,max=100"`
	MainInputSelected     *bool         `json:"mainInputSelected,omitempty"`
	MainInputSelection    *int          `json:"mainInputSelection,omitempty" validate:"omitempty,min=-1,max=4"`
	MainInputZeroValue    *float64      `json:"mainInputZeroValue,omitempty" validate:"omitempty,min=0"`
	MainInputOneValue     *float64      `json:"mainInputOneValue,omitempty" validate:"omitempty,min=0"`
	MainInputTwoValue     *float64      `json:"mainInputTwoValue,omitempty" validate:"omitempty,min=0"`
	MainInputThreeValue   *float64      `json:"mainInputThreeValue,omitempty" validate:"omitempty,min=0"`
	MainInputFourValue    *float64      `json:"mainInputFourValue,omitempty" validate:"omitempty,min=0"`
	MainInputNotes        *string       `json:"mainInputNotes,omitempty"`
	TextInputValue        *string       `json:"textInputValue,omitempty"`
	SignatureDownloadURL  *string       `json:"signatureDownloadURL,omitempty"`
	SignatureTimestampKey *string       `json:"signatureTimestampKey,omitempty"`
	InspectorNotes        *string       `json:"inspectorNotes,omitempty"`
	Notes                 *bool         `json:"notes,omitempty"`
	Photos                *bool         `json:"photos,omitempty"`
	PhotosData            *PhotoData    `json:"photosData,omitempty"`
	AdminEdits            *AdminEditLog `json:"adminEdits,omitempty"`
	Deficient             *bool         `json:"deficient,omitempty"`
	Version               *int          `json:"version,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p == ItemPatch{}
}

// Clone returns a deep copy of the patch.
func (p ItemPatch) Clone() ItemPatch {
	return p.changes(Item{}, true)
}

// Diff returns only the fields of p whose values differ from cur.
func (p ItemPatch) Diff(cur Item) ItemPatch {
	return p.changes(cur, false)
}

// Overlay returns p with every set field of over written on top.
func (p ItemPatch) Overlay(over ItemPatch) ItemPatch {
	return ItemPatch{
		SectionID:             pick(p.SectionID, over.SectionID),
		Title:                 pick(p.Title, over.Title),
		Index:                 pick(p.Index, over.Index),
		ItemType:              pick(p.ItemType, over.ItemType),
		IsTextInputItem:       pick(p.IsTextInputItem, over.IsTextInputItem),
		IsItemNA:              pick(p.IsItemNA, over.IsItemNA),
		MainInputType:         pick(p.MainInputType, over.MainInputType),
		MainInputSelected:     pick(p.MainInputSelected, over.MainInputSelected),
		MainInputSelection:    pick(p.MainInputSelection, over.MainInputSelection),
		MainInputZeroValue:    pick(p.MainInputZeroValue, over.MainInputZeroValue),
		MainInputOneValue:     pick(p.MainInputOneValue, over.MainInputOneValue),
		MainInputTwoValue:     pick(p.MainInputTwoValue, over.MainInputTwoValue),
		MainInputThreeValue:   pick(p.MainInputThreeValue, over.MainInputThreeValue),
		MainInputFourValue:    pick(p.MainInputFourValue, over.MainInputFourValue),
		MainInputNotes:        pick(p.MainInputNotes, over.MainInputNotes),
		TextInputValue:        pick(p.TextInputValue, over.TextInputValue),
		SignatureDownloadURL:  pick(p.SignatureDownloadURL, over.SignatureDownloadURL),
		SignatureTimestampKey: pick(p.SignatureTimestampKey, over.SignatureTimestampKey),
		InspectorNotes:        pick(p.InspectorNotes, over.InspectorNotes),
		Notes:                 pick(p.Notes, over.Notes),
		Photos:                pick(p.Photos, over.Photos),
		PhotosData:            pick(p.PhotosData, over.PhotosData),
		AdminEdits:            pick(p.AdminEdits, over.AdminEdits),
		Deficient:             pick(p.Deficient, over.Deficient),
		Version:               pick(p.Version, over.Version),
	}.Clone()
}

func (p ItemPatch) changes(cur Item, all bool) ItemPatch {
	return ItemPatch{
		SectionID:             changed(cur.SectionID, p.SectionID, all),
		Title:                 changed(cur.Title, p.Title, all),
		Index:                 changed(cur.Index, p.Index, all),
		ItemType:              changed(cur.ItemType, p.ItemType, all),
		IsTextInputItem:       changed(cur.IsTextInputItem, p.IsTextInputItem, all),
		IsItemNA:              changed(cur.IsItemNA, p.IsItemNA, all),
		MainInputType:         changed(cur.MainInputType, p.MainInputType, all),
		MainInputSelected:     changed(cur.MainInputSelected, p.MainInputSelected, all),
		MainInputSelection:    changed(cur.MainInputSelection, p.MainInputSelection, all),
		MainInputZeroValue:    changed(cur.MainInputZeroValue, p.MainInputZeroValue, all),
		MainInputOneValue:     changed(cur.MainInputOneValue, p.MainInputOneValue, all),
		MainInputTwoValue:     changed(cur.MainInputTwoValue, p.MainInputTwoValue, all),
		MainInputThreeValue:   changed(cur.MainInputThreeValue, p.MainInputThreeValue, all),
		MainInputFourValue:    changed(cur.MainInputFourValue, p.MainInputFourValue, all),
		MainInputNotes:        changed(cur.MainInputNotes, p.MainInputNotes, all),
		TextInputValue:        changed(cur.TextInputValue, p.TextInputValue, all),
		SignatureDownloadURL:  changed(cur.SignatureDownloadURL, p.SignatureDownloadURL, all),
		SignatureTimestampKey: changed(cur.SignatureTimestampKey, p.SignatureTimestampKey, all),
		InspectorNotes:        changed(cur.InspectorNotes, p.InspectorNotes, all),
		Notes:                 changed(cur.Notes, p.Notes, all),
		Photos:                changed(cur.Photos, p.Photos, all),
		PhotosData:            changedMap(cur.PhotosData, p.PhotosData, all),
		AdminEdits:            changedMap(cur.AdminEdits, p.AdminEdits, all),
		Deficient:             changed(cur.Deficient, p.Deficient, all),
		Version:               changed(cur.Version, p.Version, all),
	}
}

func assign[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func pick[T any](base, over *T) *T {
	if over != nil {
		return over
	}
	return base
}

func changed[T comparable](cur T, next *T, all bool) *T {
	if next == nil || (!all && *next == cur) {
		return nil
	}
	v := *next
	return &v
}

func changedMap[M ~map[K]V, K, V comparable](cur M, next *M, all bool) *M {
	if next == nil || (!all && maps.Equal(cur, *next)) {
		return nil
	}
	v := maps.Clone(*next)
	if v == nil {
		v = M{}
	}
	return &v
}

// ptr returns a pointer to v.
func ptr[T any](v T) *T {
	return &v
}
