package propinspect

// ItemDefaults returns the attributes written onto an item when it is
// created or its type changes, so no state from a previous type survives.
func ItemDefaults(t ItemType) ItemPatch {
	p := ItemPatch{
		ItemType:              ptr(t),
		IsItemNA:              ptr(false),
		IsTextInputItem:       ptr(false),
		MainInputSelected:     ptr(false),
		AdminEdits:            ptr(AdminEditLog{}),
		PhotosData:            ptr(PhotoData{}),
		TextInputValue:        ptr(""),
		SignatureDownloadURL:  ptr(""),
		SignatureTimestampKey: ptr(""),
	}
	switch t {
	case ItemTypeMain:
		p.MainInputSelection = ptr(NoSelection)
	case ItemTypeTextInput:
		p.IsTextInputItem = ptr(true)
	}
	return p
}

// SectionDefaults returns the attributes written onto a new section.
func SectionDefaults() SectionPatch {
	return SectionPatch{AddedMultiSection: ptr(false)}
}
