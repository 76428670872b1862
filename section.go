package propinspect

// SectionType determines whether a section can be cloned during inspection.
type SectionType string

const (
	SectionTypeSingle SectionType = "single"
	SectionTypeMulti  SectionType = "multi"
)

// IsValid returns true if the section type is a recognized value.
func (t SectionType) IsValid() bool {
	return t == SectionTypeSingle || t == SectionTypeMulti
}

// Section groups items of an inspection or template.
type Section struct {
	Title             string      `json:"title"`
	Index             int         `json:"index"`
	SectionType       SectionType `json:"section_type"`
	AddedMultiSection bool        `json:"added_multi_section"`
}

// IsRemovable reports whether an inspector may delete the section. Only
// clones of a multi section added during the inspection qualify.
func (s Section) IsRemovable() bool {
	return s.SectionType == SectionTypeMulti && s.AddedMultiSection
}

// Apply returns the section with every set field of p written over it.
func (s Section) Apply(p SectionPatch) Section {
	assign(&s.Title, p.Title)
	assign(&s.Index, p.Index)
	assign(&s.SectionType, p.SectionType)
	assign(&s.AddedMultiSection, p.AddedMultiSection)
	return s
}

// SectionPatch is a partial section. Nil fields are left unchanged.
type SectionPatch struct {
	Title             *string      `json:"title,omitempty" validate:"omitempty,max=500"`
	Index             *int         `json:"index,omitempty" validate:"omitempty,min=0"`
	SectionType       *SectionType `json:"section_type,omitempty" validate:"omitempty,oneof=single multi"`
	AddedMultiSection *bool        `json:"added_multi_section,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SectionPatch) IsEmpty() bool {
	return p == SectionPatch{}
}

// Clone returns a copy of the patch that shares no pointers with p.
func (p SectionPatch) Clone() SectionPatch {
	return p.changes(Section{}, true)
}

// Diff returns only the fields of p whose values differ from cur.
func (p SectionPatch) Diff(cur Section) SectionPatch {
	return p.changes(cur, false)
}

// Overlay returns p with every set field of over written on top.
func (p SectionPatch) Overlay(over SectionPatch) SectionPatch {
	return SectionPatch{
		Title:             pick(p.Title, over.Title),
		Index:             pick(p.Index, over.Index),
		SectionType:       pick(p.SectionType, over.SectionType),
		AddedMultiSection: pick(p.AddedMultiSection, over.AddedMultiSection),
	}.Clone()
}

func (p SectionPatch) changes(cur Section, all bool) SectionPatch {
	return SectionPatch{
		Title:             changed(cur.Title, p.Title, all),
		Index:             changed(cur.Index, p.Index, all),
		SectionType:       changed(cur.SectionType, p.SectionType, all),
		AddedMultiSection: changed(cur.AddedMultiSection, p.AddedMultiSection, all),
	}
}
