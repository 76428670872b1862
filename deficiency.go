package propinspect

import (
	"context"

	"github.com/google/uuid"
)

// DeficiencyState is the workflow state of a deficiency.
type DeficiencyState string

const (
	DeficiencyStateRequiresAction         DeficiencyState = "requires-action"
	DeficiencyStateGoBack                 DeficiencyState = "go-back"
	DeficiencyStatePending                DeficiencyState = "pending"
	DeficiencyStateRequiresProgressUpdate DeficiencyState = "requires-progress-update"
	DeficiencyStateOverdue                DeficiencyState = "overdue"
	DeficiencyStateIncomplete             DeficiencyState = "incomplete"
	DeficiencyStateCompleted              DeficiencyState = "completed"
	DeficiencyStateClosed                 DeficiencyState = "closed"
	DeficiencyStateDeferred               DeficiencyState = "deferred"
)

// IsValid returns true if the state is a recognized value.
func (s DeficiencyState) IsValid() bool {
	switch s {
	case DeficiencyStateRequiresAction, DeficiencyStateGoBack, DeficiencyStatePending,
		DeficiencyStateRequiresProgressUpdate, DeficiencyStateOverdue, DeficiencyStateIncomplete,
		DeficiencyStateCompleted, DeficiencyStateClosed, DeficiencyStateDeferred:
		return true
	}
	return false
}

// Deficiency tracks the follow-up work for one deficient inspection item.
// The item* fields and sectionSubtitle shadow the source item.
type Deficiency struct {
	ID                      string          `json:"id" firestore:"-"`
	State                   DeficiencyState `json:"state" firestore:"state"`
	Property                string          `json:"property" firestore:"property"`
	Inspection              string          `json:"inspection" firestore:"inspection"`
	Item                    string          `json:"item" firestore:"item"`
	SectionTitle            string          `json:"sectionTitle,omitempty" firestore:"sectionTitle,omitempty"`
	SectionType             SectionType     `json:"sectionType,omitempty" firestore:"sectionType,omitempty"`
	SectionSubtitle         string          `json:"sectionSubtitle,omitempty" firestore:"sectionSubtitle,omitempty"`
	ItemTitle               string          `json:"itemTitle,omitempty" firestore:"itemTitle,omitempty"`
	ItemMainInputType       string          `json:"itemMainInputType,omitempty" firestore:"itemMainInputType,omitempty"`
	ItemMainInputSelection  int             `json:"itemMainInputSelection" firestore:"itemMainInputSelection"`
	ItemInspectorNotes      string          `json:"itemInspectorNotes,omitempty" firestore:"itemInspectorNotes,omitempty"`
	ItemPhotosData          PhotoData       `json:"itemPhotosData,omitempty" firestore:"itemPhotosData,omitempty"`
	ItemAdminEdits          AdminEditLog    `json:"itemAdminEdits,omitempty" firestore:"itemAdminEdits,omitempty"`
	ItemScore               float64         `json:"itemScore" firestore:"itemScore"`
	ItemDataLastUpdatedDate int64           `json:"itemDataLastUpdatedDate,omitempty" firestore:"itemDataLastUpdatedDate,omitempty"`
	CurrentDueDate          int64           `json:"currentDueDate,omitempty" firestore:"currentDueDate,omitempty"`
	CreatedAt               int64           `json:"createdAt" firestore:"createdAt"`
	UpdatedAt               int64           `json:"updatedAt" firestore:"updatedAt"`
	ArchivedAt              int64           `json:"archivedAt,omitempty" firestore:"archivedAt,omitempty"`
}

// Apply returns a copy of the deficiency with every set field of u written.
func (d Deficiency) Apply(u DeficiencyUpdate) Deficiency {
	assign(&d.State, u.State)
	assign(&d.SectionSubtitle, u.SectionSubtitle)
	assign(&d.ItemInspectorNotes, u.ItemInspectorNotes)
	assign(&d.ItemMainInputSelection, u.ItemMainInputSelection)
	assign(&d.ItemAdminEdits, u.ItemAdminEdits)
	assign(&d.ItemScore, u.ItemScore)
	assign(&d.ItemDataLastUpdatedDate, u.ItemDataLastUpdatedDate)
	assign(&d.UpdatedAt, u.UpdatedAt)
	if u.ItemPhotosData != nil {
		d.ItemPhotosData, _ = u.ItemPhotosData.Value()
	}
	return d
}

// DeficiencyUpdate is a partial write of a deficiency. Nil fields are left
// unchanged. ItemPhotosData holds a deletion when the source item no longer
// has any valid photo.
type DeficiencyUpdate struct {
	State                   *DeficiencyState   `json:"state,omitempty"`
	SectionSubtitle         *string            `json:"sectionSubtitle,omitempty"`
	ItemInspectorNotes      *string            `json:"itemInspectorNotes,omitempty"`
	ItemMainInputSelection  *int               `json:"itemMainInputSelection,omitempty"`
	ItemPhotosData          *Change[PhotoData] `json:"itemPhotosData,omitempty"`
	ItemAdminEdits          *AdminEditLog      `json:"itemAdminEdits,omitempty"`
	ItemScore               *float64           `json:"itemScore,omitempty"`
	ItemDataLastUpdatedDate *int64             `json:"itemDataLastUpdatedDate,omitempty"`
	UpdatedAt               *int64             `json:"updatedAt,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u DeficiencyUpdate) IsEmpty() bool {
	return u == DeficiencyUpdate{}
}

// DeficiencyStore persists deficiency records. The active store and the
// archive share this interface and use the same record ids.
type DeficiencyStore interface {
	// FindRecord retrieves a record by ID.
	// Returns ENOTFOUND if the record does not exist.
	FindRecord(ctx context.Context, id string) (*Deficiency, error)

	// FindByInspection retrieves every record derived from an inspection.
	FindByInspection(ctx context.Context, inspectionID string) ([]*Deficiency, error)

	// CreateRecord writes a record, replacing any record with the same ID.
	CreateRecord(ctx context.Context, d *Deficiency) error

	// UpdateRecord writes the set fields of upd.
	// Returns ENOTFOUND if the record does not exist.
	UpdateRecord(ctx context.Context, id string, upd DeficiencyUpdate) error

	// RemoveRecord deletes a record. Removing a missing record is not an error.
	RemoveRecord(ctx context.Context, id string) error
}

var deficiencyNamespace = uuid.MustParse("3f1b7c52-6a0e-4d8e-9a57-0c2f6d1e8b41")

// DeficiencyID returns the record id for an inspection item. It is stable so
// that replaying a sync writes the same records.
func DeficiencyID(inspectionID, itemID string) string {
	return uuid.NewSHA1(deficiencyNamespace, []byte(inspectionID+"/"+itemID)).String()
}

// DeficiencySyncPayload is the job payload for deriving deficiencies from
// an inspection write.
type DeficiencySyncPayload struct {
	InspectionID string      `json:"inspectionId"`
	Before       *Inspection `json:"before"`
	After        *Inspection `json:"after"`
}
