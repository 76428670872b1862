// Package deficiency keeps deficiency records in step with the answers of
// the inspections they come from.
package deficiency

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/propinspect"
	"golang.org/x/sync/errgroup"
)

// Actions reported to a Recorder and collected in a Result.
const (
	ActionCreated    = "created"
	ActionUnarchived = "unarchived"
	ActionUpdated    = "updated"
	ActionArchived   = "archived"
)

// Recorder observes record writes.
type Recorder interface {
	RecordDeficiencyAction(action string)
}

// Deriver creates, updates and archives deficiencies for inspection items.
//
// Every write is keyed by DeficiencyID and safe to repeat, so a sync that
// fails part way can simply be run again with the same snapshots.
type Deriver struct {
	Active      propinspect.DeficiencyStore
	Archive     propinspect.DeficiencyStore
	Eligibility propinspect.EligibilityTable

	// Concurrency limits the number of records written at once.
	Concurrency int

	// Recorder is optional.
	Recorder Recorder

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewDeriver returns a deriver over the active and archive stores.
func NewDeriver(active, archive propinspect.DeficiencyStore, table propinspect.EligibilityTable) *Deriver {
	if table == nil {
		table = propinspect.DefaultEligibilityTable()
	}
	return &Deriver{
		Active:      active,
		Archive:     archive,
		Eligibility: table,
		Concurrency: 8,
		Now:         time.Now,
	}
}

// Result lists the item ids affected by a sync, per action.
type Result struct {
	Created    []string `json:"created,omitempty"`
	Unarchived []string `json:"unarchived,omitempty"`
	Updated    []string `json:"updated,omitempty"`
	Archived   []string `json:"archived,omitempty"`
}

// IsEmpty reports whether the sync wrote nothing.
func (r *Result) IsEmpty() bool {
	return len(r.Created) == 0 && len(r.Unarchived) == 0 && len(r.Updated) == 0 && len(r.Archived) == 0
}

func (r *Result) add(action, itemID string) {
	switch action {
	case ActionCreated:
		r.Created = append(r.Created, itemID)
	case ActionUnarchived:
		r.Unarchived = append(r.Unarchived, itemID)
	case ActionUpdated:
		r.Updated = append(r.Updated, itemID)
	case ActionArchived:
		r.Archived = append(r.Archived, itemID)
	}
}

func (r *Result) sort() {
	slices.Sort(r.Created)
	slices.Sort(r.Unarchived)
	slices.Sort(r.Updated)
	slices.Sort(r.Archived)
}

// Sync brings the deficiencies of an inspection in line with its state
// after a write. A nil after means the inspection was deleted and all of
// its deficiencies are archived. Inspections that do not track deficient
// items are left alone.
func (d *Deriver) Sync(ctx context.Context, before, after *propinspect.Inspection) (*Result, error) {
	insp := after
	if insp == nil {
		insp = before
	}
	if insp == nil || insp.ID == "" {
		return nil, propinspect.Invalid("inspection snapshot is required")
	}

	result := &Result{}
	if after != nil && !after.Template.TrackDeficientItems {
		return result, nil
	}

	existing, err := d.Active.FindByInspection(ctx, insp.ID)
	if err != nil {
		return nil, fmt.Errorf("finding deficiencies of inspection %s: %w", insp.ID, err)
	}
	active := make(map[string]*propinspect.Deficiency, len(existing))
	for _, rec := range existing {
		active[rec.Item] = rec
	}

	now := d.Now().Unix()
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cmp.Or(d.Concurrency, 1))

	run := func(itemID string, fn func(context.Context) (string, error)) {
		g.Go(func() error {
			action, err := fn(ctx)
			if err != nil {
				return fmt.Errorf("item %s: %w", itemID, err)
			}
			if action == "" {
				return nil
			}
			if d.Recorder != nil {
				d.Recorder.RecordDeficiencyAction(action)
			}
			mu.Lock()
			result.add(action, itemID)
			mu.Unlock()
			return nil
		})
	}

	qualifying := make(map[string]struct{})
	if after != nil {
		for _, itemID := range slices.Sorted(maps.Keys(after.Template.Items)) {
			item := after.Template.Items[itemID]
			if !d.Eligibility.ItemIsDeficient(item) {
				continue
			}
			qualifying[itemID] = struct{}{}

			if rec, ok := active[itemID]; ok {
				run(itemID, func(ctx context.Context) (string, error) {
					return d.update(ctx, after, item, rec, now)
				})
				continue
			}
			run(itemID, func(ctx context.Context) (string, error) {
				return d.create(ctx, after, itemID, item, now)
			})
		}
	}

	for _, itemID := range slices.Sorted(maps.Keys(active)) {
		if _, ok := qualifying[itemID]; ok {
			continue
		}
		rec := active[itemID]
		run(itemID, func(ctx context.Context) (string, error) {
			return d.archive(ctx, rec, now)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.sort()
	return result, nil
}

// create adds a record for a newly deficient item. A record archived
// earlier for the same item is restored with its original creation time.
func (d *Deriver) create(ctx context.Context, insp *propinspect.Inspection, itemID string, item propinspect.Item, now int64) (string, error) {
	section := insp.Template.Sections[item.SectionID]
	rec := &propinspect.Deficiency{
		ID:                propinspect.DeficiencyID(insp.ID, itemID),
		State:             propinspect.DeficiencyStateRequiresAction,
		Property:          insp.Property,
		Inspection:        insp.ID,
		Item:              itemID,
		SectionTitle:      section.Title,
		SectionType:       section.SectionType,
		ItemTitle:         item.Title,
		ItemMainInputType: item.MainInputType,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	proxyOf(insp, item).apply(rec)

	action := ActionCreated
	archived, err := d.Archive.FindRecord(ctx, rec.ID)
	switch {
	case err == nil:
		rec.CreatedAt = archived.CreatedAt
		action = ActionUnarchived
	case !propinspect.IsErrorCode(err, propinspect.ENOTFOUND):
		return "", fmt.Errorf("finding archived deficiency: %w", err)
	}

	if err := d.Active.CreateRecord(ctx, rec); err != nil {
		return "", fmt.Errorf("creating deficiency: %w", err)
	}
	if archived != nil {
		if err := d.Archive.RemoveRecord(ctx, rec.ID); err != nil {
			return "", fmt.Errorf("removing archived deficiency: %w", err)
		}
	}
	return action, nil
}

// update refreshes the mirrored item attributes of an active record. An
// archived copy left behind by an interrupted unarchive is removed first.
func (d *Deriver) update(ctx context.Context, insp *propinspect.Inspection, item propinspect.Item, rec *propinspect.Deficiency, now int64) (string, error) {
	if err := d.Archive.RemoveRecord(ctx, rec.ID); err != nil {
		return "", fmt.Errorf("removing archived deficiency: %w", err)
	}

	upd := proxyOf(insp, item).diff(rec, now)
	if upd.IsEmpty() {
		return "", nil
	}
	if err := d.Active.UpdateRecord(ctx, rec.ID, upd); err != nil {
		return "", fmt.Errorf("updating deficiency: %w", err)
	}
	return ActionUpdated, nil
}

// archive moves a record whose item is no longer deficient.
func (d *Deriver) archive(ctx context.Context, rec *propinspect.Deficiency, now int64) (string, error) {
	archived := *rec
	archived.ArchivedAt = now
	archived.UpdatedAt = now
	if err := d.Archive.CreateRecord(ctx, &archived); err != nil {
		return "", fmt.Errorf("archiving deficiency: %w", err)
	}
	if err := d.Active.RemoveRecord(ctx, rec.ID); err != nil {
		return "", fmt.Errorf("removing deficiency: %w", err)
	}
	return ActionArchived, nil
}

// HandleJob runs a deficiency_sync job.
func (d *Deriver) HandleJob(ctx context.Context, job *propinspect.Job) error {
	var payload propinspect.DeficiencySyncPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return propinspect.WrapError(propinspect.EINVALID, "decoding deficiency sync payload", err)
	}
	_, err := d.Sync(ctx, payload.Before, payload.After)
	return err
}
