package mock

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/dukerupert/propinspect"
)

// Compile-time interface check
var _ propinspect.DeficiencyStore = (*DeficiencyStore)(nil)

// DeficiencyStore is a mock implementation of propinspect.DeficiencyStore.
// Without Fn overrides it keeps records in memory.
type DeficiencyStore struct {
	FindRecordFn       func(ctx context.Context, id string) (*propinspect.Deficiency, error)
	FindByInspectionFn func(ctx context.Context, inspectionID string) ([]*propinspect.Deficiency, error)
	CreateRecordFn     func(ctx context.Context, d *propinspect.Deficiency) error
	UpdateRecordFn     func(ctx context.Context, id string, upd propinspect.DeficiencyUpdate) error
	RemoveRecordFn     func(ctx context.Context, id string) error

	mu      sync.RWMutex
	records map[string]propinspect.Deficiency
}

// NewDeficiencyStore creates a mock store with initialized storage.
func NewDeficiencyStore(records ...*propinspect.Deficiency) *DeficiencyStore {
	s := &DeficiencyStore{records: make(map[string]propinspect.Deficiency)}
	for _, d := range records {
		s.records[d.ID] = *d
	}
	return s
}

func (s *DeficiencyStore) FindRecord(ctx context.Context, id string) (*propinspect.Deficiency, error) {
	if s.FindRecordFn != nil {
		return s.FindRecordFn(ctx, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.records[id]
	if !ok {
		return nil, propinspect.NotFound("Deficiency not found")
	}
	return &d, nil
}

func (s *DeficiencyStore) FindByInspection(ctx context.Context, inspectionID string) ([]*propinspect.Deficiency, error) {
	if s.FindByInspectionFn != nil {
		return s.FindByInspectionFn(ctx, inspectionID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*propinspect.Deficiency
	for _, id := range slices.Sorted(maps.Keys(s.records)) {
		if d := s.records[id]; d.Inspection == inspectionID {
			result = append(result, &d)
		}
	}
	return result, nil
}

func (s *DeficiencyStore) CreateRecord(ctx context.Context, d *propinspect.Deficiency) error {
	if s.CreateRecordFn != nil {
		return s.CreateRecordFn(ctx, d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[d.ID] = *d
	return nil
}

func (s *DeficiencyStore) UpdateRecord(ctx context.Context, id string, upd propinspect.DeficiencyUpdate) error {
	if s.UpdateRecordFn != nil {
		return s.UpdateRecordFn(ctx, id, upd)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.records[id]
	if !ok {
		return propinspect.NotFound("Deficiency not found")
	}
	s.records[id] = d.Apply(upd)
	return nil
}

func (s *DeficiencyStore) RemoveRecord(ctx context.Context, id string) error {
	if s.RemoveRecordFn != nil {
		return s.RemoveRecordFn(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

// All returns every stored record ordered by ID.
func (s *DeficiencyStore) All() []*propinspect.Deficiency {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*propinspect.Deficiency, 0, len(s.records))
	for _, id := range slices.Sorted(maps.Keys(s.records)) {
		d := s.records[id]
		result = append(result, &d)
	}
	return result
}
