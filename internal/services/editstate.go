package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nexconsult/controle-cte/internal/models"
)

// Edit-state errors
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownField   = models.ErrUnknownField
	ErrNotEditing     = errors.New("record is not in edit mode")
	ErrSaveInProgress = errors.New("save already in progress")
	ErrSaveFailed     = errors.New("save failed")
	ErrFetchFailed    = errors.New("fetch failed")
)

// Phase is the edit phase of one record
type Phase string

const (
	PhaseViewing Phase = "viewing"
	PhaseEditing Phase = "editing"
	PhaseSaving  Phase = "saving"
)

// EditState tracks, per record id, the field in edit mode and the staged values.
//
// Mode holds at most one field per record. Staged only holds entries for
// records present in Mode. Saving marks records whose update is in flight;
// while set, Mode and Staged of that record are frozen.
type EditState struct {
	Mode   map[int64]string            `json:"mode,omitempty"`
	Staged map[int64]map[string]string `json:"staged,omitempty"`
	Saving map[int64]bool              `json:"saving,omitempty"`
}

// Phase returns the phase of record id
func (s *EditState) Phase(id int64) Phase {
	if s.Saving[id] {
		return PhaseSaving
	}
	if _, ok := s.Mode[id]; ok {
		return PhaseEditing
	}
	return PhaseViewing
}

// EditingField returns the field in edit mode for record id
func (s *EditState) EditingField(id int64) (string, bool) {
	field, ok := s.Mode[id]
	return field, ok
}

// StagedValue returns the staged value of field for record id
func (s *EditState) StagedValue(id int64, field string) (string, bool) {
	value, ok := s.Staged[id][field]
	return value, ok
}

// StagedFields returns a copy of the staged values of record id
func (s *EditState) StagedFields(id int64) map[string]string {
	staged := s.Staged[id]
	if len(staged) == 0 {
		return nil
	}
	out := make(map[string]string, len(staged))
	for field, value := range staged {
		out[field] = value
	}
	return out
}

// Enable moves record id to editing field, seeding its staged value. Picking
// another field of a record already in edit drops the previous staged field.
func (s *EditState) Enable(id int64, field, value string) error {
	if !models.IsField(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if s.Saving[id] {
		return ErrSaveInProgress
	}
	s.init()

	if current, ok := s.Mode[id]; ok && current != field {
		delete(s.Staged[id], current)
	}
	s.Mode[id] = field
	if s.Staged[id] == nil {
		s.Staged[id] = make(map[string]string)
	}
	s.Staged[id][field] = value
	return nil
}

// Update replaces the staged value of the field being edited
func (s *EditState) Update(id int64, field, value string) error {
	if s.Saving[id] {
		return ErrSaveInProgress
	}
	current, ok := s.Mode[id]
	if !ok || current != field {
		return fmt.Errorf("%w: record %d field %s", ErrNotEditing, id, field)
	}
	s.Staged[id][field] = value
	return nil
}

// BeginSave moves record id to saving and returns the staged values to commit
func (s *EditState) BeginSave(id int64) (map[string]string, error) {
	if s.Saving[id] {
		return nil, ErrSaveInProgress
	}
	if _, ok := s.Mode[id]; !ok {
		return nil, fmt.Errorf("%w: record %d", ErrNotEditing, id)
	}
	s.init()
	s.Saving[id] = true
	return s.StagedFields(id), nil
}

// FinishSave leaves saving. On success record id goes back to viewing with
// nothing staged; on failure it returns to editing exactly as it was.
func (s *EditState) FinishSave(id int64, success bool) {
	delete(s.Saving, id)
	if !success {
		return
	}
	delete(s.Mode, id)
	delete(s.Staged, id)
}

// IDs returns the ids with any edit state, sorted
func (s *EditState) IDs() []int64 {
	seen := make(map[int64]struct{}, len(s.Mode))
	for id := range s.Mode {
		seen[id] = struct{}{}
	}
	for id := range s.Saving {
		seen[id] = struct{}{}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Cell is what a table cell shows: a static value or an editable input
type Cell struct {
	Field    string
	Value    string
	Editable bool
}

// RenderField decides how field of item is shown. It never mutates state.
func (s *EditState) RenderField(item models.Record, field string) Cell {
	if current, ok := s.Mode[item.ID]; ok && current == field {
		value, _ := s.StagedValue(item.ID, field)
		return Cell{Field: field, Value: value, Editable: true}
	}
	value, _ := item.Field(field)
	return Cell{Field: field, Value: value}
}

func (s *EditState) init() {
	if s.Mode == nil {
		s.Mode = make(map[int64]string)
	}
	if s.Staged == nil {
		s.Staged = make(map[int64]map[string]string)
	}
	if s.Saving == nil {
		s.Saving = make(map[int64]bool)
	}
}
