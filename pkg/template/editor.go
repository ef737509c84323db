// Copyright (c) 2025, The Copper Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package template

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cerrors "github.com/velarno/copper/pkg/errors"
)

// ID identifies a persisted template.
type ID int64

// Record is a persisted template.
type Record struct {
	ID         ID         `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	DatasetID  string     `json:"dataset_id" yaml:"dataset_id"`
	Parameters Parameters `json:"parameters" yaml:"parameters"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" yaml:"updated_at"`
}

// HistoryEntry is a snapshot of a template taken after a mutation.
type HistoryEntry struct {
	ID         int64      `json:"id" yaml:"id"`
	Action     string     `json:"action" yaml:"action"`
	Parameters Parameters `json:"parameters" yaml:"parameters"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
}

// History actions.
const (
	ActionCreate          = "create"
	ActionImport          = "import"
	ActionAddValue        = "add"
	ActionRemoveValue     = "remove"
	ActionReplaceValue    = "update"
	ActionRemoveParameter = "remove_parameter"
	ActionOptimize        = "optimize"
)

// Store is the persistence the editor writes through to. Implementations
// return NOT_FOUND errors for unknown templates.
type Store interface {
	DatasetExists(ctx context.Context, datasetID string) (bool, error)
	GetTemplateByName(ctx context.Context, name string) (*Record, error)
	CreateTemplate(ctx context.Context, name, datasetID string, params Parameters, action string) (ID, error)
	GetValues(ctx context.Context, id ID, name string) ([]string, error)
	AddValue(ctx context.Context, id ID, name, value string) error
	RemoveValue(ctx context.Context, id ID, name, value string) error
	ReplaceValue(ctx context.Context, id ID, name, oldValue, newValue string) error
	RemoveParameter(ctx context.Context, id ID, name string) error
	DeleteTemplate(ctx context.Context, id ID) error
	AppendHistory(ctx context.Context, id ID, action string, params Parameters) error
	History(ctx context.Context, id ID) ([]HistoryEntry, error)
}

// Status is the editor lifecycle position.
type Status int

const (
	// Unbound editors have no template identity yet.
	Unbound Status = iota
	// Bound editors hold a persisted template and accept mutations.
	Bound
	// Deleted editors reject every operation.
	Deleted
)

func (s Status) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Editor binds one State to its persisted template. Each mutation is applied
// to a copy, written through to the store and only then made current.
// An Editor is not safe for concurrent use.
type Editor struct {
	store  Store
	status Status
	id     ID
	state  *State
}

// NewEditor returns an unbound editor backed by store.
func NewEditor(store Store) *Editor {
	return &Editor{store: store}
}

// Status returns the lifecycle position.
func (e *Editor) Status() Status { return e.status }

// ID returns the persisted template id; zero until bound.
func (e *Editor) ID() ID { return e.id }

// Create persists a new empty template for datasetID and binds the editor to it.
func (e *Editor) Create(ctx context.Context, name, datasetID string) error {
	return e.bindNew(ctx, NewState(name, datasetID), ActionCreate)
}

// Import persists a parsed template document and binds the editor to it.
func (e *Editor) Import(ctx context.Context, data []byte) error {
	state, err := Parse(data)
	if err != nil {
		return err
	}
	return e.bindNew(ctx, state, ActionImport)
}

// Save persists state as a new template and binds the editor to it.
func (e *Editor) Save(ctx context.Context, state *State) error {
	return e.bindNew(ctx, state.Clone(), ActionCreate)
}

func (e *Editor) bindNew(ctx context.Context, state *State, action string) error {
	if e.status != Unbound {
		return cerrors.New(cerrors.ErrCodeInvalidRequest, fmt.Sprintf("editor is %s", e.status))
	}
	if state.Name == "" {
		return cerrors.Validation("template_name", "must not be empty")
	}

	ok, err := e.store.DatasetExists(ctx, state.DatasetID)
	if err != nil {
		return err
	}
	if !ok {
		return cerrors.NotFound("dataset", state.DatasetID)
	}

	if _, err := e.store.GetTemplateByName(ctx, state.Name); err == nil {
		return cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("template %q already exists", state.Name),
			map[string]any{"field": "template_name"})
	} else if !cerrors.IsCode(err, cerrors.ErrCodeNotFound) {
		return err
	}

	id, err := e.store.CreateTemplate(ctx, state.Name, state.DatasetID, state.ToMapping(), action)
	if err != nil {
		return err
	}
	e.id, e.state, e.status = id, state, Bound

	slog.Debug("template created", "template", state.Name, "dataset", state.DatasetID, "id", id)
	return nil
}

// Load binds the editor to the persisted template called name.
func (e *Editor) Load(ctx context.Context, name string) error {
	if e.status != Unbound {
		return cerrors.New(cerrors.ErrCodeInvalidRequest, fmt.Sprintf("editor is %s", e.status))
	}
	rec, err := e.store.GetTemplateByName(ctx, name)
	if err != nil {
		return err
	}
	e.id = rec.ID
	e.state = NewStateFromParameters(rec.Name, rec.DatasetID, rec.Parameters)
	e.status = Bound
	return nil
}

func (e *Editor) bound() error {
	switch e.status {
	case Bound:
		return nil
	case Deleted:
		return cerrors.New(cerrors.ErrCodeNotFound, "template was deleted")
	default:
		return cerrors.New(cerrors.ErrCodeNotFound, "editor is not bound to a template")
	}
}

// State returns a copy of the current state.
func (e *Editor) State() (*State, error) {
	if err := e.bound(); err != nil {
		return nil, err
	}
	return e.state.Clone(), nil
}

// ToMapping returns a copy of the current parameter mapping.
func (e *Editor) ToMapping() (Parameters, error) {
	if err := e.bound(); err != nil {
		return nil, err
	}
	return e.state.ToMapping(), nil
}

// Serialize renders the current state, see State.Serialize.
func (e *Editor) Serialize(includeMetadata bool) ([]byte, error) {
	if err := e.bound(); err != nil {
		return nil, err
	}
	return e.state.Serialize(includeMetadata)
}

// AddValue adds value to name; adding an existing value is a no-op.
func (e *Editor) AddValue(ctx context.Context, name, value string) error {
	if err := e.bound(); err != nil {
		return err
	}
	next := e.state.Clone()
	if !next.AddValue(name, value) {
		return nil
	}
	if err := e.store.AddValue(ctx, e.id, name, value); err != nil {
		return err
	}
	e.state = next
	return e.snapshot(ctx, ActionAddValue)
}

// AddRange adds each integer of [from, to] through AddValue, one write per
// value. A failure part-way leaves the values already added in place.
func (e *Editor) AddRange(ctx context.Context, name, from, to string) error {
	if err := e.bound(); err != nil {
		return err
	}
	values, err := ExpandRange(from, to)
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := e.AddValue(ctx, name, v); err != nil {
			return err
		}
	}
	return nil
}

// RemoveValue removes value from name.
func (e *Editor) RemoveValue(ctx context.Context, name, value string) error {
	if err := e.bound(); err != nil {
		return err
	}
	next := e.state.Clone()
	if err := next.RemoveValue(name, value); err != nil {
		return err
	}
	if err := e.store.RemoveValue(ctx, e.id, name, value); err != nil {
		return err
	}
	e.state = next
	return e.snapshot(ctx, ActionRemoveValue)
}

// ReplaceValue swaps oldValue for newValue on name.
func (e *Editor) ReplaceValue(ctx context.Context, name, oldValue, newValue string) error {
	if err := e.bound(); err != nil {
		return err
	}
	next := e.state.Clone()
	if err := next.ReplaceValue(name, oldValue, newValue); err != nil {
		return err
	}
	if oldValue == newValue {
		return nil
	}
	if err := e.store.ReplaceValue(ctx, e.id, name, oldValue, newValue); err != nil {
		return err
	}
	e.state = next
	return e.snapshot(ctx, ActionReplaceValue)
}

// RemoveParameter removes all persisted values of name.
func (e *Editor) RemoveParameter(ctx context.Context, name string) error {
	if err := e.bound(); err != nil {
		return err
	}
	values, err := e.store.GetValues(ctx, e.id, name)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return cerrors.NotFound("parameter", name)
	}
	if err := e.store.RemoveParameter(ctx, e.id, name); err != nil {
		return err
	}
	next := e.state.Clone()
	delete(next.params, name)
	e.state = next
	return e.snapshot(ctx, ActionRemoveParameter)
}

// Delete removes the template; the editor rejects every later call.
func (e *Editor) Delete(ctx context.Context) error {
	if err := e.bound(); err != nil {
		return err
	}
	if err := e.store.DeleteTemplate(ctx, e.id); err != nil {
		return err
	}
	slog.Debug("template deleted", "template", e.state.Name, "id", e.id)
	e.status = Deleted
	e.state = nil
	return nil
}

// History returns the recorded snapshots, newest first.
func (e *Editor) History(ctx context.Context) ([]HistoryEntry, error) {
	if err := e.bound(); err != nil {
		return nil, err
	}
	return e.store.History(ctx, e.id)
}

// Validate reports values that are not in the allowed set for their parameter.
// Parameters absent from allowed are not checked.
func (e *Editor) Validate(allowed map[string][]string) ([]Violation, error) {
	if err := e.bound(); err != nil {
		return nil, err
	}
	return Validate(e.state.params, allowed), nil
}

func (e *Editor) snapshot(ctx context.Context, action string) error {
	return e.store.AppendHistory(ctx, e.id, action, e.state.ToMapping())
}
