package template

import (
	"context"
	"slices"
	"time"

	cerrors "github.com/velarno/copper/pkg/errors"
)

// memStore is an in-memory Store used by the editor tests.
type memStore struct {
	datasets   map[string]bool
	templates  map[ID]*Record
	history    map[ID][]HistoryEntry
	nextID     ID
	failAdd    bool
	failCreate bool
}

func newMemStore(datasets ...string) *memStore {
	m := &memStore{
		datasets:  map[string]bool{},
		templates: map[ID]*Record{},
		history:   map[ID][]HistoryEntry{},
	}
	for _, d := range datasets {
		m.datasets[d] = true
	}
	return m
}

func (m *memStore) DatasetExists(_ context.Context, datasetID string) (bool, error) {
	return m.datasets[datasetID], nil
}

func (m *memStore) GetTemplateByName(_ context.Context, name string) (*Record, error) {
	for _, rec := range m.templates {
		if rec.Name == name {
			cp := *rec
			cp.Parameters = rec.Parameters.Clone()
			return &cp, nil
		}
	}
	return nil, cerrors.NotFound("template", name)
}

func (m *memStore) CreateTemplate(ctx context.Context, name, datasetID string, params Parameters, action string) (ID, error) {
	if m.failCreate {
		return 0, cerrors.New(cerrors.ErrCodeInternal, "history write failed")
	}
	m.nextID++
	m.templates[m.nextID] = &Record{
		ID:         m.nextID,
		Name:       name,
		DatasetID:  datasetID,
		Parameters: params.Clone(),
		CreatedAt:  time.Now(),
	}
	return m.nextID, m.AppendHistory(ctx, m.nextID, action, params)
}

func (m *memStore) get(id ID) (*Record, error) {
	rec, ok := m.templates[id]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeNotFound, "template not found")
	}
	return rec, nil
}

func (m *memStore) GetValues(_ context.Context, id ID, name string) ([]string, error) {
	rec, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(rec.Parameters[name]), nil
}

func (m *memStore) AddValue(_ context.Context, id ID, name, value string) error {
	if m.failAdd {
		return cerrors.New(cerrors.ErrCodeInternal, "disk full")
	}
	rec, err := m.get(id)
	if err != nil {
		return err
	}
	rec.Parameters[name] = append(rec.Parameters[name], value)
	return nil
}

func (m *memStore) RemoveValue(_ context.Context, id ID, name, value string) error {
	rec, err := m.get(id)
	if err != nil {
		return err
	}
	idx := slices.Index(rec.Parameters[name], value)
	if idx < 0 {
		return cerrors.New(cerrors.ErrCodeNotFound, "value not found")
	}
	rec.Parameters[name] = slices.Delete(rec.Parameters[name], idx, idx+1)
	if len(rec.Parameters[name]) == 0 {
		delete(rec.Parameters, name)
	}
	return nil
}

func (m *memStore) ReplaceValue(ctx context.Context, id ID, name, oldValue, newValue string) error {
	rec, err := m.get(id)
	if err != nil {
		return err
	}
	if slices.Contains(rec.Parameters[name], newValue) {
		return m.RemoveValue(ctx, id, name, oldValue)
	}
	idx := slices.Index(rec.Parameters[name], oldValue)
	if idx < 0 {
		return cerrors.New(cerrors.ErrCodeNotFound, "value not found")
	}
	rec.Parameters[name][idx] = newValue
	return nil
}

func (m *memStore) RemoveParameter(_ context.Context, id ID, name string) error {
	rec, err := m.get(id)
	if err != nil {
		return err
	}
	delete(rec.Parameters, name)
	return nil
}

func (m *memStore) DeleteTemplate(_ context.Context, id ID) error {
	if _, err := m.get(id); err != nil {
		return err
	}
	delete(m.templates, id)
	delete(m.history, id)
	return nil
}

func (m *memStore) AppendHistory(_ context.Context, id ID, action string, params Parameters) error {
	entries := m.history[id]
	m.history[id] = append(entries, HistoryEntry{
		ID:         int64(len(entries) + 1),
		Action:     action,
		Parameters: params.Clone(),
		CreatedAt:  time.Now(),
	})
	return nil
}

func (m *memStore) History(_ context.Context, id ID) ([]HistoryEntry, error) {
	entries := slices.Clone(m.history[id])
	slices.Reverse(entries)
	return entries, nil
}
