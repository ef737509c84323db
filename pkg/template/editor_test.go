package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/velarno/copper/pkg/errors"
)

const testDataset = "reanalysis-era5-single-levels"

func TestEditor_CreateUnknownDataset(t *testing.T) {
	ed := NewEditor(newMemStore())

	err := ed.Create(context.Background(), "era5", "no-such-dataset")

	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeNotFound))
	assert.Equal(t, Unbound, ed.Status())
}

func TestEditor_CreateDuplicateName(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(testDataset)
	require.NoError(t, NewEditor(store).Create(ctx, "era5", testDataset))

	err := NewEditor(store).Create(ctx, "era5", testDataset)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeInvalidRequest))
}

func TestEditor_LoadMissing(t *testing.T) {
	ed := NewEditor(newMemStore(testDataset))

	err := ed.Load(context.Background(), "missing")

	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeNotFound))
}

func TestEditor_UnboundOperationsFail(t *testing.T) {
	ctx := context.Background()
	ed := NewEditor(newMemStore(testDataset))

	assert.True(t, cerrors.IsCode(ed.AddValue(ctx, "year", "2010"), cerrors.ErrCodeNotFound))
	_, err := ed.ToMapping()
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeNotFound))
}

func TestEditor_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(testDataset)
	ed := NewEditor(store)

	require.NoError(t, ed.Create(ctx, "era5", testDataset))
	assert.Equal(t, Bound, ed.Status())

	require.NoError(t, ed.AddRange(ctx, "year", "2010", "2012"))
	require.NoError(t, ed.AddValue(ctx, "variable", "temp"))
	require.NoError(t, ed.AddValue(ctx, "variable", "temp"))
	require.NoError(t, ed.AddValue(ctx, "variable", "humidity"))
	require.NoError(t, ed.RemoveValue(ctx, "year", "2011"))
	require.NoError(t, ed.ReplaceValue(ctx, "variable", "humidity", "pressure"))

	want := Parameters{"year": {"2010", "2012"}, "variable": {"temp", "pressure"}}
	got, err := ed.ToMapping()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// reloading from the store yields the same mapping
	reloaded := NewEditor(store)
	require.NoError(t, reloaded.Load(ctx, "era5"))
	again, err := reloaded.ToMapping()
	require.NoError(t, err)
	assert.True(t, want.Equal(again))

	history, err := ed.History(ctx)
	require.NoError(t, err)
	// create + 3 range values + 2 adds + remove + update
	require.Len(t, history, 8)
	assert.Equal(t, ActionReplaceValue, history[0].Action)
	assert.Equal(t, ActionCreate, history[len(history)-1].Action)

	require.NoError(t, ed.Delete(ctx))
	assert.Equal(t, Deleted, ed.Status())

	assert.True(t, cerrors.IsCode(ed.AddValue(ctx, "year", "2013"), cerrors.ErrCodeNotFound))
	assert.True(t, cerrors.IsCode(ed.Delete(ctx), cerrors.ErrCodeNotFound))
	_, err = ed.Serialize(true)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeNotFound))

	assert.True(t, cerrors.IsCode(NewEditor(store).Load(ctx, "era5"), cerrors.ErrCodeNotFound))
}

func TestEditor_RemoveParameter(t *testing.T) {
	ctx := context.Background()
	ed := NewEditor(newMemStore(testDataset))
	require.NoError(t, ed.Create(ctx, "era5", testDataset))
	require.NoError(t, ed.AddValue(ctx, "variable", "temp"))

	require.NoError(t, ed.RemoveParameter(ctx, "variable"))
	err := ed.RemoveParameter(ctx, "variable")
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeNotFound))

	err = ed.RemoveValue(ctx, "variable", "temp")
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeNotFound))
}

func TestEditor_StoreFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(testDataset)
	ed := NewEditor(store)
	require.NoError(t, ed.Create(ctx, "era5", testDataset))
	require.NoError(t, ed.AddValue(ctx, "year", "2010"))

	store.failAdd = true
	err := ed.AddValue(ctx, "year", "2011")
	require.Error(t, err)

	got, err := ed.ToMapping()
	require.NoError(t, err)
	assert.Equal(t, Parameters{"year": {"2010"}}, got)
}

func TestEditor_CreateRecordsHistoryOnce(t *testing.T) {
	tests := []struct {
		name       string
		failCreate bool
		wantStatus Status
		wantRows   int
	}{
		{name: "created", wantStatus: Bound, wantRows: 1},
		{name: "store failure", failCreate: true, wantStatus: Unbound, wantRows: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newMemStore(testDataset)
			store.failCreate = tt.failCreate
			ed := NewEditor(store)

			err := ed.Create(ctx, "era5", testDataset)
			if tt.failCreate {
				assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeInternal))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantStatus, ed.Status())

			_, err = store.GetTemplateByName(ctx, "era5")
			assert.Equal(t, tt.failCreate, cerrors.IsCode(err, cerrors.ErrCodeNotFound))

			rows := 0
			for _, entries := range store.history {
				rows += len(entries)
			}
			assert.Equal(t, tt.wantRows, rows)
		})
	}
}

func TestEditor_Import(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(testDataset)
	ed := NewEditor(store)

	doc := `{"metadata": {"dataset_id": "` + testDataset + `", "template_name": "imported"},
	         "parameters": {"year": ["2010", "2011"], "variable": "temp"}}`
	require.NoError(t, ed.Import(ctx, []byte(doc)))

	values, err := store.GetValues(ctx, ed.ID(), "year")
	require.NoError(t, err)
	assert.Equal(t, []string{"2010", "2011"}, values)

	history, err := ed.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ActionImport, history[0].Action)
}

func TestEditor_ImportInvalid(t *testing.T) {
	ed := NewEditor(newMemStore(testDataset))

	err := ed.Import(context.Background(), []byte(`{"parameters": {}}`))

	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeInvalidRequest))
	assert.Equal(t, Unbound, ed.Status())
}

func TestEditor_StateIsCopy(t *testing.T) {
	ctx := context.Background()
	ed := NewEditor(newMemStore(testDataset))
	require.NoError(t, ed.Create(ctx, "era5", testDataset))
	require.NoError(t, ed.AddValue(ctx, "year", "2010"))

	s, err := ed.State()
	require.NoError(t, err)
	s.AddValue("year", "2099")

	got, err := ed.ToMapping()
	require.NoError(t, err)
	assert.Equal(t, Parameters{"year": {"2010"}}, got)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "unbound", Unbound.String())
	assert.Equal(t, "bound", Bound.String())
	assert.Equal(t, "deleted", Deleted.String())
	assert.Equal(t, "status(7)", Status(7).String())
}
