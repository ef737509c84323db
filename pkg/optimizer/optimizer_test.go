package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velarno/copper/pkg/cost"
	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/template"
)

func years(from, n int) []string {
	out := make([]string, n)
	for i := range n {
		out[i] = fmt.Sprintf("%d", from+i)
	}
	return out
}

func values(prefix string, n int) []string {
	out := make([]string, n)
	for i := range n {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

// assertPartition checks that parts split params along param without loss,
// overlap or reordering.
func assertPartition(t *testing.T, params template.Parameters, param string, parts []template.Parameters, budget int64) {
	t.Helper()

	var joined []string
	for _, part := range parts {
		assert.LessOrEqual(t, cost.Of(part), budget)
		for name, vals := range params {
			if name == param {
				continue
			}
			assert.Equal(t, vals, part[name], "parameter %q must be carried unchanged", name)
		}
		require.NotEmpty(t, part[param])
		joined = append(joined, part[param]...)
	}
	assert.Equal(t, params[param], joined)
}

func TestOptimize_TenYears(t *testing.T) {
	params := template.Parameters{
		"year":     years(2010, 10),
		"variable": values("v", 5),
		"time":     values("t", 10),
	}

	res, err := New().Optimize(params, "year", 200)
	require.NoError(t, err)

	assertPartition(t, params, "year", res.Parts, 200)
	assert.Len(t, res.Parts, 4)
	assert.LessOrEqual(t, res.Pops, 2*10-1)
	assert.Equal(t, len(res.Parts)-1, res.Splits)
}

func TestOptimize_SingleYearParts(t *testing.T) {
	params := template.Parameters{
		"year":     {"2010", "2011", "2012", "2013"},
		"variable": {"temp", "humidity"},
	}

	res, err := New().Optimize(params, "year", 3)
	require.NoError(t, err)

	want := []template.Parameters{
		{"year": {"2010"}, "variable": {"temp", "humidity"}},
		{"year": {"2011"}, "variable": {"temp", "humidity"}},
		{"year": {"2012"}, "variable": {"temp", "humidity"}},
		{"year": {"2013"}, "variable": {"temp", "humidity"}},
	}
	assert.Equal(t, want, res.Parts)
	assert.Equal(t, 7, res.Pops)
	assert.Equal(t, 3, res.Splits)
}

func TestOptimize_WithinBudget(t *testing.T) {
	params := template.Parameters{"year": {"2010", "2011"}, "variable": {"temp"}}

	res, err := New().Optimize(params, "year", 400)
	require.NoError(t, err)

	require.Len(t, res.Parts, 1)
	assert.Equal(t, params, res.Parts[0])
	assert.Equal(t, 1, res.Pops)
	assert.Zero(t, res.Splits)
}

func TestOptimize_Unsatisfiable(t *testing.T) {
	params := template.Parameters{
		"year":     {"2020"},
		"variable": values("v", 10),
		"time":     values("t", 100),
	}

	res, err := New().Optimize(params, "year", 10)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeUnsatisfiableBudget))

	var se *cerrors.StructuredError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "year", se.Context["parameter"])
	assert.Equal(t, int64(1000), se.Context["cost"])
	assert.Equal(t, int64(10), se.Context["budget"])
}

func TestOptimize_UnsatisfiableAfterSplitting(t *testing.T) {
	params := template.Parameters{
		"year":     years(2000, 8),
		"variable": values("v", 20),
	}

	_, err := New().Optimize(params, "year", 10)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeUnsatisfiableBudget))
}

func TestOptimize_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		params template.Parameters
		param  string
		budget int64
		field  string
	}{
		{"missing split parameter", template.Parameters{"variable": {"temp"}}, "year", 10, "split_parameter"},
		{"empty split parameter", template.Parameters{"year": {}}, "year", 10, "split_parameter"},
		{"zero budget", template.Parameters{"year": {"2010"}}, "year", 0, "budget"},
		{"negative budget", template.Parameters{"year": {"2010"}}, "year", -5, "budget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Optimize(tt.params, tt.param, tt.budget)
			require.Error(t, err)
			assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeInvalidRequest))
			assert.Equal(t, tt.field, cerrors.Field(err))
		})
	}
}

func TestOptimize_DoesNotMutateInput(t *testing.T) {
	params := template.Parameters{
		"year":     years(1990, 9),
		"variable": {"a", "b", "c"},
	}
	before := params.Clone()

	res, err := New().Optimize(params, "year", 4)
	require.NoError(t, err)
	assert.Equal(t, before, params)

	res.Parts[0]["year"][0] = "changed"
	assert.Equal(t, before, params)
}

func TestOptimize_Deterministic(t *testing.T) {
	params := template.Parameters{
		"year":  years(1950, 37),
		"month": values("m", 12),
	}

	first, err := New().Optimize(params, "year", 50)
	require.NoError(t, err)
	for range 5 {
		again, err := New().Optimize(params, "year", 50)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestOptimize_CustomCostFunc(t *testing.T) {
	calls := 0
	flat := func(p template.Parameters) int64 {
		calls++
		return int64(len(p["year"])) * 100
	}

	res, err := New(WithCostFunc(flat)).Optimize(template.Parameters{"year": years(2000, 4)}, "year", 200)
	require.NoError(t, err)
	assert.Len(t, res.Parts, 2)
	assert.Positive(t, calls)
}

func TestOptimize_RandomMappings(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for i := range 200 {
		n := r.IntN(30) + 1
		other := r.IntN(20) + 1
		params := template.Parameters{
			"year":  years(1940, n),
			"other": values("o", other),
		}
		budget := int64(r.IntN(60) + 1)

		res, err := New().Optimize(params, "year", budget)
		if int64(other) > budget {
			assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeUnsatisfiableBudget), "case %d", i)
			continue
		}
		require.NoError(t, err, "case %d", i)
		assertPartition(t, params, "year", res.Parts, budget)
		assert.LessOrEqual(t, res.Pops, 2*n-1, "case %d", i)
	}
}

func TestPlan(t *testing.T) {
	state := template.NewStateFromParameters("era5", "reanalysis-era5-single-levels", template.Parameters{
		"year":     years(2010, 4),
		"variable": {"temp", "humidity"},
	})

	plan, err := New().Plan(state, "year", 3)
	require.NoError(t, err)

	assert.Equal(t, "era5", plan.Template)
	assert.Equal(t, "reanalysis-era5-single-levels", plan.DatasetID)
	assert.Equal(t, int64(8), plan.OriginalCost)
	require.Len(t, plan.SubTemplates, 4)
	for i, sub := range plan.SubTemplates {
		assert.Equal(t, fmt.Sprintf("sub_era5_%03d", i+1), sub.Name)
		assert.Equal(t, int64(2), sub.Cost)
	}

	states := plan.States()
	require.Len(t, states, 4)
	assert.Equal(t, "reanalysis-era5-single-levels", states[2].DatasetID)
	assert.Equal(t, []string{"2012"}, states[2].Values("year"))
}

type fakePersister struct {
	got []*template.State
	err error
}

func (f *fakePersister) CreateTemplates(_ context.Context, states []*template.State) ([]template.ID, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = states
	ids := make([]template.ID, len(states))
	for i := range states {
		ids[i] = template.ID(100 + i)
	}
	return ids, nil
}

func TestPersist(t *testing.T) {
	state := template.NewStateFromParameters("t", "ds", template.Parameters{"year": years(2000, 3)})
	plan, err := New().Plan(state, "year", 1)
	require.NoError(t, err)

	store := &fakePersister{}
	require.NoError(t, Persist(context.Background(), store, plan))

	assert.True(t, plan.Persisted)
	require.Len(t, store.got, 3)
	assert.Equal(t, "sub_t_001", store.got[0].Name)
	assert.Equal(t, template.ID(102), plan.SubTemplates[2].ID)
}

func TestPersist_Failure(t *testing.T) {
	state := template.NewStateFromParameters("t", "ds", template.Parameters{"year": years(2000, 2)})
	plan, err := New().Plan(state, "year", 1)
	require.NoError(t, err)

	store := &fakePersister{err: cerrors.Validation("name", "already exists")}
	err = Persist(context.Background(), store, plan)
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeInvalidRequest))
	assert.False(t, plan.Persisted)

	store.err = errors.New("disk full")
	err = Persist(context.Background(), store, plan)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeInternal))
}

func TestPersistAll(t *testing.T) {
	planFor := func(name string, n int) *Plan {
		state := template.NewStateFromParameters(name, "ds", template.Parameters{"year": years(2000, n)})
		plan, err := New().Plan(state, "year", 1)
		require.NoError(t, err)
		return plan
	}

	tests := []struct {
		name       string
		err        error
		wantStored int
		wantIDs    [][]template.ID
	}{
		{name: "single batch", wantStored: 5, wantIDs: [][]template.ID{{100, 101}, {102, 103, 104}}},
		{name: "collision", err: cerrors.Validation("template_name", "already exists")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := []*Plan{planFor("a", 2), planFor("b", 3)}
			store := &fakePersister{err: tt.err}

			err := PersistAll(context.Background(), store, plans)
			assert.Len(t, store.got, tt.wantStored)
			if tt.err != nil {
				assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeInvalidRequest))
				for _, p := range plans {
					assert.False(t, p.Persisted)
					for _, sub := range p.SubTemplates {
						assert.Zero(t, sub.ID)
					}
				}
				return
			}
			require.NoError(t, err)
			for i, p := range plans {
				assert.True(t, p.Persisted)
				for j, sub := range p.SubTemplates {
					assert.Equal(t, tt.wantIDs[i][j], sub.ID)
				}
			}
		})
	}
}

func TestOptimizeAll(t *testing.T) {
	states := []*template.State{
		template.NewStateFromParameters("a", "ds", template.Parameters{"year": years(2000, 6), "v": {"x", "y"}}),
		template.NewStateFromParameters("b", "ds", template.Parameters{"year": years(2000, 2)}),
		template.NewStateFromParameters("c", "ds", template.Parameters{"year": years(2000, 9), "v": {"x"}}),
	}

	plans, err := New().OptimizeAll(context.Background(), states, "year", 4, 2)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "a", plans[0].Template)
	assert.Equal(t, "b", plans[1].Template)
	assert.Len(t, plans[1].SubTemplates, 1)
	assert.Equal(t, "c", plans[2].Template)
}

func TestOptimizeAll_Failure(t *testing.T) {
	states := []*template.State{
		template.NewStateFromParameters("ok", "ds", template.Parameters{"year": years(2000, 2)}),
		template.NewStateFromParameters("bad", "ds", template.Parameters{"variable": {"x"}}),
	}

	plans, err := New().OptimizeAll(context.Background(), states, "year", 4, 0)
	require.Error(t, err)
	assert.Nil(t, plans)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeInvalidRequest))
}
