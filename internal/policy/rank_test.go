package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/oprouter/internal/model"
)

// ============================================================================
// Parse / Unify
// ============================================================================

func TestParse_KnownCriteria(t *testing.T) {
	for _, c := range All {
		got, err := Parse(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("XYZ")
	require.Error(t, err)
	assert.True(t, model.IsConfigurationError(err))
	assert.Contains(t, err.Error(), model.MsgUnknownCriterion)
}

func TestParse_CaseSensitive(t *testing.T) {
	_, err := Parse("edd")
	assert.True(t, model.IsConfigurationError(err))
}

func TestParseAll(t *testing.T) {
	got, err := ParseAll([]string{"EDD", "SPT"})
	require.NoError(t, err)
	assert.Equal(t, []Criterion{EDD, SPT}, got)

	_, err = ParseAll([]string{"EDD", "nope"})
	assert.True(t, model.IsConfigurationError(err))
}

func TestUnify(t *testing.T) {
	tests := []struct {
		name    string
		rules   []string
		want    Criterion
		wantErr string
	}{
		{"empty defaults to WT", nil, WT, ""},
		{"single rule", []string{"EDD"}, EDD, ""},
		{"repeated rule", []string{"SPT", "SPT", "SPT"}, SPT, ""},
		{"two rules", []string{"EDD", "SPT"}, "", model.MsgInconsistentRule},
		{"FIFO and WT are distinct names", []string{"FIFO", "WT"}, "", model.MsgInconsistentRule},
		{"unknown single rule", []string{"XYZ"}, "", model.MsgUnknownCriterion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unify(tt.rules)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, model.IsConfigurationError(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnify_ReportsConflictingRules(t *testing.T) {
	_, err := Unify([]string{"EDD", "SPT", "EDD"})
	var me *model.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "EDD,SPT", me.Details["rules"])
}

// ============================================================================
// Key table
// ============================================================================

func TestRank_Criteria(t *testing.T) {
	a := &job{id: "a", priority: 3, due: 10, order: 4, lastScheduled: 5,
		route: []model.RouteStep{step(2, "M1"), step(1, "M2")}}
	b := &job{id: "b", priority: 1, due: 2, order: 9, lastScheduled: 1,
		route: []model.RouteStep{step(7, "M1")}}
	c := &job{id: "c", priority: 2, due: 7, order: 1, lastScheduled: 3,
		route: []model.RouteStep{step(4, "M1"), step(4, "M3"), step(1, "M4")}}

	tests := []struct {
		criterion Criterion
		want      []string
	}{
		{WT, []string{"b", "c", "a"}},
		{FIFO, []string{"b", "c", "a"}},
		{Priority, []string{"b", "c", "a"}},
		{EDD, []string{"b", "c", "a"}},
		{EOD, []string{"c", "a", "b"}},
		{NumStages, []string{"c", "a", "b"}},
		// remaining processing: a=3 b=7 c=9
		{RPC, []string{"c", "b", "a"}},
		// next step mean: a=2 b=7 c=4
		{LPT, []string{"b", "c", "a"}},
		{SPT, []string{"a", "c", "b"}},
		// slack: a=10-3=7 b=2-7=-5 c=7-9=-2
		{MS, []string{"b", "c", "a"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.criterion), func(t *testing.T) {
			items := []*job{a, b, c}
			require.NoError(t, Rank(tt.criterion, items, entityOf, Env{}))
			assert.Equal(t, tt.want, ids(items))
		})
	}
}

func TestRank_WTLaw(t *testing.T) {
	items := []*job{{id: "x", lastScheduled: 5}, {id: "y", lastScheduled: 1}, {id: "z", lastScheduled: 3}}
	require.NoError(t, Rank(WT, items, entityOf, Env{}))
	assert.Equal(t, []string{"y", "z", "x"}, ids(items))
}

func TestRank_EDDLaw(t *testing.T) {
	items := []*job{{id: "x", due: 10}, {id: "y", due: 2}, {id: "z", due: 7}}
	require.NoError(t, Rank(EDD, items, entityOf, Env{}))
	assert.Equal(t, []string{"y", "z", "x"}, ids(items))
}

func TestRank_Stable(t *testing.T) {
	items := []*job{{id: "first", due: 1}, {id: "second", due: 1}, {id: "third", due: 0}}
	require.NoError(t, Rank(EDD, items, entityOf, Env{}))
	assert.Equal(t, []string{"third", "first", "second"}, ids(items))
}

func TestRank_MissingProcessingTimeCountsZero(t *testing.T) {
	bare := &job{id: "bare", route: []model.RouteStep{{StationIDs: []string{"M1"}}}}
	timed := &job{id: "timed", route: []model.RouteStep{step(1, "M1")}}
	empty := &job{id: "empty"}

	items := []*job{timed, bare, empty}
	require.NoError(t, Rank(SPT, items, entityOf, Env{}))
	assert.Equal(t, []string{"bare", "empty", "timed"}, ids(items))

	items = []*job{bare, empty, timed}
	require.NoError(t, Rank(RPC, items, entityOf, Env{}))
	assert.Equal(t, []string{"timed", "bare", "empty"}, ids(items))
}

func TestRank_WINQ(t *testing.T) {
	env := Env{Objects: []model.Station{
		&queue{id: "Q2", occupants: 4},
		&queue{id: "Q3", occupants: 1},
	}}

	busy := &job{id: "busy", route: []model.RouteStep{step(1, "M1"), step(1, "Q2")}}
	quiet := &job{id: "quiet", route: []model.RouteStep{step(1, "M1"), step(1, "Q3")}}
	short := &job{id: "short", route: []model.RouteStep{step(1, "M1")}}
	unknown := &job{id: "unknown", route: []model.RouteStep{step(1, "M1"), step(1, "Q9")}}

	items := []*job{busy, quiet, short, unknown}
	require.NoError(t, Rank(WINQ, items, entityOf, env))
	assert.Equal(t, []string{"short", "unknown", "quiet", "busy"}, ids(items))
}

func TestRank_WINQUsesLastMatchingObject(t *testing.T) {
	env := Env{Objects: []model.Station{
		&queue{id: "Q2", occupants: 0},
		&queue{id: "Q3", occupants: 5},
	}}
	a := &job{id: "a", route: []model.RouteStep{step(1, "M1"), step(1, "Q2", "Q3")}}
	b := &job{id: "b", route: []model.RouteStep{step(1, "M1"), step(1, "Q2")}}

	items := []*job{a, b}
	require.NoError(t, Rank(WINQ, items, entityOf, env))
	assert.Equal(t, []string{"b", "a"}, ids(items))
}

func TestRank_UnknownCriterion(t *testing.T) {
	items := []*job{{id: "a"}}
	err := Rank(Criterion("XYZ"), items, entityOf, Env{})
	assert.True(t, model.IsConfigurationError(err))
}

func TestRank_MissingEntityLeavesItemsUntouched(t *testing.T) {
	type slot struct {
		name string
		e    model.Entity
	}
	items := []slot{{"a", &job{id: "a", due: 9}}, {"b", nil}, {"c", &job{id: "c", due: 1}}}

	err := Rank(EDD, items, func(s slot) model.Entity { return s.e }, Env{})
	require.Error(t, err)
	assert.True(t, model.IsConfigurationError(err))

	var me *model.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "1", me.Details["index"])
	assert.Equal(t, "a", items[0].name)
	assert.Equal(t, "c", items[2].name)
}

func TestRanked_DoesNotMutate(t *testing.T) {
	items := []*job{{id: "x", due: 10}, {id: "y", due: 2}}
	got, err := Ranked(EDD, items, entityOf, Env{})
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, ids(got))
	assert.Equal(t, []string{"x", "y"}, ids(items))
}

func TestRankBy_FirstCriterionDominates(t *testing.T) {
	items := []*job{
		{id: "a", priority: 2, due: 1},
		{id: "b", priority: 1, due: 9},
		{id: "c", priority: 1, due: 3},
	}
	require.NoError(t, RankBy([]Criterion{Priority, EDD}, items, entityOf, Env{}))
	assert.Equal(t, []string{"c", "b", "a"}, ids(items))
}

func TestRankBy_EmptyKeepsOrder(t *testing.T) {
	items := []*job{{id: "a", due: 9}, {id: "b", due: 1}}
	require.NoError(t, RankBy(nil, items, entityOf, Env{}))
	assert.Equal(t, []string{"a", "b"}, ids(items))
}
