package policy

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/roach88/oprouter/internal/model"
)

// Env is the world view some criteria need beyond the entity itself.
type Env struct {
	// Objects is searched by WINQ for the next-next station of a route.
	Objects []model.Station
}

// queueLength returns the occupant count of the last object whose ID is one
// of ids, or zero when none matches.
func (e Env) queueLength(ids []string) int {
	next, ok := model.FindStation(e.Objects, ids...)
	if !ok {
		return 0
	}
	return len(next.Occupants())
}

// Self is the extractor for ranking entities directly.
func Self(e model.Entity) model.Entity { return e }

type keyFunc func(model.Entity) float64

// key returns the key extractor for c and whether larger keys rank first.
func (c Criterion) key(env Env) (keyFunc, bool, error) {
	switch c {
	case FIFO, WT:
		return func(e model.Entity) float64 { return e.LastScheduled() }, false, nil
	case Priority:
		return func(e model.Entity) float64 { return float64(e.Priority()) }, false, nil
	case EDD:
		return func(e model.Entity) float64 { return e.DueDate() }, false, nil
	case EOD:
		return func(e model.Entity) float64 { return e.OrderDate() }, false, nil
	case NumStages:
		return func(e model.Entity) float64 { return float64(len(e.RemainingRoute())) }, true, nil
	case RPC:
		return remainingProcessing, true, nil
	case LPT:
		return nextStepMean, true, nil
	case SPT:
		return nextStepMean, false, nil
	case MS:
		return func(e model.Entity) float64 { return e.DueDate() - remainingProcessing(e) }, false, nil
	case WINQ:
		return func(e model.Entity) float64 {
			route := e.RemainingRoute()
			if len(route) < 2 {
				return 0
			}
			return float64(env.queueLength(route[1].StationIDs))
		}, false, nil
	default:
		return nil, false, unknown(string(c))
	}
}

func remainingProcessing(e model.Entity) float64 {
	total := 0.0
	for _, step := range e.RemainingRoute() {
		total += step.Mean()
	}
	return total
}

func nextStepMean(e model.Entity) float64 {
	route := e.RemainingRoute()
	if len(route) == 0 {
		return 0
	}
	return route[0].Mean()
}

// Rank orders items in place by criterion c.
//
// entityOf picks the entity an item is ranked by. Keys are read for every
// item before anything moves, so a failed rank leaves items untouched.
func Rank[T any](c Criterion, items []T, entityOf func(T) model.Entity, env Env) error {
	key, desc, err := c.key(env)
	if err != nil {
		return err
	}

	keys := make([]float64, len(items))
	for i, item := range items {
		e := entityOf(item)
		if e == nil {
			return model.NewConfigurationError(model.MsgNoRankingKey, map[string]string{
				"criterion": string(c),
				"index":     strconv.Itoa(i),
			})
		}
		keys[i] = key(e)
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if desc {
			return cmp.Compare(keys[b], keys[a])
		}
		return cmp.Compare(keys[a], keys[b])
	})

	ranked := make([]T, len(items))
	for i, j := range order {
		ranked[i] = items[j]
	}
	copy(items, ranked)
	return nil
}

// Ranked returns a ranked copy of items, leaving items unchanged.
func Ranked[T any](c Criterion, items []T, entityOf func(T) model.Entity, env Env) ([]T, error) {
	out := slices.Clone(items)
	if err := Rank(c, out, entityOf, env); err != nil {
		return nil, err
	}
	return out, nil
}

// RankBy orders items lexicographically by criteria, the first criterion
// dominating. An empty list leaves items as they are.
func RankBy[T any](criteria []Criterion, items []T, entityOf func(T) model.Entity, env Env) error {
	for i := len(criteria) - 1; i >= 0; i-- {
		if err := Rank(criteria[i], items, entityOf, env); err != nil {
			return err
		}
	}
	return nil
}
