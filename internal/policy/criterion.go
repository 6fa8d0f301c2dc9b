// Package policy implements the scheduling criteria used to order competing
// demand: entities waiting to move, or operators by the entity they chose.
//
// Every criterion maps an entity to a numeric key and a direction. Ranking is
// stable, so items with equal keys keep their incoming order. Which entity an
// item is ranked by is decided by the caller through an explicit extractor;
// an item without one is a configuration error.
package policy

import (
	"slices"
	"strings"

	"github.com/roach88/oprouter/internal/model"
)

// Criterion names a scheduling rule.
type Criterion string

const (
	FIFO      Criterion = "FIFO"
	WT        Criterion = "WT"
	Priority  Criterion = "Priority"
	EDD       Criterion = "EDD"
	EOD       Criterion = "EOD"
	NumStages Criterion = "NumStages"
	RPC       Criterion = "RPC"
	LPT       Criterion = "LPT"
	SPT       Criterion = "SPT"
	MS        Criterion = "MS"
	WINQ      Criterion = "WINQ"
)

// Default is the rule a resolver falls back to between cycles.
const Default = WT

// All lists the known criteria in declaration order.
var All = []Criterion{FIFO, WT, Priority, EDD, EOD, NumStages, RPC, LPT, SPT, MS, WINQ}

// Parse resolves a criterion name. Names are case-sensitive.
func Parse(name string) (Criterion, error) {
	for _, c := range All {
		if string(c) == name {
			return c, nil
		}
	}
	return "", unknown(name)
}

// ParseAll resolves a list of criterion names, failing on the first unknown one.
func ParseAll(names []string) ([]Criterion, error) {
	out := make([]Criterion, 0, len(names))
	for _, name := range names {
		c, err := Parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Unify returns the single effective criterion shared by every declared rule.
//
// Names are compared verbatim, so FIFO and WT count as two rules even though
// they rank identically. An empty list yields Default.
func Unify(names []string) (Criterion, error) {
	var distinct []string
	for _, name := range names {
		if !slices.Contains(distinct, name) {
			distinct = append(distinct, name)
		}
	}

	switch len(distinct) {
	case 0:
		return Default, nil
	case 1:
		return Parse(distinct[0])
	default:
		return "", model.NewConfigurationError(model.MsgInconsistentRule, map[string]string{
			"rules": strings.Join(distinct, ","),
		})
	}
}

func unknown(name string) error {
	return model.NewConfigurationError(model.MsgUnknownCriterion, map[string]string{
		"criterion": name,
	})
}
