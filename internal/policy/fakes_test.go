package policy

import "github.com/roach88/oprouter/internal/model"

// job is a minimal model.Entity for ranking tests.
type job struct {
	id            string
	priority      int
	due           float64
	order         float64
	lastScheduled float64
	route         []model.RouteStep
}

func (j *job) ID() string                        { return j.id }
func (j *job) CurrentStation() model.Station     { return nil }
func (j *job) Manager() model.Operator           { return nil }
func (j *job) IsCritical() bool                  { return false }
func (j *job) CanProceed() bool                  { return true }
func (j *job) Priority() int                     { return j.priority }
func (j *job) DueDate() float64                  { return j.due }
func (j *job) OrderDate() float64                { return j.order }
func (j *job) LastScheduled() float64            { return j.lastScheduled }
func (j *job) RemainingRoute() []model.RouteStep { return j.route }

// queue only answers ID and Occupants; everything else panics through the
// nil embedded interface.
type queue struct {
	model.Station
	id        string
	occupants int
}

func (q *queue) ID() string { return q.id }

func (q *queue) Occupants() []model.Entity {
	return make([]model.Entity, q.occupants)
}

func step(mean float64, stations ...string) model.RouteStep {
	return model.RouteStep{StationIDs: stations, ProcessingTime: &model.ProcessingTime{Mean: mean}}
}

func ids(jobs []*job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.id
	}
	return out
}

func entityOf(j *job) model.Entity { return j }
