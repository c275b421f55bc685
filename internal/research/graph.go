package research

import (
	"context"
	"log/slog"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/models"
)

// Engine is the research graph. Steps run strictly in sequence.
type Engine struct {
	planner  *Planner
	searcher *Searcher
	writer   *Writer
	followUp *FollowUp
	metrics  *Metrics
}

func NewEngine(p *Planner, s *Searcher, w *Writer, f *FollowUp, m *Metrics) *Engine {
	return &Engine{planner: p, searcher: s, writer: w, followUp: f, metrics: m}
}

// Run routes st and executes the chosen path. Tolerated failures are left in
// st.Degradations; the only error returned is the context's.
func (e *Engine) Run(ctx context.Context, st *models.State) error {
	st.Route = Route(st.Topic, st.Messages)
	e.metrics.observeTurn(st.Route)

	if st.Route == models.RouteFollowUp {
		e.followUp.Answer(ctx, st)
	} else {
		steps := []func(context.Context, *models.State){
			e.planner.Plan,
			e.searcher.Search,
			e.writer.Write,
		}
		for _, step := range steps {
			if err := ctx.Err(); err != nil {
				return err
			}
			step(ctx, st)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, d := range st.Degradations {
		e.metrics.observeDegradation(d.Step)
		slog.Warn("research step degraded", "route", st.Route, "step", d.Step, "reason", d.Reason)
	}
	return nil
}
