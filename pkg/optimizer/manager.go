package optimizer

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/mandelsoft/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/providers"
)

const DEFAULT_STEPS = 5

const tracerName = "github.com/mandelsoft/fusion/pkg/optimizer"

// Result describes a manager run.
type Result struct {
	RunId       string
	Steps       int
	Modified    bool
	NodesBefore int
	NodesAfter  int
	// Applied counts the steps in which a transformer modified the graph.
	Applied map[string]int
}

// Manager applies the registered transformers in registration order,
// repeatedly, until a complete step leaves the graph unchanged or the
// step limit is reached.
type Manager struct {
	transformers []Transformer
	providers    providers.Set
	steps        int
	tracer       trace.Tracer
}

type Option func(m *Manager)

// WithSteps limits the number of steps. Values below one select the
// default.
func WithSteps(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.steps = n
		}
	}
}

// WithProviders restricts the transformers to nodes placed on the
// given providers.
func WithProviders(names ...string) Option {
	return func(m *Manager) {
		m.providers = providers.NewSet(names...)
	}
}

// WithTracer configures the tracer. By default, the tracer of the
// global provider is used.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		providers: providers.NewSet(),
		steps:     DEFAULT_STEPS,
		tracer:    otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Register adds a transformer. Names must be unique.
func (m *Manager) Register(t Transformer) error {
	if slices.ContainsFunc(m.transformers, func(e Transformer) bool { return e.Name() == t.Name() }) {
		return fmt.Errorf("transformer %q already registered", t.Name())
	}
	m.transformers = append(m.transformers, t)
	return nil
}

func (m *Manager) Transformers() []string {
	var r []string
	for _, t := range m.transformers {
		r = append(r, t.Name())
	}
	return r
}

func (m *Manager) Steps() int {
	return m.steps
}

// Apply runs the transformers on the graph. The context is checked
// between steps only; a single transformer run is never interrupted.
func (m *Manager) Apply(ctx context.Context, g *graph.Graph) (*Result, error) {
	r := &Result{
		RunId:       uuid.NewString(),
		NodesBefore: g.NumNodes(),
		Applied:     map[string]int{},
	}
	log := log.WithValues("runid", r.RunId, "graph", g.Name())

	ctx, span := m.tracer.Start(ctx, "optimizer.apply", trace.WithAttributes(
		attribute.String("optimizer.run_id", r.RunId),
		attribute.String("graph.name", g.Name()),
		attribute.Int("graph.nodes", r.NodesBefore),
	))
	defer span.End()

	log.Info("optimizing graph with {{transformers}} (max {{steps}} steps)", "transformers", m.Transformers(), "steps", m.steps)
	for r.Steps < m.steps {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return r, err
		}
		r.Steps++
		modified, err := m.step(ctx, log, g, r)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.NodesAfter = g.NumNodes()
			return r, err
		}
		if !modified {
			break
		}
		r.Modified = true
	}
	r.NodesAfter = g.NumNodes()
	span.SetAttributes(
		attribute.Int("optimizer.steps", r.Steps),
		attribute.Bool("optimizer.modified", r.Modified),
		attribute.Int("graph.nodes_after", r.NodesAfter),
	)
	log.Info("optimization done after {{steps}} steps: {{before}} -> {{after}} nodes", "steps", r.Steps, "before", r.NodesBefore, "after", r.NodesAfter)
	return r, nil
}

func (m *Manager) step(ctx context.Context, log logging.Logger, g *graph.Graph, r *Result) (bool, error) {
	_, span := m.tracer.Start(ctx, "optimizer.step", trace.WithAttributes(attribute.Int("optimizer.step", r.Steps)))
	defer span.End()

	modified := false
	for _, t := range m.transformers {
		mod, err := t.Apply(g, m.providers)
		if err != nil {
			log.LogError(err, "transformer {{transformer}} failed in step {{step}}", "transformer", t.Name(), "step", r.Steps)
			return modified, fmt.Errorf("transformer %s: %w", t.Name(), err)
		}
		if mod {
			log.Debug("transformer {{transformer}} modified graph in step {{step}}", "transformer", t.Name(), "step", r.Steps)
			r.Applied[t.Name()]++
			modified = true
		}
	}
	span.SetAttributes(attribute.Bool("optimizer.modified", modified))
	return modified, nil
}
