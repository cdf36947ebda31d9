// Package app wires the engine, room detector and clash manager into one
// service. The CLI drives it; a UI could bind to the same methods.
package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/chazu/plinth/pkg/clash"
	"github.com/chazu/plinth/pkg/config"
	"github.com/chazu/plinth/pkg/engine"
	"github.com/chazu/plinth/pkg/events"
	"github.com/chazu/plinth/pkg/kernel"
	"github.com/chazu/plinth/pkg/kernel/sdfx"
	"github.com/chazu/plinth/pkg/logger"
	"github.com/chazu/plinth/pkg/metrics"
	"github.com/chazu/plinth/pkg/plan"
	"github.com/chazu/plinth/pkg/rooms"
	"github.com/chazu/plinth/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App holds the current plan and everything derived from it.
type App struct {
	cfg     *config.Config
	log     *logger.Logger
	bus     *events.Bus
	metrics *metrics.Registry
	engine  *engine.Engine
	kernel  kernel.Kernel
	clash   *clash.Manager

	mu     sync.Mutex
	plan   *plan.Plan
	rooms  []*rooms.Room
	models []string
}

// MeshData is the JSON-serializable mesh format sent to a renderer.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// EvalResult is the outcome of Evaluate.
type EvalResult struct {
	Rooms    []*rooms.Room        `json:"rooms"`
	Errors   []engine.EvalError   `json:"errors"`
	Warnings []engine.EvalWarning `json:"warnings"`
}

// OK reports whether the evaluation produced a usable plan.
func (r EvalResult) OK() bool { return len(r.Errors) == 0 }

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithBus publishes detection events on b instead of a private bus.
func WithBus(b *events.Bus) Option {
	return func(a *App) { a.bus = b }
}

// WithMetrics records into r instead of a private registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(a *App) { a.metrics = r }
}

// New builds an App from cfg. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, log: logger.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	if a.bus == nil {
		a.bus = events.NewBus()
	}
	if a.metrics == nil {
		a.metrics = metrics.NewRegistry()
	}

	index, err := clash.IndexFactoryFor(cfg.Clash.Index)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	var rules []clash.ClashRule
	if !cfg.Clash.DisableDefaults {
		rules = clash.DefaultRules()
	}
	rules = append(rules, cfg.Clash.Rules...)

	a.engine = engine.NewEngine(
		engine.WithTimeout(cfg.Engine.Timeout),
		engine.WithLogger(a.log.With("component", "engine")),
	)
	a.kernel = sdfx.New(sdfx.WithMeshCells(cfg.Mesh.Cells))
	a.clash = clash.NewManager(a.bus,
		clash.WithLogger(a.log.With("component", "clash")),
		clash.WithMetrics(a.metrics),
		clash.WithIndex(index),
		clash.WithProgressEvery(cfg.Clash.ProgressEvery),
		clash.WithRules(rules...),
	)
	return a, nil
}

// Bus returns the event bus detection events are published on.
func (a *App) Bus() *events.Bus { return a.bus }

// Metrics returns the metrics registry.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Clash returns the clash manager for rule and clash management.
func (a *App) Clash() *clash.Manager { return a.clash }

// Plan returns the last successfully evaluated plan, or nil.
func (a *App) Plan() *plan.Plan {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan
}

// Evaluate runs source, validates the plan, re-detects rooms and reloads
// the clash models. On any error the previous plan stays current.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Rooms:    []*rooms.Room{},
		Errors:   []engine.EvalError{},
		Warnings: []engine.EvalWarning{},
	}

	// Step 1: Evaluate the source into a plan.
	p, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.log.Error("evaluate failed", "error", err)
		result.Errors = append(result.Errors, engine.EvalError{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		result.Errors = append(result.Errors, evalErrs...)
		return result
	}

	// Step 2: Validate. Structural errors block the rest.
	upm := p.UnitsPerMeter()
	roomCfg := a.cfg.RoomsFor(upm)
	vr := plan.ValidateAll(p, roomCfg.SnapTolerance)
	for _, e := range vr.Errors {
		result.Errors = append(result.Errors, engine.EvalError{Message: e.Error()})
	}
	for _, w := range vr.Warnings {
		result.Warnings = append(result.Warnings, engine.EvalWarning{EntityID: w.EntityID, Message: w.Message})
	}
	if !vr.OK() {
		return result
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Step 3: Detect rooms, keeping ids, names and types of rooms that
	// survived the edit.
	det := a.detector(roomCfg)
	found := det.UpdateRooms(p.Entities, a.rooms)
	rooms.ClassifyRooms(found, upm)

	// Step 4: Swap the clash models.
	a.reloadModels(p)

	a.plan = p
	a.rooms = found
	result.Rooms = found
	a.log.Info("plan evaluated",
		"entities", p.EntityCount(),
		"elements", len(p.Elements),
		"rooms", len(found),
		"warnings", len(result.Warnings),
	)
	return result
}

func (a *App) detector(cfg rooms.Config) *rooms.Detector {
	return rooms.NewDetector(a.bus,
		rooms.WithConfig(cfg),
		rooms.WithLogger(a.log.With("component", "rooms")),
		rooms.WithMetrics(a.metrics),
	)
}

// reloadModels loads one clash model per plan model and unloads models the
// new plan no longer has. Callers hold a.mu.
func (a *App) reloadModels(p *plan.Plan) {
	loaded := make(map[string]bool)
	for _, m := range plan.NewModels(p, a.kernel) {
		a.clash.LoadModel(m)
		loaded[m.ID()] = true
	}
	for _, id := range a.models {
		if !loaded[id] {
			if err := a.clash.UnloadModel(id); err != nil {
				a.log.Warn("unload model", "model", id, "error", err)
			}
		}
	}
	a.models = p.ModelNames()
}

// DetectRooms returns the rooms of the current plan.
func (a *App) DetectRooms() []*rooms.Room {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*rooms.Room(nil), a.rooms...)
}

// RunClashDetection checks the current plan's models against one rule, or
// all enabled rules when ruleID is empty.
func (a *App) RunClashDetection(ctx context.Context, ruleID string) ([]clash.Clash, error) {
	return a.clash.RunClashDetection(ctx, ruleID)
}

// Tessellate meshes the current plan, adding floor slabs for rooms when
// slabs is set.
func (a *App) Tessellate(slabs bool) ([]MeshData, error) {
	a.mu.Lock()
	p, rs := a.plan, a.rooms
	a.mu.Unlock()
	if p == nil {
		return []MeshData{}, nil
	}

	meshes, err := tessellate.Tessellate(p, a.kernel)
	if err != nil {
		return nil, err
	}
	if slabs && len(rs) > 0 {
		extra, err := tessellate.Slabs(rs, a.kernel, a.cfg.Mesh.SlabThickness*p.UnitsPerMeter())
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, extra...)
	}

	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Name:     m.Name,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out, nil
}

// Export formats.
const (
	FormatCSV = "csv"
	FormatBCF = "bcf"
)

// ExportClashes writes every stored clash in the given format.
func (a *App) ExportClashes(w io.Writer, format string) error {
	clashes := a.clash.Clashes()
	switch format {
	case FormatCSV:
		return clash.WriteCSV(w, clashes)
	case FormatBCF:
		return clash.WriteBCF(w, clashes)
	default:
		return fmt.Errorf("app: unknown export format %q", format)
	}
}
