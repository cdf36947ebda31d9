// Package clash finds intersecting elements across loaded building models.
//
// A Manager holds models, rules and the clashes found so far. Detection
// resolves each rule's two element sets by IFC type, indexes set B in a
// SpatialIndex and tests each element of set A against it using
// axis-aligned bounding boxes.
package clash

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/chazu/plinth/pkg/events"
	"github.com/chazu/plinth/pkg/logger"
	"github.com/chazu/plinth/pkg/metrics"
)

// DefaultProgressEvery is how many set-A elements pass between progress
// events.
const DefaultProgressEvery = 10

// Manager owns rules, models and clashes. All methods are safe for
// concurrent use; only one detection run may be active at a time.
type Manager struct {
	bus           *events.Bus
	log           *logger.Logger
	metrics       *metrics.Registry
	newIndex      IndexFactory
	progressEvery int
	now           func() time.Time
	seed          []ClashRule

	running atomic.Bool

	mu         sync.RWMutex
	models     map[string]Model
	modelOrder []string
	rules      []ClashRule
	clashes    []*Clash
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithMetrics records runs and clashes in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(m *Manager) { m.metrics = r }
}

// WithIndex sets the spatial index used for the broad phase.
func WithIndex(f IndexFactory) Option {
	return func(m *Manager) { m.newIndex = f }
}

// WithProgressEvery sets the progress event interval. Values below 1 are
// ignored.
func WithProgressEvery(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.progressEvery = n
		}
	}
}

// WithRules replaces the default rules. Invalid rules are logged and
// dropped.
func WithRules(rules ...ClashRule) Option {
	return func(m *Manager) { m.seed = rules }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager that publishes to bus. A nil bus disables
// events.
func NewManager(bus *events.Bus, opts ...Option) *Manager {
	m := &Manager{
		bus:           bus,
		log:           logger.Nop(),
		newIndex:      func() SpatialIndex[Item] { return NewRTree[Item]() },
		progressEvery: DefaultProgressEvery,
		now:           time.Now,
		seed:          DefaultRules(),
		models:        make(map[string]Model),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, r := range m.seed {
		if err := m.AddRule(r); err != nil {
			m.log.Warn("dropping rule", "rule", r.ID, "error", err)
		}
	}
	m.seed = nil
	return m
}

// Running reports whether a detection run is in progress.
func (m *Manager) Running() bool {
	return m.running.Load()
}

// ---------------------------------------------------------------------------
// Models
// ---------------------------------------------------------------------------

// LoadModel registers a model, replacing any model with the same id.
func (m *Manager) LoadModel(model Model) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := model.ID()
	if _, exists := m.models[id]; !exists {
		m.modelOrder = append(m.modelOrder, id)
	}
	m.models[id] = model
	m.log.Debug("model loaded", "model", id)
}

// UnloadModel removes a model. Clashes referring to it are kept.
func (m *Manager) UnloadModel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[id]; !ok {
		return fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	delete(m.models, id)
	m.modelOrder = lo.Without(m.modelOrder, id)
	return nil
}

// Models returns the loaded model ids in load order.
func (m *Manager) Models() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.modelOrder...)
}

func (m *Manager) snapshotModels() []Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.modelOrder, func(id string, _ int) Model { return m.models[id] })
}

// ---------------------------------------------------------------------------
// Rules
// ---------------------------------------------------------------------------

// Rules returns a copy of every rule in insertion order.
func (m *Manager) Rules() []ClashRule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.rules, func(r ClashRule, _ int) ClashRule { return r.clone() })
}

// Rule returns the rule with the given id.
func (m *Manager) Rule(id string) (ClashRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.ruleIndex(id)
	if i < 0 {
		return ClashRule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return m.rules[i].clone(), nil
}

// AddRule validates and stores a rule.
func (m *Manager) AddRule(r ClashRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ruleIndex(r.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, r.ID)
	}
	m.rules = append(m.rules, r.clone())
	return nil
}

// UpdateRule replaces the rule with the same id.
func (m *Manager) UpdateRule(r ClashRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.ruleIndex(r.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, r.ID)
	}
	m.rules[i] = r.clone()
	return nil
}

// RemoveRule deletes a rule. Clashes it produced are kept.
func (m *Manager) RemoveRule(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.ruleIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	m.rules = append(m.rules[:i], m.rules[i+1:]...)
	return nil
}

// SetRuleEnabled toggles whether a rule runs when no rule id is given.
func (m *Manager) SetRuleEnabled(id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.ruleIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	m.rules[i].Enabled = enabled
	return nil
}

// ruleIndex must be called with mu held.
func (m *Manager) ruleIndex(id string) int {
	for i, r := range m.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// Clashes
// ---------------------------------------------------------------------------

// Clashes returns every stored clash in detection order.
func (m *Manager) Clashes() []Clash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.clashes, func(c *Clash, _ int) Clash { return *c })
}

// Clash returns one clash by id.
func (m *Manager) Clash(id string) (Clash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.findClash(id)
	if c == nil {
		return Clash{}, fmt.Errorf("%w: %s", ErrClashNotFound, id)
	}
	return *c, nil
}

// ClashesByStatus returns stored clashes in status s.
func (m *Manager) ClashesByStatus(s Status) []Clash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := lo.Filter(m.clashes, func(c *Clash, _ int) bool { return c.Status == s })
	return lo.Map(matched, func(c *Clash, _ int) Clash { return *c })
}

// SetClashStatus moves a clash to a new status if the transition is allowed.
func (m *Manager) SetClashStatus(id string, s Status) error {
	m.mu.Lock()
	c := m.findClash(id)
	if c == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrClashNotFound, id)
	}
	from := c.Status
	if !from.CanTransition(s) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, s)
	}
	if from == s {
		m.mu.Unlock()
		return nil
	}
	c.Status = s
	c.UpdatedAt = m.now()
	m.mu.Unlock()

	m.bus.Publish(events.ClashStatusChanged, events.StatusChanged{
		ClashID: id,
		From:    string(from),
		To:      string(s),
	})
	return nil
}

// SetClashNote attaches a free-text note to a clash.
func (m *Manager) SetClashNote(id, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.findClash(id)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrClashNotFound, id)
	}
	c.Note = note
	c.UpdatedAt = m.now()
	return nil
}

// ClearClashes discards every stored clash.
func (m *Manager) ClearClashes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clashes = nil
}

// Stats counts stored clashes by status and severity.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Total:      len(m.clashes),
		ByStatus:   lo.CountValuesBy(m.clashes, func(c *Clash) Status { return c.Status }),
		BySeverity: lo.CountValuesBy(m.clashes, func(c *Clash) Severity { return c.Severity }),
	}
}

// findClash must be called with mu held.
func (m *Manager) findClash(id string) *Clash {
	for _, c := range m.clashes {
		if c.ID == id {
			return c
		}
	}
	return nil
}
