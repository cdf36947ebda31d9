package clash

import (
	"context"
	"fmt"
	"sort"

	"github.com/deadsy/sdfx/sdf"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/chazu/plinth/pkg/events"
	"github.com/chazu/plinth/pkg/geom"
)

// RunClashDetection runs one rule, or every enabled rule when ruleID is
// empty, across all loaded models. New clashes are appended to the stored
// collection and returned. A call made while another run is active fails
// with ErrAlreadyRunning without waiting.
//
// ctx is handed to model accessors; the run itself does not stop early.
func (m *Manager) RunClashDetection(ctx context.Context, ruleID string) ([]Clash, error) {
	if !m.running.CompareAndSwap(false, true) {
		m.metrics.RecordClashRun("rejected", 0)
		return nil, ErrAlreadyRunning
	}
	defer m.running.Store(false)

	rules, err := m.rulesToRun(ruleID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}

	start := m.now()
	ids := lo.Map(rules, func(r ClashRule, _ int) string { return r.ID })
	m.bus.Publish(events.ClashDetectionStarted, events.DetectionStarted{RuleIDs: ids, At: start})
	m.log.Info("clash detection started", "rules", ids)

	run := newRunState(ctx, m)
	run.loadElements(m.snapshotModels())

	var found []*Clash
	for _, rule := range rules {
		found = append(found, m.detectRule(run, rule)...)
	}

	m.mu.Lock()
	m.clashes = append(m.clashes, found...)
	m.mu.Unlock()

	elapsed := m.now().Sub(start)
	m.metrics.RecordClashRun("success", elapsed)
	m.bus.Publish(events.ClashDetectionComplete, events.DetectionComplete{
		RuleIDs:  ids,
		Clashes:  len(found),
		Duration: elapsed,
	})
	m.log.Info("clash detection complete", "rules", ids, "clashes", len(found), "duration", elapsed)

	return lo.Map(found, func(c *Clash, _ int) Clash { return *c }), nil
}

func (m *Manager) rulesToRun(ruleID string) ([]ClashRule, error) {
	if ruleID == "" {
		return lo.Filter(m.Rules(), func(r ClashRule, _ int) bool { return r.Enabled }), nil
	}
	r, err := m.Rule(ruleID)
	if err != nil {
		return nil, err
	}
	return []ClashRule{r}, nil
}

// runState caches element properties and boxes for the duration of a run so
// an element shared by several rules is only measured once.
type runState struct {
	ctx      context.Context
	m        *Manager
	elements []ElementRef
	models   map[string]Model
	boxes    map[ElementRef]sdf.Box3
	failed   map[ElementRef]bool
}

func newRunState(ctx context.Context, m *Manager) *runState {
	return &runState{
		ctx:    ctx,
		m:      m,
		models: make(map[string]Model),
		boxes:  make(map[ElementRef]sdf.Box3),
		failed: make(map[ElementRef]bool),
	}
}

func (s *runState) loadElements(models []Model) {
	for _, model := range models {
		props, err := model.Properties(s.ctx)
		if err != nil {
			s.m.log.Warn("skipping model: properties unavailable", "model", model.ID(), "error", err)
			continue
		}
		s.models[model.ID()] = model
		ids := lo.Keys(props)
		sort.Ints(ids)
		for _, id := range ids {
			p := props[id]
			s.elements = append(s.elements, ElementRef{
				ModelID:   model.ID(),
				ExpressID: id,
				Type:      p.Type,
				Name:      p.Name,
			})
		}
	}
}

// box returns the element's world box and false when extraction failed.
func (s *runState) box(ref ElementRef) (sdf.Box3, bool) {
	if s.failed[ref] {
		return geom.EmptyBox(), false
	}
	if b, ok := s.boxes[ref]; ok {
		return b, true
	}
	b, err := elementBox(s.ctx, s.models[ref.ModelID], ref.ExpressID)
	if err != nil {
		s.failed[ref] = true
		s.m.metrics.RecordElement(true)
		s.m.log.Warn("skipping element: geometry extraction failed", "element", ref.String(), "error", err)
		return geom.EmptyBox(), false
	}
	s.boxes[ref] = b
	s.m.metrics.RecordElement(false)
	return b, true
}

type pairKey struct {
	a, b ElementRef
}

func unorderedKey(x, y ElementRef) pairKey {
	if y.ModelID < x.ModelID || (y.ModelID == x.ModelID && y.ExpressID < x.ExpressID) {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

func (m *Manager) detectRule(run *runState, rule ClashRule) []*Clash {
	setA := rule.SetA.Match(run.elements)
	setB := rule.SetB.Match(run.elements)
	m.log.Debug("rule sets resolved", "rule", rule.ID, "a", setA.Len(), "b", setB.Len())

	index := m.newIndex()
	for i := 0; i < setB.Len(); i++ {
		ref := setB.At(i)
		if b, ok := run.box(ref); ok {
			index.Insert(Item{Ref: ref, Box: b}, b)
		}
	}

	var clashes []*Clash
	reported := make(map[pairKey]bool)
	total := setA.Len()
	for i := 0; i < total; i++ {
		refA := setA.At(i)
		if boxA, ok := run.box(refA); ok && !geom.IsEmpty(boxA) {
			query := geom.Expand(boxA, rule.Tolerance)
			// reach absorbs rounding in the tolerance arithmetic, so a gap
			// equal to the tolerance in decimal still counts.
			reach := geom.Expand(query, queryPad(query))
			for _, cand := range index.QueryOverlapping(reach) {
				if cand.Ref.same(refA) {
					continue
				}
				key := unorderedKey(refA, cand.Ref)
				if reported[key] {
					continue
				}
				if !geom.Intersects(reach, cand.Box) {
					continue
				}
				reported[key] = true
				clashes = append(clashes, m.newClash(rule, refA, cand.Ref, boxA, query, reach, cand.Box))
			}
		}

		if done := i + 1; done%m.progressEvery == 0 || done == total {
			m.bus.Publish(events.ClashDetectionProgress, events.DetectionProgress{
				RuleID:    rule.ID,
				RuleName:  rule.Name,
				Processed: done,
				Total:     total,
			})
		}
	}

	m.log.Debug("rule complete", "rule", rule.ID, "clashes", len(clashes))
	return clashes
}

func (m *Manager) newClash(rule ClashRule, a, b ElementRef, boxA, query, reach, boxB sdf.Box3) *Clash {
	overlap := geom.Overlap(query, boxB)
	if geom.IsEmpty(overlap) {
		overlap = geom.Overlap(reach, boxB)
	}
	now := m.now()
	severity := rule.CheckType.Severity()
	m.metrics.RecordClash(rule.ID, string(severity))
	return &Clash{
		ID:        uuid.NewString(),
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		Severity:  severity,
		Status:    StatusNew,
		ElementA:  a,
		ElementB:  b,
		Point:     geom.Center(overlap),
		Volume:    geom.Volume(overlap),
		Distance:  geom.Gap(boxA, boxB),
		Tolerance: rule.Tolerance,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c Clash) String() string {
	return fmt.Sprintf("%s [%s/%s] %s <-> %s", c.ID, c.Severity, c.Status, c.ElementA, c.ElementB)
}
