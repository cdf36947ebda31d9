package clash

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/plinth/pkg/events"
)

func TestNewManagerSeedsDefaults(t *testing.T) {
	m := NewManager(nil)
	rules := m.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "structure-vs-mep", rules[0].ID)
}

func TestWithRulesDropsInvalid(t *testing.T) {
	good := hardRule("good", []string{"IfcBeam"}, []string{"IfcDuctSegment"}, 0)
	bad := good
	bad.ID = ""
	m := NewManager(nil, WithRules(good, bad))
	require.Len(t, m.Rules(), 1)
	assert.Equal(t, "good", m.Rules()[0].ID)
}

func TestRuleCRUD(t *testing.T) {
	m := NewManager(nil, WithRules())
	r := hardRule("r1", []string{"IfcBeam"}, []string{"IfcPipeSegment"}, 0)

	require.NoError(t, m.AddRule(r))
	assert.ErrorIs(t, m.AddRule(r), ErrDuplicateRule)

	got, err := m.Rule("r1")
	require.NoError(t, err)
	assert.Equal(t, r, got)

	r.Tolerance = 25
	r.CheckType = CheckSoft
	require.NoError(t, m.UpdateRule(r))
	got, _ = m.Rule("r1")
	assert.Equal(t, 25.0, got.Tolerance)
	assert.Equal(t, CheckSoft, got.CheckType)

	require.NoError(t, m.SetRuleEnabled("r1", false))
	got, _ = m.Rule("r1")
	assert.False(t, got.Enabled)

	require.NoError(t, m.RemoveRule("r1"))
	_, err = m.Rule("r1")
	assert.ErrorIs(t, err, ErrRuleNotFound)

	assert.ErrorIs(t, m.UpdateRule(r), ErrRuleNotFound)
	assert.ErrorIs(t, m.RemoveRule("r1"), ErrRuleNotFound)
	assert.ErrorIs(t, m.SetRuleEnabled("r1", true), ErrRuleNotFound)

	r.Name = ""
	assert.ErrorIs(t, m.AddRule(r), ErrInvalidRule)
}

func TestRulesReturnsCopies(t *testing.T) {
	m := NewManager(nil)
	rules := m.Rules()
	rules[0].SetA.Types[0] = "IfcDoor"
	rules[0].Name = "changed"

	again := m.Rules()
	assert.Equal(t, "IfcBeam", again[0].SetA.Types[0])
	assert.Equal(t, "Structure vs MEP", again[0].Name)
}

func TestModels(t *testing.T) {
	m := NewManager(nil)
	m.LoadModel(newFakeModel("arch"))
	m.LoadModel(newFakeModel("mep"))
	m.LoadModel(newFakeModel("arch"))
	assert.Equal(t, []string{"arch", "mep"}, m.Models())

	require.NoError(t, m.UnloadModel("arch"))
	assert.Equal(t, []string{"mep"}, m.Models())
	assert.ErrorIs(t, m.UnloadModel("arch"), ErrModelNotFound)
}

// overlappingPair returns a manager holding one beam and one pipe that
// overlap, plus the clash found for them.
func overlappingPair(t *testing.T, bus *events.Bus, opts ...Option) (*Manager, Clash) {
	t.Helper()
	opts = append([]Option{WithRules(hardRule("r", []string{"IfcBeam"}, []string{"IfcPipeSegment"}, 0))}, opts...)
	m := NewManager(bus, opts...)
	m.LoadModel(newFakeModel("m").
		add(1, "IfcBeam", box(0, 0, 0, 10, 10, 10)).
		add(2, "IfcPipeSegment", box(5, 5, 5, 15, 15, 15)))
	found, err := m.RunClashDetection(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	return m, found[0]
}

func TestSetClashStatus(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe(context.Background(), events.ClashStatusChanged)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m, c := overlappingPair(t, bus, WithClock(func() time.Time { return clock }))
	assert.Equal(t, StatusNew, c.Status)

	clock = clock.Add(time.Hour)
	require.NoError(t, m.SetClashStatus(c.ID, StatusActive))
	got, err := m.Clash(c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, clock, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	assert.ErrorIs(t, m.SetClashStatus(c.ID, StatusNew), ErrInvalidTransition)
	require.NoError(t, m.SetClashStatus(c.ID, StatusActive), "same status is a no-op")
	assert.ErrorIs(t, m.SetClashStatus("missing", StatusActive), ErrClashNotFound)

	msgs := sub.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.StatusChanged{ClashID: c.ID, From: "new", To: "active"}, msgs[0])
}

func TestSetClashNoteAndQueries(t *testing.T) {
	m, c := overlappingPair(t, nil)

	require.NoError(t, m.SetClashNote(c.ID, "reroute pipe below beam"))
	got, _ := m.Clash(c.ID)
	assert.Equal(t, "reroute pipe below beam", got.Note)
	assert.ErrorIs(t, m.SetClashNote("missing", "x"), ErrClashNotFound)

	assert.Len(t, m.ClashesByStatus(StatusNew), 1)
	assert.Empty(t, m.ClashesByStatus(StatusResolved))

	require.NoError(t, m.SetClashStatus(c.ID, StatusResolved))
	assert.Len(t, m.ClashesByStatus(StatusResolved), 1)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[StatusResolved])
	assert.Equal(t, 1, stats.BySeverity[SeverityHard])

	m.ClearClashes()
	assert.Empty(t, m.Clashes())
	assert.Equal(t, 0, m.Stats().Total)
	_, err := m.Clash(c.ID)
	assert.ErrorIs(t, err, ErrClashNotFound)
}

func TestClashesReturnsCopies(t *testing.T) {
	m, c := overlappingPair(t, nil)
	list := m.Clashes()
	list[0].Status = StatusIgnored
	got, _ := m.Clash(c.ID)
	assert.Equal(t, StatusNew, got.Status)
}
