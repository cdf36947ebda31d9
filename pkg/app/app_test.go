package app

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/plinth/pkg/clash"
	"github.com/chazu/plinth/pkg/config"
	"github.com/chazu/plinth/pkg/events"
	"github.com/chazu/plinth/pkg/plan"
	"github.com/chazu/plinth/pkg/rooms"
)

// newApp returns an App with a coarse mesh so tessellation stays fast.
func newApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Mesh.Cells = 48
	a, err := New(cfg)
	require.NoError(t, err)
	return a
}

func readExample(t *testing.T) string {
	t.Helper()
	src, err := os.ReadFile("../../examples/apartment.pln")
	require.NoError(t, err)
	return string(src)
}

// TestE2EApartment exercises the full pipeline: script -> plan -> rooms ->
// clash models -> detection -> meshes.
func TestE2EApartment(t *testing.T) {
	a := newApp(t)

	result := a.Evaluate(readExample(t))
	require.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Empty(t, result.Warnings)

	require.Len(t, result.Rooms, 2)
	for i, r := range result.Rooms {
		assert.InDelta(t, 16e6, r.Area, 1)
		assert.Equal(t, rooms.TypeBedroom, r.Type, "room %d", i)
	}
	assert.Equal(t, "Room 1", result.Rooms[0].Name)
	assert.Less(t, result.Rooms[0].Centroid.X, result.Rooms[1].Centroid.X)

	assert.Equal(t, []string{plan.DefaultModel, "structure", "mep"}, a.Clash().Models())

	clashes, err := a.RunClashDetection(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, clashes, 1)
	c := clashes[0]
	assert.Equal(t, "structure-vs-mep", c.RuleID)
	assert.Equal(t, "partition", c.ElementA.Name)
	assert.Equal(t, plan.WallType, c.ElementA.Type)
	assert.Equal(t, "P1", c.ElementB.Name)
	assert.Equal(t, clash.SeverityHard, c.Severity)
	assert.InDelta(t, 4000, c.Point.X, 1e-6)
	assert.InDelta(t, 1050, c.Point.Y, 1e-6)
	assert.InDelta(t, 1e6, c.Volume, 1e-3)

	meshes, err := a.Tessellate(true)
	require.NoError(t, err)
	// 5 walls, 3 elements, 2 slabs.
	require.Len(t, meshes, 10)
	names := make(map[string]bool)
	vertices := 0
	for _, m := range meshes {
		names[m.Name] = true
		vertices += len(m.Vertices)
		assert.NotEmpty(t, m.Color, "mesh %s has no color", m.Name)
	}
	assert.Greater(t, vertices, 0)
	for _, want := range []string{"flat-s", "partition", "B1", "P1", "D1", "slab:Room 1", "slab:Room 2"} {
		assert.True(t, names[want], "missing mesh %q", want)
	}
}

func TestEvaluateEmptySource(t *testing.T) {
	a := newApp(t)
	result := a.Evaluate("")
	assert.True(t, result.OK())
	assert.Empty(t, result.Rooms)
	assert.NotNil(t, a.Plan())
	assert.Empty(t, a.Clash().Models())

	meshes, err := a.Tessellate(true)
	require.NoError(t, err)
	assert.Empty(t, meshes)
}

func TestTessellateBeforeEvaluate(t *testing.T) {
	meshes, err := newApp(t).Tessellate(false)
	require.NoError(t, err)
	assert.Empty(t, meshes)
}

func TestEvaluateErrorsKeepPreviousPlan(t *testing.T) {
	a := newApp(t)
	require.True(t, a.Evaluate(readExample(t)).OK())
	before := a.Plan()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"syntax error", "(rect :size (vec2 1 1)", ""},
		{"builtin error", "(wall :from (vec2 0 0))", ":to is required"},
		{"validation error", `(wall :from (vec2 0 0) :to (vec2 0 0))`, "zero length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Evaluate(tt.source)
			require.False(t, result.OK())
			assert.Contains(t, result.Errors[0].Message, tt.want)
			assert.Same(t, before, a.Plan())
			assert.Len(t, a.DetectRooms(), 2)
		})
	}
}

func TestEvaluateReportsWarnings(t *testing.T) {
	a := newApp(t)
	result := a.Evaluate(`(wall "stub" :from (vec2 0 0) :to (vec2 1000 0))`)
	require.True(t, result.OK())
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, plan.EntityID("stub"), result.Warnings[0].EntityID)
	assert.Contains(t, result.Warnings[0].Message, "not connected")
}

func TestReevaluateKeepsRoomIdentity(t *testing.T) {
	a := newApp(t)
	src := readExample(t)
	first := a.Evaluate(src)
	require.Len(t, first.Rooms, 2)
	first.Rooms[1].Type = rooms.TypeKitchen

	// Moving the partition keeps both centroids inside their rooms.
	moved := strings.Replace(src, "(vec2 4000 0) :to (vec2 4000 4000)", "(vec2 4500 0) :to (vec2 4500 4000)", 1)
	second := a.Evaluate(moved)
	require.True(t, second.OK(), "errors: %v", second.Errors)
	require.Len(t, second.Rooms, 2)

	for i := range first.Rooms {
		assert.Equal(t, first.Rooms[i].ID, second.Rooms[i].ID)
		assert.Equal(t, first.Rooms[i].Name, second.Rooms[i].Name)
	}
	assert.Equal(t, rooms.TypeKitchen, second.Rooms[1].Type)
}

func TestReevaluateUnloadsRemovedModels(t *testing.T) {
	a := newApp(t)
	require.True(t, a.Evaluate(readExample(t)).OK())
	require.Len(t, a.Clash().Models(), 3)

	require.True(t, a.Evaluate(`(rect :size (vec2 3000 3000))`).OK())
	assert.Equal(t, []string{plan.DefaultModel}, a.Clash().Models())

	clashes, err := a.RunClashDetection(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, clashes)
}

func TestUnitsInMeters(t *testing.T) {
	a := newApp(t)
	result := a.Evaluate(`(units :m) (rect :size (vec2 1.5 5))`)
	require.True(t, result.OK(), "errors: %v", result.Errors)
	require.Len(t, result.Rooms, 1)
	assert.InDelta(t, 7.5, result.Rooms[0].Area, 1e-9)
	assert.Equal(t, rooms.TypeHallway, result.Rooms[0].Type)
}

func TestExportClashes(t *testing.T) {
	a := newApp(t)
	require.True(t, a.Evaluate(readExample(t)).OK())
	_, err := a.RunClashDetection(context.Background(), "structure-vs-mep")
	require.NoError(t, err)

	var csv bytes.Buffer
	require.NoError(t, a.ExportClashes(&csv, FormatCSV))
	lines := strings.Split(strings.TrimSpace(csv.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "partition")

	var bcf bytes.Buffer
	require.NoError(t, a.ExportClashes(&bcf, FormatBCF))
	assert.Contains(t, bcf.String(), "IfcPipeSegment")

	assert.Error(t, a.ExportClashes(&bytes.Buffer{}, "xml"))
}

func TestUnknownRule(t *testing.T) {
	a := newApp(t)
	_, err := a.RunClashDetection(context.Background(), "nope")
	assert.ErrorIs(t, err, clash.ErrRuleNotFound)
}

func TestConfiguredRules(t *testing.T) {
	cfg := config.Default()
	cfg.Clash.DisableDefaults = true
	cfg.Clash.Index = "linear"
	cfg.Clash.Rules = []clash.ClashRule{{
		ID:        "beam-vs-duct",
		Name:      "Beam vs duct",
		Enabled:   true,
		SetA:      clash.ElementFilter{Types: []string{"IfcBeam"}},
		SetB:      clash.ElementFilter{Types: []string{"IfcDuctSegment"}},
		Tolerance: 1000,
		CheckType: clash.CheckSoft,
	}}
	a, err := New(cfg)
	require.NoError(t, err)

	rules := a.Clash().Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "beam-vs-duct", rules[0].ID)

	// The duct runs 900 mm beside and 100 mm below the beam.
	require.True(t, a.Evaluate(readExample(t)).OK())
	clashes, err := a.RunClashDetection(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, clashes, 1)
	assert.Equal(t, clash.SeveritySoft, clashes[0].Severity)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Clash.Index = "octree"
	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestEventsAndMetricsShared(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	roomsSub := bus.Subscribe(ctx, events.RoomsUpdated)
	doneSub := bus.Subscribe(ctx, events.ClashDetectionComplete)

	a, err := New(nil, WithBus(bus))
	require.NoError(t, err)
	assert.Same(t, bus, a.Bus())
	require.NotNil(t, a.Metrics())

	require.True(t, a.Evaluate(readExample(t)).OK())
	_, err = a.RunClashDetection(ctx, "")
	require.NoError(t, err)

	msgs := roomsSub.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.RoomsChanged{Rooms: 2}, msgs[0])

	done := doneSub.Drain()
	require.Len(t, done, 1)
	assert.Equal(t, 1, done[0].(events.DetectionComplete).Clashes)
}
