package kernel

import (
	"errors"
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshBoundingBox(t *testing.T) {
	t.Run("empty mesh is inverted", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
		min, max := m.BoundingBox()
		for i := 0; i < 3; i++ {
			if !math.IsInf(min[i], 1) || !math.IsInf(max[i], -1) {
				t.Fatalf("empty bounds = %v %v, want +Inf/-Inf", min, max)
			}
		}
	})
	t.Run("vertices", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{
			1, -2, 3,
			-4, 5, 0.5,
			2, 0, -1,
		}}
		min, max := m.BoundingBox()
		if min != [3]float64{-4, -2, -1} {
			t.Errorf("min = %v, want [-4 -2 -1]", min)
		}
		if max != [3]float64{2, 5, 3} {
			t.Errorf("max = %v, want [2 5 3]", max)
		}
	})
	t.Run("repeatable", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{0.1, 0.2, 0.3, 7.7, 8.8, 9.9}}
		min1, max1 := m.BoundingBox()
		min2, max2 := m.BoundingBox()
		if min1 != min2 || max1 != max2 {
			t.Error("BoundingBox() is not bit-identical across calls")
		}
	})
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel proves the interface is satisfiable.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{maxBB: [3]float64{x, y, z}}
}

func (k *stubKernel) Extrude(outline []v2.Vec, height float64) (Solid, error) {
	if len(outline) < 3 {
		return nil, errors.New("outline needs 3 points")
	}
	return &stubSolid{maxBB: [3]float64{0, 0, height}}, nil
}

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }
func (k *stubKernel) Rotate(s Solid, _, _, _ float64) Solid    { return s }

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)
var _ Bounded = (*Mesh)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(10, 20, 30)
	min, max := s.BoundingBox()
	if min != [3]float64{0, 0, 0} {
		t.Errorf("Box min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("Box max = %v, want [10 20 30]", max)
	}
}
