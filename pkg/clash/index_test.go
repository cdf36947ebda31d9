package clash

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/plinth/pkg/geom"
)

func indexes() map[string]func() SpatialIndex[int] {
	return map[string]func() SpatialIndex[int]{
		"rtree":  func() SpatialIndex[int] { return NewRTree[int]() },
		"linear": func() SpatialIndex[int] { return NewLinear[int]() },
	}
}

func sortedQuery(idx SpatialIndex[int], b sdf.Box3) []int {
	got := idx.QueryOverlapping(b)
	sort.Ints(got)
	return got
}

func TestIndexQuery(t *testing.T) {
	for name, newIdx := range indexes() {
		t.Run(name, func(t *testing.T) {
			idx := newIdx()
			idx.Insert(1, box(0, 0, 0, 1, 1, 1))
			idx.Insert(2, box(1, 0, 0, 2, 1, 1)) // shares a face with 1
			idx.Insert(3, box(5, 5, 5, 6, 6, 6))
			idx.Insert(4, box(3, 3, 3, 3, 4, 4)) // zero thickness in x
			idx.Insert(5, geom.EmptyBox())
			require.Equal(t, 4, idx.Len())

			assert.Equal(t, []int{1, 2}, sortedQuery(idx, box(0.5, 0.5, 0.5, 1.5, 0.6, 0.6)))
			assert.Equal(t, []int{1, 2}, sortedQuery(idx, box(1, 0, 0, 1, 1, 1)))
			assert.Equal(t, []int{2}, sortedQuery(idx, box(2, 1, 1, 3, 2, 2)), "corner touch")
			assert.Equal(t, []int{4}, sortedQuery(idx, box(2.5, 3.5, 3.5, 3.5, 3.6, 3.6)))
			assert.Empty(t, sortedQuery(idx, box(2.1, 2.1, 2.1, 2.9, 2.9, 2.9)))
			assert.Empty(t, sortedQuery(idx, geom.EmptyBox()))
		})
	}
}

func TestIndexEmpty(t *testing.T) {
	for name, newIdx := range indexes() {
		t.Run(name, func(t *testing.T) {
			idx := newIdx()
			assert.Equal(t, 0, idx.Len())
			assert.Empty(t, idx.QueryOverlapping(box(0, 0, 0, 1, 1, 1)))
		})
	}
}

func TestIndexFactoryFor(t *testing.T) {
	f, err := IndexFactoryFor("")
	require.NoError(t, err)
	assert.IsType(t, &RTree[Item]{}, f())

	f, err = IndexFactoryFor(IndexLinear)
	require.NoError(t, err)
	assert.IsType(t, &Linear[Item]{}, f())

	_, err = IndexFactoryFor("kd-tree")
	assert.Error(t, err)
}

// randomGridBox builds boxes on an integer grid so touching faces and
// zero-thickness boxes come up often.
func randomGridBox(r *rand.Rand) sdf.Box3 {
	x, y, z := float64(r.Intn(20)), float64(r.Intn(20)), float64(r.Intn(20))
	return box(x, y, z, x+float64(r.Intn(5)), y+float64(r.Intn(5)), z+float64(r.Intn(5)))
}

func TestRTreeMatchesLinear(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("rtree and linear agree", prop.ForAll(
		func(seed int64, n int) bool {
			r := rand.New(rand.NewSource(seed))
			tree, lin := NewRTree[int](), NewLinear[int]()
			for i := 0; i < n; i++ {
				b := randomGridBox(r)
				tree.Insert(i, b)
				lin.Insert(i, b)
			}
			for q := 0; q < 20; q++ {
				b := randomGridBox(r)
				got, want := sortedQuery(tree, b), sortedQuery(lin, b)
				if len(got) != len(want) {
					return false
				}
				for i := range got {
					if got[i] != want[i] {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(), gen.IntRange(0, 200),
	))

	properties.TestingRun(t)
}
