package clash

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	"github.com/dhconnelly/rtreego"

	"github.com/chazu/plinth/pkg/geom"
)

// SpatialIndex answers "which stored boxes overlap this box". Overlap is
// closed: touching boxes overlap. Empty boxes are never stored or matched.
type SpatialIndex[T any] interface {
	Insert(item T, box sdf.Box3)
	QueryOverlapping(box sdf.Box3) []T
	Len() int
}

// Item is what the manager stores in its index: an element and its box.
type Item struct {
	Ref ElementRef
	Box sdf.Box3
}

// IndexFactory creates an empty index for one rule evaluation.
type IndexFactory func() SpatialIndex[Item]

// Index kinds accepted by IndexFactoryFor.
const (
	IndexRTree  = "rtree"
	IndexLinear = "linear"
)

// IndexFactoryFor maps a configured index kind to a factory.
func IndexFactoryFor(kind string) (IndexFactory, error) {
	switch kind {
	case "", IndexRTree:
		return func() SpatialIndex[Item] { return NewRTree[Item]() }, nil
	case IndexLinear:
		return func() SpatialIndex[Item] { return NewLinear[Item]() }, nil
	default:
		return nil, fmt.Errorf("clash: unknown index kind %q", kind)
	}
}

// R-tree node fan-out.
const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
)

type rtreeEntry[T any] struct {
	item T
	box  sdf.Box3
	rect rtreego.Rect
}

func (e *rtreeEntry[T]) Bounds() rtreego.Rect { return e.rect }

// RTree is a SpatialIndex backed by an R-tree.
type RTree[T any] struct {
	tree *rtreego.Rtree
	n    int
}

// NewRTree creates an empty 3D R-tree.
func NewRTree[T any]() *RTree[T] {
	return &RTree[T]{tree: rtreego.NewTree(3, rtreeMinChildren, rtreeMaxChildren)}
}

func (r *RTree[T]) Insert(item T, box sdf.Box3) {
	if geom.IsEmpty(box) {
		return
	}
	rect, err := toRect(box)
	if err != nil {
		return
	}
	r.tree.Insert(&rtreeEntry[T]{item: item, box: box, rect: rect})
	r.n++
}

// QueryOverlapping returns stored items whose box intersects box. The tree
// treats shared faces as disjoint, so the query is padded slightly and the
// hits are re-checked with closed bounds.
func (r *RTree[T]) QueryOverlapping(box sdf.Box3) []T {
	if geom.IsEmpty(box) || r.n == 0 {
		return nil
	}
	rect, err := toRect(geom.Expand(box, queryPad(box)))
	if err != nil {
		return nil
	}
	var out []T
	for _, hit := range r.tree.SearchIntersect(rect) {
		e := hit.(*rtreeEntry[T])
		if geom.Intersects(box, e.box) {
			out = append(out, e.item)
		}
	}
	return out
}

func (r *RTree[T]) Len() int { return r.n }

func toRect(b sdf.Box3) (rtreego.Rect, error) {
	return rtreego.NewRectFromPoints(
		rtreego.Point{b.Min.X, b.Min.Y, b.Min.Z},
		rtreego.Point{b.Max.X, b.Max.Y, b.Max.Z},
	)
}

func queryPad(b sdf.Box3) float64 {
	m := math.Max(
		math.Max(math.Abs(b.Min.X), math.Abs(b.Max.X)),
		math.Max(
			math.Max(math.Abs(b.Min.Y), math.Abs(b.Max.Y)),
			math.Max(math.Abs(b.Min.Z), math.Abs(b.Max.Z)),
		),
	)
	return 1e-9 * (1 + m)
}

type linearEntry[T any] struct {
	item T
	box  sdf.Box3
}

// Linear is a brute-force SpatialIndex. It is exact and is used to
// cross-check the R-tree.
type Linear[T any] struct {
	entries []linearEntry[T]
}

// NewLinear creates an empty linear index.
func NewLinear[T any]() *Linear[T] {
	return &Linear[T]{}
}

func (l *Linear[T]) Insert(item T, box sdf.Box3) {
	if geom.IsEmpty(box) {
		return
	}
	l.entries = append(l.entries, linearEntry[T]{item: item, box: box})
}

func (l *Linear[T]) QueryOverlapping(box sdf.Box3) []T {
	var out []T
	for _, e := range l.entries {
		if geom.Intersects(box, e.box) {
			out = append(out, e.item)
		}
	}
	return out
}

func (l *Linear[T]) Len() int { return len(l.entries) }
