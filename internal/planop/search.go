package planop

import "github.com/piwi3910/sliceplan/internal/geometry"

// Order selects traversal direction for FindByType/FindAllByType.
type Order int

const (
	Forward Order = iota
	Backward
)

// FindByType performs a depth-first, pre-order search of root's
// descendants for the first node assignable to T satisfying pred (or
// any such node if pred is nil). maxDepth of nil searches the full
// tree; 0 restricts the search to root's direct children, matching
// spec.md §4.F ("Depth of 0 = direct children only; None = full tree").
// The traversal never revisits a node, since the tree has no cycles.
func FindByType[T Operation](root Operation, order Order, maxDepth *int, pred func(T) bool) (T, bool) {
	var (
		zero   T
		result T
		found  bool
	)
	walk(root, order, maxDepth, 0, func(op Operation) bool {
		if t, ok := op.(T); ok && (pred == nil || pred(t)) {
			result, found = t, true
			return false
		}
		return true
	})
	if !found {
		return zero, false
	}
	return result, true
}

// FindAllByType collects every descendant of root assignable to T
// satisfying pred, in traversal order.
func FindAllByType[T Operation](root Operation, order Order, maxDepth *int, pred func(T) bool) []T {
	var out []T
	walk(root, order, maxDepth, 0, func(op Operation) bool {
		if t, ok := op.(T); ok && (pred == nil || pred(t)) {
			out = append(out, t)
		}
		return true
	})
	return out
}

// walk visits every descendant of root in pre-order, calling visit for
// each. visit returns false to stop the whole search early.
func walk(root Operation, order Order, maxDepth *int, depth int, visit func(Operation) bool) bool {
	children := root.Children()
	if order == Backward {
		for i := len(children) - 1; i >= 0; i-- {
			if !visitNode(children[i], order, maxDepth, depth, visit) {
				return false
			}
		}
		return true
	}
	for _, c := range children {
		if !visitNode(c, order, maxDepth, depth, visit) {
			return false
		}
	}
	return true
}

func visitNode(n Operation, order Order, maxDepth *int, depth int, visit func(Operation) bool) bool {
	if !visit(n) {
		return false
	}
	if maxDepth != nil && depth >= *maxDepth {
		return true
	}
	return walk(n, order, maxDepth, depth+1, visit)
}

// ApplyProcessorsRecursively depth-first recurses root and every
// descendant, invoking process on each node assignable to T (spec.md
// §4.F). Unlike FindByType this visits root itself, so it can be used
// to run a transformer over an entire subtree including its root.
func ApplyProcessorsRecursively[T Operation](root Operation, process func(T)) {
	if t, ok := root.(T); ok {
		process(t)
	}
	for _, c := range root.Children() {
		ApplyProcessorsRecursively(c, process)
	}
}

// FindStartPosition delegates to the first descendant leaf move that
// yields a position (spec.md §4.F).
func FindStartPosition(op Operation) (geometry.Point2, bool) {
	return findPosition(op, false)
}

// FindEndPosition delegates to the last descendant leaf move that
// yields a position.
func FindEndPosition(op Operation) (geometry.Point2, bool) {
	return findPosition(op, true)
}

func findPosition(op Operation, fromEnd bool) (geometry.Point2, bool) {
	children := op.Children()
	if len(children) == 0 {
		switch m := op.(type) {
		case *ExtruderMove:
			return m.Target.XY(), true
		case *ExtrusionMove:
			return m.Target.XY(), true
		default:
			return geometry.Point2{}, false
		}
	}
	if fromEnd {
		for i := len(children) - 1; i >= 0; i-- {
			if p, ok := findPosition(children[i], fromEnd); ok {
				return p, true
			}
		}
		return geometry.Point2{}, false
	}
	for _, c := range children {
		if p, ok := findPosition(c, fromEnd); ok {
			return p, true
		}
	}
	return geometry.Point2{}, false
}
