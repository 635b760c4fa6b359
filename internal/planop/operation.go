// Package planop implements the hierarchical print-plan tree
// (spec.md §3.2, §4.F): PrintPlan → LayerPlan → ExtruderPlan →
// FeatureExtrusion → ContinuousExtruderMoveSequence, with two leaf move
// kinds (ExtruderMove, ExtrusionMove).
//
// Grounded on the teacher's internal/model.go Project{Parts, Stocks,
// Settings, Result} / SheetResult{Stock, Placements} parent/child
// composition, generalized here with Go generics for the typed-search
// API the spec calls find_by_type<T>.
package planop

import (
	"fmt"

	"github.com/piwi3910/sliceplan/internal/export"
)

// Operation is one node of the print-plan tree: either a leaf move or a
// sequence of child operations. The interface is a Go idiom for the
// spec's tagged variant: implementations outside this package cannot
// satisfy it because setParent is unexported, keeping the set of
// concrete node kinds closed the way a tagged union would.
type Operation interface {
	// Parent returns the owning sequence, or nil for a detached or root
	// node. This is a weak, non-owning back-reference: ownership always
	// runs downward from parent to child.
	Parent() Operation
	// Children returns this node's direct children, or nil for a leaf.
	Children() []Operation
	// Write streams this node (and, for a sequence, its children in
	// order) to exp.
	Write(exp export.Exporter) error

	setParent(Operation)
}

// removable is implemented by every sequence kind via the embedded
// Sequence, letting Detach work generically without a type switch over
// every concrete sequence type.
type removable interface {
	Remove(Operation) bool
}

// Detach removes op from its parent, if any, clearing the parent's
// back-reference to it before returning. Matches the "clear the
// back-reference before release" convention of spec.md §9.
func Detach(op Operation) bool {
	p := op.Parent()
	if p == nil {
		return false
	}
	r, ok := p.(removable)
	if !ok {
		return false
	}
	return r.Remove(op)
}

// leaf is embedded by the two move kinds: it has no children and holds
// only the weak parent back-reference.
type leaf struct {
	parent Operation
}

func (l *leaf) Parent() Operation     { return l.parent }
func (l *leaf) setParent(p Operation) { l.parent = p }
func (l *leaf) Children() []Operation { return nil }

// Sequence is the common behaviour shared by every sequence-kind
// Operation: an owning, ordered child list with a weak parent
// back-reference, plus the mutation primitives of spec.md §4.F. Each
// concrete sequence type embeds a Sequence configured with a validate
// callback that enforces that type's specific invariant (§3.2,
// invariants 2-6) on what may be appended.
type Sequence struct {
	self     Operation
	parent   Operation
	children []Operation
	validate func(Operation) error
}

func newSequence(self Operation, validate func(Operation) error) Sequence {
	return Sequence{self: self, validate: validate}
}

func (s *Sequence) Parent() Operation     { return s.parent }
func (s *Sequence) setParent(p Operation) { s.parent = p }
func (s *Sequence) Children() []Operation { return s.children }

// Append adds child as the new last child, validating it against this
// sequence's invariant and taking ownership (setting its parent).
func (s *Sequence) Append(child Operation) error {
	if s.validate != nil {
		if err := s.validate(child); err != nil {
			return err
		}
	}
	child.setParent(s.self)
	s.children = append(s.children, child)
	return nil
}

// Remove detaches child from this sequence, if present, clearing its
// parent back-reference. Reports whether child was found.
func (s *Sequence) Remove(child Operation) bool {
	for i, c := range s.children {
		if c == child {
			c.setParent(nil)
			s.children = append(s.children[:i], s.children[i+1:]...)
			return true
		}
	}
	return false
}

// InsertAfter inserts child immediately after existing, validating and
// taking ownership as Append does.
func (s *Sequence) InsertAfter(existing, child Operation) error {
	if s.validate != nil {
		if err := s.validate(child); err != nil {
			return err
		}
	}
	idx := -1
	for i, c := range s.children {
		if c == existing {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("planop: InsertAfter: existing child not found in sequence")
	}
	child.setParent(s.self)
	s.children = append(s.children, nil)
	copy(s.children[idx+2:], s.children[idx+1:])
	s.children[idx+1] = child
	return nil
}

// SetChildren replaces the entire child list atomically: detaches every
// current child, validates and attaches every new one.
func (s *Sequence) SetChildren(children []Operation) error {
	if s.validate != nil {
		for _, c := range children {
			if err := s.validate(c); err != nil {
				return err
			}
		}
	}
	for _, c := range s.children {
		c.setParent(nil)
	}
	for _, c := range children {
		c.setParent(s.self)
	}
	s.children = children
	return nil
}

// Write is the default sequence emission: dispatch to each child in
// order (spec.md §4.F).
func (s *Sequence) Write(exp export.Exporter) error {
	for _, c := range s.children {
		if err := c.Write(exp); err != nil {
			return err
		}
	}
	return nil
}

// ancestor walks the parent chain starting at op's parent, returning the
// first ancestor assignable to T. Used by leaf Write implementations to
// gather context (owning feature, layer, extruder plan) the way
// spec.md §4.F describes emission as "gathered from the enclosing
// FeatureExtrusion and ExtruderPlan".
func ancestor[T Operation](op Operation) (T, bool) {
	var zero T
	cur := op.Parent()
	for cur != nil {
		if t, ok := cur.(T); ok {
			return t, true
		}
		cur = cur.Parent()
	}
	return zero, false
}
