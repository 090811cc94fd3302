// Package predicate models row filters as a small algebra of immutable
// nodes and resolves them against a set of columns.
//
// A predicate tree is built from leaves (Compare, MemberOf), combinators
// (And, Or, Not, Subtract) and two constants: AllRows, and Result, which holds
// an already-resolved row set. Resolution repeatedly evaluates the leftmost
// leaf, splices its Result back into the tree and simplifies, until the whole
// tree collapses into a single Result.
//
// The node set is closed: only the types in this package implement Predicate.
package predicate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/ajitpratap0/strata/pkg/columnar"
)

// Predicate is a node of a filter expression.
type Predicate interface {
	fmt.Stringer
	predicate()
}

// AllRows matches every record.
type AllRows struct{}

// Compare matches records where "column op value" holds.
type Compare struct {
	Column int
	Op     columnar.Operator
	Value  interface{}
}

// MemberOf matches records whose value is one of Values. A nil member
// matches null records.
type MemberOf struct {
	Column int
	Values []interface{}
}

// And matches records matched by both sides.
type And struct {
	Left, Right Predicate
}

// Or matches records matched by either side.
type Or struct {
	Left, Right Predicate
}

// Not matches records not matched by Inner.
type Not struct {
	Inner Predicate
}

// Subtract matches records matched by Left but not by Right.
type Subtract struct {
	Left, Right Predicate
}

// Result is a resolved set of record indexes.
type Result struct {
	Rows *roaring.Bitmap
}

func (AllRows) predicate()  {}
func (Compare) predicate()  {}
func (MemberOf) predicate() {}
func (And) predicate()      {}
func (Or) predicate()       {}
func (Not) predicate()      {}
func (Subtract) predicate() {}
func (Result) predicate()   {}

// Rows returns a Result holding the given record indexes.
func Rows(indexes ...uint32) Result {
	return Result{Rows: roaring.BitmapOf(indexes...)}
}

// Range returns a Result holding [0, n).
func Range(n int) Result {
	rows := roaring.New()
	rows.AddRange(0, uint64(n))
	return Result{Rows: rows}
}

func (r Result) bitmap() *roaring.Bitmap {
	if r.Rows == nil {
		return roaring.New()
	}
	return r.Rows
}

func (AllRows) String() string { return "ALL" }

func (c Compare) String() string {
	return fmt.Sprintf("$%d %s %v", c.Column, c.Op, c.Value)
}

func (m MemberOf) String() string {
	parts := make([]string, len(m.Values))
	for i, v := range m.Values {
		parts[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("$%d IN (%s)", m.Column, strings.Join(parts, ", "))
}

func (a And) String() string      { return fmt.Sprintf("(%s AND %s)", a.Left, a.Right) }
func (o Or) String() string       { return fmt.Sprintf("(%s OR %s)", o.Left, o.Right) }
func (n Not) String() string      { return fmt.Sprintf("NOT %s", n.Inner) }
func (s Subtract) String() string { return fmt.Sprintf("(%s EXCEPT %s)", s.Left, s.Right) }

func (r Result) String() string {
	return fmt.Sprintf("ROWS[%d]", r.bitmap().GetCardinality())
}

// Equal reports whether a and b are structurally identical trees.
func Equal(a, b Predicate) bool {
	switch x := a.(type) {
	case AllRows:
		_, ok := b.(AllRows)
		return ok
	case Compare:
		y, ok := b.(Compare)
		return ok && x.Column == y.Column && x.Op == y.Op && reflect.DeepEqual(x.Value, y.Value)
	case MemberOf:
		y, ok := b.(MemberOf)
		return ok && x.Column == y.Column && reflect.DeepEqual(x.Values, y.Values)
	case And:
		y, ok := b.(And)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case Or:
		y, ok := b.(Or)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case Not:
		y, ok := b.(Not)
		return ok && Equal(x.Inner, y.Inner)
	case Subtract:
		y, ok := b.(Subtract)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case Result:
		y, ok := b.(Result)
		return ok && x.bitmap().Equals(y.bitmap())
	}
	return false
}

// Leaves returns the Compare and MemberOf nodes of p, leftmost first.
func Leaves(p Predicate) []Predicate {
	var out []Predicate
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch n := p.(type) {
		case Compare, MemberOf:
			out = append(out, n)
		case And:
			walk(n.Left)
			walk(n.Right)
		case Or:
			walk(n.Left)
			walk(n.Right)
		case Not:
			walk(n.Inner)
		case Subtract:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(p)
	return out
}

// Substitute returns p with every subtree structurally equal to before
// replaced by after.
func Substitute(p, before, after Predicate) Predicate {
	if Equal(p, before) {
		return after
	}
	switch n := p.(type) {
	case And:
		return And{Left: Substitute(n.Left, before, after), Right: Substitute(n.Right, before, after)}
	case Or:
		return Or{Left: Substitute(n.Left, before, after), Right: Substitute(n.Right, before, after)}
	case Not:
		return Not{Inner: Substitute(n.Inner, before, after)}
	case Subtract:
		return Subtract{Left: Substitute(n.Left, before, after), Right: Substitute(n.Right, before, after)}
	default:
		return p
	}
}
