package predicate

import "github.com/RoaringBitmap/roaring"

// Simplify rewrites p to a fixed point and reports whether anything changed.
//
// Rules, applied bottom-up:
//
//	And(AllRows, X) = X              And(X, AllRows) = X
//	And(Result a, Result b) = Result(a ∩ b)
//	Or(AllRows, X) = AllRows         Or(X, AllRows) = AllRows
//	Or(Result a, Result b) = Result(a ∪ b)
//	Not(X) = Subtract(AllRows, X)
//	Subtract(Result a, Result b) = Result(a \ b)
//
// Every rule is a set identity, so simplification never changes the rows a
// tree selects.
func Simplify(p Predicate) (Predicate, bool) {
	changed := false
	for {
		next, step := simplifyOnce(p)
		if !step {
			return p, changed
		}
		p, changed = next, true
	}
}

func simplifyOnce(p Predicate) (Predicate, bool) {
	switch n := p.(type) {
	case And:
		left, lc := simplifyOnce(n.Left)
		right, rc := simplifyOnce(n.Right)
		if isAll(left) {
			return right, true
		}
		if isAll(right) {
			return left, true
		}
		if a, b, ok := results(left, right); ok {
			return Result{Rows: roaring.And(a, b)}, true
		}
		if lc || rc {
			return And{Left: left, Right: right}, true
		}
		return p, false

	case Or:
		left, lc := simplifyOnce(n.Left)
		right, rc := simplifyOnce(n.Right)
		if isAll(left) || isAll(right) {
			return AllRows{}, true
		}
		if a, b, ok := results(left, right); ok {
			return Result{Rows: roaring.Or(a, b)}, true
		}
		if lc || rc {
			return Or{Left: left, Right: right}, true
		}
		return p, false

	case Not:
		return Subtract{Left: AllRows{}, Right: n.Inner}, true

	case Subtract:
		left, lc := simplifyOnce(n.Left)
		right, rc := simplifyOnce(n.Right)
		if a, b, ok := results(left, right); ok {
			return Result{Rows: roaring.AndNot(a, b)}, true
		}
		if lc || rc {
			return Subtract{Left: left, Right: right}, true
		}
		return p, false

	default:
		return p, false
	}
}

func isAll(p Predicate) bool {
	_, ok := p.(AllRows)
	return ok
}

func results(left, right Predicate) (*roaring.Bitmap, *roaring.Bitmap, bool) {
	a, ok := left.(Result)
	if !ok {
		return nil, nil, false
	}
	b, ok := right.(Result)
	if !ok {
		return nil, nil, false
	}
	return a.bitmap(), b.bitmap(), true
}
