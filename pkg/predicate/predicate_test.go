package predicate

import (
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/schema"
	"github.com/ajitpratap0/strata/pkg/testutil"
)

type table []columnar.Column

func (t table) RecordCount() int { return t[0].RecordCount() }

func (t table) Column(i int) (columnar.Reader, error) {
	if i < 0 || i >= len(t) {
		return nil, errors.Newf(errors.ErrorTypeValidation, "no column %d", i)
	}
	return t[i], nil
}

func column(t *testing.T, typ schema.Type, values ...interface{}) columnar.Column {
	t.Helper()
	col, err := columnar.New(typ)
	require.NoError(t, err)
	for _, v := range values {
		require.NoError(t, col.Append(v))
	}
	return col
}

func oneToTwenty(t *testing.T) table {
	values := make([]interface{}, 20)
	for i := range values {
		values[i] = int64(i + 1)
	}
	return table{column(t, schema.TypeInt64, values...)}
}

func resolve(t *testing.T, p Predicate, src Source) []uint32 {
	t.Helper()
	rows, err := Resolve(p, src)
	require.NoError(t, err)
	return rows.ToArray()
}

func TestResolveRange(t *testing.T) {
	src := oneToTwenty(t)
	p := And{
		Left:  Compare{Column: 0, Op: columnar.Greater, Value: int64(5)},
		Right: Compare{Column: 0, Op: columnar.Less, Value: int64(12)},
	}

	// Values 6..11 sit at indexes 5..10.
	assert.Equal(t, []uint32{5, 6, 7, 8, 9, 10}, resolve(t, p, src))
}

func TestResolveStringEquality(t *testing.T) {
	src := table{column(t, schema.TypeString, "Bob", "Alice", "Bob")}
	p := Compare{Column: 0, Op: columnar.Equal, Value: "Bob"}
	assert.Equal(t, []uint32{0, 2}, resolve(t, p, src))
}

func TestSimplifyLaws(t *testing.T) {
	leaf := Compare{Column: 0, Op: columnar.Equal, Value: int64(3)}

	got, changed := Simplify(And{Left: AllRows{}, Right: leaf})
	assert.True(t, changed)
	assert.True(t, Equal(leaf, got))

	got, _ = Simplify(And{Left: leaf, Right: AllRows{}})
	assert.True(t, Equal(leaf, got))

	got, _ = Simplify(Or{Left: AllRows{}, Right: leaf})
	assert.True(t, Equal(AllRows{}, got))

	got, _ = Simplify(Or{Left: leaf, Right: AllRows{}})
	assert.True(t, Equal(AllRows{}, got))

	got, _ = Simplify(Not{Inner: leaf})
	assert.True(t, Equal(Subtract{Left: AllRows{}, Right: leaf}, got))

	got, changed = Simplify(leaf)
	assert.False(t, changed)
	assert.True(t, Equal(leaf, got))
}

func TestSimplifyResults(t *testing.T) {
	a := Rows(1, 2, 3)
	b := Rows(2, 3, 4)

	got, _ := Simplify(And{Left: a, Right: b})
	assert.True(t, Equal(Rows(2, 3), got))

	got, _ = Simplify(Or{Left: a, Right: b})
	assert.True(t, Equal(Rows(1, 2, 3, 4), got))

	got, _ = Simplify(Subtract{Left: a, Right: b})
	assert.True(t, Equal(Rows(1), got))

	nested := Or{Left: And{Left: a, Right: b}, Right: Subtract{Left: b, Right: a}}
	got, _ = Simplify(nested)
	assert.True(t, Equal(Rows(2, 3, 4), got))
}

func TestResolveLaws(t *testing.T) {
	rng := testutil.Rand(17)
	src := table{
		column(t, schema.TypeInt32Nullable, testutil.Int32s(rng, 200, 0, 20, 0.2)...),
		column(t, schema.TypeString, testutil.Strings(rng, 200, 5, 0.2)...),
	}
	preds := []Predicate{
		Compare{Column: 0, Op: columnar.GreaterOrEqual, Value: int32(10)},
		Compare{Column: 1, Op: columnar.NotEqual, Value: "value-0002"},
		MemberOf{Column: 0, Values: []interface{}{int32(1), 2, nil}},
		Or{
			Left:  Compare{Column: 0, Op: columnar.Less, Value: 3},
			Right: Compare{Column: 1, Op: columnar.Equal, Value: nil},
		},
	}

	all := Range(200).Rows.ToArray()
	for _, p := range preds {
		t.Run(p.String(), func(t *testing.T) {
			direct := resolve(t, p, src)
			assert.Equal(t, direct, resolve(t, And{Left: AllRows{}, Right: p}, src))
			assert.Equal(t, all, resolve(t, Or{Left: AllRows{}, Right: p}, src))
			assert.Equal(t, direct, resolve(t, Not{Inner: Not{Inner: p}}, src))

			complement := resolve(t, Not{Inner: p}, src)
			union := roaring.Or(roaring.BitmapOf(direct...), roaring.BitmapOf(complement...))
			assert.Equal(t, all, union.ToArray())
			assert.True(t, roaring.And(roaring.BitmapOf(direct...), roaring.BitmapOf(complement...)).IsEmpty())
		})
	}
}

func TestResolveAllRows(t *testing.T) {
	src := oneToTwenty(t)
	assert.Len(t, resolve(t, AllRows{}, src), 20)
	assert.Empty(t, resolve(t, Not{Inner: AllRows{}}, src))
}

func TestResolveMemberOf(t *testing.T) {
	src := table{column(t, schema.TypeString, "a", nil, "c", "a", "d")}

	got := resolve(t, MemberOf{Column: 0, Values: []interface{}{"a", "d"}}, src)
	assert.Equal(t, []uint32{0, 3, 4}, got)

	got = resolve(t, MemberOf{Column: 0, Values: []interface{}{nil}}, src)
	assert.Equal(t, []uint32{1}, got)

	_, err := Resolve(MemberOf{Column: 0, Values: []interface{}{1}}, src)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestResolveRepeatedLeaf(t *testing.T) {
	src := oneToTwenty(t)
	leaf := Compare{Column: 0, Op: columnar.LessOrEqual, Value: 4}
	p := Or{Left: leaf, Right: And{Left: leaf, Right: Compare{Column: 0, Op: columnar.Equal, Value: 20}}}
	assert.Equal(t, []uint32{0, 1, 2, 3}, resolve(t, p, src))
}

func TestResolveErrors(t *testing.T) {
	src := oneToTwenty(t)

	_, err := Resolve(Compare{Column: 0, Op: columnar.Equal, Value: "x"}, src)
	require.Error(t, err)
	assert.True(t, errors.IsCallerError(err))

	_, err = Resolve(Compare{Column: 3, Op: columnar.Equal, Value: int64(1)}, src)
	require.Error(t, err)
}

func TestLeavesOrder(t *testing.T) {
	a := Compare{Column: 0, Op: columnar.Equal, Value: 1}
	b := MemberOf{Column: 1, Values: []interface{}{"x"}}
	c := Compare{Column: 2, Op: columnar.Less, Value: 3}
	p := Subtract{Left: Or{Left: a, Right: Not{Inner: b}}, Right: And{Left: Rows(1), Right: c}}

	leaves := Leaves(p)
	require.Len(t, leaves, 3)
	assert.True(t, Equal(a, leaves[0]))
	assert.True(t, Equal(b, leaves[1]))
	assert.True(t, Equal(c, leaves[2]))
}

func TestSubstitute(t *testing.T) {
	a := Compare{Column: 0, Op: columnar.Equal, Value: 1}
	b := Compare{Column: 0, Op: columnar.Equal, Value: 2}
	p := Or{Left: a, Right: And{Left: a, Right: b}}

	got := Substitute(p, a, Rows(7))
	want := Or{Left: Rows(7), Right: And{Left: Rows(7), Right: b}}
	assert.True(t, Equal(want, got))
	assert.False(t, Equal(p, got))
}

func TestProject(t *testing.T) {
	src := table{
		column(t, schema.TypeInt64, int64(10), int64(20), int64(30)),
		column(t, schema.TypeString, "x", nil, "z"),
	}

	got, err := Project(roaring.BitmapOf(0, 2), src, []int{1, RowPosition, 0})
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{
		{"x", int64(0), int64(10)},
		{"z", int64(2), int64(30)},
	}, got)

	_, err = Project(roaring.BitmapOf(3), src, []int{0})
	require.Error(t, err)

	_, err = Project(roaring.BitmapOf(0), src, []int{5})
	require.Error(t, err)
}
