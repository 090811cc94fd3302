package predicate

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/errors"
)

// RowPosition selects the record index itself in a projection.
const RowPosition = -1

// Source is the set of columns a predicate is resolved against.
type Source interface {
	RecordCount() int
	Column(i int) (columnar.Reader, error)
}

// Resolve evaluates p against src and returns the matching record indexes.
func Resolve(p Predicate, src Source) (*roaring.Bitmap, error) {
	p, _ = Simplify(p)
	for {
		if r, ok := p.(Result); ok {
			return r.bitmap(), nil
		}

		leaves := Leaves(p)
		if len(leaves) == 0 {
			p, _ = Simplify(Substitute(p, AllRows{}, Range(src.RecordCount())))
			if r, ok := p.(Result); ok {
				return r.bitmap(), nil
			}
			return nil, errors.Newf(errors.ErrorTypeInvariant,
				"predicate %s has no leaves left but did not resolve", p)
		}

		leaf := leaves[0]
		rows, err := Evaluate(leaf, src)
		if err != nil {
			return nil, err
		}
		p, _ = Simplify(Substitute(p, leaf, Result{Rows: rows}))
	}
}

// Evaluate resolves a single Compare or MemberOf leaf.
func Evaluate(leaf Predicate, src Source) (*roaring.Bitmap, error) {
	switch n := leaf.(type) {
	case Compare:
		col, err := src.Column(n.Column)
		if err != nil {
			return nil, err
		}
		rows, err := col.Filter(n.Op, n.Value)
		if err != nil {
			return nil, errors.Wrap(err, errors.TypeOf(err), "failed to evaluate "+n.String())
		}
		return roaring.BitmapOf(rows...), nil

	case MemberOf:
		col, err := src.Column(n.Column)
		if err != nil {
			return nil, err
		}
		members := make(map[interface{}]struct{}, len(n.Values))
		for _, v := range n.Values {
			norm, err := columnar.Normalize(col.Type(), v)
			if err != nil {
				return nil, errors.Wrap(err, errors.TypeOf(err), "failed to evaluate "+n.String())
			}
			members[norm] = struct{}{}
		}
		rows := roaring.New()
		for i := 0; i < col.RecordCount(); i++ {
			if _, ok := members[col.Get(i)]; ok {
				rows.Add(uint32(i))
			}
		}
		return rows, nil

	default:
		return nil, errors.Newf(errors.ErrorTypeInvariant, "%s is not a leaf", leaf)
	}
}

// Project reads the requested columns for every row in rows, in increasing
// row order. RowPosition yields the row index as an int64.
func Project(rows *roaring.Bitmap, src Source, columns []int) ([][]interface{}, error) {
	readers := make([]columnar.Reader, len(columns))
	for i, c := range columns {
		if c == RowPosition {
			continue
		}
		col, err := src.Column(c)
		if err != nil {
			return nil, err
		}
		readers[i] = col
	}
	if !rows.IsEmpty() && int(rows.Maximum()) >= src.RecordCount() {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"row %d is outside a block of %d records", rows.Maximum(), src.RecordCount())
	}

	out := make([][]interface{}, 0, rows.GetCardinality())
	it := rows.Iterator()
	for it.HasNext() {
		row := it.Next()
		record := make([]interface{}, len(columns))
		for i, r := range readers {
			if r == nil {
				record[i] = int64(row)
				continue
			}
			record[i] = r.Get(int(row))
		}
		out = append(out, record)
	}
	return out, nil
}
