// Package arrowexport converts query results into Apache Arrow records.
//
// A projection is described the same way as for block queries: a list of
// column indexes where block.RowPosition selects the record index and the
// index after the last schema column selects the record id.
package arrowexport

import (
	"io"

	"github.com/RoaringBitmap/roaring"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/strata/pkg/block"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/predicate"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// RowPositionField is the field name of the record index column.
const RowPositionField = "row_position"

// Schema builds the Arrow schema of a projection over s.
func Schema(s *schema.Schema, columns []int) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		switch {
		case c == block.RowPosition:
			fields[i] = arrow.Field{Name: RowPositionField, Type: arrow.PrimitiveTypes.Int64}
		case c == s.Len():
			fields[i] = arrow.Field{Name: schema.RecordIDColumn, Type: arrow.PrimitiveTypes.Int64}
		case c >= 0 && c < s.Len():
			col := s.Columns[c]
			typ, err := arrowType(col.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = arrow.Field{Name: col.Name, Type: typ, Nullable: col.Type.Nullable()}
		default:
			return nil, errors.Newf(errors.ErrorTypeValidation, "column %d is outside [0, %d]", c, s.Len())
		}
	}
	return arrow.NewSchema(fields, nil), nil
}

func arrowType(t schema.Type) (arrow.DataType, error) {
	switch t.Base() {
	case schema.TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case schema.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case schema.TypeString:
		return arrow.BinaryTypes.String, nil
	case schema.TypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "no Arrow type for %s", t)
	}
}

// Record projects columns for rows of b into a single Arrow record. The
// caller must Release it.
func Record(b block.Block, rows *roaring.Bitmap, columns []int) (arrow.Record, error) {
	arrowSchema, err := Schema(b.Schema(), columns)
	if err != nil {
		return nil, err
	}
	values, err := predicate.Project(rows, b, columns)
	if err != nil {
		return nil, err
	}

	rb := array.NewRecordBuilder(memory.DefaultAllocator, arrowSchema)
	defer rb.Release()
	rb.Reserve(len(values))

	for _, record := range values {
		for i, value := range record {
			if err := appendValue(rb.Field(i), value); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeInvariant, "failed to build Arrow record").
					WithDetail("field", arrowSchema.Field(i).Name)
			}
		}
	}
	return rb.NewRecord(), nil
}

// Query resolves p against b and exports the projection.
func Query(b block.Block, p predicate.Predicate, columns []int) (arrow.Record, error) {
	rows, err := predicate.Resolve(p, b)
	if err != nil {
		return nil, err
	}
	return Record(b, rows, columns)
}

func appendValue(builder array.Builder, value interface{}) error {
	if value == nil {
		builder.AppendNull()
		return nil
	}
	switch bld := builder.(type) {
	case *array.Int32Builder:
		if v, ok := value.(int32); ok {
			bld.Append(v)
			return nil
		}
	case *array.Int64Builder:
		if v, ok := value.(int64); ok {
			bld.Append(v)
			return nil
		}
	case *array.StringBuilder:
		if v, ok := value.(string); ok {
			bld.Append(v)
			return nil
		}
	case *array.BooleanBuilder:
		if v, ok := value.(bool); ok {
			bld.Append(v)
			return nil
		}
	}
	return errors.Newf(errors.ErrorTypeInvariant, "value of type %T does not fit %s", value, builder.Type())
}

// WriteIPC writes rec to w in the Arrow IPC file format.
func WriteIPC(w io.Writer, rec arrow.Record) error {
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to create Arrow writer")
	}
	if err := fw.Write(rec); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to write record batch")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to close Arrow writer")
	}
	return nil
}
