package columnar

import (
	"math"

	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// Factory creates an empty column.
type Factory func() Column

// Decoder rebuilds a column from a payload holding count records.
type Decoder func(data []byte, count int) (Column, error)

type registration struct {
	factory Factory
	decoder Decoder
}

var registry = map[schema.Type]registration{
	schema.TypeInt32: {
		factory: func() Column { return NewInt32Column(false) },
		decoder: func(data []byte, count int) (Column, error) { return decodeInt(NewInt32Column(false), data, count) },
	},
	schema.TypeInt32Nullable: {
		factory: func() Column { return NewInt32Column(true) },
		decoder: func(data []byte, count int) (Column, error) { return decodeInt(NewInt32Column(true), data, count) },
	},
	schema.TypeInt64: {
		factory: func() Column { return NewInt64Column(false) },
		decoder: func(data []byte, count int) (Column, error) { return decodeInt(NewInt64Column(false), data, count) },
	},
	schema.TypeInt64Nullable: {
		factory: func() Column { return NewInt64Column(true) },
		decoder: func(data []byte, count int) (Column, error) { return decodeInt(NewInt64Column(true), data, count) },
	},
	schema.TypeString: {
		factory: func() Column { return NewStringColumn() },
		decoder: func(data []byte, count int) (Column, error) { return decodeString(data, count) },
	},
	schema.TypeBool: {
		factory: func() Column { return NewBoolColumn(false) },
		decoder: func(data []byte, count int) (Column, error) { return decodeBool(false, data, count) },
	},
	schema.TypeBoolNullable: {
		factory: func() Column { return NewBoolColumn(true) },
		decoder: func(data []byte, count int) (Column, error) { return decodeBool(true, data, count) },
	},
}

func lookup(t schema.Type) (registration, error) {
	r, ok := registry[t]
	if !ok {
		return registration{}, errors.Newf(errors.ErrorTypeValidation, "no column implementation for type %q", t)
	}
	return r, nil
}

// New returns an empty column for t.
func New(t schema.Type) (Column, error) {
	r, err := lookup(t)
	if err != nil {
		return nil, err
	}
	return r.factory(), nil
}

// Decode rebuilds a column of type t from its payload. An empty column has no
// payload: count zero yields an empty column without reading data.
func Decode(t schema.Type, data []byte, count int) (Column, error) {
	r, err := lookup(t)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		if len(data) != 0 {
			return nil, errors.Newf(errors.ErrorTypeCorrupt, "%d bytes of payload for an empty %s column", len(data), t)
		}
		return r.factory(), nil
	}
	col, err := r.decoder(data, count)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "failed to decode "+string(t)+" column").
			WithDetail("record_count", count)
	}
	return col, nil
}

// NewRecordIDColumn returns the non-nullable 64-bit column used for record ids.
func NewRecordIDColumn() *IntColumn[int64] {
	return NewInt64Column(false)
}

// Normalize converts a filter value to the Go type stored by columns of type
// t: a plain int becomes int32 or int64 when it fits. nil is returned as is.
func Normalize(t schema.Type, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch t.Base() {
	case schema.TypeInt32:
		switch v := value.(type) {
		case int32:
			return v, nil
		case int:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, errors.Newf(errors.ErrorTypeValidation, "value %d overflows %s column", v, t)
			}
			return int32(v), nil
		}
	case schema.TypeInt64:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		}
	case schema.TypeString:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case schema.TypeBool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	}
	return nil, typeMismatch(t, value)
}
