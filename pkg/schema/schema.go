// Package schema describes the ordered, typed column list a block is built
// from. Schemas are plain values: they are declared in code or loaded from
// YAML and validated before a block is constructed.
package schema

import (
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/strata/pkg/errors"
	stringpool "github.com/ajitpratap0/strata/pkg/strings"
)

// Type is the semantic type of a column. A trailing '?' marks a nullable type.
type Type string

const (
	TypeInt32         Type = "int32"
	TypeInt32Nullable Type = "int32?"
	TypeInt64         Type = "int64"
	TypeInt64Nullable Type = "int64?"
	TypeString        Type = "string"
	TypeBool          Type = "bool"
	TypeBoolNullable  Type = "bool?"
)

// RecordIDColumn is the name of the implicit 64-bit record id column every
// block carries after its schema columns.
const RecordIDColumn = "record_id"

var knownTypes = map[Type]struct{}{
	TypeInt32:         {},
	TypeInt32Nullable: {},
	TypeInt64:         {},
	TypeInt64Nullable: {},
	TypeString:        {},
	TypeBool:          {},
	TypeBoolNullable:  {},
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	_, ok := knownTypes[t]
	return ok
}

// Nullable reports whether the type admits nulls. Strings always do.
func (t Type) Nullable() bool {
	switch t {
	case TypeInt32Nullable, TypeInt64Nullable, TypeBoolNullable, TypeString:
		return true
	default:
		return false
	}
}

// Base returns the non-nullable form of t.
func (t Type) Base() Type {
	switch t {
	case TypeInt32Nullable:
		return TypeInt32
	case TypeInt64Nullable:
		return TypeInt64
	case TypeBoolNullable:
		return TypeBool
	default:
		return t
	}
}

func (t Type) String() string { return string(t) }

// Column is a named, typed schema entry.
type Column struct {
	Name string `yaml:"name" json:"name"`
	Type Type   `yaml:"type" json:"type"`
}

// Schema is an ordered list of columns.
type Schema struct {
	Name    string   `yaml:"name,omitempty" json:"name,omitempty"`
	Columns []Column `yaml:"columns" json:"columns"`
}

// New builds a schema from columns and validates it.
func New(name string, columns ...Column) (*Schema, error) {
	s := &Schema{Name: name, Columns: columns}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Parse decodes a YAML schema document and validates it.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to parse schema")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the schema has at least one column, that names are
// unique and non-empty, and that every type is known.
func (s *Schema) Validate() error {
	if len(s.Columns) == 0 {
		return errors.New(errors.ErrorTypeValidation, "schema has no columns")
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for i, c := range s.Columns {
		if c.Name == "" {
			return errors.Newf(errors.ErrorTypeValidation, "column %d has no name", i)
		}
		if c.Name == RecordIDColumn {
			return errors.Newf(errors.ErrorTypeValidation, "column name %q is reserved", RecordIDColumn)
		}
		if _, dup := seen[c.Name]; dup {
			return errors.Newf(errors.ErrorTypeValidation, "duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if !c.Type.Valid() {
			return errors.Newf(errors.ErrorTypeValidation, "column %q has unknown type %q", c.Name, c.Type).
				WithDetail("column", c.Name)
		}
	}
	return nil
}

// Len returns the number of schema columns, excluding the record id.
func (s *Schema) Len() int { return len(s.Columns) }

// Index returns the position of the named column, or -1.
func (s *Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Types returns the column types in order.
func (s *Schema) Types() []Type {
	types := make([]Type, len(s.Columns))
	for i, c := range s.Columns {
		types[i] = c.Type
	}
	return types
}

// Compatible reports whether rows of other can be appended to a block of s:
// same column count and identical types position by position. Names are not
// compared.
func (s *Schema) Compatible(other *Schema) bool {
	if len(s.Columns) != len(other.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i].Type != other.Columns[i].Type {
			return false
		}
	}
	return true
}

// Fingerprint returns a stable textual digest of the column names and types.
func (s *Schema) Fingerprint() string {
	b := stringpool.GetBuilder(stringpool.Small)
	defer stringpool.PutBuilder(b, stringpool.Small)
	for _, c := range s.Columns {
		b.WriteString(c.Name)
		_ = b.WriteByte(':')
		b.WriteString(string(c.Type))
		_ = b.WriteByte(';')
	}
	return stringpool.Clone(b.String())
}
