// Package strata is an embedded columnar block store.
//
// Records are appended to a block builder one at a time. Every column is
// kept in its own typed vector and serialized with a bit-packing codec, so a
// block of small integers or low-cardinality strings costs a few bits per
// value. Builders are cut into blocks that fit a byte budget with
// TruncateBlock, and serialized blocks are reopened read-only with lazy,
// memoized per-column decoding.
//
// # Packages
//
//   - pkg/bitpack: fixed-width little-endian bit packing
//   - pkg/codec: int64 and string column codecs
//   - pkg/columnar: typed column vectors with filter, reorder and delete
//   - pkg/schema: column types and YAML schemas
//   - pkg/block: builder, serializer, truncation and read-only blocks
//   - pkg/predicate: row-set algebra resolved against a block
//   - pkg/archive: compressed, self-describing block files
//   - pkg/arrowexport: query results as Apache Arrow records
//   - pkg/errors: the error taxonomy shared by every package
//
// # Quick Start
//
//	s, _ := schema.New("people",
//	    schema.Column{Name: "name", Type: schema.TypeString},
//	    schema.Column{Name: "age", Type: schema.TypeInt32Nullable},
//	)
//	b, _ := block.NewBuilder(s)
//	_ = b.AppendRecord(1, []interface{}{"Bob", int32(41)})
//	_ = b.AppendRecord(2, []interface{}{"Alice", nil})
//
//	head, _ := b.TruncateBlock(4096)
//	serialized, _ := head.Serialize()
//
//	ro, _ := block.Open(s, serialized)
//	rows, _ := ro.Query(
//	    predicate.Compare{Column: 0, Op: columnar.Equal, Value: "Bob"},
//	    []int{0, ro.RecordIDColumn()},
//	)
//
// The strata command (cmd/strata) benchmarks truncation on synthetic data
// and inspects or queries archives written to disk.
package strata
