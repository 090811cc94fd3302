// Package columnar implements the typed columns a block is made of.
//
// # Column types
//
// Four implementations cover the seven schema types:
//
//   - IntColumn[int32] for int32 and int32?
//   - IntColumn[int64] for int64, int64? and the record id column
//   - StringColumn for string, which is always nullable
//   - BoolColumn for bool and bool?, a proxy over an int32 column holding 0/1
//
// Nullable integer columns store nulls in-band as the type minimum
// (math.MinInt32, math.MinInt64). That value is rejected on Append and in
// Filter so it can never be confused with data. Get returns nil for null
// records; every other value is returned as the column's Go type.
//
// # Construction
//
// Columns are created through a static registry keyed by schema.Type:
//
//	col, err := columnar.New(schema.TypeInt64Nullable)
//	_ = col.Append(int64(42))
//	_ = col.Append(nil)
//
//	payload, stats, err := col.Serialize()
//	decoded, err := columnar.Decode(schema.TypeInt64Nullable, payload, stats.Count)
//
// # Filtering
//
// Filter scans the column buffer linearly and returns matching record indexes
// in increasing order. Integer columns first clip the requested range to the
// column's min/max, so filters outside the value range return without
// scanning. Filter values must have the column's Go type; a plain int is
// accepted for integer columns when it fits. Boolean columns support only
// Equal and NotEqual.
//
// # Mutation
//
// Columns are not safe for concurrent mutation. Reorder applies a
// permutation; DeleteRecords compacts the buffer in place in a single pass.
// Both keep Stats current.
package columnar
