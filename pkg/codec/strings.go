package codec

import (
	"sort"

	"github.com/ajitpratap0/strata/internal/wire"
	"github.com/ajitpratap0/strata/pkg/bitpack"
	"github.com/ajitpratap0/strata/pkg/errors"
	stringpool "github.com/ajitpratap0/strata/pkg/strings"
)

// String payload layout, little-endian:
//
//	[uniqueCount:u16]                 0 means every item is null; nothing follows
//	[sequenceLength:u16]              characters in the dictionary stream
//	[maxByte:u8]                      largest raw byte in any unique value
//	[packed dictionary stream]        bytes shifted by +1, each value ended by 0
//	[packed ordinals]                 one per item, 1-based, 0 for null
//
// The dictionary stream is packed with bound maxByte+1 and the ordinals with
// bound uniqueCount. Unique values are sorted, so the first and last entries
// are the column minimum and maximum.

// StringStats scans a nullable sequence and returns its stats together with
// the sorted distinct non-null values.
func StringStats(values []string, valid []bool) (Stats[string], []string) {
	stats := Stats[string]{Count: len(values)}
	seen := make(map[string]struct{})
	for i, v := range values {
		if !isValid(valid, i) {
			stats.NullCount++
			continue
		}
		seen[v] = struct{}{}
	}

	unique := make([]string, 0, len(seen))
	for v := range seen {
		unique = append(unique, v)
	}
	sort.Strings(unique)

	if len(unique) > 0 {
		stats.Min = unique[0]
		stats.Max = unique[len(unique)-1]
	}
	return stats, unique
}

func dictionaryShape(unique []string) (seqLen int, maxByte byte) {
	for _, v := range unique {
		seqLen += len(v) + 1
		for i := 0; i < len(v); i++ {
			if v[i] > maxByte {
				maxByte = v[i]
			}
		}
	}
	return seqLen, maxByte
}

// CompressStrings encodes a nullable string sequence with a sorted dictionary.
// valid may be nil when no item is null.
func CompressStrings(values []string, valid []bool) ([]byte, Stats[string], error) {
	if err := checkSequence("string", len(values), valid); err != nil {
		return nil, Stats[string]{}, err
	}

	stats, unique := StringStats(values, valid)
	if len(unique) == 0 {
		return []byte{0, 0}, stats, nil
	}

	seqLen, maxByte := dictionaryShape(unique)
	if seqLen > MaxItems {
		return nil, stats, errors.Newf(errors.ErrorTypeCapacity,
			"dictionary stream of %d characters exceeds %d", seqLen, MaxItems).
			WithDetail("codec", "string").
			WithDetail("unique_values", len(unique))
	}

	charWidth := bitpack.BitsPerValue(uint64(maxByte) + 1)
	ordinalWidth := bitpack.BitsPerValue(uint64(len(unique)))
	size := 2 + 2 + 1 +
		bitpack.PackedSize(seqLen, charWidth) +
		bitpack.PackedSize(len(values), ordinalWidth)

	w := wire.NewWriter(make([]byte, size))
	if err := w.Uint16(uint16(len(unique))); err != nil {
		return nil, stats, err
	}
	if err := w.Uint16(uint16(seqLen)); err != nil {
		return nil, stats, err
	}
	if err := w.Uint8(maxByte); err != nil {
		return nil, stats, err
	}

	chars := make([]uint64, 0, seqLen)
	ordinals := make(map[string]uint64, len(unique))
	for i, v := range unique {
		for j := 0; j < len(v); j++ {
			chars = append(chars, uint64(v[j])+1)
		}
		chars = append(chars, 0)
		ordinals[v] = uint64(i + 1)
	}
	packedChars, err := w.Window(bitpack.PackedSize(seqLen, charWidth))
	if err != nil {
		return nil, stats, err
	}
	bitpack.PackInto(packedChars, chars, charWidth)

	rows := make([]uint64, len(values))
	for i, v := range values {
		if isValid(valid, i) {
			rows[i] = ordinals[v]
		}
	}
	packedRows, err := w.Window(bitpack.PackedSize(len(values), ordinalWidth))
	if err != nil {
		return nil, stats, err
	}
	bitpack.PackInto(packedRows, rows, ordinalWidth)

	return w.Bytes(), stats, nil
}

// DecompressStrings decodes a payload produced for count items. The returned
// validity mask is nil when no item is null. Null slots hold "".
func DecompressStrings(data []byte, count int) ([]string, []bool, error) {
	if err := checkCount("string", count); err != nil {
		return nil, nil, err
	}

	r := wire.NewReader(data)
	uniqueCount, err := r.Uint16()
	if err != nil {
		return nil, nil, err
	}
	values := make([]string, count)
	if uniqueCount == 0 {
		return values, make([]bool, count), expectConsumed("string", r.Remaining())
	}

	seqLen, err := r.Uint16()
	if err != nil {
		return nil, nil, err
	}
	maxByte, err := r.Uint8()
	if err != nil {
		return nil, nil, err
	}

	charWidth := bitpack.BitsPerValue(uint64(maxByte) + 1)
	packedChars, err := r.Window(bitpack.PackedSize(int(seqLen), charWidth))
	if err != nil {
		return nil, nil, err
	}
	chars := make([]uint64, seqLen)
	if err := bitpack.UnpackInto(chars, packedChars, charWidth); err != nil {
		return nil, nil, err
	}
	unique, err := splitDictionary(chars, int(uniqueCount))
	if err != nil {
		return nil, nil, err
	}

	ordinalWidth := bitpack.BitsPerValue(uint64(uniqueCount))
	packedRows, err := r.Window(bitpack.PackedSize(count, ordinalWidth))
	if err != nil {
		return nil, nil, err
	}
	rows := make([]uint64, count)
	if err := bitpack.UnpackInto(rows, packedRows, ordinalWidth); err != nil {
		return nil, nil, err
	}

	var valid []bool
	for i, ordinal := range rows {
		switch {
		case ordinal == 0:
			if valid == nil {
				valid = make([]bool, count)
				for j := 0; j < i; j++ {
					valid[j] = true
				}
			}
		case ordinal > uint64(uniqueCount):
			return nil, nil, corruptf("string", "ordinal %d at row %d exceeds dictionary of %d", ordinal, i, uniqueCount)
		default:
			values[i] = unique[ordinal-1]
			if valid != nil {
				valid[i] = true
			}
		}
	}
	return values, valid, expectConsumed("string", r.Remaining())
}

func splitDictionary(chars []uint64, uniqueCount int) ([]string, error) {
	unique := make([]string, 0, uniqueCount)
	b := stringpool.GetBuilder(stringpool.Small)
	defer stringpool.PutBuilder(b, stringpool.Small)

	for _, c := range chars {
		if c == 0 {
			unique = append(unique, stringpool.Clone(b.String()))
			b.Reset()
			continue
		}
		if c > 256 {
			return nil, corruptf("string", "dictionary character %d out of byte range", c)
		}
		_ = b.WriteByte(byte(c - 1))
	}
	if b.Len() != 0 {
		return nil, corruptf("string", "dictionary stream ends without terminator")
	}
	if len(unique) != uniqueCount {
		return nil, corruptf("string", "dictionary holds %d values, header says %d", len(unique), uniqueCount)
	}
	return unique, nil
}
