// Package archive frames serialized blocks for persistence.
//
// An archive holds one block payload, optionally compressed, behind a small
// header carrying the record count and per-column null counts:
//
//	[version u8][algorithm u8][record count u16][column count u16]
//	[count u16][null count u16]   x column count
//	[raw length u32][payload]
//
// All integers are little-endian. Column minimums and maximums are not
// stored; they are rebuilt when a column is decoded.
package archive

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/internal/wire"
	"github.com/ajitpratap0/strata/pkg/block"
	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/compression"
	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/metrics"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// Version is the envelope version written by this package.
const Version uint8 = 1

// maxRawSize bounds the raw payload of a column count: every column payload
// length fits in 16 bits.
func maxRawSize(columns int) int {
	return columns * (2 + 0xFFFF)
}

// algorithmIDs assigns the stable on-disk code of each algorithm.
var algorithmIDs = map[compression.Algorithm]uint8{
	compression.None:    0,
	compression.Gzip:    1,
	compression.Snappy:  2,
	compression.LZ4:     3,
	compression.Zstd:    4,
	compression.S2:      5,
	compression.Deflate: 6,
}

func algorithmOf(id uint8) (compression.Algorithm, bool) {
	for a, code := range algorithmIDs {
		if code == id {
			return a, true
		}
	}
	return "", false
}

// ColumnHeader is the stored count metadata of one column.
type ColumnHeader struct {
	Count     int `json:"count"`
	NullCount int `json:"null_count"`
}

// Header describes an archive without decoding its payload.
type Header struct {
	Version        uint8                 `json:"version"`
	Algorithm      compression.Algorithm `json:"algorithm"`
	RecordCount    int                   `json:"record_count"`
	Columns        []ColumnHeader        `json:"columns"`
	RawSize        int                   `json:"raw_size"`
	CompressedSize int                   `json:"compressed_size"`
}

// CompressionConfig maps the archive section of the configuration.
func CompressionConfig(cfg config.ArchiveConfig) (*compression.Config, error) {
	algo, err := compression.ParseAlgorithm(cfg.CompressionAlgorithm)
	if err != nil {
		return nil, err
	}
	level, err := compression.ParseLevel(cfg.CompressionLevel)
	if err != nil {
		return nil, err
	}
	return &compression.Config{Algorithm: algo, Level: level}, nil
}

// Writer frames serialized blocks. It is safe for concurrent use.
type Writer struct {
	comp   compression.Compressor
	id     uint8
	logger *zap.Logger
}

// NewWriter creates a writer compressing with cfg. A nil cfg uses the
// compression package default.
func NewWriter(cfg *compression.Config, log *zap.Logger) (*Writer, error) {
	comp, err := compression.NewCompressor(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Named("archive")
	}
	return &Writer{
		comp:   comp,
		id:     algorithmIDs[comp.Algorithm()],
		logger: log,
	}, nil
}

// Encode frames s and returns the archive bytes.
func (w *Writer) Encode(s *block.Serialized) ([]byte, error) {
	timer := metrics.NewTimer("archive_encode")
	defer timer.ObserveLatency()

	if s.RecordCount > block.MaxRecords {
		return nil, errors.Newf(errors.ErrorTypeCapacity, "block holds %d records, more than %d", s.RecordCount, block.MaxRecords)
	}
	if len(s.Columns) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "serialized block carries no column stats")
	}
	if len(s.Columns) > 0xFFFF {
		return nil, errors.Newf(errors.ErrorTypeCapacity, "block has %d columns", len(s.Columns))
	}

	head := make([]byte, headerSize(len(s.Columns)))
	hw := wire.NewWriter(head)
	_ = hw.Uint8(Version)
	_ = hw.Uint8(w.id)
	_ = hw.Uint16(uint16(s.RecordCount))
	_ = hw.Uint16(uint16(len(s.Columns)))
	for i, c := range s.Columns {
		if c.Count != s.RecordCount || c.NullCount < 0 || c.NullCount > c.Count {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %d reports %d records with %d nulls in a block of %d", i, c.Count, c.NullCount, s.RecordCount)
		}
		_ = hw.Uint16(uint16(c.Count))
		_ = hw.Uint16(uint16(c.NullCount))
	}
	_ = hw.Uint32(uint32(len(s.Data)))

	out, err := w.comp.Compress(head, s.Data)
	if err != nil {
		return nil, err
	}

	w.logger.Debug("encoded archive",
		zap.String("algorithm", string(w.comp.Algorithm())),
		zap.Int("records", s.RecordCount),
		zap.Int("raw_bytes", len(s.Data)),
		zap.Int("archive_bytes", len(out)))
	return out, nil
}

// EncodeBlock serializes b and frames the result.
func (w *Writer) EncodeBlock(b *block.Builder) ([]byte, error) {
	s, err := b.Serialize()
	if err != nil {
		return nil, err
	}
	return w.Encode(s)
}

func headerSize(columns int) int {
	return 1 + 1 + 2 + 2 + 4*columns + 4
}

// ReadHeader parses the envelope and returns it with the compressed payload.
func ReadHeader(data []byte) (*Header, []byte, error) {
	r := wire.NewReader(data)
	version, err := r.Uint8()
	if err != nil {
		return nil, nil, headerError(err)
	}
	if version != Version {
		return nil, nil, errors.Newf(errors.ErrorTypeCorrupt, "unsupported archive version %d", version)
	}
	id, err := r.Uint8()
	if err != nil {
		return nil, nil, headerError(err)
	}
	algo, ok := algorithmOf(id)
	if !ok {
		return nil, nil, errors.Newf(errors.ErrorTypeCorrupt, "unknown compression algorithm code %d", id)
	}
	records, err := r.Uint16()
	if err != nil {
		return nil, nil, headerError(err)
	}
	count, err := r.Uint16()
	if err != nil {
		return nil, nil, headerError(err)
	}

	h := &Header{
		Version:     version,
		Algorithm:   algo,
		RecordCount: int(records),
		Columns:     make([]ColumnHeader, count),
	}
	for i := range h.Columns {
		n, err := r.Uint16()
		if err != nil {
			return nil, nil, headerError(err)
		}
		nulls, err := r.Uint16()
		if err != nil {
			return nil, nil, headerError(err)
		}
		if int(n) != h.RecordCount || nulls > n {
			return nil, nil, errors.Newf(errors.ErrorTypeCorrupt,
				"column %d claims %d records with %d nulls in a block of %d", i, n, nulls, h.RecordCount)
		}
		h.Columns[i] = ColumnHeader{Count: int(n), NullCount: int(nulls)}
	}

	raw, err := r.Uint32()
	if err != nil {
		return nil, nil, headerError(err)
	}
	if int64(raw) > int64(maxRawSize(len(h.Columns))) {
		return nil, nil, errors.Newf(errors.ErrorTypeCorrupt,
			"raw size %d exceeds the largest block of %d columns", raw, len(h.Columns))
	}
	h.RawSize = int(raw)

	payload, _ := r.Window(r.Remaining())
	h.CompressedSize = len(payload)
	return h, payload, nil
}

func headerError(err error) error {
	return errors.Wrap(err, errors.ErrorTypeCorrupt, "truncated archive header")
}

// Decode opens an archive as a read-only block of schema s.
func Decode(s *schema.Schema, data []byte, opts ...block.Option) (*block.ReadOnly, *Header, error) {
	timer := metrics.NewTimer("archive_decode")
	defer timer.ObserveLatency()

	h, payload, err := ReadHeader(data)
	if err != nil {
		return nil, nil, err
	}
	if len(h.Columns) != s.Len()+1 {
		return nil, nil, errors.Newf(errors.ErrorTypeValidation,
			"archive has %d columns, schema %q expects %d", len(h.Columns), s.Name, s.Len()+1)
	}

	comp, err := decompressor(h.Algorithm)
	if err != nil {
		return nil, nil, err
	}
	raw := make([]byte, h.RawSize)
	if err := comp.Decompress(raw, payload); err != nil {
		return nil, nil, err
	}

	stats := make([]columnar.Stats, len(h.Columns))
	for i, c := range h.Columns {
		stats[i] = columnar.Stats{Count: c.Count, NullCount: c.NullCount}
	}
	ro, err := block.Open(s, &block.Serialized{Data: raw, RecordCount: h.RecordCount, Columns: stats}, opts...)
	if err != nil {
		return nil, nil, err
	}
	return ro, h, nil
}

var decompressors sync.Map

// decompressor returns a shared compressor for algo. The level does not
// affect decompression.
func decompressor(algo compression.Algorithm) (compression.Compressor, error) {
	if c, ok := decompressors.Load(algo); ok {
		return c.(compression.Compressor), nil
	}
	c, err := compression.NewCompressor(&compression.Config{Algorithm: algo, Level: compression.Default})
	if err != nil {
		return nil, err
	}
	actual, _ := decompressors.LoadOrStore(algo, c)
	return actual.(compression.Compressor), nil
}

// WriteFile encodes s and writes the archive to path.
func (w *Writer) WriteFile(path string, s *block.Serialized) error {
	data, err := w.Encode(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to write archive").
			WithDetail("path", path)
	}
	return nil
}

// ReadFile reads and decodes the archive at path.
func ReadFile(path string, s *schema.Schema, opts ...block.Option) (*block.ReadOnly, *Header, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read archive").
			WithDetail("path", path)
	}
	return Decode(s, data, opts...)
}
