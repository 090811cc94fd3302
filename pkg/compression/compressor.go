// Package compression provides general-purpose compression for serialized
// Strata blocks.
//
// # Overview
//
// The compression package provides:
//   - Multiple compression algorithms (Gzip, Snappy, LZ4, Zstd, S2, Deflate)
//   - Configurable compression levels (Fastest, Default, Better, Best)
//   - Pooled encoder and decoder state
//   - Appending compression and bounded decompression into caller buffers
//
// Block payloads are already bit-packed, so compression pays off mostly for
// string dictionaries and repetitive integer ranges. Archives record the raw
// size next to the compressed bytes, which lets Decompress write into an
// exactly sized buffer and reject output that runs past it.
//
// # Algorithm Selection
//
// Choose algorithms based on your requirements:
//   - Snappy/S2: Best for speed, moderate compression
//   - LZ4: Extremely fast, decent compression
//   - Zstd: Best compression ratio, good speed
//   - Gzip/Deflate: Wide compatibility, good compression
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//
//	packed, err := comp.Compress(nil, payload)
//
//	raw := make([]byte, len(payload))
//	err = comp.Decompress(raw, packed)
package compression

import (
	"bytes"
	"io"
	"strconv"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// Algorithm represents a compression algorithm.
// Each algorithm has different trade-offs between speed and compression ratio.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents raw deflate compression
	Deflate Algorithm = "deflate"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate}

// ParseAlgorithm maps a configuration value to an Algorithm. The empty
// string means None.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return None, nil
	}
	for _, a := range Algorithms {
		if string(a) == s {
			return a, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", s)
}

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

var levelNames = map[Level]string{
	Fastest: "fastest",
	Default: "default",
	Better:  "better",
	Best:    "best",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// ParseLevel maps a configuration value to a Level. The empty string means
// Default.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return Default, nil
	}
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return 0, errors.Newf(errors.ErrorTypeConfig, "unsupported compression level: %s", s)
}

// Compressor compresses and decompresses whole payloads.
// All implementations are safe for concurrent use.
type Compressor interface {
	// Compress appends the compressed form of data to dst and returns the
	// extended slice. The input data is not modified.
	Compress(dst, data []byte) ([]byte, error)

	// Decompress decodes data into dst, whose length must be the exact
	// decompressed size. Output shorter or longer than dst is a corrupt
	// error.
	Decompress(dst, data []byte) error

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm

	// Level returns the compression level configured.
	Level() Level
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
}

// DefaultConfig returns Zstd at the default level.
func DefaultConfig() *Config {
	return &Config{
		Algorithm: Zstd,
		Level:     Default,
	}
}

// NewCompressor creates a new compressor based on the provided configuration.
// If config is nil, default configuration is used.
//
// Example:
//
//	// Fast compression for spill files
//	fastComp, _ := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.LZ4,
//	    Level:     compression.Fastest,
//	})
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	base := baseCompressor{algorithm: config.Algorithm, level: config.Level}

	switch config.Algorithm {
	case None:
		return &noneCompressor{base}, nil
	case Gzip:
		return newGzipCompressor(base), nil
	case Snappy:
		return &snappyCompressor{base}, nil
	case LZ4:
		return &lz4Compressor{baseCompressor: base, compressionLevel: mapLZ4Level(config.Level)}, nil
	case Zstd:
		return newZstdCompressor(base)
	case S2:
		return &s2Compressor{base}, nil
	case Deflate:
		return &deflateCompressor{baseCompressor: base, flateLevel: mapDeflateLevel(config.Level)}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", config.Algorithm)
	}
}

// Base compressor implementation
type baseCompressor struct {
	algorithm Algorithm
	level     Level
}

// Algorithm returns the compression algorithm
func (bc *baseCompressor) Algorithm() Algorithm {
	return bc.algorithm
}

// Level returns the compression level
func (bc *baseCompressor) Level() Level {
	return bc.level
}

func (bc *baseCompressor) compressError(err error) error {
	return errors.Wrap(err, errors.ErrorTypeInvariant, "compression failed").
		WithDetail("algorithm", string(bc.algorithm))
}

func (bc *baseCompressor) corrupt(err error) error {
	return errors.Wrap(err, errors.ErrorTypeCorrupt, "decompression failed").
		WithDetail("algorithm", string(bc.algorithm))
}

func (bc *baseCompressor) sizeMismatch(got, want int) error {
	return errors.Newf(errors.ErrorTypeCorrupt, "decompressed %d bytes, expected %d", got, want).
		WithDetail("algorithm", string(bc.algorithm))
}

// readExactly fills dst from r and requires r to end right after it.
func (bc *baseCompressor) readExactly(r io.Reader, dst []byte) error {
	if _, err := io.ReadFull(r, dst); err != nil {
		return bc.corrupt(err)
	}
	var extra [1]byte
	n, err := io.ReadFull(r, extra[:])
	if n > 0 {
		return errors.Newf(errors.ErrorTypeCorrupt, "decompressed output exceeds %d bytes", len(dst)).
			WithDetail("algorithm", string(bc.algorithm))
	}
	if err != io.EOF {
		return bc.corrupt(err)
	}
	return nil
}

// None compressor (no compression)
type noneCompressor struct {
	baseCompressor
}

func (nc *noneCompressor) Compress(dst, data []byte) ([]byte, error) {
	return append(dst, data...), nil
}

func (nc *noneCompressor) Decompress(dst, data []byte) error {
	if len(data) != len(dst) {
		return nc.sizeMismatch(len(data), len(dst))
	}
	copy(dst, data)
	return nil
}

// Gzip compressor
type gzipCompressor struct {
	baseCompressor
	writerPool sync.Pool
	readerPool sync.Pool
}

func newGzipCompressor(base baseCompressor) *gzipCompressor {
	level := mapGzipLevel(base.level)
	gc := &gzipCompressor{baseCompressor: base}

	gc.writerPool.New = func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, level)
		return w
	}
	gc.readerPool.New = func() interface{} {
		return new(gzip.Reader)
	}
	return gc
}

func (gc *gzipCompressor) Compress(dst, data []byte) ([]byte, error) {
	w := gc.writerPool.Get().(*gzip.Writer)
	defer gc.writerPool.Put(w)

	buf := bytes.NewBuffer(dst)
	w.Reset(buf)
	if _, err := w.Write(data); err != nil {
		return nil, gc.compressError(err)
	}
	if err := w.Close(); err != nil {
		return nil, gc.compressError(err)
	}
	return buf.Bytes(), nil
}

func (gc *gzipCompressor) Decompress(dst, data []byte) error {
	r := gc.readerPool.Get().(*gzip.Reader)
	defer gc.readerPool.Put(r)

	if err := r.Reset(bytes.NewReader(data)); err != nil {
		return gc.corrupt(err)
	}
	return gc.readExactly(r, dst)
}

// Snappy compressor
type snappyCompressor struct {
	baseCompressor
}

func (sc *snappyCompressor) Compress(dst, data []byte) ([]byte, error) {
	return append(dst, snappy.Encode(nil, data)...), nil
}

func (sc *snappyCompressor) Decompress(dst, data []byte) error {
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return sc.corrupt(err)
	}
	if n != len(dst) {
		return sc.sizeMismatch(n, len(dst))
	}
	if _, err := snappy.Decode(dst, data); err != nil {
		return sc.corrupt(err)
	}
	return nil
}

// LZ4 compressor
type lz4Compressor struct {
	baseCompressor
	compressionLevel lz4.CompressionLevel
}

func (lc *lz4Compressor) Compress(dst, data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w := lz4.NewWriter(buf)

	// Apply compression level using the v4 API
	if err := w.Apply(lz4.CompressionLevelOption(lc.compressionLevel)); err != nil {
		return nil, lc.compressError(err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, lc.compressError(err)
	}
	if err := w.Close(); err != nil {
		return nil, lc.compressError(err)
	}
	return buf.Bytes(), nil
}

func (lc *lz4Compressor) Decompress(dst, data []byte) error {
	return lc.readExactly(lz4.NewReader(bytes.NewReader(data)), dst)
}

// Zstd compressor
type zstdCompressor struct {
	baseCompressor
	encoderLevel zstd.EncoderLevel
	encoderPool  sync.Pool
	decoderPool  sync.Pool
}

// maxZstdWindow caps the window a frame may ask the decoder to allocate.
// Blocks are far smaller than this.
const maxZstdWindow = 8 << 20

func newZstdCompressor(base baseCompressor) (*zstdCompressor, error) {
	zc := &zstdCompressor{baseCompressor: base, encoderLevel: mapZstdLevel(base.level)}

	// Build one encoder and decoder up front so option errors surface here.
	enc, err := zc.newEncoder()
	if err != nil {
		return nil, err
	}
	dec, err := zc.newDecoder()
	if err != nil {
		return nil, err
	}
	zc.encoderPool.Put(enc)
	zc.decoderPool.Put(dec)
	return zc, nil
}

func (zc *zstdCompressor) newEncoder() (*zstd.Encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zc.encoderLevel))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create zstd encoder")
	}
	return enc, nil
}

func (zc *zstdCompressor) newDecoder() (*zstd.Decoder, error) {
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxWindow(maxZstdWindow),
		zstd.WithDecoderMaxMemory(maxZstdWindow))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create zstd decoder")
	}
	return dec, nil
}

func (zc *zstdCompressor) Compress(dst, data []byte) ([]byte, error) {
	enc, ok := zc.encoderPool.Get().(*zstd.Encoder)
	if !ok {
		var err error
		if enc, err = zc.newEncoder(); err != nil {
			return nil, err
		}
	}
	defer zc.encoderPool.Put(enc)

	return enc.EncodeAll(data, dst), nil
}

// Decompress streams the frame into dst, so output never grows past len(dst).
func (zc *zstdCompressor) Decompress(dst, data []byte) error {
	dec, ok := zc.decoderPool.Get().(*zstd.Decoder)
	if !ok {
		var err error
		if dec, err = zc.newDecoder(); err != nil {
			return err
		}
	}
	defer zc.decoderPool.Put(dec)

	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return zc.corrupt(err)
	}
	return zc.readExactly(dec, dst)
}

// S2 compressor (Snappy-compatible but better compression)
type s2Compressor struct {
	baseCompressor
}

func (sc *s2Compressor) Compress(dst, data []byte) ([]byte, error) {
	return append(dst, s2.Encode(nil, data)...), nil
}

func (sc *s2Compressor) Decompress(dst, data []byte) error {
	n, err := s2.DecodedLen(data)
	if err != nil {
		return sc.corrupt(err)
	}
	if n != len(dst) {
		return sc.sizeMismatch(n, len(dst))
	}
	if _, err := s2.Decode(dst, data); err != nil {
		return sc.corrupt(err)
	}
	return nil
}

// Deflate compressor
type deflateCompressor struct {
	baseCompressor
	flateLevel int
}

func (dc *deflateCompressor) Compress(dst, data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w, err := flate.NewWriter(buf, dc.flateLevel)
	if err != nil {
		return nil, dc.compressError(err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, dc.compressError(err)
	}
	if err := w.Close(); err != nil {
		return nil, dc.compressError(err)
	}
	return buf.Bytes(), nil
}

func (dc *deflateCompressor) Decompress(dst, data []byte) error {
	r := flate.NewReader(bytes.NewReader(data))
	defer func() { _ = r.Close() }()

	return dc.readExactly(r, dst)
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapDeflateLevel(level Level) int {
	switch level {
	case Fastest:
		return flate.BestSpeed
	case Best:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}
