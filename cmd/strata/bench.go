package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/strata/pkg/archive"
	"github.com/ajitpratap0/strata/pkg/block"
	"github.com/ajitpratap0/strata/pkg/metrics"
	"github.com/ajitpratap0/strata/pkg/observability"
	"github.com/ajitpratap0/strata/pkg/performance"
	"github.com/ajitpratap0/strata/pkg/pool"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// benchReport is the JSON summary printed by the bench command.
type benchReport struct {
	Records       int                        `json:"records"`
	Blocks        int                        `json:"blocks"`
	MaxBlockSize  int                        `json:"max_block_size"`
	TotalBytes    int                        `json:"total_bytes"`
	AverageFill   float64                    `json:"average_fill"`
	BuildDuration time.Duration              `json:"build_duration"`
	BuildRate     float64                    `json:"build_records_per_second"`
	TruncateP50   time.Duration              `json:"truncate_p50"`
	TruncateP99   time.Duration              `json:"truncate_p99"`
	TruncateRate  float64                    `json:"truncate_records_per_second"`
	ArchiveDir    string                     `json:"archive_dir,omitempty"`
	ArchiveBytes  int64                      `json:"archive_bytes,omitempty"`
	BufferPool    pool.Stats                 `json:"buffer_pool"`
	Resources     *performance.ResourceUsage `json:"resources"`
}

func (a *app) benchCommand() *cobra.Command {
	var records int
	var seed int64
	var outDir string

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Build synthetic records and pack them into blocks",
		Long: `Build synthetic records, order them by record id and truncate them into
blocks of the configured size. With --out-dir every block is written as an
archive next to a schema.yaml that inspect and query can read back.

Example:
  strata bench --records 100000 --max-block-size 4096 --out-dir ./blocks`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			report, err := a.runBench(ctx, records, seed, outDir)
			if err != nil {
				return err
			}
			return a.printJSON(report)
		},
	}
	cmd.Flags().IntVar(&records, "records", 100000, "Number of synthetic records")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for record generation")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory to write block archives to (optional)")
	return cmd
}

func benchSchema() *schema.Schema {
	return &schema.Schema{
		Name: "bench",
		Columns: []schema.Column{
			{Name: "name", Type: schema.TypeString},
			{Name: "score", Type: schema.TypeInt32Nullable},
			{Name: "active", Type: schema.TypeBool},
			{Name: "amount", Type: schema.TypeInt64},
		},
	}
}

var benchNames = []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank", "Grace", "Heidi"}

func benchRecord(rng *rand.Rand) []interface{} {
	var score interface{}
	if rng.Intn(10) != 0 {
		score = int32(rng.Intn(1000))
	}
	return []interface{}{
		benchNames[rng.Intn(len(benchNames))],
		score,
		rng.Intn(2) == 0,
		rng.Int63n(1 << 40),
	}
}

func (a *app) runBench(ctx context.Context, records int, seed int64, outDir string) (*benchReport, error) {
	s := benchSchema()
	ctx, log := operationContext(ctx, "bench", s.Name, "")
	ctx, span := observability.StartSpan(ctx, "bench")
	defer span.End()
	span.SetAttribute("records", records)

	monitor, err := performance.NewResourceMonitor()
	if err != nil {
		return nil, err
	}

	maxSize := a.cfg.Block.MaxBlockSize
	b, err := block.NewBuilder(s, a.blockOptions(log)...)
	if err != nil {
		return nil, err
	}

	report := &benchReport{Records: records, MaxBlockSize: maxSize}
	if err := observability.Trace(ctx, "build", func(context.Context) error {
		timer := metrics.NewTimer("build")
		throughput := metrics.NewThroughputTracker("build")
		rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data
		for _, id := range rng.Perm(records) {
			if err := b.AppendRecord(int64(id), benchRecord(rng)); err != nil {
				return err
			}
		}
		if err := b.OrderByRecordID(); err != nil {
			return err
		}
		throughput.Increment(int64(records))
		report.BuildRate = throughput.GetAndReset()
		report.BuildDuration = timer.ObserveLatency()
		return nil
	}); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var writer *archive.Writer
	if outDir != "" {
		if writer, err = a.prepareArchiveDir(outDir, s, log); err != nil {
			return nil, err
		}
		report.ArchiveDir = outDir
	}

	err = observability.Trace(ctx, "truncate", func(context.Context) error {
		latencies := metrics.NewLatencyTracker(4096)
		throughput := metrics.NewThroughputTracker("truncate")
		var fill float64
		for b.RecordCount() > 0 {
			start := time.Now()
			head, err := b.TruncateBlock(maxSize)
			if err != nil {
				return err
			}
			latencies.Record(time.Since(start))
			throughput.Increment(int64(head.RecordCount()))

			n, err := serializePooled(head)
			if err != nil {
				return err
			}
			report.Blocks++
			report.TotalBytes += n
			fill += float64(n) / float64(maxSize)

			if writer != nil {
				path := filepath.Join(outDir, fmt.Sprintf("block-%05d.strata", report.Blocks))
				if err := a.writeArchive(writer, head, path, report); err != nil {
					return err
				}
			}
		}
		if report.Blocks > 0 {
			report.AverageFill = fill / float64(report.Blocks)
		}
		report.TruncateP50 = latencies.GetPercentile(50)
		report.TruncateP99 = latencies.GetPercentile(99)
		report.TruncateRate = throughput.GetAndReset()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	report.BufferPool = pool.GlobalBufferPool.Stats()
	report.Resources = monitor.Sample()
	log.Info("bench completed",
		zap.Int("records", records),
		zap.Int("blocks", report.Blocks),
		zap.Int("total_bytes", report.TotalBytes),
		zap.Float64("average_fill", report.AverageFill))
	span.SetAttribute("blocks", report.Blocks)
	return report, nil
}

// serializePooled serializes b into a scratch buffer from the global pool
// and returns the encoded size.
func serializePooled(b *block.Builder) (int, error) {
	size, err := b.SerializedSize()
	if err != nil {
		return 0, err
	}
	buf := pool.GlobalBufferPool.Get(size)
	defer pool.GlobalBufferPool.Put(buf)
	return b.SerializeTo(buf)
}

func (a *app) prepareArchiveDir(dir string, s *schema.Schema, log *zap.Logger) (*archive.Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "schema.yaml"), data, 0644); err != nil { //nolint:gosec
		return nil, fmt.Errorf("failed to write schema: %w", err)
	}

	cc, err := archive.CompressionConfig(a.cfg.Archive)
	if err != nil {
		return nil, err
	}
	return archive.NewWriter(cc, log)
}

func (a *app) writeArchive(w *archive.Writer, head *block.Builder, path string, report *benchReport) error {
	serialized, err := head.Serialize()
	if err != nil {
		return err
	}
	if err := w.WriteFile(path, serialized); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat archive %s: %w", path, err)
	}
	report.ArchiveBytes += info.Size()
	return nil
}
