// Command strata builds, inspects and queries columnar block archives.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/observability"
	"github.com/ajitpratap0/strata/pkg/schema"
)

var version = "0.1.0"

// app carries the state shared by every subcommand.
type app struct {
	v      *viper.Viper
	out    io.Writer
	cfg    *config.Config
	log    *zap.Logger
	tracer *observability.Provider
}

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}
	a.v.SetEnvPrefix("STRATA")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "strata",
		Short: "Strata - embedded columnar block store",
		Long: `Strata packs typed records into size-bounded columnar blocks.
Blocks are bit-packed per column, truncated to a byte budget and persisted
as compressed archives that can be inspected and queried in place.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd.Context())
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Int("max-block-size", 0, "Serialized block budget in bytes")
	flags.String("compression", "", "Archive compression algorithm")
	flags.Bool("tracing", false, "Export trace spans to stderr")
	_ = a.v.BindPFlag("config", flags.Lookup("config"))
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("block.max_block_size", flags.Lookup("max-block-size"))
	_ = a.v.BindPFlag("archive.compression_algorithm", flags.Lookup("compression"))
	_ = a.v.BindPFlag("observability.enable_tracing", flags.Lookup("tracing"))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "Strata v%s\n", version)
			fmt.Fprintf(a.out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(a.benchCommand(), a.inspectCommand(), a.queryCommand())
	return root
}

// loadConfig reads the configuration file, if any, and applies flag and
// STRATA_* environment overrides on top.
func (a *app) loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s := a.v.GetString("logging.level"); s != "" {
		cfg.Logging.Level = s
	}
	if n := a.v.GetInt("block.max_block_size"); n > 0 {
		cfg.Block.MaxBlockSize = n
	}
	if s := a.v.GetString("archive.compression_algorithm"); s != "" {
		cfg.Archive.CompressionAlgorithm = s
	}
	if a.v.GetBool("observability.enable_tracing") {
		cfg.Observability.EnableTracing = true
		cfg.Observability.TracingSampleRate = 1
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	// stdout is reserved for command output
	logCfg := logger.ConfigFrom(cfg.Logging.Level, cfg.Logging.Encoding, cfg.Logging.Development)
	logCfg.OutputPaths = []string{"stderr"}
	if err := logger.Init(logCfg); err != nil {
		return err
	}
	a.log = logger.Named("cli")

	tracing := observability.TracingConfigFrom(cfg.Observability, version)
	tracing.Writer = os.Stderr
	a.tracer, err = observability.Init(tracing)
	return err
}

func (a *app) teardown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		return err
	}
	_ = logger.Sync()
	return nil
}

// operationContext tags ctx with the running operation and, when known, the
// table and block it works on. The returned logger carries the same fields.
func operationContext(ctx context.Context, operation, table, blockID string) (context.Context, *zap.Logger) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, logger.OperationKey, operation)
	if table != "" {
		ctx = context.WithValue(ctx, logger.TableKey, table)
	}
	if blockID != "" {
		ctx = context.WithValue(ctx, logger.BlockKey, blockID)
	}
	return ctx, logger.WithContext(ctx).Named("cli")
}

// loadSchema reads a YAML schema file.
func loadSchema(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a flag
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return schema.Parse(data)
}

// printJSON writes v to the command output as indented JSON.
func (a *app) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}
