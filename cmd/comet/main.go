package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cometdb/comet/pkg/chunk"
	"github.com/cometdb/comet/pkg/config"
	"github.com/cometdb/comet/pkg/iterator"
	"github.com/cometdb/comet/pkg/logger"
	"github.com/cometdb/comet/pkg/metrics"
	"github.com/cometdb/comet/pkg/observability"
	"github.com/cometdb/comet/pkg/schema"
	"github.com/cometdb/comet/pkg/stream"
)

var version = "0.1.0"

func main() {
	var configFile string
	var enableTracing bool

	root := &cobra.Command{
		Use:   "comet",
		Short: "Comet - vectorized chunk iteration engine",
		Long: `Comet pulls rows through composable chunk iterators: sorted scans,
unions, and ordered merges with multi-version deduplication.`,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (YAML)")
	root.PersistentFlags().BoolVar(&enableTracing, "trace", false, "emit a span per fetch to stdout")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Comet v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	})

	var dedup bool
	mergeCmd := &cobra.Command{
		Use:   "merge [input.json ...]",
		Short: "Merge sorted inputs and print the result as JSON lines",
		Long: `Merge reads each input file as a JSON array of {"key": int, "value": string}
rows sorted ascending by key, merges them in key order, and prints the merged
rows to stdout. With --dedup, rows sharing a key are superseded by the row
from the later input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd.Context(), configFile, enableTracing, dedup, args)
		},
	}
	mergeCmd.Flags().BoolVar(&dedup, "dedup", false, "keep only the newest row per key")
	root.AddCommand(mergeCmd)

	var filePath, bucket, key string
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Read an object through the stream layer and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), configFile, filePath, bucket, key)
		},
	}
	scanCmd.Flags().StringVar(&filePath, "file", "", "local file to scan")
	scanCmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket to scan from")
	scanCmd.Flags().StringVar(&key, "key", "", "S3 object key")
	root.AddCommand(scanCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(ctx context.Context, configFile string, enableTracing bool) (*config.Config, func(), error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogFormat,
	}); err != nil {
		return nil, nil, err
	}

	cleanup := func() { _ = logger.Sync() }
	if enableTracing || cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, observability.DefaultTracingConfig())
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			_ = shutdown(context.Background())
			_ = logger.Sync()
		}
	}
	return cfg, cleanup, nil
}

type keyValueRow struct {
	Key   int64  `json:"key"`
	Value string `json:"value"`
}

func mergeSchema() *schema.Schema {
	return schema.MustNew(
		schema.NewField(1, "key", schema.TypeInt64, false),
		schema.NewField(2, "value", schema.TypeString, false),
	)
}

func runMerge(ctx context.Context, configFile string, enableTracing, dedup bool, paths []string) error {
	cfg, cleanup, err := setup(ctx, configFile, enableTracing)
	if err != nil {
		return err
	}
	defer cleanup()

	log := logger.Get()
	sch := mergeSchema()

	inputs := make([]iterator.Iterator, 0, len(paths))
	for _, path := range paths {
		src, err := loadInput(sch, path)
		if err != nil {
			return err
		}
		inputs = append(inputs, src)
	}

	var counter metrics.DurationCounter
	var merge iterator.Iterator = iterator.NewHeapMergeIterator(sch, iterator.MergeOptions{
		NumKeyColumns: cfg.Engine.MergeKeyColumns,
		Dedup:         dedup || cfg.Engine.Dedup,
		ChunkSize:     cfg.Engine.ChunkSize,
	}, inputs...)
	merge = iterator.NewObservedIterator(iterator.NewTimedIterator(merge, &counter), "heap_merge")
	if enableTracing || cfg.Observability.EnableTracing {
		merge = iterator.NewTracedIterator(ctx, merge, "heap_merge")
	}
	defer merge.Close()

	enc := json.NewEncoder(os.Stdout)
	c := chunk.New(sch)
	var rows uint64
	for {
		c.Reset()
		fetchErr := merge.Fetch(c)
		if fetchErr == iterator.ErrEndOfStream {
			break
		}
		if fetchErr != nil {
			return fetchErr
		}
		for r := 0; r < c.NumRows(); r++ {
			row := c.Row(r)
			if err := enc.Encode(keyValueRow{Key: row[0].(int64), Value: row[1].(string)}); err != nil {
				return err
			}
			rows++
		}
	}

	log.Info("merge complete",
		zap.Int("inputs", len(paths)),
		zap.Uint64("rows", rows),
		zap.Uint64("merged_rows", merge.MergedRows()),
		zap.Duration("fetch_time", counter.Total()))
	return nil
}

// loadInput reads a JSON array of key/value rows into a slice iterator.
func loadInput(sch *schema.Schema, path string) (iterator.Iterator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []keyValueRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	src := chunk.New(sch)
	for _, row := range rows {
		if err := src.AppendRow(row.Key, row.Value); err != nil {
			return nil, err
		}
	}
	return iterator.NewSliceIterator(sch, src), nil
}

func runScan(ctx context.Context, configFile, filePath, bucket, key string) error {
	cfg, cleanup, err := setup(ctx, configFile, false)
	if err != nil {
		return err
	}
	defer cleanup()

	log := logger.Get()

	var in stream.InputStream
	switch {
	case filePath != "":
		in, err = stream.OpenFile(filePath)
		if err != nil {
			return err
		}
	case bucket != "" && key != "":
		client, clientErr := stream.NewS3Client(ctx, cfg.Storage.Region)
		if clientErr != nil {
			return clientErr
		}
		in = stream.NewS3Stream(ctx, client, bucket, key, cfg.Storage.ReadAheadSize)
	case cfg.Storage.Bucket != "" && key != "":
		client, clientErr := stream.NewS3Client(ctx, cfg.Storage.Region)
		if clientErr != nil {
			return clientErr
		}
		in = stream.NewS3Stream(ctx, client, cfg.Storage.Bucket, key, cfg.Storage.ReadAheadSize)
	default:
		return fmt.Errorf("either --file or --bucket and --key are required")
	}
	defer in.Close()

	start := time.Now()
	n, err := io.Copy(io.Discard, in)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	log.Info("scan complete",
		zap.Int64("bytes", n),
		zap.Duration("elapsed", elapsed),
		zap.Float64("mb_per_sec", float64(n)/1e6/elapsed.Seconds()))
	return nil
}
