package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/discochess/tablebase/internal/builder"
	"github.com/discochess/tablebase/internal/codec"
	"github.com/discochess/tablebase/internal/tablefile"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack raw MB tables into a block-compressed table set",
	Long: `Pack a directory of raw MB tables, one byte per position, into the
block-compressed format read by the tablebase.

This command will:
1. Scan the source for table directories and files
2. Split each table into blocks and compress them with the chosen codec
3. Write the same directory layout and a manifest.json to the output

Examples:
  # Pack a local set
  tablebase pack --source ./raw --output ./mb

  # Smaller blocks for faster random access
  tablebase pack --source ./raw --output ./mb --block-entries 16384

  # Pack and upload to GCS (for cronjobs)
  tablebase pack --source ./raw --output-gcs gs://my-bucket/mb`,
	RunE: runPack,
}

var (
	sourceDir    string
	outputDir    string
	outputGCS    string
	codecName    string
	blockEntries int
	workers      int
)

func init() {
	packCmd.Flags().StringVar(&sourceDir, "source", "", "directory holding raw tables")
	packCmd.Flags().StringVarP(&outputDir, "output", "o", "./mb", "output directory for the packed set (local builds)")
	packCmd.Flags().StringVar(&outputGCS, "output-gcs", "", "GCS path for output (gs://bucket/prefix)")
	packCmd.Flags().StringVar(&codecName, "codec", "zstd", "block codec: zstd, gzip, none")
	packCmd.Flags().IntVar(&blockEntries, "block-entries", tablefile.DefaultBlockEntries, "entries per block")
	packCmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "number of tables packed in parallel")
	packCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	method, err := codec.ParseMethod(codecName)
	if err != nil {
		return err
	}
	c, err := tablefile.CodecFor(method)
	if err != nil {
		return err
	}
	if blockEntries <= 0 {
		return fmt.Errorf("--block-entries must be positive")
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	// Setup context with cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Determine output directory.
	localOutput := outputDir
	if outputGCS != "" {
		// Build to temp directory, then upload to GCS.
		tmpDir, err := os.MkdirTemp("", "tablebase-pack-*")
		if err != nil {
			return fmt.Errorf("creating temp directory: %w", err)
		}
		localOutput = tmpDir
		defer os.RemoveAll(tmpDir)
	}

	b := builder.NewBuilder(
		builder.WithSourceDir(sourceDir),
		builder.WithOutputDir(localOutput),
		builder.WithCodec(c),
		builder.WithBlockEntries(blockEntries),
		builder.WithWorkers(workers),
		builder.WithProgress(builder.DefaultProgressFunc),
	)

	fmt.Printf("Packing table set\n")
	fmt.Printf("  Source:  %s\n", sourceDir)
	if outputGCS != "" {
		fmt.Printf("  Output:  %s (via local temp)\n", outputGCS)
	} else {
		fmt.Printf("  Output:  %s\n", localOutput)
	}
	fmt.Printf("  Codec:   %s\n", method)
	fmt.Printf("  Blocks:  %d entries\n", blockEntries)
	fmt.Printf("  Workers: %d\n", workers)
	fmt.Println()

	m, err := b.Build(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Packed %s into %s (%.1f%%)\n",
		builder.FormatBytes(m.BytesRaw), builder.FormatBytes(m.BytesPacked), m.Ratio()*100)

	// Upload to GCS if specified.
	if outputGCS != "" {
		fmt.Println()
		fmt.Printf("[Upload] Uploading to %s...\n", outputGCS)

		uploader, err := builder.NewGCSUploader(ctx, outputGCS, logger)
		if err != nil {
			return fmt.Errorf("creating GCS uploader: %w", err)
		}
		defer uploader.Close()

		if err := uploader.Upload(ctx, localOutput, builder.DefaultProgressFunc); err != nil {
			return fmt.Errorf("uploading to GCS: %w", err)
		}

		fmt.Println("[Upload] Done")
	}

	return nil
}
