package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/discochess/tablebase/internal/naming"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Show the registered tables",
	Long: `Display the tables found in every --tables location, grouped by
material signature, with the number of files per kind.`,
	RunE: runTables,
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	reg, cleanup, err := openRegistry(context.Background(), logger)
	if err != nil {
		return err
	}
	defer cleanup()

	keys := reg.Keys()
	if len(keys) == 0 {
		fmt.Println("No tables found.")
		fmt.Println("Run 'tablebase pack' to create a table set.")
		return nil
	}

	writeTableSummary(os.Stdout, summarizeTables(keys))
	return nil
}

// materialSummary counts the tables of one material signature.
type materialSummary struct {
	Material string
	Dirs     int
	MB       int
	HighDTC  int
}

// summarizeTables groups keys by material signature, sorted by name.
func summarizeTables(keys []naming.Key) []materialSummary {
	byMaterial := make(map[string]*materialSummary)
	dirs := make(map[string]map[string]bool)

	for _, k := range keys {
		name := k.Material.String()
		s, ok := byMaterial[name]
		if !ok {
			s = &materialSummary{Material: name}
			byMaterial[name] = s
			dirs[name] = make(map[string]bool)
		}
		if k.Kind == naming.KindHighDTC {
			s.HighDTC++
		} else {
			s.MB++
		}
		dirs[name][k.Dir().Name()] = true
	}

	out := make([]materialSummary, 0, len(byMaterial))
	for name, s := range byMaterial {
		s.Dirs = len(dirs[name])
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Material < out[j].Material
	})
	return out
}

func writeTableSummary(w io.Writer, summary []materialSummary) {
	var mb, hi int
	fmt.Fprintf(w, "%-12s %6s %8s %8s\n", "MATERIAL", "DIRS", ".mb", ".hi")
	for _, s := range summary {
		fmt.Fprintf(w, "%-12s %6d %8d %8d\n", s.Material, s.Dirs, s.MB, s.HighDTC)
		mb += s.MB
		hi += s.HighDTC
	}
	fmt.Fprintf(w, "\nMaterials: %d\n", len(summary))
	fmt.Fprintf(w, "Tables:    %d (%d .mb, %d .hi)\n", mb+hi, mb, hi)
}
