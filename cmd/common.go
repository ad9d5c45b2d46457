package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/viant/kgraph/build"
	"github.com/viant/kgraph/cache"
	"github.com/viant/kgraph/graph"
	"github.com/viant/kgraph/repository"
)

// commonFlags is embedded by every query subcommand: where the project
// lives, whether to bypass ignore rules, and an optional prebuilt graph to
// read instead of rebuilding.
type commonFlags struct {
	path      string
	config    string
	noIgnore  bool
	graphPath string
	format    string
	offset    int
	limit     int
}

func addCommonFlags(cmd *cobra.Command, f *commonFlags) {
	cmd.Flags().StringVarP(&f.path, "path", "p", "", "path to the project root (directory containing src/)")
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "path to a TOML configuration file (not read: configuration is loaded from the project root)")
	cmd.Flags().BoolVarP(&f.noIgnore, "no-ignore", "I", false,
		"include files even if matched by .gitignore/.ignore")
	cmd.Flags().StringVar(&f.graphPath, "graph", "", "path to a prebuilt graph JSON (skips rebuild)")
}

func addFormatFlags(cmd *cobra.Command, f *commonFlags) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "output format: text or json")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "pagination offset")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "pagination limit (0 = unlimited)")
}

// resolveGraph loads a graph either from a prebuilt JSON file (f.graphPath)
// or by running a fresh build against f.path.
func resolveGraph(ctx context.Context, f *commonFlags) (*graph.KnowledgeGraph, error) {
	if f.graphPath != "" {
		return graph.Load(ctx, f.graphPath)
	}

	det := repository.NewDetector()
	root, err := det.EffectivePath(f.path)
	if err != nil {
		return nil, err
	}

	builder := build.New()
	return builder.BuildFromDirectoryWithOptions(ctx, root, cache.Use, f.noIgnore)
}

func paginate[T any](rows []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		pterm.Println("(no results)")
		return
	}
	data := pterm.TableData{headers}
	data = append(data, rows...)
	_ = pterm.DefaultTable.WithHasHeader(true).WithData(data).Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
