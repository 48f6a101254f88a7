package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmalten/recgraph/pkg/errors"
	"github.com/jmalten/recgraph/pkg/pipeline"
)

// serializeCommand creates the serialize command, the main entry point of
// the CLI.
func (c *CLI) serializeCommand() *cobra.Command {
	var (
		srcOpts    sourceOpts
		rules      []string
		only       []string
		maxDepth   int
		strict     bool
		formatsStr string
		output     string
		pretty     bool
		refresh    bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serialize <type:id>",
		Short: "Serialize a record into rule-filtered JSON",
		Long: `Serialize a record and its relationships into nested plain data.

Declared schema rules cut cyclic back-references; per-call overrides have
final say. Traversal is bounded by --max-depth, and exceeding the bound
fails the whole call rather than emitting partial output.

Examples:
  recgraph serialize zookeeper:1                           # Demo fixture
  recgraph serialize zookeeper:1 -r '-animals'             # Drop a subtree
  recgraph serialize animal:13 --only name,species         # Allow-list
  recgraph serialize zookeeper:1 -i records.json --schema zoo.toml
  recgraph serialize zookeeper:1 --mongo mongodb://localhost --db zoo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				Root:     args[0],
				Rules:    rules,
				Only:     splitList(only),
				MaxDepth: maxDepth,
				Strict:   strict,
				Formats:  parseFormats(formatsStr),
				Pretty:   pretty,
				Refresh:  refresh,
			}
			return c.runSerialize(cmd.Context(), srcOpts, opts, output, noCache)
		},
	}

	srcOpts.register(cmd)
	cmd.Flags().StringArrayVarP(&rules, "rule", "r", nil, "override rule (repeatable), e.g. -r '-animals'")
	cmd.Flags().StringSliceVar(&only, "only", nil, "allow-list of field paths (comma-separated)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum relationship depth (default 8)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on conflicting rules instead of last-writer-wins")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg, png (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cached graphs and artifacts")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runSerialize wires source, runner, and pipeline options together and
// writes the resulting artifacts.
func (c *CLI) runSerialize(ctx context.Context, srcOpts sourceOpts, opts pipeline.Options, output string, noCache bool) error {
	sch, err := srcOpts.loadSchema()
	if err != nil {
		return err
	}
	src, desc, cleanup, err := srcOpts.build(ctx, sch)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}
	opts.Schema = sch
	opts.Source = desc
	opts.Logger = c.Logger

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Serializing %s...", opts.Root))
	spinner.Start()

	result, err := runner.Execute(ctx, src, opts)
	if err != nil {
		spinner.StopWithError("Serialization failed")
		if msg := errors.UserMessage(err); msg != err.Error() {
			printDetail("%s", msg)
		}
		return err
	}
	spinner.Stop()

	printSuccess("Serialized %s", StyleHighlight.Render(opts.Root))
	printStats(result.Stats.RecordCount, len(result.Graph.Types()), result.CacheInfo.ArtifactHit)

	return writeArtifacts(result.Artifacts, opts.Formats, opts.Root, output)
}

// writeArtifacts writes each format's artifact. A single format with no
// output path goes to stdout; otherwise files are derived from the output
// base or the root record key.
func writeArtifacts(artifacts map[string][]byte, formats []string, root, output string) error {
	if len(formats) == 1 && output == "" {
		_, err := os.Stdout.Write(artifacts[formats[0]])
		if err == nil && len(artifacts[formats[0]]) > 0 && artifacts[formats[0]][len(artifacts[formats[0]])-1] != '\n' {
			fmt.Println()
		}
		return err
	}

	base := output
	if base == "" {
		base = strings.ReplaceAll(root, ":", "_")
	}

	for _, format := range formats {
		path := base
		if len(formats) > 1 || filepath.Ext(path) == "" {
			path = strings.TrimSuffix(base, filepath.Ext(base)) + "." + format
		}
		if err := os.WriteFile(path, artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// splitList flattens comma-separated values cobra may hand over as one
// element.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
