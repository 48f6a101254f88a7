package cli

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmalten/recgraph/pkg/source"
)

// seedCommand creates the seed command for writing demo data to disk.
func (c *CLI) seedCommand() *cobra.Command {
	var (
		dir     string
		keepers int
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the demo zoo schema and records to disk",
		Long: `Write the demo zoo schema (zoo.toml) and a record document
(records.json) to a directory, ready for 'serialize --schema --input'.

By default the fixed three-record fixture is written. With --keepers a
random graph is generated instead; pass --seed for reproducible output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}

			schemaPath := filepath.Join(dir, "zoo.toml")
			if err := os.WriteFile(schemaPath, []byte(source.ZooTOML()), 0644); err != nil {
				return fmt.Errorf("write %s: %w", schemaPath, err)
			}

			prog := newProgress(logger)
			src := source.NewSeedSource()
			if keepers > 0 {
				var rng *rand.Rand
				if seed != 0 {
					rng = rand.New(rand.NewSource(seed))
				}
				src = source.NewRandomSource(keepers, rng)
			}
			g, err := src.Load(cmd.Context())
			if err != nil {
				return err
			}

			recordsPath := filepath.Join(dir, "records.json")
			if err := source.SaveFile(g, recordsPath); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Seeded %d records", g.Len()))

			printSuccess("Wrote demo data")
			printFile(schemaPath)
			printFile(recordsPath)
			printNewline()
			printNextStep("Serialize a record",
				fmt.Sprintf("recgraph serialize zookeeper:1 --schema %s -i %s --pretty", schemaPath, recordsPath))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write into")
	cmd.Flags().IntVar(&keepers, "keepers", 0, "generate a random graph with this many zookeepers")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed for --keepers (0 = time-seeded)")

	return cmd
}
