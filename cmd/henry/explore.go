package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/burugo/henry/drivers/schema"
	"github.com/burugo/henry/typemap"
)

var (
	exploreOutput   string
	exploreStandard bool
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Extract the source database schema",
	Long: `Connect to the configured source database and extract its tables,
columns, indexes, foreign keys and views. A summary is printed; --output
writes the full graph as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := initializeApp(configPath(cfgFile))
		if err != nil {
			return err
		}
		defer cleanup()

		explorer, err := app.Registry.Create(app.Config.Source.Driver)
		if err != nil {
			return err
		}

		conn := app.Config.Connection()
		app.Logger.Info("exploring", zap.String("driver", app.Config.Source.Driver), zap.Stringer("connection", conn))
		db, err := explorer.Extract(cmd.Context(), conn)
		if err != nil {
			return fmt.Errorf("extracting schema: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), db.Summary())

		if exploreOutput == "" {
			return nil
		}
		if err := writeSchema(cmd.Context(), app, db); err != nil {
			return fmt.Errorf("writing schema: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nSchema written to %s\n", exploreOutput)
		return nil
	},
}

// writeSchema writes the native graph, or its standardized form with --standard.
func writeSchema(ctx context.Context, app *App, db *schema.Database) error {
	if !exploreStandard {
		return db.WriteYAML(exploreOutput)
	}
	tm, err := app.typeMap(ctx, typemap.SourceTag(db.Type), typemap.TagStandard)
	if err != nil {
		return err
	}
	return writeYAML(exploreOutput, typemap.Standardize(db, tm))
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling yaml: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	exploreCmd.Flags().StringVarP(&exploreOutput, "output", "o", "", "write the schema as YAML to this path")
	exploreCmd.Flags().BoolVar(&exploreStandard, "standard", false, "translate column types to the standard vocabulary before writing")
	rootCmd.AddCommand(exploreCmd)
}
