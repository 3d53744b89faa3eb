package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/burugo/henry/typemap"
)

var mapsFile string

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "Manage type maps stored in Redis",
}

var mapsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a map file and store its maps",
	Long: `Load the map file given by --file (or type_maps.file from the config)
and insert every map into the Redis store. Maps whose source and target
pair is already stored are skipped. Without any file the built-in maps
are imported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := initializeMapsApp(configPath(cfgFile))
		if err != nil {
			return err
		}
		defer cleanup()

		if mapsFile != "" {
			app.Config.TypeMaps.File = mapsFile
		}
		maps, err := typeMaps(app.Config)
		if err != nil {
			return err
		}
		if len(maps) == 0 {
			return errors.New("map file contains no maps")
		}

		inserted, skipped, err := app.Store.Populate(cmd.Context(), maps)
		if err != nil {
			return fmt.Errorf("importing maps: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d maps (%d already stored)\n", inserted, skipped)
		return nil
	},
}

var mapsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored type maps",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := initializeMapsApp(configPath(cfgFile))
		if err != nil {
			return err
		}
		defer cleanup()

		maps, err := app.Store.All(cmd.Context())
		if err != nil {
			return err
		}
		return printMaps(cmd, maps)
	},
}

func printMaps(cmd *cobra.Command, maps []*typemap.TypeMap) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFROM\tTO\tDEFAULT\tENTRIES\tVERSION")
	for _, tm := range maps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			tm.Name, tm.FromType, tm.ToType, tm.DefaultType, len(tm.Map), tm.LockVersion)
	}
	return w.Flush()
}

func init() {
	mapsImportCmd.Flags().StringVarP(&mapsFile, "file", "f", "", "map file to import (.toml, .yaml)")
	mapsCmd.AddCommand(mapsImportCmd, mapsListCmd)
	rootCmd.AddCommand(mapsCmd)
}
