package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/burugo/henry/drivers/schema"
	"github.com/burugo/henry/typemap"
)

var typesTo string

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Inspect type maps",
}

var typesResolveCmd = &cobra.Command{
	Use:   "resolve <native>...",
	Short: "Resolve native type names through the map for the source driver",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := initializeApp(configPath(cfgFile))
		if err != nil {
			return err
		}
		defer cleanup()

		from := typemap.SourceTag(schema.DatabaseType(app.Config.Source.Driver))
		tm, err := app.typeMap(cmd.Context(), from, typesTo)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, native := range args {
			fmt.Fprintf(w, "%s\t%s\n", native, tm.Resolve(native))
		}
		return w.Flush()
	},
}

func init() {
	typesResolveCmd.Flags().StringVar(&typesTo, "to", typemap.TagStandard, "target vocabulary")
	typesCmd.AddCommand(typesResolveCmd)
	rootCmd.AddCommand(typesCmd)
}
