package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"va-core/internal/loader"
)

func newLoadLocationsCmd() *cobra.Command {
	var skipConflicts bool

	cmd := &cobra.Command{
		Use:   "load-locations <file>",
		Short: "Load a location tree from a CSV or XLSX file",
		Long: `Loads rows of Name,Type,Parent into the location tree. Parents must
appear before their children. Rows that already exist are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			loc := loader.NewLocationLoader(a.locations, a.locRepo, a.logger)
			opts := loader.Options{SkipConflicts: skipConflicts}

			var res *loader.Result
			switch strings.ToLower(filepath.Ext(args[0])) {
			case ".xlsx":
				res, err = loc.LoadXLSX(cmd.Context(), f, opts)
			default:
				res, err = loc.LoadCSV(cmd.Context(), f, opts)
			}
			if err != nil {
				return err
			}
			fmt.Printf("created %d locations, skipped %d\n", res.Created, res.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipConflicts, "skip-conflicts", false,
		"skip rows that collide with concurrent tree changes instead of failing")
	return cmd
}
