package main

import (
	"encoding/csv"
	"os"

	"github.com/spf13/cobra"
)

func newExportLocationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-locations",
		Short: "Write the location tree as CSV (Name,Type,Parent) to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			all, err := a.locations.ListLocations(cmd.Context())
			if err != nil {
				return err
			}

			nameByPath := make(map[string]string, len(all))
			for _, l := range all {
				nameByPath[l.Path] = l.Name
			}

			w := csv.NewWriter(os.Stdout)
			if err := w.Write([]string{"Name", "Type", "Parent"}); err != nil {
				return err
			}
			for _, l := range all {
				parent := nameByPath[l.ParentPath()]
				if err := w.Write([]string{l.Name, l.LocationType, parent}); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		},
	}
}
