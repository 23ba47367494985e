package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMarkDuplicatesCmd() *cobra.Command {
	var skipRegenerate bool

	cmd := &cobra.Command{
		Use:   "mark-duplicates",
		Short: "Recompute duplicate flags for every record",
		Long: `Recomputes every record's duplicate flag from its identity hash: per
group the earliest record is canonical, the rest are duplicates. Safe to
re-run; do not run while records are being saved.

Grouping is only correct against hashes computed under the current
DUPLICATE_QUESTIONS configuration, so hashes are regenerated first unless
--skip-regenerate is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.bulk.MarkDuplicates(cmd.Context(), !skipRegenerate)
			if err != nil {
				return err
			}
			fmt.Printf("regenerated %d hashes, changed %d duplicate flags\n",
				res.HashesRegenerated, res.FlagsChanged)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipRegenerate, "skip-regenerate", false,
		"assume stored hashes are already current (caller ran regenerate-hashes)")
	return cmd
}

func newRegenerateHashesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate-hashes",
		Short: "Recompute every record's identity hash under the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.bulk.RegenerateHashes(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("updated %d hashes\n", n)
			return nil
		},
	}
}
