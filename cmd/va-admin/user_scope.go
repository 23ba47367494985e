package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserScopeCmd() *cobra.Command {
	var restrict []string

	cmd := &cobra.Command{
		Use:   "user-scope <user_id>",
		Short: "Show (and optionally set) a user's location restrictions",
		Long: `Resolves the user's restriction set to the records it covers and prints
the count. With --restrict the restriction set is replaced first; an empty
set means unrestricted national access.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			userID := args[0]
			if cmd.Flags().Changed("restrict") {
				if err := a.usersRepo.SetLocationRestrictions(cmd.Context(), userID, restrict); err != nil {
					return err
				}
			}

			user, err := a.usersRepo.GetUser(cmd.Context(), userID)
			if err != nil {
				return err
			}

			q, err := a.scopes.ScopedRecords(cmd.Context(), user, "", "")
			if err != nil {
				return err
			}
			n, err := a.scopes.Count(cmd.Context(), q)
			if err != nil {
				return err
			}

			if user.Unrestricted() {
				fmt.Printf("user %s is unrestricted, %d records visible\n", user.Email, n)
				return nil
			}
			fmt.Printf("user %s restricted to %d locations (%d with descendants), %d records visible\n",
				user.Email, len(user.LocationRestrictions), len(q.LocationIDs), n)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&restrict, "restrict", nil,
		"replace the user's restriction set with these location ids")
	return cmd
}
