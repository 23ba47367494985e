package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <migration_file.sql>",
		Short: "Apply a SQL migration file statement by statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlContent, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read migration file: %w", err)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			statements := splitStatements(string(sqlContent))
			for i, stmt := range statements {
				if _, err := a.db.ExecContext(cmd.Context(), stmt); err != nil {
					return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
				}
			}
			fmt.Printf("executed %d statements from %s\n", len(statements), args[0])
			return nil
		},
	}
}

// splitStatements turns a migration file into executable statements. Comment
// lines are dropped before splitting on ';' so a statement preceded (or
// interrupted) by comments is never discarded or cut apart.
func splitStatements(sqlContent string) []string {
	var kept []string
	for _, line := range strings.Split(sqlContent, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var out []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
