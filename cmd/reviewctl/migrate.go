package main

import (
	"github.com/spf13/cobra"

	"github.com/blackstuend/Daily-Lesson-Review/internal/database"
)

func newMigrateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := database.RunMigrations(commandContext(cmd), pool, dir)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{"applied": applied, "dir": dir})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", envOr("MIGRATIONS_DIR", "migrations"), "Directory of NNN_name.sql files")
	return cmd
}
