package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/blackstuend/Daily-Lesson-Review/internal/events"
	"github.com/blackstuend/Daily-Lesson-Review/internal/importer"
	"github.com/blackstuend/Daily-Lesson-Review/internal/metrics"
	"github.com/blackstuend/Daily-Lesson-Review/internal/repository"
	"github.com/blackstuend/Daily-Lesson-Review/internal/services"
)

func newImportCommand() *cobra.Command {
	var (
		userFlag string
		file     string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create lessons (and their reviews) from an .xlsx or .csv file",
		Long: `Columns: title | content | type | link_url | lesson_date, header on row 1.
Rows that fail validation are reported and skipped; the rest are created.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			loc, err := location()
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			rows, skipped, err := importer.Parse(f, file)
			if err != nil {
				return err
			}

			pool, err := openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			// No subscribers are listening for a CLI run, so events are dropped.
			lessons := services.NewLessonService(
				repository.NewLessonRepo(pool),
				repository.NewReviewRepo(pool),
				events.Nop{},
				metrics.NewMetrics(),
				services.NewClock(loc),
			)

			result, err := lessons.Import(commandContext(cmd), userID, rows)
			if err != nil {
				return err
			}
			result.Failed += len(skipped)
			result.Errors = append(skipped, result.Errors...)
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "Owner user ID (required)")
	cmd.Flags().StringVar(&file, "file", "", "Path to .xlsx or .csv (required)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("file")
	return cmd
}
