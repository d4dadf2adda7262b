package main

import (
	"github.com/spf13/cobra"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
	"github.com/blackstuend/Daily-Lesson-Review/internal/schedule"
)

func newScheduleCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the review dates a lesson on --date would get",
		RunE: func(cmd *cobra.Command, args []string) error {
			var d models.Date
			if date == "" {
				loc, err := location()
				if err != nil {
					return err
				}
				d = models.Today(loc)
			} else {
				parsed, err := models.ParseDate(date)
				if err != nil {
					return err
				}
				d = parsed
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"lesson_date": d,
				"reviews":     schedule.Generate(d),
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Lesson date YYYY-MM-DD (default today)")
	return cmd
}
