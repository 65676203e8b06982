package commands

import (
	"fmt"

	"bocateam/cmd/boca-cli/globals"
	"bocateam/lib/platforms/boca/team"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(
		problemsCmd,
		runsCmd,
		clarsCmd,
		scoreCmd,
		languagesCmd,
		problemIdsCmd,
		timeCmd,
	)
}

func balloonColor(balloon *team.Balloon) string {
	if balloon == nil {
		return ""
	}
	if balloon.ColorName == "" {
		return "(no color)"
	}
	return balloon.ColorName
}

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "Lists the contest problems.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		problems, err := globals.Get(cmd.Context()).Client.GetProblems(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, problems, func(t table.Writer) {
			t.AppendHeader(table.Row{"Name", "Basename", "Fullname", "Balloon", "Statement"})
			for _, p := range problems {
				statement := ""
				if p.DescriptionFile != nil {
					statement = p.DescriptionFile.Name
				}
				t.AppendRow(table.Row{p.Name, p.Basename, p.Fullname, balloonColor(&p.Balloon), statement})
			}
		})
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lists the runs submitted by the team.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := globals.Get(cmd.Context()).Client.GetRuns(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, runs, func(t table.Writer) {
			t.AppendHeader(table.Row{"Run #", "Time", "Problem", "Language", "Answer", "File"})
			for _, r := range runs {
				answer := r.Answer.Text
				if r.Answer.Balloon != nil {
					answer = fmt.Sprintf("%s (%s)", answer, balloonColor(r.Answer.Balloon))
				}
				t.AppendRow(table.Row{r.Id, r.Time, r.Problem, r.Language, answer, r.SourceFile.Name})
			}
		})
	},
}

var clarsCmd = &cobra.Command{
	Use:   "clars",
	Short: "Lists the clarifications asked by the team.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		clarifications, err := globals.Get(cmd.Context()).Client.GetClarifications(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, clarifications, func(t table.Writer) {
			t.AppendHeader(table.Row{"Time", "Problem", "Question", "Answer"})
			for _, c := range clarifications {
				t.AppendRow(table.Row{c.Time, c.Problem, c.Question, c.Answer})
			}
		})
	},
}

func scoreCellText(cell *team.ScoreCell) string {
	if cell == nil {
		return ""
	}
	if !cell.Solved() {
		return cell.Text
	}
	return fmt.Sprintf("%s (%s)", cell.Text, balloonColor(cell.Balloon))
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Shows the scoreboard.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := globals.Get(cmd.Context()).Client
		score, err := client.GetScore(cmd.Context())
		if err != nil {
			return err
		}
		// the score page only labels problems with images, the form options have names
		problems, err := client.GetProblemIds(cmd.Context())
		if err != nil {
			return err
		}

		return render(cmd, score, func(t table.Writer) {
			columns := 0
			for _, row := range score {
				columns = max(columns, len(row.Problems))
			}

			header := table.Row{"#", "User/Site", "Name"}
			for i := 0; i < columns; i++ {
				if len(problems) == columns {
					header = append(header, problems[i].Name)
					continue
				}
				header = append(header, fmt.Sprintf("P%d", i+1))
			}
			t.AppendHeader(append(header, "Total"))

			for _, row := range score {
				cells := table.Row{row.Position, row.UserSite, row.Name}
				for i := 0; i < columns; i++ {
					var cell *team.ScoreCell
					if i < len(row.Problems) {
						cell = row.Problems[i]
					}
					cells = append(cells, scoreCellText(cell))
				}
				t.AppendRow(append(cells, row.Total))
			}
		})
	},
}

func renderOptions(cmd *cobra.Command, options []team.Option) error {
	return render(cmd, options, func(t table.Writer) {
		t.AppendHeader(table.Row{"Id", "Name"})
		for _, o := range options {
			t.AppendRow(table.Row{o.Id, o.Name})
		}
	})
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "Lists the languages runs can be submitted in.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		languages, err := globals.Get(cmd.Context()).Client.GetAllowedProgrammingLanguages(cmd.Context())
		if err != nil {
			return err
		}
		return renderOptions(cmd, languages)
	},
}

var problemIdsCmd = &cobra.Command{
	Use:   "problem-ids",
	Short: "Lists the problem ids used when submitting.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		problems, err := globals.Get(cmd.Context()).Client.GetProblemIds(cmd.Context())
		if err != nil {
			return err
		}
		return renderOptions(cmd, problems)
	},
}

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Shows the contest's remaining time.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value := globals.Get(cmd.Context())
		remaining, err := value.Client.GetContestRemainingTime(cmd.Context())
		if err != nil {
			return err
		}
		if value.Json {
			return printJson(map[string]string{"remainingTime": remaining})
		}
		fmt.Println(remaining)
		return nil
	},
}
