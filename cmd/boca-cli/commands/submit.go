package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"bocateam/cmd/boca-cli/globals"
	"bocateam/lib/linker"
	"bocateam/lib/platforms/boca/team"

	"github.com/spf13/cobra"
)

var (
	submitProblem  string
	submitLanguage string
	clarProblem    string
)

// languages guessed from the extension of a submitted file when --language is omitted
var extensionLanguages = map[string]string{
	".c":    "C",
	".cc":   "C++",
	".cpp":  "C++",
	".java": "Java",
	".kt":   "Kotlin",
	".py":   "Python 3",
}

func init() {
	submitRunCmd.Flags().StringVarP(&submitProblem, "problem", "p", "", "Problem name or id.")
	submitRunCmd.Flags().StringVarP(&submitLanguage, "language", "l", "", "Language name or id, guessed from the file extension when omitted.")
	submitRunCmd.MarkFlagRequired("problem")

	submitClarCmd.Flags().StringVarP(&clarProblem, "problem", "p", "", "Problem name or id the question is about.")
	submitClarCmd.MarkFlagRequired("problem")

	rootCmd.AddCommand(submitRunCmd, submitClarCmd)
}

// resolveOption finds the option a user typed by id or (approximate) name.
func resolveOption(kind, input string, options []team.Option) (team.Option, error) {
	names := make([]string, len(options))
	for i, o := range options {
		if o.Id == input {
			return o, nil
		}
		names[i] = o.Name
	}

	match, ok := linker.Resolve(input, names, linker.DefaultThreshold)
	if !ok {
		return team.Option{}, fmt.Errorf("unknown %s %q, expected one of: %s", kind, input, strings.Join(names, ", "))
	}
	option := options[match.Index]
	if match.Correlation < 1 {
		slog.Info("resolved approximate name", "kind", kind, "input", input, "name", option.Name, "id", option.Id)
	}
	return option, nil
}

var submitRunCmd = &cobra.Command{
	Use:   "submit-run <source file> --problem <problem> [--language <language>]",
	Short: "Submits a source file as a run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := globals.Get(cmd.Context()).Client
		source := args[0]

		page, err := client.GetRunsPage(cmd.Context())
		if err != nil {
			return err
		}

		problem, err := resolveOption("problem", submitProblem, page.Problems)
		if err != nil {
			return err
		}

		language := submitLanguage
		if language == "" {
			guess, ok := extensionLanguages[strings.ToLower(filepath.Ext(source))]
			if !ok {
				return fmt.Errorf("cannot guess the language of %s, pass --language", source)
			}
			language = guess
		}
		languageOption, err := resolveOption("language", language, page.Languages)
		if err != nil {
			return err
		}

		err = client.SubmitRun(cmd.Context(), problem.Id, languageOption.Id, source)
		if err != nil {
			return err
		}
		fmt.Printf("Submitted %s for problem %s in %s.\n", filepath.Base(source), problem.Name, languageOption.Name)
		return nil
	},
}

var submitClarCmd = &cobra.Command{
	Use:   "submit-clar --problem <problem> <question>...",
	Short: "Asks the judges a clarification.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := globals.Get(cmd.Context()).Client

		problems, err := client.GetProblemIds(cmd.Context())
		if err != nil {
			return err
		}
		problem, err := resolveOption("problem", clarProblem, problems)
		if err != nil {
			return err
		}

		err = client.SubmitClarification(cmd.Context(), problem.Id, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Printf("Clarification about problem %s sent.\n", problem.Name)
		return nil
	},
}
