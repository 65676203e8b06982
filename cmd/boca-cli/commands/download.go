package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"bocateam/cmd/boca-cli/globals"
	"bocateam/lib/linker"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statementDir string

func init() {
	statementCmd.Flags().StringVarP(&statementDir, "output", "o", ".", "Directory to save the statement in.")
	rootCmd.AddCommand(downloadCmd, statementCmd)
}

func printSaved(dest string) {
	info, err := os.Stat(dest)
	if err != nil {
		fmt.Printf("Saved %s.\n", dest)
		return
	}
	fmt.Printf("Saved %s (%s).\n", dest, humanize.Bytes(uint64(info.Size())))
}

var downloadCmd = &cobra.Command{
	Use:   "download <url> <destination>",
	Short: "Downloads a file linked from the team pages, like a run's source or a statement.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := globals.Get(cmd.Context()).Client.Download(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		printSaved(args[1])
		return nil
	},
}

var statementCmd = &cobra.Command{
	Use:   "statement <problem>",
	Short: "Downloads the description file of a problem.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := globals.Get(cmd.Context()).Client

		problems, err := client.GetProblems(cmd.Context())
		if err != nil {
			return err
		}
		names := make([]string, len(problems))
		for i, p := range problems {
			names[i] = p.Name
		}
		match, ok := linker.Resolve(args[0], names, linker.DefaultThreshold)
		if !ok {
			return fmt.Errorf("unknown problem %q", args[0])
		}
		problem := problems[match.Index]
		if problem.DescriptionFile == nil {
			return fmt.Errorf("problem %s has no description file", problem.Name)
		}

		dest := filepath.Join(statementDir, filepath.Base(problem.DescriptionFile.Name))
		err = client.Download(cmd.Context(), problem.DescriptionFile.Url, dest)
		if err != nil {
			return err
		}
		printSaved(dest)
		return nil
	},
}
