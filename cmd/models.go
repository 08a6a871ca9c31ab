package cmd

import (
	"github.com/jjtimmons/gcall/internal/gcall"
	"github.com/spf13/cobra"
)

// modelsCmd is for listing (or exporting) the models of the bank
var modelsCmd = &cobra.Command{
	Use:                        "models",
	Short:                      "List the models of the model bank",
	Run:                        gcall.ModelsCmd,
	SuggestionsMinimumDistance: 3,
	Long: `
List the models of the built-in bank, or of a bank file (--bank), in the
order they are preferred when two fit a record equally well.

With --out the bank is written to a file that can be edited and passed back
to 'gcall predict --bank'.`,
}

// set flags
func init() {
	modelsCmd.Flags().StringP("out", "o", "", "write the bank to this file instead of listing it")
	modelsCmd.Flags().String("bank", "", "model bank file to list instead of the built-in bank")

	RootCmd.AddCommand(modelsCmd)
}
