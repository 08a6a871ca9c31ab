package cmd

import (
	"github.com/jjtimmons/gcall/internal/gcall"
	"github.com/spf13/cobra"
)

// trainCmd is for training a model on a genome and saving it for later runs
var trainCmd = &cobra.Command{
	Use:                        "train [in]",
	Short:                      "Train a model on a genome and write it to a file",
	Run:                        gcall.TrainCmd,
	SuggestionsMinimumDistance: 3,
	Long: `
Train a model on the records of a FASTA or GenBank file and write it as JSON
(gzipped if the output ends in .gz). Use it later with 'gcall predict -t'.

Training needs at least 20 kbp of sequence (see training.min-length).`,
}

// set flags
func init() {
	trainCmd.Flags().StringP("in", "i", "", "input FASTA or GenBank file (default: stdin)")
	trainCmd.Flags().StringP("out", "o", "", "model output file")
	trainCmd.Flags().BoolP("quiet", "q", false, "no summary on stderr")

	RootCmd.AddCommand(trainCmd)
}
