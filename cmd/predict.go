package cmd

import (
	"github.com/jjtimmons/gcall/internal/gcall"
	"github.com/spf13/cobra"
)

// predictCmd is for calling the genes of every record in a FASTA or GenBank file
var predictCmd = &cobra.Command{
	Use:                        "predict [in]",
	Short:                      "Find the genes of each record in a FASTA or GenBank file",
	Run:                        gcall.PredictCmd,
	SuggestionsMinimumDistance: 3,
	Long: `
Find the protein coding genes of each record in a FASTA or GenBank file
(optionally gzip, bzip2 or xz compressed).

In single mode (the default) a model is trained on all records together and
used for each of them. Input that is too short to train on falls back to the
model bank. In meta mode every record is scored against every model of the
bank and called with the one that fits it best. In model mode one model, from
a training file (-t) or the bank (--model), is used for every record.`,
}

// set flags
func init() {
	predictCmd.Flags().StringP("in", "i", "", "input FASTA or GenBank file (default: stdin)")
	predictCmd.Flags().StringP("out", "o", "", "gene output file (default: stdout)")
	predictCmd.Flags().StringP("proteins", "a", "", "write protein translations to this file")
	predictCmd.Flags().StringP("nucleotides", "d", "", "write gene nucleotide sequences to this file")
	predictCmd.Flags().StringP("scores", "s", "", "write every candidate gene and its score to this file")
	predictCmd.Flags().StringP("format", "f", "gff", "gene output format: gbk, gff or sco")
	predictCmd.Flags().StringP("mode", "p", "single", "single, meta or model")
	predictCmd.Flags().StringP("training", "t", "", "training file: read if it exists, else written after training")
	predictCmd.Flags().String("model", "", "id of a bank model to use for every record (see 'gcall models')")
	predictCmd.Flags().String("bank", "", "model bank file to use instead of the built-in bank")
	predictCmd.Flags().BoolP("quiet", "q", false, "no progress or summary on stderr")

	RootCmd.AddCommand(predictCmd)
}
