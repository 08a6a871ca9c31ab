// Package cmd is for command line interactions with the gcall application
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "gcall",
	Short: `Find protein coding genes in bacterial, archaeal and viral sequences.
Models are trained on the input or picked per record from a bank of pretrained models`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "settings file (default is $HOME/.gcall/config.yaml)")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "log progress to stderr")
	RootCmd.PersistentFlags().Int("tasks", 0, "records processed in parallel (default: physical cores)")

	// gene finding settings shared by predict and train
	RootCmd.PersistentFlags().IntP("code", "g", 0, "genetic code (default: 11, or 4 if training finds it fits better)")
	RootCmd.PersistentFlags().BoolP("closed", "c", false, "closed ends: no genes running off the edges of a record")
	RootCmd.PersistentFlags().BoolP("mask", "m", false, "treat runs of N as masked sequence")
	RootCmd.PersistentFlags().Int("min-gene", 90, "minimum gene length (bp)")

	flags := map[string]string{
		"config":           "config",
		"verbose":          "verbose",
		"tasks":            "tasks",
		"code":             "code",
		"genes.closed":     "closed",
		"genes.mask":       "mask",
		"genes.min-length": "min-gene",
	}
	for key, flag := range flags {
		viper.BindPFlag(key, RootCmd.PersistentFlags().Lookup(flag))
	}
}
