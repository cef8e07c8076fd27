package main

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/pimfuncsim/verify"
)

var lintLimit int

var lintCmd = &cobra.Command{
	Use:     "lint WORD...",
	Aliases: []string{"disasm"},
	Short:   "Decode CRF words given in hexadecimal and check the kernel.",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		words, err := parseWords(args)
		if err != nil {
			return err
		}

		r := verify.GenerateReport(words, lintLimit)
		r.WriteReport(cmd.OutOrStdout())

		if !r.OK() {
			return errors.New("kernel check failed")
		}

		return nil
	},
}

func parseWords(args []string) ([]uint32, error) {
	words := make([]uint32, len(args))

	for i, arg := range args {
		w, err := strconv.ParseUint(arg, 0, 32)
		if err != nil {
			return nil, err
		}

		words[i] = uint32(w)
	}

	return words, nil
}

func init() {
	lintCmd.Flags().IntVar(&lintLimit, "limit", 1<<16,
		"transactions to run before giving up on EXIT")
	rootCmd.AddCommand(lintCmd)
}
