// Package cmd implements the unpack-gjz command line: batch conversion of
// geostream (.gjz) files to GeoJSON documents.
package cmd

import (
	"github.com/spf13/cobra"
)

type options struct {
	reverse    bool
	pretty     bool
	verbose    bool
	out        string
	selectJSON string
}

// NewRootCmd builds the unpack-gjz command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "unpack-gjz GJZ [GJZ...]",
		Short:         "Unpack one or more geostream compressed files to GeoJSON",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnpack(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.reverse, "reverse", "r", false,
		"reverse feature order in collection")
	cmd.Flags().BoolVarP(&opts.pretty, "pretty", "p", false,
		"make the output JSON pretty")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"print unpack information to console")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "",
		"path to the GeoJSON output directory, or .json file for a single input file")
	cmd.Flags().StringVarP(&opts.selectJSON, "select", "s", "",
		"JSON object selecting features with matching properties")

	return cmd
}

// Execute runs the command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
