package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dwbits/dwpack"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := struct {
		Output  string
		Jobs    int
		Verbose bool
	}{}

	cmd := &cobra.Command{
		Use:           "dwpack -o output.dwp input.dwo...",
		Short:         "dwpack merges split DWARF objects into a DWARF package",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			f, err := os.Create(opts.Output)
			if err != nil {
				return err
			}

			err = dwpack.Package(cmd.Context(), args, f,
				dwpack.WithLogger(logger),
				dwpack.WithParallelism(opts.Jobs))
			if err != nil {
				f.Close()
				os.Remove(opts.Output)
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output package file (required)")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "concurrent input loads (0 = default)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
