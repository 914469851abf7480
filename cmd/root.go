// Package cmd defines the kaldi-align command line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/kaldi-align/config"
)

var (
	cfgFile string
	debug   bool
	cfg     *config.Root
)

var rootCmd = &cobra.Command{
	Use:   "kaldi-align",
	Short: "Forced alignment and phoneme encoding for speech datasets",
	Long: `kaldi-align runs a Kaldi-based forced aligner over a transcribed
speech dataset and post-processes its output:

  align       align a dataset and write per-phoneme timings (JSONL)
  align2json  rebuild the JSONL artifact from an existing work directory
  align2csv   encode aligned phoneme sequences as vocabulary ids (CSV)
  align2wavs  trim audio files to their aligned speech`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		level := logrus.InfoLevel
		if debug {
			level = logrus.DebugLevel
		} else if cfg.Pipeline.LogLevel != "" {
			level, err = logrus.ParseLevel(cfg.Pipeline.LogLevel)
			if err != nil {
				return fmt.Errorf("log level %q: %w", cfg.Pipeline.LogLevel, err)
			}
		}
		logrus.SetLevel(level)
		return nil
	},
}

// Execute runs the CLI with ctx governing all engine subprocesses.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file (default: ./kaldi-align.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print DEBUG messages to the console")
}
