package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/kaldi-align/orchestrator"
)

var trimReq orchestrator.TrimRequest

var align2wavsCmd = &cobra.Command{
	Use:   "align2wavs",
	Short: "Trim audio files to their aligned speech",
	Long: `align2wavs uses the aligned word boundaries to cut each audio file down
to the spoken content, dropping the silence the engine detected at the
edges, and writes a metadata.csv covering the trimmed files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetFloat64("min-sec"); v > 0 {
			cfg.Audio.MinSec = v
		}
		if v, _ := cmd.Flags().GetFloat64("buffer-sec"); v > 0 {
			cfg.Audio.BufferSec = v
		}

		report, err := orchestrator.NewPipeline(cfg).TrimWavs(trimReq)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"trimmed": report.Processed,
			"skipped": len(report.Skipped),
		}).Info("trimming finished")
		return nil
	},
}

func init() {
	f := align2wavsCmd.Flags()
	f.StringVar(&trimReq.Metadata, "metadata", "", "path to metadata CSV file")
	f.StringVar(&trimReq.Alignments, "alignments", "", "path to alignment JSONL file")
	f.StringVar(&trimReq.AudioFiles, "audio-files", "", "file with paths of audio files")
	f.StringVar(&trimReq.OutputDir, "output-dir", "", "directory for trimmed audio files")
	f.BoolVar(&trimReq.HasSpeaker, "has-speaker", false, "metadata has format id|speaker|text")
	f.Float64("min-sec", 0, "minimum seconds for a trimmed audio file (default from config)")
	f.Float64("buffer-sec", 0, "seconds of audio to leave around speech (default from config)")

	for _, name := range []string{"metadata", "alignments", "audio-files", "output-dir"} {
		cobra.CheckErr(align2wavsCmd.MarkFlagRequired(name))
	}
	rootCmd.AddCommand(align2wavsCmd)
}
