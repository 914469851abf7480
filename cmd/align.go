package cmd

import (
	"github.com/spf13/cobra"

	"github.com/maastricht-university/kaldi-align/orchestrator"
)

var alignReq orchestrator.AlignRequest

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align a dataset and write per-phoneme timings",
	Long: `align prepares the engine's input files from the metadata CSV and the
audio file list, runs feature extraction and forced alignment, and
converts the engine's frame-level phone output into the JSONL alignment
artifact. The engine and acoustic model are downloaded on first use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetInt("num-jobs"); v > 0 {
			cfg.Engine.NumJobs = v
		}
		if v, _ := cmd.Flags().GetInt("frames-per-second"); v > 0 {
			cfg.Audio.FramesPerSecond = v
		}
		if v, _ := cmd.Flags().GetString("kaldi-dir"); v != "" {
			cfg.Engine.KaldiDir = v
		}
		if v, _ := cmd.Flags().GetString("download-dir"); v != "" {
			cfg.Engine.DownloadDir = v
		}
		if v, _ := cmd.Flags().GetString("url-format"); v != "" {
			cfg.Engine.URLFormat = v
		}
		if v, _ := cmd.Flags().GetString("train-cmd"); v != "" {
			cfg.Engine.TrainCmd = v
		}
		return orchestrator.NewPipeline(cfg).Align(cmd.Context(), alignReq)
	},
}

func init() {
	f := alignCmd.Flags()
	f.StringVar(&alignReq.Metadata, "metadata", "", "path to CSV metadata with id|text")
	f.StringVar(&alignReq.AudioFiles, "audio-files", "", "file with paths of audio files")
	f.StringVar(&alignReq.Model, "model", "", "name or path of acoustic model")
	f.StringVar(&alignReq.OutputFile, "output-file", "", "path to write alignment JSONL")
	f.StringVar(&alignReq.OutputDir, "output-dir", "", "engine working directory (default: temporary)")
	f.StringVar(&alignReq.CleanMetadata, "clean-metadata", "", "path to write sorted CSV metadata")
	f.BoolVar(&alignReq.HasSpeaker, "has-speaker", false, "metadata has format id|speaker|text")
	f.BoolVar(&alignReq.SkipMFCCs, "skip-mfccs", false, "assume MFCCs have already been created")
	f.Int("num-jobs", 0, "number of engine jobs (default from config)")
	f.Int("frames-per-second", 0, "audio frames per second (default from config)")
	f.String("kaldi-dir", "", "path to the engine directory")
	f.String("download-dir", "", "directory for downloaded engine and models")
	f.String("url-format", "", "URL format string for downloads (receives {file})")
	f.String("train-cmd", "", "engine $train_cmd")

	for _, name := range []string{"metadata", "audio-files", "model", "output-file"} {
		cobra.CheckErr(alignCmd.MarkFlagRequired(name))
	}
	rootCmd.AddCommand(alignCmd)
}
