package cmd

import (
	"github.com/spf13/cobra"

	"github.com/maastricht-university/kaldi-align/orchestrator"
)

var align2jsonCmd = &cobra.Command{
	Use:   "align2json <work-dir> <output-file>",
	Short: "Rebuild the JSONL artifact from an existing work directory",
	Long: `align2json re-reads utt_map.txt and exp/align/phones.prons from an
engine working directory produced by a previous align run and writes the
JSONL alignment artifact, without re-running the engine.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetInt("frames-per-second"); v > 0 {
			cfg.Audio.FramesPerSecond = v
		}
		return orchestrator.NewPipeline(cfg).ExportJSON(args[0], args[1])
	},
}

func init() {
	align2jsonCmd.Flags().Int("frames-per-second", 0, "audio frames per second (default from config)")
	rootCmd.AddCommand(align2jsonCmd)
}
