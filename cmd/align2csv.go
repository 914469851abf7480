package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/kaldi-align/orchestrator"
)

var (
	encodeReq    orchestrator.EncodeRequest
	encodeOutput string
)

var align2csvCmd = &cobra.Command{
	Use:   "align2csv",
	Short: "Encode aligned phoneme sequences as vocabulary ids",
	Long: `align2csv reads the JSONL alignment artifact, builds the deterministic
phoneme vocabulary for the language, and writes one pipe-delimited row of
integer phoneme ids per utterance. Utterances with symbols outside the
vocabulary are skipped and reported; the batch continues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := os.Stdout
		if encodeOutput != "" {
			f, err := os.Create(encodeOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		report, err := orchestrator.NewPipeline(cfg).Encode(encodeReq, out)
		if err != nil {
			return err
		}
		if len(report.Skipped) > 0 {
			logrus.WithFields(logrus.Fields{
				"encoded": report.Processed,
				"skipped": len(report.Skipped),
			}).Warn("some utterances were not encoded")
		}
		return nil
	},
}

func init() {
	f := align2csvCmd.Flags()
	f.StringVar(&encodeReq.Language, "language", "", "vocabulary language (short codes allowed, e.g. \"en\")")
	f.StringVar(&encodeReq.Alignments, "alignments", "", "path to alignment JSONL file")
	f.StringVar(&encodeReq.Metadata, "metadata", "", "path to metadata CSV file")
	f.StringVar(&encodeReq.PhonemeIDs, "phoneme-ids", "", "path to write text file with phoneme ids")
	f.BoolVar(&encodeReq.HasSpeaker, "has-speaker", false, "output id|speaker|ids")
	f.StringVarP(&encodeOutput, "output", "o", "", "path to write CSV (default: stdout)")

	for _, name := range []string{"language", "alignments", "metadata"} {
		cobra.CheckErr(align2csvCmd.MarkFlagRequired(name))
	}
	rootCmd.AddCommand(align2csvCmd)
}
