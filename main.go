// Command kaldi-align aligns transcribed speech datasets with an external
// Kaldi engine and converts the alignments into phoneme timing and
// phoneme-id artifacts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/kaldi-align/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
