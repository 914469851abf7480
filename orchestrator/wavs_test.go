package orchestrator_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/maastricht-university/kaldi-align/alignment"
	"github.com/maastricht-university/kaldi-align/orchestrator"
)

func writeTestWav(t *testing.T, path string, seconds float64) {
	t.Helper()
	const rate = 16000
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: rate, NumChannels: 1},
		Data:           make([]int, int(seconds*rate)),
		SourceBitDepth: 16,
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func alignedUtterance(id string) *alignment.Utterance {
	return &alignment.Utterance{
		ID: id,
		Words: []alignment.Word{
			{Word: alignment.EpsilonWord, Phones: []alignment.Phone{{Start: 0, Duration: 0.5, Phone: "SIL"}}},
			{Word: "HI", Phones: []alignment.Phone{{Start: 0.5, Duration: 0.2, Phone: "h"}}},
			{Word: "YOU", Phones: []alignment.Phone{{Start: 1.0, Duration: 0.5, Phone: "j"}}},
		},
	}
}

func TestTrimWavs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	srcWav := filepath.Join(dir, "u1.wav")
	writeTestWav(t, srcWav, 2.0)

	alignPath := filepath.Join(dir, "alignments.jsonl")
	writeAlignments(t, alignPath, []*alignment.Utterance{
		alignedUtterance("u1"),
		// A single speech word has no end bound and must be skipped.
		{ID: "u2", Words: []alignment.Word{{Word: "HI", Phones: []alignment.Phone{{Start: 0.5, Duration: 0.2, Phone: "h"}}}}},
		// No metadata text for u3.
		alignedUtterance("u3"),
	})

	metaPath := filepath.Join(dir, "metadata.csv")
	writeFile(t, metaPath, "u1|hello\nu2|hi\n")

	listPath := filepath.Join(dir, "audio_files.txt")
	writeFile(t, listPath, srcWav+"\n")

	outDir := filepath.Join(dir, "trimmed")
	report, err := orchestrator.NewPipeline(testConfig()).TrimWavs(orchestrator.TrimRequest{
		Metadata:   metaPath,
		Alignments: alignPath,
		AudioFiles: listPath,
		OutputDir:  outDir,
	})
	if err != nil {
		t.Fatalf("TrimWavs: %v", err)
	}
	if report.Processed != 1 {
		t.Errorf("Processed = %d, want 1", report.Processed)
	}
	if len(report.Skipped) != 2 {
		t.Errorf("Skipped = %+v, want u2 and u3", report.Skipped)
	}

	// Speech spans 0.5s..1.5s; with the 0.1s buffer the trimmed audio
	// covers 0.4s..1.6s.
	f, err := os.Open(filepath.Join(outDir, "u1.wav"))
	if err != nil {
		t.Fatalf("trimmed file: %v", err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode trimmed file: %v", err)
	}
	if want := int(1.2 * 16000); len(buf.Data) != want {
		t.Errorf("trimmed sample count = %d, want %d", len(buf.Data), want)
	}

	meta, err := os.ReadFile(filepath.Join(outDir, "metadata.csv"))
	if err != nil {
		t.Fatalf("output metadata: %v", err)
	}
	if got := strings.TrimSpace(string(meta)); got != "u1|hello" {
		t.Errorf("output metadata = %q, want %q", got, "u1|hello")
	}
}

func TestTrimWavsBelowMinimumDuration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	srcWav := filepath.Join(dir, "u1.wav")
	writeTestWav(t, srcWav, 1.0)

	alignPath := filepath.Join(dir, "alignments.jsonl")
	writeAlignments(t, alignPath, []*alignment.Utterance{
		{ID: "u1", Words: []alignment.Word{
			{Word: "A", Phones: []alignment.Phone{{Start: 0.50, Duration: 0.05, Phone: "ə"}}},
			{Word: "B", Phones: []alignment.Phone{{Start: 0.55, Duration: 0.05, Phone: "b"}}},
		}},
	})
	metaPath := filepath.Join(dir, "metadata.csv")
	writeFile(t, metaPath, "u1|a b\n")
	listPath := filepath.Join(dir, "audio_files.txt")
	writeFile(t, listPath, srcWav+"\n")

	report, err := orchestrator.NewPipeline(testConfig()).TrimWavs(orchestrator.TrimRequest{
		Metadata:   metaPath,
		Alignments: alignPath,
		AudioFiles: listPath,
		OutputDir:  filepath.Join(dir, "trimmed"),
	})
	if err != nil {
		t.Fatalf("TrimWavs: %v", err)
	}
	if report.Processed != 0 || len(report.Skipped) != 1 {
		t.Errorf("report = %+v, want the short utterance skipped", report)
	}
}
