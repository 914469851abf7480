package orchestrator_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maastricht-university/kaldi-align/config"
	"github.com/maastricht-university/kaldi-align/orchestrator"
)

func testConfig() *config.Root {
	cfg := &config.Root{}
	cfg.Audio.FramesPerSecond = 100
	cfg.Audio.MinSec = 0.5
	cfg.Audio.BufferSec = 0.1
	cfg.Vocabulary.Pad = "_"
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExportJSON(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "utt_map.txt"), "spk-0 u1\n")
	writeFile(t, filepath.Join(workDir, "exp", "align", "phones.prons"),
		"spk-0 120 10,15,20 HELLO h_B eh_I l_E\n")

	outFile := filepath.Join(workDir, "out", "alignments.jsonl")
	p := orchestrator.NewPipeline(testConfig())
	if err := p.ExportJSON(workDir, outFile); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	got, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"u1","words":[{"word":"HELLO","phones":[` +
		`{"start":1.2,"duration":0.1,"phone":"h"},` +
		`{"start":1.3,"duration":0.15,"phone":"eh"},` +
		`{"start":1.45,"duration":0.2,"phone":"l"}]}],` +
		`"ipa":["#","h","eh","l","#","‖"]}` + "\n"
	if string(got) != want {
		t.Errorf("artifact mismatch:\ngot  %s\nwant %s", got, want)
	}
}

func TestExportJSONDeterministic(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "utt_map.txt"), "spk-0 u1\nspk-1 u2\n")
	writeFile(t, filepath.Join(workDir, "exp", "align", "phones.prons"),
		"spk-0 0 5 <eps> SIL\n"+
			"spk-0 5 10,12 HELLO h_B l_E\n"+
			"spk-1 0 7 WORLD w_S\n")

	first := filepath.Join(workDir, "first.jsonl")
	second := filepath.Join(workDir, "second.jsonl")
	for _, out := range []string{first, second} {
		if err := orchestrator.NewPipeline(testConfig()).ExportJSON(workDir, out); err != nil {
			t.Fatalf("ExportJSON(%s): %v", out, err)
		}
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("two runs over identical input produced different artifacts")
	}
}

func TestExportJSONUnknownEngineID(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "utt_map.txt"), "spk-0 u1\n")
	writeFile(t, filepath.Join(workDir, "exp", "align", "phones.prons"),
		"ghost-0 0 5 HELLO h\n")

	err := orchestrator.NewPipeline(testConfig()).ExportJSON(workDir, filepath.Join(workDir, "out.jsonl"))
	if err == nil {
		t.Fatal("ExportJSON accepted an engine id missing from the mapping, want error")
	}
}
