package kaldi

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeTarGz(t *testing.T, entries map[string]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if strings.HasSuffix(name, "/") {
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if hdr.Typeflag != tar.TypeDir {
			if _, err := tw.Write([]byte(content)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestExtractTarGz(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := makeTarGz(t, map[string]string{
		"kaldi/":               "",
		"kaldi/get_phones.sh":  "#!/bin/sh\n",
		"kaldi/utils/run.pl":   "#!/usr/bin/perl\n",
		"kaldi/x86_64/gmm-sum": "binary",
	})

	if err := extractTarGz(archive, dir); err != nil {
		t.Fatalf("extractTarGz: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "kaldi", "utils", "run.pl"))
	if err != nil {
		t.Fatalf("extracted file: %v", err)
	}
	if string(data) != "#!/usr/bin/perl\n" {
		t.Errorf("extracted content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "kaldi", "x86_64", "gmm-sum")); err != nil {
		t.Errorf("nested file missing: %v", err)
	}
}

func TestExtractTarGzRejectsEscape(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := makeTarGz(t, map[string]string{"../evil.sh": "rm -rf\n"})

	if err := extractTarGz(archive, dir); err == nil {
		t.Fatal("extractTarGz accepted a path escaping the extraction dir")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "evil.sh")); !os.IsNotExist(err) {
		t.Error("escaping entry was written outside the extraction dir")
	}
}

func TestExtractTarGzNotGzip(t *testing.T) {
	t.Parallel()

	if err := extractTarGz(strings.NewReader("not an archive"), t.TempDir()); err == nil {
		t.Fatal("extractTarGz accepted a non-gzip stream")
	}
}

func TestEngineEnv(t *testing.T) {
	e := New("/opt/kaldi", "/work/batch", "")
	if e.TrainCmd != DefaultTrainCmd {
		t.Errorf("TrainCmd = %q, want %q", e.TrainCmd, DefaultTrainCmd)
	}

	env := e.env()

	var lcAll, path string
	lcCount := 0
	for _, kv := range env {
		if strings.HasPrefix(kv, "LC_ALL=") {
			lcAll = kv
			lcCount++
		}
		if strings.HasPrefix(kv, "PATH=") {
			path = strings.TrimPrefix(kv, "PATH=")
		}
	}
	if lcAll != "LC_ALL=C" || lcCount != 1 {
		t.Errorf("LC_ALL = %q (count %d), want a single LC_ALL=C", lcAll, lcCount)
	}
	wantPrefix := filepath.Join("/opt/kaldi", "x86_64") + ":" + filepath.Join("/work/batch", "utils")
	if !strings.HasPrefix(path, wantPrefix) {
		t.Errorf("PATH = %q, want prefix %q", path, wantPrefix)
	}
	if inherited := os.Getenv("PATH"); inherited != "" && !strings.HasSuffix(path, inherited) {
		t.Errorf("PATH = %q does not retain the inherited path", path)
	}
}

func TestLinkDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	model := t.TempDir()
	work := t.TempDir()
	for _, d := range []string{filepath.Join(root, "steps"), filepath.Join(root, "utils"), filepath.Join(model, "conf")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	e := New(root, work, "")
	if err := e.LinkDirs(model); err != nil {
		t.Fatalf("LinkDirs: %v", err)
	}
	for _, name := range []string{"steps", "utils", "conf", "model"} {
		if _, err := os.Stat(filepath.Join(work, name)); err != nil {
			t.Errorf("link %s: %v", name, err)
		}
	}

	// Relinking replaces the existing symlinks.
	if err := e.LinkDirs(model); err != nil {
		t.Fatalf("LinkDirs (second run): %v", err)
	}
}
