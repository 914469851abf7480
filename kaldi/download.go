package kaldi

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultURLFormat is where engine and model archives are published.
// {file} is replaced with the archive name.
const DefaultURLFormat = "https://github.com/rhasspy/kaldi-align/releases/download/v1.0/{file}"

var httpClient = &http.Client{Timeout: 30 * time.Minute}

// DownloadEngine fetches and extracts the Kaldi distribution archive into
// extractDir.
func DownloadEngine(ctx context.Context, urlFormat, extractDir string) error {
	url := strings.ReplaceAll(urlFormat, "{file}", "kaldi_x86_64.tar.gz")
	return downloadAndExtract(ctx, url, extractDir)
}

// DownloadModel fetches and extracts the acoustic model archive for
// modelName into extractDir.
func DownloadModel(ctx context.Context, urlFormat, modelName, extractDir string) error {
	url := strings.ReplaceAll(urlFormat, "{file}", modelName+".tar.gz")
	return downloadAndExtract(ctx, url, extractDir)
}

func downloadAndExtract(ctx context.Context, url, extractDir string) error {
	logrus.WithFields(logrus.Fields{"component": "kaldi", "url": url}).Info("downloading")

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: %s", url, resp.Status)
	}
	return extractTarGz(resp.Body, extractDir)
}

// extractTarGz unpacks a gzipped tarball, refusing entries that would
// escape destDir.
func extractTarGz(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		dest := filepath.Join(destDir, filepath.Clean(hdr.Name))
		if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes extraction dir: %q", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, dest); err != nil && !os.IsExist(err) {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
	}
}
