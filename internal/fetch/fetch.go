// Package fetch downloads public dataset archives into a local cache directory.
//
// Files are only downloaded when missing, so the first run needs network
// access and later runs work offline from the cache.
package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// Downloader fetches remote files. The zero value uses http.DefaultClient and
// shows no progress bar.
type Downloader struct {
	// Client performs the requests. Nil means http.DefaultClient.
	Client *http.Client

	// Progress receives a progress bar while a download runs. Nil disables it.
	Progress io.Writer
}

// FileIfMissing downloads url to path unless path already exists. The body is
// streamed to a temporary file next to path and renamed once complete, so an
// interrupted download never leaves a truncated file behind.
func (d *Downloader) FileIfMissing(ctx context.Context, url, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "checking %q", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating cache directory for %q", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "building request for %s", url)
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "downloading %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return errors.Wrapf(err, "creating temporary file for %q", path)
	}
	defer os.Remove(tmp.Name())

	var dst io.Writer = tmp
	if d.Progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(d.Progress),
			progressbar.OptionSetDescription(filepath.Base(path)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(250*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Close()
		dst = io.MultiWriter(tmp, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %q", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %q", tmp.Name())
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "moving download into %q", path)
}

// ExtractTarGz unpacks the gzipped tar archive into dest. Regular files and
// directories are created; other entry types are skipped. Entries that would
// escape dest are rejected.
func ExtractTarGz(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return errors.Wrapf(err, "opening %q", archive)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "reading gzip stream of %q", archive)
	}
	defer gz.Close()

	root := filepath.Clean(dest) + string(os.PathSeparator)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "reading tar entry of %q", archive)
		}

		target := filepath.Join(dest, hdr.Name)
		if !strings.HasPrefix(target+string(os.PathSeparator), root) {
			return errors.Errorf("archive %q: entry %q escapes %q", archive, hdr.Name, dest)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, "creating %q", target)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target); err != nil {
				return err
			}
		}
	}
}

func writeEntry(r io.Reader, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, "creating %q", filepath.Dir(target))
	}
	out, err := os.Create(target)
	if err != nil {
		return errors.Wrapf(err, "creating %q", target)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return errors.Wrapf(err, "extracting %q", target)
	}
	return errors.Wrapf(out.Close(), "closing %q", target)
}
