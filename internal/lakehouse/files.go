package lakehouse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxFetchSize bounds one downloaded dataset file.
const maxFetchSize = 256 << 20

// SourceFile is a dataset file on disk.
type SourceFile struct {
	Table  string `json:"table"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Inspect hashes the file of every dataset under dir. Missing files are
// collected and reported together.
func Inspect(dir string, datasets []Dataset) ([]SourceFile, error) {
	var out []SourceFile
	var errs []error
	for _, d := range datasets {
		p := filepath.Join(dir, d.File)
		sum, n, err := hashFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, SourceFile{Table: d.Table, Path: p, Size: n, SHA256: sum})
	}
	return out, errors.Join(errs...)
}

// Fetch downloads every dataset file from baseURL/<file> into dir.
func Fetch(ctx context.Context, c *http.Client, baseURL, dir string, datasets []Dataset) ([]SourceFile, error) {
	if c == nil {
		c = &http.Client{Timeout: 5 * time.Minute}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	base := strings.TrimRight(baseURL, "/")
	out := make([]SourceFile, 0, len(datasets))
	for _, d := range datasets {
		sf, err := fetchOne(ctx, c, base+"/"+d.File, filepath.Join(dir, d.File))
		if err != nil {
			return out, fmt.Errorf("fetch %s: %w", d.File, err)
		}
		sf.Table = d.Table
		out = append(out, sf)
	}
	return out, nil
}

func fetchOne(ctx context.Context, c *http.Client, url, dst string) (SourceFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return SourceFile{}, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return SourceFile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return SourceFile{}, fmt.Errorf("http %d", resp.StatusCode)
	}

	tmp := dst + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return SourceFile{}, err
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(fh, h), io.LimitReader(resp.Body, maxFetchSize+1))
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxFetchSize {
		err = fmt.Errorf("larger than %d bytes", maxFetchSize)
	}
	if err != nil {
		os.Remove(tmp)
		return SourceFile{}, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return SourceFile{}, err
	}
	return SourceFile{Path: dst, Size: n, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

func hashFile(path string) (string, int64, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer fh.Close()
	h := sha256.New()
	n, err := io.Copy(h, fh)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
