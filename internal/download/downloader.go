package download

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"tmods/internal/domain"
)

// Progress represents the current state of a download
type Progress struct {
	TotalBytes int64   // 0 if unknown
	Downloaded int64   // bytes so far
	Percentage float64 // 0-100, stays 0 when the size is unknown
}

// ProgressFunc is called as bytes arrive
type ProgressFunc func(Progress)

// Result describes a file that landed on disk
type Result struct {
	Path     string
	Size     int64
	Checksum string // hex digest in the requested algorithm, empty if none was requested
}

// HTTPDoer sends an HTTP request
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Downloader streams a URL to disk
type Downloader struct {
	client HTTPDoer
}

// NewDownloader creates a Downloader. A nil client uses http.DefaultClient.
func NewDownloader(client HTTPDoer) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{client: client}
}

// Download fetches url into destPath through a temp file, hashing the stream with algo
// when it is set. A partially written file never appears at destPath.
func (d *Downloader) Download(ctx context.Context, url, destPath string, algo domain.HashAlgo, progressFn ProgressFunc) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Execute the request
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	// Check for HTTP errors
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrDownloadFailed, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	// Write to a temp file first so destPath only ever holds a complete file
	tempPath := destPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		file.Close()
		os.Remove(tempPath) // no-op after a successful rename
	}()

	var src io.Reader = &progressReader{
		reader:     resp.Body,
		totalBytes: resp.ContentLength,
		progressFn: progressFn,
	}

	var checksum func() string
	if algo != "" {
		h, err := NewHash(algo)
		if err != nil {
			return nil, err
		}
		// TeeReader feeds the hasher while the file is written
		src = io.TeeReader(src, h)
		checksum = func() string { return hex.EncodeToString(h.Sum(nil)) }
	}

	written, err := io.Copy(file, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}

	// Close the file before renaming
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("closing file: %w", err)
	}
	// Atomically move temp file to final destination
	if err := os.Rename(tempPath, destPath); err != nil {
		return nil, fmt.Errorf("renaming file: %w", err)
	}

	result := &Result{Path: destPath, Size: written}
	if checksum != nil {
		result.Checksum = checksum()
	}
	return result, nil
}

// progressReader counts bytes as they are read and reports them to progressFn
type progressReader struct {
	reader     io.Reader
	totalBytes int64
	downloaded int64
	progressFn ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.downloaded += int64(n)
		if r.progressFn != nil {
			progress := Progress{
				TotalBytes: r.totalBytes,
				Downloaded: r.downloaded,
			}
			if r.totalBytes > 0 {
				progress.Percentage = float64(r.downloaded) / float64(r.totalBytes) * 100
			}
			r.progressFn(progress)
		}
	}
	return n, err
}
