package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"tmods/internal/domain"
)

// DefaultRetries is the number of extra attempts after a hash mismatch
const DefaultRetries = 5

// Request describes one file to fetch and verify
type Request struct {
	URL       string // direct link; empty means the file must be fetched manually
	ManualURL string // page shown to the user when URL is empty
	Dest      string
	Hash      string // expected hex digest; empty skips verification
	Algo      domain.HashAlgo
	Popup     domain.PopupFunc
	Progress  ProgressFunc
}

// Fetcher downloads files and re-downloads them until their hash matches
type Fetcher struct {
	downloader *Downloader
	retries    int
	log        *zap.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithRetries sets how many times a mismatching download is retried
func WithRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = n
		}
	}
}

// NewFetcher creates a Fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client HTTPDoer, log *zap.Logger, opts ...FetcherOption) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Fetcher{
		downloader: NewDownloader(client),
		retries:    DefaultRetries,
		log:        log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch places the requested file at req.Dest. Each attempt that lands a file
// with the wrong digest removes it and tries again, up to retries+1 attempts in
// total; when they are used up ErrIntegrity is returned and Dest does not exist.
// Transport and popup failures are returned immediately.
func (f *Fetcher) Fetch(ctx context.Context, req Request) error {
	if req.URL == "" && req.Popup == nil {
		return fmt.Errorf("%w: %s", domain.ErrPopupRequired, req.ManualURL)
	}

	algo := req.Algo
	if req.Hash != "" && algo == "" {
		algo = domain.HashSHA1
	}

	for attempt := 1; attempt <= f.retries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := f.attempt(ctx, req, algo)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		f.log.Warn("downloaded file failed hash verification",
			zap.String("path", req.Dest),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", f.retries+1))
		if err := os.Remove(req.Dest); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing corrupt file: %w", err)
		}
	}

	return fmt.Errorf("%w: %s after %d attempts", domain.ErrIntegrity, req.Dest, f.retries+1)
}

// attempt lands the file once and reports whether it verified
func (f *Fetcher) attempt(ctx context.Context, req Request, algo domain.HashAlgo) (bool, error) {
	if req.URL == "" {
		if err := req.Popup(ctx, req.ManualURL, req.Dest); err != nil {
			return false, fmt.Errorf("manual download: %w", err)
		}
		if req.Hash == "" {
			return true, nil
		}
		return CheckFile(req.Dest, algo, req.Hash), nil
	}

	result, err := f.downloader.Download(ctx, req.URL, req.Dest, algo, req.Progress)
	if err != nil {
		return false, err
	}
	if req.Hash == "" {
		return true, nil
	}
	return strings.EqualFold(result.Checksum, req.Hash), nil
}
