package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tmods/internal/domain"
)

// Download is a ledger entry for a file placed on disk by tmods
type Download struct {
	Path         string
	Mod          domain.ModIdentity
	VersionID    string
	Algo         domain.HashAlgo
	Hash         string
	DownloadedAt time.Time
}

// RecordDownload inserts or replaces the ledger entry for d.Path
func (d *DB) RecordDownload(dl *Download) error {
	if dl.DownloadedAt.IsZero() {
		dl.DownloadedAt = time.Now()
	}

	_, err := d.Exec(`
		INSERT INTO downloads (path, provider, mod_id, slug, version_id, algo, hash, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			provider = excluded.provider,
			mod_id = excluded.mod_id,
			slug = excluded.slug,
			version_id = excluded.version_id,
			algo = excluded.algo,
			hash = excluded.hash,
			downloaded_at = excluded.downloaded_at
	`, dl.Path, string(dl.Mod.Provider), dl.Mod.ID, dl.Mod.Slug, dl.VersionID, string(dl.Algo), dl.Hash, dl.DownloadedAt)
	if err != nil {
		return fmt.Errorf("recording download: %w", err)
	}
	return nil
}

// GetDownload returns the ledger entry for path
func (d *DB) GetDownload(path string) (*Download, error) {
	row := d.QueryRow(`
		SELECT path, provider, mod_id, slug, version_id, algo, hash, downloaded_at
		FROM downloads
		WHERE path = ?
	`, path)

	dl, err := scanDownload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no download recorded for %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("getting download: %w", err)
	}
	return dl, nil
}

// ListDownloads returns every ledger entry, oldest first
func (d *DB) ListDownloads() ([]Download, error) {
	rows, err := d.Query(`
		SELECT path, provider, mod_id, slug, version_id, algo, hash, downloaded_at
		FROM downloads
		ORDER BY downloaded_at ASC, path ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying downloads: %w", err)
	}
	defer rows.Close()

	var downloads []Download
	for rows.Next() {
		dl, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning download: %w", err)
		}
		downloads = append(downloads, *dl)
	}
	return downloads, rows.Err()
}

// DeleteDownload removes the ledger entry for path
func (d *DB) DeleteDownload(path string) error {
	result, err := d.Exec("DELETE FROM downloads WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("deleting download: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: no download recorded for %s", domain.ErrNotFound, path)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDownload(s scanner) (*Download, error) {
	var (
		dl             Download
		provider       string
		slug, algo, hs sql.NullString
	)
	if err := s.Scan(&dl.Path, &provider, &dl.Mod.ID, &slug, &dl.VersionID, &algo, &hs, &dl.DownloadedAt); err != nil {
		return nil, err
	}
	dl.Mod.Provider = domain.Provider(provider)
	dl.Mod.Slug = slug.String
	dl.Algo = domain.HashAlgo(algo.String)
	dl.Hash = hs.String
	return &dl, nil
}
