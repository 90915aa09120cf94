package core

import (
	"errors"
	"fmt"
	"os"

	"tmods/internal/domain"
	"tmods/internal/download"
	"tmods/internal/storage/db"
)

// VerifyStatus is the outcome of checking one ledger entry
type VerifyStatus string

const (
	VerifyOK         VerifyStatus = "ok"
	VerifyMissing    VerifyStatus = "missing"
	VerifyMismatch   VerifyStatus = "mismatch"
	VerifyNoChecksum VerifyStatus = "no_checksum"
)

// VerifyResult is the verification outcome for one downloaded file
type VerifyResult struct {
	Download db.Download
	Status   VerifyStatus
}

// preferredAlgos is the order in which a recorded checksum is chosen
var preferredAlgos = []domain.HashAlgo{domain.HashSHA1, domain.HashSHA512, domain.HashMD5}

// RecordDownload adds a downloaded file to the ledger with the strongest
// checksum its version declares
func (s *Service) RecordDownload(mod domain.ResolvedVersion, path string) error {
	if s.db == nil {
		return fmt.Errorf("%w: no database", domain.ErrInvalidConfig)
	}
	if mod.Version == nil {
		return fmt.Errorf("%w: no version to record", domain.ErrNotFound)
	}

	dl := &db.Download{
		Path:      path,
		Mod:       mod.Identity,
		VersionID: mod.Version.ID,
	}
	if f, ok := mod.Version.PrimaryFile(); ok {
		for _, algo := range preferredAlgos {
			if h := f.Hashes[algo]; h != "" {
				dl.Algo, dl.Hash = algo, h
				break
			}
		}
	}
	return s.db.RecordDownload(dl)
}

// InstalledMods returns the ledger as installed mods, for update checks
func (s *Service) InstalledMods() ([]InstalledMod, error) {
	if s.db == nil {
		return nil, nil
	}
	downloads, err := s.db.ListDownloads()
	if err != nil {
		return nil, err
	}

	mods := make([]InstalledMod, 0, len(downloads))
	for _, dl := range downloads {
		mods = append(mods, InstalledMod{Mod: dl.Mod, VersionID: dl.VersionID, Path: dl.Path})
	}
	return mods, nil
}

// VerifyDownloads re-hashes every file in the ledger
func (s *Service) VerifyDownloads() ([]VerifyResult, error) {
	if s.db == nil {
		return nil, nil
	}
	downloads, err := s.db.ListDownloads()
	if err != nil {
		return nil, err
	}

	results := make([]VerifyResult, 0, len(downloads))
	for _, dl := range downloads {
		results = append(results, VerifyResult{Download: dl, Status: verifyFile(dl)})
	}
	return results, nil
}

func verifyFile(dl db.Download) VerifyStatus {
	if _, err := os.Stat(dl.Path); errors.Is(err, os.ErrNotExist) {
		return VerifyMissing
	}
	if dl.Hash == "" || dl.Algo == "" {
		return VerifyNoChecksum
	}
	if !download.CheckFile(dl.Path, dl.Algo, dl.Hash) {
		return VerifyMismatch
	}
	return VerifyOK
}
