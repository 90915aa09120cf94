package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrMissingCredential   = errors.New("no curseforge api key provided; curseforge api can not be used")
	ErrInvalidProvider     = errors.New("invalid provider")
	ErrIntegrity           = errors.New("downloaded file failed hash verification")
	ErrUnsupportedRelation = errors.New("unsupported dependency type")
	ErrParse               = errors.New("could not parse mod")
	ErrCouldNotIdentify    = errors.New("could not identify mod")
	ErrPopupRequired       = errors.New("manual download required")
	ErrAuthRequired        = errors.New("authentication required")
	ErrDownloadFailed      = errors.New("download failed")
	ErrInvalidConfig       = errors.New("invalid configuration")
)
