package services

import "errors"

// Dashboard service errors
var (
	ErrNoDataset       = errors.New("no dataset loaded")
	ErrInvalidQuery    = errors.New("invalid query")
	ErrQueryLogOffline = errors.New("query log unavailable")
)
