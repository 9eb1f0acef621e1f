package config

import "errors"

var (
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required")
	ErrInvalidProxyFactor  = errors.New("drive-time proxy factor must be positive")
	ErrInvalidWeights      = errors.New("composite weights must be non-negative")
	ErrInvalidRouteWorkers = errors.New("route worker count must be at least 1")
)
