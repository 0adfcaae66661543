package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrMonsterNotFound = errors.New("monster not found")
	ErrInvalidCatalog  = errors.New("invalid monster catalog")
)
