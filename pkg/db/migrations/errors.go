package migrations

import "errors"

// ErrMigrationSkipped marks a single legacy record that could not be
// converted. The migration itself continues.
var ErrMigrationSkipped = errors.New("legacy record skipped")
