package internal

import "errors"

// Error taxonomy shared by the stages. SchemaViolation and ExternalCall are
// per-item: the stage skips the item and keeps going. ConfigurationMissing is
// fatal for the crew that needs the resource.
var (
	ErrSchemaViolation      = errors.New("schema violation")
	ErrExternalCall         = errors.New("external call failed")
	ErrConfigurationMissing = errors.New("configuration missing")
)
