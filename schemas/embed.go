// Package schemas carries the JSON schemas validated against persisted
// configuration files.
package schemas

import _ "embed"

// Scatter is the schema for scatter configuration files.
//
//go:embed scatter.schema.json
var Scatter []byte
