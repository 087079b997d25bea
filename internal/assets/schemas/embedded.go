// Package schemasassets provides embedded JSON schemas for standalone
// binary behavior.
//
// Schemas are embedded at compile time so the CLI and library work
// correctly regardless of the working directory or installation location.
package schemasassets

import _ "embed"

// CollectionSchema is the embedded collection.yaml JSON Schema.
//
//go:embed collection.schema.json
var CollectionSchema []byte
