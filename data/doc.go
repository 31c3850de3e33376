// Package data loads the render context of a template from structured
// files and command-line assignments.
//
// Files are decoded by extension:
//
//	.yaml .yml   YAML
//	.json        JSON
//	.toml        TOML
//	.env         dotenv (every value is a string)
//
// Later sources are merged over earlier ones with [Merge], and
// [Assign] applies a single "key=value" override where the key may be a
// dotted path into nested mappings.
package data
