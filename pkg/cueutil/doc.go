// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go values.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	cfg, err := cueutil.Decode[map[string]any](schema, data, "#Config",
//	    cueutil.WithFilename(path), cueutil.WithConcrete(false))
//
// Errors name the offending field in JSON-path form, for example
// "config.cue: download.concurrency: invalid value 0 (out of bound >=1)".
package cueutil
