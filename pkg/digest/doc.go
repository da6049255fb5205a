// SPDX-License-Identifier: MPL-2.0

// Package digest computes and verifies artifact digests without buffering whole
// files in memory.
//
// A Digest pairs an Algorithm with a lowercase hex value. Verifier is an
// io.Writer that hashes and counts bytes as they stream through it, so download
// and extraction code can verify content while writing it to disk.
package digest
