// Package normalisers provides implementations of the Normaliser interface
// for various upload formats. Each normaliser knows how to extract text
// from a specific MIME type; the Registry tries matching normalisers in
// priority order until one succeeds.
//
// Normalisers are registered with the Registry at startup.
package normalisers
