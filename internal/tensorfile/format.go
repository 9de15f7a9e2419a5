// Package tensorfile reads and writes coordinate-list tensor data files in
// the two formats spec §3 defines: tns (bare coordinates+value) and ttx
// (MatrixMarket-style, with a header). Resolving the extension from a
// single Format value everywhere — here, in the data generator, and in
// the oracle — closes the §9 open question about paths hard-coded to
// ".tns".
package tensorfile

import "fmt"

// Format is a tensor data file serialization.
type Format string

const (
	TNS Format = "tns"
	TTX Format = "ttx"
)

// Ext returns the filename extension for f, including the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// ParseFormat validates a format string from the CLI/config, returning the
// default (TNS) and an error on an unsupported value; per spec §6 the
// caller should log a warning and keep the previous default rather than
// fail outright.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case TNS, TTX:
		return Format(s), nil
	default:
		return TNS, fmt.Errorf("tensorfile: unsupported format %q", s)
	}
}
