package rez

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// readUint32 reads a little-endian uint32 at off. ok is false when the
// four bytes are not all inside buf.
func readUint32(buf []byte, off int) (v uint32, ok bool) {
	if off < 0 || off+4 > len(buf) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf[off:]), true
}

// readCString returns the NUL-terminated string starting at start. The
// terminator must appear before end (or the end of buf, whichever is
// smaller). next is the offset just past the terminator.
//
// The returned slice aliases buf with its capacity clipped, so appending
// to it never writes into the archive.
func readCString(buf []byte, start, end int) (s []byte, next int, err error) {
	bound := min(end, len(buf))
	if start < 0 || start >= bound {
		return nil, 0, fmt.Errorf("string at %d starts outside [.., %d)", start, bound)
	}

	n := bytes.IndexByte(buf[start:bound], 0)
	if n < 0 {
		return nil, 0, fmt.Errorf("string at %d is not terminated before %d", start, bound)
	}

	return buf[start : start+n : start+n], start + n + 1, nil
}

// decodeText converts legacy single-byte text to UTF-8.
func decodeText(b []byte) string {
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
