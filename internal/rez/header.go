package rez

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Header is the fixed preamble of a REZ archive.
type Header struct {
	// RawDescription is the NUL-padded description field. It aliases the
	// archive buffer.
	RawDescription []byte

	Version   uint32
	DirOffset uint32 // absolute offset of the root directory table
	DirSize   uint32 // byte length of the root directory table
	DateTime  uint32 // packed timestamp, not decoded

	// DirNameMax and FileNameMax are advisory and never enforced.
	DirNameMax  uint32
	FileNameMax uint32

	// Unknown and Reserved are kept verbatim. Some archives store a
	// secondary index offset in Unknown.
	Unknown  [2]uint32
	Reserved uint32
}

// Description returns the description text up to the first NUL.
func (h *Header) Description() string {
	desc := h.RawDescription
	if i := bytes.IndexByte(desc, 0); i >= 0 {
		desc = desc[:i]
	}
	return decodeText(desc)
}

// ParseHeader decodes the archive header at the start of buf. It fails
// if buf is shorter than HeaderSize or the directory table does not fit.
func ParseHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrTruncatedHeader, HeaderSize, len(buf))
	}

	le := binary.LittleEndian
	h := &Header{
		RawDescription: buf[:descriptionSize:descriptionSize],
		Version:        le.Uint32(buf[offVersion:]),
		DirOffset:      le.Uint32(buf[offDirOffset:]),
		DirSize:        le.Uint32(buf[offDirSize:]),
		DateTime:       le.Uint32(buf[offDateTime:]),
		DirNameMax:     le.Uint32(buf[offDirNameMax:]),
		FileNameMax:    le.Uint32(buf[offFileNameMax:]),
		Unknown: [2]uint32{
			le.Uint32(buf[offUnknown:]),
			le.Uint32(buf[offUnknown+4:]),
		},
		Reserved: le.Uint32(buf[offReserved:]),
	}

	if uint64(h.DirOffset)+uint64(h.DirSize) > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: directory table [%d, %d) exceeds archive size %d",
			ErrTruncatedHeader, h.DirOffset, uint64(h.DirOffset)+uint64(h.DirSize), len(buf))
	}

	return h, nil
}

// Archive is a parsed header plus the buffer it describes. The buffer is
// borrowed and must not be modified while the archive or any entry read
// from it is in use.
type Archive struct {
	Header *Header
	buf    []byte
}

// Open parses the header of buf and prepares the root directory.
func Open(buf []byte) (*Archive, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	return &Archive{Header: h, buf: buf}, nil
}

// Root returns a fresh iterator over the top-level directory table.
func (a *Archive) Root() *DirectoryIterator {
	start := int(a.Header.DirOffset)
	return NewDirectoryIterator(a.buf, start, start+int(a.Header.DirSize))
}

// Size is the length of the archive buffer in bytes.
func (a *Archive) Size() int { return len(a.buf) }
