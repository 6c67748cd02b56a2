package rez

import "errors"

// Archive header layout. Every integer field is a little-endian uint32.
const (
	descriptionSize = 127

	offVersion     = 127
	offDirOffset   = 131
	offDirSize     = 135
	offUnknown     = 139 // two opaque values, sometimes a secondary index offset
	offDateTime    = 147
	offReserved    = 151
	offDirNameMax  = 155
	offFileNameMax = 159

	// HeaderSize is the number of bytes ParseHeader needs.
	HeaderSize = 163
)

// Directory table record layout.
//
//	[type u32][body_offset u32][body_size u32][datetime u32]
//	directory: [name\0]
//	file:      [id u32][reversed ext\0][4 reserved][name\0][1 reserved]
const (
	entryHeaderSize = 16
	fileIDSize      = 4

	// fileNameGap is the number of opaque bytes between the extension
	// terminator and the file name.
	fileNameGap = 4

	// fileTrailer is the opaque byte after a file name's terminator.
	// Directory names have no trailer.
	fileTrailer = 1

	typeDirectory = 1
)

var (
	// ErrTruncatedHeader is returned when the buffer cannot hold the fixed
	// header or the directory table it points to.
	ErrTruncatedHeader = errors.New("truncated header")

	// ErrMalformedEntry is returned when a directory table record would
	// read past the archive or past the bounds of its sibling list.
	ErrMalformedEntry = errors.New("malformed entry")
)
