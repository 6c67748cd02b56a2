package rez

import (
	"fmt"
	"iter"
	"slices"
)

type EntryKind uint8

const (
	KindFile EntryKind = iota
	KindDirectory
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "dir"
	default:
		return "unknown"
	}
}

// Entry is one record of a directory table. All byte slices alias the
// archive buffer.
type Entry struct {
	Kind     EntryKind
	Name     []byte
	DateTime uint32

	// BodyOffset and BodySize locate the child table of a directory or the
	// content of a file.
	BodyOffset uint32
	BodySize   uint32

	// File-only fields.
	ID           uint32
	RawExtension []byte // stored reversed, e.g. "gip" for ".pig"
	Content      []byte

	buf []byte
}

func (e Entry) IsDir() bool { return e.Kind == KindDirectory }

// Children returns a lazy iterator over a directory's entries. Nothing is
// read until the iterator is advanced. Files have no children.
func (e Entry) Children() *DirectoryIterator {
	if !e.IsDir() {
		return NewDirectoryIterator(nil, 0, 0)
	}
	start := int(e.BodyOffset)
	return NewDirectoryIterator(e.buf, start, start+int(e.BodySize))
}

// Extension returns the file extension in reading order.
func (e Entry) Extension() string {
	ext := slices.Clone(e.RawExtension)
	slices.Reverse(ext)
	return string(ext)
}

// DisplayName is the entry name decoded to UTF-8.
func (e Entry) DisplayName() string {
	return decodeText(e.Name)
}

// FileName is "name.ext" for files and the plain name for directories and
// files without an extension.
func (e Entry) FileName() string {
	name := e.DisplayName()
	if e.IsDir() || len(e.RawExtension) == 0 {
		return name
	}
	return name + "." + decodeText([]byte(e.Extension()))
}

// DirectoryIterator walks one sibling list of a directory table. The
// position is fully described by Offset and End, so a walk can be resumed
// with NewDirectoryIterator(buf, it.Offset(), it.End()).
type DirectoryIterator struct {
	buf    []byte
	start  int
	offset int
	end    int

	entry Entry
	err   error
	done  bool
}

// NewDirectoryIterator returns an iterator over the records in
// buf[offset:end].
func NewDirectoryIterator(buf []byte, offset, end int) *DirectoryIterator {
	return &DirectoryIterator{buf: buf, start: offset, offset: offset, end: end}
}

// Next advances to the next entry. It returns false at the end of the
// sibling list or on error; check Err to tell them apart.
func (it *DirectoryIterator) Next() bool {
	if it.done {
		return false
	}

	e, next, ok, err := readEntry(it.buf, it.offset, it.end)
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	if !ok {
		it.done = true
		return false
	}

	it.entry = e
	it.offset = next
	return true
}

// Entry returns the entry read by the last successful call to Next.
func (it *DirectoryIterator) Entry() Entry { return it.entry }

// Err returns the error that stopped the iterator, if any.
func (it *DirectoryIterator) Err() error { return it.err }

// Start is the position of the first record of the list.
func (it *DirectoryIterator) Start() int { return it.start }

// Offset is the position of the next record to be read.
func (it *DirectoryIterator) Offset() int { return it.offset }

// End is the exclusive bound of the sibling list.
func (it *DirectoryIterator) End() int { return it.end }

// Rewind moves the iterator back to the first record of its list.
func (it *DirectoryIterator) Rewind() {
	it.offset = it.start
	it.entry = Entry{}
	it.err = nil
	it.done = false
}

// All adapts the iterator for range-over-func. A failure is yielded once
// as the final pair.
func (it *DirectoryIterator) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for it.Next() {
			if !yield(it.entry, nil) {
				return
			}
		}
		if it.err != nil {
			yield(Entry{}, it.err)
		}
	}
}

// readEntry decodes the record at cur. ok is false when the list ends,
// either on a zero-size sentinel or when cur leaves the list bounds.
func readEntry(buf []byte, cur, end int) (e Entry, next int, ok bool, err error) {
	if cur >= len(buf) || cur >= end {
		return Entry{}, 0, false, nil
	}

	malformed := func(format string, args ...any) error {
		return fmt.Errorf("%w at %d: %s", ErrMalformedEntry, cur, fmt.Sprintf(format, args...))
	}

	if cur+entryHeaderSize > len(buf) {
		return Entry{}, 0, false, malformed("record header crosses end of archive (%d bytes)", len(buf))
	}
	typ, _ := readUint32(buf, cur)
	bodyOffset, _ := readUint32(buf, cur+4)
	bodySize, _ := readUint32(buf, cur+8)
	dateTime, _ := readUint32(buf, cur+12)

	if bodySize == 0 {
		return Entry{}, 0, false, nil
	}

	bodyEnd := uint64(bodyOffset) + uint64(bodySize)
	if bodyEnd > uint64(len(buf)) {
		return Entry{}, 0, false, malformed("body [%d, %d) exceeds archive size %d", bodyOffset, bodyEnd, len(buf))
	}

	e = Entry{
		DateTime:   dateTime,
		BodyOffset: bodyOffset,
		BodySize:   bodySize,
		buf:        buf,
	}

	if typ == typeDirectory {
		name, after, err := readCString(buf, cur+entryHeaderSize, end)
		if err != nil {
			return Entry{}, 0, false, malformed("directory name: %v", err)
		}
		e.Kind = KindDirectory
		e.Name = name
		return e, after, true, nil
	}

	idPos := cur + entryHeaderSize
	id, okID := readUint32(buf, idPos)
	if !okID || idPos+fileIDSize > end {
		return Entry{}, 0, false, malformed("file id crosses end of list")
	}

	ext, after, err := readCString(buf, idPos+fileIDSize, end)
	if err != nil {
		return Entry{}, 0, false, malformed("file extension: %v", err)
	}

	name, after, err := readCString(buf, after+fileNameGap, end)
	if err != nil {
		return Entry{}, 0, false, malformed("file name: %v", err)
	}

	e.Kind = KindFile
	e.ID = id
	e.Name = name
	e.RawExtension = ext
	e.Content = buf[bodyOffset:bodyEnd:bodyEnd]
	return e, after + fileTrailer, true, nil
}
