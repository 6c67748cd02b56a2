// Package reztest builds in-memory REZ archives for tests.
package reztest

import (
	"encoding/binary"
	"slices"
)

// Node describes a directory or file to lay out in a test archive.
// Construct nodes with Dir and File.
type Node struct {
	Name     string
	DateTime uint32

	Children []Node
	dir      bool

	ID        uint32
	Extension string // conventional order; stored reversed
	Content   []byte // must be non-empty, a zero size ends the list
}

// Dir returns a directory node.
func Dir(name string, children ...Node) Node {
	return Node{Name: name, Children: children, dir: true}
}

// File returns a file node.
func File(name, ext string, id uint32, content []byte) Node {
	return Node{Name: name, Extension: ext, ID: id, Content: content}
}

// Archive describes the header fields of a test archive.
type Archive struct {
	Description string
	Version     uint32
	DateTime    uint32
	DirNameMax  uint32
	FileNameMax uint32
	Unknown     [2]uint32
	Root        []Node
}

// Build lays out the header, then each sibling list followed by the
// bodies it references, depth first.
func (a Archive) Build() []byte {
	b := &builder{buf: make([]byte, 163)}
	copy(b.buf[:127], a.Description)
	b.put(127, a.Version)
	b.put(139, a.Unknown[0])
	b.put(143, a.Unknown[1])
	b.put(147, a.DateTime)
	b.put(155, a.DirNameMax)
	b.put(159, a.FileNameMax)

	off, size := b.list(a.Root)
	b.put(131, uint32(off))
	b.put(135, uint32(size))
	return b.buf
}

// Build is shorthand for an archive with default header fields.
func Build(root ...Node) []byte {
	return Archive{Description: "test archive", Version: 1, Root: root}.Build()
}

type builder struct {
	buf []byte
}

func (b *builder) put(at int, v uint32) {
	binary.LittleEndian.PutUint32(b.buf[at:], v)
}

func (b *builder) list(nodes []Node) (start, size int) {
	start = len(b.buf)
	records := make([]int, len(nodes))

	for i, n := range nodes {
		at := len(b.buf)
		records[i] = at
		b.buf = append(b.buf, make([]byte, 16)...)
		b.put(at+12, n.DateTime)

		if n.dir {
			b.put(at, 1)
			b.buf = append(b.buf, n.Name...)
			b.buf = append(b.buf, 0)
			continue
		}

		b.buf = binary.LittleEndian.AppendUint32(b.buf, n.ID)
		ext := []byte(n.Extension)
		slices.Reverse(ext)
		b.buf = append(b.buf, ext...)
		b.buf = append(b.buf, 0, 0xAA, 0xBB, 0xCC, 0xDD)
		b.buf = append(b.buf, n.Name...)
		b.buf = append(b.buf, 0, 0xEE)
	}

	// zero-size sentinel
	b.buf = append(b.buf, make([]byte, 16)...)
	size = len(b.buf) - start

	for i, n := range nodes {
		var bodyOff, bodySize int
		if n.dir {
			bodyOff, bodySize = b.list(n.Children)
		} else {
			bodyOff = len(b.buf)
			b.buf = append(b.buf, n.Content...)
			bodySize = len(n.Content)
		}
		b.put(records[i]+4, uint32(bodyOff))
		b.put(records[i]+8, uint32(bodySize))
	}

	return start, size
}
