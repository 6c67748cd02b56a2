package rez_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ossyrian/rezparse/internal/rez"
	"github.com/ossyrian/rezparse/internal/rez/reztest"
)

func openArchive(t *testing.T, buf []byte) *rez.Archive {
	t.Helper()

	a, err := rez.Open(buf)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return a
}

// collect walks it depth first and returns "kind:path" lines.
func collect(t *testing.T, it *rez.DirectoryIterator, prefix string) []string {
	t.Helper()

	var out []string
	for it.Next() {
		e := it.Entry()
		p := prefix + e.FileName()
		out = append(out, e.Kind.String()+":"+p)
		if e.IsDir() {
			out = append(out, collect(t, e.Children(), p+"/")...)
		}
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	return out
}

func TestDirectoryIterator_Tree(t *testing.T) {
	buf := reztest.Build(
		reztest.Dir("LEVEL1",
			reztest.Dir("TILES",
				reztest.File("000", "pid", 3, []byte{1, 2, 3}),
			),
			reztest.File("MAIN", "pal", 2, []byte{4}),
			reztest.Dir("EMPTY"),
		),
		reztest.File("LOGO", "pig", 1, []byte("logo")),
	)

	got := collect(t, openArchive(t, buf).Root(), "")
	want := []string{
		"dir:LEVEL1",
		"dir:LEVEL1/TILES",
		"file:LEVEL1/TILES/000.pid",
		"file:LEVEL1/MAIN.pal",
		"dir:LEVEL1/EMPTY",
		"file:LOGO.pig",
	}

	if len(got) != len(want) {
		t.Fatalf("got %d entries %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDirectoryIterator_FileFields(t *testing.T) {
	buf := reztest.Build(reztest.Node{
		Name:      "LOGO",
		Extension: "pig",
		ID:        42,
		DateTime:  99,
		Content:   []byte("payload"),
	})

	it := openArchive(t, buf).Root()
	if !it.Next() {
		t.Fatalf("Next() = false, err = %v", it.Err())
	}
	e := it.Entry()

	if e.IsDir() {
		t.Fatal("entry is a directory")
	}
	if string(e.Name) != "LOGO" || string(e.RawExtension) != "gip" {
		t.Errorf("Name = %q, RawExtension = %q", e.Name, e.RawExtension)
	}
	if e.Extension() != "pig" || e.FileName() != "LOGO.pig" {
		t.Errorf("Extension() = %q, FileName() = %q", e.Extension(), e.FileName())
	}
	if string(e.RawExtension) != "gip" {
		t.Error("Extension() modified the archive buffer")
	}
	if e.ID != 42 || e.DateTime != 99 {
		t.Errorf("ID = %d, DateTime = %d", e.ID, e.DateTime)
	}
	if !bytes.Equal(e.Content, []byte("payload")) {
		t.Errorf("Content = %q", e.Content)
	}
	if &e.Content[0] != &buf[e.BodyOffset] {
		t.Error("Content does not alias the archive buffer")
	}
	if e.Children().Next() {
		t.Error("file has children")
	}

	if it.Next() {
		t.Errorf("sentinel yielded an entry: %+v", it.Entry())
	}
	if it.Err() != nil {
		t.Errorf("Err() = %v", it.Err())
	}
}

func TestDirectoryIterator_Counts(t *testing.T) {
	var root []reztest.Node
	for d := range 3 {
		var files []reztest.Node
		for f := range d + 2 {
			files = append(files, reztest.File(string(rune('A'+f)), "dat", uint32(f), []byte{byte(f + 1)}))
		}
		root = append(root, reztest.Dir(string(rune('a'+d)), files...))
	}

	var dirs, files int
	var walk func(it *rez.DirectoryIterator)
	walk = func(it *rez.DirectoryIterator) {
		for e, err := range it.All() {
			if err != nil {
				t.Fatalf("All() yielded error: %v", err)
			}
			if e.IsDir() {
				dirs++
				walk(e.Children())
			} else {
				files++
			}
		}
	}
	walk(openArchive(t, reztest.Build(root...)).Root())

	if dirs != 3 || files != 2+3+4 {
		t.Errorf("dirs = %d, files = %d; want 3, 9", dirs, files)
	}
}

func TestDirectoryIterator_Resume(t *testing.T) {
	buf := reztest.Build(
		reztest.File("A", "txt", 1, []byte("a")),
		reztest.File("B", "txt", 2, []byte("b")),
		reztest.File("C", "txt", 3, []byte("c")),
	)

	it := openArchive(t, buf).Root()
	it.Next()

	resumed := rez.NewDirectoryIterator(buf, it.Offset(), it.End())
	var names []string
	for resumed.Next() {
		names = append(names, string(resumed.Entry().Name))
	}
	if len(names) != 2 || names[0] != "B" || names[1] != "C" {
		t.Errorf("resumed names = %v, want [B C]", names)
	}

	it.Rewind()
	if !it.Next() || string(it.Entry().Name) != "A" {
		t.Errorf("after Rewind, first entry = %q", it.Entry().Name)
	}
}

func TestDirectoryIterator_AllStopsEarly(t *testing.T) {
	buf := reztest.Build(
		reztest.File("A", "txt", 1, []byte("a")),
		reztest.File("B", "txt", 2, []byte("b")),
	)

	n := 0
	for range openArchive(t, buf).Root().All() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterated %d times after break", n)
	}
}

func TestDirectoryIterator_Malformed(t *testing.T) {
	le := binary.LittleEndian

	// a single file record, its sentinel and its content
	base := func() []byte {
		return reztest.Build(reztest.File("NAME", "ext", 1, []byte("content")))
	}
	root := uint32(rez.HeaderSize)

	tests := []struct {
		name   string
		mutate func(b []byte) []byte
		end    func(b []byte) int
	}{
		{
			name: "body past end of archive",
			mutate: func(b []byte) []byte {
				le.PutUint32(b[root+8:], uint32(len(b)))
				return b
			},
		},
		{
			name: "record header truncated",
			mutate: func(b []byte) []byte {
				return b[:root+10]
			},
			end: func(b []byte) int { return int(root) + 64 },
		},
		{
			name: "unterminated file name",
			mutate: func(b []byte) []byte {
				// extension "txe\0" + 4 reserved, then the name
				name := int(root) + 16 + 4 + 4 + 4
				for i := name; i < len(b); i++ {
					if b[i] == 0 {
						b[i] = 'X'
					}
				}
				return b
			},
		},
		{
			name: "unterminated extension within list bounds",
			mutate: func(b []byte) []byte { return b },
			end:    func(b []byte) int { return int(root) + 16 + 4 + 2 },
		},
		{
			name: "directory name unterminated",
			mutate: func(b []byte) []byte {
				le.PutUint32(b[root:], 1)
				return b
			},
			end: func(b []byte) int { return int(root) + 16 + 1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.mutate(base())
			end := len(b)
			if tt.end != nil {
				end = tt.end(b)
			}

			it := rez.NewDirectoryIterator(b, int(root), end)
			for it.Next() {
			}
			if !errors.Is(it.Err(), rez.ErrMalformedEntry) {
				t.Fatalf("Err() = %v, want ErrMalformedEntry", it.Err())
			}
			if it.Next() {
				t.Error("Next() succeeded after an error")
			}
		})
	}
}

func TestDirectoryIterator_CursorPastBuffer(t *testing.T) {
	it := rez.NewDirectoryIterator([]byte{1, 2, 3}, 10, 100)
	if it.Next() {
		t.Fatal("Next() = true for a cursor outside the buffer")
	}
	if it.Err() != nil {
		t.Errorf("Err() = %v, want nil", it.Err())
	}
}
