package rez_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ossyrian/rezparse/internal/rez"
	"github.com/ossyrian/rezparse/internal/rez/reztest"
)

func TestParseHeader(t *testing.T) {
	valid := reztest.Archive{
		Description: "Captain test archive",
		Version:     1,
		DateTime:    0x2A5C3B10,
		DirNameMax:  64,
		FileNameMax: 128,
		Unknown:     [2]uint32{7, 0x1234},
		Root:        []reztest.Node{reztest.File("A", "txt", 1, []byte("x"))},
	}.Build()

	tests := []struct {
		name    string
		input   []byte
		wantErr error
		check   func(t *testing.T, h *rez.Header)
	}{
		{
			name:  "valid header",
			input: valid,
			check: func(t *testing.T, h *rez.Header) {
				if got := h.Description(); got != "Captain test archive" {
					t.Errorf("Description() = %q", got)
				}
				if h.Version != 1 || h.DirOffset != rez.HeaderSize {
					t.Errorf("Version = %d, DirOffset = %d", h.Version, h.DirOffset)
				}
				if h.DateTime != 0x2A5C3B10 || h.DirNameMax != 64 || h.FileNameMax != 128 {
					t.Errorf("unexpected fields %+v", h)
				}
				if h.Unknown != [2]uint32{7, 0x1234} {
					t.Errorf("Unknown = %v", h.Unknown)
				}
				if len(h.RawDescription) != 127 {
					t.Errorf("len(RawDescription) = %d", len(h.RawDescription))
				}
			},
		},
		{
			name:    "empty input",
			input:   nil,
			wantErr: rez.ErrTruncatedHeader,
		},
		{
			name:    "one byte short",
			input:   valid[:rez.HeaderSize-1],
			wantErr: rez.ErrTruncatedHeader,
		},
		{
			name: "directory table past end",
			input: func() []byte {
				b := make([]byte, rez.HeaderSize+10)
				binary.LittleEndian.PutUint32(b[131:], rez.HeaderSize)
				binary.LittleEndian.PutUint32(b[135:], 11)
				return b
			}(),
			wantErr: rez.ErrTruncatedHeader,
		},
		{
			name: "offset plus size overflows uint32",
			input: func() []byte {
				b := make([]byte, rez.HeaderSize)
				binary.LittleEndian.PutUint32(b[131:], 0xFFFFFFF0)
				binary.LittleEndian.PutUint32(b[135:], 0x20)
				return b
			}(),
			wantErr: rez.ErrTruncatedHeader,
		},
		{
			name: "description fills the whole field",
			input: func() []byte {
				b := make([]byte, rez.HeaderSize)
				for i := range 127 {
					b[i] = 'd'
				}
				return b
			}(),
			check: func(t *testing.T, h *rez.Header) {
				if got := len(h.Description()); got != 127 {
					t.Errorf("len(Description()) = %d, want 127", got)
				}
			},
		},
		{
			name: "legacy text is decoded",
			input: func() []byte {
				b := make([]byte, rez.HeaderSize)
				copy(b, []byte{'c', 'a', 'f', 0xE9})
				return b
			}(),
			check: func(t *testing.T, h *rez.Header) {
				if got := h.Description(); got != "café" {
					t.Errorf("Description() = %q, want %q", got, "café")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rez.ParseHeader(tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseHeader() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseHeader() failed: %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestParseHeader_DoesNotCopy(t *testing.T) {
	buf := reztest.Build(reztest.File("A", "txt", 1, []byte("x")))

	h, err := rez.ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader() failed: %v", err)
	}

	buf[0] = 'Z'
	if h.RawDescription[0] != 'Z' {
		t.Error("RawDescription does not alias the archive buffer")
	}
}
