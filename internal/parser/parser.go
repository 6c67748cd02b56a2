package parser

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"

	"github.com/spf13/afero"

	"github.com/ossyrian/rezparse/internal/config"
	"github.com/ossyrian/rezparse/internal/pid"
	"github.com/ossyrian/rezparse/internal/rez"
)

// RezReader reads REZ archives and the PID images inside them.
type RezReader struct {
	fs      afero.Fs
	config  *config.Config
	logger  *slog.Logger
	archive *rez.Archive
	name    string

	// palette is the fallback for images without an embedded palette
	palette *pid.Palette
}

// NewRezReader returns a reader that does all file I/O through fsys.
func NewRezReader(fsys afero.Fs, cfg *config.Config, logger *slog.Logger) *RezReader {
	return &RezReader{
		fs:     fsys,
		config: cfg,
		logger: logger,
	}
}

// Load reads the whole archive at name into memory and parses its header.
func (r *RezReader) Load(name string) (*rez.Header, error) {
	data, err := afero.ReadFile(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	a, err := rez.Open(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	h := a.Header
	r.logger.Info("header is valid",
		"description", h.Description(),
		"version", h.Version,
		"dir_offset", h.DirOffset,
		"dir_size", h.DirSize,
		"datetime", h.DateTime,
		"size", a.Size(),
	)
	r.logger.Debug("header limits",
		"dir_name_max", h.DirNameMax,
		"file_name_max", h.FileNameMax,
		"unknown", h.Unknown,
		"reserved", h.Reserved,
	)

	r.archive = a
	r.name = name
	return h, nil
}

// LoadPalette reads a stand-alone palette file and uses it for images
// without an embedded palette.
func (r *RezReader) LoadPalette(name string) error {
	data, err := afero.ReadFile(r.fs, name)
	if err != nil {
		return fmt.Errorf("failed to read palette: %w", err)
	}

	p, err := pid.ReadPalette(data)
	if err != nil {
		return fmt.Errorf("failed to parse palette %s: %w", name, err)
	}

	r.logger.Debug("loaded fallback palette", "file", name)
	r.palette = p
	return nil
}

// WalkFunc is called for every entry, with its slash-separated path.
// Returning fs.SkipDir from a directory skips its children; returning it
// from a file skips the file's remaining siblings.
type WalkFunc func(p string, e rez.Entry) error

// Walk visits every entry depth first, in on-disk order. It keeps an
// explicit stack of iterators so nesting depth never grows the call stack.
// A directory whose table is already open further up the stack is
// reported as malformed.
func (r *RezReader) Walk(fn WalkFunc) error {
	if r.archive == nil {
		return errors.New("no archive loaded")
	}

	type frame struct {
		it  *rez.DirectoryIterator
		dir string
	}
	root := r.archive.Root()
	stack := []frame{{it: root}}
	open := map[int]bool{root.Start(): true}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if !top.it.Next() {
			if err := top.it.Err(); err != nil {
				return fmt.Errorf("failed to read directory %q: %w", top.dir, err)
			}
			stack = stack[:len(stack)-1]
			delete(open, top.it.Start())
			continue
		}

		e := top.it.Entry()
		p := path.Join(top.dir, e.FileName())

		if err := fn(p, e); err != nil {
			if !errors.Is(err, fs.SkipDir) {
				return err
			}
			if !e.IsDir() {
				stack = stack[:len(stack)-1]
				delete(open, top.it.Start())
			}
			continue
		}

		if e.IsDir() {
			children := e.Children()
			if open[children.Start()] {
				return fmt.Errorf("%w: directory %q re-enters table at %d",
					rez.ErrMalformedEntry, p, children.Start())
			}
			open[children.Start()] = true
			stack = append(stack, frame{it: children, dir: p})
		}
	}

	return nil
}

// Tree writes one line per entry: ">> dir: path" or "- file: path".
func (r *RezReader) Tree(w io.Writer) error {
	return r.Walk(func(p string, e rez.Entry) error {
		var err error
		if e.IsDir() {
			_, err = fmt.Fprintf(w, ">> dir: %s\n", p)
		} else {
			_, err = fmt.Fprintf(w, "- file: %s\n", p)
		}
		return err
	})
}
