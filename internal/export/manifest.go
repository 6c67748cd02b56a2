package export

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ossyrian/rezparse/internal/pid"
	"github.com/ossyrian/rezparse/internal/rez"
)

// Manifest records what an extraction produced.
type Manifest struct {
	Archive     string           `yaml:"archive"`
	Description string           `yaml:"description"`
	Version     uint32           `yaml:"version"`
	DateTime    uint32           `yaml:"datetime"`
	Directories int              `yaml:"directories"`
	Files       int              `yaml:"files"`
	Entries     []*ManifestEntry `yaml:"entries"`
}

// ManifestEntry describes one directory or file.
type ManifestEntry struct {
	Path     string     `yaml:"path"`
	Kind     string     `yaml:"kind"`
	DateTime uint32     `yaml:"datetime"`
	ID       uint32     `yaml:"id,omitempty"`
	Size     int        `yaml:"size,omitempty"`
	Digest   string     `yaml:"xxh64,omitempty"`
	Image    *ImageInfo `yaml:"image,omitempty"`
}

// ImageInfo summarizes a decoded PID image.
type ImageInfo struct {
	ID          int32    `yaml:"id"`
	Width       uint32   `yaml:"width"`
	Height      uint32   `yaml:"height"`
	Flags       string   `yaml:"flags"`
	Compression string   `yaml:"compression"`
	Palette     bool     `yaml:"palette"`
	UserValues  [4]int32 `yaml:"user_values,flow"`
}

// NewManifest starts a manifest for the archive at path.
func NewManifest(path string, h *rez.Header) *Manifest {
	return &Manifest{
		Archive:     path,
		Description: h.Description(),
		Version:     h.Version,
		DateTime:    h.DateTime,
	}
}

// Add records e under path and returns the new entry.
func (m *Manifest) Add(path string, e rez.Entry) *ManifestEntry {
	me := &ManifestEntry{
		Path:     path,
		Kind:     e.Kind.String(),
		DateTime: e.DateTime,
	}
	if !e.IsDir() {
		me.ID = e.ID
		me.Size = len(e.Content)
		me.Digest = fmt.Sprintf("%016x", xxhash.Sum64(e.Content))
	}

	m.Entries = append(m.Entries, me)
	return me
}

// NewImageInfo summarizes img for the manifest.
func NewImageInfo(img *pid.Image) *ImageInfo {
	return &ImageInfo{
		ID:          img.ID,
		Width:       img.Width,
		Height:      img.Height,
		Flags:       img.Flags.String(),
		Compression: img.Flags.Compression().String(),
		Palette:     img.Palette != nil,
		UserValues:  img.UserValues,
	}
}

// Write encodes the manifest as YAML.
func (m *Manifest) Write(w io.Writer) error {
	m.Directories = lo.CountBy(m.Entries, func(e *ManifestEntry) bool {
		return e.Kind == rez.KindDirectory.String()
	})
	m.Files = len(m.Entries) - m.Directories

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return enc.Close()
}
