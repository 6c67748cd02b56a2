package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/ossyrian/rezparse/internal/export"
	"github.com/ossyrian/rezparse/internal/pid"
	"github.com/ossyrian/rezparse/internal/rez"
)

// ErrUnsafePath is returned when an entry name would escape the
// extraction directory.
var ErrUnsafePath = errors.New("entry path escapes output directory")

// pidExtension is the extension of image payloads, compared case-insensitively.
const pidExtension = "pid"

// ExtractStats counts what Extract did.
type ExtractStats struct {
	Directories int
	Files       int
	Images      int
	ImageErrors int
}

// Extract recreates the archive tree below outDir. With ConvertImages set
// each PID file X.PID also gets X.PID.png next to it. Images that fail to
// decode are logged and counted; they never stop the extraction.
func (r *RezReader) Extract(outDir string) (*ExtractStats, error) {
	stats := &ExtractStats{}
	dryRun := r.config.DryRun

	var manifest *export.Manifest
	if r.config.ManifestFile != "" && r.archive != nil {
		manifest = export.NewManifest(r.name, r.archive.Header)
	}

	if !dryRun {
		if err := r.fs.MkdirAll(outDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	err := r.Walk(func(p string, e rez.Entry) error {
		target, err := safeJoin(outDir, p)
		if err != nil {
			return err
		}

		var me *export.ManifestEntry
		if manifest != nil {
			me = manifest.Add(p, e)
		}

		if e.IsDir() {
			stats.Directories++
			r.logger.Debug("directory", "path", p, "datetime", e.DateTime)
			if dryRun {
				return nil
			}
			if err := r.fs.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", p, err)
			}
			return nil
		}

		stats.Files++
		r.logger.Debug("file", "path", p, "id", e.ID, "size", len(e.Content))
		if !dryRun {
			if err := afero.WriteFile(r.fs, target, e.Content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", p, err)
			}
		}

		if !r.config.ConvertImages || !strings.EqualFold(e.Extension(), pidExtension) {
			return nil
		}

		img, err := r.convert(e.Content, pngPath(target))
		if err != nil {
			stats.ImageErrors++
			r.logger.Warn("could not convert image", "path", p, "error", err)
			return nil
		}
		stats.Images++
		if me != nil {
			me.Image = export.NewImageInfo(img)
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	if manifest != nil && !dryRun {
		if err := r.writeManifest(manifest); err != nil {
			return stats, err
		}
	}

	r.logger.Info("extraction finished",
		"directories", stats.Directories,
		"files", stats.Files,
		"images", stats.Images,
		"image_errors", stats.ImageErrors,
		"dry_run", dryRun,
	)
	return stats, nil
}

// ConvertImageFile decodes the PID image at in and writes it as PNG to out.
func (r *RezReader) ConvertImageFile(in, out string) (*pid.Image, error) {
	data, err := afero.ReadFile(r.fs, in)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, err := r.convert(data, out)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", in, err)
	}

	r.logger.Info("converted image",
		"input", in,
		"output", out,
		"id", img.ID,
		"width", img.Width,
		"height", img.Height,
		"flags", img.Flags,
		"user_values", img.UserValues,
	)
	return img, nil
}

// convert decodes data and, unless in dry-run mode, writes a PNG to out.
func (r *RezReader) convert(data []byte, out string) (*pid.Image, error) {
	img, err := pid.Decode(data)
	if err != nil {
		return nil, err
	}
	if r.config.DryRun {
		return img, nil
	}

	f, err := r.fs.Create(out)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", out, err)
	}

	opts := export.Options{Fallback: r.palette, ApplyFlip: r.config.ApplyFlip}
	if err := export.WritePNG(f, export.Paletted(img, opts), r.config.Scale); err != nil {
		f.Close()
		if rmErr := r.fs.Remove(out); rmErr != nil {
			r.logger.Warn("could not remove partial image", "path", out, "error", rmErr)
		}
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", out, err)
	}
	return img, nil
}

func (r *RezReader) writeManifest(m *export.Manifest) error {
	f, err := r.fs.Create(r.config.ManifestFile)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer f.Close()

	if err := m.Write(f); err != nil {
		return err
	}
	return f.Close()
}

// safeJoin joins a slash-separated entry path onto dir, refusing paths
// that would land outside dir.
func safeJoin(dir, p string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(p))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}
	return target, nil
}

func pngPath(p string) string {
	return p + ".png"
}
