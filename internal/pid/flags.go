package pid

import "strings"

// Flags is the raw flag word of an image. Unknown bits are preserved.
type Flags uint32

const (
	FlagTransparency Flags = 1 << iota
	FlagVideoMemory
	FlagSystemMemory
	FlagFlipHorizontal
	FlagFlipVertical
	FlagCompression
	FlagLights
	FlagPalette
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagTransparency, "transparency"},
	{FlagVideoMemory, "video-memory"},
	{FlagSystemMemory, "system-memory"},
	{FlagFlipHorizontal, "flip-h"},
	{FlagFlipVertical, "flip-v"},
	{FlagCompression, "rle"},
	{FlagLights, "lights"},
	{FlagPalette, "palette"},
}

func (f Flags) UseTransparency() bool    { return f&FlagTransparency != 0 }
func (f Flags) PreferVideoMemory() bool  { return f&FlagVideoMemory != 0 }
func (f Flags) PreferSystemMemory() bool { return f&FlagSystemMemory != 0 }
func (f Flags) FlipHorizontal() bool     { return f&FlagFlipHorizontal != 0 }
func (f Flags) FlipVertical() bool       { return f&FlagFlipVertical != 0 }
func (f Flags) HasLights() bool          { return f&FlagLights != 0 }
func (f Flags) HasPalette() bool         { return f&FlagPalette != 0 }

// Compression returns the pixel encoding selected by bit 5.
func (f Flags) Compression() Compression {
	if f&FlagCompression == 0 {
		return CompressionDefault
	}
	return CompressionRLE
}

// String lists the set flags, e.g. "transparency|rle".
func (f Flags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Compression identifies a pixel encoding.
type Compression uint8

const (
	// CompressionDefault packs runs of up to 63 pixels behind bytes above 192.
	CompressionDefault Compression = iota
	// CompressionRLE alternates transparent skips and literal spans.
	CompressionRLE
)

func (c Compression) String() string {
	switch c {
	case CompressionDefault:
		return "Default"
	case CompressionRLE:
		return "RunLengthEncoding"
	default:
		return "Unknown"
	}
}
