package pid

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptCompressedStream is returned when a pixel stream ends early
	// or would write past the image.
	ErrCorruptCompressedStream = errors.New("corrupt compressed stream")

	// ErrUnsupportedCompression is returned for a compression value other
	// than the two known encodings.
	ErrUnsupportedCompression = errors.New("unsupported compression selector")
)

const (
	// defaultRunBase: bytes above it start a run of (b - defaultRunBase).
	defaultRunBase = 192
	// rleSkipBase: bytes above it skip (b - rleSkipBase) transparent pixels.
	rleSkipBase = 128

	// maxPixelsPerByte bounds how many pixels one source byte can produce
	// in either encoding.
	maxPixelsPerByte = 255 - rleSkipBase
)

// Decompress expands src into exactly count pixel indices. consumed is the
// number of source bytes read.
func Decompress(method Compression, src []byte, count int) (pixels []byte, consumed int, err error) {
	if count < 0 {
		return nil, 0, fmt.Errorf("%w: negative pixel count %d", ErrCorruptCompressedStream, count)
	}
	if uint64(count) > uint64(len(src))*maxPixelsPerByte {
		return nil, 0, fmt.Errorf("%w: %d pixels cannot come from %d bytes",
			ErrCorruptCompressedStream, count, len(src))
	}

	switch method {
	case CompressionDefault:
		return DecompressDefault(src, count)
	case CompressionRLE:
		return DecompressRLE(src, count)
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnsupportedCompression, method)
	}
}

// DecompressDefault decodes the packed-run encoding. A byte in [0,192] is
// a single literal pixel; a byte in [193,255] repeats the following byte
// (b-192) times.
func DecompressDefault(src []byte, count int) (pixels []byte, consumed int, err error) {
	dst := make([]byte, count)
	pos, n := 0, 0

	for n < count {
		if pos >= len(src) {
			return nil, pos, exhausted(n, count)
		}
		a := src[pos]
		pos++

		run, value := 1, a
		if a > defaultRunBase {
			if pos >= len(src) {
				return nil, pos, fmt.Errorf("%w: run at %d has no value byte", ErrCorruptCompressedStream, pos-1)
			}
			run = int(a - defaultRunBase)
			value = src[pos]
			pos++
		}

		if n+run > count {
			return nil, pos, overrun(n, run, count)
		}
		for i := n; i < n+run; i++ {
			dst[i] = value
		}
		n += run
	}

	return dst, pos, nil
}

// DecompressRLE decodes the transparent-skip encoding. A byte above 128
// skips (b-128) pixels, left at index 0; any other byte b copies the next
// b bytes verbatim. A zero byte is a valid empty span.
func DecompressRLE(src []byte, count int) (pixels []byte, consumed int, err error) {
	dst := make([]byte, count)
	pos, n := 0, 0

	for n < count {
		if pos >= len(src) {
			return nil, pos, exhausted(n, count)
		}
		a := src[pos]
		pos++

		if a > rleSkipBase {
			run := int(a - rleSkipBase)
			if n+run > count {
				return nil, pos, overrun(n, run, count)
			}
			n += run
			continue
		}

		run := int(a)
		if pos+run > len(src) {
			return nil, pos, fmt.Errorf("%w: literal span of %d at %d runs past %d source bytes",
				ErrCorruptCompressedStream, run, pos-1, len(src))
		}
		if n+run > count {
			return nil, pos, overrun(n, run, count)
		}
		copy(dst[n:], src[pos:pos+run])
		pos += run
		n += run
	}

	return dst, pos, nil
}

func exhausted(n, count int) error {
	return fmt.Errorf("%w: source exhausted after %d of %d pixels", ErrCorruptCompressedStream, n, count)
}

func overrun(n, run, count int) error {
	return fmt.Errorf("%w: run of %d at pixel %d overflows %d pixels", ErrCorruptCompressedStream, run, n, count)
}
