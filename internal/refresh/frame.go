package refresh

import (
	_ "crypto/sha256" // Registers the hash behind digest.Canonical.
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/opencontainers/go-digest"

	"go.alexhamlin.co/coalesce/internal/pixel"
)

// ErrFrameSize is wrapped by errors for pixel buffers that do not match the
// dimensions and pixel type of their frame.
var ErrFrameSize = errors.New("frame buffer size mismatch")

// Frame identifies an acquired image. The pixel data itself stays with the
// acquisition pipeline; Digest lets a display skip redrawing content it has
// already shown.
type Frame struct {
	Index  int           `json:"index"`
	Type   pixel.Type    `json:"type"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Digest digest.Digest `json:"digest"`
}

// NewFrame describes the pixel buffer pix, checking that its length matches a
// width x height image of the given type.
func NewFrame(index int, typ pixel.Type, width, height int, pix []byte) (Frame, error) {
	if width <= 0 || height <= 0 {
		return Frame{}, fmt.Errorf("%w: invalid dimensions %dx%d", ErrFrameSize, width, height)
	}
	if want := typ.FrameSize(width, height); len(pix) != want {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d for %dx%d %s",
			ErrFrameSize, len(pix), want, width, height, typ)
	}
	return Frame{
		Index:  index,
		Type:   typ,
		Width:  width,
		Height: height,
		Digest: digest.FromBytes(pix),
	}, nil
}

// ChannelStats summarizes the samples of one image component.
type ChannelStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
}

// ComputeStats summarizes the samples of one component of a frame's pixel
// buffer. Multi-byte samples are little-endian.
func ComputeStats(typ pixel.Type, pix []byte, component int) (ChannelStats, error) {
	bpp, bpc := typ.BytesPerPixel(), typ.BytesPerComponent()
	if bpp == 0 || len(pix)%bpp != 0 {
		return ChannelStats{}, fmt.Errorf("%w: %d bytes is not a whole number of %s pixels", ErrFrameSize, len(pix), typ)
	}
	if component < 0 || component >= typ.NumComponents() {
		return ChannelStats{}, fmt.Errorf("component %d out of range for %s", component, typ)
	}

	offset := typ.ComponentOffset(component) * bpc
	var (
		stats ChannelStats
		sum   float64
		n     int
	)
	for start := 0; start < len(pix); start += bpp {
		var v int
		switch bpc {
		case 1:
			v = int(pix[start+offset])
		case 2:
			v = int(binary.LittleEndian.Uint16(pix[start+offset:]))
		default:
			return ChannelStats{}, fmt.Errorf("%w: %d-byte samples", pixel.ErrUnsupported, bpc)
		}
		if n == 0 || v < stats.Min {
			stats.Min = v
		}
		if n == 0 || v > stats.Max {
			stats.Max = v
		}
		sum += float64(v)
		n++
	}
	if n > 0 {
		stats.Mean = sum / float64(n)
	}
	return stats, nil
}
