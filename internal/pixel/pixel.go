// Package pixel describes the in-memory pixel formats of acquired images.
package pixel

import (
	"errors"
	"fmt"
)

// ErrUnsupported is wrapped by errors describing pixel formats, ImageJ type
// codes, or names that have no corresponding [Type].
var ErrUnsupported = errors.New("unsupported pixel type")

const maxComponents = 4

// Type is the memory layout of a single pixel. Types are comparable values; the
// zero Type is not a valid format.
type Type struct {
	name    string
	bpp     int
	bpc     int
	n       int
	offsets [maxComponents]int
	imagej  int
}

// noImageJ marks types with no ImageJ equivalent.
const noImageJ = -1

// ImageJ image type codes, as defined by ImagePlus.
const (
	imagejGray8    = 0
	imagejGray16   = 1
	imagejGray32   = 2
	imagejColor256 = 3
	imagejColorRGB = 4
)

var (
	// Gray8 is 8-bit grayscale.
	Gray8 = newType("GRAY8", 1, 1, 1, nil, imagejGray8)

	// Gray16 is 16-bit grayscale.
	Gray16 = newType("GRAY16", 2, 2, 1, nil, imagejGray16)

	// RGB32 holds 8-bit red, green, and blue samples in a 4-byte pixel laid out
	// in ARGB order, so the color samples sit at offsets 1, 2, and 3. This
	// matches what both the camera layer and ImageJ store in memory.
	RGB32 = newType("RGB32", 4, 1, 3, []int{1, 2, 3}, imagejColorRGB)
)

// types lists every known type. Names are used in file formats and must not
// change.
var types = []Type{Gray8, Gray16, RGB32}

func newType(name string, bpp, bpc, n int, offsets []int, imagej int) Type {
	if bpp%bpc != 0 {
		panic(fmt.Sprintf("pixel: %s: bytes per pixel must be a multiple of bytes per component", name))
	}
	if n > maxComponents {
		panic(fmt.Sprintf("pixel: %s: too many components", name))
	}
	t := Type{name: name, bpp: bpp, bpc: bpc, n: n, imagej: imagej}
	for i := range n {
		if offsets == nil {
			t.offsets[i] = i
		} else {
			t.offsets[i] = offsets[i]
		}
	}
	return t
}

// Types returns every known pixel type.
func Types() []Type {
	return append([]Type(nil), types...)
}

// Describe returns the pixel type with the given layout.
func Describe(bytesPerPixel, bytesPerComponent, numComponents int) (Type, error) {
	for _, t := range types {
		if t.bpp == bytesPerPixel && t.bpc == bytesPerComponent && t.n == numComponents {
			return t, nil
		}
	}
	return Type{}, fmt.Errorf(
		"%w: %d bytes per pixel, %d bytes per component, %d components",
		ErrUnsupported, bytesPerPixel, bytesPerComponent, numComponents)
}

// FromImageJ returns the pixel type for an ImageJ image type code. Only GRAY8,
// GRAY16, and COLOR_RGB have equivalents.
func FromImageJ(code int) (Type, error) {
	switch code {
	case imagejGray8:
		return Gray8, nil
	case imagejGray16:
		return Gray16, nil
	case imagejColorRGB:
		return RGB32, nil
	case imagejGray32, imagejColor256:
		return Type{}, fmt.Errorf("%w: ImageJ type %d has no equivalent", ErrUnsupported, code)
	default:
		return Type{}, fmt.Errorf("%w: unknown ImageJ type %d", ErrUnsupported, code)
	}
}

// Parse returns the pixel type with the given name, such as "GRAY16".
func Parse(name string) (Type, error) {
	for _, t := range types {
		if t.name == name {
			return t, nil
		}
	}
	return Type{}, fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// ImageJ returns the ImageJ image type code for t.
func (t Type) ImageJ() (int, error) {
	if t.n == 0 || t.imagej == noImageJ {
		return 0, fmt.Errorf("%w: %s has no ImageJ equivalent", ErrUnsupported, t)
	}
	return t.imagej, nil
}

func (t Type) BytesPerPixel() int     { return t.bpp }
func (t Type) BytesPerComponent() int { return t.bpc }
func (t Type) NumComponents() int     { return t.n }

// ComponentOffset returns the position of a component's sample within a pixel,
// counted in samples rather than bytes. It panics if component is out of
// range.
func (t Type) ComponentOffset(component int) int {
	if component < 0 || component >= t.n {
		panic(fmt.Sprintf("pixel: component %d out of range for %s", component, t))
	}
	return t.offsets[component]
}

// ComponentOffsets returns the sample offset of every component, in order.
func (t Type) ComponentOffsets() []int {
	return append([]int(nil), t.offsets[:t.n]...)
}

// FrameSize returns the number of bytes in a width x height image of type t.
func (t Type) FrameSize(width, height int) int {
	return width * height * t.bpp
}

func (t Type) String() string {
	if t.name == "" {
		return "INVALID"
	}
	return t.name
}

func (t Type) MarshalText() ([]byte, error) {
	if t.n == 0 {
		return nil, fmt.Errorf("%w: zero Type", ErrUnsupported)
	}
	return []byte(t.name), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
