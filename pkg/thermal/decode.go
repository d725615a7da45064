package thermal

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"

	"github.com/garyhouston/tiff66"
	"golang.org/x/image/tiff"
)

var (
	pngMagic    = []byte("\x89PNG\r\n\x1a\n")
	tiffMagicLE = []byte("II\x2a\x00")
	tiffMagicBE = []byte("MM\x00\x2a")
)

// DecodeOptions control how samples are interpreted.
type DecodeOptions struct {
	// PNGSampleOrder is the byte order the writer actually used for 16-bit
	// PNG samples. PNG mandates big endian, and that is the default. Some
	// FLIR firmware writes little endian samples into the PNG; set this to
	// binary.LittleEndian for those and the samples are swapped. TIFF carries
	// its own byte order marker, so this only applies to PNG.
	PNGSampleOrder binary.ByteOrder
}

func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{PNGSampleOrder: binary.BigEndian}
}

// Decode turns a raw thermal blob into counts, with default options.
func Decode(blob []byte) (RawThermalFrame, error) {
	return DecodeWithOptions(blob, DefaultDecodeOptions())
}

func DecodeWithOptions(blob []byte, opts DecodeOptions) (RawThermalFrame, error) {
	if len(blob) == 0 {
		return RawThermalFrame{}, &DecodeError{Reason: "empty blob"}
	}
	if opts.PNGSampleOrder == nil {
		opts.PNGSampleOrder = binary.BigEndian
	}

	var img image.Image
	var err error
	container := ""
	swap := false

	switch {
	case bytes.HasPrefix(blob, pngMagic):
		container = "png"
		img, err = png.Decode(bytes.NewReader(blob))
		swap = opts.PNGSampleOrder != binary.BigEndian

	case bytes.HasPrefix(blob, tiffMagicLE), bytes.HasPrefix(blob, tiffMagicBE):
		container = "tiff"
		img, err = tiff.Decode(bytes.NewReader(blob))

	default:
		return RawThermalFrame{}, &DecodeError{Reason: "unrecognized container"}
	}

	if err != nil {
		return RawThermalFrame{}, &DecodeError{Container: container, Reason: "malformed or truncated", Err: err}
	}

	// The image decoders stretch gray samples narrower than a byte to fill
	// 0..255, which would no longer be a cast of the stored value.
	if _, is8 := img.(*image.Gray); is8 {
		if bits := sampleBits(blob, container); bits > 0 && bits < 8 {
			return RawThermalFrame{}, &DecodeError{
				Container: container,
				Reason:    fmt.Sprintf("%d-bit samples unsupported, want 8 or 16", bits),
			}
		}
	}

	counts, rows, cols, err := grayCounts(img, container)
	if err != nil {
		return RawThermalFrame{}, err
	}

	// Only 16-bit samples have a byte order to get wrong; widened 8-bit
	// samples are left alone.
	if _, is16 := img.(*image.Gray16); swap && is16 {
		for i, v := range counts {
			counts[i] = v>>8 | v<<8
		}
	}

	return RawThermalFrame{rows: rows, cols: cols, counts: counts}, nil
}

// grayCounts flattens a single channel image into row-major uint16s. 8-bit
// samples are cast, not rescaled; narrower ones are rejected before this.
func grayCounts(img image.Image, container string) ([]uint16, int, int, error) {
	b := img.Bounds()
	rows, cols := b.Dy(), b.Dx()
	counts := make([]uint16, rows*cols)

	switch m := img.(type) {
	case *image.Gray16:
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				counts[y*cols+x] = m.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}

	case *image.Gray:
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				counts[y*cols+x] = uint16(m.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}

	default:
		return nil, 0, 0, &DecodeError{
			Container: container,
			Reason:    "want exactly one channel, got color model " + colorModelName(img),
		}
	}

	return counts, rows, cols, nil
}

// sampleBits reads the declared bits per sample from the container header,
// or 0 if it can't tell. Only called on blobs that already decoded.
func sampleBits(blob []byte, container string) int {
	switch container {
	case "png":
		// signature, IHDR length and type, width, height, then bit depth
		if len(blob) > 24 && string(blob[12:16]) == "IHDR" {
			return int(blob[24])
		}
	case "tiff":
		valid, order, ifdPos := tiff66.GetHeader(blob)
		if !valid {
			return 0
		}
		root, err := tiff66.GetIFDTree(blob, order, ifdPos, tiff66.TIFFSpace)
		if err != nil {
			return 0
		}
		for _, f := range root.Fields {
			if f.Tag == tiff66.BitsPerSample && f.Type == tiff66.SHORT && len(f.Data) >= 2 {
				return int(order.Uint16(f.Data))
			}
		}
		return 1 // the TIFF default
	}
	return 0
}

func colorModelName(img image.Image) string {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		return "RGBA"
	case *image.RGBA64, *image.NRGBA64:
		return "RGBA64"
	case *image.Paletted:
		return "paletted"
	case *image.CMYK:
		return "CMYK"
	case *image.YCbCr:
		return "YCbCr"
	}
	return "unknown"
}
