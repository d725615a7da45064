package rasterio

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"golang.org/x/image/tiff"
)

// EnsureTIFFExt swaps any extension other than .tif/.tiff for .tif
func EnsureTIFFExt(filename string) string {
	ext := filepath.Ext(filename)
	switch strings.ToLower(ext) {
	case ".tif", ".tiff":
		return filename
	}
	return strings.TrimSuffix(filename, ext) + ".tif"
}

// WriteGray16TIFF writes 16-bit counts losslessly. Returns the filename
// actually used.
func WriteGray16TIFF(filename string, img *image.Gray16) (string, error) {
	filename = EnsureTIFFExt(filename)
	writer, err := os.Create(filename)
	if err != nil {
		return filename, fmt.Errorf("open+w '%s': %w", filename, err)
	}
	defer writer.Close()

	if err := tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Uncompressed}); err != nil {
		return filename, fmt.Errorf("tiff encode '%s': %w", filename, err)
	}
	return filename, writer.Close()
}

// WriteFloat32TIFF writes a single channel IEEE float TIFF. NaNs survive
// the trip bit for bit.
func WriteFloat32TIFF(filename string, rows, cols int, values []float32) (string, error) {
	filename = EnsureTIFFExt(filename)
	if len(values) != rows*cols {
		return filename, fmt.Errorf("float tiff '%s': %d values for %dx%d", filename, len(values), cols, rows)
	}

	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}

	writer, err := os.Create(filename)
	if err != nil {
		return filename, fmt.Errorf("open+w '%s': %w", filename, err)
	}
	defer writer.Close()

	err = EncodeRawTIFF(writer, RawTIFF{
		Width:           cols,
		Height:          rows,
		SamplesPerPixel: 1,
		BitsPerSample:   32,
		SampleFormat:    SampleFormatFloat,
		ByteOrder:       binary.LittleEndian,
		Data:            data,
	})
	if err != nil {
		return filename, fmt.Errorf("float tiff '%s': %w", filename, err)
	}
	return filename, writer.Close()
}

// WriteRGBTIFF writes 8-bit RGB, dropping any alpha.
func WriteRGBTIFF(filename string, img image.Image) (string, error) {
	filename = EnsureTIFFExt(filename)
	b := img.Bounds()
	data := make([]byte, 0, 3*b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data = append(data, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}

	writer, err := os.Create(filename)
	if err != nil {
		return filename, fmt.Errorf("open+w '%s': %w", filename, err)
	}
	defer writer.Close()

	err = EncodeRawTIFF(writer, RawTIFF{
		Width:           b.Dx(),
		Height:          b.Dy(),
		SamplesPerPixel: 3,
		BitsPerSample:   8,
		SampleFormat:    SampleFormatUint,
		Data:            data,
	})
	if err != nil {
		return filename, fmt.Errorf("rgb tiff '%s': %w", filename, err)
	}
	return filename, writer.Close()
}

// NewHDRGray wraps a float grid as a gray hdr.Image. NaNs become 0, since
// RGBE has no way to say "no value".
func NewHDRGray(rows, cols int, values []float32) *hdr.RGB {
	img := hdr.NewRGB(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := float64(values[y*cols+x])
			if math.IsNaN(v) || v < 0 {
				v = 0
			}
			img.SetRGB(x, y, hdrcolor.RGB{R: v, G: v, B: v})
		}
	}
	return img
}

// WriteRGBE outputs a Radiance .hdr file, for loading into HDR tools.
func WriteRGBE(filename string, rows, cols int, values []float32) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %w", filename, err)
	}
	defer writer.Close()

	if err := rgbe.Encode(writer, NewHDRGray(rows, cols, values)); err != nil {
		return fmt.Errorf("rgbe encode '%s': %w", filename, err)
	}
	return writer.Close()
}

func WritePNG(img image.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %w", filename, err)
	}
	defer writer.Close()

	if err := png.Encode(writer, img); err != nil {
		return fmt.Errorf("png encode '%s': %w", filename, err)
	}
	return writer.Close()
}
