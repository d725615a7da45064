package rasterio

// golang.org/x/image/tiff only writes integer samples in little endian order.
// Radiance needs IEEE float samples, and round trip tests need both byte
// orders, so those files are built as an IFD tree with tiff66.

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/garyhouston/tiff66"
)

// SampleFormat values.
const (
	SampleFormatUint  = 1
	SampleFormatFloat = 3
)

const (
	photometricBlackIsZero = 1
	photometricRGB         = 2
)

// A RawTIFF describes one uncompressed, single strip, chunky image. Data must
// already be laid out in ByteOrder.
type RawTIFF struct {
	Width, Height   int
	SamplesPerPixel int
	BitsPerSample   int
	SampleFormat    int
	ByteOrder       binary.ByteOrder
	Data            []byte
}

// EncodeRawTIFF writes t as a complete TIFF file.
func EncodeRawTIFF(w io.Writer, t RawTIFF) error {
	if t.ByteOrder == nil {
		t.ByteOrder = binary.LittleEndian
	}
	if t.SamplesPerPixel != 1 && t.SamplesPerPixel != 3 {
		return fmt.Errorf("tiff encode: %d samples per pixel unsupported", t.SamplesPerPixel)
	}
	want := (t.Width*t.SamplesPerPixel*t.BitsPerSample + 7) / 8 * t.Height
	if len(t.Data) != want {
		return fmt.Errorf("tiff encode: have %d bytes of pixel data, want %d", len(t.Data), want)
	}

	order := t.ByteOrder
	photometric := uint16(photometricBlackIsZero)
	if t.SamplesPerPixel == 3 {
		photometric = photometricRGB
	}
	bits := make([]uint16, t.SamplesPerPixel)
	formats := make([]uint16, t.SamplesPerPixel)
	for i := range bits {
		bits[i], formats[i] = uint16(t.BitsPerSample), uint16(t.SampleFormat)
	}

	ifd := tiff66.IFD_T{
		Fields: []tiff66.Field{
			longField(order, tiff66.ImageWidth, uint32(t.Width)),
			longField(order, tiff66.ImageLength, uint32(t.Height)),
			shortField(order, tiff66.BitsPerSample, bits...),
			shortField(order, tiff66.Compression, 1),
			shortField(order, tiff66.PhotometricInterpretation, photometric),
			longField(order, tiff66.StripOffsets, 0),
			shortField(order, tiff66.SamplesPerPixel, uint16(t.SamplesPerPixel)),
			longField(order, tiff66.RowsPerStrip, uint32(t.Height)),
			longField(order, tiff66.StripByteCounts, uint32(len(t.Data))),
			shortField(order, tiff66.PlanarConfiguration, 1),
			shortField(order, tiff66.SampleFormat, formats...),
		},
		ImageData: []tiff66.ImageData{{
			OffsetTag: tiff66.StripOffsets,
			SizeTag:   tiff66.StripByteCounts,
			Segments:  [][]byte{t.Data},
		}},
	}
	ifd.Fix(order)

	out := make([]byte, tiff66.HeaderSize+ifd.TreeSize())
	tiff66.PutHeader(out, order, tiff66.HeaderSize)
	next, err := ifd.PutIFDTree(out, tiff66.HeaderSize, order)
	if err != nil {
		return fmt.Errorf("tiff encode: %w", err)
	}
	_, err = w.Write(out[:next])
	return err
}

func shortField(order binary.ByteOrder, tag tiff66.Tag, vals ...uint16) tiff66.Field {
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		order.PutUint16(data[2*i:], v)
	}
	return tiff66.Field{Tag: tag, Type: tiff66.SHORT, Count: uint32(len(vals)), Data: data}
}

func longField(order binary.ByteOrder, tag tiff66.Tag, vals ...uint32) tiff66.Field {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		order.PutUint32(data[4*i:], v)
	}
	return tiff66.Field{Tag: tag, Type: tiff66.LONG, Count: uint32(len(vals)), Data: data}
}

// fieldValue returns the first value of a SHORT or LONG field, or def if the
// IFD doesn't have it.
func fieldValue(ifd *tiff66.IFDNode, order binary.ByteOrder, tag tiff66.Tag, def uint32) uint32 {
	for _, f := range ifd.Fields {
		if f.Tag != tag {
			continue
		}
		switch {
		case f.Type == tiff66.SHORT && len(f.Data) >= 2:
			return uint32(order.Uint16(f.Data))
		case f.Type == tiff66.LONG && len(f.Data) >= 4:
			return order.Uint32(f.Data)
		}
	}
	return def
}

// ReadFloat32TIFF loads a single channel, uncompressed, 32-bit float TIFF as
// written by WriteFloat32TIFF. Strips may be split; tiles are not handled.
func ReadFloat32TIFF(filename string) (rows, cols int, values []float32, err error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("read '%s': %w", filename, err)
	}
	return DecodeFloat32TIFF(b)
}

func DecodeFloat32TIFF(b []byte) (rows, cols int, values []float32, err error) {
	valid, order, ifdPos := tiff66.GetHeader(b)
	if !valid {
		return 0, 0, nil, fmt.Errorf("not a tiff file")
	}
	root, err := tiff66.GetIFDTree(b, order, ifdPos, tiff66.TIFFSpace)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("tiff decode: %w", err)
	}

	cols = int(fieldValue(root, order, tiff66.ImageWidth, 0))
	rows = int(fieldValue(root, order, tiff66.ImageLength, 0))
	switch {
	case fieldValue(root, order, tiff66.Compression, 1) != 1:
		return 0, 0, nil, fmt.Errorf("compressed tiff unsupported")
	case fieldValue(root, order, tiff66.SamplesPerPixel, 1) != 1:
		return 0, 0, nil, fmt.Errorf("want one sample per pixel")
	case fieldValue(root, order, tiff66.BitsPerSample, 1) != 32 ||
		fieldValue(root, order, tiff66.SampleFormat, SampleFormatUint) != SampleFormatFloat:
		return 0, 0, nil, fmt.Errorf("want 32-bit float samples")
	}

	var data []byte
	for _, id := range root.GetImageData() {
		if id.OffsetTag != tiff66.StripOffsets {
			continue
		}
		for _, seg := range id.Segments {
			data = append(data, seg...)
		}
	}
	if len(data) < 4*rows*cols {
		return 0, 0, nil, io.ErrUnexpectedEOF
	}

	values = make([]float32, rows*cols)
	for i := range values {
		values[i] = math.Float32frombits(order.Uint32(data[4*i:]))
	}
	return rows, cols, values, nil
}
