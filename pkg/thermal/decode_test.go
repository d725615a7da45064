package thermal

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/abworrall/rjpeg/pkg/rasterio"
)

var testCounts = [][]uint16{
	{0x0000, 0x0102, 0x7F80, 0xFFFF},
	{0x1234, 0xABCD, 0x00FF, 0xFF00},
	{0x3039, 0x8000, 0x0001, 0xFFFE},
}

func flatten(rows [][]uint16) []uint16 {
	out := []uint16{}
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// gray16TIFF builds an uncompressed single channel TIFF in the given byte order.
func gray16TIFF(t *testing.T, bo binary.ByteOrder, rows [][]uint16) []byte {
	t.Helper()
	data := []byte{}
	for _, v := range flatten(rows) {
		var b [2]byte
		bo.PutUint16(b[:], v)
		data = append(data, b[:]...)
	}
	var buf bytes.Buffer
	require.NoError(t, rasterio.EncodeRawTIFF(&buf, rasterio.RawTIFF{
		Width:           len(rows[0]),
		Height:          len(rows),
		SamplesPerPixel: 1,
		BitsPerSample:   16,
		SampleFormat:    rasterio.SampleFormatUint,
		ByteOrder:       bo,
		Data:            data,
	}))
	return buf.Bytes()
}

// gray16PNG builds a PNG whose 16-bit samples are laid out in the given byte
// order. Big endian is a standard PNG; little endian mimics FLIR firmware
// that writes swapped samples.
func gray16PNG(t *testing.T, bo binary.ByteOrder, rows [][]uint16) []byte {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, len(rows[0]), len(rows)))
	for y, r := range rows {
		for x, v := range r {
			if bo == binary.LittleEndian {
				v = v>>8 | v<<8
			}
			img.SetGray16(x, y, color.Gray16{Y: v})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeTIFFByteOrders(t *testing.T) {
	le, err := Decode(gray16TIFF(t, binary.LittleEndian, testCounts))
	require.NoError(t, err)
	be, err := Decode(gray16TIFF(t, binary.BigEndian, testCounts))
	require.NoError(t, err)

	assert.Equal(t, 3, le.Rows())
	assert.Equal(t, 4, le.Cols())
	assert.Equal(t, flatten(testCounts), le.Counts())
	assert.Equal(t, le.Counts(), be.Counts())
}

func TestDecodePNGByteOrders(t *testing.T) {
	flir, err := DecodeWithOptions(gray16PNG(t, binary.LittleEndian, testCounts),
		DecodeOptions{PNGSampleOrder: binary.LittleEndian})
	require.NoError(t, err)

	std, err := DecodeWithOptions(gray16PNG(t, binary.BigEndian, testCounts),
		DecodeOptions{PNGSampleOrder: binary.BigEndian})
	require.NoError(t, err)

	assert.Equal(t, flatten(testCounts), flir.Counts())
	assert.Equal(t, flir.Counts(), std.Counts())

	// The default trusts the PNG standard
	def, err := Decode(gray16PNG(t, binary.BigEndian, testCounts))
	require.NoError(t, err)
	assert.Equal(t, flatten(testCounts), def.Counts())
}

func TestDecodeStandardPNGKeepsStoredValues(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(0, 0, color.Gray16{Y: 0x0102})
	img.SetGray16(1, 0, color.Gray16{Y: 1000})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	f, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x0102, 1000}, f.Counts())

	f, err = DecodeWithOptions(buf.Bytes(), DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x0102, 1000}, f.Counts(), "zero options mean the standard order")
}

func TestDecodeIsIdempotent(t *testing.T) {
	blob := gray16PNG(t, binary.LittleEndian, testCounts)
	a, err := Decode(blob)
	require.NoError(t, err)
	b, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeWidens8Bit(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.Pix = []uint8{0, 7, 255}
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, nil))

	f, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 7, 255}, f.Counts())
}

func pngChunk(buf *bytes.Buffer, typ string, data []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	buf.Write(n[:])
	buf.WriteString(typ)
	buf.Write(data)
	binary.BigEndian.PutUint32(n[:], crc32.ChecksumIEEE(append([]byte(typ), data...)))
	buf.Write(n[:])
}

// gray1PNG is an 8x1 one bit per pixel gray PNG, which image/png can't write.
func gray1PNG(t *testing.T, row byte) []byte {
	t.Helper()
	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	_, err := zw.Write([]byte{0, row}) // filter type none, then the packed row
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var buf bytes.Buffer
	buf.Write(pngMagic)
	pngChunk(&buf, "IHDR", []byte{0, 0, 0, 8, 0, 0, 0, 1, 1, 0, 0, 0, 0})
	pngChunk(&buf, "IDAT", idat.Bytes())
	pngChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func TestDecodeRejectsSubByteSamples(t *testing.T) {
	// Both decoders would hand back 0 or 255 for these, not 0 or 1
	_, err := png.Decode(bytes.NewReader(gray1PNG(t, 0xA5)))
	require.NoError(t, err)

	var tif bytes.Buffer
	require.NoError(t, rasterio.EncodeRawTIFF(&tif, rasterio.RawTIFF{
		Width: 8, Height: 1, SamplesPerPixel: 1, BitsPerSample: 1,
		SampleFormat: rasterio.SampleFormatUint, Data: []byte{0xA5},
	}))

	for container, blob := range map[string][]byte{"png": gray1PNG(t, 0xA5), "tiff": tif.Bytes()} {
		t.Run(container, func(t *testing.T) {
			_, err := Decode(blob)
			var de *DecodeError
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, container, de.Container)
			assert.Contains(t, de.Reason, "1-bit")
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	rgb := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var rgbPNG bytes.Buffer
	require.NoError(t, png.Encode(&rgbPNG, rgb))

	good := gray16TIFF(t, binary.LittleEndian, testCounts)

	tests := []struct {
		name      string
		blob      []byte
		container string
	}{
		{"empty", nil, ""},
		{"garbage", []byte("not an image at all"), ""},
		{"truncated tiff", good[:12], "tiff"},
		{"truncated png", gray16PNG(t, binary.LittleEndian, testCounts)[:20], "png"},
		{"rgb", rgbPNG.Bytes(), "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.blob)
			require.Error(t, err)
			var de *DecodeError
			require.True(t, errors.As(err, &de), "got %T", err)
			assert.Equal(t, tt.container, de.Container)
		})
	}
}

func TestFrameIsNotAliased(t *testing.T) {
	src := []uint16{1, 2, 3, 4}
	f, err := NewRawThermalFrame(2, 2, src)
	require.NoError(t, err)

	src[0] = 99
	c := f.Counts()
	c[1] = 99
	assert.Equal(t, uint16(1), f.At(0, 0))
	assert.Equal(t, uint16(2), f.At(0, 1))

	g := f.Gray16()
	assert.Equal(t, uint16(4), g.Gray16At(1, 1).Y)

	_, err = NewRawThermalFrame(3, 2, src)
	assert.Error(t, err)
}
