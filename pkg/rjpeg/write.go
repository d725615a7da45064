package rjpeg

import (
	"fmt"

	"github.com/abworrall/rjpeg/pkg/emath"
	"github.com/abworrall/rjpeg/pkg/rasterio"
)

// WriteRawCounts writes the uint16 counts as TIFF, forcing a .tif extension.
func (r *RJPEG) WriteRawCounts(filename string) error {
	used, err := rasterio.WriteGray16TIFF(filename, r.rawCounts.Gray16())
	if err != nil {
		return err
	}
	log.WithField("file", r.Filename()).Infof("raw counts written to %s", used)
	return nil
}

// WriteRadiance writes float32 radiance as TIFF. If there is no radiance,
// it warns and writes nothing.
func (r *RJPEG) WriteRadiance(filename string) error {
	rad, ok := r.Radiance()
	if !ok {
		log.WithField("file", r.Filename()).Warnf("RJPEG object contains no radiance, ignoring write request")
		return nil
	}
	used, err := rasterio.WriteFloat32TIFF(filename, rad.Rows(), rad.Cols(), rad.Values())
	if err != nil {
		return err
	}
	log.WithField("file", r.Filename()).Infof("radiance written to %s", used)
	return nil
}

// WriteRGB writes the embedded preview as 8-bit RGB TIFF, or warns if
// there wasn't one.
func (r *RJPEG) WriteRGB(filename string) error {
	rgb, ok := r.RGB()
	if !ok {
		log.WithField("file", r.Filename()).Warnf("RJPEG object contains no RGB data, ignoring write request")
		return nil
	}
	used, err := rasterio.WriteRGBTIFF(filename, rgb)
	if err != nil {
		return err
	}
	log.WithField("file", r.Filename()).Infof("RGB written to %s", used)
	return nil
}

// WriteHDR outputs radiance as a Radiance RGBE file, for HDR tools.
func (r *RJPEG) WriteHDR(filename string) error {
	rad, ok := r.Radiance()
	if !ok {
		log.WithField("file", r.Filename()).Warnf("RJPEG object contains no radiance, ignoring HDR write request")
		return nil
	}
	if err := rasterio.WriteRGBE(filename, rad.Rows(), rad.Cols(), rad.Values()); err != nil {
		return err
	}
	log.WithField("file", r.Filename()).Infof("HDR written to %s", filename)
	return nil
}

// WritePreview renders radiance (or raw counts, if there is no radiance)
// through the palette into a titled PNG.
func (r *RJPEG) WritePreview(filename string, p emath.Palette) error {
	what := "radiance"
	fg, ok := r.RadianceGrid()
	if !ok {
		what = "raw counts"
		rows, cols := r.Shape()
		fg = emath.NewFloatGrid(cols, rows)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				fg.Set(x, y, float64(r.rawCounts.At(y, x)))
			}
		}
	}

	title := fmt.Sprintf("%s (%s)", r.Filename(), what)
	if err := rasterio.WritePNG(fg.ToImg(title, p), filename); err != nil {
		return err
	}
	log.WithField("file", r.Filename()).Infof("%s preview written to %s", what, filename)
	return nil
}

// WriteTonemapped writes an LDR rendering of radiance via the named
// tonemapping operator.
func (r *RJPEG) WriteTonemapped(filename, tonemapper string) error {
	rad, ok := r.Radiance()
	if !ok {
		log.WithField("file", r.Filename()).Warnf("RJPEG object contains no radiance, ignoring tonemap request")
		return nil
	}
	img, err := rasterio.Tonemap(tonemapper, rad.Rows(), rad.Cols(), rad.Values())
	if err != nil {
		return err
	}
	if err := rasterio.WritePNG(img, filename); err != nil {
		return err
	}
	log.WithField("file", r.Filename()).Infof("tonemapped (%s) written to %s", tonemapper, filename)
	return nil
}

// WriteOutputs writes every artifact named in o.
func (r *RJPEG) WriteOutputs(o Output, cfg Config) error {
	if o.RawPath != "" {
		if err := r.WriteRawCounts(o.RawPath); err != nil {
			return fmt.Errorf("write raw counts: %w", err)
		}
	}
	if o.RadPath != "" {
		if err := r.WriteRadiance(o.RadPath); err != nil {
			return fmt.Errorf("write radiance: %w", err)
		}
	}
	if o.RGBPath != "" {
		if err := r.WriteRGB(o.RGBPath); err != nil {
			return fmt.Errorf("write rgb: %w", err)
		}
	}
	if o.HDRPath != "" {
		if err := r.WriteHDR(o.HDRPath); err != nil {
			return fmt.Errorf("write hdr: %w", err)
		}
	}
	if o.PreviewPath != "" {
		if err := r.WritePreview(o.PreviewPath, cfg.GetPalette()); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
	}
	if o.TonemapPath != "" {
		if err := r.WriteTonemapped(o.TonemapPath, cfg.Tonemapper); err != nil {
			return fmt.Errorf("write tonemapped: %w", err)
		}
	}
	return nil
}
