package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/abworrall/rjpeg/pkg/emath"
	"github.com/abworrall/rjpeg/pkg/rasterio"
	"github.com/abworrall/rjpeg/pkg/rjpeg"
)

var (
	fVerbosity   int
	fConfig      string
	fExiftool    string
	fWorkers     int
	fFormula     string
	fPNGOrder    string
	fPalette     string
	fTonemapper  string
	fRawPath     string
	fRadPath     string
	fRGBPath     string
	fHDRPath     string
	fPreviewPath string
	fTonemapPath string
	fQuiet       bool
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fConfig, "config", "", "YAML config file (flags override it)")
	flag.StringVar(&fExiftool, "exiftool", "", "path to the exiftool executable")
	flag.IntVar(&fWorkers, "workers", 0, "how many files to process at once")
	flag.StringVar(&fFormula, "formula", "", "raw count inversion: offsetfree or doubleoffset")
	flag.StringVar(&fPNGOrder, "pngorder", "", "byte order of 16-bit PNG samples: big (PNG standard) or little (some FLIR firmware)")
	flag.StringVar(&fPalette, "palette", "", "preview palette: "+emath.ListPalettes())
	flag.StringVar(&fTonemapper, "tonemapper", "", "how to tonemap radiance to LDR: "+rasterio.ListTonemappers())

	flag.StringVar(&fRawPath, "r", "", "output path to store raw counts (uint16) [NOTE: Must be TIFF format]")
	flag.StringVar(&fRadPath, "l", "", "output path to store radiance (float32) [NOTE: Must be TIFF format]")
	flag.StringVar(&fRGBPath, "rgb", "", "output path to store RGB (uint8) [NOTE: Must be TIFF format]")
	flag.StringVar(&fHDRPath, "hdr", "", "output path to store radiance as Radiance RGBE (.hdr)")
	flag.StringVar(&fPreviewPath, "preview", "", "output path for a false color PNG preview")
	flag.StringVar(&fTonemapPath, "tonemap", "", "output path for a tonemapped PNG of radiance")
	flag.BoolVar(&fQuiet, "q", false, "don't dump all the metadata")
	flag.Parse()
}

func main() {
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] rjpeg-files-or-dirs...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	b := rjpeg.NewBatch()
	if fConfig != "" {
		cfg, err := rjpeg.LoadConfig(fConfig)
		if err != nil {
			logrus.Fatal(err)
		}
		b.Config = cfg
	}
	if err := b.LoadFilesAndDirs(flag.Args()...); err != nil {
		logrus.Fatal(err)
	}

	// Override the config file with command line args, if relevant
	if fVerbosity > 0 {
		b.Verbosity = fVerbosity
	}
	if fExiftool != "" {
		b.ExiftoolPath = fExiftool
	}
	if fWorkers > 0 {
		b.Workers = fWorkers
	}
	if fFormula != "" {
		b.Formula = fFormula
	}
	if fPNGOrder != "" {
		b.PNGSampleOrder = fPNGOrder
	}
	if fPalette != "" {
		b.Palette = fPalette
	}
	if fTonemapper != "" {
		b.Tonemapper = fTonemapper
	}
	if fRawPath != "" {
		b.Output.RawPath = fRawPath
	}
	if fRadPath != "" {
		b.Output.RadPath = fRadPath
	}
	if fRGBPath != "" {
		b.Output.RGBPath = fRGBPath
	}
	if fHDRPath != "" {
		b.Output.HDRPath = fHDRPath
	}
	if fPreviewPath != "" {
		b.Output.PreviewPath = fPreviewPath
	}
	if fTonemapPath != "" {
		b.Output.TonemapPath = fTonemapPath
	}

	if b.Verbosity > 0 {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debugf("Final configuration:-\n\n%s\n", b.Config.AsYaml())
	}

	ex := b.NewExtractor()
	if err := ex.LookPath(); err != nil {
		logrus.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := b.Process(ctx, ex); err != nil {
		logrus.Fatal(err)
	}

	for _, r := range b.Loaded {
		report(r)
	}
}

func report(r *rjpeg.RJPEG) {
	if !fQuiet {
		md := r.AllMetadata()
		for _, key := range md.Keys() {
			fmt.Printf("%s: %v\n", key, md[key])
		}
	}

	if w, err := r.Metadata("ImageWidth"); err == nil {
		fmt.Printf("ImageWidth: %v\n", w)
	}
	fmt.Print(r.Describe())
}
