// Command spectqc reports the integral and differential uniformity of a SPECT
// flood acquisition stored as an explicit VR little endian DICOM file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	dicom "github.com/odincare/spectqc"
	"github.com/odincare/spectqc/config"
	"github.com/odincare/spectqc/session"
	"github.com/odincare/spectqc/uniformity"
	"github.com/sirupsen/logrus"
)

var (
	file       = flag.String("file", "", "DICOM file to analyze (.dcm)")
	configPath = flag.String("config", "", "YAML settings file; defaults are used when empty or missing")
	dump       = flag.Bool("dump", false, "Print the elements of the file instead of analyzing it")
	filter     = flag.String("filter", "", "Glob over element names or tags for -dump, e.g. 'patient*' or '0028*'")
	crop       = flag.Int("crop", 0, "Central cube edge, 1-99 (overrides crop_amount)")
	fov        = flag.Int("fov", 0, "Field of view radius in rendered pixels, 1-99 (overrides fov_radius)")
	step       = flag.Int("step", 0, "Analyze every n-th layer, 1-39 (overrides step)")
	noSmooth   = flag.Bool("no-smooth", false, "Skip the smoothing convolution")
	pngPath    = flag.String("png", "", "Save the layer selected by -layer as an image")
	layer      = flag.Int("layer", 0, "Layer exported by -png, from 0")
	verbose    = flag.Int("v", -2, "Log verbosity; -1 silences warnings (overrides log.level)")
	logfile    = flag.String("logfile", "", "Write logs to a rotating file (overrides log.logfile)")
)

func main() {
	flag.Parse()
	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("spectqc: %v", err)
	}
	cfg.Log.Setup()

	if *dump {
		if err := dumpElements(*file, *filter); err != nil {
			logrus.Fatalf("spectqc: %v", err)
		}
		return
	}

	s, err := session.Open(*file, dicom.ReadOptions{})
	if err != nil {
		logrus.Fatalf("spectqc: %v", err)
	}

	if *pngPath != "" {
		if err := s.SelectLayer(*layer); err != nil {
			logrus.Fatalf("spectqc: %v", err)
		}
		if err := s.ExportLayer(*pngPath); err != nil {
			logrus.Fatalf("spectqc: %v", err)
		}
		logrus.Infof("spectqc: layer %d saved to %s", *layer, *pngPath)
	}

	if *noSmooth {
		if err := s.Crop(cfg.CropAmount); err != nil {
			logrus.Fatalf("spectqc: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	integral, differential, err := s.Uniformity(ctx, cfg)
	if err != nil {
		logrus.Fatalf("spectqc: uniformity: %v", err)
	}
	logrus.Infof("spectqc: uniformity computed in %v", time.Since(start))

	header := uniformity.Header{Radius: cfg.FOVRadius, Kernel: cfg.Kernel(), Step: cfg.Step}
	if *noSmooth {
		header.Kernel = nil
	}
	fmt.Println(integral.Summary())
	fmt.Println(differential.Summary())
	fmt.Println()
	for _, r := range []*uniformity.Result{integral, differential} {
		if err := r.Report(os.Stdout, header); err != nil {
			logrus.Fatalf("spectqc: %v", err)
		}
		fmt.Println()
	}
}

// loadConfig reads -config and applies the command line overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	if *crop != 0 {
		if err := cfg.SetCropAmount(*crop); err != nil {
			return nil, err
		}
	}
	if *fov != 0 {
		if err := cfg.SetFOVRadius(*fov); err != nil {
			return nil, err
		}
	}
	if *step != 0 {
		if err := cfg.SetStep(*step); err != nil {
			return nil, err
		}
	}
	if *verbose != -2 {
		cfg.Log.Level = *verbose
	}
	if *logfile != "" {
		cfg.Log.Logfile = *logfile
	}
	return cfg, nil
}

func dumpElements(path, pattern string) error {
	ds, err := dicom.ReadDataSetFromFile(path, dicom.ReadOptions{DropPixelData: true})
	if err != nil {
		return err
	}
	elems, err := ds.Query(pattern)
	if err != nil {
		return err
	}
	for _, elem := range elems {
		fmt.Println(elem)
	}
	if len(ds.Elements) > 0 && len(elems) == 0 {
		logrus.Warnf("spectqc: no element matches %q", pattern)
	}
	return nil
}
