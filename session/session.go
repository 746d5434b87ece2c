// Package session holds the state of one open file: its parsed elements, the
// original volume, the working volume after crop or smoothing and the
// selected layer.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	dicom "github.com/odincare/spectqc"
	"github.com/odincare/spectqc/config"
	"github.com/odincare/spectqc/dicomlog"
	"github.com/odincare/spectqc/transform"
	"github.com/odincare/spectqc/uniformity"
	"github.com/odincare/spectqc/volume"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotAllowed is returned for operations out of order, e.g. a second crop.
var ErrNotAllowed = errors.New("operation not allowed")

// Session is not safe for concurrent use.
type Session struct {
	DataSet *dicom.DataSet

	original *volume.Volume
	current  *volume.Volume
	layer    int
	cropped  bool
	smoothed bool
}

// Open parses and reconstructs the file at path.
func Open(path string, options dicom.ReadOptions) (*Session, error) {
	ds, err := dicom.ReadDataSetFromFile(path, options)
	if err != nil {
		return nil, err
	}
	v, err := volume.Reconstruct(ds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dicomlog.Vprintf(1, "session: opened %s, %d elements, %dx%dx%d", path,
		len(ds.Elements), v.Frames, v.Rows, v.Columns)
	return New(ds, v), nil
}

// New starts a session on an already reconstructed volume. v is never
// modified.
func New(ds *dicom.DataSet, v *volume.Volume) *Session {
	return &Session{DataSet: ds, original: v, current: v}
}

// Original returns the volume as read from the file.
func (s *Session) Original() *volume.Volume { return s.original }

// Current returns the working volume.
func (s *Session) Current() *volume.Volume { return s.current }

func (s *Session) Cropped() bool  { return s.cropped }
func (s *Session) Smoothed() bool { return s.smoothed }

// Crop replaces the working volume by its central k-cube. A volume can be
// cropped once; the selected layer goes back to the first one.
func (s *Session) Crop(k int) error {
	if s.cropped {
		return fmt.Errorf("session.Crop: already cropped: %w", ErrNotAllowed)
	}
	v, err := transform.Crop(s.current, k)
	if err != nil {
		return err
	}
	s.current = v
	s.cropped = true
	s.layer = 0
	return nil
}

// Smooth convolves the working volume with kernel. Smoothing happens at most
// once and only before a crop.
func (s *Session) Smooth(kernel mat.Matrix) error {
	if s.smoothed {
		return fmt.Errorf("session.Smooth: already smoothed: %w", ErrNotAllowed)
	}
	if s.cropped {
		return fmt.Errorf("session.Smooth: volume is cropped: %w", ErrNotAllowed)
	}
	v, err := transform.Smooth(s.current, kernel)
	if err != nil {
		return err
	}
	s.current = v
	s.smoothed = true
	return nil
}

// Revert drops crop and smoothing. The selected layer is kept when it still
// exists.
func (s *Session) Revert() error {
	if !s.cropped && !s.smoothed {
		return fmt.Errorf("session.Revert: nothing to revert: %w", ErrNotAllowed)
	}
	s.current = s.original
	s.cropped = false
	s.smoothed = false
	if s.layer >= s.current.Frames {
		s.layer = 0
	}
	return nil
}

// Layer returns the selected frame index, from 0.
func (s *Session) Layer() int { return s.layer }

// Layers returns the number of frames of the working volume.
func (s *Session) Layers() int { return s.current.Frames }

func (s *Session) SelectLayer(i int) error {
	if i < 0 || i >= s.current.Frames {
		return fmt.Errorf("session.SelectLayer: %d not in [0,%d): %w", i, s.current.Frames, ErrNotAllowed)
	}
	s.layer = i
	return nil
}

func (s *Session) NextLayer() error { return s.SelectLayer(s.layer + 1) }

func (s *Session) PrevLayer() error { return s.SelectLayer(s.layer - 1) }

// Stats summarizes the selected layer inside the edge mask.
type Stats struct {
	Min, Max  int
	Mean, Std float64
	Pixels    int
}

// LayerStats returns the statistics of the selected layer over the pixels
// inside the field of view of the working volume (see transform.EdgeMask).
func (s *Session) LayerStats() (*Stats, error) {
	slice, err := s.current.Frame(s.layer)
	if err != nil {
		return nil, err
	}
	mask := transform.EdgeMask(s.current)
	lo, hi, err := transform.MinMax(slice, mask)
	if err != nil {
		return nil, err
	}
	values := transform.Masked(slice, mask)
	mean, std := stat.MeanStdDev(values, nil)
	return &Stats{Min: lo, Max: hi, Mean: mean, Std: std, Pixels: len(values)}, nil
}

// Uniformity runs the uniformity analysis with the settings of cfg. The
// working volume is smoothed with cfg's kernel and cropped to
// cfg.CropAmount first, unless that was already done; the session itself is
// left unchanged.
func (s *Session) Uniformity(ctx context.Context, cfg *config.Config) (integral, differential *uniformity.Result, err error) {
	v := s.current
	if !s.smoothed && !s.cropped {
		kernel := cfg.Kernel()
		if kernel == nil {
			return nil, nil, fmt.Errorf("session.Uniformity: bad convolution %v: %w", cfg.Convolution, config.ErrOutOfRange)
		}
		if v, err = transform.Smooth(v, kernel); err != nil {
			return nil, nil, err
		}
	}
	if !s.cropped {
		if v, err = transform.Crop(v, cfg.CropAmount); err != nil {
			return nil, nil, err
		}
	}
	return uniformity.Run(ctx, v, uniformity.Options{
		Radius:     cfg.FOVRadius,
		RenderSize: cfg.RenderSize,
		Step:       cfg.Step,
		Workers:    cfg.Workers,
	})
}

// ExportLayer renders the selected layer at its native size, without a field
// of view mask, and saves it. The format follows the extension of path.
func (s *Session) ExportLayer(path string) error {
	slice, err := s.current.Frame(s.layer)
	if err != nil {
		return err
	}
	radius := slice.Rows + slice.Columns
	img := uniformity.Render(slice, uniformity.RenderOptions{Radius: radius})
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("session.ExportLayer: %w", err)
	}
	return nil
}
