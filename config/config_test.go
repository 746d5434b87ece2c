package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 40, cfg.CropAmount)
	assert.Equal(t, 80, cfg.FOVRadius)
	assert.Equal(t, 2, cfg.Step)
	assert.Equal(t, 520, cfg.RenderSize)

	k := cfg.Kernel()
	require.NotNil(t, k)
	r, c := k.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 4.0, k.At(1, 1))
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "spectqc.yaml")
	cfg := DefaultConfig()
	require.NoError(t, cfg.SetCropAmount(30))
	require.NoError(t, cfg.SetColour("green"))
	require.NoError(t, cfg.SetConvolution([][]float64{{0, 1, 0}, {1, 4, 1}, {0, 1, 0}}))
	cfg.Log.Logfile = "spectqc.log"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectqc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fov_radius: 60\nstep: 3\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.FOVRadius)
	assert.Equal(t, 3, cfg.Step)
	assert.Equal(t, 40, cfg.CropAmount)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("crop_amount: 100\n"), 0644))
	_, err := Load(bad)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	garbled := filepath.Join(dir, "garbled.yaml")
	require.NoError(t, os.WriteFile(garbled, []byte("step: [1"), 0644))
	_, err = Load(garbled)
	require.Error(t, err)
}

func TestSettersRejectOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	for _, n := range []int{0, 100, -1} {
		assert.True(t, errors.Is(cfg.SetCropAmount(n), ErrOutOfRange), n)
		assert.True(t, errors.Is(cfg.SetFOVRadius(n), ErrOutOfRange), n)
	}
	assert.True(t, errors.Is(cfg.SetStep(40), ErrOutOfRange))
	assert.True(t, errors.Is(cfg.SetColour("red"), ErrOutOfRange))
	assert.True(t, errors.Is(cfg.SetColourTheme("dark"), ErrOutOfRange))
	assert.True(t, errors.Is(cfg.SetConvolution([][]float64{{1, 2}, {1}}), ErrOutOfRange))
	assert.True(t, errors.Is(cfg.SetConvolution(nil), ErrOutOfRange))
	assert.Equal(t, DefaultConfig(), cfg)

	require.NoError(t, cfg.SetCropAmount(1))
	require.NoError(t, cfg.SetFOVRadius(99))
	require.NoError(t, cfg.SetStep(39))
	require.NoError(t, cfg.SetColourTheme("Dark"))
}

func TestDirectorySetters(t *testing.T) {
	cfg := DefaultConfig()
	dir := t.TempDir()
	require.NoError(t, cfg.SetOpeningDirectory(dir))
	require.NoError(t, cfg.SetSavingDirectory(dir))
	assert.Equal(t, dir, cfg.OpeningDirectory)

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	require.Error(t, cfg.SetSavingDirectory(file))
	require.Error(t, cfg.SetOpeningDirectory(filepath.Join(dir, "missing")))
}

func TestReset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CropAmount = 7
	cfg.Convolution = nil
	assert.Nil(t, cfg.Kernel())
	cfg.Reset()
	assert.Equal(t, DefaultConfig(), cfg)
}
