package rimage

import (
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ReadImageFromFile decodes a png, jpeg, ppm or qoi file into an Image.
func ReadImageFromFile(path string) (*Image, error) {
	var img image.Image
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ppm":
		img, err = decodeFromFile(path, ppm.Decode)
	case ".qoi":
		img, err = decodeFromFile(path, qoi.Decode)
	default:
		img, err = imaging.Open(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read image %q", path)
	}
	return NewImageFromStdImage(img), nil
}

func decodeFromFile(path string, decode func(r io.Reader) (image.Image, error)) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return decode(f)
}

// WriteImageToFile encodes img by the extension of path. ppm and qoi are written natively,
// everything else goes through imaging.
func WriteImageToFile(path string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ppm":
		return encodeToFile(path, func(f *os.File) error { return ppm.Encode(f, img) })
	case ".qoi":
		return encodeToFile(path, func(f *os.File) error { return qoi.Encode(f, img) })
	}
	if ri, ok := img.(*Image); ok {
		img = ri.ToNRGBA()
	}
	return errors.Wrapf(imaging.Save(img, path), "cannot write image %q", path)
}

func encodeToFile(path string, encode func(f *os.File) error) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return errors.Wrapf(encode(f), "cannot encode %q", path)
}

// ReadDepthMapFromFile reads a 16-bit (or 8-bit) gray png as a DepthMap.
func ReadDepthMapFromFile(path string) (*DepthMap, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read depth map %q", path)
	}
	return ConvertImageToDepthMap(img)
}

// WriteDepthMapToFile writes dm as a 16-bit gray png.
func WriteDepthMapToFile(path string, dm *DepthMap) error {
	if err := checkDepth("WriteDepthMapToFile", dm); err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return errors.Errorf("depth maps are written as png, not %q", ext)
	}
	return errors.Wrapf(imaging.Save(dm.ToGray16(), path), "cannot write depth map %q", path)
}
