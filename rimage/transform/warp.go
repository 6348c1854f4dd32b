package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.sandcal.dev/sandcal/rimage"
	"go.sandcal.dev/sandcal/utils"
)

// edgeTolerance lets source coordinates that land a hair outside the frame because of
// floating point error still sample the border pixel.
const edgeTolerance = 1e-6

// warpConnector lets the same inverse-mapping loop drive color images and depth maps.
type warpConnector interface {
	Width() int
	Height() int
	// Sample writes the bilinear sample of the source at (x, y) into destination pixel (dx, dy).
	Sample(dx, dy int, x, y float64)
}

// Warp returns a new image of the same size where every pixel (x, y) takes the bilinear sample
// of img at inverse(h)·(x, y, 1). Pixels whose source falls outside img are black. A no-op
// homography returns img itself.
func Warp(img *rimage.Image, h Homography) (*rimage.Image, error) {
	if img == nil || img.Width() <= 0 || img.Height() <= 0 {
		return nil, rimage.NewEmptyFrameError("warp")
	}
	if h.IsNoop() {
		return img, nil
	}
	out := rimage.NewImage(img.Width(), img.Height())
	if err := warp(&imageWarpConnector{in: img, out: out}, h); err != nil {
		return nil, err
	}
	return out, nil
}

// WarpDepth is Warp for depth maps. Pixels whose source falls outside dm are zero (no reading).
func WarpDepth(dm *rimage.DepthMap, h Homography) (*rimage.DepthMap, error) {
	if dm == nil || dm.Width() <= 0 || dm.Height() <= 0 {
		return nil, rimage.NewEmptyFrameError("warp depth")
	}
	if h.IsNoop() {
		return dm, nil
	}
	out := rimage.NewEmptyDepthMap(dm.Width(), dm.Height())
	if err := warp(&depthWarpConnector{in: dm, out: out}, h); err != nil {
		return nil, err
	}
	return out, nil
}

// WarpPoint maps a destination pixel back into source coordinates, which is where a warped
// frame samples it from.
func WarpPoint(h Homography, dst r2.Point) (r2.Point, error) {
	inv, err := h.Inverse()
	if err != nil {
		return r2.Point{}, err
	}
	return inv.Apply(dst), nil
}

func warp(c warpConnector, h Homography) error {
	inv, err := h.Inverse()
	if err != nil {
		return errors.Wrap(err, "cannot warp")
	}
	width, height := c.Width(), c.Height()
	err = utils.ParallelForEachRow(height, func(y int) {
		for x := 0; x < width; x++ {
			src := inv.Apply(r2.Point{X: float64(x), Y: float64(y)})
			c.Sample(x, y, src.X, src.Y)
		}
	})
	return errors.Wrap(err, "cannot warp")
}

// bilinearNeighbors returns the four source pixels around (x, y) and the fractional offsets,
// or false when (x, y) lies outside a width x height frame.
func bilinearNeighbors(x, y float64, width, height int) (x0, y0, x1, y1 int, fx, fy float64, ok bool) {
	if !utils.IsFinite(x) || !utils.IsFinite(y) {
		return 0, 0, 0, 0, 0, 0, false
	}
	maxX, maxY := float64(width-1), float64(height-1)
	if x < -edgeTolerance || y < -edgeTolerance || x > maxX+edgeTolerance || y > maxY+edgeTolerance {
		return 0, 0, 0, 0, 0, 0, false
	}
	x = utils.ClampF64(x, 0, maxX)
	y = utils.ClampF64(y, 0, maxY)
	x0, y0 = int(math.Floor(x)), int(math.Floor(y))
	x1, y1 = x0+1, y0+1
	if x1 >= width {
		x1 = x0
	}
	if y1 >= height {
		y1 = y0
	}
	return x0, y0, x1, y1, x - float64(x0), y - float64(y0), true
}

func bilinear(v00, v10, v01, v11, fx, fy float64) float64 {
	top := v00*(1-fx) + v10*fx
	bottom := v01*(1-fx) + v11*fx
	return top*(1-fy) + bottom*fy
}

type imageWarpConnector struct {
	in  *rimage.Image
	out *rimage.Image
}

func (w *imageWarpConnector) Width() int {
	return w.out.Width()
}

func (w *imageWarpConnector) Height() int {
	return w.out.Height()
}

func (w *imageWarpConnector) Sample(dx, dy int, x, y float64) {
	x0, y0, x1, y1, fx, fy, ok := bilinearNeighbors(x, y, w.in.Width(), w.in.Height())
	if !ok {
		return
	}
	c00, c10 := w.in.GetXY(x0, y0), w.in.GetXY(x1, y0)
	c01, c11 := w.in.GetXY(x0, y1), w.in.GetXY(x1, y1)
	w.out.SetXY(dx, dy, rimage.NewColor(
		utils.RoundToUint8(bilinear(float64(c00.R), float64(c10.R), float64(c01.R), float64(c11.R), fx, fy)),
		utils.RoundToUint8(bilinear(float64(c00.G), float64(c10.G), float64(c01.G), float64(c11.G), fx, fy)),
		utils.RoundToUint8(bilinear(float64(c00.B), float64(c10.B), float64(c01.B), float64(c11.B), fx, fy)),
	))
}

type depthWarpConnector struct {
	in  *rimage.DepthMap
	out *rimage.DepthMap
}

func (w *depthWarpConnector) Width() int {
	return w.out.Width()
}

func (w *depthWarpConnector) Height() int {
	return w.out.Height()
}

func (w *depthWarpConnector) Sample(dx, dy int, x, y float64) {
	x0, y0, x1, y1, fx, fy, ok := bilinearNeighbors(x, y, w.in.Width(), w.in.Height())
	if !ok {
		return
	}
	v := bilinear(
		float64(w.in.GetDepth(x0, y0)), float64(w.in.GetDepth(x1, y0)),
		float64(w.in.GetDepth(x0, y1)), float64(w.in.GetDepth(x1, y1)),
		fx, fy)
	w.out.Set(dx, dy, uint16(utils.ClampF64(math.Round(v), 0, rimage.MaxDepth)))
}
