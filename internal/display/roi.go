package display

import (
	"errors"
	"image"
	"image/color"

	"naojutils/internal/fitsimg"
)

var ErrBoundary = errors.New("ROI too close to image boundary")

// ROI is a rectangular region of interest in image pixel coordinates.
// (X0, Y0) is the first pixel, X1 and Y1 are exclusive.
type ROI struct {
	Width, Height int
	X0, Y0        int

	// XJog and YJog are the step sizes of Move.
	XJog, YJog int
}

func (r *ROI) X1() int { return r.X0 + r.Width }
func (r *ROI) Y1() int { return r.Y0 + r.Height }

func (r *ROI) Rect() image.Rectangle { return image.Rect(r.X0, r.Y0, r.X1(), r.Y1()) }

// Center puts the ROI in the middle of a width x height image.
func (r *ROI) Center(width, height int) {
	r.X0 = width/2 - r.Width/2
	r.Y0 = height/2 - r.Height/2
}

// Move shifts the ROI by one jog step. dx and dy give the direction and
// must be -1, 0 or 1. The ROI is left in place when the step would leave
// the image.
func (r *ROI) Move(dx, dy, width, height int) error {
	x0 := r.X0 + dx*r.XJog
	y0 := r.Y0 + dy*r.YJog
	if x0 < 0 || y0 < 0 || x0+r.Width > width || y0+r.Height > height {
		return ErrBoundary
	}
	r.X0, r.Y0 = x0, y0
	return nil
}

// Validate fixes an ROI that does not fit a width x height image, as
// happens when the saved ROI came from a different image. It reports
// whether anything changed.
func (r *ROI) Validate(width, height int) bool {
	changed := false
	if r.Width < 1 || r.Width > width {
		r.Width = width / 2
		r.X0 = width/2 - r.Width/2
		changed = true
	}
	if r.Height < 1 || r.Height > height {
		r.Height = height / 2
		r.Y0 = height/2 - r.Height/2
		changed = true
	}
	if r.X0 < 0 || r.X1() > width {
		r.X0 = width/2 - r.Width/2
		changed = true
	}
	if r.Y0 < 0 || r.Y1() > height {
		r.Y0 = height/2 - r.Height/2
		changed = true
	}
	if r.XJog < 1 {
		r.XJog = 1
	}
	if r.YJog < 1 {
		r.YJog = 1
	}
	return changed
}

// Crop returns the part of img under the ROI.
func (r *ROI) Crop(img *fitsimg.Image) (*fitsimg.Image, error) {
	return img.Crop(r.X0, r.Y0, r.X1(), r.Y1())
}

// Outline draws the ROI border in white on a stretched picture. The
// picture rows are flipped relative to the image.
func (r *ROI) Outline(pic *image.Gray) {
	h := pic.Bounds().Dy()
	top := h - r.Y1()
	bottom := h - 1 - r.Y0
	for x := r.X0; x < r.X1(); x++ {
		pic.SetGray(x, top, color.Gray{Y: 255})
		pic.SetGray(x, bottom, color.Gray{Y: 255})
	}
	for y := top; y <= bottom; y++ {
		pic.SetGray(r.X0, y, color.Gray{Y: 255})
		pic.SetGray(r.X1()-1, y, color.Gray{Y: 255})
	}
}
