package focas

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"naojutils/internal/fitsimg"
)

// ReconHeader copies the observation keywords of src into dst and writes
// the CD matrix of the reconstructed IFU frame: the sky orientation of src
// rotated by the IFU angle, with one pixel per binned detector column along
// x and one slice pitch per 4/BIN-FCT1 rows along y.
func (p *Processor) ReconHeader(src, dst *fitsimg.Header) error {
	if missing := dst.CopyFrom(src, p.cfg.TransferKeywords...); len(missing) > 0 {
		p.log.Debug("keywords not transferred", zap.Strings("missing", missing))
	}

	bin, err := src.Int("BIN-FCT1")
	if err != nil {
		return err
	}
	var cd [4]float64
	for i, k := range []string{"CD1_1", "CD1_2", "CD2_1", "CD2_2"} {
		if cd[i], err = src.Float(k); err != nil {
			return err
		}
	}
	orient := mat.NewDense(2, 2, cd[:])
	det := mat.Det(orient)
	if det == 0 {
		return fmt.Errorf("singular CD matrix %v", cd)
	}
	orient.Scale(1/math.Sqrt(math.Abs(det)), orient)

	theta := p.cfg.IFURotation * math.Pi / 180
	rot := mat.NewDense(2, 2, []float64{
		math.Cos(theta), -math.Sin(theta),
		math.Sin(theta), math.Cos(theta),
	})
	var cdRot mat.Dense
	cdRot.Mul(rot, orient)

	itnum := 4 / bin
	if itnum < 1 {
		itnum = 1
	}
	xscale := p.cfg.PixelScale / 3600 * float64(bin)
	yscale := -p.cfg.SlicePitch / 3600 / float64(itnum)

	dst.Set("CD1_1", cdRot.At(0, 0)*xscale, "Pixel coordinate translation matrix")
	dst.Set("CD1_2", cdRot.At(0, 1)*yscale, "Pixel coordinate translation matrix")
	dst.Set("CD2_1", cdRot.At(1, 0)*xscale, "Pixel coordinate translation matrix")
	dst.Set("CD2_2", cdRot.At(1, 1)*yscale, "Pixel coordinate translation matrix")
	return nil
}
