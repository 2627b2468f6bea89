package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// Enhancer is the OpenCV counterpart of imageproc.Enhancer.
type Enhancer struct {
	sharpen gocv.Mat
	close   gocv.Mat
}

func NewEnhancer() *Enhancer {
	sharpen := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for i, v := range []float32{0, -1, 0, -1, 5, -1, 0, -1, 0} {
		sharpen.SetFloatAt(i/3, i%3, v)
	}
	return &Enhancer{
		sharpen: sharpen,
		close:   gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

// Enhance returns img unchanged when it cannot be converted to a Mat.
func (e *Enhancer) Enhance(img image.Image) image.Image {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return img
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	sharpened := gocv.NewMat()
	defer sharpened.Close()
	gocv.Filter2D(blurred, &sharpened, gocv.MatType(-1), e.sharpen, image.Pt(-1, -1), 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(sharpened, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, 11, 2)

	processed := gocv.NewMat()
	defer processed.Close()
	gocv.MorphologyEx(binary, &processed, gocv.MorphClose, e.close)

	out, err := processed.ToImage()
	if err != nil {
		return img
	}
	return out
}

func (e *Enhancer) Close() error {
	e.sharpen.Close()
	return e.close.Close()
}
