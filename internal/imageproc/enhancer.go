// Package imageproc prepares plate crops for OCR without cgo.
package imageproc

import (
	"image"

	"github.com/disintegration/imaging"
)

var sharpenKernel = [9]float64{
	0, -1, 0,
	-1, 5, -1,
	0, -1, 0,
}

// Enhancer turns a crop into a binary image with dark glyphs rendered white:
// grayscale, gaussian blur, 3x3 sharpen, inverted adaptive threshold and a 3x3
// morphological close. The zero value is not usable; call NewEnhancer.
type Enhancer struct {
	blurSigma      float64
	thresholdSigma float64
	thresholdC     uint8
}

// NewEnhancer uses the parameters of a 5x5 gaussian blur and an 11x11 gaussian
// adaptive threshold with C=2.
func NewEnhancer() *Enhancer {
	return &Enhancer{
		blurSigma:      1.1,
		thresholdSigma: 2.0,
		thresholdC:     2,
	}
}

// Enhance is deterministic and keeps the crop's size. The result's bounds start at
// the origin.
func (e *Enhancer) Enhance(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	blurred := imaging.Blur(gray, e.blurSigma)
	sharpened := imaging.Convolve3x3(blurred, sharpenKernel, nil)
	mean := imaging.Blur(sharpened, e.thresholdSigma)

	binary := thresholdInv(sharpened, mean, e.thresholdC)
	return closeGray(binary)
}

// thresholdInv sets a pixel to 255 when it is not brighter than its local mean
// minus c, and to 0 otherwise. Both inputs are gray NRGBA images of equal size.
func thresholdInv(src, mean *image.NRGBA, c uint8) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := int(src.Pix[y*src.Stride+x*4])
			t := int(mean.Pix[y*mean.Stride+x*4]) - int(c)
			if v > t {
				dst.Pix[y*dst.Stride+x] = 0
			} else {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// closeGray is a 3x3 dilation followed by a 3x3 erosion. Out-of-bounds neighbours
// are ignored.
func closeGray(src *image.Gray) *image.Gray {
	return morph(morph(src, true), false)
}

func morph(src *image.Gray, dilate bool) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := src.Pix[y*src.Stride+x]
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					v := src.Pix[ny*src.Stride+nx]
					if dilate {
						acc = max(acc, v)
					} else {
						acc = min(acc, v)
					}
				}
			}
			dst.Pix[y*dst.Stride+x] = acc
		}
	}
	return dst
}
