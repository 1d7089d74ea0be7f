// Package preprocess turns fetched image bytes into the normalized tensor
// the plant classifier was trained on.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	ResizeShortSide = 256
	CropSize        = 224
	Channels        = 3

	// MaxPixels matches PIL's decompression bomb limit
	MaxPixels = 89478485
	// MaxResizedSide bounds the long side after the short side is scaled to
	// ResizeShortSide, which caps extreme aspect ratios.
	MaxResizedSide = 32 * ResizeShortSide
)

var (
	Mean = [Channels]float32{0.485, 0.456, 0.406}
	Std  = [Channels]float32{0.229, 0.224, 0.225}
)

// ErrUnreadableImage is returned when the bytes cannot be decoded as any
// supported image format.
var ErrUnreadableImage = errors.New("could not identify image file")

// Tensor is a single NCHW float32 batch
type Tensor struct {
	Data  []float32
	Shape [4]int64
}

// Preprocess decodes data and produces a [1,3,224,224] tensor: shorter side
// resized to 256, center crop to 224, scaled to [0,1] and normalized per channel.
func Preprocess(data []byte) (Tensor, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Tensor{}, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	if err := CheckDimensions(cfg.Width, cfg.Height); err != nil {
		return Tensor{}, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Tensor{}, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return FromImage(img)
}

// FromImage runs the same pipeline as Preprocess on an already decoded image
func FromImage(img image.Image) (Tensor, error) {
	bounds := img.Bounds()
	if err := CheckDimensions(bounds.Dx(), bounds.Dy()); err != nil {
		return Tensor{}, err
	}

	rgb := toRGB(img)

	width, height := ResizedDimensions(bounds.Dx(), bounds.Dy(), ResizeShortSide)
	resized := toNRGBA(resize.Resize(uint(width), uint(height), rgb, resize.Bilinear))

	left := CenterCropOffset(width, CropSize)
	top := CenterCropOffset(height, CropSize)

	plane := CropSize * CropSize
	out := make([]float32, Channels*plane)
	origin := resized.Bounds().Min

	for y := 0; y < CropSize; y++ {
		for x := 0; x < CropSize; x++ {
			offset := resized.PixOffset(origin.X+left+x, origin.Y+top+y)
			pix := resized.Pix[offset : offset+3 : offset+3]
			idx := y*CropSize + x
			for c := 0; c < Channels; c++ {
				v := float32(pix[c]) / 255.0
				out[c*plane+idx] = (v - Mean[c]) / Std[c]
			}
		}
	}

	return Tensor{
		Data:  out,
		Shape: [4]int64{1, Channels, CropSize, CropSize},
	}, nil
}

// CheckDimensions rejects images that are empty, larger than MaxPixels, or so
// elongated that resizing would allocate past MaxResizedSide.
func CheckDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: empty image", ErrUnreadableImage)
	}
	if int64(width)*int64(height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnreadableImage, width, height, MaxPixels)
	}
	short, long := min(width, height), max(width, height)
	if int64(long)*ResizeShortSide/int64(short) > MaxResizedSide {
		return fmt.Errorf("%w: aspect ratio of %dx%d is too extreme", ErrUnreadableImage, width, height)
	}
	return nil
}

// ResizedDimensions scales (width, height) so the shorter side equals
// shortSide, truncating the longer side the way torchvision's Resize does.
func ResizedDimensions(width, height, shortSide int) (int, int) {
	if width <= height {
		return shortSide, int(float64(shortSide) * float64(height) / float64(width))
	}
	return int(float64(shortSide) * float64(width) / float64(height)), shortSide
}

// CenterCropOffset returns the leading offset of a centered crop, rounding
// half to even.
func CenterCropOffset(size, crop int) int {
	return int(math.RoundToEven(float64(size-crop) / 2.0))
}

// toRGB keeps the color channels of img as they are and makes every pixel
// opaque, so transparent regions are not blended toward black by the resampler.
func toRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
