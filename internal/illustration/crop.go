package illustration

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	_ "image/gif"
	_ "image/png"
)

// CropToAspect center-crops raw image bytes to the given aspect ratio and
// writes the result as JPEG. The image is never scaled, only cropped.
func CropToAspect(data []byte, aspectW, aspectH, quality int, outputPath string) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return fmt.Errorf("image has zero dimensions")
	}

	targetRatio := float64(aspectW) / float64(aspectH)
	currentRatio := float64(width) / float64(height)

	var crop image.Rectangle
	if currentRatio > targetRatio {
		// Too wide, trim the sides
		newWidth := int(float64(height) * targetRatio)
		left := bounds.Min.X + (width-newWidth)/2
		crop = image.Rect(left, bounds.Min.Y, left+newWidth, bounds.Max.Y)
	} else {
		// Too tall, trim top and bottom
		newHeight := int(float64(width) / targetRatio)
		top := bounds.Min.Y + (height-newHeight)/2
		crop = image.Rect(bounds.Min.X, top, bounds.Max.X, top+newHeight)
	}

	cropped := cropImage(img, crop)

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, cropped, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return nil
}

// subImager is implemented by the stdlib image types we decode
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// cropImage extracts a rectangle, copying pixels when the decoded type
// does not support SubImage
func cropImage(img image.Image, crop image.Rectangle) image.Image {
	if sub, ok := img.(subImager); ok {
		return sub.SubImage(crop)
	}

	dst := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	for y := 0; y < crop.Dy(); y++ {
		for x := 0; x < crop.Dx(); x++ {
			dst.Set(x, y, img.At(crop.Min.X+x, crop.Min.Y+y))
		}
	}
	return dst
}
