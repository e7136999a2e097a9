package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageSize - целевой размер загрузки
type ImageSize struct {
	Name   string
	Width  int
	Height int
}

var (
	SizeUserPhoto = ImageSize{Name: "user", Width: 500, Height: 500}
	SizeTourImage = ImageSize{Name: "tour", Width: 2000, Height: 1333}
)

const DefaultQuality = 90

// Processor приводит загруженные изображения к JPEG заданного размера
type Processor struct {
	quality int // JPEG quality (1-100)
}

func NewProcessor(quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Processor{quality: quality}
}

// ToJPEG: decode -> cover (заполнить кадр с обрезкой по центру) -> JPEG
func (p *Processor) ToJPEG(reader io.Reader, size ImageSize) (*bytes.Buffer, error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := Cover(img, size.Width, size.Height)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return &buf, nil
}

// Cover масштабирует изображение так, чтобы оно покрыло width x height,
// и обрезает лишнее по центру
func Cover(img image.Image, width, height int) image.Image {
	src := img.Bounds()
	crop := coverRect(src, width, height)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}

// coverRect - наибольший прямоугольник с пропорцией цели по центру src
func coverRect(src image.Rectangle, width, height int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 {
		return src
	}

	// сравнение пропорций без float: sw/sh vs width/height
	if sw*height > sh*width {
		cw := sh * width / height
		x0 := src.Min.X + (sw-cw)/2
		return image.Rect(x0, src.Min.Y, x0+cw, src.Max.Y)
	}
	ch := sw * height / width
	y0 := src.Min.Y + (sh-ch)/2
	return image.Rect(src.Min.X, y0, src.Max.X, y0+ch)
}

// IsImageMIME - проверка по Content-Type из multipart
func IsImageMIME(contentType string) bool {
	return len(contentType) >= 6 && contentType[:6] == "image/"
}
