package assets

import (
	"errors"
	"fmt"
	"image"
)

const (
	tgaHeaderSize   = 18
	tgaTrueColor    = 2
	tgaTrueColorRLE = 10
	tgaTopToBottom  = 0x20
)

var errTGATruncated = errors.New("tga: pixel data truncated")

// decodeTGA decodes uncompressed or RLE true-color TGA files at 24 or 32 bits.
// The standard library has no TGA decoder and the format has no magic number,
// so it cannot be registered with image.RegisterFormat.
func decodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, errors.New("tga: header too short")
	}
	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&tgaTopToBottom != 0

	if colorMapType != 0 {
		return nil, errors.New("tga: color-mapped images are not supported")
	}
	if imageType != tgaTrueColor && imageType != tgaTrueColorRLE {
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}
	if tgaHeaderSize+idLength > len(data) {
		return nil, errTGATruncated
	}

	d := tgaDecoder{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		src:         data[tgaHeaderSize+idLength:],
		stride:      bpp / 8,
		width:       width,
		height:      height,
		topToBottom: topToBottom,
	}
	var err error
	if imageType == tgaTrueColor {
		err = d.raw(width * height)
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img         *image.RGBA
	src         []byte
	stride      int
	width       int
	height      int
	topToBottom bool
	pixel       int
}

// next reads one BGR(A) pixel from src.
func (d *tgaDecoder) next() ([4]byte, error) {
	if len(d.src) < d.stride {
		return [4]byte{}, errTGATruncated
	}
	c := [4]byte{d.src[2], d.src[1], d.src[0], 255}
	if d.stride == 4 {
		c[3] = d.src[3]
	}
	d.src = d.src[d.stride:]
	return c, nil
}

// put writes c at the next pixel, flipping bottom-up files so row 0 is the top.
func (d *tgaDecoder) put(c [4]byte) {
	x, y := d.pixel%d.width, d.pixel/d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	copy(d.img.Pix[d.img.PixOffset(x, y):], c[:])
	d.pixel++
}

func (d *tgaDecoder) raw(n int) error {
	for range n {
		c, err := d.next()
		if err != nil {
			return err
		}
		d.put(c)
	}
	return nil
}

func (d *tgaDecoder) rle() error {
	total := d.width * d.height
	for d.pixel < total {
		if len(d.src) == 0 {
			return errTGATruncated
		}
		packet := d.src[0]
		d.src = d.src[1:]
		count := min(int(packet&0x7f)+1, total-d.pixel)

		if packet&0x80 == 0 {
			if err := d.raw(count); err != nil {
				return err
			}
			continue
		}
		c, err := d.next()
		if err != nil {
			return err
		}
		for range count {
			d.put(c)
		}
	}
	return nil
}
