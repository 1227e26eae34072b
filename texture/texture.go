// SPDX-License-Identifier: Unlicense OR MIT

// Package texture uploads decoded images to the GPU for sampling.
package texture

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"kosmic.dev"
	"kosmic.dev/gpu/driver"
)

// Texture is a mipmapped, repeating RGBA texture.
type Texture struct {
	dev  driver.Device
	tex  driver.Texture
	size image.Point
	slot int
}

// New converts img to RGBA, scales it down to the device texture limit
// if needed and uploads it with the bottom row first, so that texture
// coordinate (0, 0) samples the lower left corner of img.
func New(d driver.Device, img image.Image) (*Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("texture: empty image")
	}
	rgba := toRGBA(img, fit(b.Size(), d.Caps().MaxTextureSize))
	flipRows(rgba)
	size := rgba.Bounds().Size()
	tex, err := d.NewTexture(driver.TextureFormatSRGBA, size.X, size.Y, driver.FilterLinearMipmapLinear, driver.FilterLinear, driver.WrapRepeat)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	driver.UploadImage(tex, image.Point{}, rgba)
	if size != b.Size() {
		kosmic.Logger().Warn("texture: scaled to device limit", "from", b.Size(), "to", size)
	}
	return &Texture{dev: d, tex: tex, size: size}, nil
}

// fit returns size scaled down to fit a limit×limit square, keeping the
// aspect ratio. A limit of 0 means no limit.
func fit(size image.Point, limit int) image.Point {
	if limit <= 0 || (size.X <= limit && size.Y <= limit) {
		return size
	}
	if size.X >= size.Y {
		return image.Pt(limit, max(1, size.Y*limit/size.X))
	}
	return image.Pt(max(1, size.X*limit/size.Y), limit)
}

func toRGBA(src image.Image, size image.Point) *image.RGBA {
	sb := src.Bounds()
	dst := image.NewRGBA(image.Rectangle{Max: size})
	if size == sb.Size() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	}
	return dst
}

func flipRows(img *image.RGBA) {
	h := img.Bounds().Dy()
	n := img.Bounds().Dx() * 4
	row := make([]byte, n)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : y*img.Stride+n]
		bot := img.Pix[(h-1-y)*img.Stride : (h-1-y)*img.Stride+n]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
}

// Bind binds the texture to the given texture unit.
func (t *Texture) Bind(slot int) {
	t.slot = slot
	t.dev.BindTexture(slot, t.tex)
}

// Unbind clears the unit of the last Bind.
func (t *Texture) Unbind() {
	t.dev.BindTexture(t.slot, nil)
}

func (t *Texture) Size() image.Point {
	return t.size
}

func (t *Texture) Release() {
	if t.tex == nil {
		return
	}
	t.tex.Release()
	t.tex = nil
}
