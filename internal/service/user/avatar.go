package user

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	_ "image/gif"  // GIF decode support
	_ "image/jpeg" // JPEG decode support

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decode support
)

const (
	// MaxAvatarBytes bounds the size of an uploaded avatar.
	MaxAvatarBytes = 5 << 20
	// AvatarSize is the maximum edge length of a stored avatar.
	AvatarSize = 256
)

// ProcessAvatar decodes an uploaded image, shrinks it to fit within
// AvatarSize x AvatarSize keeping its aspect ratio, and encodes it as PNG.
// Images already small enough are re-encoded without scaling.
func ProcessAvatar(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if len(data) > MaxAvatarBytes {
		return nil, ErrImageTooLarge
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrBadImage
	}
	// reject decompression bombs before allocating the full bitmap
	if cfg.Width*cfg.Height > 40_000_000 {
		return nil, ErrImageTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrBadImage
	}

	dst := fit(src, AvatarSize)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

func fit(src image.Image, max int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return src
	}

	nw, nh := max, max
	if w > h {
		nh = h * max / w
	} else {
		nw = w * max / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
