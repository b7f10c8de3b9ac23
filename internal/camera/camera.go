// Package camera captures still images for the profile avatar.
package camera

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"sync"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"
)

// JPEGQuality is the encoder quality of captured avatars.
const JPEGQuality = 90

// FileDevice is a camera whose frames come from an image file, e.g. the
// output of a webcam snapshot tool.
type FileDevice struct {
	Path string

	mu   sync.Mutex
	file *os.File
}

var _ ports.Camera = (*FileDevice)(nil)

func (d *FileDevice) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file != nil {
		return nil
	}
	f, err := os.Open(d.Path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: camera %s", domain.ErrPermissionDenied, d.Path)
		}
		return fmt.Errorf("camera unavailable: %w", err)
	}
	d.file = f
	return nil
}

func (d *FileDevice) Capture() (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil, errors.New("camera is not open")
	}
	if _, err := d.file.Seek(0, 0); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(d.file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return img, nil
}

func (d *FileDevice) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// Snapshot opens cam, grabs one frame and releases the device. The frame is
// mirrored when mirror is set and returned as a JPEG data URL.
func Snapshot(ctx context.Context, cam ports.Camera, mirror bool) (string, error) {
	if err := cam.Open(ctx); err != nil {
		return "", err
	}
	defer cam.Release()

	frame, err := cam.Capture()
	if err != nil {
		return "", err
	}
	if mirror {
		frame = Mirror(frame)
	}
	return EncodeDataURL(frame)
}

// Mirror flips img horizontally.
func Mirror(img image.Image) image.Image {
	b := img.Bounds()
	src := image.NewRGBA(b)
	draw.Draw(src, b, img, b.Min, draw.Src)

	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.X-1-(x-b.Min.X), y, src.At(x, y))
		}
	}
	return out
}

func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
