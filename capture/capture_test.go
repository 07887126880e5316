package capture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/wangArtsoar/tars/apperror"
)

type fakeDisplay struct {
	img *image.RGBA
	err error
}

func (d fakeDisplay) Bounds() image.Rectangle {
	if d.img == nil {
		return image.Rectangle{}
	}
	return d.img.Rect
}

func (d fakeDisplay) Capture() (*image.RGBA, error) { return d.img, d.err }

type fakeSource struct {
	displays []Display
	err      error
}

func (s fakeSource) Displays() ([]Display, error) { return s.displays, s.err }

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestCaptureRawNoDisplay(t *testing.T) {
	c := New(fakeSource{}, nil)
	_, err := c.CaptureRaw()
	if !apperror.Is(err, apperror.KindNoDisplay) {
		t.Fatalf("err = %v, want no display", err)
	}
}

func TestCaptureRawUsesFirstDisplay(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	c := New(fakeSource{displays: []Display{
		fakeDisplay{img: solid(3, 2, red)},
		fakeDisplay{img: solid(5, 5, blue)},
	}}, nil)

	raw, err := c.CaptureRaw()
	if err != nil {
		t.Fatalf("CaptureRaw: %v", err)
	}
	if len(raw) != 3*2*4 {
		t.Fatalf("len = %d, want %d", len(raw), 3*2*4)
	}
	if !bytes.Equal(raw[:4], []byte{255, 0, 0, 255}) {
		t.Fatalf("first pixel = %v, want red", raw[:4])
	}
}

func TestCaptureRawPacksSubImage(t *testing.T) {
	full := solid(4, 4, color.RGBA{G: 200, A: 255})
	sub := full.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)

	c := New(fakeSource{displays: []Display{fakeDisplay{img: sub}}}, nil)
	raw, err := c.CaptureRaw()
	if err != nil {
		t.Fatalf("CaptureRaw: %v", err)
	}
	if len(raw) != 2*2*4 {
		t.Fatalf("len = %d, want 16", len(raw))
	}
}

func TestCaptureFailureIsDistinctFromEncoding(t *testing.T) {
	c := New(fakeSource{displays: []Display{fakeDisplay{err: errors.New("permission denied")}}}, nil)
	_, err := c.CaptureEncoded(MimePNG)
	if !apperror.Is(err, apperror.KindCaptureFailed) {
		t.Fatalf("err = %v, want capture failed", err)
	}

	c = New(fakeSource{err: errors.New("no x server")}, nil)
	if _, err := c.CaptureRaw(); !apperror.Is(err, apperror.KindCaptureFailed) {
		t.Fatalf("enumeration err = %v, want capture failed", err)
	}
}

func TestCaptureEncodedPNG(t *testing.T) {
	c := New(fakeSource{displays: []Display{fakeDisplay{img: solid(7, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255})}}}, nil)

	data, err := c.CaptureEncoded("")
	if err != nil {
		t.Fatalf("CaptureEncoded: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatal("missing PNG signature")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 7 || b.Dy() != 4 {
		t.Fatalf("bounds = %v", b)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Fatalf("pixel = %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestEncodeUnsupportedMime(t *testing.T) {
	_, err := Encode(solid(1, 1, color.RGBA{A: 255}), "image/jpeg")
	if !apperror.Is(err, apperror.KindEncodingFailed) {
		t.Fatalf("err = %v, want encoding failed", err)
	}
}

func TestEncodeEmptyImage(t *testing.T) {
	_, err := Encode(image.NewRGBA(image.Rectangle{}), MimePNG)
	if !apperror.Is(err, apperror.KindEncodingFailed) {
		t.Fatalf("err = %v, want encoding failed", err)
	}
}
