package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
	"github.com/sirupsen/logrus"
	"github.com/wangArtsoar/tars/apperror"
)

const MimePNG = "image/png"

// Display is one capturable screen.
type Display interface {
	Bounds() image.Rectangle
	Capture() (*image.RGBA, error)
}

// Source enumerates the displays currently attached.
type Source interface {
	Displays() ([]Display, error)
}

// Capturer grabs the first enumerated display. Selection is positional,
// it does not follow the active window.
type Capturer struct {
	source Source
	log    *logrus.Entry
}

func New(source Source, log *logrus.Entry) *Capturer {
	if source == nil {
		source = ScreenSource{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Capturer{source: source, log: log.WithField("component", "capture")}
}

// Frame captures the primary display as an RGBA image.
func (c *Capturer) Frame() (*image.RGBA, error) {
	displays, err := c.source.Displays()
	if err != nil {
		return nil, apperror.New(apperror.KindCaptureFailed, "failed to get screens", err)
	}
	display, err := selectDisplay(displays)
	if err != nil {
		return nil, err
	}

	img, err := display.Capture()
	if err != nil {
		return nil, apperror.New(apperror.KindCaptureFailed, "failed to capture screen", err)
	}
	if img == nil {
		return nil, apperror.New(apperror.KindCaptureFailed, "failed to capture screen", fmt.Errorf("display returned no image"))
	}
	c.log.WithFields(logrus.Fields{
		"width":  img.Rect.Dx(),
		"height": img.Rect.Dy(),
	}).Debug("screen captured")
	return img, nil
}

// CaptureRaw returns tightly packed RGBA pixels, 4 bytes per pixel, row major.
func (c *Capturer) CaptureRaw() ([]byte, error) {
	img, err := c.Frame()
	if err != nil {
		return nil, err
	}
	return packRGBA(img), nil
}

// CaptureEncoded captures the primary display and encodes it in a lossless
// container. An empty mimeType means PNG, which is the only supported one.
func (c *Capturer) CaptureEncoded(mimeType string) ([]byte, error) {
	img, err := c.Frame()
	if err != nil {
		return nil, err
	}
	return Encode(img, mimeType)
}

// Encode writes img as 8-bit-per-channel RGBA in the container named by mimeType.
func Encode(img *image.RGBA, mimeType string) ([]byte, error) {
	if mimeType == "" {
		mimeType = MimePNG
	}
	if mimeType != MimePNG {
		return nil, apperror.New(apperror.KindEncodingFailed, "unsupported mime type "+mimeType, nil)
	}
	if img == nil || img.Rect.Empty() {
		return nil, apperror.New(apperror.KindEncodingFailed, "failed to create PNG encoder", fmt.Errorf("empty image"))
	}

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, apperror.New(apperror.KindEncodingFailed, "failed to write PNG data", err)
	}
	return buf.Bytes(), nil
}

// selectDisplay is the display selection policy: index 0 of the enumeration.
func selectDisplay(displays []Display) (Display, error) {
	if len(displays) == 0 {
		return nil, apperror.New(apperror.KindNoDisplay, "No screens found", nil)
	}
	return displays[0], nil
}

func packRGBA(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	rowLen := w * 4
	out := make([]byte, rowLen*h)
	for y := 0; y < h; y++ {
		start := y * img.Stride
		copy(out[y*rowLen:(y+1)*rowLen], img.Pix[start:start+rowLen])
	}
	return out
}

// ScreenSource enumerates real displays through kbinani/screenshot.
type ScreenSource struct{}

func (ScreenSource) Displays() ([]Display, error) {
	n := screenshot.NumActiveDisplays()
	displays := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, screenDisplay{bounds: screenshot.GetDisplayBounds(i)})
	}
	return displays, nil
}

type screenDisplay struct {
	bounds image.Rectangle
}

func (d screenDisplay) Bounds() image.Rectangle { return d.bounds }

func (d screenDisplay) Capture() (*image.RGBA, error) {
	return screenshot.CaptureRect(d.bounds)
}
