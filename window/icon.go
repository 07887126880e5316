package window

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"runtime"

	"github.com/wangArtsoar/tars/capture"
)

const iconSize = 32

// TrayIcon draws the tray glyph: a filled circle. Windows wants an ICO
// container, which may wrap PNG data directly.
func TrayIcon() []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	ink := color.RGBA{R: 0x1f, G: 0x6f, B: 0xeb, A: 0xff}
	c := iconSize / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := x-c, y-c
			if dx*dx+dy*dy <= (c-2)*(c-2) {
				img.SetRGBA(x, y, ink)
			}
		}
	}
	pngBytes, err := capture.Encode(img, capture.MimePNG)
	if err != nil {
		return nil
	}
	if runtime.GOOS != "windows" {
		return pngBytes
	}
	return wrapICO(pngBytes, iconSize)
}

func wrapICO(pngBytes []byte, size int) []byte {
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, []uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.WriteByte(byte(size))
	buf.WriteByte(byte(size))
	buf.WriteByte(0)
	buf.WriteByte(0)
	_ = binary.Write(&buf, binary.LittleEndian, []uint16{1, 32})
	_ = binary.Write(&buf, binary.LittleEndian, []uint32{uint32(len(pngBytes)), 6 + 16})
	buf.Write(pngBytes)
	return buf.Bytes()
}
