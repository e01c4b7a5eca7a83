package branding

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 30, G: 60, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "abc123", Normalize("data:image/jpeg;base64,abc123"))
	assert.Equal(t, "abc123", Normalize("abc123"))
	// A comma without a data-URL prefix is left alone
	assert.Equal(t, "a,b", Normalize("a,b"))
}

func TestStamp_ProducesValidJPEG(t *testing.T) {
	in := testJPEG(t, 640, 480)
	out := Stamp(in, "Everyday Mirror")

	require.NotEqual(t, in, out)
	raw, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestStamp_DataURLInput(t *testing.T) {
	in := "data:image/jpeg;base64," + testJPEG(t, 320, 240)
	out := Stamp(in, "Everyday Mirror")

	raw, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
}

func TestStamp_GarbageReturnsInput(t *testing.T) {
	assert.Equal(t, "not-base64!!", Stamp("not-base64!!", "Mirror"))

	// Valid base64 but not an image
	garbage := base64.StdEncoding.EncodeToString([]byte("hello world"))
	assert.Equal(t, garbage, Stamp(garbage, "Mirror"))
}

func TestStamp_TooSmallReturnsInput(t *testing.T) {
	// No room for the text after padding; the image passes through unchanged
	in := testJPEG(t, 8, 8)
	assert.Equal(t, in, Stamp(in, "Everyday Mirror"))
}
