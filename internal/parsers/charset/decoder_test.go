package charset

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncoding_PlainUTF8(t *testing.T) {
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte("Mlijeko 5.99")))
}

func TestDetectEncoding_UTF8WithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Mlijeko")...)
	assert.Equal(t, EncodingUTF8, DetectEncoding(data))
}

func TestDetectEncoding_UTF8WithCroatianDiacriticsStaysUTF8(t *testing.T) {
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte("Čokolada mliječna")))
}

func TestDetectEncoding_NonUTF8BytesDetectedAsWindows1250(t *testing.T) {
	data := []byte{0x50, 0x9A, 0x61} // lone 0x9A is not valid UTF-8
	assert.Equal(t, EncodingWindows1250, DetectEncoding(data))
}

func TestDecode_UTF8PassesThroughUnchanged(t *testing.T) {
	out, err := Decode([]byte("Čokolada"), EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, "Čokolada", out)
}

func TestDecode_Windows1250MapsCroatianDiacritics(t *testing.T) {
	data := []byte{0x50, 0x9A, 0x61} // P + š(0x9A) + a
	out, err := Decode(data, EncodingWindows1250)
	require.NoError(t, err)
	assert.Equal(t, "Pša", out)
}

func TestDecode_ValidUTF8RequestedAsWindows1250StillDecodesAsUTF8(t *testing.T) {
	out, err := Decode([]byte("Čokolada"), EncodingWindows1250)
	require.NoError(t, err)
	assert.Equal(t, "Čokolada", out, "valid UTF-8 input must not be double-decoded")
}

func TestDecode_ISO88592MapsCroatianDiacritics(t *testing.T) {
	data := []byte{0x50, 0xE8, 0x61} // P + č(0xE8 in ISO-8859-2) + a
	out, err := Decode(data, EncodingISO88592)
	require.NoError(t, err)
	assert.Equal(t, "Pča", out)
}

func TestToUTF8Reader_PassesThroughForUTF8(t *testing.T) {
	src := []byte("Mlijeko")
	r, err := ToUTF8Reader(bytes.NewReader(src), EncodingUTF8)
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}
