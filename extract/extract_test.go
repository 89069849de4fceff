package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Txt(t *testing.T) {
	text, err := Text("notes.txt", []byte("The sky is blue."))
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", text)
}

func TestText_TxtInvalidUTF8(t *testing.T) {
	_, err := Text("notes.txt", []byte{0xff, 0xfe, 0xfd})
	require.Error(t, err)
}

func TestText_UnsupportedExtension(t *testing.T) {
	_, err := Text("image.png", []byte("binary"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.pdf"))
	assert.True(t, Supported("A.TXT"))
	assert.False(t, Supported("a.docx"))
	assert.False(t, Supported("noext"))
}

func TestText_MalformedPDF(t *testing.T) {
	_, err := Text("broken.pdf", []byte("not actually a pdf"))
	require.Error(t, err)
}
