package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaperSize(t *testing.T) {
	tests := []struct {
		size   PaperSize
		valid  bool
		width  int
		height int
	}{
		{PaperSizeA4, true, 210, 297},
		{PaperSizeA5, true, 148, 210},
		{PaperSizeLetter, true, 216, 279},
		{PaperSize("RECEIPT_80MM"), false, 210, 297},
	}

	for _, tt := range tests {
		t.Run(tt.size.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.size.IsValid())
			w, h := tt.size.Dimensions()
			assert.Equal(t, tt.width, w)
			assert.Equal(t, tt.height, h)
		})
	}
}

func TestOrientation_IsValid(t *testing.T) {
	assert.True(t, OrientationPortrait.IsValid())
	assert.True(t, OrientationLandscape.IsValid())
	assert.False(t, Orientation("DIAGONAL").IsValid())
}
