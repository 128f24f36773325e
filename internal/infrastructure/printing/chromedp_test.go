package printing

import (
	"strings"
	"testing"
	"time"

	"github.com/erp/orderprint/internal/domain/printing"
	"github.com/stretchr/testify/assert"
)

func TestBuildPrintParams_A4Portrait(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}
	req := &RenderRequest{HTML: "<html>test</html>", Page: printing.DefaultPageSetup()}

	params := r.buildPrintParams(req)

	// A4 is 210mm x 297mm
	assert.InDelta(t, mmToInches(210), params.paperWidth, 0.01)
	assert.InDelta(t, mmToInches(297), params.paperHeight, 0.01)
	assert.InDelta(t, mmToInches(10), params.marginTop, 0.001)
	assert.InDelta(t, mmToInches(10), params.marginLeft, 0.001)
	assert.False(t, params.landscape)
	assert.True(t, params.printBackground)
	assert.Equal(t, 1.0, params.scale)
}

func TestBuildPrintParams_Landscape(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}
	setup := printing.DefaultPageSetup()
	setup.Orientation = printing.OrientationLandscape
	setup.PrintBackground = false

	params := r.buildPrintParams(&RenderRequest{HTML: "x", Page: setup})

	assert.True(t, params.landscape)
	assert.False(t, params.printBackground)
}

func TestBuildCompleteHTML(t *testing.T) {
	t.Run("document passes through", func(t *testing.T) {
		doc := "<!DOCTYPE html><html><body>ok</body></html>"
		assert.Equal(t, doc, buildCompleteHTML(&RenderRequest{HTML: doc}))
	})

	t.Run("fragment is wrapped and title escaped", func(t *testing.T) {
		out := buildCompleteHTML(&RenderRequest{HTML: "<p>Pedido</p>", Title: "A&B"})
		assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
		assert.Contains(t, out, `<meta charset="UTF-8">`)
		assert.Contains(t, out, "<title>A&amp;B</title>")
		assert.Contains(t, out, "<body><p>Pedido</p></body>")
	})
}

func TestMmToInches(t *testing.T) {
	assert.InDelta(t, 1.0, mmToInches(25.4), 0.0001)
	assert.InDelta(t, 8.2677, mmToInches(210), 0.001)
}

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r, err := NewChromedpRenderer(&ChromedpConfig{RemoteURL: "ws://127.0.0.1:9222/devtools/browser/x"})
	assert.NoError(t, err)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.Equal(t, 10*time.Second, r.config.IdleTimeout)
	assert.Equal(t, 1.0, r.config.Scale)
}

func TestChromedpRenderer_Close(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{}}
	assert.NoError(t, r.Close())
}
