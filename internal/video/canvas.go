package video

import (
	"image"
	"sync"
)

// canvases recycles frame canvases between renders. A host encodes many
// clips at the same resolution, so each bounds gets its own pool.
var canvases sync.Map // image.Rectangle -> *sync.Pool

func getCanvas(bounds image.Rectangle) *image.RGBA {
	if p, ok := canvases.Load(bounds); ok {
		if img, ok := p.(*sync.Pool).Get().(*image.RGBA); ok {
			return img
		}
	}
	return image.NewRGBA(bounds)
}

// putCanvas returns img for reuse by a later render of the same bounds.
func putCanvas(img *image.RGBA) {
	if img == nil {
		return
	}
	p, _ := canvases.LoadOrStore(img.Rect, &sync.Pool{})
	p.(*sync.Pool).Put(img)
}
