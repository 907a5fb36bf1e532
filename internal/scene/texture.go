package scene

import "fmt"

// Texture is a CPU-side BGRA pixel buffer destined for the renderer.
type Texture struct {
	Width  int
	Height int
	Pixels []byte // BGRA, 4 bytes per pixel, row-major
}

// NewTexture allocates a texture of the given size.
func NewTexture(width, height int) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height*4),
	}, nil
}

// pixelCopier is the slice of the frame contract Upload needs.
type pixelCopier interface {
	CopyPixels(dst []byte) error
}

// Upload copies a frame's raw pixels into the texture buffer.
func (t *Texture) Upload(frame pixelCopier) error {
	if err := frame.CopyPixels(t.Pixels); err != nil {
		return fmt.Errorf("upload pixels: %w", err)
	}
	return nil
}
