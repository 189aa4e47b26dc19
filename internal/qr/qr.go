// Package qr renders the QR code of a person as PNG and SVG and stores both images.
package qr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/rollcall-admin/rollcall/internal/storage"
)

const (
	// DefaultPNGSize is the PNG width and height in pixels.
	DefaultPNGSize = 300

	contentTypePNG = "image/png"
	contentTypeSVG = "image/svg+xml"
)

// Generator produces and removes person QR codes.
type Generator struct {
	uploader storage.Uploader
	baseURL  string
	size     int
}

// NewGenerator creates a generator encoding baseURL/<personId>.
func NewGenerator(uploader storage.Uploader, baseURL string, size int) *Generator {
	if size <= 0 {
		size = DefaultPNGSize
	}

	return &Generator{
		uploader: uploader,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		size:     size,
	}
}

// Generate uploads the QR images of personID.
func (g *Generator) Generate(ctx context.Context, personID string) error {
	return Generate(ctx, g.uploader, g.baseURL, personID, g.size)
}

// Delete removes the QR images of personID.
func (g *Generator) Delete(ctx context.Context, personID string) error {
	return Delete(ctx, g.uploader, personID)
}

// Generate encodes resourceURL/id, writes PNG and SVG renderings to a private temp
// directory and uploads them. The temp directory is removed on every return path.
func Generate(ctx context.Context, uploader storage.Uploader, resourceURL, id string, size int) error {
	code, err := qrcode.New(resourceURL+"/"+id, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encode qr code for %s: %w", id, err)
	}

	dir, err := os.MkdirTemp("", "qr-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("failed to remove qr temp dir")
		}
	}()

	pngPath := filepath.Join(dir, id+".png")
	if err := code.WriteFile(size, pngPath); err != nil {
		return fmt.Errorf("write png: %w", err)
	}

	svgPath := filepath.Join(dir, id+".svg")
	if err := os.WriteFile(svgPath, []byte(SVG(code.Bitmap())), 0o600); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}

	if err := uploader.PutFile(ctx, storage.QRKey(id, "png"), pngPath, contentTypePNG); err != nil {
		return err
	}

	if err := uploader.PutFile(ctx, storage.QRKey(id, "svg"), svgPath, contentTypeSVG); err != nil {
		return err
	}

	log.Debug().Str("person", id).Msg("uploaded qr code")

	return nil
}

// Delete removes both QR images of id. Both deletes are attempted.
func Delete(ctx context.Context, uploader storage.Uploader, id string) error {
	errPNG := uploader.Delete(ctx, storage.QRKey(id, "png"))
	errSVG := uploader.Delete(ctx, storage.QRKey(id, "svg"))

	if errPNG != nil {
		return errPNG
	}

	return errSVG
}

// SVG renders a QR bitmap, quiet zone included, as a scalable image with one unit per module.
func SVG(bitmap [][]bool) string {
	n := len(bitmap)

	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, n, n)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#fff"/><path fill="#000" d="`, n, n)

	for y, row := range bitmap {
		for x := 0; x < len(row); x++ {
			if !row[x] {
				continue
			}

			// merge horizontal runs into one segment
			start := x
			for x+1 < len(row) && row[x+1] {
				x++
			}

			fmt.Fprintf(&b, "M%d %dh%dv1h-%dz", start, y, x-start+1, x-start+1)
		}
	}

	b.WriteString(`"/></svg>`)

	return b.String()
}
