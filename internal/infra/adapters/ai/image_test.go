package ai

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func writeSizedImage(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func TestEncodeImage(t *testing.T) {
	path := writeSizedImage(t, 4, 4)
	data, mimeType, err := encodeImage(path)
	if err != nil {
		t.Fatalf("encodeImage: %v", err)
	}
	if mimeType != "image/png" {
		t.Errorf("mime = %q", mimeType)
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	onDisk, _ := os.ReadFile(path)
	if !bytes.Equal(raw, onDisk) {
		t.Error("decoded payload differs from file contents")
	}
}

func TestDetectMimeExtensionFallback(t *testing.T) {
	// A body DetectContentType cannot identify falls back to the extension.
	blob := []byte{0x00, 0x01, 0x02, 0x03}
	if got := detectMime("doc.pdf", blob); got != "application/pdf" {
		t.Errorf("pdf fallback = %q", got)
	}
	if got := detectMime("pic.webp", blob); got != "image/webp" {
		t.Errorf("webp fallback = %q", got)
	}
}

func TestOptimizeImageSkipsSmall(t *testing.T) {
	path := writeSizedImage(t, 100, 80)
	out, cleanup, err := optimizeImage(path, ImageOptions{MaxDimension: 2048, JPEGQuality: 85})
	if err != nil {
		t.Fatalf("optimizeImage: %v", err)
	}
	defer cleanup()
	if out != path {
		t.Errorf("image within bounds must pass through, got %q", out)
	}
}

func TestOptimizeImageDownscales(t *testing.T) {
	path := writeSizedImage(t, 3000, 1000)
	out, cleanup, err := optimizeImage(path, ImageOptions{MaxDimension: 2048, JPEGQuality: 85})
	if err != nil {
		t.Fatalf("optimizeImage: %v", err)
	}
	if out == path {
		t.Fatal("oversized image was not re-encoded")
	}

	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open downscaled image: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > 2048 || b.Dy() > 2048 {
		t.Errorf("downscaled to %dx%d, still over the limit", b.Dx(), b.Dy())
	}
	// Aspect ratio preserved: 3:1 input stays 3:1.
	if b.Dx() != 2048 {
		t.Errorf("longest side = %d, want 2048", b.Dx())
	}

	cleanup()
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("cleanup left the temp file behind")
	}
}

func TestOptimizeImageDisabled(t *testing.T) {
	path := writeSizedImage(t, 3000, 1000)
	out, cleanup, err := optimizeImage(path, ImageOptions{})
	if err != nil {
		t.Fatalf("optimizeImage: %v", err)
	}
	defer cleanup()
	if out != path {
		t.Error("zero max dimension must disable downscaling")
	}
}

func TestOptimizeImageUndecodableInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, cleanup, err := optimizeImage(path, ImageOptions{MaxDimension: 2048})
	if err != nil {
		t.Fatalf("optimizeImage: %v", err)
	}
	defer cleanup()
	if out != path {
		t.Error("undecodable input must pass through untouched")
	}
}
