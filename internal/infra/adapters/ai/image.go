package ai

import (
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// ImageOptions controls pre-upload downscaling.
type ImageOptions struct {
	MaxDimension int // longest allowed side; 0 disables downscaling
	JPEGQuality  int
}

// encodeImage reads the file and returns its base64 payload plus detected
// mime type.
func encodeImage(path string) (data string, mimeType string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(raw), detectMime(path, raw), nil
}

func detectMime(path string, raw []byte) string {
	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	mt := http.DetectContentType(head)
	// DetectContentType cannot tell every type apart; trust the extension
	// for the ones it reports as octet-stream.
	if mt == "application/octet-stream" {
		switch filepath.Ext(path) {
		case ".pdf":
			return "application/pdf"
		case ".webp":
			return "image/webp"
		}
	}
	return mt
}

// optimizeImage downscales the image when its longest side exceeds the
// configured maximum, re-encoding as JPEG into a temp file. The returned
// cleanup removes that temp file; it is a no-op when the original path is
// returned. Inputs imaging cannot decode (pdf, webp) pass through untouched.
func optimizeImage(path string, opts ImageOptions) (string, func(), error) {
	noop := func() {}
	if opts.MaxDimension <= 0 {
		return path, noop, nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return path, noop, nil
	}

	bounds := img.Bounds()
	if bounds.Dx() <= opts.MaxDimension && bounds.Dy() <= opts.MaxDimension {
		return path, noop, nil
	}

	resized := imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)

	tmp, err := os.CreateTemp("", "ai-tagger-*.jpg")
	if err != nil {
		return "", noop, err
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if err := imaging.Save(resized, tmpPath, imaging.JPEGQuality(quality)); err != nil {
		_ = os.Remove(tmpPath)
		return "", noop, err
	}
	return tmpPath, func() { _ = os.Remove(tmpPath) }, nil
}
