package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"net/http"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// Normalize prepares an uploaded file for extraction. JPEG, PNG and WebP are
// passed through untouched; HEIC/HEIF, GIF and PDF (first page) are
// converted to PNG. An empty content type is sniffed from the data.
func Normalize(data []byte, contentType string) (Request, error) {
	if len(data) == 0 {
		return Request{}, &ValidationError{Message: "No image provided"}
	}

	mimeType := normalizeMIMEType(contentType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = sniffMIMEType(data)
	}

	switch {
	case isHEICFormat(data) || isHEICMimeType(mimeType):
		pngData, err := imageToPNG(data, mimeType)
		if err != nil {
			return Request{}, &ValidationError{Message: err.Error()}
		}
		return Request{Data: pngData, MediaType: MediaTypePNG}, nil
	case mimeType == MediaTypeJPEG, mimeType == MediaTypePNG, mimeType == MediaTypeWebP:
		return Request{Data: data, MediaType: mimeType}, nil
	case mimeType == "application/pdf":
		pngData, err := pdfToImage(data)
		if err != nil {
			return Request{}, &ValidationError{Message: fmt.Sprintf("converting PDF to image: %v", err)}
		}
		return Request{Data: pngData, MediaType: MediaTypePNG}, nil
	case strings.HasPrefix(mimeType, "image/"):
		pngData, err := imageToPNG(data, mimeType)
		if err != nil {
			return Request{}, &ValidationError{Message: err.Error()}
		}
		return Request{Data: pngData, MediaType: MediaTypePNG}, nil
	}

	return Request{}, &ValidationError{Message: fmt.Sprintf("unsupported file type: %s", mimeType)}
}

func normalizeMIMEType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i != -1 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "image/jpg" {
		mimeType = MediaTypeJPEG
	}
	return mimeType
}

func sniffMIMEType(data []byte) string {
	if isHEICFormat(data) {
		return "image/heic"
	}
	return normalizeMIMEType(http.DetectContentType(data))
}

// pdfToImage converts a PDF to a PNG image
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Render the first page (most receipts are single page)
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// imageToPNG converts any decodable image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// Go's standard image package doesn't support HEIC (common on iPhones)
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, WebP, GIF, HEIC, HEIF, PDF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
