package scanning

import (
	"encoding/base64"
	"strings"
)

// SplitDataURI separates an optional "data:<mediatype>;base64," prefix from
// the encoded payload and infers the media type from it. PNG and WebP are
// recognised; anything else, including a missing prefix, is treated as JPEG.
func SplitDataURI(image string) (payload, mediaType string) {
	image = strings.TrimSpace(image)
	mediaType = MediaTypeJPEG

	if !strings.HasPrefix(strings.ToLower(image), "data:") {
		return image, mediaType
	}

	header, payload, found := strings.Cut(image, ",")
	if !found {
		// a bare scheme with nothing after it
		return "", mediaType
	}

	declared, _, _ := strings.Cut(header[len("data:"):], ";")
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case MediaTypePNG:
		mediaType = MediaTypePNG
	case MediaTypeWebP:
		mediaType = MediaTypeWebP
	}

	return payload, mediaType
}

// ParseImage turns an image field, raw base64 or data URI, into a Request
func ParseImage(image string) (Request, error) {
	if strings.TrimSpace(image) == "" {
		return Request{}, &ValidationError{Message: "No image provided"}
	}

	payload, mediaType := SplitDataURI(image)
	if payload == "" {
		return Request{}, &ValidationError{Message: "No image provided"}
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return Request{}, &ValidationError{Message: "Image is not valid base64 data"}
	}

	return Request{Data: data, MediaType: mediaType}, nil
}

// decodeBase64 tolerates line breaks and missing padding
func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Join(strings.Fields(payload), "")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}
