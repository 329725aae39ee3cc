package scanning

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Extractor reads receipts through a single Provider. It holds no state
// between calls and is safe for concurrent use.
type Extractor struct {
	provider Provider
	prompt   string
}

// NewExtractor creates a new Extractor using the shared receipt prompt
func NewExtractor(provider Provider) *Extractor {
	return &Extractor{
		provider: provider,
		prompt:   receiptPrompt,
	}
}

// ProviderName returns the name of the underlying provider
func (e *Extractor) ProviderName() string {
	return e.provider.Name()
}

// ExtractImage extracts a receipt from a raw base64 payload or a data URI
func (e *Extractor) ExtractImage(ctx context.Context, image string) (*Extraction, error) {
	req, err := ParseImage(image)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, req)
}

// Extract sends the image to the provider once and parses its reply.
// Errors are always one of *ValidationError, *UpstreamError or *ParseError.
func (e *Extractor) Extract(ctx context.Context, req Request) (*Extraction, error) {
	if len(req.Data) == 0 {
		return nil, &ValidationError{Message: "No image provided"}
	}
	if req.MediaType == "" {
		req.MediaType = MediaTypeJPEG
	}

	start := time.Now()
	reply, err := e.provider.Complete(ctx, req, e.prompt)
	if err != nil {
		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			upstream = &UpstreamError{Provider: e.provider.Name(), Err: err}
		}
		slog.Error("Receipt extraction failed",
			"provider", e.provider.Name(),
			"media_type", req.MediaType,
			"image_size", len(req.Data),
			"duration", time.Since(start),
			"error", err,
		)
		return nil, upstream
	}

	data, err := ParseReply(reply)
	if err != nil {
		slog.Warn("Could not parse model reply",
			"provider", e.provider.Name(),
			"reply_length", len(reply),
			"error", err,
		)
		return nil, err
	}

	slog.Debug("Receipt extracted",
		"provider", e.provider.Name(),
		"store", data.StoreName,
		"items", len(data.Items),
		"duration", time.Since(start),
	)
	return data, nil
}
