package scanning

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// Supported image media types
const (
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
	MediaTypeWebP = "image/webp"
)

// Request is a single image handed to a vision model
type Request struct {
	Data      []byte
	MediaType string
}

// Extraction contains the structured information read from a receipt.
// The typed fields are a lenient view for Go callers; when the value came
// from a model reply it marshals back to that reply's object unchanged.
type Extraction struct {
	StoreName string  `json:"storeName"`
	Date      *string `json:"date"` // YYYY-MM-DD, nil when not visible
	Items     []Item  `json:"items"`

	raw json.RawMessage
}

// extractionFields is the plain JSON shape of an Extraction
type extractionFields struct {
	StoreName string  `json:"storeName"`
	Date      *string `json:"date"`
	Items     []Item  `json:"items"`
}

// UnmarshalJSON reads any JSON object. Fields of an unexpected type are left
// at their zero value rather than failing the decode.
func (e *Extraction) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errNotAnObject
	}

	*e = Extraction{Items: []Item{}}
	_ = json.Unmarshal(fields["storeName"], &e.StoreName)

	var date *string
	if json.Unmarshal(fields["date"], &date) == nil {
		e.Date = date
	}

	var items []json.RawMessage
	if json.Unmarshal(fields["items"], &items) == nil {
		for _, raw := range items {
			var item Item
			_ = json.Unmarshal(raw, &item)
			e.Items = append(e.Items, item)
		}
	}

	e.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the original reply object when there is one
func (e Extraction) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	fields := extractionFields{StoreName: e.StoreName, Date: e.Date, Items: e.Items}
	if fields.Items == nil {
		fields.Items = []Item{}
	}
	return json.Marshal(fields)
}

// Item is one line of a receipt
type Item struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// UnmarshalJSON accepts prices written either as numbers or numeric strings.
// Anything else, such as "$9.99", leaves Price at zero.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  json.RawMessage `json:"name"`
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Item{}
	_ = json.Unmarshal(raw.Name, &i.Name)

	price := strings.TrimSpace(string(raw.Price))
	if strings.HasPrefix(price, `"`) {
		var s string
		if err := json.Unmarshal(raw.Price, &s); err != nil {
			return nil
		}
		price = strings.TrimSpace(s)
	}
	if v, err := strconv.ParseFloat(price, 64); err == nil {
		i.Price = v
	}
	return nil
}

// Provider defines the interface for vision models that read receipts
type Provider interface {
	// Complete sends the image and the instruction and returns the model's text reply
	Complete(ctx context.Context, req Request, prompt string) (string, error)
	// Name identifies the provider in logs
	Name() string
	// Close closes the provider and releases resources
	Close() error
}
