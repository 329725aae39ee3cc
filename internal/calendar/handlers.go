package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zombor/receipt-calendar/internal/barcode"
	"github.com/zombor/receipt-calendar/internal/ledger"
	"github.com/zombor/receipt-calendar/internal/scanning"
)

// genericExtractError is returned when the provider gave no usable message
const genericExtractError = "Failed to extract receipt data"

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes an {"error": message} response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeExtractionError maps extraction failures onto HTTP responses
func writeExtractionError(w http.ResponseWriter, err error) {
	var (
		validationErr *scanning.ValidationError
		upstreamErr   *scanning.UpstreamError
		parseErr      *scanning.ParseError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &upstreamErr):
		message := upstreamErr.Message
		if message == "" {
			message = genericExtractError
		}
		writeError(w, http.StatusBadGateway, message)
	case errors.As(err, &parseErr):
		writeError(w, http.StatusBadGateway, "Could not parse receipt data")
	default:
		slog.Error("Unexpected extraction error", "error", err)
		writeError(w, http.StatusInternalServerError, genericExtractError)
	}
}

// writeServiceError maps calendar service failures onto HTTP responses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidExpense):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrExpenseNotFound):
		writeError(w, http.StatusNotFound, "Expense not found")
	default:
		slog.Error("Calendar service error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathInts reads integer path values in order
func pathInts(r *http.Request, names ...string) ([]int, bool) {
	values := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(r.PathValue(name))
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// handleExtractReceipt extracts a receipt from a base64 image in a JSON body
func (s *Server) handleExtractReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var body struct {
		Image string `json:"image"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image is too large. Maximum request size is 10MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	req, err := scanning.ParseImage(body.Image)
	if err != nil {
		writeExtractionError(w, err)
		return
	}
	if s.extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "Receipt extraction is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.ExtractTimeout)
	defer cancel()

	data, err := s.extractor.Extract(ctx, req)
	if err != nil {
		writeExtractionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// handleScanReceipt extracts a receipt from a multipart file upload
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Maximum size is 20MB. Please compress or resize your image."
		}
		writeError(w, http.StatusBadRequest, errorMsg)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file was selected. Please choose a file to upload.")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromExt(header.Filename)
	}

	req, err := scanning.Normalize(data, contentType)
	if err != nil {
		writeExtractionError(w, err)
		return
	}
	if s.extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "Receipt extraction is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.ExtractTimeout)
	defer cancel()

	extraction, err := s.extractor.Extract(ctx, req)
	if err != nil {
		slog.Error("Error scanning receipt", "filename", header.Filename, "content_type", contentType, "error", err)
		writeExtractionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, extraction)
}

// contentTypeFromExt guesses a content type from an upload's file name
func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return scanning.MediaTypeJPEG
	case ".png":
		return scanning.MediaTypePNG
	case ".webp":
		return scanning.MediaTypeWebP
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return ""
}

// handleBarcode returns the barcode for a month as JSON
func (s *Server) handleBarcode(w http.ResponseWriter, r *http.Request) {
	ym, ok := pathInts(r, "year", "month")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid year or month")
		return
	}
	code, err := BarcodeFor(ym[0], ym[1])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

// handleBarcodeSVG renders the barcode for a month as SVG
func (s *Server) handleBarcodeSVG(w http.ResponseWriter, r *http.Request) {
	ym, ok := pathInts(r, "year", "month")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid year or month")
		return
	}
	code, err := BarcodeFor(ym[0], ym[1])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if err := barcode.WriteSVG(w, code.Bars); err != nil {
		slog.Error("Error writing barcode", "error", err)
	}
}

// handleCalendar returns the view of a month
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ym, ok := pathInts(r, "year", "month")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid year or month")
		return
	}
	view, err := s.service.Month(r.Context(), ym[0], ym[1])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleGetExpenses returns a day's expenses
func (s *Server) handleGetExpenses(w http.ResponseWriter, r *http.Request) {
	ymd, ok := pathInts(r, "year", "month", "day")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}
	expenses, err := s.service.Expenses(r.Context(), ymd[0], ymd[1], ymd[2])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expensesResponse(expenses))
}

// handleAddExpenses appends expenses to a day
func (s *Server) handleAddExpenses(w http.ResponseWriter, r *http.Request) {
	s.writeExpenses(w, r, http.StatusCreated, s.service.AddExpenses)
}

// handleReplaceExpenses overwrites a day's expenses
func (s *Server) handleReplaceExpenses(w http.ResponseWriter, r *http.Request) {
	s.writeExpenses(w, r, http.StatusOK, s.service.ReplaceExpenses)
}

type expenseWriter func(ctx context.Context, year, month, day int, items []NewExpense) ([]ledger.Expense, error)

func (s *Server) writeExpenses(w http.ResponseWriter, r *http.Request, status int, write expenseWriter) {
	ymd, ok := pathInts(r, "year", "month", "day")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}

	var body struct {
		Expenses []NewExpense `json:"expenses"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	expenses, err := write(r.Context(), ymd[0], ymd[1], ymd[2], body.Expenses)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, status, expensesResponse(expenses))
}

// handleDeleteExpense removes one expense
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ymd, ok := pathInts(r, "year", "month", "day")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}
	if err := s.service.DeleteExpense(r.Context(), ymd[0], ymd[1], ymd[2], r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth reports liveness and the running version
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.config.Version,
	})
}

func expensesResponse(expenses []ledger.Expense) map[string]any {
	return map[string]any{
		"expenses": expenses,
		"total":    ledger.Total(expenses),
	}
}
