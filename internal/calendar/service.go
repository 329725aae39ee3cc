package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-calendar/internal/barcode"
	"github.com/zombor/receipt-calendar/internal/ledger"
)

var (
	// ErrInvalidDate is returned for a year/month/day that is not a calendar day
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidExpense is returned when a new expense fails validation
	ErrInvalidExpense = errors.New("invalid expense")

	// ErrExpenseNotFound is returned when deleting an unknown expense
	ErrExpenseNotFound = errors.New("expense not found")
)

// IDGenerator generates unique IDs for expenses
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// NewExpense is the caller-supplied part of an expense
type NewExpense struct {
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Source    ledger.Source   `json:"source,omitempty"`
	StoreName string          `json:"storeName,omitempty"`
}

// Barcode is the barcode printed at the foot of a month
type Barcode struct {
	Code     string        `json:"code"`
	BaseCode string        `json:"baseCode"`
	Bars     []barcode.Bar `json:"bars"`
}

// Day is one day of a month view
type Day struct {
	Day         int              `json:"day"`
	Holiday     string           `json:"holiday,omitempty"`
	Today       bool             `json:"today"`
	Expenses    []ledger.Expense `json:"expenses"`
	Total       decimal.Decimal  `json:"total"`
	Placeholder bool             `json:"placeholder"`
}

// MonthView is everything needed to draw a month
type MonthView struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Name         string          `json:"name"`
	DaysInMonth  int             `json:"daysInMonth"`
	FirstWeekday int             `json:"firstWeekday"`
	Cells        []int           `json:"cells"`
	Days         []Day           `json:"days"`
	Total        decimal.Decimal `json:"total"`
	Barcode      Barcode         `json:"barcode"`
}

// Service handles calendar and expense operations
type Service struct {
	store       ledger.Store
	holidays    *HolidayTable
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with UUID ids and the wall clock
func NewService(store ledger.Store, holidays *HolidayTable) *Service {
	return NewServiceWithDeps(store, holidays, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store ledger.Store, holidays *HolidayTable, idGen IDGenerator, timeSrc TimeSource) *Service {
	if holidays == nil {
		holidays = DefaultHolidayTable()
	}
	return &Service{
		store:       store,
		holidays:    holidays,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// BarcodeFor returns the barcode for a month
func BarcodeFor(year, month int) (Barcode, error) {
	if !ValidDate(year, month, 1) {
		return Barcode{}, fmt.Errorf("%w: %d-%d", ErrInvalidDate, year, month)
	}
	days := DaysIn(year, month)
	return Barcode{
		Code:     barcode.Code(year, month, days),
		BaseCode: barcode.BaseCode(year, month, days),
		Bars:     barcode.Generate(year, month, days),
	}, nil
}

// Month builds the view of a month. Past days with no expenses carry the
// placeholder amount; the month total counts recorded expenses only.
func (s *Service) Month(ctx context.Context, year, month int) (*MonthView, error) {
	code, err := BarcodeFor(year, month)
	if err != nil {
		return nil, err
	}

	now := s.timeSource.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	view := &MonthView{
		Year:         year,
		Month:        month,
		Name:         time.Month(month).String(),
		DaysInMonth:  DaysIn(year, month),
		FirstWeekday: int(FirstWeekday(year, month)),
		Cells:        Grid(year, month),
		Total:        decimal.Zero,
		Barcode:      code,
	}
	view.Days = make([]Day, 0, view.DaysInMonth)

	for d := 1; d <= view.DaysInMonth; d++ {
		expenses, err := s.store.Get(ctx, ledger.Key(year, month, d))
		if err != nil {
			return nil, fmt.Errorf("loading expenses for %s: %w", ledger.Key(year, month, d), err)
		}

		date := time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
		day := Day{
			Day:      d,
			Today:    date.Equal(today),
			Expenses: expenses,
			Total:    ledger.Total(expenses),
		}
		if name, ok := s.holidays.Lookup(month, d); ok {
			day.Holiday = name
		}
		if len(expenses) == 0 && date.Before(today) {
			day.Total = PlaceholderAmount(d)
			day.Placeholder = true
		} else {
			view.Total = view.Total.Add(day.Total)
		}
		view.Days = append(view.Days, day)
	}

	return view, nil
}

// Expenses returns the expenses recorded on a day
func (s *Service) Expenses(ctx context.Context, year, month, day int) ([]ledger.Expense, error) {
	key, err := dayKey(year, month, day)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("getting expenses: %w", err)
	}
	return expenses, nil
}

// AddExpenses appends new expenses to a day and returns the day's full list
func (s *Service) AddExpenses(ctx context.Context, year, month, day int, items []NewExpense) ([]ledger.Expense, error) {
	key, err := dayKey(year, month, day)
	if err != nil {
		return nil, err
	}
	created, err := s.build(items)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("%w: at least one expense is required", ErrInvalidExpense)
	}

	existing, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("getting expenses: %w", err)
	}
	expenses := append(existing, created...)
	if err := s.store.Put(ctx, key, expenses); err != nil {
		return nil, fmt.Errorf("saving expenses: %w", err)
	}

	slog.Debug("Expenses added", "key", key, "added", len(created), "total", len(expenses))
	return expenses, nil
}

// ReplaceExpenses overwrites a day's expenses. An empty list clears the day.
func (s *Service) ReplaceExpenses(ctx context.Context, year, month, day int, items []NewExpense) ([]ledger.Expense, error) {
	key, err := dayKey(year, month, day)
	if err != nil {
		return nil, err
	}
	expenses, err := s.build(items)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, key, expenses); err != nil {
		return nil, fmt.Errorf("saving expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes one expense from a day
func (s *Service) DeleteExpense(ctx context.Context, year, month, day int, id string) error {
	key, err := dayKey(year, month, day)
	if err != nil {
		return err
	}
	existing, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("getting expenses: %w", err)
	}

	kept := make([]ledger.Expense, 0, len(existing))
	for _, e := range existing {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(existing) {
		return fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
	}

	if err := s.store.Put(ctx, key, kept); err != nil {
		return fmt.Errorf("saving expenses: %w", err)
	}
	return nil
}

// build validates new expenses and stamps them with an id and time
func (s *Service) build(items []NewExpense) ([]ledger.Expense, error) {
	now := s.timeSource.Now()
	expenses := make([]ledger.Expense, 0, len(items))
	for i, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidExpense, i)
		}
		if item.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: item %d has a negative amount", ErrInvalidExpense, i)
		}
		source := item.Source
		switch source {
		case "":
			source = ledger.SourceManual
		case ledger.SourceManual, ledger.SourceScan:
		default:
			return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidExpense, source)
		}

		expenses = append(expenses, ledger.Expense{
			ID:        s.idGenerator.Generate(),
			Name:      name,
			Amount:    item.Amount,
			Source:    source,
			StoreName: strings.TrimSpace(item.StoreName),
			CreatedAt: now,
		})
	}
	return expenses, nil
}

func dayKey(year, month, day int) (string, error) {
	if !ValidDate(year, month, day) {
		return "", fmt.Errorf("%w: %d-%d-%d", ErrInvalidDate, year, month, day)
	}
	return ledger.Key(year, month, day), nil
}
