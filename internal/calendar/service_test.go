package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-calendar/internal/ledger"
)

// mockIDGenerator returns sequential ids
type mockIDGenerator struct {
	next int
}

func (g *mockIDGenerator) Generate() string {
	g.next++
	return fmt.Sprintf("id-%d", g.next)
}

// mockTimeSource returns a fixed time
type mockTimeSource struct {
	now time.Time
}

func (t *mockTimeSource) Now() time.Time {
	return t.now
}

// failingStore is a ledger.Store whose every call fails
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]ledger.Expense, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Put(context.Context, string, []ledger.Expense) error {
	return errors.New("disk on fire")
}

func (failingStore) Close() error { return nil }

var fixedNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

var _ = Describe("Service", func() {
	var (
		ctx     context.Context
		store   *ledger.MemoryStore
		service *Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = ledger.NewMemoryStore()
		service = NewServiceWithDeps(store, DefaultHolidayTable(), &mockIDGenerator{}, &mockTimeSource{now: fixedNow})
	})

	Describe("AddExpenses", func() {
		var (
			items    []NewExpense
			expenses []ledger.Expense
			err      error
		)

		BeforeEach(func() {
			items = []NewExpense{
				{Name: " Coffee ", Amount: decimal.RequireFromString("3.50")},
				{Name: "Sandwich", Amount: decimal.RequireFromString("8.25"), Source: ledger.SourceScan, StoreName: "Deli"},
			}
		})

		JustBeforeEach(func() {
			expenses, err = service.AddExpenses(ctx, 2026, 3, 5, items)
		})

		When("the expenses are valid", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should stamp ids and creation time", func() {
				Expect(expenses).To(HaveLen(2))
				Expect(expenses[0].ID).To(Equal("id-1"))
				Expect(expenses[1].ID).To(Equal("id-2"))
				Expect(expenses[0].CreatedAt).To(Equal(fixedNow))
			})

			It("should trim names and default the source", func() {
				Expect(expenses[0].Name).To(Equal("Coffee"))
				Expect(expenses[0].Source).To(Equal(ledger.SourceManual))
				Expect(expenses[1].Source).To(Equal(ledger.SourceScan))
				Expect(expenses[1].StoreName).To(Equal("Deli"))
			})

			It("should store them under the day key", func() {
				stored, getErr := store.Get(ctx, "2026-3-5")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(stored).To(HaveLen(2))
			})
		})

		When("the day already has expenses", func() {
			BeforeEach(func() {
				_, addErr := service.AddExpenses(ctx, 2026, 3, 5, []NewExpense{{Name: "Tea", Amount: decimal.NewFromInt(2)}})
				Expect(addErr).NotTo(HaveOccurred())
			})

			It("should append after the existing ones", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses).To(HaveLen(3))
				Expect(expenses[0].Name).To(Equal("Tea"))
				Expect(expenses[2].Name).To(Equal("Sandwich"))
			})
		})

		When("no expenses are given", func() {
			BeforeEach(func() {
				items = nil
			})

			It("should return ErrInvalidExpense", func() {
				Expect(errors.Is(err, ErrInvalidExpense)).To(BeTrue())
			})
		})

		When("an expense has no name", func() {
			BeforeEach(func() {
				items[1].Name = "   "
			})

			It("should return ErrInvalidExpense and store nothing", func() {
				Expect(errors.Is(err, ErrInvalidExpense)).To(BeTrue())
				stored, _ := store.Get(ctx, "2026-3-5")
				Expect(stored).To(BeEmpty())
			})
		})

		When("an expense is negative", func() {
			BeforeEach(func() {
				items[0].Amount = decimal.RequireFromString("-1")
			})

			It("should return ErrInvalidExpense", func() {
				Expect(errors.Is(err, ErrInvalidExpense)).To(BeTrue())
			})
		})

		When("an expense has an unknown source", func() {
			BeforeEach(func() {
				items[0].Source = "import"
			})

			It("should return ErrInvalidExpense", func() {
				Expect(errors.Is(err, ErrInvalidExpense)).To(BeTrue())
			})
		})
	})

	Describe("date validation", func() {
		It("should reject a day past the end of the month", func() {
			_, err := service.Expenses(ctx, 2026, 2, 29)
			Expect(errors.Is(err, ErrInvalidDate)).To(BeTrue())
		})

		It("should reject month 13", func() {
			_, err := service.AddExpenses(ctx, 2026, 13, 1, []NewExpense{{Name: "x"}})
			Expect(errors.Is(err, ErrInvalidDate)).To(BeTrue())
		})

		It("should reject month 0 for a month view", func() {
			_, err := service.Month(ctx, 2026, 0)
			Expect(errors.Is(err, ErrInvalidDate)).To(BeTrue())
		})
	})

	Describe("ReplaceExpenses", func() {
		BeforeEach(func() {
			_, err := service.AddExpenses(ctx, 2026, 3, 5, []NewExpense{{Name: "Tea", Amount: decimal.NewFromInt(2)}})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should overwrite the day", func() {
			expenses, err := service.ReplaceExpenses(ctx, 2026, 3, 5, []NewExpense{{Name: "Lunch", Amount: decimal.NewFromInt(12)}})
			Expect(err).NotTo(HaveOccurred())
			Expect(expenses).To(HaveLen(1))

			stored, _ := service.Expenses(ctx, 2026, 3, 5)
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].Name).To(Equal("Lunch"))
		})

		It("should clear the day when given nothing", func() {
			_, err := service.ReplaceExpenses(ctx, 2026, 3, 5, nil)
			Expect(err).NotTo(HaveOccurred())

			stored, _ := service.Expenses(ctx, 2026, 3, 5)
			Expect(stored).To(BeEmpty())
		})
	})

	Describe("DeleteExpense", func() {
		BeforeEach(func() {
			_, err := service.AddExpenses(ctx, 2026, 3, 5, []NewExpense{
				{Name: "Tea", Amount: decimal.NewFromInt(2)},
				{Name: "Cake", Amount: decimal.NewFromInt(4)},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		When("the expense exists", func() {
			It("should remove only that expense", func() {
				Expect(service.DeleteExpense(ctx, 2026, 3, 5, "id-1")).To(Succeed())

				stored, _ := service.Expenses(ctx, 2026, 3, 5)
				Expect(stored).To(HaveLen(1))
				Expect(stored[0].ID).To(Equal("id-2"))
			})
		})

		When("the expense does not exist", func() {
			It("should return ErrExpenseNotFound", func() {
				err := service.DeleteExpense(ctx, 2026, 3, 5, "missing")
				Expect(errors.Is(err, ErrExpenseNotFound)).To(BeTrue())
			})
		})
	})

	Describe("Month", func() {
		var (
			view *MonthView
			err  error
		)

		BeforeEach(func() {
			_, addErr := service.AddExpenses(ctx, 2026, 3, 5, []NewExpense{
				{Name: "Tea", Amount: decimal.RequireFromString("2.50")},
				{Name: "Cake", Amount: decimal.RequireFromString("4.25")},
			})
			Expect(addErr).NotTo(HaveOccurred())
			_, addErr = service.AddExpenses(ctx, 2026, 3, 20, []NewExpense{
				{Name: "Gift", Amount: decimal.NewFromInt(10)},
			})
			Expect(addErr).NotTo(HaveOccurred())
		})

		JustBeforeEach(func() {
			view, err = service.Month(ctx, 2026, 3)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should describe the month", func() {
			Expect(view.Name).To(Equal("March"))
			Expect(view.DaysInMonth).To(Equal(31))
			Expect(view.FirstWeekday).To(Equal(0))
			Expect(view.Cells).To(HaveLen(31))
			Expect(view.Days).To(HaveLen(31))
		})

		It("should carry the month barcode", func() {
			Expect(view.Barcode.BaseCode).To(Equal("20260331"))
			Expect(view.Barcode.Code).To(Equal("20260331133062020123456789"))
			Expect(view.Barcode.Bars).To(HaveLen(9 + 6*26))
		})

		It("should mark today", func() {
			Expect(view.Days[9].Today).To(BeTrue())
			Expect(view.Days[8].Today).To(BeFalse())
		})

		It("should mark holidays", func() {
			Expect(view.Days[16].Holiday).To(Equal("St. Patrick's Day"))
			Expect(view.Days[15].Holiday).To(BeEmpty())
		})

		It("should total recorded days", func() {
			Expect(view.Days[4].Placeholder).To(BeFalse())
			Expect(view.Days[4].Expenses).To(HaveLen(2))
			Expect(view.Days[4].Total.StringFixed(2)).To(Equal("6.75"))
		})

		It("should fill empty past days with the placeholder amount", func() {
			Expect(view.Days[0].Placeholder).To(BeTrue())
			Expect(view.Days[0].Total.StringFixed(2)).To(Equal("0.99"))
			Expect(view.Days[8].Placeholder).To(BeTrue())
			Expect(view.Days[8].Total.StringFixed(2)).To(Equal("8.91"))
		})

		It("should leave today and future days without a placeholder", func() {
			Expect(view.Days[9].Placeholder).To(BeFalse())
			Expect(view.Days[9].Total.IsZero()).To(BeTrue())
			Expect(view.Days[25].Placeholder).To(BeFalse())
		})

		It("should count only recorded expenses in the month total", func() {
			Expect(view.Total.StringFixed(2)).To(Equal("16.75"))
		})

		When("the store fails", func() {
			BeforeEach(func() {
				service = NewServiceWithDeps(failingStore{}, nil, &mockIDGenerator{}, &mockTimeSource{now: fixedNow})
			})

			It("should return the error", func() {
				Expect(err).To(MatchError(ContainSubstring("disk on fire")))
			})
		})
	})

	Describe("BarcodeFor", func() {
		It("should use the month length", func() {
			code, err := BarcodeFor(2024, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(code.BaseCode).To(Equal("20240229"))
		})

		It("should reject an invalid month", func() {
			_, err := BarcodeFor(2024, 13)
			Expect(errors.Is(err, ErrInvalidDate)).To(BeTrue())
		})
	})
})
