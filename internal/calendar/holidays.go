package calendar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Holiday is a named day that recurs every year
type Holiday struct {
	Month int    `yaml:"month" json:"month"`
	Day   int    `yaml:"day" json:"day"`
	Name  string `yaml:"name" json:"name"`
}

// DefaultHolidays is the built-in US holiday list. Floating holidays are
// pinned to their 2026 dates.
var DefaultHolidays = []Holiday{
	{Month: 1, Day: 1, Name: "New Year's Day"},
	{Month: 1, Day: 19, Name: "MLK Day"},
	{Month: 2, Day: 14, Name: "Valentine's Day"},
	{Month: 2, Day: 16, Name: "Presidents' Day"},
	{Month: 3, Day: 17, Name: "St. Patrick's Day"},
	{Month: 5, Day: 25, Name: "Memorial Day"},
	{Month: 7, Day: 4, Name: "Independence Day"},
	{Month: 9, Day: 7, Name: "Labor Day"},
	{Month: 10, Day: 31, Name: "Halloween"},
	{Month: 11, Day: 11, Name: "Veterans Day"},
	{Month: 11, Day: 26, Name: "Thanksgiving"},
	{Month: 12, Day: 25, Name: "Christmas"},
	{Month: 12, Day: 31, Name: "New Year's Eve"},
}

type monthDay struct {
	month, day int
}

// HolidayTable looks up holidays by month and day
type HolidayTable struct {
	names map[monthDay]string
}

// NewHolidayTable builds a table from a list of holidays. Entries with an
// impossible month or day are rejected; a later entry for the same day
// replaces an earlier one.
func NewHolidayTable(holidays []Holiday) (*HolidayTable, error) {
	t := &HolidayTable{names: make(map[monthDay]string, len(holidays))}
	for _, h := range holidays {
		// 2024 is a leap year so Feb 29 is accepted
		if !ValidDate(2024, h.Month, h.Day) {
			return nil, fmt.Errorf("invalid holiday date %d/%d (%s)", h.Month, h.Day, h.Name)
		}
		if h.Name == "" {
			return nil, fmt.Errorf("holiday on %d/%d has no name", h.Month, h.Day)
		}
		t.names[monthDay{h.Month, h.Day}] = h.Name
	}
	return t, nil
}

// DefaultHolidayTable returns a table holding DefaultHolidays
func DefaultHolidayTable() *HolidayTable {
	t, err := NewHolidayTable(DefaultHolidays)
	if err != nil {
		panic(err)
	}
	return t
}

// holidayFile is the on-disk layout of a holiday list
type holidayFile struct {
	Holidays []Holiday `yaml:"holidays"`
}

// LoadHolidays reads a YAML holiday list of the form
//
//	holidays:
//	  - month: 7
//	    day: 4
//	    name: Independence Day
func LoadHolidays(path string) (*HolidayTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading holiday file: %w", err)
	}

	var file holidayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing holiday file: %w", err)
	}

	return NewHolidayTable(file.Holidays)
}

// Lookup returns the holiday name for a month and day
func (t *HolidayTable) Lookup(month, day int) (string, bool) {
	name, ok := t.names[monthDay{month, day}]
	return name, ok
}

// Len returns the number of holidays in the table
func (t *HolidayTable) Len() int {
	return len(t.names)
}
