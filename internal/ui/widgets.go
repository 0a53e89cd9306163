package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ReactSelect is a react-select dropdown: Control opens the menu, Input is the
// hidden search input inside it. Options render as role=option.
type ReactSelect struct {
	Name    string
	Control Target
	Input   Target
}

// Option returns the locator of the first option named name.
func (a *Actor) Option(name string) playwright.Locator {
	return a.page.GetByRole(*playwright.AriaRoleOption, playwright.PageGetByRoleOptions{
		Name:  name,
		Exact: playwright.Bool(true),
	}).First()
}

// Choose opens the dropdown and clicks the option named option.
func (a *Actor) Choose(rs ReactSelect, option string) error {
	if err := a.Click(rs.Control, rs.Name+" dropdown"); err != nil {
		return err
	}
	return a.Click(Loc(a.Option(option)), option+" option")
}

// Search types query into the dropdown and accepts the highlighted option
// with Enter.
func (a *Actor) Search(rs ReactSelect, query string) error {
	if err := a.Click(rs.Control, rs.Name+" dropdown"); err != nil {
		return err
	}
	if err := a.Fill(rs.Input, query, rs.Name+" search"); err != nil {
		return err
	}
	return a.Press(rs.Input, "Enter", rs.Name+" search")
}

// SearchAndChoose narrows the dropdown with query and clicks option.
func (a *Actor) SearchAndChoose(rs ReactSelect, query, option string) error {
	if err := a.Click(rs.Control, rs.Name+" dropdown"); err != nil {
		return err
	}
	if err := a.Fill(rs.Input, query, rs.Name+" search"); err != nil {
		return err
	}
	return a.Click(Loc(a.Option(option)), option+" option")
}

// FillDate types a yyyy-mm-dd value into a date picker textbox and closes the
// calendar with Escape.
func (a *Actor) FillDate(textbox Target, date time.Time, description string) error {
	if err := a.Fill(textbox, date.Format("2006-01-02"), description); err != nil {
		return err
	}
	return a.PressKey("Escape")
}

// PickDay opens the calendar of textbox and clicks the day cell for date. The
// date must be in the month the calendar opens on.
func (a *Actor) PickDay(textbox Target, date time.Time, description string) error {
	if err := a.Click(textbox, description); err != nil {
		return err
	}
	day := a.page.GetByRole(*playwright.AriaRoleOption, playwright.PageGetByRoleOptions{
		Name: DayLabel(date),
	}).First()
	return a.Click(Loc(day), DayLabel(date))
}

// DayLabel is the accessible name prefix react-datepicker gives a day cell,
// for example "Choose Tuesday, October 21st,".
func DayLabel(t time.Time) string {
	return fmt.Sprintf("Choose %s, %s %s,", t.Weekday(), t.Month(), Ordinal(t.Day()))
}

// Ordinal renders n with its English suffix: 1st, 2nd, 3rd, 4th, 11th, 21st.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
