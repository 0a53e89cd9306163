// Package admin holds the page objects of the MNP Admin Portal and the
// happy-path journey that chains them.
package admin

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/ui"
)

// Messages the portal renders.
const (
	Brand               = "MNP Admin Portal"
	MsgUnauthorized     = "User unauthorized."
	MsgDuplicate        = "Duplicate admin entry creation attempt, please check the request details again"
	MsgUnsupportedChars = "Request parameter 'username' contains unsupported characters. Only alphanumeric with underscores are allowed"
	MsgAlphanumeric     = "The field must be alphanumeric."
	ProblemTitle        = "Problem"
	ToggleConfirmText   = "Disabling or Enabling the client will impact"
)

// Test ids.
const (
	tidUsername      = "username"
	tidPassword      = "password"
	tidLoginButton   = "btn-login"
	tidLoginError    = "error-message"
	tidPageHeader    = "page-header"
	tidAddNew        = "btn-add-new-2"
	tidModalTitle    = "model-title"
	tidClose         = "custom-close-button"
	tidSubmit        = "btn_submit"
	tidName          = "name"
	tidReference     = "reference"
	tidCacheLookup   = "enable-cache-db-lookup"
	tidUpdateComment = "update_comment"
	tidRemarks       = "remarks"
	tidPriceForm     = "coverage-form"
)

// CSS selectors.
const (
	selRoot          = "#root"
	selBody          = "body"
	selSuccessModal  = "#market-form-model"
	selSearchSubmit  = ".input-group-text > .icon"
	selEffectiveDate = `role=textbox[name="Effective Date *"]`
)

// React-select container ids. The client form and the application list
// filter render theirs without one.
const (
	dropClient      = "client-drpdwn"
	dropApplication = "application-drpdwn"
	dropMarket      = "market_id-drpdwn"
	dropPricePlan   = "price-plan-drpdwn"
)

// react-select renders a container whose class ends in -container, the
// control as its direct child and a search input whose id is generated per
// instance (react-select-<n>-input).
const (
	rsContainer = "[class$='-container']"
	rsControl   = "> [class*='-control']"
	rsInput     = "input[id^='react-select-'][id$='-input']"
)

func testID(id string) ui.Target {
	return ui.Sel("data-testid=" + id)
}

// dropdown addresses the react-select whose container carries id.
func dropdown(name, id string) ui.ReactSelect {
	return ui.ReactSelect{
		Name:    name,
		Control: ui.Sel("#" + id + " " + rsControl),
		Input:   ui.Sel("#" + id + " " + rsInput),
	}
}

// nthDropdown addresses the n-th react-select on the page, counting from 0.
func nthDropdown(name string, n int) ui.ReactSelect {
	nth := fmt.Sprintf(" >> nth=%d", n)
	return ui.ReactSelect{
		Name:    name,
		Control: ui.Sel(rsContainer + " " + rsControl + nth),
		Input:   ui.Sel(rsContainer + " " + rsInput + nth),
	}
}

func button(page playwright.Page, name string) ui.Target {
	return ui.Loc(page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
		Name:  name,
		Exact: playwright.Bool(true),
	}))
}

func link(page playwright.Page, name string) ui.Target {
	return ui.Loc(page.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{
		Name:  name,
		Exact: playwright.Bool(true),
	}))
}

func textbox(page playwright.Page, name string) ui.Target {
	return ui.Loc(page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{
		Name:  name,
		Exact: playwright.Bool(true),
	}))
}

func checkbox(page playwright.Page, name string) ui.Target {
	return ui.Loc(page.GetByRole(*playwright.AriaRoleCheckbox, playwright.PageGetByRoleOptions{
		Name:  name,
		Exact: playwright.Bool(true),
	}))
}
