package testsite

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oloid-qa/e2e/internal/browsertest"
	"github.com/oloid-qa/e2e/internal/obs"
	"github.com/oloid-qa/e2e/internal/ui"
)

func TestMain(m *testing.M) {
	code := m.Run()
	browsertest.Cleanup()
	os.Exit(code)
}

// signedInActor starts the sites and signs a fresh page into the portal.
func signedInActor(t *testing.T) (*ui.Actor, *Sites) {
	t.Helper()
	env := browsertest.Setup(t)
	sites, err := Start(Options{})
	require.NoError(t, err)
	t.Cleanup(sites.Close)

	page := env.NewPage(t)
	a := ui.NewActor(page, ui.Timeouts{
		Visible:    browsertest.MaxTimeout,
		Click:      browsertest.MaxTimeout,
		Expect:     browsertest.MaxTimeout,
		Navigation: browsertest.MaxTimeout,
	}, obs.Pkg("testsite"))

	browsertest.Navigate(t, page, strings.TrimSuffix(sites.AdminURL, "/"), "/login")
	require.NoError(t, a.Fill(ui.Sel("data-testid=username"), DefaultAdminUsername, "username"))
	require.NoError(t, a.Fill(ui.Sel("data-testid=password"), DefaultAdminPassword, "password"))
	require.NoError(t, a.Click(ui.Sel("data-testid=btn-login"), "login button"))
	require.NoError(t, a.ExpectText(ui.Sel("#root"), "MNP Admin Portal", "portal shell"))
	return a, sites
}

// byID addresses a react-select by container id the way the portal is
// driven: the control is the container's -control child and the input
// carries a generated react-select-<n>-input id.
func byID(name, id string) ui.ReactSelect {
	return ui.ReactSelect{
		Name:    name,
		Control: ui.Sel("#" + id + " > [class*='-control']"),
		Input:   ui.Sel("#" + id + " input[id^='react-select-']"),
	}
}

func effectiveDate() ui.Target {
	return ui.Sel(`role=textbox[name="Effective Date *"]`)
}

func TestWidgets_DependentSelectAndDateInput(t *testing.T) {
	a, sites := signedInActor(t)
	page := a.Page()
	browsertest.Navigate(t, page, strings.TrimSuffix(sites.AdminURL, "/"), "/coverage/new")

	require.NoError(t, a.Choose(byID("Client", "client-drpdwn"), SeedClient))
	require.NoError(t, a.SearchAndChoose(byID("Application", "application-drpdwn"), "nola", SeedApplication))
	require.NoError(t, a.Search(byID("Market", "market_id-drpdwn"), "sri"))
	require.NoError(t, a.ExpectText(ui.Sel("#market_id-drpdwn [class*='-singleValue']"), "Sri Lanka", "market value"))

	require.NoError(t, a.Fill(ui.Sel("data-testid=reference"), "COV_widget_1", "reference"))
	require.NoError(t, a.FillDate(effectiveDate(), time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC), "effective date"))
	require.NoError(t, a.Click(ui.Sel("data-testid=btn_submit"), "save coverage"))

	dialog := page.GetByLabel("Coverage", playwright.PageGetByLabelOptions{Exact: playwright.Bool(true)})
	require.NoError(t, a.ExpectText(ui.Loc(dialog), "Coverage Created Successfully !", "coverage modal"))
}

func TestWidgets_SelectInputsAreNumberedPerPage(t *testing.T) {
	a, sites := signedInActor(t)
	page := a.Page()
	browsertest.Navigate(t, page, strings.TrimSuffix(sites.AdminURL, "/"), "/coverage/new")

	for i, id := range []string{"client-drpdwn", "application-drpdwn", "market_id-drpdwn"} {
		got, err := page.Locator("#" + id + " input[role=combobox]").GetAttribute("id")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("react-select-%d-input", i+2), got)
	}
}

func TestWidgets_DatePickerDay(t *testing.T) {
	a, sites := signedInActor(t)
	page := a.Page()
	browsertest.Navigate(t, page, strings.TrimSuffix(sites.AdminURL, "/"), "/application/new")

	today := time.Now()
	require.NoError(t, a.PickDay(effectiveDate(), today, "effective date"))
	val, err := page.Locator("#effective_date").InputValue()
	require.NoError(t, err)
	require.Equal(t, today.Format(dateLayout), val)
}

func TestWidgets_ProblemPopupDismisses(t *testing.T) {
	a, sites := signedInActor(t)
	page := a.Page()
	browsertest.Navigate(t, page, strings.TrimSuffix(sites.AdminURL, "/"), "/client/new")

	nth := func(name string, n int) ui.ReactSelect {
		return ui.ReactSelect{
			Name:    name,
			Control: ui.Sel(fmt.Sprintf("[class$='-container'] > [class*='-control'] >> nth=%d", n)),
			Input:   ui.Sel(fmt.Sprintf("[class$='-container'] input[id^='react-select-'] >> nth=%d", n)),
		}
	}
	require.NoError(t, a.Fill(ui.Sel("data-testid=name"), SeedClient, "client name"))
	require.NoError(t, a.Search(nth("Currency", 0), "USD"))
	require.NoError(t, a.Search(nth("Country", 1), "Canada"))
	require.NoError(t, a.Click(ui.Sel("data-testid=btn_submit"), "save client"))

	problem := page.GetByText("Problem", playwright.PageGetByTextOptions{Exact: playwright.Bool(true)})
	require.NoError(t, a.ExpectVisible(ui.Loc(problem), "problem title"))
	require.NoError(t, a.ExpectText(ui.Sel("body"), MsgDuplicate, "problem popup"))
	require.NoError(t, a.Click(ui.Loc(page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: "OK", Exact: playwright.Bool(true)})), "OK"))
	require.NoError(t, problem.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: playwright.Float(browsertest.MaxTimeoutMS),
	}))
}
