package testsite

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func seededApp(t *testing.T, p *Portal) PortalApplication {
	t.Helper()
	apps := p.Applications(0, SeedApplication)
	require.Len(t, apps, 1)
	return apps[0]
}

func TestCreateClient_DuplicateNameIgnoresCase(t *testing.T) {
	p := NewPortal()
	_, err := p.CreateClient(ClientInput{Name: strings.ToUpper(SeedClient), Currency: "USD", Country: "Canada"})
	assert.ErrorIs(t, err, ErrDuplicate)

	c, err := p.CreateClient(ClientInput{Name: "Auto Client 1", Currency: "CAD", Country: "India"})
	require.NoError(t, err)
	got, err := p.Client(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "India", got.Country)
}

func TestCreateClient_RequiresCurrencyAndCountry(t *testing.T) {
	p := NewPortal()
	_, err := p.CreateClient(ClientInput{Name: "Someone", Currency: "XYZ"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgRequired, verr.Fields["currency"])
	assert.Equal(t, MsgRequired, verr.Fields["country"])
}

func TestCreateApplication_UnsupportedCharacters(t *testing.T) {
	p := NewPortal()
	client := p.Clients(SeedClient)[0]
	cases := []struct{ username, name string }{
		{"app-user", "App_ok"},
		{"app$user", "App_ok"},
		{"app_user", "App Name"},
		{"app_user", "App-Name"},
	}
	for _, tc := range cases {
		_, err := p.CreateApplication(ApplicationInput{
			ClientID: client.ID, Username: tc.username, Name: tc.name, EffectiveDate: "2030-01-01",
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "%s/%s", tc.username, tc.name)
		assert.Equal(t, MsgUnsupportedChars, verr.Problem)
	}
}

func TestCreateApplication_DuplicateName(t *testing.T) {
	p := NewPortal()
	client := p.Clients(SeedClient)[0]
	_, err := p.CreateApplication(ApplicationInput{
		ClientID: client.ID, Username: "fresh_user", Name: SeedApplication, EffectiveDate: "2030-01-01",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdateApplication_ToggleNeedsComment(t *testing.T) {
	p := NewPortal()
	app := seededApp(t, p)
	in := ApplicationInput{Name: app.Name, EffectiveDate: "2030-01-01"}

	_, err := p.UpdateApplication(app.ID, in, false, "  ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "update_comment")

	updated, err := p.UpdateApplication(app.ID, in, false, "disabled for audit")
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.Equal(t, []string{"disabled for audit"}, updated.Comments)
}

func TestCreateCoverage_ReferenceRules(t *testing.T) {
	p := NewPortal()
	app := seededApp(t, p)
	base := CoverageInput{ApplicationID: app.ID, Market: "India", EffectiveDate: "2030-01-01"}

	in := base
	in.Reference = "COV 01!"
	_, err := p.CreateCoverage(in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgAlphanumeric, verr.Fields["reference"])

	in.Reference = ""
	in.EffectiveDate = ""
	_, err = p.CreateCoverage(in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgReferenceRequired, verr.Fields["reference"])
	assert.Equal(t, MsgDateRequired, verr.Fields["effective_date"])

	in = base
	in.Reference = SeedCoverage
	_, err = p.CreateCoverage(in)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestJourneyStore_MappingPricePlanPassword(t *testing.T) {
	p := NewPortal()
	client, err := p.CreateClient(ClientInput{Name: "Journey Client", Currency: "USD", Country: "Canada"})
	require.NoError(t, err)
	app, err := p.CreateApplication(ApplicationInput{
		ClientID: client.ID, Username: "journey_user", Name: "App_journey", EffectiveDate: "2030-01-01",
	})
	require.NoError(t, err)
	cov, err := p.CreateCoverage(CoverageInput{
		ApplicationID: app.ID, Market: "Canada", Reference: "COV_journey", EffectiveDate: "2030-01-01",
	})
	require.NoError(t, err)

	require.NoError(t, p.MapSupplier(cov.ID, "int RDS Canada", "100"))
	assert.ErrorIs(t, p.MapSupplier(cov.ID+1000, "int RDS Canada", "100"), ErrNotFound)

	_, err = p.CreatePricePlan(PricePlanInput{CoverageID: cov.ID, Plan: "Subscription", Price: "-1", EffectiveDate: "2030-01-01"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgInvalidPrice, verr.Fields["price"])

	plan, err := p.CreatePricePlan(PricePlanInput{CoverageID: cov.ID, Plan: "Subscription", Price: "10", EffectiveDate: "2030-01-01"})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, plan.Price, 0.0001)

	_, err = p.GeneratePassword(app.ID, "someone_else", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgUsernameMismatch, verr.Problem)

	cred, err := p.GeneratePassword(app.ID, "JOURNEY_USER", "first issue")
	require.NoError(t, err)
	got, err := p.Credential(cred.Token)
	require.NoError(t, err)
	assert.Equal(t, "journey_user", got.Username)
	assert.NotEmpty(t, got.Password)
}

func testIdentifierValidation(t *rapid.T) {
	p := NewPortal()
	client := p.Clients(SeedClient)[0]
	username := rapid.StringMatching(`[A-Za-z0-9_ \-$@.]{1,20}`).Draw(t, "username")
	valid := identifierPattern.MatchString(username)

	_, err := p.CreateApplication(ApplicationInput{
		ClientID: client.ID, Username: username, Name: "App_prop_" + strconv.Itoa(len(username)), EffectiveDate: "2030-01-01",
	})
	var verr *ValidationError
	gotProblem := errors.As(err, &verr) && verr.Problem == MsgUnsupportedChars
	if valid == gotProblem {
		t.Fatalf("username %q: valid=%v but unsupported-characters problem=%v (err=%v)", username, valid, gotProblem, err)
	}
}

func TestIdentifierValidation_Properties(t *testing.T) {
	rapid.Check(t, testIdentifierValidation)
}
