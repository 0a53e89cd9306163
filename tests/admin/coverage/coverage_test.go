package coverage_test

import (
	"testing"
	"time"

	"github.com/oloid-qa/e2e/internal/fixtures"
	"github.com/oloid-qa/e2e/internal/pages/admin"
	"github.com/oloid-qa/e2e/internal/suite"
	"github.com/oloid-qa/e2e/internal/testsite"
)

const (
	market            = "Pakistan"
	existingReference = testsite.SeedCoverage
)

const requiredFieldPending = "disabled until the portal's required-field message is confirmed"

var owner = admin.CoverageTarget{Client: testsite.SeedClient, Application: testsite.SeedApplication}

func effectiveDate() time.Time {
	return time.Date(time.Now().Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func openForm(sc *suite.Scope) (*admin.CoverageForm, error) {
	if err := admin.SignIn(sc.Actor, sc.AdminURL("/login"), sc.Config.AdminUsername, sc.Config.AdminPassword); err != nil {
		return nil, err
	}
	portal := admin.NewPortal(sc.Actor)
	if err := portal.Open(admin.SectionCoverage); err != nil {
		return nil, err
	}
	if err := portal.AddNew(admin.CoverageFormTitle); err != nil {
		return nil, err
	}
	return admin.NewCoverageForm(sc.Actor), nil
}

func TestCoverageValidation(t *testing.T) {
	suite.Run(t, "full happy path creates a coverage", func(sc *suite.Scope) error {
		data := fixtures.NewAdminRun("cov", time.Now())
		j := admin.NewJourney(sc.Actor, sc.AdminURL("/login"), sc.Config.AdminUsername, sc.Config.AdminPassword, data)
		_, err := j.Run(admin.StageCoverage)
		return err
	})

	suite.Skip(t, "coverage creation fails when coverage reference is missing", requiredFieldPending)

	suite.Run(t, "coverage reference with special characters shows validation error", func(sc *suite.Scope) error {
		form, err := openForm(sc)
		if err != nil {
			return err
		}
		return form.SubmitInvalid(owner, fixtures.Coverage{
			Market:        market,
			Reference:     "cov#" + fixtures.UniqueID("ref"),
			EffectiveDate: effectiveDate(),
		}, admin.MsgAlphanumeric)
	})

	suite.Skip(t, "coverage creation fails when effective date is missing", requiredFieldPending)

	suite.Run(t, "duplicate coverage reference shows error popup", func(sc *suite.Scope) error {
		form, err := openForm(sc)
		if err != nil {
			return err
		}
		return form.SubmitDuplicate(owner, fixtures.Coverage{
			Market:        market,
			Reference:     existingReference,
			EffectiveDate: effectiveDate(),
		})
	})
}
