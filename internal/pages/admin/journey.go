package admin

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/oloid-qa/e2e/internal/fixtures"
	"github.com/oloid-qa/e2e/internal/obs"
	"github.com/oloid-qa/e2e/internal/ui"
)

// Stage is a step of the happy-path journey. Each stage ends on the page the
// next one starts from.
type Stage int

const (
	StageLogin Stage = iota
	StageClient
	StageApplication
	StageCoverage
	StageMapping
	StagePricePlan
	StagePassword
)

var stageNames = [...]string{"login", "client", "application", "coverage", "mapping", "price_plan", "password"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Journey creates a client and carries it through application, coverage,
// supplier mapping, price plan and password generation.
type Journey struct {
	LoginURL    string
	Username    string
	Password    string
	Data        fixtures.AdminRun
	DownloadDir string // where the credentials file is saved

	a   *ui.Actor
	log *slog.Logger
}

// JourneyResult reports how far a run got.
type JourneyResult struct {
	Reached     Stage
	Credentials string // saved credentials file, set after StagePassword
}

func NewJourney(a *ui.Actor, loginURL, username, password string, data fixtures.AdminRun) *Journey {
	return &Journey{
		LoginURL: loginURL,
		Username: username,
		Password: password,
		Data:     data,
		a:        a,
		log:      obs.Pkg("pages.admin"),
	}
}

// Run walks the stages in order and stops after until. On error the result
// holds the last stage that completed.
func (j *Journey) Run(until Stage) (JourneyResult, error) {
	res := JourneyResult{Reached: -1}
	steps := []func(*JourneyResult) error{
		j.login,
		j.client,
		j.application,
		j.coverage,
		j.mapping,
		j.pricePlan,
		j.password,
	}
	for i, step := range steps {
		stage := Stage(i)
		if stage > until {
			break
		}
		start := time.Now()
		if err := step(&res); err != nil {
			j.log.Error("journey stage failed", "stage", stage.String(), "run_id", j.Data.ID, "error", err)
			return res, fmt.Errorf("journey %s: %w", stage, err)
		}
		res.Reached = stage
		j.log.Info("journey stage done", "stage", stage.String(), "run_id", j.Data.ID, "dur_ms", time.Since(start).Milliseconds())
	}
	return res, nil
}

func (j *Journey) login(*JourneyResult) error {
	return SignIn(j.a, j.LoginURL, j.Username, j.Password)
}

func (j *Journey) client(*JourneyResult) error {
	portal := NewPortal(j.a)
	if err := portal.Open(SectionClient); err != nil {
		return err
	}
	if err := portal.AddNew(ClientFormTitle); err != nil {
		return err
	}
	return NewClientForm(j.a).Create(j.Data.Client)
}

// application runs on the form the client modal continued to, which already
// has the new client selected.
func (j *Journey) application(*JourneyResult) error {
	if err := j.a.ExpectText(testID(tidModalTitle), ApplicationFormTitle, "form title"); err != nil {
		return err
	}
	app := j.Data.Application
	app.ClientName = ""
	return NewApplicationForm(j.a).Create(app)
}

func (j *Journey) coverage(*JourneyResult) error {
	if err := j.a.ExpectText(testID(tidModalTitle), CoverageFormTitle, "form title"); err != nil {
		return err
	}
	return NewCoverageForm(j.a).Create(CoverageTarget{}, j.Data.Coverage)
}

func (j *Journey) mapping(*JourneyResult) error {
	c := j.Data.Coverage
	return NewSupplierMapping(j.a).Save(c.Supplier, c.Proportion)
}

func (j *Journey) pricePlan(*JourneyResult) error {
	f := NewPricePlanForm(j.a)
	if err := f.ExpectClient(j.Data.Client.Name); err != nil {
		return err
	}
	c := j.Data.Coverage
	return f.Create(c.PricePlan, c.Price, c.PriceEffective)
}

func (j *Journey) password(res *JourneyResult) error {
	pg := NewPasswordGeneration(j.a)
	if err := pg.Fill(Credentials{
		Client:      j.Data.Client.Name,
		Application: j.Data.Application.Name,
		Username:    j.Data.Application.Username,
		Remarks:     j.Data.Remarks,
	}); err != nil {
		return err
	}
	path, err := pg.GenerateAndContinue(j.DownloadDir)
	res.Credentials = path
	return err
}
