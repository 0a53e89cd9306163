package testsite

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// Messages the portal shows. Scenarios assert on these strings.
const (
	MsgUnauthorized      = "User unauthorized."
	MsgDuplicate         = "Duplicate admin entry creation attempt, please check the request details again"
	MsgUnsupportedChars  = "Request parameter 'username' contains unsupported characters. Only alphanumeric with underscores are allowed"
	MsgAlphanumeric      = "The field must be alphanumeric."
	MsgReferenceRequired = "Coverage Reference is required"
	MsgDateRequired      = "Effective Date is required"
	MsgRequired          = "This field is required"
	MsgUsernameMismatch  = "Username does not belong to the selected application"
	MsgInvalidPrice      = "Price must be a positive number"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ErrDuplicate is returned when a record with the same identity exists.
var ErrDuplicate = errors.New(MsgDuplicate)

// ErrNotFound is returned for unknown record ids.
var ErrNotFound = errors.New("record not found")

// ValidationError carries per-field messages, plus an optional message shown
// in the Problem popup.
type ValidationError struct {
	Fields  map[string]string
	Problem string
}

func (e *ValidationError) Error() string {
	if e.Problem != "" {
		return e.Problem
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) field(name, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[name]; !ok {
		e.Fields[name] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 && e.Problem == "" {
		return nil
	}
	return e
}

// Reference data offered by the portal's dropdowns.
var (
	Currencies  = []string{"USD", "CAD", "EUR", "GBP", "LKR", "PKR"}
	Countries   = []string{"Australia", "Canada", "India", "Pakistan", "Sri Lanka", "United Kingdom", "United States"}
	Markets     = []string{"Canada", "India", "Pakistan", "Sri Lanka"}
	Suppliers   = []string{"int RDS Canada", "int RDS India", "int RDS Pakistan", "int RDS Sri Lanka"}
	Proportions = []string{"25", "50", "75", "100"}
	PricePlans  = []string{"Pay As You Go", "Subscription", "Transaction Rental"}
)

// PortalClient is a client record.
type PortalClient struct {
	ID                 int
	Name               string
	Address            string
	PostCode           string
	Currency           string
	Country            string
	RegistrationNumber string
	Contacts           map[string]string
	AccountManager     string
	CreatedAt          time.Time
}

// PortalApplication is an application record owned by a client.
type PortalApplication struct {
	ID            int
	ClientID      int
	Username      string
	Name          string
	EffectiveDate time.Time
	Enabled       bool
	Comments      []string
}

// PortalCoverage is a coverage record for one application and market.
type PortalCoverage struct {
	ID            int
	ApplicationID int
	Market        string
	Reference     string
	EffectiveDate time.Time
	CacheDBLookup bool
	Supplier      string
	Proportion    string
}

// PricePlan is a client's price for one coverage.
type PricePlan struct {
	ID            int
	CoverageID    int
	Plan          string
	Price         float64
	EffectiveDate time.Time
}

// Credential is a generated application password.
type Credential struct {
	Token         string
	ApplicationID int
	Username      string
	Password      string
	Remarks       string
}

// Portal is the in-memory state of the admin portal double. It is safe for
// concurrent use.
type Portal struct {
	mu           sync.Mutex
	nextID       int
	clients      []*PortalClient
	applications []*PortalApplication
	coverages    []*PortalCoverage
	pricePlans   []*PricePlan
	credentials  map[string]*Credential
}

// Seed records the scenarios rely on.
const (
	SeedClient          = "AZ NB partner Greg"
	SeedSearchClient    = "Test Client"
	SeedApplication     = "app_Nola"
	SeedCoverage        = "COV_DUPLICATE_01"
	seedApplicationUser = "nola_user"
)

// NewPortal returns a portal holding the seed records.
func NewPortal() *Portal {
	p := &Portal{credentials: map[string]*Credential{}}
	seedDate := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	greg := p.addClient(PortalClient{Name: SeedClient, Currency: "USD", Country: "Canada", PostCode: "V5K 0A1"})
	p.addClient(PortalClient{Name: SeedSearchClient, Currency: "CAD", Country: "Canada", PostCode: "V3R 4V7"})
	nola := p.addApplication(PortalApplication{ClientID: greg.ID, Username: seedApplicationUser, Name: SeedApplication, EffectiveDate: seedDate, Enabled: true})
	p.coverages = append(p.coverages, &PortalCoverage{
		ID: p.id(), ApplicationID: nola.ID, Market: "Pakistan", Reference: SeedCoverage, EffectiveDate: seedDate,
	})
	return p
}

func (p *Portal) id() int {
	p.nextID++
	return p.nextID
}

func (p *Portal) addClient(c PortalClient) *PortalClient {
	c.ID = p.id()
	c.CreatedAt = time.Now()
	p.clients = append(p.clients, &c)
	return &c
}

func (p *Portal) addApplication(a PortalApplication) *PortalApplication {
	a.ID = p.id()
	p.applications = append(p.applications, &a)
	return &a
}

// ClientInput is the submitted Create Client form.
type ClientInput struct {
	Name               string
	Address            string
	PostCode           string
	Currency           string
	Country            string
	RegistrationNumber string
	Contacts           map[string]string
	AccountManager     string
}

// CreateClient validates and stores a client. Names are unique, ignoring case.
func (p *Portal) CreateClient(in ClientInput) (*PortalClient, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.field("name", MsgRequired)
	}
	if !contains(Currencies, in.Currency) {
		verr.field("currency", MsgRequired)
	}
	if !contains(Countries, in.Country) {
		verr.field("country", MsgRequired)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clients {
		if strings.EqualFold(c.Name, strings.TrimSpace(in.Name)) {
			return nil, ErrDuplicate
		}
	}
	return p.addClient(PortalClient{
		Name:               strings.TrimSpace(in.Name),
		Address:            in.Address,
		PostCode:           in.PostCode,
		Currency:           in.Currency,
		Country:            in.Country,
		RegistrationNumber: in.RegistrationNumber,
		Contacts:           in.Contacts,
		AccountManager:     in.AccountManager,
	}), nil
}

// Clients returns clients whose name, country, currency or post code contains
// query, in creation order.
func (p *Portal) Clients(query string) []PortalClient {
	p.mu.Lock()
	defer p.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []PortalClient
	for _, c := range p.clients {
		hay := strings.ToLower(strings.Join([]string{c.Name, c.Country, c.Currency, c.PostCode, c.RegistrationNumber}, " "))
		if q == "" || strings.Contains(hay, q) {
			out = append(out, *c)
		}
	}
	return out
}

// Client returns the client with id.
func (p *Portal) Client(id int) (PortalClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clients {
		if c.ID == id {
			return *c, nil
		}
	}
	return PortalClient{}, ErrNotFound
}

// ApplicationInput is the submitted Create or Edit Application form.
type ApplicationInput struct {
	ClientID      int
	Username      string
	Name          string
	EffectiveDate string
}

func validateApplication(in ApplicationInput) (time.Time, error) {
	verr := &ValidationError{}
	if in.ClientID == 0 {
		verr.field("client", MsgRequired)
	}
	if in.Username == "" {
		verr.field("username", MsgRequired)
	}
	if in.Name == "" {
		verr.field("name", MsgRequired)
	}
	date, err := parseDate(in.EffectiveDate)
	if err != nil {
		verr.field("effective_date", MsgDateRequired)
	}
	// The API validates both fields under the 'username' parameter name.
	if (in.Username != "" && !identifierPattern.MatchString(in.Username)) ||
		(in.Name != "" && !identifierPattern.MatchString(in.Name)) {
		verr.Problem = MsgUnsupportedChars
	}
	return date, verr.orNil()
}

// CreateApplication validates and stores an application. Usernames and
// names are unique across the portal, ignoring case.
func (p *Portal) CreateApplication(in ApplicationInput) (*PortalApplication, error) {
	date, err := validateApplication(in)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasClient(in.ClientID) {
		return nil, ErrNotFound
	}
	for _, a := range p.applications {
		if strings.EqualFold(a.Username, in.Username) || strings.EqualFold(a.Name, in.Name) {
			return nil, ErrDuplicate
		}
	}
	return p.addApplication(PortalApplication{
		ClientID:      in.ClientID,
		Username:      in.Username,
		Name:          in.Name,
		EffectiveDate: date,
		Enabled:       true,
	}), nil
}

// UpdateApplication changes an application's name, date and enabled flag.
// Toggling the flag requires a comment.
func (p *Portal) UpdateApplication(id int, in ApplicationInput, enabled bool, comment string) (*PortalApplication, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	app := p.application(id)
	if app == nil {
		return nil, ErrNotFound
	}
	in.ClientID = app.ClientID
	in.Username = app.Username
	date, err := validateApplication(in)
	if err != nil {
		return nil, err
	}
	if enabled != app.Enabled && strings.TrimSpace(comment) == "" {
		return nil, &ValidationError{Fields: map[string]string{"update_comment": MsgRequired}}
	}
	for _, a := range p.applications {
		if a.ID != id && strings.EqualFold(a.Name, in.Name) {
			return nil, ErrDuplicate
		}
	}
	app.Name = in.Name
	app.EffectiveDate = date
	app.Enabled = enabled
	if comment = strings.TrimSpace(comment); comment != "" {
		app.Comments = append(app.Comments, comment)
	}
	cp := *app
	return &cp, nil
}

// Applications returns applications, optionally limited to one client and
// filtered by username or name.
func (p *Portal) Applications(clientID int, query string) []PortalApplication {
	p.mu.Lock()
	defer p.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []PortalApplication
	for _, a := range p.applications {
		if clientID != 0 && a.ClientID != clientID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Username+" "+a.Name), q) {
			continue
		}
		out = append(out, *a)
	}
	return out
}

// Application returns the application with id.
func (p *Portal) Application(id int) (PortalApplication, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a := p.application(id); a != nil {
		return *a, nil
	}
	return PortalApplication{}, ErrNotFound
}

func (p *Portal) application(id int) *PortalApplication {
	for _, a := range p.applications {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (p *Portal) hasClient(id int) bool {
	for _, c := range p.clients {
		if c.ID == id {
			return true
		}
	}
	return false
}

// CoverageInput is the submitted Create Coverage form.
type CoverageInput struct {
	ApplicationID int
	Market        string
	Reference     string
	EffectiveDate string
	CacheDBLookup bool
}

// CreateCoverage validates and stores a coverage. References are unique.
func (p *Portal) CreateCoverage(in CoverageInput) (*PortalCoverage, error) {
	verr := &ValidationError{}
	if in.ApplicationID == 0 {
		verr.field("application", MsgRequired)
	}
	if !contains(Markets, in.Market) {
		verr.field("market", MsgRequired)
	}
	switch {
	case strings.TrimSpace(in.Reference) == "":
		verr.field("reference", MsgReferenceRequired)
	case !identifierPattern.MatchString(in.Reference):
		verr.field("reference", MsgAlphanumeric)
	}
	date, err := parseDate(in.EffectiveDate)
	if err != nil {
		verr.field("effective_date", MsgDateRequired)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.application(in.ApplicationID) == nil {
		return nil, ErrNotFound
	}
	for _, c := range p.coverages {
		if strings.EqualFold(c.Reference, in.Reference) {
			return nil, ErrDuplicate
		}
	}
	c := &PortalCoverage{
		ID:            p.id(),
		ApplicationID: in.ApplicationID,
		Market:        in.Market,
		Reference:     in.Reference,
		EffectiveDate: date,
		CacheDBLookup: in.CacheDBLookup,
	}
	p.coverages = append(p.coverages, c)
	cp := *c
	return &cp, nil
}

// Coverage returns the coverage with id.
func (p *Portal) Coverage(id int) (PortalCoverage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c := p.coverage(id); c != nil {
		return *c, nil
	}
	return PortalCoverage{}, ErrNotFound
}

// Coverages returns all coverages in creation order.
func (p *Portal) Coverages() []PortalCoverage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PortalCoverage, 0, len(p.coverages))
	for _, c := range p.coverages {
		out = append(out, *c)
	}
	return out
}

func (p *Portal) coverage(id int) *PortalCoverage {
	for _, c := range p.coverages {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// MapSupplier assigns a supplier and traffic proportion to a coverage.
func (p *Portal) MapSupplier(coverageID int, supplier, proportion string) error {
	verr := &ValidationError{}
	if !contains(Suppliers, supplier) {
		verr.field("supplier", MsgRequired)
	}
	if !contains(Proportions, proportion) {
		verr.field("proportion", MsgRequired)
	}
	if err := verr.orNil(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.coverage(coverageID)
	if c == nil {
		return ErrNotFound
	}
	c.Supplier = supplier
	c.Proportion = proportion
	return nil
}

// PricePlanInput is the submitted Client Price Plan form.
type PricePlanInput struct {
	CoverageID    int
	Plan          string
	Price         string
	EffectiveDate string
}

// CreatePricePlan validates and stores a price plan.
func (p *Portal) CreatePricePlan(in PricePlanInput) (*PricePlan, error) {
	verr := &ValidationError{}
	if !contains(PricePlans, in.Plan) {
		verr.field("plan", MsgRequired)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(in.Price), 64)
	if err != nil || price <= 0 {
		verr.field("price", MsgInvalidPrice)
	}
	date, err := parseDate(in.EffectiveDate)
	if err != nil {
		verr.field("effective_date", MsgDateRequired)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.coverage(in.CoverageID) == nil {
		return nil, ErrNotFound
	}
	pp := &PricePlan{ID: p.id(), CoverageID: in.CoverageID, Plan: in.Plan, Price: price, EffectiveDate: date}
	p.pricePlans = append(p.pricePlans, pp)
	cp := *pp
	return &cp, nil
}

// GeneratePassword issues a password for the application's username.
func (p *Portal) GeneratePassword(applicationID int, username, remarks string) (*Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	app := p.application(applicationID)
	if app == nil {
		return nil, &ValidationError{Fields: map[string]string{"application": MsgRequired}}
	}
	if !strings.EqualFold(app.Username, strings.TrimSpace(username)) {
		return nil, &ValidationError{Problem: MsgUsernameMismatch}
	}
	cred := &Credential{
		Token:         randomHex(16),
		ApplicationID: app.ID,
		Username:      app.Username,
		Password:      randomHex(12),
		Remarks:       remarks,
	}
	p.credentials[cred.Token] = cred
	cp := *cred
	return &cp, nil
}

// Credential returns a generated credential by download token.
func (p *Portal) Credential(token string) (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.credentials[token]; ok {
		return *c, nil
	}
	return Credential{}, ErrNotFound
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	return time.Parse(dateLayout, raw)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
