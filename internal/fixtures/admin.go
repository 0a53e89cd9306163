package fixtures

import (
	"strings"
	"time"
)

// DateLayout is the format the portal's date inputs accept.
const DateLayout = "2006-01-02"

// Contact is one of the client's billing, support or technical contacts.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// Client is the data typed into the Create Client form.
type Client struct {
	Name               string
	Address            string
	PostCode           string
	Currency           string
	Country            string
	RegistrationNumber string
	Billing            Contact
	Support            Contact
	Technical          Contact
	AccountManager     string
}

// Application is the data typed into the Create Application form.
type Application struct {
	ClientName    string
	Username      string
	Name          string
	EffectiveDate time.Time
}

// Coverage is the data typed into the Create Coverage form.
type Coverage struct {
	Market         string
	Reference      string
	EffectiveDate  time.Time
	CacheDBLookup  bool
	Supplier       string
	Proportion     string
	PricePlan      string
	Price          string
	PriceEffective time.Time // picked from the calendar, which opens on the current month
}

// AdminRun is every record one happy-path run creates, derived from a single
// unique id so reruns never collide.
type AdminRun struct {
	ID          string
	Client      Client
	Application Application
	Coverage    Coverage
	Remarks     string
}

// NewAdminRun derives a run from UniqueID(prefix). The effective date is
// 1 January of the year after now, so it stays in the future.
func NewAdminRun(prefix string, now time.Time) AdminRun {
	if prefix == "" {
		prefix = "client"
	}
	id := UniqueID(prefix)
	return adminRunFromID(id, now)
}

func adminRunFromID(id string, now time.Time) AdminRun {
	clientName := "Auto Client " + strings.ReplaceAll(id, "_", "-")
	regNum := "REG-" + strings.ReplaceAll(strings.ToUpper(id), "_", "-")
	base := "Client_" + id
	effective := time.Date(now.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	return AdminRun{
		ID: id,
		Client: Client{
			Name:               clientName,
			Address:            "16616, Canary Dr, Surrey, BC",
			PostCode:           "V3R 4V7",
			Currency:           "USD",
			Country:            "Canada",
			RegistrationNumber: regNum,
			Billing:            Contact{Name: clientName, Email: "billing." + id + "@example.com", Phone: "94714696124"},
			Support:            Contact{Name: "Support " + clientName, Email: "support." + id + "@example.com", Phone: "94714696125"},
			Technical:          Contact{Name: "Tech " + clientName, Email: "tech." + id + "@example.com", Phone: "94714696126"},
			AccountManager:     "Auto Manager",
		},
		Application: Application{
			ClientName:    clientName,
			Username:      strings.ToLower("app_" + base + "_user"),
			Name:          "App_" + base,
			EffectiveDate: effective,
		},
		Coverage: Coverage{
			Market:         "Pakistan",
			Reference:      "COV_" + id,
			EffectiveDate:  effective,
			CacheDBLookup:  true,
			Supplier:       "int RDS Pakistan",
			Proportion:     "100",
			PricePlan:      "Transaction Rental",
			Price:          "0.25",
			PriceEffective: today,
		},
		Remarks: "password generate for happy path test",
	}
}

// DynamicClient is the single-client data set used by the client creation
// scenarios.
func DynamicClient(prefix string) Client {
	if prefix == "" {
		prefix = "random_client"
	}
	return Client{
		Name:               UniqueID(prefix),
		Address:            "15176, Canary Dr, Surrey",
		PostCode:           "V3R 4V7",
		Currency:           "USD",
		Country:            "Canada",
		RegistrationNumber: "12344",
		Billing:            Contact{Name: "Damro", Email: "damro@gmail.com", Phone: "94715006124"},
		Support:            Contact{Name: "Damro supplier 1", Email: "damrosup@gmail.com", Phone: "94715006125"},
		Technical:          Contact{Name: "Damro tec 1", Email: "damrotec1@gmail.com", Phone: "94715006126"},
		AccountManager:     "Damro manager 1",
	}
}

// DuplicateClient is created twice by the duplicate rejection scenario.
func DuplicateClient() Client {
	return Client{
		Name:               UniqueID("random_client_duplicate"),
		Address:            "123 Dup St, Vancouver",
		PostCode:           "V5K 0A1",
		Currency:           "USD",
		Country:            "Canada",
		RegistrationNumber: "54321",
		Billing:            Contact{Name: "Dup Billing", Email: "dupbilling@gmail.com", Phone: "94715006127"},
		Support:            Contact{Name: "Dup Support", Email: "dupsupport@gmail.com", Phone: "94715006128"},
		Technical:          Contact{Name: "Dup Tech", Email: "duptech@gmail.com", Phone: "94715006129"},
		AccountManager:     "Dup Manager",
	}
}

// FormatDate renders t the way the portal's date inputs expect.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
