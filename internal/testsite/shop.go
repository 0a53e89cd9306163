package testsite

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/oloid-qa/e2e/internal/obs"
)

// Shop messages, as the demo site prints them.
const (
	MsgLoginIncorrect = "Your email or password is incorrect!"
	MsgEmailExists    = "Email Address already exist!"
)

// ShopCountries are the registration form's country options.
var ShopCountries = []string{"India", "United States", "Canada", "Australia", "Israel", "New Zealand", "Singapore"}

var shopMonths = []string{"January", "February", "March", "April", "May", "June", "July",
	"August", "September", "October", "November", "December"}

// Account is a registered shop user.
type Account struct {
	Name      string
	Email     string
	Password  string
	Title     string
	Birthday  string
	FirstName string
	LastName  string
	Company   string
	Address   string
	Address2  string
	Country   string
	State     string
	City      string
	Zipcode   string
	Mobile    string
}

// Shop serves the e-commerce demo double.
type Shop struct {
	render   *Renderer
	sessions *sessions

	mu       sync.Mutex
	accounts map[string]Account
}

// NewShop builds the shop handlers with no registered accounts.
func NewShop() (*Shop, error) {
	r, err := NewRenderer(assets, "templates/shop")
	if err != nil {
		return nil, err
	}
	return &Shop{
		render:   r,
		sessions: newSessions("sessionid"),
		accounts: map[string]Account{},
	}, nil
}

// Register stores acc, rejecting a taken email.
func (s *Shop) Register(acc Account) error {
	key := strings.ToLower(strings.TrimSpace(acc.Email))
	if key == "" || strings.TrimSpace(acc.Name) == "" {
		return &ValidationError{Fields: map[string]string{"email": MsgRequired}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; ok {
		return ErrDuplicate
	}
	s.accounts[key] = acc
	return nil
}

// Account returns the account registered for email.
func (s *Shop) Account(email string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[strings.ToLower(strings.TrimSpace(email))]
	return acc, ok
}

// Delete removes the account registered for email.
func (s *Shop) Delete(email string) bool {
	key := strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; !ok {
		return false
	}
	delete(s.accounts, key)
	return true
}

// Handler returns the shop's routes wrapped in the request middleware.
func (s *Shop) Handler() http.Handler {
	mux := http.NewServeMux()
	optional := func(h http.HandlerFunc) http.Handler { return s.sessions.OptionalAuth(h) }

	mux.Handle("GET /static/", staticHandler())
	mux.Handle("GET /{$}", optional(s.handleHome))
	mux.Handle("GET /login", optional(s.handleLoginPage))
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("POST /signup/create", s.handleCreateAccount)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.Handle("GET /delete_account", s.sessions.RequireAuthWithRedirect("/login", http.HandlerFunc(s.handleDeleteAccount)))

	return obs.RequestContextMiddleware(obs.AccessLogMiddleware("testsite.shop", mux))
}

// page starts the template data. The session holds the email; the header
// shows the account name.
func (s *Shop) page(r *http.Request, title string) map[string]any {
	data := map[string]any{"Title": title, "User": ""}
	if acc, ok := s.Account(userFrom(r.Context())); ok {
		data["User"] = acc.Name
	}
	return data
}

func (s *Shop) show(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := s.render.Render(w, name, data); err != nil {
		obs.From(r.Context()).Error("render_failed", "pkg", "testsite", "template", name, "error", err)
		s.render.RenderError(w, http.StatusInternalServerError, "render failed")
	}
}

func (s *Shop) handleHome(w http.ResponseWriter, r *http.Request) {
	data := s.page(r, "")
	data["Products"] = []string{"Blue Top", "Men Tshirt", "Sleeveless Dress", "Stylish Dress"}
	s.show(w, r, "home.html", data)
}

func (s *Shop) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if userFrom(r.Context()) != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.show(w, r, "login.html", s.page(r, "Signup / Login"))
}

func (s *Shop) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	email := r.PostFormValue("email")
	acc, ok := s.Account(email)
	if !ok || acc.Password != r.PostFormValue("password") {
		obs.From(r.Context()).Info("shop_login_rejected", "pkg", "testsite", "known_email", ok)
		data := s.page(r, "Signup / Login")
		data["LoginEmail"] = email
		data["LoginError"] = MsgLoginIncorrect
		s.show(w, r, "login.html", data)
		return
	}
	s.sessions.Create(w, acc.Email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Shop) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	if _, taken := s.Account(email); taken || name == "" || email == "" {
		data := s.page(r, "Signup / Login")
		data["SignupName"] = name
		data["SignupEmail"] = email
		data["SignupError"] = MsgEmailExists
		if !taken {
			data["SignupError"] = MsgRequired
		}
		s.show(w, r, "login.html", data)
		return
	}

	data := s.page(r, "Signup")
	data["Name"] = name
	data["Email"] = email
	days := make([]int, 31)
	for i := range days {
		days[i] = i + 1
	}
	years := make([]int, 0, 122)
	for y := 2021; y >= 1900; y-- {
		years = append(years, y)
	}
	data["Days"] = days
	data["Months"] = shopMonths
	data["Years"] = years
	data["Countries"] = ShopCountries
	s.show(w, r, "signup.html", data)
}

func (s *Shop) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	f := r.PostForm
	acc := Account{
		Name:      f.Get("name"),
		Email:     f.Get("email"),
		Password:  f.Get("password"),
		Title:     f.Get("title"),
		Birthday:  birthday(f.Get("days"), f.Get("months"), f.Get("years")),
		FirstName: f.Get("first_name"),
		LastName:  f.Get("last_name"),
		Company:   f.Get("company"),
		Address:   f.Get("address1"),
		Address2:  f.Get("address2"),
		Country:   f.Get("country"),
		State:     f.Get("state"),
		City:      f.Get("city"),
		Zipcode:   f.Get("zipcode"),
		Mobile:    f.Get("mobile_number"),
	}
	if err := s.Register(acc); err != nil {
		data := s.page(r, "Signup / Login")
		data["SignupName"] = acc.Name
		data["SignupEmail"] = acc.Email
		data["SignupError"] = MsgEmailExists
		s.show(w, r, "login.html", data)
		return
	}
	obs.From(r.Context()).Info("shop_account_created", "pkg", "testsite", "country", acc.Country)
	s.sessions.Create(w, acc.Email)

	// The confirmation page keeps the signed-out header so "Account Created!"
	// is its only bold text.
	s.show(w, r, "account_created.html", map[string]any{"Title": "Account Created", "User": ""})
}

func (s *Shop) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Destroy(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Shop) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	email := userFrom(r.Context())
	s.Delete(email)
	s.sessions.Destroy(w, r)
	obs.From(r.Context()).Info("shop_account_deleted", "pkg", "testsite")
	s.show(w, r, "account_deleted.html", map[string]any{"Title": "Account Deleted", "User": ""})
}

// birthday joins the date-of-birth selects as yyyy-mm-dd, or "" when incomplete.
func birthday(day, month, year string) string {
	d, errD := strconv.Atoi(day)
	m, errM := strconv.Atoi(month)
	y, errY := strconv.Atoi(year)
	if errD != nil || errM != nil || errY != nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}
