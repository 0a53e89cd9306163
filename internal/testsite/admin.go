package testsite

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/oloid-qa/e2e/internal/obs"
)

// Admin serves the MNP Admin Portal double.
type Admin struct {
	Portal   *Portal
	username string
	password string
	render   *Renderer
	sessions *sessions
}

// NewAdmin builds the portal handlers. Only username/password sign in.
func NewAdmin(portal *Portal, username, password string) (*Admin, error) {
	r, err := NewRenderer(assets, "templates/admin")
	if err != nil {
		return nil, err
	}
	return &Admin{
		Portal:   portal,
		username: username,
		password: password,
		render:   r,
		sessions: newSessions("mnp_session"),
	}, nil
}

// Handler returns the portal's routes wrapped in the request middleware.
func (a *Admin) Handler() http.Handler {
	mux := http.NewServeMux()
	auth := func(h http.HandlerFunc) http.Handler {
		return a.sessions.RequireAuthWithRedirect("/login", h)
	}

	mux.Handle("GET /static/", staticHandler())
	mux.HandleFunc("GET /login", a.handleLoginPage)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("GET /logout", a.handleLogout)

	mux.Handle("GET /{$}", auth(a.handleDashboard))
	mux.Handle("GET /client", auth(a.handleClientList))
	mux.Handle("GET /client/new", auth(a.handleClientForm))
	mux.Handle("POST /client/new", auth(a.handleClientCreate))
	mux.Handle("GET /application", auth(a.handleApplicationList))
	mux.Handle("GET /application/new", auth(a.handleApplicationForm))
	mux.Handle("POST /application/new", auth(a.handleApplicationCreate))
	mux.Handle("GET /application/{id}/edit", auth(a.handleApplicationEditForm))
	mux.Handle("POST /application/{id}/edit", auth(a.handleApplicationUpdate))
	mux.Handle("GET /coverage", auth(a.handleCoverageList))
	mux.Handle("GET /coverage/new", auth(a.handleCoverageForm))
	mux.Handle("POST /coverage/new", auth(a.handleCoverageCreate))
	mux.Handle("GET /coverage/{id}/mapping", auth(a.handleMappingForm))
	mux.Handle("POST /coverage/{id}/mapping", auth(a.handleMappingSave))
	mux.Handle("GET /price-plan/new", auth(a.handlePricePlanForm))
	mux.Handle("POST /price-plan/new", auth(a.handlePricePlanCreate))
	mux.Handle("GET /password/new", auth(a.handlePasswordForm))
	mux.Handle("POST /password/new", auth(a.handlePasswordGenerate))
	mux.Handle("GET /password/download/{token}", auth(a.handlePasswordDownload))

	return obs.RequestContextMiddleware(obs.AccessLogMiddleware("testsite.admin", mux))
}

func (a *Admin) page(r *http.Request, title string) map[string]any {
	return map[string]any{
		"Title": title,
		"User":  userFrom(r.Context()),
	}
}

func (a *Admin) show(w http.ResponseWriter, r *http.Request, code int, name string, data map[string]any) {
	if err := a.render.RenderStatus(w, code, name, data); err != nil {
		obs.From(r.Context()).Error("render_failed", "pkg", "testsite", "template", name, "error", err)
		a.render.RenderError(w, http.StatusInternalServerError, "render failed")
	}
}

// failure maps a store error onto the form page: field messages inline,
// rejected requests as the Problem popup.
func (a *Admin) failure(w http.ResponseWriter, r *http.Request, name string, data map[string]any, err error, button string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		data["Errors"] = verr.Fields
		if verr.Problem != "" {
			data["Problem"] = &problemView{Message: verr.Problem, Button: button}
		}
		a.show(w, r, http.StatusUnprocessableEntity, name, data)
	case errors.Is(err, ErrDuplicate):
		data["Problem"] = &problemView{Message: MsgDuplicate, Button: button}
		a.show(w, r, http.StatusConflict, name, data)
	case errors.Is(err, ErrNotFound):
		a.render.RenderError(w, http.StatusNotFound, "record not found")
	default:
		obs.From(r.Context()).Error("portal_request_failed", "pkg", "testsite", "error", err)
		a.render.RenderError(w, http.StatusInternalServerError, err.Error())
	}
}

func (a *Admin) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := a.sessions.User(r); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := a.render.RenderPublic(w, "login.html", a.page(r, "Login")); err != nil {
		a.render.RenderError(w, http.StatusInternalServerError, err.Error())
	}
}

func (a *Admin) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	username := r.PostFormValue("username")
	if username != a.username || r.PostFormValue("password") != a.password {
		obs.From(r.Context()).Info("login_rejected", "pkg", "testsite", "username_len", len(username))
		data := a.page(r, "Login")
		data["Error"] = MsgUnauthorized
		data["Username"] = username
		if err := a.render.RenderPublic(w, "login.html", data); err != nil {
			a.render.RenderError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	a.sessions.Create(w, username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Admin) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *Admin) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := a.page(r, "Dashboard")
	data["Clients"] = len(a.Portal.Clients(""))
	data["Applications"] = len(a.Portal.Applications(0, ""))
	data["Coverages"] = len(a.Portal.Coverages())
	a.show(w, r, http.StatusOK, "dashboard.html", data)
}

// Clients

func (a *Admin) handleClientList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	data := a.page(r, "Client Information")
	data["Query"] = q
	data["Clients"] = a.Portal.Clients(q)
	a.show(w, r, http.StatusOK, "client_list.html", data)
}

func (a *Admin) clientFormData(r *http.Request, form url.Values) map[string]any {
	data := a.page(r, "Create Client")
	data["Form"] = form
	data["Currency"] = selectView{
		Name: "currency", Label: "Currency Code", Placeholder: "Select Currency",
		Value: form.Get("currency"), Options: stringOptions(Currencies),
	}
	data["Country"] = selectView{
		Name: "country", Label: "Country", Placeholder: "Select Country",
		Control: controlFilled, Value: form.Get("country"), Options: stringOptions(Countries),
	}
	return data
}

func (a *Admin) handleClientForm(w http.ResponseWriter, r *http.Request) {
	a.show(w, r, http.StatusOK, "client_form.html", a.clientFormData(r, url.Values{}))
}

// contactFields are the contact inputs of the client form, by test id.
var contactFields = []string{
	"billing_contact_name", "billing_email_address", "billing_phone_number",
	"support_contact_name", "support_email_address", "support_phone_number",
	"technical_contact_name", "technical_email_address", "technical_phone_number",
}

func (a *Admin) handleClientCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	f := r.PostForm
	contacts := map[string]string{}
	for _, k := range contactFields {
		if v := strings.TrimSpace(f.Get(k)); v != "" {
			contacts[k] = v
		}
	}
	client, err := a.Portal.CreateClient(ClientInput{
		Name:               f.Get("name"),
		Address:            f.Get("address"),
		PostCode:           f.Get("post_code"),
		Currency:           f.Get("currency"),
		Country:            f.Get("country"),
		RegistrationNumber: f.Get("registration_number"),
		Contacts:           contacts,
		AccountManager:     f.Get("account_manager"),
	})
	if err != nil {
		a.failure(w, r, "client_form.html", a.clientFormData(r, f), err, "OK")
		return
	}
	obs.From(r.Context()).Info("client_created", "pkg", "testsite", "client_id", client.ID)

	data := a.page(r, "Create Client")
	data["Modal"] = &modalView{
		Label:   "Client",
		Message: "Client Created Successfully!",
		Entity:  "Client",
		Next:    fmt.Sprintf("/application/new?client=%d&flow=journey", client.ID),
	}
	a.show(w, r, http.StatusOK, "client_form.html", data)
}

// Applications

func (a *Admin) handleApplicationList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	clientID, _ := strconv.Atoi(r.URL.Query().Get("client"))

	clients := a.Portal.Clients("")
	names := make(map[int]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	type row struct {
		PortalApplication
		ClientName string
	}
	var rows []row
	for _, app := range a.Portal.Applications(clientID, q) {
		rows = append(rows, row{PortalApplication: app, ClientName: names[app.ClientID]})
	}

	data := a.page(r, "Client Application Information")
	data["Query"] = q
	data["Rows"] = rows
	data["ClientFilter"] = selectView{
		Name: "client", Label: "Select Client", Placeholder: "Select Client",
		AutoSubmit: true, Value: optionalID(clientID), Options: clientOptions(clients),
	}
	a.show(w, r, http.StatusOK, "application_list.html", data)
}

func (a *Admin) applicationFormData(r *http.Request, form url.Values) map[string]any {
	data := a.page(r, "Create Application")
	data["Form"] = form
	data["Client"] = selectView{
		ID: "client-drpdwn", Name: "client", Label: "Client", Placeholder: "Select Client",
		Value: form.Get("client"), Options: clientOptions(a.Portal.Clients("")),
	}
	return data
}

func (a *Admin) handleApplicationForm(w http.ResponseWriter, r *http.Request) {
	form := url.Values{}
	form.Set("client", r.URL.Query().Get("client"))
	form.Set("flow", r.URL.Query().Get("flow"))
	a.show(w, r, http.StatusOK, "application_form.html", a.applicationFormData(r, form))
}

func (a *Admin) handleApplicationCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	f := r.PostForm
	clientID, _ := strconv.Atoi(f.Get("client"))
	app, err := a.Portal.CreateApplication(ApplicationInput{
		ClientID:      clientID,
		Username:      f.Get("username"),
		Name:          f.Get("name"),
		EffectiveDate: f.Get("effective_date"),
	})
	if err != nil {
		a.failure(w, r, "application_form.html", a.applicationFormData(r, f), err, "Exit")
		return
	}
	obs.From(r.Context()).Info("application_created", "pkg", "testsite", "application_id", app.ID)

	next := "/application"
	if f.Get("flow") == "journey" {
		next = fmt.Sprintf("/coverage/new?application=%d&flow=journey", app.ID)
	}
	data := a.page(r, "Create Application")
	data["Modal"] = &modalView{
		Label:   "Application",
		Message: "Application Created Successfully !",
		Entity:  "Application",
		Next:    next,
	}
	a.show(w, r, http.StatusOK, "application_form.html", data)
}

func (a *Admin) applicationEditData(r *http.Request, app PortalApplication, form url.Values) map[string]any {
	data := a.page(r, "Edit Application")
	data["App"] = app
	data["Form"] = form
	return data
}

func (a *Admin) handleApplicationEditForm(w http.ResponseWriter, r *http.Request) {
	app, err := a.applicationFromPath(r)
	if err != nil {
		a.render.RenderError(w, http.StatusNotFound, "application not found")
		return
	}
	form := url.Values{}
	form.Set("name", app.Name)
	form.Set("effective_date", formatDate(app.EffectiveDate))
	if app.Enabled {
		form.Set("enabled", "on")
	}
	a.show(w, r, http.StatusOK, "application_edit.html", a.applicationEditData(r, app, form))
}

func (a *Admin) handleApplicationUpdate(w http.ResponseWriter, r *http.Request) {
	app, err := a.applicationFromPath(r)
	if err != nil {
		a.render.RenderError(w, http.StatusNotFound, "application not found")
		return
	}
	if err := r.ParseForm(); err != nil {
		a.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	f := r.PostForm
	updated, err := a.Portal.UpdateApplication(app.ID, ApplicationInput{
		Name:          f.Get("name"),
		EffectiveDate: f.Get("effective_date"),
	}, f.Get("enabled") == "on", f.Get("update_comment"))
	if err != nil {
		a.failure(w, r, "application_edit.html", a.applicationEditData(r, app, f), err, "Exit")
		return
	}
	obs.From(r.Context()).Info("application_updated", "pkg", "testsite", "application_id", updated.ID, "enabled", updated.Enabled)

	data := a.page(r, "Edit Application")
	data["Modal"] = &modalView{
		Label:   "Application",
		Message: "Application Updated Successfully !",
		Entity:  "Application",
		Next:    "/application",
	}
	a.show(w, r, http.StatusOK, "application_edit.html", data)
}

func (a *Admin) applicationFromPath(r *http.Request) (PortalApplication, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return PortalApplication{}, ErrNotFound
	}
	return a.Portal.Application(id)
}

// Coverage

func (a *Admin) handleCoverageList(w http.ResponseWriter, r *http.Request) {
	apps := a.Portal.Applications(0, "")
	names := make(map[int]string, len(apps))
	for _, app := range apps {
		names[app.ID] = app.Name
	}
	type row struct {
		PortalCoverage
		ApplicationName string
	}
	var rows []row
	for _, c := range a.Portal.Coverages() {
		rows = append(rows, row{PortalCoverage: c, ApplicationName: names[c.ApplicationID]})
	}
	data := a.page(r, "Coverage Information")
	data["Rows"] = rows
	a.show(w, r, http.StatusOK, "coverage_list.html", data)
}

func (a *Admin) coverageFormData(r *http.Request, form url.Values) map[string]any {
	data := a.page(r, "Create Coverage")
	data["Form"] = form
	data["Client"] = selectView{
		ID: "client-drpdwn", Name: "client", Label: "Client", Placeholder: "Select Client",
		Control: controlFilled, Value: form.Get("client"), Options: clientOptions(a.Portal.Clients("")),
	}
	data["Application"] = selectView{
		ID: "application-drpdwn", Name: "application", Label: "Application", Placeholder: "Select Application",
		Control: controlFilled, DependsOn: "client-drpdwn", Value: form.Get("application"),
		Options: applicationOptions(a.Portal.Applications(0, "")),
	}
	data["Market"] = selectView{
		ID: "market_id-drpdwn", Name: "market", Label: "Market", Placeholder: "Select Market",
		Control: controlFilled, Value: form.Get("market"), Options: stringOptions(Markets),
	}
	return data
}

func (a *Admin) handleCoverageForm(w http.ResponseWriter, r *http.Request) {
	form := url.Values{}
	if appID, err := strconv.Atoi(r.URL.Query().Get("application")); err == nil {
		if app, err := a.Portal.Application(appID); err == nil {
			form.Set("application", strconv.Itoa(app.ID))
			form.Set("client", strconv.Itoa(app.ClientID))
		}
	}
	a.show(w, r, http.StatusOK, "coverage_form.html", a.coverageFormData(r, form))
}

func (a *Admin) handleCoverageCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	f := r.PostForm
	appID, _ := strconv.Atoi(f.Get("application"))
	cov, err := a.Portal.CreateCoverage(CoverageInput{
		ApplicationID: appID,
		Market:        f.Get("market"),
		Reference:     f.Get("reference"),
		EffectiveDate: f.Get("effective_date"),
		CacheDBLookup: f.Get("cache_db_lookup") == "on",
	})
	if err != nil {
		a.failure(w, r, "coverage_form.html", a.coverageFormData(r, f), err, "Exit")
		return
	}
	obs.From(r.Context()).Info("coverage_created", "pkg", "testsite", "coverage_id", cov.ID)

	data := a.page(r, "Create Coverage")
	data["Modal"] = &modalView{
		Label:   "Coverage",
		Message: "Coverage Created Successfully !",
		Entity:  "Coverage",
		Next:    fmt.Sprintf("/coverage/%d/mapping", cov.ID),
	}
	a.show(w, r, http.StatusOK, "coverage_form.html", data)
}

func (a *Admin) mappingData(r *http.Request, cov PortalCoverage, form url.Values) map[string]any {
	data := a.page(r, "Coverage Supplier Mapping")
	data["Coverage"] = cov
	data["Supplier"] = selectView{
		Name: "supplier", Label: "Supplier", Placeholder: "Select Supplier",
		Value: form.Get("supplier"), Options: stringOptions(Suppliers),
	}
	data["Proportion"] = selectView{
		Name: "proportion", Label: "Proportion", Placeholder: "Select or Enter Proportion",
		Value: form.Get("proportion"), Options: stringOptions(Proportions),
	}
	return data
}

func (a *Admin) coverageFromPath(r *http.Request) (PortalCoverage, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return PortalCoverage{}, ErrNotFound
	}
	return a.Portal.Coverage(id)
}

func (a *Admin) handleMappingForm(w http.ResponseWriter, r *http.Request) {
	cov, err := a.coverageFromPath(r)
	if err != nil {
		a.render.RenderError(w, http.StatusNotFound, "coverage not found")
		return
	}
	a.show(w, r, http.StatusOK, "mapping.html", a.mappingData(r, cov, url.Values{}))
}

func (a *Admin) handleMappingSave(w http.ResponseWriter, r *http.Request) {
	cov, err := a.coverageFromPath(r)
	if err != nil {
		a.render.RenderError(w, http.StatusNotFound, "coverage not found")
		return
	}
	if err := r.ParseForm(); err != nil {
		a.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	if err := a.Portal.MapSupplier(cov.ID, r.PostFormValue("supplier"), r.PostFormValue("proportion")); err != nil {
		a.failure(w, r, "mapping.html", a.mappingData(r, cov, r.PostForm), err, "Exit")
		return
	}
	data := a.page(r, "Coverage Supplier Mapping")
	data["Modal"] = &modalView{
		Label:   "Coverage Supplier mapping",
		Message: "Coverage Supplier Mapping Created Successfully!",
		Entity:  "Coverage Supplier Mapping",
		Next:    fmt.Sprintf("/price-plan/new?coverage=%d", cov.ID),
	}
	a.show(w, r, http.StatusOK, "mapping.html", data)
}

// Price plan

func (a *Admin) pricePlanData(r *http.Request, cov PortalCoverage, form url.Values) map[string]any {
	data := a.page(r, "Client Price Plan")
	data["Form"] = form
	data["Coverage"] = cov
	if app, err := a.Portal.Application(cov.ApplicationID); err == nil {
		if client, err := a.Portal.Client(app.ClientID); err == nil {
			data["ClientName"] = client.Name
		}
	}
	data["Plan"] = selectView{
		ID: "price-plan-drpdwn", Name: "plan", Label: "Price Plan", Placeholder: "Select Price Plan",
		Control: controlFilled, Value: form.Get("plan"), Options: stringOptions(PricePlans),
	}
	return data
}

func (a *Admin) coverageFromQuery(r *http.Request) (PortalCoverage, error) {
	id, err := strconv.Atoi(r.FormValue("coverage"))
	if err != nil {
		return PortalCoverage{}, ErrNotFound
	}
	return a.Portal.Coverage(id)
}

func (a *Admin) handlePricePlanForm(w http.ResponseWriter, r *http.Request) {
	cov, err := a.coverageFromQuery(r)
	if err != nil {
		a.render.RenderError(w, http.StatusNotFound, "coverage not found")
		return
	}
	a.show(w, r, http.StatusOK, "price_plan.html", a.pricePlanData(r, cov, url.Values{}))
}

func (a *Admin) handlePricePlanCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	cov, err := a.coverageFromQuery(r)
	if err != nil {
		a.render.RenderError(w, http.StatusNotFound, "coverage not found")
		return
	}
	f := r.PostForm
	if _, err := a.Portal.CreatePricePlan(PricePlanInput{
		CoverageID:    cov.ID,
		Plan:          f.Get("plan"),
		Price:         f.Get("price"),
		EffectiveDate: f.Get("effective_date"),
	}); err != nil {
		a.failure(w, r, "price_plan.html", a.pricePlanData(r, cov, f), err, "Exit")
		return
	}

	next := "/password/new"
	if app, err := a.Portal.Application(cov.ApplicationID); err == nil {
		next = fmt.Sprintf("/password/new?client=%d&application=%d", app.ClientID, app.ID)
	}
	data := a.page(r, "Client Price Plan")
	data["Modal"] = &modalView{
		Label:   "Client Price Plan",
		Message: "Client Price Created Successfully!",
		Entity:  "Client Price Plan",
		Next:    next,
	}
	a.show(w, r, http.StatusOK, "price_plan.html", data)
}

// Password generation

func (a *Admin) passwordData(r *http.Request, form url.Values) map[string]any {
	data := a.page(r, "Password Generation")
	data["Form"] = form
	data["Client"] = selectView{
		ID: "client-drpdwn", Name: "client", Label: "Client", Placeholder: "Select Client",
		Value: form.Get("client"), Options: clientOptions(a.Portal.Clients("")),
	}
	data["Application"] = selectView{
		ID: "application-drpdwn", Name: "application", Label: "Application", Placeholder: "Select Application",
		DependsOn: "client-drpdwn", Value: form.Get("application"),
		Options: applicationOptions(a.Portal.Applications(0, "")),
	}
	return data
}

func (a *Admin) handlePasswordForm(w http.ResponseWriter, r *http.Request) {
	form := url.Values{}
	form.Set("client", r.URL.Query().Get("client"))
	form.Set("application", r.URL.Query().Get("application"))
	a.show(w, r, http.StatusOK, "password.html", a.passwordData(r, form))
}

func (a *Admin) handlePasswordGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render.RenderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	f := r.PostForm
	appID, _ := strconv.Atoi(f.Get("application"))
	cred, err := a.Portal.GeneratePassword(appID, f.Get("username"), f.Get("remarks"))
	if err != nil {
		a.failure(w, r, "password.html", a.passwordData(r, f), err, "Exit")
		return
	}
	obs.From(r.Context()).Info("password_generated", "pkg", "testsite", "application_id", cred.ApplicationID)

	data := a.page(r, "Password Generation")
	data["Modal"] = &modalView{
		Label:   "Password Generation",
		Message: "Password Generated Successfully",
		Entity:  "Password Generation",
		Next:    "/",
		Download: &downloadView{
			URL:  "/password/download/" + cred.Token,
			Name: cred.Username + "_credentials.txt",
		},
	}
	a.show(w, r, http.StatusOK, "password.html", data)
}

func (a *Admin) handlePasswordDownload(w http.ResponseWriter, r *http.Request) {
	cred, err := a.Portal.Credential(r.PathValue("token"))
	if err != nil {
		a.render.RenderError(w, http.StatusNotFound, "credential not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cred.Username+"_credentials.txt"))
	fmt.Fprintf(w, "username: %s\npassword: %s\n", cred.Username, cred.Password)
}

func optionalID(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}
