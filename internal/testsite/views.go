package testsite

import "strconv"

// Control classes of the dropdowns on the live portal. Both appear in
// recorded selectors, so the double renders the same ones.
const (
	controlDefault = "css-13cymwt-control"
	controlFilled  = "css-my3gbk-control"
)

// selectView renders a react-select style dropdown: a container with the
// portal's generated class names, a combobox input, a role=listbox menu and
// a hidden input carrying the chosen value.
type selectView struct {
	ID          string // container id, e.g. client-drpdwn; empty for none
	Name        string // form field name of the hidden input
	Label       string // accessible name of the combobox
	Placeholder string
	Control     string
	DependsOn   string // container id whose value filters Options by Parent
	AutoSubmit  bool
	Value       string
	Options     []optionView
}

type optionView struct {
	Value  string
	Label  string
	Parent string
}

// Selected is the label of the chosen option, or "".
func (s selectView) Selected() string {
	for _, o := range s.Options {
		if o.Value == s.Value && s.Value != "" {
			return o.Label
		}
	}
	return ""
}

// ControlClass is the class of the control element.
func (s selectView) ControlClass() string {
	if s.Control != "" {
		return s.Control
	}
	return controlDefault
}

func stringOptions(values []string) []optionView {
	out := make([]optionView, len(values))
	for i, v := range values {
		out[i] = optionView{Value: v, Label: v}
	}
	return out
}

func clientOptions(clients []PortalClient) []optionView {
	out := make([]optionView, len(clients))
	for i, c := range clients {
		out[i] = optionView{Value: strconv.Itoa(c.ID), Label: c.Name}
	}
	return out
}

func applicationOptions(apps []PortalApplication) []optionView {
	out := make([]optionView, len(apps))
	for i, a := range apps {
		out[i] = optionView{Value: strconv.Itoa(a.ID), Label: a.Name, Parent: strconv.Itoa(a.ClientID)}
	}
	return out
}

// modalView is the result dialog shown after a successful submit.
type modalView struct {
	Label    string // aria-label, e.g. "Application"
	Message  string
	Entity   string // completes "Continue on <Entity>"
	Next     string
	Download *downloadView
}

type downloadView struct {
	URL  string
	Name string
}

// problemView is the error popup shown when the API rejects a submit.
type problemView struct {
	Message string
	Button  string // "OK" or "Exit"
}
