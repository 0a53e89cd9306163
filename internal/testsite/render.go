package testsite

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"
)

// Renderer manages HTML template rendering for one site. Every page template
// is parsed together with the site's layout, which defines "base" (full
// chrome) and "base_public" (no navigation).
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	mu        sync.RWMutex
}

// NewRenderer parses <dir>/layout.html with each other .html file in dir.
// Template names are the file names relative to dir, e.g. "login.html".
func NewRenderer(fsys fs.FS, dir string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap:   createFuncMap(),
	}
	if err := r.parseTemplates(fsys, dir); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return r, nil
}

// Render executes the named page inside the full layout.
func (r *Renderer) Render(w http.ResponseWriter, templateName string, data any) error {
	return r.execute(w, http.StatusOK, templateName, "base", data)
}

// RenderStatus is Render with an explicit status code.
func (r *Renderer) RenderStatus(w http.ResponseWriter, code int, templateName string, data any) error {
	return r.execute(w, code, templateName, "base", data)
}

// RenderPublic executes the named page inside the minimal layout.
func (r *Renderer) RenderPublic(w http.ResponseWriter, templateName string, data any) error {
	return r.execute(w, http.StatusOK, templateName, "base_public", data)
}

// RenderError renders a plain error response.
func (r *Renderer) RenderError(w http.ResponseWriter, code int, message string) {
	http.Error(w, fmt.Sprintf("Error %d: %s", code, message), code)
}

func (r *Renderer) execute(w http.ResponseWriter, code int, templateName, layout string, data any) error {
	r.mu.RLock()
	tmpl, ok := r.templates[templateName]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", templateName)
	}

	// Render to a buffer first so a template error never leaves half a page.
	var buf strings.Builder
	if err := tmpl.ExecuteTemplate(&buf, layout, data); err != nil {
		return fmt.Errorf("failed to execute template %q: %w", templateName, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, err := w.Write([]byte(buf.String()))
	return err
}

func (r *Renderer) parseTemplates(fsys fs.FS, dir string) error {
	layout, err := fs.ReadFile(fsys, path.Join(dir, "layout.html"))
	if err != nil {
		return fmt.Errorf("failed to read layout: %w", err)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read templates dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "layout.html" || !strings.HasSuffix(name, ".html") {
			continue
		}
		page, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", name, err)
		}

		tmpl, err := template.New("layout").Funcs(r.funcMap).Parse(string(layout))
		if err != nil {
			return fmt.Errorf("failed to parse layout for %s: %w", name, err)
		}
		// The page overrides the "content" block.
		if tmpl, err = tmpl.Parse(string(page)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}

		r.mu.Lock()
		r.templates[name] = tmpl
		r.mu.Unlock()
	}

	if len(r.templates) == 0 {
		return fmt.Errorf("no templates found in %s", dir)
	}
	return nil
}

func createFuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": formatDate,
		"truncate":   truncate,
		"add":        add,
		"fieldError": fieldError,
	}
}

// formatDate renders t in the portal's yyyy-mm-dd form.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// truncate shortens s to n runes, adding "..." when it cuts.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func add(a, b int) int {
	return a + b
}

// fieldError looks up a field's validation message. errors may be absent
// from the page data.
func fieldError(errors any, field string) string {
	m, _ := errors.(map[string]string)
	return m[field]
}
