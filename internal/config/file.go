package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const defaultSettingsFile = "e2e.yaml"

// settingsFile is the optional YAML file checked into a working copy.
//
//	env:
//	  BASE_URL: https://www.automationexercise.com/
//	projects:
//	  - name: mobile-chrome
//	    browser: chromium
//	    device: Pixel 5
//	report:
//	  title: Nightly regression
type settingsFile struct {
	Env      map[string]string `yaml:"env"`
	Projects []ProjectSpec     `yaml:"projects"`
	Report   ReportMeta        `yaml:"report"`
}

// loadSettingsFile reads path (relative to root). An empty path falls back to
// e2e.yaml, which may be absent; an explicit path must exist.
func loadSettingsFile(root, path string) (*settingsFile, error) {
	explicit := path != ""
	if !explicit {
		path = defaultSettingsFile
	}
	full := resolvePath(root, path)

	data, err := os.ReadFile(full)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &settingsFile{}, nil
		}
		return nil, fmt.Errorf("read settings file %s: %w", full, err)
	}

	var s settingsFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", filepath.Base(full), err)
	}
	for i, p := range s.Projects {
		if p.Name == "" {
			return nil, fmt.Errorf("parse settings file %s: project %d has no name", filepath.Base(full), i+1)
		}
		if p.Browser == "" {
			s.Projects[i].Browser = p.Name
		}
	}
	return &s, nil
}

// exportEnv publishes file-level env values that the process environment and
// .env did not already set.
func (s *settingsFile) exportEnv() {
	keys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := os.LookupEnv(k); ok {
			continue
		}
		_ = os.Setenv(k, s.Env[k])
	}
}

// apply overlays structured settings. Matching environment variables win
// over the file.
func (s *settingsFile) apply(cfg *Config) {
	if len(s.Projects) > 0 && os.Getenv("PROJECTS") == "" {
		cfg.Projects = append([]ProjectSpec(nil), s.Projects...)
	}
	overlay := func(dst *string, v, key string) {
		if v != "" && os.Getenv(key) == "" {
			*dst = v
		}
	}
	overlay(&cfg.Report.Title, s.Report.Title, "REPORT_TITLE")
	overlay(&cfg.Report.Author, s.Report.Author, "REPORT_AUTHOR")
	overlay(&cfg.Report.Project, s.Report.Project, "REPORT_PROJECT")
	overlay(&cfg.Report.Release, s.Report.Release, "REPORT_RELEASE")
	overlay(&cfg.Report.Platform, s.Report.Platform, "REPORT_PLATFORM")
	overlay(&cfg.Report.TestCycle, s.Report.TestCycle, "REPORT_TEST_CYCLE")
}
