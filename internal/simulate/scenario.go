// Package simulate replays scripted user journeys against an HTML page with
// a tracker attached. Time is simulated: "advance" steps move the fake clock
// and fire whatever timers fall due.
package simulate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gosight/gosight/tracker/internal/config"
	"github.com/gosight/gosight/tracker/internal/tracker"
)

var ErrNoPage = errors.New("scenario has no page")

// Scenario is one scripted visit.
type Scenario struct {
	Name           string         `yaml:"name"`
	Page           string         `yaml:"page"`
	PageFile       string         `yaml:"page_file"`
	URL            string         `yaml:"url"`
	Referrer       string         `yaml:"referrer"`
	UserAgent      string         `yaml:"user_agent"`
	Viewport       Viewport       `yaml:"viewport"`
	DocumentHeight float64        `yaml:"document_height"`
	Start          time.Time      `yaml:"start"`
	Tracker        config.Config  `yaml:"tracker"`
	Rules          []tracker.Rule `yaml:"rules"`
	Steps          []Step         `yaml:"steps"`
}

type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Step is one user action. Which fields apply depends on Action.
type Step struct {
	Action     string         `yaml:"action"`
	Selector   string         `yaml:"selector"`
	Value      string         `yaml:"value"`
	URL        string         `yaml:"url"`
	Top        float64        `yaml:"top"`
	X          float64        `yaml:"x"`
	Y          float64        `yaml:"y"`
	Width      float64        `yaml:"width"`
	Height     float64        `yaml:"height"`
	Duration   time.Duration  `yaml:"duration"`
	Position   float64        `yaml:"position"`
	Length     float64        `yaml:"length"`
	Message    string         `yaml:"message"`
	Name       string         `yaml:"name"`
	Properties map[string]any `yaml:"properties"`
	Repeat     int            `yaml:"repeat"`
}

// Load reads a scenario file. Environment variables are expanded and a
// page_file is resolved relative to the scenario.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Page == "" && sc.PageFile != "" {
		pagePath := sc.PageFile
		if !filepath.IsAbs(pagePath) {
			pagePath = filepath.Join(filepath.Dir(path), pagePath)
		}
		page, err := os.ReadFile(pagePath)
		if err != nil {
			return nil, err
		}
		sc.Page = string(page)
	}
	if sc.Page == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPage)
	}
	return sc, nil
}

// Parse decodes a scenario over the tracker defaults.
func Parse(data []byte) (*Scenario, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	sc := Scenario{Tracker: config.Default()}
	if err := yaml.Unmarshal([]byte(expanded), &sc); err != nil {
		return nil, err
	}
	if sc.Tracker.APIKey == "" {
		sc.Tracker.APIKey = "pk_simulated"
	}
	if sc.URL == "" {
		sc.URL = "http://localhost/"
	}
	for i, st := range sc.Steps {
		if _, ok := actions[st.Action]; !ok {
			return nil, fmt.Errorf("step %d: unknown action %q", i+1, st.Action)
		}
	}
	return &sc, nil
}
