package leadscore

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embedded []byte

// KeywordSet is a named group of substrings; any hit counts once
type KeywordSet struct {
	Name     string   `yaml:"name"`
	Tag      string   `yaml:"tag"`
	Bonus    int      `yaml:"bonus"`
	Keywords []string `yaml:"keywords"`
}

// Completeness holds the per-field increments
type Completeness struct {
	FirstName       int `yaml:"first_name"`
	LastName        int `yaml:"last_name"`
	Company         int `yaml:"company"`
	Website         int `yaml:"website"`
	Phone           int `yaml:"phone"`
	Message         int `yaml:"message"`
	MessageMinRunes int `yaml:"message_min_runes"`
	WebsiteBonus    int `yaml:"website_bonus"`
}

// Rules is the scoring table set
type Rules struct {
	Version      int            `yaml:"version"`
	Sources      map[string]int `yaml:"sources"`
	Services     map[string]int `yaml:"services"`
	Completeness Completeness   `yaml:"completeness"`
	Intent       []KeywordSet   `yaml:"intent"`
	Industries   []KeywordSet   `yaml:"industries"`
}

// Parse decodes and validates a YAML rule table
func Parse(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("leadscore: decode rules: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Rules) validate() error {
	if r.Version == 0 {
		return fmt.Errorf("leadscore: rules version missing")
	}
	for k, v := range r.Sources {
		if v < 0 {
			return fmt.Errorf("leadscore: source %q has negative score", k)
		}
	}
	for k, v := range r.Services {
		if v < 0 {
			return fmt.Errorf("leadscore: service %q has negative score", k)
		}
	}
	for _, set := range r.Intent {
		if set.Tag == "" || set.Bonus < 0 || len(set.Keywords) == 0 {
			return fmt.Errorf("leadscore: intent set %q incomplete", set.Name)
		}
	}
	for _, set := range r.Industries {
		if set.Name == "" || len(set.Keywords) == 0 {
			return fmt.Errorf("leadscore: industry %q incomplete", set.Name)
		}
	}
	return nil
}

var loadDefault = sync.OnceValues(func() (*Rules, error) { return Parse(embedded) })

// Load returns the embedded rule table
func Load() (*Rules, error) { return loadDefault() }
