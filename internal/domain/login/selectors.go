package login

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// FieldSelectors lists CSS selectors probed in order for one strategy.
type FieldSelectors struct {
	Username []string `yaml:"username"`
	Password []string `yaml:"password"`
	Submit   []string `yaml:"submit"`
}

// Selectors holds the probe lists of every strategy.
type Selectors struct {
	Direct      FieldSelectors `yaml:"direct"`
	Enhanced    FieldSelectors `yaml:"enhanced"`
	Frames      FieldSelectors `yaml:"frames"`
	Script      FieldSelectors `yaml:"script"`
	SubmitTexts []string       `yaml:"submitTexts"`
}

// DefaultSelectors returns the built-in probe lists.
func DefaultSelectors() Selectors {
	return Selectors{
		Direct: FieldSelectors{
			Username: []string{
				"#Username", "#username", "#email", "#Email", "#user", "#login",
				`input[name="email"]`, `input[name="username"]`, `input[type="email"]`,
			},
			Password: []string{
				"#password", "#Password", "#pass", "#Pass",
				`input[name="password"]`, `input[type="password"]`,
			},
			Submit: []string{
				`button[value="login"]`,
				`button[type="submit"]`,
				`input[type="submit"]`,
				`button[class*="login"]`,
				`button[class*="submit"]`,
				"#login-button",
				"#submit-button",
				".login-btn",
				".submit-btn",
			},
		},
		Enhanced: FieldSelectors{
			Username: []string{
				`input[type="email"]`,
				`input[name="email"]`,
				`input[name="username"]`,
				`input[name="user"]`,
				`input[name="login"]`,
				`input[name="Email"]`,
				`input[name="Username"]`,
				`input[id="email"]`,
				`input[id="username"]`,
				`input[id="user"]`,
				`input[id="login"]`,
				`input[id="Email"]`,
				`input[id="Username"]`,
				"#email",
				"#username",
				"#user",
				"input.email",
				"input.username",
				`input[class*="email"]`,
				`input[class*="username"]`,
				`input[class*="user"]`,
				`input[placeholder*="email" i]`,
				`input[placeholder*="username" i]`,
				`input[placeholder*="Email"]`,
				`input[aria-label*="email" i]`,
				`input[aria-label*="username" i]`,
				`form input[type="text"]:first-of-type`,
				`.login-form input[type="text"]`,
				`.signin-form input[type="text"]`,
				`[class*="login"] input[type="text"]`,
			},
			Password: []string{
				`input[type="password"]`,
				`input[name="password"]`,
				`input[name="pass"]`,
				`input[name="Password"]`,
				`input[id="password"]`,
				`input[id="pass"]`,
				`input[id="Password"]`,
				"#password",
				"#pass",
				"input.password",
				`input[class*="password"]`,
				`input[class*="pass"]`,
				`input[placeholder*="password" i]`,
				`input[placeholder*="Password"]`,
				`input[aria-label*="password" i]`,
			},
			Submit: []string{
				`button[type="submit"]`,
				`input[type="submit"]`,
				`button[class*="login"]`,
				`button[class*="submit"]`,
				`button[class*="signin"]`,
				`button[id*="login"]`,
				`button[id*="submit"]`,
				".login-btn",
				".submit-btn",
				".signin-btn",
				"#login-btn",
				"#submit-btn",
				"form button:last-of-type",
				"form button",
				".login-form button",
				".signin-form button",
			},
		},
		Frames: FieldSelectors{
			Username: []string{`input[type="email"], input[name="email"], input[name="username"]`},
			Password: []string{`input[type="password"]`},
			Submit:   []string{`button[type="submit"], input[type="submit"]`},
		},
		Script: FieldSelectors{
			Username: []string{
				`input[type="email"]`,
				`input[name="email"]`,
				`input[name="username"]`,
				`input[placeholder*="email" i]`,
				`input[placeholder*="username" i]`,
			},
			Password: []string{`input[type="password"]`},
			Submit:   []string{`button[type="submit"], input[type="submit"]`},
		},
		SubmitTexts: []string{"sign in", "log in", "login", "submit", "enter"},
	}
}

// LoadSelectors reads a YAML override file. Entries from the file are
// probed before the built-in ones for the same list.
func LoadSelectors(path string) (Selectors, error) {
	defaults := DefaultSelectors()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("read selectors: %w", err)
	}

	var override Selectors
	if err := yaml.Unmarshal(data, &override); err != nil {
		return defaults, fmt.Errorf("parse selectors %s: %w", path, err)
	}

	return Selectors{
		Direct:      mergeFields(override.Direct, defaults.Direct),
		Enhanced:    mergeFields(override.Enhanced, defaults.Enhanced),
		Frames:      mergeFields(override.Frames, defaults.Frames),
		Script:      mergeFields(override.Script, defaults.Script),
		SubmitTexts: merge(override.SubmitTexts, defaults.SubmitTexts),
	}, nil
}

func mergeFields(first, then FieldSelectors) FieldSelectors {
	return FieldSelectors{
		Username: merge(first.Username, then.Username),
		Password: merge(first.Password, then.Password),
		Submit:   merge(first.Submit, then.Submit),
	}
}

// merge concatenates lists, dropping duplicates and keeping first position.
func merge(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range lists {
		for _, s := range l {
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
