package login

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FormHints are selectors derived from the live document for controls
// that look like a login form.
type FormHints struct {
	Username []string
	Password []string
	Submit   []string
}

// Empty reports whether no login-looking control was found.
func (h FormHints) Empty() bool {
	return len(h.Username) == 0 && len(h.Password) == 0
}

var (
	cssIdent     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
	userKeywords = []string{"user", "email", "login", "account", "mail", "ident"}
	textualTypes = map[string]bool{"": true, "text": true, "email": true, "tel": true}
)

// AnalyzeForms finds login-like inputs in html. Inputs that share a
// container with a password field come first.
func AnalyzeForms(html string) (FormHints, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return FormHints{}, fmt.Errorf("parse html: %w", err)
	}

	var hints FormHints
	var loose []string

	containers := doc.Find("form")
	if containers.Length() == 0 {
		containers = doc.Find("body")
	}

	containers.Each(func(_ int, form *goquery.Selection) {
		passwords := form.Find(`input[type="password"]`)
		hasPassword := passwords.Length() > 0

		passwords.Each(func(_ int, s *goquery.Selection) {
			if usable(s) {
				if sel := selectorFor(s); sel != "" {
					hints.Password = append(hints.Password, sel)
				}
			}
		})

		form.Find("input").Each(func(_ int, s *goquery.Selection) {
			if !usable(s) || !textualTypes[strings.ToLower(s.AttrOr("type", ""))] {
				return
			}
			sel := selectorFor(s)
			if sel == "" {
				return
			}
			switch {
			case hasPassword && looksLikeUsername(s):
				hints.Username = append(hints.Username, sel)
			case hasPassword:
				loose = append(loose, sel)
			case looksLikeUsername(s):
				loose = append(loose, sel)
			}
		})

		if !hasPassword {
			return
		}
		form.Find(`button, input[type="submit"]`).Each(func(_ int, s *goquery.Selection) {
			if t := strings.ToLower(s.AttrOr("type", "submit")); t != "submit" || !usable(s) {
				return
			}
			if sel := selectorFor(s); sel != "" {
				hints.Submit = append(hints.Submit, sel)
			}
		})
	})

	hints.Username = merge(hints.Username, loose)
	hints.Password = merge(hints.Password)
	hints.Submit = merge(hints.Submit)
	return hints, nil
}

func usable(s *goquery.Selection) bool {
	_, disabled := s.Attr("disabled")
	_, hidden := s.Attr("hidden")
	return !disabled && !hidden
}

func looksLikeUsername(s *goquery.Selection) bool {
	if strings.EqualFold(s.AttrOr("type", ""), "email") {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{
		s.AttrOr("name", ""),
		s.AttrOr("id", ""),
		s.AttrOr("placeholder", ""),
		s.AttrOr("autocomplete", ""),
		s.AttrOr("aria-label", ""),
	}, " "))
	for _, k := range userKeywords {
		if strings.Contains(haystack, k) {
			return true
		}
	}
	return false
}

// selectorFor builds a selector that addresses s by id, else by name.
func selectorFor(s *goquery.Selection) string {
	tag := goquery.NodeName(s)
	if id := s.AttrOr("id", ""); id != "" {
		if cssIdent.MatchString(id) {
			return "#" + id
		}
		return fmt.Sprintf(`%s[id="%s"]`, tag, cssQuote(id))
	}
	if name := s.AttrOr("name", ""); name != "" {
		return fmt.Sprintf(`%s[name="%s"]`, tag, cssQuote(name))
	}
	return ""
}

func cssQuote(v string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
}
