// Package templates holds the notification bodies, embedded into the binary.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"path"
	"strings"
	texttemplate "text/template"
)

//go:embed files/*
var files embed.FS

// ItemLine is one rendered order line.
type ItemLine struct {
	Name      string
	Quantity  int
	LineTotal string
}

// OrderData is the view every template renders against.
type OrderData struct {
	OrderNumber    string
	CustomerName   string
	FarmName       string
	Status         string
	PreviousStatus string
	Items          []ItemLine
	DeliveryFee    string
	Total          string
	DeliveryDate   string
	DeliveryNotes  string
	Note           string
}

// Set is the parsed collection of templates, keyed by file name.
type Set struct {
	html map[string]*htmltemplate.Template
	text map[string]*texttemplate.Template
}

// Load parses every embedded template. .html files are HTML-escaped, .txt files
// are rendered as plain text for SMS.
func Load() (*Set, error) {
	entries, err := files.ReadDir("files")
	if err != nil {
		return nil, err
	}
	set := &Set{
		html: make(map[string]*htmltemplate.Template),
		text: make(map[string]*texttemplate.Template),
	}
	for _, e := range entries {
		name := e.Name()
		p := path.Join("files", name)
		switch {
		case strings.HasSuffix(name, ".html"):
			t, err := htmltemplate.ParseFS(files, p)
			if err != nil {
				return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
			}
			set.html[name] = t
		case strings.HasSuffix(name, ".txt"):
			t, err := texttemplate.ParseFS(files, p)
			if err != nil {
				return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
			}
			set.text[name] = t
		}
	}
	return set, nil
}

func (s *Set) Render(name string, data OrderData) (string, error) {
	var buf bytes.Buffer
	if t, ok := s.html[name]; ok {
		if err := t.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("template render failed: %w", err)
		}
		return buf.String(), nil
	}
	if t, ok := s.text[name]; ok {
		if err := t.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("template render failed: %w", err)
		}
		return strings.TrimSpace(buf.String()), nil
	}
	return "", fmt.Errorf("unknown template %q", name)
}

// Has reports whether a template with the given file name exists.
func (s *Set) Has(name string) bool {
	_, h := s.html[name]
	_, t := s.text[name]
	return h || t
}

// FormatPence renders minor units as pounds, e.g. 1250 -> "£12.50".
func FormatPence(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s£%d.%02d", sign, minor/100, minor%100)
}
