// Package bootstrap reads the data a host page embeds for the first render: the
// initial analytics payload and the option lists of the two filter controls.
//
// The page carries the payload as
//
//	<script id="analytics-bootstrap" type="application/json">{...}</script>
//
// with the same shape the analytics endpoint returns, and the filters as
// <select id="city"> and <select id="type">.
package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/iafilius/JobAnalytics/src/types"
)

// ErrNoBootstrap is returned when the page has no embedded payload.
var ErrNoBootstrap = errors.New("page has no analytics bootstrap data")

// ScriptSelector locates the embedded payload.
const ScriptSelector = `script#analytics-bootstrap`

// FilterOptions lists the values offered by the filter controls.
type FilterOptions struct {
	Cities []string `json:"cities"`
	Types  []string `json:"types"`
}

// Page is the parsed host page.
type Page struct {
	Payload types.Payload
	Options FilterOptions
}

// FromHTML parses a host page.
func FromHTML(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	script := doc.Find(ScriptSelector).First()
	if script.Length() == 0 {
		return nil, ErrNoBootstrap
	}
	raw := strings.TrimSpace(script.Text())
	if raw == "" {
		return nil, ErrNoBootstrap
	}
	p, err := types.DecodePayload([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("bootstrap payload: %w", err)
	}
	return &Page{
		Payload: p,
		Options: FilterOptions{
			Cities: optionValues(doc, "select#city option"),
			Types:  optionValues(doc, "select#type option"),
		},
	}, nil
}

// FromFile parses the host page at path.
func FromFile(path string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer f.Close()
	return FromHTML(f)
}

// optionValues returns the non-empty option values in document order; the
// empty "All" option stands for no filter and is skipped. An option without a
// value attribute uses its text, as browsers do.
func optionValues(doc *goquery.Document, sel string) []string {
	var out []string
	seen := map[string]bool{}
	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		v, ok := s.Attr("value")
		if !ok {
			v = s.Text()
		}
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	})
	return out
}
