// Package extract locates the serialized Nuxt payload inside a rendered HTML
// document. It covers the two places Nuxt applications put it: the
// __NUXT_DATA__ script element (Nuxt 3) and an inline window.__NUXT__
// assignment (Nuxt 2 and some Nuxt 3 configurations). The package only finds
// and returns the raw text; hydrating it is the nuxt package's job.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ElementID is the id of the script element Nuxt 3 embeds its payload in.
const ElementID = "__NUXT_DATA__"

// ErrNoNuxtData is returned when a document carries no recognizable payload.
var ErrNoNuxtData = errors.New("no nuxt payload found in document")

// Method identifies where in the page a payload came from.
type Method string

const (
	// MethodElement means the __NUXT_DATA__ script element.
	MethodElement Method = "element"

	// MethodWindow means an inline window.__NUXT__ assignment.
	MethodWindow Method = "window"
)

// Extraction is a located payload: the raw text ready for hydration plus
// which mechanism produced it.
type Extraction struct {
	Raw    string
	Method Method
}

// FromHTML parses the document and returns the first payload found. The
// element form is preferred; the window form is only usable when the assigned
// value is literal JSON, since this package does not evaluate JavaScript.
func FromHTML(r io.Reader) (*Extraction, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	scripts := collectScripts(doc)

	for _, s := range scripts {
		if s.id == ElementID && strings.TrimSpace(s.text) != "" {
			return &Extraction{Raw: s.text, Method: MethodElement}, nil
		}
	}

	for _, s := range scripts {
		if raw, ok := windowPayload(s.text); ok {
			return &Extraction{Raw: raw, Method: MethodWindow}, nil
		}
	}

	return nil, ErrNoNuxtData
}

// FromString is FromHTML over an in-memory document.
func FromString(doc string) (*Extraction, error) {
	return FromHTML(strings.NewReader(doc))
}

type script struct {
	id   string
	text string
}

func collectScripts(doc *html.Node) []script {
	var scripts []script

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			var id, src string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "id":
					id = attr.Val
				case "src":
					src = attr.Val
				}
			}
			// external scripts carry no inline payload
			if src == "" {
				scripts = append(scripts, script{id: id, text: textContent(n)})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return scripts
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

var windowAssignment = regexp.MustCompile(`window\.__NUXT__\s*=`)

// windowPayload pulls a literal JSON value out of a window.__NUXT__
// assignment. Builds that assign the result of a function call cannot be
// recovered statically and are skipped.
func windowPayload(text string) (string, bool) {
	loc := windowAssignment.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	rest := strings.TrimSpace(text[loc[1]:])

	// decode exactly one JSON value so trailing statements in the same
	// script do not matter
	dec := json.NewDecoder(strings.NewReader(rest))
	var value any
	if err := dec.Decode(&value); err != nil {
		return "", false
	}

	return strings.TrimSpace(rest[:dec.InputOffset()]), true
}
