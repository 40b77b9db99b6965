package cs4teachers

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all markup. Used for names and other plain text.
	strictPolicy = bluemonday.StrictPolicy()

	// richTextPolicy keeps the formatting a rich-text editor produces
	// (paragraphs, emphasis, lists, links, headings, tables, images) and
	// drops scripts, event handlers and inline styles.
	richTextPolicy = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.RequireNoFollowOnLinks(false)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		return p
	}()
)

// PlainText strips all HTML from s. Entities are decoded so that templates
// escape the result exactly once.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// RichText sanitizes HTML produced by the rich-text widget.
func RichText(s string) string {
	return strings.TrimSpace(richTextPolicy.Sanitize(s))
}

func (l *Location) sanitize() {
	l.Name = PlainText(l.Name)
	l.Description = RichText(l.Description)
	l.Address = PlainText(l.Address)
	l.Geolocation = strings.ReplaceAll(PlainText(l.Geolocation), " ", "")
}

func (s *Series) sanitize() {
	s.Name = PlainText(s.Name)
	s.Subtitle = PlainText(s.Subtitle)
	s.Description = PlainText(s.Description)
}

func (s *Sponsor) sanitize() {
	s.Name = PlainText(s.Name)
	s.URL = strings.TrimSpace(s.URL)
}

func (r *Resource) sanitize() {
	r.Name = PlainText(r.Name)
	r.URL = strings.TrimSpace(r.URL)
	r.Description = RichText(r.Description)
}

func (e *Event) sanitize() {
	e.Name = PlainText(e.Name)
	e.Description = RichText(e.Description)
}

func (e *ThirdPartyEvent) sanitize() {
	e.Name = PlainText(e.Name)
	e.Description = RichText(e.Description)
	e.URL = strings.TrimSpace(e.URL)
}

func (s *Session) sanitize() {
	s.Name = PlainText(s.Name)
	s.Description = RichText(s.Description)
}
