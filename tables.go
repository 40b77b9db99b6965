package cs4teachers

import (
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

// ResourceTableClass is the CSS class applied to rendered resource tables.
const ResourceTableClass = "table"

// TableColumn is a column header of a rendered table.
type TableColumn struct {
	Key   string
	Label string
}

// ResourceRow is one row of the public resource listing.
type ResourceRow struct {
	Name        string
	URL         templ.SafeURL
	Description string
	Image       string
}

// ResourceTable is the projection of resources shown on /events/resources/.
type ResourceTable struct {
	Class   string
	Columns []TableColumn
	Rows    []ResourceRow
}

// NewResourceTable projects resources into rows of (name linked to url,
// description). Links with a scheme other than http, https or mailto are
// dropped so the name renders as plain text.
func NewResourceTable(resources []Resource) ResourceTable {
	t := ResourceTable{
		Class: ResourceTableClass,
		Columns: []TableColumn{
			{Key: "name", Label: "Name"},
			{Key: "description", Label: "Description"},
		},
		Rows: make([]ResourceRow, 0, len(resources)),
	}
	for _, r := range resources {
		t.Rows = append(t.Rows, ResourceRow{
			Name:        r.Name,
			URL:         safeLink(r.URL),
			Description: PlainText(r.Description),
			Image:       r.Image,
		})
	}
	return t
}

func safeLink(raw string) templ.SafeURL {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return templ.SafeURL(u.String())
	}
	return ""
}
