// Package views holds the default templ components for a cs4teachers site.
package views

//go:generate templ generate

import (
	"net/url"
	"strconv"
	"strings"

	cs4t "github.com/uccser/cs4teachers"
)

// Default returns the full set of components used by cmd/cs4teachers.
func Default() cs4t.ViewFuncs {
	return cs4t.ViewFuncs{
		Home:            Home,
		EventIndex:      EventIndex,
		Event:           EventDetail,
		Series:          SeriesDetail,
		Location:        LocationDetail,
		ThirdPartyEvent: ThirdPartyEventDetail,
		Resources:       Resources,
		AdminLogin:      AdminLogin,
		AdminDashboard:  AdminDashboard,
		AdminList:       AdminList,
		AdminForm:       AdminForm,
		NotFound:        NotFound,
		ServerError:     ServerError,
	}
}

type layoutProps struct {
	Site   cs4t.SiteInfo
	Meta   cs4t.PageMeta
	JSONLD string
	Admin  bool
}

func mapsScriptURL(key string) string {
	return "https://maps.googleapis.com/maps/api/js?key=" + url.QueryEscape(key) + "&callback=cs4tAdminInit"
}

// paragraphs splits plain text on blank lines, keeping single line breaks.
func paragraphs(text string) [][]string {
	var out [][]string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			out = append(out, strings.Split(para, "\n"))
		}
	}
	return out
}

func adminTitle(site cs4t.SiteInfo, title string) string {
	return title + " | " + site.Name + " admin"
}

func kindPath(kind cs4t.EntityKind) string { return "/admin/" + string(kind) + "/" }

func editPath(kind cs4t.EntityKind, id int64) string {
	return kindPath(kind) + strconv.FormatInt(id, 10) + "/"
}

// initialForms counts the inline forms bound to stored rows.
func initialForms(in cs4t.InlineFormset) int {
	n := 0
	for _, f := range in.Forms {
		if f.ID != 0 {
			n++
		}
	}
	return n
}
