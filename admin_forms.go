package cs4teachers

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SelectOption is one choice of a select or multi-select field.
type SelectOption struct {
	Value string
	Label string
}

// AdminLoginPage is the data for the admin login form.
type AdminLoginPage struct {
	Site      SiteInfo
	ShowError bool
	CSRFToken string
}

// AdminDashboardPage lists the registered models.
type AdminDashboardPage struct {
	Site      SiteInfo
	Models    []ModelAdmin
	Message   string
	CSRFToken string
}

// AdminRow is one record on a change list.
type AdminRow struct {
	ID      int64
	Cells   []string
	ViewURL string
}

// AdminFilter is a list filter rendered beside the change list.
type AdminFilter struct {
	Field    string
	Label    string
	Options  []SelectOption
	Selected string
}

// AdminListPage is the change list of one model.
type AdminListPage struct {
	Site       SiteInfo
	Model      ModelAdmin
	Columns    []string
	Rows       []AdminRow
	Query      string
	Searchable bool
	Filters    []AdminFilter
	Message    string
	CSRFToken  string
}

// FormField is one rendered input.
type FormField struct {
	Name     string // input name, including any inline prefix
	Label    string
	Widget   Widget
	Value    string
	Values   []string
	Options  []SelectOption
	Checked  bool
	Vertical bool
	Error    string
	MediaURL string
}

// FormFieldset is a rendered Fieldset.
type FormFieldset struct {
	Name      string
	Collapsed bool
	Fields    []FormField
}

// InlineForm is one child record on a parent form.
type InlineForm struct {
	Prefix string
	ID     int64
	Fields []FormField
	Delete bool
}

// InlineFormset is the set of child forms for one InlineAdmin.
type InlineFormset struct {
	Kind   EntityKind
	Label  string
	Prefix string
	Forms  []InlineForm
}

// AdminFormPage is the add or change form of one model.
type AdminFormPage struct {
	Site           SiteInfo
	Model          ModelAdmin
	ID             int64
	Title          string
	Action         string
	ViewURL        string
	Fieldsets      []FormFieldset
	Inlines        []InlineFormset
	NonFieldErrors []string
	Message        string
	CSRFToken      string
}

// inlinePrefix is the input name prefix of the inline formset for kind.
func inlinePrefix(kind EntityKind) string {
	switch kind {
	case KindSession:
		return "sessions"
	default:
		return string(kind)
	}
}

// totalKey holds the number of inline forms posted for a prefix.
func totalKey(prefix string) string { return prefix + "-TOTAL_FORMS" }

// initialKey holds the number of stored child records loaded for a prefix.
func initialKey(prefix string) string { return prefix + "-INITIAL_FORMS" }

// fieldLabel turns a field name into a form label.
func fieldLabel(field string) string {
	switch field {
	case "url":
		return "URL"
	case "is_published":
		return "Published"
	}
	s := strings.ReplaceAll(field, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// formBuilder turns form values and errors into rendered fields, tracking
// which errors found a field to attach to.
type formBuilder struct {
	model   ModelAdmin
	values  url.Values
	choices map[string][]SelectOption
	errs    map[string]string
	used    map[string]bool
}

func newFormBuilder(m ModelAdmin, values url.Values, choices map[string][]SelectOption, errs map[string]string) *formBuilder {
	if values == nil {
		values = url.Values{}
	}
	return &formBuilder{model: m, values: values, choices: choices, errs: errs, used: map[string]bool{}}
}

func (b *formBuilder) field(prefix, name string, vertical []string) FormField {
	key := prefix + name
	f := FormField{
		Name:     key,
		Label:    fieldLabel(name),
		Widget:   b.model.WidgetFor(name),
		Vertical: contains(vertical, name),
	}
	if msg, ok := b.errs[key]; ok {
		f.Error = msg
		b.used[key] = true
	}
	switch f.Widget {
	case WidgetCheckbox:
		f.Checked = isTruthy(b.values.Get(key))
	case WidgetMultiSelect:
		f.Values = b.values[key]
		f.Options = b.choices[name]
	case WidgetSelect:
		f.Value = b.values.Get(key)
		f.Options = b.choices[name]
	case WidgetImage:
		f.Value = b.values.Get(key + "-current")
		f.MediaURL = MediaURL(f.Value)
	default:
		f.Value = b.values.Get(key)
	}
	return f
}

func (b *formBuilder) fieldsets() []FormFieldset {
	var out []FormFieldset
	for _, fs := range b.model.FormFieldsets() {
		rendered := FormFieldset{Name: fs.Name, Collapsed: fs.Collapsed}
		for _, name := range fs.Fields {
			rendered.Fields = append(rendered.Fields, b.field("", name, b.model.FilterVertical))
		}
		out = append(out, rendered)
	}
	return out
}

// inline renders the existing child forms in values plus the configured
// number of blank ones.
func (b *formBuilder) inline(site *AdminSite, in InlineAdmin, parentField string) InlineFormset {
	child, _ := site.Model(in.Kind)
	prefix := inlinePrefix(in.Kind)
	set := InlineFormset{Kind: in.Kind, Label: child.LabelPlural, Prefix: prefix}

	var fields []string
	for _, f := range child.Fields {
		if f != parentField && !contains(in.Exclude, f) && !contains(child.Exclude, f) {
			fields = append(fields, f)
		}
	}

	n, err := strconv.Atoi(b.values.Get(totalKey(prefix)))
	if err != nil {
		initial, _ := strconv.Atoi(b.values.Get(initialKey(prefix)))
		n = initial + in.Extra
	}
	childBuilder := &formBuilder{model: child, values: b.values, choices: b.choices, errs: b.errs, used: b.used}
	for i := 0; i < n; i++ {
		p := fmt.Sprintf("%s-%d-", prefix, i)
		form := InlineForm{Prefix: p, Delete: isTruthy(b.values.Get(p + "DELETE"))}
		form.ID, _ = strconv.ParseInt(b.values.Get(p+"id"), 10, 64)
		for _, name := range fields {
			form.Fields = append(form.Fields, childBuilder.field(p, name, in.FilterVertical))
		}
		set.Forms = append(set.Forms, form)
	}
	return set
}

// leftover returns messages for errors no rendered field claimed.
func (b *formBuilder) leftover() []string {
	var out []string
	for key, msg := range b.errs {
		if b.used[key] {
			continue
		}
		if key == "__all__" {
			out = append(out, msg)
			continue
		}
		out = append(out, fieldLabel(key)+": "+msg)
	}
	sort.Strings(out)
	return out
}

// formBinder reads typed values from a posted form, collecting parse errors
// under the same keys the validator uses.
type formBinder struct {
	v      url.Values
	prefix string
	loc    *time.Location
	errs   map[string]string
}

func newFormBinder(v url.Values, prefix string, loc *time.Location) *formBinder {
	return &formBinder{v: v, prefix: prefix, loc: loc, errs: map[string]string{}}
}

func (b *formBinder) fail(field, msg string) {
	if _, ok := b.errs[b.prefix+field]; !ok {
		b.errs[b.prefix+field] = msg
	}
}

func (b *formBinder) str(field string) string {
	return strings.TrimSpace(b.v.Get(b.prefix + field))
}

func (b *formBinder) bool(field string) bool {
	return isTruthy(b.v.Get(b.prefix + field))
}

func (b *formBinder) date(field string) time.Time {
	s := b.str(field)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		b.fail(field, "Enter a valid date.")
		return time.Time{}
	}
	return t
}

// datetime parses a datetime-local value in the site's time zone.
func (b *formBinder) datetime(field string) time.Time {
	s := b.str(field)
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(DateTimeLayout, s, b.loc)
	if err != nil {
		b.fail(field, "Enter a valid date and time.")
		return time.Time{}
	}
	return t.UTC()
}

func (b *formBinder) id(field string) *int64 {
	s := b.str(field)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		b.fail(field, "Select a valid choice.")
		return nil
	}
	return &n
}

func (b *formBinder) requiredID(field string) int64 {
	if id := b.id(field); id != nil {
		return *id
	}
	return 0
}

func (b *formBinder) ids(field string) []int64 {
	var out []int64
	for _, s := range b.v[b.prefix+field] {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil || n <= 0 {
			b.fail(field, "Select a valid choice.")
			continue
		}
		out = append(out, n)
	}
	return out
}

// image returns the stored path for an image field: the "-current" value
// unless "-clear" is checked.
func (b *formBinder) image(field string) string {
	if b.bool(field + "-clear") {
		return ""
	}
	return b.str(field + "-current")
}

// blank reports whether every named field is empty. Untouched extra inline
// forms are skipped on save.
func (b *formBinder) blank(fields ...string) bool {
	for _, f := range fields {
		for _, v := range b.v[b.prefix+f] {
			if strings.TrimSpace(v) != "" {
				return false
			}
		}
	}
	return true
}

// result merges parse errors with validation of entity. Fields named in
// skip are filled in later by the store and are not reported.
func (b *formBinder) result(entity any, skip ...string) error {
	if len(b.errs) == 0 {
		return nil
	}
	fields := make(map[string]string, len(b.errs))
	if ve, ok := IsValidation(Validate(entity)); ok {
		for k, v := range ve.Fields {
			if k = adminField(k); !contains(skip, k) {
				fields[b.prefix+k] = v
			}
		}
	}
	for k, v := range b.errs {
		fields[k] = v
	}
	return ValidationError{Fields: fields}
}

// adminField maps validator keys for foreign keys (event_id) to their form
// field names (event).
func adminField(key string) string {
	return strings.TrimSuffix(key, "_id")
}

var inlineKey = regexp.MustCompile(`^([a-z-]+)-(\d+)-(.+)$`)

// adminErrors rewrites validation keys for the form. indexMap translates
// inline positions reported by the store back to posted form positions.
func adminErrors(ve ValidationError, indexMap []int) map[string]string {
	out := make(map[string]string, len(ve.Fields))
	for k, v := range ve.Fields {
		if m := inlineKey.FindStringSubmatch(k); m != nil && indexMap != nil {
			i, _ := strconv.Atoi(m[2])
			if i < len(indexMap) {
				i = indexMap[i]
			}
			out[fmt.Sprintf("%s-%d-%s", m[1], i, adminField(m[3]))] = v
			continue
		}
		out[adminField(k)] = v
	}
	return out
}

func idString(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func idStrings(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}

func checkbox(b bool) string {
	if b {
		return "on"
	}
	return ""
}

func dateValue(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func dateTimeValue(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(DateTimeLayout)
}
