package cs4teachers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const maxFormMemory = 32 << 20

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(AdminLoginPage{Site: a.siteInfo(), CSRFToken: CsrfToken(c)}))
	}
	return Render(c, a.Views.AdminDashboard(AdminDashboardPage{
		Site:      a.siteInfo(),
		Models:    a.Admin.Models(),
		Message:   popFlash(c),
		CSRFToken: CsrfToken(c),
	}))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		a.Logger.Warn().Str("ip", ip).Msg("admin login rate limited")
		a.metrics.loginAttempts.WithLabelValues("limited").Inc()
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if CheckAdminPassword(a.Config.AdminPassword, pass) {
		if err := setAdminSession(c); err != nil {
			return err
		}
		a.loginLimiter.Reset(ip)
		a.metrics.loginAttempts.WithLabelValues("ok").Inc()
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.metrics.loginAttempts.WithLabelValues("failed").Inc()
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(AdminLoginPage{
		Site:      a.siteInfo(),
		ShowError: true,
		CSRFToken: CsrfToken(c),
	}))
}

func (a *App) handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// CheckAdminPassword compares a login attempt with the configured password,
// which is either a bcrypt hash or plain text.
func CheckAdminPassword(configured, attempt string) bool {
	if isBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(attempt)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(attempt), []byte(configured)) == 1
}

// HashAdminPassword returns a bcrypt hash suitable for ADMIN_PASSWORD.
func HashAdminPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

// adminTarget resolves the :kind and :id route parameters.
func (a *App) adminTarget(c echo.Context) (ModelAdmin, adminModel, int64, error) {
	kind := EntityKind(c.Param("kind"))
	m, ok := a.Admin.Model(kind)
	model, wired := a.models[kind]
	if !ok || !wired {
		return ModelAdmin{}, nil, 0, echo.ErrNotFound
	}
	var id int64
	if raw := c.Param("id"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return ModelAdmin{}, nil, 0, echo.ErrNotFound
		}
		id = n
	}
	return m, model, id, nil
}

func (a *App) handleAdminList(c echo.Context) error {
	m, model, _, err := a.adminTarget(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	q := adminQuery{Search: strings.TrimSpace(c.QueryParam("q")), Filters: map[string]string{}}
	for _, f := range m.ListFilter {
		if v := c.QueryParam(f); v != "" {
			q.Filters[f] = v
		}
	}
	records, err := model.list(ctx, q)
	if err != nil {
		return err
	}
	choices, err := model.choices(ctx)
	if err != nil {
		return err
	}

	page := AdminListPage{
		Site:       a.siteInfo(),
		Model:      m,
		Query:      q.Search,
		Searchable: len(m.SearchFields) > 0,
		Message:    popFlash(c),
		CSRFToken:  CsrfToken(c),
	}
	for _, f := range m.ListDisplay {
		page.Columns = append(page.Columns, fieldLabel(f))
	}
	for _, r := range records {
		row := AdminRow{ID: r.ID, ViewURL: r.ViewURL}
		for _, f := range m.ListDisplay {
			row.Cells = append(row.Cells, r.Cols[f])
		}
		page.Rows = append(page.Rows, row)
	}
	for _, f := range m.ListFilter {
		filter := AdminFilter{Field: f, Label: fieldLabel(f), Selected: q.Filters[f]}
		if m.WidgetFor(f) == WidgetCheckbox {
			filter.Options = []SelectOption{{Value: "1", Label: "Yes"}, {Value: "0", Label: "No"}}
		} else {
			filter.Options = choices[f]
		}
		page.Filters = append(page.Filters, filter)
	}
	return Render(c, a.Views.AdminList(page))
}

func (a *App) handleAdminAdd(c echo.Context) error {
	m, model, _, err := a.adminTarget(c)
	if err != nil {
		return err
	}
	return a.renderAdminForm(c, http.StatusOK, m, model, 0, url.Values{}, nil)
}

func (a *App) handleAdminEdit(c echo.Context) error {
	m, model, id, err := a.adminTarget(c)
	if err != nil {
		return err
	}
	values, err := model.values(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return a.renderAdminForm(c, http.StatusOK, m, model, id, values, nil)
}

func (a *App) handleAdminCreate(c echo.Context) error {
	return a.saveAdminForm(c)
}

func (a *App) handleAdminUpdate(c echo.Context) error {
	return a.saveAdminForm(c)
}

func (a *App) saveAdminForm(c echo.Context) error {
	m, model, id, err := a.adminTarget(c)
	if err != nil {
		return err
	}
	form, err := parseAdminForm(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	var before map[string]bool
	if id != 0 {
		current, err := model.values(ctx, id)
		if err != nil {
			return err
		}
		before = uploadedFiles(current)
	}
	written := trackUploads(c)
	savedID, err := model.save(c, id, form)
	if err != nil {
		for _, f := range *written {
			a.removeUpload(f)
		}
		if ve, ok := IsValidation(err); ok {
			return a.renderAdminForm(c, http.StatusUnprocessableEntity, m, model, id, form, adminErrors(ve, nil))
		}
		return err
	}
	a.Cache.Invalidate()
	a.Logger.Info().Str("kind", string(m.Kind)).Int64("id", savedID).Bool("created", id == 0).Msg("admin save")
	if len(before) > 0 {
		a.removeReplacedUploads(ctx, model, savedID, before)
	}

	action, verb := "change", "changed"
	if id == 0 {
		action, verb = "add", "added"
	}
	a.metrics.adminChanges.WithLabelValues(string(m.Kind), action).Inc()
	setFlash(c, fmt.Sprintf("The %s was %s successfully.", m.Label, verb))
	if c.FormValue("_continue") != "" {
		return c.Redirect(http.StatusSeeOther, adminPath(m.Kind, savedID))
	}
	return c.Redirect(http.StatusSeeOther, adminPath(m.Kind, 0))
}

// removeReplacedUploads deletes files a record referenced before a save and
// no longer does.
func (a *App) removeReplacedUploads(ctx context.Context, model adminModel, id int64, before map[string]bool) {
	current, err := model.values(ctx, id)
	if err != nil {
		a.Logger.Warn().Err(err).Int64("id", id).Msg("reload after save")
		return
	}
	after := uploadedFiles(current)
	for f := range before {
		if !after[f] {
			a.removeUpload(f)
		}
	}
}

func (a *App) handleAdminDelete(c echo.Context) error {
	m, model, id, err := a.adminTarget(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	current, err := model.values(ctx, id)
	if err != nil {
		return err
	}
	if err := model.remove(ctx, id); err != nil {
		if errors.Is(err, ErrInUse) {
			setFlash(c, fmt.Sprintf("The %s could not be deleted because images still belong to it.", m.Label))
			return c.Redirect(http.StatusSeeOther, adminPath(m.Kind, id))
		}
		return err
	}
	a.Cache.Invalidate()
	a.Logger.Info().Str("kind", string(m.Kind)).Int64("id", id).Msg("admin delete")
	for f := range uploadedFiles(current) {
		a.removeUpload(f)
	}
	a.metrics.adminChanges.WithLabelValues(string(m.Kind), "delete").Inc()
	setFlash(c, fmt.Sprintf("The %s was deleted successfully.", m.Label))
	return c.Redirect(http.StatusSeeOther, adminPath(m.Kind, 0))
}

func (a *App) renderAdminForm(c echo.Context, code int, m ModelAdmin, model adminModel, id int64, values url.Values, errs map[string]string) error {
	choices, err := model.choices(c.Request().Context())
	if err != nil {
		return err
	}
	b := newFormBuilder(m, values, choices, errs)
	page := AdminFormPage{
		Site:      a.siteInfo(),
		Model:     m,
		ID:        id,
		Title:     "Add " + m.Label,
		Action:    adminPath(m.Kind, 0) + "add/",
		Fieldsets: b.fieldsets(),
		Message:   popFlash(c),
		CSRFToken: CsrfToken(c),
	}
	if id != 0 {
		page.Title = "Change " + m.Label
		page.Action = adminPath(m.Kind, id)
	}
	for _, in := range m.Inlines {
		page.Inlines = append(page.Inlines, b.inline(a.Admin, in, string(m.Kind)))
	}
	page.NonFieldErrors = b.leftover()
	return RenderStatus(c, code, a.Views.AdminForm(page))
}

// parseAdminForm reads url-encoded and multipart bodies into one value set.
func parseAdminForm(c echo.Context) (url.Values, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if err := req.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(err)
		}
		return url.Values(req.MultipartForm.Value), nil
	}
	if err := req.ParseForm(); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(err)
	}
	return req.PostForm, nil
}

// adminPath returns the change list path for kind, or the change form of id.
func adminPath(kind EntityKind, id int64) string {
	if id == 0 {
		return "/admin/" + string(kind) + "/"
	}
	return fmt.Sprintf("/admin/%s/%d/", kind, id)
}
