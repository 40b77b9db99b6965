package cs4teachers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/robotstxt"
)

// viewRecorder stands in for the templ views: each component writes its
// name and the page data is kept for assertions.
type viewRecorder struct {
	pages map[string]any
}

func (r *viewRecorder) stub(name string, page any) templ.Component {
	r.pages[name] = page
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, name)
		return err
	})
}

func (r *viewRecorder) views() ViewFuncs {
	return ViewFuncs{
		Home:            func(p HomePage) templ.Component { return r.stub("home", p) },
		EventIndex:      func(p EventIndexPage) templ.Component { return r.stub("event-index", p) },
		Event:           func(p EventPage) templ.Component { return r.stub("event", p) },
		Series:          func(p SeriesPage) templ.Component { return r.stub("series", p) },
		Location:        func(p LocationPage) templ.Component { return r.stub("location", p) },
		ThirdPartyEvent: func(p ThirdPartyEventPage) templ.Component { return r.stub("third-party-event", p) },
		Resources:       func(p ResourcesPage) templ.Component { return r.stub("resources", p) },
		AdminLogin:      func(p AdminLoginPage) templ.Component { return r.stub("admin-login", p) },
		AdminDashboard:  func(p AdminDashboardPage) templ.Component { return r.stub("admin-dashboard", p) },
		AdminList:       func(p AdminListPage) templ.Component { return r.stub("admin-list", p) },
		AdminForm:       func(p AdminFormPage) templ.Component { return r.stub("admin-form", p) },
		NotFound:        func() templ.Component { return r.stub("not-found", nil) },
		ServerError:     func() templ.Component { return r.stub("server-error", nil) },
	}
}

type testSite struct {
	t       *testing.T
	app     *App
	views   *viewRecorder
	cookies map[string]*http.Cookie
}

const testCSRF = "test-csrf-token"

func newTestSite(t *testing.T, configure ...func(*SiteConfig)) *testSite {
	t.Helper()
	rec := &viewRecorder{pages: map[string]any{}}
	cfg := SiteConfig{
		URL:           "https://cs4teachers.test",
		AdminPassword: "secret",
		SessionSecret: "0123456789abcdef0123456789abcdef",
		UploadDir:     t.TempDir(),
		TimeZone:      "UTC",
	}
	for _, fn := range configure {
		fn(&cfg)
	}
	app := New(cfg, rec.views(),
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return today.Add(10 * time.Hour) }),
		WithStaticDir(t.TempDir()),
	)
	app.Store = newTestStore(t)
	require.NoError(t, app.Setup())
	t.Cleanup(func() { app.loginLimiter.Stop() })
	return &testSite{t: t, app: app, views: rec, cookies: map[string]*http.Cookie{}}
}

func (s *testSite) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	s.t.Helper()
	var body io.Reader
	if form != nil {
		form.Set("_csrf", testCSRF)
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: "_csrf", Value: testCSRF})
	}
	return s.send(req)
}

// upload posts fields as multipart form data with one file attached.
func (s *testSite) upload(target string, fields url.Values, fileField, filename string, data []byte) *httptest.ResponseRecorder {
	s.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields.Set("_csrf", testCSRF)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(s.t, mw.WriteField(k, v))
		}
	}
	fw, err := mw.CreateFormFile(fileField, filename)
	require.NoError(s.t, err)
	_, err = fw.Write(data)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: testCSRF})
	return s.send(req)
}

func (s *testSite) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range s.cookies {
		if c.Name != "_csrf" {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	s.app.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(s.cookies, c.Name)
			continue
		}
		s.cookies[c.Name] = c
	}
	return rec
}

func (s *testSite) login() {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/admin/login/", url.Values{"password": {"secret"}})
	require.Equal(s.t, http.StatusSeeOther, rec.Code)
}

func TestPublicPages(t *testing.T) {
	site := newTestSite(t)
	ctx := context.Background()
	st := site.app.Store

	series := Series{Name: "CS4HS", Subtitle: "Teacher workshops", Description: "Workshops for teachers."}
	require.NoError(t, st.CreateSeries(ctx, &series))
	next := testEvent(t, st, "Christchurch", &series.ID, day(3), true)
	testEvent(t, st, "Wellington", &series.ID, day(-20), true)
	hidden := testEvent(t, st, "Draft", nil, day(5), false)
	loc := testLocation(t, st, "Erskine Building")

	rec := site.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "home", rec.Body.String())
	home := site.views.pages["home"].(HomePage)
	require.Len(t, home.UpcomingEvents, 1)
	assert.Equal(t, next.ID, home.UpcomingEvents[0].ID)
	require.Len(t, home.Series, 1)
	require.NotNil(t, home.Series[0].Closest)
	assert.Equal(t, next.ID, home.Series[0].Closest.ID)
	assert.Equal(t, 3, home.Series[0].DaysAway)

	rec = site.do(http.MethodGet, "/events/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	index := site.views.pages["event-index"].(EventIndexPage)
	assert.Len(t, index.Upcoming, 1)
	assert.Len(t, index.Past, 1)

	rec = site.do(http.MethodGet, next.URL(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := site.views.pages["event"].(EventPage)
	assert.Equal(t, "CS4HS: Christchurch", page.Event.String())
	assert.Equal(t, "CS4HS: Christchurch | CS4Teachers", page.Meta.Title)
	assert.Equal(t, "https://cs4teachers.test"+next.URL(), page.Meta.URL)

	rec = site.do(http.MethodGet, series.URL(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sp := site.views.pages["series"].(SeriesPage)
	assert.Len(t, sp.Events, 2)
	require.NotNil(t, sp.Closest)
	assert.Equal(t, next.ID, sp.Closest.ID)

	rec = site.do(http.MethodGet, loc.URL(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = site.do(http.MethodGet, "/events/resources/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = site.do(http.MethodGet, hidden.URL(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not-found", rec.Body.String())
}

func TestUnknownRoutesRenderNotFound(t *testing.T) {
	site := newTestSite(t)

	rec := site.do(http.MethodGet, "/events/event/missing/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not-found", rec.Body.String())

	rec = site.do(http.MethodGet, "/no/such/page/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not-found", rec.Body.String())
}

func TestTrailingSlashRedirect(t *testing.T) {
	site := newTestSite(t)
	rec := site.do(http.MethodGet, "/events", nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/events/", rec.Header().Get("Location"))
}

func TestFeedsAndRobots(t *testing.T) {
	site := newTestSite(t)
	ev := testEvent(t, site.app.Store, "Hackathon", nil, day(7), true)
	testEvent(t, site.app.Store, "Secret", nil, day(8), false)

	rec := site.do(http.MethodGet, "/sitemap.xml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, rec.Body.String(), "<loc>https://cs4teachers.test"+ev.URL()+"</loc>")
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	rec = site.do(http.MethodGet, "/feed.xml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Hackathon</title>")
	assert.NotContains(t, rec.Body.String(), "Secret")

	rec = site.do(http.MethodGet, "/robots.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	robots, err := robotstxt.FromString(rec.Body.String())
	require.NoError(t, err)
	assert.False(t, robots.TestAgent("/admin/", "Googlebot"))
	assert.False(t, robots.TestAgent("/metrics", "Googlebot"))
	assert.True(t, robots.TestAgent(ev.URL(), "Googlebot"))
	assert.Equal(t, []string{"https://cs4teachers.test/sitemap.xml"}, robots.Sitemaps)
}

func TestMetricsEndpoint(t *testing.T) {
	site := newTestSite(t)
	m := site.app.metrics

	site.do(http.MethodGet, "/", nil)
	site.do(http.MethodGet, "/events/", nil)
	site.do(http.MethodPost, "/admin/login/", url.Values{"password": {"nope"}})
	site.login()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLoads))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("ok")))

	rec := site.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	body := rec.Body.String()
	assert.Contains(t, body, "cs4teachers_admin_login_attempts_total")
	assert.Contains(t, body, "cs4teachers_http_requests_total")
	assert.Contains(t, body, `go_sql_open_connections{db_name="cs4teachers"}`)
}

func TestRequestIDHeader(t *testing.T) {
	site := newTestSite(t)
	rec := site.do(http.MethodGet, "/", nil)
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36)
}

func TestAdminLoginWithBcryptPassword(t *testing.T) {
	hash, err := HashAdminPassword("correct horse")
	require.NoError(t, err)
	site := newTestSite(t, func(cfg *SiteConfig) { cfg.AdminPassword = hash })

	rec := site.do(http.MethodPost, "/admin/login/", url.Values{"password": {hash}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = site.do(http.MethodPost, "/admin/login/", url.Values{"password": {"correct horse"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestCheckAdminPassword(t *testing.T) {
	assert.True(t, CheckAdminPassword("secret", "secret"))
	assert.False(t, CheckAdminPassword("secret", "Secret"))
	assert.False(t, CheckAdminPassword("secret", ""))
	// Strings shaped like a hash but of the wrong length compare as plain text.
	assert.True(t, CheckAdminPassword("$2a$short", "$2a$short"))
}

func TestEmbeddedAssets(t *testing.T) {
	site := newTestSite(t)
	for _, p := range []string{"/public/styles.css", "/public/admin.js"} {
		rec := site.do(http.MethodGet, p, nil)
		assert.Equal(t, http.StatusOK, rec.Code, p)
		assert.NotEmpty(t, rec.Body.String(), p)
		assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"), p)
	}
}

func TestAdminRequiresLogin(t *testing.T) {
	site := newTestSite(t)

	rec := site.do(http.MethodGet, "/admin/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-login", rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = site.do(http.MethodGet, "/admin/location/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/", rec.Header().Get("Location"))
}

func TestAdminLoginRejectsWrongPassword(t *testing.T) {
	site := newTestSite(t)
	rec := site.do(http.MethodPost, "/admin/login/", url.Values{"password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, site.views.pages["admin-login"].(AdminLoginPage).ShowError)
}

func TestAdminLoginRateLimited(t *testing.T) {
	site := newTestSite(t)
	for i := 0; i < 5; i++ {
		rec := site.do(http.MethodPost, "/admin/login/", url.Values{"password": {"nope"}})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := site.do(http.MethodPost, "/admin/login/", url.Values{"password": {"secret"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAdminPostWithoutCSRFIsForbidden(t *testing.T) {
	site := newTestSite(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader("password=secret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	site.app.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminLoginAndLogout(t *testing.T) {
	site := newTestSite(t)
	site.login()

	rec := site.do(http.MethodGet, "/admin/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := site.views.pages["admin-dashboard"].(AdminDashboardPage)
	assert.NotEmpty(t, dash.Models)

	rec = site.do(http.MethodPost, "/admin/logout/", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = site.do(http.MethodGet, "/admin/location/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdminCreateLocation(t *testing.T) {
	site := newTestSite(t)
	site.login()

	rec := site.do(http.MethodGet, "/admin/location/add/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	form := site.views.pages["admin-form"].(AdminFormPage)
	assert.Equal(t, "Add location", form.Title)
	assert.Equal(t, "/admin/location/add/", form.Action)

	rec = site.do(http.MethodPost, "/admin/location/add/", url.Values{
		"name":        {"Erskine Building"},
		"address":     {"Science Rd, Ilam, Christchurch"},
		"geolocation": {"-43.5225594,172.5811949"},
		"description": {"<p>Home of <script>x</script>computer science</p>"},
		"_save":       {"1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/location/", rec.Header().Get("Location"))

	loc, err := site.app.Store.GetLocation(context.Background(), "erskine-building")
	require.NoError(t, err)
	assert.NotContains(t, loc.Description, "script")

	rec = site.do(http.MethodGet, "/admin/location/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := site.views.pages["admin-list"].(AdminListPage)
	assert.Equal(t, "The location was added successfully.", list.Message)
	require.Len(t, list.Rows, 1)
	assert.Equal(t, loc.ID, list.Rows[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(site.app.metrics.adminChanges.WithLabelValues("location", "add")))
	assert.Equal(t, loc.URL(), list.Rows[0].ViewURL)
}

func TestAdminSaveAndContinue(t *testing.T) {
	site := newTestSite(t)
	site.login()
	loc := testLocation(t, site.app.Store, "Lab")

	target := "/admin/location/" + strconv.FormatInt(loc.ID, 10) + "/"
	rec := site.do(http.MethodPost, target, url.Values{
		"name":        {"Computer Lab"},
		"address":     {loc.Address},
		"geolocation": {loc.Geolocation},
		"_continue":   {"1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, target, rec.Header().Get("Location"))

	got, err := site.app.Store.GetLocation(context.Background(), "lab")
	require.NoError(t, err)
	assert.Equal(t, "Computer Lab", got.Name)
}

func TestAdminValidationErrors(t *testing.T) {
	site := newTestSite(t)
	site.login()

	rec := site.do(http.MethodPost, "/admin/location/add/", url.Values{
		"name":        {""},
		"address":     {"Science Rd"},
		"geolocation": {"not a point"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	page := site.views.pages["admin-form"].(AdminFormPage)
	errs := map[string]string{}
	for _, fs := range page.Fieldsets {
		for _, f := range fs.Fields {
			if f.Error != "" {
				errs[f.Name] = f.Error
			}
		}
	}
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "geolocation")
	assert.NotContains(t, errs, "address")

	_, err := site.app.Store.GetLocation(context.Background(), "science-rd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminDelete(t *testing.T) {
	site := newTestSite(t)
	site.login()
	loc := testLocation(t, site.app.Store, "Portable Classroom")

	rec := site.do(http.MethodPost, "/admin/location/"+strconv.FormatInt(loc.ID, 10)+"/delete/", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/location/", rec.Header().Get("Location"))

	_, err := site.app.Store.GetLocation(context.Background(), loc.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminSeriesListShowsClosestEvent(t *testing.T) {
	site := newTestSite(t)
	site.login()
	ctx := context.Background()
	st := site.app.Store

	roadshow := Series{Name: "Roadshow", Description: "x"}
	require.NoError(t, st.CreateSeries(ctx, &roadshow))
	testEvent(t, st, "Last month", &roadshow.ID, today.AddDate(0, -1, 0), true)
	testEvent(t, st, "Next week", &roadshow.ID, today.AddDate(0, 0, 7), true)
	empty := Series{Name: "Quiet", Description: "x"}
	require.NoError(t, st.CreateSeries(ctx, &empty))

	rec := site.do(http.MethodGet, "/admin/series/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := site.views.pages["admin-list"].(AdminListPage)
	assert.Equal(t, []string{"Name", "Subtitle", "Closest event"}, list.Columns)

	cells := map[int64][]string{}
	for _, r := range list.Rows {
		cells[r.ID] = r.Cells
	}
	assert.Equal(t, "Next week (22 Jun 2024)", cells[roadshow.ID][2])
	assert.Equal(t, "", cells[empty.ID][2])
}

func TestAdminFailedSaveRemovesUpload(t *testing.T) {
	site := newTestSite(t)
	site.login()

	rec := site.upload("/admin/sponsor/add/", url.Values{"name": {"Google"}}, "logo", "logo.png", testPNG(t, 40, 20))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	entries, err := os.ReadDir(filepath.Join(site.app.Config.UploadDir, filepath.FromSlash(UploadDir(KindSponsor, "logo"))))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAdminReplacedAndDeletedUploadsAreRemoved(t *testing.T) {
	site := newTestSite(t)
	site.login()
	ctx := context.Background()
	onDisk := func(rel string) string {
		return filepath.Join(site.app.Config.UploadDir, filepath.FromSlash(rel))
	}

	fields := url.Values{"name": {"Google"}, "url": {"https://google.com/"}}
	rec := site.upload("/admin/sponsor/add/", fields, "logo", "first.png", testPNG(t, 40, 20))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	sponsors, err := site.app.Store.ListSponsors(ctx, "")
	require.NoError(t, err)
	require.Len(t, sponsors, 1)
	first := sponsors[0]
	require.Equal(t, "uploads/events/sponsors/logos/first.png", first.Logo)
	require.FileExists(t, onDisk(first.Logo))

	edit := "/admin/sponsor/" + strconv.FormatInt(first.ID, 10) + "/"
	fields = url.Values{"name": {"Google"}, "url": {"https://google.com/"}, "logo-current": {first.Logo}}
	rec = site.upload(edit, fields, "logo", "second.png", testPNG(t, 40, 20))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	second, err := site.app.Store.GetSponsor(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "uploads/events/sponsors/logos/second.png", second.Logo)
	assert.FileExists(t, onDisk(second.Logo))
	assert.NoFileExists(t, onDisk(first.Logo))

	rec = site.do(http.MethodPost, edit+"delete/", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NoFileExists(t, onDisk(second.Logo))
}

func TestAdminUnknownKindOrID(t *testing.T) {
	site := newTestSite(t)
	site.login()

	rec := site.do(http.MethodGet, "/admin/widget/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = site.do(http.MethodGet, "/admin/location/abc/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = site.do(http.MethodGet, "/admin/location/999/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
