// Package cs4teachers is the content site for CS4Teachers events: events,
// series, sessions, locations, sponsors, resources and third party events,
// served with Echo and templ and edited through a configurable admin.
//
// Callers provide their own templ components via the ViewFuncs struct;
// cs4teachers handles routing, middleware, storage and the admin workflow.
package cs4teachers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ViewFuncs holds the templ components the app calls when rendering pages.
type ViewFuncs struct {
	Home            func(p HomePage) templ.Component
	EventIndex      func(p EventIndexPage) templ.Component
	Event           func(p EventPage) templ.Component
	Series          func(p SeriesPage) templ.Component
	Location        func(p LocationPage) templ.Component
	ThirdPartyEvent func(p ThirdPartyEventPage) templ.Component
	Resources       func(p ResourcesPage) templ.Component
	AdminLogin      func(p AdminLoginPage) templ.Component
	AdminDashboard  func(p AdminDashboardPage) templ.Component
	AdminList       func(p AdminListPage) templ.Component
	AdminForm       func(p AdminFormPage) templ.Component
	NotFound        func() templ.Component
	ServerError     func() templ.Component
}

// App wires together the store, cache, handlers, middleware and templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *SiteCache
	Views  ViewFuncs
	Admin  *AdminSite
	Logger zerolog.Logger

	tz           *time.Location
	loginLimiter *LoginLimiter
	metrics      *siteMetrics
	models       map[EntityKind]adminModel
	customRoutes []func(*App)
	staticDir    string
	now          func() time.Time
	loggerSet    bool
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
		now:       time.Now,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if !a.loggerSet {
		a.Logger = NewLogger(cfg.Logging, os.Stdout)
	}
	if a.Admin == nil {
		a.Admin = DefaultAdminSite()
	}
	return a
}

// Setup opens the store and registers middleware and routes. Start calls it;
// tests call it directly and drive a.Echo with httptest.
func (a *App) Setup() error {
	if err := a.Config.Validate(); err != nil {
		return err
	}
	tz, err := a.Config.Location()
	if err != nil {
		return err
	}
	a.tz = tz

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("cs4teachers: init store: %w", err)
		}
		a.Store = store
	}

	a.metrics = newSiteMetrics()
	a.metrics.watchStore(a.Store)

	a.Cache = NewSiteCache(a.Store, a.Config.CacheTTL)
	a.Cache.now = a.now
	a.Cache.onLoad = a.metrics.cacheLoads.Inc
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.models = newAdminModels(a)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and runs the HTTP server until it stops.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Logger.Info().Str("addr", a.Config.Addr).Str("db", a.Config.DatabasePath).Msg("starting server")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded assets take precedence over files of the same name in staticDir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS))))
	e.GET("/public/styles.css", embeddedHandler)
	e.GET("/public/admin.js", embeddedHandler)
	e.Static("/public", a.staticDir)
	e.Static("/media", a.Config.UploadDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET(metricsPath, a.metrics.handler())

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/events/", a.handleEventIndex)
	e.GET("/events/event/:slug/", a.handleEvent)
	e.GET("/events/series/:slug/", a.handleSeries)
	e.GET("/events/location/:slug/", a.handleLocation)
	e.GET("/events/third-party-event/:slug/", a.handleThirdPartyEvent)
	e.GET("/events/resources/", a.handleResources)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", a.handleAdminLogout)

	g := e.Group("/admin", a.requireAdmin)
	g.GET("/:kind/", a.handleAdminList)
	g.GET("/:kind/add/", a.handleAdminAdd)
	g.POST("/:kind/add/", a.handleAdminCreate)
	g.GET("/:kind/:id/", a.handleAdminEdit)
	g.POST("/:kind/:id/", a.handleAdminUpdate)
	g.POST("/:kind/:id/delete/", a.handleAdminDelete)
	g.DELETE("/:kind/:id/", a.handleAdminDelete)
}

// Close releases the store and background workers.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
