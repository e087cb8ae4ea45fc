package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/database"
	"github.com/jobsift/jobsift/internal/export"
	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/geo"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/linkedin"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/run"
	"github.com/jobsift/jobsift/internal/scheduler"
)

// app wires the application dependencies for one command invocation.
// The platform client is built lazily so offline commands work without a
// session cookie.
type app struct {
	Config    *config.Config
	Log       logger.Interface
	DB        *sqlx.DB
	Dismissed *database.DismissedRepository
	Geo       *database.GeoRepository
	Searches  *database.SearchRepository

	Titles    *filter.FileStore
	Companies *filter.FileStore

	client *linkedin.Client
}

// newApp loads configuration, opens the database and builds the offline
// dependency graph.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	return &app{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Dismissed: database.NewDismissedRepository(db),
		Geo:       database.NewGeoRepository(db),
		Searches:  database.NewSearchRepository(db),
		Titles:    filter.NewFileStore(cfg.Blocklists.Titles),
		Companies: filter.NewFileStore(cfg.Blocklists.Companies),
	}, nil
}

// Close releases the application resources.
func (a *app) Close() error {
	return a.DB.Close()
}

// Client builds the platform client on first use.
func (a *app) Client() (*linkedin.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	cookie := a.Config.LinkedIn.Cookie
	if cookie == "" && a.Config.LinkedIn.CookieFile != "" {
		data, err := os.ReadFile(a.Config.LinkedIn.CookieFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read cookie file: %w", err)
		}
		cookie = strings.TrimSpace(string(data))
	}
	if cookie == "" {
		return nil, errors.New("no session cookie configured (set linkedin.cookie or linkedin.cookie_file)")
	}

	client, err := linkedin.New(linkedin.Config{
		Cookie:        cookie,
		UserAgent:     a.Config.LinkedIn.UserAgent,
		Timeout:       a.Config.LinkedIn.Timeout,
		RetryAttempts: a.Config.LinkedIn.RetryAttempts,
		RetryBackoff:  a.Config.LinkedIn.RetryBackoff,
		PageDelay:     a.Config.Scraper.PageDelay,
		JobDelay:      a.Config.Scraper.JobDelay,
	}, a.Log)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// Resolver builds the geo resolver over the live client.
func (a *app) Resolver() (*geo.Resolver, error) {
	client, err := a.Client()
	if err != nil {
		return nil, err
	}
	return geo.NewResolver(a.Geo, client, a.Log), nil
}

// OfflineResolver builds a resolver without a platform client. Only the
// cache maintenance methods may be called on it; Resolve needs a session.
func (a *app) OfflineResolver() *geo.Resolver {
	return geo.NewResolver(a.Geo, nil, a.Log)
}

// Manager builds the full run pipeline: blocklists, filter engine,
// ingestion controller and run manager.
func (a *app) Manager() (*run.Manager, error) {
	client, err := a.Client()
	if err != nil {
		return nil, err
	}
	resolver := geo.NewResolver(a.Geo, client, a.Log)

	titles, err := a.Titles.Entries()
	if err != nil {
		return nil, err
	}
	companies, err := a.Companies.Entries()
	if err != nil {
		return nil, err
	}
	engine, err := filter.NewEngine(a.Dismissed, titles, companies, a.Log)
	if err != nil {
		return nil, err
	}

	controller := ingest.NewController(client, resolver, engine, ingest.Config{
		JobLimit:      a.Config.Scraper.JobLimit,
		DismissRemote: a.Config.LinkedIn.DismissRemote,
	}, a.Log)

	return run.NewManager(a.Searches, a.Dismissed, controller, a.Log), nil
}

// Scheduler builds the cron scheduler over the run manager.
func (a *app) Scheduler() (*scheduler.Scheduler, *run.Manager, error) {
	manager, err := a.Manager()
	if err != nil {
		return nil, nil, err
	}
	return scheduler.New(a.Searches, manager, a.Log), manager, nil
}

// Exporter builds the CSV exporter.
func (a *app) Exporter() *export.CSVExporter {
	return export.NewCSVExporter(a.Dismissed)
}
