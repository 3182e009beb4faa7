package cmd

import (
	"time"

	"github.com/zjrosen/mob/internal/git/infrastructure"
	"github.com/zjrosen/mob/internal/infrastructure/sqlite"
	"github.com/zjrosen/mob/internal/log"
	"github.com/zjrosen/mob/internal/mob/application"
	"github.com/zjrosen/mob/internal/mob/domain"
	"github.com/zjrosen/mob/internal/paths"
	"github.com/zjrosen/mob/internal/share"
	"github.com/zjrosen/mob/internal/timer"
)

// resolverTTL bounds how long a directory stays mapped to its repository
// root within one process.
const resolverTTL = 5 * time.Minute

// app wires the services one command needs from the loaded configuration.
type app struct {
	settings domain.Settings
	dataDir  string
	workDir  string
	resolver *infrastructure.Resolver
	timer    *timer.Service
	orch     *application.Orchestrator
}

func newApp() *app {
	resolver := infrastructure.NewResolver(resolverTTL, cfg.Git.Timeout)
	timerSvc := timer.NewService(paths.TimerFile(dataDir), timer.WithNotify(cfg.Timer.Notify))

	opts := []application.Option{
		application.WithTimer(timerSvc),
		application.WithAllowDirty(cfg.Git.AllowDirty),
	}
	if sh := share.New(cfg.Share.Command, workDir); sh != nil {
		opts = append(opts, application.WithShare(sh))
	}

	return &app{
		settings: cfg.Settings(),
		dataDir:  dataDir,
		workDir:  workDir,
		resolver: resolver,
		timer:    timerSvc,
		orch:     application.NewOrchestrator(resolver, infrastructure.Factory(cfg.Git.Timeout), opts...),
	}
}

func (a *app) openHistory() (*sqlite.DB, error) {
	return sqlite.NewDB(paths.HistoryDB(a.dataDir))
}

// record stores a finished run. History is best effort.
func (a *app) record(result *domain.Result) {
	db, err := a.openHistory()
	if err != nil {
		log.Warn(log.CatDB, "run history unavailable", "guid", result.GUID, "error", err)
		return
	}
	defer func() { _ = db.Close() }()
	if err := db.RunRepository().Save(result); err != nil {
		log.Warn(log.CatDB, "saving run failed", "guid", result.GUID, "error", err)
	}
}
