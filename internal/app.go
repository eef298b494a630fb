// Package internal provides the App struct that wires all components of the
// AI Curious Brain system together and initializes the CLI layer.
package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/valter-silva-au/ai-curious-brain/internal/cli"
	"github.com/valter-silva-au/ai-curious-brain/internal/core"
	"github.com/valter-silva-au/ai-curious-brain/internal/integration"
	"github.com/valter-silva-au/ai-curious-brain/internal/observability"
	"github.com/valter-silva-au/ai-curious-brain/internal/storage"
	"github.com/valter-silva-au/ai-curious-brain/internal/world"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// HomeEnv overrides the base directory.
const HomeEnv = "BRAIN_HOME"

// App holds all service dependencies for the AI Curious Brain system.
type App struct {
	BasePath string
	Logger   *zap.Logger

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.BrainConfig

	// Storage layer
	LexiconStore storage.LexiconStore
	ConceptStore storage.ConceptStore
	StateStore   storage.StateStore
	sqlite       *storage.SQLiteLexiconStore

	// Core services
	Lexicon *core.Lexicon
	Graph   *core.ConceptGraph
	World   *world.World
	Agent   *core.Agent

	// Integration services
	Learner core.Learner
	Inbox   *integration.Inbox

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Prom        *observability.PromMetrics
}

// NewApp creates and wires all components of the AI Curious Brain system.
// basePath is the root directory where all state is stored (typically the
// directory containing .brainconfig).
func NewApp(basePath string, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{BasePath: basePath, Logger: logger}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	app.Config = cfg

	// --- Storage layer ---
	switch cfg.Lexicon.Backend {
	case core.BackendSQLite:
		app.sqlite, err = storage.OpenSQLiteLexiconStore(basePath)
		if err != nil {
			return nil, err
		}
		app.LexiconStore = app.sqlite
	default:
		app.LexiconStore = storage.NewLexiconStore(basePath)
	}
	app.ConceptStore = storage.NewConceptStore(basePath)
	app.StateStore = storage.NewStateStore(basePath)

	// --- Lexicon ---
	app.Lexicon = core.NewLexicon(app.LexiconStore)
	if err := app.Lexicon.Load(); err != nil {
		// Invalid entries are skipped; the rest stay loaded.
		logger.Warn("lexicon loaded with errors", zap.Error(err))
	}
	if n := app.Lexicon.Seed(core.Curriculum()); n > 0 {
		logger.Debug("seeded curriculum", zap.Int("words", n))
	}

	// --- World ---
	worldPath := filepath.Join(basePath, world.FileName)
	if _, statErr := os.Stat(worldPath); errors.Is(statErr, os.ErrNotExist) {
		app.World = world.Seeded()
	} else {
		app.World = world.New()
		if err := app.World.Load(worldPath); err != nil {
			app.closeStores()
			return nil, err
		}
	}

	// --- Concept graph ---
	app.Graph = core.NewConceptGraph()
	nodes, err := app.ConceptStore.Load()
	if err != nil {
		app.closeStores()
		return nil, err
	}
	app.Graph.Restore(nodes)

	// --- Integration services ---
	if p := cfg.Learner.GlossaryPath; p != "" && !filepath.IsAbs(p) {
		cfg.Learner.GlossaryPath = filepath.Join(basePath, p)
	}
	app.Learner, err = integration.NewLearner(cfg.Learner, logger.Named("learner"))
	if err != nil {
		app.closeStores()
		return nil, err
	}
	app.Inbox, err = integration.NewInbox(integration.InboxConfig{
		BaseDir: basePath,
		Logger:  logger.Named("inbox"),
	})
	if err != nil {
		app.closeStores()
		return nil, err
	}

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, observability.EventLogFileName))
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		logger.Warn("event log disabled", zap.Error(err))
		app.EventLog = nil
	}
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		thresholds := observability.DefaultAlertThresholds()
		if cfg.Alerts.AwaitingHours > 0 {
			thresholds.AwaitingHours = cfg.Alerts.AwaitingHours
		}
		if cfg.Alerts.MaxFailedGoals > 0 {
			thresholds.MaxFailedGoals = cfg.Alerts.MaxFailedGoals
		}
		if cfg.Alerts.MaxOpenQuestions > 0 {
			thresholds.MaxOpenQuestions = cfg.Alerts.MaxOpenQuestions
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}
	app.Prom = observability.NewPromMetrics()

	// --- Agent ---
	app.Agent = core.NewAgent(core.AgentDeps{
		Config:    cfg,
		Lexicon:   app.Lexicon,
		World:     app.World,
		Graph:     app.Graph,
		Learner:   app.Learner,
		EventLog:  evtAdapter,
		Artifacts: app.Inbox,
		Metrics:   app.Prom,
		Logger:    logger.Named("agent"),
	})
	state, err := app.StateStore.Load()
	if err != nil {
		_ = app.closeLogs()
		app.closeStores()
		return nil, err
	}
	if state != nil {
		app.Agent.Restore(*state)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Logger = logger
	cli.Config = cfg
	cli.Agent = app.Agent
	cli.Inbox = app.Inbox
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Prom = app.Prom

	return app, nil
}

// Close persists the lexicon if it changed, then the concept graph, scheduler
// state and world, and releases the event log and database handles. Every
// step runs; the errors are joined.
func (a *App) Close() error {
	var errs []error
	if a.Lexicon.Dirty() {
		if err := a.Lexicon.Save(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.ConceptStore.Save(a.Graph.Nodes()); err != nil {
		errs = append(errs, err)
	}
	if err := a.StateStore.Save(a.Agent.Snapshot()); err != nil {
		errs = append(errs, err)
	}
	if err := a.World.Save(filepath.Join(a.BasePath, world.FileName)); err != nil {
		errs = append(errs, err)
	}
	if err := a.closeLogs(); err != nil {
		errs = append(errs, err)
	}
	a.closeStores()
	return errors.Join(errs...)
}

func (a *App) closeLogs() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

func (a *App) closeStores() {
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.Logger.Warn("closing lexicon database", zap.Error(err))
		}
	}
}

// ResolveBasePath determines the base path for the AI Curious Brain data
// directory. It checks for BRAIN_HOME env var, then walks up from the
// current directory looking for .brainconfig.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	// Walk up to find a directory containing .brainconfig.
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// Fall back to cwd.
	cwd, _ := os.Getwd()
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.NewEvent(eventType, data))
}
