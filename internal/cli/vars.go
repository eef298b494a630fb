package cli

import (
	"go.uber.org/zap"

	"github.com/valter-silva-au/ai-curious-brain/internal/core"
	"github.com/valter-silva-au/ai-curious-brain/internal/integration"
	"github.com/valter-silva-au/ai-curious-brain/internal/observability"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Logger   = zap.NewNop()
	Config   *models.BrainConfig
	Agent    *core.Agent
	Inbox    *integration.Inbox
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Prom        *observability.PromMetrics
)
