package templating

import (
	"time"

	"github.com/yegors/wx-dash/internal/dashboard"
	"github.com/yegors/wx-dash/pkg/logger"
)

// Service renders the dashboard page of a session
type Service struct {
	engine       *Engine
	templatePath string
	now          func() time.Time
	logger       *logger.Logger
}

// NewService creates a new templating service
func NewService(templatePath string, cacheSize int, reload bool, log *logger.Logger) *Service {
	return &Service{
		engine:       NewEngine(cacheSize, reload, log),
		templatePath: templatePath,
		now:          time.Now,
		logger:       log.Named("templating-service"),
	}
}

// RenderDashboard renders the page with the session's current state. Alerts
// deferred during the page load are carried into the page.
func (s *Service) RenderDashboard(session *dashboard.Session) ([]byte, error) {
	data := FormatPage(session.Layout(), session.Page().Snapshot(), session.Calendar().State(), s.now())
	for _, alert := range session.Page().TakePending() {
		data.Alerts = append(data.Alerts, alert.Message)
	}
	return s.engine.Render(s.templatePath, data)
}

