package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/gogo/agentstatus/internal/config"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
	"github.com/xiaot623/gogo/agentstatus/internal/logging"
	"github.com/xiaot623/gogo/agentstatus/internal/repository"
	"github.com/xiaot623/gogo/agentstatus/internal/tools"
	"github.com/xiaot623/gogo/agentstatus/policy"
)

// Service turns agent lifecycle events into status records and serves the
// stored traces back to pollers.
type Service struct {
	store  repository.RunStore
	filter *Filter
	tools  *tools.Registry
	config *config.Config
	logger logging.Logger
	now    func() time.Time
}

// New wires a Service. policyEngine, registry and logger may be nil.
func New(store repository.RunStore, policyEngine *policy.Engine, registry *tools.Registry, cfg *config.Config, logger logging.Logger) *Service {
	var evaluator PolicyEvaluator
	if policyEngine != nil {
		evaluator = policyEngine
	}
	if registry == nil {
		registry = tools.DefaultRegistry
	}
	if cfg == nil {
		cfg = config.Load()
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Service{
		store:  store,
		filter: NewFilter(evaluator),
		tools:  registry,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// NewRunID returns a fresh run id for a top-level invocation.
func NewRunID() string {
	return "run_" + uuid.New().String()
}

func (s *Service) microNow() float64 {
	return domain.MicroTime(s.now())
}
