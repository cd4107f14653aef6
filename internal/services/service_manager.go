package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/cache"
	"github.com/hazelton-clinic/assessment-service/internal/email"
	"github.com/hazelton-clinic/assessment-service/internal/events"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
	"gorm.io/gorm"
)

// ServiceManagerConfig wires the collaborators that are not part of the
// repository layer.
type ServiceManagerConfig struct {
	Publisher     events.EventPublisher
	Tokens        *auth.TokenManager
	Blacklist     cache.TokenBlacklist
	LoginLimiter  cache.RateLimiter
	EmailSender   email.Sender
	EmailComposer *email.Composer
	ResetTokenTTL time.Duration

	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	assessmentService   AssessmentService
	questionService     QuestionService
	diagnosticService   DiagnosticService
	responseService     ResponseService
	examineeService     ExamineeService
	userService         UserService
	accountService      AccountService
	authService         AuthService
	exportService       ExportService
	notificationService NotificationService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// NewDefaultServiceManager fills in in-process defaults for anything left
// unset: a memory blacklist, a local login limiter, a no-op email sender
// and no event publisher.
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	if config.Blacklist == nil {
		config.Blacklist = cache.NewMemoryTokenBlacklist()
	}
	if config.LoginLimiter == nil {
		config.LoginLimiter = cache.NewLocalRateLimiter(time.Minute, 10)
	}
	if config.EmailSender == nil {
		config.EmailSender = email.NewNoopSender(logger)
	}
	if config.EmailComposer == nil {
		config.EmailComposer = email.NewComposer("")
	}
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = 4 * time.Hour
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}
	return NewServiceManager(db, repo, logger, validator, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if sm.config.Tokens == nil {
		return fmt.Errorf("failed to initialize services: token manager is required")
	}

	sm.assessmentService = NewAssessmentService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.questionService = NewQuestionService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.diagnosticService = NewDiagnosticService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.responseService = NewResponseService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.Publisher)
	sm.examineeService = NewExamineeService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.userService = NewUserService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.accountService = NewAccountService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.authService = NewAuthService(sm.repo, sm.db, sm.logger, sm.validator, AuthDependencies{
		Tokens:        sm.config.Tokens,
		Blacklist:     sm.config.Blacklist,
		LoginLimiter:  sm.config.LoginLimiter,
		Publisher:     sm.config.Publisher,
		ResetTokenTTL: sm.config.ResetTokenTTL,
	})
	sm.exportService = NewExportService(sm.repo, sm.db, sm.logger)
	sm.notificationService = NewNotificationService(sm.repo, sm.db, sm.logger, sm.config.EmailSender, sm.config.EmailComposer, sm.config.ResetTokenTTL)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) ready() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) Assessment() AssessmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.assessmentService
}

func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.questionService
}

func (sm *serviceManager) Diagnostic() DiagnosticService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.diagnosticService
}

func (sm *serviceManager) Response() ResponseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.responseService
}

func (sm *serviceManager) Examinee() ExamineeService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.examineeService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.userService
}

func (sm *serviceManager) Account() AccountService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.accountService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.authService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.exportService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready()
	return sm.notificationService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, sm.config.DefaultTimeout)
	defer cancel()

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.config.Publisher != nil {
		if err := sm.config.Publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
