package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/hazelton-clinic/assessment-service/internal/cache"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
)

// PostgreSQLRepository implements repositories.Repository on gorm.
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	assessment       repositories.AssessmentRepository
	question         repositories.QuestionRepository
	diagnostic       repositories.DiagnosticRepository
	user             repositories.UserRepository
	account          repositories.AccountRepository
	examinee         repositories.ExamineeRepository
	response         repositories.ResponseRepository
	questionResponse repositories.QuestionResponseRepository
}

// RepositoryConfig holds what the repositories need. RedisClient may be nil.
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	return newRepository(config.DB, config.RedisClient, cache.NewCacheManager(config.RedisClient))
}

func newRepository(db *gorm.DB, redisClient *redis.Client, cacheManager *cache.CacheManager) *PostgreSQLRepository {
	return &PostgreSQLRepository{
		db:               db,
		redisClient:      redisClient,
		cacheManager:     cacheManager,
		assessment:       NewAssessmentPostgreSQL(db, cacheManager),
		question:         NewQuestionPostgreSQL(db, cacheManager),
		diagnostic:       NewDiagnosticPostgreSQL(db, cacheManager),
		user:             NewUserPostgreSQL(db, cacheManager),
		account:          NewAccountPostgreSQL(db, cacheManager),
		examinee:         NewExamineePostgreSQL(db, cacheManager),
		response:         NewResponsePostgreSQL(db, cacheManager),
		questionResponse: NewQuestionResponsePostgreSQL(db),
	}
}

func (r *PostgreSQLRepository) Assessment() repositories.AssessmentRepository { return r.assessment }
func (r *PostgreSQLRepository) Question() repositories.QuestionRepository     { return r.question }
func (r *PostgreSQLRepository) Diagnostic() repositories.DiagnosticRepository { return r.diagnostic }
func (r *PostgreSQLRepository) User() repositories.UserRepository             { return r.user }
func (r *PostgreSQLRepository) Account() repositories.AccountRepository       { return r.account }
func (r *PostgreSQLRepository) Examinee() repositories.ExamineeRepository     { return r.examinee }
func (r *PostgreSQLRepository) Response() repositories.ResponseRepository     { return r.response }

func (r *PostgreSQLRepository) QuestionResponse() repositories.QuestionResponseRepository {
	return r.questionResponse
}

// WithTransaction binds a fresh set of sub-repositories to one gorm
// transaction and hands them to fn.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepository(tx, r.redisClient, r.cacheManager))
	})
}

func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}
	return nil
}

func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	return nil
}

// RepositoryManager implements repositories.RepositoryManager.
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{config: config}
}

// Initialize verifies connectivity before building the repositories.
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if rm.config.RedisClient != nil {
		if err := rm.config.RedisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
