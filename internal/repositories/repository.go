package repositories

import "context"

// Repository aggregates every domain repository behind one value so services
// can run several of them inside a single transaction.
type Repository interface {
	// Assessment domain
	Assessment() AssessmentRepository
	Question() QuestionRepository
	Diagnostic() DiagnosticRepository

	// People
	User() UserRepository
	Account() AccountRepository
	Examinee() ExamineeRepository

	// Responses
	Response() ResponseRepository
	QuestionResponse() QuestionResponseRepository

	// WithTransaction runs fn with a Repository bound to one transaction.
	// Returning an error from fn rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
