// Command create-admin bootstraps an admin user with its account.
//
// Values missing from the flags are prompted for on stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/config"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/repositories/postgres"
	"github.com/hazelton-clinic/assessment-service/pkg"
)

type adminInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

func main() {
	var in adminInput
	flag.StringVar(&in.Email, "email", "", "admin email")
	flag.StringVar(&in.FirstName, "first-name", "", "admin first name")
	flag.StringVar(&in.LastName, "last-name", "", "admin last name")
	flag.StringVar(&in.Password, "password", "", "admin password (prompted when empty)")
	flag.Parse()

	if err := promptMissing(&in, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	if err := in.validate(); err != nil {
		log.Fatalf("Invalid input: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	if cfg.RunMigrations {
		if err := pkg.RunMigrations(db, cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := createAdmin(ctx, repo, in)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Printf("Admin created successfully: %s %s (%s)\n", user.Account.FirstName, user.Account.LastName, user.Email)
}

func (in *adminInput) validate() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return errors.New("a valid email is required")
	}
	if in.FirstName == "" || in.LastName == "" {
		return errors.New("first and last name are required")
	}
	return auth.ValidatePassword(in.Password, auth.MinAdminPasswordSize)
}

// promptMissing asks for every field the flags left empty.
func promptMissing(in *adminInput, r *bufio.Reader, w io.Writer) error {
	fields := []struct {
		label string
		dest  *string
	}{
		{"Email", &in.Email},
		{"First name", &in.FirstName},
		{"Last name", &in.LastName},
		{"Password", &in.Password},
	}
	for _, f := range fields {
		if *f.dest != "" {
			continue
		}
		fmt.Fprintf(w, "%s: ", f.label)
		line, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return fmt.Errorf("read %s: %w", strings.ToLower(f.label), err)
		}
		*f.dest = strings.TrimRight(line, "\r\n")
	}
	return nil
}

func createAdmin(ctx context.Context, repo repositories.Repository, in adminInput) (*models.User, error) {
	taken, err := repo.User().ExistsByEmail(ctx, nil, in.Email, nil)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("a user with email %s already exists", in.Email)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: uuid.NewString(), Email: in.Email, PasswordHash: hash}
	account := &models.Account{
		ID:        uuid.NewString(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      models.RoleAdmin,
		UserID:    user.ID,
	}

	err = repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.User().Create(ctx, nil, user); err != nil {
			return err
		}
		return txRepo.Account().Create(ctx, nil, account)
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, fmt.Errorf("a user with email %s already exists", in.Email)
		}
		return nil, err
	}

	user.Account = account
	return user, nil
}
