package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
)

func TestUserService_Create_WithAccount(t *testing.T) {
	repo := newMockRepository()
	svc := NewUserService(repo, nil, testLogger(), validator.New())

	repo.user.On("ExistsByEmail", "new.clinician@example.com", (*string)(nil)).Return(false, nil)
	repo.user.On("Create", mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "new.clinician@example.com" && auth.CheckPassword(u.PasswordHash, testPassword)
	})).Return(nil)
	repo.account.On("Create", mock.MatchedBy(func(a *models.Account) bool {
		return a.FirstName == "Ada" && a.Role == models.RoleAssessmentReviewer && a.UserID != ""
	})).Return(nil)

	user, err := svc.Create(context.Background(), &CreateUserRequest{
		Email:    "New.Clinician@example.com",
		Password: testPassword,
		Account:  &validator.AccountInput{FirstName: " Ada ", LastName: "Lovelace", Role: models.RoleAssessmentReviewer},
	})
	require.NoError(t, err)
	require.NotNil(t, user.Account)
	assert.Equal(t, user.ID, user.Account.UserID)
	assert.Equal(t, 1, repo.transactions)
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewUserService(repo, nil, testLogger(), validator.New())

	repo.user.On("ExistsByEmail", testEmail, (*string)(nil)).Return(true, nil)

	_, err := svc.Create(context.Background(), &CreateUserRequest{Email: testEmail, Password: testPassword})
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	assert.Zero(t, repo.transactions)
}

func TestUserService_Create_WeakPassword(t *testing.T) {
	repo := newMockRepository()
	svc := NewUserService(repo, nil, testLogger(), validator.New())

	_, err := svc.Create(context.Background(), &CreateUserRequest{Email: testEmail, Password: "lettersonly"})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "password_strength", verrs[0].Rule)
}

func TestUserService_Update_AddsAccount(t *testing.T) {
	repo := newMockRepository()
	svc := NewUserService(repo, nil, testLogger(), validator.New())

	repo.user.On("GetByID", testUserID).Return(&models.User{ID: testUserID, Email: testEmail}, nil)
	repo.user.On("Update", mock.MatchedBy(func(u *models.User) bool { return u.PasswordHash == "" })).Return(nil)
	repo.account.On("Create", mock.MatchedBy(func(a *models.Account) bool {
		return a.UserID == testUserID && a.Role == models.RoleAdmin
	})).Return(nil)

	_, err := svc.Update(context.Background(), testUserID, &UpdateUserRequest{
		Account: &validator.AccountPatch{FirstName: ptr("Grace"), LastName: ptr("Hopper"), Role: ptr(models.RoleAdmin)},
	})
	require.NoError(t, err)
	repo.account.AssertNotCalled(t, "Update", mock.Anything)
}

func TestUserService_Update_PartialAccountForUserWithoutOne(t *testing.T) {
	repo := newMockRepository()
	svc := NewUserService(repo, nil, testLogger(), validator.New())

	repo.user.On("GetByID", testUserID).Return(&models.User{ID: testUserID, Email: testEmail}, nil)

	_, err := svc.Update(context.Background(), testUserID, &UpdateUserRequest{
		Account: &validator.AccountPatch{FirstName: ptr("Grace")},
	})

	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
	assert.Zero(t, repo.transactions)
}

func TestUserService_Update_EmailTaken(t *testing.T) {
	repo := newMockRepository()
	svc := NewUserService(repo, nil, testLogger(), validator.New())

	id := testUserID
	repo.user.On("GetByID", testUserID).Return(&models.User{ID: testUserID, Email: testEmail}, nil)
	repo.user.On("ExistsByEmail", "taken@example.com", &id).Return(true, nil)

	_, err := svc.Update(context.Background(), testUserID, &UpdateUserRequest{Email: ptr("taken@example.com")})
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	repo := newMockRepository()
	svc := NewUserService(repo, nil, testLogger(), validator.New())

	repo.user.On("GetByID", "missing").Return(nil, gorm.ErrRecordNotFound)
	repo.user.On("SoftDelete", "missing").Return(repositories.ErrNotFound)

	_, err := svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), ErrUserNotFound)
}

func TestAccountService_Create(t *testing.T) {
	repo := newMockRepository()
	svc := NewAccountService(repo, nil, testLogger(), validator.New())

	repo.user.On("GetByID", testUserID).Return(&models.User{ID: testUserID}, nil)
	repo.account.On("GetByUserID", testUserID).Return(nil, gorm.ErrRecordNotFound)
	repo.account.On("Create", mock.AnythingOfType("*models.Account")).Return(nil)

	account, err := svc.Create(context.Background(), &CreateAccountRequest{
		UserID: testUserID, FirstName: "Ada", LastName: "Lovelace", Role: models.RoleAssessmentDeveloper,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
}

func TestAccountService_Create_OnePerUser(t *testing.T) {
	repo := newMockRepository()
	svc := NewAccountService(repo, nil, testLogger(), validator.New())

	repo.user.On("GetByID", testUserID).Return(&models.User{ID: testUserID}, nil)
	repo.account.On("GetByUserID", testUserID).Return(&models.Account{ID: testAccountID}, nil)

	_, err := svc.Create(context.Background(), &CreateAccountRequest{
		UserID: testUserID, FirstName: "Ada", LastName: "Lovelace", Role: models.RoleAssessmentDeveloper,
	})
	assert.ErrorIs(t, err, ErrAccountAlreadyExists)
	repo.account.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAccountService_Create_UnknownRole(t *testing.T) {
	repo := newMockRepository()
	svc := NewAccountService(repo, nil, testLogger(), validator.New())

	_, err := svc.Create(context.Background(), &CreateAccountRequest{
		UserID: testUserID, FirstName: "Ada", LastName: "Lovelace", Role: "superuser",
	})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "user_role", verrs[0].Rule)
}
