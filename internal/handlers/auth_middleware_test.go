package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/services"
)

const testToken = "header.payload.signature"

func staffUser(role models.UserRole) *models.User {
	user := &models.User{ID: "5b1f0a8e-8a52-4b8f-9a0e-3f3c2d1e0b7a", Email: "r.okafor@hazeltonclinic.com"}
	if role != "" {
		user.Account = &models.Account{ID: "acc-1", FirstName: "Rita", LastName: "Okafor", Role: role, UserID: user.ID}
	}
	return user
}

func newProtectedRouter(authSvc services.AuthService, roles ...models.UserRole) *gin.Engine {
	am := NewAuthMiddleware(authSvc, testLogger())
	r := gin.New()
	chain := []gin.HandlerFunc{am.RequireAuth()}
	if len(roles) > 0 {
		chain = append(chain, am.RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ctxUserID)})
	})
	r.GET("/protected", chain...)
	return r
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	authSvc := &mockAuthService{}
	w := doGet(newProtectedRouter(authSvc), "/protected", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	authSvc.AssertNotCalled(t, "Authenticate")
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	authSvc := &mockAuthService{}
	authSvc.On("Authenticate", testToken).Return(nil, nil, services.ErrInvalidToken)

	w := doGet(newProtectedRouter(authSvc), "/protected", testToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Could not validate credentials", decodeError(t, w).Message)
}

func TestRequireAuth_BackendFailure(t *testing.T) {
	authSvc := &mockAuthService{}
	authSvc.On("Authenticate", testToken).Return(nil, nil, errors.New("redis: connection refused"))

	w := doGet(newProtectedRouter(authSvc), "/protected", testToken)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAuth_Success(t *testing.T) {
	user := staffUser(models.RoleAssessmentReviewer)
	authSvc := &mockAuthService{}
	authSvc.On("Authenticate", testToken).Return(user, &auth.Claims{Email: user.Email}, nil)

	w := doGet(newProtectedRouter(authSvc), "/protected", testToken)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		wantStatus int
		wantMsg    string
	}{
		{"admin allowed", staffUser(models.RoleAdmin), http.StatusOK, ""},
		{"no account", staffUser(""), http.StatusForbidden, "User has no associated account"},
		{"wrong role", staffUser(models.RoleAssessmentDeveloper), http.StatusForbidden, "Insufficient permissions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authSvc := &mockAuthService{}
			authSvc.On("Authenticate", testToken).Return(tt.user, &auth.Claims{}, nil)

			w := doGet(newProtectedRouter(authSvc, models.RoleAdmin), "/protected", testToken)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, decodeError(t, w).Message)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}
