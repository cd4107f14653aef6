package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func newAssessmentRouter(user *models.User, responseSvc services.ResponseService, exportSvc services.ExportService) *gin.Engine {
	h := NewAssessmentHandler(nil, responseSvc, exportSvc, testLogger())
	authSvc := &mockAuthService{}
	authSvc.On("Authenticate", testToken).Return(user, &auth.Claims{}, nil)
	am := NewAuthMiddleware(authSvc, testLogger())

	r := gin.New()
	r.POST("/assessments/:id/responses", am.RequireAuth(), h.CreateResponse)
	r.GET("/assessments/:id/responses/export", am.RequireAuth(), h.ExportResponses)
	return r
}

func TestExportResponses_Headers(t *testing.T) {
	exportSvc := &mockExportService{}
	exportSvc.On("ExportResponses", uint(12)).Return(&services.ExportFile{
		Filename:    "phq-9_responses.xlsx",
		ContentType: xlsxContentType,
		Data:        []byte("PK\x03\x04"),
	}, nil)

	w := doGet(newAssessmentRouter(staffUser(models.RoleAssessmentReviewer), nil, exportSvc),
		"/assessments/12/responses/export", testToken)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="phq-9_responses.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK\x03\x04", w.Body.String())
}

func TestExportResponses_UnknownAssessment(t *testing.T) {
	exportSvc := &mockExportService{}
	exportSvc.On("ExportResponses", uint(99)).
		Return(nil, &services.NotFoundError{Resource: "Assessment", ID: uint(99)})

	w := doGet(newAssessmentRouter(staffUser(models.RoleAssessmentReviewer), nil, exportSvc),
		"/assessments/99/responses/export", testToken)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportResponses_BadID(t *testing.T) {
	exportSvc := &mockExportService{}

	w := doGet(newAssessmentRouter(staffUser(models.RoleAssessmentReviewer), nil, exportSvc),
		"/assessments/abc/responses/export", testToken)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	exportSvc.AssertNotCalled(t, "ExportResponses", mock.Anything)
}

func TestCreateResponse(t *testing.T) {
	const examineeID = "0b8c7e52-1d3f-4a8a-9d55-2f0f4a6b9c11"
	body := `{"examinee_id":"` + examineeID + `"}`

	t.Run("creator is the caller's account", func(t *testing.T) {
		user := staffUser(models.RoleAssessmentDeveloper)
		responseSvc := &mockResponseService{}
		responseSvc.On("Create", uint(3), &services.CreateResponseRequest{ExamineeID: examineeID}, user.Account.ID).
			Return(&models.AssessmentResponse{ID: testResponseID, Status: models.ResponsePending}, nil)

		w := postJSON(newAssessmentRouter(user, responseSvc, nil), "/assessments/3/responses", body, testToken)

		assert.Equal(t, http.StatusCreated, w.Code)
		responseSvc.AssertExpectations(t)
	})

	t.Run("user without account", func(t *testing.T) {
		responseSvc := &mockResponseService{}

		w := postJSON(newAssessmentRouter(staffUser(""), responseSvc, nil), "/assessments/3/responses", body, testToken)

		assert.Equal(t, http.StatusForbidden, w.Code)
		responseSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}
