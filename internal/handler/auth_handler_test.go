package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/uniplan/uniplan-api/internal/models"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
)

type authServiceMock struct {
	loginReq    models.LoginRequest
	loginErr    error
	approvalReq models.ApprovalRequest
	resetToken  string
}

func (m *authServiceMock) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.loginReq = req
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &models.LoginResponse{
		AccessToken: "token-1",
		User:        models.UserInfo{ID: "user-1", Email: req.Email, Role: models.RoleAdmin},
	}, nil
}

func (m *authServiceMock) Signup(_ context.Context, req models.SignupRequest) (*models.User, error) {
	return &models.User{ID: "user-2", Email: req.Email, Status: models.UserStatusPending}, nil
}

func (m *authServiceMock) ForgotPassword(_ context.Context, _ models.ResetPasswordRequest) (string, error) {
	return "reset-token", nil
}

func (m *authServiceMock) ResetPassword(_ context.Context, req models.ConfirmResetPasswordRequest) error {
	m.resetToken = req.Token
	return nil
}

func (m *authServiceMock) ListPending(_ context.Context) ([]models.User, error) {
	return []models.User{{ID: "user-3", Status: models.UserStatusPending}}, nil
}

func (m *authServiceMock) HandleApproval(_ context.Context, req models.ApprovalRequest) error {
	m.approvalReq = req
	return nil
}

func newAuthRequest(t *testing.T, method, target string, body []byte) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return w, c
}

func TestLoginSuccessEnvelope(t *testing.T) {
	mockSvc := &authServiceMock{}
	handler := &AuthHandler{service: mockSvc}
	w, c := newAuthRequest(t, http.MethodPost, "/auth/login", []byte(`{"email":"admin@example.com","password":"secret123"}`))

	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "admin@example.com", mockSvc.loginReq.Email)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "token-1", envelope.Data.AccessToken)
}

func TestLoginPendingApproval(t *testing.T) {
	mockSvc := &authServiceMock{loginErr: appErrors.ErrPendingApproval}
	handler := &AuthHandler{service: mockSvc}
	w, c := newAuthRequest(t, http.MethodPost, "/auth/login", []byte(`{"email":"new@example.com","password":"secret123"}`))

	handler.Login(c)

	require.Equal(t, appErrors.ErrPendingApproval.Status, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, appErrors.ErrPendingApproval.Code, envelope.Error.Code)
}

func TestLoginMalformedBody(t *testing.T) {
	handler := &AuthHandler{service: &authServiceMock{}}
	w, c := newAuthRequest(t, http.MethodPost, "/auth/login", []byte(`{"email":`))

	handler.Login(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupReturnsPendingStatus(t *testing.T) {
	handler := &AuthHandler{service: &authServiceMock{}}
	w, c := newAuthRequest(t, http.MethodPost, "/auth/signup", []byte(`{"email":"new@example.com","password":"secret123","full_name":"New Staff","role":"STAFF"}`))

	handler.Signup(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "PENDING")
}

func TestResetPasswordUsesPathToken(t *testing.T) {
	mockSvc := &authServiceMock{}
	handler := &AuthHandler{service: mockSvc}
	w, c := newAuthRequest(t, http.MethodPost, "/auth/reset-password/tok-123", []byte(`{"new_password":"newpass1"}`))
	c.Params = gin.Params{{Key: "token", Value: "tok-123"}}

	handler.ResetPassword(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "tok-123", mockSvc.resetToken)
}

func TestHandleApprovalPassesAction(t *testing.T) {
	mockSvc := &authServiceMock{}
	handler := &AuthHandler{service: mockSvc}
	w, c := newAuthRequest(t, http.MethodPost, "/users/handle-approval", []byte(`{"user_id":"user-3","action":"approve"}`))

	handler.HandleApproval(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "approve", mockSvc.approvalReq.Action)
}
