package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"poolroute_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	testSecret          = "test-secret"
	msgUnexpectedStatus = "expected status %d, got %d"
)

type staticJWT string

func (s staticJWT) GetJWTAccessSecret() string { return string(s) }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newProtectedRouter(allowed PermissionFunc, action string, seen *Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected",
		AuthRequired(staticJWT(testSecret)),
		RequireTenant(),
		RequirePermission(allowed, action),
		func(c *gin.Context) {
			*seen = GetIdentity(c)
			c.Status(http.StatusNoContent)
		},
	)
	return r
}

func onlyAdminsAssign(role, action string) bool {
	return role == "admin" && action == "assign"
}

func TestAuthRequiredPopulatesIdentity(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	var seen Identity
	r := newProtectedRouter(onlyAdminsAssign, "assign", &seen)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{
		"sub":       userID.String(),
		"roles":     []string{"admin"},
		"tenant_id": tenantID.String(),
		"type":      "access",
		"exp":       time.Now().Add(time.Minute).Unix(),
	}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf(msgUnexpectedStatus, http.StatusNoContent, w.Code)
	}
	if seen.UserID() != userID {
		t.Fatalf("expected user %s, got %s", userID, seen.UserID())
	}
	tid, ok := seen.TenantID()
	if !ok || tid != tenantID {
		t.Fatalf("expected tenant %s, got %s (%v)", tenantID, tid, ok)
	}
}

func TestAuthRequiredRejectsRefreshTokens(t *testing.T) {
	var seen Identity
	r := newProtectedRouter(onlyAdminsAssign, "assign", &seen)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": "refresh",
	}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf(msgUnexpectedStatus, http.StatusUnauthorized, w.Code)
	}
}

func TestRequireTenantRejectsMissingClaim(t *testing.T) {
	var seen Identity
	r := newProtectedRouter(onlyAdminsAssign, "assign", &seen)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{
		"sub":   uuid.NewString(),
		"roles": []string{"admin"},
		"type":  "access",
	}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf(msgUnexpectedStatus, http.StatusForbidden, w.Code)
	}
}

func TestRequirePermissionRejectsRole(t *testing.T) {
	var seen Identity
	r := newProtectedRouter(onlyAdminsAssign, "assign", &seen)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{
		"sub":       uuid.NewString(),
		"roles":     []string{"technician"},
		"tenant_id": uuid.NewString(),
		"type":      "access",
	}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf(msgUnexpectedStatus, http.StatusForbidden, w.Code)
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{apperr.InvalidTransition("visit is completed"), http.StatusConflict},
		{apperr.Unavailable("technician absent"), http.StatusConflict},
		{apperr.PartialFailure("some items failed"), http.StatusMultiStatus},
		{apperr.NotFound("visit not found"), http.StatusNotFound},
		{apperr.Forbidden("not your visit"), http.StatusForbidden},
		{errors.Join(errors.New("tx"), apperr.Validation("bad date")), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		HandleError(c, tc.err)
		if w.Code != tc.want {
			t.Fatalf("%v: "+msgUnexpectedStatus, tc.err, tc.want, w.Code)
		}
	}
}
