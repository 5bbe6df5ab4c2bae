package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"invitera-service/internal/pkg/response"
	authUsecase "invitera-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signupRequest(t *testing.T, h *AuthHandler, body map[string]string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/signup", h.Signup)

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

// The validation path never touches a repository, so a bare service is
// enough to exercise the full handler round trip.
func TestSignupReturnsItemizedValidationErrors(t *testing.T) {
	h := NewAuthHandler(&authUsecase.AuthService{}, zap.NewNop())

	w, resp := signupRequest(t, h, map[string]string{
		"first_name":       "Amina",
		"last_name":        "Otieno",
		"email":            "amina@example.com",
		"gender":           "female",
		"password":         "abc12345",
		"confirm_password": "abc12345",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var failure struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(data, &failure))

	assert.Equal(t, []string{
		"Password must contain at least one uppercase letter",
		"Password must contain at least one special character",
	}, failure.Errors)
}

func TestSignupRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&authUsecase.AuthService{}, zap.NewNop())

	r := gin.New()
	r.POST("/signup", h.Signup)

	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
