package auth

import (
	"context"
	"testing"

	"invitera-service/internal/domain/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeHints struct {
	stored   map[string]string
	err      error
	consumed []string
}

func (f *fakeHints) Consume(_ context.Context, clientID string) (string, error) {
	f.consumed = append(f.consumed, clientID)
	if f.err != nil {
		return "", f.err
	}
	path := f.stored[clientID]
	delete(f.stored, clientID)
	return path, nil
}

func TestResolveDestination(t *testing.T) {
	t.Run("hint replays once then home", func(t *testing.T) {
		hints := &fakeHints{stored: map[string]string{"client-1": "/services/wedding"}}
		svc := &AuthService{hints: hints, logger: zap.NewNop()}

		assert.Equal(t, "/services/wedding", svc.resolveDestination(context.Background(), "client-1", false))
		assert.Equal(t, "/", svc.resolveDestination(context.Background(), "client-1", false))
	})

	t.Run("profile completion outranks the hint and still consumes it", func(t *testing.T) {
		hints := &fakeHints{stored: map[string]string{"client-1": "/services/wedding"}}
		svc := &AuthService{hints: hints, logger: zap.NewNop()}

		assert.Equal(t, "/auth/complete-profile", svc.resolveDestination(context.Background(), "client-1", true))
		assert.Equal(t, []string{"client-1"}, hints.consumed)
		assert.Equal(t, "/", svc.resolveDestination(context.Background(), "client-1", false))
	})

	t.Run("consume error falls back to home", func(t *testing.T) {
		hints := &fakeHints{err: context.DeadlineExceeded}
		svc := &AuthService{hints: hints, logger: zap.NewNop()}

		assert.Equal(t, "/", svc.resolveDestination(context.Background(), "client-1", false))
	})
}

func TestVerifyEmailRedirectCarriesAddress(t *testing.T) {
	assert.Equal(t, "/auth/verify-email?email=amina%40example.com",
		verifyEmailRedirect("amina@example.com"))
	assert.Equal(t, "/auth/verify-email?email=a%2Bb%40example.com",
		verifyEmailRedirect("a+b@example.com"))
}

// A zero-value service has no repositories behind it, so these cases
// double as proof that a failed validation never reaches the store.
func TestSignupValidationWritesNothing(t *testing.T) {
	svc := &AuthService{}

	tests := []struct {
		name string
		req  auth.SignupRequest
		want []string
	}{
		{
			name: "weak password reported item by item",
			req: auth.SignupRequest{
				FirstName:       "Amina",
				LastName:        "Otieno",
				Email:           "amina@example.com",
				Gender:          "female",
				Password:        "abc12345",
				ConfirmPassword: "abc12345",
			},
			want: []string{
				"Password must contain at least one uppercase letter",
				"Password must contain at least one special character",
			},
		},
		{
			name: "mismatched confirmation",
			req: auth.SignupRequest{
				FirstName:       "Amina",
				LastName:        "Otieno",
				Email:           "amina@example.com",
				Gender:          "female",
				Password:        "Str0ng!pass",
				ConfirmPassword: "Str0ng!pas",
			},
			want: []string{"Passwords do not match"},
		},
		{
			name: "missing gender is rejected",
			req: auth.SignupRequest{
				FirstName:       "Amina",
				LastName:        "Otieno",
				Email:           "amina@example.com",
				Password:        "Str0ng!pass",
				ConfirmPassword: "Str0ng!pass",
			},
			want: []string{"Gender must be male, female or other"},
		},
		{
			name: "everything wrong at once",
			req: auth.SignupRequest{
				Email:           "not-an-email",
				Gender:          "unknown",
				Password:        "short",
				ConfirmPassword: "short",
			},
			want: []string{
				"First name is required",
				"Last name is required",
				"A valid email address is required",
				"Gender must be male, female or other",
				"Password must be at least 8 characters long",
				"Password must contain at least one uppercase letter",
				"Password must contain at least one number",
				"Password must contain at least one special character",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, failures, err := svc.Signup(context.Background(), &tt.req)
			require.NoError(t, err)
			assert.Nil(t, resp)
			assert.Equal(t, tt.want, failures)
		})
	}
}
