package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/apperr"
)

func TestIssueValidateRoundTrip(t *testing.T) {
	t.Parallel()

	svc := NewService([]byte("super-secret"), time.Hour)

	tok, err := svc.Issue("user-123", "role_user")
	require.NoError(t, err)

	id, err := svc.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.UserID)
	assert.Equal(t, "role_user", id.Role)
}

func TestValidateQuotedToken(t *testing.T) {
	t.Parallel()

	svc := NewService([]byte("super-secret"), time.Hour)

	tok, err := svc.Issue("user-123", "role_user")
	require.NoError(t, err)

	id, err := svc.Validate(`"` + tok + `"`)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.UserID)

	id, err = svc.Validate("Bearer '" + tok + "'")
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.UserID)
}

func TestValidateExpired(t *testing.T) {
	t.Parallel()

	svc := NewService([]byte("super-secret"), -time.Minute)

	tok, err := svc.Issue("user-123", "role_user")
	require.NoError(t, err)

	_, err = svc.Validate(tok)
	require.Error(t, err)
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))
	assert.Equal(t, "the token has expired", apperr.MessageOf(err))
}

func TestValidateMissing(t *testing.T) {
	t.Parallel()

	svc := NewService([]byte("super-secret"), time.Hour)

	_, err := svc.Validate("")
	require.Error(t, err)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestValidateMalformed(t *testing.T) {
	t.Parallel()

	svc := NewService([]byte("super-secret"), time.Hour)

	_, err := svc.Validate("not.a.jwt")
	require.Error(t, err)
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))
}

func TestValidateWrongSecret(t *testing.T) {
	t.Parallel()

	right := NewService([]byte("right-secret"), time.Hour)
	wrong := NewService([]byte("wrong-secret"), time.Hour)

	tok, err := right.Issue("user-123", "role_user")
	require.NoError(t, err)

	_, err = wrong.Validate(tok)
	require.Error(t, err)
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))
}
