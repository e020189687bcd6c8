package sessions_test

import (
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	clienterrors "github.com/bilguunDash/online-shopping-sub000/internal/errors"
	"github.com/bilguunDash/online-shopping-sub000/sessions"
)

func signedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestDecodeClaimsFlatRole(t *testing.T) {
	raw := signedToken(t, jwtlib.MapClaims{
		"sub":       "42",
		"firstname": "John",
		"lastname":  "Doe",
		"role":      "ROLE_ADMIN",
	})

	claims, err := sessions.DecodeClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "42", claims.SubjectID)
	require.Equal(t, "John", claims.FirstName)
	require.Equal(t, "Doe", claims.LastName)
	require.Equal(t, "ADMIN", claims.Role)
}

func TestDecodeClaimsAuthorityObjects(t *testing.T) {
	raw := signedToken(t, jwtlib.MapClaims{
		"sub": "7",
		"authorities": []any{
			map[string]any{"authority": "ROLE_USER"},
		},
	})

	claims, err := sessions.DecodeClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "USER", claims.Role)
}

func TestDecodeClaimsAuthorityStrings(t *testing.T) {
	raw := signedToken(t, jwtlib.MapClaims{
		"sub":         "7",
		"authorities": []any{"ROLE_USER", "ROLE_ADMIN"},
	})

	claims, err := sessions.DecodeClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "USER", claims.Role)
}

func TestDecodeClaimsBearerPrefixTolerated(t *testing.T) {
	raw := signedToken(t, jwtlib.MapClaims{"sub": "9", "role": "USER"})

	withPrefix, err := sessions.DecodeClaims("Bearer " + raw)
	require.NoError(t, err)
	withoutPrefix, err := sessions.DecodeClaims(raw)
	require.NoError(t, err)
	require.Equal(t, withoutPrefix, withPrefix)
}

func TestDecodeClaimsNumericSubject(t *testing.T) {
	raw := signedToken(t, jwtlib.MapClaims{"id": 42})

	claims, err := sessions.DecodeClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "42", claims.SubjectID)
}

func TestDecodeClaimsMalformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "Bearer ", "not-a-jwt", "a.b", "Bearer not.a.jwt"} {
		claims, err := sessions.DecodeClaims(raw)
		require.Nil(t, claims, "input %q", raw)
		require.ErrorIs(t, err, clienterrors.ErrDecodeFailure, "input %q", raw)
	}
}
