package sessions

import (
	"strconv"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	clienterrors "github.com/bilguunDash/online-shopping-sub000/internal/errors"
	"github.com/bilguunDash/online-shopping-sub000/internal/utils"
)

const rolePrefix = "ROLE_"

// DecodeClaims extracts Claims from a raw access token without verifying its
// signature; the server remains the authority on token validity. The token
// may arrive with or without the "Bearer " prefix. Any malformed input
// returns an error wrapping ErrDecodeFailure and never panics.
func DecodeClaims(rawToken string) (*Claims, error) {
	trimmed := strings.TrimSpace(rawToken)
	trimmed = strings.TrimPrefix(trimmed, "Bearer ")
	if trimmed == "" {
		return nil, clienterrors.Wrapf(clienterrors.ErrDecodeFailure, "empty token")
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(trimmed, jwtlib.MapClaims{})
	if err != nil {
		return nil, clienterrors.Wrapf(clienterrors.ErrDecodeFailure, "parsing token: %v", err)
	}

	mapClaims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, clienterrors.Wrapf(clienterrors.ErrDecodeFailure, "extracting claims")
	}

	claims := &Claims{}
	claims.SubjectID, _ = mapClaims["sub"].(string)
	if claims.SubjectID == "" {
		if id, ok := mapClaims["id"].(float64); ok {
			claims.SubjectID = formatNumericID(id)
		}
	}
	claims.FirstName, _ = mapClaims["firstname"].(string)
	claims.LastName, _ = mapClaims["lastname"].(string)
	claims.Role = extractRole(mapClaims)
	return claims, nil
}

// extractRole handles both claim shapes the API has been observed to emit: a
// flat "role" string and an "authorities" array whose elements are either
// bare strings or objects with an "authority" field. A ROLE_ namespace prefix
// is stripped either way.
func extractRole(claims jwtlib.MapClaims) string {
	if role, ok := claims["role"].(string); ok && role != "" {
		return strings.TrimPrefix(role, rolePrefix)
	}

	authorities, ok := claims["authorities"].([]any)
	if !ok || len(authorities) == 0 {
		return ""
	}
	if roles := utils.ToStringSlice(authorities); len(roles) > 0 {
		return strings.TrimPrefix(roles[0], rolePrefix)
	}
	if first, ok := authorities[0].(map[string]any); ok {
		if authority, ok := first["authority"].(string); ok {
			return strings.TrimPrefix(authority, rolePrefix)
		}
	}
	return ""
}

func formatNumericID(id float64) string {
	// JSON numbers decode as float64; subject IDs are integral.
	return strconv.FormatFloat(id, 'f', -1, 64)
}
