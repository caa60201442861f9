package entitystore

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// checkTokenExpiry はJWTなら exp を見て期限切れを拒否する。
// JWTでない不透明トークンはそのまま通す（検証はストア側の仕事）。
func checkTokenExpiry(token string, log *slog.Logger) error {
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		if log != nil {
			log.Debug("entity store token is not a JWT, using as-is")
		}
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}

	if exp.Before(time.Now()) {
		return fmt.Errorf("entity store token expired at %s", exp.Format(time.RFC3339))
	}

	if log != nil {
		log.Info("entity store token accepted", "expires_at", exp.Format(time.RFC3339))
	}
	return nil
}
