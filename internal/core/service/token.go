package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry reads the exp claim of a JWT bearer token without verifying
// its signature; the server stays the authority on validity. ok is false for
// opaque tokens or tokens without exp.
func tokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	nd, err := claims.GetExpirationTime()
	if err != nil || nd == nil {
		return time.Time{}, false
	}
	return nd.Time, true
}

// tokenExpired reports whether token carries an exp claim that lies before now.
func tokenExpired(token string, now time.Time) bool {
	exp, ok := tokenExpiry(token)
	return ok && !now.Before(exp)
}
