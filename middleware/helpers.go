package middleware

import (
	"context"
	"fmt"
)

const (
	jwtClaimSubject = "sub"
	jwtClaimRole    = "role"
)

// Scorer is the authenticated caller of a write route.
type Scorer struct {
	Subject string
	Role    string
}

func scorerFromClaims(claims map[string]interface{}) (Scorer, error) {
	sub, ok := claims[jwtClaimSubject].(string)
	if !ok || sub == "" {
		return Scorer{}, fmt.Errorf("missing '%s' claim in token", jwtClaimSubject)
	}
	role, ok := claims[jwtClaimRole].(string)
	if !ok {
		return Scorer{}, fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, claims[jwtClaimRole])
	}
	return Scorer{Subject: sub, Role: role}, nil
}

// ScorerFromContext returns the caller put there by RequireScorer.
func ScorerFromContext(ctx context.Context) (Scorer, error) {
	s, ok := ctx.Value(scorerContextKey).(Scorer)
	if !ok {
		return Scorer{}, errNoScorer
	}
	return s, nil
}
