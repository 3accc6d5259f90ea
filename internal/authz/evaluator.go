// Package authz decides whether a user may perform an action. Decisions are
// expressed as an embedded Rego policy evaluated in-process by OPA, so the
// rules can be read, tested, and changed without touching handler code.
package authz

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"

	"auth-boilerplate/backend/internal/user/domain"
)

// Actions the policy knows about.
const (
	ActionUsersRead    = "users:read"
	ActionUsersReadAny = "users:read_any"
	ActionUsersList    = "users:list"
	ActionUsersDelete  = "users:delete"
)

const policyModule = `package authboilerplate.authz

default allow = false

# Any authenticated active user may read user records.
allow if {
	input.action == "users:read"
	input.user.is_active
}

# Reading other accounts, listing, and deleting are reserved for superusers.
allow if {
	input.action == "users:read_any"
	input.user.is_active
	input.user.is_superuser
}

allow if {
	input.action == "users:list"
	input.user.is_active
	input.user.is_superuser
}

allow if {
	input.action == "users:delete"
	input.user.is_active
	input.user.is_superuser
}
`

// Evaluator answers allow/deny questions against the compiled policy.
type Evaluator struct {
	query rego.PreparedEvalQuery
}

// NewEvaluator compiles the embedded policy once. A compile failure is a
// programming error and surfaces at startup, not per request.
func NewEvaluator(ctx context.Context) (*Evaluator, error) {
	query, err := rego.New(
		rego.Query("data.authboilerplate.authz.allow"),
		rego.Module("authz.rego", policyModule),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile authz policy: %w", err)
	}
	return &Evaluator{query: query}, nil
}

// Allow reports whether user may perform action. A nil user is never allowed.
func (e *Evaluator) Allow(ctx context.Context, user *domain.User, action string) (bool, error) {
	if user == nil {
		return false, nil
	}
	input := map[string]interface{}{
		"action": action,
		"user": map[string]interface{}{
			"id":           user.ID,
			"is_active":    user.IsActive,
			"is_superuser": user.IsSuperuser,
		},
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval authz policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}
