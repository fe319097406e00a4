package handlers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"casefile-backend/internal/ctxkeys"
)

// appendOrgScope adds an org_id scope filter to a dynamic WHERE clause.
// colExpr is the SQL column expression to filter on (e.g. "a.org_id").
// If the user has global scope (admin/super_admin), nothing is added.
func appendOrgScope(ctx context.Context, where string, args []interface{}, argIdx int, colExpr string) (string, []interface{}, int) {
	scope := ctxkeys.GetOrgScope(ctx)
	if scope == nil {
		return where, args, argIdx
	}
	where += fmt.Sprintf(" AND %s = ANY($%d)", colExpr, argIdx)
	args = append(args, scope)
	argIdx++
	return where, args, argIdx
}

// checkOrgAccess verifies that the given orgID is within the user's scope.
func checkOrgAccess(ctx context.Context, orgID string) bool {
	scope := ctxkeys.GetOrgScope(ctx)
	if scope == nil {
		return true
	}
	for _, id := range scope {
		if id == orgID {
			return true
		}
	}
	return false
}

// checkApplicantAccess looks up the applicant's org_id and checks scope.
func checkApplicantAccess(ctx context.Context, pool *pgxpool.Pool, applicantID string) bool {
	if ctxkeys.IsGlobalScope(ctx) {
		return true
	}
	var orgID string
	err := pool.QueryRow(ctx,
		"SELECT org_id::text FROM applicants WHERE id = $1", applicantID).Scan(&orgID)
	if err != nil {
		return false
	}
	return checkOrgAccess(ctx, orgID)
}

// checkApplicationAccess looks up the application's org_id and checks scope.
func checkApplicationAccess(ctx context.Context, pool *pgxpool.Pool, applicationID string) bool {
	if ctxkeys.IsGlobalScope(ctx) {
		return true
	}
	var orgID string
	err := pool.QueryRow(ctx,
		"SELECT org_id::text FROM applications WHERE id = $1", applicationID).Scan(&orgID)
	if err != nil {
		return false
	}
	return checkOrgAccess(ctx, orgID)
}

// checkDocumentAccess looks up the document's org_id and checks scope.
func checkDocumentAccess(ctx context.Context, pool *pgxpool.Pool, documentID string) bool {
	if ctxkeys.IsGlobalScope(ctx) {
		return true
	}
	var orgID string
	err := pool.QueryRow(ctx,
		"SELECT org_id::text FROM documents WHERE id = $1", documentID).Scan(&orgID)
	if err != nil {
		return false
	}
	return checkOrgAccess(ctx, orgID)
}

// checkCohortAccess looks up the cohort's org_id and checks scope.
func checkCohortAccess(ctx context.Context, pool *pgxpool.Pool, cohortID string) bool {
	if ctxkeys.IsGlobalScope(ctx) {
		return true
	}
	var orgID string
	err := pool.QueryRow(ctx,
		"SELECT org_id::text FROM cohorts WHERE id = $1", cohortID).Scan(&orgID)
	if err != nil {
		return false
	}
	return checkOrgAccess(ctx, orgID)
}

// checkEmployerAccess looks up the employer's org_id and checks scope.
func checkEmployerAccess(ctx context.Context, pool *pgxpool.Pool, employerID string) bool {
	if ctxkeys.IsGlobalScope(ctx) {
		return true
	}
	var orgID string
	err := pool.QueryRow(ctx,
		"SELECT org_id::text FROM employers WHERE id = $1", employerID).Scan(&orgID)
	if err != nil {
		return false
	}
	return checkOrgAccess(ctx, orgID)
}

// userOrgID resolves the caller's own organization. Returns nil for global
// admins, who must pass an explicit org when creating scoped records.
func userOrgID(ctx context.Context, pool *pgxpool.Pool) (*string, error) {
	userID, _ := ctx.Value(ctxkeys.UserID).(string)
	var orgID *string
	err := pool.QueryRow(ctx,
		"SELECT org_id::text FROM users WHERE id = $1", userID).Scan(&orgID)
	if err != nil {
		return nil, err
	}
	return orgID, nil
}
