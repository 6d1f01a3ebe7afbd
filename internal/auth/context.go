package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxContractorID
	ctxRole
)

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID       string
	ContractorID string
	Role         string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, id.UserID)
	ctx = context.WithValue(ctx, ctxContractorID, id.ContractorID)
	ctx = context.WithValue(ctx, ctxRole, id.Role)
	return ctx
}

// IdentityFrom returns whatever identity is present. Fields may be empty.
func IdentityFrom(ctx context.Context) Identity {
	uid, _ := ctx.Value(ctxUserID).(string)
	cid, _ := ctx.Value(ctxContractorID).(string)
	role, _ := ctx.Value(ctxRole).(string)
	return Identity{UserID: uid, ContractorID: cid, Role: role}
}

func UserID(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxUserID).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func ContractorID(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxContractorID).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("contractor_id not in context")
}

func Role(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxRole).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}
