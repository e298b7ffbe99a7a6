package auth

import (
	"context"
	"errors"
	"testing"
)

func TestProtectUnauthenticated(t *testing.T) {
	if err := Protect(context.Background(), RoleViewer); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	ctx := ContextWithIdentity(context.Background(), &Identity{})
	if err := Protect(ctx, RoleViewer); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("identity without ID: expected ErrUnauthenticated, got %v", err)
	}
}

func TestProtectProfileRequired(t *testing.T) {
	ctx := ContextWithIdentity(context.Background(), &Identity{ID: "user-1"})
	if err := Protect(ctx, RoleViewer); !errors.Is(err, ErrProfileRequired) {
		t.Fatalf("expected ErrProfileRequired, got %v", err)
	}
}

func TestProtectRoleRank(t *testing.T) {
	ctx := ContextWithIdentity(context.Background(), &Identity{ID: "user-1", Role: RoleAgent})
	if err := Protect(ctx, RoleAgent); err != nil {
		t.Fatalf("agent blocked from agent route: %v", err)
	}
	if err := Protect(ctx, RoleViewer); err != nil {
		t.Fatalf("agent blocked from viewer route: %v", err)
	}
	if err := Protect(ctx, RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestProtectUnknownRoleDenied(t *testing.T) {
	ctx := ContextWithIdentity(context.Background(), &Identity{ID: "user-1", Role: "owner"})
	if err := Protect(ctx, RoleViewer); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unknown role, got %v", err)
	}
}
