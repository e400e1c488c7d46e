package cache

import (
	"context"
	"testing"
	"time"

	"github.com/labfoundry/custodian"
	"github.com/labfoundry/custodian/entity"
)

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	req := &custodian.PermissionContext{
		UserID:     "u1",
		LabID:      "lab-1",
		EntityType: entity.TypeStudy,
		EntityID:   "study-1",
		Action:     custodian.ActionView,
	}
	result := &custodian.PermissionResult{Allowed: true, Method: custodian.MethodLabRole}

	// Miss
	_, ok := c.Get(ctx, req)
	if ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, req, result)
	got, ok := c.Get(ctx, req)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Allowed {
		t.Fatal("expected allowed")
	}
}

func TestMemoryCacheKeysOnResourceSpecific(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	optedIn := &custodian.PermissionContext{
		UserID:           "u1",
		LabID:            "lab-1",
		EntityType:       entity.TypeTask,
		EntityID:         "task-1",
		Action:           custodian.ActionEdit,
		ResourceSpecific: true,
	}
	c.Set(ctx, optedIn, &custodian.PermissionResult{Allowed: true, Method: custodian.MethodResourcePermission})

	// Same tuple without the opt-in flag must not see the cached allow.
	plain := *optedIn
	plain.ResourceSpecific = false
	if _, ok := c.Get(ctx, &plain); ok {
		t.Fatal("decision cached for an opted-in request served to a non-opted-in one")
	}
	if _, ok := c.Get(ctx, optedIn); !ok {
		t.Fatal("expected cache hit for the original request")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	req := &custodian.PermissionContext{
		UserID:     "u1",
		LabID:      "lab-1",
		EntityType: entity.TypeStudy,
		Action:     custodian.ActionView,
	}

	c.Set(ctx, req, &custodian.PermissionResult{Allowed: true})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, req)
	if ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheInvalidateLab(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	req1 := &custodian.PermissionContext{
		UserID:     "u1",
		LabID:      "lab-1",
		EntityType: entity.TypeStudy,
		Action:     custodian.ActionView,
	}
	req2 := &custodian.PermissionContext{
		UserID:     "u2",
		LabID:      "lab-1",
		EntityType: entity.TypeTask,
		Action:     custodian.ActionEdit,
	}
	req3 := &custodian.PermissionContext{
		UserID:     "u1",
		LabID:      "lab-2",
		EntityType: entity.TypeStudy,
		Action:     custodian.ActionView,
	}

	c.Set(ctx, req1, &custodian.PermissionResult{Allowed: true})
	c.Set(ctx, req2, &custodian.PermissionResult{Allowed: false})
	c.Set(ctx, req3, &custodian.PermissionResult{Allowed: true})

	c.InvalidateLab(ctx, "lab-1")

	if _, ok := c.Get(ctx, req1); ok {
		t.Fatal("expected lab-1 entry to be invalidated")
	}
	if _, ok := c.Get(ctx, req2); ok {
		t.Fatal("expected lab-1 entry to be invalidated")
	}
	if _, ok := c.Get(ctx, req3); !ok {
		t.Fatal("expected lab-2 entry to survive")
	}
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	mine := &custodian.PermissionContext{
		UserID:     "u1",
		LabID:      "lab-1",
		EntityType: entity.TypeStudy,
		Action:     custodian.ActionView,
	}
	theirs := &custodian.PermissionContext{
		UserID:     "u2",
		LabID:      "lab-1",
		EntityType: entity.TypeStudy,
		Action:     custodian.ActionView,
	}

	c.Set(ctx, mine, &custodian.PermissionResult{Allowed: true})
	c.Set(ctx, theirs, &custodian.PermissionResult{Allowed: true})

	c.InvalidateUser(ctx, "lab-1", "u1")

	if _, ok := c.Get(ctx, mine); ok {
		t.Fatal("expected u1 entry to be invalidated")
	}
	if _, ok := c.Get(ctx, theirs); !ok {
		t.Fatal("expected u2 entry to survive")
	}
}

func TestMemoryCacheMaxSizeEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2), WithTTL(time.Minute))

	for _, user := range []string{"u1", "u2", "u3"} {
		c.Set(ctx, &custodian.PermissionContext{
			UserID:     user,
			LabID:      "lab-1",
			EntityType: entity.TypeStudy,
			Action:     custodian.ActionView,
		}, &custodian.PermissionResult{Allowed: true})
	}

	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	if n > 2 {
		t.Fatalf("expected at most 2 entries after eviction, got %d", n)
	}
}
