package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/userauth/auth-service/internal/core/domain"
	"github.com/userauth/auth-service/internal/core/ports"
)

func TestBuildListFilter(t *testing.T) {
	active := false
	tests := []struct {
		name   string
		filter ports.ListUsersFilter
		want   bson.M
	}{
		{
			name:   "empty",
			filter: ports.ListUsersFilter{},
			want:   bson.M{},
		},
		{
			name:   "role and status",
			filter: ports.ListUsersFilter{Role: domain.RoleAdmin, Active: &active},
			want:   bson.M{"role": "admin", "is_active": false},
		},
		{
			name:   "search is escaped and case-insensitive",
			filter: ports.ListUsersFilter{Search: "a.b+"},
			want: bson.M{"$or": bson.A{
				bson.M{"first_name": primitive.Regex{Pattern: `a\.b\+`, Options: "i"}},
				bson.M{"last_name": primitive.Regex{Pattern: `a\.b\+`, Options: "i"}},
				bson.M{"email": primitive.Regex{Pattern: `a\.b\+`, Options: "i"}},
			}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, buildListFilter(tc.filter)); diff != "" {
				t.Fatalf("filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProfileSet(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	email := " New@Example.com"
	first := "Ann"

	got := profileSet(ports.ProfileChanges{FirstName: &first, Email: &email}, now)
	want := bson.M{"first_name": "Ann", "email": "new@example.com", "updated_at": now}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("set mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginFailurePipeline(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	policy := domain.LockoutPolicy{MaxAttempts: 3, LockDuration: time.Hour}

	p := loginFailurePipeline(policy, now)
	if len(p) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(p))
	}
	if p[0][0].Key != "$set" || p[1][0].Key != "$set" || p[2][0].Key != "$unset" {
		t.Fatalf("unexpected stage order: %v", p)
	}

	set := p[1][0].Value.(bson.M)
	if !cmp.Equal(set["updated_at"], now) {
		t.Fatalf("updated_at must be stamped with now, got %v", set["updated_at"])
	}

	sw := set["lock_until"].(bson.M)["$switch"].(bson.M)
	branches := sw["branches"].(bson.A)
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(branches))
	}
	if then := branches[0].(bson.M)["then"]; then != "$$REMOVE" {
		t.Fatalf("expired lock must be removed, got %v", then)
	}
	if then := branches[1].(bson.M)["then"]; !cmp.Equal(then, now.Add(time.Hour)) {
		t.Fatalf("expected lock until %v, got %v", now.Add(time.Hour), then)
	}

	threshold := branches[1].(bson.M)["case"].(bson.M)["$and"].(bson.A)[1].(bson.M)["$gte"].(bson.A)[1]
	if threshold != 3 {
		t.Fatalf("expected threshold 3, got %v", threshold)
	}

	if diff := cmp.Diff(bson.A{"_lock_expired", "_locked"}, p[2][0].Value); diff != "" {
		t.Fatalf("temporary fields must be unset (-want +got):\n%s", diff)
	}
}

func TestReplaceTokenPipeline(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	got := replaceTokenPipeline("old", "new", now)
	want := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"refresh_tokens": bson.M{"$slice": bson.A{
				bson.M{"$concatArrays": bson.A{
					bson.M{"$filter": bson.M{
						"input": "$refresh_tokens",
						"as":    "t",
						"cond":  bson.M{"$ne": bson.A{"$$t", "old"}},
					}},
					bson.A{"new"},
				}},
				-domain.MaxRefreshTokens,
			}},
			"updated_at": now,
		}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pipeline mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectID(t *testing.T) {
	if _, err := objectID("not-an-id"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex())
	if err != nil || got != oid {
		t.Fatalf("expected %s, got %s (%v)", oid.Hex(), got.Hex(), err)
	}
}

func TestToDocument(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	u := &domain.User{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "ANN@example.com",
		Role:      domain.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc := toDocument(u)
	if doc.Email != "ann@example.com" {
		t.Fatalf("expected normalized email, got %q", doc.Email)
	}
	if doc.RefreshTokens == nil {
		t.Fatalf("refresh_tokens must be stored as an array so $push works")
	}
}
