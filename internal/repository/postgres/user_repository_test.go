package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/testutil"
)

func newTestUser(email string) *user.User {
	return &user.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "hash",
		IsActive:     true,
	}
}

func TestUserRepository_Create(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewUserRepository(db)

	tests := []struct {
		name    string
		user    *user.User
		wantErr bool
	}{
		{
			name:    "create user successfully",
			user:    newTestUser("test@example.com"),
			wantErr: false,
		},
		{
			name:    "create another user",
			user:    newTestUser("another@example.com"),
			wantErr: false,
		},
		{
			name:    "duplicate email differing only in case",
			user:    newTestUser("TEST@example.com"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			err := repo.Create(ctx, tt.user)

			if (err != nil) != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if tt.user.ID == 0 {
					t.Error("Create() did not set user ID")
				}
				if tt.user.Plan != plan.Free {
					t.Errorf("Create() plan = %v, want %v", tt.user.Plan, plan.Free)
				}
			}
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewUserRepository(db)
	ctx := context.Background()

	u := newTestUser("test@example.com")
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name    string
		userID  int64
		wantErr bool
	}{
		{name: "get existing user", userID: u.ID, wantErr: false},
		{name: "get non-existent user", userID: 99999, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetByID(ctx, tt.userID)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetByID() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !errors.IsNotFound(err) {
				t.Errorf("GetByID() error = %v, want not found", err)
			}
			if !tt.wantErr && got.Email != u.Email {
				t.Errorf("GetByID() email = %v, want %v", got.Email, u.Email)
			}
		})
	}
}

func TestUserRepository_UpdatePlan(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewUserRepository(db)
	ctx := context.Background()

	u := newTestUser("plan@example.com")
	repo.Create(ctx, u)

	expires := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	if err := repo.UpdatePlan(ctx, u.ID, plan.Pro, &expires); err != nil {
		t.Fatalf("UpdatePlan() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, u.ID)
	if got.Plan != plan.Pro {
		t.Errorf("plan = %v, want %v", got.Plan, plan.Pro)
	}
	if got.SubscriptionExpires == nil || !got.SubscriptionExpires.Equal(expires) {
		t.Errorf("subscription_expires = %v, want %v", got.SubscriptionExpires, expires)
	}

	if err := repo.UpdatePlan(ctx, 424242, plan.Pro, nil); !errors.IsNotFound(err) {
		t.Errorf("UpdatePlan() on missing user error = %v, want not found", err)
	}
}

func TestUserRepository_ResetToken(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	u := newTestUser("reset@example.com")
	repo.Create(ctx, u)

	expires := now.Add(time.Hour)
	u.ResetTokenHash = "abc123"
	u.ResetTokenExpires = &expires
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, err := repo.GetByResetTokenHash(ctx, "abc123", now); err != nil {
		t.Errorf("GetByResetTokenHash() error = %v", err)
	}
	if _, err := repo.GetByResetTokenHash(ctx, "abc123", now.Add(2*time.Hour)); !errors.IsNotFound(err) {
		t.Errorf("GetByResetTokenHash() after expiry error = %v, want not found", err)
	}
	if _, err := repo.GetByResetTokenHash(ctx, "", now); !errors.IsNotFound(err) {
		t.Errorf("GetByResetTokenHash() with empty hash error = %v, want not found", err)
	}
}

func TestUserRepository_ListExpired(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := newTestUser("expired@example.com")
	repo.Create(ctx, expired)
	repo.UpdatePlan(ctx, expired.ID, plan.Starter, &past)

	current := newTestUser("current@example.com")
	repo.Create(ctx, current)
	repo.UpdatePlan(ctx, current.ID, plan.Pro, &future)

	free := newTestUser("free@example.com")
	repo.Create(ctx, free)

	users, err := repo.ListExpired(ctx, now)
	if err != nil {
		t.Fatalf("ListExpired() error = %v", err)
	}
	if len(users) != 1 || users[0].ID != expired.ID {
		t.Errorf("ListExpired() = %v, want only %d", users, expired.ID)
	}
}

func TestUserRepository_DowngradeExpired(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	lapsed := newTestUser("lapsed@example.com")
	renewed := newTestUser("renewed@example.com")
	for _, u := range []*user.User{lapsed, renewed} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	past, future := now.Add(-time.Hour), now.Add(30*24*time.Hour)
	if err := repo.UpdatePlan(ctx, lapsed.ID, plan.Pro, &past); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdatePlan(ctx, renewed.ID, plan.Pro, &future); err != nil {
		t.Fatal(err)
	}

	ok, err := repo.DowngradeExpired(ctx, lapsed.ID, now)
	if err != nil || !ok {
		t.Fatalf("DowngradeExpired(lapsed) = %v, %v; want true", ok, err)
	}
	if ok, _ := repo.DowngradeExpired(ctx, lapsed.ID, now); ok {
		t.Error("second DowngradeExpired(lapsed) = true")
	}
	got, _ := repo.GetByID(ctx, lapsed.ID)
	if got.Plan != plan.Free || got.SubscriptionExpires != nil {
		t.Errorf("lapsed = %s/%v, want free/nil", got.Plan, got.SubscriptionExpires)
	}

	if ok, err := repo.DowngradeExpired(ctx, renewed.ID, now); err != nil || ok {
		t.Errorf("DowngradeExpired(renewed) = %v, %v; want false", ok, err)
	}
	got, _ = repo.GetByID(ctx, renewed.ID)
	if got.Plan != plan.Pro {
		t.Errorf("renewed plan = %s, want pro", got.Plan)
	}
}

func TestUserRepository_DeleteRemovesOwnedRows(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	users := NewUserRepository(db)
	clients := NewClientRepository(db)
	ctx := context.Background()

	u := newTestUser("gone@example.com")
	users.Create(ctx, u)
	clients.Create(ctx, testClient(u.ID, "Cliente"))

	if err := users.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	n, _ := clients.Count(ctx, u.ID)
	if n != 0 {
		t.Errorf("clients left after delete = %d, want 0", n)
	}
	if err := users.Delete(ctx, u.ID); !errors.IsNotFound(err) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
}
