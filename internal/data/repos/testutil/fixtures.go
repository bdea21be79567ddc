package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/aisohq/aiso-market/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, role string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedApp(tb testing.TB, ctx context.Context, tx *gorm.DB, id string, authorID uuid.UUID, status string) *types.App {
	tb.Helper()
	a := &types.App{
		ID:       id,
		Name:     id,
		AuthorID: authorID,
		Category: "utilities",
		Manifest: datatypes.JSON([]byte("{}")),
		Status:   status,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed app: %v", err)
	}
	return a
}

func SeedVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, appID, version, status string, declared []string) *types.AppVersion {
	tb.Helper()
	v := &types.AppVersion{
		ID:                  uuid.New(),
		AppID:               appID,
		Version:             version,
		ArtifactRef:         "sha256:" + version,
		DeclaredPermissions: datatypes.NewJSONSlice(declared),
		Status:              status,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed version: %v", err)
	}
	return v
}

func SeedInstall(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string, versionID uuid.UUID, status string, consented []string) *types.AppInstall {
	tb.Helper()
	i := &types.AppInstall{
		ID:                   uuid.New(),
		UserID:               userID,
		AppID:                appID,
		VersionID:            versionID,
		ConsentedPermissions: datatypes.NewJSONSlice(consented),
		Status:               status,
	}
	if err := tx.WithContext(ctx).Create(i).Error; err != nil {
		tb.Fatalf("seed install: %v", err)
	}
	return i
}

func SeedReview(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string, rating int) *types.AppReview {
	tb.Helper()
	rv := &types.AppReview{
		ID:     uuid.New(),
		AppID:  appID,
		UserID: userID,
		Rating: rating,
	}
	if err := tx.WithContext(ctx).Create(rv).Error; err != nil {
		tb.Fatalf("seed review: %v", err)
	}
	return rv
}
