package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/aisohq/aiso-market/internal/domain"
)

func newAppService(t *testing.T, appRepo *fakeAppRepo, versionRepo *fakeVersionRepo, installRepo *fakeInstallRepo, shotRepo *fakeScreenshotRepo) AppService {
	t.Helper()
	rating := newRating(t, appRepo, newFakeReviewRepo(), newFakeSummaryRepo(), nil)
	return NewAppService(testLogger(t), passTxRunner{}, appRepo, versionRepo, installRepo, shotRepo, rating, nil)
}

func TestAppServiceCreateValidation(t *testing.T) {
	svc := newAppService(t, newFakeAppRepo(), newFakeVersionRepo(), newFakeInstallRepo(), newFakeScreenshotRepo())

	cases := []CreateAppInput{
		{ID: "UPPER-CASE!", Name: "App"},
		{ID: "ab", Name: "App"},
		{ID: "notes-pro", Name: "   "},
		{ID: "notes-pro", Name: "App", Category: "astrology"},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), uuid.New(), in); !types.IsCode(err, types.CodeValidation) {
			t.Fatalf("input %+v: want validation error, got %v", in, err)
		}
	}
}

func TestAppServiceCreateStartsAsDraft(t *testing.T) {
	appRepo := newFakeAppRepo()
	svc := newAppService(t, appRepo, newFakeVersionRepo(), newFakeInstallRepo(), newFakeScreenshotRepo())

	author := uuid.New()
	app, err := svc.Create(context.Background(), author, CreateAppInput{
		ID: "Notes-Pro", Name: "Notes Pro", Category: "productivity",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if app.ID != "notes-pro" {
		t.Fatalf("id not normalized: got=%q", app.ID)
	}
	if app.Status != types.AppStatusDraft {
		t.Fatalf("status: want=draft got=%q", app.Status)
	}

	if _, err := svc.Create(context.Background(), author, CreateAppInput{ID: "notes-pro", Name: "Again"}); !types.IsCode(err, types.CodeConflict) {
		t.Fatalf("duplicate id: want conflict, got %v", err)
	}
}

func TestAppServiceUpdateOwnership(t *testing.T) {
	appRepo := newFakeAppRepo()
	author := uuid.New()
	seedApp(appRepo, "notes-pro", author, types.AppStatusPublished, "1.0.0")
	svc := newAppService(t, appRepo, newFakeVersionRepo(), newFakeInstallRepo(), newFakeScreenshotRepo())

	name := "Better Notes"
	if _, err := svc.Update(context.Background(), uuid.New(), "notes-pro", UpdateAppInput{Name: &name}); !types.IsCode(err, types.CodeForbidden) {
		t.Fatalf("foreign update: want forbidden, got %v", err)
	}

	updated, err := svc.Update(context.Background(), author, "notes-pro", UpdateAppInput{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Better Notes" {
		t.Fatalf("name: got=%q", updated.Name)
	}
}

func TestAppServiceRetireIsTerminal(t *testing.T) {
	appRepo := newFakeAppRepo()
	author := uuid.New()
	seedApp(appRepo, "notes-pro", author, types.AppStatusPublished, "1.0.0")
	svc := newAppService(t, appRepo, newFakeVersionRepo(), newFakeInstallRepo(), newFakeScreenshotRepo())

	if err := svc.Retire(context.Background(), author, "notes-pro"); err != nil {
		t.Fatalf("Retire: %v", err)
	}
	app, _ := appRepo.GetByID(context.Background(), nil, "notes-pro")
	if app.Status != types.AppStatusRetired {
		t.Fatalf("status: want=retired got=%q", app.Status)
	}

	// Retiring again is a no-op, but suspension controls refuse.
	if err := svc.Retire(context.Background(), author, "notes-pro"); err != nil {
		t.Fatalf("second Retire: %v", err)
	}
	if _, err := svc.Suspend(context.Background(), "notes-pro"); !types.IsCode(err, types.CodeInvalidTransition) {
		t.Fatalf("suspend retired: want invalid_transition, got %v", err)
	}
}

func TestAppServiceSuspendAndUnsuspend(t *testing.T) {
	appRepo := newFakeAppRepo()
	seedApp(appRepo, "notes-pro", uuid.New(), types.AppStatusPublished, "1.0.0")
	seedApp(appRepo, "unreleased", uuid.New(), types.AppStatusPendingReview, "")
	svc := newAppService(t, appRepo, newFakeVersionRepo(), newFakeInstallRepo(), newFakeScreenshotRepo())

	app, err := svc.Suspend(context.Background(), "notes-pro")
	if err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if app.Status != types.AppStatusSuspended {
		t.Fatalf("status: want=suspended got=%q", app.Status)
	}

	if _, err := svc.Unsuspend(context.Background(), "unreleased"); !types.IsCode(err, types.CodeInvalidTransition) {
		t.Fatalf("unsuspend non-suspended: want invalid_transition, got %v", err)
	}

	// With an approved version on record the app returns to published.
	app, err = svc.Unsuspend(context.Background(), "notes-pro")
	if err != nil {
		t.Fatalf("Unsuspend: %v", err)
	}
	if app.Status != types.AppStatusPublished {
		t.Fatalf("status after unsuspend: want=published got=%q", app.Status)
	}
}

func TestAppServiceUnsuspendKeepsPendingReview(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	seedApp(appRepo, "unreleased", uuid.New(), types.AppStatusPendingReview, "")
	seedVersion(versionRepo, "unreleased", "1.0.0", types.VersionStatusPendingReview, nil)
	seedApp(appRepo, "empty", uuid.New(), types.AppStatusDraft, "")
	svc := newAppService(t, appRepo, versionRepo, newFakeInstallRepo(), newFakeScreenshotRepo())

	if _, err := svc.Suspend(context.Background(), "unreleased"); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	app, err := svc.Unsuspend(context.Background(), "unreleased")
	if err != nil {
		t.Fatalf("Unsuspend: %v", err)
	}
	if app.Status != types.AppStatusPendingReview {
		t.Fatalf("status after unsuspend: want=pending_review got=%q", app.Status)
	}

	// No published and no pending versions falls back to draft.
	if _, err := svc.Suspend(context.Background(), "empty"); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	app, err = svc.Unsuspend(context.Background(), "empty")
	if err != nil {
		t.Fatalf("Unsuspend: %v", err)
	}
	if app.Status != types.AppStatusDraft {
		t.Fatalf("status after unsuspend: want=draft got=%q", app.Status)
	}
}

func TestAppServiceScreenshots(t *testing.T) {
	appRepo := newFakeAppRepo()
	shotRepo := newFakeScreenshotRepo()
	author := uuid.New()
	seedApp(appRepo, "notes-pro", author, types.AppStatusPublished, "1.0.0")
	svc := newAppService(t, appRepo, newFakeVersionRepo(), newFakeInstallRepo(), shotRepo)

	shot, err := svc.AddScreenshot(context.Background(), author, "notes-pro", "/media/shots/1.png", 0)
	if err != nil {
		t.Fatalf("AddScreenshot: %v", err)
	}
	if err := svc.RemoveScreenshot(context.Background(), uuid.New(), shot.ID); !types.IsCode(err, types.CodeForbidden) {
		t.Fatalf("foreign removal: want forbidden, got %v", err)
	}
	if err := svc.RemoveScreenshot(context.Background(), author, shot.ID); err != nil {
		t.Fatalf("RemoveScreenshot: %v", err)
	}
}

func TestAppServiceReorderScreenshots(t *testing.T) {
	appRepo := newFakeAppRepo()
	shotRepo := newFakeScreenshotRepo()
	author := uuid.New()
	seedApp(appRepo, "notes-pro", author, types.AppStatusPublished, "1.0.0")
	svc := newAppService(t, appRepo, newFakeVersionRepo(), newFakeInstallRepo(), shotRepo)

	first, err := svc.AddScreenshot(context.Background(), author, "notes-pro", "/media/shots/1.png", 0)
	if err != nil {
		t.Fatalf("AddScreenshot: %v", err)
	}
	second, err := svc.AddScreenshot(context.Background(), author, "notes-pro", "/media/shots/2.png", 1)
	if err != nil {
		t.Fatalf("AddScreenshot: %v", err)
	}

	err = svc.ReorderScreenshots(context.Background(), author, "notes-pro", []uuid.UUID{first.ID})
	if !types.IsCode(err, types.CodeValidation) {
		t.Fatalf("partial reorder: want validation, got %v", err)
	}
	err = svc.ReorderScreenshots(context.Background(), author, "notes-pro", []uuid.UUID{first.ID, first.ID})
	if !types.IsCode(err, types.CodeValidation) {
		t.Fatalf("duplicate reorder: want validation, got %v", err)
	}

	if err := svc.ReorderScreenshots(context.Background(), author, "notes-pro", []uuid.UUID{second.ID, first.ID}); err != nil {
		t.Fatalf("ReorderScreenshots: %v", err)
	}
	shots, err := shotRepo.ListByApp(context.Background(), nil, "notes-pro")
	if err != nil {
		t.Fatalf("ListByApp: %v", err)
	}
	if len(shots) != 2 || shots[0].ID != second.ID || shots[1].ID != first.ID {
		t.Fatalf("gallery order not rewritten: %+v", shots)
	}
}

func TestAppServiceStats(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	installRepo := newFakeInstallRepo()
	author := uuid.New()
	seedApp(appRepo, "notes-pro", author, types.AppStatusPublished, "1.0.0")
	seedVersion(versionRepo, "notes-pro", "1.0.0", types.VersionStatusApproved, nil)
	svc := newAppService(t, appRepo, versionRepo, installRepo, newFakeScreenshotRepo())

	installRepo.installs[uuid.New()] = &types.AppInstall{
		ID: uuid.New(), UserID: uuid.New(), AppID: "notes-pro", Status: types.InstallStatusActive,
	}

	stats, err := svc.Stats(context.Background(), author, "notes-pro")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ActiveInstalls != 1 {
		t.Fatalf("active installs: want=1 got=%d", stats.ActiveInstalls)
	}
	if len(stats.Versions) != 1 {
		t.Fatalf("versions: want=1 got=%d", len(stats.Versions))
	}
}
