package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/aisohq/aiso-market/internal/domain"
)

func newInstaller(t *testing.T, appRepo *fakeAppRepo, versionRepo *fakeVersionRepo, installRepo *fakeInstallRepo) InstallerService {
	t.Helper()
	return NewInstallerService(testLogger(t), passTxRunner{}, testCatalog(t), appRepo, versionRepo, installRepo)
}

func TestInstallerInstallHappyPath(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	installRepo := newFakeInstallRepo()
	seedApp(appRepo, "notes-pro", uuid.New(), types.AppStatusPublished, "1.0.0")
	v := seedVersion(versionRepo, "notes-pro", "1.0.0", types.VersionStatusApproved, []string{"network", "storage"})
	svc := newInstaller(t, appRepo, versionRepo, installRepo)

	user := uuid.New()
	install, err := svc.Install(context.Background(), user, v.ID, []string{"storage", "network"})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if install.Status != types.InstallStatusActive {
		t.Fatalf("install status: want=active got=%q", install.Status)
	}

	perms, err := svc.ActivePermissions(context.Background(), user, "notes-pro")
	if err != nil {
		t.Fatalf("ActivePermissions: %v", err)
	}
	if !perms.Equal(types.NormalizePermissions([]string{"network", "storage"})) {
		t.Fatalf("active permissions: got=%v", perms)
	}

	app, _ := appRepo.GetByID(context.Background(), nil, "notes-pro")
	if app.InstallCount != 1 {
		t.Fatalf("install count: want=1 got=%d", app.InstallCount)
	}
}

func TestInstallerInstallRejectsOverreach(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	seedApp(appRepo, "notes-pro", uuid.New(), types.AppStatusPublished, "1.0.0")
	v := seedVersion(versionRepo, "notes-pro", "1.0.0", types.VersionStatusApproved, []string{"network"})
	svc := newInstaller(t, appRepo, versionRepo, newFakeInstallRepo())

	// camera is a real permission, but this version never declared it.
	_, err := svc.Install(context.Background(), uuid.New(), v.ID, []string{"network", "camera"})
	if !types.IsCode(err, types.CodeOverreach) {
		t.Fatalf("want permission_overreach, got %v", err)
	}
}

func TestInstallerInstallRequiresMandatoryConsent(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	seedApp(appRepo, "notes-pro", uuid.New(), types.AppStatusPublished, "1.0.0")
	// storage is mandatory-if-declared in the builtin catalog.
	v := seedVersion(versionRepo, "notes-pro", "1.0.0", types.VersionStatusApproved, []string{"network", "storage"})
	svc := newInstaller(t, appRepo, versionRepo, newFakeInstallRepo())

	_, err := svc.Install(context.Background(), uuid.New(), v.ID, []string{"network"})
	if !types.IsCode(err, types.CodeIncompleteConsent) {
		t.Fatalf("want incomplete_consent, got %v", err)
	}
}

func TestInstallerInstallNotInstallable(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	seedApp(appRepo, "notes-pro", uuid.New(), types.AppStatusPublished, "1.0.0")
	seedApp(appRepo, "paused-app", uuid.New(), types.AppStatusSuspended, "1.0.0")
	pending := seedVersion(versionRepo, "notes-pro", "1.1.0", types.VersionStatusPendingReview, nil)
	suspendedV := seedVersion(versionRepo, "paused-app", "1.0.0", types.VersionStatusApproved, nil)
	svc := newInstaller(t, appRepo, versionRepo, newFakeInstallRepo())

	if _, err := svc.Install(context.Background(), uuid.New(), pending.ID, nil); !types.IsCode(err, types.CodeNotInstallable) {
		t.Fatalf("pending version: want not_installable, got %v", err)
	}
	if _, err := svc.Install(context.Background(), uuid.New(), suspendedV.ID, nil); !types.IsCode(err, types.CodeNotInstallable) {
		t.Fatalf("suspended app: want not_installable, got %v", err)
	}
}

func TestInstallerInstallIsIdempotent(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	installRepo := newFakeInstallRepo()
	seedApp(appRepo, "notes-pro", uuid.New(), types.AppStatusPublished, "1.0.0")
	v := seedVersion(versionRepo, "notes-pro", "1.0.0", types.VersionStatusApproved, []string{"network"})
	svc := newInstaller(t, appRepo, versionRepo, installRepo)

	user := uuid.New()
	first, err := svc.Install(context.Background(), user, v.ID, []string{"network"})
	if err != nil {
		t.Fatalf("first Install: %v", err)
	}
	second, err := svc.Install(context.Background(), user, v.ID, []string{"network"})
	if err != nil {
		t.Fatalf("second Install: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat install created a new record: first=%s second=%s", first.ID, second.ID)
	}
	if n, _ := installRepo.CountByUserAndApp(context.Background(), nil, user, "notes-pro"); n != 1 {
		t.Fatalf("install records: want=1 got=%d", n)
	}
	app, _ := appRepo.GetByID(context.Background(), nil, "notes-pro")
	if app.InstallCount != 1 {
		t.Fatalf("install count: want=1 got=%d", app.InstallCount)
	}
}

func TestInstallerUpgradeSupersedesPriorInstall(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	installRepo := newFakeInstallRepo()
	seedApp(appRepo, "notes-pro", uuid.New(), types.AppStatusPublished, "2.0.0")
	v1 := seedVersion(versionRepo, "notes-pro", "1.0.0", types.VersionStatusApproved, []string{"network"})
	v2 := seedVersion(versionRepo, "notes-pro", "2.0.0", types.VersionStatusApproved, []string{"network", "camera"})
	svc := newInstaller(t, appRepo, versionRepo, installRepo)

	user := uuid.New()
	first, err := svc.Install(context.Background(), user, v1.ID, []string{"network"})
	if err != nil {
		t.Fatalf("install v1: %v", err)
	}
	second, err := svc.Install(context.Background(), user, v2.ID, []string{"network", "camera"})
	if err != nil {
		t.Fatalf("install v2: %v", err)
	}

	if first.Status != types.InstallStatusSuperseded {
		t.Fatalf("prior install status: want=superseded got=%q", first.Status)
	}
	if second.VersionID != v2.ID {
		t.Fatalf("active install points at wrong version")
	}
	// Consent does not carry over: camera applies only because it was
	// granted against v2's declared set.
	perms, _ := svc.ActivePermissions(context.Background(), user, "notes-pro")
	if !perms.Contains("camera") {
		t.Fatalf("active permissions missing camera: %v", perms)
	}
	app, _ := appRepo.GetByID(context.Background(), nil, "notes-pro")
	if app.InstallCount != 1 {
		t.Fatalf("install count after upgrade: want=1 got=%d", app.InstallCount)
	}
}

func TestInstallerUninstall(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	installRepo := newFakeInstallRepo()
	seedApp(appRepo, "notes-pro", uuid.New(), types.AppStatusPublished, "1.0.0")
	v := seedVersion(versionRepo, "notes-pro", "1.0.0", types.VersionStatusApproved, []string{"network"})
	svc := newInstaller(t, appRepo, versionRepo, installRepo)

	user := uuid.New()
	if err := svc.Uninstall(context.Background(), user, "notes-pro"); !types.IsCode(err, types.CodeNotInstalled) {
		t.Fatalf("want not_installed, got %v", err)
	}

	if _, err := svc.Install(context.Background(), user, v.ID, []string{"network"}); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := svc.Uninstall(context.Background(), user, "notes-pro"); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if _, err := svc.ActivePermissions(context.Background(), user, "notes-pro"); !types.IsCode(err, types.CodeNotInstalled) {
		t.Fatalf("permissions after uninstall: want not_installed, got %v", err)
	}
	app, _ := appRepo.GetByID(context.Background(), nil, "notes-pro")
	if app.InstallCount != 0 {
		t.Fatalf("install count after uninstall: want=0 got=%d", app.InstallCount)
	}

	// History is retained even though nothing is active.
	if n, _ := installRepo.CountByUserAndApp(context.Background(), nil, user, "notes-pro"); n != 1 {
		t.Fatalf("install history: want=1 got=%d", n)
	}
}

func TestInstallerUpdateConsent(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	installRepo := newFakeInstallRepo()
	seedApp(appRepo, "notes-pro", uuid.New(), types.AppStatusPublished, "1.0.0")
	v := seedVersion(versionRepo, "notes-pro", "1.0.0", types.VersionStatusApproved, []string{"network", "camera"})
	svc := newInstaller(t, appRepo, versionRepo, installRepo)

	user := uuid.New()
	if _, err := svc.Install(context.Background(), user, v.ID, []string{"network"}); err != nil {
		t.Fatalf("Install: %v", err)
	}

	updated, err := svc.UpdateConsent(context.Background(), user, "notes-pro", []string{"network", "camera"})
	if err != nil {
		t.Fatalf("UpdateConsent: %v", err)
	}
	if updated.VersionID != v.ID {
		t.Fatalf("consent update changed version")
	}
	perms, _ := svc.ActivePermissions(context.Background(), user, "notes-pro")
	if !perms.Contains("camera") {
		t.Fatalf("active permissions missing camera: %v", perms)
	}

	_, err = svc.UpdateConsent(context.Background(), user, "notes-pro", []string{"microphone"})
	if !types.IsCode(err, types.CodeOverreach) {
		t.Fatalf("want permission_overreach, got %v", err)
	}
}

func TestInstallerListInstalled(t *testing.T) {
	appRepo := newFakeAppRepo()
	versionRepo := newFakeVersionRepo()
	installRepo := newFakeInstallRepo()
	seedApp(appRepo, "notes-pro", uuid.New(), types.AppStatusPublished, "1.0.0")
	seedApp(appRepo, "todo-lite", uuid.New(), types.AppStatusPublished, "1.0.0")
	v1 := seedVersion(versionRepo, "notes-pro", "1.0.0", types.VersionStatusApproved, nil)
	v2 := seedVersion(versionRepo, "todo-lite", "1.0.0", types.VersionStatusApproved, nil)
	svc := newInstaller(t, appRepo, versionRepo, installRepo)

	user := uuid.New()
	if _, err := svc.Install(context.Background(), user, v1.ID, nil); err != nil {
		t.Fatalf("install notes-pro: %v", err)
	}
	if _, err := svc.Install(context.Background(), user, v2.ID, nil); err != nil {
		t.Fatalf("install todo-lite: %v", err)
	}

	installed, err := svc.ListInstalled(context.Background(), user)
	if err != nil {
		t.Fatalf("ListInstalled: %v", err)
	}
	if len(installed) != 2 {
		t.Fatalf("installed apps: want=2 got=%d", len(installed))
	}
	if installed[0].App.ID != "notes-pro" || installed[0].Version.ID != v1.ID {
		t.Fatalf("unexpected first entry: %+v", installed[0])
	}
}
