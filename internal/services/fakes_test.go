package services

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aisohq/aiso-market/internal/catalog"
	"github.com/aisohq/aiso-market/internal/data/repos"
	types "github.com/aisohq/aiso-market/internal/domain"
	"github.com/aisohq/aiso-market/internal/pkg/dbctx"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(testLogger(t), "")
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

// passTxRunner satisfies txn.TxRunner without a database; the callback runs
// against the nil root handle, which the fakes ignore.
type passTxRunner struct{}

func (passTxRunner) InTx(ctx context.Context, fn func(dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

type fakeAppRepo struct {
	apps map[string]*types.App
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: map[string]*types.App{}}
}

var _ repos.AppRepo = (*fakeAppRepo)(nil)

func (f *fakeAppRepo) Create(ctx context.Context, tx *gorm.DB, app *types.App) (*types.App, error) {
	if _, ok := f.apps[app.ID]; ok {
		return nil, types.NewError(types.CodeConflict, "fake.app.create", "duplicate app id", nil)
	}
	f.apps[app.ID] = app
	return app, nil
}

func (f *fakeAppRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.App, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, types.NewError(types.CodeNotFound, "fake.app.get", "app not found", nil)
	}
	return app, nil
}

func (f *fakeAppRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*types.App, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeAppRepo) Update(ctx context.Context, tx *gorm.DB, app *types.App) error {
	f.apps[app.ID] = app
	return nil
}

func (f *fakeAppRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error {
	app, ok := f.apps[id]
	if !ok {
		return types.NewError(types.CodeNotFound, "fake.app.update_fields", "app not found", nil)
	}
	for k, v := range updates {
		switch k {
		case "status":
			app.Status = v.(string)
		case "latest_version":
			app.LatestVersion = v.(string)
		case "name":
			app.Name = v.(string)
		case "description":
			app.Description = v.(string)
		case "long_description":
			app.LongDescription = v.(string)
		case "category":
			app.Category = v.(string)
		case "icon_url":
			app.IconURL = v.(string)
		case "tags":
			app.Tags = v.(datatypes.JSONSlice[string])
		case "manifest":
			app.Manifest = v.(datatypes.JSON)
		}
	}
	return nil
}

func (f *fakeAppRepo) ListByAuthor(ctx context.Context, tx *gorm.DB, authorID uuid.UUID) ([]*types.App, error) {
	var out []*types.App
	for _, app := range f.apps {
		if app.AuthorID == authorID {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAppRepo) ListPublished(ctx context.Context, tx *gorm.DB, filter repos.ListPublishedFilter) ([]*types.App, error) {
	var out []*types.App
	for _, app := range f.apps {
		if app.Status != types.AppStatusPublished {
			continue
		}
		if filter.Category != "" && app.Category != filter.Category {
			continue
		}
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAppRepo) Search(ctx context.Context, tx *gorm.DB, query string, limit, offset int) ([]*types.App, error) {
	var out []*types.App
	for _, app := range f.apps {
		if app.Status != types.AppStatusPublished {
			continue
		}
		if strings.Contains(strings.ToLower(app.Name), strings.ToLower(query)) {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAppRepo) ListTopInstalled(ctx context.Context, tx *gorm.DB, limit int) ([]*types.App, error) {
	var out []*types.App
	for _, app := range f.apps {
		if app.Status == types.AppStatusPublished {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstallCount > out[j].InstallCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAppRepo) IncrementInstallCount(ctx context.Context, tx *gorm.DB, id string, delta int64) error {
	app, ok := f.apps[id]
	if !ok {
		return types.NewError(types.CodeNotFound, "fake.app.increment", "app not found", nil)
	}
	app.InstallCount += delta
	return nil
}

type fakeVersionRepo struct {
	versions map[uuid.UUID]*types.AppVersion
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{versions: map[uuid.UUID]*types.AppVersion{}}
}

var _ repos.AppVersionRepo = (*fakeVersionRepo)(nil)

func (f *fakeVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.AppVersion) (*types.AppVersion, error) {
	for _, v := range f.versions {
		if v.AppID == version.AppID && v.Version == version.Version {
			return nil, types.NewError(types.CodeConflict, "fake.version.create", "duplicate version", nil)
		}
	}
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}
	f.versions[version.ID] = version
	return version, nil
}

func (f *fakeVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AppVersion, error) {
	v, ok := f.versions[id]
	if !ok {
		return nil, types.NewError(types.CodeNotFound, "fake.version.get", "version not found", nil)
	}
	return v, nil
}

func (f *fakeVersionRepo) GetByAppAndVersion(ctx context.Context, tx *gorm.DB, appID, version string) (*types.AppVersion, error) {
	for _, v := range f.versions {
		if v.AppID == appID && v.Version == version {
			return v, nil
		}
	}
	return nil, types.NewError(types.CodeNotFound, "fake.version.get_by_app", "version not found", nil)
}

func (f *fakeVersionRepo) ListByApp(ctx context.Context, tx *gorm.DB, appID string) ([]*types.AppVersion, error) {
	var out []*types.AppVersion
	for _, v := range f.versions {
		if v.AppID == appID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return types.CompareVersions(out[i].Version, out[j].Version) < 0
	})
	return out, nil
}

func (f *fakeVersionRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.AppVersion, error) {
	var out []*types.AppVersion
	for _, v := range f.versions {
		if v.Status == status {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeVersionRepo) TransitionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string) (bool, error) {
	v, ok := f.versions[id]
	if !ok || v.Status != from {
		return false, nil
	}
	v.Status = to
	return true, nil
}

type fakeRecordRepo struct {
	records []*types.ReviewRecord
}

var _ repos.ReviewRecordRepo = (*fakeRecordRepo)(nil)

func (f *fakeRecordRepo) Append(ctx context.Context, tx *gorm.DB, record *types.ReviewRecord) (*types.ReviewRecord, error) {
	f.records = append(f.records, record)
	return record, nil
}

func (f *fakeRecordRepo) ListByVersion(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.ReviewRecord, error) {
	var out []*types.ReviewRecord
	for _, r := range f.records {
		if r.VersionID == versionID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeInstallRepo struct {
	installs map[uuid.UUID]*types.AppInstall
}

func newFakeInstallRepo() *fakeInstallRepo {
	return &fakeInstallRepo{installs: map[uuid.UUID]*types.AppInstall{}}
}

var _ repos.AppInstallRepo = (*fakeInstallRepo)(nil)

func (f *fakeInstallRepo) Create(ctx context.Context, tx *gorm.DB, install *types.AppInstall) (*types.AppInstall, error) {
	if install.Status == types.InstallStatusActive {
		for _, i := range f.installs {
			if i.UserID == install.UserID && i.AppID == install.AppID && i.Status == types.InstallStatusActive {
				return nil, types.NewError(types.CodeConflict, "fake.install.create", "active install exists", nil)
			}
		}
	}
	if install.ID == uuid.Nil {
		install.ID = uuid.New()
	}
	f.installs[install.ID] = install
	return install, nil
}

func (f *fakeInstallRepo) GetActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string, forUpdate bool) (*types.AppInstall, error) {
	for _, i := range f.installs {
		if i.UserID == userID && i.AppID == appID && i.Status == types.InstallStatusActive {
			return i, nil
		}
	}
	return nil, nil
}

func (f *fakeInstallRepo) ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.AppInstall, error) {
	var out []*types.AppInstall
	for _, i := range f.installs {
		if i.UserID == userID && i.Status == types.InstallStatusActive {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out, nil
}

func (f *fakeInstallRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
	i, ok := f.installs[id]
	if !ok {
		return types.NewError(types.CodeNotFound, "fake.install.update_status", "install not found", nil)
	}
	i.Status = status
	return nil
}

func (f *fakeInstallRepo) CountByUserAndApp(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string) (int64, error) {
	var n int64
	for _, i := range f.installs {
		if i.UserID == userID && i.AppID == appID {
			n++
		}
	}
	return n, nil
}

func (f *fakeInstallRepo) CountByApp(ctx context.Context, tx *gorm.DB, appID string) (int64, error) {
	var n int64
	for _, i := range f.installs {
		if i.AppID == appID && i.Status == types.InstallStatusActive {
			n++
		}
	}
	return n, nil
}

type fakeReviewRepo struct {
	reviews map[uuid.UUID]*types.AppReview
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[uuid.UUID]*types.AppReview{}}
}

var _ repos.AppReviewRepo = (*fakeReviewRepo)(nil)

func (f *fakeReviewRepo) Create(ctx context.Context, tx *gorm.DB, review *types.AppReview) (*types.AppReview, error) {
	for _, r := range f.reviews {
		if r.AppID == review.AppID && r.UserID == review.UserID {
			return nil, types.NewError(types.CodeConflict, "fake.review.create", "duplicate review", nil)
		}
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeReviewRepo) GetByUserAndApp(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string) (*types.AppReview, error) {
	for _, r := range f.reviews {
		if r.UserID == userID && r.AppID == appID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeReviewRepo) Update(ctx context.Context, tx *gorm.DB, review *types.AppReview) error {
	f.reviews[review.ID] = review
	return nil
}

func (f *fakeReviewRepo) DeleteByUserAndApp(ctx context.Context, tx *gorm.DB, userID uuid.UUID, appID string) error {
	for id, r := range f.reviews {
		if r.UserID == userID && r.AppID == appID {
			delete(f.reviews, id)
			return nil
		}
	}
	return types.NewError(types.CodeNotFound, "fake.review.delete", "review not found", nil)
}

func (f *fakeReviewRepo) ListByApp(ctx context.Context, tx *gorm.DB, appID string, limit, offset int) ([]*types.AppReview, error) {
	var out []*types.AppReview
	for _, r := range f.reviews {
		if r.AppID == appID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeReviewRepo) SumAndCountByApp(ctx context.Context, tx *gorm.DB, appID string) (int64, int64, error) {
	var sum, count int64
	for _, r := range f.reviews {
		if r.AppID == appID {
			sum += int64(r.Rating)
			count++
		}
	}
	return sum, count, nil
}

type fakeSummaryRepo struct {
	summaries map[string]*types.RatingSummary
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{summaries: map[string]*types.RatingSummary{}}
}

var _ repos.RatingSummaryRepo = (*fakeSummaryRepo)(nil)

func (f *fakeSummaryRepo) EnsureExists(ctx context.Context, tx *gorm.DB, appID string) error {
	if _, ok := f.summaries[appID]; !ok {
		f.summaries[appID] = &types.RatingSummary{AppID: appID}
	}
	return nil
}

func (f *fakeSummaryRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, appID string) (*types.RatingSummary, error) {
	s, ok := f.summaries[appID]
	if !ok {
		return nil, types.NewError(types.CodeNotFound, "fake.summary.get_for_update", "summary not found", nil)
	}
	return s, nil
}

func (f *fakeSummaryRepo) Get(ctx context.Context, tx *gorm.DB, appID string) (*types.RatingSummary, error) {
	s, ok := f.summaries[appID]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (f *fakeSummaryRepo) ApplyDelta(ctx context.Context, tx *gorm.DB, appID string, countDelta, sumDelta int64) error {
	s, ok := f.summaries[appID]
	if !ok {
		return types.NewError(types.CodeNotFound, "fake.summary.apply_delta", "summary not found", nil)
	}
	s.ReviewCount += countDelta
	s.RatingSum += sumDelta
	return nil
}

func (f *fakeSummaryRepo) Replace(ctx context.Context, tx *gorm.DB, appID string, count, sum int64) error {
	f.summaries[appID] = &types.RatingSummary{AppID: appID, ReviewCount: count, RatingSum: sum}
	return nil
}

type fakeScreenshotRepo struct {
	shots map[uuid.UUID]*types.AppScreenshot
}

func newFakeScreenshotRepo() *fakeScreenshotRepo {
	return &fakeScreenshotRepo{shots: map[uuid.UUID]*types.AppScreenshot{}}
}

var _ repos.AppScreenshotRepo = (*fakeScreenshotRepo)(nil)

func (f *fakeScreenshotRepo) Create(ctx context.Context, tx *gorm.DB, shot *types.AppScreenshot) (*types.AppScreenshot, error) {
	if shot.ID == uuid.Nil {
		shot.ID = uuid.New()
	}
	f.shots[shot.ID] = shot
	return shot, nil
}

func (f *fakeScreenshotRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AppScreenshot, error) {
	s, ok := f.shots[id]
	if !ok {
		return nil, types.NewError(types.CodeNotFound, "fake.screenshot.get", "screenshot not found", nil)
	}
	return s, nil
}

func (f *fakeScreenshotRepo) ListByApp(ctx context.Context, tx *gorm.DB, appID string) ([]*types.AppScreenshot, error) {
	var out []*types.AppScreenshot
	for _, s := range f.shots {
		if s.AppID == appID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f *fakeScreenshotRepo) UpdateSortOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, sortOrder int) error {
	s, ok := f.shots[id]
	if !ok {
		return types.NewError(types.CodeNotFound, "fake.screenshot.update_sort_order", "screenshot not found", nil)
	}
	s.SortOrder = sortOrder
	return nil
}

func (f *fakeScreenshotRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(f.shots, id)
	return nil
}

// seedApp registers an app directly in the fake store.
func seedApp(f *fakeAppRepo, id string, authorID uuid.UUID, status, latest string) *types.App {
	app := &types.App{
		ID:            id,
		Name:          "Test App",
		AuthorID:      authorID,
		Category:      "utilities",
		Status:        status,
		LatestVersion: latest,
	}
	f.apps[id] = app
	return app
}

func seedVersion(f *fakeVersionRepo, appID, version, status string, declared []string) *types.AppVersion {
	v := &types.AppVersion{
		ID:                  uuid.New(),
		AppID:               appID,
		Version:             version,
		ArtifactRef:         "sha256:" + version,
		DeclaredPermissions: datatypes.NewJSONSlice(declared),
		Status:              status,
	}
	f.versions[v.ID] = v
	return v
}
