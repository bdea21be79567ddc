package app

import (
	"gorm.io/gorm"

	"github.com/aisohq/aiso-market/internal/data/repos"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
)

type Repos struct {
	User          repos.UserRepo
	UserToken     repos.UserTokenRepo
	App           repos.AppRepo
	AppVersion    repos.AppVersionRepo
	ReviewRecord  repos.ReviewRecordRepo
	AppInstall    repos.AppInstallRepo
	AppReview     repos.AppReviewRepo
	RatingSummary repos.RatingSummaryRepo
	AppScreenshot repos.AppScreenshotRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		UserToken:     repos.NewUserTokenRepo(db, log),
		App:           repos.NewAppRepo(db, log),
		AppVersion:    repos.NewAppVersionRepo(db, log),
		ReviewRecord:  repos.NewReviewRecordRepo(db, log),
		AppInstall:    repos.NewAppInstallRepo(db, log),
		AppReview:     repos.NewAppReviewRepo(db, log),
		RatingSummary: repos.NewRatingSummaryRepo(db, log),
		AppScreenshot: repos.NewAppScreenshotRepo(db, log),
	}
}
