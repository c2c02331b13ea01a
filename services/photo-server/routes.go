package main

import (
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
)

func (s *PhotoMixerServer) SetupRoute() {
	s.route.Use(sentrygin.New(sentrygin.Options{
		Repanic: true,
	}))

	s.route.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	s.route.POST("/photos", s.UploadLivePhoto)
	s.route.POST("/attending/photos", s.UploadAttendingPhoto)

	s.route.GET("/photos", s.ListPhotos)
	s.route.GET("/photos/:photo_id", s.GetPhoto)
	s.route.GET("/photos/:photo_id/download", s.DownloadPhoto)
	s.route.GET("/photos/:photo_id/share-links", s.SharePhotoLinks)

	s.route.GET("/attending/share/:photo_id", s.AttendingSharePage)

	s.route.GET("/feed/:type", s.FeedSocket)
	s.route.GET("/carousel", s.CarouselWindow)

	s.route.Use(TokenAuthenticate("API-TOKEN", s.apiToken))
	s.route.GET("/admin/orphans", s.ListOrphanUploads)
}
