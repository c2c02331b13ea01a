package main

import (
	"github.com/gin-gonic/gin"

	mixer "github.com/gef-festival/photo-mixer"
	"github.com/gef-festival/photo-mixer/feed"
	"github.com/gef-festival/photo-mixer/share"
	"github.com/gef-festival/photo-mixer/uploadstore"
)

type PhotoMixerServer struct {
	apiToken string
	route    *gin.Engine

	siteURL      string
	shareMessage share.Message

	engine      *mixer.UploadEngine
	photoStore  mixer.PhotoStore
	uploadStore *uploadstore.UploadStore
	hub         *feed.Hub
	carousel    *feed.Carousel
	prefetcher  *feed.Prefetcher
	resolver    *share.Resolver
}

func NewPhotoMixerServer(
	engine *mixer.UploadEngine,
	photoStore mixer.PhotoStore,
	uploadStore *uploadstore.UploadStore,
	hub *feed.Hub,
	carousel *feed.Carousel,
	prefetcher *feed.Prefetcher,
	resolver *share.Resolver,
	siteURL string,
	shareMessage share.Message,
	apiToken string) *PhotoMixerServer {
	r := gin.New()

	return &PhotoMixerServer{
		apiToken: apiToken,
		route:    r,

		siteURL:      siteURL,
		shareMessage: shareMessage,

		engine:      engine,
		photoStore:  photoStore,
		uploadStore: uploadStore,
		hub:         hub,
		carousel:    carousel,
		prefetcher:  prefetcher,
		resolver:    resolver,
	}
}

func (s *PhotoMixerServer) Run(port string) error {
	return s.route.Run(port)
}
