package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bitmark-inc/config-loader"

	mixer "github.com/gef-festival/photo-mixer"
	"github.com/gef-festival/photo-mixer/blobstore"
	"github.com/gef-festival/photo-mixer/cache"
	"github.com/gef-festival/photo-mixer/compositor"
	"github.com/gef-festival/photo-mixer/feed"
	"github.com/gef-festival/photo-mixer/log"
	"github.com/gef-festival/photo-mixer/share"
	"github.com/gef-festival/photo-mixer/uploadstore"
)

func main() {
	mainCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config.LoadConfig("PHOTO_MIXER")
	if err := log.Initialize(viper.GetString("log.level"), viper.GetBool("debug")); err != nil {
		panic(fmt.Errorf("fail to initialize logger with error: %s", err.Error()))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         viper.GetString("sentry.dsn"),
		Environment: viper.GetString("environment"),
	}); err != nil {
		log.Panic("Sentry initialization failed", zap.Error(err))
	}

	photoStore, err := mixer.NewMongodbPhotoStore(mainCtx, viper.GetString("store.db_uri"), viper.GetString("store.db_name"))
	if err != nil {
		log.Panic("fail to initiate photo store", zap.Error(err))
	}
	if err := photoStore.EnsureIndexes(mainCtx); err != nil {
		log.Panic("fail to ensure photo store indexes", zap.Error(err))
	}

	uploadStore, err := uploadstore.New(viper.GetString("ledger.dsn"), viper.GetInt("ledger.log_level"))
	if err != nil {
		log.Panic("fail to initiate upload ledger", zap.Error(err))
	}
	if err := uploadStore.AutoMigrate(); err != nil {
		log.Panic("fail to migrate upload ledger", zap.Error(err))
	}

	cacheStore, err := cache.NewMongoDBCacheStore(mainCtx, viper.GetString("store.db_uri"), viper.GetString("store.db_name"))
	if err != nil {
		log.Panic("fail to initiate cache store", zap.Error(err))
	}

	awsSession := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(viper.GetString("blobstore.region")),
	}))
	blobs := blobstore.NewS3Store(awsSession, viper.GetString("blobstore.bucket"), viper.GetString("blobstore.base_url"))

	comp := compositor.New(
		viper.GetString("compositor.attending_frame"),
		viper.GetString("compositor.live_frame"))

	engine := mixer.NewUploadEngine(comp, blobs, photoStore, uploadStore)

	ctx, stop := signal.NotifyContext(mainCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := feed.NewHub()
	go hub.Run(ctx)

	for _, photoType := range []string{mixer.PhotoTypeLive, mixer.PhotoTypeAttending} {
		if err := feed.Sync(ctx, photoStore, hub, photoType, 0); err != nil {
			log.Panic("fail to start feed sync", zap.Error(err), zap.String("type", photoType))
		}
	}

	carouselInterval, err := time.ParseDuration(viper.GetString("carousel.interval"))
	if err != nil {
		log.Error("invalid duration. use default value 3s", zap.Error(err))
		carouselInterval = 3 * time.Second
	}
	carouselLimit := viper.GetInt64("carousel.limit")
	if carouselLimit == 0 {
		carouselLimit = 20
	}

	carousel := feed.NewCarousel(carouselInterval)
	carousel.Start(ctx)

	prefetcher := feed.NewPrefetcher(nil, cacheStore)

	carouselSub, err := photoStore.Subscribe(ctx, mixer.PhotoFilter{
		Type:  mixer.PhotoTypeAttending,
		Limit: carouselLimit,
	})
	if err != nil {
		log.Panic("fail to subscribe carousel feed", zap.Error(err))
	}
	go func() {
		defer carouselSub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-carouselSub.Snapshots():
				if !ok {
					return
				}
				carousel.SetPhotos(snapshot)
				prefetcher.Warm(ctx, snapshot)
			}
		}
	}()

	siteURL := viper.GetString("server.site_url")
	shareMessage := share.Message{
		Title: viper.GetString("share.title"),
		Text:  viper.GetString("share.text"),
	}
	resolver := share.DefaultResolver(nil, siteURL)

	s := NewPhotoMixerServer(engine, photoStore, uploadStore, hub, carousel, prefetcher,
		resolver, siteURL, shareMessage, viper.GetString("server.api_token"))
	s.SetupRoute()
	if err := s.Run(viper.GetString("server.port")); err != nil {
		log.Panic("server interrupted", zap.Error(err))
	}
}
