package log

import "go.uber.org/zap"

var (
	SourceCompositor = zap.String("source", "compositor")
	SourceBlobStore  = zap.String("source", "blobstore")
	SourceStore      = zap.String("source", "photoStore")
	SourceLedger     = zap.String("source", "uploadLedger")
	SourceFeed       = zap.String("source", "feed")
	SourceShare      = zap.String("source", "share")
	SourceServer     = zap.String("source", "server")
)
