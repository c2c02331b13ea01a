package mixer

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/gef-festival/photo-mixer/log"
)

// Subscription is a live query against the photo store. Every relevant
// change to the result set delivers a full snapshot in query order; the
// consumer replaces its local list wholesale, there is no diffing. After
// Unsubscribe returns no further snapshots are delivered and the
// Snapshots channel is closed.
type Subscription struct {
	snapshots chan []PhotoRecord

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Snapshots yields the full result set of the subscribed query, latest
// state last. A slow consumer only observes the most recent snapshot;
// intermediate states may be skipped but never reordered.
func (s *Subscription) Snapshots() <-chan []PhotoRecord {
	return s.snapshots
}

// Unsubscribe tears the subscription down. It is safe to call more than
// once and returns after delivery has stopped. Any snapshot still
// buffered is discarded; nothing is receivable once this returns.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done

	for range s.snapshots {
	}
}

// deliver replaces any undelivered snapshot with the given one.
func (s *Subscription) deliver(snapshot []PhotoRecord) {
	for {
		select {
		case s.snapshots <- snapshot:
			return
		default:
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}

// Subscribe opens a change-stream backed subscription whose snapshots
// mirror ListPhotos for the same filter. The initial snapshot is
// delivered immediately; afterwards every insert, update or delete on
// the collection triggers a re-query and a fresh snapshot.
func (s *MongodbPhotoStore) Subscribe(ctx context.Context, filter PhotoFilter) (*Subscription, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	stream, err := s.photoCollection.Watch(streamCtx, bson.A{}, options.ChangeStream())
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &Subscription{
		snapshots: make(chan []PhotoRecord, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	snapshot, err := s.ListPhotos(streamCtx, filter)
	if err != nil {
		cancel()
		_ = stream.Close(context.Background())
		return nil, err
	}
	sub.deliver(snapshot)

	go func() {
		defer close(sub.done)
		defer close(sub.snapshots)
		defer stream.Close(context.Background())

		for stream.Next(streamCtx) {
			snapshot, err := s.ListPhotos(streamCtx, filter)
			if err != nil {
				if streamCtx.Err() != nil {
					return
				}
				log.Warn("fail to refresh subscription snapshot", zap.Error(err), log.SourceStore)
				continue
			}
			sub.deliver(snapshot)
		}
	}()

	return sub, nil
}
