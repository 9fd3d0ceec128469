package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"profilehost/api/internal/models"
	"profilehost/api/internal/storage"
)

type OrphanStore interface {
	ListOrphans(ctx context.Context, before time.Time) ([]*models.Image, error)
	MarkDeleted(ctx context.Context, id bson.ObjectID) error
}

// Cleaner consumes sweep tasks from the cleanup stream and erases blobs
// of images that have been unlinked longer than the retention window.
type Cleaner struct {
	queue     *redis.Client
	images    OrphanStore
	blobs     storage.BlobStore
	retention time.Duration
	log       zerolog.Logger
}

func NewCleaner(queue *redis.Client, images OrphanStore, blobs storage.BlobStore, retention time.Duration, log zerolog.Logger) *Cleaner {
	return &Cleaner{
		queue:     queue,
		images:    images,
		blobs:     blobs,
		retention: retention,
		log:       log,
	}
}

// Start blocks on the cleanup stream until the context is canceled.
func (c *Cleaner) Start(ctx context.Context) error {
	if c.queue == nil {
		return nil
	}

	lastID := "$"
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := c.queue.XRead(ctx, &redis.XReadArgs{
			Streams: []string{CleanupStream, lastID},
			Count:   10,
			Block:   5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error().Err(err).Msg("cleanup stream read error")
			time.Sleep(2 * time.Second)
			continue
		}

		for _, stream := range result {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				if err := c.Sweep(ctx); err != nil {
					c.log.Error().Err(err).Str("message_id", msg.ID).Msg("orphan sweep failed")
				}
			}
		}
	}
}

// Sweep erases the blobs of expired orphans and marks the records
// deleted. Linked images are never touched.
func (c *Cleaner) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-c.retention)
	orphans, err := c.images.ListOrphans(ctx, cutoff)
	if err != nil {
		return err
	}

	removed := 0
	for _, image := range orphans {
		if err := c.blobs.Remove(ctx, image.BlobKey()); err != nil {
			c.log.Warn().Err(err).Str("key", image.BlobKey()).Msg("orphan blob removal failed")
			continue
		}
		if err := c.images.MarkDeleted(ctx, image.ID); err != nil {
			c.log.Warn().Err(err).Str("image", image.Name).Msg("orphan mark deleted failed")
			continue
		}
		removed++
	}

	if removed > 0 {
		c.log.Info().Int("removed", removed).Msg("orphan sweep done")
	}
	return nil
}
