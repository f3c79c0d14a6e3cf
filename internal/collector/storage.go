package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lumenlab/circadia-platform/internal/session"
	"github.com/lumenlab/circadia-platform/pkg/config"
	"github.com/lumenlab/circadia-platform/pkg/redis"
)

// Storage buffers light samples in Redis sorted sets, scored by unix
// milliseconds so session windows can be assembled with range queries.
type Storage struct {
	redis      redis.Client
	maxHistory int
	retention  time.Duration
	logger     *slog.Logger
}

// NewStorage creates a new storage handler
func NewStorage(redisClient redis.Client, cfg *config.Config, logger *slog.Logger) *Storage {
	return &Storage{
		redis:      redisClient,
		maxHistory: cfg.MaxSampleHistory,
		retention:  time.Duration(cfg.SampleTTLHours * float64(time.Hour)),
		logger:     logger,
	}
}

// StoreSample appends a sample to the device buffer, prunes entries older
// than the retention window, and refreshes the metadata hash.
func (s *Storage) StoreSample(ctx context.Context, msg *SampleMessage) error {
	key := redis.SampleBufferKey(msg.Device)

	member, err := json.Marshal(msg.Sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	score := float64(msg.Sample.Timestamp.UnixMilli())
	if err := s.redis.ZAdd(ctx, key, score, string(member)); err != nil {
		return fmt.Errorf("failed to buffer sample for %s: %w", msg.Device, err)
	}

	cutoff := time.Now().Add(-s.retention).UnixMilli()
	if err := s.redis.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10)); err != nil {
		return fmt.Errorf("failed to prune sample buffer for %s: %w", msg.Device, err)
	}

	if err := s.redis.Expire(ctx, key, s.retention); err != nil {
		return fmt.Errorf("failed to refresh buffer TTL for %s: %w", msg.Device, err)
	}

	metaKey := redis.SampleMetaKey(msg.Device)
	if err := s.redis.HSet(ctx, metaKey, "lastSampleTime", msg.Sample.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to update sample meta for %s: %w", msg.Device, err)
	}
	if err := s.redis.Expire(ctx, metaKey, s.retention); err != nil {
		return fmt.Errorf("failed to refresh meta TTL for %s: %w", msg.Device, err)
	}

	count, err := s.redis.ZCard(ctx, key)
	if err == nil && count > int64(s.maxHistory) {
		s.logger.Warn("Sample buffer above configured history limit",
			"device", msg.Device,
			"count", count,
			"limit", s.maxHistory)
	}

	return nil
}

// LoadWindow assembles the buffered samples of a device between two
// instants, in timestamp order.
func (s *Storage) LoadWindow(ctx context.Context, device string, from, to time.Time) ([]session.LightSample, error) {
	key := redis.SampleBufferKey(device)

	members, err := s.redis.ZRangeByScoreWithScores(ctx, key,
		float64(from.UnixMilli()), float64(to.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("failed to read sample window for %s: %w", device, err)
	}

	samples := make([]session.LightSample, 0, len(members))
	for _, m := range members {
		var sample session.LightSample
		if err := json.Unmarshal([]byte(m.Member), &sample); err != nil {
			s.logger.Warn("Skipping undecodable buffered sample",
				"device", device, "error", err)
			continue
		}
		samples = append(samples, sample)
	}

	return samples, nil
}
