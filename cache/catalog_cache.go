package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maestro/model"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent or the cache is disabled.
var ErrCacheMiss = errors.New("cache miss")

const (
	searchTTL   = 10 * time.Minute
	analysisTTL = 24 * time.Hour
)

func searchKey(searchType, term string) string {
	return fmt.Sprintf("search:%s:%s", searchType, term)
}

func analysisKey(trackID string) string {
	return fmt.Sprintf("analysis:%s", trackID)
}

// GetSearch returns cached search results, or ErrCacheMiss.
func GetSearch(ctx context.Context, searchType, term string) ([]model.SearchResult, error) {
	if RedisClient == nil {
		return nil, ErrCacheMiss
	}
	data, err := RedisClient.Get(ctx, searchKey(searchType, term)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read search cache: %w", err)
	}
	var results []model.SearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached search results: %w", err)
	}
	return results, nil
}

// SetSearch stores search results. A nil client makes this a no-op.
func SetSearch(ctx context.Context, searchType, term string, results []model.SearchResult) error {
	if RedisClient == nil {
		return nil
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal search results: %w", err)
	}
	return RedisClient.Set(ctx, searchKey(searchType, term), data, searchTTL).Err()
}

// GetAnalysis returns a cached track analysis, or ErrCacheMiss.
func GetAnalysis(ctx context.Context, trackID string) (*model.TrackAnalysis, error) {
	if RedisClient == nil {
		return nil, ErrCacheMiss
	}
	data, err := RedisClient.Get(ctx, analysisKey(trackID)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis cache: %w", err)
	}
	var analysis model.TrackAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached analysis: %w", err)
	}
	return &analysis, nil
}

// SetAnalysis stores a track analysis. A nil client makes this a no-op.
func SetAnalysis(ctx context.Context, analysis *model.TrackAnalysis) error {
	if RedisClient == nil {
		return nil
	}
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	return RedisClient.Set(ctx, analysisKey(analysis.TrackID), data, analysisTTL).Err()
}
