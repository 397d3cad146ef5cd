package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"teachassist/internal/app"
)

// DraftCache keeps presentation drafts between the generate, edit and
// render requests. Every save refreshes the TTL.
type DraftCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewDraftCache(client *redisv9.Client, ttl time.Duration) *DraftCache {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &DraftCache{client: client, ttl: ttl}
}

func (c *DraftCache) Load(ctx context.Context, id string) (*app.PresentationDraft, error) {
	raw, err := c.client.Get(ctx, c.draftKey(id)).Bytes()
	if err == redisv9.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get draft failed: %w", err)
	}

	var draft app.PresentationDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("unmarshal cached draft failed: %w", err)
	}
	return &draft, nil
}

func (c *DraftCache) Save(ctx context.Context, draft *app.PresentationDraft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft failed: %w", err)
	}
	if err := c.client.Set(ctx, c.draftKey(draft.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft failed: %w", err)
	}
	return nil
}

func (c *DraftCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.draftKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete draft failed: %w", err)
	}
	return nil
}

func (c *DraftCache) draftKey(id string) string {
	return "presentation:draft:" + id
}
