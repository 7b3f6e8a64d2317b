package fitness

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

// Education lists educational content, optionally filtered by category.
// Content is read-only for the client, so it is cached per category.
func (c *Client) Education(ctx context.Context, category string) (contents []EducationContent, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "fitness.education")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cacheKey := []byte(educationCacheKey + category)
	if cached, err := c.cache.Get(cacheKey); err == nil {
		if err := json.Unmarshal(cached, &contents); err == nil {
			log.Tracef("education content served from cache (category: %q)", category)
			return contents, nil
		}
		log.Errorf("failed to unmarshal cached education content: %s", err)
	}

	var query url.Values
	if category != "" {
		query = url.Values{}
		query.Set("category", category)
	}

	if err := c.api.Do(ctx, http.MethodGet, "/education", query, nil, &contents); err != nil {
		return nil, err
	}

	if contentBytes, err := json.Marshal(contents); err == nil {
		if err := c.cache.Set(cacheKey, contentBytes, c.cacheTTL); err != nil {
			log.Errorf("failed to cache education content: %s", err)
		}
	}

	return contents, nil
}

func (c *Client) EducationItem(ctx context.Context, id int) (*EducationContent, error) {
	if id == 0 {
		return nil, ErrNotFound
	}

	var content EducationContent
	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/education/%d", id), nil, nil, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// LogContentAccess records that a user opened a piece of content.
func (c *Client) LogContentAccess(ctx context.Context, userID, contentID int) error {
	if userID == 0 {
		return &ValidationError{Reason: "missing user id"}
	}

	body := map[string]int{"user_id": userID}
	return c.api.Do(ctx, http.MethodPost, fmt.Sprintf("/education/%d/access", contentID), nil, body, nil)
}
