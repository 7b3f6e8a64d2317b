package fitness

import (
	"errors"

	"github.com/accessfit/accessfit-gateway/internal/backend"

	"github.com/coocood/freecache"
	"github.com/go-playground/validator/v10"
)

const (
	exercisesCacheKey  = "exercises::all"
	educationCacheKey  = "education::"
	catalogCacheMBytes = 10
)

var validate = validator.New()

var ErrNotFound = errors.New("not found")

// ValidationError is a client-side rejection: the payload never left the
// process.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func validateParams(params any) error {
	if err := validate.Struct(params); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	return nil
}

// Client exposes one accessor per backend operation. Read accessors that
// need a user or assignment id return their empty default locally when the
// id is missing, so component mount races never turn into spurious
// requests.
type Client struct {
	api      *backend.Client
	cache    *freecache.Cache
	cacheTTL int // seconds
}

func NewClient(api *backend.Client, cacheTTLSeconds int) *Client {
	megabyte := 1024 * 1024
	return &Client{
		api:      api,
		cache:    freecache.NewCache(catalogCacheMBytes * megabyte),
		cacheTTL: cacheTTLSeconds,
	}
}
