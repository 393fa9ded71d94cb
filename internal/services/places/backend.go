package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/models"
	"github.com/ternarybob/outing/internal/ratelimit"
)

// searchQuery is a backend-neutral text search request
type searchQuery struct {
	Text     string
	PageSize int
	Bias     *models.LocationBias
}

// backend is one generation of the Places API. The primary and legacy
// implementations translate their wire shapes into the same models.
type backend interface {
	Source() models.PlaceSource
	Search(ctx context.Context, query searchQuery) ([]models.PlaceCandidate, error)
	Details(ctx context.Context, placeID string) (*models.EnrichedPlace, error)
	Photo(ctx context.Context, reference string, maxWidth int) (string, error)
}

// transport performs rate-limited HTTP calls shared by both backends
type transport struct {
	apiKey     string
	httpClient *http.Client
	noRedirect *http.Client
	limiter    *ratelimit.Limiter
	logger     arbor.ILogger
}

func newTransport(apiKey string, httpClient *http.Client, limiter *ratelimit.Limiter, logger arbor.ILogger) *transport {
	noRedirect := *httpClient
	noRedirect.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &transport{
		apiKey:     apiKey,
		httpClient: httpClient,
		noRedirect: &noRedirect,
		limiter:    limiter,
		logger:     logger,
	}
}

// do sends req through the limiter queue. The caller closes the response body.
// A response that arrives after the caller gave up is closed here.
func (t *transport) do(ctx context.Context, req *http.Request, followRedirects bool) (*http.Response, error) {
	client := t.httpClient
	if !followRedirects {
		client = t.noRedirect
	}

	var (
		mu        sync.Mutex
		abandoned bool
		resp      *http.Response
	)

	err := t.limiter.Enqueue(ctx, func(ctx context.Context) error {
		r, err := client.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		if abandoned {
			r.Body.Close()
			return ctx.Err()
		}
		resp = r
		return nil
	})
	if err != nil {
		mu.Lock()
		abandoned = true
		if resp != nil {
			resp.Body.Close()
			resp = nil
		}
		mu.Unlock()
		return nil, err
	}

	return resp, nil
}

// doJSON sends req and decodes a 200 response into result.
// Any other status is returned as *APIError.
func (t *transport) doJSON(ctx context.Context, req *http.Request, endpoint string, result interface{}) error {
	resp, err := t.do(ctx, req, true)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	return nil
}
