package recommend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iliyamo/ecocharge-reservation/internal/logger"
)

// HTTPScorer asks a remote scoring service for recommendations with
// GET <base>?userId=&lat=&lng=&slot=&limit=.
type HTTPScorer struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPScorer(baseURL string, timeout time.Duration) *HTTPScorer {
	return &HTTPScorer{BaseURL: baseURL, Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPScorer) Name() string { return "remote" }

func (s *HTTPScorer) Score(ctx context.Context, req ScoreRequest) ([]ScoredStation, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("recommender url: %w", err)
	}
	q := u.Query()
	q.Set("userId", strconv.FormatUint(req.UserID, 10))
	q.Set("lat", strconv.FormatFloat(req.UserLat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(req.UserLng, 'f', -1, 64))
	q.Set("limit", strconv.Itoa(req.Limit))
	if !req.TimeSlot.IsZero() {
		q.Set("slot", req.TimeSlot.UTC().Format(time.RFC3339))
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		logger.ExternalServiceResult("recommender", "score", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("recommender returned %d", resp.StatusCode)
		logger.ExternalServiceResult("recommender", "score", err)
		return nil, err
	}
	out, err := Normalize(body)
	logger.ExternalServiceResult("recommender", "score", err, "results", len(out))
	return out, err
}
