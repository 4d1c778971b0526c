// Package recommend defines the contract with the external station scoring
// service. Responses are normalized once, at ingestion, into ScoredStation;
// nothing downstream deals with the wire shape.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ScoreRequest is what a scorer needs to rank stations for a driver.
type ScoreRequest struct {
	UserID   uint64
	UserLat  float64
	UserLng  float64
	TimeSlot time.Time
	Limit    int
}

// ScoredStation is the canonical scored recommendation. Component keys are
// lower case (e.g. "load", "green", "price").
type ScoredStation struct {
	StationID   uint64             `json:"stationId"`
	Score       float64            `json:"score"`
	Components  map[string]float64 `json:"components"`
	Explanation string             `json:"explanation"`
}

// Scorer ranks stations. Implementations are opaque collaborators.
type Scorer interface {
	Score(ctx context.Context, req ScoreRequest) ([]ScoredStation, error)
	Name() string
}

// ErrInvalidResponse is returned when a scorer's payload cannot be mapped
// to ScoredStation values.
var ErrInvalidResponse = errors.New("invalid scorer response")

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Service applies limits and ordering on top of a Scorer. A nil scorer
// yields no recommendations.
type Service struct {
	scorer Scorer
}

func NewService(scorer Scorer) *Service { return &Service{scorer: scorer} }

// Algorithm names the active scorer, or "none".
func (s *Service) Algorithm() string {
	if s.scorer == nil {
		return "none"
	}
	return s.scorer.Name()
}

// Recommend returns at most req.Limit stations ordered by score descending
// (ties by station id).
func (s *Service) Recommend(ctx context.Context, req ScoreRequest) ([]ScoredStation, error) {
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if s.scorer == nil {
		return []ScoredStation{}, nil
	}
	out, err := s.scorer.Score(ctx, req)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].StationID < out[j].StationID
	})
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

// wireStation accepts both camelCase and PascalCase keys.
type wireStation struct {
	StationID    *float64           `json:"stationId"`
	StationIDP   *float64           `json:"StationID"`
	Score        *float64           `json:"score"`
	ScoreP       *float64           `json:"Score"`
	Components   map[string]float64 `json:"components"`
	ComponentsP  map[string]float64 `json:"Components"`
	Explanation  *string            `json:"explanation"`
	ExplanationP *string            `json:"Explanation"`
}

// Normalize maps a raw scorer payload into canonical values. The payload may
// be a bare array, {"results": [...]} or {"data": {"results": [...]}}.
func Normalize(raw []byte) ([]ScoredStation, error) {
	items, err := unwrap(raw)
	if err != nil {
		return nil, err
	}
	out := make([]ScoredStation, 0, len(items))
	for i, it := range items {
		s, err := it.canonical()
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidResponse, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func unwrap(raw []byte) ([]wireStation, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var items []wireStation
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return items, nil
	}
	var env struct {
		Results  []wireStation `json:"results"`
		ResultsP []wireStation `json:"Results"`
		Data     *struct {
			Results  []wireStation `json:"results"`
			ResultsP []wireStation `json:"Results"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	switch {
	case env.Results != nil:
		return env.Results, nil
	case env.ResultsP != nil:
		return env.ResultsP, nil
	case env.Data != nil && env.Data.Results != nil:
		return env.Data.Results, nil
	case env.Data != nil && env.Data.ResultsP != nil:
		return env.Data.ResultsP, nil
	}
	return nil, fmt.Errorf("%w: no results", ErrInvalidResponse)
}

func (w wireStation) canonical() (ScoredStation, error) {
	id := firstFloat(w.StationID, w.StationIDP)
	if id == nil || *id <= 0 || *id != math.Trunc(*id) {
		return ScoredStation{}, errors.New("stationId must be a positive integer")
	}
	score := firstFloat(w.Score, w.ScoreP)
	if score == nil || math.IsNaN(*score) || math.IsInf(*score, 0) {
		return ScoredStation{}, errors.New("score must be a finite number")
	}
	comps := w.Components
	if comps == nil {
		comps = w.ComponentsP
	}
	canon := make(map[string]float64, len(comps))
	for k, v := range comps {
		canon[strings.ToLower(k)] = v
	}
	s := ScoredStation{StationID: uint64(*id), Score: *score, Components: canon}
	if w.Explanation != nil {
		s.Explanation = *w.Explanation
	} else if w.ExplanationP != nil {
		s.Explanation = *w.ExplanationP
	}
	return s, nil
}

func firstFloat(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
