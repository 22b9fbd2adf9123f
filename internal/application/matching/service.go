// Package matching recommends security specialists for the weakest
// categories of an evaluation.
package matching

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/SIMPLE/internal/application/assessment"
	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/domain/specialist"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/redis"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

const (
	DefaultLimit = 3
	MaxLimit     = 20

	// candidatePool is how many directory entries are fetched per category
	// set before ranking. It is independent of the requested limit so that
	// one cached lookup serves every limit.
	candidatePool = 50

	DefaultCacheTTL = 10 * time.Minute
)

// Results is the part of the assessment service matching reads from.
type Results interface {
	Result(ctx context.Context, actor common.Actor, id uuid.UUID) (*assessment.EvaluationResult, error)
}

// Recommendation lists ranked specialists for one evaluation.
type Recommendation struct {
	EvaluationID      uuid.UUID              `json:"evaluationId"`
	WeakestCategories []string               `json:"weakestCategories"`
	Suggestions       []specialist.Suggestion `json:"suggestions"`
}

// Service defines the matching use cases.
type Service interface {
	Recommend(ctx context.Context, actor common.Actor, evaluationID uuid.UUID, limit int) (*Recommendation, error)
	// HandleEvaluationCompleted precomputes the matches of a freshly scored
	// evaluation so that the first Recommend is served from cache.
	HandleEvaluationCompleted(ctx context.Context, evt *evaluation.CompletedEvent) error
}

// Options configures the service.
type Options struct {
	CacheTTL time.Duration
	// WarmLimit is the number of matches computed when warming.
	WarmLimit int
}

type serviceImpl struct {
	results   Results
	directory specialist.Repository
	cache     redis.Cache
	opts      Options
	logger    logging.Logger
}

// NewService creates the matching service. cache may be nil, in which case
// every lookup reaches the directory.
func NewService(results Results, directory specialist.Repository, cache redis.Cache, opts Options, logger logging.Logger) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.WarmLimit <= 0 {
		opts.WarmLimit = DefaultLimit
	}
	return &serviceImpl{
		results:   results,
		directory: directory,
		cache:     cache,
		opts:      opts,
		logger:    logger.Named("matching"),
	}
}

func (s *serviceImpl) Recommend(ctx context.Context, actor common.Actor, evaluationID uuid.UUID, limit int) (*Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	er, err := s.results.Result(ctx, actor, evaluationID)
	if err != nil {
		return nil, err
	}
	weakest := er.Result.WeakestCategories
	candidates, err := s.candidates(ctx, weakest)
	if err != nil {
		return nil, err
	}
	return &Recommendation{
		EvaluationID:      evaluationID,
		WeakestCategories: weakest,
		Suggestions:       specialist.Match(candidates, weakest, limit),
	}, nil
}

func (s *serviceImpl) HandleEvaluationCompleted(ctx context.Context, evt *evaluation.CompletedEvent) error {
	if evt == nil {
		return errors.Validation("completed event is required")
	}
	candidates, err := s.candidates(ctx, evt.WeakestCategories)
	if err != nil {
		return err
	}
	matches := specialist.Match(candidates, evt.WeakestCategories, s.opts.WarmLimit)
	s.logger.Info("specialist matches precomputed",
		logging.String(logging.KeyEvaluationID, evt.EvaluationID),
		logging.String(logging.KeyProfileID, string(evt.ProfileID)),
		logging.Strings("weakest", evt.WeakestCategories),
		logging.Int("matches", len(matches)))
	return nil
}

// candidates loads the directory entries for a set of categories, through the
// cache when one is configured.
func (s *serviceImpl) candidates(ctx context.Context, categories []string) ([]*specialist.Specialist, error) {
	if len(categories) == 0 {
		return []*specialist.Specialist{}, nil
	}
	load := func(ctx context.Context) (interface{}, error) {
		list, err := s.directory.ListByExpertise(ctx, categories, candidatePool)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []*specialist.Specialist{}
		}
		return list, nil
	}
	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return v.([]*specialist.Specialist), nil
	}

	var out []*specialist.Specialist
	if err := s.cache.GetOrSet(ctx, CacheKey(categories), &out, s.opts.CacheTTL, load); err != nil {
		return nil, err
	}
	return out, nil
}

// CacheKey identifies a category set independently of order, case and
// Unicode composition.
func CacheKey(categories []string) string {
	norm := make([]string, 0, len(categories))
	for _, c := range categories {
		norm = append(norm, specialist.NormalizeCategory(c))
	}
	sort.Strings(norm)
	return fmt.Sprintf("specialists:%s:%d", strings.Join(norm, "|"), candidatePool)
}
