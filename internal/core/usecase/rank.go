package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/core/ports"
)

const (
	DefaultRelevanceThreshold = 0.5
	DefaultMaxRankedSegments  = 10
	DefaultRankConcurrency    = 4
)

type RankerOptions struct {
	// Threshold is exclusive: a segment must score strictly above it.
	Threshold   float64
	TopK        int
	Concurrency int
}

func (o RankerOptions) normalize() RankerOptions {
	out := o
	if out.Threshold <= 0 || out.Threshold >= 1 {
		out.Threshold = DefaultRelevanceThreshold
	}
	if out.TopK <= 0 {
		out.TopK = DefaultMaxRankedSegments
	}
	if out.Concurrency <= 0 {
		out.Concurrency = DefaultRankConcurrency
	}
	return out
}

// Ranker scores every segment against a question. Scoring costs one model
// inference per segment and dominates the latency of a question.
type Ranker struct {
	scorer ports.RelevanceScorer
	opts   RankerOptions
}

func NewRanker(scorer ports.RelevanceScorer, opts RankerOptions) *Ranker {
	return &Ranker{
		scorer: scorer,
		opts:   opts.normalize(),
	}
}

func (r *Ranker) Rank(ctx context.Context, question string, segments []domain.Segment) ([]domain.ScoredSegment, error) {
	if len(segments) == 0 {
		return []domain.ScoredSegment{}, nil
	}

	scores := make([]float64, len(segments))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.opts.Concurrency)
	for idx, segment := range segments {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			score, err := r.scorer.Score(groupCtx, question, segment.Text)
			if err != nil {
				return fmt.Errorf("score segment %d: %w", segment.ID, err)
			}
			scores[idx] = score
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, scoringFailure(err)
	}

	return selectRelevant(segments, scores, r.opts.Threshold, r.opts.TopK), nil
}

// scoringFailure types a deadline or cancellation that fired between
// inferences. Scorer errors already carry their kind.
func scoringFailure(err error) error {
	if domain.IsInfrastructureFailure(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.WrapError(domain.ErrScoringUnavailable, "rank segments", err)
	}
	return err
}

// selectRelevant keeps scores above threshold, sorted descending. Equal
// scores keep the order in which their segments appear.
func selectRelevant(segments []domain.Segment, scores []float64, threshold float64, topK int) []domain.ScoredSegment {
	out := make([]domain.ScoredSegment, 0, len(segments))
	for idx, segment := range segments {
		if scores[idx] <= threshold {
			continue
		}
		out = append(out, domain.ScoredSegment{
			ID:    segment.ID,
			Text:  segment.Text,
			Score: scores[idx],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}
