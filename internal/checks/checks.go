package checks

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"landcharges/assist/internal/domain"
)

type Checker interface {
	Check(ctx context.Context, endpoint domain.Endpoint) domain.CheckResult
	Type() domain.CheckKind
}

// Preflight runs every checker against every endpoint concurrently.
type Preflight struct {
	checkers []Checker
}

func NewPreflight(checkers ...Checker) *Preflight {
	return &Preflight{checkers: checkers}
}

// Run returns one result per endpoint and checker, ordered by endpoint then
// checker, each tagged with its checker's Type. It only fails when ctx is
// cancelled.
func (p *Preflight) Run(ctx context.Context, endpoints []domain.Endpoint) ([]domain.CheckResult, error) {
	results := make([]domain.CheckResult, len(endpoints)*len(p.checkers))

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for i, endpoint := range endpoints {
		for j, checker := range p.checkers {
			idx := i*len(p.checkers) + j
			g.Go(func() error {
				res := checker.Check(gctx, endpoint)
				res.Endpoint = endpoint
				res.Kind = checker.Type()
				mu.Lock()
				results[idx] = res
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// AllUp reports whether every check succeeded.
func AllUp(results []domain.CheckResult) bool {
	for _, r := range results {
		if r.Status != domain.CheckStatusUp {
			return false
		}
	}
	return true
}
