package ai

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	app "github.com/bryanwahyu/automaton-rca/internal/application"
	domai "github.com/bryanwahyu/automaton-rca/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-rca/internal/domain/narrative"
)

// Service generates narratives for stored runs on demand and serves the
// narrative audit trail.
type Service struct {
	Narrator   domai.Narrator
	Runs       domain.Repository
	Narratives narrative.Repository
	Clock      app.Clock
}

func NewService(narrator domai.Narrator, runs domain.Repository, narratives narrative.Repository, clock app.Clock) *Service {
	return &Service{Narrator: narrator, Runs: runs, Narratives: narratives, Clock: clock}
}

// NarrateAndStore writes a narrative for a finished run and persists it.
func (s *Service) NarrateAndStore(ctx context.Context, tenant, runID string) (*narrative.Narrative, error) {
	if s.Narrator == nil {
		return nil, fmt.Errorf("ai narrator not configured")
	}
	run, err := s.Runs.Get(ctx, tenant, domain.RunID(runID))
	if err != nil {
		return nil, err
	}
	if run.Result == nil {
		return nil, fmt.Errorf("%w: run %s (status %s)", domain.ErrNoResult, runID, run.Status)
	}

	text, err := s.Narrator.Narrate(ctx, run.Result)
	if err != nil {
		return nil, err
	}

	n := &narrative.Narrative{
		ID:        narrative.NarrativeID(uuid.New().String()),
		TenantID:  tenant,
		RunID:     runID,
		Model:     s.Narrator.Model(),
		Text:      text,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Narratives.Save(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNarratives pages the stored narratives for a tenant.
func (s *Service) ListNarratives(ctx context.Context, tenant string, page, pageSize int) ([]*narrative.Narrative, error) {
	return s.Narratives.Paginate(ctx, tenant, page, pageSize)
}

// LatestByRun returns the newest narrative written for one run.
func (s *Service) LatestByRun(ctx context.Context, tenant, runID string) (*narrative.Narrative, error) {
	return s.Narratives.LatestByRun(ctx, tenant, runID)
}
