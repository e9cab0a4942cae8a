package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-rca/internal/domain/narrative"
)

type fakeRuns struct {
	runs map[string]*domain.Run
}

func (f *fakeRuns) Save(_ context.Context, r *domain.Run) error {
	f.runs[string(r.ID)] = r
	return nil
}

func (f *fakeRuns) Get(_ context.Context, _ string, id domain.RunID) (*domain.Run, error) {
	r, ok := f.runs[string(id)]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return r, nil
}

func (f *fakeRuns) Latest(context.Context, string, int) ([]*domain.Run, error) { return nil, nil }

func (f *fakeRuns) Summary(context.Context, string, int) (int, int, int, int, error) {
	return 0, 0, 0, 0, nil
}

func (f *fakeRuns) Paginate(context.Context, string, int, int) ([]*domain.Run, error) {
	return nil, nil
}

func (f *fakeRuns) Cursor(context.Context, string, time.Time, string, int) ([]*domain.Run, error) {
	return nil, nil
}

func (f *fakeRuns) Count(context.Context, string) (int64, error) { return 0, nil }

type fakeNarrativeRepo struct {
	saved []*narrative.Narrative
}

func (f *fakeNarrativeRepo) Save(_ context.Context, n *narrative.Narrative) error {
	f.saved = append(f.saved, n)
	return nil
}

func (f *fakeNarrativeRepo) Paginate(context.Context, string, int, int) ([]*narrative.Narrative, error) {
	return f.saved, nil
}

func (f *fakeNarrativeRepo) LatestByRun(_ context.Context, tenant, runID string) (*narrative.Narrative, error) {
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].TenantID == tenant && f.saved[i].RunID == runID {
			return f.saved[i], nil
		}
	}
	return nil, nil
}

type fakeNarrator struct {
	text string
	err  error
}

func (f *fakeNarrator) Model() string { return "llama-3.1-8b-instruct" }

func (f *fakeNarrator) Narrate(context.Context, *domain.Result) (string, error) {
	return f.text, f.err
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func completedRun(id string) *domain.Run {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	run := domain.NewRun(domain.RunID(id), "acme", "payment-gateway", at)
	res := &domain.Result{ID: domain.RunID(id), TenantID: "acme", TargetService: "payment-gateway", GeneratedAt: at}
	run.Complete(res, "", at.Add(time.Second))
	return run
}

func TestNarrateAndStore_PersistsNarrative(t *testing.T) {
	runs := &fakeRuns{runs: map[string]*domain.Run{"run-1": completedRun("run-1")}}
	narratives := &fakeNarrativeRepo{}
	clock := fixedClock{t: time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)}
	svc := NewService(&fakeNarrator{text: "Root cause: expired policy."}, runs, narratives, clock)

	n, err := svc.NarrateAndStore(context.Background(), "acme", "run-1")

	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "acme", n.TenantID)
	assert.Equal(t, "run-1", n.RunID)
	assert.Equal(t, "llama-3.1-8b-instruct", n.Model)
	assert.Equal(t, "Root cause: expired policy.", n.Text)
	assert.Equal(t, clock.t, n.CreatedAt)
	require.Len(t, narratives.saved, 1)
	assert.Same(t, n, narratives.saved[0])
}

func TestNarrateAndStore_RunWithoutResult(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	runs := &fakeRuns{runs: map[string]*domain.Run{
		"run-2": domain.NewRun("run-2", "acme", "payment-gateway", at),
	}}
	svc := NewService(&fakeNarrator{text: "x"}, runs, &fakeNarrativeRepo{}, fixedClock{t: at})

	_, err := svc.NarrateAndStore(context.Background(), "acme", "run-2")

	assert.ErrorIs(t, err, domain.ErrNoResult)
}

func TestNarrateAndStore_NarratorErrorPropagates(t *testing.T) {
	runs := &fakeRuns{runs: map[string]*domain.Run{"run-1": completedRun("run-1")}}
	svc := NewService(&fakeNarrator{err: errors.New("quota exceeded")}, runs, &fakeNarrativeRepo{}, fixedClock{})

	_, err := svc.NarrateAndStore(context.Background(), "acme", "run-1")

	assert.EqualError(t, err, "quota exceeded")
}

func TestNarrateAndStore_NarratorNotConfigured(t *testing.T) {
	svc := NewService(nil, &fakeRuns{runs: map[string]*domain.Run{}}, &fakeNarrativeRepo{}, fixedClock{})

	_, err := svc.NarrateAndStore(context.Background(), "acme", "run-1")

	assert.EqualError(t, err, "ai narrator not configured")
}

func TestLatestByRun_ReturnsNewest(t *testing.T) {
	narratives := &fakeNarrativeRepo{saved: []*narrative.Narrative{
		{ID: "n1", TenantID: "acme", RunID: "run-1", Text: "older"},
		{ID: "n2", TenantID: "acme", RunID: "run-1", Text: "newer"},
	}}
	svc := NewService(nil, &fakeRuns{runs: map[string]*domain.Run{}}, narratives, fixedClock{})

	n, err := svc.LatestByRun(context.Background(), "acme", "run-1")

	require.NoError(t, err)
	assert.Equal(t, "newer", n.Text)
}
