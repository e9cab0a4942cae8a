package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/google/uuid"

	app "github.com/bryanwahyu/automaton-rca/internal/application"
	domai "github.com/bryanwahyu/automaton-rca/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-rca/internal/domain/healing"
	"github.com/bryanwahyu/automaton-rca/internal/domain/knowledge"
	"github.com/bryanwahyu/automaton-rca/internal/domain/narrative"
	"github.com/bryanwahyu/automaton-rca/internal/domain/runerrors"
)

// SourceFactory returns the artifact source for one target's bundle.
type SourceFactory func(target string) domain.Sources

// Service implements the analysis use-cases.
// Service is designed to be used concurrently and is thread-safe.
// Narrator, Embedder, Index and Healer are optional; a nil port disables
// that post-completion step without affecting the run itself.
type Service struct {
	Repo       domain.Repository
	Sources    SourceFactory
	Renderer   domain.Renderer
	Reports    domain.ReportStore
	RunErrors  runerrors.Repository
	Narrator   domai.Narrator
	Narratives narrative.Repository
	Embedder   domai.Embedder
	Index      knowledge.Index
	Healer     healing.Trigger
	Clock      app.Clock
}

//
// ==== USE CASES ====
//

// Command to trigger an analysis run
type TriggerAnalysisCommand struct {
	TenantID string
	Target   string
}

type TriggerAnalysisResult struct {
	ID             string                `json:"id"`
	Status         string                `json:"status"`
	RiskScore      int                   `json:"risk_score"`
	RiskLevel      string                `json:"risk_level"`
	Counts         domain.SeverityCounts `json:"counts"`
	ReportURL      string                `json:"report_url,omitempty"`
	DurationMS     int64                 `json:"duration_ms"`
	HealingActions int                   `json:"healing_actions_triggered,omitempty"`
}

// Begin persists an in-flight run row and returns its id, so callers can
// answer with the id before the pipeline finishes.
func (s *Service) Begin(ctx context.Context, cmd TriggerAnalysisCommand) (domain.RunID, error) {
	now := s.Clock.Now()
	id := domain.RunID(fmt.Sprintf("%s-%s", uuid.New().String(), cmd.Target))
	run := domain.NewRun(id, cmd.TenantID, cmd.Target, now)
	if err := s.Repo.Save(ctx, run); err != nil {
		return id, err
	}
	return id, nil
}

// CompleteUntilDone finishes a begun run with context.Background(),
// suited to being called from the router's background goroutine.
func (s *Service) CompleteUntilDone(id domain.RunID, cmd TriggerAnalysisCommand) (TriggerAnalysisResult, error) {
	return s.Complete(context.Background(), id, cmd)
}

// Trigger runs the whole pipeline synchronously: Begin plus Complete.
func (s *Service) Trigger(ctx context.Context, cmd TriggerAnalysisCommand) (TriggerAnalysisResult, error) {
	id, err := s.Begin(ctx, cmd)
	if err != nil {
		return TriggerAnalysisResult{ID: string(id), Status: string(domain.StatusFailed)}, err
	}
	return s.Complete(ctx, id, cmd)
}

// Complete loads the target's artifacts, analyzes them, renders and uploads
// the report, then finalizes the run row. The post-completion steps
// (narrative, healing, knowledge sync) are best effort and never fail a run
// that already has a result.
func (s *Service) Complete(ctx context.Context, id domain.RunID, cmd TriggerAnalysisCommand) (TriggerAnalysisResult, error) {
	run, err := s.Repo.Get(ctx, cmd.TenantID, id)
	if err != nil {
		return TriggerAnalysisResult{ID: string(id), Status: string(domain.StatusFailed)}, err
	}

	ds, loadWarnings := s.Sources(cmd.Target).Load(ctx)
	res, err := domain.Analyze(ds, domain.RunParams{
		ID:          id,
		TenantID:    cmd.TenantID,
		Target:      cmd.Target,
		GeneratedAt: s.Clock.Now(),
	}, loadWarnings)
	if err != nil {
		run.Fail(err, s.Clock.Now())
		if serr := s.Repo.Save(context.Background(), run); serr != nil {
			log.Printf("save failed run: id=%s err=%v", id, serr)
		}
		s.recordError(cmd.TenantID, string(id), "analyze", "invariant_violation", err.Error())
		return TriggerAnalysisResult{ID: string(id), Status: string(domain.StatusFailed)}, err
	}

	text := s.narrate(ctx, cmd.TenantID, res)
	reportURL := s.uploadReport(ctx, cmd.TenantID, res, text)

	run.Complete(res, reportURL, s.Clock.Now())
	if err := s.Repo.Save(ctx, run); err != nil {
		return TriggerAnalysisResult{ID: string(id), Status: string(run.Status)}, err
	}

	s.recordWarnings(cmd.TenantID, res)

	healed := s.heal(ctx, res, text)
	s.syncKnowledge(ctx, ds, res)

	return TriggerAnalysisResult{
		ID:             string(run.ID),
		Status:         string(run.Status),
		RiskScore:      run.RiskScore,
		RiskLevel:      string(run.RiskLevel),
		Counts:         run.Counts,
		ReportURL:      run.ReportURL,
		DurationMS:     run.DurationMS,
		HealingActions: healed,
	}, nil
}

// uploadReport renders the comprehensive report to a temp file and ships it
// to object storage. Failures are recorded as run errors, not run failures.
func (s *Service) uploadReport(ctx context.Context, tenant string, res *domain.Result, narrativeText string) string {
	if s.Renderer == nil || s.Reports == nil {
		return ""
	}
	content, _, err := s.Renderer.Render(res, narrativeText, domain.FormatComprehensive)
	if err != nil {
		s.recordError(tenant, string(res.ID), "render", "render_failed", err.Error())
		return ""
	}

	tmp, err := os.CreateTemp("", "rca-report-*.md")
	if err != nil {
		s.recordError(tenant, string(res.ID), "render", "tempfile_failed", err.Error())
		return ""
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		s.recordError(tenant, string(res.ID), "render", "tempfile_failed", err.Error())
		return ""
	}
	tmp.Close()

	key := fmt.Sprintf("%s/%s/%s.md", tenant, res.TargetService, res.ID)
	url, err := s.Reports.UploadAndCleanup(ctx, tmp.Name(), key)
	if err != nil {
		os.Remove(tmp.Name())
		s.recordError(tenant, string(res.ID), "upload", "upload_failed", err.Error())
		return ""
	}
	return url
}

// recordWarnings persists the run's warning trail for later inspection.
func (s *Service) recordWarnings(tenant string, res *domain.Result) {
	for _, w := range res.Warnings {
		s.recordError(tenant, string(res.ID), w.Stage, w.Code, w.Message)
	}
}

func (s *Service) recordError(tenant, runID, stage, code, message string) {
	if s.RunErrors == nil {
		return
	}
	e := &runerrors.RunError{
		TenantID:  tenant,
		RunID:     runID,
		Stage:     stage,
		Code:      code,
		Message:   message,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.RunErrors.Save(context.Background(), e); err != nil {
		log.Printf("save run error: run=%s stage=%s err=%v", runID, stage, err)
	}
}

// narrate asks the AI for a root cause narrative and stores it. Returns the
// narrative text, or empty when the narrator is disabled or fails.
func (s *Service) narrate(ctx context.Context, tenant string, res *domain.Result) string {
	if s.Narrator == nil {
		return ""
	}
	text, err := s.Narrator.Narrate(ctx, res)
	if err != nil {
		log.Printf("narrative failed: run=%s err=%v", res.ID, err)
		s.recordError(tenant, string(res.ID), "narrate", "ai_failed", err.Error())
		return ""
	}
	if s.Narratives != nil {
		n := &narrative.Narrative{
			ID:        narrative.NarrativeID(uuid.New().String()),
			TenantID:  tenant,
			RunID:     string(res.ID),
			Model:     s.Narrator.Model(),
			Text:      text,
			CreatedAt: s.Clock.Now(),
		}
		if err := s.Narratives.Save(context.Background(), n); err != nil {
			log.Printf("save narrative: run=%s err=%v", res.ID, err)
		}
	}
	return text
}

// heal derives automated remediations from the result and triggers them,
// returning how many were attempted.
func (s *Service) heal(ctx context.Context, res *domain.Result, narrativeText string) int {
	if s.Healer == nil {
		return 0
	}
	actions := healing.DeriveActions(res, narrativeText)
	for _, a := range actions {
		exec, err := s.Healer.Execute(ctx, a)
		if err != nil {
			exec = healing.Execution{
				Action:     a,
				Status:     healing.ExecutionFailed,
				ExecutedAt: s.Clock.Now(),
				Error:      err.Error(),
			}
		}
		log.Printf("healing action: run=%s type=%s automation=%s status=%s",
			res.ID, a.Type, a.Automation, exec.Status)
	}
	return len(actions)
}

// syncKnowledge embeds the run's source artifacts into the vector index so
// later runs and operators can query them. Best effort.
func (s *Service) syncKnowledge(ctx context.Context, ds domain.SourceDataset, res *domain.Result) {
	if s.Embedder == nil || s.Index == nil {
		return
	}
	if err := s.Index.EnsureSchema(ctx); err != nil {
		log.Printf("knowledge schema: run=%s err=%v", res.ID, err)
		return
	}

	var chunks []knowledge.Chunk
	for _, doc := range ds.Policies {
		chunks = append(chunks, knowledge.ChunkDocument(doc.Name, "policies", doc.Content)...)
	}
	for _, doc := range ds.Logs {
		chunks = append(chunks, knowledge.ChunkDocument(doc.Name, "logs", doc.Content)...)
	}
	chunks = append(chunks, jsonChunks("cis_benchmark_report.json", ds.Benchmark)...)
	chunks = append(chunks, jsonChunks("trivy_vulnerability_report.json", ds.Vulnerabilities)...)
	chunks = append(chunks, jsonChunks("sbom_report.json", ds.SBOM)...)

	for _, c := range chunks {
		vec, err := s.Embedder.Embed(ctx, c.Content)
		if err != nil {
			log.Printf("knowledge embed: run=%s source=%s err=%v", res.ID, c.SourceFile, err)
			return
		}
		if err := s.Index.Upsert(ctx, c, vec); err != nil {
			log.Printf("knowledge upsert: run=%s source=%s err=%v", res.ID, c.SourceFile, err)
		}
	}
}

func jsonChunks(name string, doc any) []knowledge.Chunk {
	if doc == nil {
		return nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil
	}
	return knowledge.ChunkDocument(name, "security", string(data))
}

// Latest returns the N most recent runs
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Run, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}

// Get returns one run by id
func (s *Service) Get(ctx context.Context, tenant string, id domain.RunID) (*domain.Run, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// Paginate returns one page of runs with pagination metadata
func (s *Service) Paginate(ctx context.Context, tenant string, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	runs, err := s.Repo.Paginate(ctx, tenant, page, pageSize)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	total, err := s.Repo.Count(ctx, tenant)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	return domain.PaginatedResult{
		Data:       runs,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Report renders a stored run's result in the requested format.
func (s *Service) Report(ctx context.Context, tenant string, id domain.RunID, format domain.ReportFormat) ([]byte, string, error) {
	if s.Renderer == nil {
		return nil, "", fmt.Errorf("renderer not configured")
	}
	run, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return nil, "", err
	}
	if run.Result == nil {
		return nil, "", fmt.Errorf("%w: run %s (status %s)", domain.ErrNoResult, id, run.Status)
	}
	var narrativeText string
	if s.Narratives != nil {
		if n, err := s.Narratives.LatestByRun(ctx, tenant, string(id)); err == nil && n != nil {
			narrativeText = n.Text
		}
	}
	return s.Renderer.Render(run.Result, narrativeText, format)
}

// Errors lists the persisted error trail of one run
func (s *Service) Errors(ctx context.Context, tenant string, id domain.RunID, limit int) ([]*runerrors.RunError, error) {
	if s.RunErrors == nil {
		return nil, nil
	}
	return s.RunErrors.ListByRun(ctx, tenant, string(id), limit)
}

// Summary recaps run results over the last N days
func (s *Service) Summary(ctx context.Context, tenant string, sinceDays int) (map[string]any, error) {
	total, critical, high, medium, err := s.Repo.Summary(ctx, tenant, sinceDays)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"total_runs": total,
		"critical":   critical,
		"high":       high,
		"medium":     medium,
	}, nil
}

// Dashboard condenses recent runs into executive metrics. Every number is
// computed from stored runs; an empty history yields a healthy baseline.
func (s *Service) Dashboard(ctx context.Context, tenant string) (map[string]any, error) {
	runs, err := s.Repo.Latest(ctx, tenant, 30)
	if err != nil {
		return nil, err
	}

	dash := map[string]any{
		"summary": map[string]any{
			"overall_health_score": 100,
			"risk_score":           0,
			"risk_level":           string(domain.RiskLow),
		},
		"key_metrics": map[string]any{
			"critical_vulnerabilities": 0,
			"high_findings":            0,
			"findings_total":           0,
			"failed_runs":              0,
		},
		"trends": map[string]any{
			"risk_score_recent": []int{},
		},
		"top_risks": []string{},
	}
	if len(runs) == 0 {
		return dash, nil
	}

	latest := runs[0]
	health := 100 - latest.RiskScore
	if health < 0 {
		health = 0
	}

	failed := 0
	trend := make([]int, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Status == domain.StatusFailed {
			failed++
			continue
		}
		trend = append(trend, runs[i].RiskScore)
	}

	topRisks := []string{}
	if latest.Result != nil {
		factors := latest.Result.Risk.Factors
		if len(factors) > 3 {
			factors = factors[:3]
		}
		topRisks = append(topRisks, factors...)
	}

	dash["summary"] = map[string]any{
		"overall_health_score": health,
		"risk_score":           latest.RiskScore,
		"risk_level":           string(latest.RiskLevel),
	}
	dash["key_metrics"] = map[string]any{
		"critical_vulnerabilities": latest.Counts.Critical,
		"high_findings":            latest.Counts.High,
		"findings_total":           latest.Counts.Total,
		"failed_runs":              failed,
	}
	dash["trends"] = map[string]any{
		"risk_score_recent": trend,
	}
	dash["top_risks"] = topRisks
	return dash, nil
}
