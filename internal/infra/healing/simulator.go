package healing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bryanwahyu/automaton-rca/internal/domain/healing"
)

// Simulator stands in for the real automation backends (GitLab CI, kubectl).
// It fabricates the responses those backends would return so the pipeline
// can run without cluster or CI access.
type Simulator struct {
	now func() time.Time
}

func NewSimulator() *Simulator { return &Simulator{now: time.Now} }

func (s *Simulator) Execute(_ context.Context, a healing.Action) (healing.Execution, error) {
	at := s.now()
	unix := at.Unix()

	var response map[string]string
	switch a.Automation {
	case healing.AutomationGitLabPipeline:
		response = map[string]string{
			"pipeline_id": fmt.Sprintf("auto_heal_%d", unix),
			"status":      "triggered",
			"url":         fmt.Sprintf("https://gitlab.example.com/pipelines/%d", unix),
		}
	case healing.AutomationKubectlApply:
		response = map[string]string{
			"command": fmt.Sprintf("kubectl apply -f %s", a.Target),
			"status":  "executed",
			"output":  "deployment updated successfully",
		}
	case healing.AutomationKubernetesHPA:
		response = map[string]string{
			"command": fmt.Sprintf("kubectl scale deployment %s", a.Target),
			"status":  "executed",
			"output":  "horizontal pod autoscaler updated",
		}
	default:
		return healing.Execution{}, fmt.Errorf("unknown automation %q", a.Automation)
	}

	log.Printf("healing simulated: automation=%s target=%s action=%q", a.Automation, a.Target, a.Action)
	return healing.Execution{
		Action:     a,
		Status:     healing.ExecutionTriggered,
		ExecutedAt: at,
		Response:   response,
	}, nil
}
