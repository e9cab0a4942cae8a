package healing

import (
	"strings"

	"github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
)

// DeriveActions maps a finished result to automated remediations, one action
// per matched rule, in fixed rule order. The narrative is the AI summary for
// the run and may be empty; only the resource scaling rule reads it, since
// resource pressure never surfaces as a structured finding.
func DeriveActions(res *analysis.Result, narrative string) []Action {
	if res == nil {
		return nil
	}
	var actions []Action

	if hasKind(res.Findings.ApplicationErrors, analysis.KindPodFailure) {
		actions = append(actions, Action{
			Type:          ActionKubernetesRestart,
			Target:        res.TargetService,
			Action:        "Restart failed pods",
			Priority:      "HIGH",
			Automation:    AutomationGitLabPipeline,
			EstimatedTime: "5 minutes",
		})
	}

	if len(res.Findings.Vulnerabilities) > 0 {
		actions = append(actions, Action{
			Type:          ActionImageUpdate,
			Target:        res.TargetService,
			Action:        "Trigger security patch deployment",
			Priority:      "CRITICAL",
			Automation:    AutomationGitLabPipeline,
			EstimatedTime: "30 minutes",
		})
	}

	if hasKind(res.Findings.Misconfigurations, analysis.KindNetworkPolicy) {
		actions = append(actions, Action{
			Type:          ActionPolicyUpdate,
			Target:        "network_policies",
			Action:        "Update and redeploy network policies",
			Priority:      "MEDIUM",
			Automation:    AutomationKubectlApply,
			EstimatedTime: "10 minutes",
		})
	}

	if mentionsResourcePressure(narrative) {
		actions = append(actions, Action{
			Type:          ActionResourceScaling,
			Target:        res.TargetService,
			Action:        "Auto-scale resources based on usage patterns",
			Priority:      "MEDIUM",
			Automation:    AutomationKubernetesHPA,
			EstimatedTime: "2 minutes",
		})
	}

	return actions
}

func hasKind(list []analysis.Finding, kind string) bool {
	for _, f := range list {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

func mentionsResourcePressure(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "resource limit") ||
		strings.Contains(t, "memory") ||
		strings.Contains(t, "cpu")
}
