package healing

import "time"

// ActionType enum
type ActionType string

const (
	ActionKubernetesRestart ActionType = "kubernetes_restart"
	ActionImageUpdate       ActionType = "image_update"
	ActionPolicyUpdate      ActionType = "policy_update"
	ActionResourceScaling   ActionType = "resource_scaling"
)

// Automation enum selects the mechanism that carries out an action.
type Automation string

const (
	AutomationGitLabPipeline Automation = "gitlab_ci_pipeline"
	AutomationKubectlApply   Automation = "kubectl_apply"
	AutomationKubernetesHPA  Automation = "kubernetes_hpa"
)

// Action is one automated remediation derived from a finished run.
type Action struct {
	Type          ActionType `json:"type"`
	Target        string     `json:"target"`
	Action        string     `json:"action"`
	Priority      string     `json:"priority"`
	Automation    Automation `json:"automation"`
	EstimatedTime string     `json:"estimated_time"`
}

// Execution records the outcome of triggering one action.
type Execution struct {
	Action
	Status     string            `json:"execution_status"`
	ExecutedAt time.Time         `json:"execution_time"`
	Response   map[string]string `json:"pipeline_response,omitempty"`
	Error      string            `json:"error,omitempty"`
}

const (
	ExecutionTriggered = "triggered"
	ExecutionFailed    = "failed"
)
