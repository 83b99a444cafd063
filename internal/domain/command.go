package domain

import "encoding/json"

// RouteSelf is the route value meaning the concierge handled the command itself.
const RouteSelf = "self"

// OperatorCommand is an inbound chat message. It lives only for one routing pass.
type OperatorCommand struct {
	ChatID    string
	MessageID int64
	Text      string
}

// RouteDecision is the concierge classification of an operator command.
type RouteDecision struct {
	Route                string
	Action               string
	Response             string
	RequiresConfirmation bool
}

// ActivationAction drives the circuit breaker.
type ActivationAction string

const (
	ActionPause  ActivationAction = "pause"
	ActionResume ActivationAction = "resume"
	ActionNone   ActivationAction = "none"
)

// ActivationDecision is the cost agent's verdict plus the report sent to chat.
type ActivationDecision struct {
	Action          ActivationAction
	Message         string
	CostSummary     json.RawMessage
	AnomalyDetected bool
	AnomalyDetails  json.RawMessage
}

// RotationAdvice is the source-rotation agent's report.
type RotationAdvice struct {
	Recommendation string
	Message        string
	Analysis       json.RawMessage
	NewSources     json.RawMessage
}

// AgentRequest is the payload handed to a dispatched sub-agent.
type AgentRequest struct {
	OperatorCommand string
	ChatID          string
}
