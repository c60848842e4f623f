package escalation

import (
	"regexp"
	"strings"

	"github.com/saintvisionai/platform/internal/domain/agent"
)

// Ordered escalation triggers. First match wins, so the order here is part of
// the contract: frustration, then explicit requests, then capability, then
// the complex/advanced bucket.
var (
	frustrationRex = regexp.MustCompile(`(?i)\b(frustrated|angry|upset|annoyed|fed up|ridiculous|terrible|awful|useless|worst|hate this)\b`)
	manualRex      = regexp.MustCompile(`(?i)(speak|talk) to (a |an |the )?(manager|human|person|supervisor|agent)|\b(escalate|real person|customer service)\b`)
	capabilityRex  = regexp.MustCompile(`(?i)can'?t do|cannot do|doesn'?t work|not working|\b(broken|error|failed|impossible)\b`)
	// Triggered by complex/advanced wording. The reason code stays
	// policy_violation for parity with historical records, even though the
	// wording reads like capability_exceeded.
	complexRex = regexp.MustCompile(`(?i)\b(complex|complicated|advanced)\b|custom integration|enterprise solution`)
)

// Length fallback thresholds: very long messages escalate even without a
// trigger phrase.
const (
	maxMessageChars = 1000
	maxMessageWords = 200
)

// Decision is the outcome of ShouldEscalate.
type Decision struct {
	Escalate bool   `json:"escalate"`
	Reason   Reason `json:"reason,omitempty"`
}

// ShouldEscalate decides whether an inbound message bypasses the agent and
// goes to the senior handler. Pure and deterministic; no I/O.
func ShouldEscalate(message string) Decision {
	switch {
	case frustrationRex.MatchString(message):
		return Decision{Escalate: true, Reason: ReasonUserFrustration}
	case manualRex.MatchString(message):
		return Decision{Escalate: true, Reason: ReasonManualRequest}
	case capabilityRex.MatchString(message):
		return Decision{Escalate: true, Reason: ReasonCapabilityExceeded}
	case complexRex.MatchString(message):
		return Decision{Escalate: true, Reason: ReasonPolicyViolation}
	case len(message) > maxMessageChars || wordCount(message) > maxMessageWords:
		return Decision{Escalate: true, Reason: ReasonCapabilityExceeded}
	default:
		return Decision{}
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// Keyword classes used by the dual-model routing table.
var (
	documentRex     = regexp.MustCompile(`(?i)\b(document|contract|agreement|clause|pdf|file|paperwork)\b`)
	creativeRex     = regexp.MustCompile(`(?i)\b(write|draft|compose|create|brainstorm|imagine|story|idea)\b`)
	conversationRex = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|thanks|thank you|how are)\b`)
	cognitiveRex    = regexp.MustCompile(`(?i)\b(ocr|scan|image|photo|picture|speech|audio|transcribe|vision)\b`)
)

// RouteResult selects which underlying model answers and whether the
// secondary participates.
type RouteResult struct {
	Primary      string `json:"primary"`
	UseSecondary bool   `json:"use_secondary"`
	Reason       string `json:"reason"`
}

// RouteDualModel picks the model pairing for a dual-bot agent. First match
// wins, mirroring the decision table the routing descriptor was built for.
func RouteDualModel(message, skillset string) RouteResult {
	switch {
	case strings.EqualFold(skillset, "legal") && documentRex.MatchString(message):
		return RouteResult{Primary: agent.ModelAzureCognitive, UseSecondary: true, Reason: "legal document analysis"}
	case creativeRex.MatchString(message) || conversationRex.MatchString(message):
		return RouteResult{Primary: agent.ModelGPT, UseSecondary: false, Reason: "creative or conversational"}
	case cognitiveRex.MatchString(message):
		return RouteResult{Primary: agent.ModelAzureCognitive, UseSecondary: true, Reason: "cognitive processing"}
	default:
		return RouteResult{Primary: agent.ModelGPT, UseSecondary: true, Reason: "default dual routing"}
	}
}

// FusionScore is the advisory consensus metric shown alongside dual-model
// answers. It averages the two confidences and penalises disagreement,
// clamped to [0,1]. Display-only; never used for control flow.
func FusionScore(confidenceA, confidenceB float64) float64 {
	diff := confidenceA - confidenceB
	if diff < 0 {
		diff = -diff
	}
	score := (confidenceA+confidenceB)/2 - 0.3*diff
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Consensus reports whether a fusion score counts as model agreement.
func Consensus(score float64) bool {
	return score > 0.7
}
