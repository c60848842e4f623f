package escalation

// cannedResponses are the deterministic fallbacks used when the senior
// handler cannot produce a structured response. Keyed by escalation reason.
var cannedResponses = map[Reason]string{
	ReasonUserFrustration:    "I understand this has been frustrating. I've escalated your case to our support team, and a specialist will follow up with you shortly.",
	ReasonManualRequest:      "I've passed your request to our support team. A team member will reach out to you directly.",
	ReasonCapabilityExceeded: "This request needs capabilities beyond what I can handle right now. Our support team has been notified and will pick this up.",
	ReasonPolicyViolation:    "This kind of request needs review by our team. I've created a case and our support team will be in touch.",
	ReasonTechnicalIssue:     "We've hit a technical issue on our side. Our support team has been notified and is looking into it.",
}

// FallbackResponse returns the canned reply for the given reason. Unknown
// reasons get the technical-issue reply so the user always receives an answer.
func FallbackResponse(reason Reason) string {
	if r, ok := cannedResponses[reason]; ok {
		return r
	}
	return cannedResponses[ReasonTechnicalIssue]
}
