package models

// VerdictLabel is a classification outcome from the closed vocabulary.
type VerdictLabel string

const (
	VerdictSafe       VerdictLabel = "safe"
	VerdictHate       VerdictLabel = "hate"
	VerdictHarassment VerdictLabel = "harassment"
	VerdictSexual     VerdictLabel = "sexual"
	VerdictViolence   VerdictLabel = "violence"

	// VerdictPending marks an unresolved classification; Reason says why.
	VerdictPending VerdictLabel = "pending"
)

// PendingReason explains why a verdict is still pending.
type PendingReason string

const (
	ReasonRateLimited     PendingReason = "rate_limited"
	ReasonRateLimit429    PendingReason = "rate_limit_429"
	ReasonQuotaExceeded   PendingReason = "quota_exceeded"
	ReasonInvalidResponse PendingReason = "invalid_response"
	ReasonParseError      PendingReason = "parse_error"
	ReasonTimeout         PendingReason = "timeout"
	ReasonAPIError        PendingReason = "api_error"
)

// Verdict is the outcome of classifying one text blob.
type Verdict struct {
	Label      VerdictLabel  `json:"label"`
	Reason     PendingReason `json:"reason,omitempty"`
	Confidence float64       `json:"confidence"`
	Cached     bool          `json:"cached,omitempty"`
}

// Pending reports whether the verdict is unresolved.
func (v Verdict) Pending() bool {
	return v.Label == VerdictPending
}

// Abusive reports whether the verdict carries an abuse label.
func (v Verdict) Abusive() bool {
	return v.Label != VerdictSafe && v.Label != VerdictPending
}

// PendingVerdict builds an unresolved verdict with the given reason.
func PendingVerdict(reason PendingReason) Verdict {
	return Verdict{Label: VerdictPending, Reason: reason}
}

// ValidVerdictLabel reports whether the upstream label belongs to the
// closed five-label vocabulary. "pending" is not a valid upstream label.
func ValidVerdictLabel(label string) bool {
	switch VerdictLabel(label) {
	case VerdictSafe, VerdictHate, VerdictHarassment, VerdictSexual, VerdictViolence:
		return true
	}
	return false
}
