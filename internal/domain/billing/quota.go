package billing

// QuotaStatus represents the status of quota usage
type QuotaStatus string

const (
	// QuotaStatusOK indicates at least one more call is allowed
	QuotaStatusOK QuotaStatus = "OK"

	// QuotaStatusExceeded indicates usage has reached the limit
	QuotaStatusExceeded QuotaStatus = "EXCEEDED"
)

// String returns the string representation of QuotaStatus
func (s QuotaStatus) String() string {
	return string(s)
}

// Quota is a point-in-time view of a subscription's usage against its plan limit.
// Remaining is only meaningful when Unlimited is false.
type Quota struct {
	Usage        int64
	Limit        int64
	Remaining    int64
	Unlimited    bool
	Status       QuotaStatus
	UsagePercent float64
}

// NewQuota computes the quota view for a usage count and plan limit (0 = unlimited)
func NewQuota(usage, limit int64) Quota {
	q := Quota{
		Usage:  usage,
		Limit:  limit,
		Status: QuotaStatusOK,
	}

	if limit == 0 {
		q.Unlimited = true
		q.Remaining = -1
		return q
	}

	q.Remaining = limit - usage
	if q.Remaining <= 0 {
		q.Remaining = 0
		q.Status = QuotaStatusExceeded
	}
	q.UsagePercent = float64(usage) / float64(limit) * 100
	return q
}

// IsAllowed returns true if one more call fits within the quota
func (q Quota) IsAllowed() bool {
	return q.Status == QuotaStatusOK
}

// GetMessage returns a human-readable message about the quota status
func (q Quota) GetMessage() string {
	switch {
	case q.Unlimited:
		return "Usage is unlimited"
	case q.Status == QuotaStatusExceeded:
		return "Usage has reached the plan limit"
	default:
		return "Usage is within quota"
	}
}
