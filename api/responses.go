package api

// CheckResponse is the response for a permission check.
type CheckResponse struct {
	Allowed      bool     `json:"allowed" description:"Whether the request is allowed"`
	Reason       string   `json:"reason,omitempty" description:"Human-readable reason"`
	Method       string   `json:"method" description:"Layer that decided the request"`
	Restrictions []string `json:"restrictions,omitempty" description:"Caveats on the authorization"`
	EvalTimeNs   int64    `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// BatchCheckResponse contains results for multiple checks.
type BatchCheckResponse struct {
	Results []CheckResponse `json:"results" description:"Check results in order"`
}

// ApplyTemplateResponse reports whether a template application took effect.
type ApplyTemplateResponse struct {
	Applied bool `json:"applied" description:"Whether the membership was updated"`
}

// UpgradeAllResponse reports how many memberships a lab-wide upgrade touched.
type UpgradeAllResponse struct {
	Updated int `json:"updated" description:"Number of memberships updated"`
}

// CountResponse carries a bare count for filtered count endpoints.
type CountResponse struct {
	Count int64 `json:"count" description:"Number of matching records"`
}

// PurgeAuditResponse reports how many audit entries were deleted.
type PurgeAuditResponse struct {
	Purged int64 `json:"purged" description:"Number of entries deleted"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
