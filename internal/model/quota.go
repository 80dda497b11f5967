// internal/model/quota.go
package model

// ResourceColdEmails is the quota resource class for billable cold sends.
const ResourceColdEmails = "cold_emails"

// Quota is the per-account counter for a resource class. Used only grows,
// and only at confirmed send success.
type Quota struct {
	AccountID int    `db:"account_id" json:"account_id"`
	Resource  string `db:"resource" json:"resource"`
	Used      int    `db:"used" json:"used"`
	Limit     int    `db:"limit" json:"limit"`
}

// Available returns the remaining allowance.
func (q Quota) Available() int {
	if q.Limit < q.Used {
		return 0
	}
	return q.Limit - q.Used
}
