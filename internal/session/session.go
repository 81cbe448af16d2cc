// Package session carries the per-request caller identity and active
// organization. It replaces the original client's process-wide auth store:
// every service call receives an explicit Session instead of reading ambient
// global state.
package session

import "github.com/google/uuid"

// Session identifies the caller for one request. OrgID is uuid.Nil when no
// organization is selected; reads then return empty results and writes fail
// validation, mirroring the "no tenant selected" state.
type Session struct {
	UserID uuid.UUID
	Email  string
	OrgID  uuid.UUID
	Role   string // organization role; empty when OrgID is unset
}

// HasOrg reports whether an active organization is selected.
func (s Session) HasOrg() bool {
	return s.OrgID != uuid.Nil
}
