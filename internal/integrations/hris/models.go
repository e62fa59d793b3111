package hris

import "siap/pkg/roles"

// Employee is one row of the HR directory feed.
type Employee struct {
	ExternalID string     `json:"external_id"`
	Username   string     `json:"username"`
	Fullname   string     `json:"fullname"`
	Email      *string    `json:"email"`
	Role       roles.Role `json:"role"`
	Active     bool       `json:"active"`
}

type FeedResponse struct {
	Employees []Employee `json:"employees"`
}

// SyncReport summarises one directory sync run.
type SyncReport struct {
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Deactivated int      `json:"deactivated"`
	Unchanged   int      `json:"unchanged"`
	Skipped     []string `json:"skipped,omitempty"`
}
