package model

import "time"

type AuditActor struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	IP     string `json:"ip,omitempty"`
}

type AuditEntry struct {
	ID         int64      `json:"id"`
	Action     string     `json:"action"`
	OccurredAt time.Time  `json:"occurredAt"`
	Actor      AuditActor `json:"actor"`
	Status     string     `json:"status"`
	Resource   string     `json:"resource,omitempty"`
	Detail     any        `json:"detail,omitempty"`
	Error      string     `json:"error,omitempty"`
}

const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

type AuditQuery struct {
	Action  string
	ActorID string
	Status  string
	From    time.Time
	To      time.Time
	Page    int
	Limit   int
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
}
