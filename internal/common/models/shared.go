package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	RequestMetaKey ContextKey = "request_meta"
)

// Role is the single role tag carried by every principal.
type Role string

const (
	RoleVO Role = "VO" // Village Officer: submits crop targets
	RoleBO Role = "BO" // Block Officer: approves/rejects submissions
)

func (r Role) Valid() bool {
	return r == RoleVO || r == RoleBO
}

type AuditAction string

const (
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionSubmit  AuditAction = "SUBMIT"
	AuditActionApprove AuditAction = "APPROVE"
	AuditActionReject  AuditAction = "REJECT"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionLogin   AuditAction = "LOGIN"
	AuditActionLogout  AuditAction = "LOGOUT"
	AuditActionExport  AuditAction = "EXPORT"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

// RequestMeta carries the caller's transport context into audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	Endpoint  string
	Method    string
}

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	Password   string             `bson:"password" json:"-"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	FullName   string             `bson:"full_name" json:"full_name"`
	Role       Role               `bson:"role" json:"role"`
	District   string             `bson:"district,omitempty" json:"district,omitempty"`
	State      string             `bson:"state,omitempty" json:"state,omitempty"`
	Village    string             `bson:"village,omitempty" json:"village,omitempty"`
	Status     string             `bson:"status" json:"status"` // active, inactive, suspended
	LastLogin  *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	LoginCount int64              `bson:"login_count" json:"login_count"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
	Active     bool               `bson:"active" json:"active"`
}

// Log is the schema for application log lines persisted by the zap DB core.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	Caller       string    `bson:"caller" json:"caller"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
