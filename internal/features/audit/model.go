package audit

import (
	"time"

	"go-agri/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog is an immutable append-only record of who did what, when. The
// username is denormalized so history stays accurate if a user is renamed.
type AuditLog struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Username     string              `bson:"username,omitempty" json:"username,omitempty"`
	// ActorName is resolved from the users collection at read time,
	// never stored.
	ActorName    string              `bson:"-" json:"actor_name,omitempty"`
	Action       models.AuditAction  `bson:"action" json:"action"`
	ResourceType string              `bson:"resource_type" json:"resource_type"`
	ResourceID   string              `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	Description  string              `bson:"description,omitempty" json:"description,omitempty"`
	OldValues    map[string]any      `bson:"old_values,omitempty" json:"old_values,omitempty"`
	NewValues    map[string]any      `bson:"new_values,omitempty" json:"new_values,omitempty"`
	IPAddress    string              `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent    string              `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Timestamp    time.Time           `bson:"timestamp" json:"timestamp"`
}

// Entry is what callers hand to the audit service; actor and request
// context are filled in from the request context.
type Entry struct {
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	Description  string
	OldValues    map[string]any
	NewValues    map[string]any
}

// ActivityQuery filters the audit read paths.
type ActivityQuery struct {
	UserID       string
	Username     string
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
	Page         int64
	PageSize     int64
}

type UserActivity struct {
	Username string `bson:"_id" json:"username"`
	Count    int64  `bson:"count" json:"count"`
}

type HourBucket struct {
	Hour  int   `bson:"_id" json:"hour"`
	Count int64 `bson:"count" json:"count"`
}

type ActionCount struct {
	Action string `bson:"_id" json:"action"`
	Count  int64  `bson:"count" json:"count"`
}

type ResourceCount struct {
	ResourceType string `bson:"_id" json:"resource_type"`
	Count        int64  `bson:"count" json:"count"`
}

// ActivitySummary is the system-wide view over one time window.
type ActivitySummary struct {
	TimePeriod         string           `json:"time_period"`
	StartTime          time.Time        `json:"start_time"`
	EndTime            time.Time        `json:"end_time"`
	TotalActivities    int64            `json:"total_activities"`
	ActionBreakdown    map[string]int64 `json:"action_breakdown"`
	ResourceBreakdown  map[string]int64 `json:"resource_breakdown"`
	TopUsers           []UserActivity   `json:"top_users"`
	HourlyDistribution []HourBucket     `json:"hourly_distribution"`
}

// timeWindows are the supported summary periods.
var timeWindows = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}
