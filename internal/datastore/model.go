// model.go this code defines the data model for the application
package datastore

import "time"

// Monitored object status values.
const (
	StatusInactive   = "inactive"
	StatusActive     = "active"
	StatusMonitoring = "monitoring"
)

// User represents an account that owns monitored objects.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:80;uniqueIndex;not null"`
	Email        string `gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:120;not null"`
	CreatedAt    time.Time

	Objects       []MonitoredObject `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Notifications []Notification    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// MonitoredObject represents a camera or area under observation, owned by
// exactly one user.
type MonitoredObject struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"size:20;default:inactive"`
	UserID      uint   `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Deleting an object takes its audit trail with it.
	Logs       []MonitoringLog   `gorm:"foreignKey:ObjectID;constraint:OnDelete:CASCADE"`
	Detections []DetectionResult `gorm:"foreignKey:ObjectID;constraint:OnDelete:CASCADE"`
}

// MonitoringLog is an append-only audit record, one per detection run.
type MonitoringLog struct {
	ID        uint   `gorm:"primaryKey"`
	ObjectID  uint   `gorm:"index;not null"`
	EventType string `gorm:"size:50;not null"`
	Message   string `gorm:"type:text"`
	Timestamp time.Time `gorm:"index"`
}

// DetectionResult is one durable record per detected entity per pipeline run.
// Immutable after creation except for deletion.
type DetectionResult struct {
	ID            uint    `gorm:"primaryKey"`
	ObjectID      uint    `gorm:"index;not null"`
	DetectionType string  `gorm:"size:50;not null"`
	ObjectClass   string  `gorm:"size:100;not null"`
	Confidence    float64 `gorm:"not null"`
	BboxX         int
	BboxY         int
	BboxWidth     int
	BboxHeight    int
	DangerLevel   string `gorm:"size:20;not null;index"`
	ImagePath     string `gorm:"size:500"`
	CreatedAt     time.Time `gorm:"index"`
}

// Notification is created only for detection results whose danger level is
// not safe. Mutated only by the read-flag toggle.
type Notification struct {
	ID          uint  `gorm:"primaryKey"`
	UserID      uint  `gorm:"index;not null"`
	DetectionID *uint `gorm:"index"` // nullable reference to the triggering DetectionResult
	Title       string `gorm:"size:200;not null"`
	Message     string `gorm:"type:text;not null"`
	Type        string `gorm:"size:50;not null"`
	IsRead      bool   `gorm:"default:false"`
	CreatedAt   time.Time `gorm:"index"`
}

// DangerLevelCount is a danger-level histogram row for the stats queries.
type DangerLevelCount struct {
	DangerLevel string
	Count       int64
}

// ObjectClassCount is an object-class histogram row for the stats queries.
type ObjectClassCount struct {
	ObjectClass string
	Count       int64
}
