// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"time"

	"github.com/homewatch/homewatch-go/internal/conf"
	"github.com/homewatch/homewatch-go/internal/errors"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// operations available to the rest of the application.
type Interface interface {
	Open() error
	Close() error

	// Detection pipeline
	SaveDetectionRun(run *DetectionRun) error

	// Users
	CreateUser(user *User) error
	GetUser(id uint) (User, error)
	GetUserByUsername(username string) (User, error)
	GetUserByEmail(email string) (User, error)

	// Monitored objects
	CreateObject(object *MonitoredObject) error
	GetObject(id, userID uint) (MonitoredObject, error)
	GetObjectsByUser(userID uint) ([]MonitoredObject, error)
	UpdateObject(object *MonitoredObject) error
	UpdateObjectStatus(id, userID uint, status string) error
	DeleteObject(id, userID uint) error

	// Monitoring logs
	CreateLog(entry *MonitoringLog) error
	GetLogs(objectID uint, limit int) ([]MonitoringLog, error)

	// Detection results
	GetDetections(objectID uint, limit int) ([]DetectionResult, error)
	GetDetection(objectID, detectionID uint) (DetectionResult, error)
	GetDangerLevelStats(objectID uint) ([]DangerLevelCount, error)
	GetObjectClassStats(objectID uint) ([]ObjectClassCount, error)
	CountDetectionsSince(objectID uint, since time.Time) (int64, error)
	CountDetections(objectID uint) (int64, error)

	// Notifications
	GetNotificationsByUser(userID uint) ([]Notification, error)
	GetNotification(id, userID uint) (Notification, error)
	MarkNotificationRead(id, userID uint) (Notification, error)
	DeleteNotification(id, userID uint) error
	CountUnreadNotifications(userID uint) (int64, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// DetectionRun bundles everything one pipeline run persists: exactly one
// monitoring log, zero or more detection results, and zero or one
// notification per result. SaveDetectionRun writes it atomically.
type DetectionRun struct {
	Log     MonitoringLog
	Entries []DetectionRunEntry
}

// DetectionRunEntry pairs a detection result with its notification.
// Notification is nil for results that did not cross the danger threshold.
type DetectionRunEntry struct {
	Result       DetectionResult
	Notification *Notification
}

// SaveDetectionRun stores a detection run as a single transaction. Either
// every row in the run becomes visible or none do. Notification rows are
// linked to their detection result ids generated within the transaction.
func (ds *DataStore) SaveDetectionRun(run *DetectionRun) error {
	if run == nil {
		return errors.ValidationError("detection run must not be nil")
	}

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run.Log).Error; err != nil {
			return fmt.Errorf("saving monitoring log: %w", err)
		}

		for i := range run.Entries {
			entry := &run.Entries[i]
			if err := tx.Create(&entry.Result).Error; err != nil {
				return fmt.Errorf("saving detection result: %w", err)
			}
			if entry.Notification != nil {
				// Result id is populated by the create above.
				entry.Notification.DetectionID = &entry.Result.ID
				if err := tx.Create(entry.Notification).Error; err != nil {
					return fmt.Errorf("saving notification: %w", err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Priority(errors.PriorityHigh).
			Context("object_id", run.Log.ObjectID).
			Context("entries", len(run.Entries)).
			Build()
	}
	return nil
}

// --- Users ---

// CreateUser stores a new user account.
func (ds *DataStore) CreateUser(user *User) error {
	if err := ds.DB.Create(user).Error; err != nil {
		return dbError(err, "create user")
	}
	return nil
}

// GetUser retrieves a user by id.
func (ds *DataStore) GetUser(id uint) (User, error) {
	var user User
	if err := ds.DB.First(&user, id).Error; err != nil {
		return User{}, dbError(err, "get user")
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (ds *DataStore) GetUserByUsername(username string) (User, error) {
	var user User
	if err := ds.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return User{}, dbError(err, "get user by username")
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address.
func (ds *DataStore) GetUserByEmail(email string) (User, error) {
	var user User
	if err := ds.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return User{}, dbError(err, "get user by email")
	}
	return user, nil
}

// --- Monitored objects ---

// CreateObject stores a new monitored object.
func (ds *DataStore) CreateObject(object *MonitoredObject) error {
	if err := ds.DB.Create(object).Error; err != nil {
		return dbError(err, "create object")
	}
	return nil
}

// GetObject retrieves one object scoped to its owning user.
func (ds *DataStore) GetObject(id, userID uint) (MonitoredObject, error) {
	var object MonitoredObject
	err := ds.DB.Where("id = ? AND user_id = ?", id, userID).First(&object).Error
	if err != nil {
		return MonitoredObject{}, dbError(err, "get object")
	}
	return object, nil
}

// GetObjectsByUser retrieves all objects owned by a user, newest first.
func (ds *DataStore) GetObjectsByUser(userID uint) ([]MonitoredObject, error) {
	var objects []MonitoredObject
	err := ds.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&objects).Error
	if err != nil {
		return nil, dbError(err, "list objects")
	}
	return objects, nil
}

// UpdateObject persists changed fields of an object.
func (ds *DataStore) UpdateObject(object *MonitoredObject) error {
	if err := ds.DB.Save(object).Error; err != nil {
		return dbError(err, "update object")
	}
	return nil
}

// UpdateObjectStatus toggles the status field of an owned object.
func (ds *DataStore) UpdateObjectStatus(id, userID uint, status string) error {
	result := ds.DB.Model(&MonitoredObject{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", status)
	if result.Error != nil {
		return dbError(result.Error, "update object status")
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundError("monitored object", id)
	}
	return nil
}

// DeleteObject removes an object and, via a transaction, its logs and
// detection results.
func (ds *DataStore) DeleteObject(id, userID uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var object MonitoredObject
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&object).Error; err != nil {
			return dbError(err, "delete object")
		}
		if err := tx.Where("object_id = ?", id).Delete(&MonitoringLog{}).Error; err != nil {
			return fmt.Errorf("deleting logs for object %d: %w", id, err)
		}
		if err := tx.Where("object_id = ?", id).Delete(&DetectionResult{}).Error; err != nil {
			return fmt.Errorf("deleting detections for object %d: %w", id, err)
		}
		if err := tx.Delete(&object).Error; err != nil {
			return fmt.Errorf("deleting object %d: %w", id, err)
		}
		return nil
	})
}

// --- Monitoring logs ---

// CreateLog appends a monitoring log entry.
func (ds *DataStore) CreateLog(entry *MonitoringLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := ds.DB.Create(entry).Error; err != nil {
		return dbError(err, "create log")
	}
	return nil
}

// GetLogs retrieves monitoring logs for an object, newest first.
func (ds *DataStore) GetLogs(objectID uint, limit int) ([]MonitoringLog, error) {
	var logs []MonitoringLog
	query := ds.DB.Where("object_id = ?", objectID).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, dbError(err, "list logs")
	}
	return logs, nil
}

// --- Detection results ---

// GetDetections retrieves detection results for an object, newest first.
func (ds *DataStore) GetDetections(objectID uint, limit int) ([]DetectionResult, error) {
	var detections []DetectionResult
	query := ds.DB.Where("object_id = ?", objectID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&detections).Error; err != nil {
		return nil, dbError(err, "list detections")
	}
	return detections, nil
}

// GetDetection retrieves a single detection result scoped to its object.
func (ds *DataStore) GetDetection(objectID, detectionID uint) (DetectionResult, error) {
	var detection DetectionResult
	err := ds.DB.Where("id = ? AND object_id = ?", detectionID, objectID).
		First(&detection).Error
	if err != nil {
		return DetectionResult{}, dbError(err, "get detection")
	}
	return detection, nil
}

// GetDangerLevelStats returns detection counts grouped by danger level.
func (ds *DataStore) GetDangerLevelStats(objectID uint) ([]DangerLevelCount, error) {
	var stats []DangerLevelCount
	err := ds.DB.Model(&DetectionResult{}).
		Select("danger_level, COUNT(*) as count").
		Where("object_id = ?", objectID).
		Group("danger_level").
		Scan(&stats).Error
	if err != nil {
		return nil, dbError(err, "danger level stats")
	}
	return stats, nil
}

// GetObjectClassStats returns detection counts grouped by detected class.
func (ds *DataStore) GetObjectClassStats(objectID uint) ([]ObjectClassCount, error) {
	var stats []ObjectClassCount
	err := ds.DB.Model(&DetectionResult{}).
		Select("object_class, COUNT(*) as count").
		Where("object_id = ?", objectID).
		Group("object_class").
		Scan(&stats).Error
	if err != nil {
		return nil, dbError(err, "object class stats")
	}
	return stats, nil
}

// CountDetectionsSince counts detections for an object created at or after
// the given time.
func (ds *DataStore) CountDetectionsSince(objectID uint, since time.Time) (int64, error) {
	var count int64
	err := ds.DB.Model(&DetectionResult{}).
		Where("object_id = ? AND created_at >= ?", objectID, since).
		Count(&count).Error
	if err != nil {
		return 0, dbError(err, "count detections since")
	}
	return count, nil
}

// CountDetections counts all detections for an object.
func (ds *DataStore) CountDetections(objectID uint) (int64, error) {
	var count int64
	err := ds.DB.Model(&DetectionResult{}).
		Where("object_id = ?", objectID).
		Count(&count).Error
	if err != nil {
		return 0, dbError(err, "count detections")
	}
	return count, nil
}

// --- Notifications ---

// GetNotificationsByUser retrieves all notifications for a user, newest first.
func (ds *DataStore) GetNotificationsByUser(userID uint) ([]Notification, error) {
	var notifications []Notification
	err := ds.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, dbError(err, "list notifications")
	}
	return notifications, nil
}

// GetNotification retrieves a single notification scoped to its user.
func (ds *DataStore) GetNotification(id, userID uint) (Notification, error) {
	var notification Notification
	err := ds.DB.Where("id = ? AND user_id = ?", id, userID).
		First(&notification).Error
	if err != nil {
		return Notification{}, dbError(err, "get notification")
	}
	return notification, nil
}

// MarkNotificationRead sets the read flag and returns the updated row.
func (ds *DataStore) MarkNotificationRead(id, userID uint) (Notification, error) {
	result := ds.DB.Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return Notification{}, dbError(result.Error, "mark notification read")
	}
	if result.RowsAffected == 0 {
		return Notification{}, errors.NotFoundError("notification", id)
	}
	return ds.GetNotification(id, userID)
}

// DeleteNotification removes a notification owned by the user.
func (ds *DataStore) DeleteNotification(id, userID uint) error {
	result := ds.DB.Where("id = ? AND user_id = ?", id, userID).
		Delete(&Notification{})
	if result.Error != nil {
		return dbError(result.Error, "delete notification")
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundError("notification", id)
	}
	return nil
}

// CountUnreadNotifications counts unread notifications for a user.
func (ds *DataStore) CountUnreadNotifications(userID uint) (int64, error) {
	var count int64
	err := ds.DB.Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, dbError(err, "count unread notifications")
	}
	return count, nil
}
