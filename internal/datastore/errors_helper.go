package datastore

import (
	"github.com/homewatch/homewatch-go/internal/errors"
	"gorm.io/gorm"
)

// dbError wraps a raw gorm error with component and category metadata.
// Record-not-found maps to the not-found category so HTTP handlers can
// translate it to a 404 without inspecting gorm internals.
func dbError(err error, operation string) error {
	category := errors.CategoryDatabase
	if errors.Is(err, gorm.ErrRecordNotFound) {
		category = errors.CategoryNotFound
	}
	return errors.New(err).
		Component("datastore").
		Category(category).
		Context("operation", operation).
		Build()
}
