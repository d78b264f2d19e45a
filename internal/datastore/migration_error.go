package datastore

import (
	"github.com/homewatch/homewatch-go/internal/errors"
)

func newMigrationError(dbType string, err error) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Priority(errors.PriorityCritical).
		Context("operation", "auto-migration").
		Context("db_type", dbType).
		Build()
}
