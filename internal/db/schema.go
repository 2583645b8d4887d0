package db

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Table qualifies a table name with schema. An empty schema leaves the
// name bare so the connection search_path decides.
func Table(schema, name string) string {
	if schema == "" {
		return name
	}
	return pq.QuoteIdentifier(schema) + "." + name
}

// CheckSchema fails when schema does not exist. The API never creates or
// migrates tables.
func CheckSchema(ctx context.Context, d *gorm.DB, schema string) error {
	var n int64
	err := d.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?`, schema).
		Scan(&n).Error
	if err != nil {
		return fmt.Errorf("failed to look up schema %s: %w", schema, err)
	}
	if n == 0 {
		return fmt.Errorf("schema %s does not exist", schema)
	}
	return nil
}
