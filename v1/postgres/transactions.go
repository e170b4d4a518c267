package postgres

import (
	"context"

	"gorm.io/gorm"
)

// Transaction executes fn within a database transaction on the current
// connection. If fn returns an error the transaction is rolled back,
// otherwise it is committed.
//
// Example usage:
//
//	err := pg.Transaction(ctx, func(tx *gorm.DB) error {
//		if err := tx.Exec("SET LOCAL hnsw.ef_search = 100").Error; err != nil {
//			return err
//		}
//		return tx.Raw(query, args...).Scan(&rows).Error
//	})
func (p *Postgres) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := p.DB()
	if db == nil {
		return ErrNotConnected
	}
	return db.WithContext(ctx).Transaction(fn)
}
