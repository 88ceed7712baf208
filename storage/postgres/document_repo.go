package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/storage"
)

type documentRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDocumentRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDocumentStorage {
	return &documentRepo{db: db, log: log}
}

func (r *documentRepo) GetByDriver(ctx context.Context, driverID int64) ([]*models.DocumentRecord, error) {
	query := `SELECT driver_id, category, uploaded, doc_number, updated_at FROM driver_documents WHERE driver_id = $1`
	rows, err := r.db.Query(ctx, query, driverID)
	if err != nil {
		r.log.Error("failed to get driver documents", logger.Int64("driver_id", driverID), logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var records []*models.DocumentRecord
	for rows.Next() {
		var d models.DocumentRecord
		if err := rows.Scan(&d.DriverID, &d.Category, &d.Uploaded, &d.DocNumber, &d.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, &d)
	}
	return records, rows.Err()
}

// SyncUploaded makes the mirror match the backend: listed categories become
// uploaded, everything else for the driver is cleared.
func (r *documentRepo) SyncUploaded(ctx context.Context, driverID int64, categories []string) error {
	if categories == nil {
		categories = []string{}
	}
	batch := &pgx.Batch{}
	batch.Queue(`UPDATE driver_documents SET uploaded = FALSE, updated_at = NOW() WHERE driver_id = $1 AND NOT (category = ANY($2))`, driverID, categories)
	for _, c := range categories {
		batch.Queue(`
			INSERT INTO driver_documents (driver_id, category, uploaded)
			VALUES ($1, $2, TRUE)
			ON CONFLICT (driver_id, category) DO UPDATE
			SET uploaded = TRUE, updated_at = NOW()
		`, driverID, c)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		r.log.Error("failed to sync driver documents", logger.Int64("driver_id", driverID), logger.Error(err))
		return err
	}
	return nil
}

func (r *documentRepo) MarkUploaded(ctx context.Context, driverID int64, category, docNumber string) error {
	query := `
		INSERT INTO driver_documents (driver_id, category, uploaded, doc_number)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (driver_id, category) DO UPDATE
		SET uploaded = TRUE, doc_number = EXCLUDED.doc_number, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, driverID, category, docNumber)
	if err != nil {
		r.log.Error("failed to mark document uploaded", logger.Int64("driver_id", driverID), logger.String("category", category), logger.Error(err))
		return err
	}
	return nil
}
