package repository

import (
	"context"

	"samarth-chat/internal/models"
)

// DatasetRepo serves the rainfall and crop tables seeded by the migrations.
type DatasetRepo struct {
	db DBTX
}

func NewDatasetRepo(db DBTX) *DatasetRepo {
	return &DatasetRepo{db: db}
}

func (r *DatasetRepo) Rainfall(ctx context.Context) (models.Rainfall, error) {
	rows, err := r.db.Query(ctx,
		`SELECT state, millimetres FROM rainfall_readings ORDER BY state, year_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := models.Rainfall{}
	for rows.Next() {
		var state string
		var mm float64
		if err := rows.Scan(&state, &mm); err != nil {
			return nil, err
		}
		out[state] = append(out[state], mm)
	}
	return out, rows.Err()
}

func (r *DatasetRepo) Crops(ctx context.Context) (models.CropProduction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT state, crop, tonnes FROM crop_production ORDER BY state, crop`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := models.CropProduction{}
	for rows.Next() {
		var state, crop string
		var tonnes int64
		if err := rows.Scan(&state, &crop, &tonnes); err != nil {
			return nil, err
		}
		if out[state] == nil {
			out[state] = map[string]int64{}
		}
		out[state][crop] = tonnes
	}
	return out, rows.Err()
}
