package services

import (
	"context"
	"sort"

	"samarth-chat/internal/models"
)

// Dataset supplies the figures questions are answered from.
type Dataset interface {
	Rainfall(ctx context.Context) (models.Rainfall, error)
	Crops(ctx context.Context) (models.CropProduction, error)
}

// SampleDataset is the built-in demo data used when no database is configured.
type SampleDataset struct{}

func (SampleDataset) Rainfall(ctx context.Context) (models.Rainfall, error) {
	return models.Rainfall{
		"Punjab":      {810, 760, 790},
		"Haryana":     {620, 580, 600},
		"Maharashtra": {890, 910, 870},
	}, nil
}

func (SampleDataset) Crops(ctx context.Context) (models.CropProduction, error) {
	return models.CropProduction{
		"Punjab":      {"Wheat": 16000, "Rice": 14000},
		"Haryana":     {"Wheat": 12000, "Rice": 8000},
		"Maharashtra": {"Sugarcane": 22000, "Cotton": 11000},
	}, nil
}

// topCrops ranks a state's crops by production, largest first, ties by name.
func topCrops(crops map[string]int64, m int) []models.CropTotal {
	ranked := make([]models.CropTotal, 0, len(crops))
	for crop, tonnes := range crops {
		ranked = append(ranked, models.CropTotal{Crop: crop, Tonnes: tonnes})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Tonnes != ranked[j].Tonnes {
			return ranked[i].Tonnes > ranked[j].Tonnes
		}
		return ranked[i].Crop < ranked[j].Crop
	})
	if m >= 0 && len(ranked) > m {
		ranked = ranked[:m]
	}
	return ranked
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
