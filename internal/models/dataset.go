package models

// Rainfall maps a state to its yearly rainfall readings in millimetres.
type Rainfall map[string][]float64

// CropProduction maps a state to tonnes produced per crop.
type CropProduction map[string]map[string]int64

// CropTotal is one crop and its production, used for ranked listings.
type CropTotal struct {
	Crop   string `json:"crop"`
	Tonnes int64  `json:"tonnes"`
}
