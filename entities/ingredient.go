package entities

type Ingredient struct {
	ID              int64  `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:128;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:64;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
}
