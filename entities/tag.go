package entities

type Tag struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:32;uniqueIndex" json:"name"`
	Slug string `gorm:"size:32;uniqueIndex" json:"slug"`
}
