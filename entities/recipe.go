package entities

type Recipe struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	AuthorID    int64  `gorm:"index" json:"author_id"`
	Name        string `gorm:"size:256" json:"name"`
	ImageURL    string `json:"image,omitempty"`
	Text        string `gorm:"type:text" json:"text"`
	CookingTime int    `json:"cooking_time"`

	Author *User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Tags   []*Tag              `gorm:"many2many:recipe_tags"`
	Lines  []*RecipeIngredient `gorm:"foreignKey:RecipeID"`
	Timestamp
}

// RecipeIngredient is one ingredient line of a recipe. Lines live and die
// with their recipe: updates replace the full set, deletes cascade.
type RecipeIngredient struct {
	ID           int64   `gorm:"primaryKey" json:"id"`
	RecipeID     int64   `gorm:"uniqueIndex:idx_recipe_ingredient_pair" json:"recipe_id"`
	IngredientID int64   `gorm:"uniqueIndex:idx_recipe_ingredient_pair" json:"ingredient_id"`
	Amount       float64 `json:"amount"`

	Recipe     *Recipe     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

type Favorite struct {
	ID       int64 `gorm:"primaryKey" json:"id"`
	UserID   int64 `gorm:"uniqueIndex:idx_favorite_pair" json:"user_id"`
	RecipeID int64 `gorm:"uniqueIndex:idx_favorite_pair" json:"recipe_id"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Timestamp
}

type ShoppingCartItem struct {
	ID       int64 `gorm:"primaryKey" json:"id"`
	UserID   int64 `gorm:"uniqueIndex:idx_shopping_cart_pair" json:"user_id"`
	RecipeID int64 `gorm:"uniqueIndex:idx_shopping_cart_pair" json:"recipe_id"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Timestamp
}
