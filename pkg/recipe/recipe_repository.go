package recipe

import (
	"context"

	"gorm.io/gorm"

	"github.com/Zimnyaja/foodgram/domain"
	"github.com/Zimnyaja/foodgram/entities"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, tagIDs []int64, lines []entities.RecipeIngredient) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tagIDs []int64, lines []entities.RecipeIngredient) error
		DeleteRecipe(ctx context.Context, id int64) error
		GetRecipeByID(ctx context.Context, id int64) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error)

		GetFavoritedSet(ctx context.Context, userID int64, recipeIDs []int64) (map[int64]bool, error)
		GetShoppingCartSet(ctx context.Context, userID int64, recipeIDs []int64) (map[int64]bool, error)

		IsFavorited(ctx context.Context, userID, recipeID int64) (bool, error)
		AddFavorite(ctx context.Context, userID, recipeID int64) error
		RemoveFavorite(ctx context.Context, userID, recipeID int64) error

		IsInShoppingCart(ctx context.Context, userID, recipeID int64) (bool, error)
		AddShoppingCartItem(ctx context.Context, userID, recipeID int64) error
		RemoveShoppingCartItem(ctx context.Context, userID, recipeID int64) error

		GetShoppingListItems(ctx context.Context, userID int64) ([]domain.ShoppingListItem, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipe persists the recipe row, its tag associations and its
// ingredient lines as one transaction.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, tagIDs []int64, lines []entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, recipe, tagIDs); err != nil {
			return err
		}
		return insertLines(tx, recipe.ID, lines)
	})
}

// UpdateRecipe replaces the tag set and the full ingredient-line set along
// with the recipe row. A failure anywhere rolls back everything, so old
// tags are never left next to new lines.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tagIDs []int64, lines []entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(recipe).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, recipe, tagIDs); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return insertLines(tx, recipe.ID, lines)
	})
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.ShoppingCartItem{}).Error; err != nil {
			return err
		}
		recipe := entities.Recipe{ID: id}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
}

func replaceTags(tx *gorm.DB, recipe *entities.Recipe, tagIDs []int64) error {
	tags := make([]*entities.Tag, 0, len(tagIDs))
	for _, id := range tagIDs {
		tags = append(tags, &entities.Tag{ID: id})
	}
	return tx.Model(recipe).Association("Tags").Replace(tags)
}

func insertLines(tx *gorm.DB, recipeID int64, lines []entities.RecipeIngredient) error {
	for i := range lines {
		lines[i].ID = 0
		lines[i].RecipeID = recipeID
	}
	return tx.Create(&lines).Error
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id int64) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Lines.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	base := r.db.WithContext(ctx).Model(&entities.Recipe{})

	if len(filter.Tags) > 0 {
		base = base.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.Tags).
			Distinct("recipes.*")
	}
	if filter.AuthorID != 0 {
		base = base.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if filter.ViewerID != 0 {
		if filter.IsFavorited {
			base = base.
				Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
				Where("favorites.user_id = ?", filter.ViewerID)
		}
		if filter.IsInShoppingCart {
			base = base.
				Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipes.id").
				Where("shopping_cart_items.user_id = ?", filter.ViewerID)
		}
	}

	if err := base.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := base.
		Preload("Author").
		Preload("Tags").
		Preload("Lines.Ingredient").
		Order("recipes.created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

// GetFavoritedSet answers is_favorited for a whole page of recipes with a
// single membership query.
func (r *recipeRepository) GetFavoritedSet(ctx context.Context, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	return r.membershipSet(ctx, &entities.Favorite{}, userID, recipeIDs)
}

func (r *recipeRepository) GetShoppingCartSet(ctx context.Context, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	return r.membershipSet(ctx, &entities.ShoppingCartItem{}, userID, recipeIDs)
}

func (r *recipeRepository) membershipSet(ctx context.Context, model any, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	set := make(map[int64]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return set, nil
	}

	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	return r.db.WithContext(ctx).Create(&entities.Favorite{
		UserID:   userID,
		RecipeID: recipeID,
	}).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	tx := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepository) IsInShoppingCart(ctx context.Context, userID, recipeID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingCartItem{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddShoppingCartItem(ctx context.Context, userID, recipeID int64) error {
	return r.db.WithContext(ctx).Create(&entities.ShoppingCartItem{
		UserID:   userID,
		RecipeID: recipeID,
	}).Error
}

func (r *recipeRepository) RemoveShoppingCartItem(ctx context.Context, userID, recipeID int64) error {
	tx := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.ShoppingCartItem{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetShoppingListItems aggregates every ingredient line of every recipe in
// the user's shopping cart, summed per (name, measurement unit) pair.
func (r *recipeRepository) GetShoppingListItems(ctx context.Context, userID int64) ([]domain.ShoppingListItem, error) {
	var items []domain.ShoppingListItem
	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
