package domain

import (
	"errors"
)

var (
	MessageSuccessGetRecipes        = "success get recipes"
	MessageSuccessGetRecipeDetail   = "success get recipe detail"
	MessageSuccessCreateRecipe      = "recipe created successfully"
	MessageSuccessUpdateRecipe      = "recipe updated successfully"
	MessageSuccessDeleteRecipe      = "recipe deleted successfully"
	MessageSuccessGetShortLink      = "success get short link"
	MessageSuccessFavorite          = "recipe added to favorites"
	MessageSuccessUnfavorite        = "recipe removed from favorites"
	MessageSuccessAddToShoppingCart = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart    = "recipe removed from shopping cart"
	MessageSuccessDownloadShopping  = "shopping list generated"

	MessageFailedGetRecipes        = "failed to get recipes"
	MessageFailedGetRecipeDetail   = "failed to get recipe detail"
	MessageFailedCreateRecipe      = "failed to create recipe"
	MessageFailedUpdateRecipe      = "failed to update recipe"
	MessageFailedDeleteRecipe      = "failed to delete recipe"
	MessageFailedGetShortLink      = "failed to get short link"
	MessageFailedFavorite          = "failed to add recipe to favorites"
	MessageFailedUnfavorite        = "failed to remove recipe from favorites"
	MessageFailedAddToShoppingCart = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart    = "failed to remove recipe from shopping cart"
	MessageFailedDownloadShopping  = "failed to generate shopping list"

	ErrRecipeNotFound        = errors.New("recipe not found")
	ErrNotRecipeAuthor       = errors.New("only the author can modify this recipe")
	ErrNoTags                = errors.New("tags: at least one tag is required")
	ErrDuplicateTag          = errors.New("tags: tags must be unique")
	ErrNoIngredients         = errors.New("ingredients: at least one ingredient is required")
	ErrDuplicateIngredient   = errors.New("ingredients: ingredients must be unique")
	ErrInvalidAmount         = errors.New("ingredients: amount must be greater than zero")
	ErrCookingTimeTooShort   = errors.New("cooking_time: below the configured minimum")
	ErrAlreadyFavorited      = errors.New("recipe already in favorites")
	ErrNotFavorited          = errors.New("recipe is not in favorites")
	ErrAlreadyInShoppingCart = errors.New("recipe already in shopping cart")
	ErrNotInShoppingCart     = errors.New("recipe is not in shopping cart")
	ErrShoppingCartEmpty     = errors.New("shopping cart is empty")
	ErrInvalidShortLink      = errors.New("invalid short link")
	ErrFiltersRequireAuth    = errors.New("is_favorited and is_in_shopping_cart require authentication")
)

type (
	IngredientAmountRequest struct {
		ID     int64   `json:"id" validate:"required"`
		Amount float64 `json:"amount" validate:"required,gt=0"`
	}

	CreateRecipeRequest struct {
		Tags        []int64                   `json:"tags" validate:"required,min=1"`
		Ingredients []IngredientAmountRequest `json:"ingredients" validate:"required,min=1,dive"`
		Name        string                    `json:"name" validate:"required,max=256"`
		Image       string                    `json:"image" validate:"required"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time" validate:"required"`
	}

	// UpdateRecipeRequest carries the same shape as create: tag and
	// ingredient sets are always replaced in full, never merged.
	UpdateRecipeRequest struct {
		Tags        []int64                   `json:"tags" validate:"required,min=1"`
		Ingredients []IngredientAmountRequest `json:"ingredients" validate:"required,min=1,dive"`
		Name        string                    `json:"name" validate:"required,max=256"`
		Image       string                    `json:"image" validate:"omitempty"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time" validate:"required"`
	}

	RecipeIngredientResponse struct {
		ID              int64   `json:"id"`
		Name            string  `json:"name"`
		MeasurementUnit string  `json:"measurement_unit"`
		Amount          float64 `json:"amount"`
	}

	RecipeResponse struct {
		ID               int64                      `json:"id"`
		Tags             []TagResponse              `json:"tags"`
		Author           UserResponse               `json:"author"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
		Name             string                     `json:"name"`
		Image            string                     `json:"image"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
	}

	RecipeShortResponse struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	RecipeListResponse struct {
		Count   int64            `json:"count"`
		Results []RecipeResponse `json:"results"`
	}

	// RecipeFilter is the parsed listing query. ViewerID is zero for
	// anonymous requests; the boolean filters only apply to a viewer.
	RecipeFilter struct {
		Tags             []string
		AuthorID         int64
		IsFavorited      bool
		IsInShoppingCart bool
		ViewerID         int64
	}

	ShortLinkResponse struct {
		ShortLink string `json:"short-link"`
	}

	// ShoppingListItem is one aggregated row of the shopping-list export:
	// amounts summed per (ingredient name, measurement unit) pair.
	ShoppingListItem struct {
		Name            string  `json:"name"`
		MeasurementUnit string  `json:"measurement_unit"`
		Amount          float64 `json:"amount"`
	}
)
