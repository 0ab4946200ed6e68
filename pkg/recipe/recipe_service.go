package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Zimnyaja/foodgram/domain"
	"github.com/Zimnyaja/foodgram/entities"
	"github.com/Zimnyaja/foodgram/internal/utils"
	"github.com/Zimnyaja/foodgram/internal/utils/storage"
	"github.com/Zimnyaja/foodgram/pkg/ingredient"
	"github.com/Zimnyaja/foodgram/pkg/tag"
	"github.com/Zimnyaja/foodgram/pkg/user"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, authorID int64, req domain.CreateRecipeRequest) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, viewerID, recipeID int64, req domain.UpdateRecipeRequest) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, viewerID, recipeID int64) error
		GetRecipeDetail(ctx context.Context, viewerID, recipeID int64) (domain.RecipeResponse, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) (domain.RecipeListResponse, error)

		GetShortLink(ctx context.Context, recipeID int64) (domain.ShortLinkResponse, error)
		ResolveShortLink(ctx context.Context, code string) (int64, error)

		Favorite(ctx context.Context, userID, recipeID int64) (domain.RecipeShortResponse, error)
		Unfavorite(ctx context.Context, userID, recipeID int64) error
		AddToShoppingCart(ctx context.Context, userID, recipeID int64) (domain.RecipeShortResponse, error)
		RemoveFromShoppingCart(ctx context.Context, userID, recipeID int64) error
		DownloadShoppingCart(ctx context.Context, userID int64) (string, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		userRepository       user.UserRepository
		awsS3                storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	userRepository user.UserRepository,
	awsS3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		userRepository:       userRepository,
		awsS3:                awsS3,
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, authorID int64, req domain.CreateRecipeRequest) (domain.RecipeResponse, error) {
	if err := s.validatePayload(ctx, req.Tags, req.Ingredients, req.CookingTime); err != nil {
		return domain.RecipeResponse{}, err
	}

	imageURL, err := s.uploadImage(req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := entities.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		ImageURL:    imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	if err := s.recipeRepository.CreateRecipe(ctx, &recipe, req.Tags, buildLines(req.Ingredients)); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, authorID, recipe.ID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, viewerID, recipeID int64, req domain.UpdateRecipeRequest) (domain.RecipeResponse, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if recipe.AuthorID != viewerID {
		return domain.RecipeResponse{}, domain.ErrNotRecipeAuthor
	}

	if err := s.validatePayload(ctx, req.Tags, req.Ingredients, req.CookingTime); err != nil {
		return domain.RecipeResponse{}, err
	}

	if req.Image != "" {
		imageURL, err := s.uploadImage(req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		if recipe.ImageURL != "" {
			_ = s.awsS3.DeleteObject(s.awsS3.GetObjectKeyFromLink(recipe.ImageURL))
		}
		recipe.ImageURL = imageURL
	}

	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime
	recipe.Tags = nil
	recipe.Lines = nil

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, req.Tags, buildLines(req.Ingredients)); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, viewerID, recipeID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, viewerID, recipeID int64) error {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != viewerID {
		return domain.ErrNotRecipeAuthor
	}

	if err := s.recipeRepository.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}
	if recipe.ImageURL != "" {
		_ = s.awsS3.DeleteObject(s.awsS3.GetObjectKeyFromLink(recipe.ImageURL))
	}
	return nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, viewerID, recipeID int64) (domain.RecipeResponse, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	var favorited, inCart, subscribed bool
	if viewerID != 0 {
		if favorited, err = s.recipeRepository.IsFavorited(ctx, viewerID, recipeID); err != nil {
			return domain.RecipeResponse{}, err
		}
		if inCart, err = s.recipeRepository.IsInShoppingCart(ctx, viewerID, recipeID); err != nil {
			return domain.RecipeResponse{}, err
		}
		if subscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, recipe.AuthorID); err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	return toRecipeResponse(recipe, favorited, inCart, subscribed), nil
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) (domain.RecipeListResponse, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, page, limit)
	if err != nil {
		return domain.RecipeListResponse{}, err
	}

	recipeIDs := make([]int64, 0, len(recipes))
	authorIDs := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favSet, err := s.recipeRepository.GetFavoritedSet(ctx, filter.ViewerID, recipeIDs)
	if err != nil {
		return domain.RecipeListResponse{}, err
	}
	cartSet, err := s.recipeRepository.GetShoppingCartSet(ctx, filter.ViewerID, recipeIDs)
	if err != nil {
		return domain.RecipeListResponse{}, err
	}
	subSet, err := s.userRepository.GetSubscribedAuthorSet(ctx, filter.ViewerID, authorIDs)
	if err != nil {
		return domain.RecipeListResponse{}, err
	}

	results := make([]domain.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		results = append(results, toRecipeResponse(r, favSet[r.ID], cartSet[r.ID], subSet[r.AuthorID]))
	}

	return domain.RecipeListResponse{Count: count, Results: results}, nil
}

func (s *recipeService) GetShortLink(ctx context.Context, recipeID int64) (domain.ShortLinkResponse, error) {
	if _, err := s.getRecipe(ctx, recipeID); err != nil {
		return domain.ShortLinkResponse{}, err
	}

	base := strings.TrimRight(utils.GetConfig("APP_URL"), "/")
	return domain.ShortLinkResponse{
		ShortLink: fmt.Sprintf("%s/s/%s", base, EncodeRecipeID(recipeID)),
	}, nil
}

func (s *recipeService) ResolveShortLink(ctx context.Context, code string) (int64, error) {
	id, err := DecodeShortCode(code)
	if err != nil {
		return 0, err
	}
	if _, err := s.getRecipe(ctx, id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *recipeService) Favorite(ctx context.Context, userID, recipeID int64) (domain.RecipeShortResponse, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}

	favorited, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if favorited {
		return domain.RecipeShortResponse{}, domain.ErrAlreadyFavorited
	}

	if err := s.recipeRepository.AddFavorite(ctx, userID, recipeID); err != nil {
		return domain.RecipeShortResponse{}, err
	}
	return toRecipeShortResponse(recipe), nil
}

func (s *recipeService) Unfavorite(ctx context.Context, userID, recipeID int64) error {
	if _, err := s.getRecipe(ctx, recipeID); err != nil {
		return err
	}
	if err := s.recipeRepository.RemoveFavorite(ctx, userID, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFavorited
		}
		return err
	}
	return nil
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, userID, recipeID int64) (domain.RecipeShortResponse, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}

	inCart, err := s.recipeRepository.IsInShoppingCart(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if inCart {
		return domain.RecipeShortResponse{}, domain.ErrAlreadyInShoppingCart
	}

	if err := s.recipeRepository.AddShoppingCartItem(ctx, userID, recipeID); err != nil {
		return domain.RecipeShortResponse{}, err
	}
	return toRecipeShortResponse(recipe), nil
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, userID, recipeID int64) error {
	if _, err := s.getRecipe(ctx, recipeID); err != nil {
		return err
	}
	if err := s.recipeRepository.RemoveShoppingCartItem(ctx, userID, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotInShoppingCart
		}
		return err
	}
	return nil
}

func (s *recipeService) DownloadShoppingCart(ctx context.Context, userID int64) (string, error) {
	items, err := s.recipeRepository.GetShoppingListItems(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", domain.ErrShoppingCartEmpty
	}
	return RenderShoppingList(items), nil
}

func (s *recipeService) getRecipe(ctx context.Context, id int64) (*entities.Recipe, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

// validatePayload covers the rules the struct tags cannot express:
// uniqueness of tag and ingredient sets, existence of the referenced
// rows, positive amounts and the configured cooking-time floor.
func (s *recipeService) validatePayload(ctx context.Context, tagIDs []int64, lines []domain.IngredientAmountRequest, cookingTime int) error {
	if len(tagIDs) == 0 {
		return domain.ErrNoTags
	}
	seenTags := make(map[int64]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seenTags[id] {
			return domain.ErrDuplicateTag
		}
		seenTags[id] = true
	}

	if len(lines) == 0 {
		return domain.ErrNoIngredients
	}
	seenIngredients := make(map[int64]bool, len(lines))
	ingredientIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		if seenIngredients[line.ID] {
			return domain.ErrDuplicateIngredient
		}
		seenIngredients[line.ID] = true
		ingredientIDs = append(ingredientIDs, line.ID)
		if line.Amount <= 0 {
			return domain.ErrInvalidAmount
		}
	}

	if cookingTime < utils.MinCookingTime() {
		return domain.ErrCookingTimeTooShort
	}

	tags, err := s.tagRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	if len(tags) != len(tagIDs) {
		return domain.ErrTagNotFound
	}

	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return err
	}
	if len(ingredients) != len(ingredientIDs) {
		return domain.ErrIngredientNotFound
	}

	return nil
}

func (s *recipeService) uploadImage(data string) (string, error) {
	raw, ext, err := utils.ParseBase64Image(data)
	if err != nil {
		return "", domain.ErrInvalidImage
	}
	key, err := s.awsS3.UploadObject(
		"recipes/images/"+utils.NewImageObjectName(ext),
		raw,
		"image/"+ext,
	)
	if err != nil {
		return "", err
	}
	return s.awsS3.GetPublicLinkKey(key), nil
}

func buildLines(reqs []domain.IngredientAmountRequest) []entities.RecipeIngredient {
	lines := make([]entities.RecipeIngredient, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, entities.RecipeIngredient{
			IngredientID: r.ID,
			Amount:       r.Amount,
		})
	}
	return lines
}

func toRecipeResponse(recipe *entities.Recipe, favorited, inCart, subscribed bool) domain.RecipeResponse {
	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for _, t := range recipe.Tags {
		tags = append(tags, domain.TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}

	ingredients := make([]domain.RecipeIngredientResponse, 0, len(recipe.Lines))
	for _, line := range recipe.Lines {
		resp := domain.RecipeIngredientResponse{
			ID:     line.IngredientID,
			Amount: line.Amount,
		}
		if line.Ingredient != nil {
			resp.Name = line.Ingredient.Name
			resp.MeasurementUnit = line.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, resp)
	}

	var author domain.UserResponse
	if recipe.Author != nil {
		author = domain.UserResponse{
			ID:           recipe.Author.ID,
			Email:        recipe.Author.Email,
			Username:     recipe.Author.Username,
			FirstName:    recipe.Author.FirstName,
			LastName:     recipe.Author.LastName,
			IsSubscribed: subscribed,
			Avatar:       recipe.Author.AvatarURL,
		}
	}

	return domain.RecipeResponse{
		ID:               recipe.ID,
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             recipe.Name,
		Image:            recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}
}

func toRecipeShortResponse(recipe *entities.Recipe) domain.RecipeShortResponse {
	return domain.RecipeShortResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}
