package recipe

import (
	"context"
	"encoding/base64"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Zimnyaja/foodgram/domain"
	"github.com/Zimnyaja/foodgram/entities"
)

// fakeStore is an in-memory stand-in for the gorm-backed repositories. One
// struct implements all four repository interfaces so the fixtures stay in
// a single place.
type fakeStore struct {
	users       map[int64]*entities.User
	tags        map[int64]*entities.Tag
	ingredients map[int64]*entities.Ingredient
	recipes     map[int64]*entities.Recipe
	recipeTags  map[int64][]int64
	lines       map[int64][]entities.RecipeIngredient
	favorites   map[[2]int64]bool
	cart        map[[2]int64]bool
	subs        map[[2]int64]bool
	nextID      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[int64]*entities.User{
			1: {ID: 1, Email: "alice@example.com", Username: "alice", FirstName: "Alice", LastName: "Smith"},
			2: {ID: 2, Email: "bob@example.com", Username: "bob", FirstName: "Bob", LastName: "Jones"},
		},
		tags: map[int64]*entities.Tag{
			1: {ID: 1, Name: "Breakfast", Slug: "breakfast"},
			2: {ID: 2, Name: "Dinner", Slug: "dinner"},
		},
		ingredients: map[int64]*entities.Ingredient{
			1: {ID: 1, Name: "flour", MeasurementUnit: "g"},
			2: {ID: 2, Name: "sugar", MeasurementUnit: "g"},
			3: {ID: 3, Name: "milk", MeasurementUnit: "ml"},
		},
		recipes:    map[int64]*entities.Recipe{},
		recipeTags: map[int64][]int64{},
		lines:      map[int64][]entities.RecipeIngredient{},
		favorites:  map[[2]int64]bool{},
		cart:       map[[2]int64]bool{},
		subs:       map[[2]int64]bool{},
	}
}

// RecipeRepository

func (s *fakeStore) CreateRecipe(_ context.Context, recipe *entities.Recipe, tagIDs []int64, lines []entities.RecipeIngredient) error {
	s.nextID++
	recipe.ID = s.nextID
	stored := *recipe
	s.recipes[recipe.ID] = &stored
	s.recipeTags[recipe.ID] = append([]int64(nil), tagIDs...)
	s.lines[recipe.ID] = append([]entities.RecipeIngredient(nil), lines...)
	return nil
}

func (s *fakeStore) UpdateRecipe(_ context.Context, recipe *entities.Recipe, tagIDs []int64, lines []entities.RecipeIngredient) error {
	stored := *recipe
	s.recipes[recipe.ID] = &stored
	s.recipeTags[recipe.ID] = append([]int64(nil), tagIDs...)
	s.lines[recipe.ID] = append([]entities.RecipeIngredient(nil), lines...)
	return nil
}

func (s *fakeStore) DeleteRecipe(_ context.Context, id int64) error {
	delete(s.recipes, id)
	delete(s.recipeTags, id)
	delete(s.lines, id)
	for key := range s.favorites {
		if key[1] == id {
			delete(s.favorites, key)
		}
	}
	for key := range s.cart {
		if key[1] == id {
			delete(s.cart, key)
		}
	}
	return nil
}

func (s *fakeStore) GetRecipeByID(_ context.Context, id int64) (*entities.Recipe, error) {
	stored, ok := s.recipes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	recipe := *stored
	recipe.Author = s.users[recipe.AuthorID]
	for _, tagID := range s.recipeTags[id] {
		recipe.Tags = append(recipe.Tags, s.tags[tagID])
	}
	for _, line := range s.lines[id] {
		l := line
		l.Ingredient = s.ingredients[line.IngredientID]
		recipe.Lines = append(recipe.Lines, &l)
	}
	return &recipe, nil
}

func (s *fakeStore) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error) {
	ids := make([]int64, 0, len(s.recipes))
	for id := range s.recipes {
		ids = append(ids, id)
	}
	// newest first, ids grow monotonically
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	var matched []int64
	for _, id := range ids {
		r := s.recipes[id]
		if filter.AuthorID != 0 && r.AuthorID != filter.AuthorID {
			continue
		}
		if len(filter.Tags) > 0 && !s.hasAnyTag(id, filter.Tags) {
			continue
		}
		if filter.ViewerID != 0 {
			if filter.IsFavorited && !s.favorites[[2]int64{filter.ViewerID, id}] {
				continue
			}
			if filter.IsInShoppingCart && !s.cart[[2]int64{filter.ViewerID, id}] {
				continue
			}
		}
		matched = append(matched, id)
	}

	count := int64(len(matched))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	var recipes []*entities.Recipe
	for _, id := range matched[start:end] {
		r, _ := s.GetRecipeByID(ctx, id)
		recipes = append(recipes, r)
	}
	return recipes, count, nil
}

func (s *fakeStore) hasAnyTag(recipeID int64, slugs []string) bool {
	for _, tagID := range s.recipeTags[recipeID] {
		for _, slug := range slugs {
			if s.tags[tagID] != nil && s.tags[tagID].Slug == slug {
				return true
			}
		}
	}
	return false
}

func (s *fakeStore) GetFavoritedSet(_ context.Context, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	return pairSet(s.favorites, userID, recipeIDs), nil
}

func (s *fakeStore) GetShoppingCartSet(_ context.Context, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	return pairSet(s.cart, userID, recipeIDs), nil
}

func pairSet(pairs map[[2]int64]bool, userID int64, ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	if userID == 0 {
		return set
	}
	for _, id := range ids {
		if pairs[[2]int64{userID, id}] {
			set[id] = true
		}
	}
	return set
}

func (s *fakeStore) IsFavorited(_ context.Context, userID, recipeID int64) (bool, error) {
	return s.favorites[[2]int64{userID, recipeID}], nil
}

func (s *fakeStore) AddFavorite(_ context.Context, userID, recipeID int64) error {
	s.favorites[[2]int64{userID, recipeID}] = true
	return nil
}

func (s *fakeStore) RemoveFavorite(_ context.Context, userID, recipeID int64) error {
	key := [2]int64{userID, recipeID}
	if !s.favorites[key] {
		return gorm.ErrRecordNotFound
	}
	delete(s.favorites, key)
	return nil
}

func (s *fakeStore) IsInShoppingCart(_ context.Context, userID, recipeID int64) (bool, error) {
	return s.cart[[2]int64{userID, recipeID}], nil
}

func (s *fakeStore) AddShoppingCartItem(_ context.Context, userID, recipeID int64) error {
	s.cart[[2]int64{userID, recipeID}] = true
	return nil
}

func (s *fakeStore) RemoveShoppingCartItem(_ context.Context, userID, recipeID int64) error {
	key := [2]int64{userID, recipeID}
	if !s.cart[key] {
		return gorm.ErrRecordNotFound
	}
	delete(s.cart, key)
	return nil
}

func (s *fakeStore) GetShoppingListItems(_ context.Context, userID int64) ([]domain.ShoppingListItem, error) {
	totals := map[int64]float64{}
	for key := range s.cart {
		if key[0] != userID {
			continue
		}
		for _, line := range s.lines[key[1]] {
			totals[line.IngredientID] += line.Amount
		}
	}

	var items []domain.ShoppingListItem
	for ingredientID, amount := range totals {
		ing := s.ingredients[ingredientID]
		items = append(items, domain.ShoppingListItem{
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          amount,
		})
	}
	return items, nil
}

// TagRepository

func (s *fakeStore) GetTags(_ context.Context) ([]*entities.Tag, error) {
	var tags []*entities.Tag
	for _, t := range s.tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (s *fakeStore) GetTagByID(_ context.Context, id int64) (*entities.Tag, error) {
	t, ok := s.tags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (s *fakeStore) GetTagsByIDs(_ context.Context, ids []int64) ([]*entities.Tag, error) {
	var tags []*entities.Tag
	for _, id := range ids {
		if t, ok := s.tags[id]; ok {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

// IngredientRepository

func (s *fakeStore) GetIngredients(_ context.Context, namePrefix string) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	for _, i := range s.ingredients {
		if namePrefix == "" || strings.HasPrefix(i.Name, namePrefix) {
			ingredients = append(ingredients, i)
		}
	}
	sort.Slice(ingredients, func(i, j int) bool { return ingredients[i].Name < ingredients[j].Name })
	return ingredients, nil
}

func (s *fakeStore) GetIngredientByID(_ context.Context, id int64) (*entities.Ingredient, error) {
	i, ok := s.ingredients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return i, nil
}

func (s *fakeStore) GetIngredientsByIDs(_ context.Context, ids []int64) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	for _, id := range ids {
		if i, ok := s.ingredients[id]; ok {
			ingredients = append(ingredients, i)
		}
	}
	return ingredients, nil
}

// UserRepository

func (s *fakeStore) CreateUser(_ context.Context, user *entities.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id int64) (*entities.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) GetUserByUsername(_ context.Context, username string) (*entities.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) UpdateUser(_ context.Context, user *entities.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *fakeStore) GetUsers(_ context.Context, page, limit int) ([]*entities.User, int64, error) {
	var users []*entities.User
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, int64(len(users)), nil
}

func (s *fakeStore) Subscribe(_ context.Context, sub *entities.Subscription) error {
	s.subs[[2]int64{sub.UserID, sub.SubscribedToID}] = true
	return nil
}

func (s *fakeStore) Unsubscribe(_ context.Context, userID, authorID int64) error {
	key := [2]int64{userID, authorID}
	if !s.subs[key] {
		return gorm.ErrRecordNotFound
	}
	delete(s.subs, key)
	return nil
}

func (s *fakeStore) IsSubscribed(_ context.Context, userID, authorID int64) (bool, error) {
	return s.subs[[2]int64{userID, authorID}], nil
}

func (s *fakeStore) GetSubscribedAuthors(_ context.Context, userID int64, page, limit int) ([]*entities.User, int64, error) {
	var authors []*entities.User
	for key := range s.subs {
		if key[0] == userID {
			authors = append(authors, s.users[key[1]])
		}
	}
	return authors, int64(len(authors)), nil
}

func (s *fakeStore) GetSubscribedAuthorSet(_ context.Context, userID int64, authorIDs []int64) (map[int64]bool, error) {
	return pairSet(s.subs, userID, authorIDs), nil
}

func (s *fakeStore) GetAuthorRecipes(_ context.Context, authorID int64, limit int) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe
	for _, r := range s.recipes {
		if r.AuthorID == authorID {
			recipes = append(recipes, r)
		}
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID > recipes[j].ID })
	if limit > 0 && len(recipes) > limit {
		recipes = recipes[:limit]
	}
	return recipes, nil
}

func (s *fakeStore) CountAuthorRecipes(_ context.Context, authorID int64) (int64, error) {
	var count int64
	for _, r := range s.recipes {
		if r.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}

// fakeS3 records deletes and turns uploads into deterministic links.
type fakeS3 struct {
	deleted []string
}

func (f *fakeS3) UploadObject(objectKey string, _ []byte, _ string) (string, error) {
	return objectKey, nil
}

func (f *fakeS3) DeleteObject(objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeS3) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func (f *fakeS3) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://cdn.test/")
}

func testImage() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pixels"))
}

func newTestService(store *fakeStore) RecipeService {
	return NewRecipeService(store, store, store, store, &fakeS3{})
}

func validCreateRequest() domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Tags: []int64{1, 2},
		Ingredients: []domain.IngredientAmountRequest{
			{ID: 1, Amount: 300},
			{ID: 2, Amount: 50},
		},
		Name:        "Pancakes",
		Image:       testImage(),
		Text:        "Mix and fry.",
		CookingTime: 20,
	}
}

func TestCreateRecipeRoundTrip(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)

	res, err := service.CreateRecipe(context.Background(), 1, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", res.Name)
	assert.Equal(t, 20, res.CookingTime)
	assert.Equal(t, int64(1), res.Author.ID)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
	assert.True(t, strings.HasPrefix(res.Image, "https://cdn.test/recipes/images/"))

	require.Len(t, res.Tags, 2)
	require.Len(t, res.Ingredients, 2)
	assert.Equal(t, "flour", res.Ingredients[0].Name)
	assert.Equal(t, "g", res.Ingredients[0].MeasurementUnit)
	assert.Equal(t, float64(300), res.Ingredients[0].Amount)
}

func TestCreateRecipeValidation(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*domain.CreateRecipeRequest)
		wantErr error
	}{
		{"no tags", func(r *domain.CreateRecipeRequest) { r.Tags = nil }, domain.ErrNoTags},
		{"duplicate tags", func(r *domain.CreateRecipeRequest) { r.Tags = []int64{1, 1} }, domain.ErrDuplicateTag},
		{"unknown tag", func(r *domain.CreateRecipeRequest) { r.Tags = []int64{99} }, domain.ErrTagNotFound},
		{"no ingredients", func(r *domain.CreateRecipeRequest) { r.Ingredients = nil }, domain.ErrNoIngredients},
		{"duplicate ingredients", func(r *domain.CreateRecipeRequest) {
			r.Ingredients = []domain.IngredientAmountRequest{{ID: 1, Amount: 10}, {ID: 1, Amount: 20}}
		}, domain.ErrDuplicateIngredient},
		{"unknown ingredient", func(r *domain.CreateRecipeRequest) {
			r.Ingredients = []domain.IngredientAmountRequest{{ID: 99, Amount: 10}}
		}, domain.ErrIngredientNotFound},
		{"zero amount", func(r *domain.CreateRecipeRequest) {
			r.Ingredients = []domain.IngredientAmountRequest{{ID: 1, Amount: 0}}
		}, domain.ErrInvalidAmount},
		{"cooking time too short", func(r *domain.CreateRecipeRequest) { r.CookingTime = 0 }, domain.ErrCookingTimeTooShort},
		{"plain url image", func(r *domain.CreateRecipeRequest) { r.Image = "https://example.com/x.png" }, domain.ErrInvalidImage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(&req)
			_, err := service.CreateRecipe(ctx, 1, req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestUpdateRecipeReplacesTagsAndLines(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, 1, validCreateRequest())
	require.NoError(t, err)

	updated, err := service.UpdateRecipe(ctx, 1, created.ID, domain.UpdateRecipeRequest{
		Tags:        []int64{2},
		Ingredients: []domain.IngredientAmountRequest{{ID: 3, Amount: 250}},
		Name:        "Thin pancakes",
		Text:        "Mix, rest, fry.",
		CookingTime: 30,
	})
	require.NoError(t, err)

	assert.Equal(t, "Thin pancakes", updated.Name)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "milk", updated.Ingredients[0].Name)
	// image untouched when omitted
	assert.Equal(t, created.Image, updated.Image)
}

func TestUpdateRecipeOnlyAuthor(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, 1, validCreateRequest())
	require.NoError(t, err)

	_, err = service.UpdateRecipe(ctx, 2, created.ID, domain.UpdateRecipeRequest{
		Tags:        []int64{1},
		Ingredients: []domain.IngredientAmountRequest{{ID: 1, Amount: 10}},
		Name:        "Stolen",
		Text:        "x",
		CookingTime: 5,
	})
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)

	err = service.DeleteRecipe(ctx, 2, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)
}

func TestFavoriteFlow(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, 1, validCreateRequest())
	require.NoError(t, err)

	short, err := service.Favorite(ctx, 2, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, short.ID)
	assert.Equal(t, created.Name, short.Name)

	_, err = service.Favorite(ctx, 2, created.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFavorited)

	require.NoError(t, service.Unfavorite(ctx, 2, created.ID))
	assert.ErrorIs(t, service.Unfavorite(ctx, 2, created.ID), domain.ErrNotFavorited)

	_, err = service.Favorite(ctx, 2, 999)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestShoppingCartAggregation(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)
	ctx := context.Background()

	_, err := service.DownloadShoppingCart(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrShoppingCartEmpty)

	first, err := service.CreateRecipe(ctx, 1, validCreateRequest())
	require.NoError(t, err)

	secondReq := validCreateRequest()
	secondReq.Name = "Cake"
	secondReq.Ingredients = []domain.IngredientAmountRequest{
		{ID: 1, Amount: 200},
		{ID: 3, Amount: 100},
	}
	second, err := service.CreateRecipe(ctx, 1, secondReq)
	require.NoError(t, err)

	_, err = service.AddToShoppingCart(ctx, 2, first.ID)
	require.NoError(t, err)
	_, err = service.AddToShoppingCart(ctx, 2, second.ID)
	require.NoError(t, err)

	_, err = service.AddToShoppingCart(ctx, 2, first.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyInShoppingCart)

	content, err := service.DownloadShoppingCart(ctx, 2)
	require.NoError(t, err)

	// flour summed across both recipes
	assert.Contains(t, content, "flour — 500 g")
	assert.Contains(t, content, "sugar — 50 g")
	assert.Contains(t, content, "milk — 100 ml")

	require.NoError(t, service.RemoveFromShoppingCart(ctx, 2, first.ID))
	assert.ErrorIs(t, service.RemoveFromShoppingCart(ctx, 2, first.ID), domain.ErrNotInShoppingCart)
}

func TestGetRecipesViewerFlags(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, 1, validCreateRequest())
	require.NoError(t, err)
	_, err = service.Favorite(ctx, 2, created.ID)
	require.NoError(t, err)

	// anonymous: flags always false
	anon, err := service.GetRecipes(ctx, domain.RecipeFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, anon.Results, 1)
	assert.False(t, anon.Results[0].IsFavorited)

	viewer, err := service.GetRecipes(ctx, domain.RecipeFilter{ViewerID: 2}, 1, 10)
	require.NoError(t, err)
	require.Len(t, viewer.Results, 1)
	assert.True(t, viewer.Results[0].IsFavorited)

	favOnly, err := service.GetRecipes(ctx, domain.RecipeFilter{ViewerID: 2, IsFavorited: true}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), favOnly.Count)

	filtered, err := service.GetRecipes(ctx, domain.RecipeFilter{Tags: []string{"dessert"}}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), filtered.Count)
}

func TestShortLinkLifecycle(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, 1, validCreateRequest())
	require.NoError(t, err)

	link, err := service.GetShortLink(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(link.ShortLink, "/s/"+EncodeRecipeID(created.ID)))

	id, err := service.ResolveShortLink(ctx, EncodeRecipeID(created.ID))
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)

	_, err = service.ResolveShortLink(ctx, EncodeRecipeID(999))
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	_, err = service.ResolveShortLink(ctx, "%%%")
	assert.ErrorIs(t, err, domain.ErrInvalidShortLink)

	_, err = service.GetShortLink(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}
