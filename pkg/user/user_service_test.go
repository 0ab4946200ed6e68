package user

import (
	"context"
	"encoding/base64"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Zimnyaja/foodgram/domain"
	"github.com/Zimnyaja/foodgram/entities"
)

type fakeUserRepo struct {
	users   map[int64]*entities.User
	subs    map[[2]int64]bool
	recipes []*entities.Recipe
	nextID  int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: map[int64]*entities.User{},
		subs:  map[[2]int64]bool{},
	}
}

func (r *fakeUserRepo) seedUser(email, username, password string) *entities.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	r.nextID++
	u := &entities.User{
		ID:        r.nextID,
		Email:     email,
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  string(hashed),
	}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) seedRecipe(authorID int64, name string) *entities.Recipe {
	recipe := &entities.Recipe{
		ID:          int64(len(r.recipes) + 1),
		AuthorID:    authorID,
		Name:        name,
		CookingTime: 10,
	}
	r.recipes = append(r.recipes, recipe)
	return recipe
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *entities.User) error {
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*entities.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, user *entities.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUsers(_ context.Context, page, limit int) ([]*entities.User, int64, error) {
	var users []*entities.User
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, int64(len(users)), nil
}

func (r *fakeUserRepo) Subscribe(_ context.Context, sub *entities.Subscription) error {
	r.subs[[2]int64{sub.UserID, sub.SubscribedToID}] = true
	return nil
}

func (r *fakeUserRepo) Unsubscribe(_ context.Context, userID, authorID int64) error {
	key := [2]int64{userID, authorID}
	if !r.subs[key] {
		return gorm.ErrRecordNotFound
	}
	delete(r.subs, key)
	return nil
}

func (r *fakeUserRepo) IsSubscribed(_ context.Context, userID, authorID int64) (bool, error) {
	return r.subs[[2]int64{userID, authorID}], nil
}

func (r *fakeUserRepo) GetSubscribedAuthors(_ context.Context, userID int64, page, limit int) ([]*entities.User, int64, error) {
	var authors []*entities.User
	for key := range r.subs {
		if key[0] == userID {
			authors = append(authors, r.users[key[1]])
		}
	}
	sort.Slice(authors, func(i, j int) bool { return authors[i].ID < authors[j].ID })
	return authors, int64(len(authors)), nil
}

func (r *fakeUserRepo) GetSubscribedAuthorSet(_ context.Context, userID int64, authorIDs []int64) (map[int64]bool, error) {
	set := make(map[int64]bool, len(authorIDs))
	if userID == 0 {
		return set, nil
	}
	for _, id := range authorIDs {
		if r.subs[[2]int64{userID, id}] {
			set[id] = true
		}
	}
	return set, nil
}

func (r *fakeUserRepo) GetAuthorRecipes(_ context.Context, authorID int64, limit int) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe
	for _, recipe := range r.recipes {
		if recipe.AuthorID == authorID {
			recipes = append(recipes, recipe)
		}
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID > recipes[j].ID })
	if limit > 0 && len(recipes) > limit {
		recipes = recipes[:limit]
	}
	return recipes, nil
}

func (r *fakeUserRepo) CountAuthorRecipes(_ context.Context, authorID int64) (int64, error) {
	var count int64
	for _, recipe := range r.recipes {
		if recipe.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}

type fakeJWT struct{}

func (fakeJWT) GenerateTokenUser(userID int64) string {
	return "token-" + strconv.FormatInt(userID, 10)
}

func (fakeJWT) ValidateTokenUser(string) (*jwtlib.Token, error) {
	return nil, nil
}

func (fakeJWT) GetUserIDByToken(token string) (int64, error) {
	raw, found := strings.CutPrefix(token, "token-")
	if !found {
		return 0, domain.ErrTokenInvalid
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (fakeJWT) GenerateTokenResetPassword(userID int64, _ time.Duration) (string, error) {
	return "reset-" + strconv.FormatInt(userID, 10), nil
}

func (fakeJWT) ValidateTokenResetPassword(token string) (int64, error) {
	raw, found := strings.CutPrefix(token, "reset-")
	if !found {
		return 0, domain.ErrTokenInvalid
	}
	return strconv.ParseInt(raw, 10, 64)
}

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

func newTestService(repo *fakeUserRepo) UserService {
	return NewUserService(repo, fakeJWT{}, &fakeS3{})
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestService(repo)
	ctx := context.Background()

	res, err := service.Register(ctx, domain.RegisterRequest{
		Email:     "alice@example.com",
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Smith",
		Password:  "secret-pass",
	})
	require.NoError(t, err)
	assert.NotZero(t, res.ID)
	assert.Equal(t, "alice", res.Username)

	// password stored hashed, never verbatim
	stored := repo.users[res.ID]
	assert.NotEqual(t, "secret-pass", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret-pass")))
}

func TestRegisterConflicts(t *testing.T) {
	repo := newFakeUserRepo()
	repo.seedUser("alice@example.com", "alice", "pw12345678")
	service := newTestService(repo)
	ctx := context.Background()

	_, err := service.Register(ctx, domain.RegisterRequest{
		Email: "alice@example.com", Username: "other",
		FirstName: "A", LastName: "B", Password: "pw12345678",
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyUsed)

	_, err = service.Register(ctx, domain.RegisterRequest{
		Email: "new@example.com", Username: "alice",
		FirstName: "A", LastName: "B", Password: "pw12345678",
	})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	_, err = service.Register(ctx, domain.RegisterRequest{
		Email: "new@example.com", Username: "bad name!",
		FirstName: "A", LastName: "B", Password: "pw12345678",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	u := repo.seedUser("alice@example.com", "alice", "pw12345678")
	service := newTestService(repo)
	ctx := context.Background()

	res, err := service.Login(ctx, domain.LoginRequest{Email: u.Email, Password: "pw12345678"})
	require.NoError(t, err)
	assert.Equal(t, "token-"+strconv.FormatInt(u.ID, 10), res.Token)

	_, err = service.Login(ctx, domain.LoginRequest{Email: u.Email, Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)

	_, err = service.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)
}

func TestSetPassword(t *testing.T) {
	repo := newFakeUserRepo()
	u := repo.seedUser("alice@example.com", "alice", "old-password")
	service := newTestService(repo)
	ctx := context.Background()

	err := service.SetPassword(ctx, u.ID, domain.SetPasswordRequest{
		CurrentPassword: "wrong", NewPassword: "new-password",
	})
	assert.ErrorIs(t, err, domain.ErrWrongPassword)

	require.NoError(t, service.SetPassword(ctx, u.ID, domain.SetPasswordRequest{
		CurrentPassword: "old-password", NewPassword: "new-password",
	}))

	_, err = service.Login(ctx, domain.LoginRequest{Email: u.Email, Password: "new-password"})
	assert.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	repo := newFakeUserRepo()
	u := repo.seedUser("alice@example.com", "alice", "old-password")
	service := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, service.ResetPassword(ctx, domain.ResetPasswordRequest{
		Token: "reset-" + strconv.FormatInt(u.ID, 10), NewPassword: "fresh-password",
	}))
	_, err := service.Login(ctx, domain.LoginRequest{Email: u.Email, Password: "fresh-password"})
	assert.NoError(t, err)

	err = service.ResetPassword(ctx, domain.ResetPasswordRequest{Token: "bogus", NewPassword: "x12345678"})
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAvatarLifecycle(t *testing.T) {
	repo := newFakeUserRepo()
	u := repo.seedUser("alice@example.com", "alice", "pw12345678")
	service := newTestService(repo)
	ctx := context.Background()

	avatar := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pixels"))
	res, err := service.UpdateAvatar(ctx, u.ID, domain.UpdateAvatarRequest{Avatar: avatar})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Avatar, "https://cdn.test/avatars/"))

	_, err = service.UpdateAvatar(ctx, u.ID, domain.UpdateAvatarRequest{Avatar: "not an image"})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	require.NoError(t, service.DeleteAvatar(ctx, u.ID))
	assert.ErrorIs(t, service.DeleteAvatar(ctx, u.ID), domain.ErrAvatarNotSet)
}

func TestSubscribe(t *testing.T) {
	repo := newFakeUserRepo()
	viewer := repo.seedUser("alice@example.com", "alice", "pw12345678")
	author := repo.seedUser("bob@example.com", "bob", "pw12345678")
	repo.seedRecipe(author.ID, "Pancakes")
	repo.seedRecipe(author.ID, "Cake")
	repo.seedRecipe(author.ID, "Soup")
	service := newTestService(repo)
	ctx := context.Background()

	_, err := service.Subscribe(ctx, viewer.ID, viewer.ID, 0)
	assert.ErrorIs(t, err, domain.ErrSelfSubscription)

	_, err = service.Subscribe(ctx, viewer.ID, 999, 0)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	res, err := service.Subscribe(ctx, viewer.ID, author.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, author.ID, res.ID)
	assert.True(t, res.IsSubscribed)
	assert.Len(t, res.Recipes, 2)
	assert.Equal(t, int64(3), res.RecipesCount)

	_, err = service.Subscribe(ctx, viewer.ID, author.ID, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)
}

func TestUnsubscribe(t *testing.T) {
	repo := newFakeUserRepo()
	viewer := repo.seedUser("alice@example.com", "alice", "pw12345678")
	author := repo.seedUser("bob@example.com", "bob", "pw12345678")
	service := newTestService(repo)
	ctx := context.Background()

	assert.ErrorIs(t, service.Unsubscribe(ctx, viewer.ID, author.ID), domain.ErrNotSubscribed)

	_, err := service.Subscribe(ctx, viewer.ID, author.ID, 0)
	require.NoError(t, err)
	require.NoError(t, service.Unsubscribe(ctx, viewer.ID, author.ID))
}

func TestGetSubscriptions(t *testing.T) {
	repo := newFakeUserRepo()
	viewer := repo.seedUser("alice@example.com", "alice", "pw12345678")
	author := repo.seedUser("bob@example.com", "bob", "pw12345678")
	repo.seedRecipe(author.ID, "Pancakes")
	service := newTestService(repo)
	ctx := context.Background()

	_, err := service.Subscribe(ctx, viewer.ID, author.ID, 0)
	require.NoError(t, err)

	res, err := service.GetSubscriptions(ctx, viewer.ID, 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Count)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "bob", res.Results[0].Username)
	assert.Len(t, res.Results[0].Recipes, 1)
}

func TestGetUserDetail(t *testing.T) {
	repo := newFakeUserRepo()
	viewer := repo.seedUser("alice@example.com", "alice", "pw12345678")
	author := repo.seedUser("bob@example.com", "bob", "pw12345678")
	service := newTestService(repo)
	ctx := context.Background()

	res, err := service.GetUserDetail(ctx, viewer.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, res.IsSubscribed)

	_, err = service.Subscribe(ctx, viewer.ID, author.ID, 0)
	require.NoError(t, err)

	res, err = service.GetUserDetail(ctx, viewer.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, res.IsSubscribed)

	// anonymous viewer
	res, err = service.GetUserDetail(ctx, 0, author.ID)
	require.NoError(t, err)
	assert.False(t, res.IsSubscribed)

	_, err = service.GetUserDetail(ctx, viewer.ID, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestParseRecipesLimit(t *testing.T) {
	assert.Equal(t, 0, ParseRecipesLimit(""))
	assert.Equal(t, 0, ParseRecipesLimit("abc"))
	assert.Equal(t, 0, ParseRecipesLimit("-3"))
	assert.Equal(t, 5, ParseRecipesLimit("5"))
}
