package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Zimnyaja/foodgram/domain"
	"github.com/Zimnyaja/foodgram/entities"
	"github.com/Zimnyaja/foodgram/internal/utils"
	"github.com/Zimnyaja/foodgram/internal/utils/mailing"
	"github.com/Zimnyaja/foodgram/internal/utils/storage"
	"github.com/Zimnyaja/foodgram/pkg/jwt"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

const resetTokenTTL = time.Hour

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		GetUserDetail(ctx context.Context, viewerID, userID int64) (domain.UserResponse, error)
		GetUsers(ctx context.Context, viewerID int64, page, limit int) (domain.UserListResponse, error)
		UpdateAvatar(ctx context.Context, userID int64, req domain.UpdateAvatarRequest) (domain.AvatarResponse, error)
		DeleteAvatar(ctx context.Context, userID int64) error
		SetPassword(ctx context.Context, userID int64, req domain.SetPasswordRequest) error
		ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error

		Subscribe(ctx context.Context, userID, authorID int64, recipesLimit int) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, userID, authorID int64) error
		GetSubscriptions(ctx context.Context, userID int64, page, limit, recipesLimit int) (domain.SubscriptionListResponse, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		awsS3          storage.AwsS3
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, awsS3 storage.AwsS3) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		awsS3:          awsS3,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	if !usernamePattern.MatchString(req.Username) {
		return domain.RegisterResponse{}, domain.ErrInvalidUsername
	}

	if _, err := s.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return domain.RegisterResponse{}, domain.ErrEmailAlreadyUsed
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RegisterResponse{}, err
	}
	if _, err := s.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return domain.RegisterResponse{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RegisterResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.RegisterResponse{}, err
	}

	user := entities.User{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hashed),
	}
	if err := s.userRepository.CreateUser(ctx, &user); err != nil {
		return domain.RegisterResponse{}, err
	}

	return domain.RegisterResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrCredentialsInvalid
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrCredentialsInvalid
	}

	return domain.LoginResponse{Token: s.jwtService.GenerateTokenUser(user.ID)}, nil
}

func (s *userService) GetUserDetail(ctx context.Context, viewerID, userID int64) (domain.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, err
	}

	var subscribed bool
	if viewerID != 0 && viewerID != userID {
		if subscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, userID); err != nil {
			return domain.UserResponse{}, err
		}
	}

	return toUserResponse(user, subscribed), nil
}

func (s *userService) GetUsers(ctx context.Context, viewerID int64, page, limit int) (domain.UserListResponse, error) {
	users, count, err := s.userRepository.GetUsers(ctx, page, limit)
	if err != nil {
		return domain.UserListResponse{}, err
	}

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subSet, err := s.userRepository.GetSubscribedAuthorSet(ctx, viewerID, ids)
	if err != nil {
		return domain.UserListResponse{}, err
	}

	results := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		results = append(results, toUserResponse(u, subSet[u.ID]))
	}
	return domain.UserListResponse{Count: count, Results: results}, nil
}

func (s *userService) UpdateAvatar(ctx context.Context, userID int64, req domain.UpdateAvatarRequest) (domain.AvatarResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.AvatarResponse{}, err
	}

	raw, ext, err := utils.ParseBase64Image(req.Avatar)
	if err != nil {
		return domain.AvatarResponse{}, domain.ErrInvalidImage
	}
	key, err := s.awsS3.UploadObject("avatars/"+utils.NewImageObjectName(ext), raw, "image/"+ext)
	if err != nil {
		return domain.AvatarResponse{}, err
	}

	if user.AvatarURL != "" {
		_ = s.awsS3.DeleteObject(s.awsS3.GetObjectKeyFromLink(user.AvatarURL))
	}
	user.AvatarURL = s.awsS3.GetPublicLinkKey(key)
	if err := s.userRepository.UpdateUser(ctx, user); err != nil {
		return domain.AvatarResponse{}, err
	}

	return domain.AvatarResponse{Avatar: user.AvatarURL}, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, userID int64) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.AvatarURL == "" {
		return domain.ErrAvatarNotSet
	}

	_ = s.awsS3.DeleteObject(s.awsS3.GetObjectKeyFromLink(user.AvatarURL))
	user.AvatarURL = ""
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) SetPassword(ctx context.Context, userID int64, req domain.SetPasswordRequest) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return domain.ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	token, err := s.jwtService.GenerateTokenResetPassword(user.ID, resetTokenTTL)
	if err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", utils.GetConfig("APP_URL"), token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Follow <a href=%q>this link</a> to reset your password. The link expires in one hour.</p>",
		user.FirstName, resetLink,
	)
	return mailing.SendMail(user.Email, "Password reset", body)
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	userID, err := s.jwtService.ValidateTokenResetPassword(req.Token)
	if err != nil {
		return err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) Subscribe(ctx context.Context, userID, authorID int64, recipesLimit int) (domain.SubscriptionResponse, error) {
	if userID == authorID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	author, err := s.getUser(ctx, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	subscribed, err := s.userRepository.IsSubscribed(ctx, userID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if subscribed {
		return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
	}

	if err := s.userRepository.Subscribe(ctx, &entities.Subscription{
		UserID:         userID,
		SubscribedToID: authorID,
	}); err != nil {
		return domain.SubscriptionResponse{}, err
	}

	return s.toSubscriptionResponse(ctx, author, recipesLimit)
}

func (s *userService) Unsubscribe(ctx context.Context, userID, authorID int64) error {
	if _, err := s.getUser(ctx, authorID); err != nil {
		return err
	}
	if err := s.userRepository.Unsubscribe(ctx, userID, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotSubscribed
		}
		return err
	}
	return nil
}

func (s *userService) GetSubscriptions(ctx context.Context, userID int64, page, limit, recipesLimit int) (domain.SubscriptionListResponse, error) {
	authors, count, err := s.userRepository.GetSubscribedAuthors(ctx, userID, page, limit)
	if err != nil {
		return domain.SubscriptionListResponse{}, err
	}

	results := make([]domain.SubscriptionResponse, 0, len(authors))
	for _, author := range authors {
		resp, err := s.toSubscriptionResponse(ctx, author, recipesLimit)
		if err != nil {
			return domain.SubscriptionListResponse{}, err
		}
		results = append(results, resp)
	}
	return domain.SubscriptionListResponse{Count: count, Results: results}, nil
}

// ParseRecipesLimit interprets the recipes_limit query value. Absent or
// unparsable values mean no limit, matching lenient query handling
// elsewhere in the API.
func ParseRecipesLimit(raw string) int {
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func (s *userService) toSubscriptionResponse(ctx context.Context, author *entities.User, recipesLimit int) (domain.SubscriptionResponse, error) {
	recipes, err := s.userRepository.GetAuthorRecipes(ctx, author.ID, recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	count, err := s.userRepository.CountAuthorRecipes(ctx, author.ID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	previews := make([]domain.RecipeShortResponse, 0, len(recipes))
	for _, r := range recipes {
		previews = append(previews, domain.RecipeShortResponse{
			ID:          r.ID,
			Name:        r.Name,
			Image:       r.ImageURL,
			CookingTime: r.CookingTime,
		})
	}

	return domain.SubscriptionResponse{
		UserResponse: toUserResponse(author, true),
		Recipes:      previews,
		RecipesCount: count,
	}, nil
}

func (s *userService) getUser(ctx context.Context, id int64) (*entities.User, error) {
	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func toUserResponse(user *entities.User, subscribed bool) domain.UserResponse {
	return domain.UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
		Avatar:       user.AvatarURL,
	}
}
