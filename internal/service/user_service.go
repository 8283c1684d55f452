package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/storage"
	"github.com/RoyceAzure/rj/api/token"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type IUserService interface {
	Register(ctx context.Context, params RegisterParams) (*model.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (*model.User, error)
	UpdateProfilePhoto(ctx context.Context, id uuid.UUID, photo ImageUpload) (*model.User, error)
}

type RegisterParams struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateProfileParams nil 欄位不更新
type UpdateProfileParams struct {
	FirstName              *string
	LastName               *string
	Bio                    *string
	Phone                  *string
	DeliveryAddress        *string
	PreferredPaymentMethod *string
}

type LoginResult struct {
	User        *model.User
	AccessToken string
	ExpiresAt   time.Time
}

const minPasswordLength = 8

type UserService struct {
	store         db.IStore
	tokenMaker    token.Maker[uuid.UUID]
	storage       storage.FileStorage
	tokenDuration time.Duration
	logger        *zerolog.Logger
}

func NewUserService(store db.IStore, tokenMaker token.Maker[uuid.UUID], fileStorage storage.FileStorage, tokenDuration time.Duration, logger *zerolog.Logger) *UserService {
	if tokenDuration <= 0 {
		tokenDuration = time.Duration(constants.AccessTokenDuration) * time.Hour
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &UserService{
		store:         store,
		tokenMaker:    tokenMaker,
		storage:       fileStorage,
		tokenDuration: tokenDuration,
		logger:        logger,
	}
}

// Register 建立帳號, 密碼以 bcrypt 儲存
//
// 錯誤:
//   - ErrInvalidArgument: 帳號、email 或密碼格式不符
//   - ErrUserAlreadyExists: username 或 email 已被使用
func (u *UserService) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	username := strings.TrimSpace(params.Username)
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidArgument)
	}
	if len(params.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidArgument, minPasswordLength)
	}

	taken, err := u.store.IsUsernameOrEmailTaken(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
	}
	if err := u.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 帳密錯誤與帳號不存在回傳同一個錯誤
func (u *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := u.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, _, err := u.tokenMaker.CreateToken(user.Email, user.ID, u.tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &LoginResult{
		User:        user,
		AccessToken: accessToken,
		ExpiresAt:   time.Now().UTC().Add(u.tokenDuration),
	}, nil
}

func (u *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := u.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (u *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (*model.User, error) {
	user, err := u.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Bio != nil && utf8.RuneCountInString(*params.Bio) > constants.MaxBioLength {
		return nil, fmt.Errorf("%w: bio must be at most %d characters", ErrInvalidArgument, constants.MaxBioLength)
	}
	if params.PreferredPaymentMethod != nil && *params.PreferredPaymentMethod != "" &&
		!model.IsValidPaymentMethod(*params.PreferredPaymentMethod) {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrInvalidArgument, *params.PreferredPaymentMethod)
	}

	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	assign(&user.FirstName, params.FirstName)
	assign(&user.LastName, params.LastName)
	assign(&user.Bio, params.Bio)
	assign(&user.Phone, params.Phone)
	assign(&user.DeliveryAddress, params.DeliveryAddress)
	assign(&user.PreferredPaymentMethod, params.PreferredPaymentMethod)

	if err := u.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return u.GetProfile(ctx, id)
}

// UpdateProfilePhoto 固定存在 images_profiles/{id}/ 底下, 換照片時刪掉舊檔
func (u *UserService) UpdateProfilePhoto(ctx context.Context, id uuid.UUID, photo ImageUpload) (*model.User, error) {
	if err := validateImages([]ImageUpload{photo}); err != nil {
		return nil, err
	}
	user, err := u.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	ext, _ := imageExt(photo.Filename)
	key := fmt.Sprintf("%s/%s/%s-profile-photo%s", constants.ProfileImageDir, user.ID, uuid.NewString()[:8], ext)
	if err := u.storage.Save(ctx, key, photo.Content); err != nil {
		return nil, fmt.Errorf("failed to save profile photo: %w", err)
	}

	old := user.ProfilePhoto
	user.ProfilePhoto = &key
	if err := u.store.UpdateUser(ctx, user); err != nil {
		if delErr := u.storage.Delete(ctx, key); delErr != nil {
			u.logger.Warn().Err(delErr).Str("path", key).Msg("failed to delete profile photo")
		}
		return nil, err
	}

	if old != nil && *old != "" {
		if err := u.storage.Delete(ctx, *old); err != nil {
			u.logger.Warn().Err(err).Str("path", *old).Msg("failed to delete old profile photo")
		}
	}
	return u.GetProfile(ctx, id)
}

var _ IUserService = (*UserService)(nil)
