package db

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/google/uuid"
)

// IUserRepository User 相關操作介面
type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	IsUsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

type UserRepo struct {
	db *DbDao
}

func NewUserRepo(db *DbDao) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (r *UserRepo) IsUsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

// UpdateUser 只更新個人資料欄位, 帳號與密碼不在此處修改
func (r *UserRepo) UpdateUser(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Model(user).
		Select("FirstName", "LastName", "ProfilePhoto", "Bio", "Phone", "DeliveryAddress", "PreferredPaymentMethod").
		Updates(user).Error
}
