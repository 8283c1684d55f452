// Package dbtest 提供測試用的 in-memory 資料庫
package dbtest

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite 每次呼叫都是獨立的資料庫
// 只開一條連線, 交易內所有查詢都必須走 tx
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return conn
}

func NewStore(t testing.TB) *db.Store {
	t.Helper()
	store := db.NewStore(db.NewDbDao(OpenSQLite(t)))
	require.NoError(t, store.InitMigrate())
	return store
}

func CreateUser(t testing.TB, store db.IStore, username string) *model.User {
	t.Helper()
	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func CreatePost(t testing.TB, store db.IStore, owner *model.User, caption, price string) *model.Post {
	t.Helper()
	post := &model.Post{
		UserID:  owner.ID,
		Caption: caption,
		Price:   decimal.RequireFromString(price),
	}
	require.NoError(t, store.CreatePost(context.Background(), post))
	return post
}
