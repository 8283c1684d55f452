package db

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// IStore 統一的資料庫介面
type IStore interface {
	IUserRepository
	IPostRepository
	ICartRepository
	IOrderRepository

	// ExecTx fn 內的 IStore 都綁在同一個 transaction 上
	ExecTx(ctx context.Context, fn func(IStore) error) error
	InitMigrate() error
}

// Store 管理 gorm 連線與交易
type Store struct {
	dbDao *DbDao
	*UserRepo
	*PostRepo
	*CartRepo
	*OrderRepo
}

func NewStore(dbDao *DbDao) *Store {
	return &Store{
		dbDao:     dbDao,
		UserRepo:  NewUserRepo(dbDao),
		PostRepo:  NewPostRepo(dbDao),
		CartRepo:  NewCartRepo(dbDao),
		OrderRepo: NewOrderRepo(dbDao),
	}
}

// ExecTx 執行一個交易, fn 回傳錯誤時整筆 rollback
func (s *Store) ExecTx(ctx context.Context, fn func(IStore) error) error {
	var opts []*sql.TxOptions
	if isPostgres(s.dbDao.DB) {
		// 購物車列另外以 row lock 序列化
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	}

	return s.dbDao.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(NewDbDao(tx)))
	}, opts...)
}

func (s *Store) InitMigrate() error {
	return s.dbDao.InitMigrate()
}

var (
	_ IStore           = (*Store)(nil)
	_ IUserRepository  = (*UserRepo)(nil)
	_ IPostRepository  = (*PostRepo)(nil)
	_ ICartRepository  = (*CartRepo)(nil)
	_ IOrderRepository = (*OrderRepo)(nil)
)
