package redis_decorator

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/cache"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/rs/zerolog"
)

const defaultPostTTL = 5 * time.Minute

/*
post 明細走 cache-aside, 列表不快取
任何異動都先寫 db 再刪除 cache, redis 錯誤只記錄, 一律回到 db
*/
type CacheAsidePostRepo struct {
	db.IPostRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCacheAsidePostRepo(repo db.IPostRepository, c cache.Cache, ttl time.Duration, logger *zerolog.Logger) *CacheAsidePostRepo {
	if repo == nil || c == nil {
		panic("NewCacheAsidePostRepo: repository and cache cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultPostTTL
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CacheAsidePostRepo{
		IPostRepository: repo,
		cache:           c,
		ttl:             ttl,
		logger:          logger,
	}
}

func postKey(id uint) string {
	return "post:" + strconv.FormatUint(uint64(id), 10)
}

func (p *CacheAsidePostRepo) GetPostByID(ctx context.Context, id uint) (*model.Post, error) {
	key := postKey(id)

	cached, err := p.cache.Get(ctx, key)
	if err == nil {
		var post model.Post
		if err := json.Unmarshal([]byte(cached), &post); err == nil {
			return &post, nil
		}
		p.logger.Warn().Str("key", key).Msg("drop undecodable post cache entry")
		p.evict(ctx, id)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		p.logger.Warn().Err(err).Str("key", key).Msg("post cache read failed")
	}

	post, err := p.IPostRepository.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(post); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("post cache write failed")
		}
	}
	return post, nil
}

func (p *CacheAsidePostRepo) UpdatePost(ctx context.Context, post *model.Post) error {
	if err := p.IPostRepository.UpdatePost(ctx, post); err != nil {
		return err
	}
	p.evict(ctx, post.ID)
	return nil
}

func (p *CacheAsidePostRepo) ReplacePostImages(ctx context.Context, postID uint, images []model.PostImage) ([]model.PostImage, error) {
	old, err := p.IPostRepository.ReplacePostImages(ctx, postID, images)
	if err != nil {
		return nil, err
	}
	p.evict(ctx, postID)
	return old, nil
}

func (p *CacheAsidePostRepo) UpdatePostWithImages(ctx context.Context, post *model.Post, images []model.PostImage) ([]model.PostImage, error) {
	old, err := p.IPostRepository.UpdatePostWithImages(ctx, post, images)
	if err != nil {
		return nil, err
	}
	p.evict(ctx, post.ID)
	return old, nil
}

func (p *CacheAsidePostRepo) AddPostImages(ctx context.Context, postID uint, images []model.PostImage) error {
	if err := p.IPostRepository.AddPostImages(ctx, postID, images); err != nil {
		return err
	}
	p.evict(ctx, postID)
	return nil
}

func (p *CacheAsidePostRepo) DeletePost(ctx context.Context, id uint) error {
	if err := p.IPostRepository.DeletePost(ctx, id); err != nil {
		return err
	}
	p.evict(ctx, id)
	return nil
}

func (p *CacheAsidePostRepo) evict(ctx context.Context, id uint) {
	if err := p.cache.Delete(ctx, postKey(id)); err != nil {
		p.logger.Warn().Err(err).Uint("post_id", id).Msg("post cache evict failed")
	}
}

var _ db.IPostRepository = (*CacheAsidePostRepo)(nil)
