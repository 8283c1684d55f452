package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type IPostService interface {
	ListPosts(ctx context.Context, query PostQuery) (*PostPage, error)
	GetPost(ctx context.Context, id uint) (*model.Post, error)
	CreatePost(ctx context.Context, ownerID uuid.UUID, params CreatePostParams) (*model.Post, error)
	UpdatePost(ctx context.Context, ownerID uuid.UUID, id uint, params UpdatePostParams) (*model.Post, error)
	DeletePost(ctx context.Context, ownerID uuid.UUID, id uint) error
}

// ImageUpload 上傳的圖片, Filename 只用來判斷副檔名
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

type PostQuery struct {
	Search   string
	Sort     string
	Page     int
	PageSize int
}

type PostPage struct {
	Items      []model.Post
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

type CreatePostParams struct {
	Caption string
	Price   decimal.Decimal
	Images  []ImageUpload
}

// UpdatePostParams nil 欄位不更新, 有上傳圖片時整批取代
type UpdatePostParams struct {
	Caption *string
	Price   *decimal.Decimal
	Images  []ImageUpload
}

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var maxPrice = decimal.New(1, constants.MaxPriceDigits)

type PostService struct {
	posts   db.IPostRepository
	storage storage.FileStorage
	logger  *zerolog.Logger
}

// NewPostService posts 可以是帶快取的 repository
func NewPostService(posts db.IPostRepository, fileStorage storage.FileStorage, logger *zerolog.Logger) *PostService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &PostService{
		posts:   posts,
		storage: fileStorage,
		logger:  logger,
	}
}

func normalizeQuery(query PostQuery) (db.PostFilter, int, int) {
	page := query.Page
	if page < 1 {
		page = constants.DefaultPage
	}
	size := query.PageSize
	if size < 1 {
		size = constants.DefaultPostPageSize
	}
	if size > constants.MaxPostPageSize {
		size = constants.MaxPostPageSize
	}

	sort := db.PostSort(query.Sort)
	switch sort {
	case db.PostSortCreatedAsc, db.PostSortCreatedDesc, db.PostSortPriceAsc, db.PostSortPriceDesc:
	default:
		sort = db.PostSortCreatedDesc
	}

	return db.PostFilter{
		Search: query.Search,
		Sort:   sort,
		Offset: (page - 1) * size,
		Limit:  size,
	}, page, size
}

// ListPosts 公開列表, 不需登入
func (p *PostService) ListPosts(ctx context.Context, query PostQuery) (*PostPage, error) {
	filter, page, size := normalizeQuery(query)

	posts, total, err := p.posts.ListPosts(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &PostPage{
		Items:      posts,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

func (p *PostService) GetPost(ctx context.Context, id uint) (*model.Post, error) {
	post, err := p.posts.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

// ownedPost 不是自己的 post 一律回傳 ErrPostNotFound
func (p *PostService) ownedPost(ctx context.Context, ownerID uuid.UUID, id uint) (*model.Post, error) {
	post, err := p.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != ownerID {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func validateCaption(caption string) error {
	if strings.TrimSpace(caption) == "" {
		return fmt.Errorf("%w: caption is required", ErrInvalidArgument)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	if !price.Equal(price.Round(2)) {
		return fmt.Errorf("%w: price must have at most 2 decimal places", ErrInvalidArgument)
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return fmt.Errorf("%w: price is too large", ErrInvalidArgument)
	}
	return nil
}

func imageExt(filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !allowedImageExt[ext] {
		return "", fmt.Errorf("%w: unsupported image type %q", ErrInvalidArgument, filename)
	}
	return ext, nil
}

func validateImages(images []ImageUpload) error {
	for _, img := range images {
		if img.Content == nil {
			return fmt.Errorf("%w: empty image %q", ErrInvalidArgument, img.Filename)
		}
		if _, err := imageExt(img.Filename); err != nil {
			return err
		}
	}
	return nil
}

// saveImages 寫入 storage, 任一張失敗時刪掉已寫入的檔案
func (p *PostService) saveImages(ctx context.Context, post *model.Post, images []ImageUpload) ([]model.PostImage, error) {
	saved := make([]model.PostImage, 0, len(images))
	for i, img := range images {
		ext, err := imageExt(img.Filename)
		if err != nil {
			p.removeFiles(ctx, saved)
			return nil, err
		}
		key := fmt.Sprintf("%s/%s/%d/%d-%s-post-photo%s",
			constants.PostImageDir, post.UserID, post.ID, i, uuid.NewString()[:8], ext)
		if err := p.storage.Save(ctx, key, img.Content); err != nil {
			p.removeFiles(ctx, saved)
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		saved = append(saved, model.PostImage{Path: key, Order: i})
	}
	return saved, nil
}

func (p *PostService) removeFiles(ctx context.Context, images []model.PostImage) {
	for _, img := range images {
		if err := p.storage.Delete(ctx, img.Path); err != nil {
			p.logger.Warn().Err(err).Str("path", img.Path).Msg("failed to delete image file")
		}
	}
}

// CreatePost 先建立 post 取得 id, 再依 id 存圖片
func (p *PostService) CreatePost(ctx context.Context, ownerID uuid.UUID, params CreatePostParams) (*model.Post, error) {
	if err := validateCaption(params.Caption); err != nil {
		return nil, err
	}
	if err := validatePrice(params.Price); err != nil {
		return nil, err
	}
	if err := validateImages(params.Images); err != nil {
		return nil, err
	}

	post := &model.Post{
		UserID:  ownerID,
		Caption: strings.TrimSpace(params.Caption),
		Price:   params.Price,
	}
	if err := p.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	if len(params.Images) > 0 {
		images, err := p.saveImages(ctx, post, params.Images)
		if err == nil {
			err = p.posts.AddPostImages(ctx, post.ID, images)
			if err != nil {
				p.removeFiles(ctx, images)
			}
		}
		if err != nil {
			if delErr := p.posts.DeletePost(ctx, post.ID); delErr != nil {
				p.logger.Error().Err(delErr).Uint("post_id", post.ID).Msg("failed to roll back post")
			}
			return nil, err
		}
	}

	return p.GetPost(ctx, post.ID)
}

func (p *PostService) UpdatePost(ctx context.Context, ownerID uuid.UUID, id uint, params UpdatePostParams) (*model.Post, error) {
	post, err := p.ownedPost(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if params.Caption != nil {
		if err := validateCaption(*params.Caption); err != nil {
			return nil, err
		}
		post.Caption = strings.TrimSpace(*params.Caption)
	}
	if params.Price != nil {
		if err := validatePrice(*params.Price); err != nil {
			return nil, err
		}
		post.Price = *params.Price
	}
	if err := validateImages(params.Images); err != nil {
		return nil, err
	}

	// 圖片檔先寫入, DB 更新失敗時刪掉新檔, 成功後才刪舊檔
	var images []model.PostImage
	if len(params.Images) > 0 {
		images, err = p.saveImages(ctx, post, params.Images)
		if err != nil {
			return nil, err
		}
	}

	old, err := p.posts.UpdatePostWithImages(ctx, post, images)
	if err != nil {
		p.removeFiles(ctx, images)
		return nil, err
	}
	p.removeFiles(ctx, old)

	return p.GetPost(ctx, post.ID)
}

// DeletePost 刪除 post 後一併刪除圖片檔
func (p *PostService) DeletePost(ctx context.Context, ownerID uuid.UUID, id uint) error {
	post, err := p.ownedPost(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := p.posts.DeletePost(ctx, post.ID); err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	p.removeFiles(ctx, post.Images)
	return nil
}

var _ IPostService = (*PostService)(nil)
