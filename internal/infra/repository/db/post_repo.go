package db

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"gorm.io/gorm"
)

type PostSort string

const (
	PostSortCreatedAsc  PostSort = "created_at"
	PostSortCreatedDesc PostSort = "-created_at"
	PostSortPriceAsc    PostSort = "price"
	PostSortPriceDesc   PostSort = "-price"
)

type PostFilter struct {
	Search string
	Sort   PostSort
	Offset int
	Limit  int
}

// IPostRepository Post 相關操作介面
type IPostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id uint) (*model.Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]model.Post, int64, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	ReplacePostImages(ctx context.Context, postID uint, images []model.PostImage) ([]model.PostImage, error)
	UpdatePostWithImages(ctx context.Context, post *model.Post, images []model.PostImage) ([]model.PostImage, error)
	AddPostImages(ctx context.Context, postID uint, images []model.PostImage) error
	DeletePost(ctx context.Context, id uint) error
}

type PostRepo struct {
	db *DbDao
}

func NewPostRepo(db *DbDao) *PostRepo {
	return &PostRepo{db: db}
}

func preloadImages(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, id ASC")
}

func (r *PostRepo) CreatePost(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Omit("User").Create(post).Error
}

func (r *PostRepo) GetPostByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Images", preloadImages).
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &post, nil
}

func (r *PostRepo) filteredPosts(ctx context.Context, search string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Post{})
	if search = strings.TrimSpace(search); search != "" {
		// 不分大小寫, 比對 caption 或作者 username
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.
			Joins("JOIN users ON users.id = posts.user_id").
			Where(`LOWER(posts.caption) LIKE ? ESCAPE '\' OR LOWER(users.username) LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 搜尋字串內的 % 與 _ 視為一般字元
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func orderClause(sort PostSort) string {
	switch sort {
	case PostSortCreatedAsc:
		return "posts.created_at ASC, posts.id ASC"
	case PostSortPriceAsc:
		return "posts.price ASC, posts.id ASC"
	case PostSortPriceDesc:
		return "posts.price DESC, posts.id DESC"
	default:
		return "posts.created_at DESC, posts.id DESC"
	}
}

// 分頁查詢, 回傳該頁資料與符合條件的總數
func (r *PostRepo) ListPosts(ctx context.Context, filter PostFilter) ([]model.Post, int64, error) {
	var total int64
	if err := r.filteredPosts(ctx, filter.Search).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []model.Post
	err := r.filteredPosts(ctx, filter.Search).
		Select("posts.*").
		Preload("User").
		Preload("Images", preloadImages).
		Order(orderClause(filter.Sort)).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepo) UpdatePost(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Model(post).
		Select("Caption", "Price").
		Updates(post).Error
}

// UpdatePostWithImages caption/price 與圖片在同一個 transaction 內更新
// images 為 nil 時不動圖片, 回傳被取代的舊圖片
func (r *PostRepo) UpdatePostWithImages(ctx context.Context, post *model.Post, images []model.PostImage) ([]model.PostImage, error) {
	var old []model.PostImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Select("Caption", "Price").Updates(post).Error; err != nil {
			return err
		}
		if images == nil {
			return nil
		}
		var err error
		old, err = replaceImages(tx, post.ID, images)
		return err
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}

// 上傳新圖片時整批取代舊圖片
func (r *PostRepo) ReplacePostImages(ctx context.Context, postID uint, images []model.PostImage) ([]model.PostImage, error) {
	var old []model.PostImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		old, err = replaceImages(tx, postID, images)
		return err
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}

func replaceImages(tx *gorm.DB, postID uint, images []model.PostImage) ([]model.PostImage, error) {
	var old []model.PostImage
	if err := tx.Where("post_id = ?", postID).Find(&old).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&model.PostImage{}).Error; err != nil {
		return nil, err
	}
	if err := createImages(tx, postID, images); err != nil {
		return nil, err
	}
	return old, nil
}

func (r *PostRepo) AddPostImages(ctx context.Context, postID uint, images []model.PostImage) error {
	return createImages(r.db.WithContext(ctx), postID, images)
}

func createImages(tx *gorm.DB, postID uint, images []model.PostImage) error {
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].PostID = postID
	}
	return tx.Create(&images).Error
}

func (r *PostRepo) DeletePost(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
