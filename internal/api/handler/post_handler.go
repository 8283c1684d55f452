package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/infra/storage"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/RoyceAzure/rj/api"
	er "github.com/RoyceAzure/rj/util/rj_error"
	"github.com/shopspring/decimal"
)

type PostHandler struct {
	postService service.IPostService
	url         urlFunc
}

func NewPostHandler(postService service.IPostService, fileStorage storage.FileStorage) *PostHandler {
	if postService == nil {
		panic("postService cannot be nil")
	}
	return &PostHandler{
		postService: postService,
		url:         fileStorage.URL,
	}
}

// @Summary list posts
// @Tags posts
// @Produce json
// @Param search query string false "caption or username"
// @Param sort query string false "created_at, -created_at, price, -price"
// @Param page query int false "page, start from 1"
// @Param page_size query int false "page size, max 100"
// @Success 200 {object} api.Response{data=dto.PostPageDTO} "success"
// @Router /posts [get]
func (p *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := p.postService.ListPosts(r.Context(), service.PostQuery{
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
		Page:     intQuery(r, "page"),
		PageSize: intQuery(r, "page_size"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertPostPageToDTO(page, p.url), nil)
}

// @Summary get post
// @Tags posts
// @Produce json
// @Param id path int true "post id"
// @Success 200 {object} api.Response{data=dto.PostDTO} "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /posts/{id} [get]
func (p *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := uintURLParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	post, err := p.postService.GetPost(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertPostModelToDTO(post, p.url), nil)
}

// @Summary create post
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param caption formData string true "caption"
// @Param price formData string true "price"
// @Param images formData file false "images"
// @Success 200 {object} api.Response{data=dto.PostDTO} "success"
// @Router /posts [post]
func (p *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := parseForm(r); err != nil {
		badRequest(w, err)
		return
	}

	price, err := parsePrice(formValue(r, "price"))
	if err != nil || price == nil {
		api.ErrorJSON(w, int(er.InvalidArgumentCode), er.New(er.InvalidArgumentCode, "invalid price"), er.ErrStrMap[er.InvalidArgumentCode])
		return
	}

	images, closeAll, err := openImages(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	defer closeAll()

	caption := ""
	if c := formValue(r, "caption"); c != nil {
		caption = *c
	}

	post, err := p.postService.CreatePost(r.Context(), userID, service.CreatePostParams{
		Caption: caption,
		Price:   *price,
		Images:  images,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertPostModelToDTO(post, p.url), nil)
}

// @Summary update post
// @Description 有上傳 images 時整批取代原有圖片
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "post id"
// @Param caption formData string false "caption"
// @Param price formData string false "price"
// @Param images formData file false "images"
// @Success 200 {object} api.Response{data=dto.PostDTO} "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /posts/{id} [patch]
func (p *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id, err := uintURLParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := parseForm(r); err != nil {
		badRequest(w, err)
		return
	}

	price, err := parsePrice(formValue(r, "price"))
	if err != nil {
		api.ErrorJSON(w, int(er.InvalidArgumentCode), er.New(er.InvalidArgumentCode, "invalid price"), er.ErrStrMap[er.InvalidArgumentCode])
		return
	}

	images, closeAll, err := openImages(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	defer closeAll()

	post, err := p.postService.UpdatePost(r.Context(), userID, id, service.UpdatePostParams{
		Caption: formValue(r, "caption"),
		Price:   price,
		Images:  images,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertPostModelToDTO(post, p.url), nil)
}

// @Summary delete post
// @Tags posts
// @Security ApiKeyAuth
// @Param id path int true "post id"
// @Success 204
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /posts/{id} [delete]
func (p *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id, err := uintURLParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := p.postService.DeletePost(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parsePrice 欄位沒帶時回傳 nil
func parsePrice(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	price, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, err
	}
	return &price, nil
}

// openImages 開啟 multipart 的 images 欄位, 呼叫端負責 closeAll
func openImages(r *http.Request) ([]service.ImageUpload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	if r.MultipartForm == nil {
		return nil, closeAll, nil
	}

	headers := r.MultipartForm.File["images"]
	images := make([]service.ImageUpload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		images = append(images, service.ImageUpload{
			Filename: h.Filename,
			Content:  f,
		})
	}
	return images, closeAll, nil
}
