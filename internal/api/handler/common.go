package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/RoyceAzure/lab/marketplace/internal/util"
	"github.com/RoyceAzure/rj/api"
	er "github.com/RoyceAzure/rj/util/rj_error"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// writeServiceError 把 service 的 sentinel error 轉成 rj_error code
func writeServiceError(w http.ResponseWriter, err error) {
	var anaErr *er.AnaError
	switch {
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrUserNotFound):
		api.ErrorJSON(w, int(er.NotFoundCode), err, er.ErrStrMap[er.NotFoundCode])
	case errors.Is(err, service.ErrInvalidArgument):
		api.ErrorJSON(w, int(er.InvalidArgumentCode), err, er.ErrStrMap[er.InvalidArgumentCode])
	case errors.Is(err, service.ErrCartEmpty):
		api.ErrorJSON(w, int(er.BadRequestCode), err, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		api.ErrorJSON(w, int(er.UnauthenticatedCode), err, er.ErrStrMap[er.UnauthenticatedCode])
	case errors.Is(err, service.ErrUserAlreadyExists):
		api.ErrorJSON(w, int(er.InvalidOperationCode), err, er.ErrStrMap[er.InvalidOperationCode])
	case errors.As(err, &anaErr):
		api.ErrorJSON(w, int(anaErr.Code), anaErr, er.ErrStrMap[anaErr.Code])
	default:
		api.ErrorJSON(w, int(er.InternalErrorCode), err, er.ErrStrMap[er.InternalErrorCode])
	}
}

func badRequest(w http.ResponseWriter, err error) {
	api.ErrorJSON(w, int(er.BadRequestCode), err, er.ErrStrMap[er.BadRequestCode])
}

// requireUserID 路由已經過 AuthMiddleware, 這裡只是保險
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := util.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), er.New(er.UnauthenticatedCode, "unauthenticated"), er.ErrStrMap[er.UnauthenticatedCode])
		return uuid.Nil, false
	}
	return userID, true
}

func uintURLParam(r *http.Request, name string) (uint, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || v == 0 {
		return 0, er.New(er.BadRequestCode, "invalid "+name)
	}
	return uint(v), nil
}

func intQuery(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

// parseForm multipart 與 urlencoded 都接受
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(constants.MaxUploadBytes)
	}
	return r.ParseForm()
}

// formValue 回傳 nil 代表欄位沒帶
func formValue(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
