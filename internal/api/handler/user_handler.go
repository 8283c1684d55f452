package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/storage"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/RoyceAzure/rj/api"
	er "github.com/RoyceAzure/rj/util/rj_error"
)

type UserHandler struct {
	userService service.IUserService
	url         urlFunc
}

func NewUserHandler(userService service.IUserService, fileStorage storage.FileStorage) *UserHandler {
	if userService == nil {
		panic("userService cannot be nil")
	}
	return &UserHandler{
		userService: userService,
		url:         fileStorage.URL,
	}
}

// @Summary register
// @Tags users
// @Accept json
// @Produce json
// @Param user body dto.RegisterDTO true "register info"
// @Success 200 {object} api.Response{data=dto.UserDTO} "success"
// @Failure 460 {object} api.ResponseError{data=string} "InvalidArgumentCode"
// @Router /users/register [post]
func (u *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerDTO dto.RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&registerDTO); err != nil {
		api.ErrorJSON(w, int(er.BadRequestCode), nil, er.ErrStrMap[er.BadRequestCode])
		return
	}

	user, err := u.userService.Register(r.Context(), service.RegisterParams{
		Username:  registerDTO.Username,
		Email:     registerDTO.Email,
		Password:  registerDTO.Password,
		FirstName: registerDTO.FirstName,
		LastName:  registerDTO.LastName,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertUserModelToDTO(user, u.url), nil)
}

// @Summary account and password login
// @Tags users
// @Accept json
// @Produce json
// @Param accountInfo body dto.LoginDTO true "username and password"
// @Success 200 {object} api.Response{data=dto.LoginResponse} "success"
// @Failure 401 {object} api.ResponseError{data=string} "UnauthenticatedCode"
// @Router /users/login [post]
func (u *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginDTO dto.LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&loginDTO); err != nil {
		api.ErrorJSON(w, int(er.BadRequestCode), nil, er.ErrStrMap[er.BadRequestCode])
		return
	}

	res, err := u.userService.Login(r.Context(), loginDTO.Username, loginDTO.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, dto.LoginResponse{
		AccessToken: dto.TokenInfo{
			Value:     res.AccessToken,
			ExpiresIn: int(time.Until(res.ExpiresAt).Seconds()),
			ExpiresAt: res.ExpiresAt,
		},
		User: convertUserModelToDTO(res.User, u.url),
	}, nil)
}

// @Summary current user profile
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} api.Response{data=dto.UserDTO} "success"
// @Router /users/me [get]
func (u *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := u.userService.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertUserModelToDTO(user, u.url), nil)
}

// @Summary update profile
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param profile body dto.UpdateProfileDTO true "fields to update"
// @Success 200 {object} api.Response{data=dto.UserDTO} "success"
// @Router /users/me [patch]
func (u *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var profileDTO dto.UpdateProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&profileDTO); err != nil {
		api.ErrorJSON(w, int(er.BadRequestCode), nil, er.ErrStrMap[er.BadRequestCode])
		return
	}

	user, err := u.userService.UpdateProfile(r.Context(), userID, service.UpdateProfileParams{
		FirstName:              profileDTO.FirstName,
		LastName:               profileDTO.LastName,
		Bio:                    profileDTO.Bio,
		Phone:                  profileDTO.Phone,
		DeliveryAddress:        profileDTO.DeliveryAddress,
		PreferredPaymentMethod: profileDTO.PreferredPaymentMethod,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertUserModelToDTO(user, u.url), nil)
}

// @Summary upload profile photo
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param photo formData file true "profile photo"
// @Success 200 {object} api.Response{data=dto.UserDTO} "success"
// @Router /users/me/photo [put]
func (u *UserHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		badRequest(w, err)
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequest(w, err)
		return
	}
	defer file.Close()

	user, err := u.userService.UpdateProfilePhoto(r.Context(), userID, service.ImageUpload{
		Filename: header.Filename,
		Content:  file,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertUserModelToDTO(user, u.url), nil)
}
