package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/internal/rest/middleware"
	"github.com/Guyuepp/package-likes/internal/rest/request"
	"github.com/Guyuepp/package-likes/internal/rest/response"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// LikeHandler represent the httphandler for package likes
type LikeHandler struct {
	Service domain.LikeUsecase
}

func NewLikeHandler(svc domain.LikeUsecase) *LikeHandler {
	return &LikeHandler{
		Service: svc,
	}
}

// GetStatus will get the likes of the package in the path, and whether the caller liked it
func (h *LikeHandler) GetStatus(c *gin.Context) {
	params := domain.ParsePackageParam(c.Param("pkg"))
	if !domain.IsValidPackageName(params.PackageName) {
		c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
		return
	}

	var did string
	if caller, ok := middleware.CallerFrom(c); ok {
		did = caller.DID
	}

	status, err := h.Service.GetStatus(c.Request.Context(), params.PackageName, did)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewPackageLikesFromDomain(status))
}

// Like will like the package in the request body for the caller
func (h *LikeHandler) Like(c *gin.Context) {
	h.toggle(c, h.Service.Like)
}

// Unlike will remove the caller's like of the package in the request body
func (h *LikeHandler) Unlike(c *gin.Context) {
	h.toggle(c, h.Service.Unlike)
}

func (h *LikeHandler) toggle(c *gin.Context, action func(context.Context, string, domain.Caller) (domain.PackageLikes, error)) {
	var req request.PackageLike
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ResponseError{Message: domain.ErrUnauthorized.Error()})
		return
	}

	status, err := action(c.Request.Context(), req.PackageName, caller)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewPackageLikesFromDomain(status))
}

// getStatusCode will get the code of the error from the usecases
func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	logrus.Error(err)
	switch {
	case errors.Is(err, domain.ErrBadParamInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrWriteRejected):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIndexUnavailable), errors.Is(err, domain.ErrRecordStoreUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
