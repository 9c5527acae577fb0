package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/internal/rest/response"
)

type linksHandler struct {
	Service domain.LinksUsecase
}

func NewLinksHandler(svc domain.LinksUsecase) *linksHandler {
	return &linksHandler{
		Service: svc,
	}
}

func (h *linksHandler) Summary(c *gin.Context) {
	params := domain.ParsePackageParam(c.Param("pkg"))

	summary, err := h.Service.Summary(c.Request.Context(), params.PackageName)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.NewLinkSummaryFromDomain(summary))
}
