package handler

import (
	"net/http"

	"retailpos/internal/service"
	"retailpos/pkg/response"

	"github.com/gin-gonic/gin"
)

type BranchHandler struct {
	branchService service.BranchService
	adminOnly     gin.HandlerFunc
}

// NewBranchHandler wires the branch endpoints. adminOnly guards branch
// creation; nil leaves it open to any authenticated user.
func NewBranchHandler(branchService service.BranchService, adminOnly gin.HandlerFunc) *BranchHandler {
	return &BranchHandler{branchService: branchService, adminOnly: adminOnly}
}

func (h *BranchHandler) RegisterRoutes(router *gin.RouterGroup) {
	branches := router.Group("/branches")
	branches.GET("", h.ListBranches)
	if h.adminOnly != nil {
		branches.POST("", h.adminOnly, h.CreateBranch)
	} else {
		branches.POST("", h.CreateBranch)
	}
}

// ListBranches
// @Summary      List branches
// @Tags         branches
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Branch}
// @Router       /api/branches [get]
func (h *BranchHandler) ListBranches(c *gin.Context) {
	branches, err := h.branchService.ListBranches(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, branches))
}

// CreateBranch
// @Summary      Create branch
// @Tags         branches
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBranchRequest  true  "Branch Payload"
// @Success      201      {object}  response.Response{data=model.Branch}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/branches [post]
func (h *BranchHandler) CreateBranch(c *gin.Context) {
	var req service.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	branch, err := h.branchService.CreateBranch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, branch))
}
