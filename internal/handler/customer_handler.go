package handler

import (
	"net/http"

	"retailpos/internal/service"
	"retailpos/pkg/response"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService service.CustomerService
}

func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/customers/by-phone/:phone", h.GetCustomerByPhone)
}

// GetCustomerByPhone looks up a customer and their point balance at the till
// @Summary      Find customer by phone
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        phone  path      string  true  "Phone number"
// @Success      200    {object}  response.Response{data=model.Customer}
// @Failure      404    {object}  response.Response
// @Router       /api/customers/by-phone/{phone} [get]
func (h *CustomerHandler) GetCustomerByPhone(c *gin.Context) {
	customer, err := h.customerService.GetCustomerByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}
