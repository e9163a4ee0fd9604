package handlers

import (
	"net/http"
	"strconv"

	"factura/internal/common"
	"factura/internal/models"
	"factura/internal/services"

	"github.com/labstack/echo/v4"
)

// CustomerHandlers handles HTTP requests for customers
type CustomerHandlers struct {
	customerService services.CustomerService
}

// NewCustomerHandlers creates a new customer handlers instance
func NewCustomerHandlers(customerService services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customerService: customerService}
}

// CreateCustomer handles POST /customers
func (h *CustomerHandlers) CreateCustomer(c echo.Context) error {
	ctx := c.Request().Context()

	customer := &models.Customer{}
	if err := c.Bind(customer); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := common.ValidateRequiredString(customer.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	if err := h.customerService.CreateCustomer(ctx, customer); err != nil {
		return common.SendServerError(c, common.SecureErrorMessage("create customer", err).Error())
	}

	return c.JSON(http.StatusCreated, customer)
}

// GetCustomer handles GET /customers/:id
func (h *CustomerHandlers) GetCustomer(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	customer, err := h.customerService.GetCustomer(ctx, id)
	if err != nil {
		return common.SendNotFoundError(c, "customer")
	}

	return c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles PUT /customers/:id
func (h *CustomerHandlers) UpdateCustomer(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	customer := &models.Customer{}
	if err := c.Bind(customer); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	customer.ID = id

	if err := common.ValidateRequiredString(customer.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	if err := h.customerService.UpdateCustomer(ctx, customer); err != nil {
		return common.SendServerError(c, common.SecureErrorMessage("update customer", err).Error())
	}

	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /customers/:id
func (h *CustomerHandlers) DeleteCustomer(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.customerService.DeleteCustomer(ctx, id); err != nil {
		return common.SendServerError(c, common.SecureErrorMessage("delete customer", err).Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// ListCustomers handles GET /customers
func (h *CustomerHandlers) ListCustomers(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	customers, err := h.customerService.ListCustomers(ctx, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list customers")
	}

	return c.JSON(http.StatusOK, customers)
}
