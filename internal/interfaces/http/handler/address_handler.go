package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apppartner "github.com/wcpa/backend/internal/application/partner"
	"github.com/wcpa/backend/internal/domain/partner"
	"github.com/wcpa/backend/internal/interfaces/http/dto"
)

// AddressHandler handles the address-book API
type AddressHandler struct {
	BaseHandler
	service *apppartner.AddressService
	logger  *zap.Logger
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(service *apppartner.AddressService, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{service: service, logger: logger}
}

// AddressRequest is the payload for creating or updating an address
type AddressRequest struct {
	UserID     string `json:"userId" binding:"required"`
	Type       string `json:"type" binding:"required,oneof=shipping billing both"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"omitempty,iso3166_1_alpha2"`
	IsDefault  bool   `json:"isDefault"`
}

// AddressResponse is the API shape of an address
type AddressResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Type       string    `json:"type"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country,omitempty"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toAddressResponse(a *partner.Address) AddressResponse {
	return AddressResponse{
		ID:         a.ID.String(),
		UserID:     a.UserID,
		Type:       string(a.Type),
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func (r AddressRequest) toCommand() apppartner.AddressCommand {
	return apppartner.AddressCommand{
		UserID:     r.UserID,
		Type:       r.Type,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		IsDefault:  r.IsDefault,
	}
}

// List handles GET /addresses?userId=
func (h *AddressHandler) List(c *gin.Context) {
	userID := c.Query("userId")

	addresses, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]AddressResponse, len(addresses))
	for i := range addresses {
		responses[i] = toAddressResponse(&addresses[i])
	}
	h.Success(c, responses)
}

// Create handles POST /addresses
func (h *AddressHandler) Create(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.FormatBindingError(err))
		return
	}

	address, err := h.service.Add(c.Request.Context(), req.toCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toAddressResponse(address))
}

// Update handles PUT /addresses/:id
func (h *AddressHandler) Update(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid address ID")
		return
	}
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.FormatBindingError(err))
		return
	}

	id := uuid.MustParse(idReq.ID)
	address, err := h.service.Update(c.Request.Context(), id, req.toCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAddressResponse(address))
}

// Delete handles DELETE /addresses/:id?userId=
func (h *AddressHandler) Delete(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid address ID")
		return
	}

	id := uuid.MustParse(idReq.ID)
	if err := h.service.Remove(c.Request.Context(), c.Query("userId"), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SetDefault handles POST /addresses/:id/default
func (h *AddressHandler) SetDefault(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid address ID")
		return
	}
	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.FormatBindingError(err))
		return
	}

	id := uuid.MustParse(idReq.ID)
	address, err := h.service.SetDefault(c.Request.Context(), req.UserID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAddressResponse(address))
}
