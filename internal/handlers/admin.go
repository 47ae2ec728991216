package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/services"
)

const defaultAdminOrderLimit = 100

func (h *Handlers) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	limit := defaultAdminOrderLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.respondError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	orders, err := h.adminService.ListOrders(r.Context(), limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, orders)
}

type updateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

func (h *Handlers) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateOrderStatusRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.adminService.UpdateOrderStatus(r.Context(), orderID, req.Status)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, order)
}

func (h *Handlers) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, users)
}

func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, stats)
}

type productRequest struct {
	Name        string               `json:"name"`
	Slug        string               `json:"slug,omitempty"`
	Description string               `json:"description"`
	Price       decimal.Decimal      `json:"price"`
	Stock       int                  `json:"stock"`
	CBDRate     decimal.Decimal      `json:"cbdRate"`
	THCRate     decimal.Decimal      `json:"thcRate"`
	Images      []string             `json:"images,omitempty"`
	Terpenes    []string             `json:"terpenes,omitempty"`
	Effects     []string             `json:"effects,omitempty"`
	Featured    bool                 `json:"featured"`
	Status      models.ProductStatus `json:"status,omitempty"`
	CategoryID  string               `json:"categoryId"`
}

func (req *productRequest) toInput() (services.ProductInput, error) {
	categoryID := uuid.Nil
	if req.CategoryID != "" {
		parsed, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return services.ProductInput{}, err
		}
		categoryID = parsed
	}

	return services.ProductInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CBDRate:     req.CBDRate,
		THCRate:     req.THCRate,
		Images:      req.Images,
		Terpenes:    req.Terpenes,
		Effects:     req.Effects,
		Featured:    req.Featured,
		Status:      req.Status,
		CategoryID:  categoryID,
	}, nil
}

func (h *Handlers) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListAllProducts(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, products)
}

func (h *Handlers) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid category id")
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), input)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, product)
}

func (h *Handlers) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid category id")
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), productID, input)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, product)
}

func (h *Handlers) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), productID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

func (h *Handlers) AdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), req.Name, req.Description, req.Image)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, category)
}
