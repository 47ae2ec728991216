package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "ACTIVE"
	ProductDraft    ProductStatus = "DRAFT"
	ProductArchived ProductStatus = "ARCHIVED"
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`

	// CBDRate and THCRate are percentages. THC is capped at 0.3% (EU
	// legal limit) at validation time.
	CBDRate decimal.Decimal `json:"cbdRate"`
	THCRate decimal.Decimal `json:"thcRate"`

	Images   []string `json:"images"`
	Terpenes []string `json:"terpenes"`
	Effects  []string `json:"effects"`

	Featured   bool          `json:"featured"`
	Status     ProductStatus `json:"status"`
	CategoryID uuid.UUID     `json:"categoryId"`
	Category   *Category     `json:"category,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`

	// ProductCount is a derived field, populated on list endpoints.
	ProductCount int `json:"productCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
