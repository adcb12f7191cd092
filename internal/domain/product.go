package domain

import (
	"time"
)

// Product representa o item principal do catálogo (a Entidade).
// O controle de estoque é feito por lote em StockRecord; o catálogo
// guarda apenas os atributos comerciais.
type Product struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"` // Código único de referência do produto
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductFilter define os parâmetros de busca e paginação do catálogo.
type ProductFilter struct {
	Page       int
	Limit      int
	Name       string
	Reference  string
	ActiveOnly bool
}
