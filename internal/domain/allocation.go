package domain

import "time"

// Allocation representa "N unidades do produto P fisicamente na posição
// local/seção/prateleira/corredor". A tupla (product_id, location_id,
// section_id, shelf_id, corridor_id) é única: duplicatas são fundidas
// (quantidades somadas), nunca coexistem.
type Allocation struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	LocationID      string    `json:"location_id"`
	SectionID       string    `json:"section_id"`
	ShelfID         string    `json:"shelf_id"`
	CorridorID      string    `json:"corridor_id"`
	Quantity        int       `json:"quantity"`
	MinimumQuantity int       `json:"minimum_quantity"`
	AtMinimum       bool      `json:"at_minimum"` // Derivado na leitura; nunca bloqueia operações
	Version         int       `json:"version"`    // Para Controle de Concorrência Otimista (OCC)
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FlagMinimum calcula o sinalizador consultivo de estoque mínimo.
// A camada de apresentação sinaliza (não bloqueia) alocações no limite.
func (a *Allocation) FlagMinimum() {
	a.AtMinimum = a.Quantity <= a.MinimumQuantity
}

// Tuple retorna a posição física da alocação.
func (a *Allocation) Tuple() PlacementTuple {
	return PlacementTuple{
		LocationID: a.LocationID,
		SectionID:  a.SectionID,
		ShelfID:    a.ShelfID,
		CorridorID: a.CorridorID,
	}
}

// PlacementTuple identifica uma posição física completa.
type PlacementTuple struct {
	LocationID string `json:"location_id"`
	SectionID  string `json:"section_id"`
	ShelfID    string `json:"shelf_id"`
	CorridorID string `json:"corridor_id"`
}

// Complete informa se todos os campos da posição foram preenchidos.
func (t PlacementTuple) Complete() bool {
	return t.LocationID != "" && t.SectionID != "" && t.ShelfID != "" && t.CorridorID != ""
}

// AllocationInput é o payload de criação/edição de uma alocação.
type AllocationInput struct {
	ProductID       string `json:"product_id"`
	LocationID      string `json:"location_id"`
	SectionID       string `json:"section_id"`
	ShelfID         string `json:"shelf_id"`
	CorridorID      string `json:"corridor_id"`
	Quantity        int    `json:"quantity"`
	MinimumQuantity int    `json:"minimum_quantity"`
}

// Tuple retorna a posição física do payload.
func (in AllocationInput) Tuple() PlacementTuple {
	return PlacementTuple{
		LocationID: in.LocationID,
		SectionID:  in.SectionID,
		ShelfID:    in.ShelfID,
		CorridorID: in.CorridorID,
	}
}

// AllocationBalance é o resultado de computeRemaining: total de estoque,
// total alocado e o restante disponível para novas alocações.
type AllocationBalance struct {
	StockTotal     int `json:"stock_total"`
	AllocatedTotal int `json:"allocated_total"`
	Remaining      int `json:"remaining"`
}

// AllocationValidation agrega o resultado da validação de uma alocação.
// Todos os campos inválidos são coletados juntos (sem curto-circuito),
// para que a camada de apresentação exiba todos os erros de uma vez.
type AllocationValidation struct {
	Valid   bool              `json:"valid"`
	Fields  map[string]string `json:"fields,omitempty"`
	NoStock bool              `json:"no_stock"`
	Excess  int               `json:"excess"` // Unidades além do estoque total, quando houver
	Balance AllocationBalance `json:"balance"`
}
