package domain

import "time"

// As dimensões do diretório de posições físicas (local, seção, prateleira,
// corredor) são dados de referência estáticos: somente leitura do ponto de
// vista deste subsistema, alimentados por migração/seed.

// Location representa um local físico (depósito, loja).
type Location struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Section representa uma seção dentro de um local.
type Section struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Shelf representa uma prateleira.
type Shelf struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Corridor representa um corredor.
type Corridor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Directory agrega as quatro listas de referência em uma única leitura.
type Directory struct {
	Locations []Location `json:"locations"`
	Sections  []Section  `json:"sections"`
	Shelves   []Shelf    `json:"shelves"`
	Corridors []Corridor `json:"corridors"`
}
