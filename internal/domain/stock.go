package domain

import "time"

// StockRecord representa a quantidade total em mãos de um produto por lote.
// É a fonte autoritativa do total de estoque: as alocações (Allocation)
// distribuem esse total entre posições físicas, nunca o excedem.
// Um registro nunca é removido enquanto quantity_on_hand > 0.
type StockRecord struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	Lot            string    `json:"lot"`
	ExpiryDate     time.Time `json:"expiry_date"`
	QuantityOnHand int       `json:"quantity_on_hand"`
	Version        int       `json:"version"` // Para Controle de Concorrência Otimista (OCC)
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StockEntry é o payload de uma entrada de estoque. Entradas do mesmo
// (produto, lote) acumulam no StockRecord existente; quantidades negativas
// representam ajustes de saída e não podem deixar o total do produto
// abaixo da soma já alocada.
type StockEntry struct {
	ProductID  string    `json:"product_id"`
	Lot        string    `json:"lot"`
	ExpiryDate time.Time `json:"expiry_date"`
	Quantity   int       `json:"quantity"`
}

// StockSummary é a visão consolidada do estoque de um produto,
// no formato que o restante do sistema consome ({ quantidade_atual }).
type StockSummary struct {
	ProductID       string        `json:"product_id"`
	QuantidadeAtual int           `json:"quantidade_atual"`
	Records         []StockRecord `json:"records"`
}
