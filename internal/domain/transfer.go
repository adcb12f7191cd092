package domain

import "time"

// Transfer é o registro imutável de auditoria de uma movimentação de
// quantidade entre alocações. Criado atomicamente com as mutações que
// representa; nunca alterado ou removido. As tags JSON seguem o contrato
// externo original (id_produto, id_funcionario, ...).
type Transfer struct {
	ID                      string    `json:"id"`
	ProductID               string    `json:"id_produto"`
	EmployeeID              string    `json:"id_funcionario"`
	DestinationAllocationID string    `json:"id_produtoLocalizacao"`
	TransferredAt           time.Time `json:"dataTransferencia"`
	QuantityTransferred     int       `json:"quantidadeTransferida"`
}

// TransferRequest é o payload de uma transferência: mover Quantity unidades
// do produto a partir da alocação de origem para a posição de destino.
type TransferRequest struct {
	ProductID        string         `json:"product_id"`
	FromAllocationID string         `json:"from_allocation_id"`
	To               PlacementTuple `json:"to"`
	Quantity         int            `json:"quantity"`
}

// TransferResult devolve ao chamador o estado final observável após uma
// transferência bem-sucedida: o registro de auditoria, origem e destino
// atualizados e a lista completa de alocações do produto, relida.
type TransferResult struct {
	Transfer    Transfer     `json:"transfer"`
	Source      Allocation   `json:"source"`
	Destination Allocation   `json:"destination"`
	Allocations []Allocation `json:"allocations"`
}
