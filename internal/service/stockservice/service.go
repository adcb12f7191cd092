package stockservice

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
)

// StockRepository define o contrato que o Serviço de Estoque espera da
// camada de Persistência.
type StockRepository interface {
	ApplyEntry(ctx context.Context, entry domain.StockEntry) (domain.StockRecord, error)
	GetStockByProduct(ctx context.Context, productID string) (domain.StockSummary, error)
	GetStockTotalByProduct(ctx context.Context, productID string) (int, error)
	DeleteRecord(ctx context.Context, id string) error
}

// Service implementa o Livro de Estoque: registra entradas e saídas por
// (produto, lote) e expõe o total autoritativo que limita as alocações.
type Service struct {
	repo   StockRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo StockRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RegisterEntry valida e aplica uma entrada (ou saída, quantidade negativa)
// de estoque. Entradas do mesmo (produto, lote) acumulam no registro existente.
func (s *Service) RegisterEntry(ctx context.Context, entry domain.StockEntry) (domain.StockRecord, error) {
	s.logger.Debug("Iniciando registro de entrada de estoque no serviço.", map[string]interface{}{
		"product_id": entry.ProductID,
		"lot":        entry.Lot,
		"quantity":   entry.Quantity,
	})

	fields := map[string]string{}
	if entry.ProductID == "" {
		fields["product_id"] = "O produto é obrigatório."
	} else if _, err := uuid.Parse(entry.ProductID); err != nil {
		fields["product_id"] = "O ID do produto deve ser um UUID válido."
	}
	entry.Lot = strings.TrimSpace(entry.Lot)
	if entry.Lot == "" {
		fields["lot"] = "O lote é obrigatório."
	}
	if entry.Quantity == 0 {
		fields["quantity"] = "A quantidade da entrada não pode ser zero."
	}
	if len(fields) > 0 {
		s.logger.Warn("Validação de entrada de estoque falhou.", map[string]interface{}{"fields": fields})
		return domain.StockRecord{}, apperror.NewFieldValidationError(fields)
	}

	record, err := s.repo.ApplyEntry(ctx, entry)
	if err != nil {
		s.logger.Error("Falha ao aplicar entrada de estoque no repositório.", err)
		return domain.StockRecord{}, err
	}

	s.logger.Info("Entrada de estoque registrada com sucesso.", map[string]interface{}{
		"record_id":        record.ID,
		"product_id":       record.ProductID,
		"lot":              record.Lot,
		"quantity_on_hand": record.QuantityOnHand,
	})
	return record, nil
}

// GetStockByProduct busca a visão consolidada do estoque de um produto.
func (s *Service) GetStockByProduct(ctx context.Context, productID string) (domain.StockSummary, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return domain.StockSummary{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	return s.repo.GetStockByProduct(ctx, productID)
}

// DeleteRecord remove um registro de estoque zerado. Registros com
// quantidade em mãos são protegidos: ajuste a quantidade a zero antes.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	s.logger.Debug("Iniciando exclusão de registro de estoque no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do registro deve ser um UUID válido.")
	}

	if err := s.repo.DeleteRecord(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar registro de estoque no repositório.", err)
		return err
	}

	s.logger.Info("Registro de estoque deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}
