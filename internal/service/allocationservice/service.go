package allocationservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
)

// AllocationRepository define o contrato que o Serviço de Alocações espera da camada de Persistência.
type AllocationRepository interface {
	Create(ctx context.Context, allocation domain.Allocation) (domain.Allocation, error)
	Update(ctx context.Context, allocation domain.Allocation) (domain.Allocation, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (domain.Allocation, error)
	FindAll(ctx context.Context) ([]domain.Allocation, error)
	FindByProduct(ctx context.Context, productID string) ([]domain.Allocation, error)
	FindByTuple(ctx context.Context, productID string, tuple domain.PlacementTuple, excludeID string) (domain.Allocation, error)
	SumQuantityByProduct(ctx context.Context, productID string, excludeID string) (int, error)
	FindBelowMinimum(ctx context.Context) ([]domain.Allocation, error)
}

// StockReader é a visão somente-leitura do Livro de Estoque que o
// Reconciliador precisa: o total autoritativo por produto.
type StockReader interface {
	GetStockTotalByProduct(ctx context.Context, productID string) (int, error)
}

// Service implementa o Reconciliador de Alocações: valida e calcula os
// totais derivados antes de qualquer mutação de alocação ser persistida,
// garantindo que a soma das alocações nunca exceda o estoque total.
type Service struct {
	repo   AllocationRepository
	stock  StockReader
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Alocações.
func NewService(repo AllocationRepository, stock StockReader, logger logger.Logger) *Service {
	return &Service{repo: repo, stock: stock, logger: logger}
}

// ComputeRemaining calcula, para um produto, o estoque total, o total já
// alocado (opcionalmente excluindo a alocação em edição) e o restante.
func (s *Service) ComputeRemaining(ctx context.Context, productID string, excludeAllocationID string) (domain.AllocationBalance, error) {
	s.logger.Debug("Iniciando ComputeRemaining no serviço.", map[string]interface{}{
		"product_id": productID,
		"exclude_id": excludeAllocationID,
	})

	stockTotal, err := s.stock.GetStockTotalByProduct(ctx, productID)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			// Produto sem registro de estoque: distinto de sobre-alocação.
			return domain.AllocationBalance{}, apperror.NewNoStockError(productID)
		}
		s.logger.Error("Falha ao ler o estoque total do produto.", err)
		return domain.AllocationBalance{}, err
	}

	allocatedTotal, err := s.repo.SumQuantityByProduct(ctx, productID, excludeAllocationID)
	if err != nil {
		s.logger.Error("Falha ao somar alocações do produto.", err)
		return domain.AllocationBalance{}, err
	}

	balance := domain.AllocationBalance{
		StockTotal:     stockTotal,
		AllocatedTotal: allocatedTotal,
		Remaining:      stockTotal - allocatedTotal,
	}
	s.logger.Debug("ComputeRemaining concluído.", map[string]interface{}{
		"product_id": productID,
		"stock":      balance.StockTotal,
		"allocated":  balance.AllocatedTotal,
		"remaining":  balance.Remaining,
	})
	return balance, nil
}

// Validate verifica uma alocação nova ou editada contra o snapshot corrente
// de estoque e alocações. Todos os campos inválidos são coletados juntos
// (sem curto-circuito). Retorna erro apenas em falha de leitura/transporte;
// falhas esperadas de validação são descritas no resultado.
func (s *Service) Validate(ctx context.Context, input domain.AllocationInput, excludeAllocationID string) (domain.AllocationValidation, error) {
	result := domain.AllocationValidation{Fields: map[string]string{}}

	// 1. Campos obrigatórios da posição
	if input.ProductID == "" {
		result.Fields["product_id"] = "O produto é obrigatório."
	}
	if input.LocationID == "" {
		result.Fields["location_id"] = "O local é obrigatório."
	}
	if input.SectionID == "" {
		result.Fields["section_id"] = "A seção é obrigatória."
	}
	if input.ShelfID == "" {
		result.Fields["shelf_id"] = "A prateleira é obrigatória."
	}
	if input.CorridorID == "" {
		result.Fields["corridor_id"] = "O corredor é obrigatório."
	}

	// 2. Quantidades
	if input.Quantity <= 0 {
		result.Fields["quantity"] = "A quantidade deve ser maior que zero."
	}
	if input.MinimumQuantity < 0 {
		result.Fields["minimum_quantity"] = "A quantidade mínima não pode ser negativa."
	} else if input.Quantity > 0 && input.Quantity < input.MinimumQuantity {
		result.Fields["minimum_quantity"] = "A quantidade deve ser maior ou igual à quantidade mínima."
	}

	// 3. Estoque disponível (somente com produto informado)
	if input.ProductID != "" {
		balance, err := s.ComputeRemaining(ctx, input.ProductID, excludeAllocationID)
		if err != nil {
			var noStock *apperror.NoStockError
			if errors.As(err, &noStock) {
				result.NoStock = true
				result.Fields["product_id"] = "Produto não possui estoque registrado."
			} else {
				// Falha de leitura: propagada, não é resultado de validação.
				return domain.AllocationValidation{}, err
			}
		} else {
			result.Balance = balance
			if balance.StockTotal == 0 {
				result.NoStock = true
				result.Fields["product_id"] = "Produto com estoque total zerado."
			} else if input.Quantity > 0 {
				if after := balance.AllocatedTotal + input.Quantity; after > balance.StockTotal {
					result.Excess = after - balance.StockTotal
					result.Fields["quantity"] = fmt.Sprintf(
						"Alocações excederiam o estoque total em %d unidade(s).", result.Excess)
				}
			}
		}
	}

	result.Valid = len(result.Fields) == 0
	if result.Valid {
		result.Fields = nil
	}
	return result, nil
}

// invalidationError converte um resultado inválido no erro tipado adequado:
// NoStockError e OverAllocationError têm identidade própria na taxonomia;
// o restante vira um FieldValidationError com o mapa completo.
func invalidationError(input domain.AllocationInput, v domain.AllocationValidation) error {
	if v.NoStock {
		return apperror.NewNoStockError(input.ProductID)
	}
	if v.Excess > 0 && len(v.Fields) == 1 {
		return apperror.NewOverAllocationError(input.ProductID, v.Excess)
	}
	return apperror.NewFieldValidationError(v.Fields)
}

// Create valida e persiste uma nova alocação. Se já existir alocação do
// produto na mesma posição, as duas são fundidas: quantidades somadas e
// quantidade mínima elevada ao maior valor (upsert por fusão).
func (s *Service) Create(ctx context.Context, input domain.AllocationInput) (domain.Allocation, error) {
	s.logger.Debug("Iniciando criação de alocação no serviço.", map[string]interface{}{
		"product_id": input.ProductID,
		"quantity":   input.Quantity,
	})

	validation, err := s.Validate(ctx, input, "")
	if err != nil {
		return domain.Allocation{}, err
	}
	if !validation.Valid {
		s.logger.Warn("Validação de alocação falhou.", map[string]interface{}{
			"product_id": input.ProductID,
			"fields":     validation.Fields,
		})
		return domain.Allocation{}, invalidationError(input, validation)
	}

	// Fusão vs. criação: a tupla de posição é única por produto.
	duplicate, err := s.repo.FindByTuple(ctx, input.ProductID, input.Tuple(), "")
	if err != nil {
		var notFound *apperror.NotFoundError
		if !errors.As(err, &notFound) {
			s.logger.Error("Falha ao verificar duplicata de posição.", err)
			return domain.Allocation{}, err
		}

		// Sem duplicata: criar nova alocação.
		created, createErr := s.repo.Create(ctx, domain.Allocation{
			ProductID:       input.ProductID,
			LocationID:      input.LocationID,
			SectionID:       input.SectionID,
			ShelfID:         input.ShelfID,
			CorridorID:      input.CorridorID,
			Quantity:        input.Quantity,
			MinimumQuantity: input.MinimumQuantity,
		})
		if createErr != nil {
			s.logger.Error("Falha ao criar alocação no repositório.", createErr)
			return domain.Allocation{}, createErr
		}
		s.logger.Info("Alocação criada com sucesso.", map[string]interface{}{"id": created.ID, "product_id": created.ProductID})
		return created, nil
	}

	// Duplicata encontrada: fundir.
	duplicate.Quantity += input.Quantity
	if input.MinimumQuantity > duplicate.MinimumQuantity {
		duplicate.MinimumQuantity = input.MinimumQuantity
	}
	merged, err := s.repo.Update(ctx, duplicate)
	if err != nil {
		s.logger.Error("Falha ao fundir alocações duplicadas.", err)
		return domain.Allocation{}, err
	}

	s.logger.Info("Alocação fundida com duplicata existente.", map[string]interface{}{
		"id":           merged.ID,
		"product_id":   merged.ProductID,
		"new_quantity": merged.Quantity,
	})
	return merged, nil
}

// Update substitui os campos mutáveis de uma alocação existente.
// Uma edição cuja nova posição colide com OUTRA alocação é rejeitada:
// fundir na edição removeria implicitamente uma alocação não vazia.
func (s *Service) Update(ctx context.Context, id string, input domain.AllocationInput) (domain.Allocation, error) {
	s.logger.Debug("Iniciando atualização de alocação no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		return domain.Allocation{}, apperror.NewValidationError("O ID da alocação deve ser um UUID válido.")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Allocation{}, err // NotFoundError ou DBError
	}
	if input.ProductID == "" {
		input.ProductID = current.ProductID
	}
	if input.ProductID != current.ProductID {
		return domain.Allocation{}, apperror.NewValidationError("Não é permitido mover uma alocação para outro produto.")
	}

	validation, err := s.Validate(ctx, input, id)
	if err != nil {
		return domain.Allocation{}, err
	}
	if !validation.Valid {
		s.logger.Warn("Validação de edição de alocação falhou.", map[string]interface{}{"id": id, "fields": validation.Fields})
		return domain.Allocation{}, invalidationError(input, validation)
	}

	_, err = s.repo.FindByTuple(ctx, input.ProductID, input.Tuple(), id)
	if err == nil {
		return domain.Allocation{}, apperror.NewConflictError("Outra alocação já ocupa esta posição; use uma transferência para consolidar.")
	}
	var notFound *apperror.NotFoundError
	if !errors.As(err, &notFound) {
		s.logger.Error("Falha ao verificar colisão de posição na edição.", err)
		return domain.Allocation{}, err
	}

	current.LocationID = input.LocationID
	current.SectionID = input.SectionID
	current.ShelfID = input.ShelfID
	current.CorridorID = input.CorridorID
	current.Quantity = input.Quantity
	current.MinimumQuantity = input.MinimumQuantity

	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		s.logger.Error("Falha ao atualizar alocação no repositório.", err)
		return domain.Allocation{}, err
	}

	s.logger.Info("Alocação atualizada com sucesso.", map[string]interface{}{"id": updated.ID, "quantity": updated.Quantity})
	return updated, nil
}

// Delete remove uma alocação vazia. Alocações com quantidade maior que zero
// não podem ser removidas: o estoque deve ser transferido antes.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.logger.Debug("Iniciando exclusão de alocação no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID da alocação deve ser um UUID válido.")
	}

	allocation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err // NotFoundError ou DBError
	}

	if allocation.Quantity > 0 {
		s.logger.Warn("Exclusão de alocação não vazia rejeitada.", map[string]interface{}{
			"id":       id,
			"quantity": allocation.Quantity,
		})
		return apperror.NewNonEmptyAllocationError(id, allocation.Quantity)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar alocação no repositório.", err)
		return err
	}

	s.logger.Info("Alocação deletada com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// GetByID busca uma alocação pelo ID.
func (s *Service) GetByID(ctx context.Context, id string) (domain.Allocation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Allocation{}, apperror.NewValidationError("O ID da alocação deve ser um UUID válido.")
	}
	return s.repo.FindByID(ctx, id)
}

// ListAll busca todas as alocações.
func (s *Service) ListAll(ctx context.Context) ([]domain.Allocation, error) {
	return s.repo.FindAll(ctx)
}

// ListByProduct busca as alocações de um produto.
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]domain.Allocation, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	return s.repo.FindByProduct(ctx, productID)
}

// ListBelowMinimum busca as alocações no limite mínimo ou abaixo (consultivo).
func (s *Service) ListBelowMinimum(ctx context.Context) ([]domain.Allocation, error) {
	return s.repo.FindBelowMinimum(ctx)
}
