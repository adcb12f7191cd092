package transferservice

import (
	"context"

	"github.com/google/uuid"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
)

// TransferRepository define o contrato transacional que o Orquestrador de
// Transferências espera da camada de Persistência: a movimentação inteira
// (débito, crédito e registro de auditoria) em uma única transação.
type TransferRepository interface {
	ExecuteTransfer(ctx context.Context, req domain.TransferRequest, employeeID string) (domain.Transfer, domain.Allocation, domain.Allocation, error)
	FindByProduct(ctx context.Context, productID string) ([]domain.Transfer, error)
}

// AllocationReader é a visão somente-leitura das alocações usada para
// montar o snapshot pós-transferência.
type AllocationReader interface {
	FindByID(ctx context.Context, id string) (domain.Allocation, error)
	FindByProduct(ctx context.Context, productID string) ([]domain.Allocation, error)
}

// EventPublisher publica o registro de auditoria para sistemas externos.
type EventPublisher interface {
	PublishTransfer(ctx context.Context, transfer domain.Transfer) error
}

// Service implementa o Orquestrador de Transferências: move quantidade de
// uma alocação de origem para uma posição de destino e registra a trilha
// de auditoria, tudo dentro de uma única transação no repositório.
type Service struct {
	repo        TransferRepository
	allocations AllocationReader
	publisher   EventPublisher
	logger      logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Transferências.
// publisher pode ser nil: nesse caso a publicação de eventos fica desabilitada.
func NewService(repo TransferRepository, allocations AllocationReader, publisher EventPublisher, logger logger.Logger) *Service {
	return &Service{repo: repo, allocations: allocations, publisher: publisher, logger: logger}
}

// Transfer valida as pré-condições, executa a movimentação transacional e
// retorna o registro de auditoria com o snapshot atualizado das alocações
// do produto. A identidade do funcionário vem do token autenticado, nunca
// do corpo da requisição.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest, employeeID string) (domain.TransferResult, error) {
	s.logger.Debug("Iniciando transferência no serviço.", map[string]interface{}{
		"product_id": req.ProductID,
		"source_id":  req.FromAllocationID,
		"quantity":   req.Quantity,
	})

	// 1. Identidade do funcionário é obrigatória: o registro de auditoria
	// referencia quem executou a movimentação.
	if employeeID == "" {
		return domain.TransferResult{}, apperror.NewUnauthenticatedError("Identidade do funcionário não resolvida; faça login novamente.")
	}

	// 2. Pré-condições de forma (todas coletadas juntas).
	fields := map[string]string{}
	if req.ProductID == "" {
		fields["product_id"] = "O produto é obrigatório."
	} else if _, err := uuid.Parse(req.ProductID); err != nil {
		fields["product_id"] = "O ID do produto deve ser um UUID válido."
	}
	if req.FromAllocationID == "" {
		fields["from_allocation_id"] = "A alocação de origem é obrigatória."
	} else if _, err := uuid.Parse(req.FromAllocationID); err != nil {
		fields["from_allocation_id"] = "O ID da alocação de origem deve ser um UUID válido."
	}
	if !req.To.Complete() {
		fields["to"] = "A posição de destino deve informar local, seção, prateleira e corredor."
	}
	if req.Quantity <= 0 {
		fields["quantity"] = "A quantidade transferida deve ser maior que zero."
	}
	if len(fields) > 0 {
		s.logger.Warn("Pré-condições de transferência falharam.", map[string]interface{}{"fields": fields})
		return domain.TransferResult{}, apperror.NewFieldValidationError(fields)
	}

	// 3. Execução transacional: origem debitada, destino creditado (criado
	// se necessário) e registro de auditoria inserido, em uma única transação.
	transfer, source, destination, err := s.repo.ExecuteTransfer(ctx, req, employeeID)
	if err != nil {
		s.logger.Error("Falha ao executar transferência no repositório.", err)
		return domain.TransferResult{}, err
	}

	s.logger.Info("Transferência executada com sucesso.", map[string]interface{}{
		"transfer_id":    transfer.ID,
		"product_id":     transfer.ProductID,
		"employee_id":    transfer.EmployeeID,
		"destination_id": transfer.DestinationAllocationID,
		"quantity":       transfer.QuantityTransferred,
	})

	// 4. Publicação do evento (melhor-esforço; nunca aborta a transferência).
	if s.publisher != nil {
		if pubErr := s.publisher.PublishTransfer(ctx, transfer); pubErr != nil {
			s.logger.Warn("Evento de transferência não publicado.", map[string]interface{}{
				"transfer_id": transfer.ID,
				"error":       pubErr.Error(),
			})
		}
	}

	// 5. Snapshot pós-transferência das alocações do produto (melhor-esforço:
	// a transferência já foi persistida; falha de leitura degrada o snapshot).
	allocations, err := s.allocations.FindByProduct(ctx, req.ProductID)
	if err != nil {
		s.logger.Warn("Falha ao recarregar alocações após a transferência.", map[string]interface{}{
			"product_id": req.ProductID,
			"error":      err.Error(),
		})
		allocations = []domain.Allocation{}
	}

	return domain.TransferResult{
		Transfer:    transfer,
		Source:      source,
		Destination: destination,
		Allocations: allocations,
	}, nil
}

// ListByProduct busca o histórico de transferências de um produto,
// da mais recente para a mais antiga.
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]domain.Transfer, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	return s.repo.FindByProduct(ctx, productID)
}
