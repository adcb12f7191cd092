package transferservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
	"goestoque/internal/service/transferservice"
)

// MockTransferRepository é uma implementação mock da interface TransferRepository
type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) ExecuteTransfer(ctx context.Context, req domain.TransferRequest, employeeID string) (domain.Transfer, domain.Allocation, domain.Allocation, error) {
	args := m.Called(ctx, req, employeeID)
	return args.Get(0).(domain.Transfer), args.Get(1).(domain.Allocation), args.Get(2).(domain.Allocation), args.Error(3)
}

func (m *MockTransferRepository) FindByProduct(ctx context.Context, productID string) ([]domain.Transfer, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Transfer), args.Error(1)
}

// MockAllocationReader é uma implementação mock da interface AllocationReader
type MockAllocationReader struct {
	mock.Mock
}

func (m *MockAllocationReader) FindByID(ctx context.Context, id string) (domain.Allocation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Allocation), args.Error(1)
}

func (m *MockAllocationReader) FindByProduct(ctx context.Context, productID string) ([]domain.Allocation, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Allocation), args.Error(1)
}

// MockEventPublisher é uma implementação mock da interface EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishTransfer(ctx context.Context, transfer domain.Transfer) error {
	args := m.Called(ctx, transfer)
	return args.Error(0)
}

func newTransferRequest(productID, sourceID string) domain.TransferRequest {
	return domain.TransferRequest{
		ProductID:        productID,
		FromAllocationID: sourceID,
		To: domain.PlacementTuple{
			LocationID: uuid.New().String(),
			SectionID:  uuid.New().String(),
			ShelfID:    uuid.New().String(),
			CorridorID: uuid.New().String(),
		},
		Quantity: 15,
	}
}

// TestTransfer_Success testa uma transferência completa: débito na origem,
// crédito no destino, registro de auditoria e soma das alocações preservada.
func TestTransfer_Success(t *testing.T) {
	mockRepo := new(MockTransferRepository)
	mockAllocations := new(MockAllocationReader)
	mockPublisher := new(MockEventPublisher)
	mockLogger := logger.NewLogger("debug")

	svc := transferservice.NewService(mockRepo, mockAllocations, mockPublisher, mockLogger)

	productID := uuid.New().String()
	sourceID := uuid.New().String()
	destinationID := uuid.New().String()
	employeeID := uuid.New().String()
	req := newTransferRequest(productID, sourceID)

	// Origem tinha 40 unidades; após transferir 15, fica com 25 e o destino novo com 15.
	transfer := domain.Transfer{
		ID:                      uuid.New().String(),
		ProductID:               productID,
		EmployeeID:              employeeID,
		DestinationAllocationID: destinationID,
		TransferredAt:           time.Now(),
		QuantityTransferred:     15,
	}
	source := domain.Allocation{ID: sourceID, ProductID: productID, Quantity: 25, Version: 2}
	destination := domain.Allocation{ID: destinationID, ProductID: productID, Quantity: 15, Version: 1}

	mockRepo.On("ExecuteTransfer", mock.AnythingOfType("context.backgroundCtx"), req, employeeID).
		Return(transfer, source, destination, nil)
	mockPublisher.On("PublishTransfer", mock.AnythingOfType("context.backgroundCtx"), transfer).Return(nil)
	mockAllocations.On("FindByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).
		Return([]domain.Allocation{source, destination}, nil)

	result, err := svc.Transfer(context.Background(), req, employeeID)

	assert.NoError(t, err)
	assert.Equal(t, transfer.ID, result.Transfer.ID)
	assert.Equal(t, employeeID, result.Transfer.EmployeeID)
	assert.Equal(t, 25, result.Source.Quantity)
	assert.Equal(t, 15, result.Destination.Quantity)

	// A transferência move, não cria nem destrói: a soma permanece 40.
	total := 0
	for _, a := range result.Allocations {
		total += a.Quantity
	}
	assert.Equal(t, 40, total)

	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
	mockAllocations.AssertExpectations(t)
}

// TestTransfer_Fail_Unauthenticated testa a rejeição quando não há identidade
// de funcionário resolvida.
func TestTransfer_Fail_Unauthenticated(t *testing.T) {
	mockRepo := new(MockTransferRepository)
	mockAllocations := new(MockAllocationReader)
	mockLogger := logger.NewLogger("debug")

	svc := transferservice.NewService(mockRepo, mockAllocations, nil, mockLogger)

	req := newTransferRequest(uuid.New().String(), uuid.New().String())

	_, err := svc.Transfer(context.Background(), req, "")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthenticatedError{}, err)
	mockRepo.AssertNotCalled(t, "ExecuteTransfer", mock.Anything, mock.Anything, mock.Anything)
}

// TestTransfer_Fail_Preconditions testa que todas as pré-condições inválidas
// são reportadas juntas no mapa de campos.
func TestTransfer_Fail_Preconditions(t *testing.T) {
	mockRepo := new(MockTransferRepository)
	mockAllocations := new(MockAllocationReader)
	mockLogger := logger.NewLogger("debug")

	svc := transferservice.NewService(mockRepo, mockAllocations, nil, mockLogger)

	// Requisição vazia: produto, origem, destino e quantidade inválidos.
	_, err := svc.Transfer(context.Background(), domain.TransferRequest{}, uuid.New().String())

	assert.Error(t, err)
	assert.IsType(t, &apperror.FieldValidationError{}, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "product_id")
	assert.Contains(t, fields, "from_allocation_id")
	assert.Contains(t, fields, "to")
	assert.Contains(t, fields, "quantity")
	assert.Len(t, fields, 4)
	mockRepo.AssertNotCalled(t, "ExecuteTransfer", mock.Anything, mock.Anything, mock.Anything)
}

// TestTransfer_Fail_RepositoryError testa que erros da transação são propagados
// (e.g., quantidade maior que a origem, rejeitada dentro da transação).
func TestTransfer_Fail_RepositoryError(t *testing.T) {
	mockRepo := new(MockTransferRepository)
	mockAllocations := new(MockAllocationReader)
	mockLogger := logger.NewLogger("debug")

	svc := transferservice.NewService(mockRepo, mockAllocations, nil, mockLogger)

	productID := uuid.New().String()
	employeeID := uuid.New().String()
	req := newTransferRequest(productID, uuid.New().String())

	mockRepo.On("ExecuteTransfer", mock.AnythingOfType("context.backgroundCtx"), req, employeeID).
		Return(domain.Transfer{}, domain.Allocation{}, domain.Allocation{},
			apperror.NewValidationError("A quantidade transferida excede a quantidade da alocação de origem."))

	_, err := svc.Transfer(context.Background(), req, employeeID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockAllocations.AssertNotCalled(t, "FindByProduct", mock.Anything, mock.Anything)
}

// TestTransfer_Success_PublisherFailureDoesNotAbort testa que uma falha de
// publicação de evento não desfaz uma transferência já persistida.
func TestTransfer_Success_PublisherFailureDoesNotAbort(t *testing.T) {
	mockRepo := new(MockTransferRepository)
	mockAllocations := new(MockAllocationReader)
	mockPublisher := new(MockEventPublisher)
	mockLogger := logger.NewLogger("debug")

	svc := transferservice.NewService(mockRepo, mockAllocations, mockPublisher, mockLogger)

	productID := uuid.New().String()
	employeeID := uuid.New().String()
	req := newTransferRequest(productID, uuid.New().String())

	transfer := domain.Transfer{ID: uuid.New().String(), ProductID: productID, EmployeeID: employeeID, QuantityTransferred: 15}

	mockRepo.On("ExecuteTransfer", mock.AnythingOfType("context.backgroundCtx"), req, employeeID).
		Return(transfer, domain.Allocation{}, domain.Allocation{}, nil)
	mockPublisher.On("PublishTransfer", mock.AnythingOfType("context.backgroundCtx"), transfer).
		Return(errors.New("broker indisponível"))
	mockAllocations.On("FindByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).
		Return([]domain.Allocation{}, nil)

	result, err := svc.Transfer(context.Background(), req, employeeID)

	assert.NoError(t, err)
	assert.Equal(t, transfer.ID, result.Transfer.ID)
	mockPublisher.AssertExpectations(t)
}

// TestTransfer_Success_SnapshotFailureDegrades testa que uma falha ao
// recarregar as alocações degrada o snapshot para vazio, sem erro.
func TestTransfer_Success_SnapshotFailureDegrades(t *testing.T) {
	mockRepo := new(MockTransferRepository)
	mockAllocations := new(MockAllocationReader)
	mockLogger := logger.NewLogger("debug")

	svc := transferservice.NewService(mockRepo, mockAllocations, nil, mockLogger)

	productID := uuid.New().String()
	employeeID := uuid.New().String()
	req := newTransferRequest(productID, uuid.New().String())

	transfer := domain.Transfer{ID: uuid.New().String(), ProductID: productID, EmployeeID: employeeID, QuantityTransferred: 15}

	mockRepo.On("ExecuteTransfer", mock.AnythingOfType("context.backgroundCtx"), req, employeeID).
		Return(transfer, domain.Allocation{}, domain.Allocation{}, nil)
	mockAllocations.On("FindByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).
		Return([]domain.Allocation{}, apperror.NewDBError("Falha ao listar alocações", errors.New("conexão perdida")))

	result, err := svc.Transfer(context.Background(), req, employeeID)

	assert.NoError(t, err)
	assert.Empty(t, result.Allocations)
	assert.Equal(t, transfer.ID, result.Transfer.ID)
}

// TestListByProduct_Fail_InvalidID testa a validação do filtro de histórico.
func TestListByProduct_Fail_InvalidID(t *testing.T) {
	mockRepo := new(MockTransferRepository)
	mockAllocations := new(MockAllocationReader)
	mockLogger := logger.NewLogger("debug")

	svc := transferservice.NewService(mockRepo, mockAllocations, nil, mockLogger)

	_, err := svc.ListByProduct(context.Background(), "não-é-uuid")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindByProduct", mock.Anything, mock.Anything)
}
