package allocationservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
	"goestoque/internal/service/allocationservice"
)

// MockAllocationRepository é uma implementação mock da interface AllocationRepository
type MockAllocationRepository struct {
	mock.Mock
}

func (m *MockAllocationRepository) Create(ctx context.Context, allocation domain.Allocation) (domain.Allocation, error) {
	args := m.Called(ctx, allocation)
	return args.Get(0).(domain.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) Update(ctx context.Context, allocation domain.Allocation) (domain.Allocation, error) {
	args := m.Called(ctx, allocation)
	return args.Get(0).(domain.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAllocationRepository) FindByID(ctx context.Context, id string) (domain.Allocation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) FindAll(ctx context.Context) ([]domain.Allocation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) FindByProduct(ctx context.Context, productID string) ([]domain.Allocation, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) FindByTuple(ctx context.Context, productID string, tuple domain.PlacementTuple, excludeID string) (domain.Allocation, error) {
	args := m.Called(ctx, productID, tuple, excludeID)
	return args.Get(0).(domain.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) SumQuantityByProduct(ctx context.Context, productID string, excludeID string) (int, error) {
	args := m.Called(ctx, productID, excludeID)
	return args.Int(0), args.Error(1)
}

func (m *MockAllocationRepository) FindBelowMinimum(ctx context.Context) ([]domain.Allocation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Allocation), args.Error(1)
}

// MockStockReader é uma implementação mock da interface StockReader
type MockStockReader struct {
	mock.Mock
}

func (m *MockStockReader) GetStockTotalByProduct(ctx context.Context, productID string) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

func newTestTuple() domain.PlacementTuple {
	return domain.PlacementTuple{
		LocationID: uuid.New().String(),
		SectionID:  uuid.New().String(),
		ShelfID:    uuid.New().String(),
		CorridorID: uuid.New().String(),
	}
}

func newTestInput(productID string, tuple domain.PlacementTuple, quantity, minimum int) domain.AllocationInput {
	return domain.AllocationInput{
		ProductID:       productID,
		LocationID:      tuple.LocationID,
		SectionID:       tuple.SectionID,
		ShelfID:         tuple.ShelfID,
		CorridorID:      tuple.CorridorID,
		Quantity:        quantity,
		MinimumQuantity: minimum,
	}
}

// TestCreateAllocation_Success_NewPosition testa a criação de uma alocação em posição livre.
func TestCreateAllocation_Success_NewPosition(t *testing.T) {
	mockRepo := new(MockAllocationRepository)
	mockStock := new(MockStockReader)
	mockLogger := logger.NewLogger("debug")

	svc := allocationservice.NewService(mockRepo, mockStock, mockLogger)

	productID := uuid.New().String()
	tuple := newTestTuple()
	input := newTestInput(productID, tuple, 10, 2)

	// Estoque total 50, já alocado 20 em outras posições: restante 30.
	mockStock.On("GetStockTotalByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).Return(50, nil)
	mockRepo.On("SumQuantityByProduct", mock.AnythingOfType("context.backgroundCtx"), productID, "").Return(20, nil)
	mockRepo.On("FindByTuple", mock.AnythingOfType("context.backgroundCtx"), productID, tuple, "").
		Return(domain.Allocation{}, apperror.NewNotFoundError("Alocação não encontrada para a posição."))
	mockRepo.On("Create", mock.AnythingOfType("context.backgroundCtx"), mock.AnythingOfType("domain.Allocation")).
		Return(domain.Allocation{
			ID:              uuid.New().String(),
			ProductID:       productID,
			LocationID:      tuple.LocationID,
			SectionID:       tuple.SectionID,
			ShelfID:         tuple.ShelfID,
			CorridorID:      tuple.CorridorID,
			Quantity:        10,
			MinimumQuantity: 2,
			Version:         1,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}, nil)

	created, err := svc.Create(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 10, created.Quantity)
	assert.Equal(t, 1, created.Version)
	mockRepo.AssertExpectations(t)
	mockStock.AssertExpectations(t)
}

// TestCreateAllocation_Success_MergesDuplicate testa a fusão com uma alocação
// existente na mesma posição: quantidades somadas e mínimo elevado ao maior.
func TestCreateAllocation_Success_MergesDuplicate(t *testing.T) {
	mockRepo := new(MockAllocationRepository)
	mockStock := new(MockStockReader)
	mockLogger := logger.NewLogger("debug")

	svc := allocationservice.NewService(mockRepo, mockStock, mockLogger)

	productID := uuid.New().String()
	tuple := newTestTuple()
	existing := domain.Allocation{
		ID:              uuid.New().String(),
		ProductID:       productID,
		LocationID:      tuple.LocationID,
		SectionID:       tuple.SectionID,
		ShelfID:         tuple.ShelfID,
		CorridorID:      tuple.CorridorID,
		Quantity:        5,
		MinimumQuantity: 2,
		Version:         3,
	}
	input := newTestInput(productID, tuple, 3, 4)

	mockStock.On("GetStockTotalByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).Return(100, nil)
	mockRepo.On("SumQuantityByProduct", mock.AnythingOfType("context.backgroundCtx"), productID, "").Return(5, nil)
	mockRepo.On("FindByTuple", mock.AnythingOfType("context.backgroundCtx"), productID, tuple, "").Return(existing, nil)
	mockRepo.On("Update", mock.AnythingOfType("context.backgroundCtx"), mock.MatchedBy(func(a domain.Allocation) bool {
		// 5 + 3 = 8 unidades; mínimo max(2, 4) = 4.
		return a.ID == existing.ID && a.Quantity == 8 && a.MinimumQuantity == 4
	})).Return(domain.Allocation{
		ID:              existing.ID,
		ProductID:       productID,
		Quantity:        8,
		MinimumQuantity: 4,
		Version:         4,
	}, nil)

	merged, err := svc.Create(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, merged.ID)
	assert.Equal(t, 8, merged.Quantity)
	assert.Equal(t, 4, merged.MinimumQuantity)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

// TestCreateAllocation_Fail_OverAllocation testa a rejeição quando a soma das
// alocações excederia o estoque total, com o excesso calculado.
func TestCreateAllocation_Fail_OverAllocation(t *testing.T) {
	mockRepo := new(MockAllocationRepository)
	mockStock := new(MockStockReader)
	mockLogger := logger.NewLogger("debug")

	svc := allocationservice.NewService(mockRepo, mockStock, mockLogger)

	productID := uuid.New().String()
	input := newTestInput(productID, newTestTuple(), 15, 0)

	// Estoque total 10, nada alocado: alocar 15 excede em 5.
	mockStock.On("GetStockTotalByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).Return(10, nil)
	mockRepo.On("SumQuantityByProduct", mock.AnythingOfType("context.backgroundCtx"), productID, "").Return(0, nil)

	_, err := svc.Create(context.Background(), input)

	assert.Error(t, err)
	assert.IsType(t, &apperror.OverAllocationError{}, err)
	overErr := err.(*apperror.OverAllocationError)
	assert.Equal(t, 5, overErr.Excess)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "FindByTuple", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestCreateAllocation_Fail_NoStock testa a rejeição de alocação para produto
// sem nenhum registro de estoque.
func TestCreateAllocation_Fail_NoStock(t *testing.T) {
	mockRepo := new(MockAllocationRepository)
	mockStock := new(MockStockReader)
	mockLogger := logger.NewLogger("debug")

	svc := allocationservice.NewService(mockRepo, mockStock, mockLogger)

	productID := uuid.New().String()
	input := newTestInput(productID, newTestTuple(), 5, 0)

	mockStock.On("GetStockTotalByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).
		Return(0, apperror.NewNotFoundError("Nenhum registro de estoque para o produto."))

	_, err := svc.Create(context.Background(), input)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NoStockError{}, err)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestValidate_CollectsAllFieldErrors testa que TODOS os campos inválidos são
// reportados juntos, sem curto-circuito no primeiro erro.
func TestValidate_CollectsAllFieldErrors(t *testing.T) {
	mockRepo := new(MockAllocationRepository)
	mockStock := new(MockStockReader)
	mockLogger := logger.NewLogger("debug")

	svc := allocationservice.NewService(mockRepo, mockStock, mockLogger)

	// Entrada totalmente vazia: posição e quantidade inválidas de uma vez.
	result, err := svc.Validate(context.Background(), domain.AllocationInput{}, "")

	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Fields, "product_id")
	assert.Contains(t, result.Fields, "location_id")
	assert.Contains(t, result.Fields, "section_id")
	assert.Contains(t, result.Fields, "shelf_id")
	assert.Contains(t, result.Fields, "corridor_id")
	assert.Contains(t, result.Fields, "quantity")
	assert.Len(t, result.Fields, 6)
	// Sem produto, o estoque nem é consultado.
	mockStock.AssertNotCalled(t, "GetStockTotalByProduct", mock.Anything, mock.Anything)
}

// TestValidate_Fail_QuantityBelowMinimum testa a regra quantidade >= mínimo.
func TestValidate_Fail_QuantityBelowMinimum(t *testing.T) {
	mockRepo := new(MockAllocationRepository)
	mockStock := new(MockStockReader)
	mockLogger := logger.NewLogger("debug")

	svc := allocationservice.NewService(mockRepo, mockStock, mockLogger)

	productID := uuid.New().String()
	input := newTestInput(productID, newTestTuple(), 2, 10)

	mockStock.On("GetStockTotalByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).Return(100, nil)
	mockRepo.On("SumQuantityByProduct", mock.AnythingOfType("context.backgroundCtx"), productID, "").Return(0, nil)

	result, err := svc.Validate(context.Background(), input, "")

	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Fields, "minimum_quantity")
	assert.Len(t, result.Fields, 1)
}

// TestComputeRemaining_Success testa o cálculo do saldo de alocação.
func TestComputeRemaining_Success(t *testing.T) {
	mockRepo := new(MockAllocationRepository)
	mockStock := new(MockStockReader)
	mockLogger := logger.NewLogger("debug")

	svc := allocationservice.NewService(mockRepo, mockStock, mockLogger)

	productID := uuid.New().String()
	excludeID := uuid.New().String()

	mockStock.On("GetStockTotalByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).Return(100, nil)
	mockRepo.On("SumQuantityByProduct", mock.AnythingOfType("context.backgroundCtx"), productID, excludeID).Return(40, nil)

	balance, err := svc.ComputeRemaining(context.Background(), productID, excludeID)

	assert.NoError(t, err)
	assert.Equal(t, 100, balance.StockTotal)
	assert.Equal(t, 40, balance.AllocatedTotal)
	assert.Equal(t, 60, balance.Remaining)
	mockStock.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

// TestUpdateAllocation_Fail_TupleCollision testa a rejeição de edição cuja
// nova posição colide com OUTRA alocação do mesmo produto.
func TestUpdateAllocation_Fail_TupleCollision(t *testing.T) {
	mockRepo := new(MockAllocationRepository)
	mockStock := new(MockStockReader)
	mockLogger := logger.NewLogger("debug")

	svc := allocationservice.NewService(mockRepo, mockStock, mockLogger)

	productID := uuid.New().String()
	allocationID := uuid.New().String()
	tuple := newTestTuple()
	input := newTestInput(productID, tuple, 5, 0)

	current := domain.Allocation{ID: allocationID, ProductID: productID, Quantity: 5, Version: 1}
	other := domain.Allocation{ID: uuid.New().String(), ProductID: productID, Quantity: 3, Version: 1}

	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), allocationID).Return(current, nil)
	mockStock.On("GetStockTotalByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).Return(100, nil)
	mockRepo.On("SumQuantityByProduct", mock.AnythingOfType("context.backgroundCtx"), productID, allocationID).Return(3, nil)
	mockRepo.On("FindByTuple", mock.AnythingOfType("context.backgroundCtx"), productID, tuple, allocationID).Return(other, nil)

	_, err := svc.Update(context.Background(), allocationID, input)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// TestDeleteAllocation_Fail_NonEmpty testa o bloqueio de exclusão de alocação
// com quantidade maior que zero.
func TestDeleteAllocation_Fail_NonEmpty(t *testing.T) {
	mockRepo := new(MockAllocationRepository)
	mockStock := new(MockStockReader)
	mockLogger := logger.NewLogger("debug")

	svc := allocationservice.NewService(mockRepo, mockStock, mockLogger)

	allocationID := uuid.New().String()
	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), allocationID).
		Return(domain.Allocation{ID: allocationID, Quantity: 7, Version: 2}, nil)

	err := svc.Delete(context.Background(), allocationID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NonEmptyAllocationError{}, err)
	nonEmpty := err.(*apperror.NonEmptyAllocationError)
	assert.Equal(t, 7, nonEmpty.Quantity)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// TestDeleteAllocation_Success_Empty testa a exclusão de uma alocação zerada.
func TestDeleteAllocation_Success_Empty(t *testing.T) {
	mockRepo := new(MockAllocationRepository)
	mockStock := new(MockStockReader)
	mockLogger := logger.NewLogger("debug")

	svc := allocationservice.NewService(mockRepo, mockStock, mockLogger)

	allocationID := uuid.New().String()
	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), allocationID).
		Return(domain.Allocation{ID: allocationID, Quantity: 0, Version: 5}, nil)
	mockRepo.On("Delete", mock.AnythingOfType("context.backgroundCtx"), allocationID).Return(nil)

	err := svc.Delete(context.Background(), allocationID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
