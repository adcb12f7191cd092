package stockservice_test

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
	"goestoque/internal/service/stockservice"
)

// MockStockRepository é uma implementação mock da interface StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) ApplyEntry(ctx context.Context, entry domain.StockEntry) (domain.StockRecord, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(domain.StockRecord), args.Error(1)
}

func (m *MockStockRepository) GetStockByProduct(ctx context.Context, productID string) (domain.StockSummary, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.StockSummary), args.Error(1)
}

func (m *MockStockRepository) GetStockTotalByProduct(ctx context.Context, productID string) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

func (m *MockStockRepository) DeleteRecord(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TestRegisterEntry_Success testa o registro de uma entrada de estoque válida.
func TestRegisterEntry_Success(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	productID := uuid.New().String()
	entry := domain.StockEntry{
		ProductID:  productID,
		Lot:        "L-2026-08",
		ExpiryDate: time.Now().AddDate(1, 0, 0),
		Quantity:   30,
	}

	mockRepo.On("ApplyEntry", mock.AnythingOfType("context.backgroundCtx"), entry).
		Return(domain.StockRecord{
			ID:             uuid.New().String(),
			ProductID:      productID,
			Lot:            "L-2026-08",
			QuantityOnHand: 30,
			Version:        1,
		}, nil)

	record, err := svc.RegisterEntry(context.Background(), entry)

	assert.NoError(t, err)
	assert.Equal(t, 30, record.QuantityOnHand)
	mockRepo.AssertExpectations(t)
}

// TestRegisterEntry_Fail_CollectsAllFieldErrors testa que produto, lote e
// quantidade inválidos são reportados juntos.
func TestRegisterEntry_Fail_CollectsAllFieldErrors(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	_, err := svc.RegisterEntry(context.Background(), domain.StockEntry{})

	assert.Error(t, err)
	assert.IsType(t, &apperror.FieldValidationError{}, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "product_id")
	assert.Contains(t, fields, "lot")
	assert.Contains(t, fields, "quantity")
	mockRepo.AssertNotCalled(t, "ApplyEntry", mock.Anything, mock.Anything)
}

// TestRegisterEntry_Fail_BelowAllocated testa que uma saída que deixaria o
// total abaixo da soma alocada é propagada como conflito.
func TestRegisterEntry_Fail_BelowAllocated(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	entry := domain.StockEntry{
		ProductID: uuid.New().String(),
		Lot:       "L-01",
		Quantity:  -50,
	}

	mockRepo.On("ApplyEntry", mock.AnythingOfType("context.backgroundCtx"), entry).
		Return(domain.StockRecord{}, apperror.NewConflictError("A saída deixaria o estoque total abaixo da soma já alocada."))

	_, err := svc.RegisterEntry(context.Background(), entry)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertExpectations(t)
}

// TestGetStockByProduct_Success testa a visão consolidada do estoque.
func TestGetStockByProduct_Success(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	productID := uuid.New().String()
	mockRepo.On("GetStockByProduct", mock.AnythingOfType("context.backgroundCtx"), productID).
		Return(domain.StockSummary{
			ProductID:       productID,
			QuantidadeAtual: 45,
			Records: []domain.StockRecord{
				{ProductID: productID, Lot: "L-01", QuantityOnHand: 20},
				{ProductID: productID, Lot: "L-02", QuantityOnHand: 25},
			},
		}, nil)

	summary, err := svc.GetStockByProduct(context.Background(), productID)

	assert.NoError(t, err)
	assert.Equal(t, 45, summary.QuantidadeAtual)
	assert.Len(t, summary.Records, 2)
	mockRepo.AssertExpectations(t)
}

// TestGetStockByProduct_Fail_InvalidID testa a validação do ID do produto.
func TestGetStockByProduct_Fail_InvalidID(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	_, err := svc.GetStockByProduct(context.Background(), "abc")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "GetStockByProduct", mock.Anything, mock.Anything)
}

// TestDeleteRecord_Fail_NonZeroQuantity testa a proteção de registros com
// quantidade em mãos.
func TestDeleteRecord_Fail_NonZeroQuantity(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	recordID := uuid.New().String()
	mockRepo.On("DeleteRecord", mock.AnythingOfType("context.backgroundCtx"), recordID).
		Return(apperror.NewConflictError("O registro de estoque ainda possui quantidade em mãos."))

	err := svc.DeleteRecord(context.Background(), recordID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertExpectations(t)
}
