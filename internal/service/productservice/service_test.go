package productservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
	"goestoque/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TestCreateProduct_Success testa a criação de um produto válido.
func TestCreateProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockLogger := logger.NewLogger("debug")

	svc := productservice.NewService(mockRepo, mockLogger)

	product := domain.Product{
		Reference: "REF-001",
		Name:      "Parafuso Sextavado M8",
		Category:  "Fixadores",
		Price:     2.5,
	}

	mockRepo.On("Save", mock.AnythingOfType("context.backgroundCtx"), mock.MatchedBy(func(p domain.Product) bool {
		return p.Reference == "REF-001" && p.IsActive
	})).Return(domain.Product{
		ID:        uuid.New().String(),
		Reference: "REF-001",
		Name:      "Parafuso Sextavado M8",
		IsActive:  true,
	}, nil)

	created, err := svc.Create(context.Background(), product)

	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	mockRepo.AssertExpectations(t)
}

// TestCreateProduct_Fail_MissingFields testa a coleta de campos obrigatórios.
func TestCreateProduct_Fail_MissingFields(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockLogger := logger.NewLogger("debug")

	svc := productservice.NewService(mockRepo, mockLogger)

	_, err := svc.Create(context.Background(), domain.Product{Price: -1})

	assert.Error(t, err)
	assert.IsType(t, &apperror.FieldValidationError{}, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "reference")
	assert.Contains(t, fields, "price")
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestUpdateProduct_Fail_NotFound testa a atualização de produto inexistente.
func TestUpdateProduct_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockLogger := logger.NewLogger("debug")

	svc := productservice.NewService(mockRepo, mockLogger)

	id := uuid.New().String()
	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), id).
		Return(domain.Product{}, apperror.NewNotFoundError("Produto não encontrado."))

	_, err := svc.Update(context.Background(), id, domain.Product{Reference: "REF-002", Name: "Arruela"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// TestDeleteProduct_Fail_Referenced testa o bloqueio de exclusão de produto
// com estoque ou alocações referenciando-o.
func TestDeleteProduct_Fail_Referenced(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockLogger := logger.NewLogger("debug")

	svc := productservice.NewService(mockRepo, mockLogger)

	id := uuid.New().String()
	mockRepo.On("Delete", mock.AnythingOfType("context.backgroundCtx"), id).
		Return(apperror.NewConflictError("O produto possui registros de estoque ou alocações."))

	err := svc.Delete(context.Background(), id)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertExpectations(t)
}

// TestGetProductByID_Fail_InvalidID testa a validação do ID.
func TestGetProductByID_Fail_InvalidID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockLogger := logger.NewLogger("debug")

	svc := productservice.NewService(mockRepo, mockLogger)

	_, err := svc.GetByID(context.Background(), "123")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}
