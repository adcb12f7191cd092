package userservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
	"goestoque/internal/pkg/token"
	"goestoque/internal/service/userservice"
)

// MockUserRepository é uma implementação mock da interface UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

// MockTokenService é uma implementação mock da interface token.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID string, userRole string) (string, error) {
	args := m.Called(userID, userRole)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ValidateToken(tokenString string) (*token.CustomClaims, error) {
	args := m.Called(tokenString)
	return args.Get(0).(*token.CustomClaims), args.Error(1)
}

// TestRegister_Success_DefaultRole testa o registro com papel padrão operator.
func TestRegister_Success_DefaultRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	mockLogger := logger.NewLogger("debug")

	svc := userservice.NewService(mockRepo, mockTokens, mockLogger)

	mockRepo.On("FindByEmail", mock.AnythingOfType("context.backgroundCtx"), "maria@empresa.com").
		Return(domain.User{}, apperror.NewNotFoundError("Usuário não encontrado."))
	mockRepo.On("Save", mock.AnythingOfType("context.backgroundCtx"), mock.MatchedBy(func(u domain.User) bool {
		return u.Email == "maria@empresa.com" && u.Role == domain.RoleOperator && u.PasswordHash != ""
	})).Return(domain.User{ID: "u-1", Email: "maria@empresa.com", Role: domain.RoleOperator}, nil)

	user, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "Maria Souza",
		Email:    "Maria@Empresa.com",
		Password: "senha-forte-123",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.RoleOperator, user.Role)
	mockRepo.AssertExpectations(t)
}

// TestRegister_Fail_DuplicateEmail testa a rejeição de e-mail já cadastrado.
func TestRegister_Fail_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	mockLogger := logger.NewLogger("debug")

	svc := userservice.NewService(mockRepo, mockTokens, mockLogger)

	mockRepo.On("FindByEmail", mock.AnythingOfType("context.backgroundCtx"), "joao@empresa.com").
		Return(domain.User{ID: "u-2", Email: "joao@empresa.com"}, nil)

	_, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "João Lima",
		Email:    "joao@empresa.com",
		Password: "senha-forte-123",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestRegister_Fail_WeakPasswordAndRole testa a coleta de erros de senha e papel.
func TestRegister_Fail_WeakPasswordAndRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	mockLogger := logger.NewLogger("debug")

	svc := userservice.NewService(mockRepo, mockTokens, mockLogger)

	_, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "Ana",
		Email:    "ana@empresa.com",
		Password: "123",
		Role:     "superuser",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.FieldValidationError{}, err)
	fields := apperror.FieldsOf(err)
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "role")
	mockRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

// TestLogin_Success testa a autenticação com credenciais válidas.
func TestLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	mockLogger := logger.NewLogger("debug")

	svc := userservice.NewService(mockRepo, mockTokens, mockLogger)

	hash, _ := bcrypt.GenerateFromPassword([]byte("senha-forte-123"), bcrypt.DefaultCost)
	stored := domain.User{ID: "u-3", Email: "carla@empresa.com", PasswordHash: string(hash), Role: domain.RoleManager}

	mockRepo.On("FindByEmail", mock.AnythingOfType("context.backgroundCtx"), "carla@empresa.com").Return(stored, nil)
	mockTokens.On("GenerateToken", "u-3", "manager").Return("jwt-assinado", nil)

	tokenString, user, err := svc.Login(context.Background(), domain.UserLogin{
		Email:    "carla@empresa.com",
		Password: "senha-forte-123",
	})

	assert.NoError(t, err)
	assert.Equal(t, "jwt-assinado", tokenString)
	assert.Equal(t, domain.RoleManager, user.Role)
	mockTokens.AssertExpectations(t)
}

// TestLogin_Fail_WrongPassword testa a rejeição de senha incorreta com
// mensagem genérica.
func TestLogin_Fail_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	mockLogger := logger.NewLogger("debug")

	svc := userservice.NewService(mockRepo, mockTokens, mockLogger)

	hash, _ := bcrypt.GenerateFromPassword([]byte("senha-certa"), bcrypt.DefaultCost)
	stored := domain.User{ID: "u-4", Email: "pedro@empresa.com", PasswordHash: string(hash)}

	mockRepo.On("FindByEmail", mock.AnythingOfType("context.backgroundCtx"), "pedro@empresa.com").Return(stored, nil)

	_, _, err := svc.Login(context.Background(), domain.UserLogin{
		Email:    "pedro@empresa.com",
		Password: "senha-errada",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthenticatedError{}, err)
	mockTokens.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything)
}

// TestLogin_Fail_UnknownEmail testa que e-mail inexistente não é revelado.
func TestLogin_Fail_UnknownEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	mockLogger := logger.NewLogger("debug")

	svc := userservice.NewService(mockRepo, mockTokens, mockLogger)

	mockRepo.On("FindByEmail", mock.AnythingOfType("context.backgroundCtx"), "fantasma@empresa.com").
		Return(domain.User{}, apperror.NewNotFoundError("Usuário não encontrado."))

	_, _, err := svc.Login(context.Background(), domain.UserLogin{
		Email:    "fantasma@empresa.com",
		Password: "qualquer-coisa",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthenticatedError{}, err)
	assert.Contains(t, err.Error(), "Credenciais inválidas")
}
