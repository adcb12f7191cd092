package userservice

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
	"goestoque/internal/pkg/token"
)

// UserRepository define o contrato que o Serviço de Usuários espera da
// camada de Persistência.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// Service implementa o registro e a autenticação de funcionários.
type Service struct {
	repo   UserRepository
	tokens token.TokenService
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Usuários.
func NewService(repo UserRepository, tokens token.TokenService, logger logger.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

// Register valida o cadastro, gera o hash bcrypt da senha e persiste o
// funcionário. O papel padrão é operator.
func (s *Service) Register(ctx context.Context, reg domain.UserRegistration) (domain.User, error) {
	s.logger.Debug("Iniciando registro de usuário no serviço.", map[string]interface{}{"email": reg.Email})

	fields := map[string]string{}
	if strings.TrimSpace(reg.Name) == "" {
		fields["name"] = "O nome é obrigatório."
	}
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	if reg.Email == "" {
		fields["email"] = "O e-mail é obrigatório."
	} else if !strings.Contains(reg.Email, "@") {
		fields["email"] = "O e-mail é inválido."
	}
	if len(reg.Password) < 8 {
		fields["password"] = "A senha deve ter no mínimo 8 caracteres."
	}

	role := domain.UserRole(reg.Role)
	switch role {
	case "":
		role = domain.RoleOperator
	case domain.RoleAdmin, domain.RoleManager, domain.RoleOperator:
	default:
		fields["role"] = "O papel deve ser admin, manager ou operator."
	}

	if len(fields) > 0 {
		s.logger.Warn("Validação de registro de usuário falhou.", map[string]interface{}{"fields": fields})
		return domain.User{}, apperror.NewFieldValidationError(fields)
	}

	// Rejeita e-mail já cadastrado antes de gerar o hash.
	_, err := s.repo.FindByEmail(ctx, reg.Email)
	if err == nil {
		return domain.User{}, apperror.NewConflictError("E-mail já cadastrado.")
	}
	var notFound *apperror.NotFoundError
	if !errors.As(err, &notFound) {
		s.logger.Error("Falha ao verificar e-mail existente.", err)
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Falha ao gerar o hash da senha.", err)
		return domain.User{}, apperror.NewInternalError("Falha ao processar a senha.", err)
	}

	user, err := s.repo.Save(ctx, domain.User{
		Name:         strings.TrimSpace(reg.Name),
		Email:        reg.Email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		s.logger.Error("Falha ao salvar usuário no repositório.", err)
		return domain.User{}, err
	}

	s.logger.Info("Usuário registrado com sucesso.", map[string]interface{}{"id": user.ID, "role": user.Role})
	return user, nil
}

// Login autentica o funcionário e retorna um JWT assinado.
func (s *Service) Login(ctx context.Context, login domain.UserLogin) (string, domain.User, error) {
	s.logger.Debug("Iniciando login no serviço.", map[string]interface{}{"email": login.Email})

	login.Email = strings.ToLower(strings.TrimSpace(login.Email))
	if login.Email == "" || login.Password == "" {
		return "", domain.User{}, apperror.NewUnauthenticatedError("E-mail e senha são obrigatórios.")
	}

	user, err := s.repo.FindByEmail(ctx, login.Email)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			// Mensagem genérica: não revela se o e-mail existe.
			return "", domain.User{}, apperror.NewUnauthenticatedError("Credenciais inválidas.")
		}
		s.logger.Error("Falha ao buscar usuário por e-mail.", err)
		return "", domain.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(login.Password)); err != nil {
		s.logger.Warn("Tentativa de login com senha incorreta.", map[string]interface{}{"email": login.Email})
		return "", domain.User{}, apperror.NewUnauthenticatedError("Credenciais inválidas.")
	}

	tokenString, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		s.logger.Error("Falha ao gerar o token JWT.", err)
		return "", domain.User{}, apperror.NewInternalError("Falha ao gerar o token de acesso.", err)
	}

	s.logger.Info("Login realizado com sucesso.", map[string]interface{}{"id": user.ID})
	return tokenString, user, nil
}
