package productservice

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"goestoque/internal/domain"
	apperror "goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
)

// ProductRepository define o contrato que o Serviço de Produtos espera da
// camada de Persistência.
type ProductRepository interface {
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// Service implementa as regras de negócio do catálogo de produtos.
type Service struct {
	repo   ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produtos.
func NewService(repo ProductRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func validateProduct(product domain.Product) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(product.Name) == "" {
		fields["name"] = "O nome do produto é obrigatório."
	}
	if strings.TrimSpace(product.Reference) == "" {
		fields["reference"] = "A referência do produto é obrigatória."
	}
	if product.Price < 0 {
		fields["price"] = "O preço não pode ser negativo."
	}
	return fields
}

// Create valida e persiste um novo produto.
func (s *Service) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	s.logger.Debug("Iniciando criação de produto no serviço.", map[string]interface{}{"reference": product.Reference})

	if fields := validateProduct(product); len(fields) > 0 {
		s.logger.Warn("Validação de produto falhou.", map[string]interface{}{"fields": fields})
		return domain.Product{}, apperror.NewFieldValidationError(fields)
	}
	product.IsActive = true

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao criar produto no repositório.", err)
		return domain.Product{}, err
	}

	s.logger.Info("Produto criado com sucesso.", map[string]interface{}{"id": created.ID, "reference": created.Reference})
	return created, nil
}

// GetByID busca um produto pelo ID.
func (s *Service) GetByID(ctx context.Context, id string) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	return s.repo.FindByID(ctx, id)
}

// List busca produtos com filtros e paginação.
func (s *Service) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.repo.FindAll(ctx, filter)
}

// Update valida e substitui os campos mutáveis de um produto.
func (s *Service) Update(ctx context.Context, id string, product domain.Product) (domain.Product, error) {
	s.logger.Debug("Iniciando atualização de produto no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if fields := validateProduct(product); len(fields) > 0 {
		s.logger.Warn("Validação de produto falhou.", map[string]interface{}{"fields": fields})
		return domain.Product{}, apperror.NewFieldValidationError(fields)
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err // NotFoundError ou DBError
	}

	current.Reference = product.Reference
	current.Name = product.Name
	current.Category = product.Category
	current.Price = product.Price
	current.IsActive = product.IsActive

	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		s.logger.Error("Falha ao atualizar produto no repositório.", err)
		return domain.Product{}, err
	}

	s.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"id": updated.ID})
	return updated, nil
}

// Delete remove um produto sem estoque nem alocações referenciando-o.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.logger.Debug("Iniciando exclusão de produto no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar produto no repositório.", err)
		return err
	}

	s.logger.Info("Produto deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}
