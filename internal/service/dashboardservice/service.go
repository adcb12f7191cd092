package dashboardservice

import (
	"context"
	"sync"

	"goestoque/internal/domain"
	"goestoque/internal/pkg/logger"
)

// ProductLister é a visão somente-leitura do catálogo usada pelo painel.
type ProductLister interface {
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}

// AllocationLister é a visão somente-leitura das alocações usada pelo painel.
type AllocationLister interface {
	FindAll(ctx context.Context) ([]domain.Allocation, error)
	FindBelowMinimum(ctx context.Context) ([]domain.Allocation, error)
}

// Summary agrega as visões do painel em uma única resposta.
type Summary struct {
	Products    []domain.Product    `json:"products"`
	Allocations []domain.Allocation `json:"allocations"`
	LowStock    []domain.Allocation `json:"low_stock"`
}

// Service monta o resumo do painel. As três consultas rodam em paralelo e
// degradam de forma independente: a falha de uma não derruba o painel,
// apenas deixa sua seção vazia.
type Service struct {
	products    ProductLister
	allocations AllocationLister
	logger      logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço do Painel.
func NewService(products ProductLister, allocations AllocationLister, logger logger.Logger) *Service {
	return &Service{products: products, allocations: allocations, logger: logger}
}

// GetSummary busca produtos ativos, alocações e alertas de estoque mínimo
// em paralelo (melhor-esforço por seção).
func (s *Service) GetSummary(ctx context.Context) Summary {
	summary := Summary{
		Products:    []domain.Product{},
		Allocations: []domain.Allocation{},
		LowStock:    []domain.Allocation{},
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		products, err := s.products.FindAll(ctx, domain.ProductFilter{ActiveOnly: true})
		if err != nil {
			s.logger.Warn("Painel: falha ao listar produtos.", map[string]interface{}{"error": err.Error()})
			return
		}
		summary.Products = products
	}()

	go func() {
		defer wg.Done()
		allocations, err := s.allocations.FindAll(ctx)
		if err != nil {
			s.logger.Warn("Painel: falha ao listar alocações.", map[string]interface{}{"error": err.Error()})
			return
		}
		summary.Allocations = allocations
	}()

	go func() {
		defer wg.Done()
		lowStock, err := s.allocations.FindBelowMinimum(ctx)
		if err != nil {
			s.logger.Warn("Painel: falha ao listar alertas de estoque mínimo.", map[string]interface{}{"error": err.Error()})
			return
		}
		summary.LowStock = lowStock
	}()

	wg.Wait()
	return summary
}
