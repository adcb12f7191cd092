package locationservice

import (
	"context"
	"sync"

	"goestoque/internal/domain"
	"goestoque/internal/pkg/logger"
)

// LocationRepository define o contrato de leitura do diretório de posições.
type LocationRepository interface {
	GetAllLocations(ctx context.Context) ([]domain.Location, error)
	GetAllSections(ctx context.Context) ([]domain.Section, error)
	GetAllShelves(ctx context.Context) ([]domain.Shelf, error)
	GetAllCorridors(ctx context.Context) ([]domain.Corridor, error)
}

// Service expõe o diretório de posições físicas (dados de referência).
type Service struct {
	repo   LocationRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Localizações.
func NewService(repo LocationRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListLocations busca todos os locais.
func (s *Service) ListLocations(ctx context.Context) ([]domain.Location, error) {
	return s.repo.GetAllLocations(ctx)
}

// ListSections busca todas as seções.
func (s *Service) ListSections(ctx context.Context) ([]domain.Section, error) {
	return s.repo.GetAllSections(ctx)
}

// ListShelves busca todas as prateleiras.
func (s *Service) ListShelves(ctx context.Context) ([]domain.Shelf, error) {
	return s.repo.GetAllShelves(ctx)
}

// ListCorridors busca todos os corredores.
func (s *Service) ListCorridors(ctx context.Context) ([]domain.Corridor, error) {
	return s.repo.GetAllCorridors(ctx)
}

// GetDirectory busca as quatro dimensões em paralelo e retorna o agregado.
// O primeiro erro encontrado é retornado; o diretório é tudo-ou-nada, pois
// o formulário de alocação precisa das quatro listas.
func (s *Service) GetDirectory(ctx context.Context) (domain.Directory, error) {
	var (
		directory domain.Directory
		wg        sync.WaitGroup
		mu        sync.Mutex
		firstErr  error
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		locations, err := s.repo.GetAllLocations(ctx)
		if err != nil {
			fail(err)
			return
		}
		directory.Locations = locations
	}()
	go func() {
		defer wg.Done()
		sections, err := s.repo.GetAllSections(ctx)
		if err != nil {
			fail(err)
			return
		}
		directory.Sections = sections
	}()
	go func() {
		defer wg.Done()
		shelves, err := s.repo.GetAllShelves(ctx)
		if err != nil {
			fail(err)
			return
		}
		directory.Shelves = shelves
	}()
	go func() {
		defer wg.Done()
		corridors, err := s.repo.GetAllCorridors(ctx)
		if err != nil {
			fail(err)
			return
		}
		directory.Corridors = corridors
	}()
	wg.Wait()

	if firstErr != nil {
		s.logger.Error("Falha ao montar o diretório de posições.", firstErr)
		return domain.Directory{}, firstErr
	}
	return directory, nil
}
