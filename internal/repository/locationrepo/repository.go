package locationrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"goestoque/internal/domain"
	"goestoque/internal/errors"
	"goestoque/internal/pkg/cache"
	"goestoque/internal/pkg/logger"
)

// Chaves de cache das listas de referência.
const (
	locationsCacheKey = "directory:locations"
	sectionsCacheKey  = "directory:sections"
	shelvesCacheKey   = "directory:shelves"
	corridorsCacheKey = "directory:corridors"
)

// LocationRepository lê o diretório de posições físicas (locais, seções,
// prateleiras, corredores). Dados estáticos de referência: somente leitura,
// com estratégia Cache-Aside já que raramente mudam.
type LocationRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewLocationRepository cria e retorna uma nova instância do Repositório do Diretório.
func NewLocationRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *LocationRepository {
	return &LocationRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// referenceRow é a forma comum das quatro dimensões.
type referenceRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// fetchReference aplica Cache-Aside sobre uma tabela de referência.
func (r *LocationRepository) fetchReference(ctx context.Context, cacheKey, table string, out interface{}) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 1. Tentar obter do Cache (Redis). Falha de cache degrada para o DB.
	cached, err := r.Cache.Get(ctxTimeout, cacheKey)
	if err == nil {
		if json.Unmarshal([]byte(cached), out) == nil {
			return nil
		}
		// Desserialização falhou: segue para o DB e repovoa o cache.
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler o diretório do cache; lendo do DB.", map[string]interface{}{"key": cacheKey, "error": err.Error()})
	}

	// 2. Busca no Banco de Dados
	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT id, name, created_at FROM `+table+` ORDER BY name`)
	if err != nil {
		r.logger.Error("Falha ao buscar dimensão de referência no DB.", err)
		return errors.NewDBError("Falha ao buscar "+table, err)
	}
	defer rows.Close()

	var refs []referenceRow
	for rows.Next() {
		var ref referenceRow
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.CreatedAt); err != nil {
			r.logger.Error("Falha ao mapear dimensão de referência.", err)
			return errors.NewDBError("Falha ao mapear "+table, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração da dimensão de referência.", err)
		return errors.NewDBError("Erro após iteração de "+table, err)
	}

	// Converte a forma comum para o tipo de domínio solicitado via JSON.
	payload, err := json.Marshal(refs)
	if err != nil {
		return errors.NewInternalError("Falha ao serializar dimensão de referência", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.NewInternalError("Falha ao converter dimensão de referência", err)
	}

	// 3. Cache-Aside (WRITE): popular o cache para futuras leituras.
	if setErr := r.Cache.Set(ctxTimeout, cacheKey, payload, r.CacheTTL); setErr != nil {
		r.logger.Warn("Falha ao popular cache do diretório.", map[string]interface{}{"key": cacheKey, "error": setErr.Error()})
	}

	return nil
}

// GetAllLocations busca todos os locais.
func (r *LocationRepository) GetAllLocations(ctx context.Context) ([]domain.Location, error) {
	var locations []domain.Location
	if err := r.fetchReference(ctx, locationsCacheKey, "locations", &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// GetAllSections busca todas as seções.
func (r *LocationRepository) GetAllSections(ctx context.Context) ([]domain.Section, error) {
	var sections []domain.Section
	if err := r.fetchReference(ctx, sectionsCacheKey, "sections", &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// GetAllShelves busca todas as prateleiras.
func (r *LocationRepository) GetAllShelves(ctx context.Context) ([]domain.Shelf, error) {
	var shelves []domain.Shelf
	if err := r.fetchReference(ctx, shelvesCacheKey, "shelves", &shelves); err != nil {
		return nil, err
	}
	return shelves, nil
}

// GetAllCorridors busca todos os corredores.
func (r *LocationRepository) GetAllCorridors(ctx context.Context) ([]domain.Corridor, error) {
	var corridors []domain.Corridor
	if err := r.fetchReference(ctx, corridorsCacheKey, "corridors", &corridors); err != nil {
		return nil, err
	}
	return corridors, nil
}
