package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"goestoque/internal/domain"
	"goestoque/internal/errors"
	"goestoque/internal/pkg/cache"
	"goestoque/internal/pkg/logger"
)

// Define a chave de cache para produtos.
const productCacheKey = "product:%s"

// ProductRepository persiste o catálogo de produtos.
// Contém as conexões necessárias para acessar dados (DB e Cache).
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Save persiste um novo Produto no banco de dados.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	r.logger.Debug("Iniciando Save de produto no repositório.", map[string]interface{}{"reference": product.Reference})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const productSQL = `
        INSERT INTO products (id, reference, name, category, price, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(ctxTimeout, productSQL,
		product.ID, product.Reference, product.Name, product.Category,
		product.Price, product.IsActive, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao criar produto", err)
	}

	r.logger.Info("Produto criado com sucesso.", map[string]interface{}{"id": product.ID, "reference": product.Reference})
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		// Cache HIT
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		// Se a desserialização falhar, segue para o DB
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): logamos, mas continuamos.
		r.logger.Warn("Falha ao ler produto do cache; lendo do DB.", map[string]interface{}{"id": id, "error": err.Error()})
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	productSQL := `
        SELECT id, reference, name, category, price, is_active, created_at, updated_at
        FROM products
        WHERE id = $1`

	row := r.DB.QueryRowContext(ctxTimeout, productSQL, id)
	err = row.Scan(
		&product.ID, &product.Reference, &product.Name, &product.Category,
		&product.Price, &product.IsActive, &product.CreatedAt, &product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	// 3. Cache-Aside (WRITE): popular o cache para futuras requisições.
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL)
	}

	return product, nil
}

// FindAll busca produtos com filtro e paginação.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	r.logger.Debug("Iniciando FindAll de produtos no repositório.", map[string]interface{}{"page": filter.Page, "limit": filter.Limit})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	query := `
        SELECT id, reference, name, category, price, is_active, created_at, updated_at
        FROM products
        WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
          AND ($2 = '' OR reference = $2)
          AND (NOT $3 OR is_active)
        ORDER BY name
        LIMIT $4 OFFSET $5`

	rows, err := r.DB.QueryContext(ctxTimeout, query,
		filter.Name, filter.Reference, filter.ActiveOnly, limit, (page-1)*limit,
	)
	if err != nil {
		r.logger.Error("Falha ao executar FindAll de produtos.", err)
		return nil, errors.NewDBError("Falha ao buscar produtos", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		err := rows.Scan(
			&product.ID, &product.Reference, &product.Name, &product.Category,
			&product.Price, &product.IsActive, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear produto na iteração.", err)
			return nil, errors.NewDBError("Falha ao mapear produtos do DB", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração dos produtos.", err)
		return nil, errors.NewDBError("Erro após iteração de produtos", err)
	}

	return products, nil
}

// Update atualiza os campos mutáveis de um produto e invalida o cache.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	r.logger.Debug("Iniciando Update de produto no repositório.", map[string]interface{}{"id": product.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	product.UpdatedAt = time.Now().UTC()

	query := `
        UPDATE products
        SET reference = $1, name = $2, category = $3, price = $4, is_active = $5, updated_at = $6
        WHERE id = $7
        RETURNING id, reference, name, category, price, is_active, created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		product.Reference, product.Name, product.Category, product.Price,
		product.IsActive, product.UpdatedAt, product.ID,
	).Scan(
		&product.ID, &product.Reference, &product.Name, &product.Category,
		&product.Price, &product.IsActive, &product.CreatedAt, &product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		r.logger.Info("Produto não encontrado para atualização.", map[string]interface{}{"id": product.ID})
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado para atualização.", product.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao atualizar produto", err)
	}

	// Invalida o cache do produto atualizado.
	r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, product.ID))

	r.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"id": product.ID})
	return product, nil
}

// Delete remove um produto sem estoque nem alocações. Produtos referenciados
// pelo ledger ou por alocações não podem ser removidos.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debug("Iniciando Delete de produto no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var stockCount, allocationCount int
	queryRefs := `
        SELECT COALESCE((SELECT COUNT(*) FROM stock_records WHERE product_id = $1), 0),
               COALESCE((SELECT COUNT(*) FROM allocations WHERE product_id = $1), 0)`
	if err := r.DB.QueryRowContext(ctxTimeout, queryRefs, id).Scan(&stockCount, &allocationCount); err != nil {
		r.logger.Error("Falha ao verificar referências do produto.", err)
		return errors.NewDBError("Falha ao verificar referências do produto", err)
	}
	if stockCount > 0 || allocationCount > 0 {
		r.logger.Warn("Exclusão bloqueada: produto possui estoque ou alocações.", map[string]interface{}{
			"id": id, "stock_records": stockCount, "allocations": allocationCount,
		})
		return errors.NewConflictError("Produto possui estoque ou alocações registradas e não pode ser removido.")
	}

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar produto do DB.", err)
		return errors.NewDBError("Falha ao deletar produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após Delete.", err)
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Info("Produto não encontrado para exclusão.", map[string]interface{}{"id": id})
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado para exclusão.", id))
	}

	r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, id))

	r.logger.Info("Produto deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}
