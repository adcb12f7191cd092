package allocationrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goestoque/internal/domain"
	"goestoque/internal/errors"
	"goestoque/internal/pkg/logger"
)

const allocationColumns = `id, product_id, location_id, section_id, shelf_id, corridor_id,
        quantity, minimum_quantity, version, created_at, updated_at`

// AllocationRepository implementa a persistência das alocações
// (posições físicas de produto) no PostgreSQL.
type AllocationRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewAllocationRepository cria e retorna uma nova instância do Repositório de Alocações.
func NewAllocationRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *AllocationRepository {
	return &AllocationRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

func scanAllocation(row interface {
	Scan(dest ...interface{}) error
}) (domain.Allocation, error) {
	var a domain.Allocation
	err := row.Scan(
		&a.ID, &a.ProductID, &a.LocationID, &a.SectionID, &a.ShelfID, &a.CorridorID,
		&a.Quantity, &a.MinimumQuantity, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Allocation{}, err
	}
	a.FlagMinimum()
	return a, nil
}

// Create insere uma nova alocação. O chamador (Reconciler) já validou
// campos, estoque disponível e ausência de duplicata da tupla.
func (r *AllocationRepository) Create(ctx context.Context, allocation domain.Allocation) (domain.Allocation, error) {
	r.logger.Debug("Iniciando Create de alocação no repositório.", map[string]interface{}{
		"product_id":  allocation.ProductID,
		"location_id": allocation.LocationID,
		"quantity":    allocation.Quantity,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if allocation.ID == "" {
		allocation.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	allocation.CreatedAt = now
	allocation.UpdatedAt = now
	allocation.Version = 1

	query := `
        INSERT INTO allocations (id, product_id, location_id, section_id, shelf_id, corridor_id,
                                 quantity, minimum_quantity, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING ` + allocationColumns

	created, err := scanAllocation(r.DB.QueryRowContext(ctxTimeout, query,
		allocation.ID, allocation.ProductID, allocation.LocationID, allocation.SectionID,
		allocation.ShelfID, allocation.CorridorID, allocation.Quantity, allocation.MinimumQuantity,
		allocation.Version, allocation.CreatedAt, allocation.UpdatedAt,
	))
	if err != nil {
		r.logger.Error("Falha ao inserir alocação no DB.", err)
		return domain.Allocation{}, errors.NewDBError("Falha ao criar alocação", err)
	}

	r.logger.Info("Alocação criada com sucesso.", map[string]interface{}{"id": created.ID, "product_id": created.ProductID})
	return created, nil
}

// FindByID busca uma alocação pelo ID.
func (r *AllocationRepository) FindByID(ctx context.Context, id string) (domain.Allocation, error) {
	r.logger.Debug("Iniciando FindByID de alocação no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1`

	allocation, err := scanAllocation(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		r.logger.Info("Alocação não encontrada.", map[string]interface{}{"id": id})
		return domain.Allocation{}, errors.NewNotFoundError(fmt.Sprintf("Alocação com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar alocação no DB.", err)
		return domain.Allocation{}, errors.NewDBError("Falha ao buscar alocação", err)
	}

	return allocation, nil
}

// FindAll busca todas as alocações cadastradas.
func (r *AllocationRepository) FindAll(ctx context.Context) ([]domain.Allocation, error) {
	r.logger.Debug("Iniciando FindAll de alocações no repositório.", nil)

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + allocationColumns + ` FROM allocations ORDER BY product_id, location_id`

	return r.queryAllocations(ctxTimeout, query)
}

// FindByProduct busca todas as alocações de um produto.
func (r *AllocationRepository) FindByProduct(ctx context.Context, productID string) ([]domain.Allocation, error) {
	r.logger.Debug("Iniciando FindByProduct de alocações no repositório.", map[string]interface{}{"product_id": productID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE product_id = $1 ORDER BY location_id`

	return r.queryAllocations(ctxTimeout, query, productID)
}

// FindBelowMinimum busca as alocações com quantidade no limite mínimo ou abaixo.
// Sinalização consultiva: a camada de apresentação exibe, nunca bloqueia.
func (r *AllocationRepository) FindBelowMinimum(ctx context.Context) ([]domain.Allocation, error) {
	r.logger.Debug("Iniciando FindBelowMinimum de alocações no repositório.", nil)

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + allocationColumns + ` FROM allocations
        WHERE quantity <= minimum_quantity ORDER BY product_id`

	return r.queryAllocations(ctxTimeout, query)
}

func (r *AllocationRepository) queryAllocations(ctx context.Context, query string, args ...interface{}) ([]domain.Allocation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Falha ao executar query de alocações.", err)
		return nil, errors.NewDBError("Falha ao buscar alocações", err)
	}
	defer rows.Close()

	var allocations []domain.Allocation
	for rows.Next() {
		allocation, err := scanAllocation(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear alocação na iteração.", err)
			return nil, errors.NewDBError("Falha ao mapear alocações do DB", err)
		}
		allocations = append(allocations, allocation)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de alocações.", err)
		return nil, errors.NewDBError("Erro após iteração de alocações", err)
	}

	return allocations, nil
}

// FindByTuple busca a alocação do produto na posição exata
// (location, section, shelf, corridor), opcionalmente excluindo um ID
// (o registro em edição). Usada para decidir fusão vs. criação.
func (r *AllocationRepository) FindByTuple(ctx context.Context, productID string, tuple domain.PlacementTuple, excludeID string) (domain.Allocation, error) {
	r.logger.Debug("Iniciando FindByTuple de alocação no repositório.", map[string]interface{}{
		"product_id":  productID,
		"location_id": tuple.LocationID,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + allocationColumns + ` FROM allocations
        WHERE product_id = $1 AND location_id = $2 AND section_id = $3
          AND shelf_id = $4 AND corridor_id = $5 AND id <> $6`

	allocation, err := scanAllocation(r.DB.QueryRowContext(ctxTimeout, query,
		productID, tuple.LocationID, tuple.SectionID, tuple.ShelfID, tuple.CorridorID, excludeID,
	))
	if err == sql.ErrNoRows {
		return domain.Allocation{}, errors.NewNotFoundError("Nenhuma alocação na posição informada.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar alocação por posição no DB.", err)
		return domain.Allocation{}, errors.NewDBError("Falha ao buscar alocação por posição", err)
	}

	return allocation, nil
}

// SumQuantityByProduct soma as quantidades alocadas de um produto,
// opcionalmente excluindo uma alocação (a que está sendo editada).
func (r *AllocationRepository) SumQuantityByProduct(ctx context.Context, productID string, excludeID string) (int, error) {
	r.logger.Debug("Iniciando SumQuantityByProduct no repositório.", map[string]interface{}{"product_id": productID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT COALESCE(SUM(quantity), 0) FROM allocations WHERE product_id = $1 AND id <> $2`

	var total int
	err := r.DB.QueryRowContext(ctxTimeout, query, productID, excludeID).Scan(&total)
	if err != nil {
		r.logger.Error("Falha ao somar quantidades alocadas no DB.", err)
		return 0, errors.NewDBError("Falha ao somar alocações do produto", err)
	}

	return total, nil
}

// Update substitui os campos mutáveis de uma alocação, com controle de
// concorrência otimista: a versão informada deve ser a corrente.
func (r *AllocationRepository) Update(ctx context.Context, allocation domain.Allocation) (domain.Allocation, error) {
	r.logger.Debug("Iniciando Update de alocação no repositório.", map[string]interface{}{
		"id":       allocation.ID,
		"quantity": allocation.Quantity,
		"version":  allocation.Version,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE allocations
        SET location_id = $1, section_id = $2, shelf_id = $3, corridor_id = $4,
            quantity = $5, minimum_quantity = $6, version = $7, updated_at = $8
        WHERE id = $9 AND version = $10
        RETURNING ` + allocationColumns

	updated, err := scanAllocation(r.DB.QueryRowContext(ctxTimeout, query,
		allocation.LocationID, allocation.SectionID, allocation.ShelfID, allocation.CorridorID,
		allocation.Quantity, allocation.MinimumQuantity, allocation.Version+1, time.Now().UTC(),
		allocation.ID, allocation.Version,
	))
	if err == sql.ErrNoRows {
		// Ou a alocação não existe, ou a versão está desatualizada (OCC).
		exists, checkErr := r.exists(ctxTimeout, allocation.ID)
		if checkErr != nil {
			return domain.Allocation{}, checkErr
		}
		if !exists {
			r.logger.Info("Alocação não encontrada para atualização.", map[string]interface{}{"id": allocation.ID})
			return domain.Allocation{}, errors.NewNotFoundError(fmt.Sprintf("Alocação com ID %s não encontrada para atualização.", allocation.ID))
		}
		r.logger.Warn("Falha no controle de concorrência otimista (OCC) da alocação.", map[string]interface{}{
			"id":               allocation.ID,
			"expected_version": allocation.Version,
		})
		return domain.Allocation{}, errors.NewConflictError("A alocação foi modificada por outra operação. Tente novamente.")
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar alocação no DB.", err)
		return domain.Allocation{}, errors.NewDBError("Falha ao atualizar alocação", err)
	}

	r.logger.Info("Alocação atualizada com sucesso.", map[string]interface{}{"id": updated.ID, "quantity": updated.Quantity})
	return updated, nil
}

func (r *AllocationRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM allocations WHERE id = $1`, id).Scan(&count); err != nil {
		r.logger.Error("Falha ao verificar existência da alocação.", err)
		return false, errors.NewDBError("Falha ao verificar alocação", err)
	}
	return count > 0, nil
}

// Delete remove uma alocação pelo ID. A regra "somente com quantidade zero"
// é verificada no serviço; a cláusula extra protege contra corridas.
func (r *AllocationRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debug("Iniciando Delete de alocação no repositório.", map[string]interface{}{"id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM allocations WHERE id = $1 AND quantity = 0`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar alocação do DB.", err)
		return errors.NewDBError("Falha ao deletar alocação", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após Delete.", err)
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if rowsAffected == 0 {
		allocation, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return findErr // NotFound ou DBError
		}
		r.logger.Warn("Exclusão bloqueada: alocação ainda possui quantidade.", map[string]interface{}{"id": id, "quantity": allocation.Quantity})
		return errors.NewNonEmptyAllocationError(id, allocation.Quantity)
	}

	r.logger.Info("Alocação deletada com sucesso.", map[string]interface{}{"id": id})
	return nil
}
