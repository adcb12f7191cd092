package transferrepo

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

// TransferRepository executa transferências de quantidade entre alocações e
// mantém o log imutável de transferências. A movimentação inteira (resolver
// destino, decrementar origem, registrar auditoria) acontece em UMA transação
// PostgreSQL: não existe janela de falha parcial observável pelo chamador.
type TransferRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTransferRepository cria e retorna uma nova instância do Repositório de Transferências.
func NewTransferRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *TransferRepository {
	return &TransferRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const allocationColumns = `id, product_id, location_id, section_id, shelf_id, corridor_id,
        quantity, minimum_quantity, version, created_at, updated_at`

// ExecuteTransfer move quantity unidades da alocação de origem para a posição
// de destino e registra a transferência, tudo na mesma transação:
//  1. Bloqueia a origem (FOR UPDATE) e revalida a quantidade contra a linha
//     bloqueada — duas transferências concorrentes serializam aqui.
//  2. Resolve o destino ANTES de decrementar a origem: atualiza a alocação
//     existente na tupla ou cria uma nova com a quantidade movida.
//  3. Decrementa a origem (mantida mesmo em zero; exclusão é ação separada).
//  4. Insere o registro imutável de transferência apontando para o destino.
func (r *TransferRepository) ExecuteTransfer(ctx context.Context, req domain.TransferRequest, employeeID string) (domain.Transfer, domain.Allocation, domain.Allocation, error) {
	r.logger.Debug("Iniciando ExecuteTransfer no repositório.", map[string]interface{}{
		"product_id":         req.ProductID,
		"from_allocation_id": req.FromAllocationID,
		"quantity":           req.Quantity,
	})

	var empty domain.Allocation
	var emptyTransfer domain.Transfer

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de transferência.", err)
		return emptyTransfer, empty, empty, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Bloquear e revalidar a origem
	querySource := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1 FOR UPDATE`

	var source domain.Allocation
	err = tx.QueryRowContext(ctxTimeout, querySource, req.FromAllocationID).Scan(
		&source.ID, &source.ProductID, &source.LocationID, &source.SectionID, &source.ShelfID,
		&source.CorridorID, &source.Quantity, &source.MinimumQuantity, &source.Version,
		&source.CreatedAt, &source.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		r.logger.Info("Alocação de origem não encontrada.", map[string]interface{}{"id": req.FromAllocationID})
		return emptyTransfer, empty, empty, errors.NewNotFoundError(fmt.Sprintf("Alocação de origem %s não encontrada.", req.FromAllocationID))
	}
	if err != nil {
		r.logger.Error("Falha ao bloquear alocação de origem.", err)
		return emptyTransfer, empty, empty, errors.NewDBError("Falha ao buscar alocação de origem", err)
	}

	if source.ProductID != req.ProductID {
		return emptyTransfer, empty, empty, errors.NewValidationError("A alocação de origem não pertence ao produto informado.")
	}
	if req.Quantity > source.Quantity {
		r.logger.Warn("Transferência excede a quantidade da origem.", map[string]interface{}{
			"from_allocation_id": source.ID,
			"source_quantity":    source.Quantity,
			"quantity":           req.Quantity,
		})
		return emptyTransfer, empty, empty, errors.NewValidationError(
			fmt.Sprintf("Quantidade a transferir (%d) excede a quantidade da origem (%d).", req.Quantity, source.Quantity))
	}
	if source.Tuple() == req.To {
		return emptyTransfer, empty, empty, errors.NewValidationError("Origem e destino são a mesma posição; transferência sem efeito.")
	}

	now := time.Now().UTC()

	// 2. Resolver o destino (antes de tocar na origem)
	queryDest := `SELECT ` + allocationColumns + ` FROM allocations
        WHERE product_id = $1 AND location_id = $2 AND section_id = $3
          AND shelf_id = $4 AND corridor_id = $5 FOR UPDATE`

	var dest domain.Allocation
	err = tx.QueryRowContext(ctxTimeout, queryDest,
		req.ProductID, req.To.LocationID, req.To.SectionID, req.To.ShelfID, req.To.CorridorID,
	).Scan(
		&dest.ID, &dest.ProductID, &dest.LocationID, &dest.SectionID, &dest.ShelfID,
		&dest.CorridorID, &dest.Quantity, &dest.MinimumQuantity, &dest.Version,
		&dest.CreatedAt, &dest.UpdatedAt,
	)

	switch {
	case err == sql.ErrNoRows:
		// Destino inexistente: criar nova alocação com a quantidade movida.
		dest = domain.Allocation{
			ID:              uuid.New().String(),
			ProductID:       req.ProductID,
			LocationID:      req.To.LocationID,
			SectionID:       req.To.SectionID,
			ShelfID:         req.To.ShelfID,
			CorridorID:      req.To.CorridorID,
			Quantity:        req.Quantity,
			MinimumQuantity: 0,
			Version:         1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		queryInsert := `
            INSERT INTO allocations (id, product_id, location_id, section_id, shelf_id, corridor_id,
                                     quantity, minimum_quantity, version, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		if _, err = tx.ExecContext(ctxTimeout, queryInsert,
			dest.ID, dest.ProductID, dest.LocationID, dest.SectionID, dest.ShelfID, dest.CorridorID,
			dest.Quantity, dest.MinimumQuantity, dest.Version, dest.CreatedAt, dest.UpdatedAt,
		); err != nil {
			r.logger.Error("Falha ao criar alocação de destino.", err)
			return emptyTransfer, empty, empty, errors.NewDBError("Falha ao criar alocação de destino", err)
		}

	case err != nil:
		r.logger.Error("Falha ao bloquear alocação de destino.", err)
		return emptyTransfer, empty, empty, errors.NewDBError("Falha ao buscar alocação de destino", err)

	default:
		// Destino existente: incrementar a quantidade.
		dest.Quantity += req.Quantity
		dest.Version++
		dest.UpdatedAt = now
		queryUpdateDest := `
            UPDATE allocations SET quantity = $1, version = $2, updated_at = $3 WHERE id = $4`
		if _, err = tx.ExecContext(ctxTimeout, queryUpdateDest,
			dest.Quantity, dest.Version, dest.UpdatedAt, dest.ID,
		); err != nil {
			r.logger.Error("Falha ao incrementar alocação de destino.", err)
			return emptyTransfer, empty, empty, errors.NewDBError("Falha ao atualizar alocação de destino", err)
		}
	}

	// 3. Decrementar a origem (linha mantida mesmo zerada)
	source.Quantity -= req.Quantity
	source.Version++
	source.UpdatedAt = now
	queryUpdateSource := `
        UPDATE allocations SET quantity = $1, version = $2, updated_at = $3 WHERE id = $4`
	if _, err = tx.ExecContext(ctxTimeout, queryUpdateSource,
		source.Quantity, source.Version, source.UpdatedAt, source.ID,
	); err != nil {
		r.logger.Error("Falha ao decrementar alocação de origem.", err)
		return emptyTransfer, empty, empty, errors.NewDBError("Falha ao atualizar alocação de origem", err)
	}

	// 4. Registrar a transferência (append-only)
	transfer := domain.Transfer{
		ID:                      uuid.New().String(),
		ProductID:               req.ProductID,
		EmployeeID:              employeeID,
		DestinationAllocationID: dest.ID,
		TransferredAt:           now,
		QuantityTransferred:     req.Quantity,
	}
	queryTransfer := `
        INSERT INTO transfers (id, product_id, employee_id, destination_allocation_id, transferred_at, quantity_transferred)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctxTimeout, queryTransfer,
		transfer.ID, transfer.ProductID, transfer.EmployeeID, transfer.DestinationAllocationID,
		transfer.TransferredAt, transfer.QuantityTransferred,
	); err != nil {
		r.logger.Error("Falha ao registrar transferência.", err)
		return emptyTransfer, empty, empty, errors.NewDBError("Falha ao registrar transferência", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de transferência.", commitErr)
		return emptyTransfer, empty, empty, errors.NewDBError("Falha ao commitar transação", commitErr)
	}

	source.FlagMinimum()
	dest.FlagMinimum()

	r.logger.Info("Transferência executada com sucesso.", map[string]interface{}{
		"transfer_id":     transfer.ID,
		"product_id":      transfer.ProductID,
		"quantity":        transfer.QuantityTransferred,
		"source_quantity": source.Quantity,
		"dest_quantity":   dest.Quantity,
	})
	return transfer, source, dest, nil
}

// FindByProduct busca o histórico de transferências de um produto,
// da mais recente para a mais antiga.
func (r *TransferRepository) FindByProduct(ctx context.Context, productID string) ([]domain.Transfer, error) {
	r.logger.Debug("Iniciando FindByProduct de transferências no repositório.", map[string]interface{}{"product_id": productID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, product_id, employee_id, destination_allocation_id, transferred_at, quantity_transferred
        FROM transfers
        WHERE product_id = $1
        ORDER BY transferred_at DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, productID)
	if err != nil {
		r.logger.Error("Falha ao executar query de transferências.", err)
		return nil, errors.NewDBError("Falha ao buscar transferências", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		var t domain.Transfer
		err := rows.Scan(&t.ID, &t.ProductID, &t.EmployeeID, &t.DestinationAllocationID, &t.TransferredAt, &t.QuantityTransferred)
		if err != nil {
			r.logger.Error("Falha ao mapear transferência na iteração.", err)
			return nil, errors.NewDBError("Falha ao mapear transferências do DB", err)
		}
		transfers = append(transfers, t)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das transferências.", err)
		return nil, errors.NewDBError("Erro após iteração de transferências", err)
	}

	return transfers, nil
}
