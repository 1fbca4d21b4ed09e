package usecase

import (
	"context"
	"time"

	"github.com/iho/gowallet/internal/domain"
)

// TransactionUseCase handles transaction record queries and soft-delete
// administration. It never mutates balances.
type TransactionUseCase struct {
	txRepo TransactionRepository
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(txRepo TransactionRepository) *TransactionUseCase {
	return &TransactionUseCase{txRepo: txRepo}
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txRepo.GetByID(ctx, id)
}

// ListByActorInput represents input for listing an actor's transactions.
type ListByActorInput struct {
	ActorID string
	Limit   int
	Offset  int
}

// ListByActor lists transactions where the actor is sender or recipient,
// newest first.
func (uc *TransactionUseCase) ListByActor(ctx context.Context, input ListByActorInput) ([]*domain.Transaction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.txRepo.ListByActor(ctx, input.ActorID, limit, offset)
}

// ListFlagged lists flagged transactions, newest first.
func (uc *TransactionUseCase) ListFlagged(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.txRepo.ListFlagged(ctx, limit, offset)
}

// DeleteTransaction soft deletes a record; it stays queryable through the
// include-deleted path for audit.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := uc.txRepo.GetByID(ctx, id); err != nil {
		return err
	}

	return uc.txRepo.SoftDelete(ctx, id, time.Now().UTC())
}

// RestoreTransaction reverses a soft delete. Status is not reset: a
// restored record keeps the terminal state it settled in.
func (uc *TransactionUseCase) RestoreTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	record, err := uc.txRepo.GetByIDIncludeDeleted(ctx, id)
	if err != nil {
		return nil, err
	}

	if !record.IsDeleted {
		return record, nil
	}

	if err := uc.txRepo.Restore(ctx, id); err != nil {
		return nil, err
	}

	record.Restore()

	return record, nil
}
