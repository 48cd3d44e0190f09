package domain

import (
	"context"
	"fmt"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/entity"
	"crmapi/internal/core/id"
	"crmapi/internal/core/tx"
	"crmapi/internal/domain/audit"
	"crmapi/pkg/logger"
)

// EntityService implements validated, audited CRUD with soft delete.
// Domain services embed it and register hooks for their own rules.
type EntityService[T entity.Entity] struct {
	repo       Repository[T]
	txManager  tx.Manager
	audit      audit.Recorder
	hooks      *HookRegistry[T]
	entityName string
}

// EntityServiceConfig configures an EntityService. Audit may be nil.
type EntityServiceConfig[T entity.Entity] struct {
	Repo       Repository[T]
	TxManager  tx.Manager
	Audit      audit.Recorder
	EntityName string
}

// NewEntityService creates a new entity service.
func NewEntityService[T entity.Entity](cfg EntityServiceConfig[T]) *EntityService[T] {
	return &EntityService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		audit:      cfg.Audit,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry.
func (s *EntityService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// Create validates e, runs before-create hooks and inserts it.
func (s *EntityService[T]) Create(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return s.record(ctx, e.GetID(), audit.ActionCreate, nil, e)
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterCreate, e)
	return nil
}

// GetByID loads one active entity.
func (s *EntityService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID)
	}
	return e, nil
}

// Update validates e and writes it, recording the column diff.
func (s *EntityService[T]) Update(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if err := s.hooks.Run(ctx, BeforeUpdate, e); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		before, err := s.repo.GetByID(ctx, e.GetID())
		if err != nil {
			return s.normalizeGetErr(err, e.GetID())
		}
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return s.record(ctx, e.GetID(), audit.ActionUpdate, before, e)
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterUpdate, e)
	return nil
}

// Delete soft-deletes the entity.
func (s *EntityService[T]) Delete(ctx context.Context, entityID id.ID) error {
	var deleted T
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if err := s.hooks.Run(ctx, BeforeDelete, e); err != nil {
			return err
		}
		if err := s.repo.Deactivate(ctx, entityID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		deleted = e
		return s.record(ctx, entityID, audit.ActionDelete, e, nil)
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterDelete, deleted)
	return nil
}

// History returns the newest audit entries for one entity.
func (s *EntityService[T]) History(ctx context.Context, entityID id.ID, limit int) ([]audit.Entry, error) {
	if s.audit == nil {
		return []audit.Entry{}, nil
	}
	entries, err := s.audit.History(ctx, s.entityName, entityID, limit)
	if err != nil {
		return nil, apperror.NewDatabase(err)
	}
	return entries, nil
}

func (s *EntityService[T]) record(ctx context.Context, entityID id.ID, action audit.Action, before, after any) error {
	if s.audit == nil {
		return nil
	}
	if err := s.audit.RecordChange(ctx, s.entityName, entityID, action, before, after); err != nil {
		return fmt.Errorf("audit %s %s: %w", action, s.entityName, err)
	}
	return nil
}

func (s *EntityService[T]) runAfter(ctx context.Context, event HookEvent, e T) {
	if err := s.hooks.Run(ctx, event, e); err != nil {
		logger.Warn(ctx, "after hook failed", "entity", s.entityName, "event", event, "error", err)
	}
}

func (s *EntityService[T]) normalizeValidationErr(err error) error {
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *EntityService[T]) normalizeGetErr(err error, entityID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID.String())
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	return apperror.NewDatabase(err).WithDetail("entity", s.entityName)
}
