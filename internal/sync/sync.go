// Package sync brings database tables in line with JSON schemas.
//
// A synchronization plans every operation first (create the table and its
// array child tables, or diff the live tables against the plan) and then
// applies the operations in order inside one backend transaction, so a
// failure leaves the database as it was.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hurou927/schema-sync/internal/backend"
	"github.com/hurou927/schema-sync/internal/jsonschema"
	"github.com/hurou927/schema-sync/internal/schema"
)

// Synchronizer synchronizes schemas against one backend.
type Synchronizer struct {
	backend backend.Backend
	storage schema.TableStorageOptions
	logger  *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithStorageOptions sets the storage options of created tables.
func WithStorageOptions(o schema.TableStorageOptions) Option {
	return func(s *Synchronizer) { s.storage = o }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Synchronizer driving b.
func New(b backend.Backend, opts ...Option) *Synchronizer {
	s := &Synchronizer{backend: b, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// errDryRun aborts the transaction of a dry run.
var errDryRun = errors.New("dry run")

// Sync creates or updates the tables of sch. Invalid schemas fail before
// the backend is touched; any later failure rolls back every change.
func (s *Synchronizer) Sync(ctx context.Context, sch jsonschema.Schema) error {
	_, err := s.Apply(ctx, sch)
	return err
}

// Apply is Sync returning the operations it applied.
func (s *Synchronizer) Apply(ctx context.Context, sch jsonschema.Schema) ([]schema.Operation, error) {
	return s.run(ctx, sch, true)
}

// Plan returns the operations Sync would apply without changing anything.
func (s *Synchronizer) Plan(ctx context.Context, sch jsonschema.Schema) ([]schema.Operation, error) {
	return s.run(ctx, sch, false)
}

func (s *Synchronizer) run(ctx context.Context, sch jsonschema.Schema, apply bool) ([]schema.Operation, error) {
	norm, err := jsonschema.Normalize(sch)
	if err != nil {
		return nil, err
	}
	plan, err := schema.PlanTable(norm, s.storage)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("table", plan.Name)
	var ops []schema.Operation
	err = s.backend.RunInTransaction(ctx, func(ctx context.Context, tx backend.Tx) error {
		var err error
		if ops, err = s.planOps(ctx, tx, plan, logger); err != nil {
			return err
		}
		if !apply {
			return errDryRun
		}
		for _, op := range ops {
			logger.Debug("applying operation", "op", op.Kind(), "target", op.TableName())
			if err := execute(ctx, tx, op); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errDryRun) {
		return ops, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", plan.Name, err)
	}

	logger.Info("table synchronized", "operations", len(ops))
	return ops, nil
}

// planOps chooses between the creation and the update path.
func (s *Synchronizer) planOps(ctx context.Context, tx backend.Tx, plan schema.TablePlan, logger *slog.Logger) ([]schema.Operation, error) {
	exists, err := tx.HasTable(ctx, plan.Name)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.Debug("table absent, creating")
		return schema.CreateOps(plan), nil
	}
	logger.Debug("table present, diffing")
	return s.updateOps(ctx, tx, plan)
}

// updateOps diffs the parent table and each child table against the live
// database and drops child tables whose array property is gone.
func (s *Synchronizer) updateOps(ctx context.Context, tx backend.Tx, plan schema.TablePlan) ([]schema.Operation, error) {
	typeName := schema.TypeNamer(s.backend.Dialect().ColumnType)

	var ops []schema.Operation
	diff := func(want schema.TablePlan) error {
		live, err := tx.IntrospectColumns(ctx, want.Name)
		if err != nil {
			return err
		}
		keys, err := tx.IntrospectUniqueKeys(ctx, want.Name)
		if err != nil {
			return err
		}
		if op := schema.Diff(want, live, keys, typeName); !op.Empty() {
			ops = append(ops, op)
		}
		return nil
	}

	parent := plan
	parent.Children = nil
	if err := diff(parent); err != nil {
		return nil, err
	}

	for _, child := range plan.Children {
		exists, err := tx.HasTable(ctx, child.Name)
		if err != nil {
			return nil, err
		}
		if !exists {
			ops = append(ops, schema.CreateOps(child)...)
			continue
		}
		if err := diff(child); err != nil {
			return nil, err
		}
	}

	live, err := tx.ChildTables(ctx, plan.Name)
	if err != nil {
		return nil, err
	}
	for _, name := range live {
		if _, planned := plan.Child(name); !planned {
			ops = append(ops, schema.DropTable{Table: name})
		}
	}

	return ops, nil
}

func execute(ctx context.Context, tx backend.Tx, op schema.Operation) error {
	switch o := op.(type) {
	case schema.CreateTable:
		return tx.CreateTable(ctx, o.Plan)
	case schema.AlterTable:
		return tx.AlterTable(ctx, o)
	case schema.DropTable:
		return tx.DropTable(ctx, o.Table)
	default:
		return fmt.Errorf("unknown operation %T", op)
	}
}
