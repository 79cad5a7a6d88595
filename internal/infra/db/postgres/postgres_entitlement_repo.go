package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/repository"
)

var _ repository.EntitlementRepository = (*PostgresEntitlementRepo)(nil)

// PostgresEntitlementRepo reads and writes the access columns of the teams
// and organizations tables.
type PostgresEntitlementRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresEntitlementRepo(pool *pgxpool.Pool) *PostgresEntitlementRepo {
	return &PostgresEntitlementRepo{pool: pool}
}

// FindByRef loads the target. Inside a transaction the row stays locked until commit.
func (r *PostgresEntitlementRepo) FindByRef(ctx context.Context, tx repository.Tx, ref model.TargetRef) (*model.EntitlementTarget, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var q string
	switch ref.Kind {
	case model.TargetTeam:
		q = `
SELECT id, owner_id, access_status, access_expires_at, 0
  FROM teams WHERE id=$1`
	default:
		q = `
SELECT id, owner_id, access_status, access_expires_at, teams_created_this_period
  FROM organizations WHERE id=$1`
	}
	if inTx(tx) {
		q += " FOR UPDATE"
	}

	row, err := pickRow(ctx, r.pool, tx, q, ref.ID)
	if err != nil {
		return nil, err
	}
	t := model.EntitlementTarget{Ref: model.TargetRef{Kind: ref.Kind}}
	var status string
	if err := row.Scan(&t.Ref.ID, &t.OwnerID, &status, &t.AccessExpiresAt, &t.TeamsCreatedThisPeriod); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgInvalidText {
			return nil, domain.ErrTargetNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	t.AccessStatus = model.AccessStatus(status)
	return &t, nil
}

// ApplyGrant writes status and expiry. The org team counter is reset only when
// the grant asks for it.
func (r *PostgresEntitlementRepo) ApplyGrant(ctx context.Context, tx repository.Tx, g model.Grant) error {
	if err := g.Target.Validate(); err != nil {
		return err
	}

	var (
		q    string
		args []interface{}
	)
	switch g.Target.Kind {
	case model.TargetTeam:
		q = `
UPDATE teams
   SET access_status=$2, access_expires_at=$3
 WHERE id=$1`
		args = []interface{}{g.Target.ID, string(g.Status), g.ExpiresAt}
	default:
		q = `
UPDATE organizations
   SET access_status=$2, access_expires_at=$3,
       teams_created_this_period = CASE WHEN $4::boolean THEN 0 ELSE teams_created_this_period END
 WHERE id=$1`
		args = []interface{}{g.Target.ID, string(g.Status), g.ExpiresAt, g.ResetCounter}
	}

	tag, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		if pgCode(err) == pgInvalidText {
			return domain.ErrTargetNotFound
		}
		return fmt.Errorf("apply grant %s: %w", g.Target, mapExecErr(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTargetNotFound
	}
	return nil
}
