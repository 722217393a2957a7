package model

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// ErrNotFound aliases the sqlx sentinel so callers need not import it.
var ErrNotFound = sqlx.ErrNotFound

var _ ValuationSnapshotsModel = (*defaultValuationSnapshotsModel)(nil)

type (
	// ValuationSnapshotsModel stores the per-manager results of each
	// valuation pass for history queries.
	ValuationSnapshotsModel interface {
		Insert(ctx context.Context, snapshot *ValuationSnapshot) error
		FindLatest(ctx context.Context, manager string) (*ValuationSnapshot, error)
		ListByManager(ctx context.Context, manager string, limit int) ([]*ValuationSnapshot, error)
	}

	ValuationSnapshot struct {
		Id             int64           `db:"id"`
		Manager        string          `db:"manager"`
		CycleNumber    int64           `db:"cycle_number"`
		PortfolioValue decimal.Decimal `db:"portfolio_value"`
		ManagerRoi     decimal.Decimal `db:"manager_roi"`
		Stake          decimal.Decimal `db:"stake"`
		KairoBalance   decimal.Decimal `db:"kairo_balance"`
		RiskPercentage decimal.Decimal `db:"risk_percentage"`
		Commission     decimal.Decimal `db:"commission"`
		ComputedAt     time.Time       `db:"computed_at"`
		CreatedAt      time.Time       `db:"created_at"`
	}

	defaultValuationSnapshotsModel struct {
		conn sqlx.SqlConn
	}
)

// NewValuationSnapshotsModel returns a model for the
// valuation_snapshots table.
func NewValuationSnapshotsModel(conn sqlx.SqlConn) ValuationSnapshotsModel {
	return &defaultValuationSnapshotsModel{conn: conn}
}

const snapshotColumns = `id, manager, cycle_number, portfolio_value, manager_roi, stake, kairo_balance, risk_percentage, commission, computed_at, created_at`

func (m *defaultValuationSnapshotsModel) Insert(ctx context.Context, s *ValuationSnapshot) error {
	stmt := `
INSERT INTO public.valuation_snapshots (
    manager, cycle_number, portfolio_value, manager_roi, stake, kairo_balance, risk_percentage, commission, computed_at, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW());`
	_, err := m.conn.ExecCtx(ctx, stmt,
		s.Manager,
		s.CycleNumber,
		s.PortfolioValue,
		s.ManagerRoi,
		s.Stake,
		s.KairoBalance,
		s.RiskPercentage,
		s.Commission,
		s.ComputedAt,
	)
	return err
}

func (m *defaultValuationSnapshotsModel) FindLatest(ctx context.Context, manager string) (*ValuationSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
FROM public.valuation_snapshots
WHERE manager = $1
ORDER BY computed_at DESC
LIMIT 1;`
	var snapshot ValuationSnapshot
	err := m.conn.QueryRowCtx(ctx, &snapshot, query, manager)
	switch err {
	case nil:
		return &snapshot, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

func (m *defaultValuationSnapshotsModel) ListByManager(ctx context.Context, manager string, limit int) ([]*ValuationSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + snapshotColumns + `
FROM public.valuation_snapshots
WHERE manager = $1
ORDER BY computed_at DESC
LIMIT $2;`
	var snapshots []*ValuationSnapshot
	if err := m.conn.QueryRowsCtx(ctx, &snapshots, query, manager, limit); err != nil {
		return nil, err
	}
	return snapshots, nil
}
