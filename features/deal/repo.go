package deal

import (
	"context"
	"database/sql"

	"venturelens/backend/internal/funding"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// SaveAll inserts extracted records, silently skipping rows that
// collide on (startup_name, amount_usd); repeated crawls of the same
// story must not double-count a deal.
func (r *PostgresRepo) SaveAll(ctx context.Context, records []funding.Record) error {
	query := `
		INSERT INTO deals (startup_name, amount_usd, source_id, deal_date, raw_match)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (startup_name, amount_usd) DO NOTHING
	`
	for _, rec := range records {
		sourceID := sql.NullString{String: rec.SourceID, Valid: rec.SourceID != ""}
		if _, err := r.db.ExecContext(ctx, query, rec.StartupName, rec.AmountUSD, sourceID, rec.DealDate, rec.RawMatch); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Deal, error) {
	query := `
		SELECT id, startup_name, amount_usd, COALESCE(source_id::text, ''), deal_date, raw_match, created_at
		FROM deals ORDER BY created_at DESC LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(&d.ID, &d.StartupName, &d.AmountUSD, &d.SourceID, &d.DealDate, &d.RawMatch, &d.CreatedAt); err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (r *PostgresRepo) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	summary := `SELECT COUNT(*), COALESCE(SUM(amount_usd), 0), COALESCE(MAX(amount_usd), 0) FROM deals`
	if err := r.db.QueryRowContext(ctx, summary).Scan(&stats.TotalDeals, &stats.TotalAmountUSD, &stats.LargestDeal); err != nil {
		return nil, err
	}

	corpus := `SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM chunks)`
	if err := r.db.QueryRowContext(ctx, corpus).Scan(&stats.TotalDocuments, &stats.TotalChunks); err != nil {
		return nil, err
	}

	top := `
		SELECT startup_name, amount_usd
		FROM deals
		ORDER BY amount_usd DESC
		LIMIT 5
	`
	topRows, err := r.db.QueryContext(ctx, top)
	if err != nil {
		return nil, err
	}
	defer topRows.Close()

	for topRows.Next() {
		var t TopStartup
		if err := topRows.Scan(&t.StartupName, &t.AmountUSD); err != nil {
			return nil, err
		}
		stats.TopStartups = append(stats.TopStartups, t)
	}
	if err := topRows.Err(); err != nil {
		return nil, err
	}

	monthly := `
		SELECT TO_CHAR(deal_date, 'YYYY-MM') AS month, COUNT(*), COALESCE(SUM(amount_usd), 0)
		FROM deals
		GROUP BY month
		ORDER BY month DESC
		LIMIT 12
	`
	rows, err := r.db.QueryContext(ctx, monthly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m MonthlyStats
		if err := rows.Scan(&m.Month, &m.Count, &m.AmountUSD); err != nil {
			return nil, err
		}
		stats.DealsByMonth = append(stats.DealsByMonth, m)
	}
	return stats, rows.Err()
}
