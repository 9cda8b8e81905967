package deal

import (
	"context"

	"venturelens/backend/internal/funding"
)

// Deal is a persisted funding event extracted from document text.
type Deal struct {
	ID          string  `json:"id"`
	StartupName string  `json:"startup_name"`
	AmountUSD   float64 `json:"amount_usd"`
	SourceID    string  `json:"source_id,omitempty"`
	DealDate    string  `json:"deal_date"`
	RawMatch    string  `json:"raw_match,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

type Repository interface {
	SaveAll(ctx context.Context, records []funding.Record) error
	List(ctx context.Context, limit int) ([]Deal, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Stats aggregates the corpus for the dashboard.
type Stats struct {
	TotalDeals     int            `json:"total_deals"`
	TotalAmountUSD float64        `json:"total_amount_usd"`
	LargestDeal    float64        `json:"largest_deal_usd"`
	TotalDocuments int            `json:"total_documents"`
	TotalChunks    int            `json:"total_chunks"`
	TopStartups    []TopStartup   `json:"top_startups"`
	DealsByMonth   []MonthlyStats `json:"deals_by_month"`
}

type TopStartup struct {
	StartupName string  `json:"startup_name"`
	AmountUSD   float64 `json:"amount_usd"`
}

type MonthlyStats struct {
	Month     string  `json:"month"`
	Count     int     `json:"count"`
	AmountUSD float64 `json:"amount_usd"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, limit int) ([]Deal, error) {
	return s.repo.List(ctx, limit)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}
