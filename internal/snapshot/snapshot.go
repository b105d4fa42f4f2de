package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ratesetter-client/internal/components/assert"
	"ratesetter-client/internal/components/chrono"
	"ratesetter-client/internal/components/telemetry"
	"ratesetter-client/internal/scrapers/ratesetter"
	"ratesetter-client/internal/snapshot/db"
	"time"

	"github.com/shopspring/decimal"
)

const (
	report_db_query     = "db.query"
	report_record       = "snapshot.record"
	report_read_history = "snapshot.read-history"
)

// ErrNoSnapshot is returned when nothing has been recorded yet.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// Point is a single recorded rate.
type Point struct {
	Time time.Time
	Rate decimal.Decimal
}

type FundPoint struct {
	Time time.Time
	ratesetter.ProvisionFundStatus
}

// Open opens (or creates) the sqlite database at path and applies the schema.
func Open(path string) (*sql.DB, error) {
	sqlite, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection serializes writers
	sqlite.SetMaxOpenConns(1)
	_, err = sqlite.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		sqlite.Close()
		return nil, err
	}
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		sqlite.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return sqlite, nil
}

// Store keeps market rates and provision fund figures over time.
type Store struct {
	db     *db.Queries
	makeTx db.MakeTx
	time   chrono.API
	tel    telemetry.API
}

func NewStore(
	queries *db.Queries,
	makeTx db.MakeTx,
	time chrono.API,
	tel telemetry.API,
) Store {
	assert.NotNil(queries, makeTx, time, tel)

	tel = telemetry.NewScopedAPI("snapshot", tel)

	return Store{
		db:     queries,
		makeTx: makeTx,
		time:   time,
		tel:    tel,
	}
}

// NewStoreFromDB is NewStore over a single sqlite handle.
func NewStoreFromDB(sqlite *sql.DB, time chrono.API, tel telemetry.API) Store {
	return NewStore(db.New(sqlite), db.NewMakeTx(sqlite), time, tel)
}

// Record writes every rate of snap and its provision fund figures as of now,
// either all of it is written or none.
func (s Store) Record(ctx context.Context, snap ratesetter.Snapshot) (time.Time, error) {
	if len(snap.Rates) == 0 {
		err := fmt.Errorf("snapshot has no market rates")
		s.tel.ReportBroken(report_record, err)
		return time.Time{}, err
	}

	now := s.time.Now()

	tx, discard, commit, err := s.makeTx()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return time.Time{}, err
	}
	defer discard()

	for _, market := range ratesetter.AllMarkets() {
		rate, ok := snap.Rates[market]
		if !ok {
			continue
		}
		param := db.CreateMarketRateParams{
			Market:     market.Key(),
			Rate:       rate.String(),
			RecordedAt: now.Unix(),
		}
		err = tx.CreateMarketRate(ctx, param)
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "CreateMarketRate", param)
			return time.Time{}, err
		}
	}

	fundParam := db.CreateProvisionFundParams{
		Balance:    snap.ProvisionFund.Balance.String(),
		Coverage:   snap.ProvisionFund.Coverage.String(),
		RecordedAt: now.Unix(),
	}
	err = tx.CreateProvisionFund(ctx, fundParam)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CreateProvisionFund", fundParam)
		return time.Time{}, err
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return time.Time{}, err
	}

	s.tel.ReportDebug("recorded snapshot", now.Format(time.DateTime), len(snap.Rates))
	return now, nil
}

func (s Store) at(unix int64) time.Time {
	return time.Unix(unix, 0).In(s.time.Location())
}

// LatestRates returns the most recently recorded rate of every market that
// has one.
func (s Store) LatestRates(ctx context.Context) (map[ratesetter.MarketKind]Point, error) {
	rows, err := s.db.GetLatestMarketRates(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetLatestMarketRates")
		return nil, err
	}

	latest := map[ratesetter.MarketKind]Point{}
	for _, row := range rows {
		market, err := ratesetter.ParseMarketKind(row.Market)
		if err != nil {
			s.tel.ReportWarning(report_read_history, err)
			continue
		}
		// ties within the same second are ordered newest first
		if _, seen := latest[market]; seen {
			continue
		}
		rate, err := decimal.NewFromString(row.Rate)
		if err != nil {
			s.tel.ReportBroken(report_read_history, err, row.Market, row.Rate)
			return nil, err
		}
		latest[market] = Point{Time: s.at(row.RecordedAt), Rate: rate}
	}
	if len(latest) == 0 {
		return nil, ErrNoSnapshot
	}
	return latest, nil
}

// LatestProvisionFund returns the most recently recorded provision fund figures.
func (s Store) LatestProvisionFund(ctx context.Context) (FundPoint, error) {
	row, err := s.db.GetLatestProvisionFund(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return FundPoint{}, ErrNoSnapshot
	}
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetLatestProvisionFund")
		return FundPoint{}, err
	}

	balance, err := decimal.NewFromString(row.Balance)
	if err != nil {
		s.tel.ReportBroken(report_read_history, err, "balance", row.Balance)
		return FundPoint{}, err
	}
	coverage, err := decimal.NewFromString(row.Coverage)
	if err != nil {
		s.tel.ReportBroken(report_read_history, err, "coverage", row.Coverage)
		return FundPoint{}, err
	}

	return FundPoint{
		Time: s.at(row.RecordedAt),
		ProvisionFundStatus: ratesetter.ProvisionFundStatus{
			Balance:  balance,
			Coverage: coverage,
		},
	}, nil
}

// History returns up to limit recorded rates of market, newest first.
func (s Store) History(ctx context.Context, market ratesetter.MarketKind, limit int) ([]Point, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	param := db.GetMarketRateHistoryParams{
		Market: market.Key(),
		Limit:  int64(limit),
	}
	rows, err := s.db.GetMarketRateHistory(ctx, param)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetMarketRateHistory", param)
		return nil, err
	}

	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		rate, err := decimal.NewFromString(row.Rate)
		if err != nil {
			s.tel.ReportBroken(report_read_history, err, param.Market, row.Rate)
			return nil, err
		}
		points = append(points, Point{Time: s.at(row.RecordedAt), Rate: rate})
	}
	return points, nil
}
