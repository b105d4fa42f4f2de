package snapshot

import (
	"context"
	"path/filepath"
	"ratesetter-client/internal/components/telemetry"
	"ratesetter-client/internal/scrapers/ratesetter"
	"ratesetter-client/internal/snapshot/db"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Location() *time.Location {
	return time.UTC
}

func setupStore(t *testing.T) (Store, *fakeClock) {
	sqlite, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	clock := &fakeClock{now: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	return NewStoreFromDB(sqlite, clock, telemetry.NewRecorder()), clock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func snapshotOf(monthly, bond string) ratesetter.Snapshot {
	return ratesetter.Snapshot{
		Rates: ratesetter.MarketRates{
			ratesetter.MONTHLY_ACCESS: dec(monthly),
			ratesetter.BOND_1_YEAR:    dec(bond),
		},
		ProvisionFund: ratesetter.ProvisionFundStatus{
			Balance:  dec("5412876"),
			Coverage: dec("1.5"),
		},
	}
}

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

func TestEmptyStore(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.LatestRates(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)
	_, err = store.LatestProvisionFund(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	history, err := store.History(ctx, ratesetter.MONTHLY_ACCESS, 10)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestRecordAndRead(t *testing.T) {
	store, clock := setupStore(t)
	ctx := context.Background()

	first := clock.now
	recordedAt, err := store.Record(ctx, snapshotOf("0.029", "0.041"))
	require.NoError(t, err)
	require.True(t, recordedAt.Equal(first))

	clock.now = clock.now.Add(time.Hour)
	second := clock.now
	_, err = store.Record(ctx, snapshotOf("0.031", "0.0405"))
	require.NoError(t, err)

	latest, err := store.LatestRates(ctx)
	require.NoError(t, err)
	expected := map[ratesetter.MarketKind]Point{
		ratesetter.MONTHLY_ACCESS: {Time: second, Rate: dec("0.031")},
		ratesetter.BOND_1_YEAR:    {Time: second, Rate: dec("0.0405")},
	}
	if diff := cmp.Diff(expected, latest, decimalComparer); diff != "" {
		t.Fatalf("unexpected latest rates (-want +got):\n%s", diff)
	}

	history, err := store.History(ctx, ratesetter.MONTHLY_ACCESS, 10)
	require.NoError(t, err)
	if diff := cmp.Diff([]Point{
		{Time: second, Rate: dec("0.031")},
		{Time: first, Rate: dec("0.029")},
	}, history, decimalComparer); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}

	limited, err := store.History(ctx, ratesetter.MONTHLY_ACCESS, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.True(t, limited[0].Time.Equal(second))

	fund, err := store.LatestProvisionFund(ctx)
	require.NoError(t, err)
	require.True(t, fund.Time.Equal(second))
	require.True(t, fund.Balance.Equal(dec("5412876")))
	require.True(t, fund.Coverage.Equal(dec("1.5")))
}

func TestRecordKeepsPrecision(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, snapshotOf("0.0625", "0.10000000000000001"))
	require.NoError(t, err)

	history, err := store.History(ctx, ratesetter.BOND_1_YEAR, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "0.10000000000000001", history[0].Rate.String())
}

func TestRecordRejectsEmptySnapshot(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, ratesetter.Snapshot{})
	require.Error(t, err)

	_, err = store.LatestProvisionFund(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestHistoryRejectsInvalidLimit(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.History(context.Background(), ratesetter.MONTHLY_ACCESS, 0)
	require.Error(t, err)
}

func TestNewStoreRejectsNilTx(t *testing.T) {
	sqlite, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	var makeTx db.MakeTx
	require.Panics(t, func() {
		NewStore(db.New(sqlite), makeTx, &fakeClock{}, telemetry.NewRecorder())
	})
}
