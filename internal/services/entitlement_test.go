package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"mirror-backend/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsageStore struct {
	used map[string]int
	err  error
	// onLooksUsed runs inside every quota read, letting tests interleave
	// other session actions with an in-flight entitlement check
	onLooksUsed func()
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{used: make(map[string]int)}
}

func (f *fakeUsageStore) LooksUsed(_ context.Context, deviceID, day string) (int, error) {
	if f.onLooksUsed != nil {
		f.onLooksUsed()
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.used[deviceID+"/"+day], nil
}

func (f *fakeUsageStore) IncrementLooks(_ context.Context, deviceID, day string) error {
	if f.err != nil {
		return f.err
	}
	f.used[deviceID+"/"+day]++
	return nil
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-09", DayKey(ts))
}

func TestNormalizeDay(t *testing.T) {
	assert.Equal(t, "2025-03-09", NormalizeDay("2025-03-09"))
	assert.Equal(t, DayKey(time.Now()), NormalizeDay(""))
	assert.Equal(t, DayKey(time.Now()), NormalizeDay("yesterday"))
}

func TestCanGenerateLookToday_FreeQuota(t *testing.T) {
	usage := newFakeUsageStore()
	ledger := NewEntitlementLedger(usage, policy.Defaults())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := ledger.CanGenerateLookToday(ctx, "dev-1", "2025-03-09", false)
		require.NoError(t, err)
		assert.True(t, ok, "look %d should be allowed", i+1)
		require.NoError(t, ledger.MarkLookUsed(ctx, "dev-1", "2025-03-09"))
	}

	ok, err := ledger.CanGenerateLookToday(ctx, "dev-1", "2025-03-09", false)
	require.NoError(t, err)
	assert.False(t, ok, "fourth free look must be denied")

	// A new day resets the counter
	ok, err = ledger.CanGenerateLookToday(ctx, "dev-1", "2025-03-10", false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanGenerateLookToday_PremiumQuota(t *testing.T) {
	usage := newFakeUsageStore()
	ledger := NewEntitlementLedger(usage, policy.Defaults())
	ctx := context.Background()

	usage.used["dev-1/2025-03-09"] = 3
	ok, err := ledger.CanGenerateLookToday(ctx, "dev-1", "2025-03-09", true)
	require.NoError(t, err)
	assert.True(t, ok, "premium keeps going past the free limit")

	usage.used["dev-1/2025-03-09"] = 25
	ok, err = ledger.CanGenerateLookToday(ctx, "dev-1", "2025-03-09", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanGenerateLookToday_ZeroLimitDenies(t *testing.T) {
	cfg := policy.Defaults()
	cfg.Limits.MaxLooksPerDay = 0
	ledger := NewEntitlementLedger(newFakeUsageStore(), cfg)

	ok, err := ledger.CanGenerateLookToday(context.Background(), "dev-1", "2025-03-09", false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanGenerateLookToday_StoreError(t *testing.T) {
	usage := newFakeUsageStore()
	usage.err = errors.New("connection refused")
	ledger := NewEntitlementLedger(usage, policy.Defaults())

	_, err := ledger.CanGenerateLookToday(context.Background(), "dev-1", "2025-03-09", false)
	require.Error(t, err)
}

func TestCanAskCoachQuestion(t *testing.T) {
	ledger := NewEntitlementLedger(newFakeUsageStore(), policy.Defaults())

	assert.True(t, ledger.CanAskCoachQuestion(false, 0))
	assert.False(t, ledger.CanAskCoachQuestion(false, 1))
	assert.True(t, ledger.CanAskCoachQuestion(true, 1))
	assert.True(t, ledger.CanAskCoachQuestion(true, 100))
}
