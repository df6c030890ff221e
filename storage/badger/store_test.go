package badger

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	kitlog "github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/airtime"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/pipeline"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/storage"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	opt := badger.DefaultOptions(t.TempDir())
	opt.Logger = nil

	db, err := badger.Open(opt)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Store{DB: db}
}

func testRun(t *testing.T, ts time.Time) *storage.Run {
	t.Helper()

	params := airtime.Params{SpreadFactor: 12, BandwidthKHz: 125, CodingRate: 1}
	proc, err := pipeline.New(kitlog.NewNopLogger(), params, pipeline.Config{
		Now: func() time.Time { return ts },
	})
	require.NoError(t, err)

	rep, err := proc.Process([]string{
		"AABBCCDDEEFF001122334401",
		"AABBCCDDEEFF001122334402",
		"999999999999999999999999",
	})
	require.NoError(t, err)

	return storage.RunFromReport(ts, params, rep)
}

func TestStoreAndGetRun(t *testing.T) {
	s := openStore(t)

	run := testRun(t, time.Unix(1700000000, 0))
	require.NoError(t, s.StoreRun(run))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)

	require.Equal(t, run.ID, got.ID)
	require.Equal(t, run.ValidTags, got.ValidTags)
	require.Equal(t, run.Schedule, got.Schedule)
	require.Equal(t, run.Groups, got.Groups)
	require.Equal(t, run.Frames, got.Frames)
	require.True(t, run.Time.Equal(got.Time))
}

func TestGetRunNotFound(t *testing.T) {
	s := openStore(t)

	_, err := s.GetRun(12345)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunsNewestFirst(t *testing.T) {
	s := openStore(t)

	older := testRun(t, time.Unix(1700000000, 0))
	newer := testRun(t, time.Unix(1700000100, 0))
	require.NoError(t, s.StoreRun(older))
	require.NoError(t, s.StoreRun(newer))

	runs, err := s.Runs(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, newer.ID, runs[0].ID)
	require.Equal(t, older.ID, runs[1].ID)

	runs, err = s.Runs(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, newer.ID, runs[0].ID)
}

func TestDeleteRun(t *testing.T) {
	s := openStore(t)

	keep := testRun(t, time.Unix(1700000000, 0))
	drop := testRun(t, time.Unix(1700000100, 0))
	require.NoError(t, s.StoreRun(keep))
	require.NoError(t, s.StoreRun(drop))

	require.NoError(t, s.DeleteRun(drop.ID))

	_, err := s.GetRun(drop.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := s.GetRun(keep.ID)
	require.NoError(t, err)
	require.Equal(t, keep.Groups, got.Groups)

	require.ErrorIs(t, s.DeleteRun(drop.ID), storage.ErrNotFound)
}
