package clickhouse

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

// PriceSnapshotStore implements storage.PriceSnapshotStore using ClickHouse.
type PriceSnapshotStore struct {
	conn *Conn
}

// NewPriceSnapshotStore creates a new PriceSnapshotStore.
func NewPriceSnapshotStore(conn *Conn) *PriceSnapshotStore {
	return &PriceSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceSnapshotStore = (*PriceSnapshotStore)(nil)

type snapshotKey struct {
	kind   string
	entity string
}

// InsertBulk appends snapshots in one batch.
// MergeTree does not enforce keys, so duplicates of (run_id, kind, entity)
// are checked against the batch and the stored run before sending.
func (s *PriceSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.PriceSnapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	defer observe("insert_snapshots")(&err)

	batchKeys := make(map[string]map[snapshotKey]struct{})
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" {
			return storage.ErrInvalidInput
		}
		keys, ok := batchKeys[snap.RunID]
		if !ok {
			keys = make(map[snapshotKey]struct{})
			batchKeys[snap.RunID] = keys
		}
		k := snapshotKey{snap.Kind, entityHex(snap.Entity)}
		if _, exists := keys[k]; exists {
			return storage.ErrDuplicateKey
		}
		keys[k] = struct{}{}
	}

	for runID, keys := range batchKeys {
		stored, err := s.keysOfRun(ctx, runID)
		if err != nil {
			return fmt.Errorf("check existing snapshots: %w", err)
		}
		for k := range keys {
			if _, exists := stored[k]; exists {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_snapshots (
			run_id, kind, entity, timestamp_ms,
			eth_price, derived_eth, reserve_usd, tracked_usd, volume_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.RunID, snap.Kind, entityHex(snap.Entity), uint64(snap.TimestampMs),
			snap.ETHPrice, snap.DerivedETH, snap.ReserveUSD, snap.TrackedUSD, snap.VolumeUSD,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves all snapshots of a run, ordered by (kind, entity).
func (s *PriceSnapshotStore) GetByRun(ctx context.Context, runID string) (_ []*domain.PriceSnapshot, err error) {
	defer observe("get_snapshots_by_run")(&err)

	rows, err := s.conn.Query(ctx, `
		SELECT run_id, kind, entity, timestamp_ms,
		       eth_price, derived_eth, reserve_usd, tracked_usd, volume_usd
		FROM price_snapshots
		WHERE run_id = ?
		ORDER BY kind ASC, entity ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by run: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (s *PriceSnapshotStore) keysOfRun(ctx context.Context, runID string) (map[snapshotKey]struct{}, error) {
	rows, err := s.conn.Query(ctx, `SELECT kind, entity FROM price_snapshots WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[snapshotKey]struct{})
	for rows.Next() {
		var k snapshotKey
		if err := rows.Scan(&k.kind, &k.entity); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

// chRows is the subset of driver.Rows used by the scanners.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSnapshots(rows chRows) ([]*domain.PriceSnapshot, error) {
	var result []*domain.PriceSnapshot

	for rows.Next() {
		var (
			snap        domain.PriceSnapshot
			entity      string
			timestampMs uint64
		)
		err := rows.Scan(
			&snap.RunID, &snap.Kind, &entity, &timestampMs,
			&snap.ETHPrice, &snap.DerivedETH, &snap.ReserveUSD, &snap.TrackedUSD, &snap.VolumeUSD,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		if !common.IsHexAddress(entity) {
			return nil, fmt.Errorf("scan snapshot row: bad entity %q", entity)
		}

		snap.Entity = common.HexToAddress(entity)
		snap.TimestampMs = int64(timestampMs)
		result = append(result, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return result, nil
}

// entityHex is the lowercase 0x-prefixed form, so string order matches byte order.
func entityHex(addr common.Address) string {
	return hexutil.Encode(addr.Bytes())
}
