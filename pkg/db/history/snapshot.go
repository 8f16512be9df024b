package history

import (
	"context"
	"fmt"
	"time"

	"github.com/canopy-network/stakewatch/pkg/status"
	"github.com/canopy-network/stakewatch/pkg/utils"
)

const snapshotsTable = "account_snapshots"

// DefaultHistoryLimit bounds recent-history queries when the caller gives no limit.
const DefaultHistoryLimit = 50

// MaxHistoryLimit is the hard cap on one history page.
const MaxHistoryLimit = 500

// Row is one archived account snapshot observation.
type Row struct {
	SessionID           string    `ch:"session_id" json:"sessionId"`
	Address             string    `ch:"address" json:"address"`
	HasStake            uint8     `ch:"has_stake" json:"hasStake"`
	HasRewards          uint8     `ch:"has_rewards" json:"hasRewards"`
	ClaimableRewards    float64   `ch:"claimable_rewards" json:"claimableRewards"`
	AccountStakeAmount  float64   `ch:"account_stake_amount" json:"accountStakeAmount"`
	IsCreator           uint8     `ch:"is_creator" json:"isCreator"`
	AccountTokenBalance string    `ch:"account_token_balance" json:"accountTokenBalance"`
	ObservedAt          time.Time `ch:"observed_at" json:"observedAt"`
}

// Snapshot converts the archived row back into the published snapshot shape.
func (r *Row) Snapshot() status.AccountSnapshot {
	return status.AccountSnapshot{
		HasStake:            r.HasStake != 0,
		HasRewards:          r.HasRewards != 0,
		ClaimableRewards:    r.ClaimableRewards,
		AccountStakeAmount:  r.AccountStakeAmount,
		IsCreator:           r.IsCreator != 0,
		AccountTokenBalance: r.AccountTokenBalance,
	}
}

// FromUpdate flattens a published update into an archive row.
func FromUpdate(u status.Update) *Row {
	return &Row{
		SessionID:           u.SessionID,
		Address:             u.Address,
		HasStake:            utils.BoolToUInt8(u.Snapshot.HasStake),
		HasRewards:          utils.BoolToUInt8(u.Snapshot.HasRewards),
		ClaimableRewards:    u.Snapshot.ClaimableRewards,
		AccountStakeAmount:  u.Snapshot.AccountStakeAmount,
		IsCreator:           utils.BoolToUInt8(u.Snapshot.IsCreator),
		AccountTokenBalance: u.Snapshot.AccountTokenBalance,
		ObservedAt:          u.At,
	}
}

// initSnapshots creates the archive table. ReplacingMergeTree on observed_at
// collapses re-published duplicates of the same observation.
func (db *DB) initSnapshots(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			session_id String CODEC(ZSTD(1)),
			address String CODEC(ZSTD(1)),
			has_stake UInt8,
			has_rewards UInt8,
			claimable_rewards Float64 CODEC(ZSTD(1)),
			account_stake_amount Float64 CODEC(ZSTD(1)),
			is_creator UInt8,
			account_token_balance String CODEC(ZSTD(1)),
			observed_at DateTime64(3) CODEC(DoubleDelta, LZ4)
		) ENGINE = ReplacingMergeTree(observed_at)
		ORDER BY (address, observed_at)
	`, db.Name, snapshotsTable)

	return db.Exec(ctx, query)
}

// InsertSnapshots appends archive rows in one batch.
func (db *DB) InsertSnapshots(ctx context.Context, rows []*Row) error {
	if len(rows) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (
		session_id, address,
		has_stake, has_rewards, claimable_rewards, account_stake_amount,
		is_creator, account_token_balance, observed_at
	) VALUES`, db.Name, snapshotsTable)

	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	// Ensure the batch is closed, especially if not all data is sent immediately
	defer func() { _ = batch.Close() }()

	for _, r := range rows {
		err = batch.Append(
			r.SessionID,
			r.Address,
			r.HasStake,
			r.HasRewards,
			r.ClaimableRewards,
			r.AccountStakeAmount,
			r.IsCreator,
			r.AccountTokenBalance,
			r.ObservedAt,
		)
		if err != nil {
			_ = batch.Abort()
			return err
		}
	}

	return batch.Send()
}

// Archive records one published update. Satisfies the provider's archiver hook.
func (db *DB) Archive(ctx context.Context, u status.Update) error {
	return db.InsertSnapshots(ctx, []*Row{FromUpdate(u)})
}

// Latest returns the most recent archived snapshot for an address, or nil when
// the address has never been observed.
func (db *DB) Latest(ctx context.Context, address string) (*Row, error) {
	query := fmt.Sprintf(`
		SELECT session_id, address,
			has_stake, has_rewards, claimable_rewards, account_stake_amount,
			is_creator, account_token_balance, observed_at
		FROM "%s"."%s" FINAL
		WHERE address = ?
		ORDER BY observed_at DESC
		LIMIT 1
	`, db.Name, snapshotsTable)

	var rows []Row
	if err := db.Select(ctx, &rows, query, address); err != nil {
		return nil, fmt.Errorf("latest snapshot for %s: %w", address, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// History returns archived snapshots for an address, newest first.
func (db *DB) History(ctx context.Context, address string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	query := fmt.Sprintf(`
		SELECT session_id, address,
			has_stake, has_rewards, claimable_rewards, account_stake_amount,
			is_creator, account_token_balance, observed_at
		FROM "%s"."%s" FINAL
		WHERE address = ?
		ORDER BY observed_at DESC
		LIMIT ?
	`, db.Name, snapshotsTable)

	var rows []Row
	if err := db.Select(ctx, &rows, query, address, limit); err != nil {
		return nil, fmt.Errorf("history for %s: %w", address, err)
	}
	return rows, nil
}
