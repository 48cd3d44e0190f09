package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "crmapi/internal/core/context"
	"crmapi/internal/core/id"
	"crmapi/internal/domain/audit"
)

// CompressionAlgo names the codec of audit_log.changes_compressed.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the change-set size above which it is stored compressed.
const DefaultCompressThreshold = 8 * 1024

const auditTable = "audit_log"

var _ audit.Recorder = (*AuditLog)(nil)

// AuditLog stores change sets in audit_log. Large change sets go to
// changes_compressed as zstd frames instead of the changes JSONB column.
type AuditLog struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewAuditLog creates an audit log using DefaultCompressThreshold.
func NewAuditLog(txManager *TxManager) (*AuditLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditLog{
		txManager: txManager,
		encoder:   encoder,
		decoder:   decoder,
		threshold: DefaultCompressThreshold,
	}, nil
}

// RecordChange diffs the db columns of before and after and stores the
// result. An update that changes nothing is not recorded.
func (a *AuditLog) RecordChange(ctx context.Context, entityType string, entityID id.ID, action audit.Action, before, after any) error {
	changes := audit.Diff(StructToMap(before), StructToMap(after))
	if action == audit.ActionUpdate && len(changes) == 0 {
		return nil
	}
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	cols, vals := a.encode(payload)
	cols = append([]string{"id", "entity_type", "entity_id", "action", "user_id", "created_at"}, cols...)
	vals = append([]any{id.New(), entityType, entityID, string(action), appctx.GetUserID(ctx), time.Now().UTC()}, vals...)

	query, args, err := sq.Insert(auditTable).
		Columns(cols...).
		Values(vals...).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := a.txManager.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// encode picks the storage column for payload.
func (a *AuditLog) encode(payload []byte) ([]string, []any) {
	if len(payload) > a.threshold {
		return []string{"changes_compressed", "compression_algo"},
			[]any{a.encoder.EncodeAll(payload, nil), string(CompressionZstd)}
	}
	return []string{"changes", "compression_algo"}, []any{payload, string(CompressionNone)}
}

type auditRow struct {
	audit.Entry
	Plain      []byte          `db:"changes"`
	Compressed []byte          `db:"changes_compressed"`
	Algo       CompressionAlgo `db:"compression_algo"`
}

// History returns the newest entries for one entity, decompressed.
func (a *AuditLog) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query, args, err := sq.Select("id", "entity_type", "entity_id", "action", "user_id",
		"changes", "changes_compressed", "compression_algo", "created_at").
		From(auditTable).
		Where(sq.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, a.txManager.GetQuerier(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, r := range rows {
		e := r.Entry
		switch {
		case r.Algo == CompressionZstd && len(r.Compressed) > 0:
			raw, err := a.decoder.DecodeAll(r.Compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit entry %s: %w", e.ID, err)
			}
			e.Changes = raw
		default:
			e.Changes = r.Plain
		}
		entries = append(entries, e)
	}
	return entries, nil
}
