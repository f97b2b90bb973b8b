package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/archonkernel/governance-kernel/pkg/findingledger"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

// ErrNotFound is returned when a requested mirrored row does not exist.
var ErrNotFound = errors.New("postgres mirror: not found")

// MirrorWitnessStatement inserts one witness statement into the durable
// mirror; a row with the same ID is left unchanged. Safe to call more
// than once for the same statement ID.
func (c *Client) MirrorWitnessStatement(ctx context.Context, s witness.WitnessStatement) error {
	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO witness_statements
			(id, type, description, roles_involved, target_ref, metadata,
			 acknowledgment_required, occurred_at, hash_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, s.ID, string(s.Type), s.Description, pq.Array(s.RolesInvolved), s.TargetRef,
		metadata, s.AcknowledgmentRequired, s.Timestamp, s.HashRef)
	if err != nil {
		return fmt.Errorf("mirror witness statement %s: %w", s.ID, err)
	}
	return nil
}

// MirrorFinding inserts one finding record into the durable mirror; a
// row with the same record ID is left unchanged.
func (c *Client) MirrorFinding(ctx context.Context, r findingledger.FindingRecord) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO panel_findings
			(record_id, finding_id, statement_id, panel_id, determination, remedy,
			 rationale, has_dissent, ledger_position, integrity_hash, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (record_id) DO NOTHING
	`, r.RecordID, r.Finding.ID, r.Finding.StatementID, r.Finding.PanelID,
		string(r.Finding.Determination), string(r.Finding.Remedy), r.Finding.MajorityRationale,
		r.Finding.HasDissent(), r.LedgerPosition, r.IntegrityHash, r.RecordedAt)
	if err != nil {
		return fmt.Errorf("mirror finding %s: %w", r.RecordID, err)
	}
	return nil
}

// WitnessStatementCount returns the number of mirrored witness
// statements, for operator health checks.
func (c *Client) WitnessStatementCount(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, "SELECT count(*) FROM witness_statements").Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("count witness statements: %w", err)
	}
	return count, nil
}
