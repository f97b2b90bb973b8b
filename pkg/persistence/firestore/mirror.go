package firestore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/archonkernel/governance-kernel/pkg/findingledger"
	"github.com/archonkernel/governance-kernel/pkg/witness"
)

// MirrorWitnessStatement writes one witness statement to the
// governanceWitnessLog collection. No-op when the client is disabled.
// Path: /governanceWitnessLog/{statementID}
func (c *Client) MirrorWitnessStatement(ctx context.Context, s witness.WitnessStatement) error {
	if !c.IsEnabled() {
		c.logger.Printf("firestore disabled - skipping witness statement mirror %s", s.ID)
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("firestore client not initialized")
	}

	docPath := fmt.Sprintf("governanceWitnessLog/%s", s.ID)
	_, err := c.firestore.Doc(docPath).Set(ctx, map[string]interface{}{
		"id":                     s.ID.String(),
		"type":                   string(s.Type),
		"description":            s.Description,
		"rolesInvolved":          s.RolesInvolved,
		"targetRef":              targetRefString(s.TargetRef),
		"metadata":               s.Metadata,
		"acknowledgmentRequired": s.AcknowledgmentRequired,
		"timestamp":              s.Timestamp,
		"hashRef":                s.HashRef,
	})
	if err != nil {
		c.logger.Printf("failed to mirror witness statement %s: %v", s.ID, err)
		return fmt.Errorf("mirror witness statement: %w", err)
	}
	return nil
}

// MirrorFinding writes one finding record to the governanceFindings
// collection. No-op when the client is disabled.
// Path: /governanceFindings/{recordID}
func (c *Client) MirrorFinding(ctx context.Context, r findingledger.FindingRecord) error {
	if !c.IsEnabled() {
		c.logger.Printf("firestore disabled - skipping finding mirror %s", r.RecordID)
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("firestore client not initialized")
	}

	docPath := fmt.Sprintf("governanceFindings/%s", r.RecordID)
	_, err := c.firestore.Doc(docPath).Set(ctx, map[string]interface{}{
		"recordId":       r.RecordID.String(),
		"findingId":      r.Finding.ID.String(),
		"panelId":        r.Finding.PanelID.String(),
		"statementId":    r.Finding.StatementID.String(),
		"determination":  string(r.Finding.Determination),
		"remedy":         string(r.Finding.Remedy),
		"rationale":      r.Finding.MajorityRationale,
		"hasDissent":     r.Finding.HasDissent(),
		"ledgerPosition": r.LedgerPosition,
		"integrityHash":  r.IntegrityHash,
		"recordedAt":     r.RecordedAt,
	})
	if err != nil {
		c.logger.Printf("failed to mirror finding %s: %v", r.RecordID, err)
		return fmt.Errorf("mirror finding: %w", err)
	}
	return nil
}

func targetRefString(ref *uuid.UUID) string {
	if ref == nil {
		return ""
	}
	return ref.String()
}
