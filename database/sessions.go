package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"checkout-payment-api/models"
)

const queryTimeout = 5 * time.Second

// RecordSessionState appends a row to the session state audit trail and
// updates the session's current state in place.
func (c *Connection) RecordSessionState(sessionID string, state models.SessionState) error {
	if !state.IsValid() {
		return fmt.Errorf("refusing to record unknown session state %d", int(state))
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
        INSERT INTO checkout_sessions (session_id, state, updated_at)
        VALUES (?, ?, NOW())
        ON DUPLICATE KEY UPDATE
        state = VALUES(state), updated_at = NOW()
    `, sessionID, state.String())
	if err != nil {
		return fmt.Errorf("error recording session state: %v", err)
	}

	_, err = c.db.ExecContext(ctx, `
        INSERT INTO checkout_session_events (session_id, state, created_at)
        VALUES (?, ?, NOW())
    `, sessionID, state.String())
	if err != nil {
		return fmt.Errorf("error recording session event: %v", err)
	}
	return nil
}

// SetActiveOrderMarker binds the session to the backend order it is
// paying for. The marker survives until settlement clears it.
func (c *Connection) SetActiveOrderMarker(sessionID, orderCode string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
        INSERT INTO active_order_markers (session_id, order_code, created_at)
        VALUES (?, ?, NOW())
        ON DUPLICATE KEY UPDATE
        order_code = VALUES(order_code)
    `, sessionID, orderCode)
	if err != nil {
		return fmt.Errorf("error setting active-order marker: %v", err)
	}
	return nil
}

func (c *Connection) ClearActiveOrderMarker(sessionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
        DELETE FROM active_order_markers
        WHERE session_id = ?
    `, sessionID)
	if err != nil {
		return fmt.Errorf("error clearing active-order marker: %v", err)
	}
	return nil
}

// SaveCompletionResult persists the terminal result exactly once per
// session; replays from the losing trigger are ignored.
func (c *Connection) SaveCompletionResult(sessionID, trigger string, result models.OrderCompletionResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	detail, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("error serializing completion result: %v", err)
	}

	_, err = c.db.ExecContext(ctx, `
        INSERT IGNORE INTO checkout_completions
        (session_id, winning_trigger, kind, order_code, reason, detail, completed_at)
        VALUES (?, ?, ?, ?, ?, ?, NOW())
    `, sessionID, trigger, result.Kind.String(), result.OrderCode, result.Reason, detail)
	if err != nil {
		return fmt.Errorf("error saving completion result: %v", err)
	}
	return nil
}

// MarkSessionAbandoned flags sessions that were reaped without reaching a
// terminal state. No-op when the session already completed.
func (c *Connection) MarkSessionAbandoned(sessionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := c.db.ExecContext(ctx, `
        UPDATE checkout_sessions
        SET state = 'abandoned', updated_at = NOW()
        WHERE session_id = ?
        AND state NOT IN ('completed', 'failed')
    `, sessionID)
	if err != nil {
		return fmt.Errorf("error marking session abandoned: %v", err)
	}
	return nil
}

// GetSessionState reads the session's current state; sql.ErrNoRows is
// passed through for unknown sessions.
func (c *Connection) GetSessionState(sessionID string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var state string
	err := c.db.QueryRowContext(ctx, `
        SELECT state FROM checkout_sessions WHERE session_id = ?
    `, sessionID).Scan(&state)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("error reading session state: %v", err)
	}
	return state, nil
}
