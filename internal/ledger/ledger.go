// Package ledger keeps an append-only history of IR transmissions.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/transmitter"
)

// Entry is one recorded transmitter event.
type Entry struct {
	ID          int64                 `json:"id"`
	Transmitter string                `json:"transmitter"`
	EventType   transmitter.EventKind `json:"event_type"`
	Timestamp   time.Time             `json:"timestamp"`
	RequestID   string                `json:"request_id"`
	Source      string                `json:"source,omitempty"`
	Payload     map[string]any        `json:"payload,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// Ledger writes transmitter events to the transmit_ledger table.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

var _ transmitter.Observer = (*Ledger)(nil)

// Append stores an entry. A zero timestamp means now.
func (l *Ledger) Append(e Entry) error {
	var payloadJSON []byte
	if e.Payload != nil {
		var err error
		payloadJSON, err = json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = l.now()
	}

	_, err := l.db.Exec(`
		INSERT INTO transmit_ledger (transmitter, event_type, timestamp, request_id, source, payload, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Transmitter, string(e.EventType), ts.UTC().Unix(), e.RequestID, e.Source, string(payloadJSON), e.Error)
	return err
}

// OnTransmit records a transmitter event. Write failures are logged and
// never reach the transmitter.
func (l *Ledger) OnTransmit(e transmitter.Event) {
	payload := map[string]any{
		"channel": e.Request.Channel,
		"frames":  len(e.Request.Sequence.Frames),
		"airtime": e.Request.Sequence.Duration().String(),
	}
	if e.Duration > 0 {
		payload["elapsed"] = e.Duration.String()
	}
	entry := Entry{
		Transmitter: e.Transmitter,
		EventType:   e.Kind,
		Timestamp:   e.At,
		RequestID:   e.Request.ID,
		Source:      e.Request.Source,
		Payload:     payload,
	}
	if e.Err != nil {
		entry.Error = e.Err.Error()
	}
	if err := l.Append(entry); err != nil {
		log.Error().Err(err).Str("request_id", e.Request.ID).Msg("Failed to write transmit ledger")
	}
}

const selectEntries = `SELECT id, transmitter, event_type, timestamp, request_id, source, payload, error FROM transmit_ledger`

// GetRecent returns the newest entries first.
func (l *Ledger) GetRecent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(selectEntries+` ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetBySource returns the newest entries of one light.
func (l *Ledger) GetBySource(source string, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(selectEntries+` WHERE source = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, source, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetByRequest returns the lifecycle of one request in order.
func (l *Ledger) GetByRequest(requestID string) ([]*Entry, error) {
	rows, err := l.db.Query(selectEntries+` WHERE request_id = ? ORDER BY id ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// DeleteOlderThan applies the retention policy.
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).UTC().Unix()
	result, err := l.db.Exec(`DELETE FROM transmit_ledger WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var source, payloadStr, errStr sql.NullString
		var eventType string
		var timestamp int64

		if err := rows.Scan(&entry.ID, &entry.Transmitter, &eventType, &timestamp, &entry.RequestID, &source, &payloadStr, &errStr); err != nil {
			return nil, err
		}
		entry.EventType = transmitter.EventKind(eventType)
		entry.Timestamp = time.Unix(timestamp, 0).UTC()
		entry.Source = source.String
		entry.Error = errStr.String

		if payloadStr.Valid && payloadStr.String != "" {
			if err := json.Unmarshal([]byte(payloadStr.String), &entry.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
