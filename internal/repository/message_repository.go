package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/o4villegas/lead-fuego-sub001/internal/model"
)

type MessageRepositoryInterface interface {
	Insert(msg *model.Message) (bool, error)
	GetByID(id int) (*model.Message, error)
	GetByProviderID(providerID string) (*model.Message, error)
	SelectDue(channel string, now time.Time, limit int) ([]*model.Message, error)
	Claim(id int) (bool, error)
	MarkSent(id int, providerID string, at time.Time) error
	Requeue(id int, attemptCount int, nextAt time.Time, lastError string) error
	MarkTerminal(id int, status string, lastError string) error
	TransitionStatus(id int, from, to string) (bool, error)
}

type MessageRepository struct {
	DB *sql.DB
}

const messageColumns = `id, journey_id, step_number, channel, recipient, rendered_content,
        status, scheduled_at, attempt_count, last_error, correlation_id, provider_message_id,
        created_at, updated_at`

// Insert creates the pending message for a journey step. The unique
// constraint on (journey_id, step_number) makes scheduling idempotent:
// a second insert for the same step returns (false, nil) and writes
// nothing.
func (r *MessageRepository) Insert(msg *model.Message) (bool, error) {
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	query := `
        INSERT INTO messages
        (journey_id, step_number, channel, recipient, rendered_content, status, scheduled_at, attempt_count, last_error, correlation_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id
    `
	err := r.DB.QueryRow(
		query,
		msg.JourneyID,
		msg.StepNumber,
		msg.Channel,
		msg.Recipient,
		msg.RenderedContent,
		msg.Status,
		msg.ScheduledAt,
		msg.AttemptCount,
		msg.LastError,
		msg.CorrelationID,
		msg.CreatedAt,
		msg.UpdatedAt,
	).Scan(&msg.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *MessageRepository) scanRow(row *sql.Row) (*model.Message, error) {
	var m model.Message
	err := row.Scan(
		&m.ID, &m.JourneyID, &m.StepNumber, &m.Channel, &m.Recipient, &m.RenderedContent,
		&m.Status, &m.ScheduledAt, &m.AttemptCount, &m.LastError, &m.CorrelationID, &m.ProviderMessageID,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) GetByID(id int) (*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id=$1`
	m, err := r.scanRow(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// GetByProviderID correlates an inbound provider callback to the local
// message the provider id was recorded on at send time.
func (r *MessageRepository) GetByProviderID(providerID string) (*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE provider_message_id=$1`
	m, err := r.scanRow(r.DB.QueryRow(query, providerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// SelectDue returns up to limit pending messages for the channel whose
// scheduled_at has passed, oldest due first.
func (r *MessageRepository) SelectDue(channel string, now time.Time, limit int) ([]*model.Message, error) {
	query := `
        SELECT ` + messageColumns + `
        FROM messages
        WHERE status='pending' AND channel=$1 AND scheduled_at <= $2
        ORDER BY scheduled_at ASC
        LIMIT $3
    `
	rows, err := r.DB.Query(query, channel, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []*model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(
			&m.ID, &m.JourneyID, &m.StepNumber, &m.Channel, &m.Recipient, &m.RenderedContent,
			&m.Status, &m.ScheduledAt, &m.AttemptCount, &m.LastError, &m.CorrelationID, &m.ProviderMessageID,
			&m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// Claim flips pending -> queued with a conditional update. Zero rows
// affected means a concurrent run already owns the message; the caller
// skips it silently. This is what keeps overlapping processor runs from
// double-sending.
func (r *MessageRepository) Claim(id int) (bool, error) {
	query := `UPDATE messages SET status='queued', updated_at=NOW() WHERE id=$1 AND status='pending'`
	res, err := r.DB.Exec(query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *MessageRepository) MarkSent(id int, providerID string, at time.Time) error {
	query := `
        UPDATE messages
        SET status='sent', provider_message_id=$1, last_error='', updated_at=$2
        WHERE id=$3 AND status='queued'
    `
	_, err := r.DB.Exec(query, providerID, at, id)
	return err
}

// Requeue puts a transiently-failed message back on the pending list with
// its backed-off due time.
func (r *MessageRepository) Requeue(id int, attemptCount int, nextAt time.Time, lastError string) error {
	query := `
        UPDATE messages
        SET status='pending', attempt_count=$1, scheduled_at=$2, last_error=$3, updated_at=NOW()
        WHERE id=$4 AND status='queued'
    `
	_, err := r.DB.Exec(query, attemptCount, nextAt, lastError, id)
	return err
}

func (r *MessageRepository) MarkTerminal(id int, status string, lastError string) error {
	query := `UPDATE messages SET status=$1, last_error=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, status, lastError, id)
	return err
}

// TransitionStatus applies a callback transition guarded on the status
// the reconciler observed. Zero rows affected means a concurrent writer
// moved the message first; the reconciler re-reads and re-decides.
func (r *MessageRepository) TransitionStatus(id int, from, to string) (bool, error) {
	query := `UPDATE messages SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	res, err := r.DB.Exec(query, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
