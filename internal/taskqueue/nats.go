package taskqueue

import (
	"encoding/json"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSQueue delivers Tasks over a NATS subject, redelivering on a transient
// handler error by republishing with an incremented X-Retry-Count header,
// up to maxRetryCount additional attempts.
type NATSQueue struct {
	conn          *nats.Conn
	subject       string
	maxRetryCount int
	log           zerolog.Logger
}

func NewNATSQueue(conn *nats.Conn, subject string, maxRetryCount int, log zerolog.Logger) *NATSQueue {
	return &NATSQueue{conn: conn, subject: subject, maxRetryCount: maxRetryCount, log: log}
}

func (q *NATSQueue) Enqueue(task Task) error {
	msg := nats.NewMsg(q.subject)
	msg.Header.Set("X-Retry-Count", strconv.Itoa(task.RetryCount))

	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	msg.Data = payload
	return q.conn.PublishMsg(msg)
}

// Subscribe registers handler against the subject and returns the
// subscription so the caller controls its lifetime (Unsubscribe on
// shutdown).
func (q *NATSQueue) Subscribe(handler Handler) (*nats.Subscription, error) {
	return q.conn.Subscribe(q.subject, func(msg *nats.Msg) {
		var task Task
		if err := json.Unmarshal(msg.Data, &task); err != nil {
			q.log.Error().Err(err).Msg("dropping malformed task payload")
			return
		}
		if v := msg.Header.Get("X-Retry-Count"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				task.RetryCount = n
			}
		}

		err := handler(task)
		if err == nil {
			return
		}

		if !isRetryEligible(err) || task.RetryCount >= q.maxRetryCount {
			q.log.Error().Err(err).Str("document_id", task.DocumentID.String()).
				Int("retry_count", task.RetryCount).Msg("task delivery exhausted or fatal")
			return
		}

		task.RetryCount++
		q.log.Warn().Err(err).Str("document_id", task.DocumentID.String()).
			Int("retry_count", task.RetryCount).Msg("requeuing task after transient failure")
		if requeueErr := q.Enqueue(task); requeueErr != nil {
			q.log.Error().Err(requeueErr).Msg("failed to requeue task")
		}
	})
}
