package db

import (
	"context"
	"database/sql"
	"time"

	"careagent/pkg"

	"github.com/lib/pq"
)

// Notifier wraps the LISTEN/NOTIFY mechanism in PostgreSQL. The
// coordinator announces critical alerts on a channel; dashboards and
// paging integrations listen on the same channel.
type Notifier struct {
	DB      *sql.DB
	DSN     string
	Channel string
}

// NewNotifier constructs a new Notifier. The channel should match the
// POSTGRES_NOTIFY_CHANNEL environment variable. The DSN is needed for
// listening, which requires a dedicated connection.
func NewNotifier(db *sql.DB, dsn, channel string) *Notifier {
	return &Notifier{DB: db, DSN: dsn, Channel: channel}
}

// NotifyCritical announces every critical alert in the batch, using the
// patient ID as the payload. Lower severities are not broadcast.
func (n *Notifier) NotifyCritical(ctx context.Context, alerts []pkg.Alert) error {
	for _, a := range alerts {
		if a.Level != pkg.LevelCritical {
			continue
		}
		if _, err := n.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.Channel, a.PatientID); err != nil {
			return err
		}
	}
	return nil
}

// Listen yields patient IDs as critical-alert notifications arrive on
// the channel. The returned Go channel is closed when ctx is cancelled.
func (n *Notifier) Listen(ctx context.Context) (<-chan string, error) {
	listener := pq.NewListener(n.DSN, 10*time.Second, time.Minute, nil)
	if err := listener.Listen(n.Channel); err != nil {
		_ = listener.Close()
		return nil, err
	}
	ch := make(chan string)
	go func() {
		defer func() {
			_ = listener.Close()
			close(ch)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-listener.Notify:
				if !ok {
					return
				}
				if ev == nil {
					// reconnect event; nothing to deliver
					continue
				}
				select {
				case ch <- ev.Extra:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
