// Package dashboard is the terminal dashboard: it keeps a login session and
// polls the latest readings while the session is valid.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"energisense/internal/apiclient"
	"energisense/internal/logger"
)

const DefaultInterval = 5 * time.Second

var (
	// ErrNoSession means the user has to log in first.
	ErrNoSession = errors.New("no session, log in first")
	// ErrSessionExpired is returned after the API rejected the stored token.
	// The session has been cleared by then.
	ErrSessionExpired = errors.New("session expired, log in again")
)

type Dashboard struct {
	client   *apiclient.Client
	store    Store
	out      io.Writer
	log      *logger.Logger
	interval time.Duration
}

func New(client *apiclient.Client, store Store, out io.Writer, log *logger.Logger, interval time.Duration) *Dashboard {
	if log == nil {
		log = logger.Nop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Dashboard{client: client, store: store, out: out, log: log, interval: interval}
}

// Login authenticates and stores the resulting session.
func Login(ctx context.Context, client *apiclient.Client, store Store, email, password string) (Session, error) {
	res, err := client.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	sess := Session{Token: res.Token, Role: res.Role, Email: res.Email}
	if err := store.Save(sess); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Run polls immediately and then every interval until ctx is done. The view
// is chosen once from the stored role.
func (d *Dashboard) Run(ctx context.Context) error {
	sess, ok, err := d.store.Load()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSession
	}
	view := SelectView(sess.Role)
	api := d.client.WithToken(sess.Token)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if err := d.poll(ctx, view, api, sess); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// poll returns an error only when the session is gone.
func (d *Dashboard) poll(ctx context.Context, view View, api API, sess Session) error {
	snap, err := view.Refresh(ctx, api)
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		if cerr := d.store.Clear(); cerr != nil {
			d.log.Errorw("session_clear_failed", "err", cerr)
		}
		d.log.Infow("session_expired", "email", sess.Email)
		return ErrSessionExpired
	case err != nil:
		if ctx.Err() == nil {
			d.log.Warnw("dashboard_poll_failed", "err", err)
		}
		return nil
	}
	if err := Render(d.out, view, sess, snap); err != nil {
		d.log.Warnw("dashboard_render_failed", "err", err)
	}
	return nil
}
