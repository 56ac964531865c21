package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"shyness-client/internal/query"
	"shyness-client/internal/session"

	"github.com/rs/zerolog/log"
)

// watchPlan describes one live page
type watchPlan struct {
	name string
	// key is redrawn on every settled snapshot
	key     query.Key
	every   time.Duration
	recheck time.Duration
	// refresh runs each tick; it must end by refetching key
	refresh func(context.Context) error
	draw    func(io.Writer, query.Snapshot)
	expired string
}

// watch keeps a page on screen until ctx ends or the session is lost.
// The session is re-checked every recheck interval and observed through
// its store, so a logout anywhere in the process ends the watch too.
func watch[U any](ctx context.Context, w io.Writer, q *query.Client, sess *session.Store[U], nav Navigator, p watchPlan) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	unsub := q.Subscribe(p.key, func(_ query.Key, snap query.Snapshot) {
		if snap.Fetching {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "\n--- %s ---\n", time.Now().Format(time.Kitchen))
		p.draw(w, snap)
	})
	defer unsub()

	var lost sync.Once
	var lostErr error
	check := func(st session.State[U]) {
		if st.Loading || st.User != nil || errors.Is(st.Err, session.ErrUnreachable) {
			return
		}
		lost.Do(func() {
			log.Info().Str("realm", sess.Realm().Name).Str("page", p.name).Msg("Session ended while watching")
			mu.Lock()
			lostErr = ErrLoginRequired
			mu.Unlock()
			cancel()
		})
	}
	unsubSession := sess.Subscribe(check)
	defer unsubSession()
	check(sess.Snapshot())

	refresher := query.NewPoller(p.name+"-refresh", p.every, p.refresh)
	checker := query.NewPoller(p.name+"-auth", p.recheck, func(ctx context.Context) error {
		err := sess.Initialize(ctx)
		if errors.Is(err, session.ErrExpired) {
			return nil
		}
		return err
	})

	refresher.Start(ctx)
	if p.recheck > 0 {
		checker.Start(ctx)
	}
	<-ctx.Done()
	refresher.Stop()
	checker.Stop()

	mu.Lock()
	defer mu.Unlock()
	if lostErr != nil {
		nav.Navigate(sess.Realm().LoginRoute)
		fmt.Fprintln(w, p.expired)
		return lostErr
	}
	return nil
}
