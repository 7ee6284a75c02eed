// Package app assembles the guest-desk agent: local database, session,
// transport, store, sync channel and command pipeline, plus the terminal
// loop that drives them.
package app

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/api"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/channel"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/config"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/localdb"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/notify"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/perm"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/pipeline"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/repositories/credentials"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/session"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/store"
	"github.com/underflow1/ce-guests-front-sub000/internal/common"
	"github.com/underflow1/ce-guests-front-sub000/internal/logging"
	"github.com/underflow1/ce-guests-front-sub000/internal/metrics"
)

// errQuit signals that the operator asked to leave, as opposed to a failure.
var errQuit = errors.New("quit")

type App struct {
	cfg    *config.Config
	log    logging.Logger
	db     *sql.DB
	client *api.HTTPClient
	sess   *session.Session
	store  *store.Store
	m      *metrics.Metrics
	reg    *prometheus.Registry
	sink   notify.Sink

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := localdb.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("opening local database: %w", err)
	}

	creds := credentials.NewSQLiteRepository(db)
	client := api.NewHTTPClient(cfg.APIBaseURL, log)
	sess := session.New(client, creds, log)
	client.UseTokens(sess)

	m, reg := metrics.New("guests_agent")

	return &App{
		cfg:    cfg,
		log:    log,
		db:     db,
		client: client,
		sess:   sess,
		store:  store.New(),
		m:      m,
		reg:    reg,
		sink:   notify.NewColorSink(),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// Run drives the agent until the operator quits or ctx is cancelled. A
// logged-out session (explicit or forced by the backend) returns to the
// login prompt and starts over.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.MetricsAddr != "" {
		go a.serveMetrics(ctx)
	}

	for {
		if err := a.login(ctx); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}

		quit, err := a.runSession(ctx)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// login prompts until a session is established. The user record arrives with
// the login response and stays fixed for the session; the persisted refresh
// credential then keeps the token pair rotating without re-prompting.
func (a *App) login(ctx context.Context) error {
	for {
		username, err := promptLine(a.reader, "Username", a.out)
		if err != nil {
			return errQuit
		}
		if username == "" {
			continue
		}

		pw, err := promptSecret("Password", a.out)
		if err != nil {
			return errQuit
		}

		user, err := a.sess.Login(ctx, username, string(pw))
		for i := range pw {
			pw[i] = 0
		}

		switch {
		case err == nil:
			fmt.Fprintf(a.out, "Welcome, %s\n", user.Name)
			return nil
		case errors.Is(err, common.ErrUnauthorized):
			fmt.Fprintln(a.out, "Invalid username or password")
		default:
			fmt.Fprintf(a.out, "Login failed: %v\n", err)
		}
	}
}

// runSession wires the per-session objects (capabilities, notifier,
// pipeline, channel) and runs the command loop. It returns quit=true when
// the operator exits the program, quit=false on logout.
func (a *App) runSession(ctx context.Context) (bool, error) {
	user := a.sess.User()
	caps := perm.Evaluate(user)
	notifier := notify.New(user.InterfaceType(), a.sink)
	pipe := pipeline.New(a.client, a.store, caps, a.sink, a.log, a.m)

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := func(ctx context.Context, ev models.ChangeEvent) {
		a.store.ReplaceAll(ev.Snapshot)
		a.m.SnapshotsApplied.Inc()
		notifier.Notify(ctx, ev)
	}

	ch := channel.New(channel.Config{
		URL:            channel.DeriveURL(a.client.BaseURL()),
		ReconnectDelay: a.cfg.ReconnectDelay,
		ReadyTimeout:   a.cfg.ReadyTimeout,
	}, a.sess, handler, a.log, a.m)

	go func() { _ = ch.Run(sctx) }()

	if !ch.WaitReady(sctx) {
		a.log.Warn(sctx, "sync channel not ready in time, starting with REST data only")
	}

	snap, err := a.client.FetchSnapshot(sctx)
	if err != nil {
		a.sink.Error("could not load entries: " + err.Error())
	} else {
		a.store.ReplaceAll(snap)
		a.m.SnapshotsApplied.Inc()
	}

	// The backend may invalidate the session at any moment, either on the
	// channel or via a rejected refresh. The loop checks between commands.
	loggedOut := make(chan struct{})
	go func() {
		select {
		case <-ch.SessionInvalid():
			a.sess.Logout(sctx)
			fmt.Fprintln(a.out, "\nSession rejected by the backend. Press Enter to continue.")
		case ev := <-a.sess.Events():
			if ev.Kind == session.EventLoggedOut {
				fmt.Fprintf(a.out, "\nSession ended: %s. Press Enter to continue.\n", ev.Reason)
			}
		case <-sctx.Done():
			return
		}
		close(loggedOut)
	}()

	return a.repl(sctx, user, pipe, loggedOut)
}

func (a *App) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	a.log.Info(ctx, "metrics listener started", "addr", a.cfg.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error(ctx, "metrics listener failed", "error", err)
	}
}
