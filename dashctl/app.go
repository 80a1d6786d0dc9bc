package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gravitational/trace"
	"github.com/manifoldco/promptui"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/gjson"

	"github.com/quantfold/tradedash/api"
	"github.com/quantfold/tradedash/lib/logger"
)

// App wires the API client to the terminal commands. It seeds the client's
// credential store from the state file on startup and keeps the file in sync
// with the session afterwards.
type App struct {
	conf   Config
	client *api.Client
	state  *stateFile
}

func NewApp(conf Config) (*App, error) {
	client, err := api.NewClient(conf.ClientConfig())
	if err != nil {
		return nil, trace.Wrap(err)
	}

	app := &App{
		conf:   conf,
		client: client,
		state:  newStateFile(conf.API.StatePath),
	}

	if creds, err := app.state.GetCredentials(); err == nil {
		client.CredentialStore().SetCredentials(*creds)
	} else if !trace.IsNotFound(err) {
		logger.Standard().WithError(err).Debug("No stored session")
	}

	return app, nil
}

// syncState mirrors a terminal authentication failure into the state file so
// the next run starts logged out.
func (a *App) syncState(err error) error {
	if api.IsAuthenticationFailed(err) {
		if cerr := a.state.Clear(); cerr != nil {
			logger.Standard().WithError(cerr).Warn("Failed to clear stored session")
		}
	}
	return trace.Wrap(err)
}

func (a *App) Login(ctx context.Context) error {
	usernamePrompt := promptui.Prompt{Label: "Username"}
	username, err := usernamePrompt.Run()
	if err != nil {
		return trace.Wrap(err)
	}

	passwordPrompt := promptui.Prompt{Label: "Password", Mask: '*'}
	password, err := passwordPrompt.Run()
	if err != nil {
		return trace.Wrap(err)
	}

	session, err := a.client.Login(ctx, username, password)
	if err != nil {
		return trace.Wrap(err)
	}
	if err := a.state.PutCredentials(a.client.CredentialStore().Credentials()); err != nil {
		return trace.Wrap(err)
	}

	fmt.Printf("Logged in as %s\n", session.User.Username)
	return nil
}

func (a *App) Logout() error {
	a.client.Logout()
	if err := a.state.Clear(); err != nil {
		return trace.Wrap(err)
	}
	fmt.Println("Logged out")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	status, err := a.client.BotStatus(ctx)
	if err != nil {
		return a.syncState(err)
	}

	running := "stopped"
	if status.Running {
		running = "running"
	}
	fmt.Printf("Bot is %s (mode=%s, symbol=%s)\n", running, status.Mode, status.Symbol)
	return nil
}

func (a *App) Profit(ctx context.Context) error {
	summary, err := a.client.ProfitSummary(ctx)
	if err != nil {
		return a.syncState(err)
	}

	fmt.Printf("Total profit: %.2f\n", summary.TotalProfit)
	fmt.Printf("Win rate:     %.1f%%\n", summary.WinRate*100)
	fmt.Printf("Trades:       %d\n", summary.TradesTotal)
	return nil
}

func (a *App) Positions(ctx context.Context) error {
	positions, err := a.client.Positions(ctx)
	if err != nil {
		return a.syncState(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Symbol", "Side", "Quantity", "Entry", "Mark", "PnL"})
	for _, pos := range positions {
		table.Append([]string{
			pos.Symbol,
			pos.Side,
			strconv.FormatFloat(pos.Quantity, 'f', -1, 64),
			strconv.FormatFloat(pos.EntryPrice, 'f', 2, 64),
			strconv.FormatFloat(pos.MarkPrice, 'f', 2, 64),
			strconv.FormatFloat(pos.UnrealizedPnL, 'f', 2, 64),
		})
	}
	table.Render()
	return nil
}

func (a *App) Trades(ctx context.Context, limit int) error {
	trades, err := a.client.Trades(ctx, limit)
	if err != nil {
		return a.syncState(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Symbol", "Side", "Quantity", "Price", "Profit"})
	for _, trade := range trades {
		table.Append([]string{
			trade.ExecutedAt.Format(time.RFC3339),
			trade.Symbol,
			trade.Side,
			strconv.FormatFloat(trade.Quantity, 'f', -1, 64),
			strconv.FormatFloat(trade.Price, 'f', 2, 64),
			strconv.FormatFloat(trade.Profit, 'f', 2, 64),
		})
	}
	table.Render()
	return nil
}

func (a *App) AutoTrade(ctx context.Context, settings api.AutoTradingSettings) error {
	applied, err := a.client.ConfigureAutoTrading(ctx, settings)
	if err != nil {
		return a.syncState(err)
	}
	if err := a.client.SetAutoTrading(ctx, applied.Enabled); err != nil {
		return a.syncState(err)
	}

	state := "disabled"
	if applied.Enabled {
		state = "enabled"
	}
	fmt.Printf("Auto-trading %s for %s\n", state, applied.Symbol)
	return nil
}

// Get fetches an arbitrary endpoint and prints either the whole body or one
// field of it.
func (a *App) Get(ctx context.Context, path, field string) error {
	body, err := a.client.GetRaw(ctx, path)
	if err != nil {
		return a.syncState(err)
	}

	if field == "" {
		fmt.Println(string(body))
		return nil
	}

	value := gjson.GetBytes(body, field)
	if !value.Exists() {
		return trace.NotFound("no field %q in response", field)
	}
	fmt.Println(value.String())
	return nil
}

// Watch polls the bot periodically and serves /metrics and /healthz on the
// diagnostic address until the context is canceled.
func (a *App) Watch(ctx context.Context, interval time.Duration, diagAddr string) error {
	log := logger.Standard()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		if err := a.client.Ping(r.Context()); err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(rw, "ping err=%s", err)
			return
		}
		rw.WriteHeader(http.StatusOK)
	})
	go func() {
		if err := http.ListenAndServe(diagAddr, mux); err != nil {
			log.WithError(err).Error("Diagnostic server failed")
		}
	}()
	log.Infof("Serving diagnostics on %s, polling every %s", diagAddr, interval)

	ctx = logger.With(ctx, log.WithField("job", "watch"))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := a.pollOnce(ctx); err != nil {
			if api.IsAuthenticationFailed(err) {
				return a.syncState(err)
			}
			log.WithError(err).Warn("Poll failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (a *App) pollOnce(ctx context.Context) error {
	log := logger.Get(ctx)

	status, err := a.client.BotStatus(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	summary, err := a.client.ProfitSummary(ctx)
	if err != nil {
		return trace.Wrap(err)
	}

	log.WithField("running", status.Running).
		WithField("symbol", status.Symbol).
		WithField("total_profit", summary.TotalProfit).
		Info("Bot snapshot")
	return nil
}
