package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gravitational/kingpin"
	"github.com/gravitational/trace"

	"github.com/quantfold/tradedash/api"
	"github.com/quantfold/tradedash/lib"
	"github.com/quantfold/tradedash/lib/logger"
)

func main() {
	logger.Init()
	app := kingpin.New("dashctl", "Terminal dashboard for the quantfold trading bot.")

	path := app.Flag("config", "TOML config file path").
		Short('c').
		Default("/etc/tradedash.toml").
		String()
	debug := app.Flag("debug", "Enable verbose logging to stderr").
		Short('d').
		Bool()

	app.Command("configure", "Prints an example .TOML configuration file.")
	app.Command("version", "Prints dashctl version and exits.")
	app.Command("login", "Logs into the trading-bot backend.")
	app.Command("logout", "Drops the stored session.")
	app.Command("status", "Shows the trading loop state.")
	app.Command("profit", "Shows the bot's aggregate performance.")
	app.Command("positions", "Lists the bot's open positions.")

	tradesCmd := app.Command("trades", "Lists recent fills.")
	tradesLimit := tradesCmd.Flag("limit", "Maximum number of fills to list").
		Default("20").
		Int()

	autotradeCmd := app.Command("autotrade", "Applies auto-trading settings and starts or stops the loop.")
	autotradeEnable := autotradeCmd.Flag("enable", "Enable automated trading").Bool()
	autotradeDisable := autotradeCmd.Flag("disable", "Disable automated trading").Bool()
	autotradeSymbol := autotradeCmd.Flag("symbol", "Trading pair, e.g. BTC-USD").String()
	autotradeBuy := autotradeCmd.Flag("buy-threshold", "Buy signal threshold").Default("0.6").Float64()
	autotradeSell := autotradeCmd.Flag("sell-threshold", "Sell signal threshold").Default("0.4").Float64()
	autotradeMaxPos := autotradeCmd.Flag("max-position", "Maximum position size").Default("0").Float64()
	autotradeStopLoss := autotradeCmd.Flag("stop-loss", "Stop-loss percentage").Default("0").Float64()
	autotradeTakeProfit := autotradeCmd.Flag("take-profit", "Take-profit percentage").Default("0").Float64()

	getCmd := app.Command("get", "Fetches an API endpoint and prints the JSON body.")
	getPath := getCmd.Arg("path", "API path, e.g. /bot/status").Required().String()
	getField := getCmd.Flag("field", "Dot-delimited field to extract, e.g. user.username").String()

	watchCmd := app.Command("watch", "Polls the bot periodically and serves /metrics.")
	watchInterval := watchCmd.Flag("interval", "Poll interval").Default("15s").Duration()
	watchDiagAddr := watchCmd.Flag("diag-addr", "Address to serve /metrics and /healthz on").
		Default("localhost:9000").
		String()

	selectedCmd, err := app.Parse(os.Args[1:])
	if err != nil {
		lib.Bail(err)
	}

	switch selectedCmd {
	case "configure":
		fmt.Print(exampleConfig)
		return
	case "version":
		lib.PrintVersion(app.Name, Version, Gitref)
		return
	}

	conf, err := LoadConfig(*path)
	if err != nil {
		lib.Bail(err)
	}

	logConfig := conf.Log
	if *debug {
		logConfig.Severity = "debug"
	}
	if err := logger.Setup(logConfig); err != nil {
		lib.Bail(err)
	}

	a, err := NewApp(*conf)
	if err != nil {
		lib.Bail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch selectedCmd {
	case "login":
		err = a.Login(ctx)
	case "logout":
		err = a.Logout()
	case "status":
		err = a.Status(ctx)
	case "profit":
		err = a.Profit(ctx)
	case "positions":
		err = a.Positions(ctx)
	case "trades":
		err = a.Trades(ctx, *tradesLimit)
	case "autotrade":
		if *autotradeEnable == *autotradeDisable {
			err = trace.BadParameter("pass exactly one of --enable or --disable")
			break
		}
		err = a.AutoTrade(ctx, api.AutoTradingSettings{
			Enabled:         *autotradeEnable,
			Symbol:          *autotradeSymbol,
			BuyThreshold:    *autotradeBuy,
			SellThreshold:   *autotradeSell,
			MaxPositionSize: *autotradeMaxPos,
			StopLossPct:     *autotradeStopLoss,
			TakeProfitPct:   *autotradeTakeProfit,
		})
	case "get":
		err = a.Get(ctx, *getPath, *getField)
	case "watch":
		err = a.Watch(ctx, *watchInterval, *watchDiagAddr)
	}
	if err != nil {
		lib.Bail(err)
	}
}
