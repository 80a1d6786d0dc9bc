package api

import "time"

// Session is returned by the token endpoint on a successful login.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// User is the dashboard account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ProfitSummary is the bot's aggregate performance snapshot.
type ProfitSummary struct {
	TotalProfit float64 `json:"total_profit"`
	WinRate     float64 `json:"win_rate"`
	TradesTotal int     `json:"trades_total"`
}

// Position is one open lot held by the bot.
type Position struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Quantity      float64   `json:"quantity"`
	EntryPrice    float64   `json:"entry_price"`
	MarkPrice     float64   `json:"mark_price"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	OpenedAt      time.Time `json:"opened_at"`
}

// Trade is one executed fill.
type Trade struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Profit     float64   `json:"profit"`
	ExecutedAt time.Time `json:"executed_at"`
}

// BotStatus describes whether the trading loop is running and how.
type BotStatus struct {
	Running   bool      `json:"running"`
	Mode      string    `json:"mode"`
	Symbol    string    `json:"symbol"`
	StartedAt time.Time `json:"started_at"`
}

// AutoTradingSettings are the bot's strategy knobs.
type AutoTradingSettings struct {
	Enabled         bool    `json:"enabled"`
	Symbol          string  `json:"symbol"`
	BuyThreshold    float64 `json:"buy_threshold"`
	SellThreshold   float64 `json:"sell_threshold"`
	MaxPositionSize float64 `json:"max_position_size"`
	StopLossPct     float64 `json:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct"`
}
