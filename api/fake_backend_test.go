package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
)

// FakeBackend imitates the trading-bot REST API: a token endpoint, a refresh
// endpoint, and bearer-protected bot endpoints. Tokens are serial
// ("access-1", "refresh-1", ...) and rotate on every refresh.
type FakeBackend struct {
	srv *httptest.Server

	mu             sync.Mutex
	serial         int
	accessToken    string
	refreshToken   string
	refreshFails   bool
	rejectAllAuth  bool
	registerStatus int
	lastAuthHeader string

	refreshCount      uint64
	unauthorizedCount uint64
	botRequestCount   uint64

	holdRefresh chan struct{}
}

func NewFakeBackend() *FakeBackend {
	fb := &FakeBackend{registerStatus: http.StatusOK}
	fb.rotateTokens()

	router := httprouter.New()
	router.POST("/auth/token", fb.handleToken)
	router.POST("/auth/refresh", fb.handleRefresh)
	router.POST("/auth/register", fb.handleRegister)
	router.GET("/health", func(rw http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		respondJSON(rw, map[string]string{"status": "ok"})
	})

	router.GET("/bot/profit", fb.authenticated(func(rw http.ResponseWriter, _ *http.Request) {
		respondJSON(rw, ProfitSummary{TotalProfit: 10, WinRate: 0.62, TradesTotal: 42})
	}))
	router.GET("/bot/positions", fb.authenticated(func(rw http.ResponseWriter, _ *http.Request) {
		respondJSON(rw, []Position{
			{ID: "pos-1", Symbol: "BTC-USD", Side: "buy", Quantity: 0.5, EntryPrice: 50000, MarkPrice: 50500, UnrealizedPnL: 250},
		})
	}))
	router.GET("/bot/status", fb.authenticated(func(rw http.ResponseWriter, _ *http.Request) {
		respondJSON(rw, BotStatus{Running: true, Mode: "paper", Symbol: "BTC-USD"})
	}))
	router.GET("/bot/slow", fb.authenticated(func(rw http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		respondJSON(rw, map[string]string{"status": "too late"})
	}))
	router.POST("/bot/start", fb.authenticated(func(rw http.ResponseWriter, _ *http.Request) {
		respondJSON(rw, map[string]bool{"running": true})
	}))
	router.POST("/bot/stop", fb.authenticated(func(rw http.ResponseWriter, _ *http.Request) {
		respondJSON(rw, map[string]bool{"running": false})
	}))
	router.PUT("/bot/settings", fb.authenticated(func(rw http.ResponseWriter, r *http.Request) {
		var settings AutoTradingSettings
		panicIf(json.NewDecoder(r.Body).Decode(&settings))
		respondJSON(rw, settings)
	}))

	fb.srv = httptest.NewServer(router)
	return fb
}

func (fb *FakeBackend) URL() string {
	return fb.srv.URL
}

func (fb *FakeBackend) Close() {
	fb.srv.Close()
}

// AccessToken returns the token the backend currently accepts.
func (fb *FakeBackend) AccessToken() string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.accessToken
}

// LastAuthHeader returns the Authorization header of the most recent bot
// request.
func (fb *FakeBackend) LastAuthHeader() string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.lastAuthHeader
}

func (fb *FakeBackend) RefreshCount() uint64 {
	return atomic.LoadUint64(&fb.refreshCount)
}

func (fb *FakeBackend) UnauthorizedCount() uint64 {
	return atomic.LoadUint64(&fb.unauthorizedCount)
}

func (fb *FakeBackend) BotRequestCount() uint64 {
	return atomic.LoadUint64(&fb.botRequestCount)
}

// ExpireAccessToken invalidates the access token the client holds while
// keeping its refresh token valid.
func (fb *FakeBackend) ExpireAccessToken() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.serial++
	fb.accessToken = fmt.Sprintf("access-%d", fb.serial)
}

// FailRefresh makes the refresh endpoint reject every renewal.
func (fb *FakeBackend) FailRefresh() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.refreshFails = true
}

// RejectAllAuth makes every bot endpoint return 401 regardless of token.
func (fb *FakeBackend) RejectAllAuth() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.rejectAllAuth = true
}

// RejectRegistration makes the register endpoint return 401.
func (fb *FakeBackend) RejectRegistration() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.registerStatus = http.StatusUnauthorized
}

// HoldRefresh blocks the refresh endpoint until ReleaseRefresh is called.
func (fb *FakeBackend) HoldRefresh() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.holdRefresh = make(chan struct{})
}

func (fb *FakeBackend) ReleaseRefresh() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.holdRefresh != nil {
		close(fb.holdRefresh)
		fb.holdRefresh = nil
	}
}

func (fb *FakeBackend) rotateTokens() {
	fb.serial++
	fb.accessToken = fmt.Sprintf("access-%d", fb.serial)
	fb.refreshToken = fmt.Sprintf("refresh-%d", fb.serial)
}

func (fb *FakeBackend) handleToken(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	panicIf(r.ParseForm())
	if r.PostForm.Get("password") == "wrong" {
		respondError(rw, http.StatusUnauthorized, "invalid username or password")
		return
	}

	fb.mu.Lock()
	fb.rotateTokens()
	session := Session{
		AccessToken:  fb.accessToken,
		RefreshToken: fb.refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		User:         User{ID: "user-1", Username: r.PostForm.Get("username")},
	}
	fb.mu.Unlock()

	respondJSON(rw, session)
}

func (fb *FakeBackend) handleRefresh(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	atomic.AddUint64(&fb.refreshCount, 1)

	fb.mu.Lock()
	hold := fb.holdRefresh
	fb.mu.Unlock()
	if hold != nil {
		<-hold
	}

	body, err := io.ReadAll(r.Body)
	panicIf(err)
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	panicIf(json.Unmarshal(body, &req))

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.refreshFails || req.RefreshToken != fb.refreshToken {
		respondError(rw, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	fb.rotateTokens()
	respondJSON(rw, Credentials{AccessToken: fb.accessToken, RefreshToken: fb.refreshToken})
}

func (fb *FakeBackend) handleRegister(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fb.mu.Lock()
	status := fb.registerStatus
	fb.mu.Unlock()
	if status != http.StatusOK {
		respondError(rw, status, "registration is closed")
		return
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	panicIf(json.NewDecoder(r.Body).Decode(&req))
	respondJSON(rw, User{ID: "user-2", Username: req.Username, Email: req.Email})
}

func (fb *FakeBackend) authenticated(handle func(http.ResponseWriter, *http.Request)) httprouter.Handle {
	return func(rw http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		atomic.AddUint64(&fb.botRequestCount, 1)

		header := r.Header.Get("Authorization")
		fb.mu.Lock()
		fb.lastAuthHeader = header
		valid := !fb.rejectAllAuth && header == "Bearer "+fb.accessToken
		fb.mu.Unlock()

		if !valid {
			atomic.AddUint64(&fb.unauthorizedCount, 1)
			respondError(rw, http.StatusUnauthorized, "token expired")
			return
		}
		handle(rw, r)
	}
}

func respondJSON(rw http.ResponseWriter, value interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	panicIf(json.NewEncoder(rw).Encode(value))
}

func respondError(rw http.ResponseWriter, status int, detail string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	panicIf(json.NewEncoder(rw).Encode(map[string]string{"detail": detail}))
}

func panicIf(err error) {
	if err != nil {
		log.Panicf("%v at %v", err, string(debug.Stack()))
	}
}
