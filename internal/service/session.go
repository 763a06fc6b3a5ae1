package service

import (
	"strings"
	"sync"
)

// Trading modes selectable from the dashboard header.
const (
	TradingModeLive = "live"
	TradingModeDemo = "demo"
)

// SessionState holds the process-wide UI state: trading mode, display
// currency, open sheets and the selected tab. Reset only by explicit
// setter calls; nothing here is persisted.
type SessionState struct {
	mu          sync.RWMutex
	tradingMode string
	currency    string
	openSheets  map[string]bool
	selectedTab int
}

// NewSessionState creates the store with its defaults.
func NewSessionState(defaultCurrency string) *SessionState {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &SessionState{
		tradingMode: TradingModeLive,
		currency:    strings.ToUpper(defaultCurrency),
		openSheets:  make(map[string]bool),
	}
}

// TradingMode returns the current trading mode.
func (s *SessionState) TradingMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tradingMode
}

// SetTradingMode switches between live and demo. Unknown modes are ignored.
func (s *SessionState) SetTradingMode(mode string) {
	if mode != TradingModeLive && mode != TradingModeDemo {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tradingMode = mode
}

// SelectedCurrency returns the display currency code ("USD", "EUR", ...).
func (s *SessionState) SelectedCurrency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currency
}

// SetSelectedCurrency switches the display currency. The market service
// consults this on its next freshness check.
func (s *SessionState) SetSelectedCurrency(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency = code
}

// IsSheetOpen reports whether a named sheet/panel is open.
func (s *SessionState) IsSheetOpen(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openSheets[name]
}

// SetSheetOpen opens or closes a named sheet.
func (s *SessionState) SetSheetOpen(name string, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open {
		s.openSheets[name] = true
	} else {
		delete(s.openSheets, name)
	}
}

// ToggleSheet flips a named sheet and returns the new state.
func (s *SessionState) ToggleSheet(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openSheets[name] {
		delete(s.openSheets, name)
		return false
	}
	s.openSheets[name] = true
	return true
}

// SelectedTab returns the selected tab index.
func (s *SessionState) SelectedTab() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedTab
}

// SetSelectedTab selects a tab. Negative indexes are ignored.
func (s *SessionState) SetSelectedTab(index int) {
	if index < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedTab = index
}
