package dto

import (
	"time"

	"balance-monitor/internal/core/domain"
)

// BalanceResponse is the last successful reading.
type BalanceResponse struct {
	Balance    float64 `json:"balance"`
	ObservedAt string  `json:"observed_at"` // RFC 3339
}

// BalanceView carries the display projections of a snapshot.
type BalanceView struct {
	FormattedBalance string  `json:"formatted_balance"`
	InfoText         string  `json:"info_text"`
	InfoColor        string  `json:"info_color"`
	ShowsActivity    bool    `json:"shows_activity"`
	RefreshAvailable bool    `json:"refresh_available"`
	ValueAlpha       float64 `json:"value_alpha"`
	OverlayVisible   bool    `json:"overlay_visible"`
}

// BalanceStateResponse is the body of GET /api/v1/balance, the refresh and
// lifecycle endpoints, and every SSE "state" event.
type BalanceStateResponse struct {
	LastResponse *BalanceResponse `json:"last_response"`
	DidFail      bool             `json:"did_fail"`
	IsRefreshing bool             `json:"is_refreshing"`
	IsRedacted   bool             `json:"is_redacted"`
	View         BalanceView      `json:"view"`
}

// NewBalanceStateResponse renders state, formatting dates in the info text
// with formatDate.
func NewBalanceStateResponse(state domain.BalanceState, formatDate domain.DateFormatter) BalanceStateResponse {
	resp := BalanceStateResponse{
		DidFail:      state.DidFail,
		IsRefreshing: state.IsRefreshing,
		IsRedacted:   state.IsRedacted,
		View: BalanceView{
			FormattedBalance: state.FormattedBalance(),
			InfoText:         state.InfoText(formatDate),
			InfoColor:        string(state.InfoColor()),
			ShowsActivity:    state.ShowsActivity(),
			RefreshAvailable: state.RefreshAvailable(),
			ValueAlpha:       state.ValueAlpha(),
			OverlayVisible:   state.OverlayVisible(),
		},
	}
	if r := state.LastResponse; r != nil {
		resp.LastResponse = &BalanceResponse{
			Balance:    r.Balance,
			ObservedAt: r.ObservedAt.UTC().Format(time.RFC3339),
		}
	}
	return resp
}

// LifecycleRequest binds POST /api/v1/lifecycle/:signal.
type LifecycleRequest struct {
	Signal string `uri:"signal" binding:"required,lifecycle_signal"`
}
