/**
 * @description
 * Swap database models.
 * The mirror maintains two destination stores: a row store keyed by epoch
 * seconds ('stats_swaps' / 'stats_failed_swaps', what the aggregator reads)
 * and a time-bucketed store ('swaps' / 'failed_swaps' with an epoch column
 * for bucket pruning). Swap rows are append-only: created once by the
 * external matching engine and only ever copied here, never mutated.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/shopspring/decimal
 */

package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SwapRecord is a successful swap in the row store.
type SwapRecord struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	UUID         string          `gorm:"column:uuid;uniqueIndex" json:"uuid"`
	MakerCoin    string          `gorm:"index:idx_stats_swaps_pair_time,priority:1" json:"maker_coin"`
	MakerAmount  decimal.Decimal `gorm:"type:numeric" json:"maker_amount"`
	TakerCoin    string          `gorm:"index:idx_stats_swaps_pair_time,priority:2" json:"taker_coin"`
	TakerAmount  decimal.Decimal `gorm:"type:numeric" json:"taker_amount"`
	StartedAt    int64           `gorm:"index:idx_stats_swaps_pair_time,priority:3,sort:desc" json:"started_at"` // epoch seconds
	IsSuccess    bool            `json:"is_success"`
	MakerGui     string          `json:"maker_gui"`
	MakerVersion string          `json:"maker_version"`
	MakerPubkey  string          `json:"maker_pubkey"`
	TakerGui     string          `json:"taker_gui"`
	TakerVersion string          `json:"taker_version"`
	TakerPubkey  string          `json:"taker_pubkey"`
}

func (SwapRecord) TableName() string { return "stats_swaps" }

// FailedSwapRecord is a failed swap in the row store. Error messages are
// free text from the matching engine; ErrorCategory columns hold the
// coarse classification applied at mirror time.
type FailedSwapRecord struct {
	ID                 uint            `gorm:"primaryKey" json:"-"`
	UUID               string          `gorm:"column:uuid;uniqueIndex" json:"uuid"`
	MakerCoin          string          `json:"maker_coin"`
	MakerAmount        decimal.Decimal `gorm:"type:numeric" json:"maker_amount"`
	TakerCoin          string          `json:"taker_coin"`
	TakerAmount        decimal.Decimal `gorm:"type:numeric" json:"taker_amount"`
	StartedAt          int64           `gorm:"index" json:"started_at"`
	MakerGui           string          `json:"maker_gui"`
	MakerVersion       string          `json:"maker_version"`
	MakerPubkey        string          `json:"maker_pubkey"`
	TakerGui           string          `json:"taker_gui"`
	TakerVersion       string          `json:"taker_version"`
	TakerPubkey        string          `json:"taker_pubkey"`
	MakerErrorType     string          `json:"maker_error_type"`
	MakerErrorMsg      string          `json:"maker_error_msg"`
	MakerErrorCategory string          `json:"maker_error_category"`
	TakerErrorType     string          `json:"taker_error_type"`
	TakerErrorMsg      string          `json:"taker_error_msg"`
	TakerErrorCategory string          `json:"taker_error_category"`
}

func (FailedSwapRecord) TableName() string { return "stats_failed_swaps" }

// TimelineSwap is a successful swap in the time-bucketed store.
type TimelineSwap struct {
	ID           uint            `gorm:"primaryKey"`
	UUID         string          `gorm:"column:uuid;uniqueIndex"`
	MakerCoin    string
	MakerAmount  decimal.Decimal `gorm:"type:numeric"`
	TakerCoin    string
	TakerAmount  decimal.Decimal `gorm:"type:numeric"`
	StartedAt    time.Time
	Epoch        int64 `gorm:"index"`
	MakerGui     string
	MakerVersion string
	MakerPubkey  string
	TakerGui     string
	TakerVersion string
	TakerPubkey  string
}

func (TimelineSwap) TableName() string { return "swaps" }

// TimelineFailedSwap is a failed swap in the time-bucketed store.
type TimelineFailedSwap struct {
	ID                 uint            `gorm:"primaryKey"`
	UUID               string          `gorm:"column:uuid;uniqueIndex"`
	MakerCoin          string
	MakerAmount        decimal.Decimal `gorm:"type:numeric"`
	TakerCoin          string
	TakerAmount        decimal.Decimal `gorm:"type:numeric"`
	StartedAt          time.Time
	Epoch              int64 `gorm:"index"`
	MakerGui           string
	MakerVersion       string
	MakerPubkey        string
	TakerGui           string
	TakerVersion       string
	TakerPubkey        string
	MakerErrorType     string
	MakerErrorMsg      string
	MakerErrorCategory string
	TakerErrorType     string
	TakerErrorMsg      string
	TakerErrorCategory string
}

func (TimelineFailedSwap) TableName() string { return "failed_swaps" }

// SourceSwap is a successful swap as the external source ledger stores it.
type SourceSwap struct {
	UUID         string `gorm:"column:uuid"`
	StartedAt    time.Time
	TakerCoin    string
	TakerAmount  decimal.Decimal `gorm:"type:numeric"`
	TakerGui     string
	TakerVersion string
	TakerPubkey  string
	MakerCoin    string
	MakerAmount  decimal.Decimal `gorm:"type:numeric"`
	MakerGui     string
	MakerVersion string
	MakerPubkey  string
}

func (SourceSwap) TableName() string { return "swaps" }

// SourceFailedSwap is a failed swap as the external source ledger stores it.
type SourceFailedSwap struct {
	UUID           string `gorm:"column:uuid"`
	StartedAt      time.Time
	TakerCoin      string
	TakerAmount    decimal.Decimal `gorm:"type:numeric"`
	TakerErrorType string
	TakerErrorMsg  string
	TakerGui       string
	TakerVersion   string
	TakerPubkey    string
	MakerCoin      string
	MakerAmount    decimal.Decimal `gorm:"type:numeric"`
	MakerErrorType string
	MakerErrorMsg  string
	MakerGui       string
	MakerVersion   string
	MakerPubkey    string
}

func (SourceFailedSwap) TableName() string { return "swaps_failed" }

// SanitizeErrorMsg strips the characters that historically broke inserts of
// free-text engine errors.
func SanitizeErrorMsg(msg string) string {
	return strings.ReplaceAll(msg, "'", "")
}

// ClassifyError maps a free-text swap error message onto a coarse category.
// Unrecognised messages pass through unchanged so nothing is lost.
func ClassifyError(errorMsg string) string {
	if errorMsg == "" {
		return "None"
	}
	switch {
	case strings.Contains(errorMsg, "Waited too long until"):
		return "confirmation timeout"
	case strings.Contains(errorMsg, "Timeout"):
		return "tx timeout"
	case strings.Contains(errorMsg, "time_dif"):
		return "system time error"
	case strings.Contains(errorMsg, "Provided payment tx output doesn't match expected"):
		return "tx mismatch"
	case strings.Contains(errorMsg, "JsonRpcError"):
		return "JsonRpcError"
	case strings.Contains(errorMsg, "required at least"):
		return "balance error"
	}
	return errorMsg
}
