package scheduler

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradekeeper/tradekeeper/internal/domain"
)

// closedByScheduleState marks trades force-closed by the sweep.
const closedByScheduleState = "Close by Schedule"

// TradeUpdater is the slice of the trade service the sweep needs.
type TradeUpdater interface {
	ListAll() ([]domain.Trade, error)
	Update(id string, patch domain.TradePatch) (*domain.Trade, error)
}

// CloseStaleTradesJob force-closes trades left open past their day. A
// trade is stale when its state does not already say it is closed or
// closing, its date is before today, and its session is not "full day"
// (full-day trades may legitimately span into the next day).
type CloseStaleTradesJob struct {
	trades TradeUpdater
	log    zerolog.Logger
	now    func() time.Time
}

// NewCloseStaleTradesJob creates the stale-trade sweep job
func NewCloseStaleTradesJob(trades TradeUpdater, log zerolog.Logger) *CloseStaleTradesJob {
	return &CloseStaleTradesJob{
		trades: trades,
		log:    log.With().Str("job", "close_stale_trades").Logger(),
		now:    time.Now,
	}
}

// Name returns the job name
func (j *CloseStaleTradesJob) Name() string {
	return "close_stale_trades"
}

// Run sweeps all trades and closes the stale ones through the regular
// update path, so the usual logging and persistence rules apply. One
// failed close does not stop the sweep.
func (j *CloseStaleTradesJob) Run() error {
	trades, err := j.trades.ListAll()
	if err != nil {
		return err
	}

	today := j.now().UTC().Truncate(24 * time.Hour)

	var closed []string
	for _, t := range trades {
		if !j.isStale(t, today) {
			continue
		}

		state := closedByScheduleState
		if _, err := j.trades.Update(t.ID, domain.TradePatch{State: &state}); err != nil {
			j.log.Error().Err(err).Str("trade_id", t.ID).Msg("Failed to close stale trade")
			continue
		}

		closed = append(closed, t.ID)
	}

	if len(closed) > 0 {
		j.log.Info().
			Strs("trade_ids", closed).
			Int("count", len(closed)).
			Msg("Closed stale trades")
	}

	return nil
}

func (j *CloseStaleTradesJob) isStale(t domain.Trade, today time.Time) bool {
	state := strings.ToLower(t.State)
	if strings.Contains(state, "close") || strings.Contains(state, "closing") {
		return false
	}
	if !t.Date.Before(today) {
		return false
	}
	return !strings.EqualFold(t.Session, "full day")
}
