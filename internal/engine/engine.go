// Package engine implements the day-by-day trading simulation: it
// consumes a signal series and two price series and produces a trade
// ledger, a daily portfolio-value series, and final capital, enforcing
// stop-loss/take-profit/trailing-stop controls and mutual exclusivity
// between the two instruments.
package engine

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/msevon/NATGAS-trader/internal/market"
	"github.com/msevon/NATGAS-trader/internal/models"
	"github.com/msevon/NATGAS-trader/internal/util"
)

// Result is the output of a single simulation run.
type Result struct {
	StartDate      time.Time               `json:"start_date"`
	EndDate        time.Time               `json:"end_date"`
	InitialCapital float64                 `json:"initial_capital"`
	FinalCapital   float64                 `json:"final_capital"`
	TotalReturn    float64                 `json:"total_return"`
	TotalReturnPct float64                 `json:"total_return_pct"`
	Trades         []models.Trade          `json:"trades"`
	Positions      []models.Position       `json:"positions"`
	DailyValues    []models.PortfolioValue `json:"daily_portfolio_values"`
}

// quote is one instrument's resolved price for the day.
type quote struct {
	price float64
	ok    bool
}

// state is the mutable run state. It is owned exclusively by one Run
// call and reset at its start; runs never share state.
type state struct {
	cash        float64
	book        models.Book
	trades      []models.Trade
	dailyValues []models.PortfolioValue
}

// Engine simulates the pair-trading strategy over materialized signal
// and price data. A single run is strictly sequential: later days
// depend on earlier days' position and trailing state. Separate Engine
// instances are independent and may run in parallel.
type Engine struct {
	params Params
	logger *log.Logger
	state  state
}

// New creates an engine for the given parameter set. A nil logger
// defaults to the standard logger.
func New(params Params, logger *log.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{params: params, logger: logger}, nil
}

// Run simulates every calendar day in [start, end], then force-closes
// any remaining position. It fails up front when either price series is
// missing; it never substitutes fabricated data.
func (e *Engine) Run(signals *market.SignalSeries, primary, inverse *market.Series, start, end time.Time) (*Result, error) {
	if primary.Len() == 0 {
		return nil, fmt.Errorf("engine: no price data for %s", e.params.Symbol)
	}
	if inverse.Len() == 0 {
		return nil, fmt.Errorf("engine: no price data for %s", e.params.InverseSymbol)
	}
	if signals == nil {
		return nil, fmt.Errorf("engine: signal series is required")
	}
	start, end = market.Day(start), market.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("engine: end date %s before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	e.reset()
	e.logger.Printf("starting simulation %s to %s, initial capital $%.2f",
		start.Format("2006-01-02"), end.Format("2006-01-02"), e.params.InitialCapital)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		e.processDay(day, signals, primary, inverse)
	}

	e.closeAll(end, primary, inverse)

	final := e.state.cash
	result := &Result{
		StartDate:      start,
		EndDate:        end,
		InitialCapital: e.params.InitialCapital,
		FinalCapital:   final,
		TotalReturn:    final - e.params.InitialCapital,
		TotalReturnPct: (final - e.params.InitialCapital) / e.params.InitialCapital * 100,
		Trades:         e.state.trades,
		Positions:      e.state.book.Positions(),
		DailyValues:    e.state.dailyValues,
	}
	e.logger.Printf("simulation complete: final capital $%.2f (%+.2f%%), %d trades",
		result.FinalCapital, result.TotalReturnPct, len(result.Trades))
	return result, nil
}

func (e *Engine) reset() {
	e.state = state{
		cash:        e.params.InitialCapital,
		trades:      make([]models.Trade, 0, 64),
		dailyValues: make([]models.PortfolioValue, 0, 512),
	}
	e.state.book.Reset()
}

// processDay runs the fixed per-day order: resolve prices, record
// portfolio value, evaluate stops, then act on the day's signal.
func (e *Engine) processDay(day time.Time, signals *market.SignalSeries, primary, inverse *market.Series) {
	quotes := e.resolveQuotes(day, primary, inverse)
	if !quotes[models.RolePrimary].ok && !quotes[models.RoleInverse].ok {
		e.logger.Printf("no price data for %s, skipping day", day.Format("2006-01-02"))
		return
	}

	e.recordPortfolioValue(day, quotes)
	e.checkStops(day, quotes)

	sig, ok := signals.At(day)
	if !ok || !sig.IsBuy() {
		return // missing day or HOLD: nothing beyond stop evaluation
	}
	e.executeBuy(sig, day, quotes)
}

func (e *Engine) resolveQuotes(day time.Time, primary, inverse *market.Series) [2]quote {
	var quotes [2]quote
	p, pok := primary.At(day)
	quotes[models.RolePrimary] = quote{price: p, ok: pok}
	i, iok := inverse.At(day)
	quotes[models.RoleInverse] = quote{price: i, ok: iok}
	return quotes
}

// recordPortfolioValue appends cash plus open positions marked at
// today's prices. An open position implies a past fill, so its series
// always resolves via carry-forward.
func (e *Engine) recordPortfolioValue(day time.Time, quotes [2]quote) {
	total := e.state.cash
	for _, role := range models.Roles() {
		pos := e.state.book.Position(role)
		if pos == nil || !quotes[role].ok {
			continue
		}
		total += pos.MarketValue(quotes[role].price)
	}
	e.state.dailyValues = append(e.state.dailyValues, models.PortfolioValue{Date: day, Value: total})
}

// checkStops evaluates each open position's stop orders at today's
// price, in fixed precedence: stop loss, take profit, trailing breach
// (only once active), then trailing activation. Instruments without a
// resolvable price are skipped.
func (e *Engine) checkStops(day time.Time, quotes [2]quote) {
	for _, role := range models.Roles() {
		pos := e.state.book.Position(role)
		stop := e.state.book.Stop(role)
		if pos == nil || stop == nil || !quotes[role].ok {
			continue
		}
		price := quotes[role].price

		if price <= stop.StopLossPrice {
			e.logger.Printf("stop loss triggered for %s at $%.2f", pos.Symbol, price)
			e.closePosition(role, day, price, models.ReasonStopLoss)
			continue
		}
		if price >= stop.TakeProfitPrice {
			e.logger.Printf("take profit triggered for %s at $%.2f", pos.Symbol, price)
			e.closePosition(role, day, price, models.ReasonTakeProfit)
			continue
		}

		if !stop.TrailingActive {
			profitPct := (price - stop.EntryPrice) / stop.EntryPrice
			if profitPct >= e.params.TrailingActivationPct {
				stop.ActivateTrailing(price, e.params.TrailingStopPct)
				e.logger.Printf("trailing stop activated for %s at $%.2f (trail $%.2f)",
					pos.Symbol, price, stop.TrailingPrice)
			}
		}
		if stop.TrailingActive {
			stop.Ratchet(price, e.params.TrailingStopPct)
			if price <= stop.TrailingPrice {
				e.logger.Printf("trailing stop triggered for %s at $%.2f", pos.Symbol, price)
				e.closePosition(role, day, price, models.ReasonTrailingStop)
			}
		}
	}
}

// executeBuy runs the order-execution algorithm for a BUY signal:
// close the opposing position (mutual exclusivity), close any existing
// position in the target (signal refresh), then size and open.
func (e *Engine) executeBuy(sig models.Signal, day time.Time, quotes [2]quote) {
	role, ok := e.roleFor(sig.Symbol)
	if !ok {
		e.logger.Printf("signal targets unknown symbol %q, ignoring", sig.Symbol)
		return
	}
	if !quotes[role].ok {
		e.logger.Printf("no price for %s on %s, buy skipped", sig.Symbol, day.Format("2006-01-02"))
		return
	}

	other := role.Other()
	if e.state.book.Position(other) != nil {
		if !quotes[other].ok {
			// Cannot price the forced close, so the flip cannot happen today.
			e.logger.Printf("no price to close %s on %s, buy skipped",
				e.symbolFor(other), day.Format("2006-01-02"))
			return
		}
		e.closePosition(other, day, quotes[other].price, models.ReasonMutualExclusivity)
	}
	if e.state.book.Position(role) != nil {
		// Signal refresh: fully close and reopen at new sizing.
		e.closePosition(role, day, quotes[role].price, models.ReasonSignal)
	}

	notional := e.positionSize(sig)
	execPrice := quotes[role].price * (1 + e.params.SlippagePct)
	quantity := int(math.Floor(notional / execPrice))
	if quantity <= 0 {
		e.logger.Printf("calculated quantity is zero for %s, order rejected", sig.Symbol)
		return
	}
	value := float64(quantity) * execPrice
	if value < e.params.MinTradeValue {
		e.logger.Printf("trade value too small: $%.2f < $%.2f, order rejected", value, e.params.MinTradeValue)
		return
	}
	if value+e.params.CommissionPerTrade > e.state.cash {
		e.logger.Printf("insufficient capital: $%.2f needed > $%.2f available, order rejected",
			value+e.params.CommissionPerTrade, e.state.cash)
		return
	}

	trade := models.NewTrade(day, sig.Symbol, models.SideBuy, quantity, execPrice,
		sig.Total, sig.Confidence, models.ReasonSignal)
	e.state.trades = append(e.state.trades, trade)
	e.state.cash -= value + e.params.CommissionPerTrade

	pos := &models.Position{
		Symbol:    sig.Symbol,
		Quantity:  quantity,
		AvgPrice:  execPrice,
		EntryDate: day,
	}
	stop := models.NewActiveStop(sig.Symbol, execPrice, day, e.params.StopLossPct, e.params.TakeProfitPct)
	if err := e.state.book.Open(role, pos, stop); err != nil {
		// Unreachable when the close-before-open sequence above is followed.
		panic(fmt.Sprintf("engine: book open failed: %v", err))
	}

	e.logger.Printf("bought %d shares of %s at $%.2f", quantity, sig.Symbol, execPrice)
}

// positionSize computes the target notional: base size scaled by signal
// strength (capped) and by remaining capital, clamped to the configured
// bounds.
func (e *Engine) positionSize(sig models.Signal) float64 {
	threshold := e.params.BuyThreshold
	if sig.Symbol == e.params.InverseSymbol {
		threshold = math.Abs(e.params.SellThreshold)
	}
	strengthMult := math.Min(math.Abs(sig.Total)/threshold, e.params.SignalCapMultiplier)
	capitalFactor := math.Min(e.state.cash/e.params.InitialCapital, 1.0)
	size := e.params.BasePositionSize * strengthMult * capitalFactor
	return util.Clamp(size, e.params.MinPositionSize, e.params.MaxPositionSize)
}

// closePosition sells the whole position at the quoted price less
// slippage, credits proceeds minus commission, and removes the position
// and its stop.
func (e *Engine) closePosition(role models.Role, day time.Time, quotedPrice float64, reason models.CloseReason) {
	pos := e.state.book.Position(role)
	if pos == nil {
		return
	}

	execPrice := quotedPrice * (1 - e.params.SlippagePct)
	trade := models.NewTrade(day, pos.Symbol, models.SideSell, pos.Quantity, execPrice,
		0, 0, reason)
	e.state.trades = append(e.state.trades, trade)
	e.state.cash += trade.Value - e.params.CommissionPerTrade

	e.state.book.Close(role)
	e.logger.Printf("sold %d shares of %s at $%.2f (%s)", trade.Quantity, trade.Symbol, execPrice, reason)
}

// closeAll force-closes any still-open position at the final available
// price for its instrument.
func (e *Engine) closeAll(end time.Time, primary, inverse *market.Series) {
	series := [2]*market.Series{models.RolePrimary: primary, models.RoleInverse: inverse}
	for _, role := range models.Roles() {
		if e.state.book.Position(role) == nil {
			continue
		}
		price, ok := series[role].At(end)
		if !ok {
			// A position implies a past fill and therefore a carried-forward price.
			e.logger.Printf("no final price for %s, position left open", e.symbolFor(role))
			continue
		}
		e.closePosition(role, end, price, models.ReasonEndOfSimulation)
	}
}

func (e *Engine) roleFor(symbol string) (models.Role, bool) {
	switch symbol {
	case e.params.Symbol:
		return models.RolePrimary, true
	case e.params.InverseSymbol:
		return models.RoleInverse, true
	default:
		return 0, false
	}
}

func (e *Engine) symbolFor(role models.Role) string {
	if role == models.RolePrimary {
		return e.params.Symbol
	}
	return e.params.InverseSymbol
}
