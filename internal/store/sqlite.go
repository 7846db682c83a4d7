// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/models"
)

// SQLiteStore implements LedgerStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// resettableTables are the tables ResetTable accepts, in reset order.
var resettableTables = []string{
	"trades", "portfolio", "price_history",
	"corporate_actions", "alert_rules", "alert_history",
}

// NewSQLiteStore creates a new SQLite-based ledger store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Append-only trade ledger
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_date DATE NOT NULL,
		scrip_code TEXT NOT NULL,
		scrip_name TEXT,
		quantity INTEGER NOT NULL CHECK(quantity > 0),
		price REAL NOT NULL CHECK(price > 0),
		trade_type TEXT NOT NULL CHECK(trade_type IN ('BUY', 'SELL')),
		total_value REAL,
		brokerage REAL DEFAULT 0,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Derived current holdings
	CREATE TABLE IF NOT EXISTS portfolio (
		scrip_code TEXT PRIMARY KEY,
		scrip_name TEXT,
		total_quantity INTEGER NOT NULL DEFAULT 0,
		avg_buy_price REAL NOT NULL,
		total_invested REAL NOT NULL,
		current_price REAL,
		current_value REAL,
		profit_loss REAL,
		profit_loss_percent REAL,
		last_updated DATETIME
	);

	-- Daily OHLCV history
	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scrip_code TEXT NOT NULL,
		price_date DATE NOT NULL,
		open_price REAL,
		high_price REAL,
		low_price REAL,
		close_price REAL,
		volume INTEGER,
		source TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(scrip_code, price_date)
	);

	-- Corporate action audit log
	CREATE TABLE IF NOT EXISTS corporate_actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action_date DATE NOT NULL,
		scrip_code TEXT NOT NULL,
		scrip_name TEXT,
		action_type TEXT NOT NULL CHECK(action_type IN ('DIVIDEND', 'BONUS', 'SPLIT')),
		quantity INTEGER,
		amount REAL,
		ratio TEXT,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Alert rules
	CREATE TABLE IF NOT EXISTS alert_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scrip_code TEXT NOT NULL,
		scrip_name TEXT,
		alert_type TEXT NOT NULL CHECK(alert_type IN
			('PRICE_CHANGE', 'TARGET_PRICE', 'STOP_LOSS')),
		condition TEXT NOT NULL CHECK(condition IN
			('ABOVE', 'BELOW', 'CHANGE_UP', 'CHANGE_DOWN')),
		threshold_value REAL NOT NULL,
		is_active INTEGER DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_triggered DATETIME,
		notes TEXT
	);

	-- Alert trigger history (append-only)
	CREATE TABLE IF NOT EXISTS alert_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		alert_rule_id INTEGER NOT NULL,
		scrip_code TEXT NOT NULL,
		scrip_name TEXT,
		alert_type TEXT NOT NULL,
		trigger_price REAL NOT NULL,
		threshold_value REAL NOT NULL,
		message TEXT NOT NULL,
		triggered_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		notification_sent INTEGER DEFAULT 0,
		FOREIGN KEY (alert_rule_id) REFERENCES alert_rules(id)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_scrip ON trades(scrip_code);
	CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(trade_date);
	CREATE INDEX IF NOT EXISTS idx_price_history_scrip_date ON price_history(scrip_code, price_date);
	CREATE INDEX IF NOT EXISTS idx_actions_scrip ON corporate_actions(scrip_code);
	CREATE INDEX IF NOT EXISTS idx_alert_rules_scrip ON alert_rules(scrip_code);
	CREATE INDEX IF NOT EXISTS idx_alert_rules_active ON alert_rules(is_active);
	CREATE INDEX IF NOT EXISTS idx_alert_history_scrip ON alert_history(scrip_code);
	CREATE INDEX IF NOT EXISTS idx_alert_history_triggered ON alert_history(triggered_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Trades
// ============================================================================

// AppendTrade appends a trade to the ledger and returns its id.
func (s *SQLiteStore) AppendTrade(ctx context.Context, trade *models.Trade) (int64, error) {
	trade.TotalValue = float64(trade.Quantity) * trade.Price

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (trade_date, scrip_code, scrip_name, quantity, price, trade_type, total_value, brokerage, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.TradeDate.Format("2006-01-02"), trade.ScripCode, trade.ScripName, trade.Quantity,
		trade.Price, trade.Side, trade.TotalValue, trade.Brokerage, trade.Notes)
	if err != nil {
		return 0, fmt.Errorf("failed to append trade: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get trade id: %w", err)
	}
	trade.ID = id
	return id, nil
}

// ListTrades retrieves trades from the ledger. Default order is trade_date
// then id, which is the replay order the aggregator depends on.
func (s *SQLiteStore) ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT id, trade_date, scrip_code, COALESCE(scrip_name, ''), quantity, price, trade_type, COALESCE(total_value, 0), COALESCE(brokerage, 0), COALESCE(notes, ''), created_at FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.ScripCode != "" {
		query += " AND scrip_code = ?"
		args = append(args, filter.ScripCode)
	}
	if filter.Side != "" {
		query += " AND trade_type = ?"
		args = append(args, filter.Side)
	}
	if !filter.StartDate.IsZero() {
		query += " AND trade_date >= ?"
		args = append(args, filter.StartDate.Format("2006-01-02"))
	}
	if !filter.EndDate.IsZero() {
		query += " AND trade_date <= ?"
		args = append(args, filter.EndDate.Format("2006-01-02"))
	}

	if filter.Descending {
		query += " ORDER BY trade_date DESC, id DESC"
	} else {
		query += " ORDER BY trade_date ASC, id ASC"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.TradeDate, &t.ScripCode, &t.ScripName, &t.Quantity, &t.Price,
			&t.Side, &t.TotalValue, &t.Brokerage, &t.Notes, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// ============================================================================
// Positions
// ============================================================================

// UpsertPosition writes a derived position row. On rewrite the last known
// price is kept and the cached valuation is recomputed against the new
// quantity and cost basis, so current_value always equals quantity * price.
func (s *SQLiteStore) UpsertPosition(ctx context.Context, pos *models.Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portfolio (scrip_code, scrip_name, total_quantity, avg_buy_price, total_invested,
			current_price, current_value, profit_loss, profit_loss_percent, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scrip_code) DO UPDATE SET
			scrip_name = excluded.scrip_name,
			total_quantity = excluded.total_quantity,
			avg_buy_price = excluded.avg_buy_price,
			total_invested = excluded.total_invested,
			current_value = CASE WHEN COALESCE(current_price, 0) > 0
				THEN excluded.total_quantity * current_price ELSE 0 END,
			profit_loss = CASE WHEN COALESCE(current_price, 0) > 0
				THEN excluded.total_quantity * current_price - excluded.total_invested ELSE 0 END,
			profit_loss_percent = CASE WHEN COALESCE(current_price, 0) > 0 AND excluded.total_invested > 0
				THEN (excluded.total_quantity * current_price - excluded.total_invested) / excluded.total_invested * 100
				ELSE 0 END,
			last_updated = excluded.last_updated
	`, pos.ScripCode, pos.ScripName, pos.Quantity, pos.AvgBuyPrice, pos.TotalInvested,
		pos.CurrentPrice, pos.CurrentValue, pos.ProfitLoss, pos.ProfitLossPercent, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}
	return nil
}

func scanPosition(scanner interface{ Scan(...interface{}) error }) (*models.Position, error) {
	var p models.Position
	var lastUpdated sql.NullTime
	if err := scanner.Scan(&p.ScripCode, &p.ScripName, &p.Quantity, &p.AvgBuyPrice, &p.TotalInvested,
		&p.CurrentPrice, &p.CurrentValue, &p.ProfitLoss, &p.ProfitLossPercent, &lastUpdated); err != nil {
		return nil, err
	}
	if lastUpdated.Valid {
		p.LastUpdated = lastUpdated.Time
	}
	return &p, nil
}

// GetPosition retrieves a position by scrip code. Returns nil if absent.
func (s *SQLiteStore) GetPosition(ctx context.Context, scripCode string) (*models.Position, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT scrip_code, COALESCE(scrip_name, ''), total_quantity, avg_buy_price, total_invested,
			COALESCE(current_price, 0), COALESCE(current_value, 0), COALESCE(profit_loss, 0),
			COALESCE(profit_loss_percent, 0), last_updated
		FROM portfolio WHERE scrip_code = ?
	`, scripCode)

	pos, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return pos, nil
}

// ListPositions retrieves positions, optionally only those still held.
func (s *SQLiteStore) ListPositions(ctx context.Context, heldOnly bool) ([]models.Position, error) {
	query := `
		SELECT scrip_code, COALESCE(scrip_name, ''), total_quantity, avg_buy_price, total_invested,
			COALESCE(current_price, 0), COALESCE(current_value, 0), COALESCE(profit_loss, 0),
			COALESCE(profit_loss_percent, 0), last_updated
		FROM portfolio`
	if heldOnly {
		query += " WHERE total_quantity > 0"
	}
	query += " ORDER BY scrip_code"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *pos)
	}

	return positions, rows.Err()
}

// UpdateCurrentPrices patches the cached valuation fields of held positions
// in a single transaction, one logical "update prices" operation.
func (s *SQLiteStore) UpdateCurrentPrices(ctx context.Context, prices map[string]float64) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for scripCode, price := range prices {
		var quantity int64
		var invested float64
		err := tx.QueryRowContext(ctx, `
			SELECT total_quantity, total_invested FROM portfolio WHERE scrip_code = ?
		`, scripCode).Scan(&quantity, &invested)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read position %s: %w", scripCode, err)
		}

		currentValue := float64(quantity) * price
		profitLoss := currentValue - invested
		profitLossPct := 0.0
		if invested > 0 {
			profitLossPct = profitLoss / invested * 100
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE portfolio
			SET current_price = ?, current_value = ?, profit_loss = ?, profit_loss_percent = ?, last_updated = ?
			WHERE scrip_code = ?
		`, price, currentValue, profitLoss, profitLossPct, now, scripCode)
		if err != nil {
			return fmt.Errorf("failed to update price for %s: %w", scripCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price update: %w", err)
	}
	return nil
}

// ============================================================================
// Corporate actions
// ============================================================================

// ApplyCorporateAction appends the audit row and, when pos is non-nil,
// overwrites the position's quantity and cost basis. Both writes happen in
// one transaction: no partial update is ever visible to readers.
func (s *SQLiteStore) ApplyCorporateAction(ctx context.Context, action *models.CorporateAction, pos *models.Position) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO corporate_actions (action_date, scrip_code, scrip_name, action_type, quantity, amount, ratio, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, action.ActionDate.Format("2006-01-02"), action.ScripCode, action.ScripName, action.Type,
		action.Quantity, action.Amount, action.Ratio, action.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert corporate action: %w", err)
	}
	action.ID, _ = result.LastInsertId()

	if pos != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE portfolio
			SET total_quantity = ?, avg_buy_price = ?, total_invested = ?, last_updated = ?
			WHERE scrip_code = ?
		`, pos.Quantity, pos.AvgBuyPrice, pos.TotalInvested, time.Now(), pos.ScripCode)
		if err != nil {
			return fmt.Errorf("failed to update position: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrScripNotFound, pos.ScripCode)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit corporate action: %w", err)
	}
	return nil
}

// ListCorporateActions retrieves corporate actions, most recent first.
func (s *SQLiteStore) ListCorporateActions(ctx context.Context, filter ActionFilter) ([]models.CorporateAction, error) {
	query := "SELECT id, action_date, scrip_code, COALESCE(scrip_name, ''), action_type, COALESCE(quantity, 0), COALESCE(amount, 0), COALESCE(ratio, ''), COALESCE(notes, ''), created_at FROM corporate_actions WHERE 1=1"
	args := []interface{}{}

	if filter.ScripCode != "" {
		query += " AND scrip_code = ?"
		args = append(args, filter.ScripCode)
	}
	if filter.Type != "" {
		query += " AND action_type = ?"
		args = append(args, filter.Type)
	}
	query += " ORDER BY action_date DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query corporate actions: %w", err)
	}
	defer rows.Close()

	var actions []models.CorporateAction
	for rows.Next() {
		var a models.CorporateAction
		if err := rows.Scan(&a.ID, &a.ActionDate, &a.ScripCode, &a.ScripName, &a.Type,
			&a.Quantity, &a.Amount, &a.Ratio, &a.Notes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan corporate action: %w", err)
		}
		actions = append(actions, a)
	}

	return actions, rows.Err()
}

// ============================================================================
// Alert rules and history
// ============================================================================

// AddAlertRule inserts a new alert rule and returns its id.
func (s *SQLiteStore) AddAlertRule(ctx context.Context, rule *models.AlertRule) (int64, error) {
	active := 0
	if rule.IsActive {
		active = 1
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_rules (scrip_code, scrip_name, alert_type, condition, threshold_value, is_active, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rule.ScripCode, rule.ScripName, rule.Kind, rule.Condition, rule.Threshold, active, rule.Notes)
	if err != nil {
		return 0, fmt.Errorf("failed to add alert rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get rule id: %w", err)
	}
	rule.ID = id
	return id, nil
}

const ruleColumns = "id, scrip_code, COALESCE(scrip_name, ''), alert_type, condition, threshold_value, is_active, created_at, last_triggered, COALESCE(notes, '')"

func scanRule(scanner interface{ Scan(...interface{}) error }) (*models.AlertRule, error) {
	var r models.AlertRule
	var active int
	var lastTriggered sql.NullTime
	if err := scanner.Scan(&r.ID, &r.ScripCode, &r.ScripName, &r.Kind, &r.Condition,
		&r.Threshold, &active, &r.CreatedAt, &lastTriggered, &r.Notes); err != nil {
		return nil, err
	}
	r.IsActive = active == 1
	if lastTriggered.Valid {
		r.LastTriggered = &lastTriggered.Time
	}
	return &r, nil
}

// GetAlertRule retrieves a rule by id. Returns nil if absent.
func (s *SQLiteStore) GetAlertRule(ctx context.Context, id int64) (*models.AlertRule, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+ruleColumns+" FROM alert_rules WHERE id = ?", id)
	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert rule: %w", err)
	}
	return rule, nil
}

// ListAlertRules retrieves alert rules, newest first.
func (s *SQLiteStore) ListAlertRules(ctx context.Context, scripCode string, activeOnly bool) ([]models.AlertRule, error) {
	query := "SELECT " + ruleColumns + " FROM alert_rules WHERE 1=1"
	args := []interface{}{}

	if scripCode != "" {
		query += " AND scrip_code = ?"
		args = append(args, scripCode)
	}
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert rules: %w", err)
	}
	defer rows.Close()

	var rules []models.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	return rules, rows.Err()
}

// SetRuleActive flips a rule's is_active flag.
func (s *SQLiteStore) SetRuleActive(ctx context.Context, id int64, active bool) error {
	flag := 0
	if active {
		flag = 1
	}

	result, err := s.db.ExecContext(ctx, "UPDATE alert_rules SET is_active = ? WHERE id = ?", flag, id)
	if err != nil {
		return fmt.Errorf("failed to update alert rule: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", apperrors.ErrRuleNotFound, id)
	}
	return nil
}

// DeleteRule hard-deletes a rule. Its history rows are kept.
func (s *SQLiteStore) DeleteRule(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM alert_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete alert rule: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", apperrors.ErrRuleNotFound, id)
	}
	return nil
}

// RecordTrigger appends one alert history row and stamps the rule's
// last_triggered in the same transaction.
func (s *SQLiteStore) RecordTrigger(ctx context.Context, event *models.AlertEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sent := 0
	if event.NotificationSent {
		sent = 1
	}
	if event.TriggeredAt.IsZero() {
		event.TriggeredAt = time.Now()
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO alert_history (alert_rule_id, scrip_code, scrip_name, alert_type, trigger_price, threshold_value, message, triggered_at, notification_sent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.RuleID, event.ScripCode, event.ScripName, event.Kind, event.TriggerPrice,
		event.Threshold, event.Message, event.TriggeredAt, sent)
	if err != nil {
		return fmt.Errorf("failed to insert alert event: %w", err)
	}
	event.ID, _ = result.LastInsertId()

	stamp, err := tx.ExecContext(ctx, `
		UPDATE alert_rules SET last_triggered = ? WHERE id = ?
	`, event.TriggeredAt, event.RuleID)
	if err != nil {
		return fmt.Errorf("failed to stamp last_triggered: %w", err)
	}
	if n, _ := stamp.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", apperrors.ErrRuleNotFound, event.RuleID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alert trigger: %w", err)
	}
	return nil
}

// ListAlertEvents retrieves trigger history, most recent first.
func (s *SQLiteStore) ListAlertEvents(ctx context.Context, scripCode string, since time.Time) ([]models.AlertEvent, error) {
	query := "SELECT id, alert_rule_id, scrip_code, COALESCE(scrip_name, ''), alert_type, trigger_price, threshold_value, message, triggered_at, notification_sent FROM alert_history WHERE 1=1"
	args := []interface{}{}

	if scripCode != "" {
		query += " AND scrip_code = ?"
		args = append(args, scripCode)
	}
	if !since.IsZero() {
		query += " AND triggered_at >= ?"
		args = append(args, since)
	}
	query += " ORDER BY triggered_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var e models.AlertEvent
		var sent int
		if err := rows.Scan(&e.ID, &e.RuleID, &e.ScripCode, &e.ScripName, &e.Kind,
			&e.TriggerPrice, &e.Threshold, &e.Message, &e.TriggeredAt, &sent); err != nil {
			return nil, fmt.Errorf("failed to scan alert event: %w", err)
		}
		e.NotificationSent = sent == 1
		events = append(events, e)
	}

	return events, rows.Err()
}

// ============================================================================
// Price history
// ============================================================================

// AddPriceBar records one day of OHLCV data, replacing any prior row for the
// same scrip and date.
func (s *SQLiteStore) AddPriceBar(ctx context.Context, bar *models.PriceBar) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO price_history (scrip_code, price_date, open_price, high_price, low_price, close_price, volume, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, bar.ScripCode, bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, bar.Source)
	if err != nil {
		return fmt.Errorf("failed to add price bar: %w", err)
	}
	return nil
}

// ListPriceBars retrieves recent price history for a scrip, newest first.
func (s *SQLiteStore) ListPriceBars(ctx context.Context, scripCode string, limit int) ([]models.PriceBar, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT scrip_code, price_date, COALESCE(open_price, 0), COALESCE(high_price, 0),
			COALESCE(low_price, 0), COALESCE(close_price, 0), COALESCE(volume, 0), COALESCE(source, '')
		FROM price_history WHERE scrip_code = ?
		ORDER BY price_date DESC LIMIT ?
	`, scripCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.ScripCode, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Source); err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		bars = append(bars, b)
	}

	return bars, rows.Err()
}

// ============================================================================
// Maintenance
// ============================================================================

// Reset deletes all rows from every table.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range resettableTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}

// ResetTable deletes all rows from one table.
func (s *SQLiteStore) ResetTable(ctx context.Context, table string) error {
	valid := false
	for _, t := range resettableTables {
		if t == table {
			valid = true
			break
		}
	}
	if !valid {
		return apperrors.NewValidationError("table", table, "unknown table")
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to reset %s: %w", table, err)
	}
	return nil
}
