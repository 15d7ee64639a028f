package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so the same query set
// runs inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries implements Tx against a Postgres connection or transaction.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx rebinds the query set to a database transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

func (q *Queries) InsertFundAccount(ctx context.Context, account *models.FundAccount) error {
	query := `INSERT INTO fund_accounts
		(account_id, parent_id, customer_id, mch_id, name, mobile, state, secret_key, password, version, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := q.db.Exec(ctx, query,
		account.AccountID, account.ParentID, account.CustomerID, account.MchID,
		account.Name, account.Mobile, int(account.State), account.SecretKey,
		account.Password, account.Version, account.CreatedAt, account.ModifiedAt)
	if err != nil {
		return fmt.Errorf("insert fund account: %w", err)
	}
	return nil
}

func (q *Queries) FindFundAccountByID(ctx context.Context, accountID int64) (*models.FundAccount, error) {
	account := &models.FundAccount{}
	var state int
	query := `SELECT account_id, parent_id, customer_id, mch_id, name, mobile, state, secret_key, password, version, created_at, modified_at
		FROM fund_accounts WHERE account_id = $1`
	err := q.db.QueryRow(ctx, query, accountID).Scan(
		&account.AccountID, &account.ParentID, &account.CustomerID, &account.MchID,
		&account.Name, &account.Mobile, &state, &account.SecretKey,
		&account.Password, &account.Version, &account.CreatedAt, &account.ModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObjectNotFound.WithMessage("fund account not found")
		}
		return nil, fmt.Errorf("find fund account: %w", err)
	}
	account.State = domain.AccountState(state)
	return account, nil
}

func (q *Queries) ListFundAccountsByParentID(ctx context.Context, parentID int64) ([]models.FundAccount, error) {
	query := `SELECT account_id, parent_id, customer_id, mch_id, name, mobile, state, secret_key, password, version, created_at, modified_at
		FROM fund_accounts WHERE parent_id = $1 ORDER BY account_id`
	rows, err := q.db.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list fund accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.FundAccount
	for rows.Next() {
		var a models.FundAccount
		var state int
		if err := rows.Scan(&a.AccountID, &a.ParentID, &a.CustomerID, &a.MchID,
			&a.Name, &a.Mobile, &state, &a.SecretKey,
			&a.Password, &a.Version, &a.CreatedAt, &a.ModifiedAt); err != nil {
			return nil, fmt.Errorf("scan fund account: %w", err)
		}
		a.State = domain.AccountState(state)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (q *Queries) CompareAndSetAccount(ctx context.Context, update AccountUpdate) (int64, error) {
	query := `UPDATE fund_accounts
		SET state = COALESCE($1, state),
		    password = COALESCE($2, password),
		    version = version + 1,
		    modified_at = $3
		WHERE account_id = $4 AND version = $5`
	var state *int
	if update.State != nil {
		s := int(*update.State)
		state = &s
	}
	tag, err := q.db.Exec(ctx, query, state, update.Password, update.ModifiedAt, update.AccountID, update.Version)
	if err != nil {
		return 0, fmt.Errorf("compare-and-set account: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) InsertAccountFund(ctx context.Context, fund *models.AccountFund) error {
	query := `INSERT INTO account_funds (account_id, balance, version, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := q.db.Exec(ctx, query, fund.AccountID, fund.Balance, fund.Version, fund.CreatedAt, fund.ModifiedAt)
	if err != nil {
		return fmt.Errorf("insert account fund: %w", err)
	}
	return nil
}

func (q *Queries) FindAccountFundByID(ctx context.Context, accountID int64) (*models.AccountFund, error) {
	fund := &models.AccountFund{}
	query := `SELECT account_id, balance, version, created_at, modified_at FROM account_funds WHERE account_id = $1`
	err := q.db.QueryRow(ctx, query, accountID).Scan(
		&fund.AccountID, &fund.Balance, &fund.Version, &fund.CreatedAt, &fund.ModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObjectNotFound.WithMessage("account fund not found")
		}
		return nil, fmt.Errorf("find account fund: %w", err)
	}
	return fund, nil
}

func (q *Queries) ListAccountFunds(ctx context.Context) ([]models.AccountFund, error) {
	query := `SELECT account_id, balance, version, created_at, modified_at FROM account_funds ORDER BY account_id`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list account funds: %w", err)
	}
	defer rows.Close()

	var funds []models.AccountFund
	for rows.Next() {
		var f models.AccountFund
		if err := rows.Scan(&f.AccountID, &f.Balance, &f.Version, &f.CreatedAt, &f.ModifiedAt); err != nil {
			return nil, fmt.Errorf("scan account fund: %w", err)
		}
		funds = append(funds, f)
	}
	return funds, rows.Err()
}

func (q *Queries) CompareAndSetAccountFund(ctx context.Context, update FundUpdate) (int64, error) {
	query := `UPDATE account_funds
		SET balance = $1, version = version + 1, modified_at = $2
		WHERE account_id = $3 AND version = $4`
	tag, err := q.db.Exec(ctx, query, update.Balance, update.ModifiedAt, update.AccountID, update.Version)
	if err != nil {
		return 0, fmt.Errorf("compare-and-set account fund: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) InsertFundActivity(ctx context.Context, activity *models.FundActivity) error {
	query := `INSERT INTO fund_activities
		(id, account_id, payment_id, trade_type, direction, amount, balance, fund_type, fund_type_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.db.Exec(ctx, query,
		activity.ID, activity.AccountID, activity.PaymentID, int(activity.TradeType),
		int(activity.Direction), activity.Amount, activity.Balance,
		int(activity.FundType), activity.FundTypeName, activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert fund activity: %w", err)
	}
	return nil
}

func (q *Queries) ListFundActivities(ctx context.Context, accountID int64, limit, offset int) ([]models.FundActivity, error) {
	query := `SELECT id, account_id, payment_id, trade_type, direction, amount, balance, fund_type, fund_type_name, created_at
		FROM fund_activities WHERE account_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list fund activities: %w", err)
	}
	defer rows.Close()

	var activities []models.FundActivity
	for rows.Next() {
		a, err := scanFundActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (q *Queries) FindLatestFundActivity(ctx context.Context, accountID int64) (*models.FundActivity, error) {
	query := `SELECT id, account_id, payment_id, trade_type, direction, amount, balance, fund_type, fund_type_name, created_at
		FROM fund_activities WHERE account_id = $1
		ORDER BY created_at DESC, id DESC LIMIT 1`
	rows, err := q.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("find latest fund activity: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("find latest fund activity: %w", err)
		}
		return nil, domain.ErrObjectNotFound.WithMessage("fund activity not found")
	}
	return scanFundActivity(rows)
}

func scanFundActivity(rows pgx.Rows) (*models.FundActivity, error) {
	a := &models.FundActivity{}
	var tradeType, direction, fundType int
	if err := rows.Scan(&a.ID, &a.AccountID, &a.PaymentID, &tradeType, &direction,
		&a.Amount, &a.Balance, &fundType, &a.FundTypeName, &a.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan fund activity: %w", err)
	}
	a.TradeType = domain.TradeType(tradeType)
	a.Direction = domain.Direction(direction)
	a.FundType = domain.FundType(fundType)
	return a, nil
}

func (q *Queries) InsertTradeOrder(ctx context.Context, trade *models.TradeOrder) error {
	query := `INSERT INTO trade_orders
		(trade_id, type, mch_id, account_id, amount, fee, state, version, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.db.Exec(ctx, query,
		trade.TradeID, int(trade.Type), trade.MchID, trade.AccountID,
		trade.Amount, trade.Fee, int(trade.State), trade.Version,
		trade.CreatedAt, trade.ModifiedAt)
	if err != nil {
		return fmt.Errorf("insert trade order: %w", err)
	}
	return nil
}

func (q *Queries) FindTradeOrderByID(ctx context.Context, tradeID string) (*models.TradeOrder, error) {
	trade := &models.TradeOrder{}
	var tradeType, state int
	query := `SELECT trade_id, type, mch_id, account_id, amount, fee, state, version, created_at, modified_at
		FROM trade_orders WHERE trade_id = $1`
	err := q.db.QueryRow(ctx, query, tradeID).Scan(
		&trade.TradeID, &tradeType, &trade.MchID, &trade.AccountID,
		&trade.Amount, &trade.Fee, &state, &trade.Version,
		&trade.CreatedAt, &trade.ModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObjectNotFound.WithMessage("trade order not found")
		}
		return nil, fmt.Errorf("find trade order: %w", err)
	}
	trade.Type = domain.TradeType(tradeType)
	trade.State = domain.TradeState(state)
	return trade, nil
}

func (q *Queries) CompareAndSetTradeState(ctx context.Context, update TradeUpdate) (int64, error) {
	query := `UPDATE trade_orders
		SET state = $1, fee = COALESCE($2, fee), version = version + 1, modified_at = $3
		WHERE trade_id = $4 AND version = $5`
	tag, err := q.db.Exec(ctx, query, int(update.State), update.Fee, update.ModifiedAt, update.TradeID, update.Version)
	if err != nil {
		return 0, fmt.Errorf("compare-and-set trade state: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) InsertTradePayment(ctx context.Context, payment *models.TradePayment) error {
	query := `INSERT INTO trade_payments
		(payment_id, trade_id, channel_id, account_id, amount, fee, state, version, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.db.Exec(ctx, query,
		payment.PaymentID, payment.TradeID, int(payment.ChannelID), payment.AccountID,
		payment.Amount, payment.Fee, int(payment.State), payment.Version,
		payment.CreatedAt, payment.ModifiedAt)
	if err != nil {
		return fmt.Errorf("insert trade payment: %w", err)
	}
	return nil
}

func (q *Queries) FindTradePaymentByTradeID(ctx context.Context, tradeID string) (*models.TradePayment, error) {
	payment := &models.TradePayment{}
	var channel, state int
	query := `SELECT payment_id, trade_id, channel_id, account_id, amount, fee, state, version, created_at, modified_at
		FROM trade_payments WHERE trade_id = $1`
	err := q.db.QueryRow(ctx, query, tradeID).Scan(
		&payment.PaymentID, &payment.TradeID, &channel, &payment.AccountID,
		&payment.Amount, &payment.Fee, &state, &payment.Version,
		&payment.CreatedAt, &payment.ModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObjectNotFound.WithMessage("trade payment not found")
		}
		return nil, fmt.Errorf("find trade payment: %w", err)
	}
	payment.ChannelID = domain.ChannelType(channel)
	payment.State = domain.PaymentState(state)
	return payment, nil
}

func (q *Queries) CompareAndSetPaymentState(ctx context.Context, update PaymentUpdate) (int64, error) {
	query := `UPDATE trade_payments
		SET state = $1, version = version + 1, modified_at = $2
		WHERE payment_id = $3 AND version = $4`
	tag, err := q.db.Exec(ctx, query, int(update.State), update.ModifiedAt, update.PaymentID, update.Version)
	if err != nil {
		return 0, fmt.Errorf("compare-and-set payment state: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) InsertPaymentFees(ctx context.Context, fees []models.PaymentFee) error {
	query := `INSERT INTO payment_fees (payment_id, use_for, amount, fund_type, fund_type_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, fee := range fees {
		if _, err := q.db.Exec(ctx, query,
			fee.PaymentID, int(fee.UseFor), fee.Amount, int(fee.FundType), fee.FundTypeName, fee.CreatedAt); err != nil {
			return fmt.Errorf("insert payment fee: %w", err)
		}
	}
	return nil
}

func (q *Queries) ListPaymentFees(ctx context.Context, paymentID string) ([]models.PaymentFee, error) {
	query := `SELECT payment_id, use_for, amount, fund_type, fund_type_name, created_at
		FROM payment_fees WHERE payment_id = $1 ORDER BY created_at`
	rows, err := q.db.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list payment fees: %w", err)
	}
	defer rows.Close()

	var fees []models.PaymentFee
	for rows.Next() {
		var f models.PaymentFee
		var useFor, fundType int
		if err := rows.Scan(&f.PaymentID, &useFor, &f.Amount, &fundType, &f.FundTypeName, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment fee: %w", err)
		}
		f.UseFor = domain.FeeUse(useFor)
		f.FundType = domain.FundType(fundType)
		fees = append(fees, f)
	}
	return fees, rows.Err()
}

func (q *Queries) InsertRefundPayment(ctx context.Context, refund *models.RefundPayment) error {
	query := `INSERT INTO refund_payments
		(payment_id, type, trade_id, trade_type, amount, fee, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.db.Exec(ctx, query,
		refund.PaymentID, int(refund.Type), refund.TradeID, int(refund.TradeType),
		refund.Amount, refund.Fee, int(refund.State), refund.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert refund payment: %w", err)
	}
	return nil
}

func (q *Queries) InsertMerchant(ctx context.Context, merchant *models.Merchant) error {
	query := `INSERT INTO merchants (mch_id, code, name, profit_account, vouch_account, pledge_account, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.db.Exec(ctx, query,
		merchant.MchID, merchant.Code, merchant.Name,
		merchant.ProfitAccount, merchant.VouchAccount, merchant.PledgeAccount, merchant.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

var _ Tx = (*Queries)(nil)

func (q *Queries) FindMerchantByID(ctx context.Context, mchID int64) (*models.Merchant, error) {
	merchant := &models.Merchant{}
	query := `SELECT mch_id, code, name, profit_account, vouch_account, pledge_account, created_at
		FROM merchants WHERE mch_id = $1`
	err := q.db.QueryRow(ctx, query, mchID).Scan(
		&merchant.MchID, &merchant.Code, &merchant.Name,
		&merchant.ProfitAccount, &merchant.VouchAccount, &merchant.PledgeAccount, &merchant.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObjectNotFound.WithMessage("merchant not registered")
		}
		return nil, fmt.Errorf("find merchant: %w", err)
	}
	return merchant, nil
}
