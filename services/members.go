package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/LittleGragon/coffee-shop-sub000/metrics"
	"github.com/LittleGragon/coffee-shop-sub000/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	memberColumns   = "id, name, email, phone, membership_level, points, balance, member_since, created_at, updated_at"
	ledgerColumns   = "id, member_id, transaction_type, amount, balance_after, payment_method, order_id, description, created_at"
	maxTopUpAmount  = 10000
	defaultTopUpVia = "card"
)

// MemberRequest is the body of member registration and update
type MemberRequest struct {
	Name            string                 `json:"name" validate:"max=100"`
	Email           string                 `json:"email" validate:"omitempty,email,max=150"`
	Phone           string                 `json:"phone" validate:"omitempty,max=20"`
	MembershipLevel models.MembershipLevel `json:"membership_level" validate:"omitempty,oneof=bronze silver gold platinum"`
}

func (r *MemberRequest) validate() error {
	trimmed(&r.Name)
	trimmed(&r.Phone)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Name == "" || (r.Email == "" && r.Phone == "") {
		return Invalid("Name and either email or phone are required")
	}
	if r.MembershipLevel == "" {
		r.MembershipLevel = models.LevelBronze
	}
	return validateStruct(r, "Invalid member")
}

// TopUpRequest is the body of a balance top-up
type TopUpRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod string           `json:"payment_method" validate:"omitempty,oneof=cash card"`
}

func (r *TopUpRequest) validate() error {
	if r.Amount == nil {
		return Invalid("Amount is required")
	}
	if !r.Amount.IsPositive() || r.Amount.GreaterThan(decimal.NewFromInt(maxTopUpAmount)) || !validMoney(*r.Amount) {
		return Invalid(fmt.Sprintf("Amount must be between 0.01 and %d", maxTopUpAmount))
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = defaultTopUpVia
	}
	return validateStruct(r, "Invalid top-up")
}

// TopUpResult is returned by a successful top-up
type TopUpResult struct {
	Success     bool                     `json:"success"`
	NewBalance  decimal.Decimal          `json:"newBalance"`
	Transaction models.MemberTransaction `json:"transaction"`
}

// MemberFilter narrows member listings
type MemberFilter struct {
	Search string
	Level  string
}

// MemberService manages members and their balance ledger
type MemberService struct {
	db  *database.DB
	log *logrus.Entry
}

// NewMemberService creates a MemberService
func NewMemberService(db *database.DB, log logrus.FieldLogger) *MemberService {
	return &MemberService{db: db, log: logging.Component(log, "member_service")}
}

// List returns members ordered by name
func (s *MemberService) List(ctx context.Context, f MemberFilter) ([]models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE 1=1"
	args := []interface{}{}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query += " AND (name ILIKE ? OR email ILIKE ? OR phone ILIKE ?)"
		args = append(args, like, like, like)
	}
	if f.Level != "" {
		if !models.MembershipLevel(f.Level).Valid() {
			return nil, Invalid("Unknown membership level: " + f.Level)
		}
		query += " AND membership_level = ?"
		args = append(args, f.Level)
	}
	query += " ORDER BY name, id"

	members := []models.Member{}
	if err := s.db.Conn(ctx).Raw(query, args...).Scan(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// Get returns one member
func (s *MemberService) Get(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	res := s.db.Conn(ctx).Raw("SELECT "+memberColumns+" FROM members WHERE id = $1", id).Scan(&member)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to get member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Member")
	}
	return &member, nil
}

// Lookup finds a member by email or phone
func (s *MemberService) Lookup(ctx context.Context, email, phone string) (*models.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return nil, Invalid("Email or phone is required")
	}

	var member models.Member
	res := s.db.Conn(ctx).Raw(
		"SELECT "+memberColumns+" FROM members WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND phone = $2) ORDER BY id LIMIT 1",
		email, phone,
	).Scan(&member)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to look up member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Member")
	}
	return &member, nil
}

// Create registers a member with zero points and balance
func (s *MemberService) Create(ctx context.Context, req MemberRequest) (*models.Member, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var member models.Member
	err := s.db.Conn(ctx).Raw(`
		INSERT INTO members (name, email, phone, membership_level, points, balance, member_since, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, 0, 0, NOW(), NOW(), NOW())
		RETURNING `+memberColumns,
		req.Name, req.Email, req.Phone, req.MembershipLevel,
	).Scan(&member).Error
	if err != nil {
		if isDuplicate(err) {
			return nil, Conflict("A member with this email or phone already exists")
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	s.log.WithField("member_id", member.ID).Info("Member registered")
	return &member, nil
}

// Update changes a member's profile. Points and balance are not editable here.
func (s *MemberService) Update(ctx context.Context, id uint, req MemberRequest) (*models.Member, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var member models.Member
	res := s.db.Conn(ctx).Raw(`
		UPDATE members
		SET name = $1, email = NULLIF($2, ''), phone = NULLIF($3, ''), membership_level = $4
		WHERE id = $5
		RETURNING `+memberColumns,
		req.Name, req.Email, req.Phone, req.MembershipLevel, id,
	).Scan(&member)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return nil, Conflict("A member with this email or phone already exists")
		}
		return nil, fmt.Errorf("failed to update member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("Member")
	}
	return &member, nil
}

// Delete removes a member and their ledger. Their orders are kept without the member link.
func (s *MemberService) Delete(ctx context.Context, id uint) error {
	res := s.db.Conn(ctx).Exec("DELETE FROM members WHERE id = $1", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("Member")
	}
	return nil
}

// TopUp credits the member's balance and records a topup ledger entry in one
// transaction. The balance is incremented in the UPDATE itself, so concurrent
// top-ups never lose an increment.
func (s *MemberService) TopUp(ctx context.Context, memberID uint, req TopUpRequest) (*TopUpResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	result := TopUpResult{Success: true}
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		balance, found, err := adjustBalance(tx, memberID, *req.Amount)
		if err != nil {
			return err
		}
		if !found {
			return NotFound("Member")
		}
		result.NewBalance = balance

		result.Transaction = models.MemberTransaction{
			MemberID:        memberID,
			TransactionType: models.MemberTopUp,
			Amount:          *req.Amount,
			BalanceAfter:    balance,
			PaymentMethod:   req.PaymentMethod,
			Description:     "Balance top-up",
		}
		return insertLedgerEntry(tx, &result.Transaction)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTopUp(req.Amount.InexactFloat64())
	s.log.WithFields(logrus.Fields{
		"member_id":   memberID,
		"amount":      req.Amount.String(),
		"new_balance": result.NewBalance.String(),
	}).Info("Balance topped up")
	return &result, nil
}

// Transactions returns the member's ledger, newest first
func (s *MemberService) Transactions(ctx context.Context, memberID uint, limit int) ([]models.MemberTransaction, error) {
	if _, err := s.Get(ctx, memberID); err != nil {
		return nil, err
	}

	entries := []models.MemberTransaction{}
	err := s.db.Conn(ctx).Raw(`
		SELECT `+ledgerColumns+`
		FROM member_transactions
		WHERE member_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, memberID, clampLimit(limit, defaultLedgerLimit, maxLedgerLimit)).Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list member transactions: %w", err)
	}
	return entries, nil
}

// adjustBalance adds delta (which may be negative) to the member's balance.
// found is false when the member does not exist.
func adjustBalance(tx *gorm.DB, memberID uint, delta decimal.Decimal) (balance decimal.Decimal, found bool, err error) {
	var row struct{ Balance decimal.Decimal }
	res := tx.Raw("UPDATE members SET balance = balance + $1 WHERE id = $2 RETURNING balance", delta, memberID).Scan(&row)
	if res.Error != nil {
		return decimal.Zero, false, fmt.Errorf("failed to update balance: %w", res.Error)
	}
	return row.Balance, res.RowsAffected > 0, nil
}

// debitBalance takes amount from the balance only if the balance covers it.
// This is the single place where balance sufficiency is enforced.
func debitBalance(tx *gorm.DB, memberID uint, amount decimal.Decimal) (decimal.Decimal, error) {
	var row struct{ Balance decimal.Decimal }
	res := tx.Raw(
		"UPDATE members SET balance = balance - $1 WHERE id = $2 AND balance >= $1 RETURNING balance",
		amount, memberID,
	).Scan(&row)
	if res.Error != nil {
		return decimal.Zero, fmt.Errorf("failed to debit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, ErrInsufficientBalance
	}
	return row.Balance, nil
}

// insertLedgerEntry appends entry to member_transactions and fills in its id and timestamp
func insertLedgerEntry(tx *gorm.DB, entry *models.MemberTransaction) error {
	err := tx.Raw(`
		INSERT INTO member_transactions (member_id, transaction_type, amount, balance_after, payment_method, order_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING `+ledgerColumns,
		entry.MemberID, entry.TransactionType, entry.Amount, entry.BalanceAfter, entry.PaymentMethod, entry.OrderID, entry.Description,
	).Scan(entry).Error
	if err != nil {
		return fmt.Errorf("failed to record member transaction: %w", err)
	}
	return nil
}
