package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/zoobzio/clockz"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/id"
	"freightdesk/internal/core/tx"
	"freightdesk/internal/domain/audit"
	"freightdesk/pkg/logger"
)

// Service appends transactions and serves balance projections.
type Service struct {
	repo    Repository
	clients ClientReader
	txm     tx.Manager
	clock   clockz.Clock
}

// NewService creates a ledger service. A nil txm runs without transactions;
// a nil clock uses the wall clock.
func NewService(repo Repository, clients ClientReader, txm tx.Manager, clock clockz.Clock) *Service {
	if txm == nil {
		txm = tx.Nop{}
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{repo: repo, clients: clients, txm: txm, clock: clock}
}

// AppendInput is one new ledger entry.
type AppendInput struct {
	ClientID    id.ID
	Type        Type
	Amount      decimal.Decimal
	Description string
}

// Statement is a client's ledger in display order with its summary.
type Statement struct {
	ClientID id.ID   `json:"clientId"`
	Entries  []Entry `json:"entries"`
	Summary  Summary `json:"summary"`
}

func (s *Service) ensureClient(ctx context.Context, clientID id.ID) error {
	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("client", clientID)
		}
		return fmt.Errorf("get client: %w", err)
	}
	return nil
}

// Append records a transaction. Prior entries are never touched.
func (s *Service) Append(ctx context.Context, in AppendInput) (*Transaction, error) {
	t := NewTransaction(in.ClientID, in.Type, in.Amount, in.Description, s.clock.Now())
	audit.EnrichCreatedBy(ctx, &t.CreatedBy, nil)

	if err := t.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.ensureClient(ctx, in.ClientID); err != nil {
		return nil, err
	}
	if err := s.repo.Append(ctx, t); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	logger.Info(ctx, "ledger transaction appended",
		"id", t.ID,
		"client_id", t.ClientID,
		"type", t.Type,
		"amount", t.Amount.String())

	return t, nil
}

// load reads the client check and the transactions in one read-only snapshot.
func (s *Service) load(ctx context.Context, clientID id.ID) ([]Transaction, error) {
	var txs []Transaction
	err := tx.RunReadOnly(ctx, s.txm, func(ctx context.Context) error {
		if err := s.ensureClient(ctx, clientID); err != nil {
			return err
		}
		var err error
		txs, err = s.repo.ListByClient(ctx, clientID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Statement returns every transaction newest first with running balances.
func (s *Service) Statement(ctx context.Context, clientID id.ID) (*Statement, error) {
	txs, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &Statement{
		ClientID: clientID,
		Entries:  RunningBalance(txs),
		Summary:  Summarize(txs),
	}, nil
}

// Balance returns the summary only.
func (s *Service) Balance(ctx context.Context, clientID id.ID) (Summary, error) {
	txs, err := s.load(ctx, clientID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(txs), nil
}
