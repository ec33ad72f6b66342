package interactor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

// decimalEq matches a decimal.Decimal argument by value regardless of exponent.
type decimalEq decimal.Decimal

func eqDecimal(s string) decimalEq {
	return decimalEq(dec(s))
}

func (m decimalEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(decimal.Decimal(m))
}

func (m decimalEq) String() string {
	return "is decimal " + decimal.Decimal(m).String()
}

type staticRates struct {
	mu       sync.RWMutex
	snapshot models.RateSnapshot
}

func newStaticRates() *staticRates {
	return &staticRates{snapshot: models.RateSnapshot{Rates: models.NewFallbackRateTable(), Source: models.RateSourceFallback}}
}

func (s *staticRates) Get(_ context.Context, pair models.CurrencyPair) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.snapshot.Rate(pair)
	if !ok {
		return decimal.Decimal{}, apperrors.NewUnsupportedCurrencyPairError(pair.From.String(), pair.To.String())
	}
	return r, nil
}

func (s *staticRates) Refresh(context.Context) error { return nil }

func (s *staticRates) Snapshot() models.RateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// set replaces one quote, standing in for a provider refresh.
func (s *staticRates) set(from, to models.Currency, rate string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table := make(models.RateTable, len(s.snapshot.Rates))
	for f, row := range s.snapshot.Rates {
		table[f] = make(map[models.Currency]decimal.Decimal, len(row))
		for t, r := range row {
			table[f][t] = r
		}
	}
	table[from][to] = dec(rate)
	s.snapshot = models.RateSnapshot{Rates: table, Source: models.RateSourceProvider, UpdatedAt: time.Now()}
}

type countingWaker struct {
	mu    sync.Mutex
	count int
}

func (w *countingWaker) Wake() {
	w.mu.Lock()
	w.count++
	w.mu.Unlock()
}

func (w *countingWaker) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// memStore is an in-memory stand-in for the storage layer. WithinTransaction holds
// one lock for the whole callback, which gives the same serialization row locks give.
type memStore struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	users    map[string]*models.User
	deposits map[string]*models.SepaDeposit
	orders   map[string]*models.Order
	groups   map[string]int64
	events   []*models.OutboxEvent
	inTx     bool
}

func newMemStore(users ...*models.User) *memStore {
	s := &memStore{
		users:    make(map[string]*models.User),
		deposits: make(map[string]*models.SepaDeposit),
		orders:   make(map[string]*models.Order),
		groups:   make(map[string]int64),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	usersBefore := make(map[string]models.User, len(s.users))
	for id, u := range s.users {
		usersBefore[id] = *u
	}
	depositsBefore := make(map[string]models.SepaDeposit, len(s.deposits))
	for id, d := range s.deposits {
		depositsBefore[id] = *d
	}
	ordersBefore := make(map[string]models.Order, len(s.orders))
	for id, o := range s.orders {
		ordersBefore[id] = *o
	}
	eventsBefore := len(s.events)
	s.inTx = true
	s.mu.Unlock()

	err := fn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTx = false
	if err != nil {
		for id, u := range usersBefore {
			u := u
			s.users[id] = &u
		}
		s.deposits = make(map[string]*models.SepaDeposit, len(depositsBefore))
		for id, d := range depositsBefore {
			d := d
			s.deposits[id] = &d
		}
		s.orders = make(map[string]*models.Order, len(ordersBefore))
		for id, o := range ordersBefore {
			o := o
			s.orders[id] = &o
		}
		s.events = s.events[:eventsBefore]
	}
	return err
}

func (s *memStore) user(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewUserNotFoundError(id)
	}
	c := *u
	return &c, nil
}

func (s *memStore) Balance(id string) decimal.Decimal {
	u, err := s.user(id)
	if err != nil {
		panic(err)
	}
	return u.Balance
}

func (s *memStore) EventTypes() []models.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]models.EventType, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.Type)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

type memUsers struct{ *memStore }

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.user(id)
}

func (r memUsers) GetByIDForUpdate(_ context.Context, id string) (*models.User, error) {
	return r.user(id)
}

func (r memUsers) GetByReferralCode(_ context.Context, code string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ReferralCode != nil && *u.ReferralCode == code {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r memUsers) UpdateBalance(_ context.Context, id string, balance decimal.Decimal, currency models.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inTx {
		return fmt.Errorf("no active transaction")
	}
	u, ok := r.users[id]
	if !ok {
		return apperrors.NewUserNotFoundError(id)
	}
	u.Balance = balance
	u.BalanceCurrency = currency
	return nil
}

type memDeposits struct{ *memStore }

func (r memDeposits) Create(_ context.Context, d *models.SepaDeposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *d
	r.deposits[d.ID] = &c
	return nil
}

func (r memDeposits) GetByID(_ context.Context, id string) (*models.SepaDeposit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deposits[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("deposit", id)
	}
	c := *d
	return &c, nil
}

func (r memDeposits) GetByIDForUpdate(ctx context.Context, id string) (*models.SepaDeposit, error) {
	return r.GetByID(ctx, id)
}

func (r memDeposits) UpdateStatus(_ context.Context, id string, status models.Status, completedAt *time.Time, settled *models.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deposits[id]
	if !ok {
		return apperrors.NewNotFoundError("deposit", id)
	}
	d.Status = status
	d.CompletedAt = completedAt
	d.Settled = settled
	return nil
}

func (r memDeposits) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deposits, id)
	return nil
}

type memOrders struct{ *memStore }

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *o
	r.orders[o.ID] = &c
	return nil
}

func (r memOrders) GetByID(_ context.Context, asset models.TransactionType, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Asset != asset {
		return nil, apperrors.NewNotFoundError("order", id)
	}
	c := *o
	return &c, nil
}

func (r memOrders) GetByIDForUpdate(ctx context.Context, asset models.TransactionType, id string) (*models.Order, error) {
	return r.GetByID(ctx, asset, id)
}

func (r memOrders) UpdateStatus(_ context.Context, asset models.TransactionType, id string, status models.Status, completedAt *time.Time, settled *models.Settlement, txHash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Asset != asset {
		return apperrors.NewNotFoundError("order", id)
	}
	o.Status = status
	o.CompletedAt = completedAt
	o.Settled = settled
	if txHash != nil {
		o.TxHash = txHash
	}
	return nil
}

type memOutbox struct{ *memStore }

func (r memOutbox) Enqueue(_ context.Context, events ...*models.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r memOutbox) Claim(context.Context, int, time.Duration, int) ([]*models.OutboxEvent, error) {
	return nil, nil
}

func (r memOutbox) MarkDispatched(context.Context, string) error { return nil }

func (r memOutbox) MarkFailed(context.Context, string, string) error { return nil }

type memGroups struct{ *memStore }

func (r memGroups) ChatIDByReferralCode(_ context.Context, code string) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.groups[code]
	return id, ok, nil
}

// settlementFixture wires the interactors over one memStore.
type settlementFixture struct {
	store      *memStore
	rates      *staticRates
	waker      *countingWaker
	ledger     *BalanceLedger
	settlement *SettlementInteractor
	deposits   *DepositInteractor
	orders     *OrderInteractor
}

func newSettlementFixture(allowNegative bool, users ...*models.User) *settlementFixture {
	store := newMemStore(users...)
	rates := newStaticRates()
	converter := NewCurrencyConverter(rates)
	ledger := NewBalanceLedger(memUsers{store}, memOutbox{store}, converter, allowNegative)
	calculator := NewCommissionCalculator(memUsers{store}, converter, testCommissionSettings())
	waker := &countingWaker{}

	return &settlementFixture{
		store:  store,
		rates:  rates,
		waker:  waker,
		ledger: ledger,
		settlement: NewSettlementInteractor(store, memDeposits{store}, memOrders{store}, memUsers{store},
			memOutbox{store}, ledger, waker),
		deposits: NewDepositInteractor(memDeposits{store}, memUsers{store}, calculator,
			DepositLimits{Min: dec("100"), Max: dec("200000")}),
		orders: NewOrderInteractor(memOrders{store}, memUsers{store}),
	}
}

const (
	fallbackCode         = "A64S"
	fallbackContractorID = "7d1c7e2a-55b4-4c8f-9a3e-3f1f5b0c2a64"
)

func testCommissionSettings() CommissionSettings {
	return CommissionSettings{
		Rates: models.CommissionRates{
			Platform:   dec("0.10"),
			Contractor: dec("0.85"),
		},
		FallbackReferralCode: fallbackCode,
		FallbackContractorID: fallbackContractorID,
	}
}
