package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"huduma/internal/models"
	"huduma/internal/repository"
	"huduma/pkg/payout"
)

var errStorageDown = errors.New("storage offline")

// fakeStore is an in-memory WalletStore plus LedgerStore with the same
// semantics as the database-backed repositories: serialized mutations, a
// unique reference index, and no partial writes.
type fakeStore struct {
	mu          sync.Mutex
	wallets     map[uint]*models.Wallet
	entries     []models.LedgerEntry
	byRef       map[string]int
	nextID      uint
	failCredits int // fail this many upcoming credit mutations
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wallets: make(map[uint]*models.Wallet),
		byRef:   make(map[string]int),
	}
}

func (f *fakeStore) GetOrCreate(ctx context.Context, accountID uint) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.walletLocked(accountID)
	cp := *w
	return &cp, nil
}

func (f *fakeStore) walletLocked(accountID uint) *models.Wallet {
	w, ok := f.wallets[accountID]
	if !ok {
		f.nextID++
		w = &models.Wallet{ID: f.nextID, AccountID: accountID, Currency: "KES", IsActive: true}
		f.wallets[accountID] = w
	}
	return w
}

func (f *fakeStore) ApplyMutation(ctx context.Context, m repository.LedgerMutation) (*models.LedgerEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.walletLocked(m.AccountID)
	if !w.IsActive {
		return nil, false, repository.ErrWalletInactive
	}
	if idx, ok := f.byRef[m.Reference]; ok {
		prior := f.entries[idx]
		return &prior, true, nil
	}
	if m.Direction == "CREDIT" && f.failCredits > 0 {
		f.failCredits--
		return nil, false, errStorageDown
	}
	prev := w.BalanceCents
	curr := prev + m.AmountCents
	if m.Direction == "DEBIT" {
		curr = prev - m.AmountCents
		if curr < 0 {
			return nil, false, repository.ErrInsufficientFunds
		}
	}
	e := models.LedgerEntry{
		ID:               uint(len(f.entries) + 1),
		AccountID:        m.AccountID,
		Direction:        m.Direction,
		AmountCents:      m.AmountCents,
		PrevBalanceCents: prev,
		CurrBalanceCents: curr,
		Category:         m.Category,
		Reference:        m.Reference,
		Confirmed:        true,
		Metadata:         m.Metadata,
		CreatedAt:        time.Now(),
	}
	f.entries = append(f.entries, e)
	f.byRef[m.Reference] = len(f.entries) - 1
	w.BalanceCents = curr
	return &e, false, nil
}

func (f *fakeStore) ByReference(ctx context.Context, reference string) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx, ok := f.byRef[reference]
	if !ok {
		return nil, nil
	}
	e := f.entries[idx]
	return &e, nil
}

func (f *fakeStore) ListByAccount(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LedgerEntry
	for i := len(f.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if f.entries[i].AccountID == accountID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeStore) SumByCategory(ctx context.Context, accountID uint) ([]models.CategorySum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	type key struct{ cat, dir string }
	sums := make(map[key]*models.CategorySum)
	var order []key
	for _, e := range f.entries {
		if e.AccountID != accountID {
			continue
		}
		k := key{e.Category, e.Direction}
		s, ok := sums[k]
		if !ok {
			s = &models.CategorySum{Category: e.Category, Direction: e.Direction}
			sums[k] = s
			order = append(order, k)
		}
		s.TotalCents += e.AmountCents
		s.Count++
	}
	out := make([]models.CategorySum, 0, len(order))
	for _, k := range order {
		out = append(out, *sums[k])
	}
	return out, nil
}

func (f *fakeStore) balance(accountID uint) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.wallets[accountID]; ok {
		return w.BalanceCents
	}
	return 0
}

func (f *fakeStore) entryCount(accountID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.AccountID == accountID {
			n++
		}
	}
	return n
}

func (f *fakeStore) deactivate(accountID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.walletLocked(accountID).IsActive = false
}

// fakeIntentStore is an in-memory IntentStore with conditional transitions.
type fakeIntentStore struct {
	mu      sync.Mutex
	intents map[uint]*models.PaymentIntent
	aliases map[string]uint
	nextID  uint
}

func newFakeIntentStore() *fakeIntentStore {
	return &fakeIntentStore{
		intents: make(map[uint]*models.PaymentIntent),
		aliases: make(map[string]uint),
	}
}

func (f *fakeIntentStore) Create(ctx context.Context, intent *models.PaymentIntent, aliases []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	intent.ID = f.nextID
	cp := *intent
	f.intents[intent.ID] = &cp
	for _, a := range aliases {
		if a != "" {
			f.aliases[a] = intent.ID
		}
	}
	return nil
}

func (f *fakeIntentStore) ByID(ctx context.Context, id uint) (*models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.intents[id]
	if !ok {
		return nil, errors.New("intent not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeIntentStore) IntentIDsByAliases(ctx context.Context, keys []string) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[uint]bool)
	var ids []uint
	for _, k := range keys {
		if id, ok := f.aliases[k]; ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeIntentStore) AddAliases(ctx context.Context, intentID uint, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		if k == "" {
			continue
		}
		if owner, ok := f.aliases[k]; ok && owner != intentID {
			return repository.ErrAliasTaken
		}
		f.aliases[k] = intentID
	}
	return nil
}

func (f *fakeIntentStore) Transition(ctx context.Context, id uint, from []string, to, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.intents[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if p.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	p.Status = to
	if reason != "" {
		p.FailReason = reason
	}
	if to == "SUCCESSFUL" || to == "FAILED" {
		now := time.Now()
		p.CompletedAt = &now
	}
	return true, nil
}

func (f *fakeIntentStore) SetMetadata(ctx context.Context, id uint, metadata string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.intents[id]; ok {
		p.Metadata = metadata
	}
	return nil
}

func (f *fakeIntentStore) status(id uint) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.intents[id]; ok {
		return p.Status
	}
	return ""
}

type fakeAudit struct {
	mu      sync.Mutex
	records []models.AuditLog
}

func (f *fakeAudit) Record(ctx context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *entry)
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.records))
	for i, r := range f.records {
		out[i] = r.Action
	}
	return out
}

type fakeNotifier struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (f *fakeNotifier) SendWithdrawalCode(ctx context.Context, accountID uint, dest models.PayoutDestination, code string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	return nil
}

func (f *fakeNotifier) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return ""
	}
	return f.codes[len(f.codes)-1]
}

type fakeDispatcher struct {
	mu       sync.Mutex
	requests []payout.Request
	err      error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req payout.Request) (*payout.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &payout.Response{DispatchID: "disp-" + req.OrderID, Status: "PENDING"}, nil
}

type settlementCall struct {
	accountID   uint
	reference   string
	amountCents int64
}

type fakeSettlement struct {
	mu    sync.Mutex
	calls []settlementCall
	err   error
}

func (f *fakeSettlement) SettlePayment(ctx context.Context, accountID uint, intentReference string, amountCents int64) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, settlementCall{accountID, intentReference, amountCents})
	return nil
}

type fakeProfiles struct {
	mu        sync.Mutex
	byAccount map[uint]*models.PayoutProfile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byAccount: make(map[uint]*models.PayoutProfile)}
}

func (f *fakeProfiles) ByAccount(ctx context.Context, accountID uint) (*models.PayoutProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byAccount[accountID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) SetPayoutsEnabledByProviderRef(ctx context.Context, providerRef string, enabled bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byAccount {
		if p.ProviderAccountRef == providerRef {
			p.PayoutsEnabled = enabled
			return true, nil
		}
	}
	return false, nil
}

type fakeOTPStore struct {
	mu   sync.Mutex
	recs map[uint]*models.WithdrawalOTP
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{recs: make(map[uint]*models.WithdrawalOTP)}
}

func (f *fakeOTPStore) Put(ctx context.Context, rec *models.WithdrawalOTP, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.recs[rec.AccountID] = &cp
	return nil
}

func (f *fakeOTPStore) Peek(ctx context.Context, accountID uint) (*models.WithdrawalOTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[accountID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeOTPStore) Consume(ctx context.Context, accountID uint) (*models.WithdrawalOTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[accountID]
	if !ok {
		return nil, nil
	}
	delete(f.recs, accountID)
	return rec, nil
}

type fakeWithdrawalStore struct {
	mu        sync.Mutex
	byOrderID map[string]*models.Withdrawal
	nextID    uint
}

func newFakeWithdrawalStore() *fakeWithdrawalStore {
	return &fakeWithdrawalStore{byOrderID: make(map[string]*models.Withdrawal)}
}

func (f *fakeWithdrawalStore) Create(ctx context.Context, w *models.Withdrawal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	w.ID = f.nextID
	cp := *w
	f.byOrderID[w.OrderID] = &cp
	return nil
}

func (f *fakeWithdrawalStore) Update(ctx context.Context, w *models.Withdrawal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *w
	f.byOrderID[w.OrderID] = &cp
	return nil
}

func (f *fakeWithdrawalStore) ByOrderID(ctx context.Context, orderID string) (*models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byOrderID[orderID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWithdrawalStore) ListByAccount(ctx context.Context, accountID uint, limit int) ([]models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Withdrawal
	for _, w := range f.byOrderID {
		if w.AccountID == accountID {
			out = append(out, *w)
		}
	}
	return out, nil
}
