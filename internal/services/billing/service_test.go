package billing

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/rendydev404/beatly/internal/domain/enums"
	"github.com/rendydev404/beatly/internal/domain/model"
	"github.com/rendydev404/beatly/internal/infra/midtrans"
	pgrepo "github.com/rendydev404/beatly/internal/repo/postgres"
)

type txStoreStub struct {
	byID map[string]model.Transaction

	createErr error
	attachErr error
	markErr   error

	created     []model.Transaction
	attached    map[string]string
	markedCalls int
}

func newTxStoreStub() *txStoreStub {
	return &txStoreStub{
		byID:     map[string]model.Transaction{},
		attached: map[string]string{},
	}
}

func (s *txStoreStub) CreatePending(_ context.Context, userID, planID string, amount int) (model.Transaction, error) {
	if s.createErr != nil {
		return model.Transaction{}, s.createErr
	}
	txn := model.Transaction{
		ID:     "txn-" + planID,
		UserID: userID,
		PlanID: planID,
		Amount: amount,
		Status: enums.TransactionStatusPending,
	}
	s.byID[txn.ID] = txn
	s.created = append(s.created, txn)
	return txn, nil
}

func (s *txStoreStub) AttachSnapToken(_ context.Context, transactionID, snapToken string) error {
	if s.attachErr != nil {
		return s.attachErr
	}
	s.attached[transactionID] = snapToken
	return nil
}

func (s *txStoreStub) FindByID(_ context.Context, transactionID string) (model.Transaction, error) {
	txn, ok := s.byID[transactionID]
	if !ok {
		return model.Transaction{}, pgrepo.ErrTransactionNotFound
	}
	return txn, nil
}

func (s *txStoreStub) FindByIDForUser(_ context.Context, transactionID, userID string) (model.Transaction, error) {
	txn, ok := s.byID[transactionID]
	if !ok || txn.UserID != userID {
		return model.Transaction{}, pgrepo.ErrTransactionNotFound
	}
	return txn, nil
}

func (s *txStoreStub) MarkTerminal(_ context.Context, transactionID string, status enums.TransactionStatus) (model.Transaction, bool, error) {
	s.markedCalls++
	if s.markErr != nil {
		return model.Transaction{}, false, s.markErr
	}
	txn, ok := s.byID[transactionID]
	if !ok {
		return model.Transaction{}, false, pgrepo.ErrTransactionNotFound
	}
	if txn.Status == enums.TransactionStatusSuccess || txn.Status == status {
		return txn, false, nil
	}
	txn.Status = status
	s.byID[transactionID] = txn
	return txn, true, nil
}

type promoterStub struct {
	err   error
	calls []string
}

func (s *promoterStub) Promote(_ context.Context, userID, planID string) (model.Subscription, error) {
	s.calls = append(s.calls, userID+"/"+planID)
	if s.err != nil {
		return model.Subscription{}, s.err
	}
	return model.Subscription{UserID: userID, PlanID: planID}, nil
}

type gatewayStub struct {
	snapToken midtrans.SnapToken
	snapErr   error

	status    midtrans.StatusResponse
	statusErr error

	signatureOK bool
}

func (s *gatewayStub) CreateSnapTransaction(_ context.Context, _ midtrans.SnapRequest) (midtrans.SnapToken, error) {
	if s.snapErr != nil {
		return midtrans.SnapToken{}, s.snapErr
	}
	return s.snapToken, nil
}

func (s *gatewayStub) TransactionStatus(_ context.Context, _ string) (midtrans.StatusResponse, error) {
	if s.statusErr != nil {
		return midtrans.StatusResponse{}, s.statusErr
	}
	return s.status, nil
}

func (s *gatewayStub) VerifyNotificationSignature(_ midtrans.Notification) bool {
	return s.signatureOK
}

func newTestService(store *txStoreStub, promoter *promoterStub, gateway *gatewayStub) *Service {
	return NewService(store, promoter, gateway, Config{FinishURL: "https://beatly.test/done"}, zap.NewNop())
}

func TestCheckoutCreatesPendingAndAttachesToken(t *testing.T) {
	store := newTxStoreStub()
	gateway := &gatewayStub{snapToken: midtrans.SnapToken{Token: "snap-abc"}}
	svc := newTestService(store, &promoterStub{}, gateway)

	res, err := svc.Checkout(context.Background(), "user-1", "user@beatly.test", "premium", 54990)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if res.Token != "snap-abc" {
		t.Fatalf("token = %q, want snap-abc", res.Token)
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d transactions, want 1", len(store.created))
	}
	if store.created[0].Status != enums.TransactionStatusPending {
		t.Fatalf("created status = %q, want pending", store.created[0].Status)
	}
	if got := store.attached[res.TransactionID]; got != "snap-abc" {
		t.Fatalf("attached token = %q, want snap-abc", got)
	}
}

func TestCheckoutRejectsInvalidInput(t *testing.T) {
	svc := newTestService(newTxStoreStub(), &promoterStub{}, &gatewayStub{})

	cases := []struct {
		name   string
		userID string
		planID string
		price  int
	}{
		{"empty user", "", "premium", 54990},
		{"empty plan", "user-1", "", 54990},
		{"zero price", "user-1", "premium", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Checkout(context.Background(), tc.userID, "", tc.planID, tc.price); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCheckoutGatewayFailure(t *testing.T) {
	store := newTxStoreStub()
	gateway := &gatewayStub{snapErr: midtrans.ErrGateway}
	svc := newTestService(store, &promoterStub{}, gateway)

	if _, err := svc.Checkout(context.Background(), "user-1", "", "premium", 54990); !errors.Is(err, midtrans.ErrGateway) {
		t.Fatalf("err = %v, want wrapped gateway error", err)
	}
	if len(store.attached) != 0 {
		t.Fatalf("token attached despite gateway failure")
	}
}

func TestHandleNotificationRejectsBadSignature(t *testing.T) {
	svc := newTestService(newTxStoreStub(), &promoterStub{}, &gatewayStub{signatureOK: false})

	_, err := svc.HandleNotification(context.Background(), midtrans.Notification{OrderID: "txn-1"})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestHandleNotificationSettlementPromotesOnce(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusPending}
	promoter := &promoterStub{}
	svc := newTestService(store, promoter, &gatewayStub{signatureOK: true})

	n := midtrans.Notification{OrderID: "txn-1", TransactionStatus: "settlement"}

	res, err := svc.HandleNotification(context.Background(), n)
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if res.Status != enums.TransactionStatusSuccess || !res.Promoted {
		t.Fatalf("result = %+v, want success and promoted", res)
	}

	// Duplicate delivery: status unchanged, no second promotion.
	res, err = svc.HandleNotification(context.Background(), n)
	if err != nil {
		t.Fatalf("duplicate HandleNotification: %v", err)
	}
	if res.Promoted {
		t.Fatalf("duplicate notification promoted again")
	}
	if len(promoter.calls) != 1 {
		t.Fatalf("promote called %d times, want 1", len(promoter.calls))
	}
}

func TestHandleNotificationFailureAfterSuccessKeepsSuccess(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusSuccess}
	promoter := &promoterStub{}
	svc := newTestService(store, promoter, &gatewayStub{signatureOK: true})

	res, err := svc.HandleNotification(context.Background(), midtrans.Notification{OrderID: "txn-1", TransactionStatus: "expire"})
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if res.Status != enums.TransactionStatusSuccess {
		t.Fatalf("status = %q, want success to stick", res.Status)
	}
	if len(promoter.calls) != 0 {
		t.Fatalf("promote called on stale failure notification")
	}
}

func TestHandleNotificationCaptureFraudMapping(t *testing.T) {
	cases := []struct {
		fraud string
		want  enums.TransactionStatus
	}{
		{"accept", enums.TransactionStatusSuccess},
		{"", enums.TransactionStatusSuccess},
		{"challenge", enums.TransactionStatusChallenge},
	}
	for _, tc := range cases {
		t.Run("fraud="+tc.fraud, func(t *testing.T) {
			store := newTxStoreStub()
			store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusPending}
			svc := newTestService(store, &promoterStub{}, &gatewayStub{signatureOK: true})

			res, err := svc.HandleNotification(context.Background(), midtrans.Notification{
				OrderID: "txn-1", TransactionStatus: "capture", FraudStatus: tc.fraud,
			})
			if err != nil {
				t.Fatalf("HandleNotification: %v", err)
			}
			if res.Status != tc.want {
				t.Fatalf("status = %q, want %q", res.Status, tc.want)
			}
		})
	}
}

func TestHandleNotificationUnknownStatusLeavesRecordUntouched(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusPending}
	svc := newTestService(store, &promoterStub{}, &gatewayStub{signatureOK: true})

	res, err := svc.HandleNotification(context.Background(), midtrans.Notification{OrderID: "txn-1", TransactionStatus: "refund"})
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if res.Status != enums.TransactionStatusPending {
		t.Fatalf("status = %q, want pending left untouched", res.Status)
	}
	if store.markedCalls != 0 {
		t.Fatalf("MarkTerminal called for unknown status")
	}
}

func TestHandleNotificationStoreErrorPropagates(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", Status: enums.TransactionStatusPending}
	store.markErr = errors.New("db down")
	svc := newTestService(store, &promoterStub{}, &gatewayStub{signatureOK: true})

	if _, err := svc.HandleNotification(context.Background(), midtrans.Notification{OrderID: "txn-1", TransactionStatus: "settlement"}); err == nil {
		t.Fatalf("expected store error to propagate so gateway retries")
	}
}

func TestHandleNotificationUnknownOrder(t *testing.T) {
	svc := newTestService(newTxStoreStub(), &promoterStub{}, &gatewayStub{signatureOK: true})

	if _, err := svc.HandleNotification(context.Background(), midtrans.Notification{OrderID: "ghost", TransactionStatus: "settlement"}); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("err = %v, want ErrTransactionNotFound", err)
	}
}

func TestVerifyShortCircuitsStoredSuccess(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusSuccess}
	gateway := &gatewayStub{statusErr: errors.New("should not be polled")}
	svc := newTestService(store, &promoterStub{}, gateway)

	res, err := svc.Verify(context.Background(), "user-1", "txn-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != "success" || res.TransactionStatus != "settlement" || res.Plan != "premium" {
		t.Fatalf("result = %+v, want stored success short-circuit", res)
	}
}

func TestVerifyPollConfirmsAndPromotes(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusPending}
	promoter := &promoterStub{}
	gateway := &gatewayStub{status: midtrans.StatusResponse{OrderID: "txn-1", TransactionStatus: "settlement"}}
	svc := newTestService(store, promoter, gateway)

	res, err := svc.Verify(context.Background(), "user-1", "txn-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != "success" || res.Plan != "premium" {
		t.Fatalf("result = %+v, want success with plan", res)
	}
	if len(promoter.calls) != 1 {
		t.Fatalf("promote called %d times, want 1", len(promoter.calls))
	}
	if got := store.byID["txn-1"].Status; got != enums.TransactionStatusSuccess {
		t.Fatalf("stored status = %q, want success", got)
	}
}

func TestVerifyAfterWebhookDoesNotPromoteTwice(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusPending}
	promoter := &promoterStub{}
	gateway := &gatewayStub{signatureOK: true, status: midtrans.StatusResponse{OrderID: "txn-1", TransactionStatus: "settlement"}}
	svc := newTestService(store, promoter, gateway)

	if _, err := svc.HandleNotification(context.Background(), midtrans.Notification{OrderID: "txn-1", TransactionStatus: "settlement"}); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if _, err := svc.Verify(context.Background(), "user-1", "txn-1"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(promoter.calls) != 1 {
		t.Fatalf("promote called %d times across both paths, want 1", len(promoter.calls))
	}
}

func TestVerifyGatewayUnreachableReportsPending(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusPending}
	gateway := &gatewayStub{statusErr: errors.New("timeout")}
	svc := newTestService(store, &promoterStub{}, gateway)

	res, err := svc.Verify(context.Background(), "user-1", "txn-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != "pending" {
		t.Fatalf("status = %q, want pending when gateway unreachable", res.Status)
	}
	if store.markedCalls != 0 {
		t.Fatalf("ledger mutated while gateway unreachable")
	}
}

func TestVerifyChallengeReportedAsPending(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusPending}
	gateway := &gatewayStub{status: midtrans.StatusResponse{TransactionStatus: "capture", FraudStatus: "challenge"}}
	svc := newTestService(store, &promoterStub{}, gateway)

	res, err := svc.Verify(context.Background(), "user-1", "txn-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != "pending" {
		t.Fatalf("status = %q, want pending for challenge", res.Status)
	}
	if got := store.byID["txn-1"].Status; got != enums.TransactionStatusChallenge {
		t.Fatalf("stored status = %q, want challenge", got)
	}
}

func TestVerifyExpireMarksFailed(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusPending}
	gateway := &gatewayStub{status: midtrans.StatusResponse{TransactionStatus: "expire"}}
	svc := newTestService(store, &promoterStub{}, gateway)

	res, err := svc.Verify(context.Background(), "user-1", "txn-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != "failed" {
		t.Fatalf("status = %q, want failed", res.Status)
	}
	if res.Message != "Payment expired" {
		t.Fatalf("message = %q, want expiry message", res.Message)
	}
	if got := store.byID["txn-1"].Status; got != enums.TransactionStatusFailed {
		t.Fatalf("stored status = %q, want failed", got)
	}
}

func TestVerifyScopedToOwner(t *testing.T) {
	store := newTxStoreStub()
	store.byID["txn-1"] = model.Transaction{ID: "txn-1", UserID: "user-1", PlanID: "premium", Status: enums.TransactionStatusPending}
	svc := newTestService(store, &promoterStub{}, &gatewayStub{})

	if _, err := svc.Verify(context.Background(), "someone-else", "txn-1"); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("err = %v, want ErrTransactionNotFound for foreign transaction", err)
	}
}
