package recurrent_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	paymentgatewaytypes "github.com/frahmantamala/recurrent-payments/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
	"github.com/frahmantamala/recurrent-payments/internal/recurrent"
	"github.com/frahmantamala/recurrent-payments/internal/recurrent/postgres"
	"github.com/frahmantamala/recurrent-payments/internal/testdb"
)

type fakeContexts struct {
	contexts map[string]*recurrentpayment.PaymentContext
	err      error
}

func (f *fakeContexts) GetByID(ctx context.Context, id string) (*recurrentpayment.PaymentContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	pc, ok := f.contexts[id]
	if !ok {
		return nil, internal.ErrContextNotFound
	}
	return pc, nil
}

type fakeBills struct {
	byID    map[string]billing.Receipt
	paid    map[string]bool
	lastIDs []string
}

func (f *fakeBills) FilterUnpaid(ctx context.Context, receipts []billing.Receipt) ([]billing.Receipt, error) {
	out := []billing.Receipt{}
	for _, r := range receipts {
		if !f.paid[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBills) ReceiptsByIDs(ctx context.Context, ids []string) ([]billing.Receipt, error) {
	f.lastIDs = ids
	out := []billing.Receipt{}
	for _, id := range ids {
		if r, ok := f.byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeGateway struct {
	calls []paymentgatewaytypes.RegisterRequest
	err   error
}

func (f *fakeGateway) RegisterMultiPayment(ctx context.Context, req paymentgatewaytypes.RegisterRequest) (*paymentgatewaytypes.Registration, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &paymentgatewaytypes.Registration{
		MultiPaymentID:   "mp-1",
		DirectPaymentURL: "https://acquiring.test/api/v1/multipayment/mp-1/direct",
		GetCardTokensURL: "https://acquiring.test/api/v1/multipayment/mp-1/card-tokens",
	}, nil
}

func receipt(id, toPay string) billing.Receipt {
	return billing.Receipt{ID: id, ToPay: decimal.RequireFromString(toPay)}
}

func attemptFor(contextID string, receiptIDs ...string) *recurrentpayment.RecurrentPayment {
	encoded, err := recurrentpayment.EncodeReceiptIDs(receiptIDs)
	Expect(err).NotTo(HaveOccurred())
	return &recurrentpayment.RecurrentPayment{
		ID:                        "rp-1",
		RecurrentPaymentContextID: contextID,
		Status:                    recurrentpayment.StatusInit,
		BillingReceipts:           encoded,
	}
}

var _ = Describe("Registrar", func() {
	var (
		db        *gorm.DB
		repo      recurrent.RepositoryAPI
		contexts  *fakeContexts
		bills     *fakeBills
		gateway   *fakeGateway
		registrar *recurrent.Registrar
		pc        *recurrentpayment.PaymentContext
		ctx       context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		repo = postgres.NewRecurrentPaymentRepository(db)
		ctx = context.Background()

		pc = &recurrentpayment.PaymentContext{
			ID:                "ctx-1",
			Enabled:           true,
			ServiceConsumerID: "consumer-1",
			Settings:          datatypes.JSONMap{"cardId": "card-1"},
		}
		contexts = &fakeContexts{contexts: map[string]*recurrentpayment.PaymentContext{"ctx-1": pc}}
		bills = &fakeBills{
			byID: map[string]billing.Receipt{
				"r-1": receipt("r-1", "100.50"),
				"r-2": receipt("r-2", "200.25"),
			},
			paid: map[string]bool{},
		}
		gateway = &fakeGateway{}
		registrar = recurrent.NewRegistrar(contexts, bills, gateway, repo, testLogger())
	})

	AfterEach(func() {
		testdb.Close(db)
	})

	Describe("RegisterPayment", func() {
		It("should register the unpaid receipts in attempt order", func() {
			// When
			result, err := registrar.RegisterPayment(ctx, attemptFor("ctx-1", "r-2", "r-1"))

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Registered).To(BeTrue())
			Expect(result.ErrorCode).To(BeEmpty())
			Expect(result.MultiPaymentID).To(Equal("mp-1"))
			Expect(result.DirectPaymentURL).To(HaveSuffix("/direct"))
			Expect(result.GetCardTokensURL).To(HaveSuffix("/card-tokens"))
			Expect(result.Total.String()).To(Equal("300.75"))

			Expect(gateway.calls).To(HaveLen(1))
			Expect(gateway.calls[0].ServiceConsumerID).To(Equal("consumer-1"))
			Expect(gateway.calls[0].CardID).To(Equal("card-1"))
			Expect(billing.IDs(gateway.calls[0].Receipts)).To(Equal([]string{"r-2", "r-1"}))
		})

		It("should report a missing context", func() {
			result, err := registrar.RegisterPayment(ctx, attemptFor("ctx-gone", "r-1"))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Registered).To(BeFalse())
			Expect(result.ErrorCode).To(Equal(recurrent.ErrorCodeContextNotFound))
			Expect(result.ErrorMessage).To(Equal("RecurrentPaymentContext not found for RecurrentPayment(rp-1)"))
			Expect(gateway.calls).To(BeEmpty())
		})

		It("should report a disabled context", func() {
			pc.Enabled = false

			result, err := registrar.RegisterPayment(ctx, attemptFor("ctx-1", "r-1"))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.ErrorCode).To(Equal(recurrent.ErrorCodeContextDisabled))
			Expect(result.ErrorMessage).To(Equal("RecurrentPaymentContext (ctx-1) is disabled"))
			Expect(gateway.calls).To(BeEmpty())
		})

		It("should report nothing to pay without an error code", func() {
			bills.paid["r-1"] = true
			bills.paid["r-2"] = true

			result, err := registrar.RegisterPayment(ctx, attemptFor("ctx-1", "r-1", "r-2"))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Registered).To(BeFalse())
			Expect(result.ErrorCode).To(BeEmpty())
			Expect(gateway.calls).To(BeEmpty())
		})

		It("should only submit receipts that are still unpaid", func() {
			bills.paid["r-1"] = true

			result, err := registrar.RegisterPayment(ctx, attemptFor("ctx-1", "r-1", "r-2"))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Registered).To(BeTrue())
			Expect(billing.IDs(result.Receipts)).To(Equal([]string{"r-2"}))
		})

		DescribeTable("should compare the total against the limit",
			func(limit string, registered bool) {
				// Given
				pc.Limit = decimal.NewNullDecimal(decimal.RequireFromString(limit))

				// When
				result, err := registrar.RegisterPayment(ctx, attemptFor("ctx-1", "r-1", "r-2"))

				// Then
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Registered).To(Equal(registered))
				if !registered {
					Expect(result.ErrorCode).To(Equal(recurrent.ErrorCodeLimitExceeded))
					Expect(gateway.calls).To(BeEmpty())
				}
			},
			Entry("below the total", "300.74", false),
			Entry("equal to the total", "300.75", true),
			Entry("above the total", "1000", true),
		)

		It("should map gateway failures to CAN_NOT_REGISTER_MULTI_PAYMENT", func() {
			gateway.err = internal.ErrAcquiringDisabled

			result, err := registrar.RegisterPayment(ctx, attemptFor("ctx-1", "r-1"))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Registered).To(BeFalse())
			Expect(result.ErrorCode).To(Equal(recurrent.ErrorCodeCanNotRegisterMultiPayment))
			Expect(result.ErrorMessage).To(HavePrefix("Can not register multi payment: "))
			Expect(result.ErrorMessage).To(ContainSubstring("acquiring integration context is disabled"))
		})

		It("should map a missing consumer to SERVICE_CONSUMER_NOT_FOUND", func() {
			gateway.err = internal.ErrConsumerDeleted

			result, err := registrar.RegisterPayment(ctx, attemptFor("ctx-1", "r-1"))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.ErrorCode).To(Equal(recurrent.ErrorCodeServiceConsumerNotFound))
		})

		It("should return storage errors", func() {
			contexts.err = errors.New("connection reset")

			_, err := registrar.RegisterPayment(ctx, attemptFor("ctx-1", "r-1"))

			Expect(err).To(MatchError("connection reset"))
		})

		It("should not mutate the attempt", func() {
			attempt := attemptFor("ctx-1", "r-1")
			before := *attempt

			_, err := registrar.RegisterPayment(ctx, attempt)

			Expect(err).NotTo(HaveOccurred())
			Expect(attempt.Status).To(Equal(before.Status))
			Expect(attempt.TryCount).To(Equal(before.TryCount))
			Expect(attempt.State).To(BeNil())
		})
	})

	Describe("CreateAttempt", func() {
		asOf := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

		It("should persist an INIT attempt with the given receipt ids", func() {
			// Given
			payAfter := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)

			// When
			attempt, err := registrar.CreateAttempt(ctx, pc, asOf, []billing.Receipt{receipt("r-2", "20")}, &payAfter)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(attempt).NotTo(BeNil())
			stored, err := repo.GetByID(ctx, attempt.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(recurrentpayment.StatusInit))
			Expect(stored.TryCount).To(Equal(0))
			Expect(stored.RecurrentPaymentContextID).To(Equal("ctx-1"))
			Expect(stored.PayAfter).NotTo(BeNil())
			Expect(stored.PayAfter.Equal(payAfter)).To(BeTrue())
			ids, err := stored.ReceiptIDs()
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"r-2"}))
		})

		It("should return nil when nothing is due", func() {
			attempt, err := registrar.CreateAttempt(ctx, pc, asOf, nil, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(attempt).To(BeNil())
		})

		It("should not schedule receipts already held by an attempt of the period", func() {
			// Given
			first, err := registrar.CreateAttempt(ctx, pc, asOf, []billing.Receipt{receipt("r-1", "10")}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).NotTo(BeNil())

			// When
			both := []billing.Receipt{receipt("r-1", "10"), receipt("r-2", "20")}
			second, err := registrar.CreateAttempt(ctx, pc, asOf, both, nil)
			Expect(err).NotTo(HaveOccurred())
			third, err := registrar.CreateAttempt(ctx, pc, asOf, both, nil)
			Expect(err).NotTo(HaveOccurred())

			// Then
			Expect(second).NotTo(BeNil())
			ids, err := second.ReceiptIDs()
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"r-2"}))
			Expect(third).To(BeNil())
		})

		DescribeTable("should keep receipts of a finished attempt out of the same period",
			func(status recurrentpayment.Status) {
				// Given
				unpaid := []billing.Receipt{receipt("r-1", "10")}
				first, err := registrar.CreateAttempt(ctx, pc, asOf, unpaid, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(db.Model(&recurrentpayment.RecurrentPayment{}).Where("id = ?", first.ID).
					Update("status", status).Error).NotTo(HaveOccurred())

				// When
				second, err := registrar.CreateAttempt(ctx, pc, asOf.Add(time.Hour), unpaid, nil)

				// Then
				Expect(err).NotTo(HaveOccurred())
				Expect(second).To(BeNil())
			},
			Entry("error", recurrentpayment.StatusError),
			Entry("cancel", recurrentpayment.StatusCancel),
			Entry("error need retry", recurrentpayment.StatusErrorNeedRetry),
		)

		It("should schedule the same receipts again in the next period", func() {
			// Given
			unpaid := []billing.Receipt{receipt("r-1", "10")}
			first, err := registrar.CreateAttempt(ctx, pc, asOf, unpaid, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Model(&recurrentpayment.RecurrentPayment{}).Where("id = ?", first.ID).
				Updates(map[string]interface{}{
					"status":     recurrentpayment.StatusError,
					"created_at": time.Date(2024, time.February, 10, 9, 0, 0, 0, time.UTC),
				}).Error).NotTo(HaveOccurred())

			// When
			second, err := registrar.CreateAttempt(ctx, pc, asOf, unpaid, nil)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(second).NotTo(BeNil())
		})
	})
})
