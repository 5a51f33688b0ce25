package paymentgateway_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/consumer"
	consumerpg "github.com/frahmantamala/recurrent-payments/internal/consumer/postgres"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/billing"
	consumerdm "github.com/frahmantamala/recurrent-payments/internal/core/datamodel/consumer"
	paymentgatewaytypes "github.com/frahmantamala/recurrent-payments/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/recurrent-payments/internal/payment"
	paymentpg "github.com/frahmantamala/recurrent-payments/internal/payment/postgres"
	"github.com/frahmantamala/recurrent-payments/internal/paymentgateway"
	"github.com/frahmantamala/recurrent-payments/internal/testdb"
)

func strPtr(s string) *string {
	return &s
}

var _ = Describe("Registrar", func() {
	var (
		db        *gorm.DB
		payments  *payment.Service
		registrar *paymentgateway.Registrar
		ctx       context.Context
		receipts  []billing.Receipt
	)

	BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		logger := testLogger()
		payments = payment.NewService(paymentpg.NewPaymentRepository(db), logger)
		consumers := consumer.NewService(consumerpg.NewConsumerRepository(db), logger)
		registrar = paymentgateway.NewRegistrar(consumers, payments, logger)
		ctx = context.Background()

		Expect(db.Create(&consumerdm.AcquiringIntegrationContext{ID: "aq-on", HostURL: "https://acq.example/", Enabled: true}).Error).NotTo(HaveOccurred())
		Expect(db.Create(&consumerdm.AcquiringIntegrationContext{ID: "aq-off", HostURL: "https://acq.example"}).Error).NotTo(HaveOccurred())
		Expect(db.Create(&consumerdm.ServiceConsumer{ID: "sc-on", UserID: "u", AccountNumber: "A", AcquiringIntegrationContextID: strPtr("aq-on")}).Error).NotTo(HaveOccurred())
		Expect(db.Create(&consumerdm.ServiceConsumer{ID: "sc-off", UserID: "u", AccountNumber: "A", AcquiringIntegrationContextID: strPtr("aq-off")}).Error).NotTo(HaveOccurred())
		Expect(db.Create(&consumerdm.ServiceConsumer{ID: "sc-none", UserID: "u", AccountNumber: "A"}).Error).NotTo(HaveOccurred())

		receipts = []billing.Receipt{
			{ID: "r-1", ToPay: decimal.NewFromInt(100)},
			{ID: "r-2", ToPay: decimal.RequireFromString("49.90")},
		}
	})

	AfterEach(func() {
		testdb.Close(db)
	})

	It("should create one CREATED payment per receipt and build the callback urls", func() {
		// When
		reg, err := registrar.RegisterMultiPayment(ctx, paymentgatewaytypes.RegisterRequest{
			ServiceConsumerID: "sc-on",
			CardID:            "card-1",
			Receipts:          receipts,
		})

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(reg.MultiPaymentID).NotTo(BeEmpty())
		Expect(reg.DirectPaymentURL).To(Equal("https://acq.example/api/v1/multipayment/" + reg.MultiPaymentID + "/direct"))
		Expect(reg.GetCardTokensURL).To(Equal("https://acq.example/api/v1/multipayment/" + reg.MultiPaymentID + "/card-tokens"))

		stored, err := payments.GetByMultiPaymentID(ctx, reg.MultiPaymentID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(HaveLen(2))
		for _, p := range stored {
			Expect(string(p.Status)).To(Equal("CREATED"))
		}
	})

	DescribeTable("should refuse when the acquiring link is unusable",
		func(consumerID string, expected error) {
			_, err := registrar.RegisterMultiPayment(ctx, paymentgatewaytypes.RegisterRequest{
				ServiceConsumerID: consumerID,
				Receipts:          receipts,
			})

			Expect(err).To(MatchError(expected))
		},
		Entry("disabled integration", "sc-off", internal.ErrAcquiringDisabled),
		Entry("no integration", "sc-none", internal.ErrAcquiringNotFound),
		Entry("unknown consumer", "sc-unknown", internal.ErrConsumerNotFound),
	)

	It("should not create payments when registration is refused", func() {
		// When
		_, err := registrar.RegisterMultiPayment(ctx, paymentgatewaytypes.RegisterRequest{ServiceConsumerID: "sc-off", Receipts: receipts})

		// Then
		Expect(err).To(HaveOccurred())
		var count int64
		Expect(db.Table("payments").Count(&count).Error).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
	})

	It("should validate the request", func() {
		_, err := registrar.RegisterMultiPayment(ctx, paymentgatewaytypes.RegisterRequest{ServiceConsumerID: "sc-on"})

		Expect(err).To(MatchError(ContainSubstring("at least one receipt")))
	})
})
