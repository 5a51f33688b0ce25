package postgres

import (
	"context"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/payment"
	"github.com/frahmantamala/recurrent-payments/internal/testdb"
)

func TestPaymentRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Payment Repository Suite")
}

var _ = ginkgo.Describe("PaymentRepository", func() {
	var (
		db   *gorm.DB
		repo *PaymentRepository
		ctx  context.Context
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = testdb.Open()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = &PaymentRepository{db: db}
		ctx = context.Background()
	})

	ginkgo.AfterEach(func() {
		testdb.Close(db)
	})

	ginkgo.Describe("FindByReceiptsAndStatuses", func() {
		ginkgo.It("should return only payments in the requested statuses", func() {
			// Given
			seed := []*payment.Payment{
				{ReceiptID: "r-1", MultiPaymentID: "mp-1", Status: payment.StatusDone, Amount: decimal.NewFromInt(10)},
				{ReceiptID: "r-2", MultiPaymentID: "mp-1", Status: payment.StatusWithdrawn, Amount: decimal.NewFromInt(10)},
				{ReceiptID: "r-3", MultiPaymentID: "mp-1", Status: payment.StatusCreated, Amount: decimal.NewFromInt(10)},
				{ReceiptID: "r-4", MultiPaymentID: "mp-2", Status: payment.StatusDone, Amount: decimal.NewFromInt(10)},
			}
			gomega.Expect(repo.CreateBatch(ctx, seed)).To(gomega.Succeed())

			// When
			found, err := repo.FindByReceiptsAndStatuses(ctx, []string{"r-1", "r-2", "r-3"}, payment.HandledStatuses)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			receipts := []string{}
			for _, p := range found {
				receipts = append(receipts, p.ReceiptID)
			}
			gomega.Expect(receipts).To(gomega.ConsistOf("r-1", "r-2"))
		})

		ginkgo.It("should not query for an empty receipt list", func() {
			found, err := repo.FindByReceiptsAndStatuses(ctx, nil, payment.HandledStatuses)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("CreateBatch", func() {
		ginkgo.It("should group payments by multi payment id", func() {
			// Given
			batch := []*payment.Payment{
				{ReceiptID: "r-1", MultiPaymentID: "mp-9", Status: payment.StatusCreated, Amount: decimal.RequireFromString("100.50")},
				{ReceiptID: "r-2", MultiPaymentID: "mp-9", Status: payment.StatusCreated, Amount: decimal.RequireFromString("20.25")},
			}

			// When
			err := repo.CreateBatch(ctx, batch)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			stored, err := repo.GetByMultiPaymentID(ctx, "mp-9")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(stored).To(gomega.HaveLen(2))
			gomega.Expect(stored[0].ID).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should roll back the whole batch when one insert fails", func() {
			// Given
			existing := &payment.Payment{ID: "dup", ReceiptID: "r-0", MultiPaymentID: "mp-0", Status: payment.StatusCreated, Amount: decimal.NewFromInt(1)}
			gomega.Expect(repo.CreateBatch(ctx, []*payment.Payment{existing})).To(gomega.Succeed())

			batch := []*payment.Payment{
				{ReceiptID: "r-1", MultiPaymentID: "mp-7", Status: payment.StatusCreated, Amount: decimal.NewFromInt(1)},
				{ID: "dup", ReceiptID: "r-2", MultiPaymentID: "mp-7", Status: payment.StatusCreated, Amount: decimal.NewFromInt(1)},
			}

			// When
			err := repo.CreateBatch(ctx, batch)

			// Then
			gomega.Expect(err).To(gomega.HaveOccurred())
			stored, err := repo.GetByMultiPaymentID(ctx, "mp-7")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(stored).To(gomega.BeEmpty())
		})
	})
})
