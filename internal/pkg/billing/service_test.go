package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/database/dbtest"
)

func newTestService(t *testing.T) (*Service, *fakeProvider, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	fp := newFakeProvider()
	svc := NewServiceFromDB(db, fp, Config{BaseURL: "https://osov.test/"})
	return svc, fp, db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u, err := models.NewUser("Test", "Donor", email, "")
	require.NoError(t, err)
	require.NoError(t, db.Create(u).Error)
	return u
}

func countDonations(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Donation{}).Count(&n).Error)
	return n
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(5000), ToMinorUnits(50))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, int64(1010), ToMinorUnits(10.1))
	assert.Equal(t, int64(1), ToMinorUnits(0.01))
}

func TestProductName(t *testing.T) {
	assert.Equal(t, "General Donation", ProductName(nil, models.FREQUENCY_ONETIME))
	assert.Equal(t, "General Donation (Monthly)", ProductName(nil, models.FREQUENCY_MONTHLY))
	c := &models.Campaign{Title: "Youth Mentors"}
	assert.Equal(t, "Donation to Youth Mentors (Monthly)", ProductName(c, models.FREQUENCY_MONTHLY))
}

func TestInitiateCheckoutCreatesOnePendingRow(t *testing.T) {
	for _, freq := range []string{models.FREQUENCY_ONETIME, models.FREQUENCY_MONTHLY} {
		t.Run(freq, func(t *testing.T) {
			svc, fp, db := newTestService(t)

			url, d, err := svc.InitiateCheckout(context.Background(), DonationInput{
				Amount: 50, Frequency: freq, DonorName: "Guest", DonorEmail: "A@B.com",
			})
			require.NoError(t, err)
			require.Len(t, fp.created, 1)

			assert.Equal(t, "https://checkout.example/"+d.Reference, url)
			assert.Equal(t, models.DONATION_STATUS_PENDING, d.Status)
			assert.Equal(t, "a@b.com", d.GuestEmail)
			assert.Equal(t, "cad", d.Currency)
			assert.Nil(t, d.UserID)
			assert.Equal(t, int64(1), countDonations(t, db))

			req := fp.created[0]
			assert.Equal(t, int64(5000), req.AmountMinor)
			assert.Equal(t, freq == models.FREQUENCY_MONTHLY, req.Recurring)
			assert.Equal(t, "https://osov.test/donation/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
			assert.Equal(t, "https://osov.test/donate", req.CancelURL)
			assert.Equal(t, freq, req.Metadata["frequency"])
		})
	}
}

func TestInitiateCheckoutForUserAndCampaign(t *testing.T) {
	svc, fp, db := newTestService(t)
	u := createUser(t, db, "donor@example.org")
	c := &models.Campaign{Title: "Spring Drive", GoalAmount: 1000, IsActive: true}
	require.NoError(t, db.Create(c).Error)

	_, d, err := svc.InitiateCheckout(context.Background(), DonationInput{
		Amount: 25, Frequency: models.FREQUENCY_ONETIME, UserID: u.ID,
		DonorName: u.FullName(), DonorEmail: u.Email, CampaignID: &c.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, d.UserID)
	assert.Equal(t, u.ID, *d.UserID)
	assert.Equal(t, c.ID, *d.CampaignID)
	assert.Equal(t, "Donation to Spring Drive", fp.created[0].ProductName)
	assert.Equal(t, "1", fp.created[0].Metadata["campaign_id"])
}

func TestInitiateCheckoutRejectsBadInput(t *testing.T) {
	svc, fp, db := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.InitiateCheckout(ctx, DonationInput{Amount: 0, Frequency: "onetime", DonorName: "a", DonorEmail: "a@b.c"})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, _, err = svc.InitiateCheckout(ctx, DonationInput{Amount: -5, Frequency: "onetime", DonorName: "a", DonorEmail: "a@b.c"})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, _, err = svc.InitiateCheckout(ctx, DonationInput{Amount: 5, Frequency: "weekly", DonorName: "a", DonorEmail: "a@b.c"})
	assert.ErrorIs(t, err, ErrInvalidFrequency)
	_, _, err = svc.InitiateCheckout(ctx, DonationInput{Amount: 5, Frequency: "onetime"})
	assert.ErrorIs(t, err, ErrMissingPayer)

	assert.Empty(t, fp.created)
	assert.Zero(t, countDonations(t, db))
}

func TestInitiateCheckoutProviderFailureCreatesNoRow(t *testing.T) {
	svc, fp, db := newTestService(t)
	fp.createErr = errors.New("gateway down")

	_, _, err := svc.InitiateCheckout(context.Background(), DonationInput{
		Amount: 10, Frequency: models.FREQUENCY_ONETIME, DonorName: "G", DonorEmail: "g@example.org",
	})
	assert.Error(t, err)
	assert.Zero(t, countDonations(t, db))
}

func TestReconcileOneTimeBecomesSuccess(t *testing.T) {
	svc, fp, db := newTestService(t)
	ctx := context.Background()
	_, d, err := svc.InitiateCheckout(ctx, DonationInput{Amount: 25, Frequency: "onetime", DonorName: "G", DonorEmail: "g@example.org"})
	require.NoError(t, err)
	fp.complete(d.Reference, "", "")

	for i := 0; i < 2; i++ {
		res, err := svc.ReconcileSession(ctx, d.Reference)
		require.NoError(t, err)
		require.NotNil(t, res.Donation)
		assert.Equal(t, models.DONATION_STATUS_SUCCESS, res.Donation.Status)
		assert.Equal(t, 25.0, res.Amount)
	}
	assert.Equal(t, int64(1), countDonations(t, db))
}

func TestReconcileMonthlyBecomesActive(t *testing.T) {
	svc, fp, db := newTestService(t)
	ctx := context.Background()
	// a onetime row whose session came back with a subscription is forced to monthly
	_, d, err := svc.InitiateCheckout(ctx, DonationInput{Amount: 50, Frequency: "onetime", DonorName: "G", DonorEmail: "a@b.com"})
	require.NoError(t, err)
	fp.complete(d.Reference, "sub_123", "cus_456")

	for i := 0; i < 2; i++ {
		_, err := svc.ReconcileSession(ctx, d.Reference)
		require.NoError(t, err)
	}

	var stored models.Donation
	require.NoError(t, db.First(&stored, d.ID).Error)
	assert.Equal(t, models.DONATION_STATUS_ACTIVE, stored.Status)
	assert.Equal(t, models.FREQUENCY_MONTHLY, stored.Frequency)
	require.NotNil(t, stored.StripeSubscriptionID)
	require.NotNil(t, stored.StripeCustomerID)
	assert.Equal(t, "sub_123", *stored.StripeSubscriptionID)
	assert.Equal(t, "cus_456", *stored.StripeCustomerID)
	assert.Equal(t, int64(1), countDonations(t, db))
}

func TestReconcileOpenSessionStaysPending(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	campaign := &models.Campaign{Title: "Spring", GoalAmount: 500, IsActive: true}
	require.NoError(t, db.Create(campaign).Error)

	_, d, err := svc.InitiateCheckout(ctx, DonationInput{Amount: 40, Frequency: "onetime", DonorName: "G", DonorEmail: "g@example.org", CampaignID: &campaign.ID})
	require.NoError(t, err)

	res, err := svc.ReconcileSession(ctx, d.Reference)
	require.NoError(t, err)
	assert.False(t, res.Paid)
	require.NotNil(t, res.Donation)
	assert.Equal(t, models.DONATION_STATUS_PENDING, res.Donation.Status)
	assertStatus(t, db, d.ID, models.DONATION_STATUS_PENDING)

	var raised float64
	require.NoError(t, db.Model(&models.Donation{}).
		Where("campaign_id = ? AND status = ?", campaign.ID, models.DONATION_STATUS_SUCCESS).
		Select("COALESCE(SUM(amount), 0)").Scan(&raised).Error)
	assert.Zero(t, raised)
}

func TestReconcileExpiredSessionFails(t *testing.T) {
	svc, fp, db := newTestService(t)
	ctx := context.Background()
	_, d, err := svc.InitiateCheckout(ctx, DonationInput{Amount: 20, Frequency: "onetime", DonorName: "G", DonorEmail: "g@example.org"})
	require.NoError(t, err)
	fp.expire(d.Reference)

	// the sweep gets there first, then the donor comes back to the success URL
	require.NoError(t, db.Model(&models.Donation{}).Where("id = ?", d.ID).UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)
	require.NoError(t, svc.ReconcilePending(ctx, d.Reference))
	assertStatus(t, db, d.ID, models.DONATION_STATUS_FAILED)

	res, err := svc.ReconcileSession(ctx, d.Reference)
	require.NoError(t, err)
	assert.False(t, res.Paid)
	assert.Equal(t, models.DONATION_STATUS_FAILED, res.Donation.Status)
	assertStatus(t, db, d.ID, models.DONATION_STATUS_FAILED)
}

func TestReconcileMissingReference(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ReconcileSession(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestReconcileGapUsesProviderAmount(t *testing.T) {
	svc, fp, _ := newTestService(t)
	fp.sessions["cs_orphan"] = &SessionState{ID: "cs_orphan", Status: SessionStatusComplete, AmountTotal: 1250, Currency: "cad"}

	res, err := svc.ReconcileSession(context.Background(), "cs_orphan")
	require.NoError(t, err)
	assert.Nil(t, res.Donation)
	assert.True(t, res.Paid)
	assert.Equal(t, 12.5, res.Amount)
}

func TestReconcileNeverResurrectsCancelled(t *testing.T) {
	svc, fp, db := newTestService(t)
	ctx := context.Background()
	u := createUser(t, db, "sub@example.org")

	_, d, err := svc.InitiateCheckout(ctx, DonationInput{Amount: 10, Frequency: "monthly", UserID: u.ID, DonorName: "S", DonorEmail: u.Email})
	require.NoError(t, err)
	fp.complete(d.Reference, "sub_1", "cus_1")
	_, err = svc.ReconcileSession(ctx, d.Reference)
	require.NoError(t, err)

	_, err = svc.CancelSubscription(ctx, d.ID, u.ID)
	require.NoError(t, err)

	res, err := svc.ReconcileSession(ctx, d.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.DONATION_STATUS_CANCELLED, res.Donation.Status)
}

func TestCancelSubscription(t *testing.T) {
	svc, fp, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.org")
	other := createUser(t, db, "other@example.org")

	_, d, err := svc.InitiateCheckout(ctx, DonationInput{Amount: 15, Frequency: "monthly", UserID: owner.ID, DonorName: "O", DonorEmail: owner.Email})
	require.NoError(t, err)
	fp.complete(d.Reference, "sub_9", "cus_9")
	_, err = svc.ReconcileSession(ctx, d.Reference)
	require.NoError(t, err)

	t.Run("not owner", func(t *testing.T) {
		_, err := svc.CancelSubscription(ctx, d.ID, other.ID)
		assert.ErrorIs(t, err, ErrNotOwner)
		assertStatus(t, db, d.ID, models.DONATION_STATUS_ACTIVE)
		assert.Empty(t, fp.cancelled)
	})

	t.Run("provider failure leaves row unchanged", func(t *testing.T) {
		fp.cancelErr = errors.New("stripe unavailable")
		defer func() { fp.cancelErr = nil }()
		_, err := svc.CancelSubscription(ctx, d.ID, owner.ID)
		assert.Error(t, err)
		assertStatus(t, db, d.ID, models.DONATION_STATUS_ACTIVE)
	})

	t.Run("owner cancels", func(t *testing.T) {
		_, err := svc.CancelSubscription(ctx, d.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"sub_9"}, fp.cancelled)
		assertStatus(t, db, d.ID, models.DONATION_STATUS_CANCELLED)
	})
}

func TestCancelWithoutSubscription(t *testing.T) {
	svc, fp, db := newTestService(t)
	ctx := context.Background()
	u := createUser(t, db, "one@example.org")
	_, d, err := svc.InitiateCheckout(ctx, DonationInput{Amount: 5, Frequency: "onetime", UserID: u.ID, DonorName: "O", DonorEmail: u.Email})
	require.NoError(t, err)
	fp.complete(d.Reference, "", "")
	_, err = svc.ReconcileSession(ctx, d.Reference)
	require.NoError(t, err)

	_, err = svc.CancelSubscription(ctx, d.ID, u.ID)
	assert.ErrorIs(t, err, ErrNoSubscription)
	assertStatus(t, db, d.ID, models.DONATION_STATUS_SUCCESS)
}

func TestSweepPending(t *testing.T) {
	svc, fp, db := newTestService(t)
	ctx := context.Background()

	var refs []string
	for i := 0; i < 3; i++ {
		_, d, err := svc.InitiateCheckout(ctx, DonationInput{Amount: 5, Frequency: "onetime", DonorName: "G", DonorEmail: "g@example.org"})
		require.NoError(t, err)
		refs = append(refs, d.Reference)
	}
	old := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Donation{}).Where("1 = 1").UpdateColumn("created_at", old).Error)

	fp.complete(refs[0], "", "")
	fp.expire(refs[1])

	pending, err := svc.PendingReferences()
	require.NoError(t, err)
	assert.ElementsMatch(t, refs, pending)

	for _, ref := range pending {
		require.NoError(t, svc.ReconcilePending(ctx, ref))
	}

	assertStatusByRef(t, db, refs[0], models.DONATION_STATUS_SUCCESS)
	assertStatusByRef(t, db, refs[1], models.DONATION_STATUS_FAILED)
	assertStatusByRef(t, db, refs[2], models.DONATION_STATUS_PENDING)

	pending, err = svc.PendingReferences()
	require.NoError(t, err)
	assert.Equal(t, []string{refs[2]}, pending)
}

func TestSweepFailsUnknownSessions(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	old := time.Now().Add(-time.Hour)
	d := &models.Donation{Amount: 5, Currency: "cad", Frequency: "onetime", Reference: "cs_gone", Status: models.DONATION_STATUS_PENDING, CreatedAt: old}
	require.NoError(t, db.Create(d).Error)

	require.NoError(t, svc.ReconcilePending(ctx, "cs_gone"))
	assertStatus(t, db, d.ID, models.DONATION_STATUS_FAILED)

	pending, err := svc.PendingReferences()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSweepRotatesPastFailingRows(t *testing.T) {
	svc, fp, db := newTestService(t)
	ctx := context.Background()

	stale := time.Now().Add(-2 * time.Hour)
	for i := 0; i < SweepBatch; i++ {
		ref := fmt.Sprintf("cs_flaky_%d", i)
		require.NoError(t, db.Create(&models.Donation{
			Amount: 5, Currency: "cad", Frequency: "onetime", Reference: ref,
			Status: models.DONATION_STATUS_PENDING, CreatedAt: stale.Add(time.Duration(i) * time.Second),
		}).Error)
		fp.failRetrieve(ref, errors.New("stripe unavailable"))
	}

	_, paid, err := svc.InitiateCheckout(ctx, DonationInput{Amount: 30, Frequency: "onetime", DonorName: "G", DonorEmail: "g@example.org"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Donation{}).Where("id = ?", paid.ID).UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)
	fp.complete(paid.Reference, "", "")

	for round := 0; round < 2; round++ {
		pending, err := svc.PendingReferences()
		require.NoError(t, err)
		require.Len(t, pending, SweepBatch)
		for _, ref := range pending {
			_ = svc.ReconcilePending(ctx, ref)
		}
	}

	assertStatus(t, db, paid.ID, models.DONATION_STATUS_SUCCESS)
	assertStatusByRef(t, db, "cs_flaky_0", models.DONATION_STATUS_PENDING)
}

func TestPendingReferencesSkipsFreshRows(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.InitiateCheckout(context.Background(), DonationInput{Amount: 5, Frequency: "onetime", DonorName: "G", DonorEmail: "g@example.org"})
	require.NoError(t, err)

	pending, err := svc.PendingReferences()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func assertStatus(t *testing.T, db *gorm.DB, id uint, want string) {
	t.Helper()
	var d models.Donation
	require.NoError(t, db.First(&d, id).Error)
	assert.Equal(t, want, d.Status)
}

func assertStatusByRef(t *testing.T, db *gorm.DB, ref, want string) {
	t.Helper()
	var d models.Donation
	require.NoError(t, db.Where("reference = ?", ref).First(&d).Error)
	assert.Equal(t, want, d.Status)
}
