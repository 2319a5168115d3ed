package repository

import (
	"testing"
	"time"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteConfigUpsertKeepsOneRow(t *testing.T) {
	db := dbtest.New(t)
	repo := NewSiteConfigRepository(db)

	on, err := repo.IsMaintenanceMode()
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, repo.SetValue(models.CONFIG_MAINTENANCE_MODE, "true"))
	require.NoError(t, repo.SetValue(models.CONFIG_MAINTENANCE_MODE, "true"))

	on, err = repo.IsMaintenanceMode()
	require.NoError(t, err)
	assert.True(t, on)

	var count int64
	require.NoError(t, db.Model(&models.SiteConfig{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewsletterSubscribeReactivates(t *testing.T) {
	repo := NewNewsletterRepository(dbtest.New(t))

	created, err := repo.Subscribe("Reader@Example.org")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Subscribe("reader@example.org")
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, repo.Unsubscribe("reader@example.org"))
	emails, err := repo.ActiveEmails()
	require.NoError(t, err)
	assert.Empty(t, emails)

	created, err = repo.Subscribe("reader@example.org")
	require.NoError(t, err)
	assert.True(t, created)
	emails, err = repo.ActiveEmails()
	require.NoError(t, err)
	assert.Equal(t, []string{"reader@example.org"}, emails)
}

func TestEventFindRSVPByUserOrGuest(t *testing.T) {
	repo := NewEventRepository(dbtest.New(t))

	event := &models.Event{Title: "Gala", DateTime: time.Now().Add(24 * time.Hour), Status: models.EVENT_STATUS_PUBLISHED}
	require.NoError(t, repo.Create(event))

	userID := uint(7)
	require.NoError(t, repo.CreateRSVP(&models.EventRSVP{EventID: event.ID, UserID: &userID, GuestEmail: "member@example.org", TicketID: "AAAA1111"}))
	require.NoError(t, repo.CreateRSVP(&models.EventRSVP{EventID: event.ID, GuestEmail: "guest@example.org", TicketID: "BBBB2222"}))

	byUser, err := repo.FindRSVP(event.ID, &userID, "")
	require.NoError(t, err)
	require.NotNil(t, byUser)
	assert.Equal(t, "AAAA1111", byUser.TicketID)

	byGuest, err := repo.FindRSVP(event.ID, nil, "Guest@Example.org")
	require.NoError(t, err)
	require.NotNil(t, byGuest)
	assert.Equal(t, "BBBB2222", byGuest.TicketID)

	missing, err := repo.FindRSVP(event.ID, nil, "nobody@example.org")
	require.NoError(t, err)
	assert.Nil(t, missing)

	count, err := repo.CountRSVPs(event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.Delete(event.ID))
	count, err = repo.CountRSVPs(event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestApplicationStats(t *testing.T) {
	db := dbtest.New(t)
	repo := NewApplicationRepository(db)

	u, err := models.NewUser("Ada", "Lovelace", "ada@example.org", "")
	require.NoError(t, err)
	require.NoError(t, NewUserRepository(db).Create(u))

	require.NoError(t, repo.CreatePartner(&models.PartnerApplication{UserID: u.ID, OrgName: "Org", OrgType: "NGO", PartnershipType: "Venue", ProposalDetails: "hall", Status: models.APPLICATION_STATUS_PENDING}))
	require.NoError(t, repo.CreatePartner(&models.PartnerApplication{UserID: u.ID, OrgName: "Org2", OrgType: "NGO", PartnershipType: "Venue", ProposalDetails: "hall", Status: "pending"}))
	require.NoError(t, repo.CreateVolunteer(&models.VolunteerApplication{UserID: u.ID, Country: "CA", DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), Motivation: "m", Skills: "s", Status: models.APPLICATION_STATUS_APPROVED}))

	pending, err := repo.CountPendingPartners()
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.PartnersApplied)
	assert.Equal(t, int64(1), stats.VolunteersApplied)
	assert.Equal(t, int64(1), stats.VolunteersApproved)

	existing, err := repo.GetVolunteerByUser(u.ID)
	require.NoError(t, err)
	require.NotNil(t, existing)

	none, err := repo.GetMentorshipByUser(u.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFactoryReturnsSameRepositories(t *testing.T) {
	f := NewFactory(dbtest.New(t))
	assert.Same(t, f.GetRepositories(), f.GetRepositories())
	assert.NotNil(t, f.DB())
}
