// internal/service/email_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldpilot/coldpilot-backend/internal/delivery"
	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type emailFixture struct {
	svc          *EmailService
	linkRepo     *fakeLinkRepo
	scheduleRepo *fakeScheduleRepo
	quotaRepo    *fakeQuotaRepo
	generator    *fakeGenerator
	sender       *fakeSender
	published    *capturePublisher
}

func newEmailFixture() *emailFixture {
	campaignRepo := newFakeCampaignRepo(&model.Campaign{ID: 1, AccountID: 1, Name: "c", Prompt: "brief", Status: "draft"})
	prospectRepo := newFakeProspectRepo(
		&model.Prospect{ID: 100, AccountID: 1, Email: "a@x.dev", FirstName: "Ada"},
		&model.Prospect{ID: 101, AccountID: 1, Email: "b@x.dev", FirstName: "Ben"},
	)
	linkRepo := newFakeLinkRepo()
	scheduleRepo := newFakeScheduleRepo(linkRepo)
	quotaRepo := &fakeQuotaRepo{quota: &model.Quota{AccountID: 1, Resource: model.ResourceColdEmails, Used: 0, Limit: 100}}
	smtpRepo := &fakeSMTPRepo{creds: []model.SMTPCredential{
		{ID: 5, AccountID: 1, Name: "primary", Provider: "sendgrid", FromEmail: "out@x.dev", Active: true},
	}}
	generator := &fakeGenerator{}
	sender := &fakeSender{}
	published := &capturePublisher{}

	return &emailFixture{
		svc: &EmailService{
			CampaignRepo: campaignRepo,
			ProspectRepo: prospectRepo,
			LinkRepo:     linkRepo,
			ScheduleRepo: scheduleRepo,
			SMTPRepo:     smtpRepo,
			Quota:        &QuotaService{QuotaRepo: quotaRepo},
			Generator:    generator,
			Sender:       sender,
			Events:       published,
		},
		linkRepo:     linkRepo,
		scheduleRepo: scheduleRepo,
		quotaRepo:    quotaRepo,
		generator:    generator,
		sender:       sender,
		published:    published,
	}
}

func TestAddProspectsDeduplicates(t *testing.T) {
	f := newEmailFixture()

	added, err := f.svc.AddProspects(1, []int{100, 101})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = f.svc.AddProspects(1, []int{100, 101})
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestAddProspectsChecksQuotaWhenScheduleActive(t *testing.T) {
	f := newEmailFixture()
	f.scheduleRepo.active[1] = &model.SendSchedule{ID: "run-1", CampaignID: 1}
	f.quotaRepo.quota.Used = 99 // 1 left

	_, err := f.svc.AddProspects(1, []int{100, 101})
	qe, ok := appErrors.IsInsufficientQuota(err)
	require.True(t, ok)
	assert.Equal(t, 2, qe.Required)
	assert.Equal(t, 1, qe.Available)
}

func TestGenerateEmailsHappyPath(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusNotGenerated)

	res, err := f.svc.GenerateEmails(context.Background(), 1, []int{100})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)

	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusGenerated, link.EmailStatus)
	assert.Equal(t, "Hello Ada", link.GeneratedSubject)
	assert.Equal(t, "generated body", link.GeneratedBody)

	require.Len(t, f.published.events, 1)
	assert.Equal(t, model.StatusGenerated, f.published.events[0].To)
	assert.Equal(t, model.ProvenanceMachine, f.published.events[0].Provenance)
}

func TestGenerateEmailsFailsClosedOnWrongStatus(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusSent)

	res, err := f.svc.GenerateEmails(context.Background(), 1, []int{100})
	require.NoError(t, err)
	assert.Zero(t, res.Succeeded)
	assert.Contains(t, res.Results[0].Error, "cannot generate")
	assert.Zero(t, f.generator.calls)

	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusSent, link.EmailStatus)
}

func TestGenerateEmailsFailureLeavesStatus(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusNotGenerated)
	f.generator.err = errors.New("model overloaded")

	res, err := f.svc.GenerateEmails(context.Background(), 1, []int{100})
	require.NoError(t, err)
	assert.Zero(t, res.Succeeded)

	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusNotGenerated, link.EmailStatus)
}

func TestGenerateEmailsPartialBatch(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusNotGenerated)
	f.linkRepo.addLink(1, 101, model.StatusGenerated)

	res, err := f.svc.GenerateEmails(context.Background(), 1, []int{100, 101})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Requested)
	assert.Equal(t, 1, res.Succeeded)
	assert.True(t, res.Results[0].OK)
	assert.False(t, res.Results[1].OK)
}

func TestSendEmailsHappyPath(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusGenerated)

	res, err := f.svc.SendEmails(context.Background(), 1, []int{100}, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, f.sender.calls)

	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusSent, link.EmailStatus)

	// Quota charged exactly once, at confirmed success.
	assert.Equal(t, 1, f.quotaRepo.quota.Used)
}

func TestSendEmailsFailsClosedOnWrongStatus(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusNotGenerated)

	res, err := f.svc.SendEmails(context.Background(), 1, []int{100}, 5)
	require.NoError(t, err)
	assert.Zero(t, res.Succeeded)
	assert.Zero(t, f.sender.calls)
	assert.Zero(t, f.quotaRepo.quota.Used)
}

func TestSendEmailsNoActiveCredential(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusGenerated)

	_, err := f.svc.SendEmails(context.Background(), 1, []int{100}, 99)
	assert.ErrorIs(t, err, appErrors.ErrNoActiveSMTP)
}

func TestSendEmailsQuotaExhaustedLeavesGenerated(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusGenerated)
	f.quotaRepo.quota.Used = 100

	res, err := f.svc.SendEmails(context.Background(), 1, []int{100}, 5)
	require.NoError(t, err)
	assert.Zero(t, res.Succeeded)
	assert.Zero(t, f.sender.calls)

	// Not claimed: the prospect can be sent later once quota frees up.
	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusGenerated, link.EmailStatus)
}

func TestSendEmailsHardFailureBounces(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusGenerated)
	f.sender.errs = []error{&delivery.HardFailureError{Reason: "mailbox does not exist"}}

	res, err := f.svc.SendEmails(context.Background(), 1, []int{100}, 5)
	require.NoError(t, err)
	assert.Zero(t, res.Succeeded)
	// No retry on a hard failure.
	assert.Equal(t, 1, f.sender.calls)

	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusBounced, link.EmailStatus)
	assert.Zero(t, f.quotaRepo.quota.Used)
}

func TestSendEmailsRetriesTransientFailure(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusGenerated)
	f.sender.errs = []error{errors.New("connection reset")}

	res, err := f.svc.SendEmails(context.Background(), 1, []int{100}, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 2, f.sender.calls)

	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusSent, link.EmailStatus)
	assert.Equal(t, 1, f.quotaRepo.quota.Used)
}

func TestSendEmailsExhaustedRetriesBounce(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusGenerated)
	f.sender.errs = []error{
		errors.New("connection reset"),
		errors.New("connection reset"),
		errors.New("connection reset"),
	}

	res, err := f.svc.SendEmails(context.Background(), 1, []int{100}, 5)
	require.NoError(t, err)
	assert.Zero(t, res.Succeeded)
	assert.Equal(t, 3, f.sender.calls)

	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusBounced, link.EmailStatus)
	assert.Zero(t, f.quotaRepo.quota.Used)
}

func TestOverrideStatusRecordsManualProvenance(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusNotGenerated)

	// A jump the machine graph would never allow.
	err := f.svc.OverrideStatus(context.Background(), 1, 100, model.StatusReplied)
	require.NoError(t, err)

	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusReplied, link.EmailStatus)

	require.Len(t, f.linkRepo.transitions, 1)
	assert.Equal(t, model.ProvenanceManual, f.linkRepo.transitions[0].Provenance)
	require.Len(t, f.published.events, 1)
	assert.Equal(t, model.ProvenanceManual, f.published.events[0].Provenance)
}

func TestOverrideStatusRejectsUnknownValue(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusSent)

	err := f.svc.OverrideStatus(context.Background(), 1, 100, model.EmailStatus("archived"))
	assert.Error(t, err)

	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusSent, link.EmailStatus)
}

func TestReportDeliveryEventAppliesLegalEdge(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusSent)

	require.NoError(t, f.svc.ReportDeliveryEvent(context.Background(), 1, 100, model.EventOpen))
	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusOpened, link.EmailStatus)

	// opened -> clicked -> opened is legal; back to sent is not possible.
	require.NoError(t, f.svc.ReportDeliveryEvent(context.Background(), 1, 100, model.EventClick))
	require.NoError(t, f.svc.ReportDeliveryEvent(context.Background(), 1, 100, model.EventOpen))
}

func TestReportDeliveryEventRejectsIllegalEdge(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusNotGenerated)

	err := f.svc.ReportDeliveryEvent(context.Background(), 1, 100, model.EventOpen)
	assert.Error(t, err)

	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusNotGenerated, link.EmailStatus)
	assert.Empty(t, f.linkRepo.transitions)
}

func TestReportDeliveryEventHardBounce(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusSent)

	require.NoError(t, f.svc.ReportDeliveryEvent(context.Background(), 1, 100, model.EventHardBounce))
	link, _ := f.linkRepo.GetLink(1, 100)
	assert.Equal(t, model.StatusBounced, link.EmailStatus)
}

func TestListProspectsJoinsProspectData(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusGenerated)
	f.linkRepo.addLink(1, 101, model.StatusNotGenerated)

	views, err := f.svc.ListProspects(1)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Ada", views[0].Prospect.FirstName)
	assert.Equal(t, model.StatusGenerated, views[0].Link.EmailStatus)
}

func TestListTransitionsClampsLimit(t *testing.T) {
	f := newEmailFixture()
	f.linkRepo.addLink(1, 100, model.StatusNotGenerated)
	require.NoError(t, f.svc.OverrideStatus(context.Background(), 1, 100, model.StatusGenerated))

	ts, err := f.svc.ListTransitions(1, -5)
	require.NoError(t, err)
	assert.Len(t, ts, 1)
}
