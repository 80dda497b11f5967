// internal/service/mocks_test.go
package service

import (
	"context"
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/delivery"
	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
	"github.com/coldpilot/coldpilot-backend/internal/events"
	"github.com/coldpilot/coldpilot-backend/internal/generation"
	"github.com/coldpilot/coldpilot-backend/internal/model"
)

// In-memory fakes for the repository interfaces. They mirror the SQL
// semantics the real implementations guarantee, in particular the
// compare-and-swap behavior of link transitions.

type fakeCampaignRepo struct {
	campaigns map[int]*model.Campaign
	nextID    int
	statuses  []string // UpdateStatus calls, in order
}

func newFakeCampaignRepo(campaigns ...*model.Campaign) *fakeCampaignRepo {
	r := &fakeCampaignRepo{campaigns: map[int]*model.Campaign{}, nextID: 1}
	for _, c := range campaigns {
		if c.ID == 0 {
			c.ID = r.nextID
		}
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
		r.campaigns[c.ID] = c
	}
	return r
}

func (r *fakeCampaignRepo) Create(c *model.Campaign) error {
	c.ID = r.nextID
	r.nextID++
	c.CreatedAt = time.Now()
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) Update(c *model.Campaign) error {
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (r *fakeCampaignRepo) ListCampaigns(accountID, offset, limit int, status string) ([]*model.Campaign, int, error) {
	var all []*model.Campaign
	for id := 1; id < r.nextID; id++ {
		c, ok := r.campaigns[id]
		if !ok || c.AccountID != accountID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		all = append(all, c)
	}
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *fakeCampaignRepo) UpdateStatus(campaignID int, status string) error {
	if c, ok := r.campaigns[campaignID]; ok {
		c.Status = status
	}
	r.statuses = append(r.statuses, status)
	return nil
}

type fakeProspectRepo struct {
	prospects map[int]*model.Prospect
}

func newFakeProspectRepo(prospects ...*model.Prospect) *fakeProspectRepo {
	r := &fakeProspectRepo{prospects: map[int]*model.Prospect{}}
	for _, p := range prospects {
		r.prospects[p.ID] = p
	}
	return r
}

func (r *fakeProspectRepo) GetByID(id int) (*model.Prospect, error) {
	return r.prospects[id], nil
}

func (r *fakeProspectRepo) ListByIDs(ids []int) ([]model.Prospect, error) {
	var out []model.Prospect
	for _, id := range ids {
		if p, ok := r.prospects[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

type linkKey struct{ campaignID, prospectID int }

type fakeLinkRepo struct {
	links       map[linkKey]*model.CampaignProspectLink
	transitions []model.StatusTransition
	nextID      int
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: map[linkKey]*model.CampaignProspectLink{}, nextID: 1}
}

func (r *fakeLinkRepo) addLink(campaignID, prospectID int, status model.EmailStatus) *model.CampaignProspectLink {
	l := &model.CampaignProspectLink{
		ID:          r.nextID,
		CampaignID:  campaignID,
		ProspectID:  prospectID,
		EmailStatus: status,
	}
	if status != model.StatusNotGenerated {
		l.GeneratedSubject = "subject"
		l.GeneratedBody = "body"
	}
	r.nextID++
	r.links[linkKey{campaignID, prospectID}] = l
	return l
}

func (r *fakeLinkRepo) GetLink(campaignID, prospectID int) (*model.CampaignProspectLink, error) {
	l, ok := r.links[linkKey{campaignID, prospectID}]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLinkRepo) CreateIfMissing(campaignID, prospectID int) (bool, error) {
	if _, ok := r.links[linkKey{campaignID, prospectID}]; ok {
		return false, nil
	}
	r.addLink(campaignID, prospectID, model.StatusNotGenerated)
	return true, nil
}

func (r *fakeLinkRepo) ListByCampaign(campaignID int) ([]model.CampaignProspectLink, error) {
	var out []model.CampaignProspectLink
	for id := 1; id < r.nextID; id++ {
		for _, l := range r.links {
			if l.ID == id && l.CampaignID == campaignID {
				out = append(out, *l)
			}
		}
	}
	return out, nil
}

func (r *fakeLinkRepo) CountByStatus(campaignID int) (map[string]int, error) {
	counts := map[string]int{}
	for _, l := range r.links {
		if l.CampaignID == campaignID {
			counts[string(l.EmailStatus)]++
		}
	}
	return counts, nil
}

func (r *fakeLinkRepo) Unlink(campaignID, prospectID int) error {
	delete(r.links, linkKey{campaignID, prospectID})
	return nil
}

func (r *fakeLinkRepo) logTransition(campaignID, prospectID int, from, to model.EmailStatus, provenance string) {
	r.transitions = append(r.transitions, model.StatusTransition{
		ID:         len(r.transitions) + 1,
		CampaignID: campaignID,
		ProspectID: prospectID,
		FromStatus: from,
		ToStatus:   to,
		Provenance: provenance,
		CreatedAt:  time.Now(),
	})
}

func (r *fakeLinkRepo) TransitionStatus(campaignID, prospectID int, from, to model.EmailStatus) error {
	l, ok := r.links[linkKey{campaignID, prospectID}]
	if !ok || l.EmailStatus != from {
		return appErrors.ErrTransitionConflict
	}
	l.EmailStatus = to
	r.logTransition(campaignID, prospectID, from, to, model.ProvenanceMachine)
	return nil
}

func (r *fakeLinkRepo) TransitionToGenerated(campaignID, prospectID int, subject, body string) error {
	l, ok := r.links[linkKey{campaignID, prospectID}]
	if !ok || l.EmailStatus != model.StatusNotGenerated {
		return appErrors.ErrTransitionConflict
	}
	l.EmailStatus = model.StatusGenerated
	l.GeneratedSubject = subject
	l.GeneratedBody = body
	r.logTransition(campaignID, prospectID, model.StatusNotGenerated, model.StatusGenerated, model.ProvenanceMachine)
	return nil
}

func (r *fakeLinkRepo) MarkGenerationFailed(campaignID, prospectID int, lastError string) error {
	l, ok := r.links[linkKey{campaignID, prospectID}]
	if !ok {
		return nil
	}
	l.GenerationFailed = true
	l.LastError = lastError
	return nil
}

func (r *fakeLinkRepo) OverrideStatus(campaignID, prospectID int, to model.EmailStatus) (model.EmailStatus, error) {
	l, ok := r.links[linkKey{campaignID, prospectID}]
	if !ok {
		return "", appErrors.NewProspectNotFound(prospectID)
	}
	from := l.EmailStatus
	l.EmailStatus = to
	r.logTransition(campaignID, prospectID, from, to, model.ProvenanceManual)
	return from, nil
}

func (r *fakeLinkRepo) ListTransitions(campaignID int, limit int) ([]model.StatusTransition, error) {
	var out []model.StatusTransition
	for i := len(r.transitions) - 1; i >= 0 && len(out) < limit; i-- {
		if r.transitions[i].CampaignID == campaignID {
			out = append(out, r.transitions[i])
		}
	}
	return out, nil
}

type fakeScheduleRepo struct {
	active     map[int]*model.SendSchedule
	items      map[int]*model.SendQueueItem
	nextItemID int
	links      *fakeLinkRepo // CommitRun initializes links, like the real tx
}

func newFakeScheduleRepo(links *fakeLinkRepo) *fakeScheduleRepo {
	return &fakeScheduleRepo{
		active:     map[int]*model.SendSchedule{},
		items:      map[int]*model.SendQueueItem{},
		nextItemID: 1,
		links:      links,
	}
}

func (r *fakeScheduleRepo) CommitRun(sched *model.SendSchedule, items []model.SendQueueItem) error {
	if prev, ok := r.active[sched.CampaignID]; ok {
		now := time.Now()
		prev.CancelledAt = &now
		for _, it := range r.items {
			if it.ScheduleID == prev.ID && it.Status == model.QueueItemQueued {
				it.Status = model.QueueItemCancelled
			}
		}
	}
	sched.CreatedAt = time.Now()
	r.active[sched.CampaignID] = sched
	for i := range items {
		it := items[i]
		it.ID = r.nextItemID
		r.nextItemID++
		r.items[it.ID] = &it
		if r.links != nil {
			r.links.CreateIfMissing(it.CampaignID, it.ProspectID)
		}
	}
	return nil
}

func (r *fakeScheduleRepo) GetActiveSchedule(campaignID int) (*model.SendSchedule, error) {
	s, ok := r.active[campaignID]
	if !ok || s.CancelledAt != nil {
		return nil, nil
	}
	return s, nil
}

func (r *fakeScheduleRepo) CancelSchedule(campaignID int, now time.Time) (int, error) {
	s, ok := r.active[campaignID]
	if !ok || s.CancelledAt != nil {
		return 0, nil
	}
	s.CancelledAt = &now
	cancelled := 0
	for _, it := range r.items {
		if it.ScheduleID == s.ID && it.Status == model.QueueItemQueued && it.SendAt.After(now) {
			it.Status = model.QueueItemCancelled
			cancelled++
		}
	}
	return cancelled, nil
}

func (r *fakeScheduleRepo) ClaimDue(now time.Time, limit int) ([]model.SendQueueItem, error) {
	var out []model.SendQueueItem
	for id := 1; id < r.nextItemID && len(out) < limit; id++ {
		it, ok := r.items[id]
		if !ok || it.Status != model.QueueItemQueued || it.SendAt.After(now) {
			continue
		}
		it.Status = model.QueueItemDispatched
		out = append(out, *it)
	}
	return out, nil
}

func (r *fakeScheduleRepo) GetItemByID(id int) (*model.SendQueueItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *fakeScheduleRepo) MarkItem(id int, status, lastError string) error {
	if it, ok := r.items[id]; ok {
		it.Status = status
		it.LastError = lastError
	}
	return nil
}

func (r *fakeScheduleRepo) IncrementAttempt(id int) (int, error) {
	it, ok := r.items[id]
	if !ok {
		return 0, nil
	}
	it.AttemptCount++
	return it.AttemptCount, nil
}

type fakeQuotaRepo struct {
	quota *model.Quota // nil means no row
}

func (r *fakeQuotaRepo) Get(accountID int, resource string) (*model.Quota, error) {
	if r.quota == nil {
		return nil, nil
	}
	cp := *r.quota
	return &cp, nil
}

func (r *fakeQuotaRepo) ConsumeOne(accountID int, resource string) (bool, error) {
	if r.quota == nil || r.quota.Used >= r.quota.Limit {
		return false, nil
	}
	r.quota.Used++
	return true, nil
}

type fakeSMTPRepo struct {
	creds []model.SMTPCredential
}

func (r *fakeSMTPRepo) GetActive(accountID, id int) (*model.SMTPCredential, error) {
	for _, c := range r.creds {
		if c.ID == id && c.AccountID == accountID && c.Active {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSMTPRepo) ListActive(accountID int) ([]model.SMTPCredential, error) {
	var out []model.SMTPCredential
	for _, c := range r.creds {
		if c.AccountID == accountID && c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeHolidayRepo struct {
	dates []time.Time
}

func (r *fakeHolidayRepo) ListFrom(from time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, d := range r.dates {
		if !d.Before(from) {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeGenerator struct {
	err   error
	calls int
}

func (g *fakeGenerator) Generate(ctx context.Context, campaign *model.Campaign, prospect *model.Prospect) (*generation.Email, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &generation.Email{Subject: "Hello " + prospect.FirstName, Body: "generated body"}, nil
}

// fakeSender returns its scripted errors in order, then succeeds.
type fakeSender struct {
	errs  []error
	calls int
}

func (s *fakeSender) Send(ctx context.Context, cred *model.SMTPCredential, email delivery.OutboundEmail) error {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	return nil
}

// capturePublisher records every published transition event.
type capturePublisher struct {
	events []events.TransitionEvent
}

func (p *capturePublisher) PublishTransition(ctx context.Context, ev events.TransitionEvent) error {
	p.events = append(p.events, ev)
	return nil
}
