package service_test

import (
	"sort"
	"sync"
	"time"

	appErrors "github.com/o4villegas/lead-fuego-sub001/internal/errors"
	"github.com/o4villegas/lead-fuego-sub001/internal/model"
)

// In-memory repositories. Conditional updates are guarded by a mutex so
// they behave like the single-row conditional writes the Postgres
// implementations issue.

type memCampaignRepo struct {
	mu        sync.Mutex
	nextID    int
	campaigns map[int]*model.DripCampaign
	steps     map[int][]model.DripStep
}

func newMemCampaignRepo() *memCampaignRepo {
	return &memCampaignRepo{
		nextID:    1,
		campaigns: map[int]*model.DripCampaign{},
		steps:     map[int][]model.DripStep{},
	}
}

func (r *memCampaignRepo) Create(c *model.DripCampaign, steps []model.DripStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	copied := *c
	r.campaigns[c.ID] = &copied
	for i := range steps {
		steps[i].CampaignID = c.ID
	}
	r.steps[c.ID] = append([]model.DripStep{}, steps...)
	return nil
}

func (r *memCampaignRepo) GetByID(id int) (*model.DripCampaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	copied := *c
	return &copied, nil
}

func (r *memCampaignRepo) GetSteps(campaignID int) ([]model.DripStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	steps := append([]model.DripStep{}, r.steps[campaignID]...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepNumber < steps[j].StepNumber })
	return steps, nil
}

func (r *memCampaignRepo) GetStep(campaignID, stepNumber int) (*model.DripStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.steps[campaignID] {
		if s.StepNumber == stepNumber {
			copied := s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memCampaignRepo) ListCampaigns(offset, limit int, active *bool) ([]*model.DripCampaign, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	filtered := []*model.DripCampaign{}
	ids := []int{}
	for id := range r.campaigns {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	for _, id := range ids {
		c := r.campaigns[id]
		if active != nil && c.Active != *active {
			continue
		}
		copied := *c
		filtered = append(filtered, &copied)
	}
	total := len(filtered)
	if offset > total {
		return []*model.DripCampaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

func (r *memCampaignRepo) SetActive(campaignID int, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.campaigns[campaignID]; ok {
		c.Active = active
	}
	return nil
}

func (r *memCampaignRepo) GetCampaignStats(campaignID int) (map[string]int, error) {
	return map[string]int{}, nil
}

type memLeadRepo struct {
	mu    sync.Mutex
	leads map[int]*model.Lead
}

func newMemLeadRepo() *memLeadRepo {
	return &memLeadRepo{leads: map[int]*model.Lead{}}
}

func (r *memLeadRepo) GetByID(id int) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, nil
	}
	copied := *l
	return &copied, nil
}

type memJourneyRepo struct {
	mu       sync.Mutex
	nextID   int
	journeys map[int]*model.LeadJourney
}

func newMemJourneyRepo() *memJourneyRepo {
	return &memJourneyRepo{nextID: 1, journeys: map[int]*model.LeadJourney{}}
}

func (r *memJourneyRepo) Create(j *model.LeadJourney) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.journeys {
		if existing.LeadID == j.LeadID && existing.CampaignID == j.CampaignID {
			*j = *existing
			return false, nil
		}
	}
	j.ID = r.nextID
	r.nextID++
	j.CurrentStep = 0
	j.Status = model.JourneyActive
	copied := *j
	r.journeys[j.ID] = &copied
	return true, nil
}

func (r *memJourneyRepo) GetByID(id int) (*model.LeadJourney, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.journeys[id]
	if !ok {
		return nil, appErrors.NewJourneyNotFound(id)
	}
	copied := *j
	return &copied, nil
}

func (r *memJourneyRepo) GetByLeadAndCampaign(leadID, campaignID int) (*model.LeadJourney, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.journeys {
		if j.LeadID == leadID && j.CampaignID == campaignID {
			copied := *j
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memJourneyRepo) AdvanceStep(journeyID, fromStep int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.journeys[journeyID]
	if !ok || j.CurrentStep != fromStep || j.Status != model.JourneyActive {
		return false, nil
	}
	j.CurrentStep++
	return true, nil
}

func (r *memJourneyRepo) MarkCompleted(journeyID int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.journeys[journeyID]; ok && j.Status == model.JourneyActive {
		j.Status = model.JourneyCompleted
		j.CompletedAt = &at
	}
	return nil
}

func (r *memJourneyRepo) MarkFailed(journeyID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.journeys[journeyID]; ok && j.Status == model.JourneyActive {
		j.Status = model.JourneyFailed
	}
	return nil
}

func (r *memJourneyRepo) IncrementSent(journeyID int, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.journeys[journeyID]
	if !ok {
		return nil
	}
	if channel == model.ChannelEmail {
		j.EmailSent++
	} else {
		j.SMSSent++
	}
	return nil
}

func (r *memJourneyRepo) RecordEngagement(journeyID int, status string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.journeys[journeyID]
	if !ok {
		return nil
	}
	switch status {
	case model.StatusOpened:
		j.Opens++
	case model.StatusClicked:
		j.Clicks++
	}
	j.LastInteractionAt = &at
	return nil
}

func (r *memJourneyRepo) MarkConverted(journeyID int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.journeys[journeyID]; ok && !j.Converted {
		j.Converted = true
		j.Status = model.JourneyCompleted
		j.CompletedAt = &at
	}
	return nil
}

type memMessageRepo struct {
	mu       sync.Mutex
	nextID   int
	messages map[int]*model.Message
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{nextID: 1, messages: map[int]*model.Message{}}
}

func (r *memMessageRepo) Insert(msg *model.Message) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.messages {
		if existing.JourneyID == msg.JourneyID && existing.StepNumber == msg.StepNumber {
			return false, nil
		}
	}
	msg.ID = r.nextID
	r.nextID++
	copied := *msg
	r.messages[msg.ID] = &copied
	return true, nil
}

func (r *memMessageRepo) GetByID(id int) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (r *memMessageRepo) GetByProviderID(providerID string) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ProviderMessageID == providerID && providerID != "" {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memMessageRepo) SelectDue(channel string, now time.Time, limit int) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	due := []*model.Message{}
	for _, m := range r.messages {
		if m.Status == model.StatusPending && m.Channel == channel && !m.ScheduledAt.After(now) {
			copied := *m
			due = append(due, &copied)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *memMessageRepo) Claim(id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok || m.Status != model.StatusPending {
		return false, nil
	}
	m.Status = model.StatusQueued
	return true, nil
}

func (r *memMessageRepo) MarkSent(id int, providerID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok && m.Status == model.StatusQueued {
		m.Status = model.StatusSent
		m.ProviderMessageID = providerID
		m.LastError = ""
	}
	return nil
}

func (r *memMessageRepo) Requeue(id int, attemptCount int, nextAt time.Time, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok && m.Status == model.StatusQueued {
		m.Status = model.StatusPending
		m.AttemptCount = attemptCount
		m.ScheduledAt = nextAt
		m.LastError = lastError
	}
	return nil
}

func (r *memMessageRepo) MarkTerminal(id int, status string, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		m.Status = status
		m.LastError = lastError
	}
	return nil
}

func (r *memMessageRepo) TransitionStatus(id int, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	return true, nil
}

// fakeClock drives scheduling deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
