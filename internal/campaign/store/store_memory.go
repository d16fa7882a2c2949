package store

import (
	"context"
	"sync"

	"carefund/internal/campaign/models"
	id "carefund/pkg/domain"
	"carefund/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	campaigns map[id.CampaignID]*models.Campaign
	nextID    id.CampaignID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{campaigns: make(map[id.CampaignID]*models.Campaign), nextID: 1}
}

func (s *InMemoryStore) Create(_ context.Context, campaign *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaign.ID = s.nextID
	s.nextID++
	s.campaigns[campaign.ID] = campaign.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	campaign, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return campaign.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, campaign *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[campaign.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.campaigns[campaign.ID] = campaign.Clone()
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Campaign, 0, len(s.campaigns))
	for _, campaign := range s.campaigns {
		out = append(out, campaign.Clone())
	}
	return out, nil
}
