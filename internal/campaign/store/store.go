// Package store persists campaigns. Implementations return sentinel errors;
// the service layer translates them into domain errors.
package store

import (
	"context"

	"carefund/internal/campaign/models"
	id "carefund/pkg/domain"
)

type Store interface {
	// Create assigns the next sequential ID and persists the campaign.
	Create(ctx context.Context, campaign *models.Campaign) error
	Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	List(ctx context.Context) ([]*models.Campaign, error)
}
