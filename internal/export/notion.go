package export

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

// NotionSyncer pushes scored leads into a Notion CRM database.
type NotionSyncer struct {
	client  notion.Client
	minTier string
}

// NewNotionSyncer creates a syncer. Leads below minTier are not synced;
// an empty minTier syncs everything.
func NewNotionSyncer(client notion.Client, minTier string) *NotionSyncer {
	return &NotionSyncer{client: client, minTier: minTier}
}

// Sync upserts qualifying leads and returns how many were pushed. A
// failed upsert skips that lead and continues.
func (s *NotionSyncer) Sync(ctx context.Context, leads []*model.Lead) (int, error) {
	synced := 0
	for _, lead := range leads {
		if !s.qualifies(lead.Tier) {
			continue
		}
		_, err := notion.UpsertLead(ctx, s.client, notion.LeadPage{
			BusinessName: lead.BusinessName,
			City:         lead.City,
			Website:      lead.Website,
			Phone:        lead.Phone,
			Email:        lead.Email,
			Score:        lead.Score,
			Tier:         lead.Tier,
			Notes:        lead.Notes,
		})
		if err != nil {
			zap.L().Error("notion sync failed for lead",
				zap.String("business", lead.BusinessName),
				zap.Error(err),
			)
			continue
		}
		synced++
	}

	zap.L().Info("notion sync complete",
		zap.Int("synced", synced),
		zap.Int("total", len(leads)),
	)
	return synced, nil
}

func (s *NotionSyncer) qualifies(tier string) bool {
	switch s.minTier {
	case "", model.TierC:
		return true
	case model.TierB:
		return tier == model.TierA || tier == model.TierB
	default:
		return tier == model.TierA
	}
}
