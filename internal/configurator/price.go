package configurator

import (
	"context"

	"github.com/fairyhunter13/product-configurator-simulator/internal/action"
	"github.com/fairyhunter13/product-configurator-simulator/internal/connector"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
)

// updatePriceSummary refreshes prices once. Failures are reported, not retried.
func (s *Service) updatePriceSummary(ctx context.Context, a action.UpdatePriceSummary) {
	cfg, err := s.conn.ReadPriceSummary(ctx, a.Configuration)
	if err != nil {
		obs.Logger.Warn("price_refresh_failed", "owner_key", a.OwnerKey(), "config_id", a.Configuration.ConfigID, "error", err.Error())
		s.emit(action.UpdatePriceSummaryFail{
			Owner: a.OwnerKey(),
			Error: connector.SerializeFor(err, a.Configuration.ConfigID),
		})
		return
	}
	s.emit(action.UpdatePriceSummarySuccess{Configuration: cfg})
}
