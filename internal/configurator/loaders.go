package configurator

import (
	"context"

	"golang.org/x/text/language"

	"github.com/fairyhunter13/product-configurator-simulator/internal/action"
	"github.com/fairyhunter13/product-configurator-simulator/internal/connector"
	"github.com/fairyhunter13/product-configurator-simulator/internal/i18n"
	"github.com/fairyhunter13/product-configurator-simulator/internal/model"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
)

func (s *Service) createConfiguration(ctx context.Context, a action.CreateConfiguration) {
	cfg, err := s.conn.CreateConfiguration(ctx, a.ProductCode, a.Owner)
	if err != nil {
		obs.Logger.Warn("create_failed", "owner_key", a.OwnerKey(), "product_code", a.ProductCode, "error", err.Error())
		s.emit(action.CreateConfigurationFail{Owner: a.OwnerKey(), Error: connector.Serialize(err)})
		return
	}
	s.emit(action.CreateConfigurationSuccess{Configuration: cfg})
	s.emit(action.UpdatePriceSummary{Configuration: cfg})
}

func (s *Service) readConfiguration(ctx context.Context, a action.ReadConfiguration) {
	c := a.Configuration
	cfg, err := s.conn.ReadConfiguration(ctx, c.ConfigID, a.GroupID, c.Owner)
	if err != nil {
		obs.Logger.Warn("read_failed", "owner_key", a.OwnerKey(), "config_id", c.ConfigID, "error", err.Error())
		s.emit(action.ReadConfigurationFail{Owner: a.OwnerKey(), Error: connector.Serialize(err)})
		return
	}
	s.emit(action.ReadConfigurationSuccess{Configuration: cfg})
}

func (s *Service) readCartEntry(ctx context.Context, a action.ReadCartEntryConfiguration) {
	cfg, err := s.conn.ReadConfigurationForCartEntry(ctx, a.Params)
	if err != nil {
		obs.Logger.Warn("read_cart_entry_failed", "owner_key", a.OwnerKey(), "cart_id", a.Params.CartID, "error", err.Error())
		s.emit(action.ReadCartEntryConfigurationFail{Owner: a.OwnerKey(), Error: connector.Serialize(err)})
		return
	}
	s.emit(action.ReadCartEntryConfigurationSuccess{Configuration: cfg})
	s.emit(action.UpdatePriceSummary{Configuration: cfg})
}

// getOverview emits the flattened overview as soon as it is mapped.
// Descriptions still being translated follow as a labels patch.
func (s *Service) getOverview(ctx context.Context, a action.GetConfigurationOverview) {
	c := a.Configuration
	if a.Language != "" {
		if tag, err := language.Parse(a.Language); err == nil {
			ctx = i18n.WithLanguage(ctx, tag)
		}
	}
	res, err := s.conn.GetConfigurationOverview(ctx, c.ConfigID)
	if err != nil {
		obs.Logger.Warn("overview_failed", "owner_key", a.OwnerKey(), "config_id", c.ConfigID, "error", err.Error())
		s.emit(action.GetConfigurationOverviewFail{Owner: a.OwnerKey(), Error: connector.SerializeFor(err, c.ConfigID)})
		return
	}
	select {
	case <-res.Done():
		s.emit(action.GetConfigurationOverviewSuccess{Owner: a.OwnerKey(), Overview: res.Snapshot()})
		return
	default:
	}
	provisional := res.Snapshot()
	s.emit(action.GetConfigurationOverviewSuccess{Owner: a.OwnerKey(), Overview: provisional})

	s.gated.Add(1)
	go func() {
		defer s.gated.Add(-1)
		select {
		case <-res.Done():
		case <-ctx.Done():
			return
		}
		if d := changedDescriptions(provisional, res.Snapshot()); len(d) > 0 {
			s.emit(action.GetConfigurationOverviewLabels{Owner: a.OwnerKey(), ConfigID: provisional.ConfigID, Descriptions: d})
		}
	}()
}

// changedDescriptions maps group id to description for every group whose
// description differs between before and after.
func changedDescriptions(before, after model.Overview) map[string]string {
	out := make(map[string]string)
	for i, g := range after.Groups {
		if i < len(before.Groups) && before.Groups[i].GroupDescription != g.GroupDescription {
			out[g.ID] = g.GroupDescription
		}
	}
	return out
}
