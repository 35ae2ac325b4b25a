package configurator

import (
	"context"

	"github.com/fairyhunter13/product-configurator-simulator/internal/action"
	"github.com/fairyhunter13/product-configurator-simulator/internal/connector"
	"github.com/fairyhunter13/product-configurator-simulator/internal/model"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
	"github.com/fairyhunter13/product-configurator-simulator/internal/store"
)

// updateConfiguration sends one sparse change. Updates are never cancelled
// or coalesced: each one answers with its own success or fail.
func (s *Service) updateConfiguration(ctx context.Context, a action.UpdateConfiguration) {
	cfg, err := s.conn.UpdateConfiguration(ctx, a.Configuration)
	if err != nil {
		obs.Logger.Warn("update_failed",
			"owner_key", a.OwnerKey(),
			"config_id", a.Configuration.ConfigID,
			"sequence", a.Sequence,
			"error", err.Error(),
		)
		s.emit(action.UpdateConfigurationFail{
			Configuration: a.Configuration,
			Error:         connector.SerializeFor(err, a.Configuration.ConfigID),
			Sequence:      a.Sequence,
		})
		return
	}
	s.emit(action.UpdateConfigurationSuccess{Configuration: cfg, Sequence: a.Sequence})
}

// settle runs once per zero crossing of an owner's pending updates.
func (s *Service) settle(t store.Transition) {
	obs.Logger.Info("owner_settled",
		"owner_key", t.OwnerKey,
		"config_id", t.Final.ConfigID,
		"succeeded", t.Succeeded,
	)
	if !t.Succeeded {
		s.emit(action.UpdateConfigurationFinalizeFail{Configuration: t.Final, Error: t.Error})
		return
	}
	s.emit(action.UpdateConfigurationFinalizeSuccess{Configuration: t.Final})
	s.emit(action.UpdatePriceSummary{Configuration: t.Final})
	if id := groupWithAttributes(t.Final.Groups); id != "" {
		s.emit(action.SetCurrentGroup{Owner: t.OwnerKey, GroupID: id})
	}
}

// resync re-reads the whole configuration after a failed settle. The empty
// group id lets the backend pick the group.
func (s *Service) resync(a action.UpdateConfigurationFinalizeFail) {
	s.emit(action.ReadConfiguration{Configuration: a.Configuration, GroupID: ""})
}

// groupWithAttributes picks the group the UI lands on after a settle: the
// last group in document order that has attributes. Groups without
// attributes are searched through their subgroups, last first, before the
// scan moves to earlier siblings.
func groupWithAttributes(groups []model.Group) string {
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if len(g.Attributes) > 0 {
			return g.ID
		}
		if id := groupWithAttributes(g.SubGroups); id != "" {
			return id
		}
	}
	return ""
}

// changeGroup runs once the owner is idle.
func (s *Service) changeGroup(ctx context.Context, a action.ChangeGroup) {
	key := a.OwnerKey()
	cfg, err := s.conn.ReadConfiguration(ctx, a.Configuration.ConfigID, a.GroupID, a.Configuration.Owner)
	if err != nil {
		obs.Logger.Warn("change_group_failed", "owner_key", key, "group_id", a.GroupID, "error", err.Error())
		s.emit(action.ReadConfigurationFail{Owner: key, Error: connector.Serialize(err)})
		return
	}
	s.emit(action.SetCurrentGroup{Owner: key, GroupID: a.GroupID})
	s.emit(action.SetMenuParentGroup{Owner: key, GroupID: a.ParentGroupID})
	s.emit(action.ReadConfigurationSuccess{Configuration: cfg})
}
