package configurator

import (
	"context"
	"strconv"

	"github.com/fairyhunter13/product-configurator-simulator/internal/action"
	"github.com/fairyhunter13/product-configurator-simulator/internal/connector"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
)

// addToCart runs once the owner is idle. Only a successful add records the
// next owner.
func (s *Service) addToCart(ctx context.Context, a action.AddToCart) {
	p := a.Params
	s.emit(action.CartProcessesIncrement{Owner: p.OwnerKey, CartID: p.CartID})
	mod, err := s.conn.AddToCart(ctx, p)
	if err != nil {
		obs.Logger.Warn("add_to_cart_failed", "owner_key", p.OwnerKey, "cart_id", p.CartID, "error", err.Error())
		s.emit(action.CartAddEntryFail{Owner: p.OwnerKey, CartID: p.CartID, Error: connector.Serialize(err)})
		return
	}
	if mod.Entry != nil {
		s.emit(action.AddNextOwner{Owner: p.OwnerKey, CartEntryNo: strconv.Itoa(mod.Entry.EntryNumber)})
	} else {
		obs.Logger.Warn("cart_modification_without_entry", "owner_key", p.OwnerKey, "cart_id", p.CartID)
	}
	s.emit(action.CartAddEntrySuccess{Result: action.MergeCartAdd(p, mod)})
}

func (s *Service) updateCartEntry(ctx context.Context, a action.UpdateCartEntry) {
	p := a.Params
	key := a.OwnerKey()
	s.emit(action.CartProcessesIncrement{Owner: key, CartID: p.CartID})
	mod, err := s.conn.UpdateConfigurationForCartEntry(ctx, p)
	if err != nil {
		obs.Logger.Warn("update_cart_entry_failed", "owner_key", key, "cart_id", p.CartID, "error", err.Error())
		s.emit(action.CartUpdateEntryFail{Owner: key, CartID: p.CartID, Error: connector.Serialize(err)})
		return
	}
	s.emit(action.CartUpdateEntrySuccess{Result: action.MergeCartUpdate(p, mod)})
}

// addNextOwner pairs the owner's current snapshot with its cart entry so the
// configuration lives on under the cart entry owner.
func (s *Service) addNextOwner(a action.AddNextOwner) {
	cfg, ok := s.st.Configuration(a.Owner)
	if !ok {
		obs.Logger.Warn("next_owner_without_configuration", "owner_key", a.Owner, "cart_entry", a.CartEntryNo)
		return
	}
	s.emit(action.SetNextOwnerCartEntry{Configuration: cfg, CartEntryNo: a.CartEntryNo})
}
