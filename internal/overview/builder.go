// Package overview turns the backend's nested overview document into the
// flat list of groups the storefront displays.
package overview

import (
	"context"
	"sync"

	"github.com/fairyhunter13/product-configurator-simulator/internal/i18n"
	"github.com/fairyhunter13/product-configurator-simulator/internal/model"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
)

// GeneralGroupID is the id the backend gives the group of unassigned
// attributes. Its description is replaced by a localized label.
const GeneralGroupID = "_GEN"

// Source is the overview document as sent by the backend.
type Source struct {
	ID                  string              `json:"id"`
	ProductCode         string              `json:"productCode,omitempty"`
	TotalNumberOfIssues int                 `json:"totalNumberOfIssues"`
	Pricing             *model.PriceSummary `json:"pricing,omitempty"`
	Groups              []SourceGroup       `json:"groups"`
}

// SourceGroup is one node of the backend's overview tree.
type SourceGroup struct {
	ID                   string        `json:"id"`
	GroupDescription     string        `json:"groupDescription"`
	CharacteristicValues []SourceValue `json:"characteristicValues,omitempty"`
	SubGroups            []SourceGroup `json:"subGroups,omitempty"`
}

type SourceValue struct {
	Characteristic string `json:"characteristic"`
	Value          string `json:"value"`
}

// Builder flattens overview documents.
type Builder struct {
	tr i18n.Translator
}

func NewBuilder(tr i18n.Translator) *Builder {
	return &Builder{tr: tr}
}

// Result holds a flattened overview whose general group labels may still be
// loading.
type Result struct {
	mu   sync.RWMutex
	ov   model.Overview
	done chan struct{}
}

// Build maps src right away. Descriptions of general groups are looked up
// in the background; Done is closed once they are final.
func (b *Builder) Build(ctx context.Context, src Source) *Result {
	r := &Result{
		ov: model.Overview{
			ConfigID:            src.ID,
			ProductCode:         src.ProductCode,
			TotalNumberOfIssues: src.TotalNumberOfIssues,
			Groups:              []model.GroupOverview{},
		},
		done: make(chan struct{}),
	}
	if src.Pricing != nil {
		ps := *src.Pricing
		r.ov.PriceSummary = &ps
	}
	var general []int
	for _, g := range src.Groups {
		r.ov.Groups = flatten(r.ov.Groups, g, &general)
	}
	if len(general) == 0 || b.tr == nil {
		close(r.done)
		return r
	}
	go r.label(ctx, b.tr, general)
	return r
}

// flatten appends g and then its subgroups in pre-order.
func flatten(out []model.GroupOverview, g SourceGroup, general *[]int) []model.GroupOverview {
	attrs := make([]model.AttributeOverview, 0, len(g.CharacteristicValues))
	for _, cv := range g.CharacteristicValues {
		attrs = append(attrs, model.AttributeOverview{Attribute: cv.Characteristic, Value: cv.Value})
	}
	if g.ID == GeneralGroupID {
		*general = append(*general, len(out))
	}
	out = append(out, model.GroupOverview{
		ID:               g.ID,
		GroupDescription: g.GroupDescription,
		Attributes:       attrs,
	})
	for _, sub := range g.SubGroups {
		out = flatten(out, sub, general)
	}
	return out
}

func (r *Result) label(ctx context.Context, tr i18n.Translator, idx []int) {
	defer close(r.done)
	text, err := tr.Translate(ctx, i18n.KeyGeneralGroup)
	if err != nil {
		obs.Logger.Warn("overview_general_label_failed", "config_id", r.ov.ConfigID, "error", err)
		return
	}
	r.mu.Lock()
	for _, i := range idx {
		r.ov.Groups[i].GroupDescription = text
	}
	r.mu.Unlock()
}

// Completed wraps an overview whose descriptions are already final.
func Completed(ov model.Overview) *Result {
	r := &Result{ov: ov, done: make(chan struct{})}
	close(r.done)
	return r
}

// Snapshot returns the overview as it is now.
func (r *Result) Snapshot() model.Overview {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ov.Clone()
}

// Done is closed when every description is final.
func (r *Result) Done() <-chan struct{} { return r.done }

// Wait blocks until descriptions are final and returns the overview.
func (r *Result) Wait(ctx context.Context) (model.Overview, error) {
	select {
	case <-r.done:
		return r.Snapshot(), nil
	case <-ctx.Done():
		return model.Overview{}, ctx.Err()
	}
}
