// Package action defines everything that can be dispatched to the
// configurator: UI intents and the signals the effects emit in return.
package action

import "github.com/fairyhunter13/product-configurator-simulator/internal/model"

// Type names an action kind. Values are stable and appear in logs.
type Type string

const (
	TypeCreateConfiguration        Type = "create_configuration"
	TypeCreateConfigurationSuccess Type = "create_configuration_success"
	TypeCreateConfigurationFail    Type = "create_configuration_fail"

	TypeReadConfiguration        Type = "read_configuration"
	TypeReadConfigurationSuccess Type = "read_configuration_success"
	TypeReadConfigurationFail    Type = "read_configuration_fail"

	TypeUpdateConfiguration                Type = "update_configuration"
	TypeUpdateConfigurationSuccess         Type = "update_configuration_success"
	TypeUpdateConfigurationFail            Type = "update_configuration_fail"
	TypeUpdateConfigurationFinalizeSuccess Type = "update_configuration_finalize_success"
	TypeUpdateConfigurationFinalizeFail    Type = "update_configuration_finalize_fail"

	TypeUpdatePriceSummary        Type = "update_price_summary"
	TypeUpdatePriceSummarySuccess Type = "update_price_summary_success"
	TypeUpdatePriceSummaryFail    Type = "update_price_summary_fail"

	TypeGetConfigurationOverview        Type = "get_configuration_overview"
	TypeGetConfigurationOverviewSuccess Type = "get_configuration_overview_success"
	TypeGetConfigurationOverviewFail    Type = "get_configuration_overview_fail"
	TypeGetConfigurationOverviewLabels  Type = "get_configuration_overview_labels"

	TypeReadCartEntryConfiguration        Type = "read_cart_entry_configuration"
	TypeReadCartEntryConfigurationSuccess Type = "read_cart_entry_configuration_success"
	TypeReadCartEntryConfigurationFail    Type = "read_cart_entry_configuration_fail"

	TypeChangeGroup        Type = "change_group"
	TypeSetCurrentGroup    Type = "set_current_group"
	TypeSetMenuParentGroup Type = "set_menu_parent_group"

	TypeAddToCart              Type = "add_to_cart"
	TypeUpdateCartEntry        Type = "update_cart_entry"
	TypeCartProcessesIncrement Type = "cart_processes_increment"
	TypeCartAddEntrySuccess    Type = "cart_add_entry_success"
	TypeCartAddEntryFail       Type = "cart_add_entry_fail"
	TypeCartUpdateEntrySuccess Type = "cart_update_entry_success"
	TypeCartUpdateEntryFail    Type = "cart_update_entry_fail"

	TypeAddNextOwner          Type = "add_next_owner"
	TypeSetNextOwnerCartEntry Type = "set_next_owner_cart_entry"
)

// Action is anything the store reduces and the effects react to.
type Action interface {
	Type() Type
	// OwnerKey returns the configuration owner the action is scoped to.
	OwnerKey() string
}

// CreateConfiguration asks the backend for a new configuration of a product.
type CreateConfiguration struct {
	Owner       model.Owner
	ProductCode string
}

func (CreateConfiguration) Type() Type         { return TypeCreateConfiguration }
func (a CreateConfiguration) OwnerKey() string { return a.Owner.Key }

type CreateConfigurationSuccess struct {
	Configuration model.Configuration
}

func (CreateConfigurationSuccess) Type() Type         { return TypeCreateConfigurationSuccess }
func (a CreateConfigurationSuccess) OwnerKey() string { return a.Configuration.Owner.Key }

type CreateConfigurationFail struct {
	Owner string
	Error model.ErrorRecord
}

func (CreateConfigurationFail) Type() Type         { return TypeCreateConfigurationFail }
func (a CreateConfigurationFail) OwnerKey() string { return a.Owner }

// ReadConfiguration reads the configuration, optionally positioned on a group.
// An empty GroupID lets the backend choose.
type ReadConfiguration struct {
	Configuration model.Configuration
	GroupID       string
}

func (ReadConfiguration) Type() Type         { return TypeReadConfiguration }
func (a ReadConfiguration) OwnerKey() string { return a.Configuration.Owner.Key }

type ReadConfigurationSuccess struct {
	Configuration model.Configuration
}

func (ReadConfigurationSuccess) Type() Type         { return TypeReadConfigurationSuccess }
func (a ReadConfigurationSuccess) OwnerKey() string { return a.Configuration.Owner.Key }

type ReadConfigurationFail struct {
	Owner string
	Error model.ErrorRecord
}

func (ReadConfigurationFail) Type() Type         { return TypeReadConfigurationFail }
func (a ReadConfigurationFail) OwnerKey() string { return a.Owner }

// UpdateConfiguration sends one attribute change. Sequence is assigned at
// dispatch and orders the responses of overlapping updates.
type UpdateConfiguration struct {
	Configuration model.Configuration
	Sequence      uint64
}

func (UpdateConfiguration) Type() Type         { return TypeUpdateConfiguration }
func (a UpdateConfiguration) OwnerKey() string { return a.Configuration.Owner.Key }

type UpdateConfigurationSuccess struct {
	Configuration model.Configuration
	Sequence      uint64
}

func (UpdateConfigurationSuccess) Type() Type         { return TypeUpdateConfigurationSuccess }
func (a UpdateConfigurationSuccess) OwnerKey() string { return a.Configuration.Owner.Key }

// UpdateConfigurationFail carries the request payload that failed.
type UpdateConfigurationFail struct {
	Configuration model.Configuration
	Error         model.ErrorRecord
	Sequence      uint64
}

func (UpdateConfigurationFail) Type() Type         { return TypeUpdateConfigurationFail }
func (a UpdateConfigurationFail) OwnerKey() string { return a.Configuration.Owner.Key }

// UpdateConfigurationFinalizeSuccess is emitted once per settle when the
// last outstanding update of an owner succeeded.
type UpdateConfigurationFinalizeSuccess struct {
	Configuration model.Configuration
}

func (UpdateConfigurationFinalizeSuccess) Type() Type { return TypeUpdateConfigurationFinalizeSuccess }
func (a UpdateConfigurationFinalizeSuccess) OwnerKey() string {
	return a.Configuration.Owner.Key
}

// UpdateConfigurationFinalizeFail is emitted once per settle when the last
// outstanding update of an owner failed.
type UpdateConfigurationFinalizeFail struct {
	Configuration model.Configuration
	Error         model.ErrorRecord
}

func (UpdateConfigurationFinalizeFail) Type() Type { return TypeUpdateConfigurationFinalizeFail }
func (a UpdateConfigurationFinalizeFail) OwnerKey() string {
	return a.Configuration.Owner.Key
}

type UpdatePriceSummary struct {
	Configuration model.Configuration
}

func (UpdatePriceSummary) Type() Type         { return TypeUpdatePriceSummary }
func (a UpdatePriceSummary) OwnerKey() string { return a.Configuration.Owner.Key }

type UpdatePriceSummarySuccess struct {
	Configuration model.Configuration
}

func (UpdatePriceSummarySuccess) Type() Type         { return TypeUpdatePriceSummarySuccess }
func (a UpdatePriceSummarySuccess) OwnerKey() string { return a.Configuration.Owner.Key }

type UpdatePriceSummaryFail struct {
	Owner string
	Error model.ErrorRecord
}

func (UpdatePriceSummaryFail) Type() Type         { return TypeUpdatePriceSummaryFail }
func (a UpdatePriceSummaryFail) OwnerKey() string { return a.Owner }

type GetConfigurationOverview struct {
	Configuration model.Configuration
	// Language is an optional BCP 47 tag for the overview labels.
	Language string
}

func (GetConfigurationOverview) Type() Type         { return TypeGetConfigurationOverview }
func (a GetConfigurationOverview) OwnerKey() string { return a.Configuration.Owner.Key }

type GetConfigurationOverviewSuccess struct {
	Owner    string
	Overview model.Overview
}

func (GetConfigurationOverviewSuccess) Type() Type         { return TypeGetConfigurationOverviewSuccess }
func (a GetConfigurationOverviewSuccess) OwnerKey() string { return a.Owner }

type GetConfigurationOverviewFail struct {
	Owner string
	Error model.ErrorRecord
}

func (GetConfigurationOverviewFail) Type() Type         { return TypeGetConfigurationOverviewFail }
func (a GetConfigurationOverviewFail) OwnerKey() string { return a.Owner }

// GetConfigurationOverviewLabels patches group descriptions that were
// resolved after the overview itself was emitted.
type GetConfigurationOverviewLabels struct {
	Owner        string
	ConfigID     string
	Descriptions map[string]string
}

func (GetConfigurationOverviewLabels) Type() Type         { return TypeGetConfigurationOverviewLabels }
func (a GetConfigurationOverviewLabels) OwnerKey() string { return a.Owner }

type ReadCartEntryConfiguration struct {
	Params model.ReadFromCartEntryParameters
}

func (ReadCartEntryConfiguration) Type() Type         { return TypeReadCartEntryConfiguration }
func (a ReadCartEntryConfiguration) OwnerKey() string { return a.Params.Owner.Key }

type ReadCartEntryConfigurationSuccess struct {
	Configuration model.Configuration
}

func (ReadCartEntryConfigurationSuccess) Type() Type { return TypeReadCartEntryConfigurationSuccess }
func (a ReadCartEntryConfigurationSuccess) OwnerKey() string {
	return a.Configuration.Owner.Key
}

type ReadCartEntryConfigurationFail struct {
	Owner string
	Error model.ErrorRecord
}

func (ReadCartEntryConfigurationFail) Type() Type         { return TypeReadCartEntryConfigurationFail }
func (a ReadCartEntryConfigurationFail) OwnerKey() string { return a.Owner }

// ChangeGroup navigates to another group once no updates are pending.
type ChangeGroup struct {
	Configuration model.Configuration
	GroupID       string
	ParentGroupID string
}

func (ChangeGroup) Type() Type         { return TypeChangeGroup }
func (a ChangeGroup) OwnerKey() string { return a.Configuration.Owner.Key }

type SetCurrentGroup struct {
	Owner   string
	GroupID string
}

func (SetCurrentGroup) Type() Type         { return TypeSetCurrentGroup }
func (a SetCurrentGroup) OwnerKey() string { return a.Owner }

type SetMenuParentGroup struct {
	Owner   string
	GroupID string
}

func (SetMenuParentGroup) Type() Type         { return TypeSetMenuParentGroup }
func (a SetMenuParentGroup) OwnerKey() string { return a.Owner }

type AddNextOwner struct {
	Owner       string
	CartEntryNo string
}

func (AddNextOwner) Type() Type         { return TypeAddNextOwner }
func (a AddNextOwner) OwnerKey() string { return a.Owner }

// SetNextOwnerCartEntry pairs the configuration snapshot of a product owner
// with the cart entry it was added as.
type SetNextOwnerCartEntry struct {
	Configuration model.Configuration
	CartEntryNo   string
}

func (SetNextOwnerCartEntry) Type() Type         { return TypeSetNextOwnerCartEntry }
func (a SetNextOwnerCartEntry) OwnerKey() string { return a.Configuration.Owner.Key }
