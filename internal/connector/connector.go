// Package connector defines the remote configurator contract and its error
// type.
package connector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fairyhunter13/product-configurator-simulator/internal/model"
	"github.com/fairyhunter13/product-configurator-simulator/internal/overview"
)

// Connector performs configurator operations against the backend. Every call
// is single-shot; failures come back as *RemoteError or a context error.
type Connector interface {
	CreateConfiguration(ctx context.Context, productCode string, owner model.Owner) (model.Configuration, error)
	ReadConfiguration(ctx context.Context, configID, groupID string, owner model.Owner) (model.Configuration, error)
	UpdateConfiguration(ctx context.Context, cfg model.Configuration) (model.Configuration, error)
	ReadPriceSummary(ctx context.Context, cfg model.Configuration) (model.Configuration, error)
	// GetConfigurationOverview returns as soon as the tree is mapped; labels
	// that are still being resolved complete on the Result.
	GetConfigurationOverview(ctx context.Context, configID string) (*overview.Result, error)
	AddToCart(ctx context.Context, p model.AddToCartParameters) (model.CartModification, error)
	UpdateConfigurationForCartEntry(ctx context.Context, p model.UpdateForCartEntryParameters) (model.CartModification, error)
	ReadConfigurationForCartEntry(ctx context.Context, p model.ReadFromCartEntryParameters) (model.Configuration, error)
}

// RemoteError is a failed remote call. Status is zero when no response was
// received.
type RemoteError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("remote call failed: %v", e.Err)
	}
	if msg := bodyMessage(e.Body); msg != "" {
		return fmt.Sprintf("remote call failed with status %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("remote call failed with status %d", e.Status)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// bodyMessage pulls a human readable message out of an error body. The
// backend answers {"errors":[{"message":...,"type":...}]}; other JSON shapes
// with a top level message or error field are accepted too.
func bodyMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	for _, path := range []string{"errors.0.message", "message", "error"} {
		if r := gjson.GetBytes(body, path); r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

// Serialize converts any connector failure into a record that can be stored
// and sent to the UI. Transport internals are dropped.
func Serialize(err error) model.ErrorRecord {
	if err == nil {
		return model.ErrorRecord{}
	}
	var re *RemoteError
	if errors.As(err, &re) {
		rec := model.ErrorRecord{Status: re.Status, Message: bodyMessage(re.Body)}
		if rec.Message == "" {
			if re.Err != nil {
				rec.Message = re.Err.Error()
			} else {
				rec.Message = re.Error()
			}
		}
		if t := gjson.GetBytes(re.Body, "errors.0.type"); t.Exists() {
			rec.Details = t.String()
		} else if len(re.Body) > 0 && !gjson.ValidBytes(re.Body) {
			rec.Details = string(re.Body)
		}
		return rec
	}
	return model.ErrorRecord{Message: err.Error()}
}

// SerializeFor is Serialize with the failing configuration id attached so the
// UI can correlate the error.
func SerializeFor(err error, configID string) model.ErrorRecord {
	rec := Serialize(err)
	rec.ConfigID = configID
	return rec
}
