// Package provider defines the data-provider abstraction: a Provider owns one
// Fetcher per model type, and a Registry routes requests to providers by name.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

// ProviderCredential describes a credential a provider needs.
type ProviderCredential struct {
	Name        string `json:"name"` // e.g. "api_key"
	Description string `json:"description"`
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"` // e.g. "FRED_API_KEY"
}

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name        string               `json:"name"` // e.g. "fred", "treasury"
	Description string               `json:"description"`
	Website     string               `json:"website"`
	Credentials []ProviderCredential `json:"credentials"`
	Models      []ModelType          `json:"models"`
	Maturities  []string             `json:"maturities"` // treasury labels served
}

// Provider is implemented by every data source.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Init stores credentials. It fails if a required one is missing.
	Init(credentials map[string]string) error

	// Fetcher returns the fetcher for the model type, or nil.
	Fetcher(model ModelType) Fetcher

	// SupportedModels returns all model types this provider can fetch.
	SupportedModels() []ModelType

	// Ping verifies connectivity and credentials.
	Ping(ctx context.Context) error
}

// QueryParams is the parameter map passed to fetchers.
type QueryParams map[string]string

const (
	ParamSymbol    = "symbol"     // maturity label
	ParamStartDate = "start_date" // YYYY-MM-DD
	ParamEndDate   = "end_date"   // YYYY-MM-DD
	ParamProvider  = "provider"
)

// SeriesParams builds the query for one maturity over [start, end].
func SeriesParams(label string, start, end time.Time) QueryParams {
	p := QueryParams{ParamSymbol: label}
	if !start.IsZero() {
		p[ParamStartDate] = utils.FormatDate(start)
	}
	if !end.IsZero() {
		p[ParamEndDate] = utils.FormatDate(end)
	}
	return p
}

// DateRange parses the start/end parameters. Missing values are zero.
func (q QueryParams) DateRange() (start, end time.Time, err error) {
	if s := q[ParamStartDate]; s != "" {
		if start, err = utils.ParseDate(s); err != nil {
			return start, end, fmt.Errorf("invalid %s %q: %w", ParamStartDate, s, err)
		}
	}
	if s := q[ParamEndDate]; s != "" {
		if end, err = utils.ParseDate(s); err != nil {
			return start, end, fmt.Errorf("invalid %s %q: %w", ParamEndDate, s, err)
		}
	}
	return start, end, nil
}

// FetchResult wraps a fetched series with metadata.
type FetchResult struct {
	Provider  string            `json:"provider"`
	Model     ModelType         `json:"model"`
	Data      models.RateSeries `json:"data"`
	FetchedAt time.Time         `json:"fetched_at"`
	Cached    bool              `json:"cached"`
}

// Fetcher retrieves one model type.
type Fetcher interface {
	ModelType() ModelType
	Description() string
	RequiredParams() []string
	OptionalParams() []string
	Fetch(ctx context.Context, params QueryParams) (*FetchResult, error)
}

// Sentinels matched by the error types below.
var (
	ErrNotFound         = errors.New("provider not found")
	ErrUnsupported      = errors.New("not supported")
	ErrMissingParameter = errors.New("missing parameter")
	ErrCredentials      = errors.New("invalid credentials")
)

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

func (e *ErrProviderNotFound) Is(target error) bool { return target == ErrNotFound }

// ErrModelNotSupported is returned when a provider lacks a model type.
type ErrModelNotSupported struct {
	Provider string
	Model    ModelType
}

func (e *ErrModelNotSupported) Error() string {
	return fmt.Sprintf("provider %q does not support model %q", e.Provider, e.Model)
}

func (e *ErrModelNotSupported) Is(target error) bool { return target == ErrUnsupported }

// ErrMaturityNotSupported is returned when a provider has no series for a
// maturity label.
type ErrMaturityNotSupported struct {
	Provider string
	Maturity string
}

func (e *ErrMaturityNotSupported) Error() string {
	return fmt.Sprintf("provider %q has no series for maturity %q", e.Provider, e.Maturity)
}

func (e *ErrMaturityNotSupported) Is(target error) bool { return target == ErrUnsupported }

// ErrMissingParam is returned when a required query parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

func (e *ErrMissingParam) Is(target error) bool { return target == ErrMissingParameter }

// ErrInvalidCredentials is returned when provider credentials are invalid.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("invalid credentials for provider %q: %s", e.Provider, e.Detail)
}

func (e *ErrInvalidCredentials) Is(target error) bool { return target == ErrCredentials }

// ValidateParams checks that all required parameters are present in params.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if v, ok := params[key]; !ok || v == "" {
			return &ErrMissingParam{Param: key}
		}
	}
	return nil
}
