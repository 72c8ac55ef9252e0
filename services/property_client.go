package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// PropertyFacts is the narrow contract consumed from the property
// collaborator: existence, ownership and the facts pricing needs.
type PropertyFacts struct {
	ID            uint        `json:"id"`
	HostID        uint        `json:"hostID"`
	Capacity      int         `json:"capacity"`
	PricePerNight float64     `json:"pricePerNight"`
	FeeSchedule   FeeSchedule `json:"feeSchedule"`
}

// PropertyClient fetches catalog facts for a property. Implementations must
// honor the context deadline; the booking service treats any failure as
// "could not verify", never as "does not exist".
type PropertyClient interface {
	GetProperty(ctx context.Context, propertyID uint) (*PropertyFacts, error)
}

// HTTPPropertyClient talks to the property service over its REST API.
type HTTPPropertyClient struct {
	BaseURL string
	Client  *http.Client
}

func NewPropertyClient() *HTTPPropertyClient {
	baseURL := os.Getenv("PROPERTY_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5002"
	}
	return &HTTPPropertyClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPPropertyClient) GetProperty(ctx context.Context, propertyID uint) (*PropertyFacts, error) {
	url := fmt.Sprintf("%s/api/properties/%d", c.BaseURL, propertyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, internalError("failed to build property request", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, dependencyError("property service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFoundError("property %d not found", propertyID)
	case resp.StatusCode != http.StatusOK:
		return nil, dependencyError(fmt.Sprintf("property service returned status %d", resp.StatusCode), nil)
	}

	var facts PropertyFacts
	if err := json.NewDecoder(resp.Body).Decode(&facts); err != nil {
		return nil, dependencyError("invalid property service response", err)
	}

	// A collaborator that states no fee policy gets the reference schedule.
	if facts.FeeSchedule == (FeeSchedule{}) {
		facts.FeeSchedule = DefaultFeeSchedule()
	}
	if facts.FeeSchedule.Currency == "" {
		facts.FeeSchedule.Currency = "USD"
	}
	return &facts, nil
}
