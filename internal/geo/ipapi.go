package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

const defaultTimeout = 10 * time.Second

// IPAPIClient resolves locations via the ipapi.co JSON API. The underlying
// HTTP client is SSRF-guarded: the looked-up address comes from request
// headers and must not be allowed to steer requests at internal hosts.
type IPAPIClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewIPAPIClient returns a client for the given base URL (default https://ipapi.co).
func NewIPAPIClient(baseURL string) *IPAPIClient {
	if baseURL == "" {
		baseURL = "https://ipapi.co"
	}
	config := safeurl.GetConfigBuilder().
		SetTimeout(defaultTimeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return &IPAPIClient{
		BaseURL:    baseURL,
		HTTPClient: safeurl.Client(config).Client,
	}
}

type ipapiResponse struct {
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Error     bool    `json:"error"`
	Reason    string  `json:"reason"`
}

// Locate resolves ip to a Location. Private and loopback addresses short-
// circuit to a "Local Network" location without any outbound call. Lookup
// failures return the sanitized IP with empty location fields and an error;
// callers degrade to UnknownLocation.
func (c *IPAPIClient) Locate(ctx context.Context, ip string) (Location, error) {
	ip = SanitizeIP(ip)
	if IsPrivateIP(ip) {
		return Location{IP: ip, City: "Local Network", Region: "Local", Country: "Local"}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", c.BaseURL, ip), nil)
	if err != nil {
		return Location{IP: ip}, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Location{IP: ip}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Location{IP: ip}, fmt.Errorf("geo: API returned status %d", resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{IP: ip}, err
	}
	if body.Error {
		return Location{IP: ip}, fmt.Errorf("geo: API error: %s", body.Reason)
	}

	return Location{
		IP:        ip,
		City:      body.City,
		Region:    body.Region,
		Country:   body.Country,
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
	}, nil
}
