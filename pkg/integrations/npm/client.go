package npm

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/npmmeta/pkg/integrations"
	"github.com/matzehuels/npmmeta/pkg/manifest"
)

const (
	// DefaultRegistry is the public npm registry.
	DefaultRegistry = "https://registry.npmjs.org/"

	acceptAbbreviated = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8, */*"
	acceptFull        = "application/json"
)

// Client fetches packuments from an npm registry.
type Client struct {
	*integrations.Client
	baseURL string
	now     func() time.Time
}

// NewClient creates a client for the registry at baseURL. userAgent is sent
// with every request; fullDocument selects the full packument over the
// abbreviated install document.
func NewClient(baseURL, userAgent string, fullDocument bool, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultRegistry
	}
	accept := acceptFull
	if !fullDocument {
		accept = acceptAbbreviated
	}
	return &Client{
		Client: integrations.NewClient(map[string]string{
			"User-Agent": userAgent,
			"Accept":     accept,
		}, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

// PackageURL returns the packument URL for name. The slash of a scoped
// name is escaped, as the npm CLI does.
func (c *Client) PackageURL(name string) string {
	if strings.HasPrefix(name, "@") {
		name = strings.Replace(name, "/", "%2f", 1)
	}
	return c.baseURL + "/" + name
}

// FetchManifest downloads and normalizes the packument for name.
// LastSynced is set to the time the download completed.
func (c *Client) FetchManifest(ctx context.Context, name string) (*manifest.Manifest, error) {
	var doc packument
	if err := c.Get(ctx, c.PackageURL(name), &doc); err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = name
	}
	return normalize(&doc, c.now()), nil
}
