// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/gophercloud/v2/pagination"
	"github.com/majewsky/schwift/v2"
	"github.com/majewsky/schwift/v2/gopherschwift"
	"github.com/sapcc/go-bits/errext"
	"github.com/sapcc/go-bits/gopherpolicy"

	"github.com/sapcc/horizon/internal/horizon"
)

type backendDriver struct {
	// configuration
	Region    string `json:"region"`
	Interface string `json:"interface"`

	// state
	cinderVersion string
}

func init() {
	horizon.BackendDriverRegistry.Add(func() horizon.BackendDriver { return &backendDriver{} })
}

// PluginTypeID implements the horizon.BackendDriver interface.
func (d *backendDriver) PluginTypeID() string { return "openstack" }

// Init implements the horizon.BackendDriver interface.
func (d *backendDriver) Init(ctx context.Context, cfg horizon.Configuration) error {
	switch d.Interface {
	case "", string(gophercloud.AvailabilityPublic), string(gophercloud.AvailabilityInternal), string(gophercloud.AvailabilityAdmin):
	default:
		return fmt.Errorf("invalid value for interface: %q", d.Interface)
	}
	d.cinderVersion = cfg.CinderAPIVersion
	return nil
}

// Connect implements the horizon.BackendDriver interface.
func (d *backendDriver) Connect(ctx context.Context, token *gopherpolicy.Token) (horizon.Backend, error) {
	if token.Err != nil {
		return nil, token.Err
	}
	if token.ProviderClient == nil {
		return nil, errors.New("token does not carry a service catalog")
	}
	return &backend{
		provider: token.ProviderClient,
		eo: gophercloud.EndpointOpts{
			// note that empty values are acceptable in both fields
			Region:       d.Region,
			Availability: gophercloud.Availability(d.Interface),
		},
		cinderVersion: d.cinderVersion,
	}, nil
}

// backend implements the horizon.Backend interface. Service clients are
// created lazily because not every request talks to every service.
var _ horizon.Backend = &backend{}

type backend struct {
	provider      *gophercloud.ProviderClient
	eo            gophercloud.EndpointOpts
	cinderVersion string
}

func (b *backend) computeClient() (*gophercloud.ServiceClient, error) {
	client, err := openstack.NewComputeV2(b.provider, b.eo)
	if err != nil {
		return nil, fmt.Errorf("cannot find Nova API: %w", err)
	}
	return client, nil
}

func (b *backend) imageClient() (*gophercloud.ServiceClient, error) {
	client, err := openstack.NewImageV2(b.provider, b.eo)
	if err != nil {
		return nil, fmt.Errorf("cannot find Glance API: %w", err)
	}
	return client, nil
}

func (b *backend) networkClient() (*gophercloud.ServiceClient, error) {
	client, err := openstack.NewNetworkV2(b.provider, b.eo)
	if err != nil {
		return nil, fmt.Errorf("cannot find Neutron API: %w", err)
	}
	return client, nil
}

func (b *backend) identityClient() (*gophercloud.ServiceClient, error) {
	client, err := openstack.NewIdentityV3(b.provider, b.eo)
	if err != nil {
		return nil, fmt.Errorf("cannot find Keystone V3 API: %w", err)
	}
	return client, nil
}

func (b *backend) objectStoreClient() (*gophercloud.ServiceClient, error) {
	client, err := openstack.NewObjectStorageV1(b.provider, b.eo)
	if err != nil {
		return nil, fmt.Errorf("cannot find Swift API: %w", err)
	}
	return client, nil
}

func (b *backend) swiftAccount() (*schwift.Account, error) {
	client, err := b.objectStoreClient()
	if err != nil {
		return nil, err
	}
	return gopherschwift.Wrap(client, &gopherschwift.Options{
		UserAgent: horizon.UserAgent(),
	})
}

// Cinder is addressed by service type because Gophercloud does not ship a
// client for the v1 API anymore.
var cinderServiceTypes = map[string]string{
	horizon.CinderV1: "volume",
	horizon.CinderV2: "volumev2",
	horizon.CinderV3: "volumev3",
}

func (b *backend) blockStorageClient() (*gophercloud.ServiceClient, error) {
	eo := b.eo
	serviceType := cinderServiceTypes[b.cinderVersion]
	eo.ApplyDefaults(serviceType)
	endpointURL, err := b.provider.EndpointLocator(eo)
	if err != nil {
		return nil, fmt.Errorf("cannot find Cinder v%s API: %w", b.cinderVersion, err)
	}
	return &gophercloud.ServiceClient{
		ProviderClient: b.provider,
		Endpoint:       gophercloud.NormalizeURL(endpointURL),
		Type:           serviceType,
	}, nil
}

// CheckServiceCatalog verifies that the given service catalog contains all
// the services that the dashboard talks to.
func CheckServiceCatalog(provider *gophercloud.ProviderClient, eo gophercloud.EndpointOpts, cinderVersion string) error {
	b := &backend{provider, eo, cinderVersion}
	getClients := []func() (*gophercloud.ServiceClient, error){
		b.computeClient,
		b.blockStorageClient,
		b.imageClient,
		b.networkClient,
		b.identityClient,
		b.objectStoreClient,
	}

	var errs errext.ErrorSet
	for _, getClient := range getClients {
		_, err := getClient()
		errs.Add(err)
	}
	if !errs.IsEmpty() {
		return errors.New(errs.Join(", "))
	}
	return nil
}

// firstPage only retrieves the first page from the given pager. Gophercloud
// would otherwise follow the "next" links until the end of the list.
func firstPage(ctx context.Context, pager pagination.Pager, extract func(pagination.Page) error) error {
	return pager.EachPage(ctx, func(_ context.Context, page pagination.Page) (bool, error) {
		return false, extract(page)
	})
}

// wrapError adds context to an error returned by Gophercloud or Schwift, and
// marks 404 responses with horizon.ErrNotFound.
func wrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if gophercloud.ResponseCodeIs(err, http.StatusNotFound) || schwift.Is(err, http.StatusNotFound) {
		return fmt.Errorf("%s: %w", msg, horizon.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
