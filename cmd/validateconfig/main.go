// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package validateconfigcmd

import (
	"os"
	"strings"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/sapcc/go-bits/gophercloudext"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/must"
	"github.com/sapcc/go-bits/osext"
	"github.com/spf13/cobra"

	"github.com/sapcc/horizon/internal/drivers/openstack"
	"github.com/sapcc/horizon/internal/horizon"
)

// AddCommandTo mounts this command into the command hierarchy.
func AddCommandTo(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Validates configuration files and the OpenStack environment.",
		Long: `Contains subcommands to validate the configuration of the dashboard.
This is intended to be used e.g. for preflight checks in CI deployments.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	parent.AddCommand(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:     "policy <path>",
		Example: "  horizon validate-config policy ./config/policy.yaml",
		Short:   "Validates a policy file and reports the rules that it does not define.",
		Args:    cobra.ExactArgs(1),
		Run:     runForPolicy,
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "catalog",
		Example: "  source openrc && horizon validate-config catalog",
		Short:   "Checks that the service catalog contains all services that the dashboard talks to.",
		Long: `Checks that the service catalog contains all services that the dashboard talks to.
Credentials are read from the usual OS_* environment variables.
The Cinder API version is taken from HORIZON_CINDER_API_VERSION.`,
		Args: cobra.NoArgs,
		Run:  runForCatalog,
	})
}

func runForPolicy(cmd *cobra.Command, args []string) {
	missingRules := must.Return(horizon.ValidatePolicyFile(args[0]))
	if len(missingRules) > 0 {
		logg.Info("the following rules are not defined and will always be denied: %s", strings.Join(missingRules, ", "))
		os.Exit(1)
	}
	logg.Info("all %d rules are defined", len(horizon.AllRules))
}

func runForCatalog(cmd *cobra.Command, args []string) {
	horizon.SetTaskName("validate-config")
	ctx := cmd.Context()

	cinderVersion := osext.GetenvOrDefault("HORIZON_CINDER_API_VERSION", horizon.CinderV3)
	provider, eo, err := gophercloudext.NewProviderClient(ctx, nil)
	if err != nil {
		logg.Fatal("cannot authenticate: %s", err.Error())
	}
	err = openstack.CheckServiceCatalog(provider, eo, cinderVersion)
	if err != nil {
		logg.Fatal(err.Error())
	}
	logg.Info("service catalog for region %q looks good", regionOf(eo))
}

func regionOf(eo gophercloud.EndpointOpts) string {
	if eo.Region == "" {
		return "(default)"
	}
	return eo.Region
}
