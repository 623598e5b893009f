// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/sapcc/go-api-declarations/bininfo"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/osext"
	"github.com/spf13/cobra"

	dashboardcmd "github.com/sapcc/horizon/cmd/dashboard"
	janitorcmd "github.com/sapcc/horizon/cmd/janitor"
	validateconfigcmd "github.com/sapcc/horizon/cmd/validateconfig"
	"github.com/sapcc/horizon/internal/horizon"

	// include all known driver implementations
	_ "github.com/sapcc/horizon/internal/drivers/openstack"
)

func main() {
	logg.ShowDebug = osext.GetenvBool("HORIZON_DEBUG")
	horizon.SetupHTTPClient()

	rootCmd := &cobra.Command{
		Use:     "horizon",
		Short:   "OpenStack Dashboard",
		Long:    "A server-rendered web dashboard for OpenStack clouds. This binary contains the server components and some validation tools.",
		Version: bininfo.VersionOr("rolling"),
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	validateconfigcmd.AddCommandTo(rootCmd)

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Server commands.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	dashboardcmd.AddCommandTo(serverCmd)
	janitorcmd.AddCommandTo(serverCmd)
	rootCmd.AddCommand(serverCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logg.Fatal(err.Error())
	}
}
