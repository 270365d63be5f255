package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/UnknownOlympus/scout/internal/service"
	"github.com/spf13/cobra"
)

func (c *cli) countiesCmd() *cobra.Command {
	var (
		lat, lon float64
		req      service.CountiesRequest
	)

	cmd := &cobra.Command{
		Use:   "counties",
		Short: "Print the counties within the radius of a point",
		Example: "  scout counties --lat 39.2904 --lon -76.6122 --state MD\n" +
			"  scout counties --lat 39.29 --lon -76.61 --state MD --provider google --google-key $KEY",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cmd.Flags().Changed("lat") {
				req.Latitude = &lat
			}
			if cmd.Flags().Changed("lon") {
				req.Longitude = &lon
			}

			a, err := c.buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.service.ResolveCounties(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "origin latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "origin longitude")
	cmd.Flags().StringVar(&req.StateCode, "state", "", "two-letter state code")
	cmd.Flags().StringVar(&req.PreferredProvider, "provider", "", "preferred provider: nominatim, locationiq or google")
	cmd.Flags().StringVar(&req.LocationIQKey, "locationiq-key", "", "LocationIQ API key")
	cmd.Flags().StringVar(&req.GoogleKey, "google-key", "", "Google Maps API key")

	return cmd
}

func (c *cli) townsCmd() *cobra.Command {
	var req service.TownsRequest

	cmd := &cobra.Command{
		Use:     "towns",
		Short:   "Print the towns inside the given counties",
		Example: `  scout towns --state MD --county "Baltimore County" --county Howard`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := c.buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.service.EnumerateTowns(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&req.StateCode, "state", "", "two-letter state code")
	cmd.Flags().StringArrayVar(&req.Counties, "county", nil, "county name, repeatable")
	cmd.Flags().StringVar(&req.APIKey, "api-key", "", "LocationIQ key used to enrich the results")

	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
