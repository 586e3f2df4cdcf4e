package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-nain/pkg/geo"
)

var routeFrom string

var routeCmd = &cobra.Command{
	Use:   "route <destination>",
	Short: "Compute and print a walking route",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRoute,
}

func init() {
	routeCmd.Flags().StringVar(&routeFrom, "from", "", "starting point as lat,lon (required)")
	_ = routeCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	from, err := parsePoint(routeFrom)
	if err != nil {
		return err
	}

	router, closeCache, err := newRouter(cfg, nil)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	res, err := router.Route(ctx, from, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderRoute(res))
	return nil
}

// parsePoint reads "lat,lon".
func parsePoint(s string) (geo.Point, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Point{}, fmt.Errorf("invalid point %q: want lat,lon", s)
	}
	var (
		p   geo.Point
		err error
	)
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return geo.Point{}, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}
	if p.Lon, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return geo.Point{}, fmt.Errorf("invalid longitude %q: %w", lon, err)
	}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("point %s out of range", p)
	}
	return p, nil
}
