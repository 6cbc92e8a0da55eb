package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/santiagocoriap/quakescope/internal/config"
	internalgrpc "github.com/santiagocoriap/quakescope/internal/grpc"
	"github.com/santiagocoriap/quakescope/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, nil)

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "quake-alert",
		Short:         "Follow proximity earthquake alerts from a quakescope server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().String("addr", fmt.Sprintf("localhost:%d", cfg.GRPC.Port), "gRPC address of the quakescope server")

	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newListCmd())
	return rootCmd
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream alerts as they are raised",
		Example: `  quake-alert watch
  quake-alert watch --min-magnitude 5.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			minMag, _ := cmd.Flags().GetFloat64("min-magnitude")

			client, err := internalgrpc.Dial(addr)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			req := &internalgrpc.StreamAlertsRequest{}
			if cmd.Flags().Changed("min-magnitude") {
				req.MinMagnitude = &minMag
			}

			recv, err := client.StreamAlerts(ctx, req)
			if err != nil {
				return fmt.Errorf("error opening alert stream: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching alerts from %s (Ctrl+C to stop)\n", addr)
			for {
				a, err := recv.Recv()
				if err != nil {
					if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled || ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("alert stream failed: %w", err)
				}
				printAlert(out, a)
			}
		},
	}
	cmd.Flags().Float64("min-magnitude", 0, "only show alerts at or above this magnitude")
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			limit, _ := cmd.Flags().GetInt("limit")

			client, err := internalgrpc.Dial(addr)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			alerts, err := client.ListAlerts(ctx, limit)
			if err != nil {
				return fmt.Errorf("error listing alerts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(alerts) == 0 {
				fmt.Fprintln(out, "No alerts")
				return nil
			}
			for _, a := range alerts {
				printAlert(out, a)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "number of alerts to show")
	return cmd
}

func printAlert(w io.Writer, a *internalgrpc.Alert) {
	fmt.Fprintf(w, "%s  %-8s  M%.1f  depth %.0f km  %.1f km away  (%.3f, %.3f)  %s\n",
		a.CreatedAt().Format(time.RFC3339),
		a.Severity,
		a.Magnitude,
		a.Depth,
		a.DistanceKm,
		a.Latitude,
		a.Longitude,
		a.EarthquakeID,
	)
}
