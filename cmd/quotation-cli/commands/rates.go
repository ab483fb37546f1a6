package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cityfire/quotation-engine/internal/extract"
)

var ratesCmd = &cobra.Command{
	Use:   "rates <description...>",
	Short: "Estimate the market rate for an item description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		oracle, err := app.oracle(ctx)
		if err != nil {
			return err
		}
		defer oracle.Close()

		estimator := extract.NewRateEstimator(
			oracle, app.memCache(), app.oracleConfig(),
			app.cfg.Oracle.MaxRateQueryLen, app.cfg.Cache.TTL, app.logger,
		)

		description := strings.Join(args, " ")
		s := newSpinner("asking the pricing oracle...")
		s.Start()
		rate, err := estimator.Estimate(ctx, description)
		s.Stop()

		if errors.Is(err, extract.ErrNoConfidentRate) {
			warn("no confident estimate for %q", description)
			return nil
		}
		if err != nil {
			fail("estimation failed: %v", err)
			return err
		}

		success("estimated rate for %q: ₹%.2f", description, rate)
		return nil
	},
}
