package main

// cafe is the ordering tool for one cafe: a local HTTP API and a CLI over
// the same cart.
//
// GET  /menu, /menu/{id}            - menu with price labels
// GET  /cart/list                   - cart lines, total, item count
// POST /cart/add, /cart/remove, /cart/quantity, /cart/clear
// GET  /cart/size                   - pending size prompt
// POST /cart/size/open, /cart/size/select, /cart/size/dismiss
// GET  /checkout/summary            - preview
// POST /checkout/order              - hand the order off and empty the cart
// GET  /geo/reverse?lat=&lng=       - address for a picked location

import (
	"fmt"
	"os"

	"cafe-cart/config"
	"cafe-cart/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cafe",
	Short: "Cart and order hand-off for a single cafe",
	Long: `cafe keeps a shopping cart for the cafe menu, composes sized and
add-on items into cart lines, and hands the finished order to the shop's
messaging link.

Run "cafe serve" for the HTTP API or use the cart commands directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.JSON)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "cafe.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd, menuCmd, addCmd, addLineCmd, removeCmd, qtyCmd, cartCmd, clearCmd, checkoutCmd, locateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
