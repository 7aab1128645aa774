package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cafe-cart/cart"
	"cafe-cart/compose"
	models "cafe-cart/model"
	"cafe-cart/order"
	"cafe-cart/service"

	"github.com/spf13/cobra"
)

var (
	addSize   string
	addAddons []string

	checkoutMobile  string
	checkoutAddress string
	checkoutLat     float64
	checkoutLng     float64

	locateLat float64
	locateLng float64
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the menu",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		printMenu(cmd.OutOrStdout(), a.svc.Menu())
		return nil
	}),
}

var addCmd = &cobra.Command{
	Use:   "add <item-id>",
	Short: "Add a menu item to the cart",
	Long: `Adds a menu item. Items that come in sizes need --size; without it
you are asked to pick one. An empty answer cancels.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		l, err := a.svc.Add(args[0], addSize, addAddons)
		if errors.Is(err, compose.ErrSizeRequired) {
			l, err = promptSize(a.svc, cmd.InOrStdin(), cmd.OutOrStdout())
		}
		if err != nil {
			return err
		}
		if l.Name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", l.Name, order.Amount(currency(), l.Price))
		printCart(cmd.OutOrStdout(), a.svc.Cart())
		return nil
	}),
}

var addLineCmd = &cobra.Command{
	Use:   "add-line <name> <price>",
	Short: "Add a line that is not on the menu",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		printCart(cmd.OutOrStdout(), a.svc.AddLine(args[0], args[1]))
		return nil
	}),
}

var removeCmd = &cobra.Command{
	Use:   "remove <position>",
	Short: "Remove a cart line by its position in 'cafe cart'",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		pos, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("position must be a number: %w", err)
		}
		printCart(cmd.OutOrStdout(), a.svc.Remove(pos-1))
		return nil
	}),
}

var qtyCmd = &cobra.Command{
	Use:     "qty <position> <delta>",
	Short:   "Change a line's quantity; reaching 0 removes it",
	Example: "  cafe qty 1 2\n  cafe qty 2 -- -1",
	Args:    cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		pos, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("position must be a number: %w", err)
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("delta must be a number: %w", err)
		}
		printCart(cmd.OutOrStdout(), a.svc.UpdateQuantity(pos-1, delta))
		return nil
	}),
}

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show the cart",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		printCart(cmd.OutOrStdout(), a.svc.Cart())
		return nil
	}),
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		printCart(cmd.OutOrStdout(), a.svc.Clear())
		return nil
	}),
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Send the order and empty the cart",
	Long: `Formats the cart with your delivery details and hands it to the shop.
With --lat and --lng and no --address, the address is looked up.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		out := cmd.OutOrStdout()
		d := models.DeliveryDetails{Mobile: checkoutMobile, Address: checkoutAddress}
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
			if d.Address == "" {
				loc := a.svc.Locate(cmd.Context(), checkoutLat, checkoutLng)
				if loc.Advisory != "" {
					fmt.Fprintln(out, loc.Advisory)
				}
				d.Address = loc.Details.Address
			}
			d.Location = &models.LatLng{Lat: checkoutLat, Lng: checkoutLng}
		}

		r, err := a.svc.Checkout(cmd.Context(), d)
		if order.IsValidation(err) {
			return fmt.Errorf("%w (use --mobile and --address)", err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order placed! reference %s, total %s\n", r.Reference, order.Amount(currency(), r.Total))
		return nil
	}),
}

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Look up the address for a location",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		loc := a.svc.Locate(cmd.Context(), locateLat, locateLng)
		out := cmd.OutOrStdout()
		if loc.Details.Address != "" {
			fmt.Fprintln(out, loc.Details.Address)
		}
		if loc.MapLink != "" {
			fmt.Fprintln(out, loc.MapLink)
		}
		if loc.Advisory != "" {
			fmt.Fprintln(out, loc.Advisory)
		}
		return nil
	}),
}

func init() {
	addCmd.Flags().StringVar(&addSize, "size", "", "size label, e.g. Full")
	addCmd.Flags().StringArrayVar(&addAddons, "addon", nil, "add-on label (repeatable)")

	checkoutCmd.Flags().StringVar(&checkoutMobile, "mobile", "", "mobile number")
	checkoutCmd.Flags().StringVar(&checkoutAddress, "address", "", "delivery address")
	checkoutCmd.Flags().Float64Var(&checkoutLat, "lat", 0, "delivery latitude")
	checkoutCmd.Flags().Float64Var(&checkoutLng, "lng", 0, "delivery longitude")

	locateCmd.Flags().Float64Var(&locateLat, "lat", 0, "latitude")
	locateCmd.Flags().Float64Var(&locateLng, "lng", 0, "longitude")
	_ = locateCmd.MarkFlagRequired("lat")
	_ = locateCmd.MarkFlagRequired("lng")
}

// withApp builds the app for one command and closes it afterwards.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

// promptSize asks for a size until a valid one is given. An empty answer
// or end of input dismisses the prompt and returns a zero Line.
func promptSize(svc service.ServiceInterface, in io.Reader, out io.Writer) (compose.Line, error) {
	sc := bufio.NewScanner(in)
	for {
		p := svc.SizePrompt()
		if p.State != compose.Open.String() {
			return compose.Line{}, compose.ErrSelectorClosed
		}
		labels := make([]string, 0, len(p.Sizes))
		for _, s := range p.Sizes {
			labels = append(labels, fmt.Sprintf("%s %s", s.Label, order.Amount(currency(), s.Price)))
		}
		fmt.Fprintf(out, "%s comes in: %s\nsize> ", p.Name, strings.Join(labels, ", "))

		if !sc.Scan() {
			svc.DismissSize()
			return compose.Line{}, sc.Err()
		}
		answer := strings.TrimSpace(sc.Text())
		if answer == "" {
			svc.DismissSize()
			return compose.Line{}, nil
		}
		l, err := svc.ChooseSize(answer)
		if errors.Is(err, compose.ErrUnknownSize) {
			fmt.Fprintf(out, "no size %q\n", answer)
			continue
		}
		return l, err
	}
}

func printMenu(out io.Writer, cats []service.CategoryDTO) {
	for _, c := range cats {
		fmt.Fprintf(out, "%s\n", c.Name)
		for _, it := range c.Items {
			fmt.Fprintf(out, "  %-24s %-32s %s\n", it.ID, it.Name, it.PriceLabel)
			for _, ad := range it.Addons {
				fmt.Fprintf(out, "  %-24s   + %s %s\n", "", ad.Label, order.Amount(currency(), ad.Price))
			}
		}
	}
}

func printCart(out io.Writer, s cart.Snapshot) {
	if len(s.Lines) == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return
	}
	for i, l := range s.Lines {
		fmt.Fprintf(out, "%d. %s × %d = %s\n", i+1, l.Name, l.Quantity, order.Amount(currency(), l.Subtotal()))
	}
	fmt.Fprintf(out, "Total: %s (%d items)\n", order.Amount(currency(), s.Total), s.ItemCount)
}

func currency() string {
	if cfg == nil || cfg.Shop.CurrencySymbol == "" {
		return order.DefaultCurrency
	}
	return cfg.Shop.CurrencySymbol
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
