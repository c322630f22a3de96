// Package main provides storefrontctl, a terminal front end for the
// storefront client. It drives the same session and cart stores a
// graphical shell would, which makes it a convenient smoke-test tool
// against a running backend.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lumenmarket/storefront-client/internal/app"
	"github.com/lumenmarket/storefront-client/pkg/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliHooks surfaces the client's callbacks on the terminal. Navigation
// has no meaning here beyond telling the user where a UI would go.
type cliHooks struct{}

func (cliHooks) Notify(_ context.Context, message string) {
	fmt.Fprintln(os.Stderr, message)
}

func (cliHooks) NavigateTo(_ context.Context, route string) {
	fmt.Fprintf(os.Stderr, "-> %s\n", route)
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Storefront client command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file")

	cmd.AddCommand(
		loginCmd(&envFile),
		logoutCmd(&envFile),
		whoamiCmd(&envFile),
		registerCmd(&envFile),
		productsCmd(&envFile),
		cartCmd(&envFile),
		ordersCmd(&envFile),
		checkoutCmd(&envFile),
		addressesCmd(&envFile),
	)
	return cmd
}

// withApp assembles the client, restores persisted state, and runs the
// command body against it.
func withApp(envFile *string, fn func(ctx context.Context, a *app.App) error) error {
	ctx := context.Background()

	cfg, err := config.LoadWithEnvFile(*envFile)
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, app.Options{Hooks: cliHooks{}})
	if err != nil {
		return err
	}
	defer a.Close()

	a.Init(ctx)
	return fn(ctx, a)
}
