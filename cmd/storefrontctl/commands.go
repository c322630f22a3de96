package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/lumenmarket/storefront-client/internal/api"
	"github.com/lumenmarket/storefront-client/internal/app"
	"github.com/lumenmarket/storefront-client/internal/cart"
	"github.com/spf13/cobra"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func loginCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Authenticate and persist the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				if err := a.Login(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("logged in as %s\n", a.Session.Username())
				return nil
			})
		},
	}
}

func logoutCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear persisted credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				a.Logout(ctx)
				return nil
			})
		},
	}
}

func whoamiCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				identity := a.Session.Identity()
				if identity == nil {
					fmt.Println("not logged in")
					return nil
				}
				fmt.Printf("%s (#%d, %s)\n", identity.Username, identity.UserID, identity.Role)
				return nil
			})
		},
	}
}

func registerCmd(envFile *string) *cobra.Command {
	var phone string
	cmd := &cobra.Command{
		Use:   "register <username> <email> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				input := api.RegisterInput{
					Username: args[0],
					Email:    args[1],
					Password: args[2],
					Phone:    phone,
				}
				if err := a.Session.Register(ctx, input); err != nil {
					return err
				}
				fmt.Println("account created, log in to continue")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	return cmd
}

func productsCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}

	var (
		page       int
		pageSize   int
		keyword    string
		categoryID int64
		sort       string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				result, err := a.Products.List(ctx, api.ListProductsParams{
					Page:       page,
					PageSize:   pageSize,
					Keyword:    keyword,
					CategoryID: categoryID,
					Sort:       sort,
				})
				if err != nil {
					return err
				}
				table := newTable()
				fmt.Fprintln(table, "ID\tNAME\tPRICE\tSTOCK")
				for _, product := range result.Items {
					fmt.Fprintf(table, "%d\t%s\t%s\t%d\n",
						product.ProductID, product.ProductName, product.Price.StringFixed(2), product.StockQuantity)
				}
				table.Flush()
				fmt.Printf("page %d of %d (%d products)\n", result.Page, result.TotalPages, result.Total)
				return nil
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "Page number")
	list.Flags().IntVar(&pageSize, "page-size", 12, "Page size")
	list.Flags().StringVar(&keyword, "keyword", "", "Search keyword")
	list.Flags().Int64Var(&categoryID, "category", 0, "Category filter")
	list.Flags().StringVar(&sort, "sort", "", "Sort order")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show product detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				product, err := a.Products.Detail(ctx, id)
				if err != nil {
					return err
				}
				fmt.Printf("%s\n%s\nprice %s, %d in stock\n",
					product.ProductName, product.Description, product.Price.StringFixed(2), product.StockQuantity)
				return nil
			})
		},
	}

	categories := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				result, err := a.Products.Categories(ctx)
				if err != nil {
					return err
				}
				table := newTable()
				fmt.Fprintln(table, "ID\tNAME")
				for _, category := range result {
					fmt.Fprintf(table, "%d\t%s\n", category.CategoryID, category.CategoryName)
				}
				return table.Flush()
			})
		},
	}

	cmd.AddCommand(list, show, categories)
	return cmd
}

func printCart(store *cart.Store) {
	items := store.Items()
	if len(items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	table := newTable()
	fmt.Fprintln(table, "SEL\tID\tNAME\tPRICE\tQTY")
	for _, item := range items {
		mark := " "
		if item.Selected {
			mark = "x"
		}
		fmt.Fprintf(table, "[%s]\t%d\t%s\t%s\t%d\n",
			mark, item.ProductID, item.ProductName, item.Price.StringFixed(2), item.Quantity)
	}
	table.Flush()
	fmt.Printf("%d items, total %s (selected %s)\n",
		store.TotalItems(), store.TotalAmount(), store.SelectedAmount())
}

func cartCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the cart",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				printCart(a.CartSt)
				return nil
			})
		},
	}

	var quantity int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				if err := a.CartSt.AddToCart(ctx, cart.ByID(id), quantity); err != nil {
					return err
				}
				printCart(a.CartSt)
				return nil
			})
		},
	}
	add.Flags().IntVar(&quantity, "qty", 1, "Quantity to add")

	set := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set a line item quantity (0 removes)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				if err := a.CartSt.UpdateQuantity(ctx, id, qty); err != nil {
					return err
				}
				printCart(a.CartSt)
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "rm <product-id>",
		Short: "Remove a line item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				if err := a.CartSt.RemoveFromCart(ctx, id); err != nil {
					return err
				}
				printCart(a.CartSt)
				return nil
			})
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				return a.CartSt.ClearCart(ctx)
			})
		},
	}

	return appendCartSelection(cmd, envFile, list, add, set, remove, clear)
}

// Selection commands only flip local flags; printing the cart after
// each one makes the effect visible.
func appendCartSelection(cmd *cobra.Command, envFile *string, base ...*cobra.Command) *cobra.Command {
	toggle := &cobra.Command{
		Use:   "select <product-id>",
		Short: "Toggle a line item's selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				a.CartSt.ToggleSelect(id)
				printCart(a.CartSt)
				return nil
			})
		},
	}

	var selectAll bool
	all := &cobra.Command{
		Use:   "select-all",
		Short: "Select or deselect every line item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				a.CartSt.ToggleSelectAll(selectAll)
				printCart(a.CartSt)
				return nil
			})
		},
	}
	all.Flags().BoolVar(&selectAll, "selected", true, "Target selection state")

	rmSelected := &cobra.Command{
		Use:   "rm-selected",
		Short: "Remove every selected line item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				if err := a.CartSt.RemoveSelectedItems(ctx); err != nil {
					return err
				}
				printCart(a.CartSt)
				return nil
			})
		},
	}

	cmd.AddCommand(append(base, toggle, all, rmSelected)...)
	return cmd
}

func ordersCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage orders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				result, err := a.Orders.List(ctx, api.ListOrdersParams{})
				if err != nil {
					return err
				}
				table := newTable()
				fmt.Fprintln(table, "ID\tSTATUS\tTOTAL\tCREATED")
				for _, order := range result.Items {
					fmt.Fprintf(table, "%d\t%s\t%s\t%s\n",
						order.OrderID, order.StatusLabel(), order.TotalAmount.StringFixed(2), order.CreateTime)
				}
				return table.Flush()
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show order detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				order, err := a.Orders.Detail(ctx, id)
				if err != nil {
					return err
				}
				fmt.Printf("order %d: %s, total %s\n", order.OrderID, order.StatusLabel(), order.TotalAmount.StringFixed(2))
				table := newTable()
				for _, item := range order.Items {
					fmt.Fprintf(table, "  %s\t%s x %d\n", item.ProductName, item.Price.StringFixed(2), item.Quantity)
				}
				return table.Flush()
			})
		},
	}

	pay := &cobra.Command{
		Use:   "pay <id>",
		Short: "Pay for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				return a.Orders.Pay(ctx, id)
			})
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				return a.Orders.Cancel(ctx, id)
			})
		},
	}

	cmd.AddCommand(list, show, pay, cancel)
	return cmd
}

func checkoutCmd(envFile *string) *cobra.Command {
	var remark string
	cmd := &cobra.Command{
		Use:   "checkout <address-id>",
		Short: "Create an order from the selected cart items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addressID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				order, err := a.Checkout(ctx, addressID, remark)
				if err != nil {
					return err
				}
				fmt.Printf("order %d created, total %s\n", order.OrderID, order.TotalAmount.StringFixed(2))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&remark, "remark", "", "Order remark")
	return cmd
}

func addressesCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "Manage shipping addresses",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				result, err := a.Addresses.List(ctx)
				if err != nil {
					return err
				}
				table := newTable()
				fmt.Fprintln(table, "ID\tRECEIVER\tPHONE\tADDRESS\tDEFAULT")
				for _, address := range result {
					def := ""
					if address.IsDefault {
						def = "yes"
					}
					fmt.Fprintf(table, "%d\t%s\t%s\t%s %s %s\t%s\n",
						address.AddressID, address.ReceiverName, address.ReceiverPhone,
						address.Province, address.City, address.DetailAddress, def)
				}
				return table.Flush()
			})
		},
	}

	var input api.AddressInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				address, err := a.Addresses.Add(ctx, input)
				if err != nil {
					return err
				}
				fmt.Printf("address %d added\n", address.AddressID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&input.ReceiverName, "name", "", "Receiver name")
	add.Flags().StringVar(&input.ReceiverPhone, "phone", "", "Receiver phone")
	add.Flags().StringVar(&input.Province, "province", "", "Province")
	add.Flags().StringVar(&input.City, "city", "", "City")
	add.Flags().StringVar(&input.District, "district", "", "District")
	add.Flags().StringVar(&input.DetailAddress, "detail", "", "Street address")
	add.Flags().StringVar(&input.PostalCode, "postal-code", "", "Postal code")
	add.Flags().BoolVar(&input.IsDefault, "default", false, "Set as default")

	remove := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				return a.Addresses.Delete(ctx, id)
			})
		},
	}

	setDefault := &cobra.Command{
		Use:   "default <id>",
		Short: "Make an address the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(envFile, func(ctx context.Context, a *app.App) error {
				return a.Addresses.SetDefault(ctx, id)
			})
		},
	}

	cmd.AddCommand(list, add, remove, setDefault)
	return cmd
}
