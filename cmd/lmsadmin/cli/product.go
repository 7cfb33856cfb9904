package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexis/lmsadmin/internal/models"
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Manage the product catalog",
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := newClient().ListProducts(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, products, func(w io.Writer) {
			fmt.Fprintln(w, "ID\tCODE\tNAME\tCATEGORY\tACTIVE")
			for _, p := range products {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Code, p.Name, orDash(p.Category), onOff(p.IsActive))
			}
		})
	},
}

var productInput models.Product

func registerProductFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&productInput.Code, "code", "", "Product code")
	fs.StringVar(&productInput.Name, "name", "", "Product name")
	fs.StringVar(&productInput.Category, "category", "", "Category")
	fs.StringVar(&productInput.Description, "description", "", "Description")
	fs.BoolVar(&productInput.IsActive, "active", true, "Whether the product is active")
}

var productCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := productInput
		if err := models.ValidateProduct(&p); err != nil {
			return err
		}
		created, err := newClient().CreateProduct(cmd.Context(), p)
		audit(cmd, "product.create", p.Code, p, err)
		if err != nil {
			return err
		}
		return render(cmd, created, func(w io.Writer) {
			fmt.Fprintf(w, "Product %s created (id %d)\n", created.Code, created.ID)
		})
	},
}

var productUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p := productInput
		if err := models.ValidateProduct(&p); err != nil {
			return err
		}
		updated, err := newClient().UpdateProduct(cmd.Context(), id, p)
		audit(cmd, "product.update", args[0], p, err)
		if err != nil {
			return err
		}
		return render(cmd, updated, func(w io.Writer) {
			fmt.Fprintf(w, "Product %s updated\n", updated.Code)
		})
	},
}

var productDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		err = newClient().DeleteProduct(cmd.Context(), id)
		audit(cmd, "product.delete", args[0], nil, err)
		if err != nil {
			return err
		}
		return message(cmd, fmt.Sprintf("Product %d deleted", id))
	},
}

func init() {
	registerProductFlags(productCreateCmd)
	registerProductFlags(productUpdateCmd)
	productCmd.AddCommand(productListCmd, productCreateCmd, productUpdateCmd, productDeleteCmd)
	rootCmd.AddCommand(productCmd)
}
