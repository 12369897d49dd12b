package main

import (
	"github.com/gradecard/backend/internal/domain"
	"github.com/spf13/cobra"
)

var (
	flagName    string
	flagAddress string
	flagZip     string
	flagPhone   string
	flagSite    string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the grade for restaurant identity text",
	Long: `Resolve normalizes the given identity text the same way the extension
does for the named site, runs the inspection lookup and prints the badge.

Examples:
  gradecheck resolve --name "Joe's Pizza" --address "7 Carmine St" --zip 10014 --phone "(212) 366-1182" --site yelp
  gradecheck resolve --name "Katz's Delicatessen" --address "205 E Houston St" --phone 2122542246 --site zagat`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&flagName, "name", "", "Restaurant name")
	resolveCmd.Flags().StringVar(&flagAddress, "address", "", "Street address, e.g. \"7 Carmine St\"")
	resolveCmd.Flags().StringVar(&flagZip, "zip", "", "Zipcode (optional)")
	resolveCmd.Flags().StringVar(&flagPhone, "phone", "", "Phone number")
	resolveCmd.Flags().StringVar(&flagSite, "site", "", "Listing site: yelp, menupages, opentable, grubhub, zagat or foursquare")

	resolveCmd.MarkFlagRequired("name")
	resolveCmd.MarkFlagRequired("address")
	resolveCmd.MarkFlagRequired("phone")
	resolveCmd.MarkFlagRequired("site")
}

func runResolve(cmd *cobra.Command, args []string) error {
	service, err := newInspectionService()
	if err != nil {
		return err
	}

	badge, err := service.Lookup(cmd.Context(), domain.RawIdentity{
		Name:    flagName,
		Address: flagAddress,
		Zipcode: flagZip,
		Phone:   flagPhone,
		Site:    flagSite,
	}, "", "")
	if err != nil {
		return err
	}

	return printBadge(cmd.OutOrStdout(), badge)
}
