package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/entity-intel/internal/model"
)

var (
	enrichCountry string
	enrichIntent  string

	personFirst   string
	personLast    string
	personCompany string
	personProfile string
	personEmail   string

	companyIndustry string
	companyWebsite  string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run a single enrichment and print the report as JSON",
}

var enrichPersonCmd = &cobra.Command{
	Use:   "person [full name]",
	Short: "Enrich a person",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := model.EnrichmentRequest{
			Kind:         model.KindPerson,
			FirstName:    personFirst,
			LastName:     personLast,
			Company:      personCompany,
			ProfileURL:   personProfile,
			Email:        personEmail,
			Country:      enrichCountry,
			ReportIntent: enrichIntent,
		}
		if len(args) > 0 {
			req.FullName = args[0]
		}
		return runEnrich(cmd, req)
	},
}

var enrichCompanyCmd = &cobra.Command{
	Use:   "company [name]",
	Short: "Enrich a company",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := model.EnrichmentRequest{
			Kind:         model.KindCompany,
			Industry:     companyIndustry,
			Website:      companyWebsite,
			Country:      enrichCountry,
			ReportIntent: enrichIntent,
		}
		if len(args) > 0 {
			req.CompanyName = args[0]
		}
		return runEnrich(cmd, req)
	},
}

func runEnrich(cmd *cobra.Command, req model.EnrichmentRequest) error {
	ctx := cmd.Context()

	e, err := initPipeline(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	report, err := e.Pipeline.Enrich(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return eris.Wrap(err, "encode report")
	}
	return nil
}

func init() {
	enrichCmd.PersistentFlags().StringVar(&enrichCountry, "country", "", "country hint (ISO code or name)")
	enrichCmd.PersistentFlags().StringVar(&enrichIntent, "intent", "", "report focus, e.g. \"due diligence\"")

	enrichPersonCmd.Flags().StringVar(&personFirst, "first-name", "", "first name")
	enrichPersonCmd.Flags().StringVar(&personLast, "last-name", "", "last name")
	enrichPersonCmd.Flags().StringVar(&personCompany, "company", "", "company hint")
	enrichPersonCmd.Flags().StringVar(&personProfile, "profile-url", "", "known profile URL for direct lookup")
	enrichPersonCmd.Flags().StringVar(&personEmail, "email", "", "known email address")

	enrichCompanyCmd.Flags().StringVar(&companyIndustry, "industry", "", "industry hint")
	enrichCompanyCmd.Flags().StringVar(&companyWebsite, "website", "", "company website hint")

	enrichCmd.AddCommand(enrichPersonCmd)
	enrichCmd.AddCommand(enrichCompanyCmd)
	rootCmd.AddCommand(enrichCmd)
}
