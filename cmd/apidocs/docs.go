package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-apidocs/internal/curl"
	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/navigator"
	"github.com/prasenjit/go-apidocs/internal/schema"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections [name]",
	Short: "List documentation sections and their endpoints",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSections,
}

var curlCmd = &cobra.Command{
	Use:   "curl <section> <index>",
	Short: "Print the cURL example of an endpoint",
	Long: `Prints the cURL example of an endpoint, addressed either by section name
and index or by --method and --path.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCurl,
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a documentation file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

var importCmd = &cobra.Command{
	Use:   "import <openapi-file>",
	Short: "Convert an OpenAPI 3 document to native documentation",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var (
	curlMethod    string
	curlPath      string
	curlBaseURL   string
	importOutput  string
	importFormat  string
	importBaseURL string
)

func init() {
	for _, cmd := range []*cobra.Command{curlCmd, sendCmd} {
		cmd.Flags().StringVar(&curlMethod, "method", "", "Endpoint method, used with --path")
		cmd.Flags().StringVar(&curlPath, "path", "", "Endpoint path template, e.g. /users/{userId}")
		cmd.Flags().StringVar(&curlBaseURL, "base-url", "", "Override the documented base URL")
	}

	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Output file (default: stdout)")
	importCmd.Flags().StringVar(&importFormat, "to", "yaml", "Output format: yaml or json")
	importCmd.Flags().StringVar(&importBaseURL, "base-url", "", "Base URL when the document has no servers")
}

// openNavigator loads the configured documentation
func openNavigator() (*navigator.Navigator, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, err
	}
	doc, _, _, err := loadDocs(cfg, logger)
	if err != nil {
		return nil, err
	}
	return navigator.New(doc), nil
}

// resolveEndpoint addresses an endpoint by --method/--path or by section
// name and index arguments
func resolveEndpoint(nav *navigator.Navigator, args []string) (*models.Endpoint, navigator.Location, error) {
	if curlPath != "" {
		method, err := models.ParseMethod(curlMethod)
		if err != nil {
			return nil, navigator.Location{}, err
		}
		ep, loc, ok := nav.FindEndpoint(method, curlPath)
		if !ok {
			return nil, navigator.Location{}, fmt.Errorf("endpoint %s %s not found", method, curlPath)
		}
		return ep, loc, nil
	}

	if len(args) != 2 {
		return nil, navigator.Location{}, fmt.Errorf("expected <section> <index>, or --method and --path")
	}
	section, ok := nav.Select(args[0])
	if !ok {
		return nil, navigator.Location{}, fmt.Errorf("section %q not found", args[0])
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, navigator.Location{}, fmt.Errorf("invalid endpoint index %q", args[1])
	}
	ep, ok := nav.Endpoint(section.Name, index)
	if !ok {
		return nil, navigator.Location{}, fmt.Errorf("section %q has no endpoint %d", section.Name, index)
	}
	return ep, navigator.Location{Section: section.Name, Index: index}, nil
}

func runSections(cmd *cobra.Command, args []string) error {
	nav, err := openNavigator()
	if err != nil {
		return err
	}

	sections := nav.Sections()
	if len(args) == 1 {
		section, ok := nav.Select(args[0])
		if !ok {
			return fmt.Errorf("section %q not found", args[0])
		}
		sections = []models.Section{*section}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, s := range sections {
		marker := ""
		if s.Name == nav.Default() {
			marker = " (default)"
		}
		fmt.Fprintf(w, "%s%s\n", s.Name, marker)
		for i, ep := range s.Endpoints {
			lock := ""
			if ep.Authentication {
				lock = "auth"
			}
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\n", i, ep.Method, ep.Path, lock, ep.Description)
		}
	}
	return w.Flush()
}

func runCurl(cmd *cobra.Command, args []string) error {
	nav, err := openNavigator()
	if err != nil {
		return err
	}

	ep, _, err := resolveEndpoint(nav, args)
	if err != nil {
		return err
	}

	baseURL := curlBaseURL
	if baseURL == "" {
		baseURL = nav.Documentation().BaseURL
	}
	fmt.Fprintln(cmd.OutOrStdout(), curl.Generate(ep, baseURL))
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	var doc *models.Documentation
	source := "built-in documentation"
	switch {
	case len(args) == 1:
		source = args[0]
		doc, _, err = schema.LoadFile(args[0], cfg.Docs.Format)
	case cfg.Docs.File != "":
		source = cfg.Docs.File
		doc, _, err = schema.LoadFile(cfg.Docs.File, cfg.Docs.Format)
	default:
		doc, err = schema.Default()
	}
	if err != nil {
		return err
	}

	report := schema.Validate(doc)
	out := cmd.OutOrStdout()
	for _, issue := range report.Issues {
		fmt.Fprintln(out, issue)
	}
	fmt.Fprintf(out, "%s: %d sections, %d endpoints, %d errors, %d warnings\n",
		source, len(doc.Sections), doc.EndpointCount(), len(report.Errors()), len(report.Warnings()))

	if report.HasErrors() {
		return fmt.Errorf("%s is invalid", source)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	doc, err := schema.ImportOpenAPI(content, schema.ImportOptions{BaseURL: importBaseURL})
	if err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(importFormat) {
	case "yaml", "yml":
		data, err = yaml.Marshal(doc)
	case "json":
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", importFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to encode documentation: %w", err)
	}

	if importOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(importOutput, data, 0644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d sections, %d endpoints to %s\n", len(doc.Sections), doc.EndpointCount(), importOutput)
	return nil
}
