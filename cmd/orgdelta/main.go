package main

import (
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/orgtools/orgdelta/internal/config"
	"github.com/orgtools/orgdelta/internal/logging"
	"github.com/orgtools/orgdelta/pkg/delta"
	"github.com/orgtools/orgdelta/pkg/inventory"
	"github.com/orgtools/orgdelta/pkg/manifest"
	"github.com/orgtools/orgdelta/pkg/orgclient"
	"github.com/orgtools/orgdelta/pkg/report"
	"github.com/orgtools/orgdelta/pkg/s3client"
	"github.com/orgtools/orgdelta/pkg/snapshot"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	quiet      bool

	// compare flags
	packageOut       string
	destructiveOut   string
	reportOut        string
	emitDestructive  bool
	includeUnchanged bool
	strict           bool

	// retrieve flags
	retrieveManifest  string
	retrieveOutputDir string

	// deploy flags
	testLevel      string
	runDestructive bool
	deployDryRun   bool

	// auth flags
	loginURL string

	// manifest generate flags
	manifestOut string

	// snapshot flags
	snapshotProfile     string
	snapshotRegion      string
	snapshotConcurrency int
	snapshotExcludes    []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "orgdelta",
		Short: "Org metadata comparison and delta-package toolkit",
		Long: `orgdelta compares two retrieved org metadata trees, classifies every
component as Added, Changed, Removed or Unchanged, and emits a deploy
manifest, an optional destructive-changes manifest and a CSV change report.
Retrieval, deployment and org authorization are delegated to the platform CLI.`,
		Version:       fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to orgdelta.yaml")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress non-error output")

	compareCmd := &cobra.Command{
		Use:   "compare <sourceDir> <destDir>",
		Short: "Compare two retrieved metadata trees and emit delta artifacts",
		Args:  cobra.ExactArgs(2),
		RunE:  runCompare,
	}
	compareCmd.Flags().StringVar(&packageOut, "package", "package.xml", "Deploy manifest output path")
	compareCmd.Flags().StringVar(&destructiveOut, "destructive-out", "destructiveChanges.xml", "Destructive manifest output path")
	compareCmd.Flags().BoolVar(&emitDestructive, "destructive", false, "Also emit the destructive-changes manifest")
	compareCmd.Flags().StringVar(&reportOut, "report", "changes.csv", "Change report output path")
	compareCmd.Flags().BoolVar(&includeUnchanged, "include-unchanged", false, "Include unchanged components in the report")
	compareCmd.Flags().BoolVar(&strict, "strict", false, "Fail when the deploy manifest would be empty")

	retrieveCmd := &cobra.Command{
		Use:   "retrieve <orgAlias>",
		Short: "Retrieve metadata from an org via the platform CLI",
		Args:  cobra.ExactArgs(1),
		RunE:  runRetrieve,
	}
	retrieveCmd.Flags().StringVar(&retrieveManifest, "manifest", "package.xml", "Manifest describing what to retrieve")
	retrieveCmd.Flags().StringVar(&retrieveOutputDir, "output-dir", "retrieved", "Directory to unpack the retrieval into")

	deployCmd := &cobra.Command{
		Use:   "deploy <packageDir> <orgAlias>",
		Short: "Deploy a delta package via the platform CLI",
		Args:  cobra.ExactArgs(2),
		RunE:  runDeploy,
	}
	deployCmd.Flags().StringVar(&testLevel, "test-level", "", "Test level (NoTestRun, RunLocalTests, RunAllTestsInOrg)")
	deployCmd.Flags().BoolVar(&runDestructive, "run-destructive", false, "Apply destructiveChanges.xml alongside the package")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "Validate without applying")

	orgsCmd := &cobra.Command{
		Use:   "orgs",
		Short: "List authorized orgs",
		Args:  cobra.NoArgs,
		RunE:  runOrgs,
	}

	authCmd := &cobra.Command{
		Use:   "auth <alias>",
		Short: "Authorize an org",
		Args:  cobra.ExactArgs(1),
		RunE:  runAuth,
	}
	authCmd.Flags().StringVar(&loginURL, "login-url", "", "Login URL (e.g. a sandbox instance URL)")

	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Manifest helpers",
	}
	manifestGenerateCmd := &cobra.Command{
		Use:   "generate <orgAlias>",
		Short: "Generate a full-org manifest via the platform CLI",
		Args:  cobra.ExactArgs(1),
		RunE:  runManifestGenerate,
	}
	manifestGenerateCmd.Flags().StringVar(&manifestOut, "output", "package.xml", "Manifest output path")
	manifestCmd.AddCommand(manifestGenerateCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot <dir> <s3-uri>",
		Short: "Publish a metadata tree or compare artifacts to S3",
		Args:  cobra.ExactArgs(2),
		RunE:  runSnapshot,
	}
	snapshotCmd.Flags().StringVar(&snapshotProfile, "profile", "", "AWS profile to use")
	snapshotCmd.Flags().StringVar(&snapshotRegion, "region", "", "AWS region (uses default if not specified)")
	snapshotCmd.Flags().IntVar(&snapshotConcurrency, "concurrency", 16, "Number of concurrent uploads")
	snapshotCmd.Flags().StringSliceVar(&snapshotExcludes, "exclude", nil, "Exclude patterns (multiple allowed)")

	rootCmd.AddCommand(compareCmd, retrieveCmd, deployCmd, orgsCmd, authCmd, manifestCmd, snapshotCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func newOrgClient(cfg *config.Config) orgclient.Client {
	return orgclient.NewCLIClient(cfg.CLI.Binary, cfg.APIVersion)
}

func runCompare(cmd *cobra.Command, args []string) error {
	sourceDir, destDir := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(quiet)
	start := time.Now()

	opts := inventory.Options{
		TypeMap:        cfg.TypeMap,
		IgnorePatterns: cfg.IgnorePatterns,
	}
	source, dest := inventory.BuildPair(sourceDir, destDir, opts)
	if source.Err != nil {
		return fmt.Errorf("source inventory: %w", source.Err)
	}
	if dest.Err != nil {
		return fmt.Errorf("destination inventory: %w", dest.Err)
	}
	for _, w := range source.Warnings {
		logger.Warn("source: %s", w)
	}
	for _, w := range dest.Warnings {
		logger.Warn("destination: %s", w)
	}

	entries := delta.Classify(source.Inventory, dest.Inventory, delta.Options{
		ExemptTypes: cfg.ExemptSet(),
	})
	for _, entry := range entries {
		if entry.Status != delta.StatusUnchanged {
			logger.Entry(string(entry.Status), entry.Type, entry.FullName)
		}
	}

	result, err := manifest.EmitFile(manifest.BuildDeploy(entries, cfg.APIVersion), packageOut, strict)
	if err != nil {
		return err
	}
	if result == manifest.ResultNothingToDeploy {
		logger.Info("nothing to deploy")
	}

	if emitDestructive {
		if _, err := manifest.EmitFile(manifest.BuildDestructive(entries, cfg.APIVersion), destructiveOut, false); err != nil {
			return err
		}
	}

	if err := report.WriteFile(reportOut, entries, includeUnchanged); err != nil {
		return err
	}

	s := delta.Summarize(entries)
	logger.PrintSummary(s.Added, s.Changed, s.Removed, s.Unchanged, time.Since(start))
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	orgAlias := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(quiet)

	logger.Info("retrieving metadata from %s into %s", orgAlias, retrieveOutputDir)
	if err := newOrgClient(cfg).RetrieveMetadata(cmd.Context(), retrieveManifest, orgAlias, retrieveOutputDir); err != nil {
		return err
	}
	logger.Info("retrieval complete")
	return nil
}

func runDeploy(cmd *cobra.Command, args []string) error {
	packageDir, orgAlias := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(quiet)

	result, err := newOrgClient(cfg).Deploy(cmd.Context(), packageDir, orgAlias, orgclient.DeployOptions{
		TestLevel:      testLevel,
		RunDestructive: runDestructive,
		DryRun:         deployDryRun,
	})
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("deployment %s failed: %d component errors", result.ID, result.ComponentErrors)
	}
	logger.Info("deployment %s succeeded: %d components, %d tests", result.ID, result.ComponentsDeployed, result.TestsCompleted)
	return nil
}

func runOrgs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	orgs, err := newOrgClient(cfg).ListOrgs(cmd.Context())
	if err != nil {
		return err
	}

	for _, org := range orgs {
		marker := " "
		if org.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %-20s %-40s %s\n", marker, org.Alias, org.Username, org.InstanceURL)
	}
	return nil
}

func runAuth(cmd *cobra.Command, args []string) error {
	alias := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(quiet)

	if err := newOrgClient(cfg).Authorize(cmd.Context(), alias, loginURL); err != nil {
		return err
	}
	logger.Info("authorized org %s", alias)
	return nil
}

func runManifestGenerate(cmd *cobra.Command, args []string) error {
	orgAlias := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(quiet)

	if err := newOrgClient(cfg).GenerateManifest(cmd.Context(), orgAlias, manifestOut); err != nil {
		return err
	}
	logger.Info("manifest written to %s", manifestOut)
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	dir, s3URI := args[0], args[1]

	bucket, prefix, err := snapshot.ParseS3URI(s3URI)
	if err != nil {
		return fmt.Errorf("invalid S3 URI: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(quiet)
	ctx := cmd.Context()

	profile := snapshotProfile
	if profile == "" {
		profile = cfg.Snapshot.Profile
	}
	region := snapshotRegion
	if region == "" {
		region = cfg.Snapshot.Region
	}

	var configOpts []func(*awsconfig.LoadOptions) error
	if profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	publisher := snapshot.NewPublisher(s3client.NewAWSClient(awsCfg), snapshotConcurrency)

	excludes := append([]string{}, cfg.IgnorePatterns...)
	excludes = append(excludes, snapshotExcludes...)

	items, err := publisher.Plan(ctx, dir, bucket, prefix, excludes)
	if err != nil {
		return fmt.Errorf("failed to plan snapshot: %w", err)
	}

	var uploads int
	for _, item := range items {
		if item.Action == snapshot.ActionUpload {
			uploads++
			logger.Info("upload: %s -> s3://%s/%s (%s)", item.LocalPath, item.Bucket, item.Key, item.Reason)
		}
	}
	if uploads == 0 {
		logger.Info("snapshot already up to date")
		return nil
	}

	results := publisher.Publish(ctx, items)

	var failed int
	for _, r := range results {
		if r.Error != nil {
			failed++
			logger.Error("%s: %v", r.Item.Key, r.Error)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d uploads failed", failed)
	}

	logger.Info("published %d files to s3://%s/%s", uploads, bucket, prefix)
	return nil
}
