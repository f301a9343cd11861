package orgclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
)

// CLIClient implements Client by shelling out to the vendor CLI binary
type CLIClient struct {
	binary     string
	apiVersion string
}

// NewCLIClient creates a client for the given CLI binary (e.g. "sf")
func NewCLIClient(binary, apiVersion string) *CLIClient {
	return &CLIClient{
		binary:     binary,
		apiVersion: apiVersion,
	}
}

// envelope is the JSON wrapper the CLI emits with --json
type envelope struct {
	Status  int             `json:"status"`
	Result  json.RawMessage `json:"result"`
	Name    string          `json:"name"`
	Message string          `json:"message"`
}

// orgList is the result payload of the org list command
type orgList struct {
	NonScratchOrgs []OrgInfo `json:"nonScratchOrgs"`
	ScratchOrgs    []OrgInfo `json:"scratchOrgs"`
}

func (c *CLIClient) Authorize(ctx context.Context, alias, loginURL string) error {
	_, err := c.run(ctx, authorizeArgs(alias, loginURL))
	if err != nil {
		return fmt.Errorf("authorize org %q: %w", alias, err)
	}
	return nil
}

func (c *CLIClient) ListOrgs(ctx context.Context) ([]OrgInfo, error) {
	result, err := c.run(ctx, []string{"org", "list", "--json"})
	if err != nil {
		return nil, fmt.Errorf("list orgs: %w", err)
	}

	var list orgList
	if err := json.Unmarshal(result, &list); err != nil {
		return nil, fmt.Errorf("parse org list: %w", err)
	}

	orgs := make([]OrgInfo, 0, len(list.NonScratchOrgs)+len(list.ScratchOrgs))
	orgs = append(orgs, list.NonScratchOrgs...)
	orgs = append(orgs, list.ScratchOrgs...)
	return orgs, nil
}

func (c *CLIClient) RetrieveMetadata(ctx context.Context, manifestPath, orgAlias, outputDir string) error {
	_, err := c.run(ctx, retrieveArgs(manifestPath, orgAlias, outputDir, c.apiVersion))
	if err != nil {
		return fmt.Errorf("retrieve metadata from %q: %w", orgAlias, err)
	}
	return nil
}

func (c *CLIClient) Deploy(ctx context.Context, packageDir, orgAlias string, opts DeployOptions) (*DeployResult, error) {
	result, err := c.run(ctx, deployArgs(packageDir, orgAlias, opts))
	if err != nil {
		return nil, fmt.Errorf("deploy to %q: %w", orgAlias, err)
	}

	var deploy DeployResult
	if err := json.Unmarshal(result, &deploy); err != nil {
		return nil, fmt.Errorf("parse deploy result: %w", err)
	}
	return &deploy, nil
}

func (c *CLIClient) GenerateManifest(ctx context.Context, orgAlias, outputPath string) error {
	_, err := c.run(ctx, generateManifestArgs(orgAlias, outputPath))
	if err != nil {
		return fmt.Errorf("generate manifest from %q: %w", orgAlias, err)
	}
	return nil
}

// run executes the CLI and unwraps the JSON envelope. Retries and timeouts
// are the caller's concern via ctx; the CLI itself already retries network
// operations.
func (c *CLIClient) run(ctx context.Context, args []string) (json.RawMessage, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...)
	output, err := cmd.Output()
	if err != nil {
		// The CLI reports failures in the JSON envelope on stdout even
		// when it exits non-zero, so prefer that message.
		if msg := envelopeMessage(output); msg != "" {
			return nil, fmt.Errorf("%s: %s", c.binary, msg)
		}
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, exitErr.Stderr)
		}
		return nil, err
	}

	return parseEnvelope(output)
}

func parseEnvelope(output []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(output, &env); err != nil {
		return nil, fmt.Errorf("parse CLI output: %w", err)
	}
	if env.Status != 0 {
		if env.Message != "" {
			return nil, fmt.Errorf("CLI error (%s): %s", env.Name, env.Message)
		}
		return nil, fmt.Errorf("CLI exited with status %d", env.Status)
	}
	return env.Result, nil
}

func envelopeMessage(output []byte) string {
	var env envelope
	if err := json.Unmarshal(output, &env); err != nil {
		return ""
	}
	return env.Message
}

func authorizeArgs(alias, loginURL string) []string {
	args := []string{"org", "login", "web", "--alias", alias}
	if loginURL != "" {
		args = append(args, "--instance-url", loginURL)
	}
	return append(args, "--json")
}

func retrieveArgs(manifestPath, orgAlias, outputDir, apiVersion string) []string {
	args := []string{
		"project", "retrieve", "start",
		"--manifest", manifestPath,
		"--target-org", orgAlias,
		"--target-metadata-dir", outputDir,
		"--unzip",
	}
	if apiVersion != "" {
		args = append(args, "--api-version", apiVersion)
	}
	return append(args, "--json")
}

func deployArgs(packageDir, orgAlias string, opts DeployOptions) []string {
	args := []string{
		"project", "deploy", "start",
		"--metadata-dir", packageDir,
		"--target-org", orgAlias,
	}
	if opts.TestLevel != "" {
		args = append(args, "--test-level", opts.TestLevel)
	}
	if opts.RunDestructive {
		args = append(args, "--post-destructive-changes", filepath.Join(packageDir, "destructiveChanges.xml"))
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	return append(args, "--json")
}

func generateManifestArgs(orgAlias, outputPath string) []string {
	return []string{
		"project", "generate", "manifest",
		"--from-org", orgAlias,
		"--name", filepath.Base(outputPath),
		"--output-dir", filepath.Dir(outputPath),
		"--json",
	}
}
