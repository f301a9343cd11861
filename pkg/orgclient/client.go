package orgclient

import "context"

// OrgInfo describes one authorized org
type OrgInfo struct {
	Alias       string `json:"alias"`
	Username    string `json:"username"`
	InstanceURL string `json:"instanceUrl"`
	IsDefault   bool   `json:"isDefaultUsername"`
}

// DeployOptions control a deployment run
type DeployOptions struct {
	TestLevel      string // e.g. NoTestRun, RunLocalTests, RunAllTestsInOrg
	RunDestructive bool   // apply the destructive-changes manifest alongside the package
	DryRun         bool   // validate only
}

// DeployResult summarizes a finished deployment
type DeployResult struct {
	ID                 string `json:"id"`
	Success            bool   `json:"success"`
	ComponentsDeployed int    `json:"numberComponentsDeployed"`
	ComponentErrors    int    `json:"numberComponentErrors"`
	TestsCompleted     int    `json:"numberTestsCompleted"`
}

// Client is the platform CLI collaborator. All substantive org operations
// (auth, retrieval, deployment, manifest generation) are delegated through
// it, so the delta engine stays testable with canned directory trees.
type Client interface {
	Authorize(ctx context.Context, alias, loginURL string) error
	ListOrgs(ctx context.Context) ([]OrgInfo, error)
	RetrieveMetadata(ctx context.Context, manifestPath, orgAlias, outputDir string) error
	Deploy(ctx context.Context, packageDir, orgAlias string, opts DeployOptions) (*DeployResult, error)
	GenerateManifest(ctx context.Context, orgAlias, outputPath string) error
}
