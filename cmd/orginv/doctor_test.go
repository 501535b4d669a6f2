package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"

	"github.com/pankaj-dahiya-devops/orginv/internal/config"
	"github.com/pankaj-dahiya-devops/orginv/internal/providers/aws/common"
)

// ── mocks ─────────────────────────────────────────────────────────────────────

type mockOrgs struct {
	roots []orgtypes.Root
	err   error
}

func (m *mockOrgs) ListRoots(context.Context, *organizations.ListRootsInput, ...func(*organizations.Options)) (*organizations.ListRootsOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &organizations.ListRootsOutput{Roots: m.roots}, nil
}

func (m *mockOrgs) ListOrganizationalUnitsForParent(context.Context, *organizations.ListOrganizationalUnitsForParentInput, ...func(*organizations.Options)) (*organizations.ListOrganizationalUnitsForParentOutput, error) {
	return &organizations.ListOrganizationalUnitsForParentOutput{}, nil
}

func (m *mockOrgs) ListAccountsForParent(context.Context, *organizations.ListAccountsForParentInput, ...func(*organizations.Options)) (*organizations.ListAccountsForParentOutput, error) {
	return &organizations.ListAccountsForParentOutput{}, nil
}

func (m *mockOrgs) ListAccounts(context.Context, *organizations.ListAccountsInput, ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error) {
	return &organizations.ListAccountsOutput{}, nil
}

type mockProvider struct {
	hub         *common.HubConfig
	err         error
	loads       int
	lastProfile string
}

func (m *mockProvider) LoadHub(_ context.Context, profile string) (*common.HubConfig, error) {
	m.loads++
	m.lastProfile = profile
	return m.hub, m.err
}

func (m *mockProvider) GetActiveRegions(context.Context, *common.HubConfig) ([]string, error) {
	return []string{"us-east-1"}, nil
}

func (m *mockProvider) ConfigForRegion(_ *common.HubConfig, region string) aws.Config {
	return aws.Config{Region: region}
}

type mockLoader struct {
	cfg *config.Config
	err error
}

func (l mockLoader) Load() (*config.Config, error) { return l.cfg, l.err }
func (l mockLoader) ConfigPath() string { return "orginv.yaml" }

// ── helpers ───────────────────────────────────────────────────────────────────

func goodLoader() mockLoader {
	cfg := config.Default()
	cfg.Sender = "inventory@example.com"
	return mockLoader{cfg: cfg}
}

func goodProvider() *mockProvider {
	return &mockProvider{hub: &common.HubConfig{
		ProfileName: "default",
		AccountID:   "999988887777",
		Region:      "us-east-1",
		Clients: &common.ClientSet{
			Organizations: &mockOrgs{roots: []orgtypes.Root{{Id: aws.String("r-ab12")}}},
		},
	}}
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestDoctor_AllHealthy(t *testing.T) {
	var buf bytes.Buffer
	result, err := runDoctor(context.Background(), goodLoader(), goodProvider(), &buf, "table", "")
	if err != nil {
		t.Fatal(err)
	}
	if !result.OverallHealthy {
		t.Errorf("expected healthy, got %+v", result)
	}
	out := buf.String()
	for _, want := range []string{"Settings: OK (orginv.yaml)", "Account: 999988887777", "Root: r-ab12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctor_InvalidConfig(t *testing.T) {
	loader := goodLoader()
	loader.cfg.Sender = ""

	result, err := runDoctor(context.Background(), loader, goodProvider(), &bytes.Buffer{}, "table", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.OverallHealthy || result.Config.Valid {
		t.Error("invalid config reported healthy")
	}
	if !strings.Contains(result.Config.Error, "SENDER") {
		t.Errorf("Config.Error = %q", result.Config.Error)
	}
	if !result.AWS.Credentials {
		t.Error("AWS checks should still run after a config failure")
	}
}

func TestDoctor_LoaderError(t *testing.T) {
	loader := mockLoader{err: errors.New("parse config")}

	result, _ := runDoctor(context.Background(), loader, goodProvider(), &bytes.Buffer{}, "table", "")
	if result.Config.Valid || result.Config.Error != "parse config" {
		t.Errorf("Config = %+v", result.Config)
	}
}

func TestDoctor_CredentialFailureSkipsOrganizations(t *testing.T) {
	p := &mockProvider{err: errors.New("no credentials")}

	var buf bytes.Buffer
	result, _ := runDoctor(context.Background(), goodLoader(), p, &buf, "table", "audit")
	if result.AWS.Credentials || result.Organizations.Reachable || result.OverallHealthy {
		t.Errorf("result = %+v", result)
	}
	if p.lastProfile != "audit" {
		t.Errorf("profile = %q, want audit", p.lastProfile)
	}
	out := buf.String()
	if !strings.Contains(out, "profile: audit") || !strings.Contains(out, "Organizations: FAIL (skipped)") {
		t.Errorf("output:\n%s", out)
	}
}

func TestDoctor_OrganizationsDenied(t *testing.T) {
	p := goodProvider()
	p.hub.Clients.Organizations = &mockOrgs{err: errors.New("AccessDeniedException")}

	result, _ := runDoctor(context.Background(), goodLoader(), p, &bytes.Buffer{}, "table", "")
	if result.Organizations.Reachable || result.OverallHealthy {
		t.Errorf("result = %+v", result)
	}
	if result.Organizations.Error != "AccessDeniedException" {
		t.Errorf("Organizations.Error = %q", result.Organizations.Error)
	}
}

func TestDoctor_NoRoot(t *testing.T) {
	p := goodProvider()
	p.hub.Clients.Organizations = &mockOrgs{}

	result, _ := runDoctor(context.Background(), goodLoader(), p, &bytes.Buffer{}, "table", "")
	if result.Organizations.Reachable {
		t.Error("organization without a root reported reachable")
	}
}

func TestDoctor_JSON(t *testing.T) {
	var buf bytes.Buffer
	if _, err := runDoctor(context.Background(), goodLoader(), goodProvider(), &buf, "json", ""); err != nil {
		t.Fatal(err)
	}
	var got DoctorResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if !got.OverallHealthy || got.Organizations.RootID != "r-ab12" {
		t.Errorf("decoded = %+v", got)
	}
}
