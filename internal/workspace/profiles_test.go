package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"condakit/internal/workspace"
)

// withTempHome redirects os.UserHomeDir to a temp directory for the duration of the test.
func withTempHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	return tmp
}

var testConfig = workspace.Config{SubscriptionID: "sub", ResourceGroup: "rg", WorkspaceName: "ws"}

func TestOpenProfilesCreatesDir(t *testing.T) {
	tmp := withTempHome(t)
	p, err := workspace.OpenProfiles()
	if err != nil {
		t.Fatalf("OpenProfiles: %v", err)
	}
	want := filepath.Join(tmp, ".condakit", "workspaces")
	if p.Dir != want {
		t.Errorf("Dir mismatch: got %s want %s", p.Dir, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("profile dir not created: %v", err)
	}
}

func TestAddAndLoadProfile(t *testing.T) {
	withTempHome(t)
	p, err := workspace.OpenProfiles()
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Add("dev", testConfig); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := p.Add("dev", testConfig); err == nil {
		t.Fatal("expected error on duplicate Add")
	}

	cfg, err := p.Load("dev")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkspaceName != "ws" || cfg.SubscriptionID != "sub" || cfg.ResourceGroup != "rg" {
		t.Errorf("unexpected profile: %+v", cfg)
	}
	if cfg.Source != workspace.SourceProfile {
		t.Errorf("Source = %q, want %q", cfg.Source, workspace.SourceProfile)
	}
}

func TestAddInvalidProfile(t *testing.T) {
	withTempHome(t)
	p, err := workspace.OpenProfiles()
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Add("bad", workspace.Config{WorkspaceName: "ws"}); err == nil {
		t.Error("expected error for incomplete config")
	}
	if err := p.Add("a/b", testConfig); err == nil {
		t.Error("expected error for name with a slash")
	}
}

func TestListAndRemoveProfiles(t *testing.T) {
	withTempHome(t)
	p, err := workspace.OpenProfiles()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"alpha", "beta"} {
		if err := p.Add(name, testConfig); err != nil {
			t.Fatal(err)
		}
	}
	names, err := p.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("List = %v", names)
	}

	if err := p.Remove("alpha"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := p.Remove("alpha"); err == nil {
		t.Error("expected error removing a missing profile")
	}
	if _, err := p.Load("alpha"); err == nil {
		t.Error("expected error loading a removed profile")
	}
}

func TestProfileNamesStayInsideDir(t *testing.T) {
	tmp := withTempHome(t)
	p, err := workspace.OpenProfiles()
	if err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(tmp, ".condakit", "x.yaml")
	if err := os.WriteFile(outside, []byte("workspace_name: ws\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"../x", `..\x`, ""} {
		if err := p.Remove(name); err == nil {
			t.Errorf("Remove(%q): expected invalid name error", name)
		}
		if _, err := p.Load(name); err == nil {
			t.Errorf("Load(%q): expected invalid name error", name)
		}
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("file outside the profile dir was touched: %v", err)
	}
}
