package condaenv_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"condakit/internal/condaenv"
)

func TestParse(t *testing.T) {
	doc, err := condaenv.Parse([]byte(`name: simple-envpip
channels:
  - defaults
dependencies:
  - pip:
    - azureml-sdk==1.23.0
  - more_conda
prefix: /opt/conda
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &condaenv.Document{
		Name:     "simple-envpip",
		Channels: []string{"defaults"},
		Dependencies: []condaenv.Dependency{
			condaenv.PipBlock("azureml-sdk==1.23.0"),
			condaenv.Conda("more_conda"),
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("Parse (-want +got):\n%s", diff)
	}
	if got := doc.PipSpecs(); len(got) != 1 {
		t.Errorf("PipSpecs = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"invalid yaml":        "dependencies: [a, b",
		"missing deps":        "channels:\n- defaults\n",
		"not a mapping":       "- a\n- b\n",
		"deps not a list":     "dependencies: numpy\n",
		"foreign mapping":     "dependencies:\n- conda: [a]\n",
		"pip not a list":      "dependencies:\n- pip: numpy\n",
		"nested pip entry":    "dependencies:\n- pip:\n  - [a]\n",
		"channels not a list": "channels: defaults\ndependencies:\n- a\n",
		"empty":               "",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := condaenv.Parse([]byte(text))
			var pe *condaenv.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
		})
	}
}

func TestLoadSetsPathOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yml")
	if err := os.WriteFile(path, []byte("channels: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := condaenv.Load(path)
	var pe *condaenv.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Path != path {
		t.Errorf("Path = %q, want %q", pe.Path, path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := condaenv.Load(filepath.Join(t.TempDir(), "nope.yml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc := &condaenv.Document{
		Channels:     []string{"a"},
		Dependencies: []condaenv.Dependency{condaenv.PipBlock("x")},
	}
	c := doc.Clone()
	c.Channels[0] = "b"
	c.Dependencies[0].Pip[0] = "y"
	if doc.Channels[0] != "a" || doc.Dependencies[0].Pip[0] != "x" {
		t.Errorf("Clone shares storage with original: %+v", doc)
	}
}

func TestAddPip(t *testing.T) {
	doc := &condaenv.Document{Dependencies: []condaenv.Dependency{
		condaenv.Conda("python=3.9"),
		condaenv.PipBlock("-r requirements.txt", "foo==1.0"),
	}}
	doc.AddPip("https://store/wheels/x.whl")
	want := []string{"-r requirements.txt", "foo==1.0", "https://store/wheels/x.whl"}
	if diff := cmp.Diff(want, doc.PipSpecs()); diff != "" {
		t.Errorf("PipSpecs (-want +got):\n%s", diff)
	}

	bare := &condaenv.Document{Dependencies: []condaenv.Dependency{condaenv.Conda("python=3.9")}}
	bare.AddPip("x.whl")
	if !bare.HasPip() || len(bare.Dependencies) != 2 {
		t.Fatalf("expected a new pip block, got %+v", bare.Dependencies)
	}
	if diff := cmp.Diff([]string{"x.whl"}, bare.PipSpecs()); diff != "" {
		t.Errorf("PipSpecs (-want +got):\n%s", diff)
	}
}
