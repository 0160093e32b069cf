package condaenv_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"condakit/internal/condaenv"
)

func TestIsPipInclude(t *testing.T) {
	for _, s := range []string{"-r requirements.txt", "  -r foo.txt", "--requirement reqs.txt", "--requirement=reqs.txt"} {
		if !condaenv.IsPipInclude(s) {
			t.Errorf("IsPipInclude(%q) = false", s)
		}
	}
	for _, s := range []string{"requests", "-rfoo", "--index-url https://x", "r==1.0"} {
		if condaenv.IsPipInclude(s) {
			t.Errorf("IsPipInclude(%q) = true", s)
		}
	}
}

func TestResolvePipIncludeNoInclude(t *testing.T) {
	doc, err := condaenv.Parse([]byte(`name: simple-envpip
dependencies:
  - pip:
    - azureml-sdk==1.23.0
  - more_conda
`))
	if err != nil {
		t.Fatal(err)
	}
	found, out := condaenv.ResolvePipInclude(doc, nil)
	if found {
		t.Error("reported an include where there is none")
	}
	if diff := cmp.Diff([]string{"azureml-sdk==1.23.0"}, out.PipSpecs()); diff != "" {
		t.Errorf("pip specs (-want +got):\n%s", diff)
	}
}

func TestResolvePipIncludeStripsMarker(t *testing.T) {
	doc, err := condaenv.Parse([]byte(`name: simple-env
dependencies:
  - pip:
    - -r foo.txt
    - any_package
`))
	if err != nil {
		t.Fatal(err)
	}
	found, out := condaenv.ResolvePipInclude(doc, nil)
	if !found {
		t.Error("include not reported")
	}
	if diff := cmp.Diff([]string{"any_package"}, out.PipSpecs()); diff != "" {
		t.Errorf("pip specs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"-r foo.txt", "any_package"}, doc.PipSpecs()); diff != "" {
		t.Errorf("input document was modified (-want +got):\n%s", diff)
	}
}

func TestResolvePipIncludeDropsEmptyBlock(t *testing.T) {
	doc := &condaenv.Document{Dependencies: []condaenv.Dependency{
		condaenv.Conda("python=3.9"),
		condaenv.PipBlock("-r a.txt", "-r b.txt"),
	}}
	found, out := condaenv.ResolvePipInclude(doc, nil)
	if !found {
		t.Error("include not reported")
	}
	if out.HasPip() {
		t.Errorf("empty pip block kept: %+v", out.Dependencies)
	}
}

func TestResolvePipIncludeReplacement(t *testing.T) {
	doc := &condaenv.Document{Dependencies: []condaenv.Dependency{
		condaenv.Conda("python=3.9"),
		condaenv.PipBlock("-r requirements.txt", "foo==1.0"),
	}}
	found, out := condaenv.ResolvePipInclude(doc, []string{"package==1.0.0"})
	if !found {
		t.Error("include not reported")
	}
	want := []condaenv.Dependency{
		condaenv.Conda("python=3.9"),
		condaenv.PipBlock("foo==1.0", "package==1.0.0"),
	}
	if diff := cmp.Diff(want, out.Dependencies); diff != "" {
		t.Errorf("dependencies (-want +got):\n%s", diff)
	}
}

func TestResolvePipIncludeReplacementAddsBlock(t *testing.T) {
	doc := &condaenv.Document{Dependencies: []condaenv.Dependency{condaenv.Conda("python=3.9")}}
	_, out := condaenv.ResolvePipInclude(doc, []string{"a==1"})
	want := []condaenv.Dependency{condaenv.Conda("python=3.9"), condaenv.PipBlock("a==1")}
	if diff := cmp.Diff(want, out.Dependencies); diff != "" {
		t.Errorf("dependencies (-want +got):\n%s", diff)
	}
}

func TestReadPipFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "req.txt", "# pinned\nfoo==1.0\r\n\n  bar>=2  \n")
	got, err := condaenv.ReadPipFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"foo==1.0", "bar>=2"}, got); diff != "" {
		t.Errorf("ReadPipFile (-want +got):\n%s", diff)
	}
	if _, err := condaenv.ReadPipFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
