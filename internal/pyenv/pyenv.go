// Package pyenv assembles the Python build environment submitted with a
// run: conda dependencies, environment variables, docker base image and an
// optional private wheel. The environment name is derived from a hash of
// all of these, so any change produces a new name.
package pyenv

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/zeebo/blake3"

	"condakit/internal/condaenv"
)

// NamePrefix starts every generated environment name.
const NamePrefix = "HealthML-"

// nameHashLen is the number of hex characters of the hash kept in names.
const nameHashLen = 32

// DefaultVariables are set on every environment unless overridden.
var DefaultVariables = map[string]string{
	"AZUREML_OUTPUT_UPLOAD_TIMEOUT_SEC":        "36000",
	"AZUREML_RUN_KILL_SIGNAL_TIMEOUT_SEC":      "300",
	"RSLEX_DIRECT_VOLUME_MOUNT":                "true",
	"RSLEX_DIRECT_VOLUME_MOUNT_MAX_CACHE_SIZE": "1",
}

// ErrNoUploader is returned when a private wheel is requested without a
// place to upload it to.
var ErrNoUploader = errors.New("a workspace datastore must be provided to add a private pip wheel")

// WheelUploader stores a local wheel file and returns the URL pip can
// install it from.
type WheelUploader interface {
	UploadFile(ctx context.Context, localPath, remotePath string) (string, error)
}

// Options describe an environment to build.
type Options struct {
	CondaFile        string
	PipExtraIndexURL string
	DockerBaseImage  string
	Variables        map[string]string
	PrivateWheel     string
	Uploader         WheelUploader
}

// Environment is a fully resolved Python environment.
type Environment struct {
	Name             string
	Conda            *condaenv.Document
	PipExtraIndexURL string
	DockerBaseImage  string
	Variables        map[string]string
	PrivateWheelURL  string
}

// Build loads the conda file and resolves the environment described by
// opts. A private wheel must exist locally and requires opts.Uploader.
func Build(ctx context.Context, opts Options) (*Environment, error) {
	raw, err := os.ReadFile(opts.CondaFile)
	if err != nil {
		return nil, err
	}
	doc, err := condaenv.Parse(raw)
	if err != nil {
		if pe, ok := err.(*condaenv.ParseError); ok {
			pe.Path = opts.CondaFile
		}
		return nil, err
	}

	env := &Environment{
		Conda:            doc,
		PipExtraIndexURL: opts.PipExtraIndexURL,
		DockerBaseImage:  opts.DockerBaseImage,
		Variables:        maps.Clone(DefaultVariables),
	}
	maps.Copy(env.Variables, opts.Variables)

	if opts.PrivateWheel != "" {
		if _, err := os.Stat(opts.PrivateWheel); err != nil {
			return nil, fmt.Errorf("cannot add private wheel: %w", err)
		}
		if opts.Uploader == nil {
			return nil, ErrNoUploader
		}
		remote := "wheels/" + filepath.Base(opts.PrivateWheel)
		url, err := opts.Uploader.UploadFile(ctx, opts.PrivateWheel, remote)
		if err != nil {
			return nil, fmt.Errorf("upload private wheel: %w", err)
		}
		env.PrivateWheelURL = url
		env.Conda.AddPip(url)
	}

	env.Name = uniqueName(raw, env)
	return env, nil
}

// PipSpecs returns the pip specifiers of the environment, including the
// private wheel URL when one was added.
func (e *Environment) PipSpecs() []string {
	return e.Conda.PipSpecs()
}

// uniqueName hashes everything that influences package resolution.
func uniqueName(condaYAML []byte, env *Environment) string {
	h := blake3.New()
	h.Write(condaYAML)
	fmt.Fprintf(h, "\x00index=%s\x00docker=%s\x00wheel=%s\x00", env.PipExtraIndexURL, env.DockerBaseImage, env.PrivateWheelURL)
	for _, k := range slices.Sorted(maps.Keys(env.Variables)) {
		fmt.Fprintf(h, "%s=%s\x00", k, env.Variables[k])
	}
	return NamePrefix + hex.EncodeToString(h.Sum(nil))[:nameHashLen]
}
