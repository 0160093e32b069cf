package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
)

// Usage lines, shared by the help output and the usage errors.
const (
	usageMerge      = "condakit merge -o <output> [--pip-file <file>]... <conda.yml>..."
	usagePipInclude = "condakit pip-include [--replace <spec>]... [-o <output>] <conda.yml>"
	usageEnvName    = "condakit env-name [flags] <conda.yml>"
	usageWorkspace  = "condakit workspace <add|list|show|rm> [name]"
	usageUpload     = "condakit upload [flags] <local-dir> <remote-path>"
	usageDownload   = "condakit download [flags] <remote-path> [local-dir]"
	usageRuns       = "condakit runs [--run <ids> | --latest_run_file <file> | --experiment <name> [--tags <tags>] [--num_runs <n>]]"
	usageRunFiles   = "condakit run-files [--prefix <p>] [--download <dir>] <run id>"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(ctx context.Context, args []string) error
}

var commands = []command{
	{
		name:  "merge",
		short: "Merge conda environment files",
		usage: usageMerge,
		long: `Merge one or more conda environment files into a single file.

Channels are combined in first-seen order. Conda dependencies keep the
first occurrence of each package; pip dependencies keep the last and are
sorted. Pip include lines (-r <file>) in the inputs are dropped. Lines of
every --pip-file are added as pip dependencies.

Flags:
  -o, --output     file to write (required)
      --pip-file   requirements file to add, may be repeated
`,
		run: runMerge,
	},
	{
		name:  "pip-include",
		short: "Resolve pip include lines of a conda file",
		usage: usagePipInclude,
		long: `Remove pip include lines (-r <file>, --requirement <file>) from a conda
environment file and optionally put the given specifiers in their place.

The result is written to --output, or to stdout.
`,
		run: runPipInclude,
	},
	{
		name:  "env-name",
		short: "Print the unique name of a Python environment",
		usage: usageEnvName,
		long: `Resolve a Python environment from a conda file and print its unique
name. The name changes whenever anything that affects package resolution
changes.

Flags:
      --pip-extra-index-url  extra index for pip
      --docker-base-image    base image of the environment
      --env KEY=VALUE        environment variable, may be repeated
      --private-wheel        local wheel to upload to the workspace datastore
      --config, --profile    workspace to upload the private wheel to
`,
		run: runEnvName,
	},
	{
		name:  "workspace",
		short: "Manage workspace profiles",
		usage: usageWorkspace,
		long: `Manage named workspace profiles stored in ~/.condakit/workspaces/.

  add <name>    prompt for the workspace details and save them
  list          list saved profiles
  show [name]   print a profile, or the workspace resolved from the
                current directory when no name is given
  rm <name>     delete a profile
`,
		run: runWorkspace,
	},
	{
		name:  "upload",
		short: "Upload a local folder to the workspace datastore",
		usage: usageUpload,
		long: `Upload every file below <local-dir> to <remote-path> on the datastore
of the workspace. Files matching the deny list in .condakit/settings.yaml
are skipped, as are files already present unless --overwrite is given.

Flags:
      --overwrite   replace files that already exist
      --progress    log every file
`,
		run: runUpload,
	},
	{
		name:  "download",
		short: "Download a folder from the workspace datastore",
		usage: usageDownload,
		long: `Download every file below <remote-path> on the datastore of the workspace
to <local-dir>/<remote-path>. <local-dir> defaults to the current directory.

Flags:
      --overwrite   replace local files that already exist
      --progress    log every file
`,
		run: runDownload,
	},
	{
		name:  "runs",
		short: "List runs of an experiment",
		usage: usageRuns,
		long: `List runs selected by ID, by the ID stored in a file, or as the latest
runs of an experiment that carry the given tags.

Each run is printed with its recovery ID (<experiment>:<run id>).
`,
		run: runRuns,
	},
	{
		name:  "run-files",
		short: "List or download the files of a run",
		usage: usageRunFiles,
		long: `List the files of a run, or download them to --download.

<run id> may carry its experiment as in <experiment>:<run id>.
`,
		run: runRunFiles,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "condakit: conda environments, workspaces and runs\n\n")
	fmt.Fprintf(w, "Usage:\n  condakit <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'condakit help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "condakit: unknown command %q\n\nRun 'condakit help' for usage.\n", name)
}

func dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(ctx, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'condakit help' for usage.", args[0])
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := dispatch(ctx, os.Args[1:]); err != nil {
		stop()
		log.Fatal(err)
	}
}
