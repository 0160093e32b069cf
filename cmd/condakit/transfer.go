package main

import (
	"context"
	"fmt"

	"condakit/internal/datastore"
	"condakit/internal/workspace"
)

// ---------------------------------------------------------------------------
// upload
// ---------------------------------------------------------------------------

func runUpload(ctx context.Context, args []string) error {
	flagSet := newFlagSet("upload")
	var ws workspaceOptions
	ws.AddFlags(flagSet)
	overwrite := flagSet.Bool("overwrite", false, "replace files that already exist")
	progress := flagSet.Bool("progress", false, "log every file")
	if err := flagSet.Parse(args); err != nil {
		return usageError(usageUpload, err)
	}
	if flagSet.NArg() != 2 {
		return usageError(usageUpload, nil)
	}
	localDir, remotePath := flagSet.Arg(0), flagSet.Arg(1)

	settings, err := workspace.LoadSettings(localDir)
	if err != nil {
		return err
	}
	store, err := ws.datastore(ws.logger("upload"))
	if err != nil {
		return err
	}
	stats, err := store.Upload(ctx, localDir, remotePath, datastore.Options{
		Overwrite:    *overwrite,
		ShowProgress: *progress,
		Skip:         settings.IsDenied,
	})
	if err != nil {
		return err
	}
	fmt.Printf("uploaded %d file(s) to %s (%d skipped)\n", stats.Files, store.URL(remotePath), stats.Skipped)
	return nil
}

// ---------------------------------------------------------------------------
// download
// ---------------------------------------------------------------------------

func runDownload(ctx context.Context, args []string) error {
	flagSet := newFlagSet("download")
	var ws workspaceOptions
	ws.AddFlags(flagSet)
	overwrite := flagSet.Bool("overwrite", false, "replace local files that already exist")
	progress := flagSet.Bool("progress", false, "log every file")
	if err := flagSet.Parse(args); err != nil {
		return usageError(usageDownload, err)
	}
	if flagSet.NArg() < 1 || flagSet.NArg() > 2 {
		return usageError(usageDownload, nil)
	}
	remotePath, localDir := flagSet.Arg(0), "."
	if flagSet.NArg() == 2 {
		localDir = flagSet.Arg(1)
	}

	store, err := ws.datastore(ws.logger("download"))
	if err != nil {
		return err
	}
	stats, err := store.Download(ctx, remotePath, localDir, datastore.Options{
		Overwrite:    *overwrite,
		ShowProgress: *progress,
	})
	if err != nil {
		return err
	}
	fmt.Printf("downloaded %d file(s) from %s (%d skipped)\n", stats.Files, store.URL(remotePath), stats.Skipped)
	return nil
}
