// Package cli is the thin command facade spec.md §2 calls "Command
// facade": it dispatches one operation on ImageEngine or
// StackpointEngine per invocation, through stacksession. Grounded on
// cmd/internal/cli/overlay_create.go/overlay.go's cobra.Command +
// flag shape, simplified: commands declare Use/Short (and, on the
// root, Long) inline rather than through the teacher's pkg/cmdline/docs
// templating layer, which exists to serve a CLI surface (remote
// endpoints, plugins, OCI build flags) this system does not have.
package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/wagoodman/stacko/pkg/stackerr"
	"github.com/wagoodman/stacko/pkg/stackoconf"
	"github.com/wagoodman/stacko/pkg/stlog"
)

var (
	debugFlag   bool
	verboseFlag bool
	quietFlag   bool

	imagesDirFlag   string
	mountsDirFlag   string
	metadataDirFlag string
	lockPathFlag    string
)

// NewRootCmd builds the stacko command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stacko",
		Short: "Manage layered filesystem images and stackpoints",
		Long: `stacko manages a catalog of layered filesystem images and named
stackpoints that mount those images as unioned, possibly-writable views
using OverlayFS.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			stlog.SetVerbosity(debugFlag, verboseFlag, quietFlag)
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "only log errors")

	root.PersistentFlags().StringVar(&imagesDirFlag, "images-dir", "", "override the images root directory")
	root.PersistentFlags().StringVar(&mountsDirFlag, "mounts-dir", "", "override the mounts root directory")
	root.PersistentFlags().StringVar(&metadataDirFlag, "metadata-dir", "", "override the metadata root directory")
	root.PersistentFlags().StringVar(&lockPathFlag, "lock-path", "", "override the cross-process lock file path")

	root.AddCommand(
		newImageCmd(),
		deleteImageCmd(),
		editImageCmd(),
		closeImageCmd(),
		listImagesCmd(),
		listInstancesCmd(),
		newStackpointCmd(),
		newStackpointInstanceCmd(),
		setStackpointInstanceCmd(),
		deleteStackpointInstanceCmd(),
		mountStackpointCmd(),
		umountStackpointCmd(),
		listStackpointsCmd(),
	)

	return root
}

// Execute runs the root command and maps a returned error onto
// spec.md §6's CLI error policy: print "Error: <message>" and exit 1 —
// DESIGN.md's Open Question decision to make this an explicit,
// non-zero policy rather than the original's exit 0.
func Execute() {
	if runtime.GOOS != "linux" {
		err := stackerr.New(stackerr.KindUnsupportedPlatform, "stacko requires Linux (running on %s)", runtime.GOOS)
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func currentConfig() *stackoconf.Config {
	cfg := stackoconf.Default(defaultRoot())
	if imagesDirFlag != "" {
		cfg.ImagesDir = imagesDirFlag
	}
	if mountsDirFlag != "" {
		cfg.MountsDir = mountsDirFlag
	}
	if metadataDirFlag != "" {
		cfg.MetadataDir = metadataDirFlag
	}
	if lockPathFlag != "" {
		cfg.LockPath = lockPathFlag
	}
	return cfg
}

func defaultRoot() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
