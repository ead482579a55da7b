package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wagoodman/stacko/internal/pkg/overlay"
	"github.com/wagoodman/stacko/internal/pkg/stacksession"
	"github.com/wagoodman/stacko/pkg/manifest"
)

func withSession(fn func(*stacksession.Session) error) error {
	return stacksession.Run(context.Background(), currentConfig(), manifest.JSONCodec{}, overlay.New(), fn)
}

func newImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-image NAME [PARENT]",
		Short: "Create a new image",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parent *string
			if len(args) == 2 {
				parent = &args[1]
			}
			return withSession(func(s *stacksession.Session) error {
				return s.Images.NewImage(args[0], parent)
			})
		},
	}
}

func deleteImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-image NAME",
		Short: "Delete an image with no children, instances, or live mounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *stacksession.Session) error {
				return s.Images.DeleteImage(args[0])
			})
		},
	}
}

var editImageReadOnly bool

func editImageCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "edit-image NAME",
		Short: "Mount an image's own base layer for editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRoot(); err != nil {
				return err
			}
			return withSession(func(s *stacksession.Session) error {
				path, err := s.Images.MountImage(args[0], !editImageReadOnly)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
	c.Flags().BoolVar(&editImageReadOnly, "read-only", false, "mount the image read-only")
	return c
}

func closeImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close-image NAME",
		Short: "Unmount an image's own base layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRoot(); err != nil {
				return err
			}
			return withSession(func(s *stacksession.Session) error {
				return s.Images.UmountImage(args[0])
			})
		},
	}
}

var listImagesTree bool

func listImagesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list-images",
		Short: "List every image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *stacksession.Session) error {
				images := s.Images.ListImages()
				if listImagesTree {
					printImageTree(cmd, images)
					return nil
				}
				for _, img := range images {
					fmt.Fprintln(cmd.OutOrStdout(), img.Name)
				}
				return nil
			})
		},
	}
	c.Flags().BoolVar(&listImagesTree, "tree", false, "print images as a parent/child tree")
	return c
}

func listInstancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-instances [IMAGE]",
		Short: "List the non-self instances of an image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *stacksession.Session) error {
				if len(args) == 0 {
					for _, img := range s.Images.ListImages() {
						for _, inst := range img.Instances {
							fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", img.Name, inst)
						}
					}
					return nil
				}
				instances, err := s.Images.ListInstances(args[0])
				if err != nil {
					return err
				}
				for _, inst := range instances {
					fmt.Fprintln(cmd.OutOrStdout(), inst)
				}
				return nil
			})
		},
	}
}

func printImageTree(cmd *cobra.Command, images []*manifest.Image) {
	byParent := map[string][]*manifest.Image{}
	var roots []*manifest.Image
	for _, img := range images {
		if img.Parent == nil {
			roots = append(roots, img)
			continue
		}
		byParent[*img.Parent] = append(byParent[*img.Parent], img)
	}
	sortByName := func(imgs []*manifest.Image) {
		sort.Slice(imgs, func(i, j int) bool { return imgs[i].Name < imgs[j].Name })
	}
	sortByName(roots)
	for _, children := range byParent {
		sortByName(children)
	}

	name := color.New(color.FgCyan).SprintFunc()
	var walk func(img *manifest.Image, prefix, ancestorPrefix string)
	walk = func(img *manifest.Image, prefix, ancestorPrefix string) {
		fmt.Fprintln(cmd.OutOrStdout(), prefix+name(img.Name))
		children := byParent[img.Name]
		for i, child := range children {
			branch, continuation := "├── ", "│   "
			if i == len(children)-1 {
				branch, continuation = "└── ", "    "
			}
			walk(child, ancestorPrefix+branch, ancestorPrefix+continuation)
		}
	}
	for _, root := range roots {
		walk(root, "", "")
	}
}
