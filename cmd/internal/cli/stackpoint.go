package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wagoodman/stacko/internal/pkg/stacksession"
)

func newStackpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-stackpoint POINT IMAGE",
		Short: "Create a stackpoint bound to an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *stacksession.Session) error {
				return s.Points.NewPoint(args[0], args[1])
			})
		},
	}
}

func newStackpointInstanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-stackpoint-instance POINT IMAGE",
		Short: "Add an image to a stackpoint's history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *stacksession.Session) error {
				return s.Points.NewPointInstance(args[0], args[1])
			})
		},
	}
}

func setStackpointInstanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-stackpoint-instance POINT IMAGE",
		Short: "Select the current image for a stackpoint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *stacksession.Session) error {
				return s.Points.SetPointInstance(args[0], args[1])
			})
		},
	}
}

func deleteStackpointInstanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-stackpoint-instance POINT IMAGE",
		Short: "Remove an image from a stackpoint's history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *stacksession.Session) error {
				return s.Points.DeletePointInstance(args[0], args[1])
			})
		},
	}
}

func mountStackpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mount-stackpoint POINT",
		Short: "Mount a stackpoint's current image at its public path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRoot(); err != nil {
				return err
			}
			return withSession(func(s *stacksession.Session) error {
				path, err := s.Points.Mount(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
}

func umountStackpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "umount-stackpoint POINT",
		Short: "Unmount a stackpoint's public path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRoot(); err != nil {
				return err
			}
			return withSession(func(s *stacksession.Session) error {
				return s.Points.Umount(args[0])
			})
		},
	}
}

func listStackpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-stackpoints [POINT]",
		Short: "List stackpoints and their image history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(func(s *stacksession.Session) error {
				name := color.New(color.FgGreen).SprintFunc()
				for _, p := range s.Points.ListPoints() {
					if len(args) == 1 && p.Name != args[0] {
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (history: %v)\n", name(p.Name), p.CurrentImage, p.ImageHistory)
				}
				return nil
			})
		},
	}
}
