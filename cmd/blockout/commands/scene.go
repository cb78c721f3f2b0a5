package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/blockout"
	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/selection"
)

func statusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active object, its selection, flags and modifier stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			s.View(func(doc *document.Document) {
				printf(out, "mode: %s (%s)\n", doc.Mode, doc.SelectMode)
				obj := doc.ActiveObject()
				if obj == nil {
					printf(out, "active: none\n")
					return
				}
				printf(out, "active: %s\n", obj.Name)
				if obj.IsMesh() {
					printf(out, "selected edges: %v\n", obj.Mesh.SelectedEdges())
					for _, attr := range attribute.EdgeFlags() {
						if !attribute.Present(obj.Mesh, attr) {
							continue
						}
						n, err := attribute.CountFlagged(obj.Mesh, attr, selection.AllEdges(obj.Mesh))
						if err == nil {
							printf(out, "  %-18s %d\n", attr, n)
						}
					}
				}
				for _, name := range []string{attribute.ChamferWeight, attribute.FilletWeighted} {
					printf(out, "slider %s: %.0f%%\n", name, doc.Slider(name))
				}
				for i, mod := range obj.Modifiers {
					owner := "user"
					if mod.Owned {
						owner = mod.Role
					}
					printf(out, "%2d %-24s %-16s %s visible=%t\n", i, mod.Name, mod.Kind, owner, mod.ShowViewport)
				}
			})
			return nil
		},
	}
}

func modeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "mode <object|edit> [vertex|edge|face]",
		Short: "Switch the interaction mode and optionally the select mode",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var selectMode document.SelectMode
			if len(args) == 2 {
				selectMode = document.SelectMode(args[1])
			}
			return e.run(cmd, func(s *blockout.Session) (string, error) {
				return "Mode " + strings.ToUpper(args[0]), s.SetMode(document.Mode(args[0]), selectMode)
			})
		},
	}
}

func selectCmd(e *env) *cobra.Command {
	var object string
	cmd := &cobra.Command{
		Use:   "select [edge...]",
		Short: "Replace the active mesh's edge selection (no edges clears it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(args)
			if err != nil {
				return err
			}
			return e.run(cmd, func(s *blockout.Session) (string, error) {
				if object != "" {
					if err := s.SetActive(object); err != nil {
						return "", err
					}
				}
				return fmt.Sprintf("Selected %d edges", len(indices)), s.SelectEdges(indices)
			})
		},
	}
	cmd.Flags().StringVar(&object, "object", "", "make this object active first")
	return cmd
}

func parseIndices(args []string) ([]int, error) {
	var out []int
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			idx, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("edge index %q: %w", field, err)
			}
			out = append(out, idx)
		}
	}
	return out, nil
}

func addModifiersCmd(e *env) *cobra.Command {
	opts := blockout.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "add-modifiers",
		Short: "Install the managed modifier stack on the selected meshes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(s *blockout.Session) (string, error) {
				res, err := s.AddModifiers(opts)
				if err != nil {
					return "", err
				}
				msg := fmt.Sprintf("Created %d modifiers on %d objects", res.Created, res.Objects)
				if len(res.Failed) > 0 {
					msg += fmt.Sprintf(" (skipped: %s)", strings.Join(res.Failed, ", "))
				}
				return msg, nil
			})
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&opts.Simplified, "simplified", opts.Simplified, "only subd, panel and chamfer")
	flags.BoolVar(&opts.SubD, "subd", opts.SubD, "subdivision")
	flags.BoolVar(&opts.ConstrainedFillet, "constrained-fillet", opts.ConstrainedFillet, "constrained fillet bevel and weld")
	flags.BoolVar(&opts.WeightedFillet, "weighted-fillet", opts.WeightedFillet, "weighted fillet bevel")
	flags.BoolVar(&opts.Panel, "panel", opts.Panel, "panel split and panelize")
	flags.BoolVar(&opts.Chamfer, "chamfer", opts.Chamfer, "edge detect, chamfer and weighted normals")
	flags.BoolVar(&opts.AutoUV, "auto-uv", opts.AutoUV, "automatic UV node group")
	flags.BoolVar(&opts.Shrinkwrap, "shrinkwrap", opts.Shrinkwrap, "shrinkwrap projection")
	return cmd
}

func visibilityCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "visibility",
		Short: "Toggle the viewport visibility of every managed modifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(s *blockout.Session) (string, error) {
				res, err := s.ToggleModifierVisibility()
				if err != nil || res.Total == 0 {
					return "No managed modifiers", err
				}
				if res.Shown {
					return fmt.Sprintf("Showing %d modifiers", res.Total), nil
				}
				return fmt.Sprintf("Hiding %d modifiers", res.Total), nil
			})
		},
	}
}

func mirrorCmd(e *env) *cobra.Command {
	var opts blockout.MirrorOptions
	var axes string
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Mirror the selected meshes across their empty or root ancestor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, axis := range strings.ToLower(axes) {
				switch axis {
				case 'x':
					opts.X = true
				case 'y':
					opts.Y = true
				case 'z':
					opts.Z = true
				default:
					return fmt.Errorf("unknown axis %q", axis)
				}
			}
			return e.run(cmd, func(s *blockout.Session) (string, error) {
				return "Mirror configured", s.SmartMirror(opts)
			})
		},
	}
	cmd.Flags().StringVar(&axes, "axes", "y", "mirror axes, any of xyz")
	cmd.Flags().BoolVar(&opts.ByRoot, "by-root", false, "mirror across the topmost ancestor")
	return cmd
}

func modifierCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modifier",
		Short: "Manage unmanaged (user) modifiers",
	}
	add := &cobra.Command{
		Use:   "add <kind> [name]",
		Short: "Append a user modifier to the active object",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			return e.run(cmd, func(s *blockout.Session) (string, error) {
				mod, err := s.AddUserModifier(document.ModifierKind(args[0]), name)
				if err != nil {
					return "", err
				}
				return "Added " + mod.Name, nil
			})
		},
	}
	cmd.AddCommand(add)
	return cmd
}
