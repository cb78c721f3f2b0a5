package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kingrea/blockout/internal/bake"
	"github.com/kingrea/blockout/internal/blockout"
)

func edgeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "Flag, select and bake semantic edge attributes",
	}
	cmd.AddCommand(edgeSetCmd(e), edgeSelectCmd(e), edgeApplyCmd(e))
	return cmd
}

func edgeSetCmd(e *env) *cobra.Command {
	var value float64
	cmd := &cobra.Command{
		Use:   "set <attribute>",
		Short: "Write an attribute on the selected edges (majority toggle unless --value is given)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toggle := !cmd.Flags().Changed("value")
			return e.run(cmd, func(s *blockout.Session) (string, error) {
				written, err := s.SetEdgeAttribute(args[0], value, toggle)
				return fmt.Sprintf("%s = %g", args[0], written), err
			})
		},
	}
	cmd.Flags().Float64Var(&value, "value", 0, "explicit value to write")
	return cmd
}

func edgeSelectCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "select <attribute>",
		Short: "Replace the edge selection with every edge flagged in attribute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(s *blockout.Session) (string, error) {
				n, err := s.SelectByAttribute(args[0])
				return fmt.Sprintf("Selected %d edges", n), err
			})
		},
	}
}

func edgeApplyCmd(e *env) *cobra.Command {
	var ov bake.Overrides
	cmd := &cobra.Command{
		Use:   "apply <attribute>",
		Short: "Bake the attribute on the selected edges into geometry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(s *blockout.Session) (string, error) {
				res, err := s.ApplyAttribute(args[0], ov)
				if err != nil {
					return "", err
				}
				if res.Baked == 0 {
					return "Nothing to bake", nil
				}
				return fmt.Sprintf("Baked %d edges (%s)", res.Baked, res.Operation), nil
			})
		},
	}
	cmd.Flags().IntVar(&ov.Segments, "segments", 0, "override bevel segments")
	cmd.Flags().Float64Var(&ov.Width, "width", 0, "override bevel width")
	return cmd
}

func sliderCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "slider <chamfer_weight|fillet_weighted> <percent>",
		Short: "Set a slider; the selected edges receive percent/100",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("percent %q: %w", args[1], err)
			}
			return e.run(cmd, func(s *blockout.Session) (string, error) {
				return fmt.Sprintf("%s slider %g%%", args[0], pct), s.EditSlider(args[0], pct)
			})
		},
	}
}
