package commands

import (
	"bufio"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/chartpulse/internal/identity"
)

func newResolveCmd(g *globals) *cobra.Command {
	var dirs []string

	cmd := &cobra.Command{
		Use:   "resolve [credit...]",
		Short: "Resolve performer credits to canonical main artists",
		Long:  "Resolves each credit argument, or each line of stdin when no arguments are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadIdentity(dirs)
			if err != nil {
				return err
			}
			r := identity.NewResolver(reg.Table())
			if len(args) > 0 {
				for _, credit := range args {
					printResolution(cmd.OutOrStdout(), r.Resolve(credit))
				}
				return nil
			}
			return resolveLines(cmd.InOrStdin(), cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().StringSliceVar(&dirs, "identity-dir", nil, "directories of identity YAML tables (repeatable)")
	return cmd
}

func resolveLines(in io.Reader, out io.Writer, r *identity.Resolver) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		printResolution(out, r.Resolve(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading credits: %w", err)
	}
	return nil
}

func printResolution(out io.Writer, res identity.Resolution) {
	if res.Credit == "" {
		return
	}
	var notes string
	if res.IsCollaboration {
		notes += color.CyanString(" [collab]")
	}
	if res.Exception != "" {
		notes += color.YellowString(" [exception: %s]", res.Exception)
	}
	if res.MainArtist != res.Canonical {
		notes += fmt.Sprintf(" [alias of %s]", res.MainArtist)
	}
	fmt.Fprintf(out, "%-40s -> %s%s\n", res.Credit, res.Canonical, notes)
}
