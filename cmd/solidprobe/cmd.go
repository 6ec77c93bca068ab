package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chazu/solidprobe/pkg/geometry"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is the solidprobe release.
const Version = "0.3.0"

// Cfg holds configuration information.
var Cfg *viper.Viper

// logger is shared by all commands; its level follows the log-level option.
var logger = NamedLogger("solidprobe")

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to solidprobe.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log-level",
			usage: `
              log-level sets the logging threshold: panic, fatal, error,
              warn, info, debug or trace.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "output",
			usage: `
              output selects the report format, text or json.`,
			shorthand:  "o",
			defaultVal: "text",
			flagsets:   []*pflag.FlagSet{evalCmd.Flags(), ticksCmd.Flags()},
		},
		{
			name: "timeout",
			usage: `
              timeout bounds the evaluation of a script, as a duration
              such as 500ms or 5s.`,
			defaultVal: "5s",
			flagsets:   []*pflag.FlagSet{evalCmd.Flags(), meshCmd.Flags()},
		},
		{
			name: "mesh-cells",
			usage: `
              mesh-cells is the number of marching cubes cells along the
              longest axis of each meshed solid.`,
			defaultVal: 200,
			flagsets:   []*pflag.FlagSet{meshCmd.Flags()},
		},
		{
			name: "covers",
			usage: `
              covers also meshes the outermost cover of every placed solid.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{meshCmd.Flags()},
		},
		{
			name: "out",
			usage: `
              out is the mesh output file. The default writes to standard output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{meshCmd.Flags()},
		},
		{
			name: "shape",
			usage: `
              shape is the solid to query: box, trd or trap.`,
			defaultVal: "box",
			flagsets:   []*pflag.FlagSet{ticksCmd.Flags()},
		},
		{
			name: "params",
			usage: `
              params are the comma-separated shape parameters. A box takes
              x,y,z half-lengths; a trd takes z,x1,y1,x2,y2; a trap takes
              dz,theta,phi,dy1,dx1,dx2,alpha1,dy2,dx3,dx4,alpha2.`,
			defaultVal: "1,1,1",
			flagsets:   []*pflag.FlagSet{ticksCmd.Flags()},
		},
		{
			name: "point",
			usage: `
              point is the comma-separated start point of the query line.`,
			defaultVal: "0,0,0",
			flagsets:   []*pflag.FlagSet{ticksCmd.Flags()},
		},
		{
			name: "dir",
			usage: `
              dir is the comma-separated direction of the query line.`,
			defaultVal: "1,0,0",
			flagsets:   []*pflag.FlagSet{ticksCmd.Flags()},
		},
		{
			name: "min",
			usage: `
              min is the lower tick bound. Empty means unbounded.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ticksCmd.Flags()},
		},
		{
			name: "max",
			usage: `
              max is the upper tick bound. Empty means unbounded.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ticksCmd.Flags()},
		},
		{
			name: "tolerance",
			usage: `
              tolerance grows the bounding volumes used by the rejection
              tests reported by ticks.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{ticksCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SOLIDPROBE")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(evalCmd)
	Root.AddCommand(meshCmd)
	Root.AddCommand(ticksCmd)
}

// setConfig reads in the configuration file, if there is one, and applies
// the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("solidprobe: problem reading configuration file: %w", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("solidprobe: %w", err)
	}
	logger.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "solidprobe",
	Short: "Probe solid-geometry shapes.",
	Long: `solidprobe answers containment and line crossing queries against
boxes and trapezoids, either one at a time or from probe scripts that place
solids in a shared world frame.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'SOLIDPROBE_var' where 'var'
is the name of the variable to be set, with dashes replaced by underscores.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of solidprobe.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("solidprobe v%s\n", Version)
	},
	DisableAutoGenTag: true,
}

var evalCmd = &cobra.Command{
	Use:   "eval FILE",
	Short: "Run a probe script.",
	Long: `eval runs a probe script, then prints the placed solids, the result
of every query the script made and any validation findings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("solidprobe: %w", err)
		}
		app := NewApp(logger, Cfg.GetInt("mesh-cells"), Cfg.GetDuration("timeout"))
		report := app.Evaluate(string(source))

		switch Cfg.GetString("output") {
		case "json":
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		case "text":
			writeReport(cmd.OutOrStdout(), report)
		default:
			return fmt.Errorf("solidprobe: unknown output format %q", Cfg.GetString("output"))
		}
		if len(report.Errors) > 0 {
			return fmt.Errorf("solidprobe: %s: %d errors", args[0], len(report.Errors))
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var meshCmd = &cobra.Command{
	Use:   "mesh FILE",
	Short: "Mesh the solids placed by a probe script.",
	Long: `mesh runs a probe script and writes one triangle mesh per placed
solid as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("solidprobe: %w", err)
		}
		app := NewApp(logger, Cfg.GetInt("mesh-cells"), Cfg.GetDuration("timeout"))
		result := app.Mesh(string(source), Cfg.GetBool("covers"))
		if len(result.Errors) > 0 {
			for _, e := range result.Errors {
				logger.WithField("line", e.Line).Error(e.Message)
			}
			return fmt.Errorf("solidprobe: %s: %d errors", args[0], len(result.Errors))
		}

		w := cmd.OutOrStdout()
		if path := Cfg.GetString("out"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("solidprobe: %w", err)
			}
			defer f.Close()
			w = f
		}
		return writeJSON(w, result)
	},
	DisableAutoGenTag: true,
}

// TicksReport is the result of a one-off query.
type TicksReport struct {
	Solid          string          `json:"solid"`
	Inside         bool            `json:"inside"`
	Ticks          []geometry.Tick `json:"ticks"`
	OutBSphere     bool            `json:"out_bsphere"`
	OutBCylinder   bool            `json:"out_bcylinder"`
	CrossBSphere   bool            `json:"cross_bsphere"`
	CrossBCylinder bool            `json:"cross_bcylinder"`
}

var ticksCmd = &cobra.Command{
	Use:   "ticks",
	Short: "Query one solid.",
	Long: `ticks builds a single solid centred on the origin and reports whether
the start point is inside it, the ticks where the query line crosses its
surface and the outcome of the bounding volume tests.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildSolid(Cfg.GetString("shape"), Cfg.GetString("params"))
		if err != nil {
			return err
		}
		p, err := parseVec(Cfg.GetString("point"))
		if err != nil {
			return fmt.Errorf("solidprobe: point: %w", err)
		}
		v, err := parseVec(Cfg.GetString("dir"))
		if err != nil {
			return fmt.Errorf("solidprobe: dir: %w", err)
		}
		tMin, err := parseBound(Cfg.GetString("min"), math.Inf(-1))
		if err != nil {
			return fmt.Errorf("solidprobe: min: %w", err)
		}
		tMax, err := parseBound(Cfg.GetString("max"), math.Inf(1))
		if err != nil {
			return fmt.Errorf("solidprobe: max: %w", err)
		}

		report := probeSolid(s, p, v, tMin, tMax, Cfg.GetFloat64("tolerance"))
		logger.WithFields(s.Fields()).Debug("queried solid")

		switch Cfg.GetString("output") {
		case "json":
			return writeJSON(cmd.OutOrStdout(), report)
		case "text":
			fmt.Fprintf(cmd.OutOrStdout(), "%s\ninside: %t\nticks: %v\n", report.Solid, report.Inside, report.Ticks)
			fmt.Fprintf(cmd.OutOrStdout(), "bounding sphere: out=%t crossed=%t\n", report.OutBSphere, report.CrossBSphere)
			fmt.Fprintf(cmd.OutOrStdout(), "bounding cylinder: out=%t crossed=%t\n", report.OutBCylinder, report.CrossBCylinder)
			return nil
		default:
			return fmt.Errorf("solidprobe: unknown output format %q", Cfg.GetString("output"))
		}
	},
	DisableAutoGenTag: true,
}

// probeSolid runs every query of the ticks command against s.
func probeSolid(s geometry.Solid, p, v v3.Vec, tMin, tMax geometry.Tick, tol float64) TicksReport {
	var ts geometry.Ticks
	if math.IsInf(tMin, -1) && math.IsInf(tMax, 1) {
		s.IntersectionTicks(p, v, &ts)
	} else {
		s.IntersectionTicksRange(p, v, tMin, tMax, &ts)
	}
	return TicksReport{
		Solid:          s.String(),
		Inside:         s.IsInside(p),
		Ticks:          ts.Slice(),
		OutBSphere:     s.IsOutBSphere(p, tol),
		OutBCylinder:   s.IsOutBCylinder(p, tol),
		CrossBSphere:   s.CrossBSphere(p, v, tol),
		CrossBCylinder: s.CrossBCylinder(p, v, tol),
	}
}

// buildSolid constructs a shape named "probe" from comma-separated parameters.
func buildSolid(shape, params string) (geometry.Solid, error) {
	f, err := parseFloats(params)
	if err != nil {
		return nil, fmt.Errorf("solidprobe: params: %w", err)
	}
	want := map[string]int{"box": 3, "trd": 5, "trap": 11}
	n, ok := want[shape]
	if !ok {
		return nil, fmt.Errorf("solidprobe: unknown shape %q", shape)
	}
	if len(f) != n {
		return nil, fmt.Errorf("solidprobe: %s takes %d parameters, got %d", shape, n, len(f))
	}

	var solid geometry.Solid
	switch shape {
	case "box":
		solid, err = asSolid(geometry.NewBox("probe", f[0], f[1], f[2]))
	case "trd":
		solid, err = asSolid(geometry.NewTrd("probe", f[0], f[1], f[2], f[3], f[4]))
	default:
		solid, err = asSolid(geometry.NewTrap("probe", geometry.TrapParams{
			DZ: f[0], Theta: f[1], Phi: f[2],
			DY1: f[3], DX1: f[4], DX2: f[5], Alpha1: f[6],
			DY2: f[7], DX3: f[8], DX4: f[9], Alpha2: f[10],
		}))
	}
	if err != nil {
		return nil, fmt.Errorf("solidprobe: %w", err)
	}
	return solid, nil
}

// asSolid keeps a failed construction from becoming a non-nil interface
// holding a nil pointer.
func asSolid[T geometry.Solid](s T, err error) (geometry.Solid, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// parseFloats converts a comma-separated list of numbers.
func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, item := range strings.Split(s, ",") {
		f, err := cast.ToFloat64E(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// parseVec converts "x,y,z".
func parseVec(s string) (v3.Vec, error) {
	f, err := parseFloats(s)
	if err != nil {
		return v3.Vec{}, err
	}
	if len(f) != 3 {
		return v3.Vec{}, fmt.Errorf("expected 3 components, got %d", len(f))
	}
	return v3.Vec{X: f[0], Y: f[1], Z: f[2]}, nil
}

// parseBound converts a tick bound, returning def for an empty string.
func parseBound(s string, def float64) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return cast.ToFloat64E(strings.TrimSpace(s))
}

func writeJSON(w io.Writer, v interface{}) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(v); err != nil {
		return fmt.Errorf("solidprobe: encoding output: %w", err)
	}
	return nil
}

// writeReport prints a Report as text.
func writeReport(w io.Writer, r Report) {
	if len(r.Entries) > 0 {
		fmt.Fprintln(w, "entries:")
		for _, e := range r.Entries {
			fmt.Fprintf(w, "  %s %s %q at (%g, %g, %g)\n", e.ID[:8], e.Type, e.Name, e.At.X, e.At.Y, e.At.Z)
		}
	}
	if len(r.Probes) > 0 {
		fmt.Fprintln(w, "probes:")
		for _, p := range r.Probes {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	for _, e := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", e.Message)
	}
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "error: line %d: %s\n", e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "error: %s\n", e.Message)
		}
	}
}
