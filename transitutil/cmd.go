/*
Copyright © 2026 the Transit authors.
This file is part of Transit.

Transit is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Transit is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Transit.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package transitutil wires the transit engine into a command-line
// program: configuration handling, logging, and the scenario loader.
package transitutil

import (
	"fmt"
	"os"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RSirimanne/transit"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var log = logrus.New()

var options = []struct {
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
		name: "scenario",
		usage: `
              scenario specifies the TOML scenario file holding the
              atmosphere, isotope, and line-list inputs.`,
		shorthand:  "s",
		defaultVal: "scenario.toml",
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name: "output",
		usage: `
              output specifies the location of the output spectrum (or
              extinction table). "-" writes to standard output.`,
		shorthand:  "o",
		defaultVal: "-",
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name: "ethresh",
		usage: `
              ethresh specifies the weak-line threshold: lines weaker than
              ethresh times the strongest line of a layer are skipped.`,
		defaultVal: 1e-8,
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name: "toomuch",
		usage: `
              toomuch specifies the saturation optical depth beyond which
              deeper rays are treated as fully blocked.`,
		defaultVal: 20.0,
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name: "timesalpha",
		usage: `
              timesalpha specifies the half-width of computed Voigt
              profiles in units of the broadening width.`,
		defaultVal: 50.0,
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name: "nimpact",
		usage: `
              nimpact specifies the number of sampled impact parameters;
              0 samples one ray per atmospheric layer.`,
		defaultVal: 0,
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name: "solution",
		usage: `
              solution selects the ray geometry: "straight" or "bent".`,
		defaultVal: "straight",
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name: "checkpoint",
		usage: `
              checkpoint specifies the extinction checkpoint file used to
              resume long runs. Empty disables checkpointing.`,
		defaultVal: "",
		flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
	},
	{
		name: "layer",
		usage: `
              layer specifies the layer index for the extinction table
              dump.`,
		defaultVal: 0,
		flagsets:   []*pflag.FlagSet{extinctionCmd.Flags()},
	},
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "transit",
	Short: "Transit models the transmission spectrum of a planetary atmosphere.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute the extinction grid and the transit modulation spectrum.",
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := buildRun()
		if err != nil {
			return err
		}
		st, err := tr.ComputeExtinction()
		if err != nil {
			return err
		}
		logStats(st)
		spec, err := tr.Spectrum()
		if err != nil {
			return err
		}
		var mod stats.Stats
		for _, m := range spec.Modulation {
			mod.Update(m)
		}
		log.WithFields(logrus.Fields{
			"wavenumbers": len(spec.Modulation),
			"mean":        mod.Mean(),
			"deepest":     mod.Min(),
		}).Info("modulation spectrum computed")
		return writeOutput(func(w *os.File) error {
			_, err := spec.WriteTo(w)
			return err
		})
	},
}

var extinctionCmd = &cobra.Command{
	Use:   "extinction",
	Short: "Compute the extinction grid and dump one layer as a diagnostic table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := buildRun()
		if err != nil {
			return err
		}
		st, err := tr.ComputeExtinction()
		if err != nil {
			return err
		}
		logStats(st)
		layer := cast.ToInt(Cfg.Get("layer"))
		return writeOutput(func(w *os.File) error {
			return tr.WriteExtinctionTable(w, layer)
		})
	},
}

func init() {
	Root.AddCommand(runCmd, extinctionCmd)

	Cfg = viper.New()
	Cfg.SetEnvPrefix("TRANSIT")
	Cfg.AutomaticEnv()
	for _, option := range options {
		for _, set := range option.flagsets {
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic(fmt.Sprintf("invalid argument type %T for option %s", v, option.name))
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

// initConfig reads in the configuration file named by the config flag,
// when one is given.
func initConfig() error {
	if file := cast.ToString(Cfg.Get("config")); file != "" {
		Cfg.SetConfigFile(file)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("transitutil: reading configuration %s: %w", file, err)
		}
	}
	return nil
}

// buildRun assembles a run from the configured scenario and options.
func buildRun() (*transit.Transit, error) {
	cfg := transit.DefaultConfig()
	cfg.Ethresh = cast.ToFloat64(Cfg.Get("ethresh"))
	cfg.Toomuch = cast.ToFloat64(Cfg.Get("toomuch"))
	cfg.TimesAlpha = cast.ToFloat64(Cfg.Get("timesalpha"))
	cfg.NImpact = cast.ToInt(Cfg.Get("nimpact"))
	cfg.Checkpoint = cast.ToString(Cfg.Get("checkpoint"))
	switch sol := cast.ToString(Cfg.Get("solution")); sol {
	case "straight", "":
		cfg.Solution = transit.StraightRay
	case "bent":
		cfg.Solution = transit.BentRay
	default:
		return nil, fmt.Errorf("transitutil: unknown ray solution %q", sol)
	}

	path := cast.ToString(Cfg.Get("scenario"))
	scenario, err := ReadScenario(path)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"scenario": path,
		"layers":   len(scenario.Atmosphere.Radius),
		"lines":    len(scenario.Lines),
		"solution": cfg.Solution,
	}).Info("scenario loaded")
	return scenario.Build(cfg)
}

func logStats(st transit.RunStats) {
	log.WithFields(logrus.Fields{
		"layers":    st.Layers,
		"restored":  st.Restored,
		"evaluated": st.Evaluated,
		"coadded":   st.CoAdded,
		"skipped":   st.Skipped,
	}).Info("extinction grid computed")
}

// writeOutput runs f against the configured output destination.
func writeOutput(f func(*os.File) error) error {
	out := cast.ToString(Cfg.Get("output"))
	if out == "" || out == "-" {
		return f(os.Stdout)
	}
	w, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("transitutil: creating output %s: %w", out, err)
	}
	if err := f(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
