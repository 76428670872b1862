package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukerupert/propinspect"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// defaultConfigFile is read from the working directory when present.
const defaultConfigFile = ".propinspect.yaml"

// app carries the settings and streams shared by every command.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "propinspect",
		Short: "Score, update and derive deficiencies for inspection documents",
		Long: `propinspect runs the inspection engines against documents on disk.

Documents are JSON, or YAML when the file ends in .yaml or .yml. Patches use
null to delete an item or section, and omit keys that do not change.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (default "+defaultConfigFile+" when present)")
	flags.String("eligibility", "", "YAML eligibility table replacing the built-in one")
	flags.StringP("format", "f", formatTable, "Output format (table|json|yaml); table applies to score, other commands print json")
	flags.Int64("now", 0, "Unix time used as the update time (default current time)")

	for _, name := range []string{"eligibility", "format", "now"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newScoreCmd(a),
		newUpdateCmd(a),
		newTemplateUpdateCmd(a),
		newDeriveCmd(a),
	)
	return root
}

// initConfig layers environment variables and an optional config file
// under the command line flags.
func (a *app) initConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("PROPINSPECT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return nil
		}
		path = defaultConfigFile
	}

	a.v.SetConfigFile(path)
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// eligibility returns the configured table, or the built-in one.
func (a *app) eligibility() (propinspect.EligibilityTable, error) {
	path := a.v.GetString("eligibility")
	if path == "" {
		return propinspect.DefaultEligibilityTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening eligibility table: %w", err)
	}
	defer f.Close()
	return propinspect.LoadEligibilityTable(f)
}

// now returns the configured update time in unix seconds.
func (a *app) now() int64 {
	if n := a.v.GetInt64("now"); n > 0 {
		return n
	}
	return time.Now().Unix()
}

// readDocument decodes a JSON or YAML file into v. YAML is converted to
// JSON first so that the JSON names and null deletions apply to both.
func readDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return fmt.Errorf("converting %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// readOptionalInspection reads an inspection snapshot. The path "none"
// stands for a missing snapshot.
func readOptionalInspection(path string) (*propinspect.Inspection, error) {
	if path == "none" {
		return nil, nil
	}
	var insp propinspect.Inspection
	if err := readDocument(path, &insp); err != nil {
		return nil, err
	}
	return &insp, nil
}

// write prints v as YAML when requested and as indented JSON otherwise.
func (a *app) write(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if a.v.GetString("format") != formatYAML {
		_, err = fmt.Fprintln(a.stdout, string(data))
		return err
	}

	// json.Number keeps unix times as integers in the YAML output.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(a.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// validFormat rejects unknown output formats.
func validFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return errors.New("format must be one of table, json, yaml")
}
