package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type outputFormat int

const (
	formatTable outputFormat = iota
	formatJSON
	formatYAML
)

func resolveFormat(jsonFlag, yamlFlag bool) (outputFormat, error) {
	switch {
	case jsonFlag && yamlFlag:
		return formatTable, errors.New("--json and --yaml are mutually exclusive")
	case jsonFlag:
		return formatJSON, nil
	case yamlFlag:
		return formatYAML, nil
	default:
		return formatTable, nil
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML encodes v as YAML to the command's stdout.
func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeStructured(cmd *cobra.Command, format outputFormat, v any) error {
	if format == formatYAML {
		return writeYAML(cmd, v)
	}
	return writeJSON(cmd, v)
}
