package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/theme-sdk/application/schema"
	"github.com/reglet-dev/theme-sdk/host"
	"github.com/spf13/cobra"
)

func newSchemaCmd(root *rootOptions) *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of profile documents",
		Long: `Print the JSON Schema profile documents must satisfy.

With --module the schema is read from the compiled theme module itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				data []byte
				err  error
			)
			if module == "" {
				data, err = schema.ProfileSchema()
			} else {
				data, err = moduleSchema(cmd, root, module)
			}
			if err != nil {
				return err
			}

			var out bytes.Buffer
			if err := json.Indent(&out, data, "", "  "); err != nil {
				return fmt.Errorf("schema is not valid JSON: %w", err)
			}
			out.WriteByte('\n')
			_, err = cmd.OutOrStdout().Write(out.Bytes())
			return err
		},
	}

	cmd.Flags().StringVar(&module, "module", "", "Read the schema from a compiled theme module")
	return cmd
}

func moduleSchema(cmd *cobra.Command, root *rootOptions, path string) ([]byte, error) {
	ctx := cmd.Context()

	wasm, err := host.NewLoader().LoadModule(path)
	if err != nil {
		return nil, err
	}
	exec, err := host.NewExecutor(ctx, host.WithLogger(root.logger))
	if err != nil {
		return nil, err
	}
	defer exec.Close(ctx)

	inst, err := exec.Load(ctx, wasm)
	if err != nil {
		return nil, err
	}
	defer inst.Close(ctx)

	return inst.Schema(ctx)
}
