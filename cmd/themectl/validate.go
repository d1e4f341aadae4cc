package main

import (
	"fmt"
	"os"

	"github.com/reglet-dev/theme-sdk/application/template"
	"github.com/reglet-dev/theme-sdk/application/validation"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate PROFILE...",
		Short: "Check profile documents against the profile schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := validation.NewProfileValidator()
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range args {
				if err := validateFile(v, path); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d profiles invalid", failed, len(args))
			}
			return nil
		},
	}
}

func validateFile(v *validation.ProfileValidator, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: paths are supplied by the operator
	if err != nil {
		return err
	}
	if err := v.Validate(data); err != nil {
		return err
	}
	_, err = template.DecodeProfile(data)
	return err
}
