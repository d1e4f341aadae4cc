package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/reglet-dev/theme-sdk/application/template"
	"github.com/reglet-dev/theme-sdk/application/validation"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	"github.com/reglet-dev/theme-sdk/domain/ports"
	"github.com/reglet-dev/theme-sdk/host"
	"github.com/reglet-dev/theme-sdk/internal/guard"
	"github.com/spf13/cobra"
)

type renderOptions struct {
	module           string
	profile          string
	theme            string
	output           string
	native           bool
	validate         bool
	memoryLimitPages uint32
	maxOutputSize    uint32

	// engine replaces the in-process engine used by --native.
	engine ports.TemplateEngine
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a theme against a profile document",
		Example: `  themectl render --module theme.wasm --profile alice.json --theme profile.html
  themectl render --native --profile alice.json --theme profile.html -o out.html`,
		Args: cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if !opts.native && opts.module == "" {
				return errors.New("--module is required unless --native is set")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := runRender(cmd.Context(), root, opts)
			if err != nil {
				return err
			}
			if opts.output != "" {
				return os.WriteFile(opts.output, []byte(out), 0o644) //nolint:gosec // G306: rendered pages are public
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.module, "module", "", "Path to the compiled theme module (.wasm)")
	f.StringVar(&opts.profile, "profile", "", "Path to the profile JSON document (default: empty profile)")
	f.StringVar(&opts.theme, "theme", "", "Path to the theme template")
	f.StringVarP(&opts.output, "output", "o", "", "Write the rendered output to a file instead of stdout")
	f.BoolVar(&opts.native, "native", false, "Render in-process without loading a module")
	f.BoolVar(&opts.validate, "validate", true, "Validate the profile against the profile schema first")
	f.Uint32Var(&opts.memoryLimitPages, "memory-limit-pages", host.DefaultMemoryLimitPages, "Guest memory limit in 64 KiB pages")
	f.Uint32Var(&opts.maxOutputSize, "max-output", host.DefaultMaxOutputSize, "Largest output accepted from the module, in bytes")
	_ = cmd.MarkFlagRequired("theme")

	return cmd
}

func runRender(ctx context.Context, root *rootOptions, opts *renderOptions) (string, error) {
	var loaderOpts []host.LoaderOption
	if opts.validate {
		v, err := validation.NewProfileValidator()
		if err != nil {
			return "", err
		}
		loaderOpts = append(loaderOpts, host.WithValidator(v))
	}
	loader := host.NewLoader(loaderOpts...)

	in, err := loader.LoadInput(opts.profile, opts.theme)
	if err != nil {
		return "", err
	}

	if opts.native {
		return renderNative(root, opts, in)
	}

	wasm, err := loader.LoadModule(opts.module)
	if err != nil {
		return "", err
	}

	exec, err := host.NewExecutor(ctx,
		host.WithLogger(root.logger),
		host.WithMemoryLimitPages(opts.memoryLimitPages),
		host.WithMaxOutputSize(opts.maxOutputSize),
	)
	if err != nil {
		return "", err
	}
	defer exec.Close(ctx)

	inst, err := exec.Load(ctx, wasm)
	if err != nil {
		return "", err
	}
	defer inst.Close(ctx)

	out, err := inst.Render(ctx, in.Profile, in.Theme)
	if err != nil {
		return "", describe(err)
	}
	return out, nil
}

// renderNative runs the engine under the same panic guard the module uses, so
// a fault inside a filter is reported instead of crashing the process.
func renderNative(root *rootOptions, opts *renderOptions, in host.RenderInput) (string, error) {
	engine := opts.engine
	if engine == nil {
		engine = template.NewEngine(template.WithMaxOutputSize(int(opts.maxOutputSize)))
	}
	g := guard.New(guard.WithHandler(root.logger.Handler))

	var out string
	detail := g.Run("render", func() error {
		var err error
		out, err = engine.Render(in.Profile, in.Theme)
		return err
	})
	if detail != nil {
		return "", describe(detail)
	}
	return out, nil
}

// describe prefixes render faults with their category.
func describe(err error) error {
	return fmt.Errorf("%s error: %w", domainerrors.ToErrorDetail(err).Type, err)
}
