package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tapeworks/tmach/internal/compiler"
	"github.com/tapeworks/tmach/internal/tm"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompileResult is the compile command's output payload.
type CompileResult struct {
	Program      string `json:"program"`
	Hash         string `json:"hash"`
	Instructions int    `json:"instructions"`
	Text         string `json:"text"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program.cue>",
		Short: "Compile a CUE program to the text encoding",
		Long: `Compile a CUE program definition to the compact text encoding.

The output is the line form of the text encoding, suitable for running
directly with "tmach run". Compilation is canonicalizing: the emitted
text has the same program hash as the CUE source.

Examples:
  tmach compile programs/measure.cue
  tmach compile programs/measure.cue -o measure.tm`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "write output to file instead of stdout")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	prog, err := compiler.LoadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile program", err)
	}
	if findings := compiler.Validate(prog); compiler.HasErrors(findings) {
		_ = formatter.Error(ErrCodeValidate, "program failed validation", findings)
		return NewExitError(ExitFailure, "program failed validation")
	}

	text := compiler.FormatText(prog)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("wrote %s", opts.Output)
		return nil
	}

	if opts.Format == "json" {
		return formatter.Success(CompileResult{
			Program:      prog.Name,
			Hash:         tm.ProgramHash(prog),
			Instructions: prog.Len(),
			Text:         text,
		})
	}

	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
