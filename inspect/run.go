package inspect

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"pstyle/config"
	"pstyle/css"
	"pstyle/state"
	"pstyle/style"
)

// output opens destination for the report, STDOUT when name is empty.
func output(env *state.LocalEnv, name string) (io.WriteCloser, error) {
	if len(name) == 0 {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("unable to create destination file '%s': %w", name, err)
	}
	env.Rpt.Store(filepath.ToSlash(filepath.Join("output", filepath.Base(name))), name)
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeReport(env *state.LocalEnv, cmd *cli.Command, dest string, r Report) error {
	conf := env.Cfg.Output
	if cmd.IsSet("format") {
		f, err := config.ParseOutputFormat(cmd.String("format"))
		if err != nil {
			return err
		}
		conf.Format = f
	}

	out, err := output(env, dest)
	if err != nil {
		return err
	}
	if err := NewWriter(&conf).Write(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func applyMedium(env *state.LocalEnv, cmd *cli.Command) {
	if cmd.IsSet("medium") {
		env.Cfg.Engine.Medium.Type = cmd.String("medium")
	}
}

func readSource(env *state.LocalEnv, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("unable to read STDIN: %w", err)
		}
		env.Rpt.StoreData("input/stdin.css", data)
		return data, nil
	}
	return env.ReadStylesheet(name)
}

// RunTokens is "tokens" command: SOURCE [DESTINATION].
func RunTokens(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return fmt.Errorf("no stylesheet has been specified")
	}
	data, err := readSource(env, src)
	if err != nil {
		return err
	}
	r := Tokens(src, string(data), cmd.Bool("whitespace"))
	env.Log.Debug("Tokenized stylesheet", zap.String("source", src), zap.Int("tokens", len(r.Tokens)))
	return writeReport(env, cmd, cmd.Args().Get(1), r)
}

// RunParse is "parse" command: SOURCE [DESTINATION].
func RunParse(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return fmt.Errorf("no stylesheet has been specified")
	}
	data, err := readSource(env, src)
	if err != nil {
		return err
	}
	applyMedium(env, cmd)
	eng := style.NewEngine(env.Log, nil, env.Cfg.Engine.Medium())
	sheet := env.ParseStylesheet(eng.Parser(), data, src)
	env.Log.Debug("Parsed stylesheet", zap.String("source", src),
		zap.Int("rules", len(sheet.AllRules())),
		zap.Int("applicable", len(sheet.StyleRules(eng.Medium()))),
		zap.Int("warnings", len(sheet.Warnings)))
	return writeReport(env, cmd, cmd.Args().Get(1), Stylesheet(src, sheet))
}

// RunMatch is "match" command: SELECTOR DOCUMENT [DESTINATION].
func RunMatch(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() < 2 {
		return fmt.Errorf("selector and document must be specified")
	}
	sel, err := css.ParseSelectorText(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	docPath := cmd.Args().Get(1)
	doc, err := env.LoadDocument(docPath)
	if err != nil {
		return err
	}
	applyMedium(env, cmd)
	eng, err := env.NewEngine(doc, docPath)
	if err != nil {
		return err
	}
	// generated boxes are only present when some rule asks for them
	n := style.SynthesizePseudoElements(doc, eng.Rules())
	env.Log.Debug("Generated boxes", zap.Int("count", n))

	r := Match(sel, doc)
	env.Log.Debug("Matched selector", zap.Stringer("selector", sel), zap.Int("boxes", len(r.Matches)))
	return writeReport(env, cmd, cmd.Args().Get(2), r)
}

// RunStyle is "style" command: DOCUMENT [DESTINATION].
func RunStyle(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	docPath := cmd.Args().Get(0)
	if len(docPath) == 0 {
		return fmt.Errorf("no document has been specified")
	}
	doc, err := env.LoadDocument(docPath)
	if err != nil {
		return err
	}
	applyMedium(env, cmd)
	eng, err := env.NewEngine(doc, docPath)
	if err != nil {
		return err
	}
	res, err := eng.Style(doc)
	if err != nil {
		return fmt.Errorf("unable to style %s: %w", docPath, err)
	}

	names := env.Cfg.Output.Properties
	if cmd.IsSet("property") {
		names = cmd.StringSlice("property")
	}
	env.Log.Debug("Styled document", zap.String("source", docPath),
		zap.Int("boxes", len(res.Boxes)), zap.Int("pages", res.Pages), zap.Duration("elapsed", env.Uptime()))
	return writeReport(env, cmd, cmd.Args().Get(1), Styling(eng, doc, res, docPath, names))
}
