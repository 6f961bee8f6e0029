package cli

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/benchlog/config"
	"go.viam.com/benchlog/display"
)

// PlotAction renders the charts of the log's profile into the --out directory.
func PlotAction(c *cli.Context) error {
	logger := newLogger(c)
	conf, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	session, err := loadSession(c, logger)
	if err != nil {
		return err
	}

	charts := display.ProfileFor(conf, session.Layout.Name(), session.Records)
	if names := c.StringSlice(flagChart); len(names) > 0 {
		if unknown, _ := lo.Difference(names, lo.Map(charts, func(chart config.Chart, _ int) string {
			return chart.Name
		})); len(unknown) > 0 {
			return errors.Errorf("no chart named %v for layout %s", unknown, session.Layout.Name())
		}
		charts = lo.Filter(charts, func(chart config.Chart, _ int) bool {
			return lo.Contains(names, chart.Name)
		})
	}
	if len(charts) == 0 {
		return errors.Errorf("no charts for layout %s", session.Layout.Name())
	}

	prog := newProgress(c.App.Writer, "render", "Rendering charts")
	defer prog.Stop()
	//nolint:errcheck
	_ = prog.Start("render")

	written, err := display.RenderProfile(session.Records, charts, c.Path(flagOut), logger)
	if len(written) == 0 {
		//nolint:errcheck
		_ = prog.Fail("render", err)
		if err == nil {
			err = errors.New("no chart rendered")
		}
		return err
	}
	//nolint:errcheck
	_ = prog.Complete("render", "")
	if err != nil {
		warningf(c.App.ErrWriter, "skipped %d charts: %v", len(charts)-len(written), err)
	}
	for _, path := range written {
		printf(c.App.Writer, "%s", path)
	}
	return nil
}

// GnuplotAction writes per-field data files and a gnuplot script, then prints how to run it.
func GnuplotAction(c *cli.Context) error {
	logger := newLogger(c)
	session, err := loadSession(c, logger)
	if err != nil {
		return err
	}

	script, err := display.WriteGnuplot(session.Records, c.Path(flagOut))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "Run `gnuplot %s` to view the plots.", script)
	return nil
}

// AnimateAction draws the robot's trajectory into the --out file.
func AnimateAction(c *cli.Context) error {
	logger := newLogger(c)
	conf, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	session, err := loadSession(c, logger)
	if err != nil {
		return err
	}
	if len(session.Records) == 0 {
		return errors.New("log has no records")
	}

	fields, ok := display.DetectPoseFields(session.Records[0])
	if !ok {
		return errors.Errorf("layout %s has no position fields", session.Layout.Name())
	}

	opts := display.AnimationOptions{
		Animation: config.DefaultAnimation,
		HideRobot: c.Bool(flagHideRobot),
		MP4:       c.Bool(flagMP4),
	}
	if conf.Animation != nil {
		opts.Animation = *conf.Animation
	}
	if fps := c.Int(flagFPS); fps != 0 {
		opts.FPS = fps
	}
	if every := c.Int(flagEvery); every != 0 {
		opts.Every = every
	}
	if err := opts.Validate(flagOut); err != nil {
		return err
	}

	prog := newProgress(c.App.Writer, "animate", "Animating trajectory")
	defer prog.Stop()
	//nolint:errcheck
	_ = prog.Start("animate")

	path := c.Path(flagOut)
	frames, err := display.Animate(c.Context, session.Records, fields, path, opts, logger)
	if err != nil {
		//nolint:errcheck
		_ = prog.Fail("animate", err)
		return err
	}
	//nolint:errcheck
	_ = prog.Complete("animate", "")
	successf(c.App.Writer, "wrote %d frames to %s", frames, path)
	return nil
}
