package display

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.viam.com/utils"

	"go.viam.com/benchlog/config"
	"go.viam.com/benchlog/logging"
	"go.viam.com/benchlog/telemetry"
)

// Point is a position in the log's units.
type Point struct {
	X, Y float64
}

// Pose is a robot position and heading, in the log's units. Theta is in radians. Target is the
// point the robot steers toward, when the log carries one.
type Pose struct {
	X, Y, Theta float64
	Target      *Point
}

// PoseFields names the record fields holding a pose. An empty Theta means the heading is not
// logged and the robot is drawn facing +x. Degrees marks a heading logged in degrees. Empty
// TargetX and TargetY mean no target is drawn.
type PoseFields struct {
	X, Y, Theta      string
	Degrees          bool
	TargetX, TargetY string
}

// knownPoseFields are tried in order by `DetectPoseFields`.
var knownPoseFields = []PoseFields{
	{
		X: "current_position_x", Y: "current_position_y", Theta: "current_position_angle",
		TargetX: "target_position_x", TargetY: "target_position_y",
	},
	{X: "x", Y: "y", Theta: "a", Degrees: true, TargetX: "target_x", TargetY: "target_y"},
	{X: "current_x", Y: "current_y"},
}

func hasFields(record *telemetry.Record, names ...string) bool {
	for _, name := range names {
		if _, ok := record.Get(name); !ok {
			return false
		}
	}
	return true
}

// DetectPoseFields returns the first known pose field set carried by `record`. Target fields are
// kept only when the record carries both.
func DetectPoseFields(record *telemetry.Record) (PoseFields, bool) {
	for _, fields := range knownPoseFields {
		if !hasFields(record, fields.X, fields.Y) {
			continue
		}
		if fields.Theta != "" && !hasFields(record, fields.Theta) {
			continue
		}
		if fields.TargetX == "" || !hasFields(record, fields.TargetX, fields.TargetY) {
			fields.TargetX, fields.TargetY = "", ""
		}
		return fields, true
	}
	return PoseFields{}, false
}

// Poses extracts one pose per record.
func Poses(seq telemetry.Sequence, fields PoseFields) ([]Pose, error) {
	xs, err := Lookup(seq, fields.X)
	if err != nil {
		return nil, err
	}
	ys, err := Lookup(seq, fields.Y)
	if err != nil {
		return nil, err
	}
	thetas := make([]float64, len(seq))
	if fields.Theta != "" {
		if thetas, err = Lookup(seq, fields.Theta); err != nil {
			return nil, err
		}
	}
	var targetXs, targetYs []float64
	if fields.TargetX != "" {
		if targetXs, err = Lookup(seq, fields.TargetX); err != nil {
			return nil, err
		}
		if targetYs, err = Lookup(seq, fields.TargetY); err != nil {
			return nil, err
		}
	}

	ret := make([]Pose, len(seq))
	for idx := range ret {
		theta := thetas[idx]
		if fields.Degrees {
			theta = theta * math.Pi / 180
		}
		ret[idx] = Pose{X: xs[idx], Y: ys[idx], Theta: theta}
		if targetXs != nil {
			ret[idx].Target = &Point{X: targetXs[idx], Y: targetYs[idx]}
		}
	}
	return ret, nil
}

// AnimationOptions controls `Animate`.
type AnimationOptions struct {
	config.Animation
	// HideRobot draws only the trace.
	HideRobot bool
	// MP4 encodes with ffmpeg instead of writing a GIF. The ffmpeg binary must be installed.
	MP4 bool
}

var (
	backgroundColor = color.RGBA{0xef, 0xef, 0xef, 0xff}
	gridColor       = color.RGBA{0xd0, 0xd0, 0xd0, 0xff}
	traceColor      = color.RGBA{0x1f, 0x77, 0xb4, 0xff}
	bodyColor       = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	arrowColor      = color.RGBA{0x00, 0x00, 0xff, 0xcc}
	targetColor     = color.RGBA{0xff, 0xa5, 0x00, 0xff}
	targetLineColor = color.RGBA{0x2c, 0xa0, 0x2c, 0xff}
)

// Scene maps poses onto frames of a fixed size. The view is the bounding box of the poses and
// their targets, padded by 14% of its largest side, with equal scales on both axes.
type Scene struct {
	poses  []Pose
	opts   AnimationOptions
	minX   float64
	minY   float64
	scale  float64
	extent float64
}

// NewScene computes the view for `poses`.
func NewScene(poses []Pose, opts AnimationOptions) (*Scene, error) {
	if len(poses) == 0 {
		return nil, errors.New("no poses to animate")
	}
	if err := opts.Animation.Validate("animation"); err != nil {
		return nil, err
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pose := range poses {
		minX, maxX = math.Min(minX, pose.X), math.Max(maxX, pose.X)
		minY, maxY = math.Min(minY, pose.Y), math.Max(maxY, pose.Y)
		if pose.Target != nil {
			minX, maxX = math.Min(minX, pose.Target.X), math.Max(maxX, pose.Target.X)
			minY, maxY = math.Min(minY, pose.Target.Y), math.Max(maxY, pose.Target.Y)
		}
	}
	if math.IsInf(minX, 0) || math.IsInf(minY, 0) || math.IsNaN(minX) || math.IsNaN(minY) {
		return nil, errors.New("poses are not finite")
	}

	extent := math.Max(math.Max(maxX-minX, maxY-minY), 0.1)
	pad := 0.14 * extent
	minX -= pad
	minY -= pad
	span := extent + 2*pad
	scale := math.Min(float64(opts.Width), float64(opts.Height)) / span

	return &Scene{poses: poses, opts: opts, minX: minX, minY: minY, scale: scale, extent: extent}, nil
}

// ToPixel converts log coordinates to image coordinates, with y pointing up.
func (scene *Scene) ToPixel(x, y float64) (float64, float64) {
	return (x - scene.minX) * scene.scale, float64(scene.opts.Height) - (y-scene.minY)*scene.scale
}

// FrameIndexes returns the record indexes drawn as frames: every `Every`-th record plus the last.
func (scene *Scene) FrameIndexes() []int {
	var ret []int
	for idx := 0; idx < len(scene.poses); idx += scene.opts.Every {
		ret = append(ret, idx)
	}
	if last := len(scene.poses) - 1; ret[len(ret)-1] != last {
		ret = append(ret, last)
	}
	return ret
}

// Frame draws the trace up to and including pose `upTo`, and the robot at that pose. When poses
// carry targets, the target's trace and a marker at the current target are drawn too.
func (scene *Scene) Frame(upTo int) image.Image {
	dc := gg.NewContext(scene.opts.Width, scene.opts.Height)
	dc.SetColor(backgroundColor)
	dc.Clear()

	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for step := 1; step < 10; step++ {
		x := float64(scene.opts.Width) * float64(step) / 10
		y := float64(scene.opts.Height) * float64(step) / 10
		dc.DrawLine(x, 0, x, float64(scene.opts.Height))
		dc.DrawLine(0, y, float64(scene.opts.Width), y)
	}
	dc.Stroke()

	scene.drawTrace(dc, traceColor, upTo, func(pose Pose) (float64, float64, bool) {
		return pose.X, pose.Y, true
	})
	scene.drawTrace(dc, targetLineColor, upTo, func(pose Pose) (float64, float64, bool) {
		if pose.Target == nil {
			return 0, 0, false
		}
		return pose.Target.X, pose.Target.Y, true
	})

	if !scene.opts.HideRobot {
		scene.drawRobot(dc, scene.poses[upTo])
	}
	if target := scene.poses[upTo].Target; target != nil {
		px, py := scene.ToPixel(target.X, target.Y)
		dc.DrawCircle(px, py, 0.4*scene.robotRadius())
		dc.SetColor(targetColor)
		dc.Fill()
	}
	return dc.Image()
}

// drawTrace strokes the points `at` returns for poses up to `upTo`, skipping poses without one.
func (scene *Scene) drawTrace(dc *gg.Context, col color.Color, upTo int, at func(Pose) (float64, float64, bool)) {
	dc.SetColor(col)
	dc.SetLineWidth(2)
	started := false
	for idx := 0; idx <= upTo; idx++ {
		x, y, ok := at(scene.poses[idx])
		if !ok {
			continue
		}
		px, py := scene.ToPixel(x, y)
		if started {
			dc.LineTo(px, py)
		} else {
			dc.MoveTo(px, py)
			started = true
		}
	}
	dc.Stroke()
}

// robotRadius is the drawn robot radius in pixels, never below 5% of the view.
func (scene *Scene) robotRadius() float64 {
	return math.Max(scene.opts.RobotRadius*scene.scale, 0.05*scene.extent*scene.scale)
}

// drawRobot draws a round body, two wheels and a heading arrow, in a frame rotated by the pose's
// heading. Sizes are relative to the view so the robot stays visible at any scale.
func (scene *Scene) drawRobot(dc *gg.Context, pose Pose) {
	px, py := scene.ToPixel(pose.X, pose.Y)
	radius := scene.robotRadius()

	dc.Push()
	defer dc.Pop()
	dc.Translate(px, py)
	// Image y points down, so a counter-clockwise heading is a negative rotation.
	dc.Rotate(-pose.Theta)

	dc.DrawCircle(0, 0, radius)
	dc.SetColor(bodyColor)
	dc.FillPreserve()
	dc.SetColor(color.Black)
	dc.SetLineWidth(2)
	dc.Stroke()

	wheelLength, wheelWidth := radius, radius/3
	dc.SetColor(color.Black)
	dc.DrawRectangle(-wheelLength/2, -radius*0.75-wheelWidth/2, wheelLength, wheelWidth)
	dc.DrawRectangle(-wheelLength/2, radius*0.75-wheelWidth/2, wheelLength, wheelWidth)
	dc.Fill()

	dc.SetColor(arrowColor)
	dc.SetLineWidth(3)
	dc.DrawLine(0, 0, radius*0.8, 0)
	dc.Stroke()
	dc.MoveTo(radius, 0)
	dc.LineTo(radius*0.6, -radius*0.2)
	dc.LineTo(radius*0.6, radius*0.2)
	dc.ClosePath()
	dc.Fill()
}

// Animate renders the robot's trajectory in `seq` to `path`, as a GIF or, with `MP4`, through
// ffmpeg. It returns the number of frames written.
func Animate(
	ctx context.Context,
	seq telemetry.Sequence,
	fields PoseFields,
	path string,
	opts AnimationOptions,
	logger logging.Logger,
) (int, error) {
	poses, err := Poses(seq, fields)
	if err != nil {
		return 0, err
	}
	scene, err := NewScene(poses, opts)
	if err != nil {
		return 0, err
	}

	indexes := scene.FrameIndexes()
	logger.Infow("Animating", "records", len(poses), "frames", len(indexes), "path", path)
	if opts.MP4 {
		return len(indexes), scene.writeMP4(ctx, indexes, path, logger)
	}
	return len(indexes), scene.writeGIF(ctx, indexes, path)
}

func (scene *Scene) writeGIF(ctx context.Context, indexes []int, path string) (err error) {
	anim := &gif.GIF{}
	delay := int(math.Round(100 / float64(scene.opts.FPS)))
	for _, idx := range indexes {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame := scene.Frame(idx)
		paletted := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.Draw(paletted, paletted.Rect, frame, frame.Bounds().Min, draw.Src)
		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)
	}

	//nolint:gosec
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(file.Close)
	return gif.EncodeAll(file, anim)
}

// writeMP4 writes frames as numbered PNGs into a temporary directory and has ffmpeg encode them.
func (scene *Scene) writeMP4(ctx context.Context, indexes []int, path string, logger logging.Logger) error {
	tempdir, err := os.MkdirTemp("", "benchlog_frames")
	if err != nil {
		return err
	}
	defer func() {
		utils.UncheckedError(os.RemoveAll(tempdir))
	}()

	for frameNum, idx := range indexes {
		if err := ctx.Err(); err != nil {
			return err
		}
		framePath := filepath.Join(tempdir, fmt.Sprintf("frame_%06d.png", frameNum))
		if err := gg.SavePNG(framePath, scene.Frame(idx)); err != nil {
			return err
		}
	}

	stream := ffmpeg.Input(filepath.Join(tempdir, "frame_%06d.png"), ffmpeg.KwArgs{"framerate": scene.opts.FPS}).
		Output(path, ffmpeg.KwArgs{"vcodec": "libx264", "pix_fmt": "yuv420p"}).
		OverWriteOutput()
	stream.Context = ctx
	logger.Debugw("Running ffmpeg", "args", stream.GetArgs())
	return errors.Wrap(stream.Run(), "error encoding mp4 with ffmpeg")
}
