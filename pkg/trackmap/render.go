package trackmap

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"justapengu.in/lapcompare/pkg/comparison"
	"justapengu.in/lapcompare/pkg/geometry"
	"justapengu.in/lapcompare/pkg/telemetry"
)

var (
	defaultColorA = "#E10600"
	defaultColorB = "#00A3E0"

	traceColor       = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	traceBorderColor = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	startLineColor   = color.RGBA{R: 203, G: 10, B: 242, A: 255}
)

const (
	padding     = 40
	defaultSize = 1000

	traceWidth   = 4
	segmentWidth = 6
	startWidth   = 4
	startLength  = 30
)

// Renderer draws a comparison as a PNG: lap B's trace underneath lap A's, with each of lap A's
// segments coloured by the lap which won it.
type Renderer struct {
	// ColorA and ColorB are hex colours ("#RRGGBB") for segments won by each lap.
	ColorA, ColorB string

	// Size is the length in pixels of the longer side of the track, excluding padding.
	Size int

	minX, maxY float64
	scale      float64
}

func NewRenderer(colorA, colorB string) *Renderer {
	if colorA == "" {
		colorA = defaultColorA
	}

	if colorB == "" || colorB == colorA {
		// teammates share a colour
		colorB = defaultColorB

		if colorA == defaultColorB {
			colorB = defaultColorA
		}
	}

	return &Renderer{
		ColorA: colorA,
		ColorB: colorB,
		Size:   defaultSize,
	}
}

type MapData struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Margin      float64 `json:"margin"`
	ScaleFactor float64 `json:"scale_factor"`
	OffsetX     float64 `json:"offset_x"`
	OffsetY     float64 `json:"offset_y"`
}

func (r *Renderer) Render(w io.Writer, result *comparison.Result) (*MapData, error) {
	if result == nil || result.LapA == nil || result.LapB == nil {
		return nil, errors.New("trackmap: nothing to render")
	}

	samplesA, samplesB := result.LapA.Lap.Samples, result.LapB.Lap.Samples

	if len(samplesA) == 0 {
		return nil, errors.New("trackmap: lap A has no samples")
	}

	bounds := r.rect(samplesA, samplesB)
	img := image.NewRGBA(bounds)
	ctx := gg.NewContextForRGBA(img)

	ctx.SetLineCapRound()
	ctx.SetLineJoinRound()

	r.drawTrace(ctx, samplesB)

	for _, segment := range result.Segments {
		r.drawSegment(ctx, samplesA, segment)
	}

	r.drawStartLine(ctx, samplesA)

	data := &MapData{
		Width:       float64(bounds.Dx()),
		Height:      float64(bounds.Dy()),
		Margin:      padding,
		ScaleFactor: r.scale,
		OffsetX:     -r.minX,
		OffsetY:     r.maxY,
	}

	return data, ctx.EncodePNG(w)
}

// rect fits both traces into Size pixels, recording the transform used by point.
func (r *Renderer) rect(traces ...[]telemetry.Sample) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, samples := range traces {
		for _, sample := range samples {
			minX = math.Min(minX, sample.Position.X)
			minY = math.Min(minY, sample.Position.Y)
			maxX = math.Max(maxX, sample.Position.X)
			maxY = math.Max(maxY, sample.Position.Y)
		}
	}

	size := r.Size

	if size <= 0 {
		size = defaultSize
	}

	longest := math.Max(maxX-minX, maxY-minY)

	r.minX, r.maxY = minX, maxY
	r.scale = 1

	if longest > 0 {
		r.scale = float64(size) / longest
	}

	width := int(math.Ceil((maxX-minX)*r.scale)) + padding*2
	height := int(math.Ceil((maxY-minY)*r.scale)) + padding*2

	return image.Rect(0, 0, width, height)
}

// point maps track coordinates to pixels. Image Y grows downwards, track Y upwards.
func (r *Renderer) point(p geometry.Vector3) (float64, float64) {
	return (p.X-r.minX)*r.scale + padding, (r.maxY-p.Y)*r.scale + padding
}

func (r *Renderer) drawTrace(ctx *gg.Context, samples []telemetry.Sample) {
	ctx.Push()
	for _, sample := range samples {
		ctx.LineTo(r.point(sample.Position))
	}
	ctx.SetColor(traceBorderColor)
	ctx.SetLineWidth(traceWidth + 4)
	ctx.StrokePreserve()
	ctx.SetColor(traceColor)
	ctx.SetLineWidth(traceWidth)
	ctx.Stroke()
	ctx.Pop()
}

func (r *Renderer) drawSegment(ctx *gg.Context, samples []telemetry.Sample, segment comparison.SegmentResult) {
	if segment.LapA.Len() <= 0 {
		return
	}

	start := segment.LapA.Start

	if start > 0 {
		// join up with the end of the previous segment
		start--
	}

	ctx.Push()
	for _, sample := range samples[start:segment.LapA.End] {
		ctx.LineTo(r.point(sample.Position))
	}

	if segment.Winner == comparison.SideA {
		ctx.SetHexColor(r.ColorA)
	} else {
		ctx.SetHexColor(r.ColorB)
	}

	ctx.SetLineWidth(segmentWidth)
	ctx.Stroke()
	ctx.Pop()
}

func (r *Renderer) drawStartLine(ctx *gg.Context, samples []telemetry.Sample) {
	if len(samples) < 2 {
		return
	}

	forward := samples[1].Position.Sub(samples[0].Position)
	forward.Z = 0
	forward = forward.Normalize()

	if forward.Magnitude() == 0 {
		return
	}

	perpendicular := geometry.Vector3{X: -forward.Y, Y: forward.X}.Mul(startLength / 2 / r.scale)

	ctx.Push()
	ctx.LineTo(r.point(samples[0].Position.Add(perpendicular)))
	ctx.LineTo(r.point(samples[0].Position.Sub(perpendicular)))
	ctx.SetColor(traceBorderColor)
	ctx.SetLineWidth(startWidth + 4)
	ctx.StrokePreserve()
	ctx.SetColor(startLineColor)
	ctx.SetLineWidth(startWidth)
	ctx.Stroke()
	ctx.Pop()
}
