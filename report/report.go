// Package report draws the curves stored in a selection result: singular
// values against the hard threshold, training log-likelihood, cross-validated
// log-likelihood and the information criteria.
package report

import (
	"fmt"
	"os"

	"github.com/vishalbelsare/widefield/selection"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Default image size.
const (
	Width  = 10 * vg.Inch
	Height = 8 * vg.Inch
)

// byRank turns values indexed by rank-1 into points.
func byRank(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	return pts
}

func onGrid(grid []int, values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(grid[i])
		pts[i].Y = v
	}
	return pts
}

func singularValues(res *selection.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Singular values, p_threshold = %d", res.ThresholdRank)
	p.X.Label.Text = "index"
	p.Y.Label.Text = "singular value"
	if err := plotutil.AddLinePoints(p, "svs", byRank(res.SingularValues)); err != nil {
		return nil, err
	}
	tau := plotter.NewFunction(func(float64) float64 { return res.Threshold })
	tau.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(tau)
	p.Legend.Add("tau", tau)
	return p, nil
}

func trainLikelihood(res *selection.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Training log-likelihood"
	p.X.Label.Text = "rank"
	p.Y.Label.Text = "log-likelihood"
	if err := plotutil.AddLines(p, "ll_all", byRank(res.TrainLogLikelihood)); err != nil {
		return nil, err
	}
	return p, nil
}

func crossValidation(res *selection.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Held-out log-likelihood, p_xval = %d", res.CVRank)
	p.X.Label.Text = "rank"
	p.Y.Label.Text = "log-likelihood"
	var lines []interface{}
	for i, fold := range res.FoldLogLikelihood {
		lines = append(lines, fmt.Sprintf("fold %d", i+1), onGrid(res.Grid, fold))
	}
	lines = append(lines, "mean", onGrid(res.Grid, res.CVLogLikelihood))
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return nil, err
	}
	return p, nil
}

func criteria(res *selection.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Information criteria, p_aic = %d, p_bic = %d", res.AICRank, res.BICRank)
	p.X.Label.Text = "rank"
	p.Y.Label.Text = "criterion"
	if err := plotutil.AddLines(p, "aic", byRank(res.AIC), "bic", byRank(res.BIC)); err != nil {
		return nil, err
	}
	return p, nil
}

// Curves renders the four panels of res as a PNG image at path.
func Curves(res *selection.Result, path string, width, height vg.Length) error {
	panels := []func(*selection.Result) (*plot.Plot, error){
		singularValues, trainLikelihood, crossValidation, criteria,
	}
	plots := make([][]*plot.Plot, 2)
	for i, panel := range panels {
		p, err := panel(res)
		if err != nil {
			return err
		}
		plots[i/2] = append(plots[i/2], p)
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2,
		Cols: 2,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for row := range plots {
		for col, p := range plots[row] {
			p.Draw(canvases[row][col])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
