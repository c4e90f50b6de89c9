package evaluator

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// CellScore 是图表中的一根柱：单元格名称及其宏平均 F1。
type CellScore struct {
	Name string
	F1   float64
}

// RenderF1Chart 将各单元格的宏平均 F1 渲染为柱状图并保存为 PNG。
func RenderF1Chart(scores []CellScore, path string) error {
	p := plot.New()
	p.Title.Text = "Representation x Classifier (macro F1)"
	p.Y.Label.Text = "macro F1"
	p.Y.Min, p.Y.Max = 0, 1

	values := make(plotter.Values, len(scores))
	names := make([]string, len(scores))
	for i, s := range scores {
		values[i] = s.F1
		names[i] = s.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return err
	}
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.8
	p.X.Tick.Label.XAlign = -0.9

	width := vg.Points(float64(len(scores))*45 + 120)
	return p.Save(width, 4*vg.Inch, path)
}
