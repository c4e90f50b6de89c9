package experiment

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"textlab-go/internal/config"
	"textlab-go/internal/evaluator"
	"textlab-go/pkg/log"
	"textlab-go/pkg/storage"

	"github.com/pkg/errors"
)

// Ranked 返回成功单元格按宏平均 F1 降序的副本，失败单元格排在末尾。
// F1 相同时按单元格名字典序，保证输出稳定。
func (r *Report) Ranked() []CellResult {
	ranked := make([]CellResult, len(r.Cells))
	copy(ranked, r.Cells)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if (a.Metrics == nil) != (b.Metrics == nil) {
			return a.Metrics != nil
		}
		if a.Metrics == nil {
			return a.CellName() < b.CellName()
		}
		if a.Metrics.F1 != b.Metrics.F1 {
			return a.Metrics.F1 > b.Metrics.F1
		}
		return a.CellName() < b.CellName()
	})
	return ranked
}

// Best 返回宏平均 F1 最高的成功单元格，全部失败时返回 nil。
func (r *Report) Best() *CellResult {
	ranked := r.Ranked()
	if len(ranked) == 0 || ranked[0].Metrics == nil {
		return nil
	}
	return &ranked[0]
}

// WriteCSV 将排好序的报告写为 CSV 文件。
func (r *Report) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "创建报告文件失败")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"run_id", "text_source", "representation", "classifier",
		"accuracy", "precision_macro", "recall_macro", "f1_macro", "runtime_ms", "error"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, cell := range r.Ranked() {
		record := []string{r.RunID, cell.TextSource, cell.Representation, cell.Classifier}
		if cell.Metrics != nil {
			record = append(record,
				formatScore(cell.Metrics.Accuracy),
				formatScore(cell.Metrics.Precision),
				formatScore(cell.Metrics.Recall),
				formatScore(cell.Metrics.F1),
				strconv.FormatInt(cell.RuntimeMillis, 10),
				"")
		} else {
			record = append(record, "", "", "", "", "", cell.ErrKind)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// RenderChart 将成功单元格的宏平均 F1 渲染为柱状图。
func (r *Report) RenderChart(path string) error {
	var scores []evaluator.CellScore
	for _, cell := range r.Ranked() {
		if cell.Metrics == nil {
			continue
		}
		scores = append(scores, evaluator.CellScore{Name: cell.CellName(), F1: cell.Metrics.F1})
	}
	if len(scores) == 0 {
		return errors.New("没有可绘制的成功单元格")
	}
	return evaluator.RenderF1Chart(scores, path)
}

// Finalize 落地报告产物：本地写 CSV 与 PNG，MinIO 启用时一并上传到
// reports/<runID>/ 前缀下。图表或上传失败只告警，CSV 是唯一硬性产物。
func (r *Report) Finalize(ctx context.Context, reportDir string, minioCfg config.MinIOConfig) (string, error) {
	if reportDir == "" {
		reportDir = "reports"
	}
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", errors.Wrap(err, "创建报告目录失败")
	}

	csvPath := filepath.Join(reportDir, fmt.Sprintf("report_%s.csv", r.RunID))
	if err := r.WriteCSV(csvPath); err != nil {
		return "", err
	}
	log.Infof("[Report] CSV 已写出: %s", csvPath)

	chartPath := filepath.Join(reportDir, fmt.Sprintf("report_%s.png", r.RunID))
	if err := r.RenderChart(chartPath); err != nil {
		log.Warnf("[Report] 图表渲染失败: %v", err)
		chartPath = ""
	}

	if minioCfg.Enabled {
		prefix := fmt.Sprintf("reports/%s", r.RunID)
		if err := storage.UploadReportFile(ctx, minioCfg.BucketName,
			prefix+"/report.csv", csvPath, "text/csv"); err != nil {
			log.Warnf("[Report] CSV 上传失败: %v", err)
		}
		if chartPath != "" {
			if err := storage.UploadReportFile(ctx, minioCfg.BucketName,
				prefix+"/report.png", chartPath, "image/png"); err != nil {
				log.Warnf("[Report] 图表上传失败: %v", err)
			}
		}
	}
	return csvPath, nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
