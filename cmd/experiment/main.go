// Package main 是批量实验的命令行入口。
package main

import (
	"context"
	"os"

	"textlab-go/internal/config"
	"textlab-go/internal/dataset"
	"textlab-go/internal/experiment"
	"textlab-go/internal/model"
	"textlab-go/internal/repository"
	"textlab-go/internal/service"
	"textlab-go/pkg/database"
	"textlab-go/pkg/embedding"
	"textlab-go/pkg/es"
	"textlab-go/pkg/llm"
	"textlab-go/pkg/log"
	"textlab-go/pkg/storage"
	"textlab-go/pkg/tika"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "textlab",
		Short: "文本分类对比实验工具",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableNoDescFlag:   true,
			DisableDescriptions: true,
			HiddenDefaultCmd:    true,
		},
	}
	rootCmd.AddCommand(newRunCommand())
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		cmd.Help()
	}
	return rootCmd
}

func newRunCommand() *cobra.Command {
	var configFilePath string
	var datasetName string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "对一个数据集执行表示 × 分类器交叉实验",
		Long:  "加载并清洗数据集，按需生成摘要，遍历全部实验单元格并输出排序后的指标报告",
		Run: func(cmd *cobra.Command, args []string) {
			config.Init(configFilePath)
			cfg := config.Conf
			log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
			defer log.Sync()

			datasetCfg := resolveDataset(&cfg, datasetName)
			if datasetCfg == nil {
				log.Errorf("数据集 '%s' 未配置", datasetName)
				return
			}

			database.InitMySQL(cfg.Database.MySQL.DSN)
			if cfg.Database.Redis.Addr != "" {
				database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
			}
			if cfg.MinIO.Enabled {
				storage.InitMinIO(cfg.MinIO)
			}

			var repCache experiment.RepCache
			if cfg.Elasticsearch.Enabled {
				if err := es.InitES(cfg.Elasticsearch); err != nil {
					log.Errorf("es 初始化失败: %s", err)
					return
				}
				repCache = experiment.NewESRepCache(cfg.Elasticsearch.IndexName)
			}

			docRepo := repository.NewDocumentRepository(database.DB)
			summaryRepo := repository.NewSummaryRepository(database.DB)
			metricsRepo := repository.NewMetricsRepository(database.DB)

			var tikaClient *tika.Client
			if datasetCfg.Kind == "dir" {
				tikaClient = tika.NewClient(cfg.Tika)
			}
			var embClient embedding.Client
			if cfg.Embedding.BaseURL != "" {
				embClient = embedding.NewClient(cfg.Embedding)
			}
			var llmClient llm.Client
			if cfg.LLM.BaseURL != "" {
				llmClient = llm.NewClient(cfg.LLM)
			}

			ctx := context.Background()

			loader := dataset.NewLoader(tikaClient, docRepo)
			docs, stats, err := loader.Load(ctx, datasetCfg)
			if err != nil {
				log.Errorf("数据集加载失败: %v", err)
				return
			}
			log.Infof("数据集 '%s' 就绪: 保留 %d/%d 行", datasetCfg.Name, stats.Kept, stats.Total)

			// 摘要来源参与实验时先补齐摘要，行级失败由批量服务宽容处理
			summarySvc := service.NewSummaryService(docRepo, summaryRepo, llmClient, cfg.Summarizer, cfg.LLM, cfg.Kafka.Enabled)
			for _, source := range cfg.Experiment.TextSources {
				if source == model.TextSourceFullText {
					continue
				}
				if _, err := summarySvc.GenerateForDataset(ctx, datasetCfg.Name, source); err != nil {
					log.Errorf("来源 '%s' 的摘要批量生成失败: %v", source, err)
				}
			}

			runner := experiment.NewRunner(cfg.Experiment, cfg.Vectorizer, cfg.Classifiers, experiment.Deps{
				EmbeddingClient: embClient,
				SummaryRepo:     summaryRepo,
				MetricsRepo:     metricsRepo,
				RepCache:        repCache,
			})
			report, err := runner.Run(ctx, datasetCfg, docs)
			if err != nil {
				log.Errorf("实验运行失败: %v", err)
				return
			}

			csvPath, err := report.Finalize(ctx, cfg.Experiment.ReportDir, cfg.MinIO)
			if err != nil {
				log.Errorf("报告落地失败: %v", err)
				return
			}

			for _, cell := range report.Ranked() {
				if cell.Metrics != nil {
					log.Infof("%-40s acc=%.4f f1=%.4f (%dms)",
						cell.CellName(), cell.Metrics.Accuracy, cell.Metrics.F1, cell.RuntimeMillis)
				} else {
					log.Infof("%-40s 失败: %s", cell.CellName(), cell.ErrKind)
				}
			}
			log.Infof("运行 %s 完成, 报告: %s", report.RunID, csvPath)
		},
	}

	cmd.Flags().StringVarP(&configFilePath, "config", "c", "./configs/config.yaml", "配置文件路径")
	cmd.Flags().StringVarP(&datasetName, "dataset", "d", "", "数据集名称，默认取配置中的第一个")
	return cmd
}

func resolveDataset(cfg *config.Config, name string) *config.DatasetConfig {
	if name == "" {
		if len(cfg.Datasets) == 0 {
			return nil
		}
		return &cfg.Datasets[0]
	}
	return cfg.Dataset(name)
}
