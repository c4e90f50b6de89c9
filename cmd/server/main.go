// Package main 是解释服务的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"textlab-go/internal/config"
	"textlab-go/internal/dataset"
	"textlab-go/internal/experiment"
	"textlab-go/internal/handler"
	"textlab-go/internal/middleware"
	"textlab-go/internal/repository"
	"textlab-go/internal/service"
	"textlab-go/internal/vectorizer"
	"textlab-go/pkg/database"
	"textlab-go/pkg/embedding"
	"textlab-go/pkg/kafka"
	"textlab-go/pkg/llm"
	"textlab-go/pkg/log"
	"textlab-go/pkg/storage"
	"textlab-go/pkg/tika"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库与可选外部组件
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if cfg.MinIO.Enabled {
		storage.InitMinIO(cfg.MinIO)
	}
	if cfg.Kafka.Enabled {
		kafka.InitProducer(cfg.Kafka)
	}

	// 4. 初始化 Repository
	docRepo := repository.NewDocumentRepository(database.DB)
	summaryRepo := repository.NewSummaryRepository(database.DB)

	// 5. 初始化外部客户端与 Service
	var embClient embedding.Client
	if cfg.Embedding.BaseURL != "" {
		embClient = embedding.NewClient(cfg.Embedding)
	}
	var llmClient llm.Client
	if cfg.LLM.BaseURL != "" {
		llmClient = llm.NewClient(cfg.LLM)
	}
	summaryService := service.NewSummaryService(docRepo, summaryRepo, llmClient, cfg.Summarizer, cfg.LLM, cfg.Kafka.Enabled)

	// 6. 启动后台 Kafka 消费者处理摘要重建任务
	if cfg.Kafka.Enabled {
		go kafka.StartConsumer(cfg.Kafka, summaryService)
	}

	// 7. 准备解释服务依赖的预测工件：加载数据集并在全量语料上训练
	artifact := publishArtifact(&cfg, docRepo, embClient)
	explainService := service.NewExplainService(docRepo, summaryService, artifact, 0, 0, cfg.Experiment.Seed)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	textHandler := handler.NewTextHandler(summaryService, embClient, cfg.Vectorizer)
	explainHandler := handler.NewExplainHandler(explainService)

	r.GET("/", textHandler.Health)
	r.POST("/preprocess", textHandler.Preprocess)

	summarize := r.Group("/summarize")
	{
		summarize.POST("/lsa", textHandler.SummarizeExtractive)
		summarize.POST("/llm", textHandler.SummarizeAbstractive)
	}

	vectorize := r.Group("/vectorize")
	{
		vectorize.POST("/tfidf", textHandler.VectorizeTFIDF)
		vectorize.POST("/embedding", textHandler.VectorizeEmbedding)
	}
	r.POST("/summarize-and-vectorize", textHandler.SummarizeAndVectorize)
	r.POST("/summaries/rebuild", textHandler.RebuildSummary)

	xaiGroup := r.Group("/xai")
	{
		xaiGroup.POST("/lime", explainHandler.LIME)
		xaiGroup.POST("/shap", explainHandler.SHAP)
	}

	// 10. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

// publishArtifact 加载配置的第一个数据集并训练一个预测工件供解释路由使用。
// 数据集或训练不可用时返回 nil，/xai 路由会以 ExplainerError 响应。
func publishArtifact(cfg *config.Config, docRepo repository.DocumentRepository, embClient embedding.Client) *experiment.PredictorArtifact {
	if len(cfg.Datasets) == 0 {
		log.Warnf("未配置数据集，解释路由不可用")
		return nil
	}
	datasetCfg := &cfg.Datasets[0]

	docs, err := docRepo.FindByDataset(datasetCfg.Name)
	if err != nil || len(docs) == 0 {
		// 首次启动数据库为空时从原始语料加载
		var tikaClient *tika.Client
		if datasetCfg.Kind == "dir" {
			tikaClient = tika.NewClient(cfg.Tika)
		}
		loader := dataset.NewLoader(tikaClient, docRepo)
		docs, _, err = loader.Load(context.Background(), datasetCfg)
		if err != nil {
			log.Errorf("数据集 '%s' 加载失败，解释路由不可用: %v", datasetCfg.Name, err)
			return nil
		}
	}

	representation := vectorizer.KindTFIDF
	if len(cfg.Experiment.Representations) > 0 {
		representation = cfg.Experiment.Representations[0]
	}
	classifierKind := "linearsvm"
	if len(cfg.Experiment.Classifiers) > 0 {
		classifierKind = cfg.Experiment.Classifiers[0]
	}

	artifact, err := experiment.TrainArtifact(context.Background(), docs,
		representation, classifierKind, datasetCfg.Labels,
		cfg.Vectorizer, cfg.Classifiers, cfg.Experiment.Seed,
		experiment.Deps{EmbeddingClient: embClient})
	if err != nil {
		log.Errorf("预测工件训练失败，解释路由不可用: %v", err)
		return nil
	}
	log.Infof("预测工件已发布: 数据集=%s, 表示=%s, 分类器=%s, 标签=%v",
		datasetCfg.Name, representation, classifierKind, artifact.Labels)
	return artifact
}
