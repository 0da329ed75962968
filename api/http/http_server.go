package http

import (
	"context"
	"fmt"
	"time"

	"KnowLink/internal/config"
	"KnowLink/internal/initial"
	"KnowLink/internal/modules/knowledge/application/service"
	"KnowLink/internal/modules/knowledge/infrastructure/chunking"
	"KnowLink/internal/modules/knowledge/infrastructure/embedding"
	"KnowLink/internal/modules/knowledge/infrastructure/loader"
	"KnowLink/internal/modules/knowledge/infrastructure/mq"
	"KnowLink/internal/modules/knowledge/infrastructure/mq/kafka"
	"KnowLink/internal/modules/knowledge/infrastructure/parser"
	"KnowLink/internal/modules/knowledge/infrastructure/persistence"
	"KnowLink/internal/modules/knowledge/infrastructure/pipeline"
	"KnowLink/internal/modules/knowledge/infrastructure/queue"
	"KnowLink/internal/modules/knowledge/infrastructure/vectordb"
	knowledgeHandler "KnowLink/internal/modules/knowledge/interface/http"
	"KnowLink/pkg/ssl"
	"KnowLink/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	GE *gin.Engine

	// 进程退出时依次关闭
	Dispatcher   *queue.Dispatcher
	VectorStore  *vectordb.MilvusStore
	Publisher    mq.Publisher
	IntakeWorker *queue.IntakeConsumerWorker
)

func init() {
	conf := config.GetConfig()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	knowledgeRepo := persistence.NewKnowledgeRepositoryImpl(initial.GormDB)

	urlLoader := loader.NewURLLoader(time.Duration(conf.IngestConfig.LoadTimeoutSeconds) * time.Second)
	parserRegistry := parser.NewRegistry()

	tokenizer, err := chunking.NewTokenizer(chunking.DefaultEncoding)
	if err != nil {
		zlog.Fatal("初始化分词器失败: " + err.Error())
	}
	var splitter *chunking.TokenSplitter
	if conf.IngestConfig.SplitMode == "recursive" {
		splitter = chunking.NewRecursiveTokenSplitter(tokenizer, conf.IngestConfig.ChunkSize, conf.IngestConfig.ChunkOverlap)
	} else {
		splitter = chunking.NewTokenSplitter(tokenizer, conf.IngestConfig.ChunkSize, conf.IngestConfig.ChunkOverlap)
	}

	embedder, meta, err := embedding.NewEmbedderFromConfig(context.Background(), conf)
	if err != nil {
		zlog.Fatal("初始化嵌入模型失败: " + err.Error())
	}
	embedClient, err := embedding.NewClient(embedder, meta.Dim, conf.AIConfig.Embedding.BatchSize)
	if err != nil {
		zlog.Fatal("初始化嵌入客户端失败: " + err.Error())
	}
	zlog.Info(fmt.Sprintf("嵌入模型就绪: provider=%s model=%s dim=%d", meta.Provider, meta.Model, meta.Dim))

	storeEnabled := conf.MilvusConfig.Enabled && initial.MilvusClient != nil
	VectorStore = vectordb.NewMilvusStore(initial.MilvusClient, storeEnabled, conf.MilvusConfig.MetricType)

	ingestPipeline, err := pipeline.NewIngestPipeline(
		knowledgeRepo, urlLoader, parserRegistry, splitter, embedClient, VectorStore, meta.Dim)
	if err != nil {
		zlog.Fatal("初始化摄取管道失败: " + err.Error())
	}

	Dispatcher, err = queue.NewDispatcher(ingestPipeline, knowledgeRepo, conf.IngestConfig.QueueSize, conf.IngestConfig.Workers)
	if err != nil {
		zlog.Fatal("初始化摄取调度器失败: " + err.Error())
	}

	if conf.KafkaConfig.Enabled {
		adminCfg := kafka.TopicAdminConfig{Brokers: conf.KafkaConfig.Brokers, ClientID: conf.KafkaConfig.ClientID}
		if err := kafka.EnsureTopic(adminCfg, conf.KafkaConfig.IngestTopic, conf.KafkaConfig.Partitions, conf.KafkaConfig.Replication); err != nil {
			zlog.Fatal("初始化 Kafka 主题失败: " + err.Error())
		}

		Publisher, err = kafka.NewSaramaPublisher(kafka.PublisherConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			ClientID: conf.KafkaConfig.ClientID,
		})
		if err != nil {
			zlog.Fatal("初始化 Kafka 生产者失败: " + err.Error())
		}

		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			GroupID:  conf.KafkaConfig.ConsumerGroupID,
			Topics:   []string{conf.KafkaConfig.IngestTopic},
			ClientID: conf.KafkaConfig.ClientID,
		})
		if err != nil {
			zlog.Fatal("初始化 Kafka 消费者失败: " + err.Error())
		}
		IntakeWorker, err = queue.NewIntakeConsumerWorker(consumer, Dispatcher)
		if err != nil {
			zlog.Fatal("初始化摄取消费者失败: " + err.Error())
		}
	}

	knowledgeSvc, err := service.NewKnowledgeService(
		knowledgeRepo, Dispatcher, Publisher, conf.KafkaConfig.IngestTopic, conf.MilvusConfig.DefaultIndex)
	if err != nil {
		zlog.Fatal("初始化知识服务失败: " + err.Error())
	}

	knowledgeH := knowledgeHandler.NewKnowledgeHandler(knowledgeSvc)

	GE.POST("/knowledge/createKnowledge", knowledgeH.CreateKnowledge)
	GE.POST("/knowledge/getKnowledgeList", knowledgeH.GetKnowledgeList)
	GE.POST("/knowledge/process", knowledgeH.Process)
	GE.POST("/knowledge/processBatch", knowledgeH.ProcessBatch)
	GE.GET("/knowledge/ingestMetrics", knowledgeH.IngestMetrics)
}
