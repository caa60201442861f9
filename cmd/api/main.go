package main

import (
	"context"
	"time"

	"oms/internal/config"
	"oms/internal/entitystore"
	"oms/internal/handler"
	"oms/internal/infra/cache"
	"oms/internal/infra/db"
	infraRepo "oms/internal/infra/repository"
	"oms/internal/logging"
	"oms/internal/server"
	"oms/internal/usecase"
	"oms/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	// .env は無くてもよい
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.Init("oms-api", cfg.LogFile)

	//ローカルDB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		panic(err)
	}
	if err := db.Migrate(gormDB); err != nil {
		panic(err)
	}

	//エンティティストアクライアント
	store, err := entitystore.NewHTTPClient(cfg.EntityStoreAPIBase, cfg.EntityStoreToken, logging.New("entitystore"))
	if err != nil {
		panic(err)
	}

	cartEntities := entitystore.NewCartEntities(store)
	userEntities := entitystore.NewUserEntities(store)
	addressEntities := entitystore.NewAddressEntities(store)
	orderEntities := entitystore.NewOrderEntities(store)
	productEntities := entitystore.NewProductEntities(store)

	//Repository（GORM実装）生成
	snapshotRepo := infraRepo.NewCartSnapshotGormRepository(gormDB)
	lastOrderRepo := infraRepo.NewLastOrderGormRepository(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//冪等性ガード（REDIS_ADDRが無ければ無効）
	var idem usecase.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		idem = cache.NewRedisIdempotencyStore(rdb, cfg.IdempotencyTTL)
	}

	//Usecase生成
	syncCoord := usecase.NewSyncCoordinator(cartEntities, logging.New("sync"))
	defer syncCoord.Close()

	cartUC := usecase.NewCartUsecase(snapshotRepo, syncCoord, idGen, clock, logging.New("cart"))
	if err := cartUC.Restore(context.Background()); err != nil {
		panic(err)
	}

	checkoutUC := usecase.NewCheckoutUsecase(
		cartUC,
		userEntities,
		addressEntities,
		orderEntities,
		cartEntities,
		lastOrderRepo,
		validator.NewCheckoutValidator(),
		idem,
		clock,
		logging.New("checkout"),
	)
	orderUC := usecase.NewOrderUsecase(orderEntities, lastOrderRepo)

	//Handler生成
	cartH := handler.NewCartHandler(cartUC, productEntities)
	checkoutH := handler.NewCheckoutHandler(checkoutUC)
	orderH := handler.NewOrderHandler(orderUC)

	//Server起動
	e := server.New(log, cartH, checkoutH, orderH)

	addr := ":" + cfg.Port
	if err := server.Start(e, addr); err != nil {
		panic(err)
	}
}
