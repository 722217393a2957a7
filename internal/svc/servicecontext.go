package svc

import (
	"context"
	"log"

	"github.com/ethereum/go-ethereum/ethclient"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"betoken-api/internal/cache"
	"betoken-api/internal/config"
	"betoken-api/internal/model"
	"betoken-api/pkg/chain"
	"betoken-api/pkg/oracle"
	"betoken-api/pkg/tokens"
	"betoken-api/pkg/valuation"
)

type ServiceContext struct {
	Config config.Config

	ChainClient *chain.Client
	Registry    *tokens.Registry
	Oracle      oracle.Provider
	Engine      *valuation.Engine
	TTL         cache.TTLSet

	// Optional: set only when Redis is configured.
	Redis      *redis.Redis
	PriceStore *cache.PriceStore

	// Optional: set only when a Postgres DSN is configured.
	DBConn         sqlx.SqlConn
	SnapshotsModel model.ValuationSnapshotsModel
}

func NewServiceContext(ctx context.Context, c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		TTL:    cache.NewTTLSet(c.TTL),
	}

	if c.Tokens.Value == nil {
		log.Fatal("token registry config is required (Tokens.File)")
	}
	svc.Registry = c.Tokens.Value

	eth, err := ethclient.DialContext(ctx, c.Chain.RPCURL)
	if err != nil {
		log.Fatalf("failed to dial ethereum rpc %s: %v", c.Chain.RPCURL, err)
	}

	chainOpts := []chain.Option{}
	if c.Chain.ProxyAddress != "" {
		chainOpts = append(chainOpts, chain.WithProxyAddress(c.Chain.ProxyAddress))
	}
	if c.Chain.DAIAddress != "" {
		chainOpts = append(chainOpts, chain.WithDAIAddress(c.Chain.DAIAddress))
	}
	if c.Chain.KyberAddress != "" {
		chainOpts = append(chainOpts, chain.WithKyberAddress(c.Chain.KyberAddress))
	}
	chainClient, err := chain.NewClient(ctx, eth, chainOpts...)
	if err != nil {
		log.Fatalf("failed to init chain client: %v", err)
	}
	svc.ChainClient = chainClient

	oracleOpts := []oracle.Option{}
	if c.Oracle.BaseURL != "" {
		oracleOpts = append(oracleOpts, oracle.WithBaseURL(c.Oracle.BaseURL))
	}
	if c.Oracle.MaxRetries > 0 {
		oracleOpts = append(oracleOpts, oracle.WithMaxRetries(c.Oracle.MaxRetries))
	}
	svc.Oracle = oracle.NewClient(oracleOpts...)

	svc.Engine = valuation.NewEngine(chainClient, svc.Registry)

	// Only wire Redis when configured; the daemon runs without it.
	if c.Redis.Host != "" {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			log.Fatalf("failed to init redis: %v", err)
		}
		svc.Redis = rds
		svc.PriceStore = cache.NewPriceStore(rds, svc.TTL)
	}

	// Only inject the DB model when a DSN is provided.
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn
		svc.SnapshotsModel = model.NewValuationSnapshotsModel(conn)
	}
	return svc
}
