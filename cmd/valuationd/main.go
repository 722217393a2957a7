package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"betoken-api/internal/cache"
	"betoken-api/internal/cli"
	"betoken-api/internal/config"
	"betoken-api/internal/model"
	"betoken-api/internal/svc"
	"betoken-api/pkg/tokens"
	"betoken-api/pkg/valuation"
)

const (
	passTimeout     = 2 * time.Minute  // budget for one full valuation pass
	shutdownTimeout = 10 * time.Second // grace period for shutdown
)

var configFile = flag.String("f", "etc/betoken.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cfg.MustSetUp()
	defer logx.Close()

	cli.LogConfigSummary(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCtx := svc.NewServiceContext(ctx, *cfg)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runValuationLoop(ctx, svcCtx)
	}()

	logx.Info("valuation daemon started")
	<-ctx.Done()
	logx.Info("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("valuation loop stopped cleanly")
	case <-shutdownCtx.Done():
		logx.Error("shutdown timeout exceeded, forcing exit")
	}
}

// runValuationLoop reprices the catalog and revaluates every tracked
// manager on a fixed schedule. The last good catalog is retained when a
// refresh fails, so one bad oracle response never blanks the prices.
func runValuationLoop(ctx context.Context, svcCtx *svc.ServiceContext) {
	interval := time.Duration(svcCtx.Config.Valuation.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	catalog := seedCatalog(ctx, svcCtx)

	catalog = runPass(ctx, svcCtx, catalog)
	for {
		select {
		case <-ctx.Done():
			logx.Info("stopping valuation loop")
			return
		case <-ticker.C:
			catalog = runPass(ctx, svcCtx, catalog)
		}
	}
}

// seedCatalog builds the registry catalog and, when Redis carries a
// recent price snapshot, applies those prices so the first pass does
// not depend on the oracle being reachable.
func seedCatalog(ctx context.Context, svcCtx *svc.ServiceContext) *tokens.Catalog {
	catalog, err := svcCtx.Registry.NewCatalog()
	if err != nil {
		logx.Severef("failed to build token catalog: %v", err)
	}
	prices, err := svcCtx.PriceStore.LoadPrices(ctx)
	if err != nil {
		if !errors.Is(err, cache.ErrNoSnapshot) {
			logx.Errorf("price snapshot load failed: %v", err)
		}
		return catalog
	}
	logx.Infof("seeded %d token prices from cache", len(prices))
	return catalog.WithPrices(prices)
}

// runPass executes one full valuation pass and returns the catalog to
// carry into the next one.
func runPass(parentCtx context.Context, svcCtx *svc.ServiceContext, catalog *tokens.Catalog) *tokens.Catalog {
	if parentCtx.Err() != nil {
		return catalog
	}
	ctx, cancel := context.WithTimeout(parentCtx, passTimeout)
	defer cancel()

	start := time.Now()

	fresh, err := svcCtx.Oracle.RefreshPrices(ctx, catalog)
	if err != nil {
		logx.Errorf("price refresh failed, keeping previous prices: %v", err)
	} else {
		catalog = fresh
		if err := svcCtx.PriceStore.SaveCatalog(ctx, catalog); err != nil {
			logx.Errorf("price snapshot save failed: %v", err)
		}
	}

	fund, err := svcCtx.Engine.LoadFund(ctx)
	if err != nil {
		logx.Errorf("fund state load failed, skipping pass: %v", err)
		return catalog
	}
	stats := fund.Stats(decimal.Zero)
	logx.Infof("fund: cycle=%d phase=%d total=%s DAI shares@%s kairo@%s, phase ends in %s",
		fund.CycleNumber, fund.CyclePhase, fund.TotalFunds,
		stats.SharesPrice.Round(6), stats.KairoPrice.Round(6),
		fund.TimeTillPhaseEnd(time.Now()))

	for _, manager := range svcCtx.Config.ManagerAddresses() {
		result, err := svcCtx.Engine.Valuate(ctx, manager, catalog, fund)
		if err != nil {
			logx.Errorf("valuation of %s failed: %v", manager.Hex(), err)
			continue
		}
		logx.Infof("manager %s: value=%s roi=%s%% stake=%s risk=%s commission=%s invested=%s",
			manager.Hex(),
			result.Portfolio.PortfolioValue,
			result.Portfolio.ManagerROI.Round(4),
			result.Portfolio.Stake,
			result.Risk.Percentage.Round(4),
			result.Commission.Round(6),
			fund.InvestmentBalance(result.ShareBalance).Round(6))

		persistValuation(ctx, svcCtx, fund, result)
	}

	logx.Infof("valuation pass finished in %dms", time.Since(start).Milliseconds())
	return catalog
}

func persistValuation(ctx context.Context, svcCtx *svc.ServiceContext, fund valuation.FundState, result *valuation.AccountValuation) {
	if svcCtx.SnapshotsModel == nil {
		return
	}
	snapshot := &model.ValuationSnapshot{
		Manager:        result.User.Hex(),
		CycleNumber:    fund.CycleNumber,
		PortfolioValue: result.Portfolio.PortfolioValue,
		ManagerRoi:     result.Portfolio.ManagerROI,
		Stake:          result.Portfolio.Stake,
		KairoBalance:   result.KairoBalance,
		RiskPercentage: result.Risk.Percentage,
		Commission:     result.Commission,
		ComputedAt:     result.ComputedAt,
	}
	if err := svcCtx.SnapshotsModel.Insert(ctx, snapshot); err != nil {
		logx.Errorf("snapshot insert for %s failed: %v", result.User.Hex(), err)
	}
}
