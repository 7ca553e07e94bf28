package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/club-store/config"
	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/repository"
	"github.com/d60-Lab/club-store/internal/service"
	"github.com/d60-Lab/club-store/pkg/database"
	"github.com/d60-Lab/club-store/pkg/logger"
)

type BenchResult struct {
	Name        string
	Duration    time.Duration
	Total       int64
	Placed      int64
	SoldOut     int64
	Failed      int64
	QPS         float64
	AvgLatency  time.Duration
	P50Latency  time.Duration
	P95Latency  time.Duration
	P99Latency  time.Duration
	UnitsPlaced int64
}

func main() {
	var (
		driver      = flag.String("driver", "sqlite", "postgres or sqlite")
		dsn         = flag.String("dsn", "", "database dsn (default: DATABASE_URL or in-memory sqlite)")
		students    = flag.Int("students", 500, "number of distinct buyers")
		concurrency = flag.Int("c", 50, "concurrent checkouts")
		stock       = flag.Int("stock", 200, "stock per product and per variant option")
		maxQty      = flag.Int("max-qty", 3, "max quantity per checkout line")
	)
	flag.Parse()

	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}
	if *dsn == "" {
		*driver, *dsn = "sqlite", "file:checkoutbench?mode=memory&cache=shared"
	}

	logger.Set(zap.NewNop())
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "release"},
		Database: config.DatabaseConfig{Driver: *driver, DSN: *dsn, MaxOpenConns: *concurrency * 2, MaxIdleConns: *concurrency},
	}
	db, err := database.InitDB(cfg)
	must(err)
	defer database.Close(db)
	must(database.Migrate(db))

	store := repository.NewStore(db, 16)
	orders := service.NewOrderService(store,
		service.NewDBSequence(store.Counters, "BENCH"),
		service.NewPurchaseLimitGuard(store.Orders),
		service.OrderOptions{},
	)

	ctx := context.Background()
	plain := newProduct("Bench Hoodie", *stock, false)
	tee := newProduct("Bench Tee", *stock, true)
	must(store.Products.Create(ctx, plain))
	must(store.Products.Create(ctx, tee))
	initial := map[string]int{plain.ID: plain.TotalStock, tee.ID: tee.TotalStock}

	fmt.Println("===== 并发结账压测 =====")
	fmt.Printf("驱动: %s | 学生数: %d | 并发数: %d | 单品库存: %d\n\n", *driver, *students, *concurrency, *stock)

	result := benchCheckout(ctx, orders, []*model.Product{plain, tee}, *students, *concurrency, *maxQty)
	printBenchResult(result)

	fmt.Println("\n===== 超卖校验 =====")
	ok := verifyStock(ctx, store, initial, result.UnitsPlaced)
	if !ok {
		os.Exit(1)
	}
	fmt.Println("\n✅ 压测完成，无超卖")
}

func newProduct(name string, stock int, variants bool) *model.Product {
	now := time.Now().UTC()
	p := &model.Product{
		ID:            uuid.NewString(),
		ClubID:        "bench-club",
		Name:          name,
		Price:         49900,
		Category:      "merch",
		TotalStock:    stock,
		Status:        model.ProductStatusActive,
		MaxPerStudent: 50,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if variants {
		p.HasVariants = true
		p.Variants = model.VariantGroups{{
			ID:   "size",
			Name: "Size",
			Options: []model.VariantOption{
				{ID: "S", Label: "Small", Stock: stock, IsAvailable: true},
				{ID: "M", Label: "Medium", Stock: stock, IsAvailable: true},
				{ID: "L", Label: "Large", Stock: stock, IsAvailable: true},
			},
		}}
		p.SyncTotal()
	}
	return p
}

// benchCheckout 每个学生一次结账，直到学生用完
func benchCheckout(ctx context.Context, orders service.OrderService, products []*model.Product, students, concurrency, maxQty int) *BenchResult {
	var (
		total, placed, soldOut, failed, units int64
		latencies                             []time.Duration
		latencyMu                             sync.Mutex
		wg                                    sync.WaitGroup
	)
	sizes := []string{"S", "M", "L"}

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(worker) + start.UnixNano()))
			for i := worker; i < students; i += concurrency {
				var items []service.CartItem
				qty := 0
				for _, p := range products {
					q := rng.Intn(maxQty) + 1
					item := service.CartItem{ProductID: p.ID, Quantity: q}
					if p.HasVariants {
						item.VariantOptionID = sizes[rng.Intn(len(sizes))]
					}
					items = append(items, item)
					qty += q
				}

				reqStart := time.Now()
				_, err := orders.PlaceOrder(ctx, service.PlaceOrderCommand{
					BuyerID:        fmt.Sprintf("student-%d", i),
					Items:          items,
					IdempotencyKey: uuid.NewString(),
				})
				latency := time.Since(reqStart)

				atomic.AddInt64(&total, 1)
				switch {
				case err == nil:
					atomic.AddInt64(&placed, 1)
					atomic.AddInt64(&units, int64(qty))
				case errors.Is(err, service.ErrStockUnavailable):
					atomic.AddInt64(&soldOut, 1)
				default:
					if n := atomic.AddInt64(&failed, 1); n <= 10 {
						fmt.Printf("结账失败 [%d]: %v\n", n, err)
					}
				}

				latencyMu.Lock()
				latencies = append(latencies, latency)
				latencyMu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	res := calculateResult("并发结账", time.Since(start), latencies)
	res.Total, res.Placed, res.SoldOut, res.Failed, res.UnitsPlaced = total, placed, soldOut, failed, units
	return res
}

// verifyStock 剩余库存 + 已下单件数 必须等于初始库存
func verifyStock(ctx context.Context, store *repository.Store, initial map[string]int, unitsPlaced int64) bool {
	remaining := 0
	ok := true
	for id, before := range initial {
		p, err := store.Products.Get(ctx, id)
		must(err)
		remaining += p.TotalStock
		if p.TotalStock < 0 {
			fmt.Printf("❌ %s 库存为负: %d\n", p.Name, p.TotalStock)
			ok = false
		}
		if p.HasVariants && p.RecalculateTotal() != p.TotalStock {
			fmt.Printf("❌ %s 总库存 %d 与选项合计 %d 不一致\n", p.Name, p.TotalStock, p.RecalculateTotal())
			ok = false
		}
		fmt.Printf("%s: %d -> %d (%s)\n", p.Name, before, p.TotalStock, p.Status)
	}

	start := 0
	for _, v := range initial {
		start += v
	}
	if int64(start-remaining) != unitsPlaced {
		fmt.Printf("❌ 扣减 %d 件，但订单合计 %d 件\n", start-remaining, unitsPlaced)
		ok = false
	}
	return ok
}

func calculateResult(name string, duration time.Duration, latencies []time.Duration) *BenchResult {
	res := &BenchResult{Name: name, Duration: duration}
	if len(latencies) == 0 {
		return res
	}
	res.QPS = float64(len(latencies)) / duration.Seconds()

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	res.AvgLatency = sum / time.Duration(len(latencies))

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	res.P50Latency = percentile(latencies, 0.50)
	res.P95Latency = percentile(latencies, 0.95)
	res.P99Latency = percentile(latencies, 0.99)
	return res
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Ceil(float64(len(sorted))*p)) - 1
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func printBenchResult(r *BenchResult) {
	fmt.Printf("名称: %s\n", r.Name)
	fmt.Printf("耗时: %v\n", r.Duration.Round(time.Millisecond))
	fmt.Printf("总请求数: %d\n", r.Total)
	fmt.Printf("下单成功: %d (共 %d 件)\n", r.Placed, r.UnitsPlaced)
	fmt.Printf("库存不足: %d\n", r.SoldOut)
	fmt.Printf("其他失败: %d\n", r.Failed)
	fmt.Printf("QPS: %.2f\n", r.QPS)
	fmt.Printf("平均延迟: %v\n", r.AvgLatency)
	fmt.Printf("P50 延迟: %v\n", r.P50Latency)
	fmt.Printf("P95 延迟: %v\n", r.P95Latency)
	fmt.Printf("P99 延迟: %v\n", r.P99Latency)
}

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
