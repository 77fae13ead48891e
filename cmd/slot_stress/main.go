package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/warehouse-grant/internal/adapter/storage"
	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "redis address")
	totalRequests := flag.Int("n", 400, "number of concurrent slot allocations")
	keyPrefix := flag.String("prefix", "slot-stress:", "prefix for every key the tool writes; an empty prefix resets the live slot counter")
	flag.Parse()

	ctx := context.Background()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	adapter := storage.NewRedisAdapter(rdb).WithKeyPrefix(*keyPrefix)
	if err := adapter.ResetSlot(ctx, domain.InitialSlot); err != nil {
		log.Fatalf("failed to reset slot: %v", err)
	}

	var (
		mu        sync.Mutex
		counts    = make(map[domain.Slot]int)
		failCount atomic.Int32
		foreign   atomic.Int32
		wg        sync.WaitGroup
	)
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			slot, err := adapter.NextSlot(ctx)
			if err != nil {
				failCount.Add(1)
				return
			}
			if !slot.Valid() {
				foreign.Add(1)
			}
			mu.Lock()
			counts[slot]++
			mu.Unlock()
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	slots := make([]domain.Slot, 0, len(counts))
	for s := range counts {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	fmt.Println("========== SLOT STRESS RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	for _, s := range slots {
		fmt.Printf("Slot %d:          %d\n", s, counts[s])
	}
	fmt.Println("==========================================")

	// Each slot must be handed out the same number of times, give or take one.
	pass := foreign.Load() == 0 && failCount.Load() == 0
	lo, hi := *totalRequests, 0
	for _, s := range domain.DeliverySlots {
		lo = min(lo, counts[s])
		hi = max(hi, counts[s])
	}
	if hi-lo > 1 {
		pass = false
	}

	if pass {
		fmt.Println("PASS: rotation is even and every slot is a member of the cycle")
	} else {
		fmt.Printf("FAIL: foreign=%d failed=%d spread=%d\n", foreign.Load(), failCount.Load(), hi-lo)
	}

	next, _ := adapter.NextSlot(ctx)
	fmt.Printf("Next Slot:        %d\n", next)
}
