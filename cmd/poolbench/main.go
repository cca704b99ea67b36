// Command poolbench exercises an ObjectPool against a toy factory under a
// configurable mix of borrowers, reporting throughput the way
// ssd-cache/cmd/cachetest drives its load test.
package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/shangshujie365/commons-pool/pool"
)

// widget is the toy resource the demo pool manages: a handle with a
// monotonic ID and an open/closed flag, standing in for a real connection.
type widget struct {
	id     int64
	closed bool
}

type widgetFactory struct {
	next int64
}

func (f *widgetFactory) Make() (*widget, error) {
	id := atomic.AddInt64(&f.next, 1)
	return &widget{id: id}, nil
}

func (f *widgetFactory) Destroy(w *widget) error {
	w.closed = true
	return nil
}

func (f *widgetFactory) Validate(w *widget) (bool, error) {
	return !w.closed, nil
}

func (f *widgetFactory) Activate(*widget) error  { return nil }
func (f *widgetFactory) Passivate(*widget) error { return nil }

func loadConfig() pool.Config {
	viper.SetDefault("POOL_MAX_TOTAL", 16)
	viper.SetDefault("POOL_MAX_IDLE", 16)
	viper.SetDefault("POOL_MIN_IDLE", 2)
	viper.SetDefault("POOL_EVICTION_RUN_MS", 500)
	viper.SetDefault("POOL_MIN_EVICTABLE_IDLE_MS", 2000)
	viper.AutomaticEnv()

	cfg := pool.DefaultConfig()
	cfg.MaxTotal = viper.GetInt("POOL_MAX_TOTAL")
	cfg.MaxIdle = viper.GetInt("POOL_MAX_IDLE")
	cfg.MinIdle = viper.GetInt("POOL_MIN_IDLE")
	cfg.TestWhileIdle = true
	cfg.TimeBetweenEvictionRuns = time.Duration(viper.GetInt("POOL_EVICTION_RUN_MS")) * time.Millisecond
	cfg.MinEvictableIdleTime = time.Duration(viper.GetInt("POOL_MIN_EVICTABLE_IDLE_MS")) * time.Millisecond
	return cfg
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg := loadConfig()
	p, err := pool.New[*widget](&widgetFactory{}, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to construct pool")
		return
	}
	defer p.Close()

	const numWorkers = 8
	const duration = 5 * time.Second

	var borrows int64
	var wg sync.WaitGroup
	deadline := time.Now().Add(duration)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
				v, err := p.BorrowObject(ctx)
				cancel()
				if err != nil {
					continue
				}
				atomic.AddInt64(&borrows, 1)
				time.Sleep(time.Millisecond)
				_ = p.ReturnObject(v)
			}
		}()
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats := p.Stats()
				log.Info().
					Int("active", stats.NumActive).
					Int("idle", stats.NumIdle).
					Int64("created", stats.CreatedCount).
					Int64("destroyed", stats.DestroyCount).
					Int64("borrowed", stats.BorrowedCount).
					Msg("pool stats")
			case <-stop:
				return
			}
		}
	}()

	wg.Wait()
	close(stop)

	fmt.Printf("total borrows: %d\n", atomic.LoadInt64(&borrows))
}
