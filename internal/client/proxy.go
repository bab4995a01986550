package client

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// ProxyPool hands out upstream proxies in round-robin order.
type ProxyPool interface {
	// Next returns the next proxy URL, or "" when the pool is empty.
	Next() string
	Len() int
}

type proxyPool struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewProxyPool probes every proxy against probeURL in parallel and keeps the
// ones that answer. Order of the input is preserved.
func NewProxyPool(ctx context.Context, proxies []string, probeURL string) ProxyPool {
	if len(proxies) == 0 {
		return &proxyPool{}
	}

	log.Infof("🔄 Testing %d upstream proxies...", len(proxies))

	working := make([]bool, len(proxies))
	semaphore := make(chan struct{}, 16)

	var wg sync.WaitGroup
	for i, proxyURL := range proxies {
		wg.Add(1)
		go func() {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			working[i] = probeProxy(ctx, proxyURL, probeURL)
			if working[i] {
				log.Infof("✅ Proxy %s is working", proxyURL)
			} else {
				log.Infof("❌ Proxy %s is not working, skipping", proxyURL)
			}
		}()
	}
	wg.Wait()

	valid := make([]string, 0, len(proxies))
	for i, ok := range working {
		if ok {
			valid = append(valid, proxies[i])
		}
	}

	log.Infof("✅ Proxy pool ready with %d of %d proxies", len(valid), len(proxies))
	return &proxyPool{proxies: valid}
}

func (p *proxyPool) Next() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxy
}

func (p *proxyPool) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

func probeProxy(ctx context.Context, proxyURL, probeURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().SetContext(ctx).Get(probeURL)
	if err != nil {
		log.Debugf("Proxy probe failed for %s: %v", proxyURL, err)
		return false
	}
	if resp.IsError() {
		log.Debugf("Proxy probe failed for %s with status: %s", proxyURL, resp.Status())
		return false
	}
	return true
}
