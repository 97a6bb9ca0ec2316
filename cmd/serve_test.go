package cmd

import (
	"context"
	"time"

	"github.com/0xERR0R/rpzindex/redis"
	"github.com/0xERR0R/rpzindex/rpz"

	rediscfg "github.com/0xERR0R/rpzindex/config"

	"github.com/alicebob/miniredis/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("registerReloadPublisher", func() {
	It("publishes a reload message with the zone's origin once wired", func() {
		mredis, err := miniredis.Run()
		Expect(err).ShouldNot(HaveOccurred())
		defer mredis.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rclient, err := redis.New(ctx, rediscfg.RedisConfig{Address: mredis.Addr()})
		Expect(err).ShouldNot(HaveOccurred())
		defer rclient.Close()

		sub, err := redis.New(ctx, rediscfg.RedisConfig{Address: mredis.Addr()})
		Expect(err).ShouldNot(HaveOccurred())
		defer sub.Close()

		msgs := sub.Subscribe(ctx)

		idx := rpz.NewIndex()
		registerReloadPublisher(idx, rclient)

		st := idx.BeginLoad(1, "zone1.example.")
		Expect(st.Add("evil.example.com.")).Should(Succeed())
		idx.Ready(st)

		Eventually(msgs).Should(Receive(Equal(redis.ReloadMessage{Zone: 1, Origin: "zone1.example."})))
	})

	It("no-ops when rclient is nil", func() {
		idx := rpz.NewIndex()
		Expect(func() { registerReloadPublisher(idx, nil) }).ShouldNot(Panic())
	})
})
