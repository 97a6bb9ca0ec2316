package config

import (
	"github.com/0xERR0R/rpzindex/helpertest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var (
		c      *Config
		err    error
		tmpDir *helpertest.TmpFolder
	)

	suiteBeforeEach()

	BeforeEach(func() {
		tmpDir = helpertest.NewTmpFolder("config")
		DeferCleanup(tmpDir.Clean)
	})

	Describe("Defaults", func() {
		It("applies default values with no file", func() {
			c, err = LoadConfig(tmpDir.JoinPath("does-not-exist.yml"), false)
			Expect(err).Should(Succeed())

			Expect(c.MaxZones).Should(Equal(uint8(64)))
			Expect(c.QnameWaitRecurse).Should(BeFalse())
			Expect(c.Prometheus.Path).Should(Equal("/metrics"))
			Expect(c.API.Addrs).Should(Equal(ListenConfig{"127.0.0.1:4000"}))
		})
	})

	Describe("Creation of Config", func() {
		When("a single config file is parsed", func() {
			It("should return a valid config struct", func() {
				cfgFile := tmpDir.CreateStringFile("config.yml",
					"maxZones: 32",
					"qnameWaitRecurse: true",
					"redis:",
					"  address: localhost:6379",
				)

				c, err = LoadConfig(cfgFile.Path, true)
				Expect(err).Should(Succeed())

				Expect(c.MaxZones).Should(Equal(uint8(32)))
				Expect(c.QnameWaitRecurse).Should(BeTrue())
				Expect(c.Redis.Enabled()).Should(BeTrue())
				Expect(c.Redis.Address).Should(Equal("localhost:6379"))
			})
		})

		When("a mandatory file does not exist", func() {
			It("should fail", func() {
				_, err := LoadConfig(tmpDir.JoinPath("config-does-not-exist.yaml"), true)
				Expect(err).Should(HaveOccurred())
			})
		})

		When("multiple config files are used", func() {
			It("should merge them in lexical order", func() {
				tmpDir.CreateStringFile("01-base.yml", "maxZones: 16")
				tmpDir.CreateStringFile("02-redis.yml", "redis:", "  address: localhost:6379")

				c, err = LoadConfig(tmpDir.Path, true)
				Expect(err).Should(Succeed())

				Expect(c.MaxZones).Should(Equal(uint8(16)))
				Expect(c.Redis.Address).Should(Equal("localhost:6379"))
			})

			It("should ignore non YAML files", func() {
				tmpDir.CreateStringFile("config.yml", "maxZones: 16")
				tmpDir.CreateStringFile("ignore-me.txt", "THIS SHOULD BE IGNORED!")

				_, err := LoadConfig(tmpDir.Path, true)
				Expect(err).Should(Succeed())
			})

			It("should ignore non regular files", func() {
				tmpDir.CreateStringFile("config.yml", "maxZones: 16")
				tmpDir.CreateSubFolder("subfolder.yml")

				_, err := LoadConfig(tmpDir.Path, true)
				Expect(err).Should(Succeed())
			})
		})

		When("the config folder does not exist", func() {
			It("should fail", func() {
				_, err := LoadConfig(tmpDir.JoinPath("does-not-exist-config/"), true)
				Expect(err).Should(HaveOccurred())
			})
		})

		When("a config file is malformed", func() {
			It("should return an error", func() {
				cfgFile := tmpDir.CreateStringFile("config.yml", "maxZones: [not, a, number]")

				_, err := LoadConfig(cfgFile.Path, true)
				Expect(err).Should(HaveOccurred())
			})
		})
	})

	Describe("Duration", func() {
		It("parses a Go duration string", func() {
			var d Duration

			Expect(d.UnmarshalYAML(func(v interface{}) error {
				*v.(*string) = "90s"

				return nil
			})).Should(Succeed())
			Expect(d.String()).Should(Equal("1m30s"))
		})

		It("treats a bare number as minutes", func() {
			var d Duration

			Expect(d.UnmarshalYAML(func(v interface{}) error {
				*v.(*string) = "2"

				return nil
			})).Should(Succeed())
			Expect(d.String()).Should(Equal("2m0s"))
		})
	})
})
